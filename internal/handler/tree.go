package handler

import (
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"repoview/internal/gitrepo"
)

// TreeResponse represents a directory listing at a revision.
type TreeResponse struct {
	Path     string              `json:"path"`
	Revision string              `json:"revision"`
	Entries  []gitrepo.TreeEntry `json:"entries"`
}

// TreeHandler handles directory listing API requests.
type TreeHandler struct {
	repos *RepoSet
}

// NewTreeHandler creates a new tree handler.
func NewTreeHandler(repos *RepoSet) *TreeHandler {
	return &TreeHandler{repos: repos}
}

// GetTree lists the immediate children of a directory at a revision,
// directories first, each group sorted by name.
func (h *TreeHandler) GetTree(c *gin.Context) {
	owner := c.Param("owner")
	name := c.Param("repo")
	path := strings.TrimPrefix(c.Param("path"), "/")

	if strings.Contains(path, "..") {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid path"})
		return
	}

	repo, _, rc, found := h.repos.Lookup(owner, name)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "repository not found"})
		return
	}

	rev := c.Query("rev")
	if rev == "" {
		rev = rc.DefaultRef
	}

	entries, err := repo.ReadDir(rev, path)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "directory not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to list directory: %v", err),
		})
		return
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})

	c.JSON(http.StatusOK, TreeResponse{
		Path:     path,
		Revision: rev,
		Entries:  entries,
	})
}
