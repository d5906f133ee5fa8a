package handler

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"repoview/internal/view"
)

// FileHandler handles file view and raw content API requests.
type FileHandler struct {
	repos *RepoSet
}

// NewFileHandler creates a new file handler.
func NewFileHandler(repos *RepoSet) *FileHandler {
	return &FileHandler{repos: repos}
}

// resolve extracts and validates the owner/repo/path route parameters.
func (h *FileHandler) resolve(c *gin.Context) (owner, name, path string, ok bool) {
	owner = c.Param("owner")
	name = c.Param("repo")
	path = strings.TrimPrefix(c.Param("path"), "/")

	// Security: prevent path traversal
	if strings.Contains(path, "..") {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid path"})
		return "", "", "", false
	}
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path required"})
		return "", "", "", false
	}
	return owner, name, path, true
}

// GetView returns the file view model: the selected display strategy with
// its rendered content, URL, or download affordance, the revision shown, and
// the last commit touching the path.
func (h *FileHandler) GetView(c *gin.Context) {
	owner, name, path, ok := h.resolve(c)
	if !ok {
		return
	}

	_, renderer, _, found := h.repos.Lookup(owner, name)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "repository not found"})
		return
	}

	hide := c.Query("hide_commit")
	fv, err := renderer.Render(view.Params{
		Path:           path,
		Revision:       c.Query("rev"),
		HideLastCommit: hide == "1" || hide == "true",
	})
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to render file: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, fv)
}

// GetRaw returns the raw file bytes at a revision with a sniffed content
// type. Image tags and download links produced by the view point here.
func (h *FileHandler) GetRaw(c *gin.Context) {
	owner, name, path, ok := h.resolve(c)
	if !ok {
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

	data, err := repo.ReadFile(rev, path)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to read file: %v", err),
		})
		return
	}

	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}

// GetRefs lists the repository's branches and tags for the revision picker.
func (h *FileHandler) GetRefs(c *gin.Context) {
	repo, _, _, found := h.repos.Lookup(c.Param("owner"), c.Param("repo"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "repository not found"})
		return
	}

	refs, err := repo.Refs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("failed to list refs: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"refs": refs})
}
