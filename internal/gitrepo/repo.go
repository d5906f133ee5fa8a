// Package gitrepo reads file content and metadata from a git object
// database at an arbitrary revision, by shelling out to the git CLI.
package gitrepo

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	lru "github.com/hashicorp/golang-lru/v2"

	"repoview/internal/view"
)

// sniffLen bounds how much of a blob is inspected for binary and MIME
// detection.
const sniffLen = 8000

// DefaultCommitCacheSize is used when the configured cache size is zero.
const DefaultCommitCacheSize = 512

// Ref is a branch or tag in the repository.
type Ref struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
	Type string `json:"type"`
}

// Repository reads from the git repository at a local path. Last-commit
// lookups are cached per (revision, path); file content is never cached.
type Repository struct {
	path    string
	commits *lru.Cache[string, *view.CommitInfo]
}

// Open creates a Repository for the git repository at path.
func Open(path string, commitCacheSize int) (*Repository, error) {
	if commitCacheSize <= 0 {
		commitCacheSize = DefaultCommitCacheSize
	}
	cache, err := lru.New[string, *view.CommitInfo](commitCacheSize)
	if err != nil {
		return nil, err
	}
	return &Repository{path: path, commits: cache}, nil
}

// Path returns the repository's location on disk.
func (r *Repository) Path() string {
	return r.path
}

func (r *Repository) git(args ...string) (string, error) {
	cmd := exec.Command("git", append([]string{"-C", r.path}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

// ReadFile reads the blob at the given path from the given revision.
func (r *Repository) ReadFile(revision, path string) ([]byte, error) {
	if path == "" || path == "." {
		return nil, fmt.Errorf("cannot read directory as file")
	}
	cmd := exec.Command("git", "-C", r.path, "show", revision+":"+path)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			if notExistStderr(stderr) {
				return nil, os.ErrNotExist
			}
			return nil, fmt.Errorf("git show: %s", stderr)
		}
		return nil, err
	}
	return out, nil
}

// notExistStderr reports whether git stderr describes a path or object that
// is absent at the requested revision, as opposed to a genuine failure.
// Covers "path 'x' does not exist in 'rev'", "path 'x' exists on disk, but
// not in 'rev'", and "Not a valid object name rev:x".
func notExistStderr(stderr string) bool {
	return strings.Contains(stderr, "not exist") ||
		strings.Contains(stderr, "but not in") ||
		strings.Contains(stderr, "Not a valid object name")
}

// Stat returns metadata for the file at the given path and revision: size
// from the object database, a binary flag from a NUL-byte sniff of the blob's
// first bytes, the detected MIME type, and the last commit touching the path.
func (r *Repository) Stat(revision, path string) (*view.FileMeta, error) {
	sizeOut, err := r.git("cat-file", "-s", revision+":"+path)
	if err != nil {
		if notExistStderr(err.Error()) {
			return nil, os.ErrNotExist
		}
		return nil, err
	}
	size, err := strconv.ParseInt(strings.TrimSpace(sizeOut), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("git cat-file -s %s:%s: %w", revision, path, err)
	}

	data, err := r.ReadFile(revision, path)
	if err != nil {
		return nil, err
	}
	chunk := data
	if len(chunk) > sniffLen {
		chunk = chunk[:sniffLen]
	}

	last, err := r.LastCommit(revision, path)
	if err != nil {
		return nil, err
	}

	return &view.FileMeta{
		Path:       path,
		IsBinary:   bytes.IndexByte(chunk, 0) >= 0,
		MIMEType:   mimetype.Detect(chunk).String(),
		Size:       size,
		LastCommit: *last,
	}, nil
}

// LastCommit returns the most recent commit at or before revision that
// touched the given path.
func (r *Repository) LastCommit(revision, path string) (*view.CommitInfo, error) {
	key := revision + "\x00" + path
	if info, ok := r.commits.Get(key); ok {
		return info, nil
	}

	out, err := r.git("log", "-1", "--format=%H%x1f%an%x1f%ae%x1f%ct%x1f%s", revision, "--", path)
	if err != nil {
		return nil, err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, os.ErrNotExist
	}
	fields := strings.Split(out, "\x1f")
	if len(fields) != 5 {
		return nil, fmt.Errorf("unexpected git log output: %q", out)
	}

	sec, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse commit time %q: %w", fields[3], err)
	}

	info := &view.CommitInfo{
		Hash:    fields[0],
		Author:  fields[1],
		Email:   fields[2],
		Time:    time.Unix(sec, 0),
		Message: fields[4],
	}
	r.commits.Add(key, info)
	return info, nil
}

// TreeEntry is a single entry of a directory at a revision.
type TreeEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"isDir"`
}

// ReadDir lists the immediate children of the directory at the given path
// and revision.
func (r *Repository) ReadDir(revision, path string) ([]TreeEntry, error) {
	args := []string{"ls-tree", revision}
	if path != "" && path != "." {
		args = append(args, path+"/")
	}

	out, err := r.git(args...)
	if err != nil {
		return nil, os.ErrNotExist
	}

	entries := []TreeEntry{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// Format: "<mode> <type> <hash>\t<name>"
		tabIdx := strings.IndexByte(line, '\t')
		if tabIdx < 0 {
			continue
		}
		fields := strings.Fields(line[:tabIdx])
		if len(fields) < 3 {
			continue
		}

		name := line[tabIdx+1:]
		if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
			name = name[idx+1:]
		}

		entries = append(entries, TreeEntry{
			Name:  name,
			IsDir: fields[1] == "tree",
		})
	}
	return entries, nil
}

// InvalidateCommits drops all cached last-commit entries. Called when a ref
// advances, since a branch name no longer points where it did.
func (r *Repository) InvalidateCommits() {
	r.commits.Purge()
}

// ResolveRef resolves a branch, tag, or symbolic ref to a commit hash.
func (r *Repository) ResolveRef(ref string) (string, error) {
	out, err := r.git("rev-parse", "--verify", ref)
	if err != nil {
		return "", os.ErrNotExist
	}
	return strings.TrimSpace(out), nil
}

// Refs lists the repository's branches and tags for the revision picker.
func (r *Repository) Refs() ([]Ref, error) {
	out, err := r.git("for-each-ref", "--format=%(refname)%09%(refname:short)%09%(objectname)",
		"refs/heads", "refs/tags")
	if err != nil {
		return nil, err
	}

	var refs []Ref
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			continue
		}
		typ := "branch"
		if strings.HasPrefix(fields[0], "refs/tags/") {
			typ = "tag"
		}
		refs = append(refs, Ref{Name: fields[1], Hash: fields[2], Type: typ})
	}
	return refs, nil
}
