// Package view renders a single repository file at a revision, choosing a
// display strategy from the file's metadata.
package view

import (
	"path"
	"strings"
)

// SplitPath splits a repository path at its last slash into the directory
// portion and the file name. A path with no slash has an empty directory.
func SplitPath(p string) (dir, name string) {
	idx := strings.LastIndexByte(p, '/')
	if idx < 0 {
		return "", p
	}
	return p[:idx], p[idx+1:]
}

// ResolveRelative resolves a reference found inside rendered content against
// the directory of the file being rendered, producing an absolute repository
// path. References that already start with a slash pass through unchanged.
// Malformed references are resolved best-effort; no validation is performed.
func ResolveRelative(baseDir, ref string) string {
	if strings.HasPrefix(ref, "/") {
		return ref
	}
	return path.Join(baseDir, ref)
}
