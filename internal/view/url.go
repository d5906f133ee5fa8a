package view

import (
	"net/url"
	"strings"
)

// FileURL builds the raw-content URL for a file at a revision. It is pure
// string construction; the browser fetches image bytes and downloads through
// this URL directly, without going through the content source.
func FileURL(owner, repo, revision, filePath string) string {
	filePath = strings.TrimPrefix(filePath, "/")

	segments := []string{"api", "raw", owner, repo}
	segments = append(segments, strings.Split(filePath, "/")...)
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	u := "/" + strings.Join(segments, "/")
	if revision != "" {
		u += "?rev=" + url.QueryEscape(revision)
	}
	return u
}
