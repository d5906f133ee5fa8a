package view

import (
	"os"
	"strings"
	"testing"
)

// fakeSource serves canned metadata per path and content per (revision, path).
type fakeSource struct {
	meta    map[string]*FileMeta
	content map[string]string
	onRead  func(s *fakeSource, revision, path string)
}

func (s *fakeSource) Stat(revision, path string) (*FileMeta, error) {
	m, ok := s.meta[path]
	if !ok {
		return nil, nil
	}
	return m, nil
}

func (s *fakeSource) ReadFile(revision, path string) ([]byte, error) {
	if s.onRead != nil {
		s.onRead(s, revision, path)
	}
	c, ok := s.content[revision+":"+path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(c), nil
}

func newTestRenderer(source *fakeSource) *Renderer {
	return NewRenderer(source, Params{Owner: "alice", Repo: "project", Revision: "HEAD"})
}

func TestRenderLoading(t *testing.T) {
	r := newTestRenderer(&fakeSource{meta: map[string]*FileMeta{}})

	fv, err := r.Render(Params{Path: "pending.txt"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if fv.Strategy != "loading" {
		t.Errorf("expected loading strategy, got %s", fv.Strategy)
	}
	if fv.URL != "" || fv.HTML != "" {
		t.Error("expected empty content region while loading")
	}
}

func TestRenderImage(t *testing.T) {
	src := &fakeSource{
		meta: map[string]*FileMeta{
			"logo.png": {
				Path:       "logo.png",
				IsBinary:   true,
				MIMEType:   "image/png",
				Size:       4096,
				LastCommit: CommitInfo{Hash: "abc123"},
			},
		},
	}
	r := newTestRenderer(src)

	fv, err := r.Render(Params{Path: "logo.png"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if fv.Strategy != "image" {
		t.Fatalf("expected image strategy, got %s", fv.Strategy)
	}
	if !strings.Contains(fv.URL, "logo.png") || !strings.Contains(fv.URL, "rev=abc123") {
		t.Errorf("expected URL with path and revision, got %s", fv.URL)
	}
	if fv.Name != "logo.png" {
		t.Errorf("expected alt-text name logo.png, got %s", fv.Name)
	}
	if fv.HTML != "" {
		t.Error("image strategy must not fetch content through the source")
	}
}

func TestRenderUnsupportedBinary(t *testing.T) {
	src := &fakeSource{
		meta: map[string]*FileMeta{
			"archive.zip": {
				Path:       "archive.zip",
				IsBinary:   true,
				MIMEType:   "application/zip",
				Size:       2048,
				LastCommit: CommitInfo{Hash: "abc123"},
			},
		},
	}
	r := newTestRenderer(src)

	fv, err := r.Render(Params{Path: "archive.zip"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if fv.Strategy != "binary" {
		t.Fatalf("expected binary strategy, got %s", fv.Strategy)
	}
	if fv.Size != 2048 {
		t.Errorf("expected download affordance showing 2048 bytes, got %d", fv.Size)
	}
	if !strings.Contains(fv.URL, "archive.zip") {
		t.Errorf("expected download URL for archive.zip, got %s", fv.URL)
	}
}

func TestRenderText(t *testing.T) {
	src := &fakeSource{
		meta: map[string]*FileMeta{
			"main.go": {
				Path:       "main.go",
				MIMEType:   "text/plain; charset=utf-8",
				Size:       30,
				LastCommit: CommitInfo{Hash: "abc123", Author: "Alice"},
			},
		},
		content: map[string]string{
			"abc123:main.go": "package main\n\nfunc main() {}\n",
		},
	}
	r := newTestRenderer(src)

	fv, err := r.Render(Params{Path: "main.go"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if fv.Strategy != "text" {
		t.Fatalf("expected text strategy, got %s", fv.Strategy)
	}
	if fv.Language != "Go" {
		t.Errorf("expected detected language Go, got %s", fv.Language)
	}
	if fv.Revision != "abc123" {
		t.Errorf("expected revision seeded from last commit, got %s", fv.Revision)
	}
	if !strings.Contains(fv.HTML, "main") {
		t.Error("expected highlighted content in HTML")
	}
	if fv.LastCommit == nil || fv.LastCommit.Author != "Alice" {
		t.Errorf("expected last commit info, got %+v", fv.LastCommit)
	}
}

func TestRenderHideLastCommit(t *testing.T) {
	src := &fakeSource{
		meta: map[string]*FileMeta{
			"notes.txt": {
				Path:       "notes.txt",
				LastCommit: CommitInfo{Hash: "abc123"},
			},
		},
		content: map[string]string{"abc123:notes.txt": "hello"},
	}
	r := newTestRenderer(src)

	fv, err := r.Render(Params{Path: "notes.txt", HideLastCommit: true})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if fv.LastCommit != nil {
		t.Error("expected last commit suppressed")
	}
	if fv.Strategy != "text" {
		t.Errorf("hide_commit must not affect dispatch, got %s", fv.Strategy)
	}
}

func TestRenderMarkdownRelativeImage(t *testing.T) {
	src := &fakeSource{
		meta: map[string]*FileMeta{
			"docs/guide.md": {
				Path:       "docs/guide.md",
				MIMEType:   "text/plain; charset=utf-8",
				LastCommit: CommitInfo{Hash: "abc123"},
			},
		},
		content: map[string]string{
			"abc123:docs/guide.md": "# Guide\n\n![pic](../assets/pic.png)\n",
		},
	}
	r := newTestRenderer(src)

	fv, err := r.Render(Params{Path: "docs/guide.md"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if fv.Strategy != "markdown" {
		t.Fatalf("expected markdown strategy, got %s", fv.Strategy)
	}
	if !strings.Contains(fv.HTML, "/api/raw/alice/project/assets/pic.png?rev=abc123") {
		t.Errorf("expected image resolved one level up from docs, got %s", fv.HTML)
	}
	if fv.Title != "Guide" {
		t.Errorf("expected document title Guide, got %s", fv.Title)
	}
}

func TestRenderMissingContentRendersNothing(t *testing.T) {
	src := &fakeSource{
		meta: map[string]*FileMeta{
			"gone.md": {
				Path:       "gone.md",
				LastCommit: CommitInfo{Hash: "abc123"},
			},
		},
		content: map[string]string{},
	}
	r := newTestRenderer(src)

	fv, err := r.Render(Params{Path: "gone.md"})
	if err != nil {
		t.Fatalf("expected silent degradation, got error: %v", err)
	}
	if fv.HTML != "" {
		t.Errorf("expected empty content region, got %q", fv.HTML)
	}
	if fv.Strategy != "markdown" {
		t.Errorf("expected markdown strategy kept, got %s", fv.Strategy)
	}
}

func TestRenderExplicitRevisionWins(t *testing.T) {
	src := &fakeSource{
		meta: map[string]*FileMeta{
			"notes.txt": {
				Path:       "notes.txt",
				LastCommit: CommitInfo{Hash: "abc123"},
			},
		},
		content: map[string]string{
			"abc123:notes.txt":  "tip content",
			"feature:notes.txt": "feature content",
		},
	}
	r := newTestRenderer(src)

	fv, err := r.Render(Params{Path: "notes.txt", Revision: "feature"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if fv.Revision != "feature" {
		t.Errorf("expected explicit revision feature, got %s", fv.Revision)
	}
	if !strings.Contains(fv.HTML, "feature content") {
		t.Errorf("expected content fetched at explicit revision, got %q", fv.HTML)
	}
}

func TestRenderStaleFetchSuppression(t *testing.T) {
	src := &fakeSource{
		meta: map[string]*FileMeta{
			"notes.txt": {
				Path:       "notes.txt",
				LastCommit: CommitInfo{Hash: "r1"},
			},
		},
		content: map[string]string{
			"r1:notes.txt": "stale r1 content",
			"r2:notes.txt": "fresh r2 content",
		},
	}
	r := newTestRenderer(src)

	// While the r1 fetch is in flight the picker switches to r2. The r1
	// result must be discarded and the displayed content must reflect r2.
	src.onRead = func(s *fakeSource, revision, path string) {
		if revision == "r1" {
			r.SetRevision("notes.txt", "r2")
			s.onRead = nil
		}
	}

	fv, err := r.Render(Params{Path: "notes.txt"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if fv.Revision != "r2" {
		t.Errorf("expected applied revision r2, got %s", fv.Revision)
	}
	if !strings.Contains(fv.HTML, "fresh r2 content") {
		t.Errorf("expected r2 content, got %q", fv.HTML)
	}
	if strings.Contains(fv.HTML, "stale r1 content") {
		t.Error("stale r1 content must never be displayed")
	}
}

func TestTrackersAreKeyedByPath(t *testing.T) {
	src := &fakeSource{
		meta: map[string]*FileMeta{
			"a.txt": {Path: "a.txt", LastCommit: CommitInfo{Hash: "aaa"}},
			"b.txt": {Path: "b.txt", LastCommit: CommitInfo{Hash: "bbb"}},
		},
		content: map[string]string{
			"aaa:a.txt":  "a at tip",
			"pick:a.txt": "a picked",
			"bbb:b.txt":  "b at tip",
		},
	}
	r := newTestRenderer(src)

	r.SetRevision("a.txt", "pick")

	fv, err := r.Render(Params{Path: "a.txt"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if fv.Revision != "pick" {
		t.Errorf("expected picked revision for a.txt, got %s", fv.Revision)
	}

	// b.txt has its own tracker and still seeds from its last commit
	fv, err = r.Render(Params{Path: "b.txt"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if fv.Revision != "bbb" {
		t.Errorf("expected b.txt seeded from its last commit, got %s", fv.Revision)
	}
}
