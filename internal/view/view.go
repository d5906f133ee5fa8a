package view

import "sync"

// Source supplies file metadata and content from a repository at a revision.
// Stat returns (nil, nil) while metadata for the path is not yet available;
// that is a loading state, not an error.
type Source interface {
	Stat(revision, path string) (*FileMeta, error)
	ReadFile(revision, path string) ([]byte, error)
}

// Params selects the file to render. Zero-valued fields fall back to the
// renderer's ambient defaults; explicit values always win. Revision, when
// set, acts as a revision-picker event for the path's tracker.
type Params struct {
	Owner          string
	Repo           string
	Path           string
	Revision       string
	HideLastCommit bool
}

// FileView is the renderable result: the title region carries the path and
// file name, the content region carries the selected strategy's output, and
// LastCommit backs the revision-info control unless suppressed.
type FileView struct {
	Path       string      `json:"path"`
	Name       string      `json:"name"`
	Strategy   string      `json:"strategy"`
	Revision   string      `json:"revision,omitempty"`
	Title      string      `json:"title,omitempty"`
	HTML       string      `json:"html,omitempty"`
	TOC        []TOCItem   `json:"toc,omitempty"`
	URL        string      `json:"url,omitempty"`
	Size       int64       `json:"size,omitempty"`
	Language   string      `json:"language,omitempty"`
	LastCommit *CommitInfo `json:"lastCommit,omitempty"`
}

// Renderer orchestrates a file view for one repository: it resolves params
// against ambient defaults, fetches metadata, derives the revision to show,
// dispatches to a display strategy, and assembles the view model. It keeps
// one RevisionTracker per path, so navigating to a new path starts unset.
type Renderer struct {
	source   Source
	defaults Params
	markdown *MarkdownRenderer
	code     func() *CodeRenderer

	mu       sync.Mutex
	trackers map[string]*RevisionTracker
}

// NewRenderer creates a renderer for the repository behind source. The
// defaults supply the ambient navigation context (owner, repo, and the ref
// used to look up metadata before a revision is tracked). The code renderer
// is constructed lazily on first use.
func NewRenderer(source Source, defaults Params) *Renderer {
	return &Renderer{
		source:   source,
		defaults: defaults,
		markdown: NewMarkdownRenderer(),
		code:     sync.OnceValue(NewCodeRenderer),
		trackers: make(map[string]*RevisionTracker),
	}
}

// SetRevision records a revision chosen from a revision picker for path.
func (r *Renderer) SetRevision(path, revision string) {
	r.trackerFor(path).Set(revision)
}

// Render produces the view model for one file. Absent metadata yields a
// loading view; content that cannot be fetched yields an empty content
// region rather than an error.
func (r *Renderer) Render(p Params) (*FileView, error) {
	p = r.resolveParams(p)
	dir, name := SplitPath(p.Path)

	metaRef := p.Revision
	if metaRef == "" {
		metaRef = r.defaults.Revision
	}
	if metaRef == "" {
		metaRef = "HEAD"
	}
	meta, err := r.source.Stat(metaRef, p.Path)
	if err != nil {
		return nil, err
	}

	tracker := r.trackerFor(p.Path)
	tracker.Observe(meta)
	if p.Revision != "" {
		tracker.Set(p.Revision)
	}

	fv := &FileView{Path: p.Path, Name: name}

	strategy := SelectStrategy(meta)
	rev, tracked := tracker.Current()
	if strategy == StrategyLoading || !tracked {
		fv.Strategy = StrategyLoading.String()
		return fv, nil
	}

	fv.Strategy = strategy.String()
	fv.Revision = rev
	fv.Size = meta.Size
	if !p.HideLastCommit {
		lc := meta.LastCommit
		fv.LastCommit = &lc
	}

	switch strategy {
	case StrategyImage, StrategyUnsupportedBinary:
		fv.URL = FileURL(p.Owner, p.Repo, rev, p.Path)

	case StrategyText:
		fv.Language = DetectLanguage(p.Path)
		content, applied, ok := r.fetchContent(tracker, p.Path)
		if !ok {
			break
		}
		fv.Revision = applied
		if html, err := r.code().Render(content, fv.Language); err == nil {
			fv.HTML = html
		}

	case StrategyMarkdown:
		content, applied, ok := r.fetchContent(tracker, p.Path)
		if !ok {
			break
		}
		fv.Revision = applied
		format := func(imagePath string) string {
			return FileURL(p.Owner, p.Repo, applied, ResolveRelative(dir, imagePath))
		}
		if res, err := r.markdown.Render([]byte(content), format); err == nil {
			fv.HTML = res.HTML
			fv.TOC = res.TOC
			fv.Title = res.Title
		}
	}

	return fv, nil
}

// fetchContent reads content for the path at the tracker's current revision.
// A result is applied only if its key is still current when the read returns;
// otherwise a newer revision was selected mid-flight and the fetch repeats
// with the latest key, so the last selected revision always wins.
func (r *Renderer) fetchContent(tracker *RevisionTracker, path string) (content, revision string, ok bool) {
	for {
		key := tracker.Key(path)
		if key.Revision == "" {
			return "", "", false
		}
		data, err := r.source.ReadFile(key.Revision, path)
		if !tracker.Fresh(key) {
			continue
		}
		if err != nil {
			return "", key.Revision, false
		}
		return string(data), key.Revision, true
	}
}

// resolveParams merges explicit params over the ambient defaults. Revision
// deliberately stays as given: a default ref is not a picker event.
func (r *Renderer) resolveParams(p Params) Params {
	if p.Owner == "" {
		p.Owner = r.defaults.Owner
	}
	if p.Repo == "" {
		p.Repo = r.defaults.Repo
	}
	if p.Path == "" {
		p.Path = r.defaults.Path
	}
	return p
}

func (r *Renderer) trackerFor(path string) *RevisionTracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trackers[path]
	if !ok {
		t = &RevisionTracker{}
		r.trackers[path] = t
	}
	return t
}
