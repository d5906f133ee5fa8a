package view

import "sync"

// ContentKey identifies one (path, revision) content request. Fetch results
// are applied only while their key is still the tracker's current key, so a
// stale in-flight fetch can never overwrite content for a newer revision.
type ContentKey struct {
	Path     string
	Revision string
}

// RevisionTracker holds the revision currently selected for one path. It
// starts unset, seeds itself exactly once from the first metadata that
// arrives for the path, and afterwards only moves when an external revision
// picker calls Set. The tracker never triggers fetches itself; it only holds
// the value callers read to decide what to request.
type RevisionTracker struct {
	mu       sync.Mutex
	revision string
	tracking bool
}

// Observe seeds the tracker from the metadata's last commit. Only the first
// delivery seeds; repeated metadata for the same path does not re-fire.
func (t *RevisionTracker) Observe(meta *FileMeta) {
	if meta == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tracking {
		return
	}
	t.revision = meta.LastCommit.Hash
	t.tracking = true
}

// Set records a revision chosen by the user. Setting before metadata has
// arrived also moves the tracker out of its unset state.
func (t *RevisionTracker) Set(revision string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revision = revision
	t.tracking = true
}

// Current returns the tracked revision, or false while the tracker is unset.
func (t *RevisionTracker) Current() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.revision, t.tracking
}

// Key returns the content key for the given path at the current revision.
func (t *RevisionTracker) Key(path string) ContentKey {
	rev, _ := t.Current()
	return ContentKey{Path: path, Revision: rev}
}

// Fresh reports whether a fetch tagged with key may still be applied.
func (t *RevisionTracker) Fresh(key ContentKey) bool {
	return t.Key(key.Path) == key
}
