package view

import "testing"

func TestRevisionTrackerSeedsOnce(t *testing.T) {
	tracker := &RevisionTracker{}

	if _, ok := tracker.Current(); ok {
		t.Fatal("expected tracker to start unset")
	}

	meta := &FileMeta{Path: "main.go", LastCommit: CommitInfo{Hash: "abc123"}}
	tracker.Observe(meta)

	rev, ok := tracker.Current()
	if !ok || rev != "abc123" {
		t.Fatalf("expected Tracking(abc123), got (%q, %v)", rev, ok)
	}

	// A second delivery of metadata for the same path must not re-seed
	tracker.Set("def456")
	tracker.Observe(meta)

	rev, _ = tracker.Current()
	if rev != "def456" {
		t.Errorf("expected def456 after picker set, got %q", rev)
	}
}

func TestRevisionTrackerObserveNil(t *testing.T) {
	tracker := &RevisionTracker{}
	tracker.Observe(nil)

	if _, ok := tracker.Current(); ok {
		t.Error("expected tracker to stay unset on nil metadata")
	}
}

func TestRevisionTrackerFresh(t *testing.T) {
	tracker := &RevisionTracker{}
	tracker.Set("r1")

	key := tracker.Key("main.go")
	if !tracker.Fresh(key) {
		t.Fatal("expected current key to be fresh")
	}

	tracker.Set("r2")
	if tracker.Fresh(key) {
		t.Error("expected r1 key to be stale after switching to r2")
	}
	if !tracker.Fresh(tracker.Key("main.go")) {
		t.Error("expected r2 key to be fresh")
	}
}
