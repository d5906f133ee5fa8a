// Package watcher monitors git ref storage and broadcasts revision-update
// events via callbacks.
package watcher

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"repoview/internal/config"
)

// Event signals that a ref in a repository moved: a branch advanced, a tag
// was created, or HEAD was repointed.
type Event struct {
	Owner string
	Repo  string
	Ref   string
}

// Callback is a function called when a ref update is detected.
type Callback func(Event)

// Watcher monitors the .git ref storage of every configured repository.
type Watcher struct {
	watcher   *fsnotify.Watcher
	cfg       *config.Config
	callbacks []Callback
	mu        sync.RWMutex
	done      chan struct{}
}

// New creates a new ref watcher.
func New(cfg *config.Config) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher: w,
		cfg:     cfg,
		done:    make(chan struct{}),
	}, nil
}

// OnChange registers a callback for ref update events.
func (w *Watcher) OnChange(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start begins watching the ref storage of all configured repositories.
func (w *Watcher) Start() error {
	for _, repo := range w.cfg.Repos {
		gitDir := filepath.Join(repo.Path, ".git")
		if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
			// bare repository, or a worktree .git file
			gitDir = repo.Path
		}

		// HEAD and packed-refs live directly in the git dir; loose refs
		// under refs/ need every subdirectory watched
		if err := w.watcher.Add(gitDir); err != nil {
			log.Printf("Warning: cannot watch %s: %v", gitDir, err)
			continue
		}
		refsDir := filepath.Join(gitDir, "refs")
		_ = filepath.Walk(refsDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			if info.IsDir() {
				if err := w.watcher.Add(path); err != nil {
					log.Printf("Warning: cannot watch %s: %v", path, err)
				}
			}
			return nil
		})
	}

	go w.eventLoop()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	repo, ref, ok := w.classify(event.Name)
	if !ok {
		return
	}

	// A new directory under refs/ (e.g. refs/heads/feature/) holds refs
	// that have not been seen yet
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		_ = w.watcher.Add(event.Name)
		return
	}

	e := Event{Owner: repo.Owner, Repo: repo.Name, Ref: ref}

	w.mu.RLock()
	callbacks := make([]Callback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb(e)
	}
}

// classify maps a changed file back to its repository and the ref it
// represents. Non-ref files (index, object packs, lock files) are ignored.
func (w *Watcher) classify(path string) (config.Repo, string, bool) {
	for _, repo := range w.cfg.Repos {
		rel, err := filepath.Rel(repo.Path, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		rel = filepath.ToSlash(strings.TrimPrefix(rel, ".git/"))

		if strings.HasSuffix(rel, ".lock") {
			return config.Repo{}, "", false
		}
		switch {
		case rel == "HEAD" || rel == "packed-refs":
			return repo, rel, true
		case strings.HasPrefix(rel, "refs/"):
			return repo, rel, true
		}
		return config.Repo{}, "", false
	}
	return config.Repo{}, "", false
}
