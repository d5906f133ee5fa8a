// Package handler provides HTTP handlers for the repoview REST API.
package handler

import (
	"repoview/internal/config"
	"repoview/internal/gitrepo"
	"repoview/internal/view"
	"repoview/internal/watcher"
)

// RepoSet holds the open repositories and one view renderer per repository.
type RepoSet struct {
	cfg       *config.Config
	repos     map[string]*gitrepo.Repository
	renderers map[string]*view.Renderer
}

// NewRepoSet opens every configured repository and builds its renderer. The
// repository's owner, name, and default ref become the renderer's ambient
// navigation context.
func NewRepoSet(cfg *config.Config) (*RepoSet, error) {
	s := &RepoSet{
		cfg:       cfg,
		repos:     make(map[string]*gitrepo.Repository),
		renderers: make(map[string]*view.Renderer),
	}
	for _, rc := range cfg.Repos {
		repo, err := gitrepo.Open(rc.Path, cfg.CommitCacheSize)
		if err != nil {
			return nil, err
		}
		s.repos[rc.Key()] = repo
		s.renderers[rc.Key()] = view.NewRenderer(repo, view.Params{
			Owner:    rc.Owner,
			Repo:     rc.Name,
			Revision: rc.DefaultRef,
		})
	}
	return s, nil
}

// Lookup resolves an owner/name pair to its repository, renderer, and config.
func (s *RepoSet) Lookup(owner, name string) (*gitrepo.Repository, *view.Renderer, config.Repo, bool) {
	rc, ok := s.cfg.FindRepo(owner, name)
	if !ok {
		return nil, nil, config.Repo{}, false
	}
	return s.repos[rc.Key()], s.renderers[rc.Key()], rc, true
}

// OnRefUpdate drops the affected repository's commit cache so last-commit
// lookups see the moved ref.
func (s *RepoSet) OnRefUpdate(event watcher.Event) {
	if repo, ok := s.repos[event.Owner+"/"+event.Repo]; ok {
		repo.InvalidateCommits()
	}
}
