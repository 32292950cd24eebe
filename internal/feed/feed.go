package feed

import (
	"context"
	"fmt"
	"time"

	"CaptureRouter/internal/domain"
)

// KindRSS is the fetcher used when a feed does not name one.
const KindRSS = "rss"

// Spec describes one configured feed of a domain digest.
type Spec struct {
	Name string
	URL  string
	Kind string
}

// Fetcher captures a single strategy implementation (RSS/Atom, arXiv listing, ...).
type Fetcher interface {
	Kind() string
	Fetch(ctx context.Context, spec Spec, since time.Time) ([]domain.CandidateArticle, error)
}

// Registry keeps a mapping from fetcher kinds to their implementations.
type Registry struct {
	fetchers map[string]Fetcher
}

// NewRegistry builds a registry holding the given fetchers.
func NewRegistry(fetchers ...Fetcher) *Registry {
	r := &Registry{fetchers: map[string]Fetcher{}}
	for _, f := range fetchers {
		r.Register(f)
	}
	return r
}

// Register adds or replaces a fetcher implementation.
func (r *Registry) Register(f Fetcher) {
	if r.fetchers == nil {
		r.fetchers = map[string]Fetcher{}
	}
	r.fetchers[f.Kind()] = f
}

// Resolve returns the fetcher for kind; an empty kind means RSS.
func (r *Registry) Resolve(kind string) (Fetcher, error) {
	if kind == "" {
		kind = KindRSS
	}
	if f, ok := r.fetchers[kind]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("fetcher %s is not registered", kind)
}
