package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"CaptureRouter/internal/config"
	"CaptureRouter/internal/domain"
	"CaptureRouter/internal/feed"
	"CaptureRouter/internal/ports"
)

const fetchConcurrency = 4

// DomainSource implements FeedSource via registered fetcher strategies.
type DomainSource struct {
	registry *feed.Registry
	domains  []config.DomainConfig
	logger   *slog.Logger
}

var _ ports.FeedSource = (*DomainSource)(nil)

// NewDomainSource wires the fetcher registry with config-defined domains.
func NewDomainSource(reg *feed.Registry, domains []config.DomainConfig, log *slog.Logger) *DomainSource {
	return &DomainSource{
		registry: reg,
		domains:  domains,
		logger:   log.With("component", "feeds"),
	}
}

// FetchDomain runs every feed of the domain and concatenates results in feed
// order. A failing feed is logged and skipped.
func (s *DomainSource) FetchDomain(ctx context.Context, key string, since time.Time) ([]domain.CandidateArticle, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("fetcher registry is not configured")
	}

	var dom *config.DomainConfig
	for i := range s.domains {
		if s.domains[i].Key == key {
			dom = &s.domains[i]
			break
		}
	}
	if dom == nil {
		return nil, fmt.Errorf("unknown domain %q", key)
	}

	s.logger.Debug("fetch domain", "domain", key, "feeds", len(dom.Feeds), "since", since.Format(time.RFC3339))

	perFeed := make([][]domain.CandidateArticle, len(dom.Feeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, fc := range dom.Feeds {
		spec := feed.Spec{Name: fc.Name, URL: fc.URL, Kind: fc.Kind}
		g.Go(func() error {
			fetcher, err := s.registry.Resolve(spec.Kind)
			if err != nil {
				s.logger.Warn("skip feed", "domain", key, "feed", spec.Name, "error", err)
				return nil
			}
			articles, err := fetcher.Fetch(gctx, spec, since)
			if err != nil {
				s.logger.Warn("feed failed", "domain", key, "feed", spec.Name, "error", err)
				return nil
			}
			s.logger.Debug("feed produced articles", "feed", spec.Name, "count", len(articles))
			perFeed[i] = articles
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var aggregated []domain.CandidateArticle
	for _, articles := range perFeed {
		aggregated = append(aggregated, articles...)
	}
	s.logger.Debug("domain fetch done", "domain", key, "total_articles", len(aggregated))
	return aggregated, ctx.Err()
}
