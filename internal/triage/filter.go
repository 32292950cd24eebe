package triage

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"CaptureRouter/internal/domain"
	"CaptureRouter/internal/ports"
	"CaptureRouter/internal/topic"
)

const (
	// DefaultMaxResults bounds a digest when the caller passes no limit.
	DefaultMaxResults = 10
	// MaxCandidates is the largest batch sent to the backend in one prompt.
	MaxCandidates = 30

	keepThreshold     = 4
	priorityScore     = 4
	regularScore      = 3
	legacyScore       = 4
	filterMaxTokens   = 2000
	summaryPromptSize = 200
)

// Deps wires the filter collaborators.
type Deps struct {
	Taxonomy  topic.Taxonomy
	Backend   ports.Generative
	Interests string
	Timeout   time.Duration
	Logger    *slog.Logger
}

// Filter scores candidate articles for a digest.
type Filter struct {
	taxonomy  topic.Taxonomy
	backend   ports.Generative
	interests string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewFilter builds a filter; a nil backend always uses the rule-based path.
func NewFilter(deps Deps) *Filter {
	return &Filter{
		taxonomy:  deps.Taxonomy,
		backend:   deps.Backend,
		interests: deps.Interests,
		timeout:   deps.Timeout,
		logger:    deps.Logger,
	}
}

// Filter asks the backend to score the batch and keeps articles rated 4 or 5.
// Any backend or parse failure degrades to RuleBased.
func (f *Filter) Filter(ctx context.Context, articles []domain.CandidateArticle, maxResults int) []domain.ScoredArticle {
	if len(articles) == 0 {
		return []domain.ScoredArticle{}
	}
	maxResults = normalizeLimit(maxResults)

	if f.backend == nil {
		return f.RuleBased(articles, maxResults)
	}

	batch := articles
	if len(batch) > MaxCandidates {
		batch = batch[:MaxCandidates]
	}

	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if f.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, f.timeout)
	}
	defer cancel()

	reply, err := f.backend.Complete(callCtx, buildPrompt(batch, f.interests), filterMaxTokens)
	if err != nil {
		f.warn("triage backend failed, using rules", "error", err)
		return f.RuleBased(articles, maxResults)
	}

	ranked, err := parseReply(reply, batch, f.taxonomy)
	if err != nil {
		f.warn("triage reply unusable, using rules", "error", err)
		return f.RuleBased(articles, maxResults)
	}

	f.debug("triage scored", "candidates", len(batch), "kept", len(ranked))
	return finish(ranked, maxResults)
}

// RuleBased scores articles with keyword topics only: priority topics get 4,
// everything else 3.
func (f *Filter) RuleBased(articles []domain.CandidateArticle, maxResults int) []domain.ScoredArticle {
	maxResults = normalizeLimit(maxResults)

	ranked := make([]rankedArticle, 0, len(articles))
	for i, article := range articles {
		t, _ := f.taxonomy.Match(articleText(article))
		score := regularScore
		if f.taxonomy.IsPriority(t) {
			score = priorityScore
		}
		ranked = append(ranked, rankedArticle{
			index:    i,
			priority: f.taxonomy.IsPriority(t),
			scored: domain.ScoredArticle{
				CandidateArticle: article,
				Importance:       score,
				Topic:            t,
			},
		})
	}

	return finish(ranked, maxResults)
}

type rankedArticle struct {
	index    int
	priority bool
	scored   domain.ScoredArticle
}

// finish orders by importance, then priority membership (rule-based scores
// only), then input position.
func finish(ranked []rankedArticle, maxResults int) []domain.ScoredArticle {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.scored.Importance != b.scored.Importance {
			return a.scored.Importance > b.scored.Importance
		}
		if a.priority != b.priority {
			return a.priority
		}
		return a.index < b.index
	})

	if len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}

	out := make([]domain.ScoredArticle, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.scored)
	}
	return out
}

func articleText(a domain.CandidateArticle) string {
	return a.Title + " " + a.Summary + " " + a.SourceName
}

func normalizeLimit(n int) int {
	if n <= 0 {
		return DefaultMaxResults
	}
	return n
}

func (f *Filter) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}

func (f *Filter) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
