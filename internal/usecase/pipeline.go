package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"CaptureRouter/internal/digest"
	"CaptureRouter/internal/domain"
	"CaptureRouter/internal/ports"
	"CaptureRouter/internal/triage"
)

const (
	dateLayout         = "2006-01-02"
	noArticlesMessage  = "📭 No new articles today"
	defaultDigestLabel = "Daily picks"
)

// DigestDeps wires all driven adapters into the daily digest pipeline.
type DigestDeps struct {
	Persistence ports.Persistence
	Filter      *triage.Filter
	Delivery    ports.Delivery
	ChatID      int64
	Label       string
	Since       time.Duration
	Location    string
	MaxResults  int
	PushedTag   string
	TimeZone    *time.Location
	Now         func() time.Time
	Logger      *slog.Logger
}

// DigestOptions toggles one run.
type DigestOptions struct {
	DryRun bool
	NoAI   bool
}

// DigestReport summarizes what a run did.
type DigestReport struct {
	Candidates int
	Selected   []domain.ScoredArticle
	Message    string
	Sent       bool
}

// DigestPipeline implements the daily digest workflow.
type DigestPipeline struct {
	persistence ports.Persistence
	filter      *triage.Filter
	delivery    ports.Delivery
	chatID      int64
	label       string
	since       time.Duration
	location    string
	maxResults  int
	pushedTag   string
	tz          *time.Location
	now         func() time.Time
	logger      *slog.Logger
}

// NewDigestPipeline constructs the orchestration component.
func NewDigestPipeline(deps DigestDeps) *DigestPipeline {
	p := &DigestPipeline{
		persistence: deps.Persistence,
		filter:      deps.Filter,
		delivery:    deps.Delivery,
		chatID:      deps.ChatID,
		label:       deps.Label,
		since:       deps.Since,
		location:    deps.Location,
		maxResults:  deps.MaxResults,
		pushedTag:   deps.PushedTag,
		tz:          deps.TimeZone,
		now:         deps.Now,
		logger:      deps.Logger.With("component", "digest"),
	}
	if p.label == "" {
		p.label = defaultDigestLabel
	}
	if p.since <= 0 {
		p.since = 24 * time.Hour
	}
	if p.tz == nil {
		p.tz = time.UTC
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Run fetches recent feed articles, triages them, sends the digest and tags
// the pushed documents. A dry run stops before sending.
func (p *DigestPipeline) Run(ctx context.Context, opts DigestOptions) (DigestReport, error) {
	var report DigestReport

	articles, err := p.persistence.ListRecent(ctx, p.since, p.location)
	if err != nil {
		return report, fmt.Errorf("list recent: %w", err)
	}
	report.Candidates = len(articles)
	p.logger.Info("digest candidates", "count", len(articles), "since", p.since)

	if len(articles) == 0 {
		report.Message = noArticlesMessage
		if opts.DryRun {
			return report, nil
		}
		if err := p.send(ctx, report.Message); err != nil {
			return report, err
		}
		report.Sent = true
		return report, nil
	}

	if opts.NoAI {
		report.Selected = p.filter.RuleBased(articles, p.maxResults)
	} else {
		report.Selected = p.filter.Filter(ctx, articles, p.maxResults)
	}

	report.Message = digest.Format(report.Selected, p.label, p.now().In(p.tz).Format(dateLayout))
	if opts.DryRun {
		p.logger.Info("dry run, digest not sent", "selected", len(report.Selected))
		return report, nil
	}

	if err := p.send(ctx, report.Message); err != nil {
		return report, err
	}
	report.Sent = true
	p.tagPushed(ctx, report.Selected)
	p.logger.Info("digest sent", "selected", len(report.Selected))
	return report, nil
}

func (p *DigestPipeline) send(ctx context.Context, text string) error {
	if p.delivery == nil {
		return nil
	}
	if err := p.delivery.SendText(ctx, p.chatID, text, ports.SendOptions{ParseMode: replyParseMode, DisableLinkPreview: true}); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	return nil
}

// tagPushed marks sent documents; tagging failures never fail the run.
func (p *DigestPipeline) tagPushed(ctx context.Context, selected []domain.ScoredArticle) {
	for _, a := range selected {
		if a.ID == "" {
			continue
		}
		for _, tag := range []string{p.pushedTag, a.Topic.Tag()} {
			if tag == "" {
				continue
			}
			if err := p.persistence.AddTag(ctx, a.ID, tag); err != nil {
				p.logger.Warn("tag pushed document", "doc_id", a.ID, "tag", tag, "error", err)
			}
		}
	}
}
