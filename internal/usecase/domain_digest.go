package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"CaptureRouter/internal/digest"
	"CaptureRouter/internal/domain"
	"CaptureRouter/internal/ports"
	"CaptureRouter/internal/triage"
)

// DomainSpec describes one per-domain digest.
type DomainSpec struct {
	Key         string
	Name        string
	Glyph       string
	MaxItems    int
	UseAIFilter bool
}

// DomainDigestDeps wires the per-domain digest.
type DomainDigestDeps struct {
	Source   ports.FeedSource
	Filter   *triage.Filter
	Delivery ports.Delivery
	ChatID   int64
	Domains  []DomainSpec
	TimeZone *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
}

// DomainDigest pushes a flat digest of fresh feed items for one domain.
type DomainDigest struct {
	source   ports.FeedSource
	filter   *triage.Filter
	delivery ports.Delivery
	chatID   int64
	domains  []DomainSpec
	tz       *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// NewDomainDigest constructs the per-domain digest use case.
func NewDomainDigest(deps DomainDigestDeps) *DomainDigest {
	d := &DomainDigest{
		source:   deps.Source,
		filter:   deps.Filter,
		delivery: deps.Delivery,
		chatID:   deps.ChatID,
		domains:  deps.Domains,
		tz:       deps.TimeZone,
		now:      deps.Now,
		logger:   deps.Logger.With("component", "domain_digest"),
	}
	if d.tz == nil {
		d.tz = time.UTC
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

// Domains lists the configured digests in order.
func (d *DomainDigest) Domains() []DomainSpec {
	return d.domains
}

// Run executes the digest named by key over the last hours.
func (d *DomainDigest) Run(ctx context.Context, key string, hours int, dryRun bool) (DigestReport, error) {
	var report DigestReport

	spec, ok := d.lookup(key)
	if !ok {
		return report, fmt.Errorf("unknown domain %q", key)
	}
	if hours <= 0 {
		hours = 24
	}

	now := d.now()
	articles, err := d.source.FetchDomain(ctx, key, now.Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return report, fmt.Errorf("fetch domain %s: %w", key, err)
	}
	report.Candidates = len(articles)

	report.Selected = d.pick(ctx, spec, articles)
	report.Message = digest.FormatDomain(report.Selected, digest.DomainHeader{Name: spec.Name, Glyph: spec.Glyph}, now.In(d.tz).Format(dateLayout))
	d.logger.Info("domain digest ready", "domain", key, "candidates", len(articles), "selected", len(report.Selected))

	if dryRun || d.delivery == nil {
		return report, nil
	}
	if err := d.delivery.SendText(ctx, d.chatID, report.Message, ports.SendOptions{ParseMode: replyParseMode, DisableLinkPreview: true}); err != nil {
		return report, fmt.Errorf("send domain digest %s: %w", key, err)
	}
	report.Sent = true
	return report, nil
}

// RunAll runs every configured domain in order and joins the failures.
func (d *DomainDigest) RunAll(ctx context.Context, hours int, dryRun bool) error {
	var errs []error
	for _, spec := range d.domains {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := d.Run(ctx, spec.Key, hours, dryRun); err != nil {
			d.logger.Error("domain digest failed", "domain", spec.Key, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// pick uses the batch filter only when the domain asks for it and there are
// more items than fit; otherwise it keeps the first MaxItems in feed order.
func (d *DomainDigest) pick(ctx context.Context, spec DomainSpec, articles []domain.CandidateArticle) []domain.ScoredArticle {
	limit := spec.MaxItems
	if limit <= 0 {
		limit = triage.DefaultMaxResults
	}
	if spec.UseAIFilter && d.filter != nil && len(articles) > limit {
		return d.filter.Filter(ctx, articles, limit)
	}

	n := min(len(articles), limit)
	picked := make([]domain.ScoredArticle, 0, n)
	for _, a := range articles[:n] {
		picked = append(picked, domain.ScoredArticle{CandidateArticle: a, Topic: domain.TopicOther})
	}
	return picked
}

func (d *DomainDigest) lookup(key string) (DomainSpec, bool) {
	for _, spec := range d.domains {
		if spec.Key == key {
			return spec, true
		}
	}
	return DomainSpec{}, false
}
