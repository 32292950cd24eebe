package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"CaptureRouter/internal/capture"
	"CaptureRouter/internal/config"
	"CaptureRouter/internal/feed"
	"CaptureRouter/internal/infrastructure/llm"
	"CaptureRouter/internal/infrastructure/parser"
	"CaptureRouter/internal/infrastructure/reader"
	"CaptureRouter/internal/infrastructure/scheduler"
	"CaptureRouter/internal/infrastructure/storage"
	"CaptureRouter/internal/infrastructure/telegram"
	"CaptureRouter/internal/infrastructure/webhook"
	"CaptureRouter/internal/logging"
	"CaptureRouter/internal/ports"
	"CaptureRouter/internal/topic"
	"CaptureRouter/internal/triage"
	"CaptureRouter/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	backend  ports.Generative
	reader   *reader.Client
	telegram *telegram.Client
	store    *storage.CaptureLog

	Capture *usecase.CaptureService
	Digest  *usecase.DigestPipeline
	Domains *usecase.DomainDigest
}

// New builds every adapter and use case from a validated config. The audit
// log is optional: when the database cannot be opened the app runs without it.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	backend, err := llm.New(ctx, cfg.LLM, baseLogger.With("component", "llm"))
	if err != nil {
		return nil, fmt.Errorf("llm backend: %w", err)
	}

	a := &Application{
		cfg:      cfg,
		logger:   baseLogger,
		backend:  backend,
		reader:   reader.NewClient(cfg.Reader.BaseURL, cfg.Reader.Token, baseLogger),
		telegram: telegram.NewClient(cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken),
	}

	var captureLog ports.CaptureLog
	if store, err := storage.Open(ctx, cfg.Storage); err != nil {
		baseLogger.Warn("capture log disabled", "driver", cfg.Storage.Driver, "error", err)
	} else {
		a.store = store
		captureLog = store
	}

	taxonomy := topic.DefaultTaxonomy()
	filter := triage.NewFilter(triage.Deps{
		Taxonomy:  taxonomy,
		Backend:   backend,
		Interests: cfg.Digest.Interests,
		Timeout:   cfg.LLM.Timeout,
		Logger:    baseLogger.With("component", "triage"),
	})

	a.Capture = usecase.NewCaptureService(usecase.CaptureDeps{
		Classifier:     topic.NewClassifier(taxonomy, backend, cfg.LLM.Timeout, baseLogger.With("component", "topic")),
		Titles:         topic.NewTitleGenerator(backend, cfg.LLM.Timeout, baseLogger.With("component", "title")),
		Persistence:    a.reader,
		Delivery:       a.telegram,
		Log:            captureLog,
		Route:          capture.RouteOptions{BaseTag: cfg.Capture.BaseTag},
		TitleMaxLength: cfg.Capture.TitleMaxLength,
		AllowedChatID:  cfg.Telegram.ChatID,
		Logger:         baseLogger,
	})

	a.Digest = usecase.NewDigestPipeline(usecase.DigestDeps{
		Persistence: a.reader,
		Filter:      filter,
		Delivery:    a.telegram,
		ChatID:      cfg.Telegram.ChatID,
		Label:       cfg.Digest.Label,
		Since:       time.Duration(cfg.Digest.SinceHours) * time.Hour,
		Location:    cfg.Digest.Location,
		MaxResults:  cfg.Digest.MaxResults,
		PushedTag:   cfg.Digest.PushedTag,
		TimeZone:    cfg.Digest.TimeLocation(),
		Logger:      baseLogger,
	})

	registry := feed.NewRegistry(parser.NewRSSFetcher(nil), parser.NewArxivFetcher(nil))
	a.Domains = usecase.NewDomainDigest(usecase.DomainDigestDeps{
		Source:   parser.NewDomainSource(registry, cfg.Domains, baseLogger),
		Filter:   filter,
		Delivery: a.telegram,
		ChatID:   cfg.Telegram.ChatID,
		Domains:  domainSpecs(cfg.Domains),
		TimeZone: cfg.Digest.TimeLocation(),
		Logger:   baseLogger,
	})

	return a, nil
}

func domainSpecs(domains []config.DomainConfig) []usecase.DomainSpec {
	specs := make([]usecase.DomainSpec, 0, len(domains))
	for _, d := range domains {
		specs = append(specs, usecase.DomainSpec{
			Key:         d.Key,
			Name:        d.Name,
			Glyph:       d.Glyph,
			MaxItems:    d.MaxItems,
			UseAIFilter: d.UseAIFilter,
		})
	}
	return specs
}

// Close releases the audit log database.
func (a *Application) Close() error {
	return a.store.Close()
}

// Serve runs the inbound transport (webhook server or long poll) and the
// daily scheduler until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	driver, err := scheduler.NewDailyScheduler(a.cfg.Digest.PushTime, a.cfg.Digest.TimeLocation())
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	sched := usecase.NewScheduler(driver, a.Digest, a.Domains, a.cfg.Digest.RunDomains, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	if err := sched.Start(gctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("scheduler armed", "push_time", a.cfg.Digest.PushTime, "timezone", a.cfg.Digest.TimeLocation().String())

	if a.cfg.Telegram.Mode == config.TelegramModePoll {
		if err := a.telegram.DeleteWebhook(gctx); err != nil {
			a.logger.Warn("delete webhook before polling", "error", err)
		}
		poller := telegram.NewPoller(a.telegram, func(ctx context.Context, m telegram.Message) {
			a.Capture.Handle(ctx, m.ToInbound())
		}, a.cfg.Telegram.PollTimeout, a.logger)
		g.Go(func() error { return poller.Run(gctx) })
	}

	// The HTTP server also serves health checks in poll mode.
	server := webhook.NewServer(webhook.Deps{
		Capture: a.Capture,
		Log:     a.captureLog(),
		Secret:  a.cfg.Telegram.WebhookSecret,
		Logger:  a.logger,
	})
	g.Go(func() error { return server.Run(gctx, a.cfg.Server.Addr) })

	err = g.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if stopErr := sched.Stop(stopCtx); stopErr != nil {
		err = errors.Join(err, stopErr)
	}
	return err
}

func (a *Application) captureLog() ports.CaptureLog {
	if a.store == nil {
		return nil
	}
	return a.store
}

// SetWebhook registers PUBLIC_URL/webhook with Telegram.
func (a *Application) SetWebhook(ctx context.Context) (string, error) {
	base := strings.TrimRight(a.cfg.Server.PublicURL, "/")
	if base == "" {
		return "", fmt.Errorf("%w: server public url is empty", config.ErrInvalid)
	}
	url := base + "/webhook"
	if err := a.telegram.SetWebhook(ctx, url, a.cfg.Telegram.WebhookSecret); err != nil {
		return "", err
	}
	return url, nil
}

// DeleteWebhook switches the bot back to getUpdates delivery.
func (a *Application) DeleteWebhook(ctx context.Context) error {
	return a.telegram.DeleteWebhook(ctx)
}

// CheckResult is one connectivity probe outcome.
type CheckResult struct {
	Name   string
	Detail string
	Err    error
}

// Check probes Reader, Telegram and the generative backend.
func (a *Application) Check(ctx context.Context) []CheckResult {
	var results []CheckResult

	docs, err := a.reader.ListRecent(ctx, 24*time.Hour, "")
	results = append(results, CheckResult{Name: "reader", Detail: fmt.Sprintf("%d documents in the last 24h", len(docs)), Err: err})

	err = a.telegram.SendText(ctx, a.cfg.Telegram.ChatID, "✅ CaptureRouter connection test", ports.SendOptions{})
	results = append(results, CheckResult{Name: "telegram", Detail: "test message sent", Err: err})

	if a.backend == nil {
		results = append(results, CheckResult{Name: "llm", Detail: "disabled, keyword fallbacks only"})
	} else {
		reply, err := a.backend.Complete(ctx, "Reply with the single word OK.", 5)
		results = append(results, CheckResult{Name: "llm", Detail: "reply: " + reply, Err: err})
	}

	if a.store == nil {
		results = append(results, CheckResult{Name: "storage", Detail: "capture log disabled"})
	} else {
		recent, err := a.store.Recent(ctx, 1)
		results = append(results, CheckResult{Name: "storage", Detail: fmt.Sprintf("%d recent captures", len(recent)), Err: err})
	}
	return results
}
