package telegram

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// UpdateSource is the slice of Client the poller needs.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error)
}

// Poller drives getUpdates and hands every message to the handler in order.
type Poller struct {
	source  UpdateSource
	handle  func(context.Context, Message)
	timeout time.Duration
	backoff time.Duration
	logger  *slog.Logger
	offset  int64
}

// NewPoller wires a long-poll loop around source.
func NewPoller(source UpdateSource, handle func(context.Context, Message), timeout time.Duration, logger *slog.Logger) *Poller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Poller{
		source:  source,
		handle:  handle,
		timeout: timeout,
		backoff: 5 * time.Second,
		logger:  logger.With("component", "telegram_poller"),
	}
}

// Offset is the next update id the poller will ask for.
func (p *Poller) Offset() int64 { return p.offset }

// Drain discards whatever is already queued so a restart does not replay
// old captures. It returns the number of skipped updates.
func (p *Poller) Drain(ctx context.Context) (int, error) {
	skipped := 0
	for {
		updates, err := p.source.GetUpdates(ctx, p.offset, 0)
		if err != nil {
			return skipped, err
		}
		if len(updates) == 0 {
			return skipped, nil
		}
		for _, u := range updates {
			if u.UpdateID >= p.offset {
				p.offset = u.UpdateID + 1
			}
		}
		skipped += len(updates)
	}
}

// Run drains the backlog, then long-polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	skipped, err := p.Drain(ctx)
	if err != nil && ctx.Err() == nil {
		p.logger.Warn("drain backlog failed", "error", err)
	}
	if skipped > 0 {
		p.logger.Info("skipped queued updates", "count", skipped)
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		if err := p.poll(ctx, p.timeout); err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			p.logger.Warn("getUpdates failed", "error", err, "retry_in", p.backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.backoff):
			}
		}
	}
}

func (p *Poller) poll(ctx context.Context, timeout time.Duration) error {
	updates, err := p.source.GetUpdates(ctx, p.offset, timeout)
	if err != nil {
		return err
	}
	for _, u := range updates {
		if u.UpdateID >= p.offset {
			p.offset = u.UpdateID + 1
		}
		if u.Message == nil {
			continue
		}
		p.handle(ctx, *u.Message)
	}
	return nil
}
