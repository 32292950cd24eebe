package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CaptureRouter/internal/config"
	"CaptureRouter/internal/ports"
)

// DailyScheduler fires once per day at a wall-clock time in a fixed location.
type DailyScheduler struct {
	offset time.Duration
	loc    *time.Location

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// NewDailyScheduler parses an "HH:MM" push time.
func NewDailyScheduler(pushTime string, loc *time.Location) (*DailyScheduler, error) {
	offset, err := config.ParsePushTime(pushTime)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DailyScheduler{
		offset: offset,
		loc:    loc,
		now:    time.Now,
		after:  time.After,
	}, nil
}

// Next returns the first push time strictly after t.
func (d *DailyScheduler) Next(t time.Time) time.Time {
	local := t.In(d.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, d.loc)
	next := midnight.Add(d.offset)
	if !next.After(local) {
		midnight = time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, d.loc)
		next = midnight.Add(d.offset)
	}
	return next
}

// Start runs job at every push time until ctx ends or Stop is called.
func (d *DailyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return fmt.Errorf("scheduler job is nil")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil
	}
	d.stop = make(chan struct{})
	d.done = make(chan struct{})

	go d.loop(ctx, job, d.stop, d.done)
	return nil
}

func (d *DailyScheduler) loop(ctx context.Context, job func(time.Time), stop, done chan struct{}) {
	defer close(done)
	for {
		next := d.Next(d.now())
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-d.after(time.Until(next)):
			job(next)
		}
	}
}

// Stop halts the loop and waits for a running job to return.
func (d *DailyScheduler) Stop(ctx context.Context) error {
	d.mu.Lock()
	stop, done := d.stop, d.done
	d.stop, d.done = nil, nil
	d.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
