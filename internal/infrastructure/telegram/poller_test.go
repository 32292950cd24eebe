package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"CaptureRouter/internal/logging"
)

type scriptedSource struct {
	mu      sync.Mutex
	batches [][]Update
	offsets []int64
	fail    error
}

func (s *scriptedSource) GetUpdates(ctx context.Context, offset int64, _ time.Duration) ([]Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets = append(s.offsets, offset)
	if s.fail != nil {
		return nil, s.fail
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	next := s.batches[0]
	s.batches = s.batches[1:]
	return next, nil
}

func TestDrainSkipsQueuedUpdates(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{batches: [][]Update{
		{{UpdateID: 10, Message: &Message{MessageID: 1}}, {UpdateID: 11}},
		{{UpdateID: 12, Message: &Message{MessageID: 2}}},
	}}
	handled := 0
	p := NewPoller(src, func(context.Context, Message) { handled++ }, time.Second, logging.Discard())

	skipped, err := p.Drain(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, skipped)
	assert.Zero(t, handled)
	assert.Equal(t, int64(13), p.Offset())
	assert.Equal(t, []int64{0, 12, 13}, src.offsets)
}

func TestDrainReturnsSourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	p := NewPoller(&scriptedSource{fail: boom}, func(context.Context, Message) {}, time.Second, logging.Discard())

	_, err := p.Drain(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRunHandlesNewMessagesInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	// First call is the backlog drain, which sees nothing queued.
	src := &scriptedSource{batches: [][]Update{
		{},
		{{UpdateID: 1, Message: &Message{MessageID: 9}}, {UpdateID: 2, Message: &Message{MessageID: 10}}},
	}}
	handled := make(chan int64, 2)
	p := NewPoller(src, func(_ context.Context, m Message) { handled <- m.MessageID }, time.Millisecond, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	assert.Equal(t, int64(9), <-handled)
	assert.Equal(t, int64(10), <-handled)
	cancel()
	assert.NoError(t, <-done)
}
