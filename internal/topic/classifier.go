package topic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"CaptureRouter/internal/domain"
	"CaptureRouter/internal/ports"
)

const (
	classifyPromptRunes = 300
	classifyMaxTokens   = 20
)

// Classifier assigns a taxonomy topic to free text.
type Classifier struct {
	taxonomy Taxonomy
	backend  ports.Generative
	timeout  time.Duration
	logger   *slog.Logger
}

// NewClassifier wires the taxonomy with an optional generative backend.
// A nil backend keeps classification fully deterministic.
func NewClassifier(taxonomy Taxonomy, backend ports.Generative, timeout time.Duration, logger *slog.Logger) *Classifier {
	return &Classifier{
		taxonomy: taxonomy,
		backend:  backend,
		timeout:  timeout,
		logger:   logger,
	}
}

// Taxonomy exposes the rules the classifier was built with.
func (c *Classifier) Taxonomy() Taxonomy {
	return c.taxonomy
}

// ClassifyKeywords applies only the keyword rules.
func (c *Classifier) ClassifyKeywords(text string) domain.Topic {
	topic, _ := c.taxonomy.Match(text)
	return topic
}

// Classify tries keyword rules first and asks the backend only when none match.
// Any backend failure or unexpected reply resolves to Other.
func (c *Classifier) Classify(ctx context.Context, text string) domain.Topic {
	if topic, ok := c.taxonomy.Match(text); ok {
		return topic
	}
	if c.backend == nil || strings.TrimSpace(text) == "" {
		return domain.TopicOther
	}

	callCtx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.backend.Complete(callCtx, classifyPrompt(text), classifyMaxTokens)
	if err != nil {
		c.warn("topic fallback failed", "error", err)
		return domain.TopicOther
	}

	topic := domain.Topic(strings.TrimSpace(reply))
	if !topic.Valid() {
		c.debug("topic reply outside taxonomy", "reply", reply)
		return domain.TopicOther
	}
	return topic
}

func classifyPrompt(text string) string {
	labels := make([]string, 0, len(domain.Topics))
	for _, t := range domain.Topics {
		labels = append(labels, "- "+string(t))
	}

	return fmt.Sprintf(`Decide which topic the following content belongs to. Reply with the topic name only:
%s

Content:
%s

Topic:`, strings.Join(labels, "\n"), truncateRunes(text, classifyPromptRunes))
}

func (c *Classifier) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Classifier) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
