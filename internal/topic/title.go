package topic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"CaptureRouter/internal/ports"
)

const (
	// PlaceholderTitle is used for notes too short to summarize.
	PlaceholderTitle = "TG note"
	// DefaultTitleLength caps generated note titles.
	DefaultTitleLength = 30

	minTitleSourceRunes = 10
	titlePromptRunes    = 500
	titleMaxTokens      = 100
	ellipsis            = "..."
)

// TitleGenerator produces concise titles for plain-text notes.
type TitleGenerator struct {
	backend ports.Generative
	timeout time.Duration
	logger  *slog.Logger
}

// NewTitleGenerator wires an optional generative backend.
func NewTitleGenerator(backend ports.Generative, timeout time.Duration, logger *slog.Logger) *TitleGenerator {
	return &TitleGenerator{backend: backend, timeout: timeout, logger: logger}
}

// Generate returns a title of at most maxLen runes plus an ellipsis marker.
func (g *TitleGenerator) Generate(ctx context.Context, text string, maxLen int) string {
	if maxLen <= len(ellipsis) {
		maxLen = DefaultTitleLength
	}
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minTitleSourceRunes {
		return PlaceholderTitle
	}
	if g.backend == nil {
		return fallbackTitle(text, maxLen)
	}

	callCtx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	reply, err := g.backend.Complete(callCtx, titlePrompt(text, maxLen), titleMaxTokens)
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("title generation failed", "error", err)
		}
		return fallbackTitle(text, maxLen)
	}

	title := strings.Trim(strings.TrimSpace(reply), `"'`)
	if title == "" {
		return fallbackTitle(text, maxLen)
	}
	if utf8.RuneCountInString(title) > maxLen {
		title = string([]rune(title)[:maxLen-1]) + ellipsis
	}
	return title
}

func titlePrompt(text string, maxLen int) string {
	return fmt.Sprintf(`Write a concise title (at most %d characters) for the content below.

Rules:
- For opinions or analysis, the title states the core argument
- For casual notes, the title names the subject
- Do not use quotation marks
- Reply with the title text only

Content:
%s`, maxLen, truncateRunes(text, titlePromptRunes))
}

func fallbackTitle(text string, maxLen int) string {
	flat := strings.ReplaceAll(text, "\n", " ")
	return truncateRunes(flat, maxLen-len(ellipsis)) + ellipsis
}
