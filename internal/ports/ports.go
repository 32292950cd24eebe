package ports

import (
	"context"
	"time"

	"CaptureRouter/internal/domain"
)

// NoteInput carries everything needed to persist a plain-text note.
type NoteInput struct {
	Content     string
	Title       string
	SourceLabel string
	Tags        []string
}

// Persistence archives captures and lists recent articles (Readwise Reader).
type Persistence interface {
	SaveLink(ctx context.Context, url string, tags []string, note string) (domain.Document, error)
	SaveNote(ctx context.Context, note NoteInput) (domain.Document, error)
	ListRecent(ctx context.Context, since time.Duration, location string) ([]domain.CandidateArticle, error)
	AddTag(ctx context.Context, documentID, tag string) error
}

// SendOptions tunes how the chat service renders a message.
type SendOptions struct {
	ParseMode          string
	DisableLinkPreview bool
}

// Delivery sends text back to the chat interface.
type Delivery interface {
	SendText(ctx context.Context, chatID int64, text string, opts SendOptions) error
}

// Generative completes prompts with a language model.
type Generative interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// FeedSource pulls candidate articles for one digest domain.
type FeedSource interface {
	FetchDomain(ctx context.Context, key string, since time.Time) ([]domain.CandidateArticle, error)
}

// CaptureLog keeps an audit trail of processed captures.
type CaptureLog interface {
	Record(ctx context.Context, rec domain.CaptureRecord) error
	Recent(ctx context.Context, limit int) ([]domain.CaptureRecord, error)
}

// Scheduler controls when digest jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
