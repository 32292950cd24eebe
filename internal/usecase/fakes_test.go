package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"CaptureRouter/internal/domain"
	"CaptureRouter/internal/ports"
)

var errBoom = errors.New("boom")

type savedLink struct {
	URL  string
	Tags []string
	Note string
}

type fakePersistence struct {
	mu       sync.Mutex
	links    []savedLink
	notes    []ports.NoteInput
	tags     map[string][]string
	recent   []domain.CandidateArticle
	saveErr  error
	listErr  error
	tagErr   error
	docTitle string
}

func (f *fakePersistence) SaveLink(_ context.Context, url string, tags []string, note string) (domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return domain.Document{}, f.saveErr
	}
	f.links = append(f.links, savedLink{URL: url, Tags: tags, Note: note})
	return domain.Document{ID: "doc-link", Title: f.docTitle, URL: url}, nil
}

func (f *fakePersistence) SaveNote(_ context.Context, in ports.NoteInput) (domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return domain.Document{}, f.saveErr
	}
	f.notes = append(f.notes, in)
	return domain.Document{ID: "doc-note", Title: in.Title}, nil
}

func (f *fakePersistence) ListRecent(context.Context, time.Duration, string) ([]domain.CandidateArticle, error) {
	return f.recent, f.listErr
}

func (f *fakePersistence) AddTag(_ context.Context, docID, tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tagErr != nil {
		return f.tagErr
	}
	if f.tags == nil {
		f.tags = map[string][]string{}
	}
	f.tags[docID] = append(f.tags[docID], tag)
	return nil
}

type sentMessage struct {
	ChatID int64
	Text   string
	Opts   ports.SendOptions
}

type fakeDelivery struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeDelivery) SendText(_ context.Context, chatID int64, text string, opts ports.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Text: text, Opts: opts})
	return nil
}

type fakeLog struct {
	records []domain.CaptureRecord
}

func (f *fakeLog) Record(_ context.Context, rec domain.CaptureRecord) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeLog) Recent(context.Context, int) ([]domain.CaptureRecord, error) {
	return f.records, nil
}

type fakeFeeds struct {
	items map[string][]domain.CandidateArticle
	since time.Time
}

func (f *fakeFeeds) FetchDomain(_ context.Context, key string, since time.Time) ([]domain.CandidateArticle, error) {
	f.since = since
	items, ok := f.items[key]
	if !ok {
		return nil, errBoom
	}
	return items, nil
}

type fakeBackend struct {
	reply string
	err   error
}

func (f fakeBackend) Complete(context.Context, string, int) (string, error) {
	return f.reply, f.err
}

type countingBackend struct {
	mu    sync.Mutex
	reply string
	calls int
}

func (c *countingBackend) Complete(context.Context, string, int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.reply, nil
}
