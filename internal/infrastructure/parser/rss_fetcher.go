package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"CaptureRouter/internal/domain"
	"CaptureRouter/internal/feed"
)

const (
	maxFeedItems  = 20
	summaryLength = 200
)

// RSSFetcher reads RSS and Atom feeds through gofeed.
type RSSFetcher struct {
	client *http.Client
}

var _ feed.Fetcher = (*RSSFetcher)(nil)

// NewRSSFetcher wires an HTTP client for feed downloads.
func NewRSSFetcher(client *http.Client) *RSSFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSSFetcher{client: client}
}

// Kind identifies the strategy inside the registry.
func (r *RSSFetcher) Kind() string {
	return feed.KindRSS
}

// Fetch looks at the first 20 items and keeps those published after since.
// Undated items are kept.
func (r *RSSFetcher) Fetch(ctx context.Context, spec feed.Spec, since time.Time) ([]domain.CandidateArticle, error) {
	parser := gofeed.NewParser()
	parser.Client = r.client
	parser.UserAgent = userAgent

	parsed, err := parser.ParseURLWithContext(spec.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", spec.Name, err)
	}

	count := min(len(parsed.Items), maxFeedItems)
	articles := make([]domain.CandidateArticle, 0, count)
	for _, item := range parsed.Items[:count] {
		var publishedAt time.Time
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			publishedAt = *item.UpdatedParsed
		}
		if !publishedAt.IsZero() && publishedAt.Before(since) {
			continue
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		id := item.GUID
		if id == "" {
			id = item.Link
		}

		articles = append(articles, domain.CandidateArticle{
			ID:          id,
			Title:       collapseSpace(item.Title),
			Summary:     clipRunes(htmlToText(summary), summaryLength),
			SourceName:  spec.Name,
			SourceURL:   item.Link,
			PublishedAt: publishedAt.UTC(),
		})
	}
	return articles, nil
}

// htmlToText flattens feed markup into plain text; unparsable input is returned as is.
func htmlToText(raw string) string {
	if !strings.ContainsAny(raw, "<&") {
		return collapseSpace(raw)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapseSpace(raw)
	}
	doc.Find("script, style").Remove()
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clipRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
