package reader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"CaptureRouter/internal/domain"
	"CaptureRouter/internal/ports"
)

// ErrUnexpectedStatus wraps any non-2xx answer from the Reader API.
var ErrUnexpectedStatus = errors.New("reader: unexpected status")

const (
	noteURLPrefix = "https://tg-capture.local/"
	savedUsing    = "TG Quick Capture"
	maxPages      = 50
)

var listedCategories = []string{"rss", "article", "email"}

// Client implements ports.Persistence on the Readwise Reader v3 API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.Persistence = (*Client)(nil)

// NewClient registers the API base URL and access token.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 20 * time.Second},
		logger:  logger.With("component", "reader"),
		now:     time.Now,
	}
}

type saveRequest struct {
	URL             string   `json:"url"`
	HTML            string   `json:"html,omitempty"`
	Title           string   `json:"title,omitempty"`
	Author          string   `json:"author,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	ShouldCleanHTML bool     `json:"should_clean_html,omitempty"`
	SavedUsing      string   `json:"saved_using,omitempty"`
}

type savedDocument struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// SaveLink archives url and lets Reader fetch the content itself.
func (c *Client) SaveLink(ctx context.Context, link string, tags []string, note string) (domain.Document, error) {
	return c.save(ctx, saveRequest{URL: link, Tags: tags, Notes: note})
}

// SaveNote stores plain text as a small HTML document at a synthetic URL.
func (c *Client) SaveNote(ctx context.Context, in ports.NoteInput) (domain.Document, error) {
	now := c.now()
	source := in.SourceLabel
	if source == "" {
		source = domain.PersonalNoteLabel
	}
	req := saveRequest{
		URL:             noteURLPrefix + now.Format("20060102150405") + "-" + uuid.NewString()[:8],
		HTML:            noteHTML(in.Content),
		Title:           in.Title,
		Author:          fmt.Sprintf("[%s] %s", source, now.Format("2006-01-02 15:04")),
		Tags:            in.Tags,
		ShouldCleanHTML: true,
		SavedUsing:      savedUsing,
	}
	return c.save(ctx, req)
}

func noteHTML(content string) string {
	body := strings.ReplaceAll(html.EscapeString(content), "\n", "<br>")
	return "<article><p>" + body + "</p></article>"
}

func (c *Client) save(ctx context.Context, payload saveRequest) (domain.Document, error) {
	var doc savedDocument
	if err := c.do(ctx, http.MethodPost, "/save/", nil, payload, &doc); err != nil {
		return domain.Document{}, fmt.Errorf("save document: %w", err)
	}
	title := doc.Title
	if title == "" {
		title = payload.Title
	}
	return domain.Document{ID: doc.ID, Title: title, URL: doc.URL}, nil
}

type listResponse struct {
	Results        []listedDocument `json:"results"`
	NextPageCursor string           `json:"nextPageCursor"`
}

type listedDocument struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Summary       string          `json:"summary"`
	SiteName      string          `json:"site_name"`
	Author        string          `json:"author"`
	SourceURL     string          `json:"source_url"`
	URL           string          `json:"url"`
	Category      string          `json:"category"`
	PublishedDate json.RawMessage `json:"published_date"`
	Tags          json.RawMessage `json:"tags"`
}

func (d listedDocument) candidate() domain.CandidateArticle {
	source := d.SiteName
	if source == "" {
		source = d.Author
	}
	link := d.SourceURL
	if link == "" {
		link = d.URL
	}
	return domain.CandidateArticle{
		ID:          d.ID,
		Title:       d.Title,
		Summary:     d.Summary,
		SourceName:  source,
		SourceURL:   link,
		PublishedAt: parsePublished(d.PublishedDate),
	}
}

// ListRecent walks every page updated within since and keeps titled feed articles.
func (c *Client) ListRecent(ctx context.Context, since time.Duration, location string) ([]domain.CandidateArticle, error) {
	query := url.Values{}
	query.Set("updatedAfter", c.now().Add(-since).UTC().Format(time.RFC3339))
	if location != "" {
		query.Set("location", location)
	}

	var articles []domain.CandidateArticle
	for page := 0; page < maxPages; page++ {
		var resp listResponse
		if err := c.do(ctx, http.MethodGet, "/list/", query, nil, &resp); err != nil {
			return articles, fmt.Errorf("list documents: %w", err)
		}
		for _, d := range resp.Results {
			if d.Title == "" || !slices.Contains(listedCategories, d.Category) {
				continue
			}
			articles = append(articles, d.candidate())
		}
		if resp.NextPageCursor == "" {
			return articles, nil
		}
		query.Set("pageCursor", resp.NextPageCursor)
	}
	c.logger.Warn("list pagination stopped early", "pages", maxPages)
	return articles, nil
}

// AddTag appends tag to the document's existing tags.
func (c *Client) AddTag(ctx context.Context, docID, tag string) error {
	query := url.Values{}
	query.Set("id", docID)

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/list/", query, nil, &resp); err != nil {
		return fmt.Errorf("fetch document %s: %w", docID, err)
	}
	if len(resp.Results) == 0 {
		return fmt.Errorf("document %s not found", docID)
	}

	tags := tagNames(resp.Results[0].Tags)
	if slices.Contains(tags, tag) {
		return nil
	}
	tags = append(tags, tag)

	if err := c.do(ctx, http.MethodPatch, "/update/"+url.PathEscape(docID)+"/", nil, map[string]any{"tags": tags}, nil); err != nil {
		return fmt.Errorf("update tags of %s: %w", docID, err)
	}
	return nil
}

// tagNames accepts both the object form {"name": {...}} and a plain list.
func tagNames(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var byName map[string]struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &byName); err == nil {
		names := make([]string, 0, len(byName))
		for key, v := range byName {
			if v.Name != "" {
				key = v.Name
			}
			names = append(names, key)
		}
		slices.Sort(names)
		return names
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	names := make([]string, 0, len(list))
	for _, item := range list {
		var s string
		if json.Unmarshal(item, &s) == nil {
			names = append(names, s)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(item, &obj) == nil && obj.Name != "" {
			names = append(names, obj.Name)
		}
	}
	return names
}

func parsePublished(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}
	var ms int64
	if json.Unmarshal(raw, &ms) == nil {
		return time.UnixMilli(ms).UTC()
	}
	var s string
	if json.Unmarshal(raw, &s) != nil || s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, result any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w %s: %s", ErrUnexpectedStatus, resp.Status, strings.TrimSpace(string(snippet)))
	}
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
