package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"CaptureRouter/internal/domain"
	"CaptureRouter/internal/feed"
)

const (
	arxivBaseURL = "https://arxiv.org"
	userAgent    = "CaptureRouter/1.0"
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivFetcher crawls arXiv listing pages and keeps entries dated on or after since.
type ArxivFetcher struct {
	client   *http.Client
	pageSize int
	maxPages int
}

var _ feed.Fetcher = (*ArxivFetcher)(nil)

// NewArxivFetcher wires an HTTP client; pageSize defaults to 100.
func NewArxivFetcher(client *http.Client) *ArxivFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ArxivFetcher{client: client, pageSize: 100, maxPages: 5}
}

// Kind identifies the strategy inside the registry.
func (a *ArxivFetcher) Kind() string {
	return "arxiv"
}

// Fetch walks the listing page by page until it reaches entries older than since.
func (a *ArxivFetcher) Fetch(ctx context.Context, spec feed.Spec, since time.Time) ([]domain.CandidateArticle, error) {
	sinceDay := since.UTC().Truncate(24 * time.Hour)
	results := make([]domain.CandidateArticle, 0)
	seen := map[string]struct{}{}

	skip := 0
	for page := 0; page < a.maxPages; page++ {
		pageURL, err := buildPageURL(spec.URL, skip, a.pageSize)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", spec.Name, err)
		}

		doc, err := a.fetchDocument(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", spec.Name, err)
		}

		pageArticles, shouldContinue := a.extractArticles(doc, sinceDay, spec.Name)
		for _, article := range pageArticles {
			if _, ok := seen[article.ID]; ok {
				continue
			}
			seen[article.ID] = struct{}{}
			results = append(results, article)
		}

		if !shouldContinue {
			break
		}
		skip += a.pageSize
	}

	return results, nil
}

func (a *ArxivFetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	return doc, nil
}

func (a *ArxivFetcher) extractArticles(doc *goquery.Document, sinceDay time.Time, source string) ([]domain.CandidateArticle, bool) {
	var (
		collected    []domain.CandidateArticle
		continueScan = true
		processed    int
	)

	doc.Find("dl > dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		processed++
		article := parseEntry(dt, dt.Next(), source)

		if article.PublishedAt.UTC().Truncate(24 * time.Hour).Before(sinceDay) {
			continueScan = false
			return false
		}
		if article.Title != "" {
			collected = append(collected, article)
		}
		return true
	})

	if processed < a.pageSize {
		continueScan = false
	}

	return collected, continueScan
}

func parseEntry(dt, dd *goquery.Selection, source string) domain.CandidateArticle {
	anchor := dt.Find(`a[href*="/abs/"]`).First()
	href, _ := anchor.Attr("href")

	id := strings.TrimSpace(anchor.Text())
	if id == "" {
		id = strings.TrimPrefix(href, "/abs/")
	}
	if href != "" && !strings.HasPrefix(href, "http") {
		href = arxivBaseURL + href
	}
	if id == "" {
		id = href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimSpace(strings.TrimPrefix(title, "Title:"))

	abstract := dd.Find("p.mathjax").First().Text()
	abstract = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(abstract), "Abstract:"))

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}

	publishedAt := time.Now().UTC()
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			publishedAt = parsed
		}
	}

	return domain.CandidateArticle{
		ID:          id,
		Title:       collapseSpace(title),
		Summary:     clipRunes(collapseSpace(abstract), summaryLength),
		SourceName:  source,
		SourceURL:   href,
		PublishedAt: publishedAt,
	}
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid listing url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
