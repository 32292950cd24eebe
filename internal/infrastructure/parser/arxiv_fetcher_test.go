package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CaptureRouter/internal/feed"
)

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	u, err := buildPageURL("https://export.arxiv.org/list/cs.AI/pastweek", 200, 100)
	require.NoError(t, err)

	parsed, err := url.Parse(u)
	require.NoError(t, err)
	assert.Equal(t, "export.arxiv.org", parsed.Host)
	assert.Equal(t, "200", parsed.Query().Get("skip"))
	assert.Equal(t, "100", parsed.Query().Get("show"))
}

func TestParseEntry(t *testing.T) {
	t.Parallel()

	html := `
	<dl>
	  <dt>
	    <span class="list-identifier"><a href="/abs/1234.56789">arXiv:1234.56789</a></span>
	  </dt>
	  <dd>
	    <div class="list-date">Date: 8 Nov 2025</div>
	    <div class="list-title mathjax">Title: Sample
	      Title</div>
	    <p class="mathjax">Abstract: Sample abstract text.</p>
	  </dd>
	</dl>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	article := parseEntry(doc.Find("dt").First(), doc.Find("dd").First(), "arXiv cs.AI")

	assert.Equal(t, "arXiv:1234.56789", article.ID)
	assert.Equal(t, "Sample Title", article.Title)
	assert.Equal(t, "Sample abstract text.", article.Summary)
	assert.Equal(t, "arXiv cs.AI", article.SourceName)
	assert.Equal(t, "https://arxiv.org/abs/1234.56789", article.SourceURL)
	assert.Equal(t, "2025-11-08", article.PublishedAt.Format("2006-01-02"))
}

func TestArxivFetcherStopsAtOlderEntries(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`
		<dl>
		  <dt><span class="list-identifier"><a href="/abs/2501.00001">arXiv:2501.00001</a></span></dt>
		  <dd>
		    <div class="list-date">Date: 8 Nov 2025</div>
		    <div class="list-title mathjax">Title: Fresh Article</div>
		    <p class="mathjax">Abstract: brand new.</p>
		  </dd>
		  <dt><span class="list-identifier"><a href="/abs/2501.00002">arXiv:2501.00002</a></span></dt>
		  <dd>
		    <div class="list-date">Date: 6 Nov 2025</div>
		    <div class="list-title mathjax">Title: Old Article</div>
		    <p class="mathjax">Abstract: older.</p>
		  </dd>
		</dl>`))
	}))
	defer server.Close()

	fetcher := NewArxivFetcher(server.Client())
	fetcher.pageSize = 10

	since := time.Date(2025, time.November, 7, 12, 0, 0, 0, time.UTC)
	articles, err := fetcher.Fetch(context.Background(), feed.Spec{Name: "arXiv cs.AI", URL: server.URL + "/list/cs.AI"}, since)

	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "arXiv:2501.00001", articles[0].ID)
	assert.Equal(t, "brand new.", articles[0].Summary)
}

func TestArxivFetcherReportsHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := NewArxivFetcher(server.Client()).Fetch(context.Background(), feed.Spec{Name: "x", URL: server.URL}, time.Now())
	assert.Error(t, err)
}
