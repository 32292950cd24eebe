package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CaptureRouter/internal/feed"
)

const sampleRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Blog</title>
<item><title>Fresh  post</title><link>https://blog.example/fresh</link><guid>fresh-1</guid>
  <pubDate>Sat, 08 Nov 2025 09:00:00 GMT</pubDate>
  <description><![CDATA[<p>Hello <b>world</b></p><script>x()</script>]]></description></item>
<item><title>Stale post</title><link>https://blog.example/stale</link>
  <pubDate>Mon, 03 Nov 2025 09:00:00 GMT</pubDate><description>old</description></item>
<item><title>Undated</title><link>https://blog.example/undated</link><description>plain</description></item>
</channel></rss>`

func TestRSSFetcherFiltersByDate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	since := time.Date(2025, time.November, 7, 0, 0, 0, 0, time.UTC)
	articles, err := NewRSSFetcher(server.Client()).Fetch(context.Background(), feed.Spec{Name: "Blog", URL: server.URL}, since)

	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "fresh-1", articles[0].ID)
	assert.Equal(t, "Fresh post", articles[0].Title)
	assert.Equal(t, "Hello world", articles[0].Summary)
	assert.Equal(t, "Blog", articles[0].SourceName)
	assert.Equal(t, "https://blog.example/undated", articles[1].ID)
	assert.True(t, articles[1].PublishedAt.IsZero())
}

func TestHTMLToTextAndClip(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a b", htmlToText("a \n  b"))
	assert.Equal(t, "Tom & Jerry", htmlToText("Tom &amp; <i>Jerry</i>"))
	assert.Equal(t, strings.Repeat("é", 200), clipRunes(strings.Repeat("é", 250), summaryLength))
}
