package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CaptureRouter/internal/config"
	"CaptureRouter/internal/logging"
)

func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/list/"):
			_, _ = w.Write([]byte(`{"results":[{"id":"a","title":"T","category":"rss"}],"nextPageCursor":""}`))
		case strings.HasPrefix(r.URL.Path, "/bot"):
			_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(upstream string) config.Config {
	return config.Config{
		Logging:  config.LoggingConfig{Level: "error"},
		Server:   config.ServerConfig{Addr: "127.0.0.1:0"},
		Telegram: config.TelegramConfig{BotToken: "t", ChatID: 42, Mode: config.TelegramModeHook, APIBaseURL: upstream},
		Reader:   config.ReaderConfig{BaseURL: upstream, Token: "r"},
		LLM:      config.LLMConfig{Provider: config.ProviderNone, Timeout: time.Second},
		Capture:  config.CaptureConfig{BaseTag: "#tg-capture", TitleMaxLength: 30},
		Digest:   config.DigestConfig{PushTime: "06:00", SinceHours: 24, Location: "feed", MaxResults: 10},
		Storage:  config.StorageConfig{Driver: config.StorageSQLite, DSN: ":memory:"},
		Domains: []config.DomainConfig{
			{Key: "ai", Name: "AI", MaxItems: 3, Feeds: []config.FeedConfig{{Name: "x", URL: upstream + "/feed"}}},
		},
	}
}

func TestCheckProbesEveryCollaborator(t *testing.T) {
	t.Parallel()

	upstream := fakeUpstream(t)
	a, err := New(context.Background(), testConfig(upstream.URL), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	results := a.Check(context.Background())

	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
		assert.NoError(t, r.Err, r.Name)
	}
	assert.Equal(t, []string{"reader", "telegram", "llm", "storage"}, names)
	assert.Equal(t, "1 documents in the last 24h", results[0].Detail)
}

func TestSetWebhookNeedsPublicURL(t *testing.T) {
	t.Parallel()

	upstream := fakeUpstream(t)
	cfg := testConfig(upstream.URL)
	a, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.SetWebhook(context.Background())
	assert.ErrorIs(t, err, config.ErrInvalid)

	cfg.Server.PublicURL = "https://bot.example/"
	a2, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a2.Close() })

	url, err := a2.SetWebhook(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://bot.example/webhook", url)
	assert.NoError(t, a2.DeleteWebhook(context.Background()))
}

func TestDomainDigestDryRunSurvivesBrokenFeed(t *testing.T) {
	t.Parallel()

	upstream := fakeUpstream(t)
	a, err := New(context.Background(), testConfig(upstream.URL), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	report, err := a.Domains.Run(context.Background(), "ai", 24, true)

	require.NoError(t, err)
	assert.Zero(t, report.Candidates)
	assert.Contains(t, report.Message, "No new content right now.")
}
