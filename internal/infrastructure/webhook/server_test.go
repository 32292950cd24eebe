package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CaptureRouter/internal/domain"
	"CaptureRouter/internal/logging"
)

type recordingHandler struct {
	mu   sync.Mutex
	msgs []domain.InboundMessage
}

func (r *recordingHandler) Handle(_ context.Context, msg domain.InboundMessage) (domain.CaptureResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return domain.CaptureResult{Success: true, CaseType: domain.CaseURLOnly}, true
}

type stubLog struct {
	records []domain.CaptureRecord
	err     error
	limit   int
}

func (s *stubLog) Record(context.Context, domain.CaptureRecord) error { return nil }

func (s *stubLog) Recent(_ context.Context, limit int) ([]domain.CaptureRecord, error) {
	s.limit = limit
	return s.records, s.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const sampleUpdate = `{"update_id":5,"message":{"message_id":3,"date":1714550400,"chat":{"id":42},"text":"https://example.com"}}`

func TestHealth(t *testing.T) {
	t.Parallel()

	srv := NewServer(Deps{Logger: logging.Discard()})
	rec := do(t, srv.Handler(), http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"capture-router"}`, rec.Body.String())
}

func TestWebhookDispatchesMessage(t *testing.T) {
	t.Parallel()

	handler := &recordingHandler{}
	srv := NewServer(Deps{Capture: handler, Secret: "s3cret", Logger: logging.Discard()})

	rec := do(t, srv.Handler(), http.MethodPost, "/webhook", sampleUpdate, map[string]string{SecretHeader: "s3cret"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"handled":true,"success":true,"case_type":"url_only"}`, rec.Body.String())
	require.Len(t, handler.msgs, 1)
	assert.Equal(t, int64(42), handler.msgs[0].ChatID)
	assert.Equal(t, "https://example.com", handler.msgs[0].Text)
}

func TestWebhookRejectsBadSecretAndBody(t *testing.T) {
	t.Parallel()

	handler := &recordingHandler{}
	srv := NewServer(Deps{Capture: handler, Secret: "s3cret", Logger: logging.Discard()})

	rec := do(t, srv.Handler(), http.MethodPost, "/webhook", sampleUpdate, map[string]string{SecretHeader: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, srv.Handler(), http.MethodPost, "/webhook", "{", map[string]string{SecretHeader: "s3cret"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv.Handler(), http.MethodPost, "/webhook", `{"update_id":6}`, map[string]string{SecretHeader: "s3cret"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"handled":false}`, rec.Body.String())

	assert.Empty(t, handler.msgs)
}

func TestRecentCaptures(t *testing.T) {
	t.Parallel()

	log := &stubLog{records: []domain.CaptureRecord{{
		ID: "r1", MessageID: 3, CaseType: domain.CaseTextOnly, Topic: domain.TopicLife,
		SourceLabel: domain.PersonalNoteLabel, Success: true,
		CreatedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}}}
	srv := NewServer(Deps{Log: log, Secret: "s3cret", Logger: logging.Discard()})
	auth := map[string]string{SecretHeader: "s3cret"}

	rec := do(t, srv.Handler(), http.MethodGet, "/api/captures?limit=500", "", auth)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxRecentLimit, log.limit)

	var body struct {
		Captures []captureView `json:"captures"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Captures, 1)
	assert.Equal(t, "text_only", body.Captures[0].CaseType)
	assert.Equal(t, "My notes", body.Captures[0].SourceLabel)

	rec = do(t, srv.Handler(), http.MethodGet, "/api/captures?limit=zero", "", auth)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecentCapturesRequiresSecret(t *testing.T) {
	t.Parallel()

	log := &stubLog{records: []domain.CaptureRecord{{ID: "r1", URL: "https://private.example"}}}
	srv := NewServer(Deps{Log: log, Secret: "s3cret", Logger: logging.Discard()})

	rec := do(t, srv.Handler(), http.MethodGet, "/api/captures", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "private.example")

	rec = do(t, srv.Handler(), http.MethodGet, "/api/captures", "", map[string]string{SecretHeader: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	open := NewServer(Deps{Log: log, Logger: logging.Discard()})
	rec = do(t, open.Handler(), http.MethodGet, "/api/captures", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecentCapturesErrors(t *testing.T) {
	t.Parallel()

	auth := map[string]string{SecretHeader: "s3cret"}
	rec := do(t, NewServer(Deps{Secret: "s3cret", Logger: logging.Discard()}).Handler(), http.MethodGet, "/api/captures", "", auth)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	failing := NewServer(Deps{Log: &stubLog{err: errors.New("db gone")}, Secret: "s3cret", Logger: logging.Discard()})
	rec = do(t, failing.Handler(), http.MethodGet, "/api/captures", "", auth)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
