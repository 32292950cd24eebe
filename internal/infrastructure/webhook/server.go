package webhook

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"CaptureRouter/internal/domain"
	"CaptureRouter/internal/infrastructure/telegram"
	"CaptureRouter/internal/ports"
	"CaptureRouter/pkg/logger"
)

// SecretHeader carries the token registered with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

// CaptureHandler processes one inbound message; handled is false when the
// message was ignored.
type CaptureHandler interface {
	Handle(ctx context.Context, msg domain.InboundMessage) (domain.CaptureResult, bool)
}

// Deps wires the HTTP surface.
type Deps struct {
	Capture CaptureHandler
	Log     ports.CaptureLog
	Secret  string
	Logger  *slog.Logger
}

// Server exposes the Telegram webhook and a small read API.
type Server struct {
	capture CaptureHandler
	log     ports.CaptureLog
	secret  string
	logger  *slog.Logger
	engine  *gin.Engine
}

// NewServer registers the routes on a fresh gin engine.
func NewServer(deps Deps) *Server {
	s := &Server{
		capture: deps.Capture,
		log:     deps.Log,
		secret:  deps.Secret,
		logger:  deps.Logger.With("component", "webhook"),
	}

	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(deps.Logger, "http"))
	r.GET("/", s.handleHealth)
	r.POST("/webhook", s.handleWebhook)
	// The capture log exposes archived links, so it only exists behind a secret.
	if s.secret != "" {
		r.GET("/api/captures", s.requireSecret, s.handleRecent)
	}
	s.engine = r
	return s
}

// Handler returns the routed engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "capture-router"})
}

// handleWebhook always acknowledges parsed updates with 200 so Telegram does
// not redeliver them; failures are reported to the chat instead.
func (s *Server) handleWebhook(c *gin.Context) {
	if !s.authorized(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "bad secret"})
		return
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid update"})
		return
	}
	if update.Message == nil || s.capture == nil {
		c.JSON(http.StatusOK, gin.H{"ok": true, "handled": false})
		return
	}

	// The save must finish even if Telegram drops the connection.
	ctx := context.WithoutCancel(c.Request.Context())
	res, handled := s.capture.Handle(ctx, update.Message.ToInbound())

	body := gin.H{"ok": true, "handled": handled}
	if handled {
		body["success"] = res.Success
		body["case_type"] = res.CaseType
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) authorized(c *gin.Context) bool {
	if s.secret == "" {
		return true
	}
	got := c.GetHeader(SecretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) == 1
}

func (s *Server) requireSecret(c *gin.Context) {
	if !s.authorized(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bad secret"})
		return
	}
	c.Next()
}

type captureView struct {
	ID          string    `json:"id"`
	MessageID   int64     `json:"message_id"`
	CaseType    string    `json:"case_type"`
	Topic       string    `json:"topic"`
	SourceLabel string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	DocumentID  string    `json:"document_id,omitempty"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) handleRecent(c *gin.Context) {
	if s.log == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "capture log disabled"})
		return
	}

	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRecentLimit)
	}

	records, err := s.log.Recent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read capture log"})
		return
	}

	views := make([]captureView, 0, len(records))
	for _, r := range records {
		views = append(views, captureView{
			ID:          r.ID,
			MessageID:   r.MessageID,
			CaseType:    string(r.CaseType),
			Topic:       string(r.Topic),
			SourceLabel: r.SourceLabel,
			URL:         r.URL,
			DocumentID:  r.DocumentID,
			Success:     r.Success,
			Error:       r.Error,
			CreatedAt:   r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"captures": views})
}
