package usecase

import (
	"context"
	"log/slog"
	"time"

	"CaptureRouter/internal/capture"
	"CaptureRouter/internal/digest"
	"CaptureRouter/internal/domain"
	"CaptureRouter/internal/ports"
	"CaptureRouter/internal/topic"
)

const (
	saveFailedMessage = "save failed"
	linkTitleWidth    = 50
	replyParseMode    = "HTML"
)

// CaptureDeps wires the collaborators of the capture flow.
type CaptureDeps struct {
	Classifier     *topic.Classifier
	Titles         *topic.TitleGenerator
	Persistence    ports.Persistence
	Delivery       ports.Delivery
	Log            ports.CaptureLog
	Route          capture.RouteOptions
	TitleMaxLength int
	AllowedChatID  int64
	Logger         *slog.Logger
}

// CaptureService turns one inbound chat message into a Reader document and a reply.
type CaptureService struct {
	classifier  *topic.Classifier
	titles      *topic.TitleGenerator
	persistence ports.Persistence
	delivery    ports.Delivery
	log         ports.CaptureLog
	route       capture.RouteOptions
	titleMax    int
	allowedChat int64
	logger      *slog.Logger
}

// NewCaptureService constructs the capture use case.
func NewCaptureService(deps CaptureDeps) *CaptureService {
	titleMax := deps.TitleMaxLength
	if titleMax <= 0 {
		titleMax = topic.DefaultTitleLength
	}
	return &CaptureService{
		classifier:  deps.Classifier,
		titles:      deps.Titles,
		persistence: deps.Persistence,
		delivery:    deps.Delivery,
		log:         deps.Log,
		route:       deps.Route,
		titleMax:    titleMax,
		allowedChat: deps.AllowedChatID,
		logger:      deps.Logger.With("component", "capture"),
	}
}

// Authorized reports whether messages from chatID may be captured.
func (s *CaptureService) Authorized(chatID int64) bool {
	return s.allowedChat == 0 || chatID == s.allowedChat
}

// Handle processes an authorized message and replies in the same chat.
// Messages from other chats are ignored.
func (s *CaptureService) Handle(ctx context.Context, msg domain.InboundMessage) (domain.CaptureResult, bool) {
	if !s.Authorized(msg.ChatID) {
		s.logger.Warn("ignored message from unauthorized chat", "chat_id", msg.ChatID)
		return domain.CaptureResult{}, false
	}

	res := s.Process(ctx, msg)
	if s.delivery != nil {
		reply := digest.FormatReply(res)
		if err := s.delivery.SendText(ctx, msg.ChatID, reply, ports.SendOptions{ParseMode: replyParseMode, DisableLinkPreview: true}); err != nil {
			s.logger.Error("send capture reply", "chat_id", msg.ChatID, "error", err)
		}
	}
	return res, true
}

// Process classifies, routes and persists one message. Persistence errors are
// reported as an unsuccessful result with a generic message. A message without
// text, such as a forwarded photo, is kept as a placeholder-titled note.
func (s *CaptureService) Process(ctx context.Context, msg domain.InboundMessage) domain.CaptureResult {
	parsed := capture.Classify(msg)
	resolved := s.classifier.Classify(ctx, parsed.Text)
	action := capture.Decide(parsed, resolved, s.route)

	res := domain.CaptureResult{
		CaseType:    action.CaseType,
		Topic:       action.Topic,
		SourceLabel: action.SourceLabel,
		URL:         action.URL,
	}

	var (
		doc domain.Document
		err error
	)
	switch action.Kind {
	case domain.SaveLink:
		doc, err = s.persistence.SaveLink(ctx, action.URL, action.Tags, action.NoteText())
		if err == nil {
			res.Title = doc.Title
			if res.Title == "" {
				res.Title = clipRunes(action.URL, linkTitleWidth)
			}
		}
	case domain.SaveNote:
		title := topic.PlaceholderTitle
		if action.NeedsTitle && s.titles != nil {
			title = s.titles.Generate(ctx, action.Content, s.titleMax)
		}
		res.Title = title
		doc, err = s.persistence.SaveNote(ctx, ports.NoteInput{
			Content:     action.Content,
			Title:       title,
			SourceLabel: action.SourceLabel,
			Tags:        action.Tags,
		})
	}

	if err != nil {
		s.logger.Error("persist capture", "case", action.CaseType, "kind", action.Kind, "error", err)
		res.Err = saveFailedMessage
		res.Title = ""
		s.record(ctx, msg, res)
		return res
	}

	res.Success = true
	res.DocumentID = doc.ID
	s.logger.Info("capture saved", "case", action.CaseType, "topic", action.Topic, "source", action.SourceLabel, "doc_id", doc.ID)
	s.record(ctx, msg, res)
	return res
}

func (s *CaptureService) record(ctx context.Context, msg domain.InboundMessage, res domain.CaptureResult) {
	if s.log == nil {
		return
	}
	rec := domain.CaptureRecord{
		MessageID:   msg.ID,
		ChatID:      msg.ChatID,
		CaseType:    res.CaseType,
		Topic:       res.Topic,
		SourceLabel: res.SourceLabel,
		URL:         res.URL,
		DocumentID:  res.DocumentID,
		Success:     res.Success,
		Error:       res.Err,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.log.Record(ctx, rec); err != nil {
		s.logger.Warn("record capture", "error", err)
	}
}

func clipRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
