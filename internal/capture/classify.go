package capture

import (
	"strings"
	"time"

	"CaptureRouter/internal/domain"
)

// Classify converts an inbound chat message into a ParsedMessage.
func Classify(msg domain.InboundMessage) domain.ParsedMessage {
	parsed := domain.ParsedMessage{
		ID:        msg.ID,
		Timestamp: time.Unix(msg.Date, 0).UTC(),
	}

	switch {
	case msg.ForwardFromChat != nil:
		parsed.IsForward = true
		parsed.OriginLabel = nonEmpty(msg.ForwardFromChat.Title)
		parsed.OriginUsername = msg.ForwardFromChat.Username
	case msg.ForwardFrom != nil:
		parsed.IsForward = true
		name := strings.TrimSpace(msg.ForwardFrom.FirstName + " " + msg.ForwardFrom.LastName)
		parsed.OriginLabel = nonEmpty(name)
		parsed.OriginUsername = msg.ForwardFrom.Username
	case msg.ForwardSenderName != nil:
		parsed.IsForward = true
		parsed.OriginLabel = nonEmpty(*msg.ForwardSenderName)
	}

	parsed.Text = msg.Text
	if parsed.Text == "" {
		parsed.Text = msg.Caption
	}

	parsed.URLs = ExtractURLs(parsed.Text)
	parsed.HasURL = len(parsed.URLs) > 0

	return parsed
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
