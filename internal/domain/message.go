package domain

import (
	"strings"
	"time"
)

// PersonalNoteLabel marks captures that did not come from a forward.
const PersonalNoteLabel = "My notes"

// ForwardChat describes the channel or group a message was forwarded from.
type ForwardChat struct {
	Title    string
	Username string
}

// ForwardUser describes the individual a message was forwarded from.
type ForwardUser struct {
	FirstName string
	LastName  string
	Username  string
}

// InboundMessage is a chat message as delivered by the chat collaborator.
type InboundMessage struct {
	ID                int64
	ChatID            int64
	Date              int64
	Text              string
	Caption           string
	ForwardFromChat   *ForwardChat
	ForwardFrom       *ForwardUser
	ForwardSenderName *string
}

// CaseType labels a capture by URL presence and forward status.
type CaseType string

const (
	CaseForwardURL  CaseType = "forward_url"
	CaseForwardText CaseType = "forward_text"
	CaseURLOnly     CaseType = "url_only"
	CaseTextOnly    CaseType = "text_only"
)

// ParsedMessage is the structured view of one inbound message.
type ParsedMessage struct {
	ID             int64
	IsForward      bool
	OriginLabel    *string
	OriginUsername string
	Text           string
	URLs           []string
	HasURL         bool
	Timestamp      time.Time
}

// CaseType derives the capture case from HasURL and IsForward.
func (p ParsedMessage) CaseType() CaseType {
	switch {
	case p.HasURL && p.IsForward:
		return CaseForwardURL
	case p.HasURL:
		return CaseURLOnly
	case p.IsForward:
		return CaseForwardText
	default:
		return CaseTextOnly
	}
}

// Origin returns the trimmed origin label or an empty string.
func (p ParsedMessage) Origin() string {
	if p.OriginLabel == nil {
		return ""
	}
	return strings.TrimSpace(*p.OriginLabel)
}

// SourceLabel names where the capture came from.
func (p ParsedMessage) SourceLabel() string {
	if p.IsForward && p.Origin() != "" {
		return p.Origin()
	}
	return PersonalNoteLabel
}
