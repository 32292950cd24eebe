package telegram

import "CaptureRouter/internal/domain"

// Update is the subset of the Bot API update object the router consumes.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Chat identifies a chat or channel.
type Chat struct {
	ID       int64  `json:"id"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

// User identifies a Telegram account.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Message carries both the legacy forward_* fields and forward_origin.
type Message struct {
	MessageID         int64          `json:"message_id"`
	Date              int64          `json:"date"`
	Chat              Chat           `json:"chat"`
	Text              string         `json:"text,omitempty"`
	Caption           string         `json:"caption,omitempty"`
	ForwardFromChat   *Chat          `json:"forward_from_chat,omitempty"`
	ForwardFrom       *User          `json:"forward_from,omitempty"`
	ForwardSenderName *string        `json:"forward_sender_name,omitempty"`
	ForwardOrigin     *ForwardOrigin `json:"forward_origin,omitempty"`
}

// ForwardOrigin is the newer union describing where a forward came from.
type ForwardOrigin struct {
	Type           string `json:"type"`
	Chat           *Chat  `json:"chat,omitempty"`
	SenderChat     *Chat  `json:"sender_chat,omitempty"`
	SenderUser     *User  `json:"sender_user,omitempty"`
	SenderUserName string `json:"sender_user_name,omitempty"`
}

// ToInbound converts the wire message into the core's typed record. Legacy
// forward fields win; forward_origin fills whatever they leave empty.
func (m Message) ToInbound() domain.InboundMessage {
	msg := domain.InboundMessage{
		ID:                m.MessageID,
		ChatID:            m.Chat.ID,
		Date:              m.Date,
		Text:              m.Text,
		Caption:           m.Caption,
		ForwardSenderName: m.ForwardSenderName,
	}
	if m.ForwardFromChat != nil {
		msg.ForwardFromChat = &domain.ForwardChat{Title: m.ForwardFromChat.Title, Username: m.ForwardFromChat.Username}
	}
	if m.ForwardFrom != nil {
		msg.ForwardFrom = toForwardUser(m.ForwardFrom)
	}

	if o := m.ForwardOrigin; o != nil && msg.ForwardFromChat == nil && msg.ForwardFrom == nil && msg.ForwardSenderName == nil {
		switch {
		case o.Chat != nil:
			msg.ForwardFromChat = &domain.ForwardChat{Title: o.Chat.Title, Username: o.Chat.Username}
		case o.SenderChat != nil:
			msg.ForwardFromChat = &domain.ForwardChat{Title: o.SenderChat.Title, Username: o.SenderChat.Username}
		case o.SenderUser != nil:
			msg.ForwardFrom = toForwardUser(o.SenderUser)
		case o.SenderUserName != "":
			name := o.SenderUserName
			msg.ForwardSenderName = &name
		}
	}
	return msg
}

func toForwardUser(u *User) *domain.ForwardUser {
	return &domain.ForwardUser{FirstName: u.FirstName, LastName: u.LastName, Username: u.Username}
}
