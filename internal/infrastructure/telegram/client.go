package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"CaptureRouter/internal/ports"
)

// ErrNotConfigured is returned when the bot token is missing.
var ErrNotConfigured = errors.New("telegram client not configured")

const defaultBaseURL = "https://api.telegram.org"

// Client talks to the Bot API: sending, long polling and webhook management.
type Client struct {
	baseURL  string
	botToken string
	client   *http.Client
}

var _ ports.Delivery = (*Client)(nil)

// NewClient registers the bot token. An empty baseURL means the public API.
func NewClient(baseURL, botToken string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		botToken: botToken,
		client:   &http.Client{Timeout: 70 * time.Second},
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type sendMessageRequest struct {
	ChatID             int64               `json:"chat_id"`
	Text               string              `json:"text"`
	ParseMode          string              `json:"parse_mode,omitempty"`
	LinkPreviewOptions *linkPreviewOptions `json:"link_preview_options,omitempty"`
}

type linkPreviewOptions struct {
	IsDisabled bool `json:"is_disabled"`
}

// SendText posts a message to the chat.
func (c *Client) SendText(ctx context.Context, chatID int64, text string, opts ports.SendOptions) error {
	req := sendMessageRequest{ChatID: chatID, Text: text, ParseMode: opts.ParseMode}
	if opts.DisableLinkPreview {
		req.LinkPreviewOptions = &linkPreviewOptions{IsDisabled: true}
	}
	return c.call(ctx, "sendMessage", req, nil)
}

// GetUpdates long-polls for new updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message"},
	}, &updates)
	return updates, err
}

// SetWebhook registers url with an optional secret token.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	body := map[string]any{"url": url, "allowed_updates": []string{"message"}}
	if secret != "" {
		body["secret_token"] = secret
	}
	return c.call(ctx, "setWebhook", body, nil)
}

// DeleteWebhook removes the webhook so getUpdates works again.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", map[string]any{"drop_pending_updates": false}, nil)
}

func (c *Client) call(ctx context.Context, method string, payload, result any) error {
	if c == nil || c.botToken == "" || c.client == nil {
		return ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, c.redact(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK || !decoded.OK {
		return fmt.Errorf("telegram %s failed: %s %s", method, resp.Status, decoded.Description)
	}
	if result != nil && len(decoded.Result) > 0 {
		if err := json.Unmarshal(decoded.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// redact strips the bot token from transport errors, whose URL embeds it.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	return &url.Error{
		Op:  urlErr.Op,
		URL: strings.ReplaceAll(urlErr.URL, c.botToken, "<redacted>"),
		Err: urlErr.Err,
	}
}
