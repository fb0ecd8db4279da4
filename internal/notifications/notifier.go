package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Message struct {
	Title   string         `json:"title"`
	Body    string         `json:"body"`
	Context map[string]any `json:"context,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, message Message) error
}

type NoopNotifier struct{}

func (n NoopNotifier) Notify(_ context.Context, _ Message) error {
	return nil
}

// WebhookNotifier posts new-chapter messages to a configured endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(webhookURL string) (*WebhookNotifier, error) {
	trimmed := strings.TrimSpace(webhookURL)
	if trimmed == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	return &WebhookNotifier{
		url:    trimmed,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (n *WebhookNotifier) Notify(ctx context.Context, message Message) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("notification rejected with status %d", res.StatusCode)
	}

	return nil
}

// NewChapter builds the message emitted when polling sees a chapter the
// cache had not recorded yet.
func NewChapter(mangaTitle string, slug string, chapterID string) Message {
	return Message{
		Title: fmt.Sprintf("New chapter: %s", mangaTitle),
		Body:  fmt.Sprintf("Chapter %s of %s is available", chapterID, mangaTitle),
		Context: map[string]any{
			"slug":      slug,
			"chapterId": chapterID,
		},
	}
}
