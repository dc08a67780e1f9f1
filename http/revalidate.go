package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Revalidator tells the rendering layer which page paths are stale after a
// write. Implementations must not fail the request; errors are logged.
type Revalidator interface {
	Revalidate(ctx context.Context, paths ...string)
}

// NopRevalidator discards revalidation signals.
type NopRevalidator struct{}

func (NopRevalidator) Revalidate(context.Context, ...string) {}

// WebhookRevalidator POSTs {"paths": [...]} to a frontend revalidation
// endpoint, presenting the admin token.
type WebhookRevalidator struct {
	url    string
	token  string
	client *http.Client
}

// NewWebhookRevalidator creates a revalidator for url. A nil client uses a
// client with a 5 second timeout.
func NewWebhookRevalidator(url, token string, client *http.Client) *WebhookRevalidator {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &WebhookRevalidator{url: url, token: token, client: client}
}

func (v *WebhookRevalidator) Revalidate(ctx context.Context, paths ...string) {
	if len(paths) == 0 {
		return
	}
	if err := v.post(ctx, paths); err != nil {
		slog.Warn("revalidation failed", "paths", paths, "err", err)
		return
	}
	slog.Debug("revalidated", "paths", paths)
}

func (v *WebhookRevalidator) post(ctx context.Context, paths []string) error {
	body, err := json.Marshal(map[string][]string{"paths": paths})
	if err != nil {
		return fmt.Errorf("encode paths: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if v.token != "" {
		req.Header.Set(AdminTokenHeader, v.token)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post: unexpected status %d", resp.StatusCode)
	}
	return nil
}
