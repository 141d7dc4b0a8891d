package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"log/slog"

	"github.com/presspool/presspool/pkg/models"
)

// WebhookDeliverer posts notifications as JSON to a delivery gateway (a bot
// relay, a mailer bridge, whatever sits at the URL). The request timeout is
// owned here, not by the engine.
type WebhookDeliverer struct {
	url    string
	client *http.Client
}

func NewWebhookDeliverer(url string, timeout time.Duration) *WebhookDeliverer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookDeliverer{url: url, client: &http.Client{Timeout: timeout}}
}

type webhookPayload struct {
	Contact      string              `json:"contact"`
	Notification models.Notification `json:"notification"`
}

func (w *WebhookDeliverer) Deliver(ctx context.Context, contact string, n models.Notification) error {
	body, err := json.Marshal(webhookPayload{Contact: contact, Notification: n})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// LogDeliverer writes notifications to the log. Used when no webhook URL is
// configured, which keeps development setups working end to end.
type LogDeliverer struct {
	logger *slog.Logger
}

func NewLogDeliverer(logger *slog.Logger) *LogDeliverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDeliverer{logger: logger}
}

func (l *LogDeliverer) Deliver(ctx context.Context, contact string, n models.Notification) error {
	l.logger.Info("notification",
		slog.String("contact", contact),
		slog.String("kind", string(n.Kind)),
		slog.Int64("request_id", n.RequestID),
		slog.String("title", n.Title),
		slog.String("body", n.Body),
	)
	return nil
}
