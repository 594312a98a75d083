package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Notifier delivers fire-and-forget plain-text notifications. Delivery is
// best-effort: implementations must never surface an error to the run that
// is reporting.
type Notifier interface {
	Notify(ctx context.Context, subject, message string)
}

// Webhook posts notifications as JSON to a configured URL. A Webhook with an
// empty URL is valid and drops every notification.
type Webhook struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewWebhook(url string, logger *slog.Logger) *Webhook {
	return &Webhook{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type payload struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Notify posts one notification. Failures are logged and swallowed; a run
// must never fail because its report could not be sent.
func (w *Webhook) Notify(ctx context.Context, subject, message string) {
	if w.url == "" {
		w.logger.Info("notify url not set, skipping notification")
		return
	}

	body, err := json.Marshal(payload{Subject: subject, Message: message})
	if err != nil {
		w.logger.Error("failed to encode notification", "err", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.logger.Error("failed to build notification request", "err", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.logger.Error("failed to send notification", "err", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		w.logger.Error("notification rejected", "status", resp.Status)
		return
	}

	w.logger.Info("notification sent", "subject", subject)
}
