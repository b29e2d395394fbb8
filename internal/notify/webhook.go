package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// webhookPayload is the structured JSON shape pushed to user webhooks
// and onto kafka.
type webhookPayload struct {
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Monitor   webhookMonitor `json:"monitor"`
	Status    domain.Status  `json:"status"`
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
}

type webhookMonitor struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Types  []string `json:"types"`
	Target string   `json:"target"`
}

func newWebhookPayload(msg Message) webhookPayload {
	return webhookPayload{
		Title:   msg.Title,
		Content: msg.Content,
		Monitor: webhookMonitor{
			ID:     msg.TargetID,
			Name:   msg.Name,
			Types:  msg.Types,
			Target: msg.Address,
		},
		Status:    msg.Status,
		Message:   msg.Detail,
		Timestamp: msg.SentAt.Format(time.RFC3339),
	}
}

// Webhook posts the structured payload to webhook_url. Any status below
// 400 counts as delivered.
func Webhook(ctx context.Context, config map[string]string, msg Message) error {
	url := config["webhook_url"]
	if url == "" {
		return errors.New("webhook: webhook_url not configured")
	}

	raw, err := json.Marshal(newWebhookPayload(msg))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook status: %s", resp.Status)
	}
	return nil
}
