package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type slackPayload struct {
	Text string `json:"text"`
}

// Slack posts to an incoming-webhook URL: bold title, body below.
func Slack(ctx context.Context, config map[string]string, msg Message) error {
	url := config["webhook_url"]
	if url == "" {
		return errors.New("slack: webhook_url not configured")
	}
	return postJSON(ctx, url, slackPayload{Text: "*" + msg.Title + "*\n" + msg.Content})
}

// postJSON posts a JSON body and treats any 2xx as delivered.
func postJSON(ctx context.Context, url string, body any) error {
	raw, err := json.Marshal(body)
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

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
