package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// serverchanBase is a var so tests can point it at a fake.
var serverchanBase = "https://sctapi.ftqq.com"

// ServerChan posts a form to the ServerChan turbo endpoint.
func ServerChan(ctx context.Context, config map[string]string, msg Message) error {
	key := config["sendkey"]
	if key == "" {
		return errors.New("serverchan: sendkey not configured")
	}

	form := url.Values{
		"title": {msg.Title},
		"desp":  {msg.Content},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		serverchanBase+"/"+key+".send", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("serverchan status: %s", resp.Status)
	}
	return nil
}
