package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const barkDefaultServer = "https://api.day.app"

// Bark pushes to Apple devices through a Bark relay: title and body
// travel in the URL path.
func Bark(ctx context.Context, config map[string]string, msg Message) error {
	key := config["key"]
	if key == "" {
		return errors.New("bark: key not configured")
	}
	server := config["server"]
	if server == "" {
		server = barkDefaultServer
	}

	u := strings.TrimRight(server, "/") + "/" + key + "/" +
		url.PathEscape(msg.Title) + "/" + url.PathEscape(msg.Content)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("bark status: %s", resp.Status)
	}
	return nil
}
