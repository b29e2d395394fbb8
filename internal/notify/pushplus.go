package notify

import (
	"context"
	"errors"
)

// pushplusURL is a var so tests can point it at a fake.
var pushplusURL = "http://www.pushplus.plus/send"

type pushplusPayload struct {
	Token    string `json:"token"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Template string `json:"template"`
}

// PushPlus posts to the pushplus.plus relay.
func PushPlus(ctx context.Context, config map[string]string, msg Message) error {
	token := config["token"]
	if token == "" {
		return errors.New("pushplus: token not configured")
	}
	return postJSON(ctx, pushplusURL, pushplusPayload{
		Token:    token,
		Title:    msg.Title,
		Content:  msg.Content,
		Template: "txt",
	})
}
