package notify

import (
	"context"
	"errors"
)

type wechatPayload struct {
	MsgType  string         `json:"msgtype"`
	Markdown wechatMarkdown `json:"markdown"`
}

type wechatMarkdown struct {
	Content string `json:"content"`
}

// WeChat posts markdown to a WeCom group-bot webhook.
func WeChat(ctx context.Context, config map[string]string, msg Message) error {
	url := config["webhook_url"]
	if url == "" {
		return errors.New("wechat: webhook_url not configured")
	}
	return postJSON(ctx, url, wechatPayload{
		MsgType:  "markdown",
		Markdown: wechatMarkdown{Content: "### " + msg.Title + "\n" + msg.Content},
	})
}
