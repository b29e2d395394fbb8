package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
)

// Telegram sends through the Bot API as plain text. chat_id may be a
// numeric id or an @channel name. An optional server key points at a
// self-hosted Bot API instance.
func Telegram(ctx context.Context, config map[string]string, msg Message) error {
	token := config["bot_token"]
	chatID := config["chat_id"]
	if token == "" || chatID == "" {
		return errors.New("telegram: bot_token and chat_id required")
	}

	opts := []bot.Option{bot.WithSkipGetMe()}
	if server := config["server"]; server != "" {
		opts = append(opts, bot.WithServerURL(server))
	}

	b, err := bot.New(token, opts...)
	if err != nil {
		return fmt.Errorf("telegram client: %w", err)
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   msg.Title + "\n" + msg.Content,
	})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
