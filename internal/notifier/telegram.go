// Package notifier delivers plan digests over Telegram.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends a formatted message somewhere a person will read it.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	api        botAPI
	chatID     int64
	maxRetries int
	backoff    time.Duration
}

// NewTelegram authorizes the bot token against the Telegram API.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("telegram token and chat id are required")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram api: %w", err)
	}
	slog.Info("Telegram bot authorized", "account", api.Self.UserName)
	return &Telegram{api: api, chatID: chatID, maxRetries: 3, backoff: time.Second}, nil
}

// Notify sends text as HTML, retrying with exponential backoff.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	var lastErr error
	for attempt := 0; attempt <= t.maxRetries; attempt++ {
		_, err := t.api.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == t.maxRetries {
			break
		}
		wait := t.backoff * time.Duration(1<<attempt)
		slog.WarnContext(ctx, "Telegram send failed", "attempt", attempt+1, "retry_in", wait, "error", lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("send telegram message after %d attempts: %w", t.maxRetries+1, lastErr)
}

// LogNotifier writes messages to the log. Used when Telegram is not configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, text string) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Notification", "text", text)
	return nil
}
