package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramAPI is the part of *tgbotapi.BotAPI used for sending.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends reminders to a numeric chat ID.
type Telegram struct {
	api telegramAPI
}

// NewTelegram authorizes the bot token against the Bot API.
func NewTelegram(token string, timeout time.Duration) (*Telegram, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	client := &http.Client{Timeout: timeout}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = false
	return &Telegram{api: api}, nil
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, contact string, msg Message) error {
	chatID, err := strconv.ParseInt(contact, 10, 64)
	if err != nil || strings.HasPrefix(contact, "+") {
		return fmt.Errorf("telegram contact %q is not a chat id", contact)
	}

	out := tgbotapi.NewMessage(chatID, msg.Body)
	return runWithContext(ctx, func() error {
		_, err := t.api.Send(out)
		return err
	})
}
