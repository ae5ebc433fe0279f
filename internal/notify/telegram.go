package notify

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/baxromumarov/job-sentinel/internal/core"
)

type TelegramConfig struct {
	Token  string
	ChatID int64
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends each alert as a chat message.
type Telegram struct {
	bot    sender
	chatID int64
}

func NewTelegram(cfg TelegramConfig) (*Telegram, error) {
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is required")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}
	return &Telegram{bot: bot, chatID: cfg.ChatID}, nil
}

func (t *Telegram) Notify(_ context.Context, alert core.Alert) error {
	msg := tgbotapi.NewMessage(t.chatID, formatMessage(alert))
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
