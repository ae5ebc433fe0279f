// Package notify fans new alerts out to a message broker and to chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/baxromumarov/job-sentinel/internal/core"
)

type Config struct {
	AMQP     AMQPConfig
	Telegram TelegramConfig
}

// Multi delivers to every configured channel. One channel failing does not
// stop the others.
type Multi struct {
	targets []core.Notifier
	closers []func() error
}

// New connects every channel that has settings. With none configured the
// result is an empty Multi whose Notify does nothing.
func New(cfg Config) (*Multi, error) {
	m := &Multi{}

	if cfg.AMQP.URL != "" {
		pub, err := NewAMQPPublisher(cfg.AMQP)
		if err != nil {
			return nil, err
		}
		m.add(pub, pub.Close)
		slog.Info("alert publishing enabled", "channel", "amqp", "exchange", pub.exchange)
	}

	if cfg.Telegram.Token != "" {
		tg, err := NewTelegram(cfg.Telegram)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.add(tg, nil)
		slog.Info("alert publishing enabled", "channel", "telegram")
	}
	return m, nil
}

func (m *Multi) add(n core.Notifier, closer func() error) {
	m.targets = append(m.targets, n)
	if closer != nil {
		m.closers = append(m.closers, closer)
	}
}

func (m *Multi) Len() int {
	return len(m.targets)
}

func (m *Multi) Notify(ctx context.Context, alert core.Alert) error {
	var errs []error
	for _, t := range m.targets {
		if err := t.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, c := range m.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// RoutingKey is "alert.<company-slug>".
func RoutingKey(companyName string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(companyName), "-"), "-")
	if slug == "" {
		slug = "unknown"
	}
	return "alert." + slug
}

func formatMessage(alert core.Alert) string {
	return fmt.Sprintf("HIGH-PRIORITY ALERT\n%s: %s\n%s\n%s", alert.CompanyName, alert.Title, alert.Rationale, alert.Link)
}
