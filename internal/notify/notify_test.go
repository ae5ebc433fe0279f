package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/job-sentinel/internal/core"
)

var sampleAlert = core.Alert{
	ID:          "a1",
	CompanyName: "OpenAI",
	Title:       "Senior PM",
	Link:        "https://openai.com/jobs/55",
	Rationale:   "Matches PM seniority.",
	DetectedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "alert.openai", RoutingKey("OpenAI"))
	assert.Equal(t, "alert.jane-street-capital", RoutingKey("  Jane Street & Capital "))
	assert.Equal(t, "alert.unknown", RoutingKey("!!!"))
}

func TestAMQPPublisher_Notify(t *testing.T) {
	var gotExchange, gotKey string
	var gotMsg amqp.Publishing
	p := &AMQPPublisher{exchange: DefaultExchange, publish: func(exchange, key string, msg amqp.Publishing) error {
		gotExchange, gotKey, gotMsg = exchange, key, msg
		return nil
	}}

	require.NoError(t, p.Notify(context.Background(), sampleAlert))
	assert.Equal(t, "sentinel_alerts", gotExchange)
	assert.Equal(t, "alert.openai", gotKey)
	assert.Equal(t, "application/json", gotMsg.ContentType)
	assert.Equal(t, "a1", gotMsg.MessageId)

	var decoded core.Alert
	require.NoError(t, json.Unmarshal(gotMsg.Body, &decoded))
	assert.Equal(t, sampleAlert, decoded)
}

func TestAMQPPublisher_PublishError(t *testing.T) {
	p := &AMQPPublisher{exchange: DefaultExchange, publish: func(string, string, amqp.Publishing) error {
		return errors.New("channel closed")
	}}
	assert.ErrorContains(t, p.Notify(context.Background(), sampleAlert), "channel closed")
}

type fakeBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestTelegram_Notify(t *testing.T) {
	bot := &fakeBot{}
	tg := &Telegram{bot: bot, chatID: 42}

	require.NoError(t, tg.Notify(context.Background(), sampleAlert))
	require.Len(t, bot.sent, 1)
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "OpenAI: Senior PM")
	assert.Contains(t, msg.Text, "https://openai.com/jobs/55")
}

func TestNewTelegram_RequiresChat(t *testing.T) {
	_, err := NewTelegram(TelegramConfig{Token: "x"})
	assert.Error(t, err)
}

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(context.Context, core.Alert) error {
	c.calls++
	return c.err
}

func TestMulti_DeliversToAll(t *testing.T) {
	failing := &countingNotifier{err: errors.New("broker down")}
	ok := &countingNotifier{}
	m := &Multi{}
	m.add(failing, nil)
	m.add(ok, nil)

	err := m.Notify(context.Background(), sampleAlert)
	assert.ErrorContains(t, err, "broker down")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}

func TestNew_NothingConfigured(t *testing.T) {
	m, err := New(Config{})
	require.NoError(t, err)
	assert.Zero(t, m.Len())
	assert.NoError(t, m.Notify(context.Background(), sampleAlert))
	assert.NoError(t, m.Close())
}
