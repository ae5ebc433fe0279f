package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/baxromumarov/job-sentinel/internal/core"
)

const DefaultExchange = "sentinel_alerts"

type AMQPConfig struct {
	URL      string
	Exchange string
}

type publishFunc func(exchange, key string, msg amqp.Publishing) error

// AMQPPublisher publishes every alert as JSON to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	exchange string
	publish  publishFunc
}

func NewAMQPPublisher(cfg AMQPConfig) (*AMQPPublisher, error) {
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	p := &AMQPPublisher{conn: conn, exchange: exchange}
	p.publish = p.publishOnChannel
	return p, nil
}

func (p *AMQPPublisher) publishOnChannel(exchange, key string, msg amqp.Publishing) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	return ch.Publish(exchange, key, false, false, msg)
}

func (p *AMQPPublisher) Notify(_ context.Context, alert core.Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	err = p.publish(p.exchange, RoutingKey(alert.CompanyName), amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    alert.ID,
		Timestamp:    alert.DetectedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish alert %s: %w", alert.ID, err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
