// Package broker publishes hold lifecycle events to RabbitMQ.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends a JSON payload to the queue named by routingKey.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitPublisher keeps one connection and channel open for the process
// lifetime and declares each queue the first time it is used.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       channel
	log      *zap.Logger
	now      func() time.Time
	mu       sync.Mutex
	declared map[string]struct{}
}

// New dials url. An empty url yields a publisher that drops every event.
func New(url string, log *zap.Logger) (Publisher, error) {
	if url == "" {
		log.Info("RabbitMQ URL not set, events will not be published")
		return NoopPublisher{}, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	p := newRabbitPublisher(ch, log)
	p.conn = conn
	return p, nil
}

func newRabbitPublisher(ch channel, log *zap.Logger) *RabbitPublisher {
	return &RabbitPublisher{
		ch:       ch,
		log:      log.With(zap.String("component", "broker")),
		now:      func() time.Time { return time.Now().UTC() },
		declared: make(map[string]struct{}),
	}
}

func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", routingKey, err)
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.declared[routingKey]; !ok {
		if _, err := p.ch.QueueDeclare(routingKey, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", routingKey, err)
		}
		p.declared[routingKey] = struct{}{}
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    p.now(),
		Type:         routingKey,
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, "", routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	p.log.Debug("Event published",
		zap.String("routing_key", routingKey),
		zap.String("message_id", msg.MessageId),
	)
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// NoopPublisher discards events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                               { return nil }
