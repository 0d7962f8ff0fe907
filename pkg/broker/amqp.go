package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends JSON messages to a single durable RabbitMQ queue.
type Publisher struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	queue   string
	timeout time.Duration
	logger  *zap.Logger
	mu      sync.Mutex
}

// Dial connects to the broker and declares the durable queue.
func Dial(url, queue string, publishTimeout time.Duration, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publishTimeout <= 0 {
		publishTimeout = 5 * time.Second
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	return &Publisher{
		conn:    conn,
		ch:      ch,
		queue:   queue,
		timeout: publishTimeout,
		logger:  logger.With(zap.String("queue", queue)),
	}, nil
}

// PublishJSON marshals v and publishes it as a persistent message.
func (p *Publisher) PublishJSON(ctx context.Context, messageID string, v interface{}) error {
	msg, err := newPublishing(messageID, v, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, "", p.queue, true, false, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}
	p.logger.Debug("message published", zap.String("message_id", messageID))
	return nil
}

func newPublishing(messageID string, v interface{}, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal message: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    now.UTC(),
		Body:         body,
	}, nil
}

// Close releases the channel and the connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	chErr := p.ch.Close()
	connErr := p.conn.Close()
	if chErr != nil {
		return chErr
	}
	return connErr
}
