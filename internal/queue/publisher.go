package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/venue-reservation/internal/logger"
	"github.com/iliyamo/venue-reservation/internal/model"
)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// EmailPublisher hands messages to the notification queue.  It opens a
// connection per message; notification volume is one per reservation
// change.
type EmailPublisher struct {
	open func() (Channel, func(), error)
	now  func() time.Time
}

// NewEmailPublisher returns a publisher for the broker at url.
func NewEmailPublisher(url string) *EmailPublisher {
	return &EmailPublisher{
		open: func() (Channel, func(), error) {
			conn, err := amqp.Dial(url)
			if err != nil {
				return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
			}
			ch, err := conn.Channel()
			if err != nil {
				_ = conn.Close()
				return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
			}
			return ch, func() { _ = conn.Close() }, nil
		},
		now: time.Now,
	}
}

// Send publishes msg as a persistent EmailEvent.  Errors are returned so
// the caller can log them; the API never retries.
func (p *EmailPublisher) Send(ctx context.Context, msg model.Message) error {
	body, err := json.Marshal(EmailEvent{
		Message:   msg,
		RequestID: logger.RequestID(ctx),
		QueuedAt:  p.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal email event: %w", err)
	}

	ch, closeConn, err := p.open()
	if err != nil {
		return err
	}
	defer closeConn()
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(EmailQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", EmailQueueName, false, false, pub); err != nil {
		return fmt.Errorf("publish email: %w", err)
	}
	logger.WithContext(ctx).Debug("email queued", "to", msg.To, "subject", msg.Subject)
	return nil
}
