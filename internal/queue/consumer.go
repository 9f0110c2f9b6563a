package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/venue-reservation/internal/logger"
	"github.com/iliyamo/venue-reservation/internal/metrics"
	"github.com/iliyamo/venue-reservation/internal/model"
)

// Sender delivers one email.  mailer.SMTPNotifier satisfies it.
type Sender interface {
	Send(ctx context.Context, msg model.Message) error
}

// StartEmailConsumer consumes the notification queue and delivers every
// event through sender.  It reconnects with exponential backoff and
// returns only when ctx is done.  A message that cannot be decoded or
// sent is rejected without requeue.
func StartEmailConsumer(ctx context.Context, url string, sender Sender) error {
	log := logger.Get().With("component", "email-consumer")
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("dial broker failed", "err", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, sender)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("consume loop ended, reconnecting", "err", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, sender Sender) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		logger.Get().Warn("set QoS failed", "err", err)
	}
	if _, err := ch.QueueDeclare(EmailQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(EmailQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(ctx, d.Body, sender); err != nil {
				metrics.NotificationFailures.WithLabelValues("queued_email").Inc()
				logger.Get().Error("deliver queued email failed", "err", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(ctx context.Context, body []byte, sender Sender) error {
	var ev EmailEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Message.To == "" {
		return errors.New("email event without recipient")
	}
	if ev.RequestID != "" {
		ctx = logger.ContextWithRequestID(ctx, ev.RequestID)
	}
	return sender.Send(ctx, ev.Message)
}
