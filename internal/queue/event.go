// Package queue moves notification emails through RabbitMQ: the API
// publishes them and cmd/worker delivers them.
package queue

import "github.com/iliyamo/venue-reservation/internal/model"

// EmailQueueName is the durable queue carrying EmailEvent payloads.
const EmailQueueName = "notification.email"

// EmailEvent is published for every notification the API wants
// delivered.  The consumer sends Message as is.
type EmailEvent struct {
	Message   model.Message `json:"message"`
	RequestID string        `json:"request_id,omitempty"`
	QueuedAt  string        `json:"queued_at"`
}
