package outbox

import (
	"math"
	"time"
)

// DefaultMaxRetries bounds delivery attempts of a message.
const DefaultMaxRetries = 10

// OutboxMessage is a notification that could not be published to RabbitMQ.
type OutboxMessage struct {
	ID           int64
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}

// NewMessage returns a message due immediately.
func NewMessage(exchange, routingKey, contentType string, payload []byte, lastErr error, now time.Time) OutboxMessage {
	msg := OutboxMessage{
		ExchangeName: exchange,
		RoutingKey:   routingKey,
		Payload:      payload,
		ContentType:  contentType,
		MaxRetries:   DefaultMaxRetries,
		CreatedAt:    now,
		UpdatedAt:    now,
		NextRetryAt:  now,
	}
	if lastErr != nil {
		msg.LastError = lastErr.Error()
	}

	return msg
}

// Exhausted reports whether no attempts are left.
func (m OutboxMessage) Exhausted() bool {
	return m.RetryCount >= m.MaxRetries
}

// Backoff returns the delay before attempt number retry: base, 2*base, 4*base...
func Backoff(base time.Duration, retry int) time.Duration {
	if retry < 1 {
		return base
	}

	return time.Duration(math.Pow(2, float64(retry-1))) * base
}
