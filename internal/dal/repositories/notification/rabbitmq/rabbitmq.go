package rabbitmqrepo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/corray333/backend-labs/pos/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/pos/internal/service/models/notification"
)

// ExchangeKind is the exchange type used for waiter notifications: every
// instance receives every message.
const ExchangeKind = "fanout"

// NotificationPublisher publishes ready notifications to the notification exchange.
type NotificationPublisher struct {
	client   *rabbitmq.Client
	exchange string
}

// MustNewNotificationPublisher declares the exchange and returns a publisher.
func MustNewNotificationPublisher(client *rabbitmq.Client, exchange string) *NotificationPublisher {
	err := client.DeclareExchange(rabbitmq.DeclareExchangeConfig{
		Name:    exchange,
		Kind:    ExchangeKind,
		Durable: true,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to declare exchange %s: %v", exchange, err))
	}

	return &NotificationPublisher{
		client:   client,
		exchange: exchange,
	}
}

func (p *NotificationPublisher) Publish(ctx context.Context, n notification.OrderReady) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	return p.client.Publish(ctx, p.exchange, n.TableID, notification.ContentType, body)
}
