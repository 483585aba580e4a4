package completedorder

import (
	"errors"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
)

var (
	ErrAlreadyArchived      = errors.New("order already archived")
	ErrCompletedNotFound    = errors.New("completed order not found")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentCard  PaymentMethod = "card"
	PaymentOther PaymentMethod = "other"
)

func (p PaymentMethod) String() string {
	return string(p)
}

// ParsePaymentMethod parses a payment method. An empty string means cash.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch p := PaymentMethod(s); p {
	case "":
		return PaymentCash, nil
	case PaymentCash, PaymentCard, PaymentOther:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
	}
}

// CompletedOrder is an archived sale. It is written once and never updated.
type CompletedOrder struct {
	ID            string                `json:"id"`
	OrderID       string                `json:"orderId"`
	TableID       string                `json:"tableId"`
	Items         []orderitem.OrderItem `json:"items"`
	TotalCents    int64                 `json:"totalCents"`
	Currency      currency.Currency     `json:"currency"`
	PaymentMethod PaymentMethod         `json:"paymentMethod"`
	OrderedAt     time.Time             `json:"orderedAt"`
	CompletedAt   time.Time             `json:"completedAt"`
}

// FromOrder snapshots o as a sale.
func FromOrder(id string, o order.Order, method PaymentMethod, now time.Time) CompletedOrder {
	return CompletedOrder{
		ID:            id,
		OrderID:       o.ID,
		TableID:       o.TableID,
		Items:         orderitem.Clone(o.Items),
		TotalCents:    o.TotalCents,
		Currency:      o.Currency,
		PaymentMethod: method,
		OrderedAt:     o.CreatedAt,
		CompletedAt:   now,
	}
}

// Clone returns a deep copy.
func (c CompletedOrder) Clone() CompletedOrder {
	c.Items = orderitem.Clone(c.Items)

	return c
}

// QueryCompletedOrdersModel filters archived sales.
type QueryCompletedOrdersModel struct {
	From   time.Time `json:"from,omitempty"`
	To     time.Time `json:"to,omitempty"`
	Limit  int       `json:"limit,omitempty"`
	Offset int       `json:"offset,omitempty"`
}
