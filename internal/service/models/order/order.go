package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrEmptyOrder              = errors.New("order must contain at least one item")
	ErrOrderClosed             = errors.New("order no longer accepts items")
	ErrOrderNotReady           = errors.New("order is not ready")
	ErrInvalidStatus           = errors.New("invalid order status")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// Order represents an open order bound to a table.
type Order struct {
	ID         string                `json:"id"`
	TableID    string                `json:"tableId"`
	Items      []orderitem.OrderItem `json:"items"`
	TotalCents int64                 `json:"totalCents"`
	Currency   currency.Currency     `json:"currency"`
	Status     Status                `json:"status"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

// AddItem merges item into the order and recomputes the total.
func (o *Order) AddItem(item orderitem.OrderItem) error {
	if !o.Status.AcceptsItems() {
		return fmt.Errorf("%w: status %s", ErrOrderClosed, o.Status)
	}
	o.Items = orderitem.Merge(o.Items, item)
	o.RecalculateTotal()

	return nil
}

// RecalculateTotal sets TotalCents from the items.
func (o *Order) RecalculateTotal() {
	o.TotalCents = orderitem.Total(o.Items)
}

// TransitionTo moves the order to next. Moving to the current status is
// reported by the boolean and is not an error.
func (o *Order) TransitionTo(next Status, now time.Time) (bool, error) {
	if o.Status == next {
		return false, nil
	}
	if !CanTransition(o.Status, next) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, o.Status, next)
	}
	o.Status = next
	o.UpdatedAt = now

	return true, nil
}

// DwellTime is the whole-second age of the order at now.
func (o *Order) DwellTime(now time.Time) time.Duration {
	d := now.Sub(o.CreatedAt)
	if d < 0 {
		return 0
	}

	return d.Truncate(time.Second)
}

// Clone returns a deep copy.
func (o Order) Clone() Order {
	o.Items = orderitem.Clone(o.Items)

	return o
}

// KitchenTicket is an order as shown on the kitchen screen.
type KitchenTicket struct {
	Order
	DwellSeconds int64 `json:"dwellSeconds"`
	Overdue      bool  `json:"overdue"`
}

// NewKitchenTicket flags the order as overdue once its dwell time exceeds alert.
func NewKitchenTicket(o Order, now time.Time, alert time.Duration) KitchenTicket {
	dwell := o.DwellTime(now)

	return KitchenTicket{
		Order:        o,
		DwellSeconds: int64(dwell / time.Second),
		Overdue:      alert > 0 && dwell > alert,
	}
}
