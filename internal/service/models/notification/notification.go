package notification

import (
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
)

// ContentType of encoded notifications.
const ContentType = "application/json"

// OrderReady tells waiters that the kitchen finished an order.
type OrderReady struct {
	OrderID    string            `json:"orderId"`
	TableID    string            `json:"tableId"`
	TotalCents int64             `json:"totalCents"`
	Currency   currency.Currency `json:"currency"`
	ReadyAt    time.Time         `json:"readyAt"`
}
