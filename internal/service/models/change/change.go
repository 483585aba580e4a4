package change

import (
	"errors"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/order"
)

var ErrFeedClosed = errors.New("change feed closed")

// Collection names a store collection with its own change feed.
type Collection string

const (
	CollectionTables          Collection = "tables"
	CollectionOrders          Collection = "orders"
	CollectionCompletedOrders Collection = "completed_orders"
)

// Collections lists every collection that has a feed.
var Collections = []Collection{CollectionTables, CollectionOrders, CollectionCompletedOrders}

func (c Collection) String() string {
	return string(c)
}

// Channel is the notification channel carrying changes of c.
func (c Collection) Channel() string {
	return "pos_" + string(c)
}

// ParseCollection parses a collection name.
func ParseCollection(s string) (Collection, error) {
	switch c := Collection(s); c {
	case CollectionTables, CollectionOrders, CollectionCompletedOrders:
		return c, nil
	default:
		return "", fmt.Errorf("unknown collection %q", s)
	}
}

type Op string

const (
	OpAdded    Op = "added"
	OpModified Op = "modified"
	OpRemoved  Op = "removed"
	// OpSubscribed marks the start of a subscription. Changes committed
	// before it may have been missed.
	OpSubscribed Op = "subscribed"
)

// Change describes one document change. Order fields are only set for the
// orders collection; PrevStatus is the status before a modification.
type Change struct {
	Collection Collection   `json:"collection"`
	Op         Op           `json:"op"`
	ID         string       `json:"id"`
	TableID    string       `json:"tableId,omitempty"`
	Status     order.Status `json:"status,omitempty"`
	PrevStatus order.Status `json:"prevStatus,omitempty"`
	TotalCents int64        `json:"totalCents,omitempty"`
	At         time.Time    `json:"at"`
}

// BecameReady reports whether the change is the transition of an order into
// ready. Snapshots of orders that were already ready do not count.
func (c Change) BecameReady() bool {
	return c.Collection == CollectionOrders &&
		c.Op == OpModified &&
		c.Status == order.StatusReady &&
		c.PrevStatus != order.StatusReady
}

// OrderRemoved reports whether the change deletes an order.
func (c Change) OrderRemoved() bool {
	return c.Collection == CollectionOrders && c.Op == OpRemoved
}

// Subscribed reports whether the change is the start marker of a feed.
func (c Change) Subscribed() bool {
	return c.Op == OpSubscribed
}
