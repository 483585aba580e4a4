package iorderitemrepo

import (
	"context"

	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
)

// IOrderItemRepository stores order lines, one row per (order, menu item).
type IOrderItemRepository interface {
	BulkInsert(ctx context.Context, orderID string, items []orderitem.OrderItem) error
	// Upsert adds item.Quantity to an existing line or inserts a new one.
	Upsert(ctx context.Context, orderID string, item orderitem.OrderItem) error
	Query(ctx context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error)
}
