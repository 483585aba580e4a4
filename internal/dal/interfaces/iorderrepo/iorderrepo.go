package iorderrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/order"
)

// IOrderRepository stores order headers. Items live in IOrderItemRepository.
type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) error
	// Get returns order.ErrOrderNotFound when the order does not exist.
	Get(ctx context.Context, id string) (*order.Order, error)
	// GetForUpdate is Get holding a row lock until the transaction ends.
	GetForUpdate(ctx context.Context, id string) (*order.Order, error)
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	UpdateTotal(ctx context.Context, id string, totalCents int64, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id string, status order.Status, updatedAt time.Time) error
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id string) (bool, error)
}
