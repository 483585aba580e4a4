package icompletedorderrepo

import (
	"context"

	"github.com/corray333/backend-labs/pos/internal/service/models/completedorder"
)

// ICompletedOrderRepository stores archived sales.
type ICompletedOrderRepository interface {
	// Insert fails with completedorder.ErrAlreadyArchived if the order was archived before.
	Insert(ctx context.Context, c completedorder.CompletedOrder) error
	GetByOrderID(ctx context.Context, orderID string) (*completedorder.CompletedOrder, error)
	Query(ctx context.Context, filter *completedorder.QueryCompletedOrdersModel) ([]completedorder.CompletedOrder, error)
}
