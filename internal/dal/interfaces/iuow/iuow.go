package iuow

import (
	"context"

	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/icompletedorderrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/imenuitemrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/itablerepo"
)

// UnitOfWork groups repository calls into one transaction. Without Begin the
// repositories run outside a transaction. Rollback after Commit is a no-op,
// so it can always be deferred.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	TableRepository() itablerepo.ITableRepository
	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	CompletedOrderRepository() icompletedorderrepo.ICompletedOrderRepository
	MenuItemRepository() imenuitemrepo.IMenuItemRepository
}

// Factory returns a fresh unit of work per call.
type Factory func() UnitOfWork
