package itablerepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/table"
)

// ITableRepository is the table registry store.
type ITableRepository interface {
	// Create fails with table.ErrTableExists on a duplicate id.
	Create(ctx context.Context, t table.Table) error
	Get(ctx context.Context, id string) (*table.Table, error)
	GetForUpdate(ctx context.Context, id string) (*table.Table, error)
	List(ctx context.Context) ([]table.Table, error)
	// Save writes status, binding and item cache of t.
	Save(ctx context.Context, t table.Table) error
	// RefreshItems updates the item cache if the table is still bound to orderID.
	RefreshItems(ctx context.Context, orderID string, items []orderitem.OrderItem, now time.Time) error
	// ReleaseByOrder frees every table still bound to orderID.
	ReleaseByOrder(ctx context.Context, orderID string, now time.Time) (int64, error)
	// ReleaseOrphaned frees tables bound to orders that no longer exist.
	ReleaseOrphaned(ctx context.Context, now time.Time) (int64, error)
}
