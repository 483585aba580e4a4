package imenuitemrepo

import (
	"context"

	"github.com/corray333/backend-labs/pos/internal/service/models/menuitem"
)

// IMenuItemRepository is the menu catalog.
type IMenuItemRepository interface {
	Create(ctx context.Context, m menuitem.MenuItem) error
	Get(ctx context.Context, id string) (*menuitem.MenuItem, error)
	// List returns the whole catalog when category is empty.
	List(ctx context.Context, category menuitem.Category) ([]menuitem.MenuItem, error)
	Update(ctx context.Context, m menuitem.MenuItem) error
	Delete(ctx context.Context, id string) error
}
