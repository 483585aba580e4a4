package postgres_test

import (
	"context"
	"testing"

	menurepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/menuitem/postgres"
	"github.com/corray333/backend-labs/pos/internal/service/models/menuitem"
	"github.com/stretchr/testify/assert"
)

func TestPostgresMenuItemRepository_MalformedID(t *testing.T) {
	ctx := context.Background()
	repo := menurepo.NewPostgresMenuItemRepository(nil)

	_, err := repo.Get(ctx, "soup")
	assert.ErrorIs(t, err, menuitem.ErrMenuItemNotFound)

	assert.ErrorIs(t, repo.Update(ctx, menuitem.MenuItem{ID: "soup"}), menuitem.ErrMenuItemNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "soup"), menuitem.ErrMenuItemNotFound)
}
