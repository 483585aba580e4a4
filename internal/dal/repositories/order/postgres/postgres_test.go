package postgres_test

import (
	"context"
	"testing"
	"time"

	orderrepo "github.com/corray333/backend-labs/pos/internal/dal/repositories/order/postgres"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A malformed id never reaches the connection, so a nil one suffices.
func TestPostgresOrderRepository_MalformedID(t *testing.T) {
	ctx := context.Background()
	repo := orderrepo.NewPostgresOrderRepository(nil)

	_, err := repo.Get(ctx, "abc")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	_, err = repo.GetForUpdate(ctx, "abc")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	err = repo.UpdateStatus(ctx, "abc", order.StatusReady, time.Now())
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	deleted, err := repo.Delete(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, deleted)

	orders, err := repo.Query(ctx, &order.QueryOrdersModel{IDs: []string{"abc"}})
	require.NoError(t, err)
	assert.Empty(t, orders)
}
