package uow_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/corray333/backend-labs/pos/internal/config"
	"github.com/corray333/backend-labs/pos/internal/dal/postgres"
	changefeed "github.com/corray333/backend-labs/pos/internal/dal/repositories/changefeed/postgres"
	"github.com/corray333/backend-labs/pos/internal/dal/uow"
	"github.com/corray333/backend-labs/pos/internal/service/models/change"
	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/corray333/backend-labs/pos/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/pos/internal/service/services/tablesvc"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	waiter = session.Session{UserID: "u-waiter", Role: session.RoleWaiter}
	admin  = session.Session{UserID: "u-admin", Role: session.RoleAdmin}
)

// newClient connects to the database configured through POS_POSTGRES_*.
// These tests only run with POS_TEST_POSTGRES=1.
func newClient(t *testing.T) *postgres.Client {
	t.Helper()
	if os.Getenv("POS_TEST_POSTGRES") != "1" {
		t.Skip("POS_TEST_POSTGRES=1 not set")
	}

	config.SetDefaults()
	viper.SetEnvPrefix("pos")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	client := postgres.MustNewClient()
	t.Cleanup(client.Close)

	return client
}

func openOrder(t *testing.T, client *postgres.Client) (*ordersvc.OrderService, *order.Order, string) {
	t.Helper()
	ctx := context.Background()
	factory := uow.NewFactory(client)

	menuID := uuid.NewString()
	now := time.Now().UTC()
	require.NoError(t, factory().MenuItemRepository().Create(ctx, menuitem.MenuItem{
		ID:         menuID,
		Name:       "Sopa",
		PriceCents: 500,
		Currency:   currency.CurrencyMXN,
		Category:   menuitem.CategoryStarter,
		CreatedAt:  now,
		UpdatedAt:  now,
	}))
	t.Cleanup(func() {
		_ = factory().MenuItemRepository().Delete(context.Background(), menuID)
	})

	tables := tablesvc.MustNewTableService(tablesvc.WithUnitOfWork(factory))
	tableID := fmt.Sprintf("it-%d", now.UnixNano()%1_000_000_000)
	_, err := tables.CreateTable(ctx, admin, tableID)
	require.NoError(t, err)

	orders := ordersvc.MustNewOrderService(ordersvc.WithUnitOfWork(factory))
	o, err := orders.CreateOrder(ctx, waiter, tableID, []orderitem.OrderItem{{MenuItemID: menuID, Quantity: 1}})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = tables.FreeTable(context.Background(), admin, tableID)
	})

	return orders, o, menuID
}

func TestPostgres_ConcurrentAddItemKeepsEveryLine(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()
	orders, o, menuID := openOrder(t, client)

	const adds = 10
	var wg sync.WaitGroup
	errs := make(chan error, adds)
	for range adds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orders.AddItem(ctx, waiter, o.ID, orderitem.OrderItem{MenuItemID: menuID, Quantity: 1})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	items, err := uow.NewUnitOfWork(client).OrderItemRepository().Query(ctx, &orderitem.QueryOrderItemsModel{
		OrderIDs: []string{o.ID},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, adds+1, items[0].Quantity)

	got, err := orders.GetOrder(ctx, waiter, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64((adds+1)*500), got.TotalCents)
}

func TestPostgres_ChangeFeedCarriesPreviousStatus(t *testing.T) {
	client := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	orders, o, _ := openOrder(t, client)

	got := make(chan change.Change, 16)
	go func() {
		for c, err := range changefeed.NewChangeFeed(client).Subscribe(ctx, change.CollectionOrders) {
			if err != nil {
				return
			}
			got <- c
		}
	}()
	select {
	case c := <-got:
		require.True(t, c.Subscribed())
	case <-ctx.Done():
		t.Fatal("change feed never subscribed")
	}

	kitchen := session.Session{UserID: "u-kitchen", Role: session.RoleKitchen}
	_, err := orders.SetStatus(ctx, kitchen, o.ID, order.StatusPreparing)
	require.NoError(t, err)
	_, err = orders.SetStatus(ctx, kitchen, o.ID, order.StatusReady)
	require.NoError(t, err)

	for {
		select {
		case c := <-got:
			if c.ID != o.ID || c.Status != order.StatusReady {
				continue
			}
			assert.Equal(t, order.StatusPreparing, c.PrevStatus)
			assert.True(t, c.BecameReady())

			return
		case <-ctx.Done():
			t.Fatal("ready transition never reached the change feed")
		}
	}
}

func TestPostgres_MalformedIDsAreNotFound(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()
	work := uow.NewUnitOfWork(client)

	_, err := work.OrderRepository().Get(ctx, "abc")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	_, err = work.MenuItemRepository().Get(ctx, "soup")
	assert.ErrorIs(t, err, menuitem.ErrMenuItemNotFound)
}
