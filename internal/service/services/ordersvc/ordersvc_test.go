package ordersvc_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/corray333/backend-labs/pos/internal/dal/memstore"
	"github.com/corray333/backend-labs/pos/internal/service/models/completedorder"
	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/corray333/backend-labs/pos/internal/service/models/menuitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/service/models/table"
	"github.com/corray333/backend-labs/pos/internal/service/services/ordersvc"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 14, 19, 0, 0, 0, time.UTC)

var (
	waiter  = session.Session{UserID: "u-waiter", Role: session.RoleWaiter}
	kitchen = session.Session{UserID: "u-kitchen", Role: session.RoleKitchen}
	cashier = session.Session{UserID: "u-cashier", Role: session.RoleCashier}
	admin   = session.Session{UserID: "u-admin", Role: session.RoleAdmin}
)

type fixture struct {
	store *memstore.Store
	svc   *ordersvc.OrderService
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{store: memstore.New(), now: base}

	work := f.store.NewUnitOfWork()
	for _, m := range []menuitem.MenuItem{
		{ID: "soup", Name: "Sopa", PriceCents: 500, Currency: currency.CurrencyMXN, Category: menuitem.CategoryStarter},
		{ID: "cola", Name: "Cola", PriceCents: 200, Currency: currency.CurrencyMXN, Category: menuitem.CategoryDrink},
	} {
		require.NoError(t, work.MenuItemRepository().Create(ctx, m))
	}
	for _, id := range []string{"1", "2"} {
		tbl, err := table.New(id, base)
		require.NoError(t, err)
		require.NoError(t, work.TableRepository().Create(ctx, tbl))
	}

	var seq atomic.Int64
	f.svc = ordersvc.MustNewOrderService(
		ordersvc.WithUnitOfWork(f.store.NewUnitOfWork),
		ordersvc.WithClock(func() time.Time { return f.now }),
		ordersvc.WithIDGenerator(func() string { return fmt.Sprintf("id-%d", seq.Add(1)) }),
		ordersvc.WithDwellAlert(time.Minute),
	)

	return f
}

func (f *fixture) table(t *testing.T, id string) *table.Table {
	t.Helper()
	tbl, err := f.store.NewUnitOfWork().TableRepository().Get(context.Background(), id)
	require.NoError(t, err)

	return tbl
}

func TestOrderService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	o, err := f.svc.CreateOrder(ctx, waiter, "1", []orderitem.OrderItem{
		{MenuItemID: "soup", Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), o.TotalCents)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, currency.CurrencyMXN, o.Currency)

	tbl := f.table(t, "1")
	assert.False(t, tbl.Available())
	assert.Equal(t, o.ID, tbl.OrderID)

	o, err = f.svc.AddItem(ctx, waiter, o.ID, orderitem.OrderItem{MenuItemID: "cola", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1200), o.TotalCents)

	want := []orderitem.OrderItem{
		{OrderID: o.ID, MenuItemID: "soup", Name: "Sopa", Quantity: 2, PriceCents: 500},
		{OrderID: o.ID, MenuItemID: "cola", Name: "Cola", Quantity: 1, PriceCents: 200},
	}
	if diff := cmp.Diff(want, o.Items); diff != "" {
		t.Errorf("order items mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, f.table(t, "1").OrderItems); diff != "" {
		t.Errorf("table item cache mismatch (-want +got):\n%s", diff)
	}

	_, err = f.svc.SetStatus(ctx, waiter, o.ID, order.StatusPreparing)
	require.ErrorIs(t, err, session.ErrForbidden)

	_, err = f.svc.SetStatus(ctx, kitchen, o.ID, order.StatusPreparing)
	require.NoError(t, err)
	o, err = f.svc.SetStatus(ctx, kitchen, o.ID, order.StatusReady)
	require.NoError(t, err)
	assert.Equal(t, order.StatusReady, o.Status)
	assert.Len(t, o.Items, 2)

	queue, err := f.svc.KitchenQueue(ctx, kitchen)
	require.NoError(t, err)
	assert.Empty(t, queue)

	ready, err := f.svc.CashierQueue(ctx, cashier)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, o.ID, ready[0].ID)

	f.now = base.Add(30 * time.Minute)
	sale, err := f.svc.Archive(ctx, cashier, o.ID, completedorder.PaymentCard)
	require.NoError(t, err)
	assert.Equal(t, o.ID, sale.OrderID)
	assert.Equal(t, "1", sale.TableID)
	assert.Equal(t, int64(1200), sale.TotalCents)
	assert.Equal(t, completedorder.PaymentCard, sale.PaymentMethod)
	assert.Equal(t, base, sale.OrderedAt)
	assert.Equal(t, f.now, sale.CompletedAt)

	tbl = f.table(t, "1")
	assert.True(t, tbl.Available())
	assert.Empty(t, tbl.OrderItems)

	_, err = f.svc.GetOrder(ctx, waiter, o.ID)
	require.ErrorIs(t, err, order.ErrOrderNotFound)

	again, err := f.svc.Archive(ctx, cashier, o.ID, completedorder.PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, again.ID)
	assert.Equal(t, completedorder.PaymentCard, again.PaymentMethod)

	sales, err := f.svc.ListSales(ctx, cashier, completedorder.QueryCompletedOrdersModel{})
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestOrderService_CreateOrder_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	soup := []orderitem.OrderItem{{MenuItemID: "soup", Quantity: 1}}

	tests := []struct {
		name    string
		sess    session.Session
		tableID string
		items   []orderitem.OrderItem
		wantErr error
	}{
		{"no session", session.Session{}, "1", soup, session.ErrUnauthenticated},
		{"kitchen cannot order", kitchen, "1", soup, session.ErrForbidden},
		{"empty order", waiter, "1", nil, order.ErrEmptyOrder},
		{"unknown menu item", waiter, "1", []orderitem.OrderItem{{MenuItemID: "steak", Quantity: 1}}, menuitem.ErrMenuItemNotFound},
		{"missing menu item", waiter, "1", []orderitem.OrderItem{{Quantity: 1}}, orderitem.ErrMissingMenuItem},
		{"zero quantity", waiter, "1", []orderitem.OrderItem{{MenuItemID: "soup"}}, orderitem.ErrInvalidQuantity},
		{"unknown table", waiter, "99", soup, table.ErrTableNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(ctx, tt.sess, tt.tableID, tt.items)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	orders, err := f.svc.ListOrders(ctx, admin, order.QueryOrdersModel{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.True(t, f.table(t, "1").Available())
}

func TestOrderService_CreateOrder_TableUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.CreateOrder(ctx, waiter, "1", []orderitem.OrderItem{{MenuItemID: "soup", Quantity: 1}})
	require.NoError(t, err)

	_, err = f.svc.CreateOrder(ctx, waiter, "1", []orderitem.OrderItem{{MenuItemID: "cola", Quantity: 1}})
	require.ErrorIs(t, err, table.ErrTableUnavailable)

	assert.Equal(t, first.ID, f.table(t, "1").OrderID)
	orders, err := f.svc.ListOrders(ctx, waiter, order.QueryOrdersModel{TableIDs: []string{"1"}})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestOrderService_CreateOrder_MergesDuplicateLines(t *testing.T) {
	f := newFixture(t)

	o, err := f.svc.CreateOrder(context.Background(), waiter, "2", []orderitem.OrderItem{
		{MenuItemID: "soup", Quantity: 1},
		{MenuItemID: "soup", Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assert.Equal(t, int64(1500), o.TotalCents)
}

func TestOrderService_AddItem_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	o, err := f.svc.CreateOrder(ctx, waiter, "1", []orderitem.OrderItem{{MenuItemID: "soup", Quantity: 2}})
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddItem(ctx, waiter, o.ID, orderitem.OrderItem{MenuItemID: "soup", Quantity: 1})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := f.svc.GetOrder(ctx, waiter, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2+workers, got.Items[0].Quantity)
	assert.Equal(t, int64(500*(2+workers)), got.TotalCents)
	assert.Equal(t, got.Items, f.table(t, "1").OrderItems)
}

func TestOrderService_AddItem_ConcurrentDifferentItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	o, err := f.svc.CreateOrder(ctx, waiter, "2", []orderitem.OrderItem{{MenuItemID: "soup", Quantity: 1}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, id := range []string{"soup", "cola"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.AddItem(ctx, waiter, o.ID, orderitem.OrderItem{MenuItemID: id, Quantity: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.svc.GetOrder(ctx, waiter, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, 1, got.Items[1].Quantity)
	assert.Equal(t, int64(1200), got.TotalCents)
}

func TestOrderService_SetStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	o, err := f.svc.CreateOrder(ctx, waiter, "1", []orderitem.OrderItem{{MenuItemID: "soup", Quantity: 1}})
	require.NoError(t, err)

	_, err = f.svc.SetStatus(ctx, kitchen, o.ID, "served")
	require.ErrorIs(t, err, order.ErrInvalidStatus)

	_, err = f.svc.SetStatus(ctx, cashier, o.ID, order.StatusCancelled)
	require.ErrorIs(t, err, session.ErrForbidden)

	_, err = f.svc.SetStatus(ctx, kitchen, o.ID, order.StatusReady)
	require.ErrorIs(t, err, order.ErrInvalidStatusTransition)

	f.now = base.Add(time.Minute)
	_, err = f.svc.SetStatus(ctx, kitchen, o.ID, order.StatusPreparing)
	require.NoError(t, err)

	f.now = base.Add(2 * time.Minute)
	same, err := f.svc.SetStatus(ctx, kitchen, o.ID, order.StatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Minute), same.UpdatedAt, "repeating a status changes nothing")

	_, err = f.svc.SetStatus(ctx, kitchen, o.ID, order.StatusPending)
	require.ErrorIs(t, err, order.ErrInvalidStatusTransition)

	_, err = f.svc.Archive(ctx, cashier, o.ID, completedorder.PaymentCash)
	require.ErrorIs(t, err, order.ErrOrderNotReady)

	cancelled, err := f.svc.SetStatus(ctx, waiter, o.ID, order.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)

	_, err = f.svc.AddItem(ctx, waiter, o.ID, orderitem.OrderItem{MenuItemID: "cola", Quantity: 1})
	require.ErrorIs(t, err, order.ErrOrderClosed)

	_, err = f.svc.SetStatus(ctx, kitchen, o.ID, order.StatusReady)
	require.ErrorIs(t, err, order.ErrInvalidStatusTransition)

	assert.Equal(t, o.ID, f.table(t, "1").OrderID, "cancelled orders keep the table until it is freed")
}

func TestOrderService_Archive_Errors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Archive(ctx, cashier, "missing", completedorder.PaymentCash)
	require.ErrorIs(t, err, order.ErrOrderNotFound)

	o, err := f.svc.CreateOrder(ctx, waiter, "1", []orderitem.OrderItem{{MenuItemID: "soup", Quantity: 1}})
	require.NoError(t, err)

	_, err = f.svc.Archive(ctx, waiter, o.ID, completedorder.PaymentCash)
	require.ErrorIs(t, err, session.ErrForbidden)

	_, err = f.svc.Archive(ctx, cashier, o.ID, "cheque")
	require.ErrorIs(t, err, completedorder.ErrInvalidPaymentMethod)
}

func TestOrderService_KitchenQueue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.CreateOrder(ctx, waiter, "1", []orderitem.OrderItem{{MenuItemID: "soup", Quantity: 1}})
	require.NoError(t, err)
	f.now = base.Add(45 * time.Second)
	second, err := f.svc.CreateOrder(ctx, waiter, "2", []orderitem.OrderItem{{MenuItemID: "cola", Quantity: 1}})
	require.NoError(t, err)

	_, err = f.svc.KitchenQueue(ctx, waiter)
	require.ErrorIs(t, err, session.ErrForbidden)

	f.now = base.Add(90 * time.Second)
	tickets, err := f.svc.KitchenQueue(ctx, kitchen)
	require.NoError(t, err)
	require.Len(t, tickets, 2)

	assert.Equal(t, first.ID, tickets[0].ID)
	assert.Equal(t, int64(90), tickets[0].DwellSeconds)
	assert.True(t, tickets[0].Overdue)

	assert.Equal(t, second.ID, tickets[1].ID)
	assert.Equal(t, int64(45), tickets[1].DwellSeconds)
	assert.False(t, tickets[1].Overdue)
	assert.Len(t, tickets[1].Items, 1)
}
