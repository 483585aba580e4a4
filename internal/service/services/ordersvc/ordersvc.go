package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/pos/internal/service/models/completedorder"
	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("ordersvc")

// OrderService owns the order lifecycle from creation to archive.
type OrderService struct {
	newUOW     iuow.Factory
	now        func() time.Time
	newID      func() string
	currency   currency.Currency
	dwellAlert time.Duration
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		now:        time.Now,
		newID:      uuid.NewString,
		currency:   currency.Default,
		dwellAlert: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newUOW == nil {
		panic("ordersvc: unit of work factory is required")
	}

	return s
}

// WithUnitOfWork sets the unit of work factory for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(f iuow.Factory) option {
	return func(s *OrderService) {
		s.newUOW = f
	}
}

// WithClock sets the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *OrderService) {
		s.now = now
	}
}

// WithIDGenerator sets the generator of order and sale ids.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithIDGenerator(newID func() string) option {
	return func(s *OrderService) {
		s.newID = newID
	}
}

// WithCurrency sets the currency of new orders.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCurrency(c currency.Currency) option {
	return func(s *OrderService) {
		s.currency = c
	}
}

// WithDwellAlert sets the dwell time after which kitchen tickets are overdue.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithDwellAlert(d time.Duration) option {
	return func(s *OrderService) {
		s.dwellAlert = d
	}
}

// CreateOrder opens an order on an available table and binds the table to it.
// Lines only need MenuItemID and Quantity; name and price come from the menu.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	sess session.Session,
	tableID string,
	items []orderitem.OrderItem,
) (*order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	if err := sess.Require(session.RoleWaiter, session.RoleAdmin); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, order.ErrEmptyOrder
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = work.Rollback(ctx) }()

	lines, err := s.resolveItems(ctx, work, items)
	if err != nil {
		return nil, err
	}

	tbl, err := work.TableRepository().GetForUpdate(ctx, tableID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o := order.Order{
		ID:        s.newID(),
		TableID:   tbl.ID,
		Items:     orderitem.MergeAll(lines),
		Currency:  s.currency,
		Status:    order.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.RecalculateTotal()

	if err := tbl.Bind(o.ID, o.Items, now); err != nil {
		return nil, err
	}
	if err := work.OrderRepository().Insert(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}
	if err := work.OrderItemRepository().BulkInsert(ctx, o.ID, o.Items); err != nil {
		return nil, fmt.Errorf("failed to insert order items: %w", err)
	}
	if err := work.TableRepository().Save(ctx, *tbl); err != nil {
		return nil, fmt.Errorf("failed to bind table: %w", err)
	}

	if err := work.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	slog.InfoContext(ctx, "Order created",
		"order_id", o.ID,
		"table_id", o.TableID,
		"items", len(o.Items),
		"total_cents", o.TotalCents,
		"user_id", sess.UserID,
	)

	return &o, nil
}

// AddItem adds a line to an open order, merging it with an existing line of
// the same menu item, and refreshes the total and the table item cache.
func (s *OrderService) AddItem(
	ctx context.Context,
	sess session.Session,
	orderID string,
	item orderitem.OrderItem,
) (*order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.AddItem")
	defer span.End()

	if err := sess.Require(session.RoleWaiter, session.RoleAdmin); err != nil {
		return nil, err
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = work.Rollback(ctx) }()

	// The row lock serializes additions, so the merge below matches what the
	// upsert leaves in the store.
	o, err := work.OrderRepository().GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Items, err = work.OrderItemRepository().Query(ctx, &orderitem.QueryOrderItemsModel{
		OrderIDs: []string{o.ID},
	})
	if err != nil {
		return nil, err
	}

	lines, err := s.resolveItems(ctx, work, []orderitem.OrderItem{item})
	if err != nil {
		return nil, err
	}
	if err := o.AddItem(lines[0]); err != nil {
		return nil, err
	}
	if err := work.OrderItemRepository().Upsert(ctx, o.ID, lines[0]); err != nil {
		return nil, fmt.Errorf("failed to upsert order item: %w", err)
	}
	o.UpdatedAt = s.now()

	if err := work.OrderRepository().UpdateTotal(ctx, o.ID, o.TotalCents, o.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to update order total: %w", err)
	}
	if err := work.TableRepository().RefreshItems(ctx, o.ID, o.Items, o.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to refresh table items: %w", err)
	}

	if err := work.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order item: %w", err)
	}

	slog.InfoContext(ctx, "Order item added",
		"order_id", o.ID,
		"menu_item_id", item.MenuItemID,
		"quantity", item.Quantity,
		"total_cents", o.TotalCents,
	)

	return o, nil
}

// SetStatus moves an order along its lifecycle. Setting the current status
// again changes nothing. Kitchen staff drive the order forward; waiters may
// only cancel.
func (s *OrderService) SetStatus(
	ctx context.Context,
	sess session.Session,
	orderID string,
	status order.Status,
) (*order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.SetStatus")
	defer span.End()

	status, err := order.ParseStatus(string(status))
	if err != nil {
		return nil, err
	}
	if err := requireStatusRole(sess, status); err != nil {
		return nil, err
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = work.Rollback(ctx) }()

	o, err := work.OrderRepository().GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	prev := o.Status

	changed, err := o.TransitionTo(status, s.now())
	if err != nil {
		return nil, err
	}
	if changed {
		if err := work.OrderRepository().UpdateStatus(ctx, o.ID, o.Status, o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to update order status: %w", err)
		}
	}

	if err := loadItems(ctx, work, []*order.Order{o}); err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order status: %w", err)
	}

	if changed {
		slog.InfoContext(ctx, "Order status changed",
			"order_id", o.ID,
			"from", prev,
			"to", o.Status,
			"role", sess.Role,
		)
	}

	return o, nil
}

func requireStatusRole(sess session.Session, status order.Status) error {
	switch status {
	case order.StatusCancelled:
		return sess.Require(session.RoleWaiter, session.RoleKitchen, session.RoleAdmin)
	case order.StatusPreparing, order.StatusReady:
		return sess.Require(session.RoleKitchen, session.RoleAdmin)
	default:
		if err := sess.Require(session.RoleKitchen, session.RoleAdmin); err != nil {
			return err
		}

		return fmt.Errorf("%w: orders cannot return to %s", order.ErrInvalidStatusTransition, status)
	}
}

// Archive records a ready order as a sale, frees its table and deletes it.
// Archiving an order that is already archived returns the existing sale.
func (s *OrderService) Archive(
	ctx context.Context,
	sess session.Session,
	orderID string,
	method completedorder.PaymentMethod,
) (*completedorder.CompletedOrder, error) {
	ctx, span := tracer.Start(ctx, "OrderService.Archive")
	defer span.End()

	if err := sess.Require(session.RoleCashier, session.RoleAdmin); err != nil {
		return nil, err
	}
	method, err := completedorder.ParsePaymentMethod(string(method))
	if err != nil {
		return nil, err
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = work.Rollback(ctx) }()

	o, err := work.OrderRepository().GetForUpdate(ctx, orderID)
	if errors.Is(err, order.ErrOrderNotFound) {
		sale, lookupErr := work.CompletedOrderRepository().GetByOrderID(ctx, orderID)
		if errors.Is(lookupErr, completedorder.ErrCompletedNotFound) {
			return nil, err
		}

		return sale, lookupErr
	}
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusReady {
		return nil, fmt.Errorf("%w: status %s", order.ErrOrderNotReady, o.Status)
	}
	if err := loadItems(ctx, work, []*order.Order{o}); err != nil {
		return nil, err
	}

	now := s.now()
	sale, err := work.CompletedOrderRepository().GetByOrderID(ctx, o.ID)
	switch {
	case errors.Is(err, completedorder.ErrCompletedNotFound):
		created := completedorder.FromOrder(s.newID(), *o, method, now)
		if err := work.CompletedOrderRepository().Insert(ctx, created); err != nil {
			return nil, fmt.Errorf("failed to insert completed order: %w", err)
		}
		sale = &created
	case err != nil:
		return nil, err
	}

	released, err := work.TableRepository().ReleaseByOrder(ctx, o.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to release table: %w", err)
	}
	if _, err := work.OrderRepository().Delete(ctx, o.ID); err != nil {
		return nil, fmt.Errorf("failed to delete order: %w", err)
	}

	if err := work.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit archive: %w", err)
	}

	slog.InfoContext(ctx, "Order archived",
		"order_id", o.ID,
		"table_id", o.TableID,
		"total_cents", sale.TotalCents,
		"payment_method", sale.PaymentMethod,
		"tables_released", released,
	)

	return sale, nil
}

// GetOrder returns an order with its items.
func (s *OrderService) GetOrder(ctx context.Context, sess session.Session, orderID string) (*order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.GetOrder")
	defer span.End()

	if err := requireStaff(sess); err != nil {
		return nil, err
	}

	work := s.newUOW()
	o, err := work.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := loadItems(ctx, work, []*order.Order{o}); err != nil {
		return nil, err
	}

	return o, nil
}

// ListOrders retrieves orders with their items based on filter.
func (s *OrderService) ListOrders(
	ctx context.Context,
	sess session.Session,
	filter order.QueryOrdersModel,
) ([]order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.ListOrders")
	defer span.End()

	if err := requireStaff(sess); err != nil {
		return nil, err
	}

	return s.queryOrders(ctx, &filter)
}

// KitchenQueue returns pending and preparing orders, oldest first, with their
// dwell time.
func (s *OrderService) KitchenQueue(ctx context.Context, sess session.Session) ([]order.KitchenTicket, error) {
	ctx, span := tracer.Start(ctx, "OrderService.KitchenQueue")
	defer span.End()

	if err := sess.Require(session.RoleKitchen, session.RoleAdmin); err != nil {
		return nil, err
	}

	orders, err := s.queryOrders(ctx, &order.QueryOrdersModel{
		Statuses: []order.Status{order.StatusPending, order.StatusPreparing},
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	tickets := make([]order.KitchenTicket, 0, len(orders))
	for _, o := range orders {
		tickets = append(tickets, order.NewKitchenTicket(o, now, s.dwellAlert))
	}

	return tickets, nil
}

// CashierQueue returns the orders waiting for payment.
func (s *OrderService) CashierQueue(ctx context.Context, sess session.Session) ([]order.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.CashierQueue")
	defer span.End()

	if err := sess.Require(session.RoleCashier, session.RoleAdmin); err != nil {
		return nil, err
	}

	return s.queryOrders(ctx, &order.QueryOrdersModel{
		Statuses: []order.Status{order.StatusReady},
	})
}

// ListSales returns archived sales.
func (s *OrderService) ListSales(
	ctx context.Context,
	sess session.Session,
	filter completedorder.QueryCompletedOrdersModel,
) ([]completedorder.CompletedOrder, error) {
	ctx, span := tracer.Start(ctx, "OrderService.ListSales")
	defer span.End()

	if err := sess.Require(session.RoleCashier, session.RoleAdmin); err != nil {
		return nil, err
	}

	return s.newUOW().CompletedOrderRepository().Query(ctx, &filter)
}

func (s *OrderService) queryOrders(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	work := s.newUOW()

	orders, err := work.OrderRepository().Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	ptrs := make([]*order.Order, len(orders))
	for i := range orders {
		ptrs[i] = &orders[i]
	}
	if err := loadItems(ctx, work, ptrs); err != nil {
		return nil, err
	}

	return orders, nil
}

// resolveItems prices lines from the menu.
func (s *OrderService) resolveItems(
	ctx context.Context,
	work iuow.UnitOfWork,
	items []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	lines := make([]orderitem.OrderItem, 0, len(items))
	for _, item := range items {
		if item.MenuItemID == "" {
			return nil, orderitem.ErrMissingMenuItem
		}
		m, err := work.MenuItemRepository().Get(ctx, item.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", item.MenuItemID, err)
		}
		item.Name = m.Name
		item.PriceCents = m.PriceCents
		if err := item.Validate(); err != nil {
			return nil, err
		}
		lines = append(lines, item)
	}

	return lines, nil
}

func loadItems(ctx context.Context, work iuow.UnitOfWork, orders []*order.Order) error {
	filter := &orderitem.QueryOrderItemsModel{}
	for _, o := range orders {
		filter.OrderIDs = append(filter.OrderIDs, o.ID)
	}
	items, err := work.OrderItemRepository().Query(ctx, filter)
	if err != nil {
		return err
	}

	for _, o := range orders {
		o.Items = []orderitem.OrderItem{}
		for _, item := range items {
			if item.OrderID == o.ID {
				o.Items = append(o.Items, item)
			}
		}
	}

	return nil
}

func requireStaff(sess session.Session) error {
	return sess.Require(session.RoleWaiter, session.RoleCashier, session.RoleKitchen, session.RoleAdmin)
}
