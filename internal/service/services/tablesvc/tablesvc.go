package tablesvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iuow"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/service/models/table"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("tablesvc")

// TableService is the table registry.
type TableService struct {
	newUOW iuow.Factory
	now    func() time.Time
}

// option is a function that configures the TableService.
type option func(*TableService)

// MustNewTableService creates a new TableService.
func MustNewTableService(opts ...option) *TableService {
	s := &TableService{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.newUOW == nil {
		panic("tablesvc: unit of work factory is required")
	}

	return s
}

// WithUnitOfWork sets the unit of work factory for the TableService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(f iuow.Factory) option {
	return func(s *TableService) {
		s.newUOW = f
	}
}

// WithClock sets the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *TableService) {
		s.now = now
	}
}

// CreateTable registers a new available table.
func (s *TableService) CreateTable(ctx context.Context, sess session.Session, id string) (*table.Table, error) {
	ctx, span := tracer.Start(ctx, "TableService.CreateTable")
	defer span.End()

	if err := sess.Require(session.RoleAdmin); err != nil {
		return nil, err
	}

	t, err := table.New(id, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.newUOW().TableRepository().Create(ctx, t); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Table created", "table_id", t.ID)

	return &t, nil
}

// ListTables returns every table.
func (s *TableService) ListTables(ctx context.Context, sess session.Session) ([]table.Table, error) {
	ctx, span := tracer.Start(ctx, "TableService.ListTables")
	defer span.End()

	if err := requireStaff(sess); err != nil {
		return nil, err
	}

	return s.newUOW().TableRepository().List(ctx)
}

// GetTable returns one table.
func (s *TableService) GetTable(ctx context.Context, sess session.Session, id string) (*table.Table, error) {
	ctx, span := tracer.Start(ctx, "TableService.GetTable")
	defer span.End()

	if err := requireStaff(sess); err != nil {
		return nil, err
	}

	return s.newUOW().TableRepository().Get(ctx, id)
}

// ScanTable resolves a scanned QR payload to its table. The caller decides
// from the returned status whether a new order can be opened.
func (s *TableService) ScanTable(ctx context.Context, sess session.Session, payload string) (*table.Table, error) {
	ctx, span := tracer.Start(ctx, "TableService.ScanTable")
	defer span.End()

	if err := sess.Require(session.RoleWaiter, session.RoleAdmin); err != nil {
		return nil, err
	}

	id, err := table.ParseQR(payload)
	if err != nil {
		return nil, err
	}

	return s.newUOW().TableRepository().Get(ctx, id)
}

// Release marks a table available and drops its binding. Releasing an
// available table is a no-op.
func (s *TableService) Release(ctx context.Context, sess session.Session, id string) (*table.Table, error) {
	ctx, span := tracer.Start(ctx, "TableService.Release")
	defer span.End()

	if err := sess.Require(session.RoleAdmin); err != nil {
		return nil, err
	}

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = work.Rollback(ctx) }()

	t, err := work.TableRepository().GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Available() {
		return t, nil
	}

	orderID := t.OrderID
	t.Release(s.now())
	if err := work.TableRepository().Save(ctx, *t); err != nil {
		return nil, fmt.Errorf("failed to release table: %w", err)
	}
	if err := work.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit release: %w", err)
	}

	slog.InfoContext(ctx, "Table released", "table_id", t.ID, "order_id", orderID)

	return t, nil
}

// freeAttempts bounds how often FreeTable retries when the table is bound to
// another order between reading it and locking it.
const freeAttempts = 3

var errTableRebound = errors.New("table bound to another order")

// FreeTable clears an occupied table: its open order is deleted and the
// table becomes available again.
func (s *TableService) FreeTable(ctx context.Context, sess session.Session, id string) (*table.Table, error) {
	ctx, span := tracer.Start(ctx, "TableService.FreeTable")
	defer span.End()

	if err := sess.Require(session.RoleWaiter, session.RoleAdmin); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		t, err := s.free(ctx, sess, id)
		if errors.Is(err, errTableRebound) && attempt < freeAttempts {
			slog.DebugContext(ctx, "Table rebound while freeing, retrying", "table_id", id, "attempt", attempt)

			continue
		}
		if errors.Is(err, errTableRebound) {
			return nil, fmt.Errorf("%w: %s changed while freeing", table.ErrTableUnavailable, id)
		}

		return t, err
	}
}

// free locks the order before the table, the same order AddItem and Archive
// take their locks in.
func (s *TableService) free(ctx context.Context, sess session.Session, id string) (*table.Table, error) {
	current, err := s.newUOW().TableRepository().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Available() {
		return nil, fmt.Errorf("%w: %s", table.ErrTableAlreadyAvailable, current.ID)
	}
	orderID := current.OrderID

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = work.Rollback(ctx) }()

	if _, err := work.OrderRepository().GetForUpdate(ctx, orderID); err != nil && !errors.Is(err, order.ErrOrderNotFound) {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	t, err := work.TableRepository().GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Available() {
		return nil, fmt.Errorf("%w: %s", table.ErrTableAlreadyAvailable, t.ID)
	}
	if !t.BoundTo(orderID) {
		return nil, errTableRebound
	}

	now := s.now()
	deleted, err := work.OrderRepository().Delete(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete order: %w", err)
	}
	if _, err := work.TableRepository().ReleaseByOrder(ctx, orderID, now); err != nil {
		return nil, fmt.Errorf("failed to release table: %w", err)
	}
	if err := work.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit free: %w", err)
	}

	slog.InfoContext(ctx, "Table freed",
		"table_id", t.ID,
		"order_id", orderID,
		"order_deleted", deleted,
		"user_id", sess.UserID,
	)
	t.Release(now)

	return t, nil
}

func requireStaff(sess session.Session) error {
	return sess.Require(session.RoleWaiter, session.RoleCashier, session.RoleKitchen, session.RoleAdmin)
}
