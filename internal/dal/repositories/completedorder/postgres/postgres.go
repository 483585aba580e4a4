package postgresrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/pos/internal/dal/postgres"
	"github.com/corray333/backend-labs/pos/internal/service/models/completedorder"
	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/jackc/pgx/v5"
)

var completedColumns = []string{
	"id",
	"order_id",
	"table_id",
	"items",
	"total_cents",
	"currency",
	"payment_method",
	"ordered_at",
	"completed_at",
}

// CompletedOrderDal represents the completed_orders row.
type CompletedOrderDal struct {
	Id            string    `db:"id"`
	OrderId       string    `db:"order_id"`
	TableId       string    `db:"table_id"`
	Items         []byte    `db:"items"`
	TotalCents    int64     `db:"total_cents"`
	Currency      string    `db:"currency"`
	PaymentMethod string    `db:"payment_method"`
	OrderedAt     time.Time `db:"ordered_at"`
	CompletedAt   time.Time `db:"completed_at"`
}

func (c *CompletedOrderDal) ToModel() (*completedorder.CompletedOrder, error) {
	cur, err := currency.ParseCurrency(c.Currency)
	if err != nil {
		return nil, err
	}
	method, err := completedorder.ParsePaymentMethod(c.PaymentMethod)
	if err != nil {
		return nil, err
	}
	var items []orderitem.OrderItem
	if err := json.Unmarshal(c.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to decode completed order items: %w", err)
	}

	return &completedorder.CompletedOrder{
		ID:            c.Id,
		OrderID:       c.OrderId,
		TableID:       c.TableId,
		Items:         items,
		TotalCents:    c.TotalCents,
		Currency:      cur,
		PaymentMethod: method,
		OrderedAt:     c.OrderedAt,
		CompletedAt:   c.CompletedAt,
	}, nil
}

// PostgresCompletedOrderRepository stores archived sales.
type PostgresCompletedOrderRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresCompletedOrderRepository(conn postgres.GenericConn) *PostgresCompletedOrderRepository {
	return &PostgresCompletedOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert relies on the unique order_id to refuse a second archive.
func (r *PostgresCompletedOrderRepository) Insert(ctx context.Context, c completedorder.CompletedOrder) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("failed to encode completed order items: %w", err)
	}
	sql, args, err := r.sb.Insert("completed_orders").
		Columns(completedColumns...).
		Values(
			c.ID,
			c.OrderID,
			c.TableID,
			items,
			c.TotalCents,
			c.Currency.String(),
			c.PaymentMethod.String(),
			c.OrderedAt,
			c.CompletedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return completedorder.ErrAlreadyArchived
		}

		return fmt.Errorf("failed to insert completed order: %w", err)
	}

	return nil
}

func (r *PostgresCompletedOrderRepository) GetByOrderID(
	ctx context.Context,
	orderID string,
) (*completedorder.CompletedOrder, error) {
	if !postgres.IsUUID(orderID) {
		return nil, completedorder.ErrCompletedNotFound
	}

	sql, args, err := r.sb.Select(completedColumns...).
		From("completed_orders").
		Where(sq.Eq{"order_id": orderID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var dal CompletedOrderDal
	err = scanCompleted(r.conn.QueryRow(ctx, sql, args...), &dal)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, completedorder.ErrCompletedNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan completed order: %w", err)
	}

	return dal.ToModel()
}

// Query returns sales, newest first.
func (r *PostgresCompletedOrderRepository) Query(
	ctx context.Context,
	filter *completedorder.QueryCompletedOrdersModel,
) ([]completedorder.CompletedOrder, error) {
	query := r.sb.Select(completedColumns...).From("completed_orders")

	if !filter.From.IsZero() {
		query = query.Where(sq.GtOrEq{"completed_at": filter.From})
	}

	if !filter.To.IsZero() {
		query = query.Where(sq.Lt{"completed_at": filter.To})
	}

	query = query.OrderBy("completed_at DESC")

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed orders: %w", err)
	}
	defer rows.Close()

	result := []completedorder.CompletedOrder{}
	for rows.Next() {
		var dal CompletedOrderDal
		if err := scanCompleted(rows, &dal); err != nil {
			return nil, fmt.Errorf("failed to scan completed order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, err
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func scanCompleted(row pgx.Row, dal *CompletedOrderDal) error {
	return row.Scan(
		&dal.Id,
		&dal.OrderId,
		&dal.TableId,
		&dal.Items,
		&dal.TotalCents,
		&dal.Currency,
		&dal.PaymentMethod,
		&dal.OrderedAt,
		&dal.CompletedAt,
	)
}
