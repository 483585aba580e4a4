package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/pos/internal/dal/postgres"
	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/corray333/backend-labs/pos/internal/service/models/order"
	"github.com/jackc/pgx/v5"
)

var orderColumns = []string{"id", "table_id", "total_cents", "currency", "status", "created_at", "updated_at"}

// OrderDal represents order data access layer model.
type OrderDal struct {
	Id         string    `db:"id"`
	TableId    string    `db:"table_id"`
	TotalCents int64     `db:"total_cents"`
	Currency   string    `db:"currency"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// ToModel converts OrderDal to service layer Order model. Items are loaded separately.
func (o *OrderDal) ToModel() (*order.Order, error) {
	cur, err := currency.ParseCurrency(o.Currency)
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return nil, err
	}

	return &order.Order{
		ID:         o.Id,
		TableID:    o.TableId,
		TotalCents: o.TotalCents,
		Currency:   cur,
		Status:     status,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}, nil
}

// OrderDalFromModel converts service layer Order model to OrderDal.
func OrderDalFromModel(o *order.Order) *OrderDal {
	return &OrderDal{
		Id:         o.ID,
		TableId:    o.TableID,
		TotalCents: o.TotalCents,
		Currency:   o.Currency.String(),
		Status:     o.Status.String(),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

type PostgresOrderRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresOrderRepository(conn postgres.GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert inserts the order header.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) error {
	dal := OrderDalFromModel(&o)
	sql, args, err := r.sb.Insert("orders").
		Columns(orderColumns...).
		Values(dal.Id, dal.TableId, dal.TotalCents, dal.Currency, dal.Status, dal.CreatedAt, dal.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

func (r *PostgresOrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate locks the order row; concurrent item additions queue behind it.
func (r *PostgresOrderRepository) GetForUpdate(ctx context.Context, id string) (*order.Order, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *PostgresOrderRepository) get(ctx context.Context, id, suffix string) (*order.Order, error) {
	if !postgres.IsUUID(id) {
		return nil, order.ErrOrderNotFound
	}

	query := r.sb.Select(orderColumns...).From("orders").Where(sq.Eq{"id": id})
	if suffix != "" {
		query = query.Suffix(suffix)
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var dal OrderDal
	err = scanOrder(r.conn.QueryRow(ctx, sql, args...), &dal)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	return dal.ToModel()
}

// Query retrieves orders based on filter criteria, oldest first.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	query := r.sb.Select(orderColumns...).From("orders")

	if len(filter.IDs) > 0 {
		ids := postgres.UUIDs(filter.IDs)
		if len(ids) == 0 {
			return []order.Order{}, nil
		}
		query = query.Where(sq.Eq{"id": ids})
	}

	if len(filter.TableIDs) > 0 {
		query = query.Where(sq.Eq{"table_id": filter.TableIDs})
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = s.String()
		}
		query = query.Where(sq.Eq{"status": statuses})
	}

	query = query.OrderBy("created_at ASC", "id ASC")

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
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	result := []order.Order{}
	for rows.Next() {
		var dal OrderDal
		if err := scanOrder(rows, &dal); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func (r *PostgresOrderRepository) UpdateTotal(ctx context.Context, id string, totalCents int64, updatedAt time.Time) error {
	return r.update(ctx, id, map[string]any{"total_cents": totalCents, "updated_at": updatedAt})
}

func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status, updatedAt time.Time) error {
	return r.update(ctx, id, map[string]any{"status": status.String(), "updated_at": updatedAt})
}

func (r *PostgresOrderRepository) update(ctx context.Context, id string, set map[string]any) error {
	if !postgres.IsUUID(id) {
		return order.ErrOrderNotFound
	}

	sql, args, err := r.sb.Update("orders").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrOrderNotFound
	}

	return nil
}

// Delete removes the order; its items go with it through ON DELETE CASCADE.
func (r *PostgresOrderRepository) Delete(ctx context.Context, id string) (bool, error) {
	if !postgres.IsUUID(id) {
		return false, nil
	}

	sql, args, err := r.sb.Delete("orders").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete order: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func scanOrder(row pgx.Row, dal *OrderDal) error {
	return row.Scan(
		&dal.Id,
		&dal.TableId,
		&dal.TotalCents,
		&dal.Currency,
		&dal.Status,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
}
