package postgresrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/pos/internal/dal/postgres"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/pos/internal/service/models/table"
	"github.com/jackc/pgx/v5"
)

var tableColumns = []string{"id", "status", "order_id", "order_items", "updated_at"}

// TableDal represents the tables row.
type TableDal struct {
	Id         string    `db:"id"`
	Status     string    `db:"status"`
	OrderId    *string   `db:"order_id"`
	OrderItems []byte    `db:"order_items"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// ToModel converts TableDal to the service layer Table model.
func (t *TableDal) ToModel() (*table.Table, error) {
	items := []orderitem.OrderItem{}
	if len(t.OrderItems) > 0 {
		if err := json.Unmarshal(t.OrderItems, &items); err != nil {
			return nil, fmt.Errorf("failed to decode table order items: %w", err)
		}
	}
	model := &table.Table{
		ID:         t.Id,
		Status:     table.Status(t.Status),
		OrderItems: items,
		UpdatedAt:  t.UpdatedAt,
	}
	if t.OrderId != nil {
		model.OrderID = *t.OrderId
	}

	return model, nil
}

// TableDalFromModel converts the service layer Table model to TableDal.
func TableDalFromModel(t *table.Table) (*TableDal, error) {
	items := t.OrderItems
	if items == nil {
		items = []orderitem.OrderItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode table order items: %w", err)
	}
	dal := &TableDal{
		Id:         t.ID,
		Status:     t.Status.String(),
		OrderItems: raw,
		UpdatedAt:  t.UpdatedAt,
	}
	if t.OrderID != "" {
		dal.OrderId = &t.OrderID
	}

	return dal, nil
}

// PostgresTableRepository is the Postgres table registry.
type PostgresTableRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresTableRepository creates a new Postgres table repository.
func NewPostgresTableRepository(conn postgres.GenericConn) *PostgresTableRepository {
	return &PostgresTableRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresTableRepository) Create(ctx context.Context, t table.Table) error {
	dal, err := TableDalFromModel(&t)
	if err != nil {
		return err
	}
	sql, args, err := r.sb.Insert("tables").
		Columns(tableColumns...).
		Values(dal.Id, dal.Status, dal.OrderId, dal.OrderItems, dal.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return table.ErrTableExists
		}

		return fmt.Errorf("failed to insert table: %w", err)
	}

	return nil
}

func (r *PostgresTableRepository) Get(ctx context.Context, id string) (*table.Table, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *PostgresTableRepository) GetForUpdate(ctx context.Context, id string) (*table.Table, error) {
	return r.get(ctx, id, "FOR UPDATE")
}

func (r *PostgresTableRepository) get(ctx context.Context, id, suffix string) (*table.Table, error) {
	query := r.sb.Select(tableColumns...).From("tables").Where(sq.Eq{"id": id})
	if suffix != "" {
		query = query.Suffix(suffix)
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	dal, err := scanTable(r.conn.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, table.ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}

	return dal.ToModel()
}

func (r *PostgresTableRepository) List(ctx context.Context) ([]table.Table, error) {
	sql, args, err := r.sb.Select(tableColumns...).
		From("tables").
		OrderBy("length(id)", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	result := []table.Table{}
	for rows.Next() {
		dal, err := scanTable(rows)
		if err != nil {
			return nil, err
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

func (r *PostgresTableRepository) Save(ctx context.Context, t table.Table) error {
	dal, err := TableDalFromModel(&t)
	if err != nil {
		return err
	}
	sql, args, err := r.sb.Update("tables").
		Set("status", dal.Status).
		Set("order_id", dal.OrderId).
		Set("order_items", dal.OrderItems).
		Set("updated_at", dal.UpdatedAt).
		Where(sq.Eq{"id": dal.Id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return table.ErrTableNotFound
	}

	return nil
}

func (r *PostgresTableRepository) RefreshItems(
	ctx context.Context,
	orderID string,
	items []orderitem.OrderItem,
	now time.Time,
) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode table order items: %w", err)
	}
	sql, args, err := r.sb.Update("tables").
		Set("order_items", raw).
		Set("updated_at", now).
		Where(sq.Eq{"order_id": orderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to refresh table items: %w", err)
	}

	return nil
}

func (r *PostgresTableRepository) ReleaseByOrder(ctx context.Context, orderID string, now time.Time) (int64, error) {
	return r.release(ctx, sq.Eq{"order_id": orderID}, now)
}

func (r *PostgresTableRepository) ReleaseOrphaned(ctx context.Context, now time.Time) (int64, error) {
	return r.release(ctx, sq.And{
		sq.NotEq{"order_id": nil},
		sq.Expr("NOT EXISTS (SELECT 1 FROM orders o WHERE o.id = tables.order_id)"),
	}, now)
}

func (r *PostgresTableRepository) release(ctx context.Context, where sq.Sqlizer, now time.Time) (int64, error) {
	sql, args, err := r.sb.Update("tables").
		Set("status", table.StatusAvailable.String()).
		Set("order_id", nil).
		Set("order_items", []byte("[]")).
		Set("updated_at", now).
		Where(where).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build release query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to release tables: %w", err)
	}

	return tag.RowsAffected(), nil
}

func scanTable(row pgx.Row) (*TableDal, error) {
	var dal TableDal
	err := row.Scan(&dal.Id, &dal.Status, &dal.OrderId, &dal.OrderItems, &dal.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("failed to scan table: %w", err)
	}

	return &dal, nil
}
