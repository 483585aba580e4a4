package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/pos/internal/dal/postgres"
	"github.com/corray333/backend-labs/pos/internal/service/models/orderitem"
)

// OrderItemDal represents the order_items row.
type OrderItemDal struct {
	OrderId    string `db:"order_id"`
	MenuItemId string `db:"menu_item_id"`
	Name       string `db:"name"`
	Quantity   int    `db:"quantity"`
	PriceCents int64  `db:"price_cents"`
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (oi *OrderItemDal) ToModel() orderitem.OrderItem {
	return orderitem.OrderItem{
		OrderID:    oi.OrderId,
		MenuItemID: oi.MenuItemId,
		Name:       oi.Name,
		Quantity:   oi.Quantity,
		PriceCents: oi.PriceCents,
	}
}

// PostgresOrderItemRepository represents a Postgres order item repository.
type PostgresOrderItemRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderItemRepository creates a new Postgres order item repository.
func NewPostgresOrderItemRepository(conn postgres.GenericConn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// BulkInsert inserts the lines of a new order. Duplicate menu items are summed.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderID string,
	items []orderitem.OrderItem,
) error {
	if len(items) == 0 {
		return nil
	}

	query := r.sb.Insert("order_items").
		Columns("order_id", "menu_item_id", "name", "quantity", "price_cents")
	for _, item := range orderitem.MergeAll(items) {
		query = query.Values(orderID, item.MenuItemID, item.Name, item.Quantity, item.PriceCents)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to bulk insert order items: %w", err)
	}

	return nil
}

// Upsert adds a line or increases the quantity of an existing one in a
// single statement.
func (r *PostgresOrderItemRepository) Upsert(ctx context.Context, orderID string, item orderitem.OrderItem) error {
	sql, args, err := r.sb.Insert("order_items").
		Columns("order_id", "menu_item_id", "name", "quantity", "price_cents").
		Values(orderID, item.MenuItemID, item.Name, item.Quantity, item.PriceCents).
		Suffix("ON CONFLICT (order_id, menu_item_id) DO UPDATE SET quantity = order_items.quantity + EXCLUDED.quantity").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to upsert order item: %w", err)
	}

	return nil
}

// Query retrieves order items based on filter criteria.
func (r *PostgresOrderItemRepository) Query(
	ctx context.Context,
	filter *orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	query := r.sb.
		Select("order_id", "menu_item_id", "name", "quantity", "price_cents").
		From("order_items")

	if len(filter.OrderIDs) > 0 {
		ids := postgres.UUIDs(filter.OrderIDs)
		if len(ids) == 0 {
			return nil, nil
		}
		query = query.Where(sq.Eq{"order_id": ids})
	}

	if len(filter.MenuItemIDs) > 0 {
		query = query.Where(sq.Eq{"menu_item_id": filter.MenuItemIDs})
	}

	sql, args, err := query.OrderBy("position").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		var dal OrderItemDal
		err := rows.Scan(&dal.OrderId, &dal.MenuItemId, &dal.Name, &dal.Quantity, &dal.PriceCents)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
