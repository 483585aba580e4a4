package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/pos/internal/dal/postgres"
	"github.com/corray333/backend-labs/pos/internal/service/models/currency"
	"github.com/corray333/backend-labs/pos/internal/service/models/menuitem"
	"github.com/jackc/pgx/v5"
)

var menuColumns = []string{
	"id",
	"name",
	"description",
	"price_cents",
	"currency",
	"category",
	"image_url",
	"created_at",
	"updated_at",
}

// MenuItemDal represents the menu_items row.
type MenuItemDal struct {
	Id          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	PriceCents  int64     `db:"price_cents"`
	Currency    string    `db:"currency"`
	Category    string    `db:"category"`
	ImageUrl    string    `db:"image_url"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (m *MenuItemDal) ToModel() (*menuitem.MenuItem, error) {
	cur, err := currency.ParseCurrency(m.Currency)
	if err != nil {
		return nil, err
	}
	category, err := menuitem.ParseCategory(m.Category)
	if err != nil {
		return nil, err
	}

	return &menuitem.MenuItem{
		ID:          m.Id,
		Name:        m.Name,
		Description: m.Description,
		PriceCents:  m.PriceCents,
		Currency:    cur,
		Category:    category,
		ImageURL:    m.ImageUrl,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

// PostgresMenuItemRepository is the menu catalog.
type PostgresMenuItemRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

func NewPostgresMenuItemRepository(conn postgres.GenericConn) *PostgresMenuItemRepository {
	return &PostgresMenuItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *PostgresMenuItemRepository) Create(ctx context.Context, m menuitem.MenuItem) error {
	sql, args, err := r.sb.Insert("menu_items").
		Columns(menuColumns...).
		Values(
			m.ID,
			m.Name,
			m.Description,
			m.PriceCents,
			m.Currency.String(),
			m.Category.String(),
			m.ImageURL,
			m.CreatedAt,
			m.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to insert menu item: %w", err)
	}

	return nil
}

func (r *PostgresMenuItemRepository) Get(ctx context.Context, id string) (*menuitem.MenuItem, error) {
	if !postgres.IsUUID(id) {
		return nil, menuitem.ErrMenuItemNotFound
	}

	sql, args, err := r.sb.Select(menuColumns...).From("menu_items").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var dal MenuItemDal
	err = scanMenuItem(r.conn.QueryRow(ctx, sql, args...), &dal)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, menuitem.ErrMenuItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan menu item: %w", err)
	}

	return dal.ToModel()
}

func (r *PostgresMenuItemRepository) List(ctx context.Context, category menuitem.Category) ([]menuitem.MenuItem, error) {
	query := r.sb.Select(menuColumns...).From("menu_items")
	if category != "" {
		query = query.Where(sq.Eq{"category": category.String()})
	}

	sql, args, err := query.OrderBy("category", "name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	result := []menuitem.MenuItem{}
	for rows.Next() {
		var dal MenuItemDal
		if err := scanMenuItem(rows, &dal); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
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

func (r *PostgresMenuItemRepository) Update(ctx context.Context, m menuitem.MenuItem) error {
	if !postgres.IsUUID(m.ID) {
		return menuitem.ErrMenuItemNotFound
	}

	sql, args, err := r.sb.Update("menu_items").
		Set("name", m.Name).
		Set("description", m.Description).
		Set("price_cents", m.PriceCents).
		Set("currency", m.Currency.String()).
		Set("category", m.Category.String()).
		Set("image_url", m.ImageURL).
		Set("updated_at", m.UpdatedAt).
		Where(sq.Eq{"id": m.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to update menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return menuitem.ErrMenuItemNotFound
	}

	return nil
}

func (r *PostgresMenuItemRepository) Delete(ctx context.Context, id string) error {
	if !postgres.IsUUID(id) {
		return menuitem.ErrMenuItemNotFound
	}

	sql, args, err := r.sb.Delete("menu_items").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return menuitem.ErrMenuItemNotFound
	}

	return nil
}

func scanMenuItem(row pgx.Row, dal *MenuItemDal) error {
	return row.Scan(
		&dal.Id,
		&dal.Name,
		&dal.Description,
		&dal.PriceCents,
		&dal.Currency,
		&dal.Category,
		&dal.ImageUrl,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
}
