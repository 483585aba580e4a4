package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/backend-labs/pos/internal/dal/postgres"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/service/models/user"
	"github.com/jackc/pgx/v5"
)

// UserRepository implements the user repository for PostgreSQL.
type UserRepository struct {
	client *postgres.Client
	sb     sq.StatementBuilderType
}

// NewUserRepository creates a new user repository.
func NewUserRepository(client *postgres.Client) *UserRepository {
	return &UserRepository{
		client: client,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *UserRepository) Create(ctx context.Context, u user.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("id", "email", "password_hash", "role", "created_at").
		Values(u.ID, u.Email, u.PasswordHash, u.Role.String(), u.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.client.Pool().Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return user.ErrEmailTaken
		}

		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getBy(ctx, sq.Expr("lower(email) = lower(?)", email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	if !postgres.IsUUID(id) {
		return nil, user.ErrUserNotFound
	}

	return r.getBy(ctx, sq.Eq{"id": id})
}

func (r *UserRepository) getBy(ctx context.Context, where sq.Sqlizer) (*user.User, error) {
	sql, args, err := r.sb.Select("id", "email", "password_hash", "role", "created_at").
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var (
		u    user.User
		role string
	)
	err = r.client.Pool().QueryRow(ctx, sql, args...).Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Role, err = session.ParseRole(role)
	if err != nil {
		return nil, err
	}

	return &u, nil
}
