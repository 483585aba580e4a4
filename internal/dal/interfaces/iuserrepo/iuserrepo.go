package iuserrepo

import (
	"context"

	"github.com/corray333/backend-labs/pos/internal/service/models/user"
)

type IUserRepository interface {
	// Create fails with user.ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, u user.User) error
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
}
