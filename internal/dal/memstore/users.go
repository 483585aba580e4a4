package memstore

import (
	"context"
	"strings"

	"github.com/corray333/backend-labs/pos/internal/service/models/change"
	"github.com/corray333/backend-labs/pos/internal/service/models/user"
)

// UserRepository is the in-memory staff directory.
type UserRepository struct {
	tx *txn
}

func (r *UserRepository) Create(_ context.Context, u user.User) error {
	return r.tx.update(func(d *data) ([]change.Change, error) {
		for _, existing := range d.users {
			if strings.EqualFold(existing.Email, u.Email) {
				return nil, user.ErrEmailTaken
			}
		}
		d.users[u.ID] = u

		return nil, nil
	})
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	var out *user.User
	err := r.tx.view(func(d *data) error {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, email) {
				out = &u

				return nil
			}
		}

		return user.ErrUserNotFound
	})

	return out, err
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*user.User, error) {
	var out user.User
	err := r.tx.view(func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return user.ErrUserNotFound
		}
		out = u

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}
