package isessionrepo

import (
	"context"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/session"
)

// ISessionRepository keeps login sessions keyed by token.
type ISessionRepository interface {
	Save(ctx context.Context, s session.Session, ttl time.Duration) error
	// Get returns session.ErrUnauthenticated for unknown or expired tokens.
	Get(ctx context.Context, token string) (*session.Session, error)
	Delete(ctx context.Context, token string) error
}
