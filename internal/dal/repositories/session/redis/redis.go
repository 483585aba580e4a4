package redisrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/corray333/backend-labs/pos/internal/dal/redis"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	goredis "github.com/redis/go-redis/v9"
)

const sessionOperation = "session"

// SessionRepository stores sessions as JSON values that expire with the session.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{
		client: client,
	}
}

func (r *SessionRepository) Save(ctx context.Context, s session.Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	key := r.client.Key(sessionOperation, s.Token)
	if err := r.client.Redis().Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (r *SessionRepository) Get(ctx context.Context, token string) (*session.Session, error) {
	raw, err := r.client.Redis().Get(ctx, r.client.Key(sessionOperation, token)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, session.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var s session.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if s.Expired(time.Now()) {
		return nil, session.ErrUnauthenticated
	}

	return &s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	if err := r.client.Redis().Del(ctx, r.client.Key(sessionOperation, token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}
