package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/session"
)

// SessionStore keeps sessions in process memory.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]session.Session
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: map[string]session.Session{},
		now:      time.Now,
	}
}

func (s *SessionStore) Save(_ context.Context, sess session.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.ExpiresAt.IsZero() && ttl > 0 {
		sess.ExpiresAt = s.now().Add(ttl)
	}
	s.sessions[sess.Token] = sess

	return nil
}

func (s *SessionStore) Get(_ context.Context, token string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, session.ErrUnauthenticated
	}
	if sess.Expired(s.now()) {
		delete(s.sessions, token)

		return nil, session.ErrUnauthenticated
	}

	return &sess, nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)

	return nil
}

// ClaimStore hands out claims within a single process.
type ClaimStore struct {
	mu     sync.Mutex
	claims map[string]time.Time
	now    func() time.Time
}

func NewClaimStore() *ClaimStore {
	return &ClaimStore{
		claims: map[string]time.Time{},
		now:    time.Now,
	}
}

func (c *ClaimStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if exp, ok := c.claims[key]; ok && (ttl <= 0 || now.Before(exp)) {
		return false, nil
	}
	c.claims[key] = now.Add(ttl)

	return true, nil
}
