package session_test

import (
	"testing"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/stretchr/testify/assert"
)

func TestSession_Require(t *testing.T) {
	waiter := session.Session{UserID: "u1", Role: session.RoleWaiter}

	assert.NoError(t, waiter.Require(session.RoleWaiter, session.RoleAdmin))
	assert.ErrorIs(t, waiter.Require(session.RoleKitchen), session.ErrForbidden)
	assert.ErrorIs(t, session.Session{}.Require(session.RoleWaiter), session.ErrUnauthenticated)
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	assert.False(t, session.Session{}.Expired(now))
	assert.True(t, session.Session{ExpiresAt: now}.Expired(now))
	assert.False(t, session.Session{ExpiresAt: now.Add(time.Minute)}.Expired(now))
}

func TestParseRole(t *testing.T) {
	r, err := session.ParseRole("kitchen")
	assert.NoError(t, err)
	assert.Equal(t, "/kitchen", r.HomePath())

	_, err = session.ParseRole("chef")
	assert.ErrorIs(t, err, session.ErrInvalidRole)
}
