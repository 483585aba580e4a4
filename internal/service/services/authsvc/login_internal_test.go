package authsvc

import (
	"context"
	"testing"

	"github.com/corray333/backend-labs/pos/internal/dal/memstore"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/service/models/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLogin_UnknownEmailStillComparesPassword(t *testing.T) {
	ctx := context.Background()
	s := MustNewAuthService(
		WithUserRepository(memstore.New().UserRepository()),
		WithSessionRepository(memstore.NewSessionStore()),
		WithBcryptCost(bcrypt.MinCost),
	)
	require.NoError(t, s.EnsureAdmin(ctx, "admin@example.com", "correct-horse"))

	var hashes [][]byte
	s.compare = func(hash, password []byte) error {
		hashes = append(hashes, hash)

		return bcrypt.CompareHashAndPassword(hash, password)
	}

	tests := []struct {
		name  string
		email string
	}{
		{name: "unknown email", email: "nobody@example.com"},
		{name: "wrong password", email: "admin@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashes = nil
			_, err := s.Login(ctx, tt.email, "wrong-password")
			require.ErrorIs(t, err, user.ErrInvalidCredentials)
			assert.Len(t, hashes, 1)
		})
	}

	hashes = nil
	sess, err := s.Login(ctx, "admin@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, session.RoleAdmin, sess.Role)
	assert.Len(t, hashes, 1)
	assert.NotEqual(t, s.unknownHash, hashes[0])
}
