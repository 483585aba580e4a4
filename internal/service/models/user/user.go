package user

import (
	"errors"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/session"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is a staff account.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Role         session.Role `json:"role"`
	CreatedAt    time.Time    `json:"createdAt"`
}
