package session

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden for role")
	ErrInvalidRole     = errors.New("invalid role")
)

// Role decides which operations a session may perform.
type Role string

const (
	RoleWaiter  Role = "waiter"
	RoleCashier Role = "cashier"
	RoleKitchen Role = "kitchen"
	RoleAdmin   Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

// ParseRole parses a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleWaiter, RoleCashier, RoleKitchen, RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// HomePath is the screen a role lands on after login.
func (r Role) HomePath() string {
	switch r {
	case RoleWaiter:
		return "/tables"
	case RoleCashier:
		return "/cashier"
	case RoleKitchen:
		return "/kitchen"
	case RoleAdmin:
		return "/admin"
	default:
		return "/login"
	}
}

// Session is the authenticated caller. It is resolved once at login and
// passed by value to every operation.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Require fails unless the session holds one of roles.
func (s Session) Require(roles ...Role) error {
	if s.UserID == "" {
		return ErrUnauthenticated
	}
	if slices.Contains(roles, s.Role) {
		return nil
	}

	return fmt.Errorf("%w %s", ErrForbidden, s.Role)
}
