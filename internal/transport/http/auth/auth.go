package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/service/models/user"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpio"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpsession"
)

// service is an interface for the service layer.
type service interface {
	Login(ctx context.Context, email, password string) (*session.Session, error)
	Logout(ctx context.Context, sess session.Session) error
	Register(ctx context.Context, sess session.Session, email, password string, role session.Role) (*user.User, error)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	Role      session.Role `json:"role"`
	Home      string       `json:"home"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=waiter cashier kitchen admin"`
}

// Login opens a session and tells the client which screen the role uses.
func Login(w http.ResponseWriter, r *http.Request, service service) {
	var req LoginRequest
	if err := httpio.Decode(r, &req); err != nil {
		httpio.Error(w, r, "login", err)

		return
	}

	sess, err := service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpio.Error(w, r, "login", err)

		return
	}

	httpio.JSON(w, http.StatusOK, LoginResponse{
		Token:     sess.Token,
		Role:      sess.Role,
		Home:      sess.Role.HomePath(),
		ExpiresAt: sess.ExpiresAt,
	})
}

func Logout(w http.ResponseWriter, r *http.Request, service service) {
	if err := service.Logout(r.Context(), httpsession.From(r.Context())); err != nil {
		httpio.Error(w, r, "logout", err)

		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Register creates a staff account.
func Register(w http.ResponseWriter, r *http.Request, service service) {
	var req RegisterRequest
	if err := httpio.Decode(r, &req); err != nil {
		httpio.Error(w, r, "register user", err)

		return
	}

	u, err := service.Register(r.Context(), httpsession.From(r.Context()), req.Email, req.Password, session.Role(req.Role))
	if err != nil {
		httpio.Error(w, r, "register user", err)

		return
	}

	httpio.JSON(w, http.StatusCreated, u)
}
