package authsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/isessionrepo"
	"github.com/corray333/backend-labs/pos/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/service/models/user"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced when accounts are registered.
const MinPasswordLength = 8

var (
	ErrWeakPassword = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrInvalidEmail = errors.New("invalid email")
)

var tracer = otel.Tracer("authsvc")

// AuthService signs staff in and resolves sessions.
type AuthService struct {
	users      iuserrepo.IUserRepository
	sessions   isessionrepo.ISessionRepository
	ttl        time.Duration
	now        func() time.Time
	newID      func() string
	bcryptCost int
	compare    func(hash, password []byte) error
	// unknownHash is compared against when the email has no account, so both
	// rejections cost one bcrypt comparison.
	unknownHash []byte
}

// option is a function that configures the AuthService.
type option func(*AuthService)

// MustNewAuthService creates a new AuthService.
func MustNewAuthService(opts ...option) *AuthService {
	s := &AuthService{
		ttl:        12 * time.Hour,
		now:        time.Now,
		newID:      uuid.NewString,
		bcryptCost: bcrypt.DefaultCost,
		compare:    bcrypt.CompareHashAndPassword,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.users == nil || s.sessions == nil {
		panic("authsvc: user and session repositories are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.bcryptCost)
	if err != nil {
		panic(fmt.Sprintf("authsvc: failed to hash placeholder password: %v", err))
	}
	s.unknownHash = hash

	return s
}

// WithUserRepository sets the account store.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUserRepository(repo iuserrepo.IUserRepository) option {
	return func(s *AuthService) {
		s.users = repo
	}
}

// WithSessionRepository sets the session store.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithSessionRepository(repo isessionrepo.ISessionRepository) option {
	return func(s *AuthService) {
		s.sessions = repo
	}
}

// WithSessionTTL sets how long a login stays valid.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithSessionTTL(ttl time.Duration) option {
	return func(s *AuthService) {
		s.ttl = ttl
	}
}

// WithClock sets the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *AuthService) {
		s.now = now
	}
}

// WithBcryptCost sets the password hashing cost.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithBcryptCost(cost int) option {
	return func(s *AuthService) {
		s.bcryptCost = cost
	}
}

// Login checks the credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*session.Session, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, user.ErrUserNotFound) {
		_ = s.compare(s.unknownHash, []byte(password))

		return nil, user.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := s.compare([]byte(u.PasswordHash), []byte(password)); err != nil {
		slog.WarnContext(ctx, "Login rejected", "email", u.Email)

		return nil, user.ErrInvalidCredentials
	}

	now := s.now()
	sess := session.Session{
		Token:     s.newID(),
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, sess, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", u.ID, "role", u.Role)

	return &sess, nil
}

// Authenticate resolves a session token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*session.Session, error) {
	if token == "" {
		return nil, session.ErrUnauthenticated
	}
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		return nil, session.ErrUnauthenticated
	}

	return sess, nil
}

// Logout ends the session.
func (s *AuthService) Logout(ctx context.Context, sess session.Session) error {
	if err := s.sessions.Delete(ctx, sess.Token); err != nil {
		return err
	}
	slog.InfoContext(ctx, "User logged out", "user_id", sess.UserID)

	return nil
}

// Register creates a staff account. Only admins may register accounts.
func (s *AuthService) Register(
	ctx context.Context,
	sess session.Session,
	email, password string,
	role session.Role,
) (*user.User, error) {
	ctx, span := tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	if err := sess.Require(session.RoleAdmin); err != nil {
		return nil, err
	}

	u, err := s.createUser(ctx, email, password, role)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "User registered", "user_id", u.ID, "role", u.Role, "by", sess.UserID)

	return u, nil
}

// EnsureAdmin creates the bootstrap admin account unless the email is
// already registered.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	_, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return err
	}

	u, err := s.createUser(ctx, email, password, session.RoleAdmin)
	if errors.Is(err, user.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Bootstrap admin created", "user_id", u.ID, "email", u.Email)

	return nil
}

func (s *AuthService) createUser(
	ctx context.Context,
	email, password string,
	role session.Role,
) (*user.User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	role, err := session.ParseRole(string(role))
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := user.User{
		ID:           s.newID(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	return &u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
