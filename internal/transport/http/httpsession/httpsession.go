package httpsession

import (
	"context"
	"net/http"
	"strings"

	"github.com/corray333/backend-labs/pos/internal/service/models/session"
	"github.com/corray333/backend-labs/pos/internal/transport/http/httpio"
)

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*session.Session, error)
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s session.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// From returns the session of the request, or the zero session.
func From(ctx context.Context) session.Session {
	s, _ := ctx.Value(ctxKey{}).(session.Session)

	return s
}

// Token reads the bearer token. Event streams cannot set headers, so the
// token query parameter is accepted too.
func Token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if ok {
			return strings.TrimSpace(token)
		}
	}

	return r.URL.Query().Get("token")
}

// Middleware resolves the session of every request and rejects requests
// without a valid one.
func Middleware(auth authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := auth.Authenticate(r.Context(), Token(r))
			if err != nil {
				httpio.Error(w, r, "authenticate", err)

				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), *sess)))
		})
	}
}
