package rbac

import (
	"log/slog"
	"net/http"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
	"github.com/meridian-hq/meridian/internal/shared"
)

// Middleware wires authorization helpers for HTTP handlers. Permissions are
// resolved from the static capability table using the session role.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAuth ensures the request carries an authenticated session.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.UserID() == "" {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAny ensures the current user's role grants at least one of the
// required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.UserID() == "" {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			role := sess.Role()
			if !Known(role) {
				if m.Logger != nil {
					m.Logger.Warn("unknown role in session", slog.String("role", role))
				}
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			for _, p := range perms {
				if Has(role, p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.RespondError(w, httpx.ErrForbidden)
		})
	}
}

// RequireAll ensures the current user's role grants every required permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.UserID() == "" {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			role := sess.Role()
			for _, p := range perms {
				if !Has(role, p) {
					httpx.RespondError(w, httpx.ErrForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
