// internal/auth/context.go
//
// Request-scoped user helper.  Middleware copies the session email into the
// request context; handlers read it back to scope per-user data such as
// autosaved drafts.
//
// Usage
// -----
//     r.Use(auth.Middleware)
//
//     // Downstream code retrieves the user.
//     email, ok := auth.User(r.Context())
//
// Notes
// -----
// • The identity is whatever internal/session stored; no verification
//   happens here.
// • Oxford commas, two spaces after periods.

package auth

import (
	"context"
	"net/http"

	"github.com/yanizio/impact/internal/session"
)

// Anonymous is the draft scope used when no user is logged in.
const Anonymous = "anon"

// userKey is unexported to avoid context-key collisions.
type userKey struct{}

// WithUser returns a new context carrying the given email.
func WithUser(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, userKey{}, email)
}

// User extracts the email from ctx.  It returns ("", false) if no user is
// set.
func User(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(userKey{}).(string)
	return email, ok && email != ""
}

// Scope returns the user's email, or Anonymous.
func Scope(ctx context.Context) string {
	if email, ok := User(ctx); ok {
		return email
	}
	return Anonymous
}

// Middleware attaches the session user, if any, to the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if email, ok := session.CurrentEmail(r); ok {
			r = r.WithContext(WithUser(r.Context(), email))
		}
		next.ServeHTTP(w, r)
	})
}
