package middleware

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimit allows r requests per second with bursts of b through next and
// answers 429 to the rest.  The limit is shared by every client; it guards
// the in-memory form-session table rather than individual callers.  r <= 0
// disables the limiter.
func RateLimit(r rate.Limit, b int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if r <= 0 {
			return next
		}
		if b < 1 {
			b = 1
		}
		limiter := rate.NewLimiter(r, b)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				zap.S().Warnw("rate limit exceeded", "path", req.URL.Path, "remote", req.RemoteAddr)
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}
