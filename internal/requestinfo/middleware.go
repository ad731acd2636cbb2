// internal/requestinfo/middleware.go
//
// HTTP middleware that attaches *Info to each request.
//
/*
Context
--------
The handler sits after chi's RealIP and before the session user lookup.
For every request it parses the User-Agent and Accept-Language headers,
picks the client IP, and performs the optional GeoLite2 lookup.  Form
sessions log the device and country when they open, and /debug echoes
the whole value.

At debug level each invocation logs the IP, country, browser, device, bot
flag, and path.
*/
package requestinfo

import (
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/impact/internal/ua"
)

// Middleware wraps next and stores *Info in the request context.
func (e *Enricher) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := e.Build(r)

		zap.S().Debugw("request info",
			"ip", info.Geo.IP,
			"country", info.Geo.CountryISO,
			"browser", info.UA.Browser,
			"device", info.UA.Device,
			"bot", info.UA.IsBot,
			"path", r.URL.Path,
		)

		next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
	})
}

// Build computes Info for r without touching its context.
func (e *Enricher) Build(r *http.Request) *Info {
	ts := time.Now()
	if e.now != nil {
		ts = e.now()
	}
	return &Info{
		UA:        ua.Parse(r.UserAgent()),
		Lang:      primaryLang(r.Header.Get("Accept-Language")),
		Geo:       e.lookup(clientIP(r)),
		Timestamp: ts.UTC(),
	}
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// clientIP takes the left-most parseable address from X-Forwarded-For,
// then X-Real-Ip, then r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(r.RemoteAddr)
}
