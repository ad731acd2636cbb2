// modules/debug/debug.go
//
// Operational module: /healthz for load balancers and /debug, which echoes
// the request and the non-secret parts of the running configuration.
package debug

import (
	"encoding/json"
	"net"
	"net/http"
	"runtime"

	"github.com/yanizio/impact/internal/auth"
	"github.com/yanizio/impact/internal/config"
	"github.com/yanizio/impact/internal/module"
	"github.com/yanizio/impact/internal/requestinfo"
)

func init() {
	module.Register("/healthz", health)
	module.Register("/debug", handler)
}

func health(_ *config.Config, w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// handler writes a JSON blob with selected request and config fields.
func handler(cfg *config.Config, w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"host":  r.Host,
		"path":  r.URL.Path,
		"query": r.URL.RawQuery,
		"ip":    clientIP(r),
		"ua":    r.UserAgent(),
		"user":  auth.Scope(r.Context()),
		"go":    runtime.Version(),
	}
	if info := requestinfo.FromContext(r.Context()); info != nil {
		out["request"] = info
	}
	if cfg != nil {
		out["config"] = map[string]any{
			"api":            cfg.API.BaseURL,
			"api_timeout":    cfg.API.Timeout.String(),
			"draft_backend":  cfg.Draft.Backend,
			"draft_interval": cfg.Draft.Interval.String(),
			"force_https":    cfg.HTTP.ForceHTTPS,
			"session_limit":  cfg.HTTP.SessionLimit,
			"rules_file":     cfg.Form.RulesFile,
			"geoip":          cfg.Geo.DBPath != "",
		}
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

// clientIP grabs the remote address without port.
func clientIP(r *http.Request) string {
	h, _, _ := net.SplitHostPort(r.RemoteAddr)
	return h
}
