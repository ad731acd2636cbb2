package debug

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/impact/internal/config"
	"github.com/yanizio/impact/internal/module"
	"github.com/yanizio/impact/internal/requestinfo"
)

func TestRegisteredPaths(t *testing.T) {
	r := chi.NewRouter()
	module.Mount(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Fatalf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestDebugHidesSecrets(t *testing.T) {
	cfg := &config.Config{
		API:   config.API{BaseURL: "http://localhost:4000", Timeout: time.Second, Token: "s3cret"},
		Draft: config.Draft{Backend: "redis"},
		Redis: config.Redis{Password: "hunter2"},
	}
	rec := httptest.NewRecorder()
	handler(cfg, rec, httptest.NewRequest(http.MethodGet, "/debug?x=1", nil))

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	c, _ := out["config"].(map[string]any)
	if c["draft_backend"] != "redis" || out["query"] != "x=1" || out["user"] != "anon" {
		t.Fatalf("debug = %v", out)
	}
	body := rec.Body.String()
	for _, secret := range []string{"s3cret", "hunter2"} {
		if strings.Contains(body, secret) {
			t.Fatalf("debug output leaks %q", secret)
		}
	}
}

func TestDebugEchoesRequestInfo(t *testing.T) {
	info := &requestinfo.Info{Lang: "en", Geo: requestinfo.Geo{IP: "192.0.2.1", CountryISO: "US"}}
	req := httptest.NewRequest(http.MethodGet, "/debug", nil)
	req = req.WithContext(requestinfo.WithInfo(req.Context(), info))
	rec := httptest.NewRecorder()
	handler(nil, rec, req)

	var out struct {
		Request requestinfo.Info `json:"request"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Request.Geo.CountryISO != "US" || out.Request.Lang != "en" {
		t.Fatalf("request = %+v", out.Request)
	}
}
