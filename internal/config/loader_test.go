package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeSecrets map[string]string

func (f fakeSecrets) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := f[ref]
	if !ok {
		return "", errors.New("no such secret " + ref)
	}
	return v, nil
}

func writeRoot(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if yaml != "" {
		if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644); err != nil {
			t.Fatalf("write yaml: %v", err)
		}
	}
	t.Setenv("IMPACT_ROOT", root)
	return root
}

func TestLoadDefaults(t *testing.T) {
	root := writeRoot(t, "")

	cfg, err := Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Paths.Root != root {
		t.Fatalf("root = %q, want %q", cfg.Paths.Root, root)
	}
	if cfg.HTTP.ListenAddr != ":8080" {
		t.Fatalf("listen_addr = %q", cfg.HTTP.ListenAddr)
	}
	if cfg.API.BaseURL != "http://localhost:4000" {
		t.Fatalf("api.base_url = %q", cfg.API.BaseURL)
	}
	if cfg.Draft.Backend != "memory" || cfg.Draft.Interval != 5*time.Second {
		t.Fatalf("draft = %+v", cfg.Draft)
	}
	if cfg.Draft.Key != "project_form_draft_v1" {
		t.Fatalf("draft.key = %q", cfg.Draft.Key)
	}
	if Get() != cfg {
		t.Fatal("Get did not return the loaded config")
	}
}

func TestLoadYAMLAndEnvOverlay(t *testing.T) {
	writeRoot(t, `
http:
  listen_addr: "127.0.0.1:9000"
api:
  base_url: "https://api.example.org"
  timeout: 3s
draft:
  backend: redis
redis:
  addr: "localhost:6379"
`)
	t.Setenv("IMPACT_HTTP__LISTEN_ADDR", "127.0.0.1:9100")
	t.Setenv("IMPACT_DRAFT__INTERVAL", "2s")

	cfg, err := Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != "127.0.0.1:9100" {
		t.Fatalf("env did not override yaml: %q", cfg.HTTP.ListenAddr)
	}
	if cfg.API.BaseURL != "https://api.example.org" || cfg.API.Timeout != 3*time.Second {
		t.Fatalf("api = %+v", cfg.API)
	}
	if cfg.Draft.Backend != "redis" || cfg.Draft.Interval != 2*time.Second {
		t.Fatalf("draft = %+v", cfg.Draft)
	}
}

func TestLoadResolvesVaultReferences(t *testing.T) {
	writeRoot(t, `
api:
  token: "vault:secret/impact#api_token"
database:
  dsn: "impact:%s@tcp(db:3306)/impact?parseTime=true"
  password: "vault:secret/impact#db_password"
`)
	secrets := fakeSecrets{
		"vault:secret/impact#api_token":   "tok-123",
		"vault:secret/impact#db_password": "hunter2",
	}

	cfg, err := Load(context.Background(), secrets)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.Token != "tok-123" {
		t.Fatalf("token = %q", cfg.API.Token)
	}
	if got := cfg.Database.ResolvedDSN(); got != "impact:hunter2@tcp(db:3306)/impact?parseTime=true" {
		t.Fatalf("dsn = %q", got)
	}
}

func TestLoadVaultReferenceWithoutResolver(t *testing.T) {
	writeRoot(t, `
api:
  token: "vault:secret/impact#api_token"
`)
	_, err := Load(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "api.token") {
		t.Fatalf("want error naming api.token, got %v", err)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"unknown backend": "draft:\n  backend: disk\n",
		"redis w/o addr":  "draft:\n  backend: redis\n",
		"sql w/o dsn":     "draft:\n  backend: sql\n",
		"bad log level":   "log:\n  level: loud\n",
		"bad api url":     "api:\n  base_url: \"not a url\"\n",
	}
	for name, yaml := range cases {
		t.Run(name, func(t *testing.T) {
			writeRoot(t, yaml)
			if _, err := Load(context.Background(), nil); err == nil {
				t.Fatal("want validation error")
			}
		})
	}
}

func TestPathsAbs(t *testing.T) {
	p := Paths{Root: "/srv/impact"}
	cases := map[string]string{
		"":                   "",
		"conf/rules.yaml":    "/srv/impact/conf/rules.yaml",
		"/etc/geo/city.mmdb": "/etc/geo/city.mmdb",
	}
	for in, want := range cases {
		if got := p.Abs(in); got != want {
			t.Errorf("Abs(%q) = %q, want %q", in, got, want)
		}
	}
}
