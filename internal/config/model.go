// internal/config/model.go
//
// Typed configuration model for the Impact dashboard.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                          – dotenv values,
//   • `conf/global.yaml`                       – primary static file,
//   • `IMPACT_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Durations accept Go syntax ("5s", "168h").

package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string  `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool    `koanf:"force_https"`
	SessionLimit int     `koanf:"session_limit" validate:"gte=0"` // open form sessions kept in memory
	RateLimit    float64 `koanf:"rate_limit"    validate:"gte=0"` // form sessions opened per second, 0 = off
	RateBurst    int     `koanf:"rate_burst"    validate:"gte=0"`
}

//
// API section
//

// API points at the REST backend that stores projects, donors, impact
// entries, and settings.
type API struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout"  validate:"gte=0"`
	Token   string        `koanf:"token"` // bearer token, usually vault:
}

//
// Draft section
//

// Draft configures the autosave sidecar.
type Draft struct {
	Backend  string        `koanf:"backend"  validate:"oneof=memory redis sql"`
	Interval time.Duration `koanf:"interval" validate:"gte=0"`
	TTL      time.Duration `koanf:"ttl"      validate:"gte=0"`
	Key      string        `koanf:"key"`
}

//
// Redis section
//

// Redis is used when draft.backend is "redis".
type Redis struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
}

//
// Database section
//

// Database is used when draft.backend is "sql".
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host, port,
// or flags without touching Vault.  The *secret* portion (`Password`) is
// stored in Vault and injected at runtime.
type Database struct {
	DSN      string `koanf:"dsn"` // e.g. "impact:%s@tcp(db:3306)/impact?parseTime=true"
	Password string `koanf:"password"`
	MaxOpen  int    `koanf:"max_open" validate:"gte=0"`
	MaxIdle  int    `koanf:"max_idle" validate:"gte=0"`
}

// ResolvedDSN substitutes the password into the DSN template.
func (d Database) ResolvedDSN() string {
	if strings.Contains(d.DSN, "%s") {
		return fmt.Sprintf(d.DSN, d.Password)
	}
	return d.DSN
}

//
// Form section
//

// Form tunes the project form.
type Form struct {
	RulesFile string        `koanf:"rules_file"` // optional YAML override, relative to root
	CSRFKey   string        `koanf:"csrf_key"`   // base64url, ≥ 32 bytes
	CSRFTTL   time.Duration `koanf:"csrf_ttl"  validate:"gte=0"`
	Timezone  string        `koanf:"timezone"` // calendar for "today", default UTC
}

//
// Geo section
//

// Geo enables client geolocation in request metadata.
type Geo struct {
	DBPath string `koanf:"db_path"` // GeoLite2-City.mmdb, relative to root; empty = off
}

//
// Log section
//

// Log controls the zap logger.
type Log struct {
	Level      string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Console    bool   `koanf:"console"`
	Dir        string `koanf:"dir"`
	MaxSizeMB  int    `koanf:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `koanf:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `koanf:"max_age_days" validate:"gte=0"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // IMPACT_ROOT or discovered parent
}

// Abs anchors a relative path at Root.  Empty stays empty.
func (p Paths) Abs(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Root, rel)
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	API      API      `koanf:"api"`
	Draft    Draft    `koanf:"draft"`
	Redis    Redis    `koanf:"redis"`
	Database Database `koanf:"database"`
	Form     Form     `koanf:"form"`
	Geo      Geo      `koanf:"geo"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

// defaults are loaded before global.yaml.
var defaults = map[string]any{
	"http.listen_addr":   ":8080",
	"http.session_limit": 1024,
	"http.rate_burst":    10,
	"api.base_url":       "http://localhost:4000",
	"api.timeout":        "10s",
	"draft.backend":      "memory",
	"draft.interval":     "5s",
	"draft.ttl":          "168h",
	"draft.key":          "project_form_draft_v1",
	"database.max_open":  15,
	"database.max_idle":  5,
	"form.csrf_ttl":      "2h",
	"log.level":          "info",
	"log.dir":            "logs",
}
