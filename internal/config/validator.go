// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch or validation error aborts startup, ensuring the binary never
// runs with partial, malformed, or missing configuration.
//
// Field tags cover single values.  The struct-level rule registered below
// covers the one cross-section dependency: the draft backend needs its
// connection settings.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterStructValidation(draftBackendRule, Config{})
	return val
}

// draftBackendRule requires redis.addr or database.dsn to match the chosen
// draft backend.
func draftBackendRule(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	switch c.Draft.Backend {
	case "redis":
		if c.Redis.Addr == "" {
			sl.ReportError(c.Redis.Addr, "Redis.Addr", "Addr", "required_for_redis_drafts", "")
		}
	case "sql":
		if c.Database.DSN == "" {
			sl.ReportError(c.Database.DSN, "Database.DSN", "DSN", "required_for_sql_drafts", "")
		}
	}
}

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
