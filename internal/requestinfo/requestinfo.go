//
//  internal/requestinfo/requestinfo.go
//
//  Per-request metadata: parsed User-Agent, primary language, client IP
//  with best-effort geolocation, and arrival time.  The values are inert
//  and safe to log or JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer          (through internal/ua)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"

	"github.com/yanizio/impact/internal/ua"
)

// Geo holds IP-based location hints.  Country and City are empty when no
// database is configured or the address has no match.
type Geo struct {
	IP         string `json:"ip,omitempty"`
	CountryISO string `json:"country,omitempty"`
	City       string `json:"city,omitempty"`
}

// Info is stored in the request context by Enricher.Middleware.
type Info struct {
	UA        ua.Info   `json:"ua"`
	Lang      string    `json:"lang,omitempty"`
	Geo       Geo       `json:"geo"`
	Timestamp time.Time `json:"timestamp"`
}

// cityLookup is the subset of *geoip2.Reader we call.
type cityLookup interface {
	City(ip net.IP) (*geoip2.City, error)
	Close() error
}

// Enricher builds Info values.  The zero value parses UAs and skips geo.
type Enricher struct {
	geo cityLookup
	now func() time.Time
}

// New opens the GeoLite2-City database at dbPath.  An empty path disables
// geolocation.
func New(dbPath string) (*Enricher, error) {
	e := &Enricher{now: time.Now}
	if dbPath == "" {
		return e, nil
	}
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open geoip db %s: %w", dbPath, err)
	}
	e.geo = r
	return e, nil
}

// Close releases the geo database.
func (e *Enricher) Close() error {
	if e == nil || e.geo == nil {
		return nil
	}
	return e.geo.Close()
}

/*──────────────────────────── context access ───────────────────────────────*/

type ctxKey struct{}

// WithInfo returns a copy of ctx carrying info.
func WithInfo(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// FromContext returns the value stored by the middleware, or nil.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

/*──────────────────────────────── helpers ──────────────────────────────────*/

// primaryLang extracts the first tag of an Accept-Language list.
func primaryLang(al string) string {
	tag, _, _ := strings.Cut(al, ",")
	tag, _, _ = strings.Cut(tag, ";")
	return strings.ToLower(strings.TrimSpace(tag))
}

func (e *Enricher) lookup(ip net.IP) Geo {
	g := Geo{}
	if ip == nil {
		return g
	}
	g.IP = ip.String()
	if e.geo == nil {
		return g
	}
	rec, err := e.geo.City(ip)
	if err != nil {
		return g
	}
	g.CountryISO = rec.Country.IsoCode
	g.City = rec.City.Names["en"]
	return g
}
