// internal/module/registry.go
//
// A super-light registry for operational endpoints: modules call
// Register(path, handler) in an init() function and cmd/web mounts every
// exact path with Mount.  Unlike components, modules need no shared
// services; they read what they need from config.Get().
//
// Handler signature:
//
//	func(cfg *config.Config, w http.ResponseWriter, r *http.Request)
//
// cfg is the live configuration at request time, nil before Load.
package module

import (
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/impact/internal/config"
)

// Handler is what modules register.
type Handler func(*config.Config, http.ResponseWriter, *http.Request)

var (
	mu       sync.RWMutex
	registry = map[string]Handler{}
)

// Register is called from module init() functions.
func Register(path string, h Handler) {
	mu.Lock()
	registry[path] = h
	mu.Unlock()
}

// Lookup returns the handler for an exact path or nil.
func Lookup(path string) Handler {
	mu.RLock()
	defer mu.RUnlock()
	return registry[path]
}

// Paths returns every registered path, sorted.
func Paths() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for p := range registry {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Mount adds a GET route for every registered path.
func Mount(r chi.Router) {
	for _, p := range Paths() {
		h := Lookup(p)
		r.Get(p, func(w http.ResponseWriter, req *http.Request) {
			h(config.Get(), w, req)
		})
	}
}
