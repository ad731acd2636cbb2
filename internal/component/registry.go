// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web builds the shared
// Deps once, then Mount() calls Init(deps) on every component that
// implements Initializer and lets each one add its routes to the root
// router.  On shutdown CloseAll() gives components a chance to flush state.

package component

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Initializer is optional.  If a Component implements it, Mount calls
// Init(deps) once before Routes.
type Initializer interface {
	Init(Deps) error
}

// Closer is optional.  CloseAll calls it during graceful shutdown.
type Closer interface {
	Close(ctx context.Context) error
}

// Component contract.
//
// Routes() adds the component's endpoints to the shared router, e.g:
//
//	r.Get("/projects", c.listProjects)
//	r.Route("/projects/forms", func(fr chi.Router) { ... })
type Component interface {
	Name() string
	Routes(r chi.Router)
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Mount initialises every component with deps and registers its routes on r.
func Mount(r chi.Router, deps Deps) error {
	for _, c := range All() {
		if in, ok := c.(Initializer); ok {
			if err := in.Init(deps); err != nil {
				return fmt.Errorf("component %s init: %w", c.Name(), err)
			}
		}
		c.Routes(r)
		deps.logger().Infow("component mounted", "component", c.Name())
	}
	return nil
}

// CloseAll closes every component that implements Closer.  All components
// are closed even when one fails.
func CloseAll(ctx context.Context) error {
	var errs []error
	for _, c := range All() {
		if cl, ok := c.(Closer); ok {
			if err := cl.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("component %s close: %w", c.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
