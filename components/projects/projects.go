// components/projects/projects.go
//
// Impact projects component – project form sessions and dashboard lists.
//
// Context
//   The dashboard edits projects through server-held form sessions.  A
//   session owns one form.State, its submission controller, a notification
//   outbox, and (for the extended create form) an autosaver.  Clients drive
//   the session with small JSON calls: field change, blur, reset, template,
//   submit, and close.  Every call answers with the full form view so the
//   client never computes validation itself.
//
// Workflow
//   POST   /projects/forms                     open (?id= edit, ?variant=extended)
//   GET    /projects/forms/{sid}               current view
//   PATCH  /projects/forms/{sid}/fields/{f}    change {"value": …}
//   POST   /projects/forms/{sid}/fields/{f}/blur
//   POST   /projects/forms/{sid}/reset
//   POST   /projects/forms/{sid}/template/{name}
//   POST   /projects/forms/{sid}/submit        X-CSRF-Token required
//   DELETE /projects/forms/{sid}               unload: flush draft, close
//
//   GET /projects, /donors, /impacts, /settings  cached lists (?refresh=1)
//   GET /projects/templates                      template names
//   DELETE /projects/{id}                        optimistic delete
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package projects

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/yanizio/impact/internal/cache"
	"github.com/yanizio/impact/internal/component"
	"github.com/yanizio/impact/internal/draft"
	"github.com/yanizio/impact/internal/metrics"
	"github.com/yanizio/impact/internal/middleware"
)

const (
	defaultSessionLimit = 1024
	evictFlushTimeout   = 5 * time.Second
)

// compile-time assertions
var (
	_ component.Component   = (*Component)(nil)
	_ component.Initializer = (*Component)(nil)
	_ component.Closer      = (*Component)(nil)
)

// Component serves project forms and dashboard lists.
type Component struct {
	deps     component.Deps
	sessions *cache.LRU[string, *formSession]

	// base is the parent of every autosave loop; Close cancels it.
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	newTicker func(time.Duration) draft.Ticker
}

// Register component at program start.
func init() { component.Register(&Component{}) }

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return "projects" }

// Init captures shared services and builds the session table.
func (c *Component) Init(deps component.Deps) error {
	switch {
	case deps.Config == nil:
		return errors.New("projects: config is required")
	case deps.Validator == nil || deps.CSRF == nil:
		return errors.New("projects: validator and csrf are required")
	case deps.Drafts == nil:
		return errors.New("projects: draft store is required")
	case deps.Projects == nil:
		return errors.New("projects: project collection is required")
	}

	if deps.Log == nil {
		deps.Log = zap.S()
	}
	c.deps = deps
	limit := deps.Config.HTTP.SessionLimit
	if limit < 1 {
		limit = defaultSessionLimit
	}
	c.sessions = cache.New(limit, c.evict)
	c.base, c.cancel = context.WithCancel(context.Background())
	if c.newTicker == nil {
		c.newTicker = draft.NewTicker
	}
	return nil
}

// Routes adds the project endpoints to r.
func (c *Component) Routes(r chi.Router) {
	cfg := c.deps.Config.HTTP

	r.Get("/projects", listHandler(c.deps.Projects))
	r.Get("/projects/templates", c.listTemplates)
	r.Delete("/projects/{id}", c.deleteProject)
	if c.deps.Donors != nil {
		r.Get("/donors", listHandler(c.deps.Donors))
	}
	if c.deps.Impacts != nil {
		r.Get("/impacts", listHandler(c.deps.Impacts))
	}
	if c.deps.Settings != nil {
		r.Get("/settings", listHandler(c.deps.Settings))
	}

	r.Route("/projects/forms", func(fr chi.Router) {
		fr.With(middleware.RateLimit(rate.Limit(cfg.RateLimit), cfg.RateBurst)).
			Post("/", c.openForm)

		fr.Route("/{sid}", func(sr chi.Router) {
			sr.Get("/", c.getForm)
			sr.Delete("/", c.closeForm)
			sr.Patch("/fields/{field}", c.changeField)
			sr.Post("/fields/{field}/blur", c.blurField)
			sr.Post("/reset", c.resetForm)
			sr.Post("/template/{name}", c.applyTemplate)
			sr.Post("/submit", c.submitForm)
		})
	})
}

// Close flushes and closes every open form session.
func (c *Component) Close(ctx context.Context) error {
	if c.sessions == nil {
		return nil
	}
	var errs []error
	for _, fs := range c.sessions.Purge() {
		metrics.FormSessionsOpen.Dec()
		if err := fs.close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.cancel()
	c.wg.Wait()
	return errors.Join(errs...)
}

// evict runs when the session table is full.  The oldest session still
// gets its final draft save.
func (c *Component) evict(sid string, fs *formSession) {
	metrics.FormSessionsOpen.Dec()
	ctx, cancel := context.WithTimeout(context.Background(), evictFlushTimeout)
	defer cancel()
	if err := fs.close(ctx); err != nil {
		c.deps.Log.Warnw("evicted form session flush failed", "session", sid, "err", err)
		return
	}
	c.deps.Log.Infow("form session evicted", "session", sid)
}
