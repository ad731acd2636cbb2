package projects

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/yanizio/impact/internal/auth"
	"github.com/yanizio/impact/internal/draft"
	"github.com/yanizio/impact/internal/form"
	"github.com/yanizio/impact/internal/message"
	"github.com/yanizio/impact/internal/metrics"
	"github.com/yanizio/impact/internal/requestinfo"
	"github.com/yanizio/impact/internal/restapi"
)

// formSession is one open project form.
type formSession struct {
	id        string
	scope     string
	projectID string
	csrf      string

	ctrl   *form.Controller
	outbox *message.Outbox
	saver  *draft.Autosaver // nil unless the form autosaves
	cancel context.CancelFunc

	restored bool
}

func (fs *formSession) state() *form.State { return fs.ctrl.State() }

// close stops the autosave loop and writes one last draft.
func (fs *formSession) close(ctx context.Context) error {
	fs.cancel()
	if fs.saver == nil {
		return nil
	}
	if err := fs.saver.Flush(ctx); err != nil {
		return fmt.Errorf("flush draft for session %s: %w", fs.id, err)
	}
	return nil
}

// openOptions are read from the open request.
type openOptions struct {
	projectID string // edit mode when set
	extended  bool
}

// newSession builds and registers a form session.  Edit mode seeds the form
// from the cached project; the extended create form restores and autosaves
// a per-user draft.
func (c *Component) newSession(r *http.Request, opt openOptions) (*formSession, error) {
	ctx := r.Context()
	schema := form.ProjectSchema
	if opt.extended {
		schema = form.ExtendedProjectSchema
	}

	seed := form.DefaultSnapshot(schema)
	var ctrlOpts []form.ControllerOption
	if opt.projectID != "" {
		p, err := c.findProject(ctx, restapi.ID(opt.projectID))
		if err != nil {
			return nil, err
		}
		seed = restapi.ProjectSnapshot(p)
		ctrlOpts = append(ctrlOpts, form.ForUpdate(opt.projectID))
	}

	sid := uuid.NewString()
	log := c.deps.Log.With("session", sid)
	outbox := message.NewOutbox(0, log)
	state := form.NewState(schema, c.deps.Validator, form.WithInitial(seed), form.WithLogger(log))
	ctrlOpts = append(ctrlOpts, form.WithSink(outbox), form.WithControllerLogger(log))
	ctrl := form.NewController(state, restapi.NewProjectPersister(c.deps.Projects), ctrlOpts...)

	tok, err := c.deps.CSRF.Generate(sid)
	if err != nil {
		return nil, fmt.Errorf("csrf token: %w", err)
	}

	fs := &formSession{
		id:        sid,
		scope:     auth.Scope(ctx),
		projectID: opt.projectID,
		csrf:      tok,
		ctrl:      ctrl,
		outbox:    outbox,
	}

	runCtx, cancel := context.WithCancel(c.base)
	fs.cancel = cancel

	if opt.extended && opt.projectID == "" {
		dc := c.deps.Config.Draft
		fs.saver = draft.NewAutosaver(state, c.deps.Drafts,
			draft.WithKey(draft.Key(fs.scope, dc.Key)),
			draft.WithInterval(dc.Interval),
			draft.WithTicker(c.newTicker),
			draft.WithLogger(log),
		)
		restored, err := fs.saver.Restore(ctx)
		if err != nil {
			log.Warnw("draft restore failed", "err", err)
		}
		fs.restored = restored
		ctrl.OnSuccess(fs.saver.Hook())

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			fs.saver.Run(runCtx)
		}()
	}

	c.sessions.Add(sid, fs)
	metrics.FormSessionsOpen.Inc()
	kv := []any{
		"mode", ctrl.Mode().String(),
		"project", opt.projectID,
		"autosave", fs.saver != nil,
		"draft_restored", fs.restored,
	}
	if info := requestinfo.FromContext(ctx); info != nil {
		kv = append(kv, "device", info.UA.Device, "country", info.Geo.CountryISO)
	}
	log.Infow("form session opened", kv...)
	return fs, nil
}

// session returns the caller's open session sid.  Sessions are private to
// the scope that opened them.
func (c *Component) session(r *http.Request, sid string) (*formSession, bool) {
	fs, ok := c.sessions.Get(sid)
	if !ok || fs.scope != auth.Scope(r.Context()) {
		return nil, false
	}
	return fs, true
}

// dropSession removes sid and closes it.
func (c *Component) dropSession(ctx context.Context, sid string) error {
	fs, ok := c.sessions.Remove(sid)
	if !ok {
		return nil
	}
	metrics.FormSessionsOpen.Dec()
	return fs.close(ctx)
}

// findProject looks id up in the cached list, loading it once if needed.
func (c *Component) findProject(ctx context.Context, id restapi.ID) (restapi.Project, error) {
	if p, ok := c.deps.Projects.Find(id); ok {
		return p, nil
	}
	if err := c.deps.Projects.Refresh(ctx); err != nil {
		return restapi.Project{}, fmt.Errorf("load projects: %w", err)
	}
	if p, ok := c.deps.Projects.Find(id); ok {
		return p, nil
	}
	return restapi.Project{}, fmt.Errorf("project %s: %w", id, restapi.ErrNotFound)
}
