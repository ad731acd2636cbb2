package projects

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/impact/internal/form"
	"github.com/yanizio/impact/internal/message"
	"github.com/yanizio/impact/internal/restapi"
)

const csrfHeader = "X-CSRF-Token"

// formResponse is the JSON body of every form call.
type formResponse struct {
	ID            string      `json:"id"`
	Mode          string      `json:"mode"`
	ProjectID     string      `json:"project_id,omitempty"`
	Fields        form.Schema `json:"fields"`
	Autosave      bool        `json:"autosave"`
	DraftRestored bool        `json:"draft_restored,omitempty"`
	CSRFToken     string      `json:"csrf_token,omitempty"`
	form.View
	Notifications []message.Notification `json:"notifications"`
	Submitted     *form.Snapshot         `json:"submitted,omitempty"`
}

func (fs *formSession) response() formResponse {
	return formResponse{
		ID:            fs.id,
		Mode:          fs.ctrl.Mode().String(),
		ProjectID:     fs.projectID,
		Fields:        fs.state().Schema(),
		Autosave:      fs.saver != nil,
		DraftRestored: fs.restored,
		View:          fs.state().View(),
		Notifications: fs.outbox.Drain(),
	}
}

/*──────────────────────────── open / close ─────────────────────────────────*/

func (c *Component) openForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opt := openOptions{projectID: q.Get("id")}
	switch q.Get("variant") {
	case "", "standard":
	case "extended":
		opt.extended = true
	default:
		writeError(w, http.StatusBadRequest, "unknown form variant")
		return
	}

	fs, err := c.newSession(r, opt)
	switch {
	case errors.Is(err, restapi.ErrNotFound):
		writeError(w, http.StatusNotFound, "project not found")
		return
	case err != nil:
		c.deps.Log.Warnw("open form failed", "project", opt.projectID, "err", err)
		writeError(w, http.StatusBadGateway, "could not open form")
		return
	}

	resp := fs.response()
	resp.CSRFToken = fs.csrf
	writeJSON(w, http.StatusCreated, resp)
}

// getForm returns the current view with a fresh CSRF token, so a page that
// outlives form.csrf_ttl can still submit after re-reading the form.
func (c *Component) getForm(w http.ResponseWriter, r *http.Request) {
	c.withSession(w, r, func(fs *formSession) {
		resp := fs.response()
		resp.CSRFToken = c.freshToken(fs)
		writeJSON(w, http.StatusOK, resp)
	})
}

// closeForm is the unload handler: final draft save, then the session is
// gone.
func (c *Component) closeForm(w http.ResponseWriter, r *http.Request) {
	c.withSession(w, r, func(fs *formSession) {
		if err := c.dropSession(r.Context(), fs.id); err != nil {
			c.deps.Log.Warnw("close form flush failed", "session", fs.id, "err", err)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

/*──────────────────────────── field events ─────────────────────────────────*/

type changeBody struct {
	Value form.Value `json:"value"`
}

func (c *Component) changeField(w http.ResponseWriter, r *http.Request) {
	c.withSession(w, r, func(fs *formSession) {
		f, ok := fieldParam(w, r)
		if !ok {
			return
		}
		var body changeBody
		if err := decodeJSON(w, r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid field value")
			return
		}
		if err := fs.state().HandleFieldChange(f, body.Value); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, fs.response())
	})
}

func (c *Component) blurField(w http.ResponseWriter, r *http.Request) {
	c.withSession(w, r, func(fs *formSession) {
		f, ok := fieldParam(w, r)
		if !ok {
			return
		}
		if err := fs.state().HandleFieldBlur(f); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, fs.response())
	})
}

// resetForm returns the form to the values it was opened with, before any
// restored draft, and drops the stored draft so a reopen starts clean too.
func (c *Component) resetForm(w http.ResponseWriter, r *http.Request) {
	c.withSession(w, r, func(fs *formSession) {
		fs.state().Reset()
		if fs.saver != nil {
			if err := fs.saver.Discard(r.Context()); err != nil {
				c.deps.Log.Warnw("reset draft discard failed", "session", fs.id, "err", err)
			}
		}
		writeJSON(w, http.StatusOK, fs.response())
	})
}

func (c *Component) applyTemplate(w http.ResponseWriter, r *http.Request) {
	c.withSession(w, r, func(fs *formSession) {
		err := fs.state().ApplyTemplate(chi.URLParam(r, "name"))
		if errors.Is(err, form.ErrUnknownTemplate) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, fs.response())
	})
}

/*──────────────────────────────── submit ───────────────────────────────────*/

// submitForm answers 200 on success, 422 when validation blocks the
// submission, 409 while another submit is in flight, and 502 when the
// backend refuses.  The body always carries the current view and pending
// notifications.
func (c *Component) submitForm(w http.ResponseWriter, r *http.Request) {
	c.withSession(w, r, func(fs *formSession) {
		if !c.deps.CSRF.Verify(fs.id, r.Header.Get(csrfHeader)) {
			writeError(w, http.StatusForbidden, "invalid csrf token")
			return
		}

		snap, err := fs.ctrl.Submit(r.Context())
		status := http.StatusOK
		switch {
		case err == nil:
		case errors.Is(err, form.ErrSubmitInFlight):
			status = http.StatusConflict
		case form.IsValidationError(err):
			status = http.StatusUnprocessableEntity
		case form.IsPersistenceError(err), errors.Is(err, context.Canceled):
			status = http.StatusBadGateway
		default:
			c.deps.Log.Errorw("submit failed", "session", fs.id, "err", err)
			status = http.StatusInternalServerError
		}

		resp := fs.response()
		if err == nil {
			resp.Submitted = &snap
		} else {
			resp.CSRFToken = c.freshToken(fs)
		}
		writeJSON(w, status, resp)
	})
}

/*──────────────────────────────── helpers ──────────────────────────────────*/

func (c *Component) withSession(w http.ResponseWriter, r *http.Request, fn func(*formSession)) {
	fs, ok := c.session(r, chi.URLParam(r, "sid"))
	if !ok {
		writeError(w, http.StatusNotFound, "form session not found")
		return
	}
	fn(fs)
}

// freshToken mints a new token for fs.  On failure the response carries
// none and the client keeps the one it has.
func (c *Component) freshToken(fs *formSession) string {
	tok, err := c.deps.CSRF.Generate(fs.id)
	if err != nil {
		c.deps.Log.Warnw("csrf token refresh failed", "session", fs.id, "err", err)
		return ""
	}
	return tok
}

func fieldParam(w http.ResponseWriter, r *http.Request) (form.Field, bool) {
	f, err := form.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return f, true
}
