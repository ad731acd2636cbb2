// internal/form/submit.go
//
// Impact – Forms subsystem: the submission controller.
//
// Context
//   Submit is the one call a handler makes when the user presses the submit
//   button.  It validates every field of the form, refuses to continue when
//   anything is wrong, and otherwise hands a typed Submission to the
//   Persister.  The store lock is not held while the Persister runs, so the
//   user can keep typing; a second Submit during that window is refused with
//   ErrSubmitInFlight.
//
// Workflow
//   1. State.beginSubmit: set the attempted flag and replace the error map.
//   2. Invalid → *ValidationError and an error notification.
//   3. Valid → Persist(ctx, Submission).
//   4. Success → reset the form, notify, and run success hooks (for example
//      discarding the autosaved draft).
//   5. Failure → *PersistenceError, values kept for a retry.
//
//------------------------------------------------------------------------------

package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/impact/internal/message"
	"github.com/yanizio/impact/internal/metrics"
)

// Mode says whether a submission creates a new entity or updates one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

func (m Mode) String() string {
	if m == ModeUpdate {
		return "update"
	}
	return "create"
}

// Submission is the payload handed to a Persister.
type Submission struct {
	Mode   Mode
	ID     string // set in ModeUpdate
	Values Snapshot
}

// Persister stores a validated submission.  A non-nil error is reported to
// the user as a generic failure and leaves the form intact.
type Persister interface {
	Persist(ctx context.Context, sub Submission) error
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, sub Submission) error

// Persist calls f.
func (f PersisterFunc) Persist(ctx context.Context, sub Submission) error { return f(ctx, sub) }

// SuccessHook runs after a submission has been persisted and the form reset.
type SuccessHook func(ctx context.Context, sub Submission)

// User-facing notification texts.
const (
	msgCreated       = "Project created successfully!"
	msgUpdated       = "Project updated successfully!"
	msgPersistFailed = "Something went wrong. Please try again."
)

// Controller drives submission for one State.
type Controller struct {
	state   *State
	persist Persister
	sink    message.Sink
	log     *zap.SugaredLogger
	mode    Mode
	id      string

	hookMu sync.Mutex
	hooks  []SuccessHook
}

// ControllerOption customises a Controller.
type ControllerOption func(*Controller)

// ForUpdate switches the controller to edit mode for entity id.
func ForUpdate(id string) ControllerOption {
	return func(c *Controller) {
		c.mode = ModeUpdate
		c.id = id
	}
}

// WithSink routes user notifications to sink.
func WithSink(sink message.Sink) ControllerOption {
	return func(c *Controller) { c.sink = sink }
}

// WithControllerLogger sets the controller's logger.
func WithControllerLogger(l *zap.SugaredLogger) ControllerOption {
	return func(c *Controller) { c.log = l }
}

// NewController binds state to persister p.
func NewController(state *State, p Persister, opts ...ControllerOption) *Controller {
	c := &Controller{
		state:   state,
		persist: p,
		sink:    message.Discard,
		mode:    ModeCreate,
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = zap.S()
	}
	return c
}

// State returns the store this controller submits.
func (c *Controller) State() *State { return c.state }

// Mode reports create or update.
func (c *Controller) Mode() Mode { return c.mode }

// ID returns the entity ID in update mode.
func (c *Controller) ID() string { return c.id }

// OnSuccess registers h to run after every successful submission.
func (c *Controller) OnSuccess(h SuccessHook) {
	c.hookMu.Lock()
	c.hooks = append(c.hooks, h)
	c.hookMu.Unlock()
}

// Submit validates and persists the form.  On success it returns the
// snapshot that was persisted and the form is reset.  Errors are
// *ValidationError, ErrSubmitInFlight, or *PersistenceError.
func (c *Controller) Submit(ctx context.Context) (Snapshot, error) {
	snap, err := c.state.beginSubmit()
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrSubmitInFlight):
		metrics.FormSubmitTotal.WithLabelValues("busy").Inc()
		return Snapshot{}, err

	case errors.As(err, &ve):
		for _, f := range ve.Fields.Fields() {
			metrics.FieldValidationFailuresTotal.WithLabelValues(f.String()).Inc()
		}
		metrics.FormSubmitTotal.WithLabelValues("invalid").Inc()
		c.notify(ctx, message.Error, fixErrorsMessage(ve.Count()))
		c.log.Debugw("form submit rejected", "errors", ve.Count(), "mode", c.mode)
		return Snapshot{}, ve
	}

	sub := Submission{Mode: c.mode, ID: c.id, Values: snap}
	if perr := c.persist.Persist(ctx, sub); perr != nil {
		c.state.endSubmit(false)
		metrics.FormSubmitTotal.WithLabelValues("failed").Inc()
		c.notify(ctx, message.Error, msgPersistFailed)
		c.log.Warnw("form persist failed", "mode", c.mode, "id", c.id, "err", perr)
		return Snapshot{}, &PersistenceError{Err: perr}
	}

	c.state.endSubmit(true)
	metrics.FormSubmitTotal.WithLabelValues("ok").Inc()
	if c.mode == ModeUpdate {
		c.notify(ctx, message.Success, msgUpdated)
	} else {
		c.notify(ctx, message.Success, msgCreated)
	}

	c.hookMu.Lock()
	hooks := append([]SuccessHook(nil), c.hooks...)
	c.hookMu.Unlock()
	for _, h := range hooks {
		h(ctx, sub)
	}
	return snap, nil
}

func (c *Controller) notify(ctx context.Context, kind message.Kind, text string) {
	c.sink.Notify(ctx, message.Notification{Message: text, Kind: kind})
}

func fixErrorsMessage(n int) string {
	if n == 1 {
		return "Please fix 1 error before submitting"
	}
	return fmt.Sprintf("Please fix %d errors before submitting", n)
}
