// internal/form/state.go
//
// Impact – Forms subsystem: the per-form state store.
//
// Context
//   One State backs one form instance (one form session in the dashboard).
//   It owns the current Snapshot, the initial Snapshot it resets to, the set
//   of touched fields, the current error map, and the dirty and attempted
//   flags.  Every mutation goes through a method here, and every method runs
//   to completion under a single mutex, so the autosave goroutine and the
//   HTTP handlers always observe a whole edit.
//
// Workflow
//   •  HandleFieldChange stores the value, marks the form dirty, and, if the
//      field was touched before, re-validates it against the updated
//      snapshot.
//   •  HandleFieldBlur marks the field touched and validates it.
//   •  Reset returns to the initial snapshot and clears everything else.
//   •  Load swaps in restored draft values without marking the form dirty.
//   •  The Controller (submit.go) drives submit-time validation.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Meta carries the form-level flags.
type Meta struct {
	IsDirty            bool `json:"isDirty"`
	HasAttemptedSubmit bool `json:"hasAttemptedSubmit"`
}

// View is a consistent copy of a State taken under one lock.
type View struct {
	Values     Snapshot     `json:"values"`
	Errors     Errors       `json:"errors"`
	Touched    []Field      `json:"touched"`
	Meta       Meta         `json:"meta"`
	CanSubmit  bool         `json:"can_submit"`
	Submitting bool         `json:"submitting"`
	Summary    string       `json:"summary,omitempty"`
	ErrorList  []ErrorField `json:"-"`
}

// State is the form state store.  The zero value is not usable; call
// NewState.
type State struct {
	mu sync.Mutex

	schema  Schema
	v       *Validator
	log     *zap.SugaredLogger
	initial Snapshot

	values     Snapshot
	touched    [fieldCount]bool
	errors     Errors
	meta       Meta
	submitting bool
}

// StateOption customises a State.
type StateOption func(*State)

// WithInitial seeds the form, typically from an existing entity in edit
// mode.  Reset returns to this snapshot.
func WithInitial(snap Snapshot) StateOption {
	return func(s *State) { s.initial = snap }
}

// WithLogger sets the logger used for debug traces.
func WithLogger(l *zap.SugaredLogger) StateOption {
	return func(s *State) { s.log = l }
}

// NewState returns a store for schema, validated by v.
func NewState(schema Schema, v *Validator, opts ...StateOption) *State {
	s := &State{
		schema: schema,
		v:      v,
		errors: make(Errors),
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = zap.S()
	}
	s.initial = s.restrict(s.initial)
	s.values = s.initial
	return s
}

// DefaultSnapshot returns the empty starting values for schema.  The
// extended variant starts in the "planned" status.
func DefaultSnapshot(schema Schema) Snapshot {
	var snap Snapshot
	if schema.Has(FieldStatus) {
		snap = snap.With(FieldStatus, Text("planned"))
	}
	return snap
}

// -----------------------------------------------------------------------------
// Readers
// -----------------------------------------------------------------------------

// Schema returns the fields this form renders and validates.
func (s *State) Schema() Schema { return s.schema }

// Validator returns the validator in use.
func (s *State) Validator() *Validator { return s.v }

// Snapshot returns a copy of the current values.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values
}

// Initial returns the snapshot Reset restores.
func (s *State) Initial() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initial
}

// Errors returns a copy of the current error map.
func (s *State) Errors() Errors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors.clone()
}

// IsTouched reports whether f has been blurred since the last reset.
func (s *State) IsTouched(f Field) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f.Valid() && s.touched[f]
}

// Touched lists touched fields in declaration order.
func (s *State) Touched() []Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedLocked()
}

// Meta returns the form-level flags.
func (s *State) Meta() Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// DirtySnapshot returns the current values and the dirty flag read under
// the same lock.
func (s *State) DirtySnapshot() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values, s.meta.IsDirty
}

// IsDirty reports whether the user has edited the form since the last reset.
func (s *State) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta.IsDirty
}

// CanSubmit reports whether the submit control should be enabled: the error
// map is empty, every schema field currently passes, and no submission is in
// flight.  It holds before the first submit attempt as well.
func (s *State) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSubmitLocked()
}

// Summary returns the banner text shown above the form after a failed
// submit attempt, or "" when no banner applies.
func (s *State) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

// View returns a consistent copy of everything a renderer needs.
func (s *State) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Values:     s.values,
		Errors:     s.errors.clone(),
		Touched:    s.touchedLocked(),
		Meta:       s.meta,
		CanSubmit:  s.canSubmitLocked(),
		Submitting: s.submitting,
		Summary:    s.summaryLocked(),
		ErrorList:  s.errors.List(),
	}
}

// -----------------------------------------------------------------------------
// Events
// -----------------------------------------------------------------------------

// HandleFieldChange records a new value for f.
func (s *State) HandleFieldChange(f Field, val Value) error {
	if !s.schema.Has(f) {
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values.values[f] = val
	s.meta.IsDirty = true
	if s.touched[f] {
		s.revalidateLocked(f)
	}
	return nil
}

// HandleFieldBlur marks f touched and validates it.
func (s *State) HandleFieldBlur(f Field) error {
	if !s.schema.Has(f) {
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.touched[f] = true
	s.revalidateLocked(f)
	return nil
}

// Reset restores the initial snapshot and clears touched fields, errors,
// and both flags.  Calling it twice has the same effect as calling it once.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Load replaces the current values, typically with a restored draft.  The
// initial snapshot and the dirty flag are left alone; touched fields are
// re-validated so visible messages match the new values.
func (s *State) Load(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = s.restrict(snap)
	for _, f := range s.schema {
		if s.touched[f] {
			s.revalidateLocked(f)
		}
	}
	s.log.Debugw("form values loaded", "fields", len(s.schema))
}

// ApplyTemplate autofills name, description, and beneficiaries from the
// named project template and marks the form dirty.
func (s *State) ApplyTemplate(name string) error {
	t, err := lookupTemplate(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, fv := range t.values() {
		if !s.schema.Has(fv.f) {
			continue
		}
		s.values.values[fv.f] = fv.v
		if s.touched[fv.f] {
			s.revalidateLocked(fv.f)
		}
	}
	s.meta.IsDirty = true
	return nil
}

// -----------------------------------------------------------------------------
// Submit hooks (used by Controller)
// -----------------------------------------------------------------------------

// beginSubmit sets the attempted flag, replaces the error map with a full
// validation pass, and, when the form is valid, marks a submission in
// flight.  It returns the snapshot to persist.
func (s *State) beginSubmit() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return Snapshot{}, ErrSubmitInFlight
	}

	s.meta.HasAttemptedSubmit = true
	s.errors = s.v.ValidateAll(s.schema, s.values)
	if len(s.errors) > 0 {
		return Snapshot{}, &ValidationError{Fields: s.errors.clone()}
	}

	s.submitting = true
	return s.values, nil
}

// endSubmit clears the in-flight mark, resetting the form on success.
func (s *State) endSubmit(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submitting = false
	if ok {
		s.resetLocked()
	}
}

// -----------------------------------------------------------------------------
// Internals (caller holds s.mu)
// -----------------------------------------------------------------------------

func (s *State) revalidateLocked(f Field) {
	if msg := s.v.Validate(f, s.values.values[f], s.values); msg != "" {
		s.errors[f] = msg
		return
	}
	delete(s.errors, f)
}

func (s *State) resetLocked() {
	s.values = s.initial
	s.touched = [fieldCount]bool{}
	s.errors = make(Errors)
	s.meta = Meta{}
}

func (s *State) touchedLocked() []Field {
	out := make([]Field, 0, len(s.schema))
	for _, f := range s.schema {
		if s.touched[f] {
			out = append(out, f)
		}
	}
	return out
}

func (s *State) canSubmitLocked() bool {
	return !s.submitting && len(s.errors) == 0 && s.v.Valid(s.schema, s.values)
}

func (s *State) summaryLocked() string {
	if !s.meta.HasAttemptedSubmit || (len(s.errors) == 0 && s.v.Valid(s.schema, s.values)) {
		return ""
	}
	switch n := len(s.errors); {
	case n == 0:
		return "Please fill in all required fields"
	case n == 1:
		return fmt.Sprintf("Please fix the %s field", s.errors.Fields()[0])
	default:
		return fmt.Sprintf("Please fix %d validation errors", n)
	}
}

// restrict drops values for fields outside the schema.
func (s *State) restrict(snap Snapshot) Snapshot {
	var out Snapshot
	for _, f := range s.schema {
		out.values[f] = snap.values[f]
	}
	return out
}
