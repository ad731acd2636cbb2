// internal/form/errors.go
//
// Impact – Forms subsystem: error types.
//
// Context
//   Three kinds of failure leave the form subsystem.  Per-field messages live
//   in an Errors map and are never fatal.  A submit that finds at least one
//   field error returns *ValidationError.  A rejected persistence callback
//   returns *PersistenceError.  Callers tell them apart with
//   IsValidationError and IsPersistenceError, so user errors never turn into
//   a 500.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"sort"
)

// ErrSubmitInFlight is returned when Submit is called while an earlier
// submission is still waiting on the persistence callback.
var ErrSubmitInFlight = errors.New("form submission already in progress")

// Errors maps a field to its current message.  A missing key means the
// field is valid.
type Errors map[Field]string

// Fields returns the invalid fields in declaration order.
func (e Errors) Fields() []Field {
	out := make([]Field, 0, len(e))
	for f := range e {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// List flattens e into ErrorField entries in declaration order.
func (e Errors) List() []ErrorField {
	out := make([]ErrorField, 0, len(e))
	for _, f := range e.Fields() {
		out = append(out, ErrorField{Name: f.String(), Message: e[f]})
	}
	return out
}

func (e Errors) clone() Errors {
	out := make(Errors, len(e))
	for f, m := range e {
		out[f] = m
	}
	return out
}

// ErrorField describes a single validation failure so the view can render a
// field-level message.
type ErrorField struct {
	Name    string `json:"name"`    // field wire name
	Message string `json:"message"` // user-facing message
}

// ValidationError is returned by Submit when at least one field is invalid.
type ValidationError struct {
	Fields Errors
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("form validation failed: %d field error(s)", len(ve.Fields))
}

// Count returns the number of invalid fields.
func (ve *ValidationError) Count() int { return len(ve.Fields) }

// PersistenceError wraps a rejection from the persistence callback.  The
// form keeps its values so the user can retry.
type PersistenceError struct {
	Err error
}

func (pe *PersistenceError) Error() string { return "form persistence failed: " + pe.Err.Error() }

func (pe *PersistenceError) Unwrap() error { return pe.Err }

// IsValidationError reports whether err came from a failed submit-time
// validation.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistenceError reports whether err came from the persistence
// callback.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
