// internal/form/validate.go
//
// Impact – Forms subsystem: field validation.
//
// Context
//   Validate maps (field, value, whole snapshot) to a user-facing message,
//   or to "" when the value is acceptable.  It is pure: the only outside
//   input is "today", which comes from an injected clock so tests can pin
//   the calendar.  The snapshot is needed for the single cross-field rule,
//   endDate > startDate.
//
// Workflow
//   •  Each field runs its rules in a fixed order and the first failure
//      wins: required, then length or numeric checks, then pattern or
//      integer checks.
//   •  Dates are ISO "YYYY-MM-DD" strings and compare lexically, which is
//      correct for that format.
//   •  ValidateAll runs Validate for every field of a schema and collects a
//      fresh Errors map.
//
// Style
//   Comments follow the project guide: full sentences, two space spacing,
//   Oxford comma.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const isoDate = "2006-01-02"

// Validator applies Rules to field values.  It is safe for concurrent use.
type Validator struct {
	rules   Rules
	pattern *regexp.Regexp
	now     func() time.Time
	loc     *time.Location
}

// ValidatorOption customises a Validator.
type ValidatorOption func(*Validator)

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) { v.now = now }
}

// WithLocation sets the calendar used to derive "today".  Default UTC.
func WithLocation(loc *time.Location) ValidatorOption {
	return func(v *Validator) { v.loc = loc }
}

// NewValidator compiles rules into a Validator.
func NewValidator(rules Rules, opts ...ValidatorOption) (*Validator, error) {
	if err := rules.Check(); err != nil {
		return nil, err
	}
	v := &Validator{
		rules: rules,
		now:   time.Now,
		loc:   time.UTC,
	}
	if rules.Name.Pattern != "" {
		v.pattern = regexp.MustCompile(rules.Name.Pattern) // checked above
	}
	for _, o := range opts {
		o(v)
	}
	return v, nil
}

// Rules returns the constraint set in use.
func (v *Validator) Rules() Rules { return v.rules }

// Today returns the current calendar date as "YYYY-MM-DD".
func (v *Validator) Today() string {
	return v.now().In(v.loc).Format(isoDate)
}

// Validate returns the first failing rule's message for field f holding
// val, or "" when val is acceptable.  snap supplies the other fields for
// cross-field checks.
func (v *Validator) Validate(f Field, val Value, snap Snapshot) string {
	switch f {
	case FieldName:
		return v.text(val, v.rules.Name, v.pattern, "Project name", "Name")
	case FieldDescription:
		return v.text(val, v.rules.Description, nil, "Description", "Description")
	case FieldBeneficiaries:
		return v.beneficiaries(val)
	case FieldStartDate:
		return v.startDate(val)
	case FieldEndDate:
		return v.endDate(val, snap)
	case FieldStatus:
		return v.status(val)
	case FieldBudget:
		return optionalNumber(val, v.rules.Budget, "Budget must be a number", "Budget cannot be negative")
	case FieldMainKPI:
		return optionalNumber(val, v.rules.MainKPI, "Main KPI must be a number", "KPI cannot be negative")
	default:
		return ""
	}
}

// ValidateAll validates every field in schema against snap and returns a
// fresh map.  An empty map means the form is valid.
func (v *Validator) ValidateAll(schema Schema, snap Snapshot) Errors {
	errs := make(Errors)
	for _, f := range schema {
		if msg := v.Validate(f, snap.Get(f), snap); msg != "" {
			errs[f] = msg
		}
	}
	return errs
}

// Valid reports whether every field in schema passes.
func (v *Validator) Valid(schema Schema, snap Snapshot) bool {
	for _, f := range schema {
		if v.Validate(f, snap.Get(f), snap) != "" {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Field rules
// -----------------------------------------------------------------------------

func (v *Validator) text(val Value, r TextRule, re *regexp.Regexp, requiredLabel, label string) string {
	s := strings.TrimSpace(val.String())
	if s == "" {
		if r.Required {
			return requiredLabel + " is required"
		}
		return ""
	}

	n := utf8.RuneCountInString(s)
	if r.MinLength > 0 && n < r.MinLength {
		return fmt.Sprintf("%s must be at least %d characters", label, r.MinLength)
	}
	if r.MaxLength > 0 && n > r.MaxLength {
		return fmt.Sprintf("%s must not exceed %d characters", label, r.MaxLength)
	}
	if re != nil && !re.MatchString(s) {
		return label + " contains invalid characters"
	}
	return ""
}

// beneficiaries: presence, numeric, min, max, integer.  An explicit 0 is
// present input and fails the minimum check instead.
func (v *Validator) beneficiaries(val Value) string {
	r := v.rules.Beneficiaries
	if val.IsEmpty() || (!val.IsNumber() && strings.TrimSpace(val.String()) == "") {
		if r.Required {
			return "Number of beneficiaries is required"
		}
		return ""
	}

	n, ok := val.Float()
	if !ok {
		return "Beneficiaries must be a valid number"
	}
	if n < r.Min {
		unit := "beneficiaries"
		if r.Min == 1 {
			unit = "beneficiary"
		}
		return fmt.Sprintf("Must have at least %s %s", formatNum(r.Min), unit)
	}
	if r.HasMax && n > r.Max {
		return fmt.Sprintf("Cannot exceed %s beneficiaries", formatNum(r.Max))
	}
	if r.Integer && n != math.Trunc(n) {
		return "Beneficiaries must be a whole number"
	}
	return ""
}

func (v *Validator) startDate(val Value) string {
	s := strings.TrimSpace(val.String())
	if s == "" {
		return "Start date is required"
	}
	if s < v.Today() {
		return "Start date cannot be in the past"
	}
	return ""
}

func (v *Validator) endDate(val Value, snap Snapshot) string {
	s := strings.TrimSpace(val.String())
	if s == "" {
		return "End date is required"
	}
	if s < v.Today() {
		return "End date cannot be in the past"
	}
	if start := strings.TrimSpace(snap.Get(FieldStartDate).String()); start != "" && s <= start {
		return "End date must be after start date"
	}
	return ""
}

func (v *Validator) status(val Value) string {
	if !slices.Contains(v.rules.Statuses, strings.TrimSpace(val.String())) {
		return "Select a valid status"
	}
	return ""
}

func optionalNumber(val Value, r RangeRule, nanMsg, minMsg string) string {
	if val.IsEmpty() || (!val.IsNumber() && strings.TrimSpace(val.String()) == "") {
		return ""
	}
	n, ok := val.Float()
	if !ok {
		return nanMsg
	}
	if n < r.Min {
		return minMsg
	}
	return ""
}

func formatNum(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
