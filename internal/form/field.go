// internal/form/field.go
//
// Impact – Forms subsystem: field identifiers, values, and snapshots.
//
// Context
//   A project form is a closed set of fields.  Field is an enum rather than
//   a free-form string so every switch over fields can be checked, and a
//   Snapshot is a fixed array indexed by Field so every recognized field is
//   always present.  Strings only appear at the edges (JSON, URLs), where
//   ParseField rejects anything unknown.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnknownField is returned for field names or identifiers outside the
// recognized set, or outside the schema of a particular form.
var ErrUnknownField = errors.New("unknown form field")

// Field identifies one input of the project form.
type Field int

const (
	FieldName Field = iota
	FieldDescription
	FieldBeneficiaries
	FieldStartDate
	FieldEndDate
	FieldStatus
	FieldBudget
	FieldMainKPI

	fieldCount // sentinel, keep last
)

var fieldNames = [fieldCount]string{
	FieldName:          "name",
	FieldDescription:   "description",
	FieldBeneficiaries: "beneficiaries",
	FieldStartDate:     "startDate",
	FieldEndDate:       "endDate",
	FieldStatus:        "status",
	FieldBudget:        "budget",
	FieldMainKPI:       "mainKPI",
}

// AllFields lists every recognized field in declaration order.
func AllFields() []Field {
	out := make([]Field, 0, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		out = append(out, f)
	}
	return out
}

// String returns the wire name of f.
func (f Field) String() string {
	if !f.Valid() {
		return "field(" + strconv.Itoa(int(f)) + ")"
	}
	return fieldNames[f]
}

// Valid reports whether f is a recognized field.
func (f Field) Valid() bool { return f >= 0 && f < fieldCount }

// ParseField maps a wire name ("startDate") to its Field.
func ParseField(name string) (Field, error) {
	for f, n := range fieldNames {
		if n == name {
			return Field(f), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// MarshalText lets Field act as a JSON object key.
func (f Field) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownField, int(f))
	}
	return []byte(fieldNames[f]), nil
}

// UnmarshalText is the inverse of MarshalText.
func (f *Field) UnmarshalText(b []byte) error {
	parsed, err := ParseField(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// -----------------------------------------------------------------------------
// Value
// -----------------------------------------------------------------------------

type valueKind uint8

const (
	kindEmpty valueKind = iota
	kindText
	kindNumber
)

// Value is one field value: empty, text, or number.  The zero Value is
// empty, which is how a cleared input or a JSON null arrives.
type Value struct {
	kind valueKind
	text string
	num  float64
}

// Text wraps a string value.
func Text(s string) Value { return Value{kind: kindText, text: s} }

// Number wraps a numeric value.
func Number(n float64) Value { return Value{kind: kindNumber, num: n} }

// Int wraps an integer value.
func Int(n int) Value { return Number(float64(n)) }

// Empty returns the empty value.
func Empty() Value { return Value{} }

// IsEmpty reports whether v holds nothing (null or missing).
func (v Value) IsEmpty() bool { return v.kind == kindEmpty }

// IsNumber reports whether v was supplied as a number.
func (v Value) IsNumber() bool { return v.kind == kindNumber }

// String renders v the way an input control would display it.
func (v Value) String() string {
	switch v.kind {
	case kindText:
		return v.text
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Float returns v as a number.  Text is parsed after trimming; ok is false
// for empty values and for text that is not a finite number.
func (v Value) Float() (n float64, ok bool) {
	switch v.kind {
	case kindNumber:
		return v.num, !math.IsNaN(v.num) && !math.IsInf(v.num, 0)
	case kindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// MarshalJSON encodes empty as null, text as a string, and numbers as JSON
// numbers.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindText:
		return json.Marshal(v.text)
	case kindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil, fmt.Errorf("form: value %v is not representable in JSON", v.num)
		}
		return json.Marshal(v.num)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, strings, and numbers.  Anything else is
// rejected.
func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = Empty()
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	default:
		var n float64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("form: value must be null, string, or number: %w", err)
		}
		*v = Number(n)
		return nil
	}
}

// -----------------------------------------------------------------------------
// Snapshot
// -----------------------------------------------------------------------------

// Snapshot is the complete set of field values for one form.  It is a value
// type: copies are independent and two snapshots compare with ==.
type Snapshot struct {
	values [fieldCount]Value
}

// Get returns the value of f.  Unknown fields read as empty.
func (s Snapshot) Get(f Field) Value {
	if !f.Valid() {
		return Value{}
	}
	return s.values[f]
}

// Set stores v under f.
func (s *Snapshot) Set(f Field, v Value) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownField, int(f))
	}
	s.values[f] = v
	return nil
}

// With returns a copy of s with f set to v.  Unknown fields are ignored.
func (s Snapshot) With(f Field, v Value) Snapshot {
	_ = s.Set(f, v)
	return s
}

// MarshalJSON writes every recognized field, in declaration order.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for f := Field(0); f < fieldCount; f++ {
		if f > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(fieldNames[f])
		buf.Write(key)
		buf.WriteByte(':')
		val, err := s.values[f].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keyed by field name.  Missing keys decode as
// empty; unknown keys fail with ErrUnknownField.
func (s *Snapshot) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var out Snapshot
	for name, msg := range raw {
		f, err := ParseField(name)
		if err != nil {
			return err
		}
		var v Value
		if err := v.UnmarshalJSON(msg); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		out.values[f] = v
	}
	*s = out
	return nil
}

// -----------------------------------------------------------------------------
// Schema
// -----------------------------------------------------------------------------

// Schema is the ordered list of fields one form variant renders and
// validates.
type Schema []Field

var (
	// ProjectSchema is the standard create/edit project form.
	ProjectSchema = Schema{FieldName, FieldDescription, FieldBeneficiaries, FieldStartDate, FieldEndDate}

	// ExtendedProjectSchema is the autosaving variant with status, budget,
	// and main KPI inputs.
	ExtendedProjectSchema = Schema{
		FieldName, FieldDescription, FieldBeneficiaries, FieldStartDate, FieldEndDate,
		FieldStatus, FieldBudget, FieldMainKPI,
	}
)

// Has reports whether f belongs to the schema.
func (sc Schema) Has(f Field) bool {
	for _, g := range sc {
		if g == f {
			return true
		}
	}
	return false
}
