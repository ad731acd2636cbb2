// internal/form/rules.go
//
// Impact – Forms subsystem: validation rules and YAML overrides.
//
// Context
//   The per-field constraints (lengths, numeric ranges, the name pattern,
//   and the allowed statuses) are data, not code.  DefaultRules holds the
//   values the dashboard ships with.  Operators may override any subset of
//   them with a YAML file; LoadRules starts from the defaults, overlays the
//   file, and validates structural rules so a bad file fails at boot rather
//   than at the first keystroke.
//
// Workflow
//   •  DefaultRules returns the built-in constraints.
//   •  LoadRules parses one YAML file over the defaults and checks it.
//   •  NewValidator (validate.go) compiles the pattern once.
//
// Style
//   Comments follow the project guide: full sentences, two spaces after
//   periods, Oxford commas.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// TextRule constrains a free-text field.  Lengths count runes of the trimmed
// value; zero means unset.
type TextRule struct {
	Required  bool   `yaml:"required"`
	MinLength int    `yaml:"minlength"`
	MaxLength int    `yaml:"maxlength"`
	Pattern   string `yaml:"pattern"` // Regex, optional.
}

// RangeRule constrains a numeric field.  HasMax false means no upper bound.
type RangeRule struct {
	Required bool    `yaml:"required"`
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
	HasMax   bool    `yaml:"has_max"`
	Integer  bool    `yaml:"integer"`
}

// Rules is the full constraint set for the project form.
type Rules struct {
	Name          TextRule  `yaml:"name"`
	Description   TextRule  `yaml:"description"`
	Beneficiaries RangeRule `yaml:"beneficiaries"`
	Budget        RangeRule `yaml:"budget"`
	MainKPI       RangeRule `yaml:"mainKPI"`
	Statuses      []string  `yaml:"statuses"`
}

// DefaultRules returns the shipped constraints.
func DefaultRules() Rules {
	return Rules{
		Name: TextRule{
			Required:  true,
			MinLength: 3,
			MaxLength: 100,
			Pattern:   `^[a-zA-Z0-9\s_.()-]+$`,
		},
		Description: TextRule{
			Required:  true,
			MinLength: 10,
			MaxLength: 500,
		},
		Beneficiaries: RangeRule{
			Required: true,
			Min:      1,
			Max:      1_000_000,
			HasMax:   true,
			Integer:  true,
		},
		Budget:   RangeRule{Min: 0},
		MainKPI:  RangeRule{Min: 0},
		Statuses: []string{"planned", "active", "completed"},
	}
}

// LoadRules parses a YAML override file on top of DefaultRules.  Keys absent
// from the file keep their default value.
//
// Example:
//
//	name:
//	  maxlength: 80
//	beneficiaries:
//	  max: 50000
func LoadRules(path string) (Rules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file %s: %w", path, err)
	}

	rules := DefaultRules()
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse YAML %s: %w", path, err)
	}

	if err := rules.Check(); err != nil {
		return Rules{}, fmt.Errorf("rules %s: %w", path, err)
	}
	return rules, nil
}

// Check enforces structural rules that YAML tags cannot express.
func (r Rules) Check() error {
	if err := checkText("name", r.Name); err != nil {
		return err
	}
	if err := checkText("description", r.Description); err != nil {
		return err
	}
	for name, rr := range map[string]RangeRule{
		"beneficiaries": r.Beneficiaries,
		"budget":        r.Budget,
		"mainKPI":       r.MainKPI,
	} {
		if rr.HasMax && rr.Min > rr.Max {
			return fmt.Errorf("field '%s' min greater than max", name)
		}
	}
	if len(r.Statuses) == 0 {
		return fmt.Errorf("at least one status is required")
	}
	return nil
}

func checkText(name string, t TextRule) error {
	if t.MinLength < 0 || t.MaxLength < 0 {
		return fmt.Errorf("field '%s' minlength/maxlength cannot be negative", name)
	}
	if t.MaxLength > 0 && t.MinLength > t.MaxLength {
		return fmt.Errorf("field '%s' minlength greater than maxlength", name)
	}
	if t.Pattern != "" {
		if _, err := regexp.Compile(t.Pattern); err != nil {
			return fmt.Errorf("field '%s' invalid regex pattern: %v", name, err)
		}
	}
	return nil
}
