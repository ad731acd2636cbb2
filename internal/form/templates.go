// internal/form/templates.go
//
// Impact – Forms subsystem: project templates for one-click autofill.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTemplate is returned by ApplyTemplate for names not in
// Templates.
var ErrUnknownTemplate = errors.New("unknown project template")

// Template prefills the core descriptive fields of a project.
type Template struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Beneficiaries int    `json:"beneficiaries"`
}

// Templates holds the built-in project types, keyed by slug.
var Templates = map[string]Template{
	"education": {
		Name:          "Education Support Program",
		Description:   "Providing educational resources and support to improve learning outcomes in underserved communities",
		Beneficiaries: 100,
	},
	"healthcare": {
		Name:          "Community Health Initiative",
		Description:   "Delivering essential healthcare services and health education to improve community wellbeing",
		Beneficiaries: 250,
	},
	"environment": {
		Name:          "Environmental Conservation Project",
		Description:   "Implementing sustainable practices and conservation efforts to protect local ecosystems",
		Beneficiaries: 500,
	},
	"infrastructure": {
		Name:          "Community Infrastructure Development",
		Description:   "Building and improving essential infrastructure to enhance quality of life in the community",
		Beneficiaries: 1000,
	},
}

// TemplateNames returns the template slugs sorted alphabetically.
func TemplateNames() []string {
	out := make([]string, 0, len(Templates))
	for k := range Templates {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func lookupTemplate(name string) (Template, error) {
	t, ok := Templates[name]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	return t, nil
}

func (t Template) values() []struct {
	f Field
	v Value
} {
	return []struct {
		f Field
		v Value
	}{
		{FieldName, Text(t.Name)},
		{FieldDescription, Text(t.Description)},
		{FieldBeneficiaries, Int(t.Beneficiaries)},
	}
}
