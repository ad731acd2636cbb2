package restapi

import (
	"context"
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/yanizio/impact/internal/form"
)

// ProjectPersister stores submitted project forms through the optimistic
// project list, so the new or edited project shows up before the backend
// answers.
type ProjectPersister struct {
	list  *Collection[Project]
	strip *bluemonday.Policy
}

// NewProjectPersister wraps the project collection.
func NewProjectPersister(list *Collection[Project]) *ProjectPersister {
	return &ProjectPersister{list: list, strip: bluemonday.StrictPolicy()}
}

// Persist creates or updates a project from sub.
func (p *ProjectPersister) Persist(ctx context.Context, sub form.Submission) error {
	proj := p.FromSnapshot(sub.Values)

	switch sub.Mode {
	case form.ModeUpdate:
		if sub.ID == "" {
			return fmt.Errorf("update project: missing id")
		}
		id := ID(sub.ID)
		if existing, ok := p.list.Find(id); ok {
			proj.ManagerID = existing.ManagerID
		}
		if _, err := p.list.Update(ctx, id, proj); err != nil {
			return fmt.Errorf("update project %s: %w", id, err)
		}
	default:
		if _, err := p.list.Create(ctx, proj); err != nil {
			return fmt.Errorf("create project: %w", err)
		}
	}
	return nil
}

// FromSnapshot converts validated form values into the wire record.  Free
// text is trimmed and stripped of markup.
func (p *ProjectPersister) FromSnapshot(snap form.Snapshot) Project {
	proj := Project{
		Name:        strings.TrimSpace(snap.Get(form.FieldName).String()),
		Description: p.plainText(snap.Get(form.FieldDescription).String()),
		StartDate:   strings.TrimSpace(snap.Get(form.FieldStartDate).String()),
		EndDate:     strings.TrimSpace(snap.Get(form.FieldEndDate).String()),
		Status:      strings.TrimSpace(snap.Get(form.FieldStatus).String()),
	}
	if n, ok := snap.Get(form.FieldBeneficiaries).Float(); ok {
		proj.Beneficiaries = int(math.Round(n))
	}
	if n, ok := snap.Get(form.FieldBudget).Float(); ok {
		proj.Budget = &n
	}
	if n, ok := snap.Get(form.FieldMainKPI).Float(); ok {
		proj.MainKPI = &n
	}
	return proj
}

func (p *ProjectPersister) plainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(p.strip.Sanitize(s)))
}

// ProjectSnapshot seeds a form from an existing project (edit mode).
func ProjectSnapshot(pr Project) form.Snapshot {
	snap := form.Snapshot{}.
		With(form.FieldName, form.Text(pr.Name)).
		With(form.FieldDescription, form.Text(pr.Description)).
		With(form.FieldStartDate, form.Text(pr.StartDate)).
		With(form.FieldEndDate, form.Text(pr.EndDate))
	if pr.Beneficiaries > 0 {
		snap = snap.With(form.FieldBeneficiaries, form.Int(pr.Beneficiaries))
	}
	if pr.Status != "" {
		snap = snap.With(form.FieldStatus, form.Text(pr.Status))
	}
	if pr.Budget != nil {
		snap = snap.With(form.FieldBudget, form.Number(*pr.Budget))
	}
	if pr.MainKPI != nil {
		snap = snap.With(form.FieldMainKPI, form.Number(*pr.MainKPI))
	}
	return snap
}
