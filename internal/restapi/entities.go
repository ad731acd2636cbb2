package restapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies a backend record.  json-server hands out numeric IDs, newer
// versions hand out strings; both decode into ID and numeric IDs encode back
// as numbers.
type ID string

// MarshalJSON writes numeric IDs as JSON numbers.
func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a number or a string.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Entity is implemented by every record type a Collection can hold.
type Entity[T any] interface {
	EntityID() ID
	WithID(ID) T
}

// Project is a nonprofit project.
type Project struct {
	ID            ID       `json:"id,omitempty"`
	Name          string   `json:"name"                validate:"required,max=100"`
	Description   string   `json:"description"         validate:"required,max=500"`
	Beneficiaries int      `json:"beneficiaries"       validate:"gte=0"`
	StartDate     string   `json:"startDate"           validate:"required,datetime=2006-01-02"`
	EndDate       string   `json:"endDate,omitempty"   validate:"omitempty,datetime=2006-01-02"`
	ManagerID     ID       `json:"managerId,omitempty"`
	Status        string   `json:"status,omitempty"    validate:"omitempty,oneof=planned active completed"`
	Budget        *float64 `json:"budget,omitempty"    validate:"omitempty,gte=0"`
	MainKPI       *float64 `json:"mainKPI,omitempty"   validate:"omitempty,gte=0"`
}

func (p Project) EntityID() ID { return p.ID }
func (p Project) WithID(id ID) Project { p.ID = id; return p }

// Donor is an individual or organisation that funds projects.
type Donor struct {
	ID                 ID      `json:"id,omitempty"`
	Name               string  `json:"name"               validate:"required"`
	Email              string  `json:"email"              validate:"required,email"`
	Phone              string  `json:"phone,omitempty"`
	ContributionAmount float64 `json:"contributionAmount" validate:"gte=0"`
}

func (d Donor) EntityID() ID { return d.ID }
func (d Donor) WithID(id ID) Donor { d.ID = id; return d }

// ImpactEntry records one measured outcome of a project.
type ImpactEntry struct {
	ID        ID      `json:"id,omitempty"`
	ProjectID ID      `json:"projectId" validate:"required"`
	Metric    string  `json:"metric"    validate:"required"`
	Value     float64 `json:"value"`
	Date      string  `json:"date"      validate:"required,datetime=2006-01-02"`
}

func (e ImpactEntry) EntityID() ID { return e.ID }
func (e ImpactEntry) WithID(id ID) ImpactEntry { e.ID = id; return e }

// Setting is one dashboard preference.
type Setting struct {
	ID    ID     `json:"id,omitempty"`
	Key   string `json:"key"   validate:"required"`
	Value string `json:"value"`
}

func (s Setting) EntityID() ID { return s.ID }
func (s Setting) WithID(id ID) Setting { s.ID = id; return s }
