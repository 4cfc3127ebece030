package plan

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// DomainPlan is one assembled domain entry: the domain identity, the selected
// risk level, and the template text copied verbatim.
type DomainPlan struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	RiskLevel  RiskLevel `json:"risk_level"`
	Goals      []string  `json:"goals"`
	Objectives []string  `json:"objectives"`
	Tasks      []string  `json:"tasks"`
}

// Document is a fully assembled case plan. It is both the JSON response of
// the generate endpoint and the persisted plan_data payload of a saved
// CasePlan, so the wire shape and the stored shape never diverge.
type Document struct {
	Domains     []DomainPlan `json:"domains"`
	ClientName  string       `json:"client_name"`
	PlanTitle   string       `json:"plan_title"`
	CreatedDate string       `json:"created_date"`
}

// Value implements the driver.Valuer interface so a Document can be stored
// in a JSONB column.
func (d Document) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface for database retrieval
func (d *Document) Scan(value any) error {
	if value == nil {
		*d = Document{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("cannot scan type %T into plan.Document", value)
		}
		bytes = []byte(s)
	}
	return json.Unmarshal(bytes, d)
}

// GormDataType maps Document to a JSONB column.
func (Document) GormDataType() string { return "jsonb" }
