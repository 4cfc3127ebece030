package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	surrealdb_models "github.com/surrealdb/surrealdb.go/pkg/models"
)

// UserID is a typed ID for users
type UserID struct {
	uuid uuid.UUID
}

func NewUserID() UserID {
	return UserID{uuid: uuid.New()}
}

func NewUserIDFromUUID(id uuid.UUID) UserID {
	return UserID{uuid: id}
}

func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user ID: %w", err)
	}
	return UserID{uuid: id}, nil
}

func (u UserID) UUID() uuid.UUID { return u.uuid }
func (u UserID) String() string  { return u.uuid.String() }
func (u UserID) IsZero() bool    { return u.uuid == uuid.Nil }

func (u UserID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "users",
		ID:    u.uuid.String(),
	}
}

func (u UserID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.uuid.String())
}

func (u *UserID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	u.uuid = id
	return nil
}

func (u UserID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"users", u.uuid.String()},
	})
}

func (u *UserID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "users", &u.uuid)
}

func (u UserID) Value() (driver.Value, error) {
	if u.IsZero() {
		return nil, nil
	}
	return u.uuid.String(), nil
}

func (u *UserID) Scan(value any) error {
	return scanUUID(value, &u.uuid)
}

func (UserID) GormDataType() string { return "uuid" }

// CasePlanID is a typed ID for case plans.
// The zero value doubles as the "new plan" sentinel: an edit addressed to the
// zero ID performs a create instead of an update.
type CasePlanID struct {
	uuid uuid.UUID
}

func NewCasePlanID() CasePlanID {
	return CasePlanID{uuid: uuid.New()}
}

func NewCasePlanIDFromUUID(id uuid.UUID) CasePlanID {
	return CasePlanID{uuid: id}
}

func ParseCasePlanID(s string) (CasePlanID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CasePlanID{}, fmt.Errorf("invalid case plan ID: %w", err)
	}
	return CasePlanID{uuid: id}, nil
}

func (c CasePlanID) UUID() uuid.UUID { return c.uuid }
func (c CasePlanID) String() string  { return c.uuid.String() }
func (c CasePlanID) IsZero() bool    { return c.uuid == uuid.Nil }

func (c CasePlanID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "case_plans",
		ID:    c.uuid.String(),
	}
}

func (c CasePlanID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.uuid.String())
}

func (c *CasePlanID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	c.uuid = id
	return nil
}

func (c CasePlanID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"case_plans", c.uuid.String()},
	})
}

func (c *CasePlanID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "case_plans", &c.uuid)
}

func (c CasePlanID) Value() (driver.Value, error) {
	if c.IsZero() {
		return nil, nil
	}
	return c.uuid.String(), nil
}

func (c *CasePlanID) Scan(value any) error {
	return scanUUID(value, &c.uuid)
}

func (CasePlanID) GormDataType() string { return "uuid" }

// DomainRiskLevelID is a typed ID for per-domain risk level selections
type DomainRiskLevelID struct {
	uuid uuid.UUID
}

func NewDomainRiskLevelID() DomainRiskLevelID {
	return DomainRiskLevelID{uuid: uuid.New()}
}

func ParseDomainRiskLevelID(s string) (DomainRiskLevelID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return DomainRiskLevelID{}, fmt.Errorf("invalid domain risk level ID: %w", err)
	}
	return DomainRiskLevelID{uuid: id}, nil
}

func (d DomainRiskLevelID) UUID() uuid.UUID { return d.uuid }
func (d DomainRiskLevelID) String() string  { return d.uuid.String() }
func (d DomainRiskLevelID) IsZero() bool    { return d.uuid == uuid.Nil }

func (d DomainRiskLevelID) RecordID() surrealdb_models.RecordID {
	return surrealdb_models.RecordID{
		Table: "domain_risk_levels",
		ID:    d.uuid.String(),
	}
}

func (d DomainRiskLevelID) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.uuid.String())
}

func (d *DomainRiskLevelID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	d.uuid = id
	return nil
}

func (d DomainRiskLevelID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(cbor.Tag{
		Number:  8,
		Content: []any{"domain_risk_levels", d.uuid.String()},
	})
}

func (d *DomainRiskLevelID) UnmarshalCBOR(data []byte) error {
	return unmarshalCBORID(data, "domain_risk_levels", &d.uuid)
}

func (d DomainRiskLevelID) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.uuid.String(), nil
}

func (d *DomainRiskLevelID) Scan(value any) error {
	return scanUUID(value, &d.uuid)
}

func (DomainRiskLevelID) GormDataType() string { return "uuid" }

// Helper functions

// scanUUID is a helper for implementing sql.Scanner interface for PostgreSQL/GORM
func scanUUID(value any, target *uuid.UUID) error {
	if value == nil {
		*target = uuid.Nil
		return nil
	}

	switch v := value.(type) {
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return err
		}
		*target = id
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return err
		}
		*target = id
	default:
		return fmt.Errorf("cannot scan type %T into UUID", value)
	}
	return nil
}

// unmarshalCBORID is a helper for unmarshaling SurrealDB RecordID from CBOR.
// SurrealDB uses CBOR tag 8 to identify RecordID types in its binary protocol.
// The RecordID is encoded as [table_name, id_string] within the tag.
func unmarshalCBORID(data []byte, expectedTable string, target *uuid.UUID) error {
	if len(data) == 0 {
		return fmt.Errorf("empty CBOR data")
	}

	// Check if this is a CBOR tag (major type 6)
	majorType := data[0] >> 5
	if majorType != 6 {
		return fmt.Errorf("expected CBOR tag for RecordID, got major type %d", majorType)
	}

	var tag cbor.Tag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to unmarshal CBOR tag: %w", err)
	}

	// SurrealDB uses tag 8 for RecordID
	if tag.Number != 8 {
		return fmt.Errorf("expected RecordID tag (8), got %d", tag.Number)
	}

	arr, ok := tag.Content.([]any)
	if !ok || len(arr) != 2 {
		return fmt.Errorf("invalid RecordID format: expected [table, id] array")
	}

	table, ok := arr[0].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: table name must be string")
	}

	if table != expectedTable {
		return fmt.Errorf("expected table %s, got %s", expectedTable, table)
	}

	idStr, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid RecordID format: ID must be string")
	}

	parsedUUID, err := uuid.Parse(idStr)
	if err != nil {
		return fmt.Errorf("invalid UUID in RecordID: %w", err)
	}

	*target = parsedUUID
	return nil
}
