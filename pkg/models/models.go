// Package models defines the persisted entities of the case plan service and
// their typed IDs.
//
// Three entities form an ownership chain: a [User] owns zero or more
// [CasePlan] records, and each CasePlan exclusively owns its
// [DomainRiskLevel] children, which are deleted with it. The assembled plan
// itself is stored denormalized in CasePlan.PlanData as a
// [github.com/caseplanhq/caseplan/pkg/plan.Document]; the DomainRiskLevel
// rows record the same selections relationally so plans can be queried by
// domain and risk level.
package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/caseplanhq/caseplan/pkg/plan"
)

// User is an account that owns case plans. Only the bcrypt hash of the
// password is ever stored, and it is excluded from JSON serialization.
type User struct {
	ID           UserID    `gorm:"type:uuid;primary_key" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID.IsZero() {
		u.ID = NewUserID()
	}
	return nil
}

// CasePlan is a saved, user-owned plan document. Title and ClientName are
// denormalized from PlanData so lists render without unpacking the document.
type CasePlan struct {
	ID         CasePlanID    `gorm:"type:uuid;primary_key" json:"id"`
	Title      string        `gorm:"not null" json:"title"`
	ClientName string        `gorm:"not null" json:"client_name"`
	UserID     UserID        `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PlanData   plan.Document `gorm:"type:jsonb;not null" json:"plan_data"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	// DomainSelections are deleted with the plan; no orphans.
	DomainSelections []DomainRiskLevel `gorm:"foreignKey:CasePlanID;constraint:OnDelete:CASCADE" json:"domain_selections,omitempty"`
}

// BeforeCreate hook to generate ID if not set
func (c *CasePlan) BeforeCreate(tx *gorm.DB) error {
	if c.ID.IsZero() {
		c.ID = NewCasePlanID()
	}
	return nil
}

// DomainRiskLevel records one domain's selection within a saved case plan,
// e.g. domain "criminal_history" at risk level "High".
type DomainRiskLevel struct {
	ID         DomainRiskLevelID `gorm:"type:uuid;primary_key" json:"id"`
	CasePlanID CasePlanID        `gorm:"type:uuid;not null;index" json:"case_plan_id"`
	DomainID   string            `gorm:"not null" json:"domain_id"`
	DomainName string            `gorm:"not null" json:"domain_name"`
	RiskLevel  plan.RiskLevel    `gorm:"not null" json:"risk_level"`
}

// BeforeCreate hook to generate ID if not set
func (d *DomainRiskLevel) BeforeCreate(tx *gorm.DB) error {
	if d.ID.IsZero() {
		d.ID = NewDomainRiskLevelID()
	}
	return nil
}

// SelectionsFromDocument derives the DomainRiskLevel rows for a plan
// document, one per assembled domain entry.
func SelectionsFromDocument(planID CasePlanID, doc plan.Document) []DomainRiskLevel {
	selections := make([]DomainRiskLevel, 0, len(doc.Domains))
	for _, d := range doc.Domains {
		selections = append(selections, DomainRiskLevel{
			CasePlanID: planID,
			DomainID:   d.ID,
			DomainName: d.Name,
			RiskLevel:  d.RiskLevel,
		})
	}
	return selections
}
