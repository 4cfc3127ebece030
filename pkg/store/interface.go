// Package store provides the data persistence layer abstraction for the
// caseplan application.
//
// The [Store] interface implements the repository pattern over the three
// persisted entities. Two production backends exist:
//
//   - [github.com/caseplanhq/caseplan/pkg/store/postgres.PostgresStore]: GORM
//     over PostgreSQL, with ACID transactions and foreign keys enforcing the
//     CasePlan → DomainRiskLevel cascade.
//   - [github.com/caseplanhq/caseplan/pkg/store/surrealdb.SurrealStore]:
//     SurrealDB via the surrealcbor codec, with the cascade implemented in
//     parameterized SurrealQL.
//
// A third, [github.com/caseplanhq/caseplan/pkg/store/memory.MemoryStore],
// backs tests and demos without a database.
//
// # Ownership scoping
//
// Every case plan read and write takes the owner's UserID and filters on it.
// A plan that exists but belongs to someone else is reported exactly like a
// plan that does not exist: Get returns nil, Update and Delete return
// [ErrNotFound]. Callers can never distinguish "not yours" from "not there".
package store

import (
	"context"
	"errors"

	"github.com/caseplanhq/caseplan/pkg/models"
)

// ErrNotFound reports a case plan that is missing or not owned by the caller.
var ErrNotFound = errors.New("case plan not found")

// Store is the persistence interface for users and case plans.
//
// Get-style operations return (nil, nil) when the record is absent; only
// infrastructure failures produce errors. Update and Delete distinguish the
// absent case with [ErrNotFound] so handlers can answer 404 without a prior
// read.
type Store interface {
	// Migrate initializes or updates the backend schema.
	Migrate(ctx context.Context) error
	// Close releases the backend connection.
	Close() error

	// CreateUser inserts a new user. Username and email uniqueness is
	// enforced by the backend.
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id models.UserID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// CreateCasePlan inserts the plan row and one DomainRiskLevel row per
	// entry in PlanData.Domains, atomically: either all rows commit or none.
	CreateCasePlan(ctx context.Context, casePlan *models.CasePlan) error
	GetCasePlan(ctx context.Context, ownerID models.UserID, id models.CasePlanID) (*models.CasePlan, error)
	// ListCasePlans returns the owner's plans, newest UpdatedAt first.
	ListCasePlans(ctx context.Context, ownerID models.UserID) ([]*models.CasePlan, error)
	// UpdateCasePlan replaces PlanData wholesale, refreshes the denormalized
	// Title and ClientName, touches UpdatedAt, and replaces the child
	// DomainRiskLevel rows to match the new document.
	UpdateCasePlan(ctx context.Context, ownerID models.UserID, casePlan *models.CasePlan) error
	// DeleteCasePlan removes the plan and, by cascade, all of its
	// DomainRiskLevel children.
	DeleteCasePlan(ctx context.Context, ownerID models.UserID, id models.CasePlanID) error
	// ListDomainSelections returns the DomainRiskLevel rows of a plan.
	ListDomainSelections(ctx context.Context, casePlanID models.CasePlanID) ([]*models.DomainRiskLevel, error)
}
