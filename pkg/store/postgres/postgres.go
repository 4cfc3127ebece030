// Package postgres provides the PostgreSQL implementation of the
// [github.com/caseplanhq/caseplan/pkg/store.Store] interface using GORM.
//
// The schema maps the models directly: users, case_plans (with a JSONB
// plan_data column) and domain_risk_levels, with a foreign key from
// case_plans to users and an ON DELETE CASCADE foreign key from
// domain_risk_levels to case_plans. [PostgresStore.Migrate] creates all of it
// through GORM's AutoMigrate.
//
// The multi-row operations — creating a plan with its selection rows,
// replacing a plan's document and selections on update, deleting a plan with
// its children — run inside GORM transactions so they commit or roll back as
// a unit. Concurrent edits to the same plan are resolved by the database's
// transaction isolation; the application adds no locking, so the last writer
// wins.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/caseplanhq/caseplan/pkg/models"
	"github.com/caseplanhq/caseplan/pkg/store"
)

// PostgresStore implements the Store interface using PostgreSQL with GORM.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to PostgreSQL and returns the store.
func NewPostgresStore(dsn string) (store.Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Migrate creates or updates the schema for all models. Safe to run
// repeatedly; AutoMigrate only adds missing schema elements.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.CasePlan{},
		&models.DomainRiskLevel{},
	)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// User operations

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *PostgresStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Case plan operations

// CreateCasePlan inserts the plan and one DomainRiskLevel row per domain in
// its document. GORM writes the associated rows within the same transaction,
// so either everything commits or nothing does.
func (s *PostgresStore) CreateCasePlan(ctx context.Context, casePlan *models.CasePlan) error {
	if casePlan.ID.IsZero() {
		casePlan.ID = models.NewCasePlanID()
	}
	casePlan.DomainSelections = models.SelectionsFromDocument(casePlan.ID, casePlan.PlanData)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(casePlan).Error
	})
}

func (s *PostgresStore) GetCasePlan(ctx context.Context, ownerID models.UserID, id models.CasePlanID) (*models.CasePlan, error) {
	var casePlan models.CasePlan
	err := s.db.WithContext(ctx).
		Preload("DomainSelections").
		First(&casePlan, "id = ? AND user_id = ?", id, ownerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &casePlan, nil
}

func (s *PostgresStore) ListCasePlans(ctx context.Context, ownerID models.UserID) ([]*models.CasePlan, error) {
	var casePlans []*models.CasePlan
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&casePlans).Error
	return casePlans, err
}

// UpdateCasePlan replaces the stored document, refreshes the denormalized
// title and client name from it, and rebuilds the DomainRiskLevel rows, all
// in one transaction. Returns store.ErrNotFound when the plan is missing or
// owned by someone else.
func (s *PostgresStore) UpdateCasePlan(ctx context.Context, ownerID models.UserID, casePlan *models.CasePlan) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.CasePlan
		err := tx.First(&existing, "id = ? AND user_id = ?", casePlan.ID, ownerID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrNotFound
			}
			return err
		}

		existing.PlanData = casePlan.PlanData
		existing.Title = casePlan.PlanData.PlanTitle
		existing.ClientName = casePlan.PlanData.ClientName
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}

		// Replace the selection rows so they always mirror the document.
		if err := tx.Where("case_plan_id = ?", existing.ID).
			Delete(&models.DomainRiskLevel{}).Error; err != nil {
			return err
		}
		selections := models.SelectionsFromDocument(existing.ID, existing.PlanData)
		if len(selections) > 0 {
			if err := tx.Create(&selections).Error; err != nil {
				return err
			}
		}

		casePlan.Title = existing.Title
		casePlan.ClientName = existing.ClientName
		casePlan.UserID = existing.UserID
		casePlan.CreatedAt = existing.CreatedAt
		casePlan.UpdatedAt = existing.UpdatedAt
		casePlan.DomainSelections = selections
		return nil
	})
}

// DeleteCasePlan removes the plan and its DomainRiskLevel children. The
// children are deleted explicitly inside the transaction rather than relying
// on the database constraint alone. Returns store.ErrNotFound when the plan
// is missing or owned by someone else.
func (s *PostgresStore) DeleteCasePlan(ctx context.Context, ownerID models.UserID, id models.CasePlanID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.CasePlan{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return store.ErrNotFound
		}
		return tx.Where("case_plan_id = ?", id).Delete(&models.DomainRiskLevel{}).Error
	})
}

func (s *PostgresStore) ListDomainSelections(ctx context.Context, casePlanID models.CasePlanID) ([]*models.DomainRiskLevel, error) {
	var selections []*models.DomainRiskLevel
	err := s.db.WithContext(ctx).
		Where("case_plan_id = ?", casePlanID).
		Find(&selections).Error
	return selections, err
}
