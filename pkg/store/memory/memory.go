// Package memory provides an in-memory implementation of the
// [github.com/caseplanhq/caseplan/pkg/store.Store] interface.
//
// It backs the handler and store tests and is handy for local demos without
// a database. All operations copy records on the way in and out, so callers
// never share memory with the store. Semantics mirror the PostgreSQL
// backend, including the username/email uniqueness errors and the replace-all
// selection rebuild on update.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/caseplanhq/caseplan/pkg/models"
	"github.com/caseplanhq/caseplan/pkg/store"
)

// MemoryStore implements the Store interface with mutex-guarded maps.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[models.UserID]*models.User
	casePlans  map[models.CasePlanID]*models.CasePlan
	selections map[models.CasePlanID][]models.DomainRiskLevel
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[models.UserID]*models.User),
		casePlans:  make(map[models.CasePlanID]*models.CasePlan),
		selections: make(map[models.CasePlanID][]models.DomainRiskLevel),
	}
}

// Migrate is a no-op for the in-memory store.
func (s *MemoryStore) Migrate(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func copyUser(u *models.User) *models.User {
	c := *u
	return &c
}

func copyCasePlan(p *models.CasePlan) *models.CasePlan {
	c := *p
	c.User = nil
	c.DomainSelections = make([]models.DomainRiskLevel, len(p.DomainSelections))
	copy(c.DomainSelections, p.DomainSelections)
	return &c
}

// User operations

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return fmt.Errorf("duplicate key: username %q already exists", user.Username)
		}
		if existing.Email == user.Email {
			return fmt.Errorf("duplicate key: email %q already exists", user.Email)
		}
	}

	if user.ID.IsZero() {
		user.ID = models.NewUserID()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(user), nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return copyUser(user), nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, nil
}

// Case plan operations

func (s *MemoryStore) CreateCasePlan(ctx context.Context, casePlan *models.CasePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if casePlan.ID.IsZero() {
		casePlan.ID = models.NewCasePlanID()
	}
	now := time.Now()
	if casePlan.CreatedAt.IsZero() {
		casePlan.CreatedAt = now
	}
	casePlan.UpdatedAt = now

	selections := models.SelectionsFromDocument(casePlan.ID, casePlan.PlanData)
	for i := range selections {
		selections[i].ID = models.NewDomainRiskLevelID()
	}
	casePlan.DomainSelections = selections

	s.casePlans[casePlan.ID] = copyCasePlan(casePlan)
	s.selections[casePlan.ID] = append([]models.DomainRiskLevel(nil), selections...)
	return nil
}

func (s *MemoryStore) GetCasePlan(ctx context.Context, ownerID models.UserID, id models.CasePlanID) (*models.CasePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	casePlan, ok := s.casePlans[id]
	if !ok || casePlan.UserID != ownerID {
		return nil, nil
	}
	return copyCasePlan(casePlan), nil
}

func (s *MemoryStore) ListCasePlans(ctx context.Context, ownerID models.UserID) ([]*models.CasePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var casePlans []*models.CasePlan
	for _, casePlan := range s.casePlans {
		if casePlan.UserID == ownerID {
			casePlans = append(casePlans, copyCasePlan(casePlan))
		}
	}
	sort.Slice(casePlans, func(i, j int) bool {
		return casePlans[i].UpdatedAt.After(casePlans[j].UpdatedAt)
	})
	return casePlans, nil
}

func (s *MemoryStore) UpdateCasePlan(ctx context.Context, ownerID models.UserID, casePlan *models.CasePlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.casePlans[casePlan.ID]
	if !ok || existing.UserID != ownerID {
		return store.ErrNotFound
	}

	existing.PlanData = casePlan.PlanData
	existing.Title = casePlan.PlanData.PlanTitle
	existing.ClientName = casePlan.PlanData.ClientName
	existing.UpdatedAt = time.Now()

	selections := models.SelectionsFromDocument(existing.ID, existing.PlanData)
	for i := range selections {
		selections[i].ID = models.NewDomainRiskLevelID()
	}
	existing.DomainSelections = selections
	s.selections[existing.ID] = append([]models.DomainRiskLevel(nil), selections...)

	updated := copyCasePlan(existing)
	*casePlan = *updated
	return nil
}

func (s *MemoryStore) DeleteCasePlan(ctx context.Context, ownerID models.UserID, id models.CasePlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.casePlans[id]
	if !ok || existing.UserID != ownerID {
		return store.ErrNotFound
	}

	delete(s.casePlans, id)
	delete(s.selections, id)
	return nil
}

func (s *MemoryStore) ListDomainSelections(ctx context.Context, casePlanID models.CasePlanID) ([]*models.DomainRiskLevel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.selections[casePlanID]
	selections := make([]*models.DomainRiskLevel, 0, len(stored))
	for i := range stored {
		sel := stored[i]
		selections = append(selections, &sel)
	}
	return selections, nil
}
