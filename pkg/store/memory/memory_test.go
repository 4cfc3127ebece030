package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/caseplanhq/caseplan/pkg/models"
	"github.com/caseplanhq/caseplan/pkg/plan"
	"github.com/caseplanhq/caseplan/pkg/store"
)

func newUser(t *testing.T, s *MemoryStore, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	require.False(t, user.ID.IsZero())
	return user
}

func sampleDocument(clientName string) plan.Document {
	return plan.Document{
		Domains: []plan.DomainPlan{
			{
				ID:         "housing",
				Name:       "Housing",
				RiskLevel:  plan.RiskHigh,
				Goals:      []string{"Secure stable housing"},
				Objectives: []string{"Obtain lease"},
				Tasks:      []string{"Apply for listings"},
			},
		},
		ClientName:  clientName,
		PlanTitle:   "Case Plan",
		CreatedDate: "2026-08-28",
	}
}

func newCasePlan(t *testing.T, s *MemoryStore, owner *models.User, doc plan.Document) *models.CasePlan {
	t.Helper()
	casePlan := &models.CasePlan{
		Title:      doc.PlanTitle,
		ClientName: doc.ClientName,
		UserID:     owner.ID,
		PlanData:   doc,
	}
	require.NoError(t, s.CreateCasePlan(context.Background(), casePlan))
	return casePlan
}

func TestUserUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	newUser(t, s, "alice")

	err := s.CreateUser(ctx, &models.User{Username: "alice", Email: "other@example.com", PasswordHash: "hash"})
	require.ErrorContains(t, err, "duplicate key")

	err = s.CreateUser(ctx, &models.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "hash"})
	require.ErrorContains(t, err, "duplicate key")
}

func TestUserLookups(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice := newUser(t, s, "alice")

	byID, err := s.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	require.Equal(t, "alice", byID.Username)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	require.Equal(t, alice.ID, byName.ID)

	byEmail, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	require.Equal(t, alice.ID, byEmail.ID)

	missing, err := s.GetUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestCasePlanRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice := newUser(t, s, "alice")

	created := newCasePlan(t, s, alice, sampleDocument("Jane Doe"))
	require.False(t, created.ID.IsZero())
	require.Len(t, created.DomainSelections, 1)

	got, err := s.GetCasePlan(ctx, alice.ID, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "Jane Doe", got.ClientName)
	require.Equal(t, sampleDocument("Jane Doe"), got.PlanData)

	selections, err := s.ListDomainSelections(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, selections, 1)
	require.Equal(t, "housing", selections[0].DomainID)
	require.Equal(t, plan.RiskHigh, selections[0].RiskLevel)
	require.Equal(t, created.ID, selections[0].CasePlanID)
}

func TestCasePlanOwnershipScoping(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice := newUser(t, s, "alice")
	bob := newUser(t, s, "bob")

	created := newCasePlan(t, s, alice, sampleDocument("Jane Doe"))

	// Another owner's plan looks exactly like a nonexistent one.
	got, err := s.GetCasePlan(ctx, bob.ID, created.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	missing, err := s.GetCasePlan(ctx, alice.ID, models.NewCasePlanID())
	require.NoError(t, err)
	require.Nil(t, missing)

	update := *created
	err = s.UpdateCasePlan(ctx, bob.ID, &update)
	require.ErrorIs(t, err, store.ErrNotFound)

	err = s.DeleteCasePlan(ctx, bob.ID, created.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	// The owner still sees the plan untouched.
	got, err = s.GetCasePlan(ctx, alice.ID, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestListCasePlansNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice := newUser(t, s, "alice")
	bob := newUser(t, s, "bob")

	first := newCasePlan(t, s, alice, sampleDocument("Client One"))
	time.Sleep(time.Millisecond)
	second := newCasePlan(t, s, alice, sampleDocument("Client Two"))
	newCasePlan(t, s, bob, sampleDocument("Someone Else"))

	plans, err := s.ListCasePlans(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	require.Equal(t, second.ID, plans[0].ID)
	require.Equal(t, first.ID, plans[1].ID)

	// Updating the older plan moves it to the front.
	time.Sleep(time.Millisecond)
	update := *first
	update.PlanData.ClientName = "Client One Revised"
	require.NoError(t, s.UpdateCasePlan(ctx, alice.ID, &update))

	plans, err = s.ListCasePlans(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	require.Equal(t, first.ID, plans[0].ID)
}

func TestUpdateCasePlanReplacesSelections(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice := newUser(t, s, "alice")

	created := newCasePlan(t, s, alice, sampleDocument("Jane Doe"))

	revised := sampleDocument("Jane Q. Doe")
	revised.PlanTitle = "Revised Plan"
	revised.Domains = []plan.DomainPlan{
		{ID: "employment", Name: "Employment & Education", RiskLevel: plan.RiskMedium, Goals: []string{"Increase employability"}},
		{ID: "substance_use", Name: "Substance Use", RiskLevel: plan.RiskLow, Goals: []string{"Maintain sobriety"}},
	}

	update := &models.CasePlan{ID: created.ID, UserID: alice.ID, PlanData: revised}
	require.NoError(t, s.UpdateCasePlan(ctx, alice.ID, update))

	// Denormalized columns follow the document.
	require.Equal(t, "Revised Plan", update.Title)
	require.Equal(t, "Jane Q. Doe", update.ClientName)

	selections, err := s.ListDomainSelections(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, selections, 2)
	require.Equal(t, "employment", selections[0].DomainID)
	require.Equal(t, "substance_use", selections[1].DomainID)

	got, err := s.GetCasePlan(ctx, alice.ID, created.ID)
	require.NoError(t, err)
	require.Equal(t, revised, got.PlanData)
	require.True(t, got.UpdatedAt.After(created.UpdatedAt) || got.UpdatedAt.Equal(created.UpdatedAt))
}

func TestDeleteCasePlanCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice := newUser(t, s, "alice")

	created := newCasePlan(t, s, alice, sampleDocument("Jane Doe"))
	require.NoError(t, s.DeleteCasePlan(ctx, alice.ID, created.ID))

	got, err := s.GetCasePlan(ctx, alice.ID, created.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	selections, err := s.ListDomainSelections(ctx, created.ID)
	require.NoError(t, err)
	require.Empty(t, selections)

	err = s.DeleteCasePlan(ctx, alice.ID, created.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreCopiesRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice := newUser(t, s, "alice")

	created := newCasePlan(t, s, alice, sampleDocument("Jane Doe"))

	// Mutating the caller's struct after create must not leak into the store.
	created.ClientName = "Mutated"
	created.PlanData.ClientName = "Mutated"

	got, err := s.GetCasePlan(ctx, alice.ID, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", got.ClientName)
	require.Equal(t, "Jane Doe", got.PlanData.ClientName)
}
