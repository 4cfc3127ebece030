package caseplan

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caseplanhq/caseplan/pkg/client"
	"github.com/caseplanhq/caseplan/pkg/models"
	"github.com/caseplanhq/caseplan/pkg/plan"
	"github.com/caseplanhq/caseplan/pkg/store/memory"
)

// newTestServer builds an App around the in-memory store and serves its
// router from an httptest server, returning a typed API client against it.
func newTestServer(t *testing.T) *client.Client {
	t.Helper()

	app := NewWithStore(&Config{
		TemplatesPath: filepath.Join("testdata", "case_plans.json"),
		SessionSecret: "test-secret",
	}, memory.NewMemoryStore())

	server := httptest.NewServer(app.Router())
	t.Cleanup(server.Close)
	t.Cleanup(func() { _ = app.Close() })

	return client.NewClient(server.URL)
}

// newStatelessTestServer serves the template-only deployment: no store, no
// auth, relaxed inclusion semantics.
func newStatelessTestServer(t *testing.T) *client.Client {
	t.Helper()

	app := NewWithStore(&Config{
		Stateless:     true,
		TemplatesPath: filepath.Join("testdata", "case_plans.json"),
		SessionSecret: "test-secret",
	}, nil)

	server := httptest.NewServer(app.Router())
	t.Cleanup(server.Close)

	return client.NewClient(server.URL)
}

func signUp(t *testing.T, c *client.Client, username string) *models.User {
	t.Helper()
	resp, err := c.SignUp(context.Background(), username, username+"@example.com", "password123", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	return resp.User
}

func generateRequest(clientName string) *client.GeneratePlanRequest {
	return &client.GeneratePlanRequest{
		ClientName: clientName,
		Selections: map[string]plan.Selection{
			"housing": {Included: true, RiskLevel: plan.RiskHigh},
		},
	}
}

func TestHealth(t *testing.T) {
	c := newTestServer(t)

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "healthy", health["status"])
	require.Equal(t, "postgres", health["mode"])
}

func TestListDomains(t *testing.T) {
	c := newTestServer(t)

	domains, err := c.ListDomains(context.Background())
	require.NoError(t, err)
	require.Len(t, domains.Domains, 2)
	require.Equal(t, "housing", domains.Domains[0].ID)
	require.Equal(t, "employment", domains.Domains[1].ID)
}

func TestSignUpValidation(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	_, err := c.SignUp(ctx, "alice", "", "password123", "password123")
	require.ErrorContains(t, err, "status=400")
	require.ErrorContains(t, err, "all fields are required")

	_, err = c.SignUp(ctx, "alice", "alice@example.com", "password123", "different")
	require.ErrorContains(t, err, "status=400")
	require.ErrorContains(t, err, "passwords do not match")
}

func TestSignUpDuplicate(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)
	signUp(t, c, "alice")

	_, err := c.SignUp(ctx, "alice", "other@example.com", "password123", "password123")
	require.ErrorContains(t, err, "status=400")
	require.ErrorContains(t, err, "username already taken")

	_, err = c.SignUp(ctx, "alice2", "alice@example.com", "password123", "password123")
	require.ErrorContains(t, err, "status=400")
	require.ErrorContains(t, err, "email already registered")
}

func TestSignInFlow(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)
	created := signUp(t, c, "alice")

	_, err := c.SignIn(ctx, "alice", "wrong-password")
	require.ErrorContains(t, err, "status=401")
	require.ErrorContains(t, err, "invalid credentials")

	_, err = c.SignIn(ctx, "nobody", "password123")
	require.ErrorContains(t, err, "status=401")
	require.ErrorContains(t, err, "invalid credentials")

	resp, err := c.SignIn(ctx, "alice", "password123")
	require.NoError(t, err)
	require.Equal(t, created.ID, resp.User.ID)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", me.Username)

	require.NoError(t, c.SignOut(ctx))
	_, err = c.Me(ctx)
	require.ErrorContains(t, err, "status=401")
}

func TestRevokedTokenRejected(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)
	resp, err := c.SignUp(ctx, "alice", "alice@example.com", "password123", "password123")
	require.NoError(t, err)

	require.NoError(t, c.SignOut(ctx))

	// Reusing the revoked token explicitly still fails.
	c.SetAuthToken(resp.Token)
	_, err = c.ListPlans(ctx)
	require.ErrorContains(t, err, "status=401")
}

func TestForgedTokenRejected(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	c.SetAuthToken("deadbeef.0000000000000000000000000000000000000000000000000000000000000000")
	_, err := c.ListPlans(ctx)
	require.ErrorContains(t, err, "status=401")
}

func TestGeneratePlan(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	doc, err := c.GeneratePlan(ctx, generateRequest("Jane Doe"))
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", doc.ClientName)
	require.Equal(t, plan.DefaultTitle, doc.PlanTitle)
	require.Len(t, doc.Domains, 1)
	require.Equal(t, "housing", doc.Domains[0].ID)
	require.Equal(t, plan.RiskHigh, doc.Domains[0].RiskLevel)
	require.Equal(t, []string{"Secure stable housing"}, doc.Domains[0].Goals)
}

func TestGeneratePlanRequiresClientName(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	_, err := c.GeneratePlan(ctx, generateRequest(""))
	require.ErrorContains(t, err, "status=400")
	require.ErrorContains(t, err, "client name required")
}

func TestGeneratePlanRequiresInclusionFlag(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	// In the database-backed service a risk level without the include flag
	// does not pull the domain in.
	doc, err := c.GeneratePlan(ctx, &client.GeneratePlanRequest{
		ClientName: "Jane Doe",
		Selections: map[string]plan.Selection{
			"housing": {RiskLevel: plan.RiskHigh},
		},
	})
	require.NoError(t, err)
	require.Empty(t, doc.Domains)
}

func TestGenerateAndSavePlan(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	// Saving requires authentication.
	_, err := c.GenerateAndSavePlan(ctx, generateRequest("Jane Doe"))
	require.ErrorContains(t, err, "status=401")

	signUp(t, c, "alice")

	saved, err := c.GenerateAndSavePlan(ctx, generateRequest("Jane Doe"))
	require.NoError(t, err)
	require.False(t, saved.ID.IsZero())
	require.Equal(t, "Jane Doe", saved.ClientName)
	require.Equal(t, plan.DefaultTitle, saved.Title)
	require.Len(t, saved.PlanData.Domains, 1)

	plans, err := c.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	require.Equal(t, saved.ID, plans[0].ID)
}

func TestCasePlanCRUD(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)
	signUp(t, c, "alice")

	doc, err := c.GeneratePlan(ctx, generateRequest("Jane Doe"))
	require.NoError(t, err)

	created, err := c.CreatePlan(ctx, *doc)
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())

	got, err := c.GetPlan(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, *doc, got.PlanData)

	// Update swaps the document wholesale.
	revised := *doc
	revised.PlanTitle = "Revised Plan"
	revised.Domains = []plan.DomainPlan{
		{ID: "employment", Name: "Employment & Education", RiskLevel: plan.RiskMedium, Goals: []string{"Increase employability"}},
	}
	updated, err := c.UpdatePlan(ctx, created.ID, revised)
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "Revised Plan", updated.Title)

	got, err = c.GetPlan(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, revised, got.PlanData)

	require.NoError(t, c.DeletePlan(ctx, created.ID))

	_, err = c.GetPlan(ctx, created.ID)
	require.ErrorContains(t, err, "status=404")
	require.ErrorContains(t, err, "case plan not found")

	err = c.DeletePlan(ctx, created.ID)
	require.ErrorContains(t, err, "status=404")
}

func TestUpdateZeroIDCreates(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)
	signUp(t, c, "alice")

	doc, err := c.GeneratePlan(ctx, generateRequest("Jane Doe"))
	require.NoError(t, err)

	// Addressing the zero ID is the "new plan" path of the editor.
	created, err := c.UpdatePlan(ctx, models.CasePlanID{}, *doc)
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())

	plans, err := c.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	require.Equal(t, created.ID, plans[0].ID)
}

func TestUpdateRequiresClientName(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)
	signUp(t, c, "alice")

	_, err := c.UpdatePlan(ctx, models.CasePlanID{}, plan.Document{PlanTitle: "No Client"})
	require.ErrorContains(t, err, "status=400")
	require.ErrorContains(t, err, "client name required")
}

func TestCrossUserIsolation(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	signUp(t, c, "alice")
	saved, err := c.GenerateAndSavePlan(ctx, generateRequest("Jane Doe"))
	require.NoError(t, err)

	// Second account against the same server.
	signUp(t, c, "bob")

	plans, err := c.ListPlans(ctx)
	require.NoError(t, err)
	require.Empty(t, plans)

	// Another user's plan is answered like a missing one.
	_, err = c.GetPlan(ctx, saved.ID)
	require.ErrorContains(t, err, "status=404")

	_, err = c.UpdatePlan(ctx, saved.ID, saved.PlanData)
	require.ErrorContains(t, err, "status=404")

	err = c.DeletePlan(ctx, saved.ID)
	require.ErrorContains(t, err, "status=404")
}

func TestUnauthenticatedRequests(t *testing.T) {
	ctx := context.Background()
	c := newTestServer(t)

	_, err := c.ListPlans(ctx)
	require.ErrorContains(t, err, "status=401")

	_, err = c.CreatePlan(ctx, plan.Document{ClientName: "Jane Doe"})
	require.ErrorContains(t, err, "status=401")

	_, err = c.Me(ctx)
	require.ErrorContains(t, err, "status=401")
}

func TestStatelessMode(t *testing.T) {
	ctx := context.Background()
	c := newStatelessTestServer(t)

	health, err := c.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, "stateless", health["mode"])

	// Relaxed inclusion: a risk level alone pulls the domain in.
	doc, err := c.GeneratePlan(ctx, &client.GeneratePlanRequest{
		ClientName: "Jane Doe",
		Selections: map[string]plan.Selection{
			"housing": {RiskLevel: plan.RiskHigh},
		},
	})
	require.NoError(t, err)
	require.Len(t, doc.Domains, 1)

	// Persistence and auth routes are not registered at all.
	_, err = c.SignUp(ctx, "alice", "alice@example.com", "password123", "password123")
	require.ErrorContains(t, err, "status=404")

	_, err = c.ListPlans(ctx)
	require.ErrorContains(t, err, "status=404")

	// Saving through the generate endpoint is refused explicitly.
	_, err = c.GenerateAndSavePlan(ctx, generateRequest("Jane Doe"))
	require.ErrorContains(t, err, "status=400")
	require.ErrorContains(t, err, "saving plans requires the database-backed service")
}

func TestMissingTemplateFileDegrades(t *testing.T) {
	ctx := context.Background()

	app := NewWithStore(&Config{
		TemplatesPath: filepath.Join("testdata", "no-such-file.json"),
		SessionSecret: "test-secret",
	}, memory.NewMemoryStore())
	server := httptest.NewServer(app.Router())
	t.Cleanup(server.Close)
	c := client.NewClient(server.URL)

	domains, err := c.ListDomains(ctx)
	require.NoError(t, err)
	require.Empty(t, domains.Domains)

	doc, err := c.GeneratePlan(ctx, generateRequest("Jane Doe"))
	require.NoError(t, err)
	require.Empty(t, doc.Domains)
}
