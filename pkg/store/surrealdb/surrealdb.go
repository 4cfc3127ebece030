// Package surrealdb provides the SurrealDB implementation of the
// [github.com/caseplanhq/caseplan/pkg/store.Store] interface using native
// SurrealQL and the surrealcbor codec.
//
// SurrealDB stores data as CBOR internally, and default Go marshaling does
// not produce formats it accepts: time.Time values and record IDs in
// particular break with the plain codec. The connection is therefore
// configured with the surrealcbor marshaler, and the typed IDs in
// [github.com/caseplanhq/caseplan/pkg/models] marshal themselves to
// SurrealDB RecordID values (CBOR tag 8).
//
// All queries that carry user-provided values use $param placeholders; no
// value is ever interpolated into a query string.
//
// Unlike the PostgreSQL backend there are no foreign key constraints here;
// the CasePlan → DomainRiskLevel cascade is implemented in the queries. A
// plan and its selection rows are written and deleted in a single Query RPC,
// which SurrealDB executes as one transaction.
package surrealdb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/caseplanhq/caseplan/pkg/models"
	"github.com/caseplanhq/caseplan/pkg/store"
)

// SurrealStore implements the Store interface using SurrealDB.
type SurrealStore struct {
	db       *surrealdb.DB
	ns       string
	database string
}

// NewSurrealStore connects to SurrealDB over WebSocket with the surrealcbor
// codec and returns the store.
func NewSurrealStore(wsURL, namespace, database, username, password string) (store.Store, error) {
	ctx := context.Background()

	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	conf := connection.NewConfig(u)

	// Without the surrealcbor codec, time.Time values marshal in a format
	// SurrealDB rejects with "invalid datetime" errors.
	codec := surrealcbor.New()
	conf.Marshaler = codec
	conf.Unmarshaler = codec

	conn := gorillaws.New(conf)

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if username != "" && password != "" {
		if _, err := db.SignIn(ctx, map[string]any{
			"user": username,
			"pass": password,
		}); err != nil {
			return nil, fmt.Errorf("failed to authenticate: %w", err)
		}
	}

	if err := db.Use(ctx, namespace, database); err != nil {
		return nil, fmt.Errorf("failed to use namespace/database: %w", err)
	}

	return &SurrealStore{
		db:       db,
		ns:       namespace,
		database: database,
	}, nil
}

// Migrate is a no-op: SurrealDB creates tables implicitly on first insert,
// and the uniqueness checks the application needs are done by query.
func (s *SurrealStore) Migrate(ctx context.Context) error {
	return nil
}

// Close closes the database connection
func (s *SurrealStore) Close() error {
	return s.db.Close(context.Background())
}

// handleNotFound maps SurrealDB's "no result" errors onto absence.
func handleNotFound(err error) error {
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "Expected a single or multiple results but got 0") ||
			strings.Contains(errStr, "cannot unmarshal array into Go value") {
			return nil
		}
	}
	return err
}

// User operations

func (s *SurrealStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = models.NewUserID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = time.Now()
	}

	_, err := surrealdb.Create[models.User](ctx, s.db, "users", user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetUser(ctx context.Context, id models.UserID) (*models.User, error) {
	user, err := surrealdb.Select[models.User](ctx, s.db, id.RecordID())
	if err != nil {
		if handleNotFound(err) == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *SurrealStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := "SELECT * FROM users WHERE username = $username"
	params := map[string]any{
		"username": username,
	}
	result, err := surrealdb.Query[[]models.User](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	if result != nil && len(*result) > 0 && len((*result)[0].Result) > 0 {
		return &(*result)[0].Result[0], nil
	}
	return nil, nil
}

func (s *SurrealStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := "SELECT * FROM users WHERE email = $email"
	params := map[string]any{
		"email": email,
	}
	result, err := surrealdb.Query[[]models.User](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if result != nil && len(*result) > 0 && len((*result)[0].Result) > 0 {
		return &(*result)[0].Result[0], nil
	}
	return nil, nil
}

// Case plan operations

// CreateCasePlan writes the plan and its selection rows in one Query RPC so
// SurrealDB commits them as a single transaction.
func (s *SurrealStore) CreateCasePlan(ctx context.Context, casePlan *models.CasePlan) error {
	if casePlan.ID.IsZero() {
		casePlan.ID = models.NewCasePlanID()
	}
	now := time.Now()
	if casePlan.CreatedAt.IsZero() {
		casePlan.CreatedAt = now
	}
	casePlan.UpdatedAt = now
	casePlan.DomainSelections = models.SelectionsFromDocument(casePlan.ID, casePlan.PlanData)
	for i := range casePlan.DomainSelections {
		if casePlan.DomainSelections[i].ID.IsZero() {
			casePlan.DomainSelections[i].ID = models.NewDomainRiskLevelID()
		}
	}

	// Selections are carried in the row's own field too, but the dedicated
	// table keeps parity with the relational schema.
	plan := *casePlan
	plan.DomainSelections = nil

	query := "CREATE $plan_id CONTENT $plan; FOR $sel IN $selections { CREATE $sel.id CONTENT $sel; };"
	params := map[string]any{
		"plan_id":    casePlan.ID.RecordID(),
		"plan":       plan,
		"selections": casePlan.DomainSelections,
	}
	if _, err := surrealdb.Query[any](ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to create case plan: %w", err)
	}
	return nil
}

func (s *SurrealStore) GetCasePlan(ctx context.Context, ownerID models.UserID, id models.CasePlanID) (*models.CasePlan, error) {
	query := "SELECT * FROM case_plans WHERE id = $id AND user_id = $owner"
	params := map[string]any{
		"id":    id.RecordID(),
		"owner": ownerID.RecordID(),
	}
	result, err := surrealdb.Query[[]models.CasePlan](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get case plan: %w", err)
	}

	if result == nil || len(*result) == 0 || len((*result)[0].Result) == 0 {
		return nil, nil
	}
	casePlan := (*result)[0].Result[0]

	selections, err := s.ListDomainSelections(ctx, casePlan.ID)
	if err != nil {
		return nil, err
	}
	casePlan.DomainSelections = make([]models.DomainRiskLevel, 0, len(selections))
	for _, sel := range selections {
		casePlan.DomainSelections = append(casePlan.DomainSelections, *sel)
	}
	return &casePlan, nil
}

func (s *SurrealStore) ListCasePlans(ctx context.Context, ownerID models.UserID) ([]*models.CasePlan, error) {
	query := "SELECT * FROM case_plans WHERE user_id = $owner ORDER BY updated_at DESC"
	params := map[string]any{
		"owner": ownerID.RecordID(),
	}
	result, err := surrealdb.Query[[]models.CasePlan](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list case plans: %w", err)
	}

	var casePlans []*models.CasePlan
	if result != nil && len(*result) > 0 {
		for i := range (*result)[0].Result {
			casePlans = append(casePlans, &(*result)[0].Result[i])
		}
	}
	return casePlans, nil
}

// UpdateCasePlan replaces the document and rebuilds the selection rows in one
// Query RPC. The owner check runs first; a missing or foreign plan yields
// store.ErrNotFound.
func (s *SurrealStore) UpdateCasePlan(ctx context.Context, ownerID models.UserID, casePlan *models.CasePlan) error {
	existing, err := s.GetCasePlan(ctx, ownerID, casePlan.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}

	casePlan.Title = casePlan.PlanData.PlanTitle
	casePlan.ClientName = casePlan.PlanData.ClientName
	casePlan.UserID = existing.UserID
	casePlan.CreatedAt = existing.CreatedAt
	casePlan.UpdatedAt = time.Now()

	selections := models.SelectionsFromDocument(casePlan.ID, casePlan.PlanData)
	for i := range selections {
		selections[i].ID = models.NewDomainRiskLevelID()
	}

	plan := *casePlan
	plan.DomainSelections = nil

	query := `UPDATE $plan_id CONTENT $plan;
DELETE domain_risk_levels WHERE case_plan_id = $plan_id;
FOR $sel IN $selections { CREATE $sel.id CONTENT $sel; };`
	params := map[string]any{
		"plan_id":    casePlan.ID.RecordID(),
		"plan":       plan,
		"selections": selections,
	}
	if _, err := surrealdb.Query[any](ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to update case plan: %w", err)
	}
	casePlan.DomainSelections = selections
	return nil
}

// DeleteCasePlan removes the plan and all of its selection rows in one Query
// RPC, after the owner check.
func (s *SurrealStore) DeleteCasePlan(ctx context.Context, ownerID models.UserID, id models.CasePlanID) error {
	existing, err := s.GetCasePlan(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return store.ErrNotFound
	}

	query := "DELETE $plan_id; DELETE domain_risk_levels WHERE case_plan_id = $plan_id;"
	params := map[string]any{
		"plan_id": id.RecordID(),
	}
	if _, err := surrealdb.Query[any](ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to delete case plan: %w", err)
	}
	return nil
}

func (s *SurrealStore) ListDomainSelections(ctx context.Context, casePlanID models.CasePlanID) ([]*models.DomainRiskLevel, error) {
	query := "SELECT * FROM domain_risk_levels WHERE case_plan_id = $plan_id"
	params := map[string]any{
		"plan_id": casePlanID.RecordID(),
	}
	result, err := surrealdb.Query[[]models.DomainRiskLevel](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list domain selections: %w", err)
	}

	var selections []*models.DomainRiskLevel
	if result != nil && len(*result) > 0 {
		for i := range (*result)[0].Result {
			selections = append(selections, &(*result)[0].Result[i])
		}
	}
	return selections, nil
}
