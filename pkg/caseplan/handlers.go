package caseplan

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/caseplanhq/caseplan/pkg/client"
	"github.com/caseplanhq/caseplan/pkg/models"
	"github.com/caseplanhq/caseplan/pkg/plan"
	"github.com/caseplanhq/caseplan/pkg/store"
)

// Template and plan generation handlers.

// handleListDomains returns the risk domains of the template document, the
// data behind the selection form. A missing or corrupt template file yields
// an empty domain list, not an error.
func (a *App) handleListDomains(w http.ResponseWriter, r *http.Request) {
	doc := a.templates.Load()
	respondJSON(w, http.StatusOK, client.DomainsResponse{Domains: doc.Domains})
}

// handleGeneratePlan assembles a plan from the caller's per-domain risk level
// selections. Without the save flag the assembled document is returned and
// nothing is stored; with it, the plan is persisted for the authenticated
// caller and the stored case plan is returned.
func (a *App) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req client.GeneratePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	doc := a.templates.Load()
	assembled, err := plan.Assemble(doc, req.Selections, req.ClientName, req.PlanTitle, a.assembleOptions())
	if err != nil {
		var verr *plan.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Message)
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !req.Save {
		respondJSON(w, http.StatusOK, assembled)
		return
	}

	if a.store == nil {
		respondError(w, http.StatusBadRequest, "saving plans requires the database-backed service")
		return
	}
	user := a.currentUser(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	casePlan := &models.CasePlan{
		Title:      assembled.PlanTitle,
		ClientName: assembled.ClientName,
		UserID:     user.ID,
		PlanData:   *assembled,
	}
	if err := a.store.CreateCasePlan(r.Context(), casePlan); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, casePlan)
}

// Case plan CRUD handlers. All of them run behind requireAuth, and every
// store call is scoped to the authenticated owner: a plan that exists but
// belongs to someone else is answered exactly like a missing one.

func (a *App) handleCreateCasePlan(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req client.SavePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Document.ClientName == "" {
		respondError(w, http.StatusBadRequest, "client name required")
		return
	}
	normalizeDocument(&req.Document)

	casePlan := &models.CasePlan{
		Title:      req.Document.PlanTitle,
		ClientName: req.Document.ClientName,
		UserID:     user.ID,
		PlanData:   req.Document,
	}
	if err := a.store.CreateCasePlan(r.Context(), casePlan); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, casePlan)
}

func (a *App) handleGetCasePlan(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := models.ParseCasePlanID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid case plan ID")
		return
	}

	casePlan, err := a.store.GetCasePlan(r.Context(), user.ID, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if casePlan == nil {
		respondError(w, http.StatusNotFound, "case plan not found")
		return
	}

	respondJSON(w, http.StatusOK, casePlan)
}

func (a *App) handleListCasePlans(w http.ResponseWriter, r *http.Request, user *models.User) {
	casePlans, err := a.store.ListCasePlans(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if casePlans == nil {
		casePlans = []*models.CasePlan{}
	}

	respondJSON(w, http.StatusOK, casePlans)
}

// handleUpdateCasePlan replaces a plan's document wholesale. The zero
// CasePlanID is the "new plan" sentinel: an edit addressed to it creates a
// plan instead of updating one.
func (a *App) handleUpdateCasePlan(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := models.ParseCasePlanID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid case plan ID")
		return
	}

	var req client.SavePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Document.ClientName == "" {
		respondError(w, http.StatusBadRequest, "client name required")
		return
	}
	normalizeDocument(&req.Document)

	casePlan := &models.CasePlan{
		ID:         id,
		Title:      req.Document.PlanTitle,
		ClientName: req.Document.ClientName,
		UserID:     user.ID,
		PlanData:   req.Document,
	}

	if id.IsZero() {
		if err := a.store.CreateCasePlan(r.Context(), casePlan); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondJSON(w, http.StatusCreated, casePlan)
		return
	}

	if err := a.store.UpdateCasePlan(r.Context(), user.ID, casePlan); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "case plan not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, casePlan)
}

func (a *App) handleDeleteCasePlan(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := models.ParseCasePlanID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid case plan ID")
		return
	}

	if err := a.store.DeleteCasePlan(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "case plan not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// normalizeDocument fills the defaults a hand-built document may omit.
func normalizeDocument(doc *plan.Document) {
	if doc.PlanTitle == "" {
		doc.PlanTitle = plan.DefaultTitle
	}
	if doc.CreatedDate == "" {
		doc.CreatedDate = time.Now().Format("2006-01-02")
	}
	if doc.Domains == nil {
		doc.Domains = []plan.DomainPlan{}
	}
}

// handleHealth reports service mode and time for load balancers and probes.
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	mode := "postgres"
	switch {
	case a.config.Stateless:
		mode = "stateless"
	case a.config.UseSurreal:
		mode = "surrealdb"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"mode":   mode,
		"time":   time.Now().Unix(),
	})
}

// respondJSON sends a JSON response with the given status and payload.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_, _ = w.Write(response)
	}
}

// respondError sends a standardized {"error": ...} response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
