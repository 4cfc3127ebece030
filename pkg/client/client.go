// Package client provides a Go HTTP client for the caseplan REST API.
//
// The client mirrors the server surface with strongly-typed methods for
// authentication, template listing, plan generation, and case plan CRUD. It
// handles JSON serialization and bearer-token management: after a successful
// SignUp or SignIn the token is attached to every subsequent request.
//
// Client instances are safe for concurrent use by multiple goroutines.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/caseplanhq/caseplan/pkg/models"
	"github.com/caseplanhq/caseplan/pkg/plan"
)

// Client provides typed access to the caseplan REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// NewClient creates a new caseplan API client. The baseURL should include
// protocol and host (e.g. "http://localhost:8080") without a trailing slash.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetAuthToken sets the authentication token for the client
func (c *Client) SetAuthToken(token string) {
	c.authToken = token
}

// doRequest performs an HTTP request with proper headers
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	return c.httpClient.Do(req)
}

// decodeResponse decodes the JSON response into the target struct
func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Health checks the health status of the server
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// Templates and plan generation

// DomainsResponse carries the template document's domains.
type DomainsResponse struct {
	Domains []plan.Domain `json:"domains"`
}

// ListDomains retrieves the risk domains of the template document.
func (c *Client) ListDomains(ctx context.Context) (*DomainsResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/domains", nil)
	if err != nil {
		return nil, err
	}

	var result DomainsResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// GeneratePlanRequest asks the server to assemble a plan from per-domain
// risk level selections. With Save set, the assembled plan is also persisted
// for the authenticated caller.
type GeneratePlanRequest struct {
	ClientName string                    `json:"client_name"`
	PlanTitle  string                    `json:"plan_title,omitempty"`
	Selections map[string]plan.Selection `json:"selections"`
	Save       bool                      `json:"save,omitempty"`
}

// GeneratePlan assembles a plan without persisting it.
func (c *Client) GeneratePlan(ctx context.Context, req *GeneratePlanRequest) (*plan.Document, error) {
	req.Save = false
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/plans/generate", req)
	if err != nil {
		return nil, err
	}

	var result plan.Document
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// GenerateAndSavePlan assembles a plan and persists it for the authenticated
// caller, returning the stored case plan.
func (c *Client) GenerateAndSavePlan(ctx context.Context, req *GeneratePlanRequest) (*models.CasePlan, error) {
	req.Save = true
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/plans/generate", req)
	if err != nil {
		return nil, err
	}

	var result models.CasePlan
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Case plan management

// SavePlanRequest persists an assembled plan document.
type SavePlanRequest struct {
	Document plan.Document `json:"document"`
}

// CreatePlan saves an assembled document as a new case plan.
func (c *Client) CreatePlan(ctx context.Context, doc plan.Document) (*models.CasePlan, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/plans", SavePlanRequest{Document: doc})
	if err != nil {
		return nil, err
	}

	var result models.CasePlan
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// GetPlan retrieves one of the caller's case plans by ID.
func (c *Client) GetPlan(ctx context.Context, id models.CasePlanID) (*models.CasePlan, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/plans/%s", id), nil)
	if err != nil {
		return nil, err
	}

	var result models.CasePlan
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ListPlans retrieves the caller's case plans, newest first.
func (c *Client) ListPlans(ctx context.Context) ([]*models.CasePlan, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/plans", nil)
	if err != nil {
		return nil, err
	}

	var result []*models.CasePlan
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// UpdatePlan replaces a case plan's document. Addressing the zero CasePlanID
// creates a new plan instead.
func (c *Client) UpdatePlan(ctx context.Context, id models.CasePlanID, doc plan.Document) (*models.CasePlan, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/api/plans/%s", id), SavePlanRequest{Document: doc})
	if err != nil {
		return nil, err
	}

	var result models.CasePlan
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// DeletePlan deletes one of the caller's case plans.
func (c *Client) DeletePlan(ctx context.Context, id models.CasePlanID) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/plans/%s", id), nil)
	if err != nil {
		return err
	}

	return decodeResponse(resp, nil)
}
