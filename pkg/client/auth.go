package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/caseplanhq/caseplan/pkg/models"
)

// SignUpRequest represents a registration request
type SignUpRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// SignInRequest represents a sign-in request
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse represents an authentication response
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// SignUp registers a new user account
func (c *Client) SignUp(ctx context.Context, username, email, password, confirmPassword string) (*AuthResponse, error) {
	req := SignUpRequest{
		Username:        username,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirmPassword,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/signup", req)
	if err != nil {
		return nil, fmt.Errorf("signup request failed: %w", err)
	}

	var result AuthResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to decode signup response: %w", err)
	}

	// Automatically set the auth token for subsequent requests
	c.SetAuthToken(result.Token)

	return &result, nil
}

// SignIn authenticates an existing user
func (c *Client) SignIn(ctx context.Context, username, password string) (*AuthResponse, error) {
	req := SignInRequest{
		Username: username,
		Password: password,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/signin", req)
	if err != nil {
		return nil, fmt.Errorf("signin request failed: %w", err)
	}

	var result AuthResponse
	if err := decodeResponse(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to decode signin response: %w", err)
	}

	// Automatically set the auth token for subsequent requests
	c.SetAuthToken(result.Token)

	return &result, nil
}

// SignOut signs out the current user
func (c *Client) SignOut(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/signout", nil)
	if err != nil {
		return fmt.Errorf("signout request failed: %w", err)
	}

	if err := decodeResponse(resp, nil); err != nil {
		return err
	}

	c.authToken = ""
	return nil
}

// Me returns the currently authenticated user
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, fmt.Errorf("me request failed: %w", err)
	}

	var result models.User
	if err := decodeResponse(resp, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
