package caseplan

import (
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/caseplanhq/caseplan/pkg/client"
	"github.com/caseplanhq/caseplan/pkg/models"
)

// getTokenFromHeader extracts the bearer token from the Authorization header
func getTokenFromHeader(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	const bearerPrefix = "Bearer "
	if len(auth) > len(bearerPrefix) && auth[:len(bearerPrefix)] == bearerPrefix {
		return auth[len(bearerPrefix):]
	}
	return auth
}

// currentUser resolves the request's session, or nil when unauthenticated.
func (a *App) currentUser(r *http.Request) *models.User {
	token := getTokenFromHeader(r)
	if token == "" {
		return nil
	}
	return a.sessions.Lookup(token)
}

// requireAuth wraps a handler that needs an authenticated caller. The user is
// passed through rather than re-resolved so handlers cannot forget the check.
func (a *App) requireAuth(next func(w http.ResponseWriter, r *http.Request, user *models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := a.currentUser(r)
		if user == nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r, user)
	}
}

// handleSignUp registers a new account.
//
// All four fields are required, the password must match its confirmation, and
// username and email must be unused (exact, case-sensitive match against
// stored values). Only the bcrypt hash of the password is stored. A
// successful registration signs the user in immediately.
func (a *App) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req client.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" || req.ConfirmPassword == "" {
		respondError(w, http.StatusBadRequest, "all fields are required")
		return
	}
	if req.Password != req.ConfirmPassword {
		respondError(w, http.StatusBadRequest, "passwords do not match")
		return
	}

	ctx := r.Context()
	if existing, err := a.store.GetUserByUsername(ctx, req.Username); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	} else if existing != nil {
		respondError(w, http.StatusBadRequest, "username already taken")
		return
	}
	if existing, err := a.store.GetUserByEmail(ctx, req.Email); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	} else if existing != nil {
		respondError(w, http.StatusBadRequest, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := a.store.CreateUser(ctx, user); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := a.sessions.Issue(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, client.AuthResponse{
		Token: token,
		User:  user,
	})
}

// handleSignIn authenticates by exact username match and bcrypt comparison.
// Unknown username and wrong password produce the same response, so the
// endpoint never reveals which usernames exist.
func (a *App) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req client.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	user, err := a.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := a.sessions.Issue(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, client.AuthResponse{
		Token: token,
		User:  user,
	})
}

// handleSignOut invalidates the caller's session token
func (a *App) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if token := getTokenFromHeader(r); token != "" {
		a.sessions.Revoke(token)
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleGetCurrentUser returns the authenticated caller
func (a *App) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := a.currentUser(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
