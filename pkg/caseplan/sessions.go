package caseplan

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/caseplanhq/caseplan/pkg/models"
)

// Sessions is an in-memory registry of authenticated sessions keyed by
// bearer token. The registry is injected into the App rather than held in a
// package-level variable so each server instance (and each test) owns its
// own session state.
//
// Tokens have the form "<payload>.<signature>": a 32-byte random payload,
// hex encoded, signed with HMAC-SHA256 under the configured session secret.
// The signature lets the server reject forged or stale-secret tokens without
// touching the registry. Sessions live for the process lifetime; a
// production multi-instance deployment would move this to a shared store.
type Sessions struct {
	secret []byte

	mu    sync.RWMutex
	users map[string]*models.User
}

// NewSessions creates a session registry signing tokens with the given secret.
func NewSessions(secret string) *Sessions {
	return &Sessions{
		secret: []byte(secret),
		users:  make(map[string]*models.User),
	}
}

func (s *Sessions) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Issue creates a session for the user and returns its bearer token.
func (s *Sessions) Issue(user *models.User) (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	payload := hex.EncodeToString(bytes)
	token := payload + "." + s.sign(payload)

	s.mu.Lock()
	s.users[token] = user
	s.mu.Unlock()

	return token, nil
}

// Lookup returns the user behind a token, or nil for an unknown, forged, or
// revoked token.
func (s *Sessions) Lookup(token string) *models.User {
	payload, signature, ok := strings.Cut(token, ".")
	if !ok {
		return nil
	}
	if !hmac.Equal([]byte(signature), []byte(s.sign(payload))) {
		return nil
	}

	s.mu.RLock()
	user := s.users[token]
	s.mu.RUnlock()
	return user
}

// Revoke invalidates a token. Revoking an unknown token is a no-op.
func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	delete(s.users, token)
	s.mu.Unlock()
}
