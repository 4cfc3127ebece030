// Package caseplan contains the application layer of the case plan service:
// configuration, command parsing and dispatch, the HTTP server, and the
// request handlers that tie the template store, plan assembler, session
// registry, and persistence layer together.
package caseplan

import (
	"fmt"
	"log"
	"os"

	"github.com/caseplanhq/caseplan/pkg/plan"
	"github.com/caseplanhq/caseplan/pkg/store"
	"github.com/caseplanhq/caseplan/pkg/store/postgres"
	"github.com/caseplanhq/caseplan/pkg/store/surrealdb"
)

// DefaultTemplatesPath is where the static template document lives unless
// overridden by flag or environment.
const DefaultTemplatesPath = "static/data/case_plans.json"

// Config holds application configuration.
type Config struct {
	// Database configuration. Exactly one backend is active per process:
	// PostgreSQL by default, SurrealDB when UseSurreal is set, none in
	// stateless mode.
	PostgresDSN   string
	UseSurreal    bool
	SurrealDBURL  string
	SurrealDBNS   string
	SurrealDBDB   string
	SurrealDBUser string
	SurrealDBPass string

	// Stateless disables persistence and auth entirely: only the template
	// and generate endpoints are served, and the assembler treats any
	// selection with a risk level as included. This reproduces the
	// template-only deployment of the service.
	Stateless bool

	// TemplatesPath locates the static template document.
	TemplatesPath string

	// SessionSecret signs session tokens. Falls back to a development
	// default when unset; set SESSION_SECRET in any real deployment.
	SessionSecret string

	// Server configuration
	ServerPort string
}

// App holds the application state: the active store, the template document
// loader, and the session registry. All of it is injected rather than
// module-level, so tests can build an App around an in-memory store.
type App struct {
	store     store.Store // nil in stateless mode
	templates *plan.Templates
	sessions  *Sessions
	config    *Config
}

// New creates a new application instance, connecting to the configured
// backend unless stateless mode is on.
func New(config *Config) (*App, error) {
	var appStore store.Store
	var err error

	switch {
	case config.Stateless:
		log.Println("Running stateless: no database, persistence routes disabled")
	case config.UseSurreal:
		appStore, err = surrealdb.NewSurrealStore(
			config.SurrealDBURL,
			config.SurrealDBNS,
			config.SurrealDBDB,
			config.SurrealDBUser,
			config.SurrealDBPass,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
		}
		log.Println("Connected to SurrealDB")
	default:
		appStore, err = postgres.NewPostgresStore(config.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		log.Println("Connected to PostgreSQL")
	}

	return NewWithStore(config, appStore), nil
}

// NewWithStore creates an application around an existing store. Used by New
// and by tests that inject the in-memory backend.
func NewWithStore(config *Config, appStore store.Store) *App {
	return &App{
		store:     appStore,
		templates: plan.NewTemplates(config.TemplatesPath),
		sessions:  NewSessions(config.SessionSecret),
		config:    config,
	}
}

// Close closes the application and its resources
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// Store returns the underlying store (useful for testing)
func (a *App) Store() store.Store {
	return a.store
}

// assembleOptions selects the inclusion semantics for the deployment: the
// database-backed service requires the explicit per-domain include flag, the
// stateless service treats any risk level selection as inclusion.
func (a *App) assembleOptions() plan.Options {
	return plan.Options{RequireInclusion: !a.config.Stateless}
}

// getEnv retrieves an environment variable value with a fallback default.
// Empty values are treated the same as unset, which suits container
// environments where empty variables get set by accident.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
