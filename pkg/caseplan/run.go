package caseplan

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Router builds the HTTP route table for the current deployment mode.
//
// Always served:
//
//	GET  /health, /api/health                 - service health status
//	GET  /api/domains                         - template document domains
//	POST /api/plans/generate                  - assemble a plan (optionally save)
//
// Database-backed mode additionally serves:
//
//	POST /api/auth/signup                     - register (signs in immediately)
//	POST /api/auth/signin                     - authenticate
//	POST /api/auth/signout                    - end session
//	GET  /api/auth/me                         - current user
//	POST /api/plans                           - save an assembled plan
//	GET  /api/plans                           - list own plans, newest first
//	GET  /api/plans/{id}                      - view one plan
//	PUT  /api/plans/{id}                      - edit (zero id creates)
//	DELETE /api/plans/{id}                    - delete (cascades selections)
func (a *App) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", a.handleHealth).Methods("GET")
	api.HandleFunc("/domains", a.handleListDomains).Methods("GET")
	api.HandleFunc("/plans/generate", a.handleGeneratePlan).Methods("POST")

	if a.store != nil {
		api.HandleFunc("/auth/signup", a.handleSignUp).Methods("POST")
		api.HandleFunc("/auth/signin", a.handleSignIn).Methods("POST")
		api.HandleFunc("/auth/signout", a.handleSignOut).Methods("POST")
		api.HandleFunc("/auth/me", a.handleGetCurrentUser).Methods("GET")

		api.HandleFunc("/plans", a.requireAuth(a.handleCreateCasePlan)).Methods("POST")
		api.HandleFunc("/plans", a.requireAuth(a.handleListCasePlans)).Methods("GET")
		api.HandleFunc("/plans/{id}", a.requireAuth(a.handleGetCasePlan)).Methods("GET")
		api.HandleFunc("/plans/{id}", a.requireAuth(a.handleUpdateCasePlan)).Methods("PUT")
		api.HandleFunc("/plans/{id}", a.requireAuth(a.handleDeleteCasePlan)).Methods("DELETE")
	}

	// Health check route (outside of /api prefix)
	router.HandleFunc("/health", a.handleHealth).Methods("GET")

	return router
}

// Run starts the HTTP server and blocks until the context is cancelled or a
// fatal server error occurs. On cancellation, in-flight requests get up to
// 5 seconds to complete.
func (a *App) Run(ctx context.Context, cmd *RunCommand) error {
	router := a.Router()

	addr := fmt.Sprintf(":%s", a.config.ServerPort)
	log.Printf("Starting caseplan server on %s", addr)
	if a.config.Stateless {
		log.Printf("Mode: stateless (templates: %s)", a.templates.Path())
	} else {
		log.Printf("Templates: %s", a.templates.Path())
	}

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
