// Package caseplan is a case plan generation service for social work and
// community supervision settings.
//
// A case plan is built from a static template document: a set of risk domains
// (housing, employment, substance use, ...) each carrying goals, objectives,
// and tasks per risk level. Practitioners select a risk level per domain and
// the service assembles the matching template text into a plan document, which
// can then be saved, listed, edited, and deleted per account.
//
// # Architecture Overview
//
//   - Multi-Backend Support: the
//     [github.com/caseplanhq/caseplan/pkg/store.Store] interface abstracts a
//     PostgreSQL implementation (GORM ORM) and a SurrealDB implementation
//     (CBOR protocol, no ORM); an in-memory implementation backs tests.
//   - Stateless Mode: the service can run without any database, serving only
//     the template and plan generation endpoints.
//   - Command Pattern: the
//     [github.com/caseplanhq/caseplan/pkg/caseplan.Command] interface
//     organizes application operations (run, migrate) with their specific
//     configurations.
//
// # Packages
//
//   - [github.com/caseplanhq/caseplan/pkg/plan]: template document and plan
//     assembly, free of HTTP and storage concerns
//   - [github.com/caseplanhq/caseplan/pkg/models]: persisted entities and
//     typed IDs
//   - [github.com/caseplanhq/caseplan/pkg/store]: persistence interface and
//     its postgres, surrealdb, and memory implementations
//   - [github.com/caseplanhq/caseplan/pkg/caseplan]: configuration, HTTP
//     server, handlers, sessions
//   - [github.com/caseplanhq/caseplan/pkg/client]: typed Go client for the
//     REST API
//
// # Running
//
//	caseplan migrate                 # create/update the PostgreSQL schema
//	caseplan run                     # PostgreSQL-backed service on :8080
//	caseplan -surreal run            # SurrealDB-backed service
//	caseplan -stateless run          # template-only service, no database
package caseplan
