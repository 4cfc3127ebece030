package caseplan

// Command represents a discrete application operation with its specific
// configuration. Commands are produced by [Parse] and executed by the
// matching method on [App]; the shared database and server configuration
// travels separately in [Config].
type Command interface {
	// Name returns the command identifier used for routing to the
	// appropriate handler. It matches the CLI sub-command name.
	Name() string
}

// MigrateCommand initializes or updates the active backend's schema. For the
// PostgreSQL backend this runs GORM's AutoMigrate; the SurrealDB backend
// creates tables implicitly, so migration is a no-op there. Safe to run
// repeatedly.
type MigrateCommand struct {
	// All configuration comes from App.Config.
}

func (c *MigrateCommand) Name() string {
	return "migrate"
}

// RunCommand starts the HTTP server. The route surface depends on the
// deployment mode: the database-backed service exposes auth and case plan
// CRUD alongside the template and generate endpoints, the stateless service
// exposes only the latter. The server shuts down gracefully on context
// cancellation.
type RunCommand struct {
	// All configuration comes from App.Config.
}

func (c *RunCommand) Name() string {
	return "run"
}
