package caseplan

import (
	"context"
	"fmt"
	"log"
)

// Migrate runs schema migration on the active store.
func (a *App) Migrate(ctx context.Context, cmd *MigrateCommand) error {
	log.Println("Running database migrations...")
	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Println("Migrations completed successfully")
	return nil
}
