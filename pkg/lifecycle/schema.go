// Package lifecycle defines contracts for the PostgreSQL side of the
// star schema: creating and migrating tables and optimizing them for
// analytical queries.
package lifecycle

import (
	"context"

	"github.com/sparkify/sparkdl/pkg/config"
)

// SchemaManager defines the interface for database schema management.
// It uses GORM AutoMigrate to handle both initial schema creation and migrations.
// Schema management is idempotent - safe to run multiple times.
type SchemaManager interface {
	// Create creates star schema tables. Callers drop existing tables
	// beforehand when a clean database is required.
	Create(ctx context.Context, cfg *config.Config) error

	// Migrate updates the database schema to the latest version using GORM AutoMigrate.
	Migrate(ctx context.Context, cfg *config.Config) error
}
