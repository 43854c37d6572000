package schema

import (
	"gorm.io/gorm"
)

// AllModels returns all schema models for GORM AutoMigrate.
func AllModels() []any {
	return []any{
		&Song{},
		&Artist{},
		&User{},
		&Time{},
		&Songplay{},
	}
}

// Generators returns all schema models as DDL generators, in the order
// tables are produced by the pipeline.
func Generators() []DDLGenerator {
	return []DDLGenerator{
		Song{},
		Artist{},
		User{},
		Time{},
		Songplay{},
	}
}

// Migrate runs GORM AutoMigrate to create or update schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
