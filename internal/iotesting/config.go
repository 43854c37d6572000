// Package iotesting provides shared test utilities for integration tests.
// This is an internal package for test infrastructure only.
package iotesting

import (
	"context"
	"strings"
	"testing"

	"github.com/sparkify/sparkdl/pkg/config"
	"github.com/spf13/viper"
)

const (
	// TestDatabaseName is the database name used for all integration tests.
	// This ensures tests never accidentally run against production databases.
	TestDatabaseName = "sparkdl_test"
)

// GetTestConfig returns a configuration suitable for integration tests.
// It starts from defaults, applies SPARKDL_DATABASE_* environment
// variables and overrides the database name to TestDatabaseName.
//
// Configuration examples:
//
//	export SPARKDL_DATABASE_USER=your_user
//	export SPARKDL_DATABASE_PASSWORD=your_password
//
// or run PostgreSQL in Docker with default credentials:
//
//	docker run -d -e POSTGRES_PASSWORD=postgres -p 5432:5432 postgres:16
func GetTestConfig() *config.Config {
	v := viper.New()
	v.SetEnvPrefix("SPARKDL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range []string{
		"database.host", "database.port", "database.user",
		"database.password", "database.ssl_mode",
	} {
		_ = v.BindEnv(k)
	}

	var env config.Config
	_ = v.Unmarshal(&env)

	cfg := config.New()
	cfg.Update(env.ToOptions())

	// Always use test database for safety
	cfg.Update([]config.Option{config.OptDatabaseDatabase(TestDatabaseName)})

	return cfg
}

// GetTestDatabaseConfig returns only the database configuration for tests.
func GetTestDatabaseConfig() *config.DatabaseConfig {
	cfg := GetTestConfig()
	return &cfg.Database
}

// Connector is satisfied by db.Operator.
type Connector interface {
	Connect(context.Context, *config.DatabaseConfig) error
}

// ConnectOrSkip skips an integration test in short mode or when the
// test database is not reachable.
func ConnectOrSkip(t *testing.T, op Connector) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if err := op.Connect(context.Background(), GetTestDatabaseConfig()); err != nil {
		t.Skipf("Skipping integration test, PostgreSQL is not available: %v", err)
	}
}
