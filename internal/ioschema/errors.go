package ioschema

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/sparkify/sparkdl/pkg/errcode"
)

// NotConnectedError is returned when the schema manager gets an operator
// without a connection pool.
func NotConnectedError() error {
	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  "Star schema cannot be managed before connecting to PostgreSQL",
		Err:  fmt.Errorf("schema manager: no connection pool"),
	}
}

// GORMConnectionError is returned when GORM cannot reuse the pgx pool.
func GORMConnectionError(err error) error {
	return &gn.Error{
		Code: errcode.SchemaGORMConnectionError,
		Msg:  "Cannot open GORM session on the sparkdl connection pool",
		Err:  fmt.Errorf("gorm over pgx pool: %w", err),
	}
}

// CreateSchemaError is returned when star schema tables cannot be
// created.
func CreateSchemaError(err error) error {
	msg := `Cannot create star schema tables in <em>%s</em>

<em>How to fix:</em>
  Grant CREATE on the public schema to the sparkdl user, or drop
  leftover tables with 'sparkdl create --force'`
	return &gn.Error{
		Code: errcode.SchemaCreateError,
		Msg:  msg,
		Vars: []any{"public"},
		Err:  fmt.Errorf("create star schema: %w", err),
	}
}

// MigrateSchemaError is returned when existing star schema tables cannot
// be brought in line with the models. It usually means a column was
// loaded by 'sparkdl run --format postgres' with a type GORM cannot alter.
func MigrateSchemaError(err error) error {
	msg := `Cannot migrate star schema tables

<em>How to fix:</em>
  Compare column types of songs_table, artists_table, users_table,
  time_table and songplays_table with 'sparkdl create', then
  recreate the schema with 'sparkdl create --force' and reload data`
	return &gn.Error{
		Code: errcode.SchemaMigrateError,
		Msg:  msg,
		Err:  fmt.Errorf("migrate star schema: %w", err),
	}
}
