// Package sink defines how finished star schema tables leave the pipeline.
// Implementations live in internal/iofiles, internal/iosqlite and
// internal/iodb.
package sink

import (
	"context"
	"fmt"
	"slices"
)

// Table is a finished logical table ready to be materialized.
type Table struct {
	// Name of the table artifact, for example 'songs_table'.
	Name string

	// PartitionKeys is a storage layout hint, it can be empty.
	PartitionKeys []string

	// Columns are names of the columns in the order of values in Rows.
	Columns []string

	// ColumnTypes are SQL types of the columns (PostgreSQL flavour),
	// in the same order as Columns.
	ColumnTypes []string

	// Rows contain column-ordered values. A nil value means NULL.
	// Values are one of string, int64, float64 or time.Time.
	Rows [][]any
}

// Sink materializes tables. Write must be all-or-nothing: when it returns
// an error the previous version of the table artifact (if any) stays
// intact.
type Sink interface {
	// Write replaces the table artifact with the content of the table.
	Write(ctx context.Context, t Table) error

	// Close releases resources held by the sink.
	Close() error
}

// ColumnIndex returns the position of a column, or -1 if the table has no
// such column.
func (t Table) ColumnIndex(name string) int {
	return slices.Index(t.Columns, name)
}

// Validate checks that the table is internally consistent.
func (t Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table name is empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", t.Name)
	}
	if len(t.ColumnTypes) != len(t.Columns) {
		return fmt.Errorf("table %s has %d columns and %d column types",
			t.Name, len(t.Columns), len(t.ColumnTypes))
	}
	for _, k := range t.PartitionKeys {
		if t.ColumnIndex(k) < 0 {
			return fmt.Errorf("table %s has no partition column %s", t.Name, k)
		}
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("table %s row %d has %d values, expected %d",
				t.Name, i, len(row), len(t.Columns))
		}
	}
	return nil
}
