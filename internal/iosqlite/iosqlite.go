// Package iosqlite writes star schema tables into a single SQLite
// database file. Every table is rebuilt in its own transaction under a
// staging name and renamed over the previous version on commit.
package iosqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sparkify/sparkdl/pkg/sink"
	_ "modernc.org/sqlite"
)

const (
	// DBFile is the name of the database file in the output directory.
	DBFile = "sparkdl.sqlite"

	// TimeLayout formats timestamps stored as TEXT.
	TimeLayout = "2006-01-02 15:04:05"

	stagingSuffix = "__new"
)

type sqliteSink struct {
	db   *sql.DB
	path string
}

// NewSink opens (or creates) <dir>/sparkdl.sqlite.
func NewSink(dir string) (sink.Sink, error) {
	path := filepath.Join(dir, DBFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, OpenError(path, err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path,
	)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, OpenError(path, err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, OpenError(path, err)
	}

	return &sqliteSink{db: db, path: path}, nil
}

// Write replaces the table with the content of t in one transaction.
func (s *sqliteSink) Write(ctx context.Context, t sink.Table) error {
	if err := t.Validate(); err != nil {
		return WriteError(t.Name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WriteError(t.Name, err)
	}
	defer func() { _ = tx.Rollback() }()

	staging := t.Name + stagingSuffix
	for _, q := range []string{
		"DROP TABLE IF EXISTS " + quote(staging),
		createTableSQL(staging, t),
	} {
		if _, err = tx.ExecContext(ctx, q); err != nil {
			return WriteError(t.Name, err)
		}
	}

	if err = insertRows(ctx, tx, staging, t); err != nil {
		return WriteError(t.Name, err)
	}

	stmts := []string{
		"DROP TABLE IF EXISTS " + quote(t.Name),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quote(staging), quote(t.Name)),
	}
	if len(t.PartitionKeys) > 0 {
		stmts = append(stmts, partitionIndexSQL(t))
	}
	for _, q := range stmts {
		if _, err = tx.ExecContext(ctx, q); err != nil {
			return WriteError(t.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return WriteError(t.Name, err)
	}

	slog.Info("Table written to SQLite",
		"table", t.Name,
		"rows", humanize.Comma(int64(len(t.Rows))),
		"path", s.path,
	)
	return nil
}

// Close closes the database.
func (s *sqliteSink) Close() error {
	return s.db.Close()
}

func insertRows(ctx context.Context, tx *sql.Tx, table string, t sink.Table) error {
	cols := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quote(c)
		marks[i] = "?"
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(table), strings.Join(cols, ", "), strings.Join(marks, ", "))

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for i, row := range t.Rows {
		for j, v := range row {
			args[j] = sqliteValue(v)
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

func createTableSQL(name string, t sink.Table) string {
	cols := make([]string, len(t.Columns))
	for i := range t.Columns {
		cols[i] = fmt.Sprintf("    %s %s", quote(t.Columns[i]), sqliteType(t.ColumnTypes[i]))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", quote(name), strings.Join(cols, ",\n"))
}

func partitionIndexSQL(t sink.Table) string {
	cols := make([]string, len(t.PartitionKeys))
	for i, k := range t.PartitionKeys {
		cols[i] = quote(k)
	}
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)",
		quote("idx_"+t.Name+"_partition"), quote(t.Name), strings.Join(cols, ", "))
}

// sqliteType maps a PostgreSQL column type to a SQLite type affinity.
func sqliteType(pgType string) string {
	tp := strings.ToUpper(pgType)
	switch {
	case strings.Contains(tp, "INT"):
		return "INTEGER"
	case strings.Contains(tp, "DOUBLE"), strings.Contains(tp, "REAL"),
		strings.Contains(tp, "FLOAT"), strings.Contains(tp, "NUMERIC"):
		return "REAL"
	case strings.Contains(tp, "BOOL"):
		return "INTEGER"
	}
	return "TEXT"
}

func sqliteValue(v any) any {
	if tm, ok := v.(time.Time); ok {
		return tm.UTC().Format(TimeLayout)
	}
	return v
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
