package iodb

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sparkify/sparkdl/pkg/db"
	"github.com/sparkify/sparkdl/pkg/sink"
)

// pgSink loads tables into PostgreSQL. Each table is replaced in one
// transaction, so readers see either the old or the new content.
type pgSink struct {
	operator  db.Operator
	batchSize int
}

// NewSink creates a PostgreSQL sink on a connected operator. The sink owns
// the operator and closes it on Close.
func NewSink(op db.Operator, batchSize int) sink.Sink {
	if batchSize <= 0 {
		batchSize = 50_000
	}
	return &pgSink{operator: op, batchSize: batchSize}
}

// Write creates the table if it is missing, truncates it and copies rows
// in batches. Everything happens in one transaction. A table created
// by 'sparkdl create' keeps its primary key and indexes.
func (s *pgSink) Write(ctx context.Context, t sink.Table) error {
	pool := s.operator.Pool()
	if pool == nil {
		return NotConnectedError()
	}
	if err := t.Validate(); err != nil {
		return SinkWriteError(t.Name, err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return SinkWriteError(t.Name, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, createTableSQL(t)); err != nil {
		return SinkWriteError(t.Name, err)
	}

	q := "TRUNCATE TABLE " + pgx.Identifier{t.Name}.Sanitize()
	if _, err = tx.Exec(ctx, q); err != nil {
		return SinkWriteError(t.Name, err)
	}

	var total int64
	for _, batch := range batches(t.Rows, s.batchSize) {
		rows, err := copyRows(t, batch)
		if err != nil {
			return SinkWriteError(t.Name, err)
		}

		n, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{t.Name},
			t.Columns,
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return SinkWriteError(t.Name, err)
		}
		total += n
	}

	if err = tx.Commit(ctx); err != nil {
		return SinkWriteError(t.Name, err)
	}

	slog.Info("Table loaded into PostgreSQL",
		"table", t.Name,
		"rows", humanize.Comma(total),
	)
	return nil
}

// Close closes the database operator.
func (s *pgSink) Close() error {
	return s.operator.Close()
}

// createTableSQL builds a CREATE TABLE IF NOT EXISTS statement from
// column names and types of the table.
func createTableSQL(t sink.Table) string {
	cols := make([]string, len(t.Columns))
	for i := range t.Columns {
		cols[i] = fmt.Sprintf("    %s %s",
			pgx.Identifier{t.Columns[i]}.Sanitize(), t.ColumnTypes[i])
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)",
		pgx.Identifier{t.Name}.Sanitize(),
		strings.Join(cols, ",\n"))
}

// batches splits rows into consecutive chunks of at most size rows.
func batches(rows [][]any, size int) [][][]any {
	var res [][][]any
	for i := 0; i < len(rows); i += size {
		end := min(i+size, len(rows))
		res = append(res, rows[i:end])
	}
	return res
}

// copyRows converts UUID columns from their text form to pgtype.UUID,
// other values are passed to CopyFrom as they are.
func copyRows(t sink.Table, rows [][]any) ([][]any, error) {
	var uuidCols []int
	for i, tp := range t.ColumnTypes {
		if strings.EqualFold(tp, "UUID") {
			uuidCols = append(uuidCols, i)
		}
	}
	if len(uuidCols) == 0 {
		return rows, nil
	}

	res := make([][]any, len(rows))
	for i, row := range rows {
		r := make([]any, len(row))
		copy(r, row)
		for _, j := range uuidCols {
			v, err := pgUUID(r[j])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", t.Columns[j], err)
			}
			r[j] = v
		}
		res[i] = r
	}
	return res, nil
}

func pgUUID(v any) (pgtype.UUID, error) {
	switch u := v.(type) {
	case nil:
		return pgtype.UUID{}, nil
	case uuid.UUID:
		return pgtype.UUID{Bytes: u, Valid: true}, nil
	case string:
		id, err := uuid.Parse(u)
		if err != nil {
			return pgtype.UUID{}, err
		}
		return pgtype.UUID{Bytes: id, Valid: true}, nil
	}
	return pgtype.UUID{}, fmt.Errorf("unsupported uuid value %T", v)
}
