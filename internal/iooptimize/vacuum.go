package iooptimize

import (
	"context"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jackc/pgx/v5"
	"github.com/sparkify/sparkdl/pkg/schema"
)

// vacuumAnalyze runs VACUUM ANALYZE on each table to reclaim space and
// update query planner statistics. VACUUM cannot run inside a
// transaction block, so every statement goes straight to the pool.
func (o *optimizer) vacuumAnalyze(
	ctx context.Context,
	tables []schema.DDLGenerator,
) error {
	pool := o.operator.Pool()
	for _, t := range tables {
		timeStart := time.Now()
		name := pgx.Identifier{t.TableName()}.Sanitize()

		if _, err := pool.Exec(ctx, "VACUUM ANALYZE "+name); err != nil {
			return VacuumError(t.TableName(), err)
		}

		var rows int64
		err := pool.QueryRow(ctx, "SELECT count(*) FROM "+name).Scan(&rows)
		if err != nil {
			return VacuumError(t.TableName(), err)
		}

		slog.Info("VACUUM ANALYZE completed",
			"table", t.TableName(),
			"rows", humanize.Comma(rows),
			"duration", time.Since(timeStart).String(),
		)
	}
	return nil
}
