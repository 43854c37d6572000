package iooptimize

import (
	"context"
	"log/slog"

	"github.com/sparkify/sparkdl/pkg/schema"
)

// createIndexes runs index statements of the given tables. Statements
// use IF NOT EXISTS, so indexes created by a previous run are kept.
func (o *optimizer) createIndexes(
	ctx context.Context,
	tables []schema.DDLGenerator,
) error {
	var total int
	for _, t := range tables {
		total += len(t.IndexDDL())
	}

	bar := newProgressBar(total, "Creating indexes: ")
	defer bar.Finish()

	pool := o.operator.Pool()
	for _, t := range tables {
		for _, q := range t.IndexDDL() {
			if _, err := pool.Exec(ctx, q); err != nil {
				return IndexError(t.TableName(), err)
			}
			bar.Increment()
		}
		slog.Info("Indexes are ready", "table", t.TableName(),
			"indexes", len(t.IndexDDL()))
	}
	return nil
}
