// Package iooptimize implements Optimizer interface for database
// performance optimization. This is an impure I/O package that
// creates indexes and refreshes planner statistics for star schema
// tables.
package iooptimize

import (
	"context"
	"log/slog"
	"time"

	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/sparkify/sparkdl/pkg/config"
	"github.com/sparkify/sparkdl/pkg/db"
	"github.com/sparkify/sparkdl/pkg/lifecycle"
	"github.com/sparkify/sparkdl/pkg/schema"
)

// optimizer implements the Optimizer interface.
type optimizer struct {
	operator db.Operator
}

// NewOptimizer creates a new Optimizer.
func NewOptimizer(op db.Operator) lifecycle.Optimizer {
	return &optimizer{
		operator: op,
	}
}

// Optimize executes 3 sequential steps:
//  1. Find star schema tables present in the database
//  2. Create indexes on join and filter columns
//  3. Run VACUUM ANALYZE to update statistics
//
// Tables that are not loaded yet are skipped with a warning.
func (o *optimizer) Optimize(
	ctx context.Context,
	_ *config.Config,
) error {
	if o.operator.Pool() == nil {
		return NotConnectedError()
	}
	timeStart := time.Now()

	slog.Info("Step 1/3: Looking for star schema tables")
	tables, err := o.presentTables(ctx)
	if err != nil {
		return err
	}

	slog.Info("Step 2/3: Creating indexes")
	if err = o.createIndexes(ctx, tables); err != nil {
		return err
	}

	slog.Info("Step 3/3: Updating statistics")
	if err = o.vacuumAnalyze(ctx, tables); err != nil {
		return err
	}

	slog.Info("Database optimization completed successfully",
		"tables", len(tables),
		"duration", time.Since(timeStart).String(),
	)
	gn.Info("Optimized %d tables in %s",
		len(tables), gnfmt.TimeString(time.Since(timeStart).Seconds()))
	return nil
}

func (o *optimizer) presentTables(
	ctx context.Context,
) ([]schema.DDLGenerator, error) {
	var res []schema.DDLGenerator
	for _, g := range schema.Generators() {
		exists, err := o.operator.TableExists(ctx, g.TableName())
		if err != nil {
			return nil, err
		}
		if !exists {
			gn.Warn("Table <em>%s</em> is missing, skipping it", g.TableName())
			continue
		}
		res = append(res, g)
	}
	return res, nil
}
