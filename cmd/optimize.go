/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/gnames/gn"
	"github.com/sparkify/sparkdl/internal/iodb"
	"github.com/sparkify/sparkdl/internal/iooptimize"
	"github.com/spf13/cobra"
)

func getOptimizeCmd() *cobra.Command {
	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Optimize database for analytical queries",
		Long: `Optimize star schema tables in PostgreSQL for analytical queries.

This command creates indexes on foreign keys and partition columns of
songplays, time and songs tables, then runs VACUUM ANALYZE on every
table to refresh planner statistics. Tables that do not exist yet are
skipped with a warning.

Prerequisites:
  - Database must be created (run 'sparkdl create' first)
  - Tables must be loaded (run 'sparkdl run --format postgres' first)

Examples:
  sparkdl optimize`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(cmd, args)
		},
	}

	return optimizeCmd
}

func runOptimize(
	_ *cobra.Command,
	_ []string,
) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	op := iodb.NewPgxOperator()
	err := op.Connect(ctx, &cfg.Database)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	defer op.Close()

	gn.Info("Connected to database: <em>%s@%s:%d/%s</em>",
		cfg.Database.User, cfg.Database.Host,
		cfg.Database.Port, cfg.Database.Database)

	hasTables, err := op.HasTables(ctx)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if !hasTables {
		err = iodb.EmptyDatabaseError(cfg.Database.Host, cfg.Database.Database)
		gn.PrintErrorMessage(err)
		return err
	}

	optimizer := iooptimize.NewOptimizer(op)

	gn.Info("Starting database optimization...")
	if err := optimizer.Optimize(ctx, cfg); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	gn.Info(`Database optimization is complete!

You can re-run '<em>sparkdl optimize</em>' after every load.`)

	return nil
}
