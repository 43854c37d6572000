/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/gnames/gn"
	"github.com/sparkify/sparkdl/internal/iodb"
	"github.com/sparkify/sparkdl/internal/ioschema"
	app "github.com/sparkify/sparkdl/pkg"
	"github.com/sparkify/sparkdl/pkg/db"
	"github.com/sparkify/sparkdl/pkg/schema"
	"github.com/spf13/cobra"
)

func getMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring star schema tables in line with the current models",
		Long: `Migrate compares songs_table, artists_table, users_table,
time_table and songplays_table in PostgreSQL with the models of this
sparkdl version and applies the difference with GORM AutoMigrate.

Missing star schema tables and columns are added. Loaded rows,
extra columns and indexes built by 'sparkdl optimize' stay in place,
so a migrated database is ready for the next
'sparkdl run --format postgres'.

Run 'sparkdl create' instead when the database has no tables yet.

Examples:
  sparkdl migrate
  SPARKDL_DATABASE_DATABASE=sparkify_dev sparkdl migrate`,
		RunE: runMigrate,
	}

	return migrateCmd
}

func runMigrate(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	op := iodb.NewPgxOperator()
	if err := op.Connect(ctx, &cfg.Database); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	defer op.Close()

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

	missing, err := missingTables(ctx, op)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	if len(missing) > 0 {
		gn.Info("Adding star schema tables: <em>%s</em>",
			strings.Join(missing, ", "))
	}

	if err = ioschema.NewManager(op).Migrate(ctx, cfg); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	gn.Info("Star schema of <em>%s</em> matches sparkdl <em>%s</em>",
		cfg.Database.Database, app.Version)
	return nil
}

// missingTables returns names of star schema tables absent from the
// database.
func missingTables(ctx context.Context, op db.Operator) ([]string, error) {
	var res []string
	for _, g := range schema.Generators() {
		ok, err := op.TableExists(ctx, g.TableName())
		if err != nil {
			return nil, err
		}
		if !ok {
			res = append(res, g.TableName())
		}
	}
	return res, nil
}
