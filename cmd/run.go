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
	"syscall"

	"github.com/gnames/gn"
	"github.com/sparkify/sparkdl/internal/ioetl"
	"github.com/spf13/cobra"
)

// getRunCmd returns the run command.
// Extracted as a function to facilitate testing and dynamic
// command registration.
func getRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Build star schema tables from raw data",
		Long: `Build the song play star schema from raw data.

This command:
  1. Reads song metadata files (one JSON object per file)
  2. Reads activity log files (JSON lines)
  3. Builds songs, artists, users and time dimensions
  4. Reconciles song plays with songs and time into songplays_table
  5. Writes every table, replacing its previous version

Output formats:
  files     partitioned JSON lines under <output>/<table>/
  sqlite    <output>/sparkdl.sqlite
  postgres  database from the config file

Malformed records (missing ids, non-numeric timestamps) are dropped and
counted by default. With --malformed fail the run stops before any
table is written.

Examples:
  sparkdl run
  sparkdl run --song-data data/song_data --log-data data/log_data
  sparkdl run -o output -F sqlite
  sparkdl run --format postgres --malformed fail`,
		Aliases: []string{"etl"},
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runETL(cmd)
			if err != nil {
				gn.PrintErrorMessage(err)
			}
			return err
		},
	}

	fs := runCmd.Flags()
	fs.StringP("song-data", "s", "", "directory or file with song metadata")
	fs.StringP("log-data", "l", "", "directory or file with activity logs")
	fs.StringP("output", "o", "", "output directory for files and sqlite formats")
	fs.StringP("format", "F", "", "output format: files, sqlite or postgres")
	fs.StringP("malformed", "m", "", "malformed records policy: drop or fail")
	fs.IntP("jobs", "j", 0, "number of concurrent workers")

	return runCmd
}

func runETL(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	if runOpts := runFlags(cmd); len(runOpts) > 0 {
		cfg.Update(runOpts)
	}

	_, err := ioetl.New().Run(ctx, cfg)
	return err
}
