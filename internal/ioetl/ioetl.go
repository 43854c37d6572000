// Package ioetl runs the star schema pipeline: it reads raw files,
// transforms them with pkg/etl and writes tables to the configured sink.
package ioetl

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/sparkify/sparkdl/internal/iodb"
	"github.com/sparkify/sparkdl/internal/iofiles"
	"github.com/sparkify/sparkdl/internal/ioinput"
	"github.com/sparkify/sparkdl/internal/iosqlite"
	"github.com/sparkify/sparkdl/pkg/config"
	"github.com/sparkify/sparkdl/pkg/etl"
	"github.com/sparkify/sparkdl/pkg/sink"
	"github.com/sparkify/sparkdl/pkg/songplays"
)

type pipeline struct{}

// New creates a pipeline.
func New() etl.Pipeline {
	return &pipeline{}
}

// Run executes the pipeline in 5 steps:
//  1. Read song metadata
//  2. Read activity logs
//  3. Build dimension and fact tables
//  4. Write tables
//  5. Report
//
// Under the 'fail' malformed policy the run stops before step 4 if any
// record was dropped.
func (p *pipeline) Run(
	ctx context.Context,
	cfg *config.Config,
) (etl.Summary, error) {
	var sum etl.Summary
	timeStart := time.Now()

	gn.Info("(1/5) Reading song data from <em>%s</em>", cfg.Input.SongData)
	songs, songFiles, err := ioinput.ReadSongs(ctx, cfg.Input.SongData, cfg.JobsNumber)
	if err != nil {
		return sum, cancelled(ctx, err)
	}

	gn.Info("(2/5) Reading log data from <em>%s</em>", cfg.Input.LogData)
	events, logFiles, err := ioinput.ReadEvents(ctx, cfg.Input.LogData, cfg.JobsNumber)
	if err != nil {
		return sum, cancelled(ctx, err)
	}

	gn.Info("(3/5) Building star schema from %s songs and %s events",
		humanize.Comma(int64(len(songs))), humanize.Comma(int64(len(events))))
	out, err := etl.Build(songs, events, cfg.JobsNumber)
	if err != nil {
		var ierr *songplays.InvariantError
		if errors.As(err, &ierr) {
			return sum, InvariantError(ierr)
		}
		return sum, err
	}

	sum = out.Summary()
	sum.SongFiles = songFiles
	sum.LogFiles = logFiles
	logDrops(sum)

	if cfg.FailOnMalformed() && sum.Dropped() > 0 {
		return sum, MalformedRecordsError(sum.Dropped(), sum.DropReasons())
	}
	if err = ctx.Err(); err != nil {
		return sum, CancelledError(err)
	}

	gn.Info("(4/5) Writing tables as <em>%s</em>", cfg.Output.Format)
	s, err := OpenSink(ctx, cfg)
	if err != nil {
		return sum, err
	}
	if err = WriteTables(ctx, s, cfg.Output.Format, out.Tables()); err != nil {
		return sum, err
	}

	sum.Duration = time.Since(timeStart)
	gn.Info("(5/5) Done in %s", gnfmt.TimeString(sum.Duration.Seconds()))
	Report(sum)
	return sum, nil
}

// OpenSink creates a sink for the configured output format.
func OpenSink(ctx context.Context, cfg *config.Config) (sink.Sink, error) {
	switch cfg.Output.Format {
	case "files":
		return iofiles.NewSink(cfg.Output.Dir)
	case "sqlite":
		return iosqlite.NewSink(cfg.Output.Dir)
	case "postgres":
		op := iodb.NewPgxOperator()
		if err := op.Connect(ctx, &cfg.Database); err != nil {
			return nil, err
		}
		return iodb.NewSink(op, cfg.Database.BatchSize), nil
	}
	return nil, UnknownFormatError(cfg.Output.Format)
}

// WriteTables writes tables in order and closes the sink. When all writes
// succeed, an error from Close is returned.
func WriteTables(
	ctx context.Context,
	s sink.Sink,
	format string,
	tables []sink.Table,
) error {
	for _, t := range tables {
		if err := s.Write(ctx, t); err != nil {
			_ = s.Close()
			return cancelled(ctx, err)
		}
	}
	if err := s.Close(); err != nil {
		return CloseError(format, err)
	}
	return nil
}

// Report prints statistics of a finished run.
func Report(sum etl.Summary) {
	gn.Info("Read %s song files and %s log files",
		humanize.Comma(int64(sum.SongFiles)), humanize.Comma(int64(sum.LogFiles)))
	for _, t := range sum.Tables {
		gn.Info("  %-16s %10s rows, %s dropped",
			t.Name, humanize.Comma(int64(t.Rows)), humanize.Comma(int64(t.Dropped)))
	}
	gn.Info("Songplays with a known song: %s, unknown: %s",
		humanize.Comma(int64(sum.Songplays.Matched)),
		humanize.Comma(int64(sum.Songplays.Unmatched)))
	if n := sum.Songplays.AmbiguousKeys; n > 0 {
		gn.Warn("%d song titles match more than one song of the same artist", n)
	}
}

func logDrops(sum etl.Summary) {
	slog.Info("Star schema is built",
		"song_records", sum.Songs.Records,
		"song_duplicates", sum.Songs.SongDuplicates,
		"artist_duplicates", sum.Songs.ArtistDuplicates,
		"log_records", sum.Logs.Records,
		"filtered_events", sum.Logs.Filtered,
		"songplays", sum.Songplays.Plays,
	)

	for reason, n := range sum.DropReasons() {
		slog.Warn("Dropped malformed records", "reason", reason, "count", n)
	}
	for col, n := range sum.Songs.NulledColumns {
		slog.Warn("Nulled unparsable song values", "column", col, "count", n)
	}
	for col, n := range sum.Logs.NulledColumns {
		slog.Warn("Nulled unparsable event values", "column", col, "count", n)
	}
	if n := sum.Dropped(); n > 0 {
		gn.Warn("Dropped <em>%s</em> malformed records, see the log for details",
			humanize.Comma(int64(n)))
	}
}

// cancelled converts errors caused by an interrupted context.
func cancelled(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return CancelledError(ctxErr)
	}
	return err
}
