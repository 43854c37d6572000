// Package etl ties the pure transformers together. Build runs the song
// metadata transformer, the activity log transformer and the songplay
// reconciler in this order and returns star schema tables together with
// statistics of the run.
package etl

import (
	"context"
	"time"

	"github.com/sparkify/sparkdl/pkg/config"
	"github.com/sparkify/sparkdl/pkg/logdata"
	"github.com/sparkify/sparkdl/pkg/raw"
	"github.com/sparkify/sparkdl/pkg/schema"
	"github.com/sparkify/sparkdl/pkg/sink"
	"github.com/sparkify/sparkdl/pkg/songdata"
	"github.com/sparkify/sparkdl/pkg/songplays"
)

// Pipeline reads raw data, builds the star schema and writes its tables.
type Pipeline interface {
	// Run executes the pipeline once. On error no table is left
	// partially written.
	Run(ctx context.Context, cfg *config.Config) (Summary, error)
}

// Output holds results of all transformation steps.
type Output struct {
	Songs     songdata.Result
	Logs      logdata.Result
	Songplays songplays.Result
}

// Build transforms raw records into the star schema. The returned error
// is a *songplays.InvariantError when dimensions and plays disagree.
func Build(songs []raw.Song, events []raw.Event, jobs int) (Output, error) {
	var res Output
	var err error

	res.Songs = songdata.Transform(songs)
	res.Logs = logdata.Transform(events, jobs)
	res.Songplays, err = songplays.Reconcile(
		res.Logs.Plays, res.Logs.Times,
		res.Songs.Songs, res.Songs.Artists,
	)
	if err != nil {
		return res, err
	}
	return res, nil
}

// Tables converts the output into sink tables in the order they are
// written.
func (o Output) Tables() []sink.Table {
	return []sink.Table{
		schema.SongsTable(o.Songs.Songs),
		schema.ArtistsTable(o.Songs.Artists),
		schema.UsersTable(o.Logs.Users),
		schema.TimeTable(o.Logs.Times),
		schema.SongplaysTable(o.Songplays.Songplays),
	}
}

// Summary describes a pipeline run.
type Summary struct {
	SongFiles int
	LogFiles  int

	Songs     songdata.Stats
	Logs      logdata.Stats
	Songplays songplays.Stats

	Tables []TableStats

	Duration time.Duration
}

// TableStats describes one table artifact.
type TableStats struct {
	Name string
	Rows int

	// Dropped is the number of malformed records excluded from the table.
	Dropped int
}

// Summary creates a run summary from the output.
func (o Output) Summary() Summary {
	songsDropped := o.Songs.Stats.Dropped
	logsDropped := o.Logs.Stats.Dropped
	return Summary{
		Songs:     o.Songs.Stats,
		Logs:      o.Logs.Stats,
		Songplays: o.Songplays.Stats,
		Tables: []TableStats{
			{schema.SongsTableName, len(o.Songs.Songs), songsDropped},
			{schema.ArtistsTableName, len(o.Songs.Artists), songsDropped},
			{schema.UsersTableName, len(o.Logs.Users), logsDropped},
			{schema.TimeTableName, len(o.Logs.Times), logsDropped},
			{schema.SongplaysTableName, len(o.Songplays.Songplays), logsDropped},
		},
	}
}

// Dropped returns the total number of malformed records.
func (s Summary) Dropped() int {
	return s.Songs.Dropped + s.Logs.Dropped
}

// DropReasons merges drop reasons of song and log records.
func (s Summary) DropReasons() map[string]int {
	res := make(map[string]int)
	for k, v := range s.Songs.DropReasons {
		res[k] += v
	}
	for k, v := range s.Logs.DropReasons {
		res[k] += v
	}
	return res
}
