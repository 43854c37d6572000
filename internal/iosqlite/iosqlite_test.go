package iosqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/sparkify/sparkdl/internal/iosqlite"
	"github.com/sparkify/sparkdl/pkg/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func timeTable(n int) sink.Table {
	res := sink.Table{
		Name:          "time_table",
		PartitionKeys: []string{"year", "month"},
		Columns:       []string{"start_time", "hour", "month", "year"},
		ColumnTypes:   []string{"TIMESTAMP", "INT", "INT", "INT"},
	}
	base := time.Date(2018, 11, 1, 0, 0, 2, 0, time.UTC)
	for i := range n {
		st := base.Add(time.Duration(i) * time.Hour)
		res.Rows = append(res.Rows,
			[]any{st, int64(st.Hour()), int64(11), int64(2018)})
	}
	return res
}

func openDB(t *testing.T, dir string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(dir, iosqlite.DBFile))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var res int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM "+table).Scan(&res))
	return res
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	s, err := iosqlite.NewSink(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, timeTable(3)))
	require.NoError(t, s.Write(ctx, timeTable(2)), "table is replaced")
	require.NoError(t, s.Close())

	db := openDB(t, dir)
	assert.Equal(t, 2, count(t, db, "time_table"))

	var st string
	var hour int
	err = db.QueryRow(
		"SELECT start_time, hour FROM time_table ORDER BY start_time DESC LIMIT 1",
	).Scan(&st, &hour)
	require.NoError(t, err)
	assert.Equal(t, "2018-11-01 01:00:02", st)
	assert.Equal(t, 1, hour)

	var idx int
	err = db.QueryRow(
		`SELECT count(*) FROM sqlite_master
		 WHERE type = 'index' AND name = 'idx_time_table_partition'`,
	).Scan(&idx)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestWriteNulls(t *testing.T) {
	dir := t.TempDir()
	s, err := iosqlite.NewSink(dir)
	require.NoError(t, err)

	tbl := sink.Table{
		Name:        "artists_table",
		Columns:     []string{"artist_id", "artist_location", "artist_latitude"},
		ColumnTypes: []string{"TEXT", "TEXT", "DOUBLE PRECISION"},
		Rows:        [][]any{{"AR1", nil, nil}, {"AR2", "Berlin", 52.5}},
	}
	require.NoError(t, s.Write(context.Background(), tbl))
	require.NoError(t, s.Close())

	db := openDB(t, dir)
	var nulls int
	err = db.QueryRow(
		"SELECT count(*) FROM artists_table WHERE artist_location IS NULL",
	).Scan(&nulls)
	require.NoError(t, err)
	assert.Equal(t, 1, nulls)
}

func TestWriteFailureKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	s, err := iosqlite.NewSink(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, timeTable(3)))

	bad := timeTable(2)
	bad.Rows[1] = bad.Rows[1][:2]
	assert.Error(t, s.Write(ctx, bad))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, s.Write(cancelled, timeTable(5)))
	require.NoError(t, s.Close())

	db := openDB(t, dir)
	assert.Equal(t, 3, count(t, db, "time_table"))

	var staging int
	err = db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE name = 'time_table__new'`,
	).Scan(&staging)
	require.NoError(t, err)
	assert.Zero(t, staging)
}
