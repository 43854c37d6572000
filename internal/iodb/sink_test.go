package iodb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sparkify/sparkdl/internal/iotesting"
	"github.com/sparkify/sparkdl/pkg/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable(name string) sink.Table {
	return sink.Table{
		Name:          name,
		PartitionKeys: []string{"year"},
		Columns:       []string{"id", "title", "year", "created"},
		ColumnTypes:   []string{"UUID", "TEXT", "INT", "TIMESTAMP"},
		Rows: [][]any{
			{
				"6ba7b810-9dad-11d1-80b4-00c04fd430c8", "Intro", int64(2009),
				time.Date(2018, 11, 1, 0, 0, 2, 0, time.UTC),
			},
			{
				"6ba7b811-9dad-11d1-80b4-00c04fd430c8", "Outro", nil,
				time.Date(2018, 11, 2, 0, 0, 2, 0, time.UTC),
			},
		},
	}
}

func TestCreateTableSQL(t *testing.T) {
	q := createTableSQL(testTable("songs_table"))
	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "songs_table" (
    "id" UUID,
    "title" TEXT,
    "year" INT,
    "created" TIMESTAMP
)`, q)
}

func TestBatches(t *testing.T) {
	rows := make([][]any, 5)
	tests := []struct {
		msg  string
		size int
		lens []int
	}{
		{"exact", 5, []int{5}},
		{"remainder", 2, []int{2, 2, 1}},
		{"large", 100, []int{5}},
	}

	for _, v := range tests {
		var lens []int
		for _, b := range batches(rows, v.size) {
			lens = append(lens, len(b))
		}
		assert.Equal(t, v.lens, lens, v.msg)
	}
	assert.Empty(t, batches(nil, 10))
}

func TestCopyRows(t *testing.T) {
	tbl := testTable("songs_table")
	rows, err := copyRows(tbl, tbl.Rows)
	require.NoError(t, err)

	id, ok := rows[0][0].(pgtype.UUID)
	require.True(t, ok)
	assert.True(t, id.Valid)
	assert.Equal(t, uuid.MustParse(tbl.Rows[0][0].(string)), uuid.UUID(id.Bytes))
	assert.Equal(t, "Intro", rows[0][1])
	assert.IsType(t, "", tbl.Rows[0][0], "source rows are not modified")

	tbl.Rows[1][0] = "not-a-uuid"
	_, err = copyRows(tbl, tbl.Rows)
	assert.Error(t, err)
}

func TestSinkNotConnected(t *testing.T) {
	s := NewSink(NewPgxOperator(), 10)
	err := s.Write(context.Background(), testTable("sink_test_table"))
	assert.Error(t, err)
}

func TestSinkWrite(t *testing.T) {
	op := NewPgxOperator()
	iotesting.ConnectOrSkip(t, op)

	ctx := context.Background()
	name := "sink_test_table"
	_, _ = op.Pool().Exec(ctx, "DROP TABLE IF EXISTS "+name)

	s := NewSink(op, 1)
	defer s.Close()

	tbl := testTable(name)
	for range 2 {
		require.NoError(t, s.Write(ctx, tbl))
	}

	var count int
	err := op.Pool().QueryRow(ctx, "SELECT count(*) FROM "+name).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "rewriting a table replaces its rows")

	bad := testTable(name)
	bad.Rows = append(bad.Rows, []any{"not-a-uuid", "x", nil, time.Now()})
	require.Error(t, s.Write(ctx, bad))

	err = op.Pool().QueryRow(ctx, "SELECT count(*) FROM "+name).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "failed write leaves previous rows")

	_, _ = op.Pool().Exec(ctx, "DROP TABLE IF EXISTS "+name)
}
