package schema

import (
	"database/sql/driver"
	"reflect"

	"github.com/sparkify/sparkdl/pkg/sink"
)

// SongsTable converts songs to a table partitioned by year and artist_id.
func SongsTable(rows []Song) sink.Table {
	return newTable(rows, "year", "artist_id")
}

// ArtistsTable converts artists to a table without partitions.
func ArtistsTable(rows []Artist) sink.Table {
	return newTable(rows)
}

// UsersTable converts users to a table without partitions.
func UsersTable(rows []User) sink.Table {
	return newTable(rows)
}

// TimeTable converts time rows to a table partitioned by year and month.
func TimeTable(rows []Time) sink.Table {
	return newTable(rows, "year", "month")
}

// SongplaysTable converts songplays to a table partitioned by year and
// month.
func SongplaysTable(rows []Songplay) sink.Table {
	return newTable(rows, "year", "month")
}

func newTable[T DDLGenerator](rows []T, partitionKeys ...string) sink.Table {
	var zero T
	cols := columns(reflect.TypeOf(zero))

	res := sink.Table{
		Name:          zero.TableName(),
		PartitionKeys: partitionKeys,
		Columns:       make([]string, len(cols)),
		ColumnTypes:   make([]string, len(cols)),
		Rows:          make([][]any, len(rows)),
	}
	for i, c := range cols {
		res.Columns[i] = c.name
		res.ColumnTypes[i] = columnType(c.ddl)
	}

	for i := range rows {
		v := reflect.ValueOf(rows[i])
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = value(v.Field(c.idx).Interface())
		}
		res.Rows[i] = row
	}
	return res
}

// value normalizes a model field to one of nil, string, int64, float64,
// bool or time.Time.
func value(v any) any {
	if vl, ok := v.(driver.Valuer); ok {
		var err error
		if v, err = vl.Value(); err != nil {
			return nil
		}
	}

	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int16:
		return int64(n)
	case float32:
		return float64(n)
	}
	return v
}
