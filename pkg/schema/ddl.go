package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Table names of the star schema artifacts.
const (
	SongsTableName     = "songs_table"
	ArtistsTableName   = "artists_table"
	UsersTableName     = "users_table"
	TimeTableName      = "time_table"
	SongplaysTableName = "songplays_table"
)

// column is a model field that takes part in a table.
type column struct {
	idx  int
	name string
	ddl  string
}

// columns returns fields of a model that have both db and ddl tags.
func columns(t reflect.Type) []column {
	var res []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		dbTag := field.Tag.Get("db")
		ddlTag := field.Tag.Get("ddl")

		if dbTag != "" && ddlTag != "" {
			res = append(res, column{idx: i, name: dbTag, ddl: ddlTag})
		}
	}
	return res
}

// generateDDL creates a CREATE TABLE statement from struct tags.
func generateDDL(model any, tableName string) string {
	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	var cols []string
	for _, c := range columns(v.Type()) {
		cols = append(cols, fmt.Sprintf("    %s %s", c.name, c.ddl))
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (\n%s\n);",
		tableName,
		strings.Join(cols, ",\n"))

	return ddl
}

// columnType strips constraints from a ddl tag, leaving only the type,
// for example "TIMESTAMP PRIMARY KEY" becomes "TIMESTAMP".
func columnType(ddl string) string {
	var res []string
	for _, w := range strings.Fields(ddl) {
		switch strings.ToUpper(w) {
		case "PRIMARY", "NOT", "NULL", "DEFAULT", "UNIQUE", "REFERENCES":
			return strings.Join(res, " ")
		}
		res = append(res, w)
	}
	return strings.Join(res, " ")
}

// Song DDL methods
func (s Song) TableDDL() string {
	return generateDDL(s, s.TableName())
}

func (s Song) IndexDDL() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_songs_song_id ON songs_table(song_id);",
		"CREATE INDEX IF NOT EXISTS idx_songs_artist_id ON songs_table(artist_id);",
		"CREATE INDEX IF NOT EXISTS idx_songs_title ON songs_table(title);",
	}
}

func (s Song) TableName() string {
	return SongsTableName
}

// Artist DDL methods
func (a Artist) TableDDL() string {
	return generateDDL(a, a.TableName())
}

func (a Artist) IndexDDL() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_artists_artist_id ON artists_table(artist_id);",
		"CREATE INDEX IF NOT EXISTS idx_artists_artist_name ON artists_table(artist_name);",
	}
}

func (a Artist) TableName() string {
	return ArtistsTableName
}

// User DDL methods
func (u User) TableDDL() string {
	return generateDDL(u, u.TableName())
}

func (u User) IndexDDL() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_users_level ON users_table(level);",
	}
}

func (u User) TableName() string {
	return UsersTableName
}

// Time DDL methods
func (t Time) TableDDL() string {
	return generateDDL(t, t.TableName())
}

func (t Time) IndexDDL() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_time_year_month ON time_table(year, month);",
	}
}

func (t Time) TableName() string {
	return TimeTableName
}

// Songplay DDL methods
func (sp Songplay) TableDDL() string {
	return generateDDL(sp, sp.TableName())
}

func (sp Songplay) IndexDDL() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_songplays_start_time ON songplays_table(start_time);",
		"CREATE INDEX IF NOT EXISTS idx_songplays_user_id ON songplays_table(user_id);",
		"CREATE INDEX IF NOT EXISTS idx_songplays_song_id ON songplays_table(song_id);",
		"CREATE INDEX IF NOT EXISTS idx_songplays_artist_id ON songplays_table(artist_id);",
		"CREATE INDEX IF NOT EXISTS idx_songplays_year_month ON songplays_table(year, month);",
	}
}

func (sp Songplay) TableName() string {
	return SongplaysTableName
}
