// Package schema provides star schema models for sparkdl.
// Models describe dimension tables (songs, artists, users, time) and the
// songplays fact table. Struct tags drive DDL generation (db, ddl),
// GORM AutoMigrate (gorm) and conversion to sink tables.
package schema

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DDLGenerator defines how Go models generate PostgreSQL DDL.
type DDLGenerator interface {
	// TableDDL returns the CREATE TABLE statement for this model.
	TableDDL() string

	// IndexDDL returns CREATE INDEX statements for this model.
	// Returns empty slice if no indexes needed.
	IndexDDL() []string

	// TableName returns the table name for this model.
	TableName() string
}

// Song is a row of the songs dimension.
type Song struct {
	// SongID is the identifier of the song from the metadata source.
	SongID string `db:"song_id" ddl:"TEXT NOT NULL" gorm:"type:text;not null"`

	// Title is the song title trimmed of surrounding whitespace, NULL
	// when the source has none.
	Title sql.NullString `db:"title" ddl:"TEXT" gorm:"type:text"`

	// ArtistID is the identifier of the performing artist.
	ArtistID string `db:"artist_id" ddl:"TEXT NOT NULL" gorm:"type:text;not null"`

	// Year of the release, NULL when unknown.
	Year sql.NullInt32 `db:"year" ddl:"INT" gorm:"type:int"`

	// Duration of the song in seconds.
	Duration sql.NullFloat64 `db:"duration" ddl:"DOUBLE PRECISION" gorm:"type:double precision"`
}

// Artist is a row of the artists dimension.
type Artist struct {
	ArtistID string `db:"artist_id" ddl:"TEXT NOT NULL" gorm:"type:text;not null"`

	ArtistName sql.NullString `db:"artist_name" ddl:"TEXT" gorm:"type:text"`

	// ArtistLocation is NULL when the source has an empty string or "None".
	ArtistLocation sql.NullString `db:"artist_location" ddl:"TEXT" gorm:"type:text"`

	ArtistLatitude sql.NullFloat64 `db:"artist_latitude" ddl:"DOUBLE PRECISION" gorm:"type:double precision"`

	ArtistLongitude sql.NullFloat64 `db:"artist_longitude" ddl:"DOUBLE PRECISION" gorm:"type:double precision"`
}

// User is a row of the users dimension. It keeps the latest observed state
// of a user.
type User struct {
	UserID    string `db:"user_id" ddl:"TEXT PRIMARY KEY" gorm:"type:text;primaryKey"`
	FirstName string `db:"first_name" ddl:"TEXT" gorm:"type:text"`
	LastName  string `db:"last_name" ddl:"TEXT" gorm:"type:text"`
	Gender    string `db:"gender" ddl:"TEXT" gorm:"type:text"`

	// Level is 'free' or 'paid'.
	Level string `db:"level" ddl:"TEXT" gorm:"type:text"`
}

// Time is a row of the time dimension, a decomposed start_time.
type Time struct {
	// StartTime is a UTC timestamp with second granularity.
	StartTime time.Time `db:"start_time" ddl:"TIMESTAMP PRIMARY KEY" gorm:"type:timestamp;primaryKey"`

	Hour  int `db:"hour" ddl:"INT" gorm:"type:int"`
	Day   int `db:"day" ddl:"INT" gorm:"type:int"`
	Week  int `db:"week" ddl:"INT" gorm:"type:int"`
	Month int `db:"month" ddl:"INT" gorm:"type:int"`
	Year  int `db:"year" ddl:"INT" gorm:"type:int"`

	// Weekday uses ISO numbering, 1 is Monday and 7 is Sunday.
	Weekday int `db:"weekday" ddl:"INT" gorm:"type:int"`
}

// Songplay is a row of the songplays fact table, one per song play event.
type Songplay struct {
	// SongplayID is UUID v5 generated from the start time, user, session
	// and source offset of the event. It is stable across runs.
	SongplayID uuid.UUID `db:"songplay_id" ddl:"UUID PRIMARY KEY" gorm:"type:uuid;primaryKey"`

	StartTime time.Time `db:"start_time" ddl:"TIMESTAMP NOT NULL" gorm:"type:timestamp;not null"`
	Year      int       `db:"year" ddl:"INT" gorm:"type:int"`
	Month     int       `db:"month" ddl:"INT" gorm:"type:int"`

	UserID string `db:"user_id" ddl:"TEXT NOT NULL" gorm:"type:text;not null"`
	Level  string `db:"level" ddl:"TEXT" gorm:"type:text"`

	// SongID and ArtistID are NULL when the played song did not match
	// any song of the songs and artists dimensions.
	SongID   sql.NullString `db:"song_id" ddl:"TEXT" gorm:"type:text"`
	ArtistID sql.NullString `db:"artist_id" ddl:"TEXT" gorm:"type:text"`

	SessionID sql.NullInt64 `db:"session_id" ddl:"BIGINT" gorm:"type:bigint"`
	Location  string        `db:"location" ddl:"TEXT" gorm:"type:text"`
	UserAgent string        `db:"user_agent" ddl:"TEXT" gorm:"type:text"`
}
