// Package raw provides schema-on-read models for song metadata and user
// activity records. Records are decoded from generic JSON objects, so a
// field of an unexpected type does not reject the whole record. Instead
// the field is left NULL and its name is remembered in Issues.
package raw

import (
	"cmp"
	"database/sql"
	"slices"
)

// Offset locates a record in the input. File is the ordinal of the file in
// sorted discovery order, Record is the ordinal of the record inside the
// file. Offsets give a stable order that does not depend on how files were
// scheduled between workers.
type Offset struct {
	File   int
	Record int
}

// Compare returns -1, 0 or 1 when o is before, equal to or after other.
func (o Offset) Compare(other Offset) int {
	if c := cmp.Compare(o.File, other.File); c != 0 {
		return c
	}
	return cmp.Compare(o.Record, other.Record)
}

// Song is a raw song metadata record, one per song file.
type Song struct {
	Offset Offset

	SongID   string
	Title    sql.NullString
	ArtistID string

	ArtistName     sql.NullString
	ArtistLocation string

	ArtistLatitude  sql.NullFloat64
	ArtistLongitude sql.NullFloat64

	Duration sql.NullFloat64

	// Year is 0 when the year of the song is unknown.
	Year sql.NullInt64

	NumSongs sql.NullInt64

	// Issues keeps JSON names of fields that were present but could not
	// be converted to the field type.
	Issues []string
}

// Event is a raw user activity record, one per line of a log file.
type Event struct {
	Offset Offset

	// Corrupt is true when the line is not a JSON object. Such an event
	// has no other fields.
	Corrupt bool

	// Page is the type of event, song plays have "NextSong" page.
	Page string

	// TS is the time of the event in epoch milliseconds.
	TS sql.NullInt64

	UserID    string
	FirstName string
	LastName  string
	Gender    string
	Level     string

	SessionID sql.NullInt64
	Location  string
	UserAgent string

	// Song is the title of the played song.
	Song sql.NullString
	// Artist is the name of the artist of the played song.
	Artist sql.NullString
	Length sql.NullFloat64

	Auth          string
	ItemInSession sql.NullInt64
	Method        string
	Status        sql.NullInt64
	Registration  sql.NullInt64

	// Issues keeps JSON names of fields that were present but could not
	// be converted to the field type.
	Issues []string
}

// HasIssue returns true if the field with the given JSON name failed to
// parse.
func (e Event) HasIssue(field string) bool {
	return slices.Contains(e.Issues, field)
}

// HasIssue returns true if the field with the given JSON name failed to
// parse.
func (s Song) HasIssue(field string) bool {
	return slices.Contains(s.Issues, field)
}
