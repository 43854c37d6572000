// Package songdata builds songs and artists dimensions out of raw song
// metadata. Both dimensions are produced from a single scan of records.
// Duplicates are collapsed on the whole projected row, and the output is
// sorted, so the same input always gives the same tables.
package songdata

import (
	"cmp"
	"database/sql"
	"math"
	"slices"
	"strings"

	"github.com/sparkify/sparkdl/pkg/raw"
	"github.com/sparkify/sparkdl/pkg/schema"
)

// Reasons for dropping a song record.
const (
	ReasonNoSongID   = "missing song_id"
	ReasonNoArtistID = "missing artist_id"
)

// Result contains songs and artists dimensions.
type Result struct {
	Songs   []schema.Song
	Artists []schema.Artist
	Stats   Stats
}

// Stats collects counters of the transformation.
type Stats struct {
	// Records is the number of raw song records.
	Records int

	// Dropped is the number of malformed records that did not reach
	// any table.
	Dropped int

	// DropReasons counts dropped records per reason.
	DropReasons map[string]int

	// NulledColumns counts values that were set to NULL because they
	// could not be parsed, per column.
	NulledColumns map[string]int

	// SongDuplicates and ArtistDuplicates are numbers of collapsed rows.
	SongDuplicates   int
	ArtistDuplicates int
}

// Transform projects raw records into songs and artists rows.
func Transform(recs []raw.Song) Result {
	res := Result{
		Stats: Stats{
			Records:       len(recs),
			DropReasons:   make(map[string]int),
			NulledColumns: make(map[string]int),
		},
	}

	songs := make(map[schema.Song]struct{})
	artists := make(map[schema.Artist]struct{})

	for i := range recs {
		r := &recs[i]
		if reason := checkRecord(r); reason != "" {
			res.Stats.Dropped++
			res.Stats.DropReasons[reason]++
			continue
		}
		for _, col := range r.Issues {
			res.Stats.NulledColumns[col]++
		}
		if r.Year.Valid && !yearInRange(r.Year.Int64) {
			res.Stats.NulledColumns["year"]++
		}

		s := NewSong(r)
		if _, ok := songs[s]; ok {
			res.Stats.SongDuplicates++
		} else {
			songs[s] = struct{}{}
		}

		a := NewArtist(r)
		if _, ok := artists[a]; ok {
			res.Stats.ArtistDuplicates++
		} else {
			artists[a] = struct{}{}
		}
	}

	res.Songs = make([]schema.Song, 0, len(songs))
	for s := range songs {
		res.Songs = append(res.Songs, s)
	}
	slices.SortFunc(res.Songs, CompareSongs)

	res.Artists = make([]schema.Artist, 0, len(artists))
	for a := range artists {
		res.Artists = append(res.Artists, a)
	}
	slices.SortFunc(res.Artists, CompareArtists)

	return res
}

// NewSong projects a raw record into a songs row. The title is trimmed
// and year 0 becomes NULL.
func NewSong(r *raw.Song) schema.Song {
	res := schema.Song{
		SongID:   r.SongID,
		ArtistID: r.ArtistID,
		Duration: r.Duration,
	}
	if r.Title.Valid {
		res.Title = sql.NullString{String: strings.TrimSpace(r.Title.String), Valid: true}
	}
	if r.Year.Valid && r.Year.Int64 != 0 && yearInRange(r.Year.Int64) {
		res.Year = sql.NullInt32{Int32: int32(r.Year.Int64), Valid: true}
	}
	return res
}

// NewArtist projects a raw record into an artists row. Location is NULL
// when it is empty or "None".
func NewArtist(r *raw.Song) schema.Artist {
	res := schema.Artist{
		ArtistID:        r.ArtistID,
		ArtistName:      r.ArtistName,
		ArtistLatitude:  r.ArtistLatitude,
		ArtistLongitude: r.ArtistLongitude,
	}
	if loc := r.ArtistLocation; loc != "" && loc != "None" {
		res.ArtistLocation = sql.NullString{String: loc, Valid: true}
	}
	return res
}

func yearInRange(y int64) bool {
	return y >= math.MinInt32 && y <= math.MaxInt32
}

func checkRecord(r *raw.Song) string {
	switch {
	case strings.TrimSpace(r.SongID) == "":
		return ReasonNoSongID
	case strings.TrimSpace(r.ArtistID) == "":
		return ReasonNoArtistID
	}
	return ""
}

// CompareSongs orders songs by song_id and then by the rest of columns.
func CompareSongs(a, b schema.Song) int {
	return cmp.Or(
		cmp.Compare(a.SongID, b.SongID),
		compareNull(a.Title.Valid, b.Title.Valid, a.Title.String, b.Title.String),
		cmp.Compare(a.ArtistID, b.ArtistID),
		compareNull(a.Year.Valid, b.Year.Valid, a.Year.Int32, b.Year.Int32),
		compareNull(a.Duration.Valid, b.Duration.Valid,
			a.Duration.Float64, b.Duration.Float64),
	)
}

// CompareArtists orders artists by artist_id and then by the rest of
// columns.
func CompareArtists(a, b schema.Artist) int {
	return cmp.Or(
		cmp.Compare(a.ArtistID, b.ArtistID),
		compareNull(a.ArtistName.Valid, b.ArtistName.Valid,
			a.ArtistName.String, b.ArtistName.String),
		compareNull(a.ArtistLocation.Valid, b.ArtistLocation.Valid,
			a.ArtistLocation.String, b.ArtistLocation.String),
		compareNull(a.ArtistLatitude.Valid, b.ArtistLatitude.Valid,
			a.ArtistLatitude.Float64, b.ArtistLatitude.Float64),
		compareNull(a.ArtistLongitude.Valid, b.ArtistLongitude.Valid,
			a.ArtistLongitude.Float64, b.ArtistLongitude.Float64),
	)
}

// compareNull puts NULL values first.
func compareNull[T cmp.Ordered](okA, okB bool, a, b T) int {
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}
	return cmp.Compare(a, b)
}
