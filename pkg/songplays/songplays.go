// Package songplays builds the songplays fact table. Every retained play
// becomes exactly one fact row. Plays are joined to the time dimension,
// which must contain their start time, and to songs and artists by the
// free-text pair of song title and artist name. Plays without a matching
// song keep NULL song_id and artist_id.
package songplays

import (
	"cmp"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/gnames/gnuuid"
	"github.com/google/uuid"
	"github.com/sparkify/sparkdl/pkg/logdata"
	"github.com/sparkify/sparkdl/pkg/schema"
)

// InvariantError reports a play whose start time is absent from the time
// dimension. It means the dimensions and plays are out of sync, it is
// never caused by bad input data.
type InvariantError struct {
	Play  logdata.Play
	Issue string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf(
		"songplay invariant violated for user %s at %s (file %d, record %d): %s",
		e.Play.UserID, e.Play.StartTime.Format(time.DateTime),
		e.Play.Offset.File, e.Play.Offset.Record, e.Issue,
	)
}

// Result contains the songplays fact table.
type Result struct {
	Songplays []schema.Songplay
	Stats     Stats
}

// Stats collects counters of the reconciliation.
type Stats struct {
	// Plays is the number of input plays, equal to the number of rows.
	Plays int

	// Matched is the number of plays with a known song.
	Matched int

	// Unmatched is the number of plays with NULL song_id and artist_id.
	Unmatched int

	// AmbiguousKeys is the number of (title, artist name) pairs that
	// point to more than one song.
	AmbiguousKeys int
}

// Key is a free-text identity of a song as it appears in events.
type Key struct {
	Title      string
	ArtistName string
}

// Match is a song and artist identifiers for a Key.
type Match struct {
	SongID   string
	ArtistID string
}

func (m Match) compare(o Match) int {
	return cmp.Or(
		cmp.Compare(m.SongID, o.SongID),
		cmp.Compare(m.ArtistID, o.ArtistID),
	)
}

// Lookup joins songs and artists on artist_id into a map from
// (title, artist_name) to (song_id, artist_id). When several songs share
// a key, the smallest (song_id, artist_id) pair is kept. The second
// returned value is the number of such shared keys. A NULL title or
// artist name never equals anything, so such rows give no keys.
func Lookup(songs []schema.Song, artists []schema.Artist) (map[Key]Match, int) {
	names := make(map[string][]string)
	for _, a := range artists {
		if !a.ArtistName.Valid {
			continue
		}
		if !slices.Contains(names[a.ArtistID], a.ArtistName.String) {
			names[a.ArtistID] = append(names[a.ArtistID], a.ArtistName.String)
		}
	}

	res := make(map[Key]Match)
	ambiguous := make(map[Key]struct{})
	for _, s := range songs {
		if !s.Title.Valid {
			continue
		}
		for _, name := range names[s.ArtistID] {
			k := Key{Title: s.Title.String, ArtistName: name}
			m := Match{SongID: s.SongID, ArtistID: s.ArtistID}
			cur, ok := res[k]
			if !ok {
				res[k] = m
				continue
			}
			if cur != m {
				ambiguous[k] = struct{}{}
			}
			if m.compare(cur) < 0 {
				res[k] = m
			}
		}
	}
	return res, len(ambiguous)
}

// Reconcile builds the fact table. It returns InvariantError if a play has
// no row in the time dimension, or if the time dimension has duplicate
// start times. Rows are sorted by start_time, user_id, session_id and
// input position.
func Reconcile(
	plays []logdata.Play,
	times []schema.Time,
	songs []schema.Song,
	artists []schema.Artist,
) (Result, error) {
	res := Result{Stats: Stats{Plays: len(plays)}}

	tm := make(map[int64]schema.Time, len(times))
	for _, t := range times {
		k := t.StartTime.Unix()
		if _, ok := tm[k]; ok {
			return res, &InvariantError{
				Play:  logdata.Play{StartTime: t.StartTime.UTC()},
				Issue: "duplicate start_time in time dimension",
			}
		}
		tm[k] = t
	}

	lookup, ambiguous := Lookup(songs, artists)
	res.Stats.AmbiguousKeys = ambiguous

	sorted := slices.Clone(plays)
	slices.SortFunc(sorted, comparePlays)

	res.Songplays = make([]schema.Songplay, 0, len(sorted))
	for _, p := range sorted {
		t, ok := tm[p.StartTime.Unix()]
		if !ok {
			return Result{}, &InvariantError{
				Play:  p,
				Issue: "start_time is missing in time dimension",
			}
		}

		sp := schema.Songplay{
			SongplayID: SongplayID(p),
			StartTime:  p.StartTime,
			Year:       t.Year,
			Month:      t.Month,
			UserID:     p.UserID,
			Level:      p.Level,
			SessionID:  p.SessionID,
			Location:   p.Location,
			UserAgent:  p.UserAgent,
		}

		if m, ok := match(lookup, p); ok {
			sp.SongID = sql.NullString{String: m.SongID, Valid: true}
			sp.ArtistID = sql.NullString{String: m.ArtistID, Valid: true}
			res.Stats.Matched++
		} else {
			res.Stats.Unmatched++
		}
		res.Songplays = append(res.Songplays, sp)
	}
	return res, nil
}

func match(lookup map[Key]Match, p logdata.Play) (Match, bool) {
	if !p.Song.Valid || !p.Artist.Valid {
		return Match{}, false
	}
	m, ok := lookup[Key{Title: p.Song.String, ArtistName: p.Artist.String}]
	return m, ok
}

// SongplayID generates UUID v5 from start time, user, session and input
// position of a play.
func SongplayID(p logdata.Play) uuid.UUID {
	session := ""
	if p.SessionID.Valid {
		session = strconv.FormatInt(p.SessionID.Int64, 10)
	}
	s := fmt.Sprintf("%d|%s|%s|%d|%d",
		p.StartTime.Unix(), p.UserID, session,
		p.Offset.File, p.Offset.Record,
	)
	return gnuuid.New(s)
}

func comparePlays(a, b logdata.Play) int {
	return cmp.Or(
		a.StartTime.Compare(b.StartTime),
		cmp.Compare(a.UserID, b.UserID),
		compareSession(a.SessionID, b.SessionID),
		a.Offset.Compare(b.Offset),
	)
}

func compareSession(a, b sql.NullInt64) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	}
	return cmp.Compare(a.Int64, b.Int64)
}
