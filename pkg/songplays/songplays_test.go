package songplays_test

import (
	"database/sql"
	"errors"
	"slices"
	"testing"

	"github.com/sparkify/sparkdl/pkg/logdata"
	"github.com/sparkify/sparkdl/pkg/raw"
	"github.com/sparkify/sparkdl/pkg/schema"
	"github.com/sparkify/sparkdl/pkg/songplays"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseTS = int64(1541030402000)

func text(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func play(rec int, user string, ts int64, song, artist string) logdata.Play {
	return logdata.Play{
		Offset:    raw.Offset{File: 0, Record: rec},
		TS:        ts,
		StartTime: logdata.StartTime(ts),
		UserID:    user,
		Level:     "free",
		SessionID: sql.NullInt64{Int64: 10, Valid: true},
		Location:  "Atlanta",
		UserAgent: "Mozilla",
		Song:      text(song),
		Artist:    text(artist),
	}
}

func timesOf(plays ...logdata.Play) []schema.Time {
	agg := logdata.NewAggregator()
	for _, p := range plays {
		agg.Add(p)
	}
	return agg.Times()
}

var (
	songs = []schema.Song{
		{SongID: "SO1", Title: text("Intro"), ArtistID: "AR1"},
		{SongID: "SO2", Title: text("Outro"), ArtistID: "AR2"},
	}
	artists = []schema.Artist{
		{ArtistID: "AR1", ArtistName: text("The XX")},
		{ArtistID: "AR2", ArtistName: text("M83")},
	}
)

func TestReconcileJoin(t *testing.T) {
	plays := []logdata.Play{
		play(0, "1", baseTS, "Intro", "The XX"),
		play(1, "2", baseTS+1_000, "Unknown", "Nobody"),
		play(2, "3", baseTS+2_000, "Intro", "M83"),
	}
	res, err := songplays.Reconcile(plays, timesOf(plays...), songs, artists)
	require.NoError(t, err)

	require.Len(t, res.Songplays, 3, "every play gives exactly one row")
	assert.Equal(t, 1, res.Stats.Matched)
	assert.Equal(t, 2, res.Stats.Unmatched)
	assert.Equal(t, 3, res.Stats.Plays)

	matched := res.Songplays[0]
	assert.Equal(t, "SO1", matched.SongID.String)
	assert.Equal(t, "AR1", matched.ArtistID.String)
	assert.Equal(t, 2018, matched.Year)
	assert.Equal(t, 11, matched.Month)
	assert.Equal(t, "1", matched.UserID)
	assert.Equal(t, "Atlanta", matched.Location)
	assert.Equal(t, int64(10), matched.SessionID.Int64)

	for _, v := range res.Songplays[1:] {
		assert.False(t, v.SongID.Valid)
		assert.False(t, v.ArtistID.Valid)
	}
}

func TestReconcileTimeMiss(t *testing.T) {
	plays := []logdata.Play{
		play(0, "1", baseTS, "Intro", "The XX"),
		play(1, "1", baseTS+10_000, "Intro", "The XX"),
	}
	_, err := songplays.Reconcile(plays, timesOf(plays[0]), songs, artists)
	require.Error(t, err)

	var ierr *songplays.InvariantError
	require.True(t, errors.As(err, &ierr))
	assert.Equal(t, plays[1].Offset, ierr.Play.Offset)
}

func TestReconcileDuplicateTime(t *testing.T) {
	plays := []logdata.Play{play(0, "1", baseTS, "Intro", "The XX")}
	times := timesOf(plays...)
	times = append(times, times[0])

	_, err := songplays.Reconcile(plays, times, songs, artists)
	var ierr *songplays.InvariantError
	assert.True(t, errors.As(err, &ierr))
}

func TestLookupAmbiguous(t *testing.T) {
	dupSongs := []schema.Song{
		{SongID: "SO9", Title: text("Intro"), ArtistID: "AR1"},
		{SongID: "SO1", Title: text("Intro"), ArtistID: "AR1"},
		{SongID: "SO5", Title: text("Intro"), ArtistID: "AR3"},
	}
	dupArtists := []schema.Artist{
		{ArtistID: "AR1", ArtistName: text("The XX")},
		{ArtistID: "AR1", ArtistName: text("The XX"),
			ArtistLocation: sql.NullString{String: "London", Valid: true}},
		{ArtistID: "AR3", ArtistName: text("The XX")},
	}

	lookup, ambiguous := songplays.Lookup(dupSongs, dupArtists)
	assert.Len(t, lookup, 1)
	assert.Equal(t, 1, ambiguous)
	assert.Equal(t,
		songplays.Match{SongID: "SO1", ArtistID: "AR1"},
		lookup[songplays.Key{Title: "Intro", ArtistName: "The XX"}],
	)

	plays := []logdata.Play{play(0, "1", baseTS, "Intro", "The XX")}
	res, err := songplays.Reconcile(plays, timesOf(plays...), dupSongs, dupArtists)
	require.NoError(t, err)
	require.Len(t, res.Songplays, 1, "no fan-out of fact rows")
	assert.Equal(t, "SO1", res.Songplays[0].SongID.String)
}

func TestLookupNeedsArtist(t *testing.T) {
	lookup, _ := songplays.Lookup(
		[]schema.Song{{SongID: "SO1", Title: text("Intro"), ArtistID: "AR7"}},
		artists,
	)
	assert.Empty(t, lookup, "songs without artist rows are not joinable")
}

func TestReconcileNullText(t *testing.T) {
	nullSongs := []schema.Song{
		{SongID: "SO1", ArtistID: "AR1"},
		{SongID: "SO2", Title: text(""), ArtistID: "AR2"},
	}
	nullArtists := []schema.Artist{
		{ArtistID: "AR1", ArtistName: text("")},
		{ArtistID: "AR2"},
	}
	lookup, _ := songplays.Lookup(nullSongs, nullArtists)
	assert.Empty(t, lookup, "NULL titles and names are not joinable")

	blank := play(0, "1", baseTS, "", "")
	blank.Song = sql.NullString{}
	blank.Artist = sql.NullString{}
	empty := play(1, "2", baseTS+1_000, "", "")

	plays := []logdata.Play{blank, empty}
	res, err := songplays.Reconcile(plays, timesOf(plays...), nullSongs, nullArtists)
	require.NoError(t, err)
	require.Len(t, res.Songplays, 2)
	for _, v := range res.Songplays {
		assert.False(t, v.SongID.Valid)
		assert.False(t, v.ArtistID.Valid)
	}
	assert.Zero(t, res.Stats.Matched)
	assert.Equal(t, 2, res.Stats.Unmatched)
}

func TestReconcileDeterministic(t *testing.T) {
	plays := []logdata.Play{
		play(3, "2", baseTS+5_000, "Outro", "M83"),
		play(0, "1", baseTS, "Intro", "The XX"),
		play(2, "1", baseTS, "Intro", "The XX"),
		play(1, "3", baseTS, "Other", "Band"),
	}
	times := timesOf(plays...)

	res1, err := songplays.Reconcile(plays, times, songs, artists)
	require.NoError(t, err)

	reversed := slices.Clone(plays)
	slices.Reverse(reversed)
	res2, err := songplays.Reconcile(reversed, times, songs, artists)
	require.NoError(t, err)

	assert.Equal(t, res1.Songplays, res2.Songplays)

	var users []string
	ids := make(map[string]struct{})
	for _, v := range res1.Songplays {
		users = append(users, v.UserID)
		ids[v.SongplayID.String()] = struct{}{}
	}
	assert.Equal(t, []string{"1", "1", "3", "2"}, users)
	assert.Len(t, ids, 4, "songplay ids are unique")
	assert.Equal(t, text("Outro"), plays[0].Song, "input is not modified")
}

func TestSongplayID(t *testing.T) {
	p := play(0, "1", baseTS, "Intro", "The XX")
	assert.Equal(t, songplays.SongplayID(p), songplays.SongplayID(p))

	other := p
	other.Offset.Record = 1
	assert.NotEqual(t, songplays.SongplayID(p), songplays.SongplayID(other))

	noSession := p
	noSession.SessionID = sql.NullInt64{}
	assert.NotEqual(t, songplays.SongplayID(p), songplays.SongplayID(noSession))
}
