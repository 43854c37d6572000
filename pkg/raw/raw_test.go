package raw_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sparkify/sparkdl/pkg/raw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeObj(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var res map[string]any
	require.NoError(t, dec.Decode(&res))
	return res
}

func TestDecodeSong(t *testing.T) {
	obj := decodeObj(t, `{
		"num_songs": 1,
		"artist_id": "ARD7TVE1187B99BFB1",
		"artist_latitude": null,
		"artist_longitude": -71.0596,
		"artist_location": "California - LA",
		"artist_name": "Casual",
		"song_id": "SOMZWCG12A8C13C480",
		"title": "I Didn't Mean To",
		"duration": 218.93179,
		"year": 0
	}`)
	off := raw.Offset{File: 3, Record: 0}
	s := raw.DecodeSong(obj, off)

	assert.Equal(t, off, s.Offset)
	assert.Equal(t, "SOMZWCG12A8C13C480", s.SongID)
	assert.Equal(t, "I Didn't Mean To", s.Title.String)
	assert.Equal(t, "ARD7TVE1187B99BFB1", s.ArtistID)
	assert.Equal(t, "Casual", s.ArtistName.String)
	assert.Equal(t, "California - LA", s.ArtistLocation)
	assert.False(t, s.ArtistLatitude.Valid)
	assert.True(t, s.ArtistLongitude.Valid)
	assert.InDelta(t, -71.0596, s.ArtistLongitude.Float64, 1e-9)
	assert.InDelta(t, 218.93179, s.Duration.Float64, 1e-9)
	assert.True(t, s.Year.Valid)
	assert.Equal(t, int64(0), s.Year.Int64)
	assert.Equal(t, int64(1), s.NumSongs.Int64)
	assert.Empty(t, s.Issues)
}

func TestDecodeSongIssues(t *testing.T) {
	tests := []struct {
		msg    string
		json   string
		issues []string
	}{
		{
			msg:    "year as text",
			json:   `{"song_id": "S1", "year": "nineteen"}`,
			issues: []string{"year"},
		},
		{
			msg:  "year as numeric string",
			json: `{"song_id": "S1", "year": "1999"}`,
		},
		{
			msg:    "fractional year",
			json:   `{"song_id": "S1", "year": 1999.5}`,
			issues: []string{"year"},
		},
		{
			msg:    "duration as object",
			json:   `{"song_id": "S1", "duration": {"v": 1}}`,
			issues: []string{"duration"},
		},
		{
			msg:    "song_id as array",
			json:   `{"song_id": ["S1"], "duration": "abc"}`,
			issues: []string{"song_id", "duration"},
		},
		{
			msg:  "empty string number",
			json: `{"song_id": "S1", "duration": ""}`,
		},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			s := raw.DecodeSong(decodeObj(t, v.json), raw.Offset{})
			assert.ElementsMatch(t, v.issues, s.Issues)
			for _, f := range v.issues {
				assert.True(t, s.HasIssue(f))
			}
		})
	}
}

func TestDecodeEvent(t *testing.T) {
	obj := decodeObj(t, `{
		"artist": "Des'ree",
		"auth": "Logged In",
		"firstName": "Kaylee",
		"gender": "F",
		"itemInSession": 1,
		"lastName": "Summers",
		"length": 246.30812,
		"level": "free",
		"location": "Phoenix-Mesa-Scottsdale, AZ",
		"method": "PUT",
		"page": "NextSong",
		"registration": 1540344794796.0,
		"sessionId": 139,
		"song": "You Gotta Be",
		"status": 200,
		"ts": 1541106106796,
		"userAgent": "Mozilla/5.0",
		"userId": "8"
	}`)
	e := raw.DecodeEvent(obj, raw.Offset{File: 1, Record: 7})

	assert.Equal(t, raw.Offset{File: 1, Record: 7}, e.Offset)
	assert.Equal(t, "NextSong", e.Page)
	assert.Equal(t, int64(1541106106796), e.TS.Int64)
	assert.Equal(t, "8", e.UserID)
	assert.Equal(t, "Kaylee", e.FirstName)
	assert.Equal(t, "Summers", e.LastName)
	assert.Equal(t, "F", e.Gender)
	assert.Equal(t, "free", e.Level)
	assert.Equal(t, int64(139), e.SessionID.Int64)
	assert.Equal(t, "Phoenix-Mesa-Scottsdale, AZ", e.Location)
	assert.Equal(t, "Mozilla/5.0", e.UserAgent)
	assert.Equal(t, "You Gotta Be", e.Song.String)
	assert.Equal(t, "Des'ree", e.Artist.String)
	assert.InDelta(t, 246.30812, e.Length.Float64, 1e-9)
	assert.Equal(t, "Logged In", e.Auth)
	assert.Equal(t, int64(1), e.ItemInSession.Int64)
	assert.Equal(t, "PUT", e.Method)
	assert.Equal(t, int64(200), e.Status.Int64)
	assert.Equal(t, int64(1540344794796), e.Registration.Int64)
	assert.Empty(t, e.Issues)
}

func TestDecodeNullText(t *testing.T) {
	s := raw.DecodeSong(decodeObj(t,
		`{"song_id": "SO1", "title": null, "artist_name": ""}`), raw.Offset{})
	assert.False(t, s.Title.Valid, "null title stays NULL")
	assert.True(t, s.ArtistName.Valid, "empty name is a value")
	assert.Empty(t, s.ArtistName.String)

	e := raw.DecodeEvent(decodeObj(t,
		`{"page": "NextSong", "song": null, "artist": ["x"]}`), raw.Offset{})
	assert.False(t, e.Song.Valid)
	assert.False(t, e.Artist.Valid)
	assert.Equal(t, []string{"artist"}, e.Issues)
}

func TestDecodeEventTS(t *testing.T) {
	tests := []struct {
		msg   string
		json  string
		valid bool
		ts    int64
		issue bool
	}{
		{"integer", `{"ts": 1541030402000}`, true, 1541030402000, false},
		{"exponent", `{"ts": 1.541030402e12}`, true, 1541030402000, false},
		{"string", `{"ts": "1541030402000"}`, true, 1541030402000, false},
		{"negative", `{"ts": -5}`, true, -5, false},
		{"missing", `{}`, false, 0, false},
		{"null", `{"ts": null}`, false, 0, false},
		{"text", `{"ts": "yesterday"}`, false, 0, true},
		{"bool", `{"ts": true}`, false, 0, true},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			e := raw.DecodeEvent(decodeObj(t, v.json), raw.Offset{})
			assert.Equal(t, v.valid, e.TS.Valid)
			assert.Equal(t, v.ts, e.TS.Int64)
			assert.Equal(t, v.issue, e.HasIssue("ts"))
		})
	}
}

func TestDecodeEventNumericUserID(t *testing.T) {
	e := raw.DecodeEvent(decodeObj(t, `{"userId": 39}`), raw.Offset{})
	assert.Equal(t, "39", e.UserID)
	assert.Empty(t, e.Issues)
}

func TestOffsetCompare(t *testing.T) {
	tests := []struct {
		msg  string
		a, b raw.Offset
		res  int
	}{
		{"equal", raw.Offset{1, 2}, raw.Offset{1, 2}, 0},
		{"file first", raw.Offset{0, 9}, raw.Offset{1, 0}, -1},
		{"record second", raw.Offset{1, 3}, raw.Offset{1, 2}, 1},
	}

	for _, v := range tests {
		assert.Equal(t, v.res, v.a.Compare(v.b), v.msg)
	}
}
