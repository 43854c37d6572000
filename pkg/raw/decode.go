package raw

import (
	"database/sql"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DecodeSong converts a JSON object into a Song. Numbers are expected to be
// json.Number (decoder with UseNumber), but float64 values are accepted too.
func DecodeSong(obj map[string]any, off Offset) Song {
	d := decoder{obj: obj}
	res := Song{
		Offset:          off,
		SongID:          d.strVal("song_id"),
		Title:           d.nullStrVal("title"),
		ArtistID:        d.strVal("artist_id"),
		ArtistName:      d.nullStrVal("artist_name"),
		ArtistLocation:  d.strVal("artist_location"),
		ArtistLatitude:  d.floatVal("artist_latitude"),
		ArtistLongitude: d.floatVal("artist_longitude"),
		Duration:        d.floatVal("duration"),
		Year:            d.intVal("year"),
		NumSongs:        d.intVal("num_songs"),
	}
	res.Issues = d.issues
	return res
}

// DecodeEvent converts a JSON object into an Event. Numbers are expected to
// be json.Number (decoder with UseNumber), but float64 values are accepted
// too.
func DecodeEvent(obj map[string]any, off Offset) Event {
	d := decoder{obj: obj}
	res := Event{
		Offset:        off,
		Page:          d.strVal("page"),
		TS:            d.intVal("ts"),
		UserID:        d.strVal("userId"),
		FirstName:     d.strVal("firstName"),
		LastName:      d.strVal("lastName"),
		Gender:        d.strVal("gender"),
		Level:         d.strVal("level"),
		SessionID:     d.intVal("sessionId"),
		Location:      d.strVal("location"),
		UserAgent:     d.strVal("userAgent"),
		Song:          d.nullStrVal("song"),
		Artist:        d.nullStrVal("artist"),
		Length:        d.floatVal("length"),
		Auth:          d.strVal("auth"),
		ItemInSession: d.intVal("itemInSession"),
		Method:        d.strVal("method"),
		Status:        d.intVal("status"),
		Registration:  d.intVal("registration"),
	}
	res.Issues = d.issues
	return res
}

type decoder struct {
	obj    map[string]any
	issues []string
}

func (d *decoder) strVal(key string) string {
	v, ok := d.obj[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		d.issues = append(d.issues, key)
		return ""
	}
}

// nullStrVal keeps a missing or null value apart from an empty string.
func (d *decoder) nullStrVal(key string) sql.NullString {
	if v, ok := d.obj[key]; !ok || v == nil {
		return sql.NullString{}
	}
	n := len(d.issues)
	s := d.strVal(key)
	return sql.NullString{String: s, Valid: len(d.issues) == n}
}

func (d *decoder) intVal(key string) sql.NullInt64 {
	var res sql.NullInt64
	v, ok := d.obj[key]
	if !ok || v == nil {
		return res
	}

	var i int64
	var err error
	switch n := v.(type) {
	case json.Number:
		i, err = parseInt(n.String())
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return res
		}
		i, err = parseInt(s)
	case float64:
		i, err = floatToInt(n)
	default:
		err = strconv.ErrSyntax
	}

	if err != nil {
		d.issues = append(d.issues, key)
		return res
	}
	res.Int64 = i
	res.Valid = true
	return res
}

func (d *decoder) floatVal(key string) sql.NullFloat64 {
	var res sql.NullFloat64
	v, ok := d.obj[key]
	if !ok || v == nil {
		return res
	}

	var f float64
	var err error
	switch n := v.(type) {
	case json.Number:
		f, err = n.Float64()
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return res
		}
		f, err = strconv.ParseFloat(s, 64)
	case float64:
		f = n
	default:
		err = strconv.ErrSyntax
	}

	if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		err = strconv.ErrRange
	}
	if err != nil {
		d.issues = append(d.issues, key)
		return res
	}
	res.Float64 = f
	res.Valid = true
	return res
}

// parseInt accepts integers and floats without a fractional part,
// so both 1541030402000 and 1.541030402e12 are valid.
func parseInt(s string) (int64, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return floatToInt(f)
}

func floatToInt(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) ||
		f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, strconv.ErrSyntax
	}
	return int64(f), nil
}
