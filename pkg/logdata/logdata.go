// Package logdata builds users and time dimensions out of user activity
// events. Only song plays are retained. The latest state of every user and
// the set of distinct start times are computed with partial aggregators
// that can be merged, so input can be split between goroutines without
// changing the result.
package logdata

import (
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/sparkify/sparkdl/pkg/raw"
	"github.com/sparkify/sparkdl/pkg/schema"
)

// NextSongPage is the page of events that represent song plays.
const NextSongPage = "NextSong"

// Reasons for dropping a song play event.
const (
	ReasonNoTS       = "missing ts"
	ReasonBadTS      = "non-numeric ts"
	ReasonNegativeTS = "negative ts"
	ReasonNoUserID   = "missing userId"
	ReasonCorrupt    = "unparsable line"
)

// Play is a retained song play event with derived start time.
type Play struct {
	Offset raw.Offset

	// TS is the raw event time in epoch milliseconds.
	TS int64

	// StartTime is TS truncated to seconds, in UTC.
	StartTime time.Time

	UserID    string
	FirstName string
	LastName  string
	Gender    string
	Level     string

	SessionID sql.NullInt64
	Location  string
	UserAgent string

	// Song and Artist are NULL when the event does not name them.
	Song   sql.NullString
	Artist sql.NullString
}

// Result contains retained plays together with users and time dimensions.
type Result struct {
	Plays []Play
	Users []schema.User
	Times []schema.Time
	Stats Stats
}

// Stats collects counters of the transformation.
type Stats struct {
	// Records is the number of raw events.
	Records int

	// Filtered is the number of events that are not song plays.
	Filtered int

	// Dropped is the number of malformed song plays and unparsable
	// lines.
	Dropped int

	// DropReasons counts dropped plays per reason.
	DropReasons map[string]int

	// NulledColumns counts values that were set to NULL because they
	// could not be parsed, per column.
	NulledColumns map[string]int
}

func newStats() Stats {
	return Stats{
		DropReasons:   make(map[string]int),
		NulledColumns: make(map[string]int),
	}
}

func (s *Stats) merge(o Stats) {
	s.Records += o.Records
	s.Filtered += o.Filtered
	s.Dropped += o.Dropped
	for k, v := range o.DropReasons {
		s.DropReasons[k] += v
	}
	for k, v := range o.NulledColumns {
		s.NulledColumns[k] += v
	}
}

// StartTime converts epoch milliseconds to UTC time with the millisecond
// remainder truncated.
func StartTime(ms int64) time.Time {
	return time.Unix(ms/1000, 0).UTC()
}

// Decompose splits a start time into the columns of the time dimension.
// Week and weekday follow ISO 8601.
func Decompose(st time.Time) schema.Time {
	st = st.UTC()
	_, week := st.ISOWeek()
	weekday := int(st.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return schema.Time{
		StartTime: st,
		Hour:      st.Hour(),
		Day:       st.Day(),
		Week:      week,
		Month:     int(st.Month()),
		Year:      st.Year(),
		Weekday:   weekday,
	}
}

// NewPlay converts a raw event into a Play. It returns a drop reason if
// the event is a malformed song play. The event must be a song play.
func NewPlay(e *raw.Event) (Play, string) {
	var res Play
	switch {
	case e.HasIssue("ts"):
		return res, ReasonBadTS
	case !e.TS.Valid:
		return res, ReasonNoTS
	case e.TS.Int64 < 0:
		return res, ReasonNegativeTS
	case strings.TrimSpace(e.UserID) == "":
		return res, ReasonNoUserID
	}

	res = Play{
		Offset:    e.Offset,
		TS:        e.TS.Int64,
		StartTime: StartTime(e.TS.Int64),
		UserID:    e.UserID,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Gender:    e.Gender,
		Level:     e.Level,
		SessionID: e.SessionID,
		Location:  e.Location,
		UserAgent: e.UserAgent,
		Song:      e.Song,
		Artist:    e.Artist,
	}
	return res, ""
}

// Transform filters song plays and computes users and time dimensions.
// Input is split into at most jobs chunks processed concurrently, partial
// results are merged in chunk order.
func Transform(recs []raw.Event, jobs int) Result {
	chunks := split(len(recs), jobs)
	parts := make([]part, len(chunks))

	var wg sync.WaitGroup
	for i, c := range chunks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parts[i] = process(recs[c[0]:c[1]])
		}()
	}
	wg.Wait()

	res := Result{Stats: newStats()}
	agg := NewAggregator()
	for _, p := range parts {
		res.Plays = append(res.Plays, p.plays...)
		res.Stats.merge(p.stats)
		agg.Merge(p.agg)
	}
	res.Users = agg.Users()
	res.Times = agg.Times()
	return res
}

type part struct {
	plays []Play
	agg   *Aggregator
	stats Stats
}

func process(recs []raw.Event) part {
	res := part{agg: NewAggregator(), stats: newStats()}
	res.stats.Records = len(recs)
	for i := range recs {
		e := &recs[i]
		if e.Corrupt {
			res.stats.Dropped++
			res.stats.DropReasons[ReasonCorrupt]++
			continue
		}
		if e.Page != NextSongPage {
			res.stats.Filtered++
			continue
		}

		p, reason := NewPlay(e)
		if reason != "" {
			res.stats.Dropped++
			res.stats.DropReasons[reason]++
			continue
		}
		for _, col := range e.Issues {
			res.stats.NulledColumns[col]++
		}

		res.plays = append(res.plays, p)
		res.agg.Add(p)
	}
	return res
}

// split returns [start, end) bounds of at most n chunks covering
// total elements.
func split(total, n int) [][2]int {
	if n < 1 {
		n = 1
	}
	if total == 0 {
		return nil
	}
	size := (total + n - 1) / n
	var res [][2]int
	for start := 0; start < total; start += size {
		res = append(res, [2]int{start, min(start+size, total)})
	}
	return res
}
