package logdata

import (
	"maps"
	"slices"
	"time"

	"github.com/sparkify/sparkdl/pkg/schema"
)

// Aggregator keeps the latest play of every user and the set of distinct
// start times. Add and Merge apply the same max and distinct rules, so
// merging is commutative and associative.
type Aggregator struct {
	latest map[string]Play
	times  map[int64]struct{}
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		latest: make(map[string]Play),
		times:  make(map[int64]struct{}),
	}
}

// Add folds one play into the aggregator.
func (a *Aggregator) Add(p Play) {
	if cur, ok := a.latest[p.UserID]; !ok || Later(p, cur) {
		a.latest[p.UserID] = p
	}
	a.times[p.StartTime.Unix()] = struct{}{}
}

// Merge folds another aggregator into this one. The other aggregator is
// not modified.
func (a *Aggregator) Merge(o *Aggregator) {
	for _, p := range o.latest {
		if cur, ok := a.latest[p.UserID]; !ok || Later(p, cur) {
			a.latest[p.UserID] = p
		}
	}
	for k := range o.times {
		a.times[k] = struct{}{}
	}
}

// Later returns true if play p wins over play q as the latest state of a
// user. The later start time wins. On the same second the larger raw
// timestamp wins, and then the play that comes first in the input.
func Later(p, q Play) bool {
	if c := p.StartTime.Compare(q.StartTime); c != 0 {
		return c > 0
	}
	if p.TS != q.TS {
		return p.TS > q.TS
	}
	return p.Offset.Compare(q.Offset) < 0
}

// Users returns users dimension sorted by user_id.
func (a *Aggregator) Users() []schema.User {
	ids := slices.Sorted(maps.Keys(a.latest))
	res := make([]schema.User, len(ids))
	for i, id := range ids {
		p := a.latest[id]
		res[i] = schema.User{
			UserID:    p.UserID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Gender:    p.Gender,
			Level:     p.Level,
		}
	}
	return res
}

// Times returns time dimension sorted by start_time.
func (a *Aggregator) Times() []schema.Time {
	secs := slices.Sorted(maps.Keys(a.times))
	res := make([]schema.Time, len(secs))
	for i, s := range secs {
		res[i] = Decompose(time.Unix(s, 0))
	}
	return res
}
