package fitbit

import "time"

// Resolution selects the granularity of a time series query.
type Resolution int

const (
	// ResolutionIntraday returns sub-day points, typically at 1min or 5min
	// granularity depending on the metric.
	ResolutionIntraday Resolution = iota
	// ResolutionDaily returns one date-aligned 24-hour point per day.
	ResolutionDaily
)

func (r Resolution) String() string {
	switch r {
	case ResolutionIntraday:
		return "intraday"
	case ResolutionDaily:
		return "daily"
	default:
		return "unknown"
	}
}

// Query describes the time range and resolution of a metric request.
// The range is half-open: From inclusive, To exclusive. The zero value is
// not useful; use NewQuery for the default last-24h intraday window.
type Query struct {
	from       time.Time
	to         time.Time
	resolution Resolution
}

// NewQuery returns a query covering the last 24 hours at intraday
// resolution.
func NewQuery() Query {
	now := time.Now()
	return Query{
		from:       now.Add(-24 * time.Hour),
		to:         now,
		resolution: ResolutionIntraday,
	}
}

func (q Query) From(from time.Time) Query {
	q.from = from
	return q
}

func (q Query) To(to time.Time) Query {
	q.to = to
	return q
}

func (q Query) AtResolution(r Resolution) Query {
	q.resolution = r
	return q
}

func (q Query) FromTime() time.Time { return q.from }

func (q Query) ToTime() time.Time { return q.to }

func (q Query) Resolution() Resolution { return q.resolution }

// days yields the calendar days touched by the query range, in ascending
// order. The upstream has no multi-day intraday query, so callers page one
// request per day.
func (q Query) days() []time.Time {
	var days []time.Time
	day := startOfDay(q.from)
	for day.Before(q.to) {
		days = append(days, day)
		day = day.AddDate(0, 0, 1)
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
