package fitbit

import "time"

// timestamped is satisfied by every record embedding Interval.
type timestamped interface {
	Timestamp() time.Time
}

// filterResults trims paged intraday results to the caller's exact window.
// A full day is always fetched even when the window starts or ends mid-day,
// so a record is kept only if its interval start falls strictly inside
// (from, to). Records starting exactly on a boundary are excluded on
// purpose: paging adjacent days would otherwise yield duplicate boundary
// records. Daily results pass through untouched since each page is already
// exactly one calendar day inside the range.
func filterResults[T timestamped](results []T, q Query) []T {
	if q.Resolution() == ResolutionDaily {
		return results
	}
	filtered := make([]T, 0, len(results))
	for _, r := range results {
		ts := r.Timestamp()
		if ts.After(q.from) && ts.Before(q.to) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
