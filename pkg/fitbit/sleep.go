package fitbit

import (
	"context"
	"regexp"
	"sort"
	"time"
)

// Sleep data needs a detour: the graph endpoint wants a session id, and
// session ids are only discoverable by scraping the per-date sleep review
// page. A day may contain zero, one or multiple sessions.

var sleepSessionRe = regexp.MustCompile(`sleepRecord\.([0-9]+)`)

// sleepSessionIDs scrapes the sleep review page of one date for the
// session identifiers embedded in it.
func (c *Client) sleepSessionIDs(ctx context.Context, date time.Time) ([]string, error) {
	body, err := c.get(ctx, c.baseURL+sleepPath+date.Format(urlDateFormat))
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, m := range sleepSessionRe.FindAllSubmatch(body, -1) {
		ids = append(ids, string(m[1]))
	}
	return ids, nil
}

// SleepSessions returns one assembled session per discovered session id in
// the query range, time-sorted. Only available at intraday resolution.
func (c *Client) SleepSessions(ctx context.Context, q Query) ([]SleepSession, error) {
	gt, err := graphType("sleep", q.Resolution())
	if err != nil {
		return nil, err
	}
	var sessions []SleepSession
	for _, day := range q.days() {
		ids, err := c.sleepSessionIDs(ctx, day)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			var levels []SleepLevel
			err := c.executeDay(ctx, gt, day, map[string]string{"arg": id}, func(day time.Time, points []graphPoint) error {
				for _, p := range points {
					interval, value, err := resolvePoint(day, p)
					if err != nil {
						return err
					}
					levels = append(levels, SleepLevel{Interval: interval, Level: roundToInt(value)})
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			if len(levels) == 0 {
				continue
			}
			levels = correctMidnightWrap(levels)
			sessions = append(sessions, SleepSession{
				Interval: Interval{
					Start: levels[0].Start,
					End:   levels[len(levels)-1].End,
				},
				SleepLevels: levels,
			})
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Start.Before(sessions[j].Start)
	})
	return sessions, nil
}

// SleepLevels returns the flattened per-minute sleep level stream across
// all sessions in the query range, time-sorted and trimmed to the query
// window. Only available at intraday resolution.
func (c *Client) SleepLevels(ctx context.Context, q Query) ([]SleepLevel, error) {
	sessions, err := c.SleepSessions(ctx, q)
	if err != nil {
		return nil, err
	}
	var result []SleepLevel
	for _, s := range sessions {
		result = append(result, s.SleepLevels...)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Start.Before(result[j].Start)
	})
	return filterResults(result, q), nil
}

// correctMidnightWrap repairs a session whose level descriptions were all
// parsed onto the requested date even though the session started the
// evening before. The last record's start is the session's end-of-day
// anchor: any record starting after it can only be the pre-midnight
// portion, so it is shifted back a day. Records are then sorted since the
// upstream is not trusted to return true time order.
func correctMidnightWrap(levels []SleepLevel) []SleepLevel {
	anchor := levels[len(levels)-1].Start
	for i := range levels {
		if levels[i].Start.After(anchor) {
			levels[i].Interval = levels[i].Interval.shift(-24 * time.Hour)
		}
	}
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Start.Before(levels[j].Start)
	})
	return levels
}
