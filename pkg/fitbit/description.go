package fitbit

import (
	"regexp"
	"strings"
	"time"
)

var (
	rangeRe   = regexp.MustCompile(`^.* from (\S+) to (\S+?)(?: \([^)]*\))?$`)
	dayRe     = regexp.MustCompile(`^.* on ([A-Za-z]{3}, [A-Za-z]{3} \d{1,2})$`)
	instantRe = regexp.MustCompile(`^.* at (\d{1,2}:\d{2}(?:[AaPp][Mm])?)\b.*$`)
)

// The graph endpoints encode a data point's timing as free text inside its
// description attribute. Three grammars exist, tried in order:
//
//	range form:    "1,209 steps from 1:05pm to 1:10pm"
//	full-day form: "3,106 steps on Wed, Jan 04"
//	instant form:  "2 floors at 14:05"
//
// Clock times appear in 12-hour (hh:mma) or 24-hour (HH:mm) form depending
// on account settings, which is why the session forces en_US before
// fetching.

// parseDescription resolves a description string against the requested
// day into an absolute interval. A description matching none of the three
// grammars yields an UnrecognizedFormatError.
func parseDescription(day time.Time, description string) (Interval, error) {
	if m := rangeRe.FindStringSubmatch(description); m != nil {
		start, err := parseClock(day, m[1])
		if err == nil {
			var end time.Time
			end, err = parseClock(day, m[2])
			if err == nil {
				if end.Before(start) {
					// the series wrapped past midnight
					end = end.Add(24 * time.Hour)
				}
				return Interval{Start: start, End: end}, nil
			}
		}
		return Interval{}, &UnrecognizedFormatError{Description: description}
	}

	if m := dayRe.FindStringSubmatch(description); m != nil {
		parsed, err := time.Parse("Mon, Jan 2", m[1])
		if err != nil {
			return Interval{}, &UnrecognizedFormatError{Description: description}
		}
		// the upstream omits the year; borrow it from the requested day
		start := time.Date(day.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, day.Location())
		return Interval{Start: start, End: start.AddDate(0, 0, 1)}, nil
	}

	if m := instantRe.FindStringSubmatch(description); m != nil {
		start, err := parseClock(day, m[1])
		if err != nil {
			return Interval{}, &UnrecognizedFormatError{Description: description}
		}
		return Interval{Start: start, End: start.Add(time.Minute)}, nil
	}

	return Interval{}, &UnrecognizedFormatError{Description: description}
}

// parseClock parses a bare clock time against the requested day. Both
// 12-hour and 24-hour forms occur in the wild; the 12-hour meridiem is
// upcased first since layout matching is case-sensitive.
func parseClock(day time.Time, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("3:04PM", strings.ToUpper(s))
	if err != nil {
		t, err = time.Parse("15:04", s)
		if err != nil {
			return time.Time{}, err
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
