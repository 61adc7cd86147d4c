package fitbit

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Nested-object dialect: the newer backend generation answers with JSON of
// a fixed shape down to the data point list,
//
//	{"graph": {"dataSets": {"activity": {"dataPoints": [
//	    {"dateTime": "2012-1-04 08:00:00", "value": 171.5}, ...
//	]}}}}
//
// Timestamps are already absolute, so the free-text grammars are bypassed,
// but the payload only gives point starts: the per-series interval size is
// inferred from the spacing between consecutive points.

const jsonTimeFormat = "2006-1-02 15:04:05"

type graphJSONDocument struct {
	Graph struct {
		DataSets struct {
			Activity struct {
				DataPoints []graphJSONPoint `json:"dataPoints"`
			} `json:"activity"`
		} `json:"dataSets"`
	} `json:"graph"`
}

type graphJSONPoint struct {
	DateTime string  `json:"dateTime"`
	Value    float64 `json:"value"`
}

// timedPoint is one parsed data point of the nested-object dialect.
type timedPoint struct {
	Time  time.Time
	Value float64
}

func parseGraphJSON(body []byte) ([]timedPoint, error) {
	var doc graphJSONDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding graph JSON")
	}
	var points []timedPoint
	for _, p := range doc.Graph.DataSets.Activity.DataPoints {
		t, err := time.ParseInLocation(jsonTimeFormat, p.DateTime, time.Local)
		if err != nil {
			return nil, &UnrecognizedFormatError{Description: p.DateTime}
		}
		points = append(points, timedPoint{Time: t, Value: p.Value})
	}
	return points, nil
}

// inferIntervalSize returns the modal spacing between consecutive points,
// the series' natural granularity. Ties go to the smaller spacing. A
// series too short to measure falls back to one minute.
func inferIntervalSize(points []timedPoint) time.Duration {
	if len(points) < 2 {
		return time.Minute
	}
	counts := make(map[time.Duration]int)
	for i := 1; i < len(points); i++ {
		gap := points[i].Time.Sub(points[i-1].Time)
		if gap > 0 {
			counts[gap]++
		}
	}
	var mode time.Duration
	for gap, n := range counts {
		if mode == 0 || n > counts[mode] || (n == counts[mode] && gap < mode) {
			mode = gap
		}
	}
	if mode == 0 {
		return time.Minute
	}
	return mode
}
