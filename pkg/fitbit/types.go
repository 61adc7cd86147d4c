package fitbit

import "time"

// Interval is a half-open time span [Start, End). Instants carry no
// explicit timezone; they are to be interpreted in the timezone configured
// on the authenticated account's profile.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Timestamp returns the start of the interval, for callers that want a
// single point-in-time view of a record.
func (i Interval) Timestamp() time.Time {
	return i.Start
}

// Size returns the length of the interval.
func (i Interval) Size() time.Duration {
	return i.End.Sub(i.Start)
}

func (i Interval) shift(d time.Duration) Interval {
	return Interval{Start: i.Start.Add(d), End: i.End.Add(d)}
}

// StepCount is the number of steps taken over an interval.
type StepCount struct {
	Interval
	Steps int `json:"steps"`
}

// FloorCount is the number of floors climbed over an interval.
type FloorCount struct {
	Interval
	Floors int `json:"floors"`
}

// ActivityScore is the dimensionless active-score value over an interval,
// a rough metabolic-equivalent proxy.
type ActivityScore struct {
	Interval
	Score int `json:"score"`
}

// ActivityLevel is the daily breakdown of time spent lightly, fairly and
// very active. The three durations are a convenience breakdown and do not
// necessarily sum to 24h.
type ActivityLevel struct {
	Interval
	LightlyActive time.Duration `json:"lightlyActive"`
	FairlyActive  time.Duration `json:"fairlyActive"`
	VeryActive    time.Duration `json:"veryActive"`
}

// CalorieCount is the number of calories consumed over an interval.
type CalorieCount struct {
	Interval
	Calories int `json:"calories"`
}

// CalorieBurn is the number of calories burned over an interval, tagged
// with the upstream's qualitative activity-level label when present (e.g.
// "sedentary", "light").
type CalorieBurn struct {
	Interval
	Calories      int    `json:"calories"`
	ActivityLevel string `json:"activityLevel,omitempty"`
}

// Sleep levels as reflected in the dashboard.
const (
	SleepLevelAsleep   = 1
	SleepLevelRestless = 2
	SleepLevelAwake    = 3
)

// SleepLevel is one per-minute sleep state sample.
type SleepLevel struct {
	Interval
	Level int `json:"level"`
}

// SleepSession is one continuous in-bed period assembled from its per-minute
// sleep levels. The interval spans the first level's start to the last
// level's end.
type SleepSession struct {
	Interval
	SleepLevels []SleepLevel `json:"sleepLevels"`
}

// DurationInBed returns the total span of the session.
func (s SleepSession) DurationInBed() time.Duration {
	return s.Size()
}

// DurationAsleep returns the summed time spent at the asleep level.
func (s SleepSession) DurationAsleep() time.Duration {
	return s.durationAtLevel(SleepLevelAsleep)
}

// DurationRestless returns the summed time spent at the restless level.
func (s SleepSession) DurationRestless() time.Duration {
	return s.durationAtLevel(SleepLevelRestless)
}

// DurationAwake returns the summed time spent at the awake level.
func (s SleepSession) DurationAwake() time.Duration {
	return s.durationAtLevel(SleepLevelAwake)
}

func (s SleepSession) durationAtLevel(level int) time.Duration {
	var d time.Duration
	for _, l := range s.SleepLevels {
		if l.Level == level {
			d += l.Size()
		}
	}
	return d
}

// Weight is a single body-weight measurement.
type Weight struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Tracker is an account-level device snapshot, not a time series.
type Tracker struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Battery     string    `json:"battery"`
	LastSync    time.Time `json:"lastSync"`
	ProductName string    `json:"productName"`
}
