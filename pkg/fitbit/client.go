package fitbit

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Client is an unofficial client for the Fitbit web dashboard. It scrapes
// the dashboard's internal graph endpoints, which exist for the site's own
// charts and come with no schema or stability guarantees.
//
// Timestamps on the wire carry no timezone; it is assumed the timezone
// preference in the Fitbit user profile matches the local environment.
//
// A Client owns one authenticated session (cookies, user id, original
// locale). It is not safe for concurrent use: a locale override mutates
// account-level state on the remote side, not just local memory.
type Client struct {
	httpClient *http.Client
	baseURL    string

	userID     string
	userLocale string
}

var userIDRe = regexp.MustCompile(`/user/([A-Z0-9]+)`)

// Option configures a Client before first use.
type Option func(*Client)

// WithHTTPClient supplies the underlying transport. A cookie jar is
// attached if the client has none: the session lives in cookies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the dashboard origin.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// New returns an unauthenticated Client. Call Authenticate before issuing
// queries.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, errors.Wrap(err, "creating cookie jar")
		}
		c.httpClient.Jar = jar
	}
	return c, nil
}

// UserID returns the unique dashboard user id extracted during
// authentication, distinct from the account's email address.
func (c *Client) UserID() string {
	return c.userID
}

// Authenticate performs the dashboard form login and extracts the user id
// from the post-login page. Success is detected by presence of the user-id
// back-reference in the body, not by status code. The account's original
// locale is captured from the Content-Language response header so it can
// be restored after an override.
func (c *Client) Authenticate(ctx context.Context, email, password string) error {
	// prime the session cookies before posting credentials
	if _, err := c.get(ctx, c.baseURL+loginPath); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)
	form.Set("login", "Log In")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return execError("login", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return execError("login", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return execError("login", err)
	}

	if locale := resp.Header.Get("Content-Language"); locale != "" {
		c.userLocale = strings.ReplaceAll(locale, "-", "_")
	}

	m := userIDRe.FindSubmatch(body)
	if m == nil {
		return &AuthenticationError{Email: email}
	}
	c.userID = string(m[1])
	return nil
}

// EnableLocaleOverride forces the account to en_US. The description
// grammars this client parses are English-only, so accounts on any other
// locale must be switched for the duration of the session. Reports whether
// the upstream acknowledged the switch.
func (c *Client) EnableLocaleOverride(ctx context.Context) (bool, error) {
	return c.switchLocale(ctx, "en_US")
}

// RestoreUserLocale reverts the account to the locale captured during
// authentication. Returns false without a network call when no original
// locale is known.
func (c *Client) RestoreUserLocale(ctx context.Context) (bool, error) {
	if c.userLocale == "" {
		return false, nil
	}
	return c.switchLocale(ctx, c.userLocale)
}

func (c *Client) switchLocale(ctx context.Context, locale string) (bool, error) {
	body, err := c.get(ctx, c.baseURL+i18nPath+"?"+url.Values{"locale": {locale}}.Encode())
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.TrimSpace(string(body)), "Succeeded"), nil
}

// get issues an authenticated GET and returns the body. Any transport
// failure, including a non-2xx status, is an ExecutionError.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, execError("building request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, execError("GET "+rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, execError("GET "+rawURL, errors.Errorf("unexpected status %s", resp.Status))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, execError("reading response", err)
	}
	return body, nil
}

// execute pages one graph request per calendar day of the query range, in
// ascending order, handing each day's parsed points to process. A failing
// day aborts the whole query; no partial results are returned. Sequential
// paging is deliberate: a failure is attributable to a specific day and a
// retrying caller can resume from a known point.
func (c *Client) execute(ctx context.Context, graphType string, q Query, params map[string]string, process func(day time.Time, points []graphPoint) error) error {
	for _, day := range q.days() {
		if err := c.executeDay(ctx, graphType, day, params, process); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) executeDay(ctx context.Context, graphType string, day time.Time, params map[string]string, process func(day time.Time, points []graphPoint) error) error {
	body, err := c.get(ctx, c.buildGraphURL(graphType, day, params))
	if err != nil {
		return err
	}
	points, err := parseGraphXML([]byte(strings.TrimSpace(string(body))))
	if err != nil {
		return execError("parsing graph response", err)
	}
	return process(day, points)
}

// intervalPoint is a nested-object dialect data point with its timing
// materialized into an interval.
type intervalPoint struct {
	Interval Interval
	Value    float64
}

// executeJSON is the nested-object dialect counterpart of execute, used by
// the metrics served by the newer backend generation. Timestamps are
// absolute but mark point starts only, so each day's interval size is
// inferred from the spacing of its points before records are handed to
// process.
func (c *Client) executeJSON(ctx context.Context, graphType string, q Query, process func(day time.Time, points []intervalPoint) error) error {
	for _, day := range q.days() {
		body, err := c.get(ctx, c.buildGraphURL(graphType, day, nil))
		if err != nil {
			return err
		}
		points, err := parseGraphJSON(body)
		if err != nil {
			return err
		}
		size := inferIntervalSize(points)
		resolved := make([]intervalPoint, len(points))
		for i, p := range points {
			resolved[i] = intervalPoint{
				Interval: Interval{Start: p.Time, End: p.Time.Add(size)},
				Value:    p.Value,
			}
		}
		if err := process(day, resolved); err != nil {
			return err
		}
	}
	return nil
}

// StepCounts returns step counts at either daily or intraday resolution.
func (c *Client) StepCounts(ctx context.Context, q Query) ([]StepCount, error) {
	gt, err := graphType("steps", q.Resolution())
	if err != nil {
		return nil, err
	}
	var result []StepCount
	err = c.execute(ctx, gt, q, nil, func(day time.Time, points []graphPoint) error {
		for _, p := range points {
			interval, value, err := resolvePoint(day, p)
			if err != nil {
				return err
			}
			result = append(result, StepCount{Interval: interval, Steps: roundToInt(value)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filterResults(result, q), nil
}

// FloorCounts returns floors climbed at either daily or intraday
// resolution.
func (c *Client) FloorCounts(ctx context.Context, q Query) ([]FloorCount, error) {
	gt, err := graphType("floors", q.Resolution())
	if err != nil {
		return nil, err
	}
	var result []FloorCount
	err = c.execute(ctx, gt, q, nil, func(day time.Time, points []graphPoint) error {
		for _, p := range points {
			interval, value, err := resolvePoint(day, p)
			if err != nil {
				return err
			}
			result = append(result, FloorCount{Interval: interval, Floors: roundToInt(value)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filterResults(result, q), nil
}

// ActivityScores returns the active-score series at either daily or
// intraday resolution.
func (c *Client) ActivityScores(ctx context.Context, q Query) ([]ActivityScore, error) {
	gt, err := graphType("activity score", q.Resolution())
	if err != nil {
		return nil, err
	}
	var result []ActivityScore
	err = c.execute(ctx, gt, q, nil, func(day time.Time, points []graphPoint) error {
		for _, p := range points {
			interval, value, err := resolvePoint(day, p)
			if err != nil {
				return err
			}
			result = append(result, ActivityScore{Interval: interval, Score: roundToInt(value)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filterResults(result, q), nil
}

// CalorieCounts returns calories consumed per day. Only available at daily
// resolution.
func (c *Client) CalorieCounts(ctx context.Context, q Query) ([]CalorieCount, error) {
	gt, err := graphType("calorie count", q.Resolution())
	if err != nil {
		return nil, err
	}
	var result []CalorieCount
	err = c.execute(ctx, gt, q, nil, func(day time.Time, points []graphPoint) error {
		for _, p := range points {
			interval, value, err := resolvePoint(day, p)
			if err != nil {
				return err
			}
			result = append(result, CalorieCount{Interval: interval, Calories: roundToInt(value)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filterResults(result, q), nil
}

// CalorieBurns returns calories burned at either daily or intraday
// resolution, tagged with the upstream's qualitative activity-level label
// when the description carries one.
func (c *Client) CalorieBurns(ctx context.Context, q Query) ([]CalorieBurn, error) {
	gt, err := graphType("calorie burn", q.Resolution())
	if err != nil {
		return nil, err
	}
	var result []CalorieBurn
	err = c.execute(ctx, gt, q, nil, func(day time.Time, points []graphPoint) error {
		for _, p := range points {
			interval, value, err := resolvePoint(day, p)
			if err != nil {
				return err
			}
			result = append(result, CalorieBurn{
				Interval:      interval,
				Calories:      roundToInt(value),
				ActivityLevel: burnActivityTag(p.Description),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filterResults(result, q), nil
}

// ActivityLevels returns the daily activity breakdown. Only available at
// daily resolution. One record per day; the three points of a day's page
// select their duration field by the "lightly"/"fairly"/"very" keyword in
// the description. Descriptions matching none of the keywords are dropped
// without error: a documented upstream-format ambiguity, not a fault.
func (c *Client) ActivityLevels(ctx context.Context, q Query) ([]ActivityLevel, error) {
	gt, err := graphType("activity level", q.Resolution())
	if err != nil {
		return nil, err
	}
	var result []ActivityLevel
	err = c.execute(ctx, gt, q, nil, func(day time.Time, points []graphPoint) error {
		level := ActivityLevel{
			Interval: Interval{Start: day, End: day.AddDate(0, 0, 1)},
		}
		for _, p := range points {
			// the interval is discarded (one record spans the whole day)
			// but an unparseable description still signals an upstream
			// format change and aborts the page
			if _, err := parseDescription(day, p.Description); err != nil {
				return err
			}
			value, err := parseValue(p.Value)
			if err != nil {
				return err
			}
			// the payload's unit is hours
			d := time.Duration(math.Round(value*60*60*1000)) * time.Millisecond
			switch {
			case strings.Contains(p.Description, "lightly"):
				level.LightlyActive = d
			case strings.Contains(p.Description, "fairly"):
				level.FairlyActive = d
			case strings.Contains(p.Description, "very"):
				level.VeryActive = d
			}
		}
		result = append(result, level)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return filterResults(result, q), nil
}

// Weights returns body-weight measurements. Only available at daily
// resolution; the newer backend serves weight through the nested-object
// JSON dialect with absolute timestamps.
func (c *Client) Weights(ctx context.Context, q Query) ([]Weight, error) {
	gt, err := graphType("weight", q.Resolution())
	if err != nil {
		return nil, err
	}
	var result []Weight
	err = c.executeJSON(ctx, gt, q, func(day time.Time, points []intervalPoint) error {
		for _, p := range points {
			result = append(result, Weight{Time: p.Interval.Start, Value: p.Value})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolvePoint turns one attributed-node data point into its absolute
// interval and numeric value.
func resolvePoint(day time.Time, p graphPoint) (Interval, float64, error) {
	interval, err := parseDescription(day, p.Description)
	if err != nil {
		return Interval{}, 0, err
	}
	value, err := parseValue(p.Value)
	if err != nil {
		return Interval{}, 0, err
	}
	return interval, value, nil
}

// parseValue parses a wire value. Values are floating point on the wire
// even for count metrics.
func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, execError("parsing value", err)
	}
	return v, nil
}

// roundToInt materializes a wire float into a count field, rounding half
// up.
func roundToInt(v float64) int {
	return int(math.Round(v))
}

var burnTagRe = regexp.MustCompile(`\(([^)]+)\)\s*$`)

// burnActivityTag extracts the trailing parenthesized activity-level label
// of a calorie-burn description, e.g. "... from 12:00am to 1:00am
// (sedentary)". Descriptions without a label yield an empty tag.
func burnActivityTag(description string) string {
	if m := burnTagRe.FindStringSubmatch(description); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
