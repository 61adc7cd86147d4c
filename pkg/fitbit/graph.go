package fitbit

import (
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// Base URLs of the dashboard endpoints. All of them are contract-by-
// observation against a versionless upstream; none are documented.
const (
	defaultBaseURL = "https://www.fitbit.com"

	graphPath = "/graph/getGraphData"
	i18nPath  = "/i18n/switch"
	loginPath = "/login"
	sleepPath = "/sleep/"
	ajaxPath  = "/ajaxapi"
)

// Graph type codes understood by the backend. Codes are resolution
// dependent and some metrics exist at one resolution only.
const (
	typeStepsDaily         = "stepsTaken"
	typeStepsIntraday      = "intradaySteps"
	typeFloorsDaily        = "altitude"
	typeFloorsIntraday     = "intradayAltitude"
	typeScoreDaily         = "activeScore"
	typeScoreIntraday      = "intradayActiveScore"
	typeActivityLevelDaily = "minutesActive"
	typeCaloriesConsumed   = "caloriesConsumed"
	typeBurnDaily          = "caloriesBurned"
	typeBurnIntraday       = "intradayCaloriesBurned"
	typeSleepIntraday      = "intradaySleep"
	typeWeightDaily        = "weight"
)

const (
	requestDateFormat = "2006-1-02"
	urlDateFormat     = "2006/01/02"
)

// graphType resolves a metric name to its type code for the requested
// resolution, or an UnsupportedResolutionError when the upstream has no
// such combination. This is checked before any network call.
func graphType(metric string, r Resolution) (string, error) {
	codes := map[string][2]string{
		// {daily, intraday}; empty string marks an unsupported resolution
		"steps":          {typeStepsDaily, typeStepsIntraday},
		"floors":         {typeFloorsDaily, typeFloorsIntraday},
		"activity score": {typeScoreDaily, typeScoreIntraday},
		"activity level": {typeActivityLevelDaily, ""},
		"calorie count":  {typeCaloriesConsumed, ""},
		"calorie burn":   {typeBurnDaily, typeBurnIntraday},
		"sleep":          {"", typeSleepIntraday},
		"weight":         {typeWeightDaily, ""},
	}
	pair, ok := codes[metric]
	if !ok {
		return "", errors.Errorf("unknown metric %q", metric)
	}
	var code string
	switch r {
	case ResolutionDaily:
		code = pair[0]
	case ResolutionIntraday:
		code = pair[1]
	}
	if code == "" {
		return "", &UnsupportedResolutionError{Metric: metric, Resolution: r}
	}
	return code, nil
}

// buildGraphURL constructs one graph request for a single day. The fixed
// rendering/version parameters are what the dashboard's own charts send;
// the backend rejects requests without them.
func (c *Client) buildGraphURL(graphType string, date time.Time, params map[string]string) string {
	values := url.Values{}
	values.Set("userId", c.userID)
	values.Set("type", graphType)
	values.Set("version", "amchart")
	values.Set("dataVersion", "14")
	values.Set("chart_type", "column2d")
	values.Set("period", "1d")
	values.Set("dateTo", date.Format(requestDateFormat))
	for k, v := range params {
		values.Set(k, v)
	}
	return c.baseURL + graphPath + "?" + values.Encode()
}
