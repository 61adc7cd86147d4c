package fitbit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body><div id="header"><a href="./user/2FXNQX">My profile</a></div></body></html>`

func loginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Content-Language", "en-GB")
			fmt.Fprint(w, loginPage)
			return
		}
		fmt.Fprint(w, `<html><body>log in</body></html>`)
	}
}

func newTestClient(t *testing.T, mux *http.ServeMux) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client, err := New(WithBaseURL(server.URL))
	require.NoError(t, err)
	return client, server
}

func authenticatedClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	mux.HandleFunc("/login", loginHandler())
	client, _ := newTestClient(t, mux)
	require.NoError(t, client.Authenticate(context.Background(), "user@example.com", "secret"))
	return client
}

func TestAuthenticateExtractsUserID(t *testing.T) {
	mux := http.NewServeMux()
	client := authenticatedClient(t, mux)
	require.Equal(t, "2FXNQX", client.UserID())
}

func TestAuthenticateFailsWithoutUserReference(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>Invalid credentials</body></html>`)
	})
	client, _ := newTestClient(t, mux)

	err := client.Authenticate(context.Background(), "user@example.com", "wrong")
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, "user@example.com", authErr.Email)
}

func TestLocaleOverrideAndRestore(t *testing.T) {
	var locales []string
	mux := http.NewServeMux()
	mux.HandleFunc("/i18n/switch", func(w http.ResponseWriter, r *http.Request) {
		locales = append(locales, r.URL.Query().Get("locale"))
		fmt.Fprint(w, "  Succeeded.  ")
	})
	client := authenticatedClient(t, mux)

	ok, err := client.EnableLocaleOverride(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = client.RestoreUserLocale(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	// original locale was captured from the Content-Language login header
	require.Equal(t, []string{"en_US", "en_GB"}, locales)
}

func TestRestoreUserLocaleWithoutCapturedLocale(t *testing.T) {
	client, err := New()
	require.NoError(t, err)
	ok, err := client.RestoreUserLocale(context.Background())
	require.NoError(t, err)
	require.False(t, ok, "no network call without a captured locale")
}

func graphHandler(t *testing.T, wantType string, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, wantType, r.URL.Query().Get("type"))
		require.Equal(t, "amchart", r.URL.Query().Get("version"))
		fmt.Fprint(w, body)
	}
}

func TestStepCountsIntradaySingleDay(t *testing.T) {
	day := time.Date(2012, time.January, 4, 0, 0, 0, 0, time.Local)
	mux := http.NewServeMux()
	mux.HandleFunc("/graph/getGraphData", graphHandler(t, "intradaySteps", `<settings><data><chart><graphs><graph>
		<value>0</value>
		<value description="120 steps from 08:00AM to 08:05AM">120.0</value>
	</graph></graphs></chart></data></settings>`))
	client := authenticatedClient(t, mux)

	q := NewQuery().From(day).To(day.AddDate(0, 0, 1)).AtResolution(ResolutionIntraday)
	counts, err := client.StepCounts(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	require.Equal(t, 120, counts[0].Steps)
	require.Equal(t, day.Add(8*time.Hour), counts[0].Start)
	require.Equal(t, day.Add(8*time.Hour+5*time.Minute), counts[0].End)
}

func TestStepCountsRoundsHalfUp(t *testing.T) {
	day := time.Date(2012, time.January, 4, 0, 0, 0, 0, time.Local)
	mux := http.NewServeMux()
	mux.HandleFunc("/graph/getGraphData", graphHandler(t, "intradaySteps", `<settings><data><chart><graphs><graph>
		<value description="3 steps from 08:00AM to 08:05AM">3.4</value>
		<value description="4 steps from 08:05AM to 08:10AM">3.5</value>
	</graph></graphs></chart></data></settings>`))
	client := authenticatedClient(t, mux)

	q := NewQuery().From(day).To(day.AddDate(0, 0, 1))
	counts, err := client.StepCounts(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	require.Equal(t, 3, counts[0].Steps)
	require.Equal(t, 4, counts[1].Steps)
}

func TestStepCountsPagesDayByDay(t *testing.T) {
	day := time.Date(2012, time.January, 4, 0, 0, 0, 0, time.Local)
	var dates []string
	mux := http.NewServeMux()
	mux.HandleFunc("/graph/getGraphData", func(w http.ResponseWriter, r *http.Request) {
		dates = append(dates, r.URL.Query().Get("dateTo"))
		fmt.Fprint(w, `<settings><data><chart><graphs><graph></graph></graphs></chart></data></settings>`)
	})
	client := authenticatedClient(t, mux)

	q := NewQuery().From(day).To(day.AddDate(0, 0, 3))
	_, err := client.StepCounts(context.Background(), q)
	require.NoError(t, err)
	require.Equal(t, []string{"2012-1-04", "2012-1-05", "2012-1-06"}, dates)
}

func TestActivityLevelsIntradayFailsBeforeNetwork(t *testing.T) {
	mux := http.NewServeMux()
	var calls int
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.NotFound(w, r)
	})
	client, _ := newTestClient(t, mux)

	q := NewQuery().AtResolution(ResolutionIntraday)
	_, err := client.ActivityLevels(context.Background(), q)
	var resErr *UnsupportedResolutionError
	require.ErrorAs(t, err, &resErr)
	require.Zero(t, calls, "no network call may precede the resolution check")
}

func TestActivityLevelsDaily(t *testing.T) {
	day := time.Date(2012, time.January, 4, 0, 0, 0, 0, time.Local)
	mux := http.NewServeMux()
	mux.HandleFunc("/graph/getGraphData", graphHandler(t, "minutesActive", `<settings><data><chart><graphs><graph>
		<value description="2.25 hours lightly active on Wed, Jan 4">2.25</value>
		<value description="0.5 hours fairly active on Wed, Jan 4">0.5</value>
		<value description="0.25 hours very active on Wed, Jan 4">0.25</value>
		<value description="1.0 hours moderately active on Wed, Jan 4">1.0</value>
	</graph></graphs></chart></data></settings>`))
	client := authenticatedClient(t, mux)

	q := NewQuery().From(day).To(day.AddDate(0, 0, 1)).AtResolution(ResolutionDaily)
	levels, err := client.ActivityLevels(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, levels, 1)

	level := levels[0]
	require.Equal(t, day, level.Start)
	require.Equal(t, day.AddDate(0, 0, 1), level.End)
	require.Equal(t, 2*time.Hour+15*time.Minute, level.LightlyActive)
	require.Equal(t, 30*time.Minute, level.FairlyActive)
	require.Equal(t, 15*time.Minute, level.VeryActive)
	// the "moderately" point matches no keyword and is silently dropped
}

func TestCalorieBurnsCarryActivityTag(t *testing.T) {
	day := time.Date(2012, time.January, 4, 0, 0, 0, 0, time.Local)
	mux := http.NewServeMux()
	mux.HandleFunc("/graph/getGraphData", graphHandler(t, "intradayCaloriesBurned", `<settings><data><chart><graphs><graph>
		<value description="68 calories burned from 12:00am to 1:00am (sedentary)">68.2</value>
		<value description="102 calories burned from 1:00am to 2:00am">101.7</value>
	</graph></graphs></chart></data></settings>`))
	client := authenticatedClient(t, mux)

	q := NewQuery().From(day).To(day.AddDate(0, 0, 1))
	burns, err := client.CalorieBurns(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, burns, 2)
	require.Equal(t, 68, burns[0].Calories)
	require.Equal(t, "sedentary", burns[0].ActivityLevel)
	require.Equal(t, 102, burns[1].Calories)
	require.Empty(t, burns[1].ActivityLevel)
}

func TestWeightsThroughJSONDialect(t *testing.T) {
	day := time.Date(2012, time.January, 4, 0, 0, 0, 0, time.Local)
	mux := http.NewServeMux()
	mux.HandleFunc("/graph/getGraphData", graphHandler(t, "weight", `{"graph": {"dataSets": {"activity": {"dataPoints": [
		{"dateTime": "2012-1-04 08:00:00", "value": 171.5}
	]}}}}`))
	client := authenticatedClient(t, mux)

	q := NewQuery().From(day).To(day.AddDate(0, 0, 1)).AtResolution(ResolutionDaily)
	weights, err := client.Weights(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, weights, 1)
	require.Equal(t, day.Add(8*time.Hour), weights[0].Time)
	require.Equal(t, 171.5, weights[0].Value)
}

func TestStepCountsServerErrorIsExecutionError(t *testing.T) {
	day := time.Date(2012, time.January, 4, 0, 0, 0, 0, time.Local)
	mux := http.NewServeMux()
	mux.HandleFunc("/graph/getGraphData", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusInternalServerError)
	})
	client := authenticatedClient(t, mux)

	q := NewQuery().From(day).To(day.AddDate(0, 0, 1))
	_, err := client.StepCounts(context.Background(), q)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
}

func TestStepCountsUnrecognizedDescriptionAbortsQuery(t *testing.T) {
	day := time.Date(2012, time.January, 4, 0, 0, 0, 0, time.Local)
	mux := http.NewServeMux()
	mux.HandleFunc("/graph/getGraphData", graphHandler(t, "intradaySteps", `<settings><data><chart><graphs><graph>
		<value description="120 steps from 08:00AM to 08:05AM">120.0</value>
		<value description="uns pas entre 08h05 et 08h10">26.0</value>
	</graph></graphs></chart></data></settings>`))
	client := authenticatedClient(t, mux)

	q := NewQuery().From(day).To(day.AddDate(0, 0, 1))
	counts, err := client.StepCounts(context.Background(), q)
	var formatErr *UnrecognizedFormatError
	require.ErrorAs(t, err, &formatErr)
	require.Nil(t, counts, "a failed page must not yield partial results")
}

func TestSleepSessionsAssembly(t *testing.T) {
	day := time.Date(2012, time.January, 4, 0, 0, 0, 0, time.Local)
	mux := http.NewServeMux()
	mux.HandleFunc("/sleep/2012/01/04", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div id="sleepRecord.123">session</div></body></html>`)
	})
	mux.HandleFunc("/graph/getGraphData", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "intradaySleep", r.URL.Query().Get("type"))
		require.Equal(t, "123", r.URL.Query().Get("arg"))
		fmt.Fprint(w, `<settings><data><chart><graphs><graph>
			<value description="awake at 11:50pm">3.0</value>
			<value description="restless at 11:58pm">2.0</value>
			<value description="asleep at 12:05am">1.0</value>
			<value description="asleep at 12:40am">1.0</value>
		</graph></graphs></chart></data></settings>`)
	})
	client := authenticatedClient(t, mux)

	q := NewQuery().From(day).To(day.AddDate(0, 0, 1)).AtResolution(ResolutionIntraday)
	sessions, err := client.SleepSessions(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	session := sessions[0]
	require.Equal(t, day.Add(-10*time.Minute), session.Start, "session starts 23:50 the previous day")
	require.Equal(t, day.Add(41*time.Minute), session.End)
	require.Equal(t, 51*time.Minute, session.DurationInBed())
	require.Len(t, session.SleepLevels, 4)
	require.Equal(t, 2*time.Minute, session.DurationAsleep())
	require.Equal(t, time.Minute, session.DurationRestless())
	require.Equal(t, time.Minute, session.DurationAwake())
}

func TestSleepSessionsDailyUnsupported(t *testing.T) {
	client, err := New()
	require.NoError(t, err)
	_, err = client.SleepSessions(context.Background(), NewQuery().AtResolution(ResolutionDaily))
	var resErr *UnsupportedResolutionError
	require.ErrorAs(t, err, &resErr)
}

func TestTrackers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ajaxapi", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Contains(t, r.PostForm.Get("request"), `"getWiredDevices"`)
		fmt.Fprint(w, `{"result": {"device": {"getWiredDevices": [
			{"id": "12345", "type": "TRACKER", "battery": "High", "lastSync": "2012-1-04 09:15:00", "productName": "Ultra"}
		]}}}`)
	})
	client := authenticatedClient(t, mux)

	trackers, err := client.Trackers(context.Background())
	require.NoError(t, err)
	require.Len(t, trackers, 1)
	require.Equal(t, "12345", trackers[0].ID)
	require.Equal(t, "TRACKER", trackers[0].Type)
	require.Equal(t, "High", trackers[0].Battery)
	require.Equal(t, "Ultra", trackers[0].ProductName)
	require.Equal(t, time.Date(2012, time.January, 4, 9, 15, 0, 0, time.Local), trackers[0].LastSync)
}
