package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	xrate "golang.org/x/time/rate"

	"github.com/mitch000001/fitbit-scraper/pkg/fitbit"
	fshttp "github.com/mitch000001/fitbit-scraper/pkg/http"
	"github.com/mitch000001/fitbit-scraper/pkg/http/rate"
)

const dateFormat = "2006-01-02"

var (
	flagMetric      string
	flagFrom        string
	flagTo          string
	flagResolution  string
	flagSessionFile string
	flagRPS         float64
	flagVerboseHTTP bool
	flagMetricsAddr string
)

func main() {
	cmd := &cobra.Command{
		Use:   "fitbit-export",
		Short: "Export personal Fitbit time series scraped from the web dashboard",
		Long: `fitbit-export logs into the Fitbit web dashboard with the credentials
from FITBIT_EMAIL and FITBIT_PASSWORD, fetches one metric over a date
range and prints the records as JSON.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&flagMetric, "metric", "steps", "metric to export: steps, floors, activity-score, activity-level, calorie-count, calorie-burn, sleep, weight, trackers")
	cmd.Flags().StringVar(&flagFrom, "from", "", "start date (inclusive), format 2006-01-02; default 24h ago")
	cmd.Flags().StringVar(&flagTo, "to", "", "end date (exclusive), format 2006-01-02; default now")
	cmd.Flags().StringVar(&flagResolution, "resolution", "intraday", "resolution: intraday or daily")
	cmd.Flags().StringVar(&flagSessionFile, "session-file", "", "JSON file to persist the dashboard session cookies across runs")
	cmd.Flags().Float64Var(&flagRPS, "rps", 0, "max requests per second against the dashboard, 0 disables throttling")
	cmd.Flags().BoolVar(&flagVerboseHTTP, "verbose-http", false, "dump all HTTP exchanges to the log")
	cmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus client metrics on this address while exporting")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	email := os.Getenv("FITBIT_EMAIL")
	password := os.Getenv("FITBIT_PASSWORD")
	if email == "" || password == "" {
		return errors.New("FITBIT_EMAIL and FITBIT_PASSWORD must be set")
	}

	transport := http.DefaultTransport
	if flagRPS > 0 {
		transport = rate.NewTransport(rate.NewLimiter(xrate.Limit(flagRPS), 1), transport)
	}
	transport = instrumentTransport(transport)
	if flagVerboseHTTP {
		transport = fshttp.LogTransport(transport)
	}
	httpClient := &http.Client{Transport: transport}

	if flagMetricsAddr != "" {
		registerClientMetrics()
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(flagMetricsAddr, mux); err != nil {
				log.Printf("Error serving metrics: %v", err)
			}
		}()
	}

	client, err := fitbit.New(fitbit.WithHTTPClient(httpClient))
	if err != nil {
		return err
	}

	var sessionFile *fshttp.SessionFile
	var origin *url.URL
	if flagSessionFile != "" {
		origin, err = url.Parse("https://www.fitbit.com")
		if err != nil {
			return err
		}
		sessionFile = fshttp.NewSessionFile(flagSessionFile)
		if err := sessionFile.Load(httpClient.Jar, origin); err != nil {
			return err
		}
	}

	if err := client.Authenticate(ctx, email, password); err != nil {
		return err
	}
	log.Printf("Authenticated as user %s", client.UserID())

	if sessionFile != nil {
		if err := sessionFile.Save(httpClient.Jar, origin); err != nil {
			log.Printf("Error saving session: %v", err)
		}
	}

	// the description grammars are English-only
	if ok, err := client.EnableLocaleOverride(ctx); err != nil {
		return err
	} else if !ok {
		log.Printf("Locale override not acknowledged, parsing may fail for non-US accounts")
	}
	defer func() {
		if _, err := client.RestoreUserLocale(context.Background()); err != nil {
			log.Printf("Error restoring user locale: %v", err)
		}
	}()

	query, err := buildQuery()
	if err != nil {
		return err
	}
	records, err := export(ctx, client, query)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

func buildQuery() (fitbit.Query, error) {
	query := fitbit.NewQuery()
	if flagFrom != "" {
		from, err := time.ParseInLocation(dateFormat, flagFrom, time.Local)
		if err != nil {
			return query, errors.Wrap(err, "parsing --from")
		}
		query = query.From(from)
	}
	if flagTo != "" {
		to, err := time.ParseInLocation(dateFormat, flagTo, time.Local)
		if err != nil {
			return query, errors.Wrap(err, "parsing --to")
		}
		query = query.To(to)
	}
	switch flagResolution {
	case "intraday":
		query = query.AtResolution(fitbit.ResolutionIntraday)
	case "daily":
		query = query.AtResolution(fitbit.ResolutionDaily)
	default:
		return query, errors.Errorf("unknown resolution %q", flagResolution)
	}
	return query, nil
}

func export(ctx context.Context, client *fitbit.Client, query fitbit.Query) (interface{}, error) {
	switch flagMetric {
	case "steps":
		return client.StepCounts(ctx, query)
	case "floors":
		return client.FloorCounts(ctx, query)
	case "activity-score":
		return client.ActivityScores(ctx, query)
	case "activity-level":
		return client.ActivityLevels(ctx, query)
	case "calorie-count":
		return client.CalorieCounts(ctx, query)
	case "calorie-burn":
		return client.CalorieBurns(ctx, query)
	case "sleep":
		return client.SleepSessions(ctx, query)
	case "weight":
		return client.Weights(ctx, query)
	case "trackers":
		return client.Trackers(ctx)
	default:
		return nil, fmt.Errorf("unknown metric %q", flagMetric)
	}
}
