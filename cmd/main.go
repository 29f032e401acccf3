package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"transitview.dev/metrics"
	"transitview.dev/metrics/daterange"
	"transitview.dev/metrics/locator"
	"transitview.dev/metrics/obs"
	"transitview.dev/metrics/query"
	"transitview.dev/metrics/store"
)

var rootCmd = &cobra.Command{
	Use:          "metrics",
	Short:        "Transit performance metrics tool",
	Long:         "Queries a transit metrics backend and its arrival archives",
	SilenceUsage: true,
}

var (
	agencyID    string
	routeID     string
	directionID string
	startStopID string
	endStopID   string
	date        string
	startDate   string
	startTime   string
	endTime     string
	days        []string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&agencyID, "agency", "a", "", "Agency ID")
	rootCmd.PersistentFlags().StringVarP(&routeID, "route", "r", "", "Route ID")
	rootCmd.PersistentFlags().StringVarP(&directionID, "direction", "d", "", "Direction ID")
	rootCmd.PersistentFlags().StringVarP(&startStopID, "start-stop", "s", "", "Start stop ID")
	rootCmd.PersistentFlags().StringVarP(&endStopID, "end-stop", "e", "", "End stop ID")
	rootCmd.PersistentFlags().StringVarP(&date, "date", "D", "", "End date (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVarP(&startDate, "start-date", "S", "", "Start date (YYYY-MM-DD, defaults to --date)")
	rootCmd.PersistentFlags().StringVarP(&startTime, "start-time", "", "", "Start time (HH:MM)")
	rootCmd.PersistentFlags().StringVarP(&endTime, "end-time", "", "", "End time (HH:MM)")
	rootCmd.PersistentFlags().StringSliceVarP(
		&days,
		"day",
		"",
		[]string{},
		"Day of week to include (sun..sat, repeatable, default all)",
	)
}

func main() {
	// Ignore a missing .env; the environment may be set directly.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var dayNames = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

func parseDays(names []string) ([7]bool, error) {
	if len(names) == 0 {
		return [7]bool{true, true, true, true, true, true, true}, nil
	}

	mask := [7]bool{}
	for _, name := range names {
		i, ok := dayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return mask, fmt.Errorf("unknown day %q", name)
		}
		mask[i] = true
	}
	return mask, nil
}

func selectionParams() (query.Params, error) {
	if date == "" {
		return query.Params{}, fmt.Errorf("--date is required")
	}
	if startDate == "" {
		startDate = date
	}

	mask, err := parseDays(days)
	if err != nil {
		return query.Params{}, err
	}

	return query.Params{
		AgencyID:    agencyID,
		RouteID:     routeID,
		DirectionID: directionID,
		StartStopID: startStopID,
		EndStopID:   endStopID,
		FirstRange: daterange.Selection{
			Date:       date,
			StartDate:  startDate,
			StartTime:  startTime,
			EndTime:    endTime,
			DaysOfWeek: mask,
		},
	}, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func buildStore() (store.Store, error) {
	switch getenvDefault("METRICS_STORE", "memory") {
	case "memory":
		return store.NewMemoryStore(), nil
	case "sqlite":
		return store.NewSQLiteStore(store.SQLiteConfig{
			OnDisk:    true,
			Directory: getenvDefault("METRICS_STORE_DIR", "."),
		})
	case "postgres":
		dsn := os.Getenv("METRICS_STORE_DSN")
		if dsn == "" {
			return nil, fmt.Errorf("METRICS_STORE_DSN is required for the postgres store")
		}
		return store.NewPSQLStore(dsn, false)
	}
	return nil, fmt.Errorf("unknown METRICS_STORE %q", os.Getenv("METRICS_STORE"))
}

func buildCoordinator() (*metrics.Coordinator, error) {
	endpoint := os.Getenv("BACKEND_URL")
	if endpoint == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}

	s, err := buildStore()
	if err != nil {
		return nil, err
	}

	coord := metrics.NewCoordinator(s, endpoint)
	coord.DownloadEndpoint = os.Getenv("DOWNLOAD_URL")

	loc := locator.New()
	loc.Bucket = getenvDefault("ARCHIVE_BUCKET", loc.Bucket)
	loc.Version = getenvDefault("CATALOG_VERSION", loc.Version)
	coord.Locator = loc

	coord.Observer = obs.NewCollector()
	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		go func() {
			_ = http.ListenAndServe(addr, coord.Observer.Handler())
		}()
	}

	return coord, nil
}

// Prints the stored result for a scope: data as JSON, or the
// recorded error.
func printResult(coord *metrics.Coordinator, scope store.Scope) error {
	state, err := coord.Store().State()
	if err != nil {
		return err
	}

	result := state.Result(scope)
	if result.Status == store.StatusError {
		return fmt.Errorf("backend error: %s", result.Error)
	}
	if result.Data == nil {
		fmt.Println("null")
		return nil
	}

	fmt.Println(string(result.Data))
	return nil
}
