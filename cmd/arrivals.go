package main

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"transitview.dev/metrics"
	"transitview.dev/metrics/store"
)

var arrivalsCmd = &cobra.Command{
	Use:   "arrivals",
	Short: "Fetches the raw arrival archive for a route and date, as CSV",
	Args:  cobra.NoArgs,
	RunE:  arrivals,
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Downloads the backend's arrivals CSV export for a route and date range",
	Args:  cobra.NoArgs,
	RunE:  download,
}

func init() {
	rootCmd.AddCommand(arrivalsCmd)
	rootCmd.AddCommand(downloadCmd)
}

func arrivals(cmd *cobra.Command, args []string) error {
	if agencyID == "" || routeID == "" || date == "" {
		return fmt.Errorf("arrivals need --agency, --route and --date")
	}

	coord, err := buildCoordinator()
	if err != nil {
		return err
	}

	if err := coord.FetchArrivals(cmd.Context(), agencyID, date, routeID); err != nil {
		return err
	}

	state, err := coord.Store().State()
	if err != nil {
		return err
	}

	result := state.Result(store.ScopeArrivals)
	if result.Status == store.StatusError {
		return fmt.Errorf("%s", result.Error)
	}

	archive, err := metrics.DecodeArrivalArchive(result.Data)
	if err != nil {
		return err
	}

	return gocsv.Marshal(&archive.Arrivals, os.Stdout)
}

func download(cmd *cobra.Command, args []string) error {
	p, err := selectionParams()
	if err != nil {
		return err
	}
	if p.AgencyID == "" || p.RouteID == "" {
		return fmt.Errorf("download needs --agency and --route")
	}

	coord, err := buildCoordinator()
	if err != nil {
		return err
	}
	if coord.DownloadEndpoint == "" {
		return fmt.Errorf("DOWNLOAD_URL is required")
	}

	// Download into a temp file first so a failed transfer doesn't
	// leave a truncated export behind.
	tmp, err := os.CreateTemp(".", "arrivals_*.csv.part")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	name, err := coord.DownloadArrivalsCSV(cmd.Context(), p, tmp)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), name); err != nil {
		return err
	}

	fmt.Println(name)
	return nil
}
