package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"transitview.dev/metrics/store"
)

var tripCmd = &cobra.Command{
	Use:   "trip",
	Short: "Fetches interval metrics for a stop pair on a route",
	Args:  cobra.NoArgs,
	RunE:  trip,
}

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Fetches per-direction metrics and segments for a route",
	Args:  cobra.NoArgs,
	RunE:  route,
}

var agencyCmd = &cobra.Command{
	Use:   "agency",
	Short: "Fetches per-route metric summaries for an agency",
	Args:  cobra.NoArgs,
	RunE:  agency,
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Fetches the route catalog for an agency",
	Args:  cobra.NoArgs,
	RunE:  routes,
}

func init() {
	rootCmd.AddCommand(tripCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(agencyCmd)
	rootCmd.AddCommand(routesCmd)
}

func trip(cmd *cobra.Command, args []string) error {
	p, err := selectionParams()
	if err != nil {
		return err
	}
	if p.AgencyID == "" || p.RouteID == "" || p.DirectionID == "" ||
		p.StartStopID == "" || p.EndStopID == "" {
		return fmt.Errorf("trip metrics need --agency, --route, --direction, --start-stop and --end-stop")
	}

	coord, err := buildCoordinator()
	if err != nil {
		return err
	}

	if err := coord.FetchTripMetrics(cmd.Context(), p); err != nil {
		return err
	}
	return printResult(coord, store.ScopeTrip)
}

func route(cmd *cobra.Command, args []string) error {
	p, err := selectionParams()
	if err != nil {
		return err
	}
	if p.AgencyID == "" || p.RouteID == "" {
		return fmt.Errorf("route metrics need --agency and --route")
	}

	coord, err := buildCoordinator()
	if err != nil {
		return err
	}

	if err := coord.FetchRouteMetrics(cmd.Context(), p); err != nil {
		return err
	}
	return printResult(coord, store.ScopeRoute)
}

func agency(cmd *cobra.Command, args []string) error {
	p, err := selectionParams()
	if err != nil {
		return err
	}
	if p.AgencyID == "" {
		return fmt.Errorf("agency metrics need --agency")
	}

	coord, err := buildCoordinator()
	if err != nil {
		return err
	}

	if err := coord.FetchAgencyMetrics(cmd.Context(), p); err != nil {
		return err
	}
	return printResult(coord, store.ScopeAgency)
}

func routes(cmd *cobra.Command, args []string) error {
	if agencyID == "" {
		return fmt.Errorf("the route catalog needs --agency")
	}

	coord, err := buildCoordinator()
	if err != nil {
		return err
	}

	catalog, err := coord.FetchRouteCatalog(cmd.Context(), agencyID)
	if err != nil {
		return err
	}

	fmt.Println(string(catalog))
	return nil
}
