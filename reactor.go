package metrics

import (
	"context"

	"transitview.dev/metrics/query"
	"transitview.dev/metrics/store"
)

// The minimal selection state whose change makes previously fetched
// arrival-archive data wrong to display.
type identity struct {
	date     string
	routeID  string
	agencyID string
}

// Reactor fans a selection replacement out into state resets and
// fetches. It applies a fixed rule order on every replacement:
//
//  1. record the new parameters
//  2. reset the arrival archive if the identity (date, route,
//     agency) changed, before any fetch transition is observable
//  3. fetch agency metrics when a primary-range date is present
//  4. fetch route metrics when agency and route are selected
//  5. fetch trip metrics when agency, route, direction and both
//     stops are selected, else reset the trip result
type Reactor struct {
	coord *Coordinator
	prev  identity
}

func NewReactor(c *Coordinator) *Reactor {
	return &Reactor{coord: c}
}

// Applies one selection replacement. Fetch failures land in the
// store; the returned error covers store plumbing only.
func (r *Reactor) Apply(ctx context.Context, p query.Params) error {
	err := r.coord.store.Dispatch(store.Action{
		Type:   store.ActionUpdateParams,
		Params: &p,
	})
	if err != nil {
		return err
	}

	current := identity{
		date:     p.FirstRange.Date,
		routeID:  p.RouteID,
		agencyID: p.AgencyID,
	}
	if current != r.prev {
		err = r.coord.store.Dispatch(store.Action{
			Type:  store.ActionReset,
			Scope: store.ScopeArrivals,
		})
		if err != nil {
			return err
		}
	}
	r.prev = current

	if p.FirstRange.Date != "" {
		if err := r.coord.FetchAgencyMetrics(ctx, p); err != nil {
			return err
		}
	}

	if p.AgencyID != "" && p.RouteID != "" {
		if err := r.coord.FetchRouteMetrics(ctx, p); err != nil {
			return err
		}
	}

	if p.AgencyID != "" && p.RouteID != "" && p.DirectionID != "" &&
		p.StartStopID != "" && p.EndStopID != "" {
		return r.coord.FetchTripMetrics(ctx, p)
	}

	return r.coord.store.Dispatch(store.Action{
		Type:  store.ActionReset,
		Scope: store.ScopeTrip,
	})
}
