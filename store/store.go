// Package store holds the application state document that fetch
// results land in: the current selection parameters and one result
// slot per metric scope. Writers only dispatch actions; readers take
// whole-state snapshots. Implementations exist for memory, SQLite
// and Postgres; the durable ones let a new session resume with warm
// deduplication state.
package store

import (
	"encoding/json"

	"transitview.dev/metrics/query"
)

// An independent unit of fetchable metrics data.
type Scope string

const (
	ScopeTrip     Scope = "trip"
	ScopeRoute    Scope = "route"
	ScopeAgency   Scope = "agency"
	ScopeArrivals Scope = "arrivals"
)

var Scopes = []Scope{ScopeTrip, ScopeRoute, ScopeAgency, ScopeArrivals}

type Status string

const (
	StatusIdle       Status = "idle"
	StatusRequesting Status = "requesting"
	StatusReceived   Status = "received"
	StatusError      Status = "error"
)

// Result slot for one scope. Fingerprint identifies the request the
// slot currently reflects; it is an opaque equality key.
type Result struct {
	Status      Status
	Fingerprint string
	Data        json.RawMessage
	Error       string
}

type ActionType string

const (
	ActionUpdateParams ActionType = "update_params"
	ActionRequested    ActionType = "requested"
	ActionReceived     ActionType = "received"
	ActionErrored      ActionType = "errored"
	ActionReset        ActionType = "reset"
)

type Action struct {
	Type        ActionType
	Scope       Scope
	Fingerprint string
	Data        json.RawMessage
	Message     string
	Params      *query.Params
}

type State struct {
	Params  query.Params
	Results map[Scope]Result
}

func NewState() State {
	results := map[Scope]Result{}
	for _, scope := range Scopes {
		results[scope] = Result{Status: StatusIdle}
	}
	return State{Results: results}
}

// Result for a scope, with a zero idle slot for scopes never touched.
func (s State) Result(scope Scope) Result {
	if s.Results == nil {
		return Result{Status: StatusIdle}
	}
	r, ok := s.Results[scope]
	if !ok {
		return Result{Status: StatusIdle}
	}
	return r
}

type Store interface {
	// Applies a single state transition.
	Dispatch(action Action) error

	// Returns a snapshot of the full state document. Mutating the
	// snapshot does not affect the store.
	State() (State, error)
}

// The one reducer shared by all implementations. Requested replaces
// the slot wholesale so data from a superseded request is never
// visible alongside the new fingerprint.
func apply(state *State, action Action) {
	switch action.Type {
	case ActionUpdateParams:
		if action.Params != nil {
			state.Params = *action.Params
		}
	case ActionRequested:
		state.Results[action.Scope] = Result{
			Status:      StatusRequesting,
			Fingerprint: action.Fingerprint,
		}
	case ActionReceived:
		state.Results[action.Scope] = Result{
			Status:      StatusReceived,
			Fingerprint: action.Fingerprint,
			Data:        action.Data,
		}
	case ActionErrored:
		state.Results[action.Scope] = Result{
			Status:      StatusError,
			Fingerprint: action.Fingerprint,
			Error:       action.Message,
		}
	case ActionReset:
		state.Results[action.Scope] = Result{Status: StatusIdle}
	}
}
