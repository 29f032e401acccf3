package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"transitview.dev/metrics/fetch"
	"transitview.dev/metrics/locator"
	"transitview.dev/metrics/obs"
	"transitview.dev/metrics/query"
	"transitview.dev/metrics/store"
)

const (
	DefaultQueryTimeout   = 30 * time.Second
	DefaultQueryMaxSize   = 8 << 20 // 8 MB
	DefaultArchiveTimeout = 60 * time.Second
	DefaultArchiveMaxSize = 64 << 20 // 64 MB
	DefaultArchiveTTL     = 12 * time.Hour
)

// Shown for any failed arrival-archive fetch. Archive absence is
// routine (no service ran that day), so the underlying cause is
// deliberately discarded.
const archiveAbsentMessage = "No data."

// Coordinator decides, per metric scope, whether a fetch is needed,
// issues it, and records the lifecycle transitions in the store.
//
// Deduplication compares the canonical fingerprint of the current
// request against the fingerprint recorded in the store for that
// scope: equality means the request is already in flight or already
// satisfied. Before committing a completion, the originating
// fingerprint is compared against the currently recorded one, so a
// response arriving after a newer request was dispatched is dropped
// rather than applied over fresher state.
//
// Fetch failures never propagate to the caller. They are recorded as
// error transitions; the returned error covers store plumbing only.
type Coordinator struct {
	Endpoint         string
	DownloadEndpoint string
	QueryTimeout     time.Duration
	QueryMaxSize     int
	ArchiveTimeout   time.Duration
	ArchiveMaxSize   int
	ArchiveTTL       time.Duration
	Fetcher          fetch.Fetcher
	Locator          locator.Locator
	Logger           *slog.Logger
	Observer         *obs.Collector

	store store.Store
}

// Creates a new Coordinator recording into the given store and
// querying the given backend endpoint.
func NewCoordinator(s store.Store, endpoint string) *Coordinator {
	return &Coordinator{
		Endpoint:       endpoint,
		QueryTimeout:   DefaultQueryTimeout,
		QueryMaxSize:   DefaultQueryMaxSize,
		ArchiveTimeout: DefaultArchiveTimeout,
		ArchiveMaxSize: DefaultArchiveMaxSize,
		ArchiveTTL:     DefaultArchiveTTL,

		Fetcher: fetch.NewMemoryFetcher(),
		Locator: locator.New(),
		Logger:  slog.Default(),

		store: s,
	}
}

func (c *Coordinator) Store() store.Store {
	return c.store
}

// Fetches interval metrics for the stop pair selected in params.
func (c *Coordinator) FetchTripMetrics(ctx context.Context, p query.Params) error {
	return c.fetchScope(ctx, store.ScopeTrip, query.TripMetrics(p), "agency", "route", "trip")
}

// Fetches per-direction aggregates and segment breakdowns for the
// selected route.
func (c *Coordinator) FetchRouteMetrics(ctx context.Context, p query.Params) error {
	return c.fetchScope(ctx, store.ScopeRoute, query.RouteMetrics(p), "agency", "route")
}

// Fetches per-route summaries for the whole agency.
func (c *Coordinator) FetchAgencyMetrics(ctx context.Context, p query.Params) error {
	return c.fetchScope(ctx, store.ScopeAgency, query.AgencyMetrics(p), "agency")
}

func (c *Coordinator) fetchScope(
	ctx context.Context,
	scope store.Scope,
	q query.Query,
	dataPath ...string,
) error {
	fingerprint := query.Fingerprint(q.Variables)

	state, err := c.store.State()
	if err != nil {
		return fmt.Errorf("reading state: %w", err)
	}
	if state.Result(scope).Fingerprint == fingerprint {
		c.countDedup(scope)
		return nil
	}

	err = c.store.Dispatch(store.Action{
		Type:        store.ActionRequested,
		Scope:       scope,
		Fingerprint: fingerprint,
	})
	if err != nil {
		return fmt.Errorf("dispatching requested: %w", err)
	}
	c.countFetch(scope)

	started := time.Now()
	body, fetchErr := c.Fetcher.Get(ctx, c.queryURL(q), fetch.GetOptions{
		Timeout: c.QueryTimeout,
		MaxSize: c.QueryMaxSize,
	})
	c.observeDuration(time.Since(started))

	if fetchErr != nil {
		c.logScope(scope, "fetch failed", fetchErr)
		return c.commitError(scope, fingerprint, transportMessage(fetchErr))
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		c.logScope(scope, "bad response", err)
		return c.commitError(scope, fingerprint, err.Error())
	}
	if len(env.Errors) > 0 {
		return c.commitError(scope, fingerprint, env.Errors[0].Message)
	}

	// A missing intermediate node means the backend had nothing
	// for this selection; that's a received-with-no-data, not an
	// error.
	data := extract(env.Data, dataPath...)

	return c.commit(store.Action{
		Type:        store.ActionReceived,
		Scope:       scope,
		Fingerprint: fingerprint,
		Data:        data,
	})
}

// Fetches the raw arrival archive for one agency, date and route.
// The archive has no query variables; its URL is the dedup key.
func (c *Coordinator) FetchArrivals(ctx context.Context, agencyID, date, routeID string) error {
	archiveURL := c.Locator.ArrivalsURL(agencyID, date, routeID)

	state, err := c.store.State()
	if err != nil {
		return fmt.Errorf("reading state: %w", err)
	}
	if state.Result(store.ScopeArrivals).Fingerprint == archiveURL {
		c.countDedup(store.ScopeArrivals)
		return nil
	}

	err = c.store.Dispatch(store.Action{
		Type:        store.ActionRequested,
		Scope:       store.ScopeArrivals,
		Fingerprint: archiveURL,
	})
	if err != nil {
		return fmt.Errorf("dispatching requested: %w", err)
	}
	c.countFetch(store.ScopeArrivals)

	body, fetchErr := c.Fetcher.Get(ctx, archiveURL, fetch.GetOptions{
		Timeout:  c.ArchiveTimeout,
		MaxSize:  c.ArchiveMaxSize,
		Cache:    true,
		CacheTTL: c.ArchiveTTL,
	})
	if fetchErr == nil {
		body, fetchErr = fetch.MaybeGunzip(body)
	}

	if fetchErr != nil {
		c.logScope(store.ScopeArrivals, "archive fetch failed", fetchErr)
		return c.commitError(store.ScopeArrivals, archiveURL, archiveAbsentMessage)
	}

	return c.commit(store.Action{
		Type:        store.ActionReceived,
		Scope:       store.ScopeArrivals,
		Fingerprint: archiveURL,
		Data:        body,
	})
}

// Fetches and decodes the route catalog for an agency. The catalog
// is immutable per version, so it is cached for the archive TTL.
func (c *Coordinator) FetchRouteCatalog(ctx context.Context, agencyID string) ([]byte, error) {
	body, err := c.Fetcher.Get(ctx, c.Locator.RoutesURL(agencyID), fetch.GetOptions{
		Timeout:  c.ArchiveTimeout,
		MaxSize:  c.ArchiveMaxSize,
		Cache:    true,
		CacheTTL: c.ArchiveTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching route catalog: %w", err)
	}
	return fetch.MaybeGunzip(body)
}

// Commits a completion transition, unless a newer request for the
// same scope superseded the one this completion belongs to.
func (c *Coordinator) commit(action store.Action) error {
	state, err := c.store.State()
	if err != nil {
		return fmt.Errorf("reading state: %w", err)
	}
	if state.Result(action.Scope).Fingerprint != action.Fingerprint {
		c.countStaleDrop(action.Scope)
		return nil
	}

	if err := c.store.Dispatch(action); err != nil {
		return fmt.Errorf("dispatching %s: %w", action.Type, err)
	}
	return nil
}

func (c *Coordinator) commitError(scope store.Scope, fingerprint, message string) error {
	c.countError(scope)
	return c.commit(store.Action{
		Type:        store.ActionErrored,
		Scope:       scope,
		Fingerprint: fingerprint,
		Message:     message,
	})
}

func (c *Coordinator) queryURL(q query.Query) string {
	vars, err := json.Marshal(q.Variables)
	if err != nil {
		// Variables are built from strings, bools and string
		// slices only.
		panic(err)
	}
	return c.Endpoint +
		"?query=" + url.QueryEscape(q.Document) +
		"&variables=" + url.QueryEscape(string(vars))
}

func (c *Coordinator) logScope(scope store.Scope, msg string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Debug(msg, "scope", string(scope), "error", err)
}

func (c *Coordinator) countFetch(scope store.Scope) {
	if c.Observer != nil {
		c.Observer.Fetches.WithLabelValues(string(scope)).Inc()
	}
}

func (c *Coordinator) countDedup(scope store.Scope) {
	if c.Observer != nil {
		c.Observer.DedupHits.WithLabelValues(string(scope)).Inc()
	}
}

func (c *Coordinator) countStaleDrop(scope store.Scope) {
	if c.Observer != nil {
		c.Observer.StaleDrops.WithLabelValues(string(scope)).Inc()
	}
}

func (c *Coordinator) countError(scope store.Scope) {
	if c.Observer != nil {
		c.Observer.Errors.WithLabelValues(string(scope)).Inc()
	}
}

func (c *Coordinator) observeDuration(d time.Duration) {
	if c.Observer != nil {
		c.Observer.FetchDuration.Observe(d.Seconds())
	}
}
