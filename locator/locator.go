// Package locator builds addresses for the static per-day archival
// data published alongside the metrics backend: a per-agency route
// catalog and per-agency-per-date-per-route arrival archives, both
// stored as gzipped JSON in S3 under a fixed catalog version.
package locator

import (
	"fmt"
	"strings"
)

const (
	DefaultBucket  = "transitview-precomputed-stats"
	DefaultVersion = "v1"
)

type Locator struct {
	// Overrides the bucket endpoint when set. Tests point this at
	// a local server.
	BaseURL string

	Bucket  string
	Version string
}

func New() Locator {
	return Locator{
		Bucket:  DefaultBucket,
		Version: DefaultVersion,
	}
}

func (l Locator) base() string {
	if l.BaseURL != "" {
		return l.BaseURL
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com", l.Bucket)
}

// Address of the route catalog for an agency.
//
// The trailing "?x" defeats stale CDN/browser caches without
// changing the object key.
func (l Locator) RoutesURL(agencyID string) string {
	return fmt.Sprintf(
		"%s/routes/%s/routes_%s_%s.json.gz?x",
		l.base(), l.Version, l.Version, agencyID,
	)
}

// Address of the arrival archive for one agency, date and route.
// Date is ISO YYYY-MM-DD; its dashes become path separators so
// archives shard by year/month/day.
func (l Locator) ArrivalsURL(agencyID, date, routeID string) string {
	datePath := strings.ReplaceAll(date, "-", "/")
	return fmt.Sprintf(
		"%s/arrivals/%s/%s/%s/arrivals_%s_%s_%s_%s.json.gz?aj",
		l.base(), l.Version, agencyID, datePath, l.Version, agencyID, date, routeID,
	)
}
