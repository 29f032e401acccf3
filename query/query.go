// Package query builds the parameterized GraphQL documents sent to
// the metrics backend, one per metric scope: trip (stop pair on a
// route), route (per-direction aggregates and segments), and agency
// (per-route summaries).
//
// Documents are assembled from static fragments, with the optional
// blocks (second-range comparison, whole-day time ranges, per-day
// breakdown) gated on the selection parameters. Variable bindings
// always carry expanded date lists, never the raw user-entered
// anchors.
package query

import (
	"encoding/json"
	"regexp"

	"transitview.dev/metrics/daterange"
)

// Widest date window a single query may cover. Selections expanding
// beyond this are truncated by the expander.
const MaxDateRange = 90

// The full selection state driving a round of metrics queries. A
// non-nil SecondRange enables the comparison variants, which report
// a parallel result set under "2"-suffixed names.
type Params struct {
	AgencyID    string
	RouteID     string
	DirectionID string
	StartStopID string
	EndStopID   string
	FirstRange  daterange.Selection
	SecondRange *daterange.Selection
}

// A query document with its variable bindings, ready to transmit.
type Query struct {
	Document  string
	Variables map[string]interface{}
}

// Canonical serialization of variable bindings, used as an opaque
// equality key for fetch deduplication. encoding/json sorts map keys,
// so identical bindings always serialize identically.
func Fingerprint(vars map[string]interface{}) string {
	b, err := json.Marshal(vars)
	if err != nil {
		// Bindings are built from strings, bools and string
		// slices only.
		panic(err)
	}
	return string(b)
}

var whitespaceRuns = regexp.MustCompile(`\s+`)

// Collapses all whitespace runs to single spaces. Not semantically
// required by GraphQL, but keeps request payloads small and byte
// reproducible.
func canonicalize(doc string) string {
	return whitespaceRuns.ReplaceAllString(doc, " ")
}

const intervalFields = `
  headways {
    count median max
    percentiles(percentiles: [90]) { percentile value }
    histogram(binSize: $headwayBinSize) { binStart count }
  }
  tripTimes {
    count avg median
    percentiles(percentiles: [90]) { percentile value }
    histogram { binStart count }
  }
  waitTimes {
    median
    percentiles(percentiles: [90]) { percentile value }
    histogram { binStart count }
  }
  scheduleAdherence {
    closestDeltaStats {
      count
      percentiles(percentiles: [10, 90]) { percentile value }
      histogram(binSize: 5, min: -5, max: 25) { binStart count }
    }
  }`

// Trip-scope query: interval metrics for one stop pair, with the
// optional comparison, whole-day time range, and per-day blocks.
func TripMetrics(p Params) Query {
	doc := `query($agencyId: String!, $routeId: String!, $startStopId: String!,
    $endStopId: String, $directionId: String, $dates: [String!], $startTime: String,
    $endTime: String, $includeByDay: Boolean!` + tripVarDecls(p) + `) {
  agency(agencyId: $agencyId) {
    route(routeId: $routeId) {
      trip(startStopId: $startStopId, endStopId: $endStopId, directionId: $directionId) {
        interval(dates: $dates, startTime: $startTime, endTime: $endTime) {` + intervalFields + `
        }`

	// Without an explicit start time the range means "whole day",
	// reported per natural time range.
	if p.FirstRange.StartTime == "" {
		doc += `
        timeRanges(dates: $dates) {
          startTime endTime` + intervalFields + `
        }`
	}

	doc += `
        byDay(dates: $dates) @include(if: $includeByDay) {
          dates startTime endTime
          headways { median }
          tripTimes { median }
          waitTimes { median }
        }`

	if p.SecondRange != nil {
		doc += `
        interval2: interval(dates: $dates2, startTime: $startTime2, endTime: $endTime2) {` + intervalFields + `
        }`
		if p.SecondRange.StartTime == "" {
			doc += `
        timeRanges2: timeRanges(dates: $dates2) {
          startTime endTime` + intervalFields + `
        }`
		}
	}

	doc += `
      }
    }
  }
}`

	dates := daterange.Expand(p.FirstRange, MaxDateRange)

	vars := map[string]interface{}{
		"agencyId":       p.AgencyID,
		"routeId":        p.RouteID,
		"directionId":    p.DirectionID,
		"startStopId":    p.StartStopID,
		"endStopId":      p.EndStopID,
		"dates":          dates,
		"startTime":      orNull(p.FirstRange.StartTime),
		"endTime":        orNull(p.FirstRange.EndTime),
		"includeByDay":   p.SecondRange == nil && len(dates) > 1,
		"headwayBinSize": 5,
	}
	bindSecondRange(vars, p.SecondRange)

	return Query{Document: canonicalize(doc), Variables: vars}
}

const directionSummaryFields = `
          medianHeadway maxHeadway medianTripTime medianWaitTime
          averageSpeed onTimeRate travelTimeVariability`

// Route-scope query: per-direction aggregates plus the two segment
// breakdowns, adjacent stop pairs and cumulative from the direction's
// origin stop.
func RouteMetrics(p Params) Query {
	doc := `query($agencyId: String!, $routeId: String!, $dates: [String!],
    $startTime: String, $endTime: String` + rangeVarDecls(p) + `) {
  agency(agencyId: $agencyId) {
    route(routeId: $routeId) {
      interval(dates: $dates, startTime: $startTime, endTime: $endTime) {
        directions {
          directionId` + directionSummaryFields + `
          segments: segmentIntervals(cumulative: false) {
            fromStopId toStopId medianTripTime medianHeadway
          }
          cumulativeSegments: segmentIntervals(cumulative: true) {
            fromStopId toStopId medianTripTime
          }
        }
      }`

	if p.SecondRange != nil {
		doc += `
      interval2: interval(dates: $dates2, startTime: $startTime2, endTime: $endTime2) {
        directions {
          directionId` + directionSummaryFields + `
          segments: segmentIntervals(cumulative: false) {
            fromStopId toStopId medianTripTime medianHeadway
          }
          cumulativeSegments: segmentIntervals(cumulative: true) {
            fromStopId toStopId medianTripTime
          }
        }
      }`
	}

	doc += `
    }
  }
}`

	vars := map[string]interface{}{
		"agencyId":  p.AgencyID,
		"routeId":   p.RouteID,
		"dates":     daterange.Expand(p.FirstRange, MaxDateRange),
		"startTime": orNull(p.FirstRange.StartTime),
		"endTime":   orNull(p.FirstRange.EndTime),
	}
	bindSecondRange(vars, p.SecondRange)

	return Query{Document: canonicalize(doc), Variables: vars}
}

// Agency-scope query: per-route per-direction summaries for the
// primary range. There is no comparison variant at this scope.
func AgencyMetrics(p Params) Query {
	doc := `query($agencyId: String!, $dates: [String!], $startTime: String, $endTime: String) {
  agency(agencyId: $agencyId) {
    interval(dates: $dates, startTime: $startTime, endTime: $endTime) {
      routes {
        routeId
        directions {
          directionId
          medianHeadway medianWaitTime averageSpeed onTimeRate
        }
      }
    }
  }
}`

	vars := map[string]interface{}{
		"agencyId":  p.AgencyID,
		"dates":     daterange.Expand(p.FirstRange, MaxDateRange),
		"startTime": orNull(p.FirstRange.StartTime),
		"endTime":   orNull(p.FirstRange.EndTime),
	}

	return Query{Document: canonicalize(doc), Variables: vars}
}

func tripVarDecls(p Params) string {
	decls := ""
	if p.SecondRange != nil {
		decls = rangeVarDecls(p)
	}
	return decls + `, $headwayBinSize: Int`
}

func rangeVarDecls(p Params) string {
	if p.SecondRange == nil {
		return ""
	}
	return `, $dates2: [String!], $startTime2: String, $endTime2: String`
}

func bindSecondRange(vars map[string]interface{}, second *daterange.Selection) {
	if second == nil {
		return
	}
	vars["dates2"] = daterange.Expand(*second, MaxDateRange)
	vars["startTime2"] = orNull(second.StartTime)
	vars["endTime2"] = orNull(second.EndTime)
}

// GraphQL null for absent time bounds, so "whole day" and "no value"
// serialize the same way the backend expects.
func orNull(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
