package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitview.dev/metrics/daterange"
	"transitview.dev/metrics/query"
)

var weekdays = [7]bool{false, true, true, true, true, true, false}

func tripParams() query.Params {
	return query.Params{
		AgencyID:    "sf-muni",
		RouteID:     "1",
		DirectionID: "0",
		StartStopID: "4015",
		EndStopID:   "6304",
		FirstRange: daterange.Selection{
			Date:       "2023-03-10",
			StartDate:  "2023-03-06",
			DaysOfWeek: weekdays,
		},
	}
}

func TestDocumentsAreCanonicalized(t *testing.T) {
	p := tripParams()

	for _, q := range []query.Query{
		query.TripMetrics(p),
		query.RouteMetrics(p),
		query.AgencyMetrics(p),
	} {
		assert.NotContains(t, q.Document, "\n")
		assert.NotContains(t, q.Document, "\t")
		assert.NotContains(t, q.Document, "  ")
	}
}

func TestTripVariablesCarryExpandedDates(t *testing.T) {
	q := query.TripMetrics(tripParams())

	// Bound dates are the expander's output, never the raw anchors.
	assert.Equal(t, []string{
		"2023-03-06",
		"2023-03-07",
		"2023-03-08",
		"2023-03-09",
		"2023-03-10",
	}, q.Variables["dates"])

	assert.Equal(t, "sf-muni", q.Variables["agencyId"])
	assert.Equal(t, "1", q.Variables["routeId"])
	assert.Equal(t, "0", q.Variables["directionId"])
	assert.Equal(t, "4015", q.Variables["startStopId"])
	assert.Equal(t, "6304", q.Variables["endStopId"])
	assert.Nil(t, q.Variables["startTime"])
	assert.Nil(t, q.Variables["endTime"])
}

func TestIncludeByDay(t *testing.T) {
	// Single range spanning multiple dates: per-day breakdown on.
	q := query.TripMetrics(tripParams())
	assert.Equal(t, true, q.Variables["includeByDay"])

	// Single date: off.
	p := tripParams()
	p.FirstRange = daterange.SingleDay("2023-03-08")
	q = query.TripMetrics(p)
	assert.Equal(t, false, q.Variables["includeByDay"])

	// Second range present: off, even over multiple dates.
	p = tripParams()
	second := daterange.SingleDay("2023-02-01")
	p.SecondRange = &second
	q = query.TripMetrics(p)
	assert.Equal(t, false, q.Variables["includeByDay"])
}

func TestTripSecondRange(t *testing.T) {
	p := tripParams()
	q := query.TripMetrics(p)
	assert.NotContains(t, q.Document, "interval2")
	assert.NotContains(t, q.Variables, "dates2")

	second := daterange.Selection{
		Date:       "2023-02-03",
		StartDate:  "2023-02-01",
		DaysOfWeek: weekdays,
	}
	p.SecondRange = &second
	q = query.TripMetrics(p)

	assert.Contains(t, q.Document, "interval2")
	assert.Equal(t, []string{
		"2023-02-01",
		"2023-02-02",
		"2023-02-03",
	}, q.Variables["dates2"])
	assert.Nil(t, q.Variables["startTime2"])
}

func TestTripTimeRanges(t *testing.T) {
	// No explicit start time: whole-day, broken into time ranges.
	q := query.TripMetrics(tripParams())
	assert.Contains(t, q.Document, "timeRanges")

	p := tripParams()
	p.FirstRange.StartTime = "07:00"
	p.FirstRange.EndTime = "09:00"
	q = query.TripMetrics(p)
	assert.NotContains(t, q.Document, "timeRanges")
	assert.Equal(t, "07:00", q.Variables["startTime"])
	assert.Equal(t, "09:00", q.Variables["endTime"])

	// A second range without a start time gets its own time ranges
	// block even when the first range has one.
	second := daterange.SingleDay("2023-02-01")
	p.SecondRange = &second
	q = query.TripMetrics(p)
	assert.Contains(t, q.Document, "timeRanges2: timeRanges(dates: $dates2)")
	assert.NotContains(t, q.Document, "timeRanges(dates: $dates)")
}

func TestRouteDocument(t *testing.T) {
	p := tripParams()
	q := query.RouteMetrics(p)

	assert.Contains(t, q.Document, "directions")
	assert.Contains(t, q.Document, "segmentIntervals(cumulative: false)")
	assert.Contains(t, q.Document, "segmentIntervals(cumulative: true)")
	assert.NotContains(t, q.Document, "interval2")

	second := daterange.SingleDay("2023-02-01")
	p.SecondRange = &second
	q = query.RouteMetrics(p)
	assert.Contains(t, q.Document, "interval2")
	assert.Equal(t, []string{"2023-02-01"}, q.Variables["dates2"])
}

func TestAgencyDocument(t *testing.T) {
	p := tripParams()
	second := daterange.SingleDay("2023-02-01")
	p.SecondRange = &second

	// Agency scope has no comparison variant, whatever the params
	// say.
	q := query.AgencyMetrics(p)
	assert.Contains(t, q.Document, "routes")
	assert.NotContains(t, q.Document, "interval2")
	assert.NotContains(t, q.Variables, "dates2")
}

func TestFingerprint(t *testing.T) {
	a := query.TripMetrics(tripParams())
	b := query.TripMetrics(tripParams())
	require.Equal(t, query.Fingerprint(a.Variables), query.Fingerprint(b.Variables))

	p := tripParams()
	p.RouteID = "14"
	c := query.TripMetrics(p)
	assert.NotEqual(t, query.Fingerprint(a.Variables), query.Fingerprint(c.Variables))
}
