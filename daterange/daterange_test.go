package daterange_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitview.dev/metrics/daterange"
)

var allDays = [7]bool{true, true, true, true, true, true, true}
var weekdays = [7]bool{false, true, true, true, true, true, false}

func TestExpandSingleDay(t *testing.T) {
	sel := daterange.Selection{
		Date:       "2023-03-08",
		StartDate:  "2023-03-08",
		DaysOfWeek: allDays,
	}

	assert.Equal(t, []string{"2023-03-08"}, daterange.Expand(sel, 90))
	assert.Equal(t, []string{"2023-03-08"}, daterange.Expand(sel, 1))
}

func TestExpandWeekdayRange(t *testing.T) {
	// 2023-03-06 is a Monday, 2023-03-10 a Friday.
	sel := daterange.Selection{
		Date:       "2023-03-10",
		StartDate:  "2023-03-06",
		DaysOfWeek: weekdays,
	}

	assert.Equal(t, []string{
		"2023-03-06",
		"2023-03-07",
		"2023-03-08",
		"2023-03-09",
		"2023-03-10",
	}, daterange.Expand(sel, 90))
}

func TestExpandExcludesWeekend(t *testing.T) {
	// Saturday the 4th and Sunday the 5th fall inside the span but
	// not in the mask.
	sel := daterange.Selection{
		Date:       "2023-03-07",
		StartDate:  "2023-03-03",
		DaysOfWeek: weekdays,
	}

	assert.Equal(t, []string{
		"2023-03-03",
		"2023-03-06",
		"2023-03-07",
	}, daterange.Expand(sel, 90))
}

func TestExpandReversedAnchors(t *testing.T) {
	// StartDate after Date: the walk still begins at StartDate and
	// covers a forward window of the same width.
	sel := daterange.Selection{
		Date:       "2023-03-06",
		StartDate:  "2023-03-08",
		DaysOfWeek: allDays,
	}

	assert.Equal(t, []string{
		"2023-03-08",
		"2023-03-09",
		"2023-03-10",
	}, daterange.Expand(sel, 90))
}

func TestExpandClampsToMaxDays(t *testing.T) {
	sel := daterange.Selection{
		Date:       "2023-12-31",
		StartDate:  "2023-01-01",
		DaysOfWeek: allDays,
	}

	dates := daterange.Expand(sel, 90)
	require.Len(t, dates, 90)
	assert.Equal(t, "2023-01-01", dates[0])
	assert.Equal(t, "2023-03-31", dates[89])
}

func TestExpandEmptyMask(t *testing.T) {
	sel := daterange.Selection{
		Date:       "2023-03-10",
		StartDate:  "2023-03-06",
		DaysOfWeek: [7]bool{},
	}

	assert.Empty(t, daterange.Expand(sel, 90))
}

func TestExpandSingleDayFilteredOut(t *testing.T) {
	// 2023-03-05 is a Sunday.
	sel := daterange.Selection{
		Date:       "2023-03-05",
		StartDate:  "2023-03-05",
		DaysOfWeek: weekdays,
	}

	assert.Empty(t, daterange.Expand(sel, 90))
}

func TestExpandIdempotent(t *testing.T) {
	sel := daterange.Selection{
		Date:       "2023-03-10",
		StartDate:  "2023-02-01",
		DaysOfWeek: weekdays,
	}

	first := daterange.Expand(sel, 90)
	second := daterange.Expand(sel, 90)
	assert.Equal(t, first, second)
}

func TestExpandBadAnchors(t *testing.T) {
	assert.Empty(t, daterange.Expand(daterange.Selection{
		Date:       "not-a-date",
		StartDate:  "2023-03-06",
		DaysOfWeek: allDays,
	}, 90))

	assert.Empty(t, daterange.Expand(daterange.Selection{
		Date:       "2023-03-06",
		StartDate:  "",
		DaysOfWeek: allDays,
	}, 90))
}

func TestSingleDay(t *testing.T) {
	sel := daterange.SingleDay("2023-03-08")
	assert.False(t, sel.MultiDay())
	assert.Equal(t, []string{"2023-03-08"}, daterange.Expand(sel, 90))
}
