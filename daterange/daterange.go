package daterange

import (
	"time"
)

const ISODate = "2006-01-02"

// A user-selected range of calendar dates. Date is the nominal end
// anchor and StartDate the nominal start; either may chronologically
// precede the other. DaysOfWeek is indexed 0=Sunday through
// 6=Saturday and acts as an inclusion mask when the range is
// expanded.
type Selection struct {
	Date       string
	StartDate  string
	StartTime  string
	EndTime    string
	DaysOfWeek [7]bool
}

// A selection covering just the given date, with all weekdays
// enabled.
func SingleDay(date string) Selection {
	return Selection{
		Date:       date,
		StartDate:  date,
		DaysOfWeek: [7]bool{true, true, true, true, true, true, true},
	}
}

// Reports whether the selection covers more than one calendar day,
// before any weekday filtering.
func (s Selection) MultiDay() bool {
	return s.Date != s.StartDate
}

// Expands a selection into the ordered list of ISO dates it covers,
// in YYYY-MM-DD form, chronologically ascending.
//
// The walk always starts at StartDate and proceeds forward one day
// at a time, emitting only dates whose weekday is enabled in the
// selection's mask. The walk length is the inclusive day span
// between the anchors, clamped to maxDays to keep a mistyped year
// from expanding into thousands of backend dates. When the anchors
// are reversed (StartDate after Date) the walk still begins at
// StartDate and covers a forward window of the same width.
//
// Unparseable anchors yield an empty result.
func Expand(sel Selection, maxDays int) []string {
	end, err := time.Parse(ISODate, sel.Date)
	if err != nil {
		return nil
	}
	start, err := time.Parse(ISODate, sel.StartDate)
	if err != nil {
		return nil
	}

	deltaDays := int(end.Sub(start).Hours() / 24)

	span := deltaDays + 1
	if deltaDays < 0 {
		span = -deltaDays + 1
	}
	if span > maxDays {
		span = maxDays
	}

	dates := []string{}
	cursor := start
	for i := 0; i < span; i++ {
		if sel.DaysOfWeek[int(cursor.Weekday())] {
			dates = append(dates, cursor.Format(ISODate))
		}
		cursor = cursor.AddDate(0, 0, 1)
	}

	return dates
}
