package generic

import "time"

// =============================================================================
// PERIOD - The window a benefit is counted in
// =============================================================================

// Period is an inclusive date range.
//
// Examples:
//   - Pass minutes: calendar month, Mar 1 - Mar 31
//   - Union day: anniversary year, Jun 10 2024 - Jun 9 2025 for a Jun 10 hire
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within [Start, End].
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// CALENDAR MONTH
// =============================================================================

// MonthPeriod is the calendar month containing (year, month).
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// =============================================================================
// ANNIVERSARY YEAR
// =============================================================================

// AnniversaryPeriod returns the anniversary year of anchor that contains at.
// It starts on the latest anniversary on or before at and ends the day
// before the next one.
//
// A Feb 29 anchor lands on Mar 1 in non-leap years (time.Date normalization).
func AnniversaryPeriod(anchor, at TimePoint) Period {
	years := at.Year() - anchor.Year()
	start := NewTimePoint(anchor.Year()+years, anchor.Month(), anchor.Day())

	// This year's anniversary has not happened yet.
	if at.Before(start) {
		years--
		start = NewTimePoint(anchor.Year()+years, anchor.Month(), anchor.Day())
	}

	next := NewTimePoint(anchor.Year()+years+1, anchor.Month(), anchor.Day())
	return Period{Start: start, End: next.AddDays(-1)}
}

// AnniversaryWindowStart is the start of the anniversary year containing at.
func AnniversaryWindowStart(anchor, at TimePoint) TimePoint {
	return AnniversaryPeriod(anchor, at).Start
}

// WholeYearsBetween is the naive year difference, decremented when the
// month/day of from has not recurred yet by to. Same arithmetic as the
// anniversary window.
func WholeYearsBetween(from, to TimePoint) int {
	years := to.Year() - from.Year()
	if to.Month() < from.Month() || (to.Month() == from.Month() && to.Day() < from.Day()) {
		years--
	}
	return years
}

// IsAnniversary reports whether at shares month and day with anchor.
func IsAnniversary(anchor, at TimePoint) bool {
	return anchor.Month() == at.Month() && anchor.Day() == at.Day()
}
