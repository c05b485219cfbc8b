package leave

import (
	"github.com/santamargarita/leave-engine/generic"
)

// =============================================================================
// WORK-ANNIVERSARY WINDOW
// =============================================================================

// WindowStart is the most recent anniversary of hireDate on or before today.
// The union day may be claimed once per window.
func WindowStart(hireDate, today generic.TimePoint) generic.TimePoint {
	return generic.AnniversaryWindowStart(hireDate, today)
}

// SeniorityYears counts completed years of service.
func SeniorityYears(hireDate, today generic.TimePoint) int {
	return generic.WholeYearsBetween(hireDate, today)
}

// UnionDayTaken returns the non-rejected union-day request whose start falls
// on or after windowStart, if any.
func UnionDayTaken(history []Request, windowStart generic.TimePoint) (Request, bool) {
	for _, r := range history {
		if r.Category != CategoryUnionDay || !r.CountsAgainstQuota() {
			continue
		}
		if r.StartDate.AfterOrEqual(windowStart) {
			return r, true
		}
	}
	return Request{}, false
}
