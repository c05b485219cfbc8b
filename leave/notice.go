package leave

import (
	"fmt"
	"time"

	"github.com/santamargarita/leave-engine/generic"
)

// =============================================================================
// ADVANCE NOTICE
// =============================================================================

// MinimumLeadHours is the notice a category needs between submission and
// the requested start (midnight, local wall clock). Zero disables the check.
func MinimumLeadHours(c Category) int {
	switch c {
	case CategoryVacation:
		return 72
	case CategoryUnionDay, CategoryAgreement, CategoryExitPass, CategoryEntryPass:
		return 24
	default:
		return 0
	}
}

// LeadTime is the wall-clock gap between now and local midnight of start.
// A request submitted at 23:00 for tomorrow has a lead time of one hour.
func LeadTime(start generic.TimePoint, now time.Time) time.Duration {
	return start.MidnightIn(now.Location()).Sub(now)
}

// CheckNotice rejects a start date that is closer than the category's
// minimum lead time.
func CheckNotice(c Category, start generic.TimePoint, now time.Time) *RejectionError {
	minHours := MinimumLeadHours(c)
	if minHours == 0 {
		return nil
	}
	lead := LeadTime(start, now)
	if lead >= time.Duration(minHours)*time.Hour {
		return nil
	}
	return reject(ReasonLeadTime,
		fmt.Sprintf("%s requests need at least %d hours of notice", c, minHours),
		"minimum_hours", minHours,
		"lead_hours", int(lead.Hours()),
	)
}
