package leave_test

import (
	"testing"
	"time"

	"github.com/santamargarita/leave-engine/generic"
	"github.com/santamargarita/leave-engine/leave"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// cst is the hospital's wall clock (UTC-6, no DST).
var cst = time.FixedZone("CST", -6*60*60)

// now is Saturday 2024-06-15 10:00 local.
func fixedNow() time.Time { return time.Date(2024, time.June, 15, 10, 0, 0, 0, cst) }

func newClock() *generic.FixedClock { return generic.NewFixedClock(fixedNow()) }

func date(s string) generic.TimePoint { return generic.MustParseDate(s) }

func clockTime(t *testing.T, s string) *leave.ClockTime {
	t.Helper()
	ct, err := leave.ParseClockTime(s)
	if err != nil {
		t.Fatalf("ParseClockTime(%q): %v", s, err)
	}
	return &ct
}

// veteran was hired three years before fixedNow.
func veteran() leave.Employee {
	return leave.Employee{
		ID:           "nurse-1",
		Name:         "Lucía Hernández",
		Role:         leave.RoleWorker,
		Area:         "Enfermería",
		HireDate:     date("2021-06-01"),
		VacationDays: 12,
		UnionDays:    1,
	}
}

func passRequest(id string, day string, minutes int, status leave.Status) leave.Request {
	start := leave.ClockTime(9 * 60)
	end := leave.ClockTime(9*60 + minutes)
	return leave.Request{
		ID:              leave.RequestID(id),
		EmployeeID:      "nurse-1",
		Category:        leave.CategoryExitPass,
		StartDate:       date(day),
		EndDate:         date(day),
		StartTime:       &start,
		EndTime:         &end,
		DurationMinutes: minutes,
		Status:          status,
	}
}
