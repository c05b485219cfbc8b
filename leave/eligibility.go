/*
eligibility.go - Ordered admission rules for a candidate request

PURPOSE:
  Validate is a pure function of (employee, candidate, history, now). It
  either returns the fully materialized request or a *RejectionError.
  Nothing is written; callers hold the employee lock across Validate and
  the insert so that check-then-reserve is atomic.

RULE ORDER (first failure wins):
  1. Advance notice (notice.go)
  2. Seniority gate for vacation and union day (one whole year)
  3. Union day once per work-anniversary window (anniversary.go)
  4. Pass duration: > 0 and <= 120 minutes
  5. Pass monthly cap (quota.go), message states the remaining minutes
  6. Day count of multi-day categories >= 1
  7. Vacation days <= balance, message states the balance
  8. Free-text reason for everything except vacation and passes

NORMALIZATION:
  - Pass and union-day requests are single-day: EndDate = StartDate.
  - Pass requests get DurationMinutes = EndTime - StartTime.
  - Vacation requests get a canned reason.
*/
package leave

import (
	"fmt"
	"strings"

	"github.com/santamargarita/leave-engine/generic"
)

// VacationReason is filled in for vacation requests.
const VacationReason = "Vacation"

// MaxPassMinutes caps a single pass request.
const MaxPassMinutes = 120

// Engine evaluates the admission rules.
type Engine struct {
	Clock generic.Clock
	Quota QuotaLedger
}

func NewEngine(clock generic.Clock) *Engine {
	return &Engine{Clock: clock, Quota: NewQuotaLedger()}
}

// Validate runs the rule chain. history is the requester's own requests.
func (e *Engine) Validate(emp Employee, c Candidate, history []Request) (Request, error) {
	now := e.Clock.Now()
	today := generic.DateOf(now)

	if !c.Category.Valid() {
		return Request{}, reject(ReasonUnknownCategory,
			fmt.Sprintf("unknown category %q", c.Category), "category", string(c.Category))
	}
	if c.StartDate.IsZero() {
		return Request{}, reject(ReasonInvalidDateRange, "a start date is required")
	}

	req := Request{
		EmployeeID: emp.ID,
		Category:   c.Category,
		StartDate:  c.StartDate,
		EndDate:    c.EndDate,
		StartTime:  c.StartTime,
		EndTime:    c.EndTime,
		Reason:     strings.TrimSpace(c.Reason),
	}
	if req.EndDate.IsZero() || c.Category.IsPass() || c.Category == CategoryUnionDay {
		req.EndDate = req.StartDate
	}

	// 1. Lead time
	if rej := CheckNotice(c.Category, c.StartDate, now); rej != nil {
		return Request{}, rej
	}

	// 2. Seniority
	if c.Category == CategoryVacation || c.Category == CategoryUnionDay {
		if years := SeniorityYears(emp.HireDate, today); years < 1 {
			return Request{}, reject(ReasonSeniority,
				fmt.Sprintf("at least 1 year of seniority is required (hired %s)", emp.HireDate),
				"hire_date", emp.HireDate.String(),
				"seniority_years", years,
			)
		}
	}

	// 3. Union day uniqueness
	if c.Category == CategoryUnionDay {
		window := WindowStart(emp.HireDate, today)
		if taken, ok := UnionDayTaken(history, window); ok {
			return Request{}, reject(ReasonUnionDayTaken,
				fmt.Sprintf("the union day for the work year starting %s was already used", window),
				"window_start", window.String(),
				"request_id", string(taken.ID),
			)
		}
	}

	if c.Category.IsPass() {
		return e.validatePass(req, history)
	}

	// 6. Day count
	days := generic.InclusiveDays(req.StartDate, req.EndDate)
	if days < 1 {
		return Request{}, reject(ReasonInvalidDateRange,
			fmt.Sprintf("end date %s is before start date %s", req.EndDate, req.StartDate),
			"start_date", req.StartDate.String(),
			"end_date", req.EndDate.String(),
		)
	}

	// 7. Vacation balance
	if c.Category == CategoryVacation {
		if days > emp.VacationDays {
			return Request{}, reject(ReasonInsufficientDays,
				fmt.Sprintf("not enough vacation days: %d available, %d requested", emp.VacationDays, days),
				"available", emp.VacationDays,
				"requested", days,
			)
		}
		req.Reason = VacationReason
		return req, nil
	}

	// 8. Reason
	if req.Reason == "" {
		return Request{}, reject(ReasonMissingReason, "please explain the reason for this request")
	}
	return req, nil
}

// validatePass covers rules 4 and 5.
func (e *Engine) validatePass(req Request, history []Request) (Request, error) {
	if req.StartTime == nil || req.EndTime == nil {
		return Request{}, reject(ReasonInvalidTimeRange, "pass requests need a start and end time")
	}

	minutes := req.EndTime.Minutes() - req.StartTime.Minutes()
	if minutes <= 0 {
		return Request{}, reject(ReasonPassNonPositive,
			"end time must be after start time",
			"start_time", req.StartTime.String(),
			"end_time", req.EndTime.String(),
		)
	}
	if minutes > MaxPassMinutes {
		return Request{}, reject(ReasonPassTooLong,
			fmt.Sprintf("a pass may not exceed %d minutes per request", MaxPassMinutes),
			"requested_minutes", minutes,
			"maximum_minutes", MaxPassMinutes,
		)
	}

	used := e.Quota.ConsumedMinutes(history, req.StartDate.Year(), req.StartDate.Month())
	if used+minutes > e.Quota.Allowance {
		remaining := e.Quota.Allowance - used
		return Request{}, reject(ReasonPassMonthlyCap,
			fmt.Sprintf("monthly limit exceeded: %d of %d minutes remaining", remaining, e.Quota.Allowance),
			"remaining_minutes", remaining,
			"used_minutes", used,
			"requested_minutes", minutes,
		)
	}

	req.DurationMinutes = minutes
	return req, nil
}
