/*
Package leave implements the hospital leave rules on top of the generic engine.

PURPOSE:
  Decides whether a leave or permission request is admissible and moves
  admitted requests through the two-tier approval chain (area manager,
  then HR). Balances live on the employee record and every consumption is
  mirrored in the generic append-only ledger.

COMPONENTS (leaf-first):
  - notice.go:      AdvanceNoticeValidator (minimum lead hours per category)
  - anniversary.go: Work-anniversary window and the union-day uniqueness check
  - quota.go:       QuotaLedger (shared 120 min/month pass allowance)
  - eligibility.go: Engine, the ordered rule chain
  - workflow.go:    Workflow, the approval state machine and queue routing
  - service.go:     Service, locks + stores + engine + workflow

KEY CONCEPTS IN THIS FILE (types.go):
  - Category: what kind of leave; doubles as the ledger ResourceType
  - Role:     closed set of roles (Worker, AreaManager, HRAdmin)
  - Status:   approval state, ApprovedByHR and Rejected are terminal
  - Employee, Request, Candidate

SEE ALSO:
  - generic/period.go: anniversary arithmetic
  - generic/ledger.go: balance movements
*/
package leave

import (
	"fmt"
	"strings"
	"time"

	"github.com/santamargarita/leave-engine/generic"
)

// =============================================================================
// CATEGORY - Leave kinds (also the ledger resource type)
// =============================================================================

type Category string

const (
	CategoryVacation  Category = "vacation"
	CategoryUnionDay  Category = "union_day"
	CategoryAgreement Category = "agreement"
	CategoryExitPass  Category = "exit_pass"
	CategoryEntryPass Category = "entry_pass"
	CategoryBirthday  Category = "birthday"
)

func (c Category) ResourceID() string     { return string(c) }
func (c Category) ResourceDomain() string { return "leave" }

// IsPass reports whether c draws from the shared monthly minute allowance.
func (c Category) IsPass() bool {
	return c == CategoryExitPass || c == CategoryEntryPass
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryVacation, CategoryUnionDay, CategoryAgreement,
		CategoryExitPass, CategoryEntryPass, CategoryBirthday:
		return true
	}
	return false
}

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{
		CategoryVacation, CategoryUnionDay, CategoryAgreement,
		CategoryExitPass, CategoryEntryPass, CategoryBirthday,
	}
}

func init() {
	for _, c := range Categories() {
		generic.RegisterResource(c)
	}
}

// =============================================================================
// ROLE
// =============================================================================

type Role int

const (
	RoleWorker Role = iota
	RoleAreaManager
	RoleHRAdmin
)

func (r Role) String() string {
	switch r {
	case RoleWorker:
		return "worker"
	case RoleAreaManager:
		return "area_manager"
	case RoleHRAdmin:
		return "hr_admin"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// ParseRole accepts the canonical names and is case-insensitive.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "worker":
		return RoleWorker, nil
	case "area_manager":
		return RoleAreaManager, nil
	case "hr_admin":
		return RoleHRAdmin, nil
	}
	return RoleWorker, fmt.Errorf("%w: unknown role %q", ErrMalformedInput, s)
}

// =============================================================================
// STATUS - Approval states
// =============================================================================

type Status string

const (
	StatusPending           Status = "pending"
	StatusApprovedByManager Status = "approved_by_manager"
	StatusApprovedByHR      Status = "approved_by_hr"
	StatusRejected          Status = "rejected"
)

// IsTerminal reports whether no transition may leave s.
func (s Status) IsTerminal() bool {
	return s == StatusApprovedByHR || s == StatusRejected
}

// =============================================================================
// CLOCK TIME - Minute-of-day for pass requests
// =============================================================================

// ClockTime is minutes since midnight, same day.
type ClockTime int

// ParseClockTime parses "HH:MM" (24h).
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid time %q (use HH:MM)", ErrMalformedInput, s)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func (c ClockTime) Minutes() int { return int(c) }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// =============================================================================
// EMPLOYEE
// =============================================================================

type Employee struct {
	ID        generic.EntityID
	Name      string
	Email     string
	Role      Role
	Area      string
	Position  string
	ShiftID   string
	HireDate  generic.TimePoint
	BirthDate *generic.TimePoint

	// Balances. VacationDays is never negative. UnionDays is the opening
	// grant only: the live union day is derived per anniversary window.
	VacationDays int
	UnionDays    int

	// AuthorizedAreas is only meaningful for area managers.
	AuthorizedAreas []string

	// Optional working-hours override.
	StartTime *ClockTime
	EndTime   *ClockTime

	// Stamped by the service from its clock.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ApprovalAreas returns the areas a manager may decide for, defaulting to
// the manager's own area.
func (e Employee) ApprovalAreas() []string {
	if len(e.AuthorizedAreas) == 0 {
		return []string{e.Area}
	}
	return e.AuthorizedAreas
}

// Approves reports whether area is in e's approval scope.
func (e Employee) Approves(area string) bool {
	for _, a := range e.ApprovalAreas() {
		if a == area {
			return true
		}
	}
	return false
}

// =============================================================================
// REQUEST
// =============================================================================

type RequestID string

// Request is a persisted leave request. EndDate >= StartDate always; pass
// requests are single-day with DurationMinutes = EndTime - StartTime > 0.
type Request struct {
	ID              RequestID
	EmployeeID      generic.EntityID
	Category        Category
	StartDate       generic.TimePoint
	EndDate         generic.TimePoint
	StartTime       *ClockTime
	EndTime         *ClockTime
	DurationMinutes int
	Reason          string
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time

	ManagerID        generic.EntityID
	ManagerNote      string
	ManagerDecidedAt *time.Time
	HRID             generic.EntityID
	HRNote           string
	HRDecidedAt      *time.Time
}

// Days is the inclusive calendar-day span.
func (r Request) Days() int {
	return generic.InclusiveDays(r.StartDate, r.EndDate)
}

// CountsAgainstQuota reports whether r still holds its benefit.
func (r Request) CountsAgainstQuota() bool {
	return r.Status != StatusRejected
}

// Candidate is an unvalidated submission.
type Candidate struct {
	Category  Category
	StartDate generic.TimePoint
	EndDate   generic.TimePoint
	StartTime *ClockTime
	EndTime   *ClockTime
	Reason    string
}

// Balances is the read-only projection used by dashboards.
type Balances struct {
	EmployeeID           generic.EntityID
	AsOf                 generic.TimePoint
	VacationDays         int
	UnionDays            int
	UnionDayAvailable    bool
	PassMinutesUsed      int
	PassMinutesRemaining int
	SeniorityYears       int
	WindowStart          generic.TimePoint
	IsWorkAnniversary    bool
	IsBirthday           bool
}
