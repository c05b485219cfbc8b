/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the leave domain model from the external API contract: dates travel as
  YYYY-MM-DD strings, clock times as HH:MM, roles and statuses as their
  lowercase names.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employee:
    EmployeeDTO, CreateEmployeeRequest, AuthorizationsRequest, AdjustmentRequest

  Leave requests:
    SubmitRequest, RequestDTO, DecisionRequest

  Balances:
    BalancesDTO, MovementDTO

  Errors:
    ErrorResponse, RejectionDTO

VALIDATION:
  Request bodies carry go-playground/validator tags for shape checks
  (required fields, date and time formats, enumerations). Business rules
  stay in the leave package: an unknown category or a reversed range is
  reported with its reason code, not as a tag failure.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/types.go: Domain types
*/
package api

import (
	"strings"
	"time"

	"github.com/santamargarita/leave-engine/generic"
	"github.com/santamargarita/leave-engine/leave"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email,omitempty"`
	Role            string   `json:"role"`
	Area            string   `json:"area"`
	Position        string   `json:"position,omitempty"`
	ShiftID         string   `json:"shift_id,omitempty"`
	HireDate        string   `json:"hire_date"`
	BirthDate       string   `json:"birth_date,omitempty"`
	VacationDays    int      `json:"vacation_days"`
	UnionDays       int      `json:"union_days"`
	AuthorizedAreas []string `json:"authorized_areas"`
	StartTime       string   `json:"start_time,omitempty"`
	EndTime         string   `json:"end_time,omitempty"`
}

// CreateEmployeeRequest is the request to add an employee to the roster.
type CreateEmployeeRequest struct {
	ID              string   `json:"id"`
	Name            string   `json:"name" validate:"required"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Role            string   `json:"role" validate:"required,oneof=worker area_manager hr_admin"`
	Area            string   `json:"area" validate:"required"`
	Position        string   `json:"position"`
	ShiftID         string   `json:"shift_id"`
	HireDate        string   `json:"hire_date" validate:"required,datetime=2006-01-02"`
	BirthDate       string   `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	VacationDays    int      `json:"vacation_days" validate:"gte=0"`
	UnionDays       int      `json:"union_days" validate:"gte=0"`
	AuthorizedAreas []string `json:"authorized_areas" validate:"dive,required"`
	StartTime       string   `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime         string   `json:"end_time" validate:"omitempty,datetime=15:04"`
}

// AuthorizationsRequest replaces an area manager's approval areas.
type AuthorizationsRequest struct {
	Areas []string `json:"areas" validate:"dive,required"`
}

// AdjustmentRequest is a manual vacation balance correction.
type AdjustmentRequest struct {
	Delta   int    `json:"delta" validate:"required"`
	ActorID string `json:"actor_id" validate:"required"`
	Reason  string `json:"reason" validate:"required"`
}

func toEmployeeDTO(e leave.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:              string(e.ID),
		Name:            e.Name,
		Email:           e.Email,
		Role:            e.Role.String(),
		Area:            e.Area,
		Position:        e.Position,
		ShiftID:         e.ShiftID,
		HireDate:        e.HireDate.String(),
		VacationDays:    e.VacationDays,
		UnionDays:       e.UnionDays,
		AuthorizedAreas: e.ApprovalAreas(),
	}
	if e.BirthDate != nil {
		dto.BirthDate = e.BirthDate.String()
	}
	if e.StartTime != nil {
		dto.StartTime = e.StartTime.String()
	}
	if e.EndTime != nil {
		dto.EndTime = e.EndTime.String()
	}
	return dto
}

func toEmployeeDTOs(emps []leave.Employee) []EmployeeDTO {
	dtos := make([]EmployeeDTO, len(emps))
	for i, e := range emps {
		dtos[i] = toEmployeeDTO(e)
	}
	return dtos
}

// toEmployee converts an already validated request body.
func (req CreateEmployeeRequest) toEmployee() (leave.Employee, error) {
	role, err := leave.ParseRole(req.Role)
	if err != nil {
		return leave.Employee{}, err
	}
	hire, err := generic.ParseDate(req.HireDate)
	if err != nil {
		return leave.Employee{}, err
	}
	emp := leave.Employee{
		ID:              generic.EntityID(strings.TrimSpace(req.ID)),
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		Role:            role,
		Area:            strings.TrimSpace(req.Area),
		Position:        req.Position,
		ShiftID:         req.ShiftID,
		HireDate:        hire,
		VacationDays:    req.VacationDays,
		UnionDays:       req.UnionDays,
		AuthorizedAreas: req.AuthorizedAreas,
	}
	if req.BirthDate != "" {
		birth, err := generic.ParseDate(req.BirthDate)
		if err != nil {
			return leave.Employee{}, err
		}
		emp.BirthDate = &birth
	}
	if emp.StartTime, err = optionalClock(req.StartTime); err != nil {
		return leave.Employee{}, err
	}
	if emp.EndTime, err = optionalClock(req.EndTime); err != nil {
		return leave.Employee{}, err
	}
	return emp, nil
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// SubmitRequest is a leave request submission. EndDate defaults to
// StartDate; pass categories need StartTime and EndTime.
type SubmitRequest struct {
	Category  string `json:"category" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"omitempty,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"omitempty,datetime=15:04"`
	Reason    string `json:"reason"`
}

// DecisionRequest is an approver's verdict on a request.
type DecisionRequest struct {
	DeciderID string `json:"decider_id" validate:"required"`
	Verdict   string `json:"verdict" validate:"required,oneof=approve reject"`
	Note      string `json:"note"`
}

// RequestDTO represents a leave request in API responses.
type RequestDTO struct {
	ID               string `json:"id"`
	EmployeeID       string `json:"employee_id"`
	Category         string `json:"category"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	StartTime        string `json:"start_time,omitempty"`
	EndTime          string `json:"end_time,omitempty"`
	DurationMinutes  int    `json:"duration_minutes,omitempty"`
	Days             int    `json:"days"`
	Reason           string `json:"reason"`
	Status           string `json:"status"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
	ManagerID        string `json:"manager_id,omitempty"`
	ManagerNote      string `json:"manager_note,omitempty"`
	ManagerDecidedAt string `json:"manager_decided_at,omitempty"`
	HRID             string `json:"hr_id,omitempty"`
	HRNote           string `json:"hr_note,omitempty"`
	HRDecidedAt      string `json:"hr_decided_at,omitempty"`
}

func (req SubmitRequest) toCandidate() (leave.Candidate, error) {
	start, err := generic.ParseDate(req.StartDate)
	if err != nil {
		return leave.Candidate{}, err
	}
	c := leave.Candidate{
		Category:  leave.Category(strings.TrimSpace(req.Category)),
		StartDate: start,
		Reason:    req.Reason,
	}
	if req.EndDate != "" {
		if c.EndDate, err = generic.ParseDate(req.EndDate); err != nil {
			return leave.Candidate{}, err
		}
	}
	if c.StartTime, err = optionalClock(req.StartTime); err != nil {
		return leave.Candidate{}, err
	}
	if c.EndTime, err = optionalClock(req.EndTime); err != nil {
		return leave.Candidate{}, err
	}
	return c, nil
}

func toRequestDTO(r leave.Request) RequestDTO {
	dto := RequestDTO{
		ID:               string(r.ID),
		EmployeeID:       string(r.EmployeeID),
		Category:         string(r.Category),
		StartDate:        r.StartDate.String(),
		EndDate:          r.EndDate.String(),
		DurationMinutes:  r.DurationMinutes,
		Days:             r.Days(),
		Reason:           r.Reason,
		Status:           string(r.Status),
		CreatedAt:        formatTime(&r.CreatedAt),
		UpdatedAt:        formatTime(&r.UpdatedAt),
		ManagerID:        string(r.ManagerID),
		ManagerNote:      r.ManagerNote,
		ManagerDecidedAt: formatTime(r.ManagerDecidedAt),
		HRID:             string(r.HRID),
		HRNote:           r.HRNote,
		HRDecidedAt:      formatTime(r.HRDecidedAt),
	}
	if r.StartTime != nil {
		dto.StartTime = r.StartTime.String()
	}
	if r.EndTime != nil {
		dto.EndTime = r.EndTime.String()
	}
	return dto
}

func toRequestDTOs(reqs []leave.Request) []RequestDTO {
	dtos := make([]RequestDTO, len(reqs))
	for i, r := range reqs {
		dtos[i] = toRequestDTO(r)
	}
	return dtos
}

// =============================================================================
// BALANCES
// =============================================================================

// BalancesDTO is the dashboard projection for one employee.
type BalancesDTO struct {
	EmployeeID           string `json:"employee_id"`
	AsOf                 string `json:"as_of"`
	VacationDays         int    `json:"vacation_days"`
	UnionDays            int    `json:"union_days"`
	UnionDayAvailable    bool   `json:"union_day_available"`
	PassMinutesUsed      int    `json:"pass_minutes_used"`
	PassMinutesRemaining int    `json:"pass_minutes_remaining"`
	SeniorityYears       int    `json:"seniority_years"`
	WindowStart          string `json:"anniversary_window_start"`
	IsWorkAnniversary    bool   `json:"is_work_anniversary"`
	IsBirthday           bool   `json:"is_birthday"`
}

// MovementDTO represents a balance ledger entry.
type MovementDTO struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	EffectiveAt string  `json:"effective_at"`
	Delta       float64 `json:"delta"`
	Unit        string  `json:"unit"`
	Type        string  `json:"type"`
	ReferenceID string  `json:"reference_id,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	CreatedBy   string  `json:"created_by,omitempty"`
}

func toBalancesDTO(b leave.Balances) BalancesDTO {
	return BalancesDTO{
		EmployeeID:           string(b.EmployeeID),
		AsOf:                 b.AsOf.String(),
		VacationDays:         b.VacationDays,
		UnionDays:            b.UnionDays,
		UnionDayAvailable:    b.UnionDayAvailable,
		PassMinutesUsed:      b.PassMinutesUsed,
		PassMinutesRemaining: b.PassMinutesRemaining,
		SeniorityYears:       b.SeniorityYears,
		WindowStart:          b.WindowStart.String(),
		IsWorkAnniversary:    b.IsWorkAnniversary,
		IsBirthday:           b.IsBirthday,
	}
}

func toMovementDTOs(txs []generic.Transaction) []MovementDTO {
	dtos := make([]MovementDTO, len(txs))
	for i, tx := range txs {
		delta, _ := tx.Delta.Value.Float64()
		dtos[i] = MovementDTO{
			ID:          string(tx.ID),
			EffectiveAt: tx.EffectiveAt.String(),
			Delta:       delta,
			Unit:        string(tx.Delta.Unit),
			Type:        string(tx.Type),
			ReferenceID: tx.ReferenceID,
			Reason:      tx.Reason,
			CreatedBy:   tx.CreatedBy,
		}
		if tx.ResourceType != nil {
			dtos[i].Category = tx.ResourceType.ResourceID()
		}
	}
	return dtos
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-rejection error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RejectionDTO is the body of an eligibility rejection.
type RejectionDTO struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// =============================================================================
// HELPERS
// =============================================================================

func optionalClock(s string) (*leave.ClockTime, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	c, err := leave.ParseClockTime(s)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
