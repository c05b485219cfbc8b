package leave

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santamargarita/leave-engine/generic"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrValidationRejected is the parent of every eligibility rejection.
	ErrValidationRejected = errors.New("request rejected")

	// ErrMalformedInput covers reversed ranges, non-positive pass durations
	// and unparseable fields.
	ErrMalformedInput = errors.New("malformed input")

	// ErrAuthorizationDenied is returned when the decider lacks standing.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrInvalidStateTransition is returned when deciding a terminal request.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	ErrEmployeeNotFound = fmt.Errorf("employee %w", generic.ErrEntityNotFound)
	ErrRequestNotFound  = fmt.Errorf("request %w", generic.ErrEntityNotFound)

	// ErrEmployeeExists is returned when creating an employee whose id is taken.
	ErrEmployeeExists = errors.New("employee already exists")
)

// =============================================================================
// REJECTION - Eligibility verdicts
// =============================================================================

// ReasonCode is the machine-checkable part of a rejection.
type ReasonCode string

const (
	ReasonLeadTime         ReasonCode = "insufficient_lead_time"
	ReasonSeniority        ReasonCode = "insufficient_seniority"
	ReasonUnionDayTaken    ReasonCode = "union_day_already_taken"
	ReasonPassNonPositive  ReasonCode = "pass_non_positive"
	ReasonPassTooLong      ReasonCode = "pass_too_long"
	ReasonPassMonthlyCap   ReasonCode = "pass_monthly_cap_exceeded"
	ReasonInvalidDateRange ReasonCode = "invalid_date_range"
	ReasonInsufficientDays ReasonCode = "insufficient_vacation_days"
	ReasonMissingReason    ReasonCode = "reason_required"
	ReasonUnknownCategory  ReasonCode = "unknown_category"
	ReasonInvalidTimeRange ReasonCode = "invalid_time_range"
)

// malformed lists the codes that describe broken input rather than a policy refusal.
var malformed = map[ReasonCode]bool{
	ReasonInvalidDateRange: true,
	ReasonPassNonPositive:  true,
	ReasonUnknownCategory:  true,
	ReasonInvalidTimeRange: true,
}

// RejectionError is a terminal eligibility verdict. Message is user-facing
// and Context carries the numbers it quotes (remaining minutes, balance,
// hire date).
type RejectionError struct {
	Code    ReasonCode
	Message string
	Context map[string]any
}

func reject(code ReasonCode, msg string, kv ...any) *RejectionError {
	ctx := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		ctx[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return &RejectionError{Code: code, Message: msg, Context: ctx}
}

func (e *RejectionError) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, ", "))
}

func (e *RejectionError) Unwrap() error {
	if malformed[e.Code] {
		return ErrMalformedInput
	}
	return ErrValidationRejected
}

// =============================================================================
// WORKFLOW ERRORS
// =============================================================================

// AuthorizationError reports a decider without standing on a request.
type AuthorizationError struct {
	DeciderID generic.EntityID
	Role      Role
	RequestID RequestID
	Reason    string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s %s may not decide request %s: %s", e.Role, e.DeciderID, e.RequestID, e.Reason)
}

func (e *AuthorizationError) Unwrap() error { return ErrAuthorizationDenied }

// TransitionError reports an attempt to leave a terminal state.
type TransitionError struct {
	RequestID RequestID
	From      Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("request %s is %s and can no longer be decided", e.RequestID, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidStateTransition }

// AsRejection extracts a *RejectionError from err.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
