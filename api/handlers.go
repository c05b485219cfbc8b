/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave service via REST API. Handles HTTP request/response,
  JSON serialization and body validation, and delegates every rule to
  leave.Service.

ENDPOINTS:
  Employees:
    GET    /api/employees                      List the roster
    POST   /api/employees                      Add an employee
    GET    /api/employees/{id}                 Employee details
    PUT    /api/employees/{id}/authorizations  Area manager approval areas
    POST   /api/employees/{id}/adjustments     Manual vacation correction
    GET    /api/employees/{id}/balances        Balance projection (?as_of=)
    GET    /api/employees/{id}/movements       Balance ledger

  Requests:
    GET    /api/employees/{id}/requests        Request history, newest first
    POST   /api/employees/{id}/requests        Submit a leave request
    GET    /api/employees/{id}/queue           Requests the approver may decide
    GET    /api/requests/{id}                  Request details
    POST   /api/requests/{id}/decision         Approve or reject

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate body shape (validator tags)
  3. Call leave.Service
  4. Serialize response
  5. Map errors to status codes

ERROR HANDLING:
  - 400: Malformed input (bad JSON, failed tags, unknown category,
         reversed ranges)
  - 403: Decider without standing on the request
  - 404: Employee or request not found
  - 409: Terminal request, duplicate employee, balance exhausted at
         final approval, lock contention
  - 422: Eligibility rejection, body {code, message, context}
  - 500: Internal errors

SECURITY NOTE:
  Callers identify themselves by id in the path or body. There is no
  authentication layer in front of these handlers.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/santamargarita/leave-engine/generic"
	"github.com/santamargarita/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	svc      *leave.Service
	store    Pinger
	validate *validator.Validate

	// Dashboards poll balances; concurrent reads for the same
	// employee and date share one projection. writes is part of the
	// flight key, so a read that starts after a write through this handler
	// never joins a projection begun before it.
	balances singleflight.Group
	writes   atomic.Uint64
}

// NewHandler creates a handler over svc. store may be nil, in which case
// /healthz only reports the process as up.
func NewHandler(svc *leave.Service, store Pinger) *Handler {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{svc: svc, store: store, validate: v}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the roster.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	emps, err := h.svc.ListEmployees(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTOs(emps))
}

// GetEmployee returns a single employee.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.svc.GetEmployee(r.Context(), pathEntity(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateEmployee adds an employee with opening balances.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}
	emp, err := req.toEmployee()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee", err)
		return
	}
	created, err := h.svc.CreateEmployee(r.Context(), emp)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(created))
}

// SetAuthorizations replaces an area manager's approval areas.
// PUT /api/employees/{id}/authorizations
func (h *Handler) SetAuthorizations(w http.ResponseWriter, r *http.Request) {
	var req AuthorizationsRequest
	if !h.decode(w, r, &req) {
		return
	}
	emp, err := h.svc.SetAuthorizedAreas(r.Context(), pathEntity(r), req.Areas)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CreateAdjustment applies a manual vacation balance correction.
// POST /api/employees/{id}/adjustments
func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	emp, err := h.svc.AdjustVacationDays(r.Context(), pathEntity(r), req.Delta, generic.EntityID(req.ActorID), req.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writes.Add(1)
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// GetBalances projects balances as of ?as_of= (today when absent).
// GET /api/employees/{id}/balances
func (h *Handler) GetBalances(w http.ResponseWriter, r *http.Request) {
	id := pathEntity(r)

	var asOf generic.TimePoint
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := generic.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid as_of", err)
			return
		}
		asOf = parsed
	}

	ctx := r.Context()
	key := string(id) + "|" + asOf.String() + "|" + strconv.FormatUint(h.writes.Load(), 10)
	ch := h.balances.DoChan(key, func() (any, error) {
		return h.svc.GetBalances(context.WithoutCancel(ctx), id, asOf)
	})
	select {
	case <-ctx.Done():
		return
	case res := <-ch:
		if res.Err != nil {
			writeServiceError(w, r, res.Err)
			return
		}
		writeJSON(w, http.StatusOK, toBalancesDTO(res.Val.(leave.Balances)))
	}
}

// ListMovements returns the employee's balance ledger.
// GET /api/employees/{id}/movements
func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.ListBalanceMovements(r.Context(), pathEntity(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTOs(txs))
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// ListEmployeeRequests returns the employee's requests, newest first.
// GET /api/employees/{id}/requests
func (h *Handler) ListEmployeeRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.ListEmployeeRequests(r.Context(), pathEntity(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// SubmitRequest validates and stores a leave request.
// POST /api/employees/{id}/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !h.decode(w, r, &req) {
		return
	}
	candidate, err := req.toCandidate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}
	created, err := h.svc.SubmitRequest(r.Context(), pathEntity(r), candidate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writes.Add(1)
	writeJSON(w, http.StatusCreated, toRequestDTO(created))
}

// ListQueue returns the requests the approver may decide, oldest first.
// GET /api/employees/{id}/queue
func (h *Handler) ListQueue(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.svc.ListQueue(r.Context(), pathEntity(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// GetRequest returns a single request.
// GET /api/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.svc.GetRequest(r.Context(), leave.RequestID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(req))
}

// Decide records an approval or rejection.
// POST /api/requests/{id}/decision
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if !h.decode(w, r, &req) {
		return
	}
	verdict, err := leave.ParseVerdict(req.Verdict)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid verdict", err)
		return
	}
	decided, err := h.svc.Decide(r.Context(),
		leave.RequestID(chi.URLParam(r, "id")),
		generic.EntityID(req.DeciderID),
		leave.Decision{Verdict: verdict, Note: strings.TrimSpace(req.Note)},
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.writes.Add(1)
	writeJSON(w, http.StatusOK, toRequestDTO(decided))
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness and store reachability.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func pathEntity(r *http.Request) generic.EntityID {
	return generic.EntityID(chi.URLParam(r, "id"))
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", errors.New(validationDetails(err)))
		return false
	}
	return true
}

func validationDetails(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		if fe.Param() != "" {
			parts[i] = fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param())
		} else {
			parts[i] = fmt.Sprintf("%s: %s", fe.Field(), fe.Tag())
		}
	}
	return strings.Join(parts, "; ")
}

// writeServiceError maps leave and generic errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if rej, ok := leave.AsRejection(err); ok {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, leave.ErrMalformedInput) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, RejectionDTO{Code: string(rej.Code), Message: rej.Message, Context: rej.Context})
		return
	}

	switch {
	case errors.Is(err, leave.ErrMalformedInput):
		writeError(w, http.StatusBadRequest, "Malformed input", err)
	case errors.Is(err, leave.ErrAuthorizationDenied):
		writeError(w, http.StatusForbidden, "Not allowed to decide this request", err)
	case errors.Is(err, leave.ErrInvalidStateTransition):
		writeError(w, http.StatusConflict, "Request already decided", err)
	case errors.Is(err, leave.ErrEmployeeExists):
		writeError(w, http.StatusConflict, "Employee already exists", err)
	case errors.Is(err, generic.ErrInsufficientBalance):
		writeError(w, http.StatusConflict, "Insufficient balance", err)
	case generic.IsRetryable(err):
		writeError(w, http.StatusConflict, "Concurrent modification, retry", err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	default:
		requestLog(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
	}
}

func requestLog(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
