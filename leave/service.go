/*
service.go - Entry point used by the HTTP layer

PURPOSE:
  Composes the stores, the per-key locker, the Engine and the Workflow
  into the operations the application calls:

    SubmitRequest          Validate + Submit under the employee lock
    ListQueue              approver's queue
    Decide                 transition under request then employee lock
    GetBalances            read-only projection

  and the roster-side operations (CreateEmployee, AdjustVacationDays,
  SetAuthorizedAreas, history reads).

CONCURRENCY:
  - Writers to one employee's history or balances hold
    EmployeeLockKey(id) from the first read to the last write, including
    on rejection, so quota and union-day checks cannot race.
  - Decide holds RequestLockKey(id) and then the owner's employee lock.
    Submit only takes the employee lock, so the order cannot cycle.
  - Reads take no locks.

BALANCES:
  HR final approval of a vacation request decrements VacationDays by the
  request's day count and appends a consumption entry keyed
  "approve-<request id>" in the same transaction as the status change.
  VacationDays never goes below zero. Union days are decremented the same
  way, floored at zero.
*/
package leave

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/santamargarita/leave-engine/generic"
)

type Service struct {
	store    Store
	locker   Locker
	engine   *Engine
	workflow *Workflow
	clock    generic.Clock
	log      zerolog.Logger
}

func NewService(store Store, locker Locker, clock generic.Clock, log zerolog.Logger) *Service {
	return &Service{
		store:    store,
		locker:   locker,
		engine:   NewEngine(clock),
		workflow: NewWorkflow(clock),
		clock:    clock,
		log:      log,
	}
}

// logger prefers the request-scoped logger carried by ctx.
func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.log
}

func (s *Service) withLock(ctx context.Context, key string, fn func() error) error {
	release, err := s.locker.Acquire(ctx, key)
	if err != nil {
		return fmt.Errorf("acquire %s: %w", key, err)
	}
	defer release()
	return fn()
}

// =============================================================================
// SUBMISSION
// =============================================================================

// SubmitRequest validates c against the employee's profile and history and
// stores it as Pending. Rejections are *RejectionError.
func (s *Service) SubmitRequest(ctx context.Context, employeeID generic.EntityID, c Candidate) (Request, error) {
	var rec Request
	err := s.withLock(ctx, EmployeeLockKey(employeeID), func() error {
		emp, err := s.store.GetEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		history, err := s.store.ListRequestsByEmployee(ctx, employeeID)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}

		validated, err := s.engine.Validate(emp, c, history)
		if err != nil {
			if rej, ok := AsRejection(err); ok {
				s.logger(ctx).Info().
					Str("reason_code", string(rej.Code)).
					Str("employee_id", string(employeeID)).
					Str("category", string(c.Category)).
					Msg("request rejected")
			}
			return err
		}

		rec = s.workflow.Submit(RequestID(uuid.NewString()), validated)
		if err := s.store.CreateRequest(ctx, rec); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		return nil
	})
	if err != nil {
		return Request{}, err
	}

	s.logger(ctx).Info().
		Str("request_id", string(rec.ID)).
		Str("employee_id", string(employeeID)).
		Str("category", string(rec.Category)).
		Msg("request submitted")
	return rec, nil
}

// =============================================================================
// APPROVAL
// =============================================================================

// ListQueue returns the requests approverID may decide, oldest first.
func (s *Service) ListQueue(ctx context.Context, approverID generic.EntityID) ([]Request, error) {
	approver, err := s.store.GetEmployee(ctx, approverID)
	if err != nil {
		return nil, err
	}
	if approver.Role == RoleWorker {
		return []Request{}, nil
	}

	open, err := s.store.ListRequestsByStatus(ctx, StatusPending, StatusApprovedByManager)
	if err != nil {
		return nil, fmt.Errorf("list open requests: %w", err)
	}
	roster, err := s.store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	owners := make(map[generic.EntityID]Employee, len(roster))
	for _, e := range roster {
		owners[e.ID] = e
	}

	queue := s.workflow.Queue(approver, open, owners)
	if queue == nil {
		queue = []Request{}
	}
	return queue, nil
}

// Decide records deciderID's verdict on requestID.
func (s *Service) Decide(ctx context.Context, requestID RequestID, deciderID generic.EntityID, d Decision) (Request, error) {
	var out Request
	err := s.withLock(ctx, RequestLockKey(requestID), func() error {
		req, err := s.store.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		return s.withLock(ctx, EmployeeLockKey(req.EmployeeID), func() error {
			var err error
			out, err = s.decideLocked(ctx, req, deciderID, d)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, ErrAuthorizationDenied) || errors.Is(err, ErrInvalidStateTransition) {
			s.logger(ctx).Warn().Err(err).
				Str("request_id", string(requestID)).
				Str("decider_id", string(deciderID)).
				Msg("decision refused")
		}
		return Request{}, err
	}

	s.logger(ctx).Info().
		Str("request_id", string(out.ID)).
		Str("decider_id", string(deciderID)).
		Str("verdict", d.Verdict.String()).
		Str("status", string(out.Status)).
		Msg("request decided")
	return out, nil
}

func (s *Service) decideLocked(ctx context.Context, req Request, deciderID generic.EntityID, d Decision) (Request, error) {
	decider, err := s.store.GetEmployee(ctx, deciderID)
	if err != nil {
		return Request{}, err
	}
	owner, err := s.store.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return Request{}, err
	}

	out, err := s.workflow.Decide(req, owner, decider, d)
	if err != nil {
		return Request{}, err
	}

	err = s.store.WithTx(ctx, func(tx Store) error {
		if out.Status == StatusApprovedByHR {
			if err := s.consume(ctx, tx, out, decider.ID); err != nil {
				return err
			}
		}
		return tx.UpdateRequest(ctx, out)
	})
	if err != nil {
		return Request{}, err
	}
	return out, nil
}

// consume applies a final approval to the owner's balances. Vacation days
// come off the employee record. The union day is not stored as a running
// balance: each anniversary window is credited one day on its first
// approval, so every approved union day leaves a consumption entry.
func (s *Service) consume(ctx context.Context, tx Store, req Request, actor generic.EntityID) error {
	var days int
	switch req.Category {
	case CategoryVacation:
		days = req.Days()
	case CategoryUnionDay:
		days = 1
	default:
		return nil
	}

	emp, err := tx.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return err
	}
	today := generic.Today(s.clock)
	ledger := generic.NewLedger(tx)

	if req.Category == CategoryVacation {
		if emp.VacationDays < days {
			return &generic.InsufficientBalanceError{
				EntityID:  emp.ID,
				Resource:  req.Category,
				Available: generic.NewAmountFromInt(emp.VacationDays, generic.UnitDays),
				Requested: generic.NewAmountFromInt(days, generic.UnitDays),
				Shortfall: generic.NewAmountFromInt(days-emp.VacationDays, generic.UnitDays),
			}
		}
		emp.VacationDays -= days
		emp.UpdatedAt = s.clock.Now()
		if err := tx.UpdateEmployee(ctx, emp); err != nil {
			return fmt.Errorf("update balance: %w", err)
		}
	} else if err := s.creditUnionWindow(ctx, ledger, emp, today); err != nil {
		return err
	}

	return ledger.Append(ctx, generic.Transaction{
		ID:             generic.TransactionID(uuid.NewString()),
		EntityID:       emp.ID,
		ResourceType:   req.Category,
		EffectiveAt:    today,
		Delta:          generic.NewAmountFromInt(-days, generic.UnitDays),
		Type:           generic.TxConsumption,
		ReferenceID:    string(req.ID),
		Reason:         fmt.Sprintf("%s %s..%s approved", req.Category, req.StartDate, req.EndDate),
		IdempotencyKey: "approve-" + string(req.ID),
		Metadata: map[string]string{
			"start_date": req.StartDate.String(),
			"end_date":   req.EndDate.String(),
		},
		CreatedBy: string(actor),
		CreatedAt: today,
	})
}

// creditUnionWindow grants the current anniversary window's union day
// unless the ledger already holds it. The opening grant counts for the
// window the employee was created in.
func (s *Service) creditUnionWindow(ctx context.Context, ledger *generic.Ledger, emp Employee, today generic.TimePoint) error {
	balance, err := ledger.BalanceAt(ctx, emp.ID, CategoryUnionDay, today, generic.UnitDays)
	if err != nil {
		return fmt.Errorf("union day balance: %w", err)
	}
	if balance.IntPart() > 0 {
		return nil
	}
	window := generic.AnniversaryPeriod(emp.HireDate, today)
	entries, err := ledger.Between(ctx, emp.ID, CategoryUnionDay, window.Start, window.End)
	if err != nil {
		return fmt.Errorf("union day window: %w", err)
	}
	for _, e := range entries {
		if e.Type == generic.TxGrant {
			return nil
		}
	}
	return ledger.Append(ctx, generic.Transaction{
		ID:             generic.TransactionID(uuid.NewString()),
		EntityID:       emp.ID,
		ResourceType:   CategoryUnionDay,
		EffectiveAt:    window.Start,
		Delta:          generic.NewAmountFromInt(1, generic.UnitDays),
		Type:           generic.TxGrant,
		Reason:         "anniversary window " + window.String(),
		IdempotencyKey: fmt.Sprintf("grant-%s-%s-%s", emp.ID, CategoryUnionDay, window.Start),
		Metadata:       map[string]string{"window_start": window.Start.String()},
		CreatedAt:      today,
	})
}

// =============================================================================
// PROJECTIONS
// =============================================================================

// GetBalances projects the employee's balances as of asOf (today when zero).
func (s *Service) GetBalances(ctx context.Context, employeeID generic.EntityID, asOf generic.TimePoint) (Balances, error) {
	if asOf.IsZero() {
		asOf = generic.Today(s.clock)
	}
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return Balances{}, err
	}
	history, err := s.store.ListRequestsByEmployee(ctx, employeeID)
	if err != nil {
		return Balances{}, fmt.Errorf("load history: %w", err)
	}

	window := WindowStart(emp.HireDate, asOf)
	_, taken := UnionDayTaken(history, window)
	unionDays := 1
	if taken {
		unionDays = 0
	}
	used := s.engine.Quota.ConsumedMinutes(history, asOf.Year(), asOf.Month())

	b := Balances{
		EmployeeID:           emp.ID,
		AsOf:                 asOf,
		VacationDays:         emp.VacationDays,
		UnionDays:            unionDays,
		UnionDayAvailable:    !taken,
		PassMinutesUsed:      used,
		PassMinutesRemaining: s.engine.Quota.Allowance - used,
		SeniorityYears:       SeniorityYears(emp.HireDate, asOf),
		WindowStart:          window,
		IsWorkAnniversary:    generic.IsAnniversary(emp.HireDate, asOf) && asOf.After(emp.HireDate),
	}
	if emp.BirthDate != nil {
		b.IsBirthday = generic.IsAnniversary(*emp.BirthDate, asOf)
	}
	return b, nil
}

func (s *Service) GetRequest(ctx context.Context, id RequestID) (Request, error) {
	return s.store.GetRequest(ctx, id)
}

// ListEmployeeRequests returns the employee's requests, newest first.
func (s *Service) ListEmployeeRequests(ctx context.Context, employeeID generic.EntityID) ([]Request, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListRequestsByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
	if reqs == nil {
		reqs = []Request{}
	}
	return reqs, nil
}

// ListBalanceMovements returns the employee's ledger entries in effective order.
func (s *Service) ListBalanceMovements(ctx context.Context, employeeID generic.EntityID) ([]generic.Transaction, error) {
	if _, err := s.store.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return generic.NewLedger(s.store).Movements(ctx, employeeID)
}

// =============================================================================
// ROSTER
// =============================================================================

func (s *Service) GetEmployee(ctx context.Context, id generic.EntityID) (Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.store.ListEmployees(ctx)
}

// CreateEmployee adds emp to the roster and records its opening balances
// as grant entries.
func (s *Service) CreateEmployee(ctx context.Context, emp Employee) (Employee, error) {
	if emp.ID == "" {
		emp.ID = generic.EntityID(uuid.NewString())
	}
	if emp.VacationDays < 0 || emp.UnionDays < 0 {
		return Employee{}, fmt.Errorf("%w: balances cannot be negative", ErrMalformedInput)
	}
	if emp.HireDate.IsZero() {
		return Employee{}, fmt.Errorf("%w: hire date is required", ErrMalformedInput)
	}
	emp.AuthorizedAreas = normalizeAreas(emp.AuthorizedAreas)
	emp.CreatedAt = s.clock.Now()
	emp.UpdatedAt = emp.CreatedAt

	today := generic.Today(s.clock)
	err := s.withLock(ctx, EmployeeLockKey(emp.ID), func() error {
		return s.store.WithTx(ctx, func(tx Store) error {
			if err := tx.CreateEmployee(ctx, emp); err != nil {
				return err
			}
			var grants []generic.Transaction
			for _, g := range []struct {
				category Category
				days     int
			}{{CategoryVacation, emp.VacationDays}, {CategoryUnionDay, emp.UnionDays}} {
				if g.days == 0 {
					continue
				}
				grants = append(grants, generic.Transaction{
					ID:             generic.TransactionID(uuid.NewString()),
					EntityID:       emp.ID,
					ResourceType:   g.category,
					EffectiveAt:    today,
					Delta:          generic.NewAmountFromInt(g.days, generic.UnitDays),
					Type:           generic.TxGrant,
					Reason:         "opening balance",
					IdempotencyKey: fmt.Sprintf("grant-%s-%s", emp.ID, g.category),
					CreatedAt:      today,
				})
			}
			if len(grants) == 0 {
				return nil
			}
			return generic.NewLedger(tx).AppendBatch(ctx, grants)
		})
	})
	if err != nil {
		return Employee{}, err
	}
	s.logger(ctx).Info().Str("employee_id", string(emp.ID)).Str("area", emp.Area).Msg("employee created")
	return emp, nil
}

// AdjustVacationDays applies a manual correction of delta days. The result
// may not be negative.
func (s *Service) AdjustVacationDays(ctx context.Context, employeeID generic.EntityID, delta int, actor generic.EntityID, reason string) (Employee, error) {
	if delta == 0 {
		return Employee{}, fmt.Errorf("%w: adjustment must be non-zero", ErrMalformedInput)
	}
	var out Employee
	err := s.withLock(ctx, EmployeeLockKey(employeeID), func() error {
		return s.store.WithTx(ctx, func(tx Store) error {
			emp, err := tx.GetEmployee(ctx, employeeID)
			if err != nil {
				return err
			}
			if emp.VacationDays+delta < 0 {
				return &generic.InsufficientBalanceError{
					EntityID:  emp.ID,
					Resource:  CategoryVacation,
					Available: generic.NewAmountFromInt(emp.VacationDays, generic.UnitDays),
					Requested: generic.NewAmountFromInt(-delta, generic.UnitDays),
					Shortfall: generic.NewAmountFromInt(-delta-emp.VacationDays, generic.UnitDays),
				}
			}
			emp.VacationDays += delta
			emp.UpdatedAt = s.clock.Now()
			if err := tx.UpdateEmployee(ctx, emp); err != nil {
				return fmt.Errorf("update balance: %w", err)
			}
			today := generic.Today(s.clock)
			out = emp
			return generic.NewLedger(tx).Append(ctx, generic.Transaction{
				ID:           generic.TransactionID(uuid.NewString()),
				EntityID:     emp.ID,
				ResourceType: CategoryVacation,
				EffectiveAt:  today,
				Delta:        generic.NewAmountFromInt(delta, generic.UnitDays),
				Type:         generic.TxAdjustment,
				Reason:       reason,
				CreatedBy:    string(actor),
				CreatedAt:    today,
			})
		})
	})
	if err != nil {
		return Employee{}, err
	}
	s.logger(ctx).Info().
		Str("employee_id", string(employeeID)).
		Int("delta", delta).
		Int("vacation_days", out.VacationDays).
		Msg("vacation balance adjusted")
	return out, nil
}

// SetAuthorizedAreas replaces the areas an area manager may approve for.
// An empty list restores the default (own area).
func (s *Service) SetAuthorizedAreas(ctx context.Context, managerID generic.EntityID, areas []string) (Employee, error) {
	var out Employee
	err := s.withLock(ctx, EmployeeLockKey(managerID), func() error {
		emp, err := s.store.GetEmployee(ctx, managerID)
		if err != nil {
			return err
		}
		if emp.Role != RoleAreaManager {
			return fmt.Errorf("%w: %s is not an area manager", ErrMalformedInput, managerID)
		}
		emp.AuthorizedAreas = normalizeAreas(areas)
		emp.UpdatedAt = s.clock.Now()
		out = emp
		return s.store.UpdateEmployee(ctx, emp)
	})
	if err != nil {
		return Employee{}, err
	}
	return out, nil
}

func normalizeAreas(areas []string) []string {
	seen := make(map[string]bool, len(areas))
	var out []string
	for _, a := range areas {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
