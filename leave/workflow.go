/*
workflow.go - Approval state machine and queue routing

STATES:
  Pending ──manager approve──▶ ApprovedByManager ──HR approve──▶ ApprovedByHR
     │                               │
     ├──────────HR approve───────────┼──────────────────────────▶ ApprovedByHR
     └──────────any reject───────────┴──────────────────────────▶ Rejected

  ApprovedByHR and Rejected are terminal.

QUEUE ROUTING:
  - HRAdmin:     every Pending or ApprovedByManager request. This includes
                 Pending requests no manager has reviewed, so HR can finalize
                 past the manager tier.
  - AreaManager: Pending requests whose owner works in one of the manager's
                 approval areas (own area by default), never their own.
  - Worker:      nothing.

  Standing to decide equals queue membership. Role checks live only here.
*/
package leave

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/santamargarita/leave-engine/generic"
)

// =============================================================================
// VERDICT
// =============================================================================

type Verdict int

const (
	VerdictApprove Verdict = iota
	VerdictReject
)

func (v Verdict) String() string {
	if v == VerdictReject {
		return "reject"
	}
	return "approve"
}

func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve":
		return VerdictApprove, nil
	case "reject":
		return VerdictReject, nil
	}
	return VerdictApprove, fmt.Errorf("%w: unknown verdict %q", ErrMalformedInput, s)
}

// Decision is an approver's verdict with an optional observation.
type Decision struct {
	Verdict Verdict
	Note    string
}

// =============================================================================
// WORKFLOW
// =============================================================================

type Workflow struct {
	Clock generic.Clock
}

func NewWorkflow(clock generic.Clock) *Workflow {
	return &Workflow{Clock: clock}
}

// Submit creates the Pending record for a request that passed Validate.
func (w *Workflow) Submit(id RequestID, validated Request) Request {
	now := w.Clock.Now()
	rec := validated
	rec.ID = id
	rec.Status = StatusPending
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return rec
}

// InQueue reports whether approver may act on req, owned by owner.
func (w *Workflow) InQueue(approver Employee, req Request, owner Employee) bool {
	switch approver.Role {
	case RoleHRAdmin:
		return req.Status == StatusPending || req.Status == StatusApprovedByManager
	case RoleAreaManager:
		return req.Status == StatusPending &&
			owner.ID != approver.ID &&
			approver.Approves(owner.Area)
	default:
		return false
	}
}

// Queue filters requests down to approver's queue, oldest first. owners
// resolves request owners; requests with an unknown owner are skipped.
func (w *Workflow) Queue(approver Employee, requests []Request, owners map[generic.EntityID]Employee) []Request {
	var queue []Request
	for _, r := range requests {
		owner, ok := owners[r.EmployeeID]
		if !ok {
			continue
		}
		if w.InQueue(approver, r, owner) {
			queue = append(queue, r)
		}
	}
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].CreatedAt.Before(queue[j].CreatedAt)
	})
	return queue
}

// Decide applies decider's verdict. Terminal requests fail with
// *TransitionError before standing is considered; a decider outside the
// request's queue fails with *AuthorizationError.
func (w *Workflow) Decide(req Request, owner, decider Employee, d Decision) (Request, error) {
	if req.Status.IsTerminal() {
		return Request{}, &TransitionError{RequestID: req.ID, From: req.Status}
	}
	if !w.InQueue(decider, req, owner) {
		return Request{}, &AuthorizationError{
			DeciderID: decider.ID,
			Role:      decider.Role,
			RequestID: req.ID,
			Reason:    standingReason(decider, req, owner),
		}
	}

	now := w.Clock.Now()
	out := req
	out.UpdatedAt = now

	switch decider.Role {
	case RoleAreaManager:
		out.ManagerID = decider.ID
		out.ManagerNote = d.Note
		out.ManagerDecidedAt = timePtr(now)
		if d.Verdict == VerdictApprove {
			out.Status = StatusApprovedByManager
		} else {
			out.Status = StatusRejected
		}
	case RoleHRAdmin:
		out.HRID = decider.ID
		out.HRNote = d.Note
		out.HRDecidedAt = timePtr(now)
		if d.Verdict == VerdictApprove {
			out.Status = StatusApprovedByHR
		} else {
			out.Status = StatusRejected
		}
	}
	return out, nil
}

func standingReason(decider Employee, req Request, owner Employee) string {
	switch decider.Role {
	case RoleWorker:
		return "workers cannot decide requests"
	case RoleAreaManager:
		if owner.ID == decider.ID {
			return "managers cannot decide their own requests"
		}
		if req.Status != StatusPending {
			return fmt.Sprintf("request is %s and awaits HR", req.Status)
		}
		return fmt.Sprintf("area %q is outside the manager's approval areas", owner.Area)
	}
	return "request is not in the approver's queue"
}

func timePtr(t time.Time) *time.Time { return &t }
