package leave

import (
	"time"

	"github.com/santamargarita/leave-engine/generic"
)

// =============================================================================
// QUOTA LEDGER - Monthly pass minutes
// =============================================================================

// MonthlyPassAllowance is shared by exit and entry passes.
const MonthlyPassAllowance = 120

// QuotaLedger recomputes pass consumption from history. There is no reset
// event: a new month simply has no matching requests yet.
type QuotaLedger struct {
	Allowance int
}

func NewQuotaLedger() QuotaLedger {
	return QuotaLedger{Allowance: MonthlyPassAllowance}
}

// ConsumedMinutes sums DurationMinutes over non-rejected passes of either
// kind whose start date falls in (year, month).
func (q QuotaLedger) ConsumedMinutes(history []Request, year int, month time.Month) int {
	period := generic.MonthPeriod(year, month)
	total := 0
	for _, r := range history {
		if !r.Category.IsPass() || !r.CountsAgainstQuota() {
			continue
		}
		if period.Contains(r.StartDate) {
			total += r.DurationMinutes
		}
	}
	return total
}

// Remaining is the allowance left in (year, month). It can go negative only
// if history was written around the engine.
func (q QuotaLedger) Remaining(history []Request, year int, month time.Month) int {
	return q.Allowance - q.ConsumedMinutes(history, year, month)
}
