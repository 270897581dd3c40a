/*
compute.go - Per-record billing computation

PURPOSE:
  The arithmetic heart of the engine. For each normalized AllocationRecord,
  in order:

    1. billable = max(0, allocated - leave)
    2. exit-date proration (see policy.go)
    3. amount = round2(billable * rate)
    4. utilization = 0 if allocated == 0
                     else round2(billable / allocated * 100)

  Guarantees: for non-negative inputs, amount >= 0 and utilization is in
  [0, 100]. Allocated == 0 never divides.

SEE ALSO:
  - policy.go: Rounding and proration modes
  - aggregate.go: Rollups over computed results
*/
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Compute produces the BillingResult for one record under the given policy.
func Compute(rec AllocationRecord, policy Policy) BillingResult {
	res := BillingResult{AllocationRecord: rec}

	billable := rec.Allocated.Sub(rec.Leave).ClampZero()

	if rec.ExitDate != nil {
		billable, res.Prorated = prorate(billable, rec.Period, *rec.ExitDate, policy)
	}

	res.Billable = billable
	res.Amount = policy.Round2(billable.Value.Mul(rec.Rate))

	if rec.Allocated.IsZero() {
		res.Utilization = decimal.Zero
	} else {
		res.Utilization = policy.Round2(billable.Value.Div(rec.Allocated.Value).Mul(hundred))
	}

	return res
}

// prorate scales billable units for an exit date. An exit before the period
// zeroes the row regardless of mode; an exit after the period is a no-op.
func prorate(billable Amount, period Period, exit time.Time, policy Policy) (Amount, bool) {
	if exit.Before(period.Start()) {
		return billable.Zero(), true
	}
	if !period.Contains(exit) {
		return billable, false
	}
	if policy.Proration == ProrateNone {
		return billable, false
	}

	var worked, total int
	switch policy.Proration {
	case ProrateWorkingDays:
		total = policy.WorkingDaysIn(period)
		worked = period.WeekdaysThrough(exit.Day())
		if worked > total {
			worked = total
		}
	default: // ProrateCalendarDays
		total = period.CalendarDays()
		worked = exit.Day()
	}

	if total == 0 || worked >= total {
		return billable, false
	}

	factor := decimal.NewFromInt(int64(worked)).Div(decimal.NewFromInt(int64(total)))
	return billable.Mul(factor), true
}
