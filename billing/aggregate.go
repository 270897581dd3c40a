/*
aggregate.go - Per-employee and per-period rollups

PURPOSE:
  Groups BillingResult rows by employee+period and by period, summing billing
  amounts and taking the unweighted mean of utilization percentages.

ORDER INDEPENDENCE:
  Sums and means are commutative, so permuting input rows never changes the
  aggregates. Output slices are sorted by key so identical inputs always
  produce byte-identical output.
*/
package billing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SUMMARY TYPES
// =============================================================================

// EmployeeSummary is one employee's totals within one billing period.
type EmployeeSummary struct {
	EmployeeID      EmployeeID
	Period          Period
	Rows            int
	TotalAmount     decimal.Decimal
	MeanUtilization decimal.Decimal
}

// PeriodSummary is the whole-period rollup across employees.
type PeriodSummary struct {
	Period          Period
	Employees       int
	Rows            int
	TotalAmount     decimal.Decimal
	MeanUtilization decimal.Decimal
}

// =============================================================================
// AGGREGATION
// =============================================================================

type groupKey struct {
	employee EmployeeID
	period   Period
}

// Aggregate computes employee and period summaries from computed results.
// Rounding of the mean follows the policy; sums are exact (inputs are already
// 2-decimal).
func Aggregate(results []BillingResult, policy Policy) ([]EmployeeSummary, []PeriodSummary) {
	type acc struct {
		rows   int
		amount decimal.Decimal
		util   decimal.Decimal
	}

	byEmployee := make(map[groupKey]*acc)
	byPeriod := make(map[Period]*acc)
	employeesInPeriod := make(map[Period]map[EmployeeID]struct{})

	for _, r := range results {
		ek := groupKey{employee: r.EmployeeID, period: r.Period}
		ea := byEmployee[ek]
		if ea == nil {
			ea = &acc{}
			byEmployee[ek] = ea
		}
		ea.rows++
		ea.amount = ea.amount.Add(r.Amount)
		ea.util = ea.util.Add(r.Utilization)

		pa := byPeriod[r.Period]
		if pa == nil {
			pa = &acc{}
			byPeriod[r.Period] = pa
		}
		pa.rows++
		pa.amount = pa.amount.Add(r.Amount)
		pa.util = pa.util.Add(r.Utilization)

		if employeesInPeriod[r.Period] == nil {
			employeesInPeriod[r.Period] = make(map[EmployeeID]struct{})
		}
		employeesInPeriod[r.Period][r.EmployeeID] = struct{}{}
	}

	employees := make([]EmployeeSummary, 0, len(byEmployee))
	for k, a := range byEmployee {
		employees = append(employees, EmployeeSummary{
			EmployeeID:      k.employee,
			Period:          k.period,
			Rows:            a.rows,
			TotalAmount:     a.amount,
			MeanUtilization: policy.Round2(a.util.Div(decimal.NewFromInt(int64(a.rows)))),
		})
	}
	sort.Slice(employees, func(i, j int) bool {
		if employees[i].Period != employees[j].Period {
			return employees[i].Period.Before(employees[j].Period)
		}
		return employees[i].EmployeeID < employees[j].EmployeeID
	})

	periods := make([]PeriodSummary, 0, len(byPeriod))
	for p, a := range byPeriod {
		periods = append(periods, PeriodSummary{
			Period:          p,
			Employees:       len(employeesInPeriod[p]),
			Rows:            a.rows,
			TotalAmount:     a.amount,
			MeanUtilization: policy.Round2(a.util.Div(decimal.NewFromInt(int64(a.rows)))),
		})
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Period.Before(periods[j].Period) })

	return employees, periods
}
