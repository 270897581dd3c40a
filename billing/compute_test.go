package billing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/billing-engine/billing"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func record(allocated, leave, rate string, period billing.Period) billing.AllocationRecord {
	return billing.AllocationRecord{
		RowIndex:   1,
		EmployeeID: "emp-1",
		Period:     period,
		Allocated:  billing.NewAmountFromDecimal(billing.MustParseDecimal(allocated), billing.UnitHours),
		Leave:      billing.NewAmountFromDecimal(billing.MustParseDecimal(leave), billing.UnitHours),
		Rate:       billing.MustParseDecimal(rate),
	}
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func march2025() billing.Period { return billing.Period{Year: 2025, Month: time.March} }
func april2025() billing.Period { return billing.Period{Year: 2025, Month: time.April} }

// =============================================================================
// BASIC COMPUTATION
// =============================================================================

func TestCompute_BasicBilling(t *testing.T) {
	// GIVEN: 20 allocated hours, 2 hours leave, rate 50
	// WHEN: Computing the billing result
	// THEN: billable=18, amount=900.00, utilization=90.00

	res := billing.Compute(record("20", "2", "50", march2025()), billing.DefaultPolicy())

	assert.Equal(t, "18", res.Billable.Value.String())
	assert.Equal(t, "900.00", res.Amount.StringFixed(2))
	assert.Equal(t, "90.00", res.Utilization.StringFixed(2))
	assert.False(t, res.Prorated)
}

func TestCompute_LeaveExceedsAllocation_ClampsToZero(t *testing.T) {
	// GIVEN: More leave than allocated hours
	// WHEN: Computing
	// THEN: Billable clamps to zero instead of going negative

	res := billing.Compute(record("10", "15", "50", march2025()), billing.DefaultPolicy())

	assert.True(t, res.Billable.IsZero())
	assert.True(t, res.Amount.IsZero())
	assert.True(t, res.Utilization.IsZero())
}

func TestCompute_ZeroAllocated_NoDivision(t *testing.T) {
	// GIVEN: A row with zero allocated hours
	// WHEN: Computing
	// THEN: Utilization is 0, not a division error

	res := billing.Compute(record("0", "0", "50", march2025()), billing.DefaultPolicy())

	assert.True(t, res.Utilization.IsZero())
	assert.True(t, res.Amount.IsZero())
}

func TestCompute_ZeroRate_ZeroAmount(t *testing.T) {
	res := billing.Compute(record("20", "0", "0", march2025()), billing.DefaultPolicy())

	assert.True(t, res.Amount.IsZero())
	assert.Equal(t, "100.00", res.Utilization.StringFixed(2))
}

func TestCompute_Idempotent(t *testing.T) {
	// GIVEN: The same record computed twice
	// THEN: Identical output both times

	rec := record("37.5", "4.25", "81.30", march2025())
	policy := billing.DefaultPolicy()

	a := billing.Compute(rec, policy)
	b := billing.Compute(rec, policy)

	assert.True(t, a.Amount.Equal(b.Amount))
	assert.True(t, a.Utilization.Equal(b.Utilization))
	assert.True(t, a.Billable.Value.Equal(b.Billable.Value))
}

// =============================================================================
// ROUNDING MODES
// =============================================================================

func TestCompute_RoundingHalfUp(t *testing.T) {
	// GIVEN: 1 hour at rate 2.005 (a tie at the 2nd decimal)
	// THEN: half_up rounds away from zero

	policy := billing.DefaultPolicy()
	policy.Rounding = billing.RoundHalfUp

	res := billing.Compute(record("1", "0", "2.005", march2025()), policy)
	assert.Equal(t, "2.01", res.Amount.StringFixed(2))
}

func TestCompute_RoundingHalfEven(t *testing.T) {
	// GIVEN: The same tie under half_even
	// THEN: Rounds to the even neighbor

	policy := billing.DefaultPolicy()
	policy.Rounding = billing.RoundHalfEven

	res := billing.Compute(record("1", "0", "2.005", march2025()), policy)
	assert.Equal(t, "2.00", res.Amount.StringFixed(2))
}

// =============================================================================
// EXIT-DATE PRORATION
// =============================================================================

func TestCompute_ExitMidMonth_CalendarDays(t *testing.T) {
	// GIVEN: Exit on April 15 (April has 30 days), 20 hours at rate 50
	// WHEN: Prorating by calendar days
	// THEN: Half the billable units remain

	rec := record("20", "0", "50", april2025())
	rec.ExitDate = date(2025, time.April, 15)

	res := billing.Compute(rec, billing.DefaultPolicy())

	assert.True(t, res.Prorated)
	assert.Equal(t, "10", res.Billable.Value.String())
	assert.Equal(t, "500.00", res.Amount.StringFixed(2))
	assert.Equal(t, "50.00", res.Utilization.StringFixed(2))
}

func TestCompute_ExitMidMonth_WorkingDays(t *testing.T) {
	// GIVEN: 20 configured working days in April 2025, exit April 10.
	//        April 1 2025 is a Tuesday, so days 1-10 hold 8 weekdays.
	// THEN: factor = 8/20

	policy := billing.DefaultPolicy()
	policy.Proration = billing.ProrateWorkingDays
	policy.WorkingDays = map[time.Month]int{time.April: 20}

	rec := record("20", "0", "50", april2025())
	rec.ExitDate = date(2025, time.April, 10)

	res := billing.Compute(rec, policy)

	assert.True(t, res.Prorated)
	assert.Equal(t, "8", res.Billable.Value.String())
	assert.Equal(t, "400.00", res.Amount.StringFixed(2))
}

func TestCompute_ProrationDisabled(t *testing.T) {
	// GIVEN: A mid-month exit with proration turned off
	// THEN: Full billable units, not marked prorated

	policy := billing.DefaultPolicy()
	policy.Proration = billing.ProrateNone

	rec := record("20", "0", "50", april2025())
	rec.ExitDate = date(2025, time.April, 15)

	res := billing.Compute(rec, policy)

	assert.False(t, res.Prorated)
	assert.Equal(t, "1000.00", res.Amount.StringFixed(2))
}

func TestCompute_ExitBeforePeriod_ZeroesRow(t *testing.T) {
	// GIVEN: An exit date before the billing period even started
	// THEN: Nothing is billable regardless of proration mode

	rec := record("20", "0", "50", april2025())
	rec.ExitDate = date(2025, time.February, 28)

	res := billing.Compute(rec, billing.DefaultPolicy())

	assert.True(t, res.Prorated)
	assert.True(t, res.Billable.IsZero())
	assert.True(t, res.Amount.IsZero())
}

func TestCompute_ExitAfterPeriod_NoOp(t *testing.T) {
	rec := record("20", "0", "50", april2025())
	rec.ExitDate = date(2025, time.June, 1)

	res := billing.Compute(rec, billing.DefaultPolicy())

	assert.False(t, res.Prorated)
	assert.Equal(t, "1000.00", res.Amount.StringFixed(2))
}

func TestCompute_ExitOnLastDay_NoOp(t *testing.T) {
	// GIVEN: Exit on the period's last calendar day
	// THEN: Full month, no proration flag

	rec := record("20", "0", "50", april2025())
	rec.ExitDate = date(2025, time.April, 30)

	res := billing.Compute(rec, billing.DefaultPolicy())

	assert.False(t, res.Prorated)
	assert.Equal(t, "1000.00", res.Amount.StringFixed(2))
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestAggregate_OrderIndependent(t *testing.T) {
	// GIVEN: The same results in two different orders
	// THEN: Identical summaries

	policy := billing.DefaultPolicy()
	results := []billing.BillingResult{
		billing.Compute(record("20", "0", "50", march2025()), policy),
		billing.Compute(record("10", "2", "75", march2025()), policy),
		billing.Compute(record("30", "5", "60", april2025()), policy),
	}
	reversed := []billing.BillingResult{results[2], results[1], results[0]}

	emp1, per1 := billing.Aggregate(results, policy)
	emp2, per2 := billing.Aggregate(reversed, policy)

	assert.Equal(t, emp1, emp2)
	assert.Equal(t, per1, per2)
}

func TestAggregate_SumsAndMeans(t *testing.T) {
	// GIVEN: Two rows for one employee in one period
	//        (100% and 50% utilization, 500 + 250 billed)
	// THEN: total=750.00, mean utilization=75.00

	policy := billing.DefaultPolicy()
	r1 := billing.Compute(record("10", "0", "50", march2025()), policy)
	r2 := billing.Compute(record("10", "5", "50", march2025()), policy)

	employees, periods := billing.Aggregate([]billing.BillingResult{r1, r2}, policy)

	require.Len(t, employees, 1)
	assert.Equal(t, 2, employees[0].Rows)
	assert.Equal(t, "750.00", employees[0].TotalAmount.StringFixed(2))
	assert.Equal(t, "75.00", employees[0].MeanUtilization.StringFixed(2))

	require.Len(t, periods, 1)
	assert.Equal(t, 1, periods[0].Employees)
	assert.Equal(t, "750.00", periods[0].TotalAmount.StringFixed(2))
}

func TestAggregate_SortedByPeriodThenEmployee(t *testing.T) {
	policy := billing.DefaultPolicy()

	mk := func(id string, p billing.Period) billing.BillingResult {
		rec := record("10", "0", "50", p)
		rec.EmployeeID = billing.EmployeeID(id)
		return billing.Compute(rec, policy)
	}

	employees, periods := billing.Aggregate([]billing.BillingResult{
		mk("zed", april2025()),
		mk("zed", march2025()),
		mk("amy", march2025()),
	}, policy)

	require.Len(t, employees, 3)
	assert.Equal(t, billing.EmployeeID("amy"), employees[0].EmployeeID)
	assert.Equal(t, billing.EmployeeID("zed"), employees[1].EmployeeID)
	assert.Equal(t, march2025(), employees[1].Period)
	assert.Equal(t, april2025(), employees[2].Period)

	require.Len(t, periods, 2)
	assert.True(t, periods[0].Period.Before(periods[1].Period))
}

// =============================================================================
// AMOUNT HELPERS
// =============================================================================

func TestAmount_ClampZero(t *testing.T) {
	neg := billing.NewAmount(-5, billing.UnitHours)
	assert.True(t, neg.ClampZero().IsZero())

	pos := billing.NewAmount(5, billing.UnitHours)
	assert.True(t, pos.ClampZero().Value.Equal(decimal.NewFromInt(5)))
}
