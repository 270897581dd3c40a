/*
schedule.go - Twelve-month planned/actual/billing expansion

PURPOSE:
  The monthly view the billing team reviews: every roster row expanded into
  planned hours, actual hours, and billing per month of a year, with totals
  and utilization. Planned hours come from the working-day configuration and
  the deputation's standard day length; actuals default to planned and are
  adjusted for exits, leave, and an optional actuals-override table.

ADJUSTMENTS:
  Exit:        exit month gets a partial actual (exit day / working days),
               later months zero. Planned stays full in the exit month and
               zeroes afterwards.
  Leave:       the leave month scales actual by
               (working days - leave days) / working days.
  Replacement: an extra row for the joiner. Zero before the join month, a
               partial join month ((working days - join day + 1) / working
               days), full months after.
  Overrides:   actual hours supplied per employee+month (from a second
               "updated actuals" table) win over every calculated adjustment
               and mark the row as updated.

BILLING:
  monthly billing = round2(actual * deputation factor * rate)
  row billing     = round2(total actual * deputation factor * rate)
  utilization %   = round2(total actual / total planned * 100), 0 when no
                    planned hours.

SEE ALSO:
  - compute.go: The single-period calculation this expands on
  - rates/: Cost-rate and margin columns layered on schedule rows
*/
package billing

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// ScheduleConfig drives the monthly expansion.
type ScheduleConfig struct {
	Year        int
	Policy      Policy
	Deputations DeputationTable

	// WorkingDays per month; months absent fall back to
	// DefaultWorkingDaysCount.
	WorkingDays map[time.Month]int
}

func (c ScheduleConfig) workingDays(m time.Month) int {
	if n, ok := c.WorkingDays[m]; ok && n > 0 {
		return n
	}
	return DefaultWorkingDaysCount
}

// Adjustment captures the manual per-employee corrections the billing team
// enters before a run.
type Adjustment struct {
	ExitDate    *time.Time
	LeaveMonth  time.Month // zero = no leave adjustment
	LeaveDays   int
	Replacement *Replacement
}

// Replacement describes an employee joining mid-year to take over a seat.
type Replacement struct {
	EmployeeID EmployeeID
	Name       string
	JoinDate   time.Time
}

// ActualOverrides holds actual hours supplied externally, keyed by employee
// then month.
type ActualOverrides map[EmployeeID]map[time.Month]decimal.Decimal

// =============================================================================
// OUTPUT
// =============================================================================

// MonthCell is one month of one schedule row.
type MonthCell struct {
	Planned decimal.Decimal
	Actual  decimal.Decimal
	Billing decimal.Decimal
}

// ScheduleRow is one employee's full-year schedule.
type ScheduleRow struct {
	EmployeeID EmployeeID
	Name       string
	Project    string
	Deputation Deputation
	Status     string
	Rate       decimal.Decimal
	RateCode   string
	StartDate  *time.Time
	ExitDate   *time.Time

	Months map[time.Month]MonthCell

	TotalPlanned       decimal.Decimal
	TotalActual        decimal.Decimal
	PlannedActualDiff  decimal.Decimal
	Utilization        decimal.Decimal
	BillingAmount      decimal.Decimal
	UpdatedFromActuals bool
	IsReplacement      bool
}

// =============================================================================
// EXPANSION
// =============================================================================

// BuildSchedule expands roster records into monthly schedule rows.
// Replacement rows are appended directly after the row they replace.
func BuildSchedule(records []AllocationRecord, cfg ScheduleConfig, adjustments map[EmployeeID]Adjustment, overrides ActualOverrides) []ScheduleRow {
	if cfg.Deputations == nil {
		cfg.Deputations = DefaultDeputations()
	}

	var rows []ScheduleRow
	for _, rec := range records {
		adj := adjustments[rec.EmployeeID]
		if adj.ExitDate == nil && rec.ExitDate != nil && rec.ExitDate.Year() == cfg.Year {
			// Exit dates already present in the roster behave like an
			// entered adjustment.
			adj.ExitDate = rec.ExitDate
		}

		row := buildRow(rec, cfg, adj, overrides[rec.EmployeeID])
		rows = append(rows, row)

		if adj.Replacement != nil {
			rows = append(rows, buildReplacementRow(rec, cfg, *adj.Replacement))
		}
	}
	return rows
}

func buildRow(rec AllocationRecord, cfg ScheduleConfig, adj Adjustment, override map[time.Month]decimal.Decimal) ScheduleRow {
	profile := cfg.Deputations.Profile(rec.Deputation)

	row := ScheduleRow{
		EmployeeID: rec.EmployeeID,
		Name:       rec.Name,
		Project:    rec.Project,
		Deputation: rec.Deputation,
		Status:     rec.Status,
		Rate:       rec.Rate,
		RateCode:   rec.RateCode,
		StartDate:  rec.StartDate,
		ExitDate:   adj.ExitDate,
		Months:     make(map[time.Month]MonthCell, 12),
	}
	if adj.ExitDate != nil {
		row.Status = "Inactive"
	}

	for m := time.January; m <= time.December; m++ {
		wd := decimal.NewFromInt(int64(cfg.workingDays(m)))
		std := wd.Mul(profile.HoursPerDay)

		planned := std
		actual := std
		fromOverride := false

		if v, ok := override[m]; ok {
			actual = v
			fromOverride = true
			row.UpdatedFromActuals = true
		}

		if adj.ExitDate != nil && adj.ExitDate.Year() == cfg.Year {
			exitMonth := adj.ExitDate.Month()
			switch {
			case m == exitMonth:
				// Planned stays full for the exit month.
				if !fromOverride {
					worked := decimal.NewFromInt(int64(adj.ExitDate.Day()))
					actual = cfg.Policy.Round2(worked.Div(wd).Mul(std))
				}
			case m > exitMonth:
				planned = decimal.Zero
				if !fromOverride {
					actual = decimal.Zero
				}
			}
		} else if !fromOverride && adj.LeaveMonth != 0 && m == adj.LeaveMonth {
			remaining := wd.Sub(decimal.NewFromInt(int64(adj.LeaveDays)))
			if remaining.IsNegative() {
				remaining = decimal.Zero
			}
			actual = cfg.Policy.Round2(std.Mul(remaining).Div(wd))
		}

		row.Months[m] = MonthCell{
			Planned: planned,
			Actual:  actual,
			Billing: cfg.Policy.Round2(actual.Mul(profile.Factor).Mul(rec.Rate)),
		}
		row.TotalPlanned = row.TotalPlanned.Add(planned)
		row.TotalActual = row.TotalActual.Add(actual)
	}

	finishRow(&row, cfg.Policy, profile.Factor)
	return row
}

func buildReplacementRow(rec AllocationRecord, cfg ScheduleConfig, rep Replacement) ScheduleRow {
	profile := cfg.Deputations.Profile(rec.Deputation)
	join := rep.JoinDate

	row := ScheduleRow{
		EmployeeID:    rep.EmployeeID,
		Name:          rep.Name,
		Project:       rec.Project,
		Deputation:    rec.Deputation,
		Status:        "Active",
		Rate:          rec.Rate,
		RateCode:      rec.RateCode,
		StartDate:     &join,
		ExitDate:      rec.ExitDate,
		Months:        make(map[time.Month]MonthCell, 12),
		IsReplacement: true,
	}

	for m := time.January; m <= time.December; m++ {
		wd := decimal.NewFromInt(int64(cfg.workingDays(m)))
		std := wd.Mul(profile.HoursPerDay)

		var planned, actual decimal.Decimal
		switch {
		case join.Year() == cfg.Year && m < join.Month():
			// Before the join month: nothing.
		case join.Year() == cfg.Year && m == join.Month():
			planned = std
			worked := wd.Sub(decimal.NewFromInt(int64(join.Day() - 1)))
			if worked.IsNegative() {
				worked = decimal.Zero
			}
			actual = cfg.Policy.Round2(worked.Div(wd).Mul(std))
		default:
			planned = std
			actual = std
		}

		row.Months[m] = MonthCell{
			Planned: planned,
			Actual:  actual,
			Billing: cfg.Policy.Round2(actual.Mul(profile.Factor).Mul(rec.Rate)),
		}
		row.TotalPlanned = row.TotalPlanned.Add(planned)
		row.TotalActual = row.TotalActual.Add(actual)
	}

	finishRow(&row, cfg.Policy, profile.Factor)
	return row
}

func finishRow(row *ScheduleRow, policy Policy, factor decimal.Decimal) {
	row.PlannedActualDiff = policy.Round2(row.TotalPlanned.Sub(row.TotalActual))
	if row.TotalPlanned.IsZero() {
		row.Utilization = decimal.Zero
	} else {
		row.Utilization = policy.Round2(row.TotalActual.Div(row.TotalPlanned).Mul(hundred))
	}
	row.BillingAmount = policy.Round2(row.TotalActual.Mul(factor).Mul(row.Rate))
}

// NormalizeRoster prepares records for schedule expansion. Unlike the period
// calculator, a roster only requires an employee id and a rate: planned hours
// come from the working-day configuration, not an allocated column. Bad rows
// degrade to warnings exactly as in the period pipeline.
func NormalizeRoster(input Input, schema Schema) ([]AllocationRecord, []Warning, error) {
	if len(input.Rows) == 0 {
		return nil, nil, &StructuralError{Table: input.Name, Reason: "no data rows", Err: ErrEmptyTable}
	}

	rosterSchema := schema
	rosterSchema.Required = []Field{FieldEmployeeID, FieldRate}
	layout, err := rosterSchema.Resolve(input.Header)
	if err != nil {
		if se, ok := err.(*StructuralError); ok && se.Table == "" {
			se.Table = input.Name
		}
		return nil, nil, err
	}

	norm := &Normalizer{Layout: layout, DefaultPeriod: input.DefaultPeriod, Unit: UnitHours}

	var records []AllocationRecord
	var warnings []Warning
	for i, row := range input.Rows {
		rec, ws, ok := norm.rosterRow(i+1, row)
		warnings = append(warnings, ws...)
		if ok {
			records = append(records, rec)
		}
	}
	return records, warnings, nil
}

// ParseActualOverrides reads an "updated actuals" table: an employee column
// (resolved through the schema's aliases) plus one column per month, headed
// by the month name or "<Month> Actual". Cells that are blank or non-numeric
// leave that month untouched.
func ParseActualOverrides(input Input, schema Schema) (ActualOverrides, error) {
	if len(input.Rows) == 0 {
		return nil, &StructuralError{Table: input.Name, Reason: "no data rows", Err: ErrEmptyTable}
	}

	idSchema := schema
	idSchema.Required = []Field{FieldEmployeeID}
	layout, err := idSchema.Resolve(input.Header)
	if err != nil {
		if se, ok := err.(*StructuralError); ok && se.Table == "" {
			se.Table = input.Name
		}
		return nil, err
	}
	idIdx := layout[FieldEmployeeID]

	monthCols := make(map[int]time.Month)
	for i, cell := range input.Header {
		name := strings.TrimSpace(cell)
		name = strings.TrimSuffix(name, " Actual")
		for m := time.January; m <= time.December; m++ {
			if strings.EqualFold(name, m.String()) || strings.EqualFold(name, m.String()[:3]) {
				monthCols[i] = m
				break
			}
		}
	}
	if len(monthCols) == 0 {
		return nil, &StructuralError{Table: input.Name, Reason: "no month columns", Err: ErrMissingColumn}
	}

	overrides := make(ActualOverrides)
	for _, row := range input.Rows {
		if idIdx >= len(row) {
			continue
		}
		id := EmployeeID(strings.TrimSpace(row[idIdx]))
		if id == "" {
			continue
		}
		for i, m := range monthCols {
			if i >= len(row) {
				continue
			}
			v, err := parseNumber(strings.TrimSpace(row[i]))
			if err != nil || v.IsNegative() {
				continue
			}
			if overrides[id] == nil {
				overrides[id] = make(map[time.Month]decimal.Decimal, len(monthCols))
			}
			overrides[id][m] = v
		}
	}
	return overrides, nil
}

// MonthsOrdered returns January..December, for stable column rendering.
func MonthsOrdered() []time.Month {
	months := make([]time.Month, 0, 12)
	for m := time.January; m <= time.December; m++ {
		months = append(months, m)
	}
	return months
}

// SortSchedule orders rows by employee id, keeping replacement rows after
// their predecessors when ids tie.
func SortSchedule(rows []ScheduleRow) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].EmployeeID < rows[j].EmployeeID })
}
