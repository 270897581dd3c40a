/*
record.go - Allocation records, results, warnings, and row normalization

PURPOSE:
  Converts raw table rows into canonical AllocationRecords. Every validation
  failure on a row is recorded as a Warning and the row is skipped; the
  normalizer itself never fails once the header has resolved.

VALIDATION RULES (per row):
  - employee id must be non-blank
  - allocated and rate must parse as numbers and be >= 0
  - leave must parse as a number when present and be >= 0
  - exit date must parse as a date when present
  Leave exceeding allocation is NOT a row error; compute clamps it.

SEE ALSO:
  - schema.go: Header resolution that produces the Layout used here
  - compute.go: Consumes AllocationRecords
*/
package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ALLOCATION RECORD - One normalized input row
// =============================================================================

type AllocationRecord struct {
	RowIndex   int // 1-based data row index in the source table
	EmployeeID EmployeeID
	Name       string
	Project    string
	Deputation Deputation
	Status     string
	Period     Period
	Allocated  Amount
	Rate       decimal.Decimal // currency per unit
	Leave      Amount
	StartDate  *time.Time
	ExitDate   *time.Time
	RateCode   string // cost-rate card code, carried through untouched
}

// =============================================================================
// BILLING RESULT - One computed output row
// =============================================================================

type BillingResult struct {
	AllocationRecord

	Billable    Amount
	Amount      decimal.Decimal // billing amount, rounded to 2 decimals
	Utilization decimal.Decimal // percent in [0, 100], rounded to 2 decimals
	Prorated    bool            // exit date reduced billable units
}

// =============================================================================
// WARNING - Recoverable row-level validation failure
// =============================================================================

type Warning struct {
	RowIndex   int
	EmployeeID EmployeeID // best-effort; may be empty if the id itself is bad
	Field      Field
	Message    string
}

func (w Warning) String() string {
	who := string(w.EmployeeID)
	if who == "" {
		who = fmt.Sprintf("row %d", w.RowIndex)
	}
	return fmt.Sprintf("%s: %s", who, w.Message)
}

// =============================================================================
// NORMALIZER - Raw rows to AllocationRecords
// =============================================================================

// Normalizer converts raw rows into AllocationRecords using a resolved Layout.
type Normalizer struct {
	Layout        Layout
	DefaultPeriod Period // used when the table carries no period column
	Unit          Unit
}

// Row normalizes a single raw row. ok is false when the row must be skipped,
// in which case at least one warning describes why.
func (n *Normalizer) Row(index int, row []string) (rec AllocationRecord, warnings []Warning, ok bool) {
	get := func(f Field) string {
		i, present := n.Layout[f]
		if !present || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec = AllocationRecord{
		RowIndex:   index,
		EmployeeID: EmployeeID(get(FieldEmployeeID)),
		Name:       get(FieldName),
		Project:    get(FieldProject),
		Deputation: Deputation(strings.ToUpper(get(FieldDeputation))),
		Status:     get(FieldStatus),
		RateCode:   get(FieldRateCode),
	}

	warn := func(f Field, format string, args ...any) {
		warnings = append(warnings, Warning{
			RowIndex:   index,
			EmployeeID: rec.EmployeeID,
			Field:      f,
			Message:    fmt.Sprintf(format, args...),
		})
	}

	if rec.EmployeeID == "" {
		// Fall back to the name column so the warning identifies someone.
		rec.EmployeeID = EmployeeID(rec.Name)
		if rec.EmployeeID == "" {
			warn(FieldEmployeeID, "missing employee identifier")
			return rec, warnings, false
		}
	}

	rec.Period = n.DefaultPeriod
	if raw := get(FieldPeriod); raw != "" {
		p, err := ParsePeriod(raw)
		if err != nil {
			warn(FieldPeriod, "invalid period %q", raw)
			return rec, warnings, false
		}
		rec.Period = p
	}
	if rec.Period.IsZero() {
		warn(FieldPeriod, "no billing period for row")
		return rec, warnings, false
	}

	allocated, err := parseNumber(get(FieldAllocated))
	if err != nil {
		warn(FieldAllocated, "allocated units %q is not numeric", get(FieldAllocated))
		return rec, warnings, false
	}
	if allocated.IsNegative() {
		warn(FieldAllocated, "allocated units must not be negative")
		return rec, warnings, false
	}
	rec.Allocated = NewAmountFromDecimal(allocated, n.Unit)

	rate, err := parseNumber(get(FieldRate))
	if err != nil {
		warn(FieldRate, "rate %q is not numeric", get(FieldRate))
		return rec, warnings, false
	}
	if rate.IsNegative() {
		warn(FieldRate, "rate must not be negative")
		return rec, warnings, false
	}
	rec.Rate = rate

	rec.Leave = rec.Allocated.Zero()
	if raw := get(FieldLeave); raw != "" {
		leave, err := parseNumber(raw)
		if err != nil {
			warn(FieldLeave, "leave units %q is not numeric", raw)
			return rec, warnings, false
		}
		if leave.IsNegative() {
			warn(FieldLeave, "leave units must not be negative")
			return rec, warnings, false
		}
		rec.Leave = NewAmountFromDecimal(leave, n.Unit)
	}

	if raw := get(FieldStartDate); raw != "" {
		if t, err := ParseDate(raw); err == nil {
			rec.StartDate = &t
		}
		// A malformed start date is cosmetic; the row still computes.
	}

	if raw := get(FieldExitDate); raw != "" {
		t, err := ParseDate(raw)
		if err != nil {
			warn(FieldExitDate, "invalid exit date %q", raw)
			return rec, warnings, false
		}
		rec.ExitDate = &t
	}

	return rec, warnings, true
}

// rosterRow normalizes a row for schedule expansion: employee id and rate are
// required, allocated/leave/period are optional and default to zero.
func (n *Normalizer) rosterRow(index int, row []string) (rec AllocationRecord, warnings []Warning, ok bool) {
	get := func(f Field) string {
		i, present := n.Layout[f]
		if !present || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec = AllocationRecord{
		RowIndex:   index,
		EmployeeID: EmployeeID(get(FieldEmployeeID)),
		Name:       get(FieldName),
		Project:    get(FieldProject),
		Deputation: Deputation(strings.ToUpper(get(FieldDeputation))),
		Status:     get(FieldStatus),
		RateCode:   get(FieldRateCode),
		Period:     n.DefaultPeriod,
	}

	warn := func(f Field, format string, args ...any) {
		warnings = append(warnings, Warning{
			RowIndex:   index,
			EmployeeID: rec.EmployeeID,
			Field:      f,
			Message:    fmt.Sprintf(format, args...),
		})
	}

	if rec.EmployeeID == "" {
		rec.EmployeeID = EmployeeID(rec.Name)
		if rec.EmployeeID == "" {
			warn(FieldEmployeeID, "missing employee identifier")
			return rec, warnings, false
		}
	}

	rate, err := parseNumber(get(FieldRate))
	if err != nil {
		warn(FieldRate, "rate %q is not numeric", get(FieldRate))
		return rec, warnings, false
	}
	if rate.IsNegative() {
		warn(FieldRate, "rate must not be negative")
		return rec, warnings, false
	}
	rec.Rate = rate

	rec.Allocated = Amount{Unit: n.Unit}
	rec.Leave = Amount{Unit: n.Unit}
	if raw := get(FieldAllocated); raw != "" {
		if v, err := parseNumber(raw); err == nil && !v.IsNegative() {
			rec.Allocated = NewAmountFromDecimal(v, n.Unit)
		}
	}

	if raw := get(FieldStartDate); raw != "" {
		if t, err := ParseDate(raw); err == nil {
			rec.StartDate = &t
		}
	}
	if raw := get(FieldExitDate); raw != "" {
		if t, err := ParseDate(raw); err == nil {
			rec.ExitDate = &t
		}
		// Rosters routinely carry junk in the end-date column; a schedule
		// run only honors parseable dates.
	}

	return rec, warnings, true
}

func parseNumber(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty value")
	}
	// Spreadsheets export thousands separators; strip them before parsing.
	s = strings.ReplaceAll(s, ",", "")
	return decimal.NewFromString(s)
}
