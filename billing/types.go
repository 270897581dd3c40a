/*
Package billing provides the core billing and utilization calculator.

PURPOSE:
  This package contains the pure, single-pass calculation engine behind the
  billing analyzer. It consumes normalized allocation rows (employee, period,
  allocated units, rate, leave, exit date), computes billable units, billing
  amounts and utilization percentages, and aggregates per employee and per
  period. It performs no I/O: tables come in, augmented tables and warnings
  go back out.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 160 hours, 18 days)
  - Money: A currency amount (always 2-decimal on output)
  - EmployeeID: Type-safe employee identifier
  - Deputation: Work-location category driving factors and day length

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Purity: Identical input always yields identical output
  3. Partial success: Bad rows become warnings, never hard failures

USAGE:
  calc := billing.NewCalculator(billing.DefaultSchema(), billing.DefaultPolicy())
  report, err := calc.Run(table)

SEE ALSO:
  - schema.go: Column aliasing and header resolution
  - compute.go: Billable units, amounts, utilization
  - aggregate.go: Per-employee and per-period rollups
*/
package billing

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitHours Unit = "hours"
	UnitDays  Unit = "days"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromDecimal(value decimal.Decimal, unit Unit) Amount {
	return Amount{Value: value, Unit: unit}
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }

// ClampZero floors a negative amount at zero. Leave exceeding allocation must
// never produce negative billable units.
func (a Amount) ClampZero() Amount {
	if a.IsNegative() {
		return a.Zero()
	}
	return a
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string

// =============================================================================
// DEPUTATION - Work-location category
// =============================================================================

// Deputation determines the billing factor and standard day length for an
// employee. Values are matched case-insensitively on input.
type Deputation string

const (
	DeputationOnsite    Deputation = "ONSITE"
	DeputationOffshore  Deputation = "OFFSHORE"
	DeputationNearshore Deputation = "NEARSHORE"
	DeputationNone      Deputation = ""
)

// DeputationProfile bundles the billing factor and hours-per-day for one
// deputation category.
type DeputationProfile struct {
	Factor      decimal.Decimal // multiplier applied to billed hours
	HoursPerDay decimal.Decimal // standard working hours per day
}

// DeputationTable maps deputation categories to their profiles.
type DeputationTable map[Deputation]DeputationProfile

// DefaultDeputations returns the standard factor/hours table.
func DefaultDeputations() DeputationTable {
	return DeputationTable{
		DeputationOffshore:  {Factor: dec("0.88"), HoursPerDay: dec("8.75")},
		DeputationOnsite:    {Factor: dec("0.95"), HoursPerDay: dec("8")},
		DeputationNearshore: {Factor: dec("0.90"), HoursPerDay: dec("9")},
	}
}

// Profile returns the profile for a deputation, falling back to a neutral
// factor of 1 and an 8-hour day for unknown categories.
func (t DeputationTable) Profile(d Deputation) DeputationProfile {
	if p, ok := t[d]; ok {
		return p
	}
	return DeputationProfile{Factor: decimal.NewFromInt(1), HoursPerDay: decimal.NewFromInt(8)}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// MustParseDecimal parses a decimal string, returning zero on failure.
func MustParseDecimal(s string) decimal.Decimal {
	return dec(s)
}
