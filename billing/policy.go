/*
policy.go - Rounding and proration policy

PURPOSE:
  The two calculation policies the spreadsheet owners actually argue about,
  made explicit and configurable:

  ROUNDING:
    half_up   (default) 0.005 rounds away from zero. Matches what the
              original spreadsheets did.
    half_even banker's rounding, for callers reconciling against finance
              systems that use it.
    Rounding applies only to the two output figures (billing amount,
    utilization %). Intermediate math stays exact decimal.

  PRORATION (exit date inside the billing period):
    calendar_days (default) factor = exit day / days in month.
    working_days  factor = weekdays through exit day / working days in month.
                  Uses the configured working-day count when present,
                  otherwise the real weekday count.
    none          exit date inside the period does not reduce billable units.

  An exit date BEFORE the period always zeroes billable units, under every
  mode. An exit date after the period end never changes anything.

SEE ALSO:
  - compute.go: Applies these policies
  - formats/: TOML profiles that select modes by name
*/
package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MODES
// =============================================================================

type RoundingMode string

const (
	RoundHalfUp   RoundingMode = "half_up"
	RoundHalfEven RoundingMode = "half_even"
)

type ProrationMode string

const (
	ProrateCalendarDays ProrationMode = "calendar_days"
	ProrateWorkingDays  ProrationMode = "working_days"
	ProrateNone         ProrationMode = "none"
)

// =============================================================================
// POLICY
// =============================================================================

type Policy struct {
	Rounding  RoundingMode
	Proration ProrationMode

	// WorkingDays optionally fixes the working-day count per month, as the
	// billing team configures it (default 21 everywhere when set via
	// DefaultWorkingDays). When empty, real weekday counts are used.
	WorkingDays map[time.Month]int
}

// DefaultPolicy returns half-up rounding with calendar-day proration.
func DefaultPolicy() Policy {
	return Policy{Rounding: RoundHalfUp, Proration: ProrateCalendarDays}
}

// DefaultWorkingDaysCount is the flat per-month working-day count the billing
// team uses when months are not configured individually.
const DefaultWorkingDaysCount = 21

// Validate checks that the policy uses known modes.
func (p Policy) Validate() error {
	switch p.Rounding {
	case RoundHalfUp, RoundHalfEven, "":
	default:
		return fmt.Errorf("%w: rounding %q", ErrInvalidPolicy, p.Rounding)
	}
	switch p.Proration {
	case ProrateCalendarDays, ProrateWorkingDays, ProrateNone, "":
	default:
		return fmt.Errorf("%w: proration %q", ErrInvalidPolicy, p.Proration)
	}
	return nil
}

// Round2 rounds to 2 decimal places under the policy's rounding mode.
func (p Policy) Round2(d decimal.Decimal) decimal.Decimal {
	if p.Rounding == RoundHalfEven {
		return d.RoundBank(2)
	}
	return d.Round(2)
}

// WorkingDaysIn returns the working-day count for a period: the configured
// count when present, otherwise the real weekday count.
func (p Policy) WorkingDaysIn(period Period) int {
	if n, ok := p.WorkingDays[period.Month]; ok && n > 0 {
		return n
	}
	return period.Weekdays()
}
