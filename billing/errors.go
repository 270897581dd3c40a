/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The calculator distinguishes exactly two failure kinds:

  1. Structural errors - the input is not a usable table at all (empty,
     header-only, or missing a required column). The whole call fails.
  2. Row errors - a single row fails required-field or type checks. The row
     is excluded, recorded as a Warning, and processing continues. Partial
     success is the normal success path for real-world spreadsheets.

USAGE:
  Callers can branch with errors.Is:

    if errors.Is(err, billing.ErrEmptyTable) { ... }

SEE ALSO:
  - record.go: Produces Warnings for bad rows
  - calculator.go: Returns StructuralError for unusable input
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmptyTable is returned when the input has no data rows (empty or
	// header-only). An empty table is a structural failure, not a valid
	// zero-row result.
	ErrEmptyTable = errors.New("input table has no data rows")

	// ErrMissingColumn is returned when a required canonical column cannot be
	// resolved from the header through the alias table.
	ErrMissingColumn = errors.New("required column missing")

	// ErrInvalidPolicy is returned for unknown rounding or proration modes.
	ErrInvalidPolicy = errors.New("invalid calculation policy")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// StructuralError indicates the input table is unusable as a whole. Individual
// bad rows never produce a StructuralError; they degrade to Warnings.
type StructuralError struct {
	Table  string // table name, when known (e.g. file name)
	Reason string
	Err    error
}

func (e *StructuralError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s: %s", e.Table, e.Reason)
	}
	return e.Reason
}

func (e *StructuralError) Unwrap() error { return e.Err }

// MissingColumnError reports which canonical field could not be resolved and
// which aliases were tried.
type MissingColumnError struct {
	Field   Field
	Aliases []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column for %s (accepted: %v)", e.Field, e.Aliases)
}

func (e *MissingColumnError) Unwrap() error { return ErrMissingColumn }

// IsStructural reports whether the error aborts the whole calculation.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se) ||
		errors.Is(err, ErrEmptyTable) ||
		errors.Is(err, ErrMissingColumn)
}
