/*
calculator.go - Normalize -> compute -> aggregate orchestration

PURPOSE:
  The single entry point callers use. Takes an in-memory table (header plus
  raw string rows), runs the full pipeline, and returns the augmented rows,
  the warning list, and the rollups.

  The calculator holds no state between runs: every invocation is
  independent, side-effect free, and deterministic.

FAILURE MODEL:
  - Empty or header-only table          -> StructuralError (ErrEmptyTable)
  - Required column unresolvable        -> StructuralError (ErrMissingColumn)
  - Anything wrong with a single row    -> Warning, row skipped
*/
package billing

// =============================================================================
// INPUT / REPORT
// =============================================================================

// Input is the raw tabular input boundary. The calculator performs no file
// I/O; parsing CSV/XLSX into an Input is the caller's job.
type Input struct {
	Name   string // for error messages, usually the file name
	Header []string
	Rows   [][]string

	// DefaultPeriod applies to tables without a period column.
	DefaultPeriod Period
}

// Report is the full output of one calculator run.
type Report struct {
	Results   []BillingResult
	Warnings  []Warning
	Employees []EmployeeSummary
	Periods   []PeriodSummary
}

// Included returns how many input rows made it into the results.
func (r *Report) Included() int { return len(r.Results) }

// =============================================================================
// CALCULATOR
// =============================================================================

type Calculator struct {
	Schema      Schema
	Policy      Policy
	Unit        Unit
	Deputations DeputationTable
}

// NewCalculator builds a calculator with the given schema and policy and the
// default deputation table. Unit defaults to hours.
func NewCalculator(schema Schema, policy Policy) *Calculator {
	return &Calculator{
		Schema:      schema,
		Policy:      policy,
		Unit:        UnitHours,
		Deputations: DefaultDeputations(),
	}
}

// Run executes the full pipeline over one input table.
func (c *Calculator) Run(input Input) (*Report, error) {
	if err := c.Policy.Validate(); err != nil {
		return nil, err
	}
	if len(input.Rows) == 0 {
		return nil, &StructuralError{Table: input.Name, Reason: "no data rows", Err: ErrEmptyTable}
	}

	layout, err := c.Schema.Resolve(input.Header)
	if err != nil {
		if se, ok := err.(*StructuralError); ok && se.Table == "" {
			se.Table = input.Name
		}
		return nil, err
	}

	unit := c.Unit
	if unit == "" {
		unit = UnitHours
	}
	norm := &Normalizer{Layout: layout, DefaultPeriod: input.DefaultPeriod, Unit: unit}

	report := &Report{}
	for i, row := range input.Rows {
		rec, warnings, ok := norm.Row(i+1, row)
		report.Warnings = append(report.Warnings, warnings...)
		if !ok {
			continue
		}
		report.Results = append(report.Results, Compute(rec, c.Policy))
	}

	report.Employees, report.Periods = Aggregate(report.Results, c.Policy)
	return report, nil
}
