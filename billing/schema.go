/*
schema.go - Column aliasing and header resolution

PURPOSE:
  Allocation spreadsheets arrive in several CSV formats with differing column
  names for the same semantic fields ("NAME" vs "Resource", "Rate" vs
  "Average/Flat-lined Rate"). The Schema maps raw header names onto canonical
  fields through a configurable alias table, so the rest of the engine only
  ever sees canonical fields.

MATCHING RULES:
  - Header cells are trimmed of surrounding whitespace.
  - Aliases match case-insensitively; the default table still lists the
    spellings seen in the wild for documentation value.
  - The first header matching a field wins; duplicate headers are ignored.

FAILURE:
  A required field with no matching header is a structural failure
  (the whole call aborts). Optional fields simply stay unset.

SEE ALSO:
  - record.go: Uses the resolved layout to build AllocationRecords
  - formats/: TOML profiles that override the default alias table
*/
package billing

import "strings"

// =============================================================================
// CANONICAL FIELDS
// =============================================================================

type Field string

const (
	FieldEmployeeID Field = "employee_id"
	FieldName       Field = "name"
	FieldProject    Field = "project"
	FieldDeputation Field = "deputation"
	FieldStatus     Field = "status"
	FieldPeriod     Field = "period"
	FieldAllocated  Field = "allocated"
	FieldRate       Field = "rate"
	FieldLeave      Field = "leave"
	FieldStartDate  Field = "start_date"
	FieldExitDate   Field = "exit_date"
	FieldRateCode   Field = "rate_code"
)

// =============================================================================
// SCHEMA - Alias table plus required-field set
// =============================================================================

type Schema struct {
	// Aliases maps raw column names to canonical fields. Keys are matched
	// case-insensitively after trimming.
	Aliases map[string]Field

	// Required lists the canonical fields that must resolve from the header.
	Required []Field
}

// DefaultSchema returns the alias table covering the known spreadsheet
// variants.
func DefaultSchema() Schema {
	return Schema{
		Aliases: map[string]Field{
			"Employee":    FieldEmployeeID,
			"Employee ID": FieldEmployeeID,
			"NEW_EMP_ID":  FieldEmployeeID,
			"Emp ID":      FieldEmployeeID,
			"ID":          FieldEmployeeID,

			"Resource": FieldName,
			"NAME":     FieldName,

			"Project":   FieldProject,
			"Proj Desc": FieldProject,

			"Deputation": FieldDeputation,

			"Status":          FieldStatus,
			"Empl Status":     FieldStatus,
			"Employee Status": FieldStatus,

			"Period":        FieldPeriod,
			"Billing Month": FieldPeriod,
			"Month":         FieldPeriod,

			"Allocated":       FieldAllocated,
			"Allocated Hours": FieldAllocated,
			"Allocated_Hours": FieldAllocated,
			"Hours":           FieldAllocated,
			"Days":            FieldAllocated,
			"Allocation":      FieldAllocated,

			"Rate":                    FieldRate,
			"Average Rate":            FieldRate,
			"Average/Flat-lined Rate": FieldRate,

			"Leave":       FieldLeave,
			"Leave Days":  FieldLeave,
			"Leave_Units": FieldLeave,
			"Leave Hours": FieldLeave,

			"Start Date": FieldStartDate,

			"End date":  FieldExitDate,
			"End Date":  FieldExitDate,
			"Exit Date": FieldExitDate,

			"TSR":      FieldRateCode,
			"TSR Code": FieldRateCode,
			"PPM ID":   FieldRateCode,
		},
		Required: []Field{FieldEmployeeID, FieldAllocated, FieldRate},
	}
}

// Layout is the result of resolving a header: column index per canonical field.
type Layout map[Field]int

// Has reports whether the field resolved to a column.
func (l Layout) Has(f Field) bool { _, ok := l[f]; return ok }

// Resolve maps a raw header onto canonical fields. Returns a structural error
// if any required field is missing.
func (s Schema) Resolve(header []string) (Layout, error) {
	// Build a folded lookup once. Aliases that differ only in case must map
	// to the same field; the default table satisfies this.
	folded := make(map[string]Field, len(s.Aliases))
	for alias, field := range s.Aliases {
		folded[strings.ToLower(strings.TrimSpace(alias))] = field
	}

	layout := make(Layout)
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		field, ok := folded[key]
		if !ok {
			continue
		}
		if _, seen := layout[field]; seen {
			continue // first match wins
		}
		layout[field] = i
	}

	for _, req := range s.Required {
		if !layout.Has(req) {
			return nil, &StructuralError{
				Reason: "unresolvable header",
				Err:    &MissingColumnError{Field: req, Aliases: s.aliasesFor(req)},
			}
		}
	}
	return layout, nil
}

func (s Schema) aliasesFor(f Field) []string {
	var out []string
	for alias, field := range s.Aliases {
		if field == f {
			out = append(out, alias)
		}
	}
	return out
}
