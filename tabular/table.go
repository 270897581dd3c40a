/*
Package tabular moves tables in and out of the engine.

PURPOSE:
  The calculator core is I/O free; this package is the collaborator that
  parses uploaded CSV/XLSX files into in-memory tables and renders result
  tables back out. CSV goes through encoding/csv, XLSX through excelize.

SEE ALSO:
  - csv.go: CSV reader/writer
  - xlsx.go: Excel reader and styled writer
*/
package tabular

import (
	"path/filepath"
	"strings"
)

// Table is an in-memory table: one header row plus raw string data rows.
type Table struct {
	Name   string // source name, usually the file name
	Header []string
	Rows   [][]string
}

// IsEmpty reports whether the table has no data rows.
func (t Table) IsEmpty() bool { return len(t.Rows) == 0 }

// Format identifies a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks a format from a file name, defaulting to CSV.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}
