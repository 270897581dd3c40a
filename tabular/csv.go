package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadCSV parses CSV content into a Table. The first record is the header;
// cells are trimmed. Ragged rows are tolerated (spreadsheet exports often
// drop trailing empty cells).
func ReadCSV(name string, r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv %s: %w", name, err)
	}
	if len(records) == 0 {
		return Table{Name: name}, nil
	}

	header := make([]string, len(records[0]))
	for i, cell := range records[0] {
		header[i] = strings.TrimSpace(cell)
	}
	return Table{Name: name, Header: header, Rows: records[1:]}, nil
}

// WriteCSV renders a table as CSV.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadNamed parses a file in whichever format its name indicates.
func ReadNamed(name string, r io.Reader) (Table, error) {
	if DetectFormat(name) == FormatXLSX {
		return ReadXLSX(name, r)
	}
	return ReadCSV(name, r)
}
