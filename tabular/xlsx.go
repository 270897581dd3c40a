package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX parses the first sheet of an Excel workbook into a Table.
func ReadXLSX(name string, r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("open workbook %s: %w", name, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return Table{Name: name}, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return Table{Name: name}, nil
	}
	return Table{Name: name, Header: rows[0], Rows: rows[1:]}, nil
}

// WriteXLSX renders a table as a single-sheet workbook with a bold,
// auto-filtered header and width-fitted columns.
func WriteXLSX(w io.Writer, t Table, sheet string) error {
	if sheet == "" {
		sheet = "Billing Analysis"
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for col, h := range t.Header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	if len(t.Header) > 0 {
		end, _ := excelize.CoordinatesToCellName(len(t.Header), 1)
		_ = f.SetCellStyle(sheet, "A1", end, bold)
		_ = f.AutoFilter(sheet, "A1:"+end, nil)
	}

	for r, row := range t.Rows {
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(sheet, cell, val); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	// Column width from the header and the first rows.
	for c := range t.Header {
		max := len(t.Header[c])
		for r := 0; r < len(t.Rows) && r < 50; r++ {
			if c < len(t.Rows[r]) && len(t.Rows[r][c]) > max {
				max = len(t.Rows[r][c])
			}
		}
		width := float64(max) * 0.9
		if width < 10 {
			width = 10
		}
		if width > 40 {
			width = 40
		}
		col, _ := excelize.ColumnNumberToName(c + 1)
		_ = f.SetColWidth(sheet, col, col, width)
	}

	return f.Write(w)
}
