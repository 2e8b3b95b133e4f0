package document

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XlsxDocument wraps an excelize workbook, opened by OpenXlsx when the
// adapter is created rather than on first access.
type XlsxDocument struct {
	Path string

	file *excelize.File
}

// OpenXlsx validates the workbook can be parsed and returns an adapter over
// it. The underlying *excelize.File stays open for the adapter's lifetime.
func OpenXlsx(path string) (*XlsxDocument, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX '%s': %w", path, err)
	}
	return &XlsxDocument{Path: path, file: f}, nil
}

// SheetNames returns sheets in workbook order.
func (x *XlsxDocument) SheetNames() []string {
	return x.file.GetSheetList()
}

// Cell reads one cell by 0-based (row, col). Returns "" for an empty or
// out-of-range cell; invalid coordinates and a sheet excelize cannot read
// (such as one that does not exist) are returned as errors.
func (x *XlsxDocument) Cell(sheet string, row, col int) (string, error) {
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return "", fmt.Errorf("invalid cell coordinates (%d,%d): %w", row, col, err)
	}
	v, err := x.file.GetCellValue(sheet, ref)
	if err != nil {
		return "", fmt.Errorf("failed to read cell %s on sheet '%s': %w", ref, sheet, err)
	}
	return v, nil
}

// Range returns the rectangle of cell values between start and end
// (inclusive, 0-based), row-major.
func (x *XlsxDocument) Range(sheet string, start, end CellRef) ([][]string, error) {
	rows, err := x.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet '%s': %w", sheet, err)
	}
	out := make([][]string, 0, end.Row-start.Row+1)
	for r := start.Row; r <= end.Row; r++ {
		var line []string
		if r < len(rows) {
			row := rows[r]
			for c := start.Col; c <= end.Col; c++ {
				if c < len(row) {
					line = append(line, row[c])
				} else {
					line = append(line, "")
				}
			}
		} else {
			for c := start.Col; c <= end.Col; c++ {
				line = append(line, "")
			}
		}
		out = append(out, line)
	}
	return out, nil
}

// NonEmptyRowCount counts rows in the sheet with at least one non-blank,
// trimmed cell.
func (x *XlsxDocument) NonEmptyRowCount(sheet string) (int, error) {
	rows, err := x.file.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet '%s': %w", sheet, err)
	}
	count := 0
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				count++
				break
			}
		}
	}
	return count, nil
}
