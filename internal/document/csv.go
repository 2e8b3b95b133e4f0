package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eltorocorp/permissivecsv"
)

// CsvDocument defers all reads to the backing file; nothing is cached, so
// repeated calls always reflect the file's current contents (matching
// original_source/src/document/csv.rs, whose Headers/Rows re-open the file
// on every call).
type CsvDocument struct {
	Path string
}

// OpenCsv validates the file is readable and has at least a header row.
func OpenCsv(path string) (*CsvDocument, error) {
	if _, err := headersOf(path); err != nil {
		return nil, err
	}
	return &CsvDocument{Path: path}, nil
}

// VirtualSheetNames returns the synthetic sheet names a CSV exposes so
// spreadsheet-structural assertions can target it uniformly with XLSX.
func (c *CsvDocument) VirtualSheetNames() []string {
	stem := strings.TrimSuffix(filepath.Base(c.Path), filepath.Ext(c.Path))
	return []string{"Sheet1", "csv", stem}
}

func (c *CsvDocument) Headers() ([]string, error) { return headersOf(c.Path) }

func (c *CsvDocument) Rows() ([][]string, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV '%s': %w", c.Path, err)
	}
	defer f.Close()

	scnr := permissivecsv.NewScanner(f, permissivecsv.HeaderCheckAssumeHeaderExists)
	var rows [][]string
	for scnr.Scan() {
		if scnr.RecordIsHeader() {
			continue
		}
		rows = append(rows, scnr.CurrentRecord())
	}
	return rows, nil
}

func headersOf(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV '%s': %w", path, err)
	}
	defer f.Close()

	scnr := permissivecsv.NewScanner(f, permissivecsv.HeaderCheckAssumeHeaderExists)
	if !scnr.Scan() {
		return nil, fmt.Errorf("CSV '%s' has no header row", path)
	}
	return scnr.CurrentRecord(), nil
}

// CellByColumn resolves columnName against the header row, then returns the
// value at rowIndex (0-based, excluding the header). A missing column is an
// error; an out-of-range row returns (nil, nil) — not an error — matching
// csv.rs's cell_by_column contract.
func (c *CsvDocument) CellByColumn(rowIndex int, columnName string) (*string, error) {
	headers, err := c.Headers()
	if err != nil {
		return nil, err
	}
	col := -1
	for i, h := range headers {
		if h == columnName {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("column '%s' not found in CSV '%s'", columnName, c.Path)
	}
	rows, err := c.Rows()
	if err != nil {
		return nil, err
	}
	if rowIndex < 0 || rowIndex >= len(rows) {
		return nil, nil
	}
	row := rows[rowIndex]
	if col >= len(row) {
		return nil, nil
	}
	v := row[col]
	return &v, nil
}
