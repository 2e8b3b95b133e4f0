package assertion

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cmdrvl/fingerprint/internal/document"
	"github.com/cmdrvl/fingerprint/internal/dsl"
)

// sheetNames returns the document's sheet names in their natural iteration
// order (workbook order for XLSX, virtual order for CSV), or nil if the
// document has no spreadsheet-structural capability.
func sheetNames(doc *document.Document) []string {
	switch doc.Kind {
	case document.FormatXlsx:
		return doc.Xlsx.SheetNames()
	case document.FormatCsv:
		return doc.Csv.VirtualSheetNames()
	default:
		return nil
	}
}

func evalFilenameRegex(st *state, a dsl.Assertion) (bool, string, any) {
	re, err := compileRegex(a.Pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid filename_regex pattern '%s': %v", a.Pattern, err), nil
	}
	basename := st.doc.Basename()
	if re.MatchString(basename) {
		return true, "", nil
	}
	return false, fmt.Sprintf("filename '%s' does not match pattern '%s'", basename, a.Pattern), nil
}

func evalSheetExists(st *state, a dsl.Assertion) (bool, string, any) {
	names := sheetNames(st.doc)
	if names == nil {
		return false, "document has no spreadsheet structure", nil
	}
	switch st.doc.Kind {
	case document.FormatXlsx:
		for _, n := range names {
			if n == a.Sheet {
				return true, "", nil
			}
		}
	case document.FormatCsv:
		for _, n := range names {
			if strings.EqualFold(n, a.Sheet) {
				return true, "", nil
			}
		}
	}
	var ctx any
	if st.diag {
		if best, dist, ok := nearestMatch(a.Sheet, names); ok {
			ctx = map[string]any{"nearest_match": best, "distance": dist}
		}
	}
	return false, fmt.Sprintf("sheet '%s' not found", a.Sheet), ctx
}

func evalSheetNameRegex(st *state, a dsl.Assertion) (bool, string, any) {
	names := sheetNames(st.doc)
	re, err := compileRegex(a.Pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid sheet_name_regex pattern '%s': %v", a.Pattern, err), nil
	}
	for _, n := range names {
		if re.MatchString(n) {
			if a.Bind != "" {
				st.bindings[strings.TrimPrefix(a.Bind, "$")] = n
			}
			return true, "", nil
		}
	}
	return false, fmt.Sprintf("no sheet matches pattern '%s'", a.Pattern), nil
}

func cellValue(st *state, sheet, cellAddr string) (string, error) {
	resolved, ok := resolveSheet(st, sheet)
	if !ok {
		return "", fmt.Errorf("%s", bindingNotFoundDetail(sheet))
	}
	ref, err := document.ParseCellRef(cellAddr)
	if err != nil {
		return "", err
	}
	switch st.doc.Kind {
	case document.FormatXlsx:
		return st.doc.Xlsx.Cell(resolved, ref.Row, ref.Col)
	case document.FormatCsv:
		rows, err := st.doc.Csv.Rows()
		if err != nil {
			return "", err
		}
		if ref.Row < 0 || ref.Row >= len(rows) {
			return "", nil
		}
		row := rows[ref.Row]
		if ref.Col < 0 || ref.Col >= len(row) {
			return "", nil
		}
		return row[ref.Col], nil
	default:
		return "", fmt.Errorf("document has no spreadsheet structure")
	}
}

func evalCellEq(st *state, a dsl.Assertion) (bool, string, any) {
	v, err := cellValue(st, a.Sheet, a.Cell)
	if err != nil {
		return false, err.Error(), nil
	}
	if strings.TrimSpace(v) == "" {
		return false, fmt.Sprintf("cell %s is empty or missing", a.Cell), nil
	}
	if v == a.Value {
		return true, "", nil
	}
	return false, fmt.Sprintf("cell %s: expected '%s', got '%s'", a.Cell, a.Value, v), nil
}

func evalCellRegex(st *state, a dsl.Assertion) (bool, string, any) {
	v, err := cellValue(st, a.Sheet, a.Cell)
	if err != nil {
		return false, err.Error(), nil
	}
	if strings.TrimSpace(v) == "" {
		return false, fmt.Sprintf("cell %s is empty or missing", a.Cell), nil
	}
	re, err := compileRegex(a.Pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid cell_regex pattern '%s': %v", a.Pattern, err), nil
	}
	if re.MatchString(v) {
		return true, "", nil
	}
	return false, fmt.Sprintf("cell %s value '%s' does not match pattern '%s'", a.Cell, v, a.Pattern), nil
}

func evalRangeNonNull(st *state, a dsl.Assertion) (bool, string, any) {
	resolved, ok := resolveSheet(st, a.Sheet)
	if !ok {
		return false, bindingNotFoundDetail(a.Sheet), nil
	}
	start, end, err := document.ParseRange(a.Range)
	if err != nil {
		return false, err.Error(), nil
	}
	rows, err := rangeRows(st, resolved, start, end)
	if err != nil {
		return false, err.Error(), nil
	}
	for r, row := range rows {
		for c, v := range row {
			if strings.TrimSpace(v) == "" {
				cellName := document.ToCellRef(start.Row+r, start.Col+c)
				return false, fmt.Sprintf("cell %s is empty or missing", cellName), nil
			}
		}
	}
	return true, "", nil
}

func rangeRows(st *state, sheet string, start, end document.CellRef) ([][]string, error) {
	switch st.doc.Kind {
	case document.FormatXlsx:
		return st.doc.Xlsx.Range(sheet, start, end)
	case document.FormatCsv:
		allRows, err := st.doc.Csv.Rows()
		if err != nil {
			return nil, err
		}
		out := make([][]string, 0, end.Row-start.Row+1)
		for r := start.Row; r <= end.Row; r++ {
			var line []string
			if r < len(allRows) {
				row := allRows[r]
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
	default:
		return nil, fmt.Errorf("document has no spreadsheet structure")
	}
}

func nonEmptyRowCount(st *state, sheet string) (int, error) {
	switch st.doc.Kind {
	case document.FormatXlsx:
		return st.doc.Xlsx.NonEmptyRowCount(sheet)
	case document.FormatCsv:
		rows, err := st.doc.Csv.Rows()
		if err != nil {
			return 0, err
		}
		count := 0
		for _, row := range rows {
			for _, v := range row {
				if strings.TrimSpace(v) != "" {
					count++
					break
				}
			}
		}
		return count, nil
	default:
		return 0, fmt.Errorf("document has no spreadsheet structure")
	}
}

func evalSheetMinRows(st *state, a dsl.Assertion) (bool, string, any) {
	resolved, ok := resolveSheet(st, a.Sheet)
	if !ok {
		return false, bindingNotFoundDetail(a.Sheet), nil
	}
	n, err := nonEmptyRowCount(st, resolved)
	if err != nil {
		return false, err.Error(), nil
	}
	if uint64(n) >= a.MinRows {
		return true, "", nil
	}
	return false, fmt.Sprintf("sheet '%s' has %d non-empty rows, want >= %d", resolved, n, a.MinRows), nil
}

// parseRowRange parses "a:b" as a 1-based inclusive row span.
func parseRowRange(s string) (int, int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed row_range '%s'", s)
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed row_range '%s'", s)
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed row_range '%s'", s)
	}
	return a, b, nil
}

func evalColumnSearch(st *state, a dsl.Assertion) (bool, string, any) {
	resolved, ok := resolveSheet(st, a.Sheet)
	if !ok {
		return false, bindingNotFoundDetail(a.Sheet), nil
	}
	colRef, err := document.ParseCellRef(a.Column + "1")
	if err != nil {
		return false, fmt.Sprintf("invalid column '%s'", a.Column), nil
	}
	rowFrom, rowTo, err := parseRowRange(a.RowRange)
	if err != nil {
		return false, err.Error(), nil
	}
	re, err := compileRegex(a.Pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid column_search pattern '%s': %v", a.Pattern, err), nil
	}

	var scanned []string
	var partials []string
	for row := rowFrom; row <= rowTo; row++ {
		v, err := cellValue(st, resolved, document.ToCellRef(row-1, colRef.Col))
		if err != nil {
			continue
		}
		if len(scanned) < 60 {
			scanned = append(scanned, v)
		}
		if re.MatchString(v) {
			return true, "", nil
		}
		if st.diag && v != "" && len(partials) < 5 {
			if containsAnyToken(v, a.Pattern) {
				partials = append(partials, v)
			}
		}
	}

	detail := fmt.Sprintf("no cell in %s%d:%s%d matches pattern '%s'", a.Column, rowFrom, a.Column, rowTo, a.Pattern)
	var ctx any
	if st.diag {
		ctx = map[string]any{"scanned": scanned, "partial_matches": partials}
	}
	return false, detail, ctx
}

// containsAnyToken is a loose diagnostic heuristic: true if value shares an
// alphanumeric token of length >= 3 with the (non-regex) literal words in
// pattern.
func containsAnyToken(value, pattern string) bool {
	lowerValue := strings.ToLower(value)
	for _, tok := range strings.FieldsFunc(pattern, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}) {
		if len(tok) >= 3 && strings.Contains(lowerValue, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}

func evalHeaderRowMatch(st *state, a dsl.Assertion) (bool, string, any) {
	resolved, ok := resolveSheet(st, a.Sheet)
	if !ok {
		return false, bindingNotFoundDetail(a.Sheet), nil
	}
	rowFrom, rowTo, err := parseRowRange(a.RowRange)
	if err != nil {
		return false, err.Error(), nil
	}
	patterns := make([]*regexPattern, 0, len(a.Columns))
	for i, p := range a.Columns {
		re, err := compileRegex(p)
		if err != nil {
			return false, fmt.Sprintf("invalid header_row_match pattern[%d] '%s': %v", i, p, err), nil
		}
		patterns = append(patterns, &regexPattern{index: i, re: re})
	}

	bestRow, bestCount := 0, -1
	var bestMatchedIdx []int

	for row := rowFrom; row <= rowTo; row++ {
		cells, err := rowCells(st, resolved, row)
		if err != nil {
			continue
		}
		claimedPattern := map[int]bool{}
		var matchedIdx []int
		for _, cell := range cells {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			for _, p := range patterns {
				if claimedPattern[p.index] {
					continue
				}
				if p.re.MatchString(cell) {
					claimedPattern[p.index] = true
					matchedIdx = append(matchedIdx, p.index)
					break
				}
			}
		}
		if len(matchedIdx) > bestCount {
			bestCount, bestRow, bestMatchedIdx = len(matchedIdx), row, matchedIdx
		}
		if len(matchedIdx) >= a.MinMatch {
			return true, "", nil
		}
	}

	detail := fmt.Sprintf("best row %d matched %d/%d required columns", bestRow, maxInt(bestCount, 0), a.MinMatch)
	var ctx any
	if st.diag {
		ctx = map[string]any{"best_row": bestRow, "best_count": maxInt(bestCount, 0), "matched_indices": bestMatchedIdx}
	}
	return false, detail, ctx
}

type regexPattern struct {
	index int
	re    *regexp.Regexp
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func rowCells(st *state, sheet string, row int) ([]string, error) {
	switch st.doc.Kind {
	case document.FormatXlsx:
		rows, err := st.doc.Xlsx.Range(sheet, document.CellRef{Row: row - 1, Col: 0}, document.CellRef{Row: row - 1, Col: 63})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return rows[0], nil
	case document.FormatCsv:
		rows, err := st.doc.Csv.Rows()
		if err != nil {
			return nil, err
		}
		if row-1 < 0 || row-1 >= len(rows) {
			return nil, nil
		}
		return rows[row-1], nil
	default:
		return nil, fmt.Errorf("document has no spreadsheet structure")
	}
}
