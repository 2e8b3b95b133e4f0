package assertion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/cmdrvl/fingerprint/internal/document"
	"github.com/cmdrvl/fingerprint/internal/dsl"
)

// matchingTables returns, in document order, every table whose HeadingRef
// matches headingPattern (a nil HeadingRef never matches).
func matchingTables(md *document.MarkdownDocument, headingPattern string) ([]*document.Table, error) {
	re, err := regexp.Compile(headingPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid table heading pattern '%s': %w", headingPattern, err)
	}
	var out []*document.Table
	for i := range md.Tables {
		t := &md.Tables[i]
		if t.HeadingRef != nil && re.MatchString(*t.HeadingRef) {
			out = append(out, t)
		}
	}
	return out, nil
}

func resolveTable(md *document.MarkdownDocument, heading string, index *int) (*document.Table, error) {
	matches, err := matchingTables(md, heading)
	if err != nil {
		return nil, err
	}
	idx := 0
	if index != nil {
		idx = *index
	}
	if idx >= len(matches) {
		return nil, fmt.Errorf("table %d under heading pattern '%s' not found (only %d present)", idx, heading, len(matches))
	}
	return matches[idx], nil
}

func evalTableExists(st *state, a dsl.Assertion) (bool, string, any) {
	md, fail := markdownView(st.doc)
	if md == nil {
		return false, fail, nil
	}
	if _, err := resolveTable(md, a.Heading, a.Index); err != nil {
		return false, err.Error(), nil
	}
	return true, "", nil
}

func evalTableColumns(st *state, a dsl.Assertion) (bool, string, any) {
	md, fail := markdownView(st.doc)
	if md == nil {
		return false, fail, nil
	}
	table, err := resolveTable(md, a.Heading, a.Index)
	if err != nil {
		return false, err.Error(), nil
	}
	if len(table.Headers) < len(a.Columns) {
		return false, fmt.Sprintf("table has %d columns, want at least %d", len(table.Headers), len(a.Columns)), nil
	}
	for i, pattern := range a.Columns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false, fmt.Sprintf("invalid table_columns pattern[%d] '%s': %v", i, pattern, err), nil
		}
		if !re.MatchString(table.Headers[i]) {
			return false, fmt.Sprintf("column %d header '%s' does not match pattern '%s'", i, table.Headers[i], pattern), nil
		}
	}
	return true, "", nil
}

func evalTableMinRows(st *state, a dsl.Assertion) (bool, string, any) {
	md, fail := markdownView(st.doc)
	if md == nil {
		return false, fail, nil
	}
	table, err := resolveTable(md, a.Heading, a.Index)
	if err != nil {
		return false, err.Error(), nil
	}
	if uint64(len(table.Rows)) >= a.MinRows {
		return true, "", nil
	}
	return false, fmt.Sprintf("table has %d data rows, want >= %d", len(table.Rows), a.MinRows), nil
}

// cellKind classifies one non-empty table cell value.
type cellKind string

const (
	kindNumber     cellKind = "number"
	kindCurrency   cellKind = "currency"
	kindPercentage cellKind = "percentage"
	kindDate       cellKind = "date"
	kindString     cellKind = "string"
	kindEmpty      cellKind = "empty"
)

var currencyPrefix = regexp.MustCompile(`^[$€£¥]`)
var numericBody = regexp.MustCompile(`^-?[0-9][0-9,]*(\.[0-9]+)?$`)
var percentSuffix = regexp.MustCompile(`%$`)

// looksLikeDate reports whether v parses as a calendar date/time under any of
// dateparse's supported layouts, rejecting bare integers (which dateparse
// would otherwise happily read as a Unix timestamp or a bare year).
func looksLikeDate(v string) bool {
	if numericBody.MatchString(v) {
		return false
	}
	_, err := dateparse.ParseAny(v)
	return err == nil
}

// classifyCell strips the emphasis markers Markdown tables commonly carry
// ("**bold**", "_italic_") before classification.
func classifyCell(raw string) cellKind {
	v := strings.TrimSpace(raw)
	v = strings.Trim(v, "*_")
	v = strings.TrimSpace(v)
	if v == "" {
		return kindEmpty
	}
	if looksLikeDate(v) {
		return kindDate
	}
	if percentSuffix.MatchString(v) {
		body := strings.TrimSuffix(v, "%")
		if numericBody.MatchString(body) {
			return kindPercentage
		}
	}
	if currencyPrefix.MatchString(v) {
		body := currencyPrefix.ReplaceAllString(v, "")
		if numericBody.MatchString(strings.TrimSpace(body)) {
			return kindCurrency
		}
	}
	if numericBody.MatchString(v) {
		return kindNumber
	}
	return kindString
}

// equivalentKind reports whether observed satisfies a declared column type,
// treating "number" and "currency" as interchangeable (a currency-formatted
// column still "is" a number column, and vice versa).
func equivalentKind(declared string, observed cellKind) bool {
	d := cellKind(declared)
	if d == observed {
		return true
	}
	if (d == kindNumber && observed == kindCurrency) || (d == kindCurrency && observed == kindNumber) {
		return true
	}
	return false
}

// inferColumnKind returns the strict-majority non-empty cell kind in column
// col, or kindString if no kind holds a strict majority.
func inferColumnKind(table *document.Table, col int) cellKind {
	counts := map[cellKind]int{}
	total := 0
	for _, row := range table.Rows {
		if col >= len(row) {
			continue
		}
		k := classifyCell(row[col])
		if k == kindEmpty {
			continue
		}
		counts[k]++
		total++
	}
	if total == 0 {
		return kindString
	}
	var best cellKind
	bestCount := 0
	for k, c := range counts {
		if c > bestCount {
			best, bestCount = k, c
		}
	}
	if bestCount*2 > total {
		return best
	}
	return kindString
}

func evalTableShape(st *state, a dsl.Assertion) (bool, string, any) {
	md, fail := markdownView(st.doc)
	if md == nil {
		return false, fail, nil
	}
	table, err := resolveTable(md, a.Heading, a.Index)
	if err != nil {
		return false, err.Error(), nil
	}
	if len(table.Headers) < a.MinColumns {
		return false, fmt.Sprintf("table has %d columns, want at least %d", len(table.Headers), a.MinColumns), nil
	}
	if len(table.Headers) < len(a.ColumnTypes) {
		return false, fmt.Sprintf("table has %d columns, want at least %d for column_types", len(table.Headers), len(a.ColumnTypes)), nil
	}

	var observed []string
	for col, want := range a.ColumnTypes {
		got := inferColumnKind(table, col)
		observed = append(observed, string(got))
		if !equivalentKind(want, got) {
			var ctx any
			if st.diag {
				ctx = map[string]any{"observed_column_types": observed, "mismatch_column": col}
			}
			return false, fmt.Sprintf("column %d inferred type '%s', want '%s'", col, got, want), ctx
		}
	}
	return true, "", nil
}
