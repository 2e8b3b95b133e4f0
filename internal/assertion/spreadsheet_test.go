package assertion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cmdrvl/fingerprint/internal/document"
	"github.com/cmdrvl/fingerprint/internal/dsl"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func openCsvDoc(t *testing.T, content string) *document.Document {
	t.Helper()
	path := writeTemp(t, "data.csv", content)
	csv, err := document.OpenCsv(path)
	if err != nil {
		t.Fatalf("OpenCsv: %v", err)
	}
	return &document.Document{Kind: document.FormatCsv, Csv: csv}
}

func TestEvalFilenameRegex(t *testing.T) {
	path := writeTemp(t, "rent-roll-2026.txt", "hello")
	txt, err := document.OpenText(path)
	if err != nil {
		t.Fatalf("OpenText: %v", err)
	}
	doc := &document.Document{Kind: document.FormatText, Text: txt}
	st := &state{doc: doc, bindings: map[string]string{}}

	passed, _, _ := evalFilenameRegex(st, dsl.Assertion{Kind: dsl.KindFilenameRegex, Pattern: `^rent-roll-\d{4}\.txt$`})
	if !passed {
		t.Fatal("expected filename_regex to pass")
	}
	passed, detail, _ := evalFilenameRegex(st, dsl.Assertion{Kind: dsl.KindFilenameRegex, Pattern: `^watch-list`})
	if passed || detail == "" {
		t.Fatal("expected filename_regex to fail on mismatch")
	}
}

func TestEvalSheetExistsAndNameRegex_Csv(t *testing.T) {
	doc := openCsvDoc(t, "Name,Score\nAlice,10\nBob,20\n")
	st := &state{doc: doc, bindings: map[string]string{}}

	passed, _, _ := evalSheetExists(st, dsl.Assertion{Kind: dsl.KindSheetExists, Sheet: "sheet1"})
	if !passed {
		t.Fatal("expected sheet_exists to match CSV virtual sheet names case-insensitively")
	}

	passed, _, _ = evalSheetNameRegex(st, dsl.Assertion{Kind: dsl.KindSheetNameRegex, Pattern: "^csv$", Bind: "$target"})
	if !passed {
		t.Fatal("expected sheet_name_regex to match the 'csv' virtual name")
	}
	if st.bindings["target"] != "csv" {
		t.Errorf("bindings[target] = %q, want 'csv'", st.bindings["target"])
	}
}

func TestEvalCellEqAndRegex_Csv(t *testing.T) {
	doc := openCsvDoc(t, "Name,Score\nAlice,10\nBob,20\n")
	st := &state{doc: doc, bindings: map[string]string{}}

	passed, _, _ := evalCellEq(st, dsl.Assertion{Kind: dsl.KindCellEq, Sheet: "csv", Cell: "A1", Value: "Alice"})
	if !passed {
		t.Fatal("expected cell_eq to pass for A1=Alice")
	}
	passed, detail, _ := evalCellEq(st, dsl.Assertion{Kind: dsl.KindCellEq, Sheet: "csv", Cell: "A1", Value: "Bob"})
	if passed || detail == "" {
		t.Fatal("expected cell_eq mismatch to fail with a detail")
	}

	passed, _, _ = evalCellRegex(st, dsl.Assertion{Kind: dsl.KindCellRegex, Sheet: "csv", Cell: "B2", Pattern: `^\d+$`})
	if !passed {
		t.Fatal("expected cell_regex to pass for B2 (numeric score)")
	}
}

func TestEvalCellEq_UnresolvedBinding(t *testing.T) {
	doc := openCsvDoc(t, "Name,Score\nAlice,10\n")
	st := &state{doc: doc, bindings: map[string]string{}}
	passed, detail, _ := evalCellEq(st, dsl.Assertion{Kind: dsl.KindCellEq, Sheet: "$missing", Cell: "A1", Value: "x"})
	if passed || detail == "" {
		t.Fatal("expected an unresolved sheet binding to fail with a detail")
	}
}

func TestEvalRangeNonNull(t *testing.T) {
	doc := openCsvDoc(t, "Name,Score\nAlice,10\nBob,20\n")
	st := &state{doc: doc, bindings: map[string]string{}}

	passed, _, _ := evalRangeNonNull(st, dsl.Assertion{Kind: dsl.KindRangeNonNull, Sheet: "csv", Range: "A1:B2"})
	if !passed {
		t.Fatal("expected range_non_null to pass over a fully populated range")
	}
	passed, detail, _ := evalRangeNonNull(st, dsl.Assertion{Kind: dsl.KindRangeNonNull, Sheet: "csv", Range: "A1:B3"})
	if passed || detail == "" {
		t.Fatal("expected range_non_null to fail once the range runs past the data into blank cells")
	}
}

func TestEvalSheetMinRows(t *testing.T) {
	doc := openCsvDoc(t, "Name,Score\nAlice,10\nBob,20\n")
	st := &state{doc: doc, bindings: map[string]string{}}

	passed, _, _ := evalSheetMinRows(st, dsl.Assertion{Kind: dsl.KindSheetMinRows, Sheet: "csv", MinRows: 2})
	if !passed {
		t.Fatal("expected sheet_min_rows(2) to pass")
	}
	passed, _, _ = evalSheetMinRows(st, dsl.Assertion{Kind: dsl.KindSheetMinRows, Sheet: "csv", MinRows: 3})
	if passed {
		t.Fatal("expected sheet_min_rows(3) to fail")
	}
}

func TestEvalColumnSearch(t *testing.T) {
	doc := openCsvDoc(t, "Name,Score\nAlice,10\nBob,20\n")
	st := &state{doc: doc, bindings: map[string]string{}, diag: true}

	passed, _, _ := evalColumnSearch(st, dsl.Assertion{
		Kind: dsl.KindColumnSearch, Sheet: "csv", Column: "A", RowRange: "1:2", Pattern: "Bob",
	})
	if !passed {
		t.Fatal("expected column_search to find 'Bob' in column A")
	}
	passed, detail, ctx := evalColumnSearch(st, dsl.Assertion{
		Kind: dsl.KindColumnSearch, Sheet: "csv", Column: "A", RowRange: "1:2", Pattern: "Carol",
	})
	if passed || detail == "" || ctx == nil {
		t.Fatal("expected column_search to fail with diagnostic context when nothing matches")
	}
}

func TestEvalHeaderRowMatch(t *testing.T) {
	doc := openCsvDoc(t, "Name,Score\nAlice,10\nBob,20\n")
	st := &state{doc: doc, bindings: map[string]string{}}

	passed, _, _ := evalHeaderRowMatch(st, dsl.Assertion{
		Kind: dsl.KindHeaderRowMatch, Sheet: "csv", RowRange: "1:2", MinMatch: 1, Columns: []string{"(?i)alice"},
	})
	if !passed {
		t.Fatal("expected header_row_match to find 'Alice' somewhere in rows 1:2")
	}
	passed, detail, _ := evalHeaderRowMatch(st, dsl.Assertion{
		Kind: dsl.KindHeaderRowMatch, Sheet: "csv", RowRange: "1:2", MinMatch: 2, Columns: []string{"(?i)alice"},
	})
	if passed || detail == "" {
		t.Fatal("expected header_row_match to fail when min_match exceeds the number of patterns that can match")
	}
}
