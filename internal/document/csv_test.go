package document

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestOpenCsv_HeadersAndRows(t *testing.T) {
	path := writeTemp(t, "data.csv", "name,age\nalice,30\nbob,25\n")
	doc, err := OpenCsv(path)
	if err != nil {
		t.Fatalf("OpenCsv: %v", err)
	}
	headers, err := doc.Headers()
	if err != nil {
		t.Fatalf("Headers: %v", err)
	}
	if !reflect.DeepEqual(headers, []string{"name", "age"}) {
		t.Errorf("Headers() = %v", headers)
	}
	rows, err := doc.Rows()
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	want := [][]string{{"alice", "30"}, {"bob", "25"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Rows() = %v, want %v", rows, want)
	}
}

func TestOpenCsv_NoHeaderRowIsAnError(t *testing.T) {
	path := writeTemp(t, "empty.csv", "")
	if _, err := OpenCsv(path); err == nil {
		t.Fatal("expected an error for a headerless CSV")
	}
}

func TestCsvDocument_VirtualSheetNames(t *testing.T) {
	path := writeTemp(t, "records.csv", "a,b\n1,2\n")
	doc, err := OpenCsv(path)
	if err != nil {
		t.Fatalf("OpenCsv: %v", err)
	}
	want := []string{"Sheet1", "csv", "records"}
	if got := doc.VirtualSheetNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("VirtualSheetNames() = %v, want %v", got, want)
	}
}

func TestCsvDocument_CellByColumn(t *testing.T) {
	path := writeTemp(t, "data.csv", "name,age\nalice,30\nbob,25\n")
	doc, err := OpenCsv(path)
	if err != nil {
		t.Fatalf("OpenCsv: %v", err)
	}

	v, err := doc.CellByColumn(0, "age")
	if err != nil {
		t.Fatalf("CellByColumn: %v", err)
	}
	if v == nil || *v != "30" {
		t.Errorf("CellByColumn(0, age) = %v, want 30", v)
	}

	v, err = doc.CellByColumn(5, "age")
	if err != nil {
		t.Fatalf("CellByColumn out-of-range should not error: %v", err)
	}
	if v != nil {
		t.Errorf("CellByColumn(5, age) = %v, want nil", *v)
	}

	if _, err := doc.CellByColumn(0, "nope"); err == nil {
		t.Fatal("expected an error for an unknown column")
	}
}

func TestHeadersOf_MissingFile(t *testing.T) {
	_, err := headersOf(filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil {
		t.Fatal("expected an error for a nonexistent file")
	}
}
