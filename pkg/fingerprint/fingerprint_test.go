package fingerprint

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cmdrvl/fingerprint/internal/pipeline"
)

func TestNewRegistry_HasBuiltins(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"csv.v0", "xlsx.v0", "pdf.v0"} {
		if reg.Get(id) == nil {
			t.Errorf("expected builtin %q to be registered", id)
		}
	}
}

func TestParseDefinitionAndCompile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "widget.fp.yaml")
	yaml := "fingerprint_id: widget.v1\nformat: csv\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	def, err := ParseDefinition(path)
	if err != nil {
		t.Fatalf("ParseDefinition: %v", err)
	}
	if def.FingerprintID != "widget.v1" {
		t.Fatalf("FingerprintID = %q", def.FingerprintID)
	}

	fp := Compile(def)
	if fp.ID() != "widget.v1" || fp.Format() != "csv" {
		t.Errorf("Compile result = id=%s format=%s", fp.ID(), fp.Format())
	}
}

func TestOpenDocument_DispatchesByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	doc, err := OpenDocument(path)
	if err != nil {
		t.Fatalf("OpenDocument: %v", err)
	}
	if doc.Kind != "csv" {
		t.Errorf("Kind = %v, want csv", doc.Kind)
	}
}

func TestReadRecords_DecodesValidStream(t *testing.T) {
	records, err := ReadRecords(strings.NewReader(`{"version":"hash.v0","bytes_hash":"deadbeef"}` + "\n"))
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
}

func TestRun_EnrichesRecordsAgainstSelectedFingerprints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	reg := NewRegistry()
	records := []Record{{Line: 1, Value: map[string]any{
		"version": "hash.v0", "path": path, "bytes_hash": "deadbeef",
	}}}

	var buf bytes.Buffer
	outcome, err := Run(context.Background(), records, 1, EnrichConfig{Registry: reg, Selected: []string{"csv.v0"}}, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != pipeline.OutcomeAllMatched {
		t.Fatalf("outcome = %v, want AllMatched", outcome)
	}
	if !strings.Contains(buf.String(), `"fingerprint"`) {
		t.Errorf("expected an annotated record, got %q", buf.String())
	}
}
