package pipeline

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"
)

func TestReadRecords_SkipsBlankLinesAndDecodesValidOnes(t *testing.T) {
	input := "\n" + `{"version":"hash.v0","bytes_hash":"deadbeef"}` + "\n\n" +
		`{"version":"hash.v0","_skipped":true}` + "\n"
	records, err := ReadRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Line != 2 || records[1].Line != 4 {
		t.Errorf("unexpected line numbers: %d, %d", records[0].Line, records[1].Line)
	}
}

func TestReadRecords_RejectsNonObject(t *testing.T) {
	_, err := ReadRecords(strings.NewReader(`"just a string"` + "\n"))
	rerr, ok := err.(*ReaderError)
	if !ok {
		t.Fatalf("expected a *ReaderError, got %v", err)
	}
	if rerr.Line != 1 || rerr.Message != "record must be a JSON object" {
		t.Errorf("unexpected reader error: %+v", rerr)
	}
}

func TestReadRecords_RejectsUnknownVersion(t *testing.T) {
	_, err := ReadRecords(strings.NewReader(`{"version":"hash.v1","bytes_hash":"x"}` + "\n"))
	rerr, ok := err.(*ReaderError)
	if !ok || rerr.Message != "unrecognized upstream version 'hash.v1'" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReadRecords_RequiresBytesHashUnlessSkipped(t *testing.T) {
	_, err := ReadRecords(strings.NewReader(`{"version":"hash.v0"}` + "\n"))
	rerr, ok := err.(*ReaderError)
	if !ok || rerr.Message != "missing required field 'bytes_hash'" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRun_PreservesOrderAcrossConcurrentWorkers(t *testing.T) {
	var records []Record
	for i := 0; i < 20; i++ {
		records = append(records, Record{Line: i + 1, Value: map[string]any{"n": i}})
	}
	fn := func(_ context.Context, rec Record) (ProcessResult, error) {
		return ProcessResult{Output: map[string]any{"n": rec.Value["n"]}, Matched: true}, nil
	}

	var buf bytes.Buffer
	outcome, err := Run(context.Background(), records, 4, fn, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != OutcomeAllMatched {
		t.Fatalf("expected OutcomeAllMatched, got %v", outcome)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 output lines, got %d", len(lines))
	}
	for i, line := range lines {
		want := `{"n":` + strconv.Itoa(i) + `}`
		if line != want {
			t.Errorf("line %d = %q, want %q (order not preserved)", i, line, want)
		}
	}
}

func TestRun_PartialWhenSomeRecordsUnmatched(t *testing.T) {
	records := []Record{
		{Line: 1, Value: map[string]any{}},
		{Line: 2, Value: map[string]any{}},
	}
	call := 0
	fn := func(_ context.Context, rec Record) (ProcessResult, error) {
		call++
		return ProcessResult{Output: map[string]any{"line": rec.Line}, Matched: call == 1}, nil
	}
	var buf bytes.Buffer
	outcome, err := Run(context.Background(), records, 1, fn, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != OutcomePartial {
		t.Fatalf("expected OutcomePartial, got %v", outcome)
	}
}

func TestRun_StopsAtRefusal(t *testing.T) {
	records := []Record{
		{Line: 1, Value: map[string]any{}},
		{Line: 2, Value: map[string]any{}},
		{Line: 3, Value: map[string]any{}},
	}
	fn := func(_ context.Context, rec Record) (ProcessResult, error) {
		if rec.Line == 2 {
			return ProcessResult{Output: map[string]any{"refusal": true}, Refusal: true}, nil
		}
		return ProcessResult{Output: map[string]any{"line": rec.Line}, Matched: true}, nil
	}
	var buf bytes.Buffer
	outcome, err := Run(context.Background(), records, 1, fn, &buf)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome != OutcomeRefusal {
		t.Fatalf("expected OutcomeRefusal, got %v", outcome)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected exactly 2 lines written (stopping at the refusal), got %d: %v", len(lines), lines)
	}
}

