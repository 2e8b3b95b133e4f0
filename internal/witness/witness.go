// Package witness implements component I: the append-only, content-addressed
// JSONL ledger that records every run/compile/infer invocation.
//
// Grounded on original_source/src/witness/record.rs (record shape) and
// query.rs (query/last/count semantics, exact error message formats).
// ledger.rs is a todo!() stub there; append and path-resolution semantics
// follow spec.md §4.9 prose instead, reusing internal/config.WitnessPath for
// the path search order it already implements.
package witness

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/zeebo/blake3"
)

// Input describes one document fed into the run that produced a record.
type Input struct {
	Path  string  `json:"path"`
	Hash  *string `json:"hash,omitempty"`
	Bytes *int64  `json:"bytes,omitempty"`
}

// Record is one entry of the witness ledger.
type Record struct {
	ID         string  `json:"id"`
	Tool       string  `json:"tool"`
	Version    string  `json:"version"`
	BinaryHash string  `json:"binary_hash"`
	Inputs     []Input `json:"inputs"`
	Params     any     `json:"params"`
	Outcome    string  `json:"outcome"`
	ExitCode   int     `json:"exit_code"`
	OutputHash string  `json:"output_hash"`
	Prev       *string `json:"prev,omitempty"`
	Timestamp  string  `json:"ts"`
}

// recordSansID mirrors Record's JSON field order without Id, used to derive
// the content-addressed id.
type recordSansID struct {
	Tool       string  `json:"tool"`
	Version    string  `json:"version"`
	BinaryHash string  `json:"binary_hash"`
	Inputs     []Input `json:"inputs"`
	Params     any     `json:"params"`
	Outcome    string  `json:"outcome"`
	ExitCode   int     `json:"exit_code"`
	OutputHash string  `json:"output_hash"`
	Prev       *string `json:"prev,omitempty"`
	Timestamp  string  `json:"ts"`
}

// Append computes rec's content-addressed id, sets Tool to "fingerprint",
// and appends the JSON line to the ledger at path, creating any missing
// parent directories first. The file is flushed before returning.
func Append(path string, rec Record) (Record, error) {
	rec.Tool = "fingerprint"

	sans := recordSansID{
		Tool:       rec.Tool,
		Version:    rec.Version,
		BinaryHash: rec.BinaryHash,
		Inputs:     rec.Inputs,
		Params:     rec.Params,
		Outcome:    rec.Outcome,
		ExitCode:   rec.ExitCode,
		OutputHash: rec.OutputHash,
		Prev:       rec.Prev,
		Timestamp:  rec.Timestamp,
	}
	encoded, err := json.Marshal(sans)
	if err != nil {
		return Record{}, fmt.Errorf("encoding witness record: %w", err)
	}
	sum := blake3.Sum256(encoded)
	rec.ID = "blake3:" + hex.EncodeToString(sum[:])

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Record{}, fmt.Errorf("creating witness ledger directory '%s': %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Record{}, fmt.Errorf("failed to open witness ledger '%s': %v", path, err)
	}
	defer f.Close()

	line, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("encoding witness record: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return Record{}, fmt.Errorf("failed to append to witness ledger '%s': %v", path, err)
	}
	if err := f.Sync(); err != nil {
		return Record{}, fmt.Errorf("failed to flush witness ledger '%s': %v", path, err)
	}
	return rec, nil
}

// readRecords loads every record from the ledger at path, skipping blank
// lines. A missing file yields an empty slice, not an error.
func readRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open witness ledger '%s': %v", path, err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("invalid witness JSON at '%s' line %d: %v", path, lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read witness ledger '%s' at line %d: %v", path, lineNo+1, err)
	}
	return records, nil
}

// Query returns every record from the ledger at path, oldest first.
func Query(path string) ([]Record, error) {
	return readRecords(path)
}

// Last returns the most recently appended record, or ok=false if the
// ledger is empty or missing.
func Last(path string) (Record, bool, error) {
	records, err := readRecords(path)
	if err != nil {
		return Record{}, false, err
	}
	if len(records) == 0 {
		return Record{}, false, nil
	}
	return records[len(records)-1], true, nil
}

// Count returns the number of records in the ledger at path.
func Count(path string) (int, error) {
	records, err := readRecords(path)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
