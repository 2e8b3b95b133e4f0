// Package pipeline implements component G: the JSONL shell that reads
// upstream hash-stage records, runs them through an enrichment function with
// order-preserving bounded parallelism, and writes annotated records back
// out while mapping the run to an exit code.
//
// Grounded on original_source/src/pipeline/{reader,parallel}.rs (both full
// implementations); enricher.rs is a todo!() stub there, so the enrichment
// function itself lives in internal/enricher per spec.md §4.6, not here.
package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

// Record is one validated upstream record plus its 1-based source line.
type Record struct {
	Line  int
	Value map[string]any
}

// ReaderError reports a malformed input line. Line is 1-based.
type ReaderError struct {
	Line    int
	Message string
}

func (e *ReaderError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

var supportedUpstreamVersions = map[string]bool{"hash.v0": true}

// ReadRecords validates and decodes every non-blank line of r. Blank lines
// are skipped; any other violation aborts with a *ReaderError naming the
// offending line.
func ReadRecords(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := validateLine(line)
		if err != nil {
			return nil, &ReaderError{Line: lineNo, Message: err.Error()}
		}
		records = append(records, Record{Line: lineNo, Value: rec})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return records, nil
}

// validateLine enforces the hash.v0 upstream record shape: a JSON object
// with a supported "version" string, and (unless "_skipped" is true) a
// string "bytes_hash"; an optional "text_path" must be a string if present.
func validateLine(line string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(line), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %v", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("record must be a JSON object")
	}

	versionRaw, present := obj["version"]
	if !present {
		return nil, fmt.Errorf("missing required field 'version'")
	}
	version, ok := versionRaw.(string)
	if !ok {
		return nil, fmt.Errorf("field 'version' must be a string")
	}
	if !supportedUpstreamVersions[version] {
		return nil, fmt.Errorf("unrecognized upstream version '%s'", version)
	}

	skipped, _ := obj["_skipped"].(bool)
	if !skipped {
		bytesHash, present := obj["bytes_hash"]
		if !present {
			return nil, fmt.Errorf("missing required field 'bytes_hash'")
		}
		if _, ok := bytesHash.(string); !ok {
			return nil, fmt.Errorf("field 'bytes_hash' must be a string")
		}
	}

	if textPath, present := obj["text_path"]; present {
		if _, ok := textPath.(string); !ok {
			return nil, fmt.Errorf("field 'text_path' must be a string")
		}
	}

	return obj, nil
}
