package document

import (
	"fmt"
	"os"
)

// RawDocument is the fallback for any file extension not otherwise mapped.
type RawDocument struct {
	Path  string
	Bytes []byte
}

// OpenRaw reads the file's bytes verbatim. Never panics; returns a
// descriptive error on read failure.
func OpenRaw(path string) (*RawDocument, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file '%s': %w", path, err)
	}
	return &RawDocument{Path: path, Bytes: b}, nil
}
