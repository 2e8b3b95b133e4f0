package document

import (
	"fmt"
	"os"
	"strings"
)

// TextDocument holds plain-text content split into logical lines.
type TextDocument struct {
	Path    string
	Content string
	LinesV  []string
}

func (t *TextDocument) Lines() []string { return t.LinesV }
func (t *TextDocument) LineCount() int  { return len(t.LinesV) }

// OpenText reads a text file and splits it into lines the same way
// original_source/src/document/text.rs does: split on "\n", which means a
// trailing "\n" does not itself produce a trailing empty line, but a second
// consecutive "\n" does (blank lines are preserved, only the final implicit
// line terminator is not treated as content).
func OpenText(path string) (*TextDocument, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file '%s': %w", path, err)
	}
	content := string(b)
	var lines []string
	if content != "" {
		lines = splitLines(content)
	}
	return &TextDocument{Path: path, Content: content, LinesV: lines}, nil
}

// splitLines mirrors Rust's str::lines(): split on "\n", stripping one
// trailing "\r" per line, and do not emit a final empty element for a
// trailing newline — but DO emit empty elements for blank lines in the
// interior (and for an explicit trailing blank line followed by another
// newline).
func splitLines(s string) []string {
	// str::lines() semantics: "a\n\nb\n" -> ["a", "", "b"]; "a\n\nb\n\n" -> ["a", "", "b", ""]
	trimmed := strings.TrimSuffix(s, "\n")
	parts := strings.Split(trimmed, "\n")
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}
