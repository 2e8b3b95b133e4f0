// Package document implements the document adapters (component A): a
// uniform, lazily-read capability set over spreadsheets, CSV, PDF, Markdown,
// and plain-text files, plus a raw fallback for anything else.
//
// Grounded on original_source/src/document/{mod,markdown,csv,pdf,text,raw,dispatch}.rs.
package document

import (
	"path/filepath"
	"strings"
)

// Format names the document's variant, matching FingerprintDefinition.Format.
type Format string

const (
	FormatXlsx     Format = "xlsx"
	FormatCsv      Format = "csv"
	FormatPdf      Format = "pdf"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatUnknown  Format = "unknown"
)

// Matches reports whether a requested format string matches this document's
// format, case-insensitively, treating "markdown" and "md" as equivalent
// (per spec.md §4.6's fingerprint-selection rule).
func (f Format) Matches(requested string) bool {
	return normalizeFormat(requested) == string(f)
}

func normalizeFormat(s string) string {
	s = strings.ToLower(s)
	if s == "md" {
		return string(FormatMarkdown)
	}
	return s
}

// Document is a tagged union over the six supported variants. Exactly one
// of the typed fields is non-nil; Kind names which one.
type Document struct {
	Kind     Format
	Xlsx     *XlsxDocument
	Csv      *CsvDocument
	Pdf      *PdfDocument
	Markdown *MarkdownDocument
	Text     *TextDocument
	Raw      *RawDocument
}

// Path returns the absolute filesystem path backing this document,
// regardless of variant.
func (d *Document) Path() string {
	switch d.Kind {
	case FormatXlsx:
		return d.Xlsx.Path
	case FormatCsv:
		return d.Csv.Path
	case FormatPdf:
		return d.Pdf.Path
	case FormatMarkdown:
		return d.Markdown.Path
	case FormatText:
		return d.Text.Path
	default:
		return d.Raw.Path
	}
}

// Basename is path.Base(Path()), used by filename_regex.
func (d *Document) Basename() string {
	return filepath.Base(d.Path())
}
