package assertion

import (
	"testing"

	"github.com/cmdrvl/fingerprint/internal/document"
	"github.com/cmdrvl/fingerprint/internal/dsl"
)

func newMarkdownDoc(md *document.MarkdownDocument) *document.Document {
	return &document.Document{Kind: document.FormatMarkdown, Markdown: md}
}

func sampleMarkdown() *document.MarkdownDocument {
	h1 := document.Heading{Level: 1, Text: "Rent Roll", Line: 1}
	h2 := document.Heading{Level: 2, Text: "Assumptions", Line: 5}
	return &document.MarkdownDocument{
		Headings: []document.Heading{h1, h2},
		Sections: []document.Section{
			{Heading: &h1, StartLine: 1, EndLine: 4, Content: "# Rent Roll\nfirst line\n\nsecond line"},
			{Heading: &h2, StartLine: 5, EndLine: 6, Content: "## Assumptions\n"},
		},
		Tables: []document.Table{
			{
				HeadingRef: strPtr("Rent Roll"),
				Index:      0,
				Headers:    []string{"Unit", "Tenant", "Rent", "Expiry"},
				Rows: [][]string{
					{"Unit 101", "Acme Corp", "$1,200.00", "2026-01-01"},
					{"Unit 102", "Beta LLC", "$1,500.00", "2027-06-15"},
				},
			},
		},
	}
}

func strPtr(s string) *string { return &s }

func TestEvalHeadingExists(t *testing.T) {
	st := &state{doc: newMarkdownDoc(sampleMarkdown()), bindings: map[string]string{}}
	passed, _, _ := evalHeadingExists(st, dsl.Assertion{Kind: dsl.KindHeadingExists, Text: "Rent Roll"})
	if !passed {
		t.Fatal("expected heading_exists to pass")
	}
	passed, detail, _ := evalHeadingExists(st, dsl.Assertion{Kind: dsl.KindHeadingExists, Text: "Nonexistent"})
	if passed || detail == "" {
		t.Fatalf("expected heading_exists to fail with a detail, got passed=%v detail=%q", passed, detail)
	}
}

func TestEvalHeadingRegex(t *testing.T) {
	st := &state{doc: newMarkdownDoc(sampleMarkdown()), bindings: map[string]string{}}
	passed, _, _ := evalHeadingRegex(st, dsl.Assertion{Kind: dsl.KindHeadingRegex, Pattern: "(?i)rent roll"})
	if !passed {
		t.Fatal("expected heading_regex to pass")
	}
}

func TestEvalHeadingLevel(t *testing.T) {
	st := &state{doc: newMarkdownDoc(sampleMarkdown()), bindings: map[string]string{}}
	passed, _, _ := evalHeadingLevel(st, dsl.Assertion{Kind: dsl.KindHeadingLevel, Pattern: "Assumptions", Level: 2})
	if !passed {
		t.Fatal("expected heading_level to pass at level 2")
	}
	passed, detail, _ := evalHeadingLevel(st, dsl.Assertion{Kind: dsl.KindHeadingLevel, Pattern: "Assumptions", Level: 1})
	if passed || detail == "" {
		t.Fatalf("expected heading_level mismatch to fail, got passed=%v", passed)
	}
}

func TestEvalTextContainsAndRegex(t *testing.T) {
	md := &document.MarkdownDocument{Normalized: "Capitalization Rate 7.25%\nOther text"}
	st := &state{doc: newMarkdownDoc(md), bindings: map[string]string{}}

	passed, _, _ := evalTextContains(st, dsl.Assertion{Kind: dsl.KindTextContains, Text: "Capitalization Rate"})
	if !passed {
		t.Fatal("expected text_contains to pass")
	}
	passed, _, _ = evalTextRegex(st, dsl.Assertion{Kind: dsl.KindTextRegex, Pattern: `\d+\.\d+%`})
	if !passed {
		t.Fatal("expected text_regex to pass")
	}
	passed, _, _ = evalTextRegex(st, dsl.Assertion{Kind: dsl.KindTextRegex, Pattern: `nonexistent-pattern`})
	if passed {
		t.Fatal("expected text_regex to fail")
	}
}

func TestEvalTextNear_WithinRange(t *testing.T) {
	md := &document.MarkdownDocument{Normalized: "The capitalization rate used is 7.25% per annum."}
	st := &state{doc: newMarkdownDoc(md), bindings: map[string]string{}, diag: true}
	passed, _, _ := evalTextNear(st, dsl.Assertion{
		Kind: dsl.KindTextNear, Anchor: "(?i)capitalization rate", Pattern: `\d+\.\d+%`, WithinChars: 20,
	})
	if !passed {
		t.Fatal("expected text_near to pass within range")
	}
}

func TestEvalTextNear_OutOfRange(t *testing.T) {
	md := &document.MarkdownDocument{Normalized: "capitalization rate" + string(make([]byte, 200)) + "7.25%"}
	st := &state{doc: newMarkdownDoc(md), bindings: map[string]string{}, diag: true}
	passed, _, ctx := evalTextNear(st, dsl.Assertion{
		Kind: dsl.KindTextNear, Anchor: "capitalization rate", Pattern: `\d+\.\d+%`, WithinChars: 20,
	})
	if passed {
		t.Fatal("expected text_near to fail when the gap exceeds within_chars")
	}
	if ctx == nil {
		t.Fatal("expected diagnostic context on failure")
	}
}

func TestEvalSectionNonEmptyAndMinLines(t *testing.T) {
	st := &state{doc: newMarkdownDoc(sampleMarkdown()), bindings: map[string]string{}}

	passed, _, _ := evalSectionNonEmpty(st, dsl.Assertion{Kind: dsl.KindSectionNonEmpty, Heading: "Rent Roll"})
	if !passed {
		t.Fatal("expected section_non_empty to pass for Rent Roll")
	}
	passed, detail, _ := evalSectionNonEmpty(st, dsl.Assertion{Kind: dsl.KindSectionNonEmpty, Heading: "Assumptions"})
	if passed || detail == "" {
		t.Fatalf("expected section_non_empty to fail for empty Assumptions section, got passed=%v", passed)
	}

	passed, _, _ = evalSectionMinLines(st, dsl.Assertion{Kind: dsl.KindSectionMinLines, Heading: "Rent Roll", MinLines: 2})
	if !passed {
		t.Fatal("expected section_min_lines(2) to pass for Rent Roll")
	}
	passed, _, _ = evalSectionMinLines(st, dsl.Assertion{Kind: dsl.KindSectionMinLines, Heading: "Rent Roll", MinLines: 5})
	if passed {
		t.Fatal("expected section_min_lines(5) to fail for Rent Roll")
	}
}

func TestMarkdownView_PdfWithoutTextPath(t *testing.T) {
	doc := &document.Document{Kind: document.FormatPdf, Pdf: &document.PdfDocument{}}
	md, fail := markdownView(doc)
	if md != nil || fail == "" {
		t.Fatalf("expected nil view with a failure detail, got md=%v fail=%q", md, fail)
	}
}

func TestTextSource_UnsupportedKind(t *testing.T) {
	doc := &document.Document{Kind: document.FormatXlsx}
	_, fail := textSource(doc)
	if fail == "" {
		t.Fatal("expected a failure detail for a kind with no text content")
	}
}
