package document

import (
	"reflect"
	"testing"
)

func TestConvertSetextToATX(t *testing.T) {
	in := "Title\n=====\n\nSubtitle\n--------\n\nbody\n"
	got := convertSetextToATX(in)
	want := "# Title\n\n## Subtitle\n\nbody\n"
	if got != want {
		t.Errorf("convertSetextToATX() = %q, want %q", got, want)
	}
}

func TestConvertBoldAsHeading_PromotesIsolatedBoldLine(t *testing.T) {
	in := "intro\n\n**Key Findings**\n\nmore text\n"
	got := convertBoldAsHeading(in)
	want := "intro\n\n## Key Findings\n\nmore text\n"
	if got != want {
		t.Errorf("convertBoldAsHeading() = %q, want %q", got, want)
	}
}

func TestConvertBoldAsHeading_LeavesInlineBoldAlone(t *testing.T) {
	in := "a line with **bold** inline text\n"
	got := convertBoldAsHeading(in)
	if got != in {
		t.Errorf("convertBoldAsHeading() changed inline bold: %q", got)
	}
}

func TestNormalizeWhitespace_CollapsesBlankRuns(t *testing.T) {
	in := "a\n\n\n\nb\n"
	want := "a\n\nb\n"
	if got := normalizeWhitespace(in); got != want {
		t.Errorf("normalizeWhitespace() = %q, want %q", got, want)
	}
}

func TestNormalizeTablePipes(t *testing.T) {
	// Splitting on "|" keeps the empty segments before the first and after
	// the last pipe, so the normalized row gains a leading/trailing space
	// rather than a leading/trailing pipe.
	in := "|a|b|\n|--|--|\n| 1 | 2 |\n"
	want := " | a | b | \n | -- | -- | \n | 1 | 2 | \n"
	if got := normalizeTablePipes(in); got != want {
		t.Errorf("normalizeTablePipes() = %q, want %q", got, want)
	}
}

func TestParseHeadings(t *testing.T) {
	normalized := "# Top\n\nbody\n\n## Child\n\nmore\n"
	headings := parseHeadings(normalized)
	want := []Heading{
		{Level: 1, Text: "Top", Line: 1},
		{Level: 2, Text: "Child", Line: 5},
	}
	if !reflect.DeepEqual(headings, want) {
		t.Errorf("parseHeadings() = %+v, want %+v", headings, want)
	}
}

func TestComputeSections_BoundsByEqualOrLesserDepth(t *testing.T) {
	// A level-1 section runs until the next heading at level <= 1, so it
	// swallows any nested level-2 subsections into its own content span.
	normalized := "# A\none\n## B\ntwo\n## C\nthree\n# D\nfour\n"
	headings := parseHeadings(normalized)
	sections := computeSections(normalized, headings)
	if len(sections) != 4 {
		t.Fatalf("len(sections) = %d, want 4", len(sections))
	}
	if sections[0].Heading.Text != "A" || sections[0].EndLine != 6 {
		t.Errorf("section A = %+v", sections[0])
	}
	if sections[1].Heading.Text != "B" || sections[1].EndLine != 4 {
		t.Errorf("section B = %+v", sections[1])
	}
	if sections[2].Heading.Text != "C" || sections[2].EndLine != 6 {
		t.Errorf("section C = %+v", sections[2])
	}
	if sections[3].Heading.Text != "D" || sections[3].EndLine != 9 {
		t.Errorf("section D = %+v", sections[3])
	}
}

func TestParseTables_AssociatesNearestHeading(t *testing.T) {
	normalized := "# Data\n\n| a | b |\n| -- | -- |\n| 1 | 2 |\n| 3 | 4 |\n"
	headings := parseHeadings(normalized)
	tables := parseTables(normalized, headings)
	if len(tables) != 1 {
		t.Fatalf("len(tables) = %d, want 1", len(tables))
	}
	tbl := tables[0]
	if tbl.HeadingRef == nil || *tbl.HeadingRef != "Data" {
		t.Errorf("HeadingRef = %v, want Data", tbl.HeadingRef)
	}
	if !reflect.DeepEqual(tbl.Headers, []string{"a", "b"}) {
		t.Errorf("Headers = %v", tbl.Headers)
	}
	if len(tbl.Rows) != 2 {
		t.Errorf("len(Rows) = %d, want 2", len(tbl.Rows))
	}
	if !reflect.DeepEqual(tbl.Rows[0], []string{"1", "2"}) {
		t.Errorf("Rows[0] = %v", tbl.Rows[0])
	}
}

func TestOpenMarkdown_FullPipeline(t *testing.T) {
	content := "Title\n=====\n\nintro\n\n\n\n**Highlights**\n\n| x | y |\n|---|---|\n| 1 | 2 |\n"
	path := writeTemp(t, "doc.md", content)
	doc, err := OpenMarkdown(path)
	if err != nil {
		t.Fatalf("OpenMarkdown: %v", err)
	}
	if len(doc.Headings) != 2 {
		t.Fatalf("len(Headings) = %d, want 2: %+v", len(doc.Headings), doc.Headings)
	}
	if doc.Headings[0].Text != "Title" || doc.Headings[0].Level != 1 {
		t.Errorf("Headings[0] = %+v", doc.Headings[0])
	}
	if doc.Headings[1].Text != "Highlights" || doc.Headings[1].Level != 2 {
		t.Errorf("Headings[1] = %+v", doc.Headings[1])
	}
	if len(doc.Tables) != 1 {
		t.Fatalf("len(Tables) = %d, want 1", len(doc.Tables))
	}
}
