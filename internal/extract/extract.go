// Package extract implements component D: turning a matched document's
// configured ExtractSections into a JSON-safe value per section, and
// computing the deterministic BLAKE3 content hash over a canonicalized
// subset of that map.
//
// Grounded on spec.md §4.4 (original_source/src/dsl/{content_hash,extract}.rs
// are unimplemented stubs superseded by the spec prose, per spec.md §9).
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cmdrvl/fingerprint/internal/document"
	"github.com/cmdrvl/fingerprint/internal/dsl"
)

// Extract produces a value for each configured section. A section whose
// target cannot be resolved (missing sheet, no match, wrong document kind)
// is simply omitted from the result — not an error.
func Extract(doc *document.Document, sections []dsl.ExtractSection) map[string]any {
	out := map[string]any{}
	for _, sec := range sections {
		if v, ok := extractOne(doc, sec); ok {
			out[sec.Name] = v
		}
	}
	return out
}

func extractOne(doc *document.Document, sec dsl.ExtractSection) (any, bool) {
	switch sec.Type {
	case "range":
		return extractRange(doc, sec)
	case "section":
		return extractSection(doc, sec)
	case "table":
		return extractTable(doc, sec)
	case "text_match":
		return extractTextMatch(doc, sec)
	default:
		return nil, false
	}
}

func extractRange(doc *document.Document, sec dsl.ExtractSection) (any, bool) {
	start, end, err := document.ParseRange(sec.Range)
	if err != nil {
		return nil, false
	}
	rows, err := rangeRows(doc, sec.Sheet, start, end)
	if err != nil {
		return nil, false
	}
	count := 0
	for _, row := range rows {
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				count++
				break
			}
		}
	}
	return map[string]any{"range": sec.Range, "row_count": count}, true
}

func rangeRows(doc *document.Document, sheet string, start, end document.CellRef) ([][]string, error) {
	switch doc.Kind {
	case document.FormatXlsx:
		return doc.Xlsx.Range(sheet, start, end)
	case document.FormatCsv:
		allRows, err := doc.Csv.Rows()
		if err != nil {
			return nil, err
		}
		out := make([][]string, 0, end.Row-start.Row+1)
		for r := start.Row; r <= end.Row; r++ {
			var line []string
			if r < len(allRows) {
				row := allRows[r]
				for c := start.Col; c <= end.Col; c++ {
					if c < len(row) {
						line = append(line, row[c])
					} else {
						line = append(line, "")
					}
				}
			} else {
				for c := start.Col; c <= end.Col; c++ {
					line = append(line, "")
				}
			}
			out = append(out, line)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("document has no spreadsheet structure")
	}
}

func extractSection(doc *document.Document, sec dsl.ExtractSection) (any, bool) {
	if doc.Kind != document.FormatMarkdown || doc.Markdown == nil {
		return nil, false
	}
	re, err := regexp.Compile(sec.AnchorHeading)
	if err != nil {
		return nil, false
	}
	for _, s := range doc.Markdown.Sections {
		if s.Heading != nil && re.MatchString(s.Heading.Text) {
			return map[string]any{
				"start_line": s.StartLine,
				"end_line":   s.EndLine,
				"heading":    s.Heading.Text,
			}, true
		}
	}
	return nil, false
}

func extractTable(doc *document.Document, sec dsl.ExtractSection) (any, bool) {
	if doc.Kind != document.FormatMarkdown || doc.Markdown == nil {
		return nil, false
	}
	re, err := regexp.Compile(sec.AnchorHeading)
	if err != nil {
		return nil, false
	}
	idx := 0
	if sec.Index != nil {
		idx = *sec.Index
	}
	matched := 0
	for _, tbl := range doc.Markdown.Tables {
		if tbl.HeadingRef == nil || !re.MatchString(*tbl.HeadingRef) {
			continue
		}
		if matched == idx {
			return map[string]any{
				"start_line": tbl.StartLine,
				"end_line":   tbl.EndLine,
				"columns":    tbl.Headers,
				"row_count":  len(tbl.Rows),
			}, true
		}
		matched++
	}
	return nil, false
}

func markdownNormalized(doc *document.Document) (string, bool) {
	switch doc.Kind {
	case document.FormatMarkdown:
		return doc.Markdown.Normalized, true
	case document.FormatPdf:
		if doc.Pdf.Text != nil {
			return doc.Pdf.Text.Normalized, true
		}
	}
	return "", false
}

func extractTextMatch(doc *document.Document, sec dsl.ExtractSection) (any, bool) {
	src, ok := markdownNormalized(doc)
	if !ok {
		return nil, false
	}
	anchorRe, err := regexp.Compile(sec.Anchor)
	if err != nil {
		return nil, false
	}
	valueRe, err := regexp.Compile(sec.Pattern)
	if err != nil {
		return nil, false
	}
	within := 0
	if sec.WithinChars != nil {
		within = *sec.WithinChars
	}

	anchorLoc := anchorRe.FindStringIndex(src)
	if anchorLoc == nil {
		return nil, false
	}

	for _, vm := range valueRe.FindAllStringIndex(src, -1) {
		if gapDistance(anchorLoc, vm, src) <= within {
			line, charOffset := lineAndOffset(src, vm[0])
			return map[string]any{
				"line":        line,
				"char_offset": charOffset,
				"matched":     src[vm[0]:vm[1]],
			}, true
		}
	}
	return nil, false
}

// gapDistance mirrors internal/assertion's text_near distance rule: an
// overlapping pair has distance 0, a whitespace-only gap shorter than 10
// characters tolerates wrapped labels and also counts as 0, otherwise the
// raw character gap between the two spans is returned.
func gapDistance(a, b []int, src string) int {
	var earlierEnd, laterStart int
	switch {
	case a[1] <= b[0]:
		earlierEnd, laterStart = a[1], b[0]
	case b[1] <= a[0]:
		earlierEnd, laterStart = b[1], a[0]
	default:
		return 0
	}
	gap := src[earlierEnd:laterStart]
	if strings.TrimSpace(gap) == "" && len(gap) < 10 {
		return 0
	}
	return laterStart - earlierEnd
}

func lineAndOffset(src string, idx int) (int, int) {
	lineStart := strings.LastIndex(src[:idx], "\n") + 1
	line := strings.Count(src[:idx], "\n") + 1
	return line, idx - lineStart
}
