package assertion

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cmdrvl/fingerprint/internal/document"
	"github.com/cmdrvl/fingerprint/internal/dsl"
)

// markdownView resolves the Markdown structural view (headings/sections/
// tables) applicable to doc: the document itself if it is Markdown, or the
// PDF's attached text_path view. Any other kind, or a PDF opened without a
// text_path, has no heading structure.
func markdownView(doc *document.Document) (*document.MarkdownDocument, string) {
	switch doc.Kind {
	case document.FormatMarkdown:
		return doc.Markdown, ""
	case document.FormatPdf:
		if doc.Pdf.Text == nil {
			return nil, "No text_path provided (E_NO_TEXT)"
		}
		return doc.Pdf.Text, ""
	default:
		return nil, "document has no heading structure"
	}
}

// textSource resolves the flat normalized text body applicable to
// text_contains/text_regex/text_near, which (unlike heading/section/table
// rules) also work against plain-text documents.
func textSource(doc *document.Document) (string, string) {
	switch doc.Kind {
	case document.FormatMarkdown:
		return doc.Markdown.Normalized, ""
	case document.FormatText:
		return doc.Text.Content, ""
	case document.FormatPdf:
		if doc.Pdf.Text == nil {
			return "", "No text_path provided (E_NO_TEXT)"
		}
		return doc.Pdf.Text.Normalized, ""
	default:
		return "", "document has no text content"
	}
}

// evalHeadingExists tests for a literal (non-regex) substring match against
// any heading's text.
func evalHeadingExists(st *state, a dsl.Assertion) (bool, string, any) {
	md, fail := markdownView(st.doc)
	if md == nil {
		return false, fail, nil
	}
	for _, h := range md.Headings {
		if strings.Contains(h.Text, a.Text) {
			return true, "", nil
		}
	}
	var ctx any
	if st.diag {
		var texts []string
		for _, h := range md.Headings {
			texts = append(texts, h.Text)
		}
		if best, dist, ok := nearestMatch(a.Text, texts); ok {
			ctx = map[string]any{"nearest_match": best, "distance": dist}
		}
	}
	return false, fmt.Sprintf("no heading contains '%s'", a.Text), ctx
}

// evalHeadingRegex tests for a regex match against any heading's text.
func evalHeadingRegex(st *state, a dsl.Assertion) (bool, string, any) {
	md, fail := markdownView(st.doc)
	if md == nil {
		return false, fail, nil
	}
	re, err := compileRegex(a.Pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid heading_regex pattern '%s': %v", a.Pattern, err), nil
	}
	for _, h := range md.Headings {
		if re.MatchString(h.Text) {
			return true, "", nil
		}
	}
	var ctx any
	if st.diag {
		var texts []string
		for _, h := range md.Headings {
			texts = append(texts, h.Text)
		}
		if best, dist, ok := nearestMatch(a.Pattern, texts); ok {
			ctx = map[string]any{"nearest_match": best, "distance": dist}
		}
	}
	return false, fmt.Sprintf("no heading matches pattern '%s'", a.Pattern), ctx
}

func evalHeadingLevel(st *state, a dsl.Assertion) (bool, string, any) {
	md, fail := markdownView(st.doc)
	if md == nil {
		return false, fail, nil
	}
	re, err := compileRegex(a.Pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid heading_level pattern '%s': %v", a.Pattern, err), nil
	}
	for _, h := range md.Headings {
		if re.MatchString(h.Text) {
			if h.Level == a.Level {
				return true, "", nil
			}
			return false, fmt.Sprintf("heading '%s' is level %d, want %d", h.Text, h.Level, a.Level), nil
		}
	}
	return false, fmt.Sprintf("no heading matches pattern '%s'", a.Pattern), nil
}

func evalTextContains(st *state, a dsl.Assertion) (bool, string, any) {
	src, fail := textSource(st.doc)
	if fail != "" {
		return false, fail, nil
	}
	if strings.Contains(src, a.Text) {
		return true, "", nil
	}
	return false, fmt.Sprintf("text '%s' not found", a.Text), nil
}

func evalTextRegex(st *state, a dsl.Assertion) (bool, string, any) {
	src, fail := textSource(st.doc)
	if fail != "" {
		return false, fail, nil
	}
	re, err := compileRegex(a.Pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid text_regex pattern '%s': %v", a.Pattern, err), nil
	}
	if re.MatchString(src) {
		return true, "", nil
	}
	return false, fmt.Sprintf("no text matches pattern '%s'", a.Pattern), nil
}

// evalTextNear tests whether some occurrence of anchor lies within
// within_chars of some occurrence of pattern, measured as the character gap
// between the two matches (in either order). A whitespace-only gap shorter
// than 10 characters counts as zero distance — adjacent anchor/value pairs
// separated only by formatting whitespace are "near" regardless of the
// configured threshold.
func evalTextNear(st *state, a dsl.Assertion) (bool, string, any) {
	src, fail := textSource(st.doc)
	if fail != "" {
		return false, fail, nil
	}
	anchorRe, err := compileRegex(a.Anchor)
	if err != nil {
		return false, fmt.Sprintf("invalid text_near anchor pattern '%s': %v", a.Anchor, err), nil
	}
	valueRe, err := compileRegex(a.Pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid text_near value pattern '%s': %v", a.Pattern, err), nil
	}

	anchors := anchorRe.FindAllStringIndex(src, -1)
	values := valueRe.FindAllStringIndex(src, -1)
	if len(anchors) == 0 {
		var ctx any
		if st.diag {
			ctx = map[string]any{"anchor_found": false}
		}
		return false, fmt.Sprintf("anchor pattern '%s' not found", a.Anchor), ctx
	}
	if len(values) == 0 {
		var ctx any
		if st.diag {
			ctx = map[string]any{"anchor_found": true}
		}
		return false, fmt.Sprintf("value pattern '%s' not found", a.Pattern), ctx
	}

	type outOfRange struct {
		Anchor  string `json:"anchor"`
		Matched string `json:"matched"`
		Distance int   `json:"distance"`
	}
	var oor []outOfRange

	for _, av := range anchors {
		for _, vv := range values {
			dist := gapDistance(src, av, vv)
			if dist <= a.WithinChars {
				return true, "", nil
			}
			if st.diag && len(oor) < 5 {
				oor = append(oor, outOfRange{
					Anchor:   excerpt(src, av),
					Matched:  excerpt(src, vv),
					Distance: dist,
				})
			}
		}
	}

	var ctx any
	if st.diag {
		ctx = map[string]any{"anchor_found": true, "out_of_range": oor}
	}
	return false, fmt.Sprintf("no occurrence of '%s' is within %d characters of '%s'", a.Pattern, a.WithinChars, a.Anchor), ctx
}

func excerpt(src string, span []int) string {
	return src[span[0]:span[1]]
}

// gapDistance measures the character gap between two non-overlapping match
// spans, regardless of order: from the end of whichever occurs first to the
// start of whichever occurs second. Overlapping spans have distance zero. A
// gap that is entirely whitespace and shorter than 10 characters is treated
// as distance zero.
func gapDistance(src string, a, b []int) int {
	var lo, hi []int
	if a[0] <= b[0] {
		lo, hi = a, b
	} else {
		lo, hi = b, a
	}
	if hi[0] <= lo[1] {
		return 0
	}
	gap := src[lo[1]:hi[0]]
	dist := hi[0] - lo[1]
	if dist < 10 && strings.TrimSpace(gap) == "" {
		return 0
	}
	return dist
}

func evalSectionNonEmpty(st *state, a dsl.Assertion) (bool, string, any) {
	md, fail := markdownView(st.doc)
	if md == nil {
		return false, fail, nil
	}
	sec, err := findSection(md, a.Heading)
	if err != nil {
		return false, err.Error(), nil
	}
	lines := nonBlankBodyLines(sec)
	if len(lines) > 0 {
		return true, "", nil
	}
	return false, fmt.Sprintf("section '%s' has no content", sec.Heading.Text), nil
}

func evalSectionMinLines(st *state, a dsl.Assertion) (bool, string, any) {
	md, fail := markdownView(st.doc)
	if md == nil {
		return false, fail, nil
	}
	sec, err := findSection(md, a.Heading)
	if err != nil {
		return false, err.Error(), nil
	}
	lines := nonBlankBodyLines(sec)
	if len(lines) >= a.MinLines {
		return true, "", nil
	}
	return false, fmt.Sprintf("section '%s' has %d non-blank lines, want >= %d", sec.Heading.Text, len(lines), a.MinLines), nil
}

func findSection(md *document.MarkdownDocument, headingPattern string) (*document.Section, error) {
	re, err := regexp.Compile(headingPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid section heading pattern '%s': %w", headingPattern, err)
	}
	for i := range md.Sections {
		sec := &md.Sections[i]
		if sec.Heading != nil && re.MatchString(sec.Heading.Text) {
			return sec, nil
		}
	}
	return nil, fmt.Errorf("no section matches heading pattern '%s'", headingPattern)
}

// nonBlankBodyLines returns the section's content lines with the heading
// line itself and any blank lines excluded.
func nonBlankBodyLines(sec *document.Section) []string {
	lines := strings.Split(sec.Content, "\n")
	if len(lines) > 0 {
		lines = lines[1:] // drop the heading line
	}
	var out []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
