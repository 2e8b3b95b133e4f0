package document

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Heading is one ATX-level heading in normalized Markdown.
type Heading struct {
	Level uint8
	Text  string
	Line  int // 1-based
}

// Section is a heading plus its body, bounded by the next heading of equal
// or lesser depth (or end of document).
type Section struct {
	Heading   *Heading
	StartLine int // 1-based
	EndLine   int // 1-based, inclusive
	Content   string
}

// Table is a pipe-delimited table, associated with the nearest preceding
// heading by text only (not by pointer — the Markdown tree has no cycles).
type Table struct {
	HeadingRef *string
	Index      int // 0-based index among tables under the same heading
	StartLine  int // 1-based
	EndLine    int // 1-based, inclusive
	Headers    []string
	Rows       [][]string
}

// MarkdownDocument holds both the raw and normalized text plus the parsed
// heading/section/table structure, all indexed against normalized line
// numbers.
type MarkdownDocument struct {
	Path       string
	Raw        string
	Normalized string
	Headings   []Heading
	Sections   []Section
	Tables     []Table
}

// OpenMarkdown reads, normalizes, and parses a Markdown file.
func OpenMarkdown(path string) (*MarkdownDocument, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown file '%s': %w", path, err)
	}
	raw := string(b)
	normalized := normalizeMarkdown(raw)
	headings := parseHeadings(normalized)
	sections := computeSections(normalized, headings)
	tables := parseTables(normalized, headings)

	return &MarkdownDocument{
		Path:       path,
		Raw:        raw,
		Normalized: normalized,
		Headings:   headings,
		Sections:   sections,
		Tables:     tables,
	}, nil
}

// normalizeMarkdown runs the fixed normalization pipeline:
// setext->ATX, bold-as-heading promotion, blank-line collapse, table-pipe
// normalization — in that order.
func normalizeMarkdown(text string) string {
	text = convertSetextToATX(text)
	text = convertBoldAsHeading(text)
	text = normalizeWhitespace(text)
	text = normalizeTablePipes(text)
	return text
}

var setextH1 = regexp.MustCompile(`^=+\s*$`)
var setextH2 = regexp.MustCompile(`^-+\s*$`)

// convertSetextToATX rewrites a setext-style heading (text line followed by
// a line of all '=' -> level 1, all '-' -> level 2) into an ATX heading.
func convertSetextToATX(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	i := 0
	for i < len(lines) {
		line := lines[i]
		if i+1 < len(lines) && strings.TrimSpace(line) != "" {
			next := lines[i+1]
			if setextH1.MatchString(next) {
				out = append(out, "# "+strings.TrimSpace(line))
				i += 2
				continue
			}
			if setextH2.MatchString(next) {
				out = append(out, "## "+strings.TrimSpace(line))
				i += 2
				continue
			}
		}
		out = append(out, line)
		i++
	}
	return strings.Join(out, "\n")
}

var boldOnlyLine = regexp.MustCompile(`^\s*\*\*(.+?)\*\*\s*$`)

// convertBoldAsHeading promotes a line that is solely a bold run, preceded
// and followed by a blank line (or document boundary), to a level-2 ATX
// heading — regardless of what level would otherwise be implied by context.
func convertBoldAsHeading(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, len(lines))
	copy(out, lines)
	for i, line := range lines {
		m := boldOnlyLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		prevBlank := i == 0 || strings.TrimSpace(lines[i-1]) == ""
		nextBlank := i == len(lines)-1 || strings.TrimSpace(lines[i+1]) == ""
		if prevBlank && nextBlank {
			out[i] = "## " + strings.TrimSpace(m[1])
		}
	}
	return strings.Join(out, "\n")
}

var blankRun = regexp.MustCompile(`\n{3,}`)

// normalizeWhitespace collapses runs of more than one blank line to exactly
// one.
func normalizeWhitespace(text string) string {
	return blankRun.ReplaceAllString(text, "\n\n")
}

// normalizeTablePipes reformats any pipe-delimited line (a table row or
// separator) by trimming every cell and rejoining with " | ". Splitting on
// "|" (including the leading/trailing empty segments from a line starting/
// ending with "|") and rejoining leaves a leading/trailing space, matching
// the reference implementation's documented output exactly.
func normalizeTablePipes(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.Contains(line, "|") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := strings.Split(line, "|")
		for j, c := range cells {
			cells[j] = strings.TrimSpace(c)
		}
		lines[i] = strings.Join(cells, " | ")
	}
	return strings.Join(lines, "\n")
}

var atxHeading = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*#*\s*$`)

func parseHeadings(normalized string) []Heading {
	var headings []Heading
	lines := strings.Split(normalized, "\n")
	for i, line := range lines {
		m := atxHeading.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		headings = append(headings, Heading{
			Level: uint8(len(m[1])),
			Text:  m[2],
			Line:  i + 1,
		})
	}
	return headings
}

// computeSections bounds each heading's body by the next heading of
// equal-or-lesser depth; a leading preamble section (Heading == nil) covers
// any content before the first heading.
func computeSections(normalized string, headings []Heading) []Section {
	lines := strings.Split(normalized, "\n")
	total := len(lines)
	var sections []Section

	firstLine := 1
	if len(headings) > 0 {
		firstLine = headings[0].Line
	} else {
		firstLine = total + 1
	}
	if firstLine > 1 {
		sections = append(sections, Section{
			Heading:   nil,
			StartLine: 1,
			EndLine:   firstLine - 1,
			Content:   strings.Join(lines[0:firstLine-1], "\n"),
		})
	}

	for i, h := range headings {
		end := total
		for j := i + 1; j < len(headings); j++ {
			if headings[j].Level <= h.Level {
				end = headings[j].Line - 1
				break
			}
		}
		hh := h
		start := h.Line
		bodyStart := start // includes the heading line itself in Content per markdown.rs
		sections = append(sections, Section{
			Heading:   &hh,
			StartLine: start,
			EndLine:   end,
			Content:   strings.Join(lines[bodyStart-1:end], "\n"),
		})
	}
	return sections
}

func parseTables(normalized string, headings []Heading) []Table {
	lines := strings.Split(normalized, "\n")
	var tables []Table
	counts := map[string]int{}

	nearestHeading := func(lineNum int) *string {
		var best *Heading
		for i := range headings {
			if headings[i].Line < lineNum {
				best = &headings[i]
			} else {
				break
			}
		}
		if best == nil {
			return nil
		}
		t := best.Text
		return &t
	}

	i := 0
	for i < len(lines) {
		if isTableRow(lines[i]) && i+1 < len(lines) && isTableSeparator(lines[i+1]) {
			headerLine := i + 1
			headers := splitPipeRow(lines[i])
			start := headerLine
			j := i + 2
			var rows [][]string
			for j < len(lines) && isTableRow(lines[j]) {
				rows = append(rows, splitPipeRow(lines[j]))
				j++
			}
			end := j
			ref := nearestHeading(headerLine)
			key := ""
			if ref != nil {
				key = *ref
			}
			idx := counts[key]
			counts[key] = idx + 1
			tables = append(tables, Table{
				HeadingRef: ref,
				Index:      idx,
				StartLine:  start,
				EndLine:    end,
				Headers:    headers,
				Rows:       rows,
			})
			i = j
			continue
		}
		i++
	}
	return tables
}

func isTableRow(line string) bool {
	t := strings.TrimSpace(line)
	return strings.Contains(t, "|") && t != ""
}

var tableSepCell = regexp.MustCompile(`^:?-+:?$`)

func isTableSeparator(line string) bool {
	if !isTableRow(line) {
		return false
	}
	cells := splitPipeRow(line)
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !tableSepCell.MatchString(strings.TrimSpace(c)) {
			return false
		}
	}
	return true
}

func splitPipeRow(line string) []string {
	t := strings.TrimSpace(line)
	t = strings.TrimPrefix(t, "|")
	t = strings.TrimSuffix(t, "|")
	parts := strings.Split(t, "|")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
