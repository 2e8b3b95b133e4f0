package infer

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/cmdrvl/fingerprint/internal/document"
	"github.com/cmdrvl/fingerprint/internal/dsl"
	"github.com/cmdrvl/fingerprint/internal/search"
)

// CandidateLocation is one ranked candidate line for a field's value, used
// when more than one line in the document contains it.
type CandidateLocation struct {
	Line    int
	Snippet string
}

// Resolver lets the caller choose among tied candidate locations for a
// field — e.g. via an interactive prompt — when a plain top-ranked pick
// isn't wanted. It returns the index into candidates to use.
type Resolver func(field SchemaField, candidates []CandidateLocation) (int, error)

// SchemaField is one (name, value) pair from a schema-infer fields file: a
// label and the literal text to locate for it in the sample document.
type SchemaField struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// SchemaInferResult is the outcome of InferSchema: a draft definition plus
// how many of the requested fields it actually located.
type SchemaInferResult struct {
	Definition    dsl.FingerprintDefinition
	TotalFields   int
	LocatedFields int
}

type locatedField struct {
	assertion dsl.NamedAssertion
	extract   *dsl.ExtractSection
}

// InferSchema locates each named field's literal value inside doc and
// assembles a single assertion (plus, where possible, an extract section)
// per located field. Fields that cannot be found are silently dropped; the
// caller decides whether a partial result (LocatedFields < TotalFields) is
// acceptable.
//
// Grounded on original_source/src/infer/schema_infer.rs. The Markdown/Text
// paths prefer the hybrid searcher (internal/search) to rank candidate
// lines when a field's value appears more than once, taking the top-ranked
// line when resolve is nil (the default, non-interactive CLI behavior per
// SPEC_FULL.md §6.1) and keeping document order only when the searcher
// ranks none of the matching lines; CSV/XLSX/PDF-metadata locations are
// exact-match scans with no ranking ambiguity to resolve.
func InferSchema(docPath, fieldsPath, fingerprintID string, resolve Resolver) (SchemaInferResult, error) {
	fields, err := ParseSchemaFieldsFile(fieldsPath)
	if err != nil {
		return SchemaInferResult{}, err
	}
	if len(fields) == 0 {
		return SchemaInferResult{}, fmt.Errorf("schema field list is empty")
	}

	doc, err := document.OpenDocument(docPath)
	if err != nil {
		return SchemaInferResult{}, fmt.Errorf("failed opening document '%s': %w", docPath, err)
	}

	var located []locatedField
	for _, field := range fields {
		lf, err := locateField(doc, field, resolve)
		if err != nil {
			return SchemaInferResult{}, err
		}
		if lf != nil {
			located = append(located, *lf)
		}
	}
	if len(located) == 0 {
		return SchemaInferResult{}, fmt.Errorf("no schema fields could be located in the document")
	}

	assertions := make([]dsl.NamedAssertion, 0, len(located))
	var extract []dsl.ExtractSection
	for _, lf := range located {
		assertions = append(assertions, lf.assertion)
		if lf.extract != nil {
			extract = append(extract, *lf.extract)
		}
	}
	var contentHash *dsl.ContentHashConfig
	if len(extract) > 0 {
		names := make([]string, 0, len(extract))
		for _, e := range extract {
			names = append(names, e.Name)
		}
		contentHash = &dsl.ContentHashConfig{Algorithm: "blake3", Over: names}
	}

	return SchemaInferResult{
		Definition: dsl.FingerprintDefinition{
			FingerprintID: fingerprintID,
			Format:        string(doc.Kind),
			Assertions:    assertions,
			Extract:       extract,
			ContentHash:   contentHash,
		},
		TotalFields:   len(fields),
		LocatedFields: len(located),
	}, nil
}

// ParseSchemaFieldsFile reads and parses a schema fields YAML file from disk.
func ParseSchemaFieldsFile(path string) ([]SchemaField, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed reading schema file '%s': %w", path, err)
	}
	return ParseSchemaFields(raw)
}

// ParseSchemaFields parses a schema fields YAML document: a list of
// {name, value} pairs, each of which must be non-empty once trimmed.
func ParseSchemaFields(raw []byte) ([]SchemaField, error) {
	var fields []SchemaField
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("invalid fields yaml: %w", err)
	}
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.Value) == "" {
			return nil, fmt.Errorf("schema field name/value must be non-empty (field '%s')", f.Name)
		}
	}
	return fields, nil
}

func locateField(doc *document.Document, field SchemaField, resolve Resolver) (*locatedField, error) {
	switch doc.Kind {
	case document.FormatMarkdown:
		return locateInMarkdown(doc.Markdown, field, resolve)
	case document.FormatText:
		return locateInText(doc.Text, field, resolve)
	case document.FormatCsv:
		return locateInCsv(doc.Csv, field), nil
	case document.FormatXlsx:
		return locateInXlsx(doc.Xlsx, field), nil
	case document.FormatPdf:
		if doc.Pdf.Text != nil {
			return locateInMarkdown(doc.Pdf.Text, field, resolve)
		}
		return locateInPdfMetadata(doc.Pdf, field), nil
	default:
		return nil, nil
	}
}

// rankLines indexes every non-blank line of content as a search.SearchDocument
// keyed by its 1-based line number, so candidate lines containing field.Value
// can be ranked by the hybrid searcher rather than taken in document order.
func rankLines(content string, field SchemaField, matchLines []int) []int {
	if len(matchLines) <= 1 {
		return matchLines
	}
	lines := strings.Split(content, "\n")
	var docs []search.SearchDocument
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		docs = append(docs, search.SearchDocument{ID: strconv.Itoa(i + 1), Content: line})
	}
	searcher, err := search.NewHybridSearcher(docs)
	if err != nil {
		return matchLines
	}
	hits := searcher.Search(field.Value, len(matchLines))
	inMatch := make(map[string]bool, len(matchLines))
	for _, l := range matchLines {
		inMatch[strconv.Itoa(l)] = true
	}
	var ranked []int
	for _, h := range hits {
		if !inMatch[h.DocID] {
			continue
		}
		n, err := strconv.Atoi(h.DocID)
		if err == nil {
			ranked = append(ranked, n)
		}
	}
	if len(ranked) == 0 {
		return matchLines
	}
	return ranked
}

func chooseLine(field SchemaField, md *document.MarkdownDocument, matchLines []int, resolve Resolver) (int, error) {
	ranked := rankLines(md.Normalized, field, matchLines)
	if len(ranked) <= 1 || resolve == nil {
		return ranked[0], nil
	}

	lines := strings.Split(md.Normalized, "\n")
	candidates := make([]CandidateLocation, 0, len(ranked))
	for _, l := range ranked {
		candidates = append(candidates, CandidateLocation{Line: l, Snippet: strings.TrimSpace(lines[l-1])})
	}
	idx, err := resolve(field, candidates)
	if err != nil {
		return 0, err
	}
	return candidates[idx].Line, nil
}

func locateInMarkdown(md *document.MarkdownDocument, field SchemaField, resolve Resolver) (*locatedField, error) {
	content := strings.ToLower(md.Normalized)
	needle := strings.ToLower(field.Value)
	if !strings.Contains(content, needle) {
		return nil, nil
	}

	lines := strings.Split(md.Normalized, "\n")
	var matchLines []int
	for i, l := range lines {
		if strings.Contains(strings.ToLower(l), needle) {
			matchLines = append(matchLines, i+1)
		}
	}
	line, err := chooseLine(field, md, matchLines, resolve)
	if err != nil {
		return nil, err
	}

	var nearestHeading string
	haveHeading := false
	bestLine := -1
	for _, h := range md.Headings {
		if h.Line <= line && h.Line > bestLine {
			bestLine = h.Line
			nearestHeading = h.Text
			haveHeading = true
		}
	}

	escapedValue := regexp.QuoteMeta(field.Value)
	var assertion dsl.Assertion
	var anchorHeading string
	if haveHeading {
		anchor := "(?i)" + regexp.QuoteMeta(nearestHeading)
		assertion = dsl.Assertion{Kind: dsl.KindTextNear, Anchor: anchor, Pattern: escapedValue, WithinChars: 400}
		anchorHeading = anchor
	} else {
		assertion = dsl.Assertion{Kind: dsl.KindTextRegex, Pattern: escapedValue}
	}

	withinChars := 400
	return &locatedField{
		assertion: dsl.NamedAssertion{Name: field.Name, Assertion: assertion},
		extract: &dsl.ExtractSection{
			Name:          field.Name,
			Type:          "text_match",
			AnchorHeading: anchorHeading,
			Pattern:       escapedValue,
			WithinChars:   &withinChars,
		},
	}, nil
}

func locateInText(text *document.TextDocument, field SchemaField, resolve Resolver) (*locatedField, error) {
	target := strings.ToLower(field.Value)
	lines := text.Lines()
	var matchLines []int
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), target) {
			matchLines = append(matchLines, i+1)
		}
	}
	if len(matchLines) == 0 {
		return nil, nil
	}

	ranked := rankLines(strings.Join(lines, "\n"), field, matchLines)
	lineNum := ranked[0]
	if len(ranked) > 1 && resolve != nil {
		candidates := make([]CandidateLocation, 0, len(ranked))
		for _, l := range ranked {
			candidates = append(candidates, CandidateLocation{Line: l, Snippet: strings.TrimSpace(lines[l-1])})
		}
		idx, err := resolve(field, candidates)
		if err != nil {
			return nil, err
		}
		lineNum = candidates[idx].Line
	}
	lineIndex := lineNum - 1

	var anchorLine string
	haveAnchor := false
	for i := lineIndex - 1; i >= 0; i-- {
		candidate := strings.TrimSpace(lines[i])
		if candidate != "" {
			anchorLine = candidate
			haveAnchor = true
			break
		}
	}

	escapedValue := regexp.QuoteMeta(field.Value)
	var assertion dsl.Assertion
	var anchor string
	if haveAnchor {
		anchor = regexp.QuoteMeta(anchorLine)
		assertion = dsl.Assertion{Kind: dsl.KindTextNear, Anchor: anchor, Pattern: escapedValue, WithinChars: 400}
	} else {
		assertion = dsl.Assertion{Kind: dsl.KindTextRegex, Pattern: escapedValue}
	}

	withinChars := 400
	return &locatedField{
		assertion: dsl.NamedAssertion{Name: field.Name, Assertion: assertion},
		extract: &dsl.ExtractSection{
			Name:        field.Name,
			Type:        "text_match",
			Anchor:      anchor,
			Pattern:     escapedValue,
			WithinChars: &withinChars,
		},
	}, nil
}

func locateInCsv(csv *document.CsvDocument, field SchemaField) *locatedField {
	rows, err := csv.Rows()
	if err != nil {
		return nil
	}
	target := strings.TrimSpace(field.Value)
	for row, values := range rows {
		for col, value := range values {
			if strings.TrimSpace(value) != target {
				continue
			}
			cell := document.ToCellRef(row, col)
			return &locatedField{
				assertion: dsl.NamedAssertion{
					Name:      field.Name,
					Assertion: dsl.Assertion{Kind: dsl.KindCellEq, Sheet: "Sheet1", Cell: cell, Value: field.Value},
				},
				extract: &dsl.ExtractSection{
					Name:  field.Name,
					Type:  "range",
					Sheet: "Sheet1",
					Range: cell + ":" + cell,
				},
			}
		}
	}
	return nil
}

// locateInXlsx scans a bounded window (128 rows x 32 columns) of each sheet
// for an exact, trimmed match of field.Value.
func locateInXlsx(xlsx *document.XlsxDocument, field SchemaField) *locatedField {
	target := strings.TrimSpace(field.Value)
	for _, sheet := range xlsx.SheetNames() {
		for row := 0; row < 128; row++ {
			for col := 0; col < 32; col++ {
				value, err := xlsx.Cell(sheet, row, col)
				if err != nil || strings.TrimSpace(value) != target {
					continue
				}
				cell := document.ToCellRef(row, col)
				return &locatedField{
					assertion: dsl.NamedAssertion{
						Name:      field.Name,
						Assertion: dsl.Assertion{Kind: dsl.KindCellEq, Sheet: sheet, Cell: cell, Value: field.Value},
					},
					extract: &dsl.ExtractSection{
						Name:  field.Name,
						Type:  "range",
						Sheet: sheet,
						Range: cell + ":" + cell,
					},
				}
			}
		}
	}
	return nil
}

// locateInPdfMetadata has no extract section: a PDF Info-dict entry has no
// line/byte position to extract a range around, unlike text content.
func locateInPdfMetadata(pdf *document.PdfDocument, field SchemaField) *locatedField {
	pairs, err := pdf.Metadata()
	if err != nil {
		return nil
	}
	target := strings.TrimSpace(field.Value)
	for _, kv := range pairs {
		if strings.TrimSpace(kv[1]) != target {
			continue
		}
		pattern := "^" + regexp.QuoteMeta(kv[1]) + "$"
		return &locatedField{
			assertion: dsl.NamedAssertion{
				Name:      field.Name,
				Assertion: dsl.Assertion{Kind: dsl.KindMetadataRegex, Key: kv[0], Pattern: pattern},
			},
		}
	}
	return nil
}
