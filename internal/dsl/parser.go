package dsl

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

type rawDefinition struct {
	FingerprintID string       `yaml:"fingerprint_id"`
	Format        string       `yaml:"format"`
	ValidFrom     *string      `yaml:"valid_from"`
	ValidUntil    *string      `yaml:"valid_until"`
	Parent        *string      `yaml:"parent"`
	Assertions    []yaml.Node  `yaml:"assertions"`
	Extract       []rawExtract `yaml:"extract"`
	ContentHash   *ContentHashConfig `yaml:"content_hash"`
}

type rawExtract struct {
	Name          string  `yaml:"name"`
	Type          string  `yaml:"type"`
	AnchorHeading string  `yaml:"anchor_heading"`
	Index         *int    `yaml:"index"`
	Anchor        string  `yaml:"anchor"`
	Pattern       string  `yaml:"pattern"`
	WithinChars   *int    `yaml:"within_chars"`
	Sheet         string  `yaml:"sheet"`
	Range         string  `yaml:"range"`
}

// Parse reads a .fp.yaml file into a FingerprintDefinition, generating a
// deterministic name for every assertion that omits one.
func Parse(path string) (*FingerprintDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed reading '%s': %w", path, err)
	}
	return ParseBytes(raw, path)
}

// ParseBytes parses already-loaded YAML content; path is used only for
// error messages.
func ParseBytes(raw []byte, path string) (*FingerprintDefinition, error) {
	var doc rawDefinition
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed parsing '%s': %w", path, err)
	}

	assertions := make([]NamedAssertion, 0, len(doc.Assertions))
	for i := range doc.Assertions {
		na, err := parseAssertionNode(&doc.Assertions[i])
		if err != nil {
			return nil, fmt.Errorf("failed parsing '%s': assertion %d: %w", path, i, err)
		}
		assertions = append(assertions, na)
	}
	autoNameAssertions(assertions)

	extract := make([]ExtractSection, 0, len(doc.Extract))
	for _, e := range doc.Extract {
		extract = append(extract, ExtractSection{
			Name:          e.Name,
			Type:          e.Type,
			AnchorHeading: e.AnchorHeading,
			Index:         e.Index,
			Anchor:        e.Anchor,
			Pattern:       e.Pattern,
			WithinChars:   e.WithinChars,
			Sheet:         e.Sheet,
			Range:         e.Range,
		})
	}

	return &FingerprintDefinition{
		FingerprintID: doc.FingerprintID,
		Format:        doc.Format,
		ValidFrom:     doc.ValidFrom,
		ValidUntil:    doc.ValidUntil,
		Parent:        doc.Parent,
		Assertions:    assertions,
		Extract:       extract,
		ContentHash:   doc.ContentHash,
	}, nil
}

func parseAssertionNode(node *yaml.Node) (NamedAssertion, error) {
	if node.Kind != yaml.MappingNode {
		return NamedAssertion{}, fmt.Errorf("assertion entry must be a mapping")
	}

	fields := map[string]*yaml.Node{}
	var order []string
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		fields[key] = node.Content[i+1]
		if key != "name" {
			order = append(order, key)
		}
	}

	var name string
	if n, ok := fields["name"]; ok {
		if err := n.Decode(&name); err != nil {
			return NamedAssertion{}, fmt.Errorf("invalid 'name': %w", err)
		}
	}

	if len(order) != 1 {
		return NamedAssertion{}, fmt.Errorf("assertion must have exactly one kind key, got %d", len(order))
	}
	kind := order[0]
	valueNode := fields[kind]

	assertion, err := decodeAssertionBody(AssertionKind(kind), valueNode)
	if err != nil {
		return NamedAssertion{}, fmt.Errorf("%s: %w", kind, err)
	}
	return NamedAssertion{Name: name, Assertion: assertion}, nil
}

func decodeAssertionBody(kind AssertionKind, v *yaml.Node) (Assertion, error) {
	switch kind {
	case KindFilenameRegex:
		var b struct {
			Pattern string `yaml:"pattern"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Pattern: b.Pattern}, nil

	case KindSheetExists:
		var sheet string
		if err := v.Decode(&sheet); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Sheet: sheet}, nil

	case KindSheetNameRegex:
		var b struct {
			Pattern string  `yaml:"pattern"`
			Bind    *string `yaml:"bind"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		a := Assertion{Kind: kind, Pattern: b.Pattern}
		if b.Bind != nil {
			a.Bind = *b.Bind
		}
		return a, nil

	case KindCellEq:
		var b struct {
			Sheet string `yaml:"sheet"`
			Cell  string `yaml:"cell"`
			Value string `yaml:"value"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Sheet: b.Sheet, Cell: b.Cell, Value: b.Value}, nil

	case KindCellRegex:
		var b struct {
			Sheet   string `yaml:"sheet"`
			Cell    string `yaml:"cell"`
			Pattern string `yaml:"pattern"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Sheet: b.Sheet, Cell: b.Cell, Pattern: b.Pattern}, nil

	case KindRangeNonNull:
		var b struct {
			Sheet string `yaml:"sheet"`
			Range string `yaml:"range"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Sheet: b.Sheet, Range: b.Range}, nil

	case KindRangePopulated:
		var b struct {
			Sheet  string  `yaml:"sheet"`
			Range  string  `yaml:"range"`
			MinPct float64 `yaml:"min_pct"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Sheet: b.Sheet, Range: b.Range, MinPct: b.MinPct}, nil

	case KindSheetMinRows:
		var b struct {
			Sheet   string `yaml:"sheet"`
			MinRows uint64 `yaml:"min_rows"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Sheet: b.Sheet, MinRows: b.MinRows}, nil

	case KindColumnSearch:
		var b struct {
			Sheet    string `yaml:"sheet"`
			Column   string `yaml:"column"`
			RowRange string `yaml:"row_range"`
			Pattern  string `yaml:"pattern"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Sheet: b.Sheet, Column: b.Column, RowRange: b.RowRange, Pattern: b.Pattern}, nil

	case KindHeaderRowMatch:
		var b struct {
			Sheet    string   `yaml:"sheet"`
			RowRange string   `yaml:"row_range"`
			MinMatch int      `yaml:"min_match"`
			Columns  []string `yaml:"columns"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Sheet: b.Sheet, RowRange: b.RowRange, MinMatch: b.MinMatch, Columns: b.Columns}, nil

	case KindSumEq:
		var b struct {
			Range       string  `yaml:"range"`
			EqualsCell  string  `yaml:"equals_cell"`
			Tolerance   float64 `yaml:"tolerance"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Range: b.Range, RangeEquals: b.EqualsCell, Tolerance: b.Tolerance}, nil

	case KindWithinTolerance:
		var b struct {
			Cell string  `yaml:"cell"`
			Min  float64 `yaml:"min"`
			Max  float64 `yaml:"max"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Cell: b.Cell, Min: b.Min, Max: b.Max}, nil

	case KindPageCount:
		var b struct {
			Min *int `yaml:"min"`
			Max *int `yaml:"max"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, PageMin: b.Min, PageMax: b.Max}, nil

	case KindMetadataRegex:
		var b struct {
			Key     string `yaml:"key"`
			Pattern string `yaml:"pattern"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Key: b.Key, Pattern: b.Pattern}, nil

	case KindHeadingExists:
		var text string
		if err := v.Decode(&text); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Text: text}, nil

	case KindHeadingRegex:
		var b struct {
			Pattern string `yaml:"pattern"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Pattern: b.Pattern}, nil

	case KindHeadingLevel:
		var b struct {
			Level   uint8  `yaml:"level"`
			Pattern string `yaml:"pattern"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Level: b.Level, Pattern: b.Pattern}, nil

	case KindTextContains:
		var text string
		if err := v.Decode(&text); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Text: text}, nil

	case KindTextRegex:
		var b struct {
			Pattern string `yaml:"pattern"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Pattern: b.Pattern}, nil

	case KindTextNear:
		var b struct {
			Anchor      string `yaml:"anchor"`
			Pattern     string `yaml:"pattern"`
			WithinChars int    `yaml:"within_chars"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Anchor: b.Anchor, Pattern: b.Pattern, WithinChars: b.WithinChars}, nil

	case KindSectionNonEmpty:
		var b struct {
			Heading string `yaml:"heading"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Heading: b.Heading}, nil

	case KindSectionMinLines:
		var b struct {
			Heading  string `yaml:"heading"`
			MinLines int    `yaml:"min_lines"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Heading: b.Heading, MinLines: b.MinLines}, nil

	case KindTableExists:
		var b struct {
			Heading string `yaml:"heading"`
			Index   *int   `yaml:"index"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Heading: b.Heading, Index: b.Index}, nil

	case KindTableColumns:
		var b struct {
			Heading string   `yaml:"heading"`
			Index   *int     `yaml:"index"`
			Columns []string `yaml:"columns"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Heading: b.Heading, Index: b.Index, Columns: b.Columns}, nil

	case KindTableShape:
		var b struct {
			Heading     string   `yaml:"heading"`
			Index       *int     `yaml:"index"`
			MinColumns  int      `yaml:"min_columns"`
			ColumnTypes []string `yaml:"column_types"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Heading: b.Heading, Index: b.Index, MinColumns: b.MinColumns, ColumnTypes: b.ColumnTypes}, nil

	case KindTableMinRows:
		var b struct {
			Heading string `yaml:"heading"`
			Index   *int   `yaml:"index"`
			MinRows uint64 `yaml:"min_rows"`
		}
		if err := v.Decode(&b); err != nil {
			return Assertion{}, err
		}
		return Assertion{Kind: kind, Heading: b.Heading, Index: b.Index, MinRows: b.MinRows}, nil

	default:
		return Assertion{}, fmt.Errorf("unknown assertion kind '%s'", kind)
	}
}
