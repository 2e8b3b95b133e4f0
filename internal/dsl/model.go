// Package dsl implements the fingerprint definition language (component B):
// the .fp.yaml surface, its parser, its auto-naming algorithm for assertions
// left unnamed, and a JSON-Schema generator describing the whole surface.
//
// Grounded on original_source/src/dsl/{mod,assertions,parser,extract,content_hash}.rs.
package dsl

// AssertionKind names one of the DSL's assertion variants. The YAML key used
// to tag a variant in a .fp.yaml document is exactly its string value.
type AssertionKind string

const (
	KindFilenameRegex   AssertionKind = "filename_regex"
	KindSheetExists     AssertionKind = "sheet_exists"
	KindSheetNameRegex  AssertionKind = "sheet_name_regex"
	KindCellEq          AssertionKind = "cell_eq"
	KindCellRegex       AssertionKind = "cell_regex"
	KindRangeNonNull    AssertionKind = "range_non_null"
	KindRangePopulated  AssertionKind = "range_populated" // reserved, unimplemented
	KindSheetMinRows    AssertionKind = "sheet_min_rows"
	KindColumnSearch    AssertionKind = "column_search"
	KindHeaderRowMatch  AssertionKind = "header_row_match"
	KindSumEq           AssertionKind = "sum_eq"           // reserved, unimplemented
	KindWithinTolerance AssertionKind = "within_tolerance" // reserved, unimplemented
	KindPageCount       AssertionKind = "page_count"
	KindMetadataRegex   AssertionKind = "metadata_regex"
	KindHeadingExists   AssertionKind = "heading_exists"
	KindHeadingRegex    AssertionKind = "heading_regex"
	KindHeadingLevel    AssertionKind = "heading_level"
	KindTextContains    AssertionKind = "text_contains"
	KindTextRegex       AssertionKind = "text_regex"
	KindTextNear        AssertionKind = "text_near"
	KindSectionNonEmpty AssertionKind = "section_non_empty"
	KindSectionMinLines AssertionKind = "section_min_lines"
	KindTableExists     AssertionKind = "table_exists"
	KindTableColumns    AssertionKind = "table_columns"
	KindTableShape      AssertionKind = "table_shape"
	KindTableMinRows    AssertionKind = "table_min_rows"
)

// ReservedKinds are schema-valid but not evaluated in this version; the
// evaluator reports a fixed "not implemented in v0.1" failure for them.
var ReservedKinds = map[AssertionKind]bool{
	KindRangePopulated:  true,
	KindSumEq:           true,
	KindWithinTolerance: true,
}

// Assertion is a tagged union over every DSL assertion variant. Exactly the
// fields relevant to Kind are populated; the rest are zero values. Decoding
// is handled by parseAssertionNode in parser.go, not by yaml.v3's struct
// tags, since each variant is keyed by a single YAML map entry.
type Assertion struct {
	Kind AssertionKind

	Pattern  string // filename_regex, sheet_name_regex, cell_regex, heading_regex, text_regex, metadata_regex (value half)
	Sheet    string
	Cell     string
	Value    string
	Range    string
	MinRows  uint64
	MinPct   float64
	Bind     string // sheet_name_regex.bind, leading "$" preserved as written
	Column   string
	RowRange string
	MinMatch int
	Columns  []string // header_row_match.columns

	RangeEquals string // sum_eq.equals_cell
	Tolerance   float64
	Min         float64
	Max         float64

	PageMin *int
	PageMax *int

	Key  string // metadata_regex.key
	Text string // heading_exists / text_contains literal

	Level uint8

	Anchor      string
	WithinChars int

	Heading     string
	Index       *int
	MinLines    int
	MinColumns  int
	ColumnTypes []string
}

// NamedAssertion pairs an (optional, user-supplied) name with its assertion.
type NamedAssertion struct {
	Name      string
	Assertion Assertion
}

// ExtractSection is one named content-extraction rule.
type ExtractSection struct {
	Name          string
	Type          string // "range" | "section" | "table" | "text_match"
	AnchorHeading string
	Index         *int
	Anchor        string
	Pattern       string
	WithinChars   *int
	Sheet         string
	Range         string
}

// ContentHashConfig selects which extract sections feed the content hash.
type ContentHashConfig struct {
	Algorithm string
	Over      []string
}

// FingerprintDefinition is one parsed .fp.yaml document.
type FingerprintDefinition struct {
	FingerprintID string
	Format        string
	ValidFrom     *string
	ValidUntil    *string
	Parent        *string
	Assertions    []NamedAssertion
	Extract       []ExtractSection
	ContentHash   *ContentHashConfig
}
