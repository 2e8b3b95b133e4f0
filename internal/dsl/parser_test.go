package dsl

import "testing"

const sampleFpYAML = `
fingerprint_id: cbre-appraisal.v1/rent-roll.v1
format: pdf
valid_from: "2021-01-01"
valid_until: "2025-12-31"
parent: cbre-appraisal.v1
assertions:
  - name: assumptions_title
    cell_eq:
      sheet: "Assumptions"
      cell: "A3"
      value: "Market Leasing Assumptions"
  - heading_regex:
      pattern: "(?i)rent roll"
  - name: cap_rate_present
    text_near:
      anchor: "(?i)capitali[sz]ation rate"
      pattern: "\\d+\\.\\d+%"
      within_chars: 200
  - table_shape:
      heading: "(?i)rent roll"
      index: 0
      min_columns: 4
      column_types: [string, string, number, number]
extract:
  - name: rent_roll_range
    type: range
    sheet: "Assumptions"
    range: "A3:D10"
content_hash:
  algorithm: blake3
  over: [rent_roll_range]
`

func TestParseBytes_SupportsSpreadsheetAndContentAssertions(t *testing.T) {
	def, err := ParseBytes([]byte(sampleFpYAML), "sample.fp.yaml")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if def.FingerprintID != "cbre-appraisal.v1/rent-roll.v1" {
		t.Errorf("FingerprintID = %q", def.FingerprintID)
	}
	if len(def.Assertions) != 4 {
		t.Fatalf("len(Assertions) = %d, want 4", len(def.Assertions))
	}
	if def.Assertions[0].Name != "assumptions_title" {
		t.Errorf("Assertions[0].Name = %q", def.Assertions[0].Name)
	}
	if def.Assertions[1].Name != "heading_regex__rent_roll" {
		t.Errorf("Assertions[1].Name = %q", def.Assertions[1].Name)
	}
	if def.Assertions[0].Assertion.Sheet != "Assumptions" || def.Assertions[0].Assertion.Cell != "A3" {
		t.Errorf("Assertions[0] = %+v", def.Assertions[0].Assertion)
	}
	if def.ContentHash == nil || def.ContentHash.Algorithm != "blake3" {
		t.Errorf("ContentHash = %+v", def.ContentHash)
	}
}

func TestParseBytes_AutoGeneratesNamesForOmittedAssertions(t *testing.T) {
	yaml := `
fingerprint_id: test.v1
format: pdf
assertions:
  - heading_regex:
      pattern: "(?i)income capitali[sz]ation approach"
  - table_exists:
      heading: "(?i)rent roll"
      index: 0
  - cell_eq:
      sheet: "Assumptions"
      cell: "A3"
      value: "Market Leasing Assumptions"
  - text_near:
      anchor: "(?i)capitali[sz]ation rate"
      pattern: "\\d+\\.\\d+%"
      within_chars: 200
`
	def, err := ParseBytes([]byte(yaml), "t.fp.yaml")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	want := []string{
		"heading_regex__income_capitali_szat",
		"table_exists__rent_roll__0",
		"cell_eq__Assumptions__A3",
		"text_near__capitali_szation_rat",
	}
	for i, w := range want {
		if def.Assertions[i].Name != w {
			t.Errorf("Assertions[%d].Name = %q, want %q", i, def.Assertions[i].Name, w)
		}
	}
}

func TestParseBytes_DeduplicatesGeneratedNames(t *testing.T) {
	yaml := `
fingerprint_id: test.v2
format: markdown
assertions:
  - heading_regex:
      pattern: "(?i)property description"
  - heading_regex:
      pattern: "(?i)property description"
`
	def, err := ParseBytes([]byte(yaml), "t.fp.yaml")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if def.Assertions[0].Name != "heading_regex__property_description" {
		t.Errorf("Assertions[0].Name = %q", def.Assertions[0].Name)
	}
	if def.Assertions[1].Name != "heading_regex__property_description__1" {
		t.Errorf("Assertions[1].Name = %q", def.Assertions[1].Name)
	}
}

func TestParseBytes_PreservesExplicitName(t *testing.T) {
	yaml := `
fingerprint_id: test.v3
format: text
assertions:
  - name: explicit_name
    text_contains: "hello"
`
	def, err := ParseBytes([]byte(yaml), "t.fp.yaml")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if def.Assertions[0].Name != "explicit_name" {
		t.Errorf("Assertions[0].Name = %q", def.Assertions[0].Name)
	}
}

func TestParseBytes_SheetBindingAndRowScanning(t *testing.T) {
	yaml := `
fingerprint_id: cmbs-watl.v2
format: xlsx
assertions:
  - sheet_name_regex:
      pattern: "(?i)watch\\sl?ist|WATL"
      bind: "$watl_sheet"
  - column_search:
      sheet: "$watl_sheet"
      column: "A"
      row_range: "1:20"
      pattern: "CREFC Investor Reporting"
  - header_row_match:
      sheet: "$watl_sheet"
      row_range: "1:30"
      min_match: 5
      columns: [a, b, c, d, e, f, g]
`
	def, err := ParseBytes([]byte(yaml), "t.fp.yaml")
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if def.Assertions[0].Assertion.Bind != "$watl_sheet" {
		t.Errorf("Bind = %q", def.Assertions[0].Assertion.Bind)
	}
	if def.Assertions[1].Assertion.Sheet != "$watl_sheet" || def.Assertions[1].Assertion.RowRange != "1:20" {
		t.Errorf("ColumnSearch = %+v", def.Assertions[1].Assertion)
	}
	if def.Assertions[2].Assertion.MinMatch != 5 || len(def.Assertions[2].Assertion.Columns) != 7 {
		t.Errorf("HeaderRowMatch = %+v", def.Assertions[2].Assertion)
	}
}
