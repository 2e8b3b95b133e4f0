package dsl

import "github.com/goccy/go-json"

// kindSchema describes one assertion kind's JSON-Schema body for the
// generator below: its value shape (object properties, or "string" for a
// bare-scalar variant) and which properties are required.
type kindSchema struct {
	kind       AssertionKind
	scalar     bool // true for SheetExists/HeadingExists/TextContains-style bare values
	properties map[string]any
	required   []string
	reserved   bool
}

var kindSchemas = []kindSchema{
	{kind: KindFilenameRegex, properties: map[string]any{"pattern": strType(1)}, required: []string{"pattern"}},
	{kind: KindSheetExists, scalar: true},
	{kind: KindSheetNameRegex, properties: map[string]any{"pattern": strType(1), "bind": strType(1)}, required: []string{"pattern"}},
	{kind: KindCellEq, properties: map[string]any{"sheet": strType(1), "cell": strType(1), "value": strType(0)}, required: []string{"sheet", "cell", "value"}},
	{kind: KindCellRegex, properties: map[string]any{"sheet": strType(1), "cell": strType(1), "pattern": strType(1)}, required: []string{"sheet", "cell", "pattern"}},
	{kind: KindRangeNonNull, properties: map[string]any{"sheet": strType(1), "range": strType(1)}, required: []string{"sheet", "range"}},
	{kind: KindSheetMinRows, properties: map[string]any{"sheet": strType(1), "min_rows": intType(0)}, required: []string{"sheet", "min_rows"}},
	{kind: KindColumnSearch, properties: map[string]any{"sheet": strType(1), "column": strType(1), "row_range": strType(1), "pattern": strType(1)}, required: []string{"sheet", "column", "row_range", "pattern"}},
	{kind: KindHeaderRowMatch, properties: map[string]any{"sheet": strType(1), "row_range": strType(1), "min_match": intType(0), "columns": map[string]any{"type": "array", "items": strType(1)}}, required: []string{"sheet", "row_range", "min_match", "columns"}},
	{kind: KindRangePopulated, properties: map[string]any{"sheet": strType(1), "range": strType(1), "min_pct": map[string]any{"type": "number", "minimum": 0, "maximum": 1}}, required: []string{"sheet", "range", "min_pct"}, reserved: true},
	{kind: KindSumEq, properties: map[string]any{"range": strType(1), "equals_cell": strType(1), "tolerance": map[string]any{"type": "number"}}, required: []string{"range", "equals_cell", "tolerance"}, reserved: true},
	{kind: KindWithinTolerance, properties: map[string]any{"cell": strType(1), "min": map[string]any{"type": "number"}, "max": map[string]any{"type": "number"}}, required: []string{"cell", "min", "max"}, reserved: true},
	{kind: KindPageCount, properties: map[string]any{"min": intType(0), "max": intType(0)}},
	{kind: KindMetadataRegex, properties: map[string]any{"key": strType(1), "pattern": strType(1)}, required: []string{"key", "pattern"}},
	{kind: KindHeadingExists, scalar: true},
	{kind: KindHeadingRegex, properties: map[string]any{"pattern": strType(1)}, required: []string{"pattern"}},
	{kind: KindHeadingLevel, properties: map[string]any{"level": map[string]any{"type": "integer", "minimum": 1, "maximum": 6}, "pattern": strType(1)}, required: []string{"level", "pattern"}},
	{kind: KindTextContains, scalar: true},
	{kind: KindTextRegex, properties: map[string]any{"pattern": strType(1)}, required: []string{"pattern"}},
	{kind: KindTextNear, properties: map[string]any{"anchor": strType(1), "pattern": strType(1), "within_chars": intType(0)}, required: []string{"anchor", "pattern", "within_chars"}},
	{kind: KindSectionNonEmpty, properties: map[string]any{"heading": strType(1)}, required: []string{"heading"}},
	{kind: KindSectionMinLines, properties: map[string]any{"heading": strType(1), "min_lines": intType(0)}, required: []string{"heading", "min_lines"}},
	{kind: KindTableExists, properties: map[string]any{"heading": strType(1), "index": intType(0)}, required: []string{"heading"}},
	{kind: KindTableColumns, properties: map[string]any{"heading": strType(1), "index": intType(0), "columns": map[string]any{"type": "array", "items": strType(1)}}, required: []string{"heading", "columns"}},
	{kind: KindTableShape, properties: map[string]any{"heading": strType(1), "index": intType(0), "min_columns": intType(0), "column_types": map[string]any{"type": "array", "items": map[string]any{"type": "string", "enum": []string{"number", "currency", "percentage", "date", "string", "empty"}}}}, required: []string{"heading", "min_columns", "column_types"}},
	{kind: KindTableMinRows, properties: map[string]any{"heading": strType(1), "index": intType(0), "min_rows": intType(0)}, required: []string{"heading", "min_rows"}},
}

func strType(minLen int) map[string]any {
	return map[string]any{"type": "string", "minLength": minLen}
}

func intType(minimum int) map[string]any {
	return map[string]any{"type": "integer", "minimum": minimum}
}

// DSLJSONSchema renders the JSON-Schema (draft 2020-12) describing the
// .fp.yaml surface: every assertion kind enumerated, numeric bounds
// constrained, and reserved kinds annotated x-runtime-support.
func DSLJSONSchema() (string, error) {
	defs := map[string]any{}
	var oneOf []any
	for _, ks := range kindSchemas {
		name := "assertion_" + string(ks.kind)
		oneOf = append(oneOf, map[string]any{"$ref": "#/$defs/" + name})

		var valueSchema map[string]any
		if ks.scalar {
			valueSchema = strType(1)
		} else {
			valueSchema = map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           ks.properties,
				"required":             ks.required,
			}
		}

		def := map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []string{string(ks.kind)},
			"properties": map[string]any{
				"name":         map[string]any{"type": "string"},
				string(ks.kind): valueSchema,
			},
		}
		if ks.reserved {
			def["x-runtime-support"] = "unsupported_in_v0_1"
		}
		defs[name] = def
	}
	defs["namedAssertion"] = map[string]any{"oneOf": oneOf}
	defs["extractSection"] = map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"name", "type"},
		"properties": map[string]any{
			"name":          strType(1),
			"type":          map[string]any{"type": "string", "enum": []string{"range", "section", "table", "text_match"}},
			"anchor_heading": strType(0),
			"index":         intType(0),
			"anchor":        strType(0),
			"pattern":       strType(0),
			"within_chars":  intType(0),
			"sheet":         strType(0),
			"range":         strType(0),
		},
	}
	defs["contentHashConfig"] = map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"algorithm", "over"},
		"properties": map[string]any{
			"algorithm": map[string]any{"type": "string", "enum": []string{"blake3"}},
			"over":      map[string]any{"type": "array", "items": strType(1)},
		},
	}

	schema := map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                "Fingerprint DSL Definition",
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"fingerprint_id", "format", "assertions"},
		"properties": map[string]any{
			"fingerprint_id": strType(1),
			"format":         map[string]any{"type": "string", "enum": []string{"xlsx", "csv", "pdf", "markdown", "text"}},
			"valid_from":     map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"valid_until":    map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"parent":         strType(1),
			"assertions":     map[string]any{"type": "array", "items": map[string]any{"$ref": "#/$defs/namedAssertion"}},
			"extract":        map[string]any{"type": "array", "items": map[string]any{"$ref": "#/$defs/extractSection"}, "default": []any{}},
			"content_hash":   map[string]any{"$ref": "#/$defs/contentHashConfig"},
		},
		"$defs": defs,
	}

	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
