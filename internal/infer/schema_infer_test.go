package infer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cmdrvl/fingerprint/internal/dsl"
)

func TestParseSchemaFields_ParsesNameValuePairs(t *testing.T) {
	fields, err := ParseSchemaFields([]byte("- name: as_of_date\n  value: \"June 15, 2024\"\n- name: cap_rate\n  value: \"6.25%\"\n"))
	if err != nil {
		t.Fatalf("ParseSchemaFields: %v", err)
	}
	if len(fields) != 2 || fields[0].Name != "as_of_date" || fields[1].Value != "6.25%" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestParseSchemaFields_RejectsEmptyNameOrValue(t *testing.T) {
	if _, err := ParseSchemaFields([]byte("- name: ok\n  value: \"\"\n")); err == nil {
		t.Fatal("expected an error for a blank value")
	}
}

func TestInferSchema_MarkdownFindsNearbyHeadingAsAnchor(t *testing.T) {
	mdPath := writeTemp(t, "summary.md", "# Summary\n\nAs of date: June 15, 2024\nCap rate: 6.25%\n")
	fieldsPath := writeTemp(t, "fields.yaml", "- name: as_of_date\n  value: \"June 15, 2024\"\n- name: cap_rate\n  value: \"6.25%\"\n")

	result, err := InferSchema(mdPath, fieldsPath, "schema-test.v1", nil)
	if err != nil {
		t.Fatalf("InferSchema: %v", err)
	}
	if result.TotalFields != 2 || result.LocatedFields != 2 {
		t.Fatalf("expected both fields located, got total=%d located=%d", result.TotalFields, result.LocatedFields)
	}
	if result.Definition.FingerprintID != "schema-test.v1" || result.Definition.Format != "markdown" {
		t.Fatalf("unexpected definition header: %+v", result.Definition)
	}
	if len(result.Definition.Assertions) != 2 {
		t.Fatalf("expected 2 assertions, got %d", len(result.Definition.Assertions))
	}
	for _, na := range result.Definition.Assertions {
		if na.Assertion.Kind != dsl.KindTextNear {
			t.Errorf("expected every field under the '# Summary' heading to anchor via text_near, got %s", na.Assertion.Kind)
		}
	}
	if result.Definition.ContentHash == nil || len(result.Definition.ContentHash.Over) != 2 {
		t.Fatalf("expected a content hash covering both extract sections, got %+v", result.Definition.ContentHash)
	}

	// re-encoding through the emitter's assertion mapping must not panic or
	// drop fields for either located kind.
	out, err := Emit(AggregatedProfile{
		FingerprintID: result.Definition.FingerprintID,
		Format:        result.Definition.Format,
		Assertions:    []InferredAssertion{{Assertion: result.Definition.Assertions[0], Confidence: 1, Support: 1, Total: 1}},
	})
	if err != nil || out == "" {
		t.Fatalf("Emit on a schema-infer assertion: out=%q err=%v", out, err)
	}
}

func TestInferSchema_PartialLocationTracksMissingFields(t *testing.T) {
	mdPath := writeTemp(t, "summary.md", "# Summary\n\nAs of date: June 15, 2024\n")
	fieldsPath := writeTemp(t, "fields.yaml", "- name: as_of_date\n  value: \"June 15, 2024\"\n- name: missing_field\n  value: \"DOES NOT EXIST\"\n")

	result, err := InferSchema(mdPath, fieldsPath, "schema-test.v1", nil)
	if err != nil {
		t.Fatalf("InferSchema: %v", err)
	}
	if result.TotalFields != 2 || result.LocatedFields != 1 {
		t.Fatalf("expected 1 of 2 fields located, got total=%d located=%d", result.TotalFields, result.LocatedFields)
	}
}

func TestInferSchema_Csv_LocatesExactCellAndEmitsRangeExtract(t *testing.T) {
	csvPath := writeTemp(t, "data.csv", "Name,Rent\nUnit 1A,1200\nUnit 1B,1300\n")
	fieldsPath := writeTemp(t, "fields.yaml", "- name: first_tenant_rent\n  value: \"1200\"\n")

	result, err := InferSchema(csvPath, fieldsPath, "leases.v1", nil)
	if err != nil {
		t.Fatalf("InferSchema: %v", err)
	}
	if result.LocatedFields != 1 {
		t.Fatalf("expected the field to be located, got %d", result.LocatedFields)
	}
	a := result.Definition.Assertions[0].Assertion
	if a.Kind != dsl.KindCellEq || a.Sheet != "Sheet1" || a.Cell != "B1" || a.Value != "1200" {
		t.Errorf("unexpected cell_eq assertion: %+v", a)
	}
	if len(result.Definition.Extract) != 1 || result.Definition.Extract[0].Range != "B1:B1" {
		t.Errorf("unexpected extract section: %+v", result.Definition.Extract)
	}
}

func TestInferSchema_RejectsEmptyFieldList(t *testing.T) {
	csvPath := writeTemp(t, "data.csv", "Name,Rent\nUnit 1A,1200\n")
	fieldsPath := writeTemp(t, "fields.yaml", "[]\n")
	if _, err := InferSchema(csvPath, fieldsPath, "leases.v1", nil); err == nil {
		t.Fatal("expected an error for an empty field list")
	}
}

func TestInferSchema_RejectsWhenNothingLocates(t *testing.T) {
	csvPath := writeTemp(t, "data.csv", "Name,Rent\nUnit 1A,1200\n")
	fieldsPath := writeTemp(t, "fields.yaml", "- name: nope\n  value: \"not present anywhere\"\n")
	if _, err := InferSchema(csvPath, fieldsPath, "leases.v1", nil); err == nil {
		t.Fatal("expected an error when no field can be located")
	}
}

func TestInferSchema_MarkdownWithDuplicateValueRanksCandidatesAndAsksResolver(t *testing.T) {
	mdPath := writeTemp(t, "summary.md", "# Draft\n\nCap rate: 6.25%\n\n# Summary\n\nAs of date: June 15, 2024\nCap rate: 6.25%\n")
	fieldsPath := writeTemp(t, "fields.yaml", "- name: cap_rate\n  value: \"6.25%\"\n")

	var gotCandidates []CandidateLocation
	resolve := func(field SchemaField, candidates []CandidateLocation) (int, error) {
		gotCandidates = candidates
		return len(candidates) - 1, nil
	}

	result, err := InferSchema(mdPath, fieldsPath, "schema-test.v1", resolve)
	if err != nil {
		t.Fatalf("InferSchema: %v", err)
	}
	if len(gotCandidates) < 2 {
		t.Fatalf("expected the resolver to be offered both duplicate lines, got %+v", gotCandidates)
	}
	if result.LocatedFields != 1 {
		t.Fatalf("expected the field to be located, got %d", result.LocatedFields)
	}
	a := result.Definition.Assertions[0].Assertion
	if a.Kind != dsl.KindTextNear || a.Anchor != "(?i)Summary" {
		t.Errorf("expected the resolver's chosen candidate (under '# Summary') to be used, got %+v", a)
	}
}

func TestInferSchema_MarkdownWithDuplicateValueDefaultsToTopRankedWhenNoResolver(t *testing.T) {
	mdPath := writeTemp(t, "summary.md", "# Draft\n\nCap rate: 6.25%\n\n# Summary\n\nAs of date: June 15, 2024\nCap rate: 6.25%\n")
	fieldsPath := writeTemp(t, "fields.yaml", "- name: cap_rate\n  value: \"6.25%\"\n")

	result, err := InferSchema(mdPath, fieldsPath, "schema-test.v1", nil)
	if err != nil {
		t.Fatalf("InferSchema: %v", err)
	}
	if result.LocatedFields != 1 {
		t.Fatalf("expected the field to be located, got %d", result.LocatedFields)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestParseSchemaFieldsFile_ReadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fields.yaml")
	must(t, os.WriteFile(path, []byte("- name: sample\n  value: value\n"), 0o644))
	fields, err := ParseSchemaFieldsFile(path)
	if err != nil {
		t.Fatalf("ParseSchemaFieldsFile: %v", err)
	}
	if len(fields) != 1 || fields[0].Name != "sample" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}
