// Package builtinfp registers the three fingerprints the CLI ships with out
// of the box: csv.v0, xlsx.v0, and pdf.v0. Each matches any document of its
// format by filename extension alone — a minimal, always-available baseline
// a user can run against before installing or authoring anything custom.
//
// Grounded on spec.md's worked example ("All matched, multiple formats":
// csv.v0/xlsx.v0/pdf.v0 selected against a CSV, an XLSX, and a PDF with a
// companion Markdown text view, all matching) and
// original_source/src/registry/builtin.rs's signature (a todo!() stub; the
// three ids and the "source: builtin" trust rule are spec.md's, not the
// stub's).
package builtinfp

import (
	"github.com/cmdrvl/fingerprint/internal/assertion"
	"github.com/cmdrvl/fingerprint/internal/dsl"
	"github.com/cmdrvl/fingerprint/internal/registry"
)

const version = "0.1.0"

// Register adds csv.v0, xlsx.v0, and pdf.v0 to reg with source "builtin",
// which the registry's trust validation always accepts regardless of
// allowlist.
func Register(reg *registry.Registry) {
	for _, def := range definitions() {
		def := def
		reg.RegisterWithInfo(assertion.Compile(&def), registry.FingerprintInfo{
			ID:      def.FingerprintID,
			Crate:   "fingerprint",
			Version: version,
			Source:  "builtin",
			Format:  def.Format,
		})
	}
}

func definitions() []dsl.FingerprintDefinition {
	return []dsl.FingerprintDefinition{
		{
			FingerprintID: "csv.v0",
			Format:        "csv",
			Assertions: []dsl.NamedAssertion{
				{Name: "is_csv_file", Assertion: dsl.Assertion{Kind: dsl.KindFilenameRegex, Pattern: `(?i)\.csv$`}},
			},
		},
		{
			FingerprintID: "xlsx.v0",
			Format:        "xlsx",
			Assertions: []dsl.NamedAssertion{
				{Name: "is_xlsx_file", Assertion: dsl.Assertion{Kind: dsl.KindFilenameRegex, Pattern: `(?i)\.xlsx$`}},
			},
		},
		{
			FingerprintID: "pdf.v0",
			Format:        "pdf",
			Assertions: []dsl.NamedAssertion{
				{Name: "is_pdf_file", Assertion: dsl.Assertion{Kind: dsl.KindFilenameRegex, Pattern: `(?i)\.pdf$`}},
			},
		},
	}
}
