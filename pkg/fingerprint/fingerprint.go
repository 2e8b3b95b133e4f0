// Package fingerprint is the public, embeddable surface over this module's
// internal components: building a registry, evaluating documents against
// it, and running the enrichment pipeline — for callers who want to embed
// fingerprint matching in another Go program rather than shell out to the
// CLI.
//
// Grounded on the teacher's pkg/aibomgen/* re-export layer: a thin pkg/
// package exposing the types and entry points internal/ builds, kept small
// on purpose (internal/ is where the real logic and tests live).
package fingerprint

import (
	"context"
	"io"

	"github.com/cmdrvl/fingerprint/internal/assertion"
	"github.com/cmdrvl/fingerprint/internal/builtinfp"
	"github.com/cmdrvl/fingerprint/internal/document"
	"github.com/cmdrvl/fingerprint/internal/dsl"
	"github.com/cmdrvl/fingerprint/internal/enricher"
	"github.com/cmdrvl/fingerprint/internal/pipeline"
	"github.com/cmdrvl/fingerprint/internal/progress"
	"github.com/cmdrvl/fingerprint/internal/registry"
)

// Registry is the set of loaded fingerprints a Document can be evaluated
// against.
type Registry = registry.Registry

// Fingerprint is the interface every registered definition implements.
type Fingerprint = registry.Fingerprint

// FingerprintResult is the outcome of evaluating one Fingerprint against a
// Document.
type FingerprintResult = registry.FingerprintResult

// AssertionResult is one assertion's pass/fail outcome within a
// FingerprintResult.
type AssertionResult = registry.AssertionResult

// Document is an opened, format-dispatched input file.
type Document = document.Document

// Definition is a parsed .fp.yaml fingerprint definition.
type Definition = dsl.FingerprintDefinition

// Record is one validated upstream pipeline record.
type Record = pipeline.Record

// Outcome classifies how a pipeline run concluded.
type Outcome = pipeline.Outcome

// NewRegistry builds an empty registry with the three builtin
// extension-only fingerprints (csv.v0, xlsx.v0, pdf.v0) pre-registered.
func NewRegistry() *Registry {
	reg := registry.New()
	builtinfp.Register(reg)
	return reg
}

// ParseDefinition parses a .fp.yaml file from disk.
func ParseDefinition(path string) (*Definition, error) {
	return dsl.Parse(path)
}

// Compile wraps a parsed Definition as a Fingerprint, ready to Register.
func Compile(def *Definition) Fingerprint {
	return assertion.Compile(def)
}

// OpenDocument dispatches path to the right format-specific opener by
// extension.
func OpenDocument(path string) (*Document, error) {
	return document.OpenDocument(path)
}

// ReadRecords validates and decodes an upstream hash.v0 JSONL stream.
func ReadRecords(r io.Reader) ([]Record, error) {
	return pipeline.ReadRecords(r)
}

// EnrichConfig configures Run: the registry to evaluate against and the
// ordered list of fingerprint ids selected for this run.
type EnrichConfig struct {
	Registry *Registry
	Selected []string
}

// Run enriches records against cfg's selected fingerprints with the given
// worker count, writing annotated JSONL to w and returning how the run
// concluded.
func Run(ctx context.Context, records []Record, jobs int, cfg EnrichConfig, w io.Writer) (Outcome, error) {
	enr := enricher.New(enricher.Config{Registry: cfg.Registry, Selected: cfg.Selected, Progress: progress.Disabled()})
	return pipeline.Run(ctx, records, jobs, enr.Enrich, w)
}
