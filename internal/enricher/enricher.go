// Package enricher implements component F: the per-record enrichment step
// the pipeline shell calls for every non-fatal upstream record. It opens the
// record's document, selects and evaluates the matching fingerprint(s), and
// annotates the record per spec.md §4.6.
//
// Grounded on the teacher's internal/enricher/enricher.go (Config/Options/
// Enricher shape, a Config struct plus a single entry point consuming one
// upstream item and returning an annotated result) — generalized from BOM
// metadata enrichment to fingerprint selection/evaluation.
package enricher

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/cmdrvl/fingerprint/internal/document"
	"github.com/cmdrvl/fingerprint/internal/pipeline"
	"github.com/cmdrvl/fingerprint/internal/progress"
	"github.com/cmdrvl/fingerprint/internal/registry"
)

const (
	wireVersion = "fingerprint.v0"
	toolVersion = "0.1.0"
)

// Config holds everything one enrichment run needs: the loaded registry, the
// ordered list of fingerprint ids selected via --fp, and an optional
// progress reporter for the sparse-text warning side channel.
type Config struct {
	Registry *registry.Registry
	Selected []string
	Progress *progress.Reporter
}

// Enricher evaluates selected fingerprints against each record's document.
type Enricher struct {
	cfg Config
}

// New builds an Enricher from cfg. A nil cfg.Progress is treated as
// progress.Disabled().
func New(cfg Config) *Enricher {
	if cfg.Progress == nil {
		cfg.Progress = progress.Disabled()
	}
	return &Enricher{cfg: cfg}
}

// FingerprintEntry is the "fingerprint" field of an enriched record: a
// FingerprintResult tagged with the id/format that produced it, plus any
// attached child results.
type FingerprintEntry struct {
	ID     string `json:"id"`
	Format string `json:"format"`
	registry.FingerprintResult
	Children []FingerprintEntry `json:"children,omitempty"`
}

// Warning is one entry of a record's "_warnings" array.
type Warning struct {
	Tool    string `json:"tool"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
}

// Enrich implements pipeline.ProcessFunc: it annotates rec.Value per
// spec.md §4.6 and reports whether the record should count toward the run's
// AllMatched/Partial outcome.
func (e *Enricher) Enrich(ctx context.Context, rec pipeline.Record) (pipeline.ProcessResult, error) {
	out := cloneRecord(rec.Value)
	out["version"] = wireVersion
	setToolVersion(out)

	if skipped, _ := rec.Value["_skipped"].(bool); skipped {
		out["fingerprint"] = nil
		return pipeline.ProcessResult{Output: out, Matched: true}, nil
	}

	path, _ := rec.Value["path"].(string)
	bytesHash, _ := rec.Value["bytes_hash"].(string)
	if path == "" || bytesHash == "" {
		missing := "path"
		if path != "" {
			missing = "bytes_hash"
		}
		return e.skipWithWarning(out, "E_BAD_INPUT", fmt.Sprintf("missing required field '%s'", missing), nil), nil
	}

	textPath, _ := rec.Value["text_path"].(string)
	doc, err := document.OpenDocumentWithTextPath(path, textPath)
	if err != nil {
		return e.skipWithWarning(out, "E_PARSE", err.Error(), nil), nil
	}

	entry, matched := e.evaluate(doc)
	if entry == nil {
		out["fingerprint"] = nil
	} else {
		out["fingerprint"] = entry
	}
	e.reportSparseText(doc)

	return pipeline.ProcessResult{Output: out, Matched: matched}, nil
}

// skipWithWarning marks out as skipped, with fingerprint:null and an
// appended warning, and reports it as not contributing to AllMatched.
func (e *Enricher) skipWithWarning(out map[string]any, code, message string, detail any) pipeline.ProcessResult {
	out["fingerprint"] = nil
	out["_skipped"] = true
	appendWarning(out, Warning{Tool: "fingerprint", Code: code, Message: message, Detail: detail})
	if path, _ := out["path"].(string); path != "" {
		logf(path, "skipped: %s: %s", code, message)
	}
	return pipeline.ProcessResult{Output: out, Matched: false}
}

// evaluate selects and runs the parent fingerprint candidates against doc,
// per spec.md §4.6's selection rule: the first selected, parent-less,
// format-matching candidate to match wins; if none matches, the last
// candidate attempted is reported; if none is attempted, returns nil.
func (e *Enricher) evaluate(doc *document.Document) (*FingerprintEntry, bool) {
	candidates := e.parentCandidates(doc)
	if len(candidates) == 0 {
		return nil, false
	}

	var chosen *candidate
	for i := range candidates {
		c := &candidates[i]
		c.result = c.fp.Evaluate(doc)
		chosen = c
		if c.result.Matched {
			break
		}
	}

	entry := &FingerprintEntry{ID: chosen.id, Format: chosen.format, FingerprintResult: chosen.result}
	matched := chosen.result.Matched
	if matched {
		children := e.childResults(doc, chosen.id)
		entry.Children = children
		for _, child := range children {
			if !child.Matched {
				matched = false
			}
		}
	}
	return entry, matched
}

type candidate struct {
	id     string
	format string
	fp     registry.Fingerprint
	result registry.FingerprintResult
}

// parentCandidates returns every selected id with no parent whose format
// matches doc, in selection order.
func (e *Enricher) parentCandidates(doc *document.Document) []candidate {
	var out []candidate
	for _, id := range e.cfg.Selected {
		info := e.cfg.Registry.InfoFor(id)
		if info == nil || info.Parent != nil {
			continue
		}
		if !doc.Kind.Matches(info.Format) {
			continue
		}
		fp := e.cfg.Registry.Get(id)
		if fp == nil {
			continue
		}
		out = append(out, candidate{id: id, format: info.Format, fp: fp})
	}
	return out
}

// childResults evaluates every selected, format-matching fingerprint whose
// parent is parentID, pass or fail, in selection order.
func (e *Enricher) childResults(doc *document.Document, parentID string) []FingerprintEntry {
	var out []FingerprintEntry
	for _, id := range e.cfg.Selected {
		info := e.cfg.Registry.InfoFor(id)
		if info == nil || info.Parent == nil || *info.Parent != parentID {
			continue
		}
		if !doc.Kind.Matches(info.Format) {
			continue
		}
		fp := e.cfg.Registry.Get(id)
		if fp == nil {
			continue
		}
		res := fp.Evaluate(doc)
		out = append(out, FingerprintEntry{ID: id, Format: info.Format, FingerprintResult: res})
	}
	return out
}

// reportSparseText emits W_SPARSE_TEXT to the progress side channel (never
// the record itself) when a PDF's attached Markdown text view looks too
// thin relative to its page count to have been extracted correctly.
func (e *Enricher) reportSparseText(doc *document.Document) {
	if doc.Kind != document.FormatPdf || doc.Pdf.Text == nil {
		return
	}
	pageCount, err := doc.Pdf.PageCount()
	if err != nil {
		return
	}
	charCount := utf8.RuneCountInString(doc.Pdf.Text.Normalized)
	if pageCount > 10 && charCount < 100 {
		e.cfg.Progress.Warning(doc.Path(), "W_SPARSE_TEXT", fmt.Sprintf(
			"page_count=%d but normalized text has only %d characters", pageCount, charCount))
	}
}

func setToolVersion(out map[string]any) {
	toolVersions, _ := out["tool_versions"].(map[string]any)
	if toolVersions == nil {
		toolVersions = map[string]any{}
	}
	toolVersions["fingerprint"] = toolVersion
	out["tool_versions"] = toolVersions
}

func appendWarning(out map[string]any, w Warning) {
	existing, _ := out["_warnings"].([]any)
	out["_warnings"] = append(existing, w)
}

func cloneRecord(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec)+4)
	for k, v := range rec {
		out[k] = v
	}
	return out
}
