package assertion

import (
	"github.com/cmdrvl/fingerprint/internal/document"
	"github.com/cmdrvl/fingerprint/internal/dsl"
	"github.com/cmdrvl/fingerprint/internal/extract"
	"github.com/cmdrvl/fingerprint/internal/registry"
)

// Compiled adapts a parsed FingerprintDefinition to registry.Fingerprint:
// evaluating its assertions, then (only on a match) running its extract
// recipe and content hash. Used for every definition-backed fingerprint,
// whether compiled from an installed .fp.yaml, a builtin definition, or
// `compile --check`.
type Compiled struct {
	Def *dsl.FingerprintDefinition
}

// Compile wraps def as a registry.Fingerprint.
func Compile(def *dsl.FingerprintDefinition) *Compiled {
	return &Compiled{Def: def}
}

func (c *Compiled) ID() string     { return c.Def.FingerprintID }
func (c *Compiled) Format() string { return c.Def.Format }

func (c *Compiled) Parent() string {
	if c.Def.Parent == nil {
		return ""
	}
	return *c.Def.Parent
}

// Evaluate runs the definition's assertions against doc in the
// process-default diagnostic mode, then extracts and content-hashes only on
// a full match.
func (c *Compiled) Evaluate(doc *document.Document) registry.FingerprintResult {
	results := Evaluate(c.Def, doc, ModeProcessDefault)

	matched := len(results) > 0
	for _, r := range results {
		if !r.Passed {
			matched = false
			break
		}
	}
	if len(c.Def.Assertions) == 0 {
		matched = true
	}

	result := registry.FingerprintResult{Matched: matched, Assertions: results}
	if !matched {
		return result
	}

	if len(c.Def.Extract) > 0 {
		extracted := extract.Extract(doc, c.Def.Extract)
		result.Extracted = extracted
		if c.Def.ContentHash != nil {
			hash := extract.ContentHash(extracted, c.Def.ContentHash.Over)
			result.ContentHash = &hash
		}
	}
	return result
}
