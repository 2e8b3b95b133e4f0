// Package assertion implements component C, the assertion evaluator: the
// hardest single piece of the system per the design budget. It walks a
// FingerprintDefinition's named assertions against an opened Document in
// either strict (short-circuiting) or diagnostic (full, context-annotated)
// mode.
//
// Grounded on the per-kind contracts in the distilled specification and on
// original_source/src/dsl/assertions.rs for the assertion surface shape.
package assertion

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/agnivade/levenshtein"

	"github.com/cmdrvl/fingerprint/internal/document"
	"github.com/cmdrvl/fingerprint/internal/dsl"
	"github.com/cmdrvl/fingerprint/internal/registry"
)

// diagnosticFlag is the process-wide diagnostic-mode switch: false until the
// CLI opts in at startup. Callers who must not depend on process state pass
// an explicit mode to Evaluate instead of relying on this.
var diagnosticFlag atomic.Bool

// SetDiagnosticMode sets the process-wide flag; called once at CLI startup.
func SetDiagnosticMode(on bool) { diagnosticFlag.Store(on) }

// DiagnosticMode reports the process-wide flag's current value.
func DiagnosticMode() bool { return diagnosticFlag.Load() }

// Mode selects strict vs. diagnostic evaluation for one call.
type Mode int

const (
	// ModeProcessDefault defers to the process-wide diagnostic flag.
	ModeProcessDefault Mode = iota
	ModeStrict
	ModeDiagnostic
)

func resolveMode(m Mode) bool {
	switch m {
	case ModeStrict:
		return false
	case ModeDiagnostic:
		return true
	default:
		return DiagnosticMode()
	}
}

// state threads the sheet-name bindings map through one assertion list's
// evaluation, scoped to a single call to Evaluate.
type state struct {
	doc      *document.Document
	bindings map[string]string
	diag     bool
}

// Evaluate runs def's assertions against doc in the requested mode and
// returns the resulting per-assertion list, the same shape the registry's
// FingerprintResult carries.
func Evaluate(def *dsl.FingerprintDefinition, doc *document.Document, mode Mode) []registry.AssertionResult {
	diag := resolveMode(mode)
	st := &state{doc: doc, bindings: map[string]string{}, diag: diag}

	var results []registry.AssertionResult
	for _, na := range def.Assertions {
		r := evaluateOne(st, na)
		results = append(results, r)
		if !diag && !r.Passed {
			break
		}
	}
	return results
}

func evaluateOne(st *state, na dsl.NamedAssertion) registry.AssertionResult {
	if dsl.ReservedKinds[na.Assertion.Kind] {
		detail := fmt.Sprintf("assertion kind '%s' is not implemented in v0.1", na.Assertion.Kind)
		return registry.AssertionResult{Name: na.Name, Passed: false, Detail: &detail}
	}

	passed, detail, ctx := dispatch(st, na.Assertion)
	res := registry.AssertionResult{Name: na.Name, Passed: passed}
	if detail != "" {
		res.Detail = &detail
	}
	if st.diag && !passed {
		res.Context = ctx
	}
	return res
}

func dispatch(st *state, a dsl.Assertion) (passed bool, detail string, ctx any) {
	switch a.Kind {
	case dsl.KindFilenameRegex:
		return evalFilenameRegex(st, a)
	case dsl.KindSheetExists:
		return evalSheetExists(st, a)
	case dsl.KindSheetNameRegex:
		return evalSheetNameRegex(st, a)
	case dsl.KindCellEq:
		return evalCellEq(st, a)
	case dsl.KindCellRegex:
		return evalCellRegex(st, a)
	case dsl.KindRangeNonNull:
		return evalRangeNonNull(st, a)
	case dsl.KindSheetMinRows:
		return evalSheetMinRows(st, a)
	case dsl.KindColumnSearch:
		return evalColumnSearch(st, a)
	case dsl.KindHeaderRowMatch:
		return evalHeaderRowMatch(st, a)
	case dsl.KindPageCount:
		return evalPageCount(st, a)
	case dsl.KindMetadataRegex:
		return evalMetadataRegex(st, a)
	case dsl.KindHeadingExists:
		return evalHeadingExists(st, a)
	case dsl.KindHeadingRegex:
		return evalHeadingRegex(st, a)
	case dsl.KindHeadingLevel:
		return evalHeadingLevel(st, a)
	case dsl.KindTextContains:
		return evalTextContains(st, a)
	case dsl.KindTextRegex:
		return evalTextRegex(st, a)
	case dsl.KindTextNear:
		return evalTextNear(st, a)
	case dsl.KindSectionNonEmpty:
		return evalSectionNonEmpty(st, a)
	case dsl.KindSectionMinLines:
		return evalSectionMinLines(st, a)
	case dsl.KindTableExists:
		return evalTableExists(st, a)
	case dsl.KindTableColumns:
		return evalTableColumns(st, a)
	case dsl.KindTableShape:
		return evalTableShape(st, a)
	case dsl.KindTableMinRows:
		return evalTableMinRows(st, a)
	default:
		return false, fmt.Sprintf("unknown assertion kind '%s'", a.Kind), nil
	}
}

// resolveSheet dereferences a leading "$name" token through st.bindings; any
// other value passes through unchanged. An unresolved binding is reported
// via the returned ok=false.
func resolveSheet(st *state, sheet string) (string, bool) {
	if !strings.HasPrefix(sheet, "$") {
		return sheet, true
	}
	name := strings.TrimPrefix(sheet, "$")
	resolved, ok := st.bindings[name]
	return resolved, ok
}

func bindingNotFoundDetail(sheet string) string {
	return fmt.Sprintf("sheet binding '%s' was not found", sheet)
}

func compileRegex(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(translateInlineFlags(pattern))
}

// translateInlineFlags rewrites Rust-regex-style (?i)/(?m)/(?s)/(?x) leading
// mode groups, which Go's regexp also accepts directly, so this is a no-op
// passthrough kept for documentation: Go's RE2 syntax already supports
// (?i) etc. at the start of a pattern.
func translateInlineFlags(pattern string) string { return pattern }

// normalizeForDistance lowercases and collapses to alphanumerics with
// single-space separators, used as the basis for nearest-match suggestions.
func normalizeForDistance(s string) string {
	var out strings.Builder
	prevSpace := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			out.WriteRune(r)
			prevSpace = false
		} else if !prevSpace {
			out.WriteByte(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(out.String())
}

// nearestMatch finds the candidate in candidates with the smallest edit
// distance (normalized form) to target, returning it and the raw distance.
func nearestMatch(target string, candidates []string) (string, int, bool) {
	if len(candidates) == 0 {
		return "", 0, false
	}
	normTarget := normalizeForDistance(target)
	best := candidates[0]
	bestDist := levenshtein.ComputeDistance(normTarget, normalizeForDistance(best))
	for _, c := range candidates[1:] {
		d := levenshtein.ComputeDistance(normTarget, normalizeForDistance(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist, true
}
