package infer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/cmdrvl/fingerprint/internal/dsl"
)

// Emit renders an AggregatedProfile as a .fp.yaml draft. The YAML is
// hand-written rather than produced by a generic marshaller, so that each
// assertion can carry a "# confidence: N.NNN (support/total)" comment line
// immediately above it — something no struct-tag-driven encoder can express.
// Emit is deterministic: identical input always produces byte-identical
// output.
//
// Grounded on original_source/src/infer/emitter.rs.
func Emit(profile AggregatedProfile) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "fingerprint_id: %s\n", yamlQuote(profile.FingerprintID))
	fmt.Fprintf(&b, "format: %s\n", yamlQuote(profile.Format))

	b.WriteString("assertions:\n")
	for _, ia := range profile.Assertions {
		fmt.Fprintf(&b, "  # confidence: %.3f (%d/%d)\n", ia.Confidence, ia.Support, ia.Total)
		item, err := emitAssertion(ia.Assertion)
		if err != nil {
			return "", err
		}
		b.WriteString(item)
	}

	if len(profile.Extract) > 0 {
		b.WriteString("extract:\n")
		for _, e := range profile.Extract {
			item, err := emitListItem(extractSectionToYAMLMap(e))
			if err != nil {
				return "", err
			}
			b.WriteString(item)
		}
	}

	if profile.ContentHash != nil {
		b.WriteString("content_hash:\n")
		fmt.Fprintf(&b, "  algorithm: %s\n", yamlQuote(profile.ContentHash.Algorithm))
		b.WriteString("  over:\n")
		for _, name := range profile.ContentHash.Over {
			fmt.Fprintf(&b, "    - %s\n", yamlQuote(name))
		}
	}

	return b.String(), nil
}

func emitAssertion(na dsl.NamedAssertion) (string, error) {
	return emitListItem(assertionToYAMLMap(na.Assertion))
}

// assertionToYAMLMap renders an Assertion the way dsl.decodeAssertionBody
// expects to read it back: a single map entry keyed by the assertion's kind
// string, whose value is either a scalar or a kind-specific field map.
// Covers the kinds Aggregate and schema-infer can actually produce; any
// other kind falls back to a flat field dump (never reached by this
// package's own callers, kept only so Emit never panics on an unexpected
// kind).
func assertionToYAMLMap(a dsl.Assertion) map[string]any {
	var body any
	switch a.Kind {
	case dsl.KindFilenameRegex, dsl.KindHeadingRegex, dsl.KindTextRegex:
		body = map[string]any{"pattern": a.Pattern}
	case dsl.KindSheetExists:
		body = a.Sheet
	case dsl.KindSheetMinRows:
		body = map[string]any{"sheet": a.Sheet, "min_rows": a.MinRows}
	case dsl.KindCellEq:
		body = map[string]any{"sheet": a.Sheet, "cell": a.Cell, "value": a.Value}
	case dsl.KindCellRegex:
		body = map[string]any{"sheet": a.Sheet, "cell": a.Cell, "pattern": a.Pattern}
	case dsl.KindPageCount:
		m := map[string]any{}
		if a.PageMin != nil {
			m["min"] = *a.PageMin
		}
		if a.PageMax != nil {
			m["max"] = *a.PageMax
		}
		body = m
	case dsl.KindMetadataRegex:
		body = map[string]any{"key": a.Key, "pattern": a.Pattern}
	case dsl.KindTextNear:
		body = map[string]any{"anchor": a.Anchor, "pattern": a.Pattern, "within_chars": a.WithinChars}
	case dsl.KindTextContains, dsl.KindHeadingExists:
		body = a.Text
	default:
		body = map[string]any{
			"pattern": a.Pattern, "sheet": a.Sheet, "cell": a.Cell, "value": a.Value, "range": a.Range,
		}
	}
	return map[string]any{string(a.Kind): body}
}

// extractSectionToYAMLMap renders an ExtractSection the way dsl.ParseBytes'
// rawExtract expects to read it back, omitting fields that are empty or nil.
func extractSectionToYAMLMap(e dsl.ExtractSection) map[string]any {
	m := map[string]any{"name": e.Name, "type": e.Type}
	if e.AnchorHeading != "" {
		m["anchor_heading"] = e.AnchorHeading
	}
	if e.Index != nil {
		m["index"] = *e.Index
	}
	if e.Anchor != "" {
		m["anchor"] = e.Anchor
	}
	if e.Pattern != "" {
		m["pattern"] = e.Pattern
	}
	if e.WithinChars != nil {
		m["within_chars"] = *e.WithinChars
	}
	if e.Sheet != "" {
		m["sheet"] = e.Sheet
	}
	if e.Range != "" {
		m["range"] = e.Range
	}
	return m
}

// emitListItem serializes v to a generic value and renders it as a single
// "  - " led list item with a flat 4-space continuation indent for every
// remaining line — whether that line is a sibling of the first field
// (extract sections are flat maps) or a child one level below an assertion's
// kind key (assertion bodies nest exactly one level). Both shapes collapse
// to the same flat indent because neither ever nests more than once.
func emitListItem(v any) (string, error) {
	generic, err := toGenericValue(v)
	if err != nil {
		return "", err
	}
	m, ok := generic.(map[string]any)
	if !ok {
		return fmt.Sprintf("  - %s\n", yamlScalar(generic)), nil
	}
	lines := flattenFields(m)
	if len(lines) == 0 {
		return "  - {}\n", nil
	}
	var b strings.Builder
	for i, line := range lines {
		if i == 0 {
			fmt.Fprintf(&b, "  - %s\n", line)
		} else {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	return b.String(), nil
}

// flattenFields renders m's fields as "key: value" / bare "key:" lines in
// sorted-key order, descending into any map-valued field without adding
// further relative indent: assertion bodies nest exactly one level under
// their kind key, and that single level is all emitListItem's flat 4-space
// continuation indent needs to express.
func flattenFields(m map[string]any) []string {
	var lines []string
	for _, k := range sortedMapKeys(m) {
		v := m[k]
		if v == nil {
			continue
		}
		switch child := v.(type) {
		case map[string]any:
			if len(child) == 0 {
				lines = append(lines, k+":")
				continue
			}
			lines = append(lines, k+":")
			lines = append(lines, flattenFields(child)...)
		default:
			lines = append(lines, fmt.Sprintf("%s: %s", k, yamlScalar(child)))
		}
	}
	return lines
}

// toGenericValue round-trips v through JSON into a map[string]any /
// []any / scalar tree, dropping Go zero-value noise the same way an
// omitempty-tagged encoder would.
func toGenericValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return generic, nil
}

func sortedMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func yamlScalar(v any) string {
	switch t := v.(type) {
	case string:
		return yamlQuote(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// yamlQuote emits an unquoted scalar when it is safe to do so (alphanumeric,
// '-', or '.' only), otherwise a single-quoted YAML string with internal
// quotes doubled.
func yamlQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '.') {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

