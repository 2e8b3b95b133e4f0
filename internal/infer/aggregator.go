package infer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cmdrvl/fingerprint/internal/document"
	"github.com/cmdrvl/fingerprint/internal/dsl"
	"github.com/cmdrvl/fingerprint/internal/search"
)

// InferredAssertion is one candidate assertion surfaced by Aggregate, with
// its support across the observed corpus.
type InferredAssertion struct {
	Assertion  dsl.NamedAssertion
	Confidence float64
	Support    int
	Total      int
}

// AggregatedProfile is the full draft definition produced by Aggregate.
type AggregatedProfile struct {
	FingerprintID string
	Format        string
	Assertions    []InferredAssertion
	Extract       []dsl.ExtractSection
	ContentHash   *dsl.ContentHashConfig
}

type candidateAssertion struct {
	sortKey   string
	assertion dsl.Assertion
	support   int
}

// Aggregate turns a set of per-document Observations of the same format
// into a ranked, deterministic list of candidate assertions. searcher is
// optional: when non-nil its support counts can raise (never lower) a
// candidate's calibrated support, capped at total.
//
// Grounded on original_source/src/infer/aggregator.rs.
func Aggregate(observations []Observation, format, fingerprintID string, minConfidence float64, includeExtract bool, searcher *search.HybridSearcher) (AggregatedProfile, error) {
	if len(observations) == 0 {
		return AggregatedProfile{}, fmt.Errorf("aggregate requires at least one observation")
	}
	if minConfidence < 0 || minConfidence > 1 {
		return AggregatedProfile{}, fmt.Errorf("min_confidence must be between 0 and 1, got %v", minConfidence)
	}

	total := len(observations)
	var candidates []candidateAssertion
	switch format {
	case "xlsx":
		candidates = aggregateXlsx(observations)
	case "csv":
		candidates = aggregateCsv(observations)
	case "pdf":
		candidates = aggregatePdf(observations)
	default:
		return AggregatedProfile{}, fmt.Errorf("infer supports xlsx/csv/pdf formats only, got '%s'", format)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].sortKey < candidates[j].sortKey })

	const epsilon = 1e-9
	var assertions []InferredAssertion
	for _, c := range candidates {
		support := calibratedSupport(c, total, searcher)
		confidence := float64(support) / float64(total)
		if confidence+epsilon < minConfidence {
			continue
		}
		assertions = append(assertions, InferredAssertion{
			Assertion:  dsl.NamedAssertion{Assertion: c.assertion},
			Confidence: confidence,
			Support:    support,
			Total:      total,
		})
	}
	if len(assertions) == 0 {
		return AggregatedProfile{}, fmt.Errorf("no candidate assertion reached the minimum confidence %.3f", minConfidence)
	}

	profile := AggregatedProfile{FingerprintID: fingerprintID, Format: format, Assertions: assertions}
	if includeExtract {
		profile.Extract = suggestedExtract(format, observations)
		if len(profile.Extract) > 0 {
			names := make([]string, 0, len(profile.Extract))
			for _, e := range profile.Extract {
				names = append(names, e.Name)
			}
			profile.ContentHash = &dsl.ContentHashConfig{Algorithm: "blake3", Over: names}
		}
	}
	return profile, nil
}

func calibratedSupport(c candidateAssertion, total int, searcher *search.HybridSearcher) int {
	support := c.support
	if searcher == nil {
		return support
	}
	query := assertionSupportQuery(c.assertion)
	if len(query) < 2 {
		return support
	}
	if boosted := searcher.SupportForQueryDefault(query); boosted > support {
		support = boosted
	}
	if support > total {
		support = total
	}
	return support
}

func assertionSupportQuery(a dsl.Assertion) string {
	switch a.Kind {
	case dsl.KindSheetExists, dsl.KindSheetMinRows:
		return a.Sheet
	case dsl.KindCellEq:
		return a.Value
	case dsl.KindMetadataRegex:
		return regexLiteral(a.Pattern)
	default:
		return ""
	}
}

func regexLiteral(pattern string) string {
	s := strings.TrimPrefix(pattern, "^")
	s = strings.TrimSuffix(s, "$")
	return strings.ReplaceAll(s, `\`, "")
}

// assertionSortKey imposes a deterministic, format-grouped ordering
// independent of observation order, via a fixed-prefix string key.
func assertionSortKey(kind string, parts ...string) string {
	prefix := map[string]string{
		"filename_regex": "00_filename_regex",
		"sheet_exists":   "10_sheet_exists",
		"sheet_min_rows": "11_sheet_min_rows",
		"cell_eq":        "12_cell_eq",
		"page_count":     "20_page_count",
		"metadata_regex": "21_metadata_regex",
	}[kind]
	if prefix == "" {
		prefix = "99_other"
	}
	return prefix + ":" + strings.Join(parts, "|")
}

func aggregateXlsx(observations []Observation) []candidateAssertion {
	n := len(observations)
	var out []candidateAssertion

	out = append(out, candidateAssertion{
		sortKey:   assertionSortKey("filename_regex"),
		assertion: dsl.Assertion{Kind: dsl.KindFilenameRegex, Pattern: `(?i).*\.xlsx$`},
		support:   n,
	})

	sheetSupport := map[string]int{}
	sheetMinRows := map[string]uint64{}
	sheetMinRowsSeen := map[string]bool{}
	cellSupport := map[[3]string]int{} // sheet, cell, value

	for _, obs := range observations {
		for _, sheet := range obs.SheetNames {
			sheetSupport[sheet]++
			if count, ok := obs.RowCounts[sheet]; ok {
				if !sheetMinRowsSeen[sheet] || count < sheetMinRows[sheet] {
					sheetMinRows[sheet] = count
					sheetMinRowsSeen[sheet] = true
				}
			}
		}
		for key, v := range obs.CellValues {
			idx := strings.Index(key, "!")
			if idx < 0 {
				continue
			}
			sheet, cell := key[:idx], key[idx+1:]
			cellSupport[[3]string{sheet, cell, v}]++
		}
	}

	for _, sheet := range sortedKeys(sheetSupport) {
		out = append(out, candidateAssertion{
			sortKey:   assertionSortKey("sheet_exists", sheet),
			assertion: dsl.Assertion{Kind: dsl.KindSheetExists, Sheet: sheet},
			support:   sheetSupport[sheet],
		})
		if sheetMinRowsSeen[sheet] {
			out = append(out, candidateAssertion{
				sortKey:   assertionSortKey("sheet_min_rows", sheet),
				assertion: dsl.Assertion{Kind: dsl.KindSheetMinRows, Sheet: sheet, MinRows: sheetMinRows[sheet]},
				support:   sheetSupport[sheet],
			})
		}
	}

	for _, triple := range sortedTripleKeys(cellSupport) {
		out = append(out, candidateAssertion{
			sortKey:   assertionSortKey("cell_eq", triple[0], triple[1], triple[2]),
			assertion: dsl.Assertion{Kind: dsl.KindCellEq, Sheet: triple[0], Cell: triple[1], Value: triple[2]},
			support:   cellSupport[triple],
		})
	}

	return out
}

func aggregateCsv(observations []Observation) []candidateAssertion {
	n := len(observations)
	var out []candidateAssertion

	out = append(out, candidateAssertion{
		sortKey:   assertionSortKey("filename_regex"),
		assertion: dsl.Assertion{Kind: dsl.KindFilenameRegex, Pattern: `(?i).*\.csv$`},
		support:   n,
	})
	out = append(out, candidateAssertion{
		sortKey:   assertionSortKey("sheet_exists", "Sheet1"),
		assertion: dsl.Assertion{Kind: dsl.KindSheetExists, Sheet: "Sheet1"},
		support:   n,
	})

	var minRows uint64
	haveMinRows := false
	for _, obs := range observations {
		if obs.CsvRowCount != nil {
			if !haveMinRows || *obs.CsvRowCount < minRows {
				minRows = *obs.CsvRowCount
				haveMinRows = true
			}
		}
	}
	if haveMinRows {
		out = append(out, candidateAssertion{
			sortKey:   assertionSortKey("sheet_min_rows", "Sheet1"),
			assertion: dsl.Assertion{Kind: dsl.KindSheetMinRows, Sheet: "Sheet1", MinRows: minRows},
			support:   n,
		})
	}

	type headerKey struct {
		index  int
		header string
	}
	headerSupport := map[headerKey]int{}
	for _, obs := range observations {
		for i, h := range obs.CsvHeaders {
			headerSupport[headerKey{i, h}]++
		}
	}
	keys := make([]headerKey, 0, len(headerSupport))
	for k := range headerSupport {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].index != keys[j].index {
			return keys[i].index < keys[j].index
		}
		return keys[i].header < keys[j].header
	})
	for _, key := range keys {
		cell := document.ToCellRef(0, key.index)
		out = append(out, candidateAssertion{
			sortKey:   assertionSortKey("cell_eq", "Sheet1", cell, key.header),
			assertion: dsl.Assertion{Kind: dsl.KindCellEq, Sheet: "Sheet1", Cell: cell, Value: key.header},
			support:   headerSupport[key],
		})
	}

	return out
}

func aggregatePdf(observations []Observation) []candidateAssertion {
	n := len(observations)
	var out []candidateAssertion

	out = append(out, candidateAssertion{
		sortKey:   assertionSortKey("filename_regex"),
		assertion: dsl.Assertion{Kind: dsl.KindFilenameRegex, Pattern: `(?i).*\.pdf$`},
		support:   n,
	})

	var minPages, maxPages int
	havePages := false
	for _, obs := range observations {
		if obs.PdfPageCount != nil {
			p := int(*obs.PdfPageCount)
			if !havePages {
				minPages, maxPages, havePages = p, p, true
			} else {
				if p < minPages {
					minPages = p
				}
				if p > maxPages {
					maxPages = p
				}
			}
		}
	}
	if havePages {
		pageCount := 0
		for _, obs := range observations {
			if obs.PdfPageCount != nil {
				pageCount++
			}
		}
		min, max := minPages, maxPages
		out = append(out, candidateAssertion{
			sortKey:   assertionSortKey("page_count", fmt.Sprintf("%d-%d", min, max)),
			assertion: dsl.Assertion{Kind: dsl.KindPageCount, PageMin: &min, PageMax: &max},
			support:   pageCount,
		})
	}

	metaSupport := map[[2]string]int{} // key, value
	for _, obs := range observations {
		for k, v := range obs.PdfMetadata {
			metaSupport[[2]string{k, v}]++
		}
	}
	for _, pair := range sortedDoubleKeys(metaSupport) {
		pattern := "^" + regexp.QuoteMeta(pair[1]) + "$"
		out = append(out, candidateAssertion{
			sortKey:   assertionSortKey("metadata_regex", pair[0], pair[1]),
			assertion: dsl.Assertion{Kind: dsl.KindMetadataRegex, Key: pair[0], Pattern: pattern},
			support:   metaSupport[pair],
		})
	}

	return out
}

func suggestedExtract(format string, observations []Observation) []dsl.ExtractSection {
	switch format {
	case "xlsx":
		names := map[string]bool{}
		for _, obs := range observations {
			for _, s := range obs.SheetNames {
				names[s] = true
			}
		}
		if len(names) == 0 {
			return nil
		}
		sheets := sortedSet(names)
		return []dsl.ExtractSection{
			{Name: "primary_range", Type: "range", Sheet: sheets[0], Range: "A1:D20"},
		}
	case "csv":
		return []dsl.ExtractSection{
			{Name: "primary_rows", Type: "range", Sheet: "Sheet1", Range: "A1:D20"},
		}
	default:
		return nil
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSet(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedTripleKeys(m map[[3]string]int) [][3]string {
	keys := make([][3]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		if keys[i][1] != keys[j][1] {
			return keys[i][1] < keys[j][1]
		}
		return keys[i][2] < keys[j][2]
	})
	return keys
}

func sortedDoubleKeys(m map[[2]string]int) [][2]string {
	keys := make([][2]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	return keys
}
