package dsl

import (
	"fmt"
	"strings"
)

// autoNameAssertions fills in a deterministic name for every assertion that
// didn't supply one, then disambiguates any collision (explicit or
// generated) with a "__N" suffix, first colliding name getting "__1".
func autoNameAssertions(assertions []NamedAssertion) {
	seen := map[string]int{}
	for i := range assertions {
		a := &assertions[i]
		if a.Name == "" {
			base := assertionBaseName(a.Assertion)
			counter := seen[base]
			generated := base
			if counter != 0 {
				generated = fmt.Sprintf("%s__%d", base, counter)
			}
			seen[base] = counter + 1
			a.Name = generated
		} else {
			seen[a.Name]++
		}
	}
}

func indexOrZero(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

func assertionBaseName(a Assertion) string {
	switch a.Kind {
	case KindHeadingRegex:
		return "heading_regex__" + regexExcerpt(a.Pattern, 20)
	case KindTableExists:
		return fmt.Sprintf("table_exists__%s__%d", regexExcerpt(a.Heading, 20), indexOrZero(a.Index))
	case KindCellEq:
		return fmt.Sprintf("cell_eq__%s__%s", literalExcerpt(a.Sheet, 20, false), literalExcerpt(a.Cell, 20, false))
	case KindTextNear:
		return "text_near__" + regexExcerpt(a.Anchor, 20)
	case KindTextRegex:
		return "text_regex__" + regexExcerpt(a.Pattern, 20)
	case KindTextContains:
		return "text_contains__" + literalExcerpt(a.Text, 20, true)
	case KindHeadingExists:
		return "heading_exists__" + literalExcerpt(a.Text, 20, true)
	case KindHeadingLevel:
		return fmt.Sprintf("heading_level__h%d__%s", a.Level, regexExcerpt(a.Pattern, 20))
	case KindSectionNonEmpty:
		return "section_non_empty__" + regexExcerpt(a.Heading, 20)
	case KindSectionMinLines:
		return "section_min_lines__" + regexExcerpt(a.Heading, 20)
	case KindTableColumns:
		return fmt.Sprintf("table_columns__%s__%d", regexExcerpt(a.Heading, 20), indexOrZero(a.Index))
	case KindTableShape:
		return fmt.Sprintf("table_shape__%s__%d", regexExcerpt(a.Heading, 20), indexOrZero(a.Index))
	case KindTableMinRows:
		return fmt.Sprintf("table_min_rows__%s__%d", regexExcerpt(a.Heading, 20), indexOrZero(a.Index))
	case KindSheetExists:
		return "sheet_exists__" + literalExcerpt(a.Sheet, 20, false)
	case KindSheetNameRegex:
		return "sheet_name_regex__" + regexExcerpt(a.Pattern, 20)
	case KindCellRegex:
		return fmt.Sprintf("cell_regex__%s__%s", literalExcerpt(a.Sheet, 20, false), literalExcerpt(a.Cell, 20, false))
	case KindRangeNonNull:
		return fmt.Sprintf("range_non_null__%s__%s", literalExcerpt(a.Sheet, 20, false), literalExcerpt(a.Range, 20, false))
	case KindRangePopulated:
		return fmt.Sprintf("range_populated__%s__%s", literalExcerpt(a.Sheet, 20, false), literalExcerpt(a.Range, 20, false))
	case KindSheetMinRows:
		return "sheet_min_rows__" + literalExcerpt(a.Sheet, 20, false)
	case KindColumnSearch:
		return fmt.Sprintf("column_search__%s__%s", literalExcerpt(a.Sheet, 20, false), literalExcerpt(a.Column, 20, false))
	case KindHeaderRowMatch:
		return "header_row_match__" + literalExcerpt(a.Sheet, 20, false)
	case KindSumEq:
		return fmt.Sprintf("sum_eq__%s__%s", literalExcerpt(a.Range, 20, false), literalExcerpt(a.RangeEquals, 20, false))
	case KindWithinTolerance:
		return "within_tolerance__" + literalExcerpt(a.Cell, 20, false)
	case KindPageCount:
		return "page_count"
	case KindMetadataRegex:
		return "metadata_regex__" + literalExcerpt(a.Key, 20, false)
	case KindFilenameRegex:
		return "filename_regex__" + regexExcerpt(a.Pattern, 20)
	default:
		return "assertion__" + literalExcerpt(string(a.Kind), 20, false)
	}
}

// regexExcerpt strips inline regex mode prefixes and character-class
// brackets, then runs literalExcerpt over what remains.
func regexExcerpt(value string, maxLen int) string {
	withoutFlags := value
	for _, prefix := range []string{"(?i)", "(?m)", "(?s)", "(?x)"} {
		withoutFlags = strings.ReplaceAll(withoutFlags, prefix, "")
	}

	var normalized strings.Builder
	inClass := false
	for _, ch := range withoutFlags {
		switch {
		case ch == '[':
			inClass = true
			normalized.WriteByte('_')
		case ch == ']':
			inClass = false
		case ch == '\\' && !inClass:
			// dropped
		default:
			normalized.WriteRune(ch)
		}
	}
	return literalExcerpt(normalized.String(), maxLen, true)
}

// literalExcerpt sanitizes value to alphanumerics with single underscores
// between runs of other characters, then truncates to maxLen significant
// characters, trimming any underscore left dangling at either edge.
func literalExcerpt(value string, maxLen int, lowercase bool) string {
	var out strings.Builder
	prevUnderscore := false
	for _, ch := range value {
		if lowercase {
			ch = []rune(strings.ToLower(string(ch)))[0]
		}
		if isASCIIAlnum(ch) {
			out.WriteRune(ch)
			prevUnderscore = false
		} else if !prevUnderscore {
			out.WriteByte('_')
			prevUnderscore = true
		}
	}

	trimmed := strings.Trim(out.String(), "_")
	if trimmed == "" {
		return "value"
	}

	runes := []rune(trimmed)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}
	return strings.Trim(string(runes), "_")
}

func isASCIIAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
