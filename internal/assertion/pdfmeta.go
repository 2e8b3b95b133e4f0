package assertion

import (
	"fmt"

	"github.com/cmdrvl/fingerprint/internal/document"
	"github.com/cmdrvl/fingerprint/internal/dsl"
)

func evalPageCount(st *state, a dsl.Assertion) (bool, string, any) {
	if st.doc.Kind != document.FormatPdf {
		return false, "document is not a PDF", nil
	}
	n, err := st.doc.Pdf.PageCount()
	if err != nil {
		return false, err.Error(), nil
	}
	if a.PageMin != nil && n < *a.PageMin {
		return false, fmt.Sprintf("page count %d is below minimum %d", n, *a.PageMin), nil
	}
	if a.PageMax != nil && n > *a.PageMax {
		return false, fmt.Sprintf("page count %d is above maximum %d", n, *a.PageMax), nil
	}
	return true, "", nil
}

func evalMetadataRegex(st *state, a dsl.Assertion) (bool, string, any) {
	if st.doc.Kind != document.FormatPdf {
		return false, "document is not a PDF", nil
	}
	value, ok, err := st.doc.Pdf.MetadataValue(a.Key)
	if err != nil {
		return false, err.Error(), nil
	}
	if !ok {
		return false, fmt.Sprintf("metadata key '%s' not present", a.Key), nil
	}
	re, err := compileRegex(a.Pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid metadata_regex pattern '%s': %v", a.Pattern, err), nil
	}
	if re.MatchString(value) {
		return true, "", nil
	}
	return false, fmt.Sprintf("metadata '%s' value '%s' does not match pattern '%s'", a.Key, value, a.Pattern), nil
}
