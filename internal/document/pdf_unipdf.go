package document

import (
	"fmt"
	"os"

	"github.com/unidoc/unipdf/v4/core"
	pdfmodel "github.com/unidoc/unipdf/v4/model"
)

func openPdfReader(path string) (*pdfmodel.PdfReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF '%s': %w", path, err)
	}
	reader, err := pdfmodel.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF '%s': %w", path, err)
	}
	return reader, nil
}

// pdfInfoToPairs flattens unipdf's Info dictionary into (key, value) string
// pairs, converting each PDF object variant the way
// original_source/src/document/pdf.rs's pdf_object_as_string does: strings
// and names unwrap to their text, numbers and booleans format as decimal/
// "true"/"false", references resolve through one indirection, and anything
// else falls back to its Go-syntax representation.
func pdfInfoToPairs(info *pdfmodel.PdfInfo) [][2]string {
	var pairs [][2]string
	add := func(key string, val core.PdfObject) {
		if val == nil {
			return
		}
		pairs = append(pairs, [2]string{key, pdfObjectAsString(val)})
	}
	add("Producer", info.Producer)
	add("Creator", info.Creator)
	add("Author", info.Author)
	add("Title", info.Title)
	add("Subject", info.Subject)
	add("Keywords", info.Keywords)
	add("CreationDate", info.CreationDate)
	add("ModDate", info.ModDate)
	for k, v := range info.Custom {
		add(k, v)
	}
	return pairs
}

func pdfObjectAsString(obj core.PdfObject) string {
	switch v := obj.(type) {
	case *core.PdfObjectString:
		return v.Str()
	case *core.PdfObjectName:
		return string(*v)
	case *core.PdfObjectInteger:
		return fmt.Sprintf("%d", int64(*v))
	case *core.PdfObjectFloat:
		return fmt.Sprintf("%v", float64(*v))
	case *core.PdfObjectBool:
		return fmt.Sprintf("%v", bool(*v))
	case *core.PdfObjectReference:
		resolved := core.TraceToDirectObject(obj)
		if resolved != nil && resolved != obj {
			return pdfObjectAsString(resolved)
		}
		return fmt.Sprintf("%v", obj)
	default:
		return fmt.Sprintf("%v", obj)
	}
}
