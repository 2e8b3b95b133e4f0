package document

import (
	"fmt"
	"sort"
	"strings"

	pdfmodel "github.com/unidoc/unipdf/v4/model"
)

// PdfDocument exposes page count and metadata over a PDF, plus an optional
// pre-extracted Markdown "text view" supplied out of band (the companion
// text_path upstream records may carry).
type PdfDocument struct {
	Path string
	Text *MarkdownDocument

	reader *pdfmodel.PdfReader
}

// OpenPdf parses the PDF with unipdf when called, not on first access, so a
// file unipdf cannot read is an error here; if textPath is non-empty, it
// then opens and attaches its Markdown view.
func OpenPdf(path string, textPath string) (*PdfDocument, error) {
	f, err := openPdfReader(path)
	if err != nil {
		return nil, err
	}
	doc := &PdfDocument{Path: path, reader: f}
	if textPath != "" {
		md, err := OpenMarkdown(textPath)
		if err != nil {
			return nil, err
		}
		doc.Text = md
	}
	return doc, nil
}

func (p *PdfDocument) PageCount() (int, error) {
	n, err := p.reader.GetNumPages()
	if err != nil {
		return 0, fmt.Errorf("failed to read page count of PDF '%s': %w", p.Path, err)
	}
	return n, nil
}

// Metadata returns the trailer Info dictionary as sorted (key, value) pairs.
func (p *PdfDocument) Metadata() ([][2]string, error) {
	info, err := p.reader.GetPdfInfo()
	if err != nil || info == nil {
		// A PDF without an Info dictionary has no metadata; this is not an error.
		return nil, nil
	}
	pairs := pdfInfoToPairs(info)
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })
	return pairs, nil
}

// MetadataValue does a case-insensitive key lookup over Metadata().
func (p *PdfDocument) MetadataValue(key string) (string, bool, error) {
	pairs, err := p.Metadata()
	if err != nil {
		return "", false, err
	}
	for _, kv := range pairs {
		if strings.EqualFold(kv[0], key) {
			return kv[1], true, nil
		}
	}
	return "", false, nil
}
