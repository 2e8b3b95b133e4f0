package document

import "strings"

// OpenDocument dispatches on the file's extension and opens the matching
// adapter. Unknown or missing extensions fall back to the raw byte reader.
func OpenDocument(path string) (*Document, error) {
	return OpenDocumentWithTextPath(path, "")
}

// OpenDocumentWithTextPath is OpenDocument, but for a PDF whose text has
// already been extracted out of band, textPath names the Markdown view to
// attach. Ignored for every other format.
func OpenDocumentWithTextPath(path, textPath string) (*Document, error) {
	ext := extensionOf(path)
	switch ext {
	case "xlsx", "xls":
		x, err := OpenXlsx(path)
		if err != nil {
			return nil, err
		}
		return &Document{Kind: FormatXlsx, Xlsx: x}, nil
	case "csv":
		c, err := OpenCsv(path)
		if err != nil {
			return nil, err
		}
		return &Document{Kind: FormatCsv, Csv: c}, nil
	case "pdf":
		p, err := OpenPdf(path, textPath)
		if err != nil {
			return nil, err
		}
		return &Document{Kind: FormatPdf, Pdf: p}, nil
	case "md", "markdown":
		m, err := OpenMarkdown(path)
		if err != nil {
			return nil, err
		}
		return &Document{Kind: FormatMarkdown, Markdown: m}, nil
	case "txt", "text":
		t, err := OpenText(path)
		if err != nil {
			return nil, err
		}
		return &Document{Kind: FormatText, Text: t}, nil
	default:
		r, err := OpenRaw(path)
		if err != nil {
			return nil, err
		}
		return &Document{Kind: FormatUnknown, Raw: r}, nil
	}
}

// OpenDocumentFromPath is an alias kept for call sites that only ever have a
// path and no optional companion text file.
func OpenDocumentFromPath(path string) (*Document, error) {
	return OpenDocument(path)
}

func extensionOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 || i == len(path)-1 {
		return ""
	}
	slash := strings.LastIndexAny(path, `/\`)
	if slash > i {
		return ""
	}
	return strings.ToLower(path[i+1:])
}
