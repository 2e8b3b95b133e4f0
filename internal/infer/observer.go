// Package infer implements component J: the corpus-based inference engine
// (observe a sample of documents, aggregate into candidate assertions, emit
// a .fp.yaml draft) and the single-document schema-infer workflow.
//
// Grounded on original_source/src/infer/{observer,aggregator,emitter,
// schema_infer}.rs (all full implementations).
package infer

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cmdrvl/fingerprint/internal/document"
)

// Observation is one document's shape summary, consumed by Aggregate.
type Observation struct {
	Format       string
	Extension    string
	Filename     string
	SheetNames   []string
	RowCounts    map[string]uint64
	CellValues   map[string]string // "sheet!A1" -> normalized value
	CsvHeaders   []string
	CsvRowCount  *uint64
	PdfPageCount *uint64
	PdfMetadata  map[string]string
}

// Observe inspects doc and records its shape. Only xlsx, csv, and pdf
// documents are supported.
func Observe(doc *document.Document) (Observation, error) {
	obs := Observation{
		Filename:  doc.Basename(),
		Extension: strings.ToLower(strings.TrimPrefix(filepath.Ext(doc.Basename()), ".")),
	}

	switch doc.Kind {
	case document.FormatXlsx:
		obs.Format = "xlsx"
		names := append([]string(nil), doc.Xlsx.SheetNames()...)
		sort.Strings(names)
		obs.SheetNames = names
		obs.RowCounts = map[string]uint64{}
		obs.CellValues = map[string]string{}
		for _, sheet := range names {
			n, err := doc.Xlsx.NonEmptyRowCount(sheet)
			if err == nil {
				obs.RowCounts[sheet] = uint64(n)
			}
			for _, cell := range []string{"A1", "B1", "A2", "B2"} {
				v, err := doc.Xlsx.Cell(sheet, cellRow(cell), cellCol(cell))
				if err != nil {
					continue
				}
				if norm := normalizeScalar(v); norm != "" {
					obs.CellValues[sheet+"!"+cell] = norm
				}
			}
		}

	case document.FormatCsv:
		obs.Format = "csv"
		headers, err := doc.Csv.Headers()
		if err == nil {
			obs.CsvHeaders = headers
		}
		rows, err := doc.Csv.Rows()
		if err == nil {
			var count uint64
			for _, row := range rows {
				for _, cell := range row {
					if strings.TrimSpace(cell) != "" {
						count++
						break
					}
				}
			}
			obs.CsvRowCount = &count
		}
		obs.SheetNames = doc.Csv.VirtualSheetNames()

	case document.FormatPdf:
		obs.Format = "pdf"
		if n, err := doc.Pdf.PageCount(); err == nil {
			count := uint64(n)
			obs.PdfPageCount = &count
		}
		if pairs, err := doc.Pdf.Metadata(); err == nil {
			meta := map[string]string{}
			for _, kv := range pairs {
				if norm := normalizeScalar(kv[1]); norm != "" {
					meta[kv[0]] = norm
				}
			}
			obs.PdfMetadata = meta
		}

	default:
		return Observation{}, fmt.Errorf("infer supports xlsx/csv/pdf documents only, got '%s'", doc.Kind)
	}

	return obs, nil
}

// normalizeScalar collapses control characters to spaces, then collapses
// whitespace runs to a single space and trims the result.
func normalizeScalar(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			b.WriteByte(' ')
		} else {
			b.WriteRune(r)
		}
	}
	fields := strings.Fields(b.String())
	return strings.Join(fields, " ")
}

func cellRow(addr string) int {
	ref, err := document.ParseCellRef(addr)
	if err != nil {
		return 0
	}
	return ref.Row
}

func cellCol(addr string) int {
	ref, err := document.ParseCellRef(addr)
	if err != nil {
		return 0
	}
	return ref.Col
}
