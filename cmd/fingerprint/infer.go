package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmdrvl/fingerprint/internal/document"
	"github.com/cmdrvl/fingerprint/internal/infer"
	"github.com/cmdrvl/fingerprint/internal/search"
)

var (
	flagInferFormat        string
	flagInferID             string
	flagInferMinConfidence  float64
	flagInferNoExtract      bool
	flagInferOut            string
)

var inferCmd = &cobra.Command{
	Use:   "infer <dir>",
	Short: "Infer a .fp.yaml draft from a directory of sample documents",
	Long: "Observes every document of the given format under dir, aggregates their " +
		"shared shape into ranked candidate assertions, and emits a .fp.yaml draft.",
	Args: cobra.ExactArgs(1),
	RunE: runInfer,
}

func init() {
	inferCmd.Flags().StringVar(&flagInferFormat, "format", "", "document format to observe: xlsx, csv, or pdf (required)")
	inferCmd.Flags().StringVar(&flagInferID, "id", "", "fingerprint_id for the draft (required)")
	inferCmd.Flags().Float64Var(&flagInferMinConfidence, "min-confidence", 0.8, "minimum support ratio for a candidate assertion to be kept")
	inferCmd.Flags().BoolVar(&flagInferNoExtract, "no-extract", false, "omit the suggested extract/content_hash sections")
	inferCmd.Flags().StringVar(&flagInferOut, "out", "", "write the draft to this path instead of stdout")
	inferCmd.MarkFlagRequired("format")
	inferCmd.MarkFlagRequired("id")
}

func runInfer(cmd *cobra.Command, args []string) error {
	dir := args[0]
	format := strings.ToLower(flagInferFormat)

	paths, err := matchingDocuments(dir, format)
	if err != nil {
		return exitf("scanning '%s': %v", dir, err)
	}
	if len(paths) == 0 {
		return exitf("no %s documents found under '%s'", format, dir)
	}

	var observations []infer.Observation
	var searchDocs []search.SearchDocument
	for _, p := range paths {
		doc, err := document.OpenDocument(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping '%s': %v\n", p, err)
			continue
		}
		obs, err := infer.Observe(doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping '%s': %v\n", p, err)
			continue
		}
		observations = append(observations, obs)
		searchDocs = append(searchDocs, search.SearchDocument{ID: p, Content: searchableContent(doc)})
	}
	if len(observations) == 0 {
		return exitf("no %s documents under '%s' could be observed", format, dir)
	}

	var searcher *search.HybridSearcher
	if s, err := search.NewHybridSearcher(searchDocs); err == nil {
		searcher = s
	}

	profile, err := infer.Aggregate(observations, format, flagInferID, flagInferMinConfidence, !flagInferNoExtract, searcher)
	if err != nil {
		return exitf("aggregating: %v", err)
	}

	draft, err := infer.Emit(profile)
	if err != nil {
		return exitf("emitting draft: %v", err)
	}

	if flagInferOut != "" {
		if err := os.WriteFile(flagInferOut, []byte(draft), 0o644); err != nil {
			return exitf("writing '%s': %v", flagInferOut, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", flagInferOut)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), draft)
	return nil
}

var inferExtensions = map[string][]string{
	"xlsx": {".xlsx", ".xls"},
	"csv":  {".csv"},
	"pdf":  {".pdf"},
}

func matchingDocuments(dir, format string) ([]string, error) {
	exts, ok := inferExtensions[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format '%s': must be xlsx, csv, or pdf", format)
	}
	var matches []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		lower := strings.ToLower(path)
		for _, ext := range exts {
			if strings.HasSuffix(lower, ext) {
				matches = append(matches, path)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// searchableContent flattens a document's textual surface for hybrid-search
// indexing: markdown/text bodies, csv headers, or pdf metadata values.
func searchableContent(doc *document.Document) string {
	switch doc.Kind {
	case document.FormatMarkdown:
		return doc.Markdown.Normalized
	case document.FormatText:
		return doc.Text.Content
	case document.FormatCsv:
		headers, _ := doc.Csv.Headers()
		return strings.Join(headers, " ")
	case document.FormatPdf:
		if doc.Pdf.Text != nil {
			return doc.Pdf.Text.Normalized
		}
		pairs, _ := doc.Pdf.Metadata()
		var b strings.Builder
		for _, kv := range pairs {
			b.WriteString(kv[1])
			b.WriteString(" ")
		}
		return b.String()
	case document.FormatXlsx:
		var b strings.Builder
		for _, sheet := range doc.Xlsx.SheetNames() {
			b.WriteString(sheet)
			b.WriteString(" ")
		}
		return b.String()
	default:
		return ""
	}
}
