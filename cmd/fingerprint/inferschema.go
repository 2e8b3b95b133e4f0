package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/cmdrvl/fingerprint/internal/apperr"
	"github.com/cmdrvl/fingerprint/internal/enricher"
	"github.com/cmdrvl/fingerprint/internal/infer"
)

var (
	flagInferSchemaDoc    string
	flagInferSchemaFields string
	flagInferSchemaID     string
	flagInferSchemaOut    string
)

var inferSchemaCmd = &cobra.Command{
	Use:   "infer-schema",
	Short: "Locate a list of known field values inside a single document",
	Long: "Given one sample document and a list of (name, value) fields, locates each " +
		"field's value and assembles a single .fp.yaml draft. When a value appears on " +
		"more than one line and stdin is a terminal, prompts interactively to disambiguate.",
	Args: cobra.NoArgs,
	RunE: runInferSchema,
}

func init() {
	inferSchemaCmd.Flags().StringVar(&flagInferSchemaDoc, "doc", "", "sample document path (required)")
	inferSchemaCmd.Flags().StringVar(&flagInferSchemaFields, "fields", "", "YAML file of [{name, value}] fields to locate (required)")
	inferSchemaCmd.Flags().StringVar(&flagInferSchemaID, "id", "", "fingerprint_id for the draft")
	inferSchemaCmd.Flags().StringVar(&flagInferSchemaOut, "out", "", "write the draft to this path instead of stdout")
	inferSchemaCmd.MarkFlagRequired("doc")
	inferSchemaCmd.MarkFlagRequired("fields")
}

func runInferSchema(cmd *cobra.Command, args []string) error {
	id := flagInferSchemaID
	if id == "" {
		id = "schema-infer.v1"
	}

	var resolve infer.Resolver
	if isatty.IsTerminal(os.Stdin.Fd()) {
		resolve = enricher.ResolveAmbiguousField
	}

	result, err := infer.InferSchema(flagInferSchemaDoc, flagInferSchemaFields, id, resolve)
	if err != nil {
		if err == apperr.ErrCancelled {
			return err
		}
		return exitf("inferring schema: %v", err)
	}

	draft, err := emitSchemaInferResult(result)
	if err != nil {
		return exitf("emitting draft: %v", err)
	}

	fmt.Fprintf(os.Stderr, "located %d/%d fields\n", result.LocatedFields, result.TotalFields)

	if flagInferSchemaOut != "" {
		if err := os.WriteFile(flagInferSchemaOut, []byte(draft), 0o644); err != nil {
			return exitf("writing '%s': %v", flagInferSchemaOut, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", flagInferSchemaOut)
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), draft)
	return nil
}

// emitSchemaInferResult renders result.Definition as a .fp.yaml draft by
// wrapping it in an AggregatedProfile with full (1/1) confidence per
// assertion — schema-infer has no corpus to calibrate support against, so
// every located field is reported at full confidence.
func emitSchemaInferResult(result infer.SchemaInferResult) (string, error) {
	def := result.Definition
	profile := infer.AggregatedProfile{
		FingerprintID: def.FingerprintID,
		Format:        def.Format,
		Extract:       def.Extract,
		ContentHash:   def.ContentHash,
	}
	for _, na := range def.Assertions {
		profile.Assertions = append(profile.Assertions, infer.InferredAssertion{
			Assertion:  na,
			Confidence: 1,
			Support:    1,
			Total:      1,
		})
	}
	return infer.Emit(profile)
}
