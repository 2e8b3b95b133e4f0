// Package cmd implements the fingerprint CLI surface (SPEC_FULL.md §6.1):
// cobra commands wired against the registry, pipeline, and witness packages.
//
// Grounded on the teacher's cmd/aibomgen-cli/root.go (cobra root +
// PersistentPreRun viper/banner wiring, SetVersion/GetRootCmd exports).
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmdrvl/fingerprint/internal/assertion"
	"github.com/cmdrvl/fingerprint/internal/builtinfp"
	"github.com/cmdrvl/fingerprint/internal/config"
	"github.com/cmdrvl/fingerprint/internal/registry"
)

const longDescription = "fingerprint identifies and re-evaluates documents against versioned, auditable matching rules."

var rootCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Document fingerprint matching and enrichment",
	Long:  longDescription,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.Load()
		if err != nil {
			return err
		}
		globalViper = v
		assertion.SetDiagnosticMode(flagDiagnose)
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var (
	version     string
	globalViper *viper.Viper
)

// Global flags, read by run.go/compile.go/witness.go/infer.go/inferschema.go.
var (
	flagList       bool
	flagDescribe   bool
	flagSchema     bool
	flagDiagnose   bool
	flagNoWitness  bool
	flagProgress   bool
	flagJobs       int
	flagFp         []string
)

// SetVersion sets the version reported by --version and embedded in witness
// ledger entries.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// GetRootCmd returns the root command for use with fang.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagList, "list", false, "list available fingerprint ids and exit")
	rootCmd.PersistentFlags().BoolVar(&flagDescribe, "describe", false, "print registry metadata for the selected fingerprints and exit")
	rootCmd.PersistentFlags().BoolVar(&flagSchema, "schema", false, "print the .fp.yaml JSON Schema and exit")
	rootCmd.PersistentFlags().BoolVar(&flagDiagnose, "diagnose", false, "print per-candidate evaluation diagnostics alongside normal output")
	rootCmd.PersistentFlags().BoolVar(&flagNoWitness, "no-witness", false, "skip appending to the witness ledger")
	rootCmd.PersistentFlags().BoolVar(&flagProgress, "progress", false, "emit progress/warning JSONL to stderr")
	rootCmd.PersistentFlags().IntVar(&flagJobs, "jobs", 1, "worker count for bounded-parallel processing")
	rootCmd.PersistentFlags().StringArrayVar(&flagFp, "fp", nil, "fingerprint id to evaluate (repeatable)")

	rootCmd.AddCommand(runCmd, compileCmd, witnessCmd, inferCmd, inferSchemaCmd)
}

// buildRegistry assembles the registry for this invocation: builtins plus
// any definitions found under FINGERPRINT_DEFINITIONS.
//
// Grounded on internal/config.DefinitionsDir and spec.md §6's installed-
// definition directory scan.
func buildRegistry() (*registry.Registry, error) {
	reg := registry.New()
	builtinfp.Register(reg)

	if dir := configDefinitionsDir(); dir != "" {
		if err := loadInstalledDefinitions(reg, dir); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func configDefinitionsDir() string {
	return config.DefinitionsDir()
}

// handleGlobalInfoFlags serves --list/--describe/--schema before any
// subcommand-specific processing, returning true if one of them was handled
// (the caller should return nil immediately).
func handleGlobalInfoFlags(cmd *cobra.Command, reg *registry.Registry) (bool, error) {
	switch {
	case flagSchema:
		schema, err := dslJSONSchema()
		if err != nil {
			return true, err
		}
		fmt.Fprintln(cmd.OutOrStdout(), schema)
		return true, nil
	case flagList:
		for _, info := range reg.List() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", info.ID, info.Format, info.Source)
		}
		return true, nil
	case flagDescribe:
		ids := flagFp
		if len(ids) == 0 {
			for _, info := range reg.List() {
				ids = append(ids, info.ID)
			}
		}
		for _, id := range ids {
			info := reg.InfoFor(id)
			if info == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t(not registered)\n", id)
				continue
			}
			parent := ""
			if info.Parent != nil {
				parent = *info.Parent
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\tformat=%s\tsource=%s\tversion=%s\tparent=%s\n",
				info.ID, info.Format, info.Source, info.Version, parent)
		}
		return true, nil
	}
	return false, nil
}

func progressWriter() *os.File {
	return os.Stderr
}
