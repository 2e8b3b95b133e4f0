package cmd

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/cmdrvl/fingerprint/internal/config"
	"github.com/cmdrvl/fingerprint/internal/witness"
)

var witnessCmd = &cobra.Command{
	Use:   "witness",
	Short: "Inspect the witness ledger",
}

var witnessQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print every witness ledger record, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := witness.Query(config.WitnessPath())
		if err != nil {
			return exitf("querying witness ledger: %v", err)
		}
		return printWitnessRecords(cmd, records)
	},
}

var witnessLastCmd = &cobra.Command{
	Use:   "last",
	Short: "Print the most recently appended witness ledger record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, ok, err := witness.Last(config.WitnessPath())
		if err != nil {
			return exitf("reading witness ledger: %v", err)
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "(empty)")
			return nil
		}
		return printWitnessRecords(cmd, []witness.Record{rec})
	},
}

var witnessCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of records in the witness ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := witness.Count(config.WitnessPath())
		if err != nil {
			return exitf("counting witness ledger: %v", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	},
}

func init() {
	witnessCmd.AddCommand(witnessQueryCmd, witnessLastCmd, witnessCountCmd)
}

func printWitnessRecords(cmd *cobra.Command, records []witness.Record) error {
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(line))
	}
	return nil
}
