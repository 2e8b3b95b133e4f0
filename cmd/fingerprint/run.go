package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/cmdrvl/fingerprint/internal/config"
	"github.com/cmdrvl/fingerprint/internal/enricher"
	"github.com/cmdrvl/fingerprint/internal/pipeline"
	"github.com/cmdrvl/fingerprint/internal/progress"
	"github.com/cmdrvl/fingerprint/internal/refusal"
	"github.com/cmdrvl/fingerprint/internal/witness"
)

var runCmd = &cobra.Command{
	Use:   "run [input]",
	Short: "Enrich an upstream JSONL stream with fingerprint results",
	Long: "Reads hash.v0 records from the given file or stdin, annotates each with the " +
		"selected fingerprints' evaluation, and writes the enriched stream to stdout.",
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	reg, err := buildRegistry()
	if err != nil {
		return err
	}
	if handled, err := handleGlobalInfoFlags(cmd, reg); handled || err != nil {
		return err
	}

	in, closeIn, err := openInput(args)
	if err != nil {
		return exitf("opening input: %v", err)
	}
	defer closeIn()

	records, err := pipeline.ReadRecords(in)
	if err != nil {
		if rerr, ok := err.(*pipeline.ReaderError); ok {
			return writeRefusal(cmd.OutOrStdout(), badInputRefusal(rerr))
		}
		return err
	}

	if env, err := selectFingerprints(reg, flagFp); err != nil {
		return err
	} else if env != nil {
		return writeRefusal(cmd.OutOrStdout(), *env)
	}

	var reporter *progress.Reporter
	if flagProgress {
		reporter = progress.New(progressWriter(), "fingerprint")
	} else {
		reporter = progress.Disabled()
	}

	enr := enricher.New(enricher.Config{Registry: reg, Selected: flagFp, Progress: reporter})

	processed := 0
	total := len(records)
	wrapped := func(ctx context.Context, rec pipeline.Record) (pipeline.ProcessResult, error) {
		res, err := enr.Enrich(ctx, rec)
		processed++
		reporter.Progress(processed, &total)
		return res, err
	}

	outcome, err := pipeline.Run(cmd.Context(), records, flagJobs, wrapped, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if !flagNoWitness {
		appendRunWitness(records, outcome)
	}

	os.Exit(outcome.ExitCode())
	return nil
}

func openInput(args []string) (io.Reader, func(), error) {
	if len(args) == 0 {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// badInputRefusal wraps a pipeline read failure as an E_BAD_INPUT envelope,
// per spec.md §7's pipeline-fatal refusal list.
func badInputRefusal(rerr *pipeline.ReaderError) refusal.Envelope {
	msg := rerr.Message
	return refusal.BuildEnvelope(refusal.CodeBadInput, refusal.DefaultMessage(refusal.CodeBadInput),
		refusal.BadInputDetail{Line: uint64(rerr.Line), Error: &msg}, nil)
}

// writeRefusal writes env as the single refusal line and terminates the
// process with exit code 2, per spec.md §7: a refusal is a successful write,
// not a Go error.
func writeRefusal(w io.Writer, env refusal.Envelope) error {
	line, err := env.MarshalLine()
	if err != nil {
		return err
	}
	if _, err := w.Write(append(line, '\n')); err != nil {
		return err
	}
	os.Exit(2)
	return nil
}

func appendRunWitness(records []pipeline.Record, outcome pipeline.Outcome) {
	path := config.WitnessPath()
	prev, found, err := witness.Last(path)
	var prevID *string
	if err == nil && found {
		id := prev.ID
		prevID = &id
	}

	var inputs []witness.Input
	for _, rec := range records {
		if p, ok := rec.Value["path"].(string); ok && p != "" {
			inputs = append(inputs, witness.Input{Path: p})
		}
	}

	paramsJSON, _ := json.Marshal(map[string]any{"fp": flagFp, "jobs": flagJobs})

	_, _ = witness.Append(path, witness.Record{
		Version:    version,
		BinaryHash: binaryHashPlaceholder,
		Inputs:     inputs,
		Params:     json.RawMessage(paramsJSON),
		Outcome:    outcome.String(),
		ExitCode:   outcome.ExitCode(),
		OutputHash: "",
		Prev:       prevID,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

// binaryHashPlaceholder stands in for a build-time-injected binary content
// hash; this CLI has no reproducible-build pipeline wiring that hash to it.
const binaryHashPlaceholder = "unknown"
