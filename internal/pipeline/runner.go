package pipeline

import (
	"bufio"
	"context"
	"io"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ProcessResult is what one enrichment call produces for a single record.
type ProcessResult struct {
	// Output is the annotated record written to stdout.
	Output map[string]any
	// Matched is true when the record's selected fingerprint matched.
	Matched bool
	// Refusal is true when Output is a refusal envelope; the run stops
	// after writing every result up to and including this one.
	Refusal bool
}

// ProcessFunc enriches one validated upstream record.
type ProcessFunc func(ctx context.Context, rec Record) (ProcessResult, error)

// Outcome classifies how a run concluded, per spec.md §4.7's exit-code table.
type Outcome int

const (
	OutcomeAllMatched Outcome = iota
	OutcomePartial
	OutcomeRefusal
)

// ExitCode maps an Outcome to the process exit code: AllMatched -> 0,
// Partial -> 1, Refusal -> 2.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeAllMatched:
		return 0
	case OutcomePartial:
		return 1
	default:
		return 2
	}
}

func (o Outcome) String() string {
	switch o {
	case OutcomeAllMatched:
		return "AllMatched"
	case OutcomePartial:
		return "Partial"
	default:
		return "Refusal"
	}
}

// Run executes fn over records with worker_count = max(jobs, 1) bounded
// parallelism. Records are processed in batches of 2*worker_count so that
// no more than that many are ever in flight at once; within a batch,
// workers run concurrently but results are written to w in original input
// order only once the whole batch has completed. worker_count == 1 runs
// strictly sequentially, needing no reorder buffer at all.
//
// Grounded on original_source/src/pipeline/parallel.rs, translated from its
// thread::scope + mpsc::channel + BTreeMap<usize, Value> reorder pattern to
// the Go idiom of errgroup.Group + semaphore.Weighted over a dense,
// batch-local result slice (batch indices are already contiguous, so no
// map is needed).
func Run(ctx context.Context, records []Record, jobs int, fn ProcessFunc, w io.Writer) (Outcome, error) {
	workers := jobs
	if workers < 1 {
		workers = 1
	}
	batchSize := workers * 2
	if batchSize < 1 {
		batchSize = 1
	}

	bw := bufio.NewWriter(w)
	anyMatched := false
	anyUnmatched := false

	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		batch := records[start:end]
		results := make([]ProcessResult, len(batch))

		if workers == 1 {
			for i, rec := range batch {
				res, err := fn(ctx, rec)
				if err != nil {
					return OutcomeRefusal, err
				}
				results[i] = res
				if res.Refusal {
					if err := writeResults(bw, results[:i+1]); err != nil {
						return OutcomeRefusal, err
					}
					return OutcomeRefusal, nil
				}
			}
		} else {
			sem := semaphore.NewWeighted(int64(workers))
			g, gctx := errgroup.WithContext(ctx)
			for i, rec := range batch {
				i, rec := i, rec
				if err := sem.Acquire(gctx, 1); err != nil {
					return OutcomeRefusal, err
				}
				g.Go(func() error {
					defer sem.Release(1)
					res, err := fn(gctx, rec)
					if err != nil {
						return err
					}
					results[i] = res
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return OutcomeRefusal, err
			}
		}

		refusedAt := -1
		for i, res := range results {
			if res.Refusal {
				refusedAt = i
				break
			}
		}
		if refusedAt >= 0 {
			if err := writeResults(bw, results[:refusedAt+1]); err != nil {
				return OutcomeRefusal, err
			}
			return OutcomeRefusal, nil
		}

		if err := writeResults(bw, results); err != nil {
			return OutcomeRefusal, err
		}
		for _, res := range results {
			if res.Matched {
				anyMatched = true
			} else {
				anyUnmatched = true
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return OutcomeRefusal, err
	}

	if anyUnmatched {
		return OutcomePartial, nil
	}
	return OutcomeAllMatched, nil
}

func writeResults(w *bufio.Writer, results []ProcessResult) error {
	for _, res := range results {
		line, err := json.Marshal(res.Output)
		if err != nil {
			return err
		}
		if _, err := w.Write(line); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}
