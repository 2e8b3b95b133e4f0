// Package progress implements the ambient progress side-channel: a stderr
// JSONL stream of processed/total counters and warnings, gated by the
// --progress CLI flag.
//
// Grounded on the teacher's internal/generator/generator_progress.go event
// shape (ProgressEvent/ProgressCallback), re-pointed at spec.md §6's
// {type:"progress", ...} / {type:"warning", ...} wire shapes.
package progress

import (
	"io"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// ProgressEvent is one {"type":"progress",...} line: a processed/total
// counter snapshot for the running pipeline.
type ProgressEvent struct {
	Type      string   `json:"type"`
	Tool      string   `json:"tool"`
	Processed int      `json:"processed"`
	Total     *int     `json:"total,omitempty"`
	Percent   *float64 `json:"percent,omitempty"`
	ElapsedMs int64    `json:"elapsed_ms"`
}

// WarningEvent is one {"type":"warning",...} line: a per-record, non-fatal
// problem surfaced alongside (not instead of) the record's own _warnings.
type WarningEvent struct {
	Type    string `json:"type"`
	Tool    string `json:"tool"`
	Path    string `json:"path"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Reporter emits progress/warning JSONL lines to an underlying writer. A nil
// Reporter (or one built with Disabled) is a safe no-op, so callers need not
// branch on whether --progress was passed.
type Reporter struct {
	w       io.Writer
	tool    string
	start   time.Time
	mu      sync.Mutex
	enabled bool
}

// New returns a Reporter that writes JSONL lines to w, timestamped relative
// to now.
func New(w io.Writer, tool string) *Reporter {
	return &Reporter{w: w, tool: tool, start: time.Now(), enabled: true}
}

// Disabled returns a Reporter whose Progress/Warning calls are no-ops,
// matching a run without --progress.
func Disabled() *Reporter {
	return &Reporter{enabled: false}
}

// Progress emits a processed/total counter snapshot. total may be nil when
// the pipeline doesn't know its input size up front (streaming stdin).
func (r *Reporter) Progress(processed int, total *int) {
	if r == nil || !r.enabled {
		return
	}
	event := ProgressEvent{
		Type:      "progress",
		Tool:      r.tool,
		Processed: processed,
		Total:     total,
		ElapsedMs: time.Since(r.start).Milliseconds(),
	}
	if total != nil && *total > 0 {
		pct := float64(processed) / float64(*total)
		event.Percent = &pct
	}
	r.write(event)
}

// Warning emits a per-record warning tied to path.
func (r *Reporter) Warning(path, code, message string) {
	if r == nil || !r.enabled {
		return
	}
	r.write(WarningEvent{Type: "warning", Tool: r.tool, Path: path, Code: code, Message: message})
}

func (r *Reporter) write(event any) {
	raw, err := json.Marshal(event)
	if err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.w.Write(raw)
	r.w.Write([]byte("\n"))
}
