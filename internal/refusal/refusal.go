// Package refusal implements component H: the typed fatal-error envelope
// shared by the CLI and the pipeline. A refusal is not a Go error in the
// ordinary sense — it is a successful write of exactly one JSON object to
// stdout followed by exit code 2.
//
// Grounded on original_source/src/refusal/codes.rs.
package refusal

import "github.com/goccy/go-json"

// Code names one of the run-mode refusal conditions.
type Code string

const (
	CodeBadInput      Code = "E_BAD_INPUT"
	CodeUnknownFp     Code = "E_UNKNOWN_FP"
	CodeDuplicateFpID Code = "E_DUPLICATE_FP_ID"
	CodeUntrustedFp   Code = "E_UNTRUSTED_FP"
	CodeOrphanChild   Code = "E_ORPHAN_CHILD"
)

// DefaultMessage returns the fixed Display-style message for code.
func DefaultMessage(code Code) string {
	switch code {
	case CodeBadInput:
		return "Invalid input stream"
	case CodeUnknownFp:
		return "Fingerprint ID not found"
	case CodeDuplicateFpID:
		return "Duplicate fingerprint ID discovered"
	case CodeUntrustedFp:
		return "Fingerprint provider not allowlisted"
	case CodeOrphanChild:
		return "Child fingerprint references unloaded parent"
	default:
		return "Refusal"
	}
}

// CompileCode names one of the compile-mode refusal conditions.
type CompileCode string

const (
	CompileCodeInvalidYaml       CompileCode = "E_INVALID_YAML"
	CompileCodeUnknownAssertion  CompileCode = "E_UNKNOWN_ASSERTION"
	CompileCodeMissingField      CompileCode = "E_MISSING_FIELD"
)

// BadInputDetail is the detail payload for CodeBadInput.
type BadInputDetail struct {
	Line          uint64  `json:"line"`
	Error         *string `json:"error,omitempty"`
	MissingField  *string `json:"missing_field,omitempty"`
	Version       *string `json:"version,omitempty"`
}

// UnknownFpDetail is the detail payload for CodeUnknownFp.
type UnknownFpDetail struct {
	FingerprintID string   `json:"fingerprint_id"`
	Available     []string `json:"available"`
}

// DuplicateFpIDDetail is the detail payload for CodeDuplicateFpID.
type DuplicateFpIDDetail struct {
	FingerprintID string   `json:"fingerprint_id"`
	Providers     []string `json:"providers"`
}

// UntrustedFpDetail is the detail payload for CodeUntrustedFp.
type UntrustedFpDetail struct {
	FingerprintID string `json:"fingerprint_id"`
	Provider      string `json:"provider"`
	Policy        string `json:"policy"`
}

// OrphanChildDetail is the detail payload for CodeOrphanChild.
type OrphanChildDetail struct {
	ChildID  string   `json:"child_id"`
	ParentID string   `json:"parent_id"`
	Loaded   []string `json:"loaded"`
}

// Envelope is the single JSON object printed to stdout on a pipeline-fatal
// condition.
type Envelope struct {
	Version string `json:"version"`
	Outcome string `json:"outcome"`
	Refusal Body   `json:"refusal"`
}

// Body is the nested "refusal" object inside Envelope.
type Body struct {
	Code        Code   `json:"code"`
	Message     string `json:"message"`
	Detail      any    `json:"detail"`
	NextCommand *string `json:"next_command,omitempty"`
}

// BuildEnvelope assembles the top-level envelope for one refusal condition.
func BuildEnvelope(code Code, message string, detail any, nextCommand *string) Envelope {
	return Envelope{
		Version: "fingerprint.v0",
		Outcome: "REFUSAL",
		Refusal: Body{
			Code:        code,
			Message:     message,
			Detail:      detail,
			NextCommand: nextCommand,
		},
	}
}

// MarshalLine returns the compact JSON-line form the pipeline writes to
// stdout: one object, no trailing newline.
func (e Envelope) MarshalLine() ([]byte, error) {
	return json.Marshal(e)
}
