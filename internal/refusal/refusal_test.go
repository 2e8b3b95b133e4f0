package refusal

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestDefaultMessage(t *testing.T) {
	cases := map[Code]string{
		CodeBadInput:      "Invalid input stream",
		CodeUnknownFp:     "Fingerprint ID not found",
		CodeDuplicateFpID: "Duplicate fingerprint ID discovered",
		CodeUntrustedFp:   "Fingerprint provider not allowlisted",
		CodeOrphanChild:   "Child fingerprint references unloaded parent",
	}
	for code, want := range cases {
		if got := DefaultMessage(code); got != want {
			t.Errorf("DefaultMessage(%s) = %q, want %q", code, got, want)
		}
	}
}

func TestBuildEnvelope_SerializesExactShape(t *testing.T) {
	next := "cargo install fingerprint-argus"
	env := BuildEnvelope(CodeUnknownFp, "Fingerprint ID not found", UnknownFpDetail{
		FingerprintID: "argus-model.v1",
		Available:     []string{"csv.v0", "xlsx.v0"},
	}, &next)

	raw, err := env.MarshalLine()
	if err != nil {
		t.Fatalf("MarshalLine: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["version"] != "fingerprint.v0" || got["outcome"] != "REFUSAL" {
		t.Fatalf("unexpected envelope shape: %v", got)
	}
	refusalBody, ok := got["refusal"].(map[string]any)
	if !ok {
		t.Fatalf("expected refusal body object, got %T", got["refusal"])
	}
	if refusalBody["code"] != "E_UNKNOWN_FP" {
		t.Errorf("code = %v, want E_UNKNOWN_FP", refusalBody["code"])
	}
	if refusalBody["next_command"] != next {
		t.Errorf("next_command = %v, want %q", refusalBody["next_command"], next)
	}
}

func TestBadInputDetail_OmitsUnsetFields(t *testing.T) {
	errStr := "invalid JSON"
	detail := BadInputDetail{Line: 42, Error: &errStr}

	raw, err := json.Marshal(detail)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, present := got["missing_field"]; present {
		t.Error("expected missing_field to be omitted when nil")
	}
	if _, present := got["version"]; present {
		t.Error("expected version to be omitted when nil")
	}
	if got["line"] != float64(42) || got["error"] != errStr {
		t.Errorf("unexpected detail shape: %v", got)
	}
}
