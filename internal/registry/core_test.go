package registry

import (
	"testing"

	"github.com/cmdrvl/fingerprint/internal/document"
)

type stubFingerprint struct {
	id, format, parent string
}

func (s stubFingerprint) ID() string     { return s.id }
func (s stubFingerprint) Format() string { return s.format }
func (s stubFingerprint) Parent() string { return s.parent }
func (s stubFingerprint) Evaluate(*document.Document) FingerprintResult {
	return FingerprintResult{Matched: true}
}

func TestRegister_DefaultsMetadataFromImplementation(t *testing.T) {
	r := New()
	r.Register(stubFingerprint{id: "a.v1", format: "xlsx"})
	info := r.InfoFor("a.v1")
	if info == nil || info.Source != "unknown" || info.Format != "xlsx" {
		t.Fatalf("InfoFor = %+v", info)
	}
}

func TestList_SortsByIDThenSource(t *testing.T) {
	r := New()
	r.RegisterWithInfo(stubFingerprint{id: "b.v1", format: "csv"}, FingerprintInfo{ID: "b.v1", Source: "builtin"})
	r.RegisterWithInfo(stubFingerprint{id: "a.v1", format: "csv"}, FingerprintInfo{ID: "a.v1", Source: "zzz"})
	r.RegisterWithInfo(stubFingerprint{id: "a.v1", format: "csv"}, FingerprintInfo{ID: "a.v1", Source: "aaa"})

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("len(List()) = %d, want 3", len(list))
	}
	if list[0].ID != "a.v1" || list[0].Source != "aaa" {
		t.Errorf("list[0] = %+v", list[0])
	}
	if list[1].ID != "a.v1" || list[1].Source != "zzz" {
		t.Errorf("list[1] = %+v", list[1])
	}
	if list[2].ID != "b.v1" {
		t.Errorf("list[2] = %+v", list[2])
	}
}

func TestValidateNoDuplicates_FailsOnSharedID(t *testing.T) {
	r := New()
	r.RegisterWithInfo(stubFingerprint{id: "dup.v1", format: "csv"}, FingerprintInfo{ID: "dup.v1", Source: "builtin"})
	r.RegisterWithInfo(stubFingerprint{id: "dup.v1", format: "csv"}, FingerprintInfo{ID: "dup.v1", Source: "third-party"})

	err := r.ValidateNoDuplicates()
	if err == nil {
		t.Fatal("expected a duplicate-id error")
	}
	ve, ok := err.(*ValidationError)
	if !ok || ve.Kind != "duplicate_fp_id" {
		t.Fatalf("err = %+v", err)
	}
	if len(ve.Providers) != 2 || ve.Providers[0] != "builtin" {
		t.Errorf("Providers = %v", ve.Providers)
	}
}

func TestValidateTrust(t *testing.T) {
	r := New()
	r.RegisterWithInfo(stubFingerprint{id: "a.v1", format: "csv"}, FingerprintInfo{ID: "a.v1", Source: "builtin"})
	r.RegisterWithInfo(stubFingerprint{id: "b.v1", format: "csv"}, FingerprintInfo{ID: "b.v1", Source: "builtin:extra"})
	r.RegisterWithInfo(stubFingerprint{id: "c.v1", format: "csv"}, FingerprintInfo{ID: "c.v1", Source: "third-party"})

	if err := r.ValidateTrust(nil); err == nil {
		t.Fatal("expected an untrusted-source error")
	}
	if err := r.ValidateTrust([]string{"third-party"}); err != nil {
		t.Errorf("ValidateTrust with allowlist: %v", err)
	}
}

func TestGet_ReturnsNilForUnknownID(t *testing.T) {
	r := New()
	if r.Get("missing") != nil {
		t.Error("Get(missing) should be nil")
	}
}
