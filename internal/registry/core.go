// Package registry implements component E: the fingerprint registry that
// resolves ids to implementations and enforces the trust/uniqueness
// invariants the pipeline depends on before a run starts.
//
// Grounded on original_source/src/registry/core.rs.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cmdrvl/fingerprint/internal/document"
)

// Fingerprint is the interface every fingerprint implementation (DSL-compiled
// or hand-written) satisfies.
type Fingerprint interface {
	ID() string
	Format() string
	Parent() string // "" if this fingerprint has no parent
	Evaluate(doc *document.Document) FingerprintResult
}

// FingerprintResult is the outcome of testing a document against one
// fingerprint.
type FingerprintResult struct {
	Matched    bool              `json:"matched"`
	Reason     *string           `json:"reason,omitempty"`
	Assertions []AssertionResult `json:"assertions"`
	Extracted  map[string]any    `json:"extracted,omitempty"`
	ContentHash *string          `json:"content_hash,omitempty"`
}

// AssertionResult is the outcome of evaluating a single named assertion.
type AssertionResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Detail  *string `json:"detail,omitempty"`
	Context any    `json:"context,omitempty"`
}

// FingerprintInfo is registration metadata about one available fingerprint.
type FingerprintInfo struct {
	ID      string `json:"id"`
	Crate   string `json:"crate_name"`
	Version string `json:"version"`
	Source  string `json:"source"`
	Format  string `json:"format"`
	Parent  *string `json:"parent,omitempty"`
}

type registeredFingerprint struct {
	fingerprint Fingerprint
	info        FingerprintInfo
}

// Registry resolves fingerprint IDs to implementations, in insertion order.
type Registry struct {
	entries []registeredFingerprint
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register adds fp with metadata synthesized from the implementation itself
// (source "unknown", version "0.0.0") — used for ad hoc or test registration.
func (r *Registry) Register(fp Fingerprint) {
	var parent *string
	if p := fp.Parent(); p != "" {
		parent = &p
	}
	r.RegisterWithInfo(fp, FingerprintInfo{
		ID:      fp.ID(),
		Crate:   "unknown",
		Version: "0.0.0",
		Source:  "unknown",
		Format:  fp.Format(),
		Parent:  parent,
	})
}

// RegisterWithInfo adds fp with explicit metadata, taking an empty ID or
// Format and a nil Parent from the implementation; other empty fields stay
// empty.
func (r *Registry) RegisterWithInfo(fp Fingerprint, info FingerprintInfo) {
	if info.ID == "" {
		info.ID = fp.ID()
	}
	if info.Format == "" {
		info.Format = fp.Format()
	}
	if info.Parent == nil {
		if p := fp.Parent(); p != "" {
			info.Parent = &p
		}
	}
	r.entries = append(r.entries, registeredFingerprint{fingerprint: fp, info: info})
}

// Get resolves id to its implementation, or nil if unregistered.
func (r *Registry) Get(id string) Fingerprint {
	for _, e := range r.entries {
		if e.fingerprint.ID() == id {
			return e.fingerprint
		}
	}
	return nil
}

// InfoFor resolves id to its registration metadata, or nil if unregistered.
func (r *Registry) InfoFor(id string) *FingerprintInfo {
	for _, e := range r.entries {
		if e.fingerprint.ID() == id {
			info := e.info
			return &info
		}
	}
	return nil
}

// Iter returns every registered implementation in registration order.
func (r *Registry) Iter() []Fingerprint {
	out := make([]Fingerprint, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.fingerprint
	}
	return out
}

// List returns every registration's metadata, sorted by (id, source).
func (r *Registry) List() []FingerprintInfo {
	infos := make([]FingerprintInfo, len(r.entries))
	for i, e := range r.entries {
		infos[i] = e.info
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].ID != infos[j].ID {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].Source < infos[j].Source
	})
	return infos
}

// ValidationError is a duplicate-id or untrusted-source registry violation.
type ValidationError struct {
	Kind          string // "duplicate_fp_id" | "untrusted_fp"
	FingerprintID string
	Providers     []string // duplicate_fp_id
	Provider      string   // untrusted_fp
	Policy        string   // untrusted_fp
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case "duplicate_fp_id":
		return fmt.Sprintf("duplicate fingerprint ID '%s' from providers %v", e.FingerprintID, e.Providers)
	case "untrusted_fp":
		return fmt.Sprintf("untrusted fingerprint '%s' from provider '%s' (%s)", e.FingerprintID, e.Provider, e.Policy)
	default:
		return "registry validation error"
	}
}

// Validate enforces both the uniqueness and trust invariants.
func (r *Registry) Validate(allowlist []string) error {
	if err := r.ValidateNoDuplicates(); err != nil {
		return err
	}
	return r.ValidateTrust(allowlist)
}

// ValidateNoDuplicates fails if two entries share the same fingerprint id.
func (r *Registry) ValidateNoDuplicates() error {
	providersByID := map[string][]string{}
	var ids []string
	for _, e := range r.entries {
		if _, ok := providersByID[e.info.ID]; !ok {
			ids = append(ids, e.info.ID)
		}
		providersByID[e.info.ID] = append(providersByID[e.info.ID], e.info.Source)
	}
	sort.Strings(ids)
	for _, id := range ids {
		providers := providersByID[id]
		if len(providers) > 1 {
			sorted := append([]string(nil), providers...)
			sort.Strings(sorted)
			return &ValidationError{Kind: "duplicate_fp_id", FingerprintID: id, Providers: sorted}
		}
	}
	return nil
}

// ValidateTrust fails on the first entry whose source is neither builtin nor
// explicitly allowlisted.
func (r *Registry) ValidateTrust(allowlist []string) error {
	for _, e := range r.entries {
		if isTrustedSource(e.info.Source, allowlist) {
			continue
		}
		return &ValidationError{
			Kind:          "untrusted_fp",
			FingerprintID: e.info.ID,
			Provider:      e.info.Source,
			Policy:        "allowlist_required",
		}
	}
	return nil
}

func isTrustedSource(source string, allowlist []string) bool {
	if source == "builtin" || strings.HasPrefix(source, "builtin:") {
		return true
	}
	for _, a := range allowlist {
		if a == source {
			return true
		}
	}
	return false
}
