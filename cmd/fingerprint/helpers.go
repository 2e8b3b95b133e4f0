package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cmdrvl/fingerprint/internal/apperr"
	"github.com/cmdrvl/fingerprint/internal/assertion"
	"github.com/cmdrvl/fingerprint/internal/dsl"
	"github.com/cmdrvl/fingerprint/internal/refusal"
	"github.com/cmdrvl/fingerprint/internal/registry"
)

// loadInstalledDefinitions scans dir for *.fp.yaml files and registers each
// as a Compiled fingerprint with source "installed:<dir>", per spec.md §6's
// FINGERPRINT_DEFINITIONS directory scan.
func loadInstalledDefinitions(reg *registry.Registry, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("scanning definitions directory '%s': %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".fp.yaml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	source := "installed:" + dir
	for _, name := range names {
		def, err := dsl.Parse(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("parsing installed definition '%s': %w", name, err)
		}
		var parent *string
		if def.Parent != nil {
			parent = def.Parent
		}
		reg.RegisterWithInfo(assertion.Compile(def), registry.FingerprintInfo{
			ID:      def.FingerprintID,
			Crate:   "fingerprint",
			Version: version,
			Source:  source,
			Format:  def.Format,
			Parent:  parent,
		})
	}
	return nil
}

// dslJSONSchema renders the .fp.yaml JSON Schema for the --schema flag.
func dslJSONSchema() (string, error) {
	return dsl.DSLJSONSchema()
}

// selectFingerprints resolves the --fp-selected ids against reg, returning a
// refusal envelope (never a Go error) on any pipeline-fatal condition: an
// unknown id, a duplicate id across providers, an untrusted provider, or a
// child fingerprint whose parent was not also selected.
//
// Grounded on spec.md §7's pipeline-fatal refusal list.
func selectFingerprints(reg *registry.Registry, ids []string) (*refusal.Envelope, error) {
	available := make([]string, 0)
	for _, info := range reg.List() {
		available = append(available, info.ID)
	}

	for _, id := range ids {
		if reg.Get(id) == nil {
			env := refusal.BuildEnvelope(refusal.CodeUnknownFp, refusal.DefaultMessage(refusal.CodeUnknownFp),
				refusal.UnknownFpDetail{FingerprintID: id, Available: available}, nil)
			return &env, nil
		}
	}

	if err := reg.ValidateNoDuplicates(); err != nil {
		if ve, ok := err.(*registry.ValidationError); ok {
			env := refusal.BuildEnvelope(refusal.CodeDuplicateFpID, refusal.DefaultMessage(refusal.CodeDuplicateFpID),
				refusal.DuplicateFpIDDetail{FingerprintID: ve.FingerprintID, Providers: ve.Providers}, nil)
			return &env, nil
		}
		return nil, err
	}

	if err := reg.ValidateTrust(nil); err != nil {
		if ve, ok := err.(*registry.ValidationError); ok {
			env := refusal.BuildEnvelope(refusal.CodeUntrustedFp, refusal.DefaultMessage(refusal.CodeUntrustedFp),
				refusal.UntrustedFpDetail{FingerprintID: ve.FingerprintID, Provider: ve.Provider, Policy: ve.Policy}, nil)
			return &env, nil
		}
		return nil, err
	}

	selected := map[string]bool{}
	for _, id := range ids {
		selected[id] = true
	}
	var loaded []string
	for _, id := range ids {
		loaded = append(loaded, id)
	}
	for _, id := range ids {
		info := reg.InfoFor(id)
		if info == nil || info.Parent == nil {
			continue
		}
		if !selected[*info.Parent] {
			env := refusal.BuildEnvelope(refusal.CodeOrphanChild, refusal.DefaultMessage(refusal.CodeOrphanChild),
				refusal.OrphanChildDetail{ChildID: id, ParentID: *info.Parent, Loaded: loaded}, nil)
			return &env, nil
		}
	}

	return nil, nil
}

// exitf prints a user-facing error message without cobra's usage text and
// returns a *apperr.UserError so the caller's RunE surfaces it cleanly.
func exitf(format string, args ...any) error {
	return apperr.Userf(format, args...)
}
