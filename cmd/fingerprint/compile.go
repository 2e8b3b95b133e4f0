package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmdrvl/fingerprint/internal/assertion"
	"github.com/cmdrvl/fingerprint/internal/dsl"
	"github.com/cmdrvl/fingerprint/internal/refusal"
)

var (
	flagCompileCheck bool
	flagCompileOut   string
)

var compileCmd = &cobra.Command{
	Use:   "compile <definition.fp.yaml>",
	Short: "Validate a fingerprint definition, or render it to a standalone package",
	Long: "Parses and compiles a .fp.yaml definition. With --check, only reports " +
		"whether it is valid. With --out, additionally renders a minimal Go " +
		"package wrapping the compiled definition to the given directory.",
	Args: cobra.MaximumNArgs(1),
	RunE: runCompile,
}

func init() {
	compileCmd.Flags().BoolVar(&flagCompileCheck, "check", false, "validate only; exit nonzero on failure without rendering")
	compileCmd.Flags().StringVar(&flagCompileOut, "out", "", "render a generated crate scaffold to this directory")
}

func runCompile(cmd *cobra.Command, args []string) error {
	if flagSchema {
		schema, err := dslJSONSchema()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), schema)
		return nil
	}

	if len(args) != 1 {
		return exitf("compile requires exactly one .fp.yaml path")
	}
	path := args[0]

	def, err := dsl.Parse(path)
	if err != nil {
		return compileFailure(refusal.CompileCodeInvalidYaml, err)
	}

	if err := validateAssertionKinds(def); err != nil {
		return err
	}
	if def.FingerprintID == "" || def.Format == "" {
		return compileFailure(refusal.CompileCodeMissingField, fmt.Errorf("fingerprint_id and format are required"))
	}

	// Compiling wraps the definition as a registry.Fingerprint. Compile
	// performs no validation of its own and cannot fail; the checks above are
	// the only ones compile mode runs, so errors in regex patterns or cell
	// addresses surface only when the fingerprint is evaluated.
	_ = assertion.Compile(def)

	if flagCompileCheck {
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %s (%s, format=%s)\n", def.FingerprintID, path, def.Format)
		return nil
	}

	if flagCompileOut != "" {
		if err := renderCrateScaffold(def, flagCompileOut); err != nil {
			return exitf("rendering crate scaffold: %v", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "rendered %s to %s\n", def.FingerprintID, flagCompileOut)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "OK: %s (%s, format=%s)\n", def.FingerprintID, path, def.Format)
	return nil
}

// compileFailure reports a compile-mode error as a plain user-facing error
// prefixed with its stable token, per DESIGN.md's decision that compile
// errors (unlike run-mode refusals) have no described wire-envelope format
// of their own in spec.md.
func compileFailure(code refusal.CompileCode, cause error) error {
	return exitf("%s: %v", code, cause)
}

// validateAssertionKinds rejects any assertion with no recognized kind and
// warns (without hard-failing) on any reserved-but-unimplemented kind, per
// spec.md §7's E_UNKNOWN_ASSERTION compile error.
func validateAssertionKinds(def *dsl.FingerprintDefinition) error {
	for _, na := range def.Assertions {
		if na.Assertion.Kind == "" {
			return compileFailure(refusal.CompileCodeUnknownAssertion, fmt.Errorf("assertion %q has no recognized kind", na.Name))
		}
		if dsl.ReservedKinds[na.Assertion.Kind] {
			fmt.Fprintf(os.Stderr, "warning: assertion %q uses reserved kind %q, not implemented in v0.1\n", na.Name, na.Assertion.Kind)
		}
	}
	return nil
}

// renderCrateScaffold writes a minimal Go package wrapping def to dir: a
// go.mod and a generated.go naming the definition's id/format, so it can be
// built standalone, outside the fingerprint registry's installed-
// definitions directory scan.
//
// Scoped down from original_source/src/compile/{codegen,crate_gen}.rs, both
// todo!() stubs there describing full Rust-crate codegen; this renders the
// Go-idiomatic equivalent of "a package that carries one definition."
func renderCrateScaffold(def *dsl.FingerprintDefinition, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	pkgName := sanitizePackageName(def.FingerprintID)
	modPath := fmt.Sprintf("fingerprint-generated/%s", pkgName)

	goMod := fmt.Sprintf("module %s\n\ngo 1.25.4\n", modPath)
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(goMod), 0o644); err != nil {
		return err
	}

	generated := fmt.Sprintf(`// Package %s was rendered by "fingerprint compile --out".
package %s

// FingerprintID is the id this package's definition was compiled from.
const FingerprintID = %q

// Format is the document format this definition applies to.
const Format = %q
`, pkgName, pkgName, def.FingerprintID, def.Format)

	return os.WriteFile(filepath.Join(dir, "generated.go"), []byte(generated), 0o644)
}

func sanitizePackageName(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" {
		return "generated"
	}
	return name
}
