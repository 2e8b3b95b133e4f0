// Package config wires viper into fingerprint's CLI, following the
// teacher's cmd/root.go pattern: a config file searched in a couple of
// conventional locations, plus an env var prefix with a dotted-key
// replacer so every viper key is also reachable as an environment
// variable.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load searches $HOME/.fingerprint.yaml then ./config/defaults.yaml, binds
// the FINGERPRINT_ env prefix (with "." replaced by "_"), and returns the
// configured viper instance. A missing config file is not an error — every
// setting has a zero-value default applied by the CLI layer.
func Load() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		v.AddConfigPath(home)
		v.SetConfigName(".fingerprint")
		_ = v.ReadInConfig()
	}

	v.SetConfigName("defaults")
	v.AddConfigPath(filepath.Join(".", "config"))
	_ = v.MergeInConfig()

	v.SetEnvPrefix("FINGERPRINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// WitnessPath resolves the witness ledger path per spec.md §4.9:
// EPISTEMIC_WITNESS env var, else $HOME/.epistemic/witness.jsonl, else
// .epistemic/witness.jsonl. These are literal external env var names, not
// part of the FINGERPRINT_ viper namespace, so they are read directly.
func WitnessPath() string {
	if p := os.Getenv("EPISTEMIC_WITNESS"); p != "" {
		return p
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".epistemic", "witness.jsonl")
	}
	return filepath.Join(".epistemic", "witness.jsonl")
}

// DefinitionsDir resolves the installed-definitions directory per spec.md §6:
// FINGERPRINT_DEFINITIONS, or empty if unset (no installed-definition scan).
func DefinitionsDir() string {
	return os.Getenv("FINGERPRINT_DEFINITIONS")
}
