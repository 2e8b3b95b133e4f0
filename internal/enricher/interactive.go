package enricher

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/cmdrvl/fingerprint/internal/apperr"
	"github.com/cmdrvl/fingerprint/internal/infer"
)

// ResolveAmbiguousField implements infer.Resolver with an interactive
// huh.NewSelect prompt: when schema-infer finds a field's value on more than
// one candidate line, the user picks the intended one.
//
// Adapted from the teacher's internal/enricher/interactive.go form-group
// pattern (huh.NewGroup/huh.NewNote, a single form.Run()) — generalized from
// a multi-field metadata form to a single ranked-candidate picker, per
// SPEC_FULL.md §6.1.
func ResolveAmbiguousField(field infer.SchemaField, candidates []infer.CandidateLocation) (int, error) {
	options := make([]huh.Option[int], 0, len(candidates))
	for i, c := range candidates {
		label := fmt.Sprintf("line %d: %s", c.Line, truncate(c.Snippet, 72))
		options = append(options, huh.NewOption(label, i))
	}

	selected := 0
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("Ambiguous field %q", field.Name)).
				Description(fmt.Sprintf("%q appears on %d lines. Pick the one schema-infer should anchor on.", field.Value, len(candidates))),
			huh.NewSelect[int]().
				Title("Location").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return 0, apperr.ErrCancelled
		}
		return 0, err
	}
	return selected, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
