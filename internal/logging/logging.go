// Package logging is a tiny opt-in logger used across internal packages.
// Each package that wants logging declares its own package-local Logger
// value (see internal/enricher/logging.go for the pattern) rather than
// sharing one global instance, so callers can silence or redirect one
// concern without affecting others.
package logging

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/fang"
)

// Logger is a tiny opt-in logger. When Writer is nil, logging is disabled.
//
// The output format is:
//
//	<ColoredPrefix> subject=<subject> <formattedMessage>\n
//
// where <subject> is trimmed and defaults to "(none)". Subject is typically
// a record path or fingerprint id — whatever this package's unit of work is.
type Logger struct {
	Writer io.Writer

	PrefixText  string
	PrefixColor string

	// OmitSubject controls whether the subject field is written.
	// When false (default), output includes "subject=<value>".
	OmitSubject bool
}

func (l *Logger) SetWriter(w io.Writer) { l.Writer = w }

func (l *Logger) Enabled() bool { return l != nil && l.Writer != nil }

func (l *Logger) Logf(subject string, format string, args ...any) {
	if l == nil || l.Writer == nil {
		return
	}
	prefix := l.PrefixText
	if prefix == "" {
		prefix = "Log:"
	}
	if l.PrefixColor != "" {
		prefix = lipgloss.NewStyle().Foreground(lipgloss.Color(l.PrefixColor)).Render(prefix)
	}
	msg := fmt.Sprintf(format, args...)
	if l.OmitSubject {
		fmt.Fprintf(l.Writer, "%s %s\n", prefix, msg)
		return
	}

	s := strings.TrimSpace(subject)
	if s == "" {
		s = "(none)"
	}
	fmt.Fprintf(l.Writer, "%s subject=%s %s\n", prefix, s, msg)
}

// Color palette, carried from the teacher's internal/ui/styles.go.
const (
	ColorPrimary   = "#7C3AED"
	ColorSecondary = "#06B6D4"
	ColorSuccess   = "#10B981"
	ColorWarning   = "#F59E0B"
	ColorError     = "#EF4444"
	ColorMuted     = "#6B7280"
)

// FangColorScheme builds a fang.ColorScheme from this package's palette.
// The teacher's cmd/aibomgen-cli wired fang.WithColorSchemeFunc(ui.FangColorScheme)
// against a dedicated internal/ui package; since internal/ui was folded into
// internal/logging (see DESIGN.md's Ambient stack section), this lives here
// instead, built from the same ColorPrimary/.../ColorMuted constants.
func FangColorScheme(lightDark lipgloss.LightDarkFunc) fang.ColorScheme {
	base := lightDark(lipgloss.Color("#1a1a1a"), lipgloss.Color("#e5e5e5"))
	return fang.ColorScheme{
		Base:           base,
		Title:          lipgloss.Color(ColorPrimary),
		Description:    lipgloss.Color(ColorMuted),
		Codeblock:      lipgloss.Color(ColorSecondary),
		Program:        lipgloss.Color(ColorPrimary),
		DimmedArgument: lipgloss.Color(ColorMuted),
		Comment:        lipgloss.Color(ColorMuted),
		Flag:           lipgloss.Color(ColorSecondary),
		FlagDefault:    lipgloss.Color(ColorMuted),
		Command:        lipgloss.Color(ColorPrimary),
		QuotedString:   lipgloss.Color(ColorSuccess),
		Argument:       base,
		Help:           lipgloss.Color(ColorMuted),
		ErrorHeader:    [2]lipgloss.Color{lipgloss.Color(ColorError), lipgloss.Color("#ffffff")},
		ErrorDetails:   lipgloss.Color(ColorError),
	}
}
