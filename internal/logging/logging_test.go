package logging

import (
	"bytes"
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestLogger_EnabledAndSetWriter(t *testing.T) {
	var l Logger
	if l.Enabled() {
		t.Fatalf("expected disabled when Writer is nil")
	}

	var buf bytes.Buffer
	l.SetWriter(&buf)
	if !l.Enabled() {
		t.Fatalf("expected enabled after setting Writer")
	}
}

func TestLogger_Logf_WritesPrefixSubjectAndMessage(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Writer: &buf, PrefixText: "X:", PrefixColor: ColorSuccess}
	l.Logf("  records/foo.csv  ", "msg %d", 1)

	out := buf.String()
	if !strings.Contains(out, "X:") {
		t.Fatalf("expected prefix, got %q", out)
	}
	if !strings.Contains(out, "subject=records/foo.csv") {
		t.Fatalf("expected trimmed subject, got %q", out)
	}
	if !strings.Contains(out, "msg 1") {
		t.Fatalf("expected formatted message, got %q", out)
	}
}

func TestLogger_Logf_EmptySubject_UsesNone(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Writer: &buf, PrefixText: "X:"}
	l.Logf("   ", "x")

	out := buf.String()
	if !strings.Contains(out, "subject=(none)") {
		t.Fatalf("expected none subject, got %q", out)
	}
}

func TestLogger_Logf_DefaultPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Writer: &buf}
	l.Logf("records/foo.csv", "x")

	out := buf.String()
	if !strings.Contains(out, "Log:") {
		t.Fatalf("expected default prefix, got %q", out)
	}
}

func TestLogger_Logf_OmitField(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{Writer: &buf, PrefixText: "X:", OmitSubject: true}
	l.Logf("records/foo.csv", "x")

	out := buf.String()
	if out != "X: x\n" {
		t.Fatalf("output = %q, want %q", out, "X: x\\n")
	}
}

func TestLogger_Logf_NilReceiver_NoPanic(t *testing.T) {
	var l *Logger
	l.Logf("records/foo.csv", "x")
}

func TestFangColorScheme_UsesPaletteAndRespectsLightDark(t *testing.T) {
	light := func(lightColor, _ lipgloss.Color) lipgloss.Color { return lightColor }
	scheme := FangColorScheme(light)

	if scheme.Title != lipgloss.Color(ColorPrimary) {
		t.Errorf("Title = %v, want %v", scheme.Title, ColorPrimary)
	}
	if scheme.Flag != lipgloss.Color(ColorSecondary) {
		t.Errorf("Flag = %v, want %v", scheme.Flag, ColorSecondary)
	}
	if scheme.ErrorDetails != lipgloss.Color(ColorError) {
		t.Errorf("ErrorDetails = %v, want %v", scheme.ErrorDetails, ColorError)
	}
	if scheme.Base != lipgloss.Color("#1a1a1a") {
		t.Errorf("Base = %v, want light-branch color", scheme.Base)
	}

	dark := func(_, darkColor lipgloss.Color) lipgloss.Color { return darkColor }
	scheme = FangColorScheme(dark)
	if scheme.Base != lipgloss.Color("#e5e5e5") {
		t.Errorf("Base = %v, want dark-branch color", scheme.Base)
	}
}
