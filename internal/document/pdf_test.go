package document

import (
	"path/filepath"
	"testing"
)

func TestOpenPdf_MissingFile(t *testing.T) {
	_, err := OpenPdf(filepath.Join(t.TempDir(), "missing.pdf"), "")
	if err == nil {
		t.Fatal("expected an error for a nonexistent PDF")
	}
}

func TestOpenPdf_MissingTextPath(t *testing.T) {
	// A malformed PDF still fails fast during OpenPdf, before the optional
	// text_path is ever consulted.
	path := writeTemp(t, "bad.pdf", "not a pdf")
	_, err := OpenPdf(path, filepath.Join(t.TempDir(), "missing.md"))
	if err == nil {
		t.Fatal("expected an error opening a malformed PDF")
	}
}
