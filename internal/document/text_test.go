package document

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenText_SplitsLines(t *testing.T) {
	path := writeTemp(t, "a.txt", "one\ntwo\nthree")
	doc, err := OpenText(path)
	if err != nil {
		t.Fatalf("OpenText: %v", err)
	}
	want := []string{"one", "two", "three"}
	if !reflect.DeepEqual(doc.Lines(), want) {
		t.Errorf("Lines() = %v, want %v", doc.Lines(), want)
	}
	if doc.LineCount() != 3 {
		t.Errorf("LineCount() = %d, want 3", doc.LineCount())
	}
}

func TestOpenText_EmptyFile(t *testing.T) {
	path := writeTemp(t, "empty.txt", "")
	doc, err := OpenText(path)
	if err != nil {
		t.Fatalf("OpenText: %v", err)
	}
	if len(doc.Lines()) != 0 {
		t.Errorf("Lines() = %v, want empty", doc.Lines())
	}
	if doc.LineCount() != 0 {
		t.Errorf("LineCount() = %d, want 0", doc.LineCount())
	}
}

func TestOpenText_PreservesBlankLinesWithTrailingNewlines(t *testing.T) {
	path := writeTemp(t, "blanks.txt", "first\n\nthird\n\n")
	doc, err := OpenText(path)
	if err != nil {
		t.Fatalf("OpenText: %v", err)
	}
	want := []string{"first", "", "third", ""}
	if !reflect.DeepEqual(doc.Lines(), want) {
		t.Errorf("Lines() = %v, want %v", doc.Lines(), want)
	}
	if doc.LineCount() != 4 {
		t.Errorf("LineCount() = %d, want 4", doc.LineCount())
	}
}
