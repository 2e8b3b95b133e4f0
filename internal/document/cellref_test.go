package document

import "testing"

func TestParseCellRef(t *testing.T) {
	cases := []struct {
		in      string
		row     int
		col     int
		wantErr bool
	}{
		{"A1", 0, 0, false},
		{"B12", 11, 1, false},
		{"AA1", 0, 26, false},
		{"", 0, 0, true},
		{"123", 0, 0, true},
		{"A", 0, 0, true},
		{"A0", 0, 0, true},
	}
	for _, c := range cases {
		got, err := ParseCellRef(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseCellRef(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCellRef(%q): unexpected error %v", c.in, err)
			continue
		}
		if got.Row != c.row || got.Col != c.col {
			t.Errorf("ParseCellRef(%q) = %+v, want {%d %d}", c.in, got, c.row, c.col)
		}
	}
}

func TestParseRange_Canonicalizes(t *testing.T) {
	start, end, err := ParseRange("B2:A1")
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	if start != (CellRef{Row: 0, Col: 0}) {
		t.Errorf("start = %+v, want {0 0}", start)
	}
	if end != (CellRef{Row: 1, Col: 1}) {
		t.Errorf("end = %+v, want {1 1}", end)
	}
}

func TestParseRange_MalformedMissingColon(t *testing.T) {
	if _, _, err := ParseRange("A1"); err == nil {
		t.Fatal("expected an error for a range with no colon")
	}
}

func TestToCellRef(t *testing.T) {
	cases := map[string][2]int{
		"A1":  {0, 0},
		"B12": {11, 1},
		"AA1": {0, 26},
	}
	for want, rc := range cases {
		if got := ToCellRef(rc[0], rc[1]); got != want {
			t.Errorf("ToCellRef(%d,%d) = %q, want %q", rc[0], rc[1], got, want)
		}
	}
}
