package reader

import (
	"testing"

	"github.com/dlpb/survey2gis/internal/schema"
)

func simpleSchema() *schema.Schema {
	return &schema.Schema{
		CoorX: "x",
		CoorY: "y",
		Fields: []schema.FieldDesc{
			{Name: "trench", Type: schema.Text, Separators: []string{" "}},
			{Name: "x", Type: schema.Double, Separators: []string{" "}},
			{Name: "y", Type: schema.Double, Separators: []string{" "}},
			{Name: "note", Type: schema.Text},
		},
	}
}

func contentStrings(t *Tuple) []string {
	out := make([]string, len(t.Content))
	for i, c := range t.Content {
		if c == nil {
			out[i] = "<nil>"
		} else {
			out[i] = *c
		}
	}
	return out
}

func TestReadBasicTokenization(t *testing.T) {
	r := New(simpleSchema())
	tup := r.Read("T1 12.5 45.25 a sample note")
	got := contentStrings(tup)
	want := []string{"T1", "12.5", "45.25", "a sample note"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Content[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestIsCommentOrBlank(t *testing.T) {
	s := simpleSchema()
	s.CommentMarks = []string{"#"}
	r := New(s)
	tests := []struct {
		line string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"# a comment", true},
		{"T1 1 2 note", false},
	}
	for _, tt := range tests {
		if got := r.IsCommentOrBlank(tt.line); got != tt.want {
			t.Errorf("IsCommentOrBlank(%q) = %v; want %v", tt.line, got, tt.want)
		}
	}
}

func TestReadEmptyAllowed(t *testing.T) {
	s := simpleSchema()
	s.Fields[3] = schema.FieldDesc{Name: "note", Type: schema.Text, EmptyAllowed: true}
	r := New(s)
	tup := r.Read("T1 1 2 ")
	if tup.Content[3] != nil {
		t.Errorf("Content[3] = %q; want nil for empty_allowed empty trailing field", *tup.Content[3])
	}
}

func TestReadMergeSeparators(t *testing.T) {
	s := simpleSchema()
	s.Fields[0].MergeSeparators = true
	r := New(s)
	tup := r.Read("T1   1 2 note")
	if *tup.Content[0] != "T1" {
		t.Errorf("Content[0] = %q; want T1", *tup.Content[0])
	}
	if *tup.Content[1] != "1" {
		t.Errorf("Content[1] = %q; want 1 (merged separators should collapse)", *tup.Content[1])
	}
}

func TestReadQuotedField(t *testing.T) {
	s := simpleSchema()
	s.Fields[0].HasQuote = true
	s.Fields[0].Quote = '"'
	r := New(s)
	tup := r.Read(`"a trench" 1 2 note`)
	if *tup.Content[0] != "a trench" {
		t.Errorf("Content[0] = %q; want %q", *tup.Content[0], "a trench")
	}
	if *tup.Content[1] != "1" {
		t.Errorf("Content[1] = %q; want 1", *tup.Content[1])
	}
}

func TestReadPseudoField(t *testing.T) {
	s := simpleSchema()
	v := "wall"
	s.Fields[3] = schema.FieldDesc{Name: "kind", Value: &v}
	r := New(s)
	tup := r.Read("T1 1 2")
	if tup.Content[3] == nil || *tup.Content[3] != "wall" {
		t.Errorf("Content[3] = %v; want wall", tup.Content[3])
	}
}

func TestReadCaseConversionThenLookup(t *testing.T) {
	s := simpleSchema()
	s.Fields[0].CaseConversion = schema.CaseUpper
	s.Fields[0].Lookup = []schema.LookupPair{{Old: "T1", New: "TRENCH-ONE"}}
	r := New(s)
	tup := r.Read("t1 1 2 note")
	if *tup.Content[0] != "TRENCH-ONE" {
		t.Errorf("Content[0] = %q; want TRENCH-ONE", *tup.Content[0])
	}
}

func TestReadReducedRecordModeMin(t *testing.T) {
	s := &schema.Schema{
		TagMode: schema.TagMin,
		CoorX:   "x",
		CoorY:   "y",
		Fields: []schema.FieldDesc{
			{Name: "trench", Type: schema.Text, Separators: []string{" "}, Persistent: true},
			{Name: "x", Type: schema.Double, Separators: []string{" "}},
			{Name: "y", Type: schema.Double, Separators: []string{" "}},
			{Name: "note", Type: schema.Text},
		},
	}
	r := New(s)

	full := r.Read("T1 1.0 2.0 a full record")
	if full.Skip[3] {
		t.Fatalf("full record should not mark note skipped")
	}

	// Reduced line: only 3 tokens (trench, x, y) — P = 2 + 0 + 1 = 3.
	reduced := r.Read("T1 3.0 4.0")
	if !reduced.Skip[3] {
		t.Errorf("reduced record should mark note field skip=true")
	}
	if reduced.Content[3] != nil {
		t.Errorf("reduced record note content = %v; want nil", reduced.Content[3])
	}
	if *reduced.Content[1] != "3.0" || *reduced.Content[2] != "4.0" {
		t.Errorf("reduced record coords = %v, %v; want 3.0, 4.0", *reduced.Content[1], *reduced.Content[2])
	}
}

func TestReadReducedRecordRequiresPriorFullLine(t *testing.T) {
	s := &schema.Schema{
		TagMode: schema.TagMin,
		CoorX:   "x",
		CoorY:   "y",
		Fields: []schema.FieldDesc{
			{Name: "trench", Type: schema.Text, Separators: []string{" "}, Persistent: true},
			{Name: "x", Type: schema.Double, Separators: []string{" "}},
			{Name: "y", Type: schema.Double, Separators: []string{" "}},
			{Name: "note", Type: schema.Text},
		},
	}
	r := New(s)
	// First line looks reduced-sized but no prior full line has been seen,
	// so it must be read as a plain (if short) full-mode record instead.
	tup := r.Read("T1 1.0 2.0")
	if tup.Skip[3] {
		t.Errorf("first line should not trigger reduced-record treatment with no prior full line")
	}
}
