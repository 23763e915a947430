package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.parser-schema")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

const validFixture = `
# sample line survey schema
[parser]
name = "trench profile"
tag_mode = end
coor_x = x
coor_y = y
tag_field = tag
key_field = trench
key_unique = yes
geom_tag_line = L
geom_tag_poly = P

[field]
name = trench
type = text
separator = space

[field]
name = x
type = double
separator = space

[field]
name = y
type = double
separator = space

[field]
name = tag
type = text
separator = space
@p = P
@l = L

[field]
name = note
type = text
`

func TestLoadValidFixture(t *testing.T) {
	path := writeFixture(t, validFixture)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Name != "trench profile" {
		t.Errorf("Name = %q", s.Name)
	}
	if len(s.Fields) != 5 {
		t.Fatalf("len(Fields) = %d; want 5", len(s.Fields))
	}
	if s.Fields[4].Name != "note" || len(s.Fields[4].Separators) != 0 {
		t.Errorf("last field = %+v", s.Fields[4])
	}
	if s.TagMode != TagEnd {
		t.Errorf("TagMode = %v; want end", s.TagMode)
	}
	if !s.KeyUnique {
		t.Errorf("KeyUnique = false; want true")
	}
	tagField, ok := s.FieldByName("tag")
	if !ok || len(tagField.Lookup) != 2 {
		t.Fatalf("tag field lookup = %+v", tagField)
	}
	if err := Validate(s); err != nil {
		t.Fatalf("Validate() on well-formed fixture returned %v", err)
	}
}

func TestLoadUnknownSection(t *testing.T) {
	path := writeFixture(t, "[bogus]\nname = x\n")
	_, err := Load(path)
	var se *SyntaxError
	if !errors.As(err, &se) || se.Kind != ErrUnknownKey {
		t.Fatalf("Load() error = %v; want ErrUnknownKey", err)
	}
}

func TestLoadDuplicateKey(t *testing.T) {
	path := writeFixture(t, "[parser]\nname = a\nname = b\n")
	_, err := Load(path)
	var se *SyntaxError
	if !errors.As(err, &se) || se.Kind != ErrDuplicateKey {
		t.Fatalf("Load() error = %v; want ErrDuplicateKey", err)
	}
}

func TestLoadRepeatableCommentMark(t *testing.T) {
	path := writeFixture(t, "[parser]\ncomment_mark = #\ncomment_mark = //\n")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(s.CommentMarks) != 2 {
		t.Fatalf("CommentMarks = %v; want 2 entries", s.CommentMarks)
	}
}

func TestLoadBadBool(t *testing.T) {
	path := writeFixture(t, "[parser]\nkey_unique = maybe\n")
	_, err := Load(path)
	var se *SyntaxError
	if !errors.As(err, &se) || se.Kind != ErrBadBool {
		t.Fatalf("Load() error = %v; want ErrBadBool", err)
	}
}

func TestLoadValueTooLong(t *testing.T) {
	long := make([]byte, MaxValueLen+1)
	for i := range long {
		long[i] = 'a'
	}
	path := writeFixture(t, "[parser]\nname = "+string(long)+"\n")
	_, err := Load(path)
	var se *SyntaxError
	if !errors.As(err, &se) || se.Kind != ErrValueTooLong {
		t.Fatalf("Load() error = %v; want ErrValueTooLong", err)
	}
}

func TestLoadNoSuchFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.parser-schema"))
	var se *SyntaxError
	if !errors.As(err, &se) || se.Kind != ErrNoSuchFile {
		t.Fatalf("Load() error = %v; want ErrNoSuchFile", err)
	}
}

func TestLoadSeparatorTokens(t *testing.T) {
	path := writeFixture(t, `[parser]
coor_x = x
coor_y = y

[field]
name = x
type = double
separator = space

[field]
name = y
type = double
separator = tab
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	x, _ := s.FieldByName("x")
	y, _ := s.FieldByName("y")
	if x.Separators[0] != " " {
		t.Errorf("space token = %q", x.Separators[0])
	}
	if y.Separators[0] != "\t" {
		t.Errorf("tab token = %q", y.Separators[0])
	}
}

func TestLoadQuotation(t *testing.T) {
	path := writeFixture(t, `[field]
name = note
type = text
quotation = "
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	f := s.Fields[0]
	if !f.HasQuote || f.Quote != '"' {
		t.Errorf("quote = %v %q; want true, \"", f.HasQuote, f.Quote)
	}
}

func TestLoadPseudoField(t *testing.T) {
	path := writeFixture(t, `[field]
name = kind
type = text
value = wall
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !s.Fields[0].IsPseudo() || *s.Fields[0].Value != "wall" {
		t.Errorf("pseudo field = %+v", s.Fields[0])
	}
}
