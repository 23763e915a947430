package validate

import (
	"errors"
	"testing"

	"github.com/dlpb/survey2gis/internal/reader"
	"github.com/dlpb/survey2gis/internal/schema"
	"github.com/dlpb/survey2gis/internal/store"
)

func ptr(s string) *string { return &s }

func fullSchema() *schema.Schema {
	return &schema.Schema{
		CoorX:        "x",
		CoorY:        "y",
		TagField:     "tag",
		KeyField:     "trench",
		GeomTagPoint: "PT",
		GeomTagLine:  "LN",
		GeomTagPoly:  "PG",
		Fields: []schema.FieldDesc{
			{Name: "trench", Type: schema.Text},
			{Name: "x", Type: schema.Double},
			{Name: "y", Type: schema.Double},
			{Name: "tag", Type: schema.Text, EmptyAllowed: true},
			{Name: "note", Type: schema.Int, EmptyAllowed: true},
		},
	}
}

func validTuple() *reader.Tuple {
	return &reader.Tuple{
		Content: []*string{ptr("T1"), ptr("12.5"), ptr("45.25"), ptr("LN"), ptr("7")},
		Skip:    make([]bool, 5),
		Parsed:  []bool{true, true, true, true, true},
	}
}

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var re *RecordError
	if !errors.As(err, &re) {
		t.Fatalf("error %v is not a *RecordError", err)
	}
	return re.Kind
}

func TestValidateSuccess(t *testing.T) {
	v := New(fullSchema(), DefaultNumericFormat(), 1000, 2000, 0)
	rec := store.NewRecord(1, 5)
	if err := v.Validate(rec, validTuple()); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !rec.IsValid {
		t.Fatalf("IsValid = false")
	}
	if rec.X != 1012.5 || rec.Y != 2045.25 {
		t.Fatalf("X,Y = %v,%v; want 1012.5,2045.25", rec.X, rec.Y)
	}
	if rec.Tag != store.GeomLine {
		t.Fatalf("Tag = %v; want GeomLine", rec.Tag)
	}
	if !rec.HasKey || rec.Key != "T1" {
		t.Fatalf("Key = %q, HasKey=%v; want T1, true", rec.Key, rec.HasKey)
	}
}

func TestValidateFieldCountMismatch(t *testing.T) {
	v := New(fullSchema(), DefaultNumericFormat(), 0, 0, 0)
	rec := store.NewRecord(1, 5)
	tup := validTuple()
	tup.Content = tup.Content[:4]
	tup.Parsed = tup.Parsed[:4]
	rec = store.NewRecord(1, 4)
	if err := v.Validate(rec, tup); kindOf(t, err) != RecordShape {
		t.Fatalf("expected RecordShape")
	}
}

func TestValidateNonEmptyViolation(t *testing.T) {
	s := fullSchema()
	v := New(s, DefaultNumericFormat(), 0, 0, 0)
	rec := store.NewRecord(1, 5)
	tup := validTuple()
	tup.Content[0] = nil // trench is not empty_allowed
	if err := v.Validate(rec, tup); kindOf(t, err) != RecordEmpty {
		t.Fatalf("expected RecordEmpty")
	}
}

func TestValidateCoordBad(t *testing.T) {
	v := New(fullSchema(), DefaultNumericFormat(), 0, 0, 0)
	rec := store.NewRecord(1, 5)
	tup := validTuple()
	tup.Content[1] = ptr("not-a-number")
	if err := v.Validate(rec, tup); kindOf(t, err) != CoordBad {
		t.Fatalf("expected CoordBad")
	}
}

func TestValidateFieldTypeError(t *testing.T) {
	v := New(fullSchema(), DefaultNumericFormat(), 0, 0, 0)
	rec := store.NewRecord(1, 5)
	tup := validTuple()
	tup.Content[4] = ptr("not-an-int")
	if err := v.Validate(rec, tup); kindOf(t, err) != FieldType {
		t.Fatalf("expected FieldType")
	}
}

func TestValidateGroupingAndDecimalFormat(t *testing.T) {
	s := fullSchema()
	v := New(s, NumericFormat{Decimal: ',', Grouping: '.'}, 0, 0, 0)
	rec := store.NewRecord(1, 5)
	tup := validTuple()
	tup.Content[1] = ptr("1.012,5") // European-style: '.' groups, ',' decimal
	tup.Content[2] = ptr("45,25")
	if err := v.Validate(rec, tup); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if rec.X != 1012.5 {
		t.Fatalf("X = %v; want 1012.5", rec.X)
	}
	if rec.Y != 45.25 {
		t.Fatalf("Y = %v; want 45.25", rec.Y)
	}
}

func TestValidateNoDataSentinel(t *testing.T) {
	s := fullSchema()
	s.NoData = -9999
	v := New(s, DefaultNumericFormat(), 0, 0, 0)
	rec := store.NewRecord(1, 5)
	tup := validTuple()
	tup.Content[4] = ptr("-9999")
	if err := v.Validate(rec, tup); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !rec.NoData["note"] {
		t.Fatalf("NoData[note] = false; want true")
	}
}

func TestValidateTagPrecedence(t *testing.T) {
	s := fullSchema()
	v := New(s, DefaultNumericFormat(), 0, 0, 0)
	rec := store.NewRecord(1, 5)
	tup := validTuple()
	tup.Content[3] = ptr("has PT and LN") // point takes precedence
	if err := v.Validate(rec, tup); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if rec.Tag != store.GeomPoint {
		t.Fatalf("Tag = %v; want GeomPoint", rec.Tag)
	}
}

func TestValidateCoordOverflow(t *testing.T) {
	v := New(fullSchema(), DefaultNumericFormat(), 0, 0, 0)
	rec := store.NewRecord(1, 5)
	tup := validTuple()
	tup.Content[1] = ptr("1e400")
	if err := v.Validate(rec, tup); kindOf(t, err) != CoordOverflow {
		t.Fatalf("expected CoordOverflow")
	}
}

func TestValidateFieldOverflow(t *testing.T) {
	v := New(fullSchema(), DefaultNumericFormat(), 0, 0, 0)
	rec := store.NewRecord(1, 5)
	tup := validTuple()
	tup.Content[4] = ptr("99999999999999999999999999999999")
	if err := v.Validate(rec, tup); kindOf(t, err) != FieldOverflow {
		t.Fatalf("expected FieldOverflow")
	}
}

func TestValidateReducedRecordShape(t *testing.T) {
	s := &schema.Schema{
		TagMode: schema.TagMin,
		CoorX:   "x",
		CoorY:   "y",
		Fields: []schema.FieldDesc{
			{Name: "trench", Type: schema.Text, Persistent: true},
			{Name: "x", Type: schema.Double},
			{Name: "y", Type: schema.Double},
			{Name: "note", Type: schema.Text, EmptyAllowed: true},
		},
	}
	v := New(s, DefaultNumericFormat(), 0, 0, 0)
	rec := store.NewRecord(2, 4)
	tup := &reader.Tuple{
		Content: []*string{ptr("T1"), ptr("1.0"), ptr("2.0"), nil},
		Skip:    []bool{false, false, false, true},
		Parsed:  []bool{true, true, true, false},
	}
	if err := v.Validate(rec, tup); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !rec.IsValid {
		t.Fatalf("expected reduced record to validate")
	}
}
