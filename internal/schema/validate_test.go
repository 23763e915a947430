package schema

import (
	"errors"
	"testing"
)

func baseValidSchema() *Schema {
	return &Schema{
		CoorX: "x",
		CoorY: "y",
		Fields: []FieldDesc{
			{Name: "x", Type: Double, Separators: []string{" "}},
			{Name: "y", Type: Double, Separators: []string{" "}},
			{Name: "note", Type: Text},
		},
	}
}

func semanticKind(t *testing.T, err error) SemanticErrorKind {
	t.Helper()
	var se *SemanticError
	if !errors.As(err, &se) {
		t.Fatalf("error %v is not a *SemanticError", err)
	}
	return se.Kind
}

func TestValidateFieldCount(t *testing.T) {
	s := baseValidSchema()
	s.Fields = nil
	if err := Validate(s); semanticKind(t, err) != ErrFieldCount {
		t.Fatalf("got %v", err)
	}
}

func TestValidateReservedName(t *testing.T) {
	s := baseValidSchema()
	s.Fields[2].Name = "geom_id"
	if err := Validate(s); semanticKind(t, err) != ErrReservedName {
		t.Fatalf("got %v", err)
	}
}

func TestValidateDuplicateName(t *testing.T) {
	s := baseValidSchema()
	s.Fields[2].Name = "x"
	if err := Validate(s); semanticKind(t, err) != ErrDuplicateName {
		t.Fatalf("got %v", err)
	}
}

func TestValidateBadNameChars(t *testing.T) {
	s := baseValidSchema()
	s.Fields[2].Name = "note-1"
	if err := Validate(s); semanticKind(t, err) != ErrBadNameChars {
		t.Fatalf("got %v", err)
	}
}

func TestValidateMissingSeparator(t *testing.T) {
	s := baseValidSchema()
	s.Fields[0].Separators = nil
	if err := Validate(s); semanticKind(t, err) != ErrMissingSeparator {
		t.Fatalf("got %v", err)
	}
}

func TestValidateSeparatorOnLastField(t *testing.T) {
	s := baseValidSchema()
	s.Fields[2].Separators = []string{","}
	if err := Validate(s); semanticKind(t, err) != ErrSeparatorOnLastField {
		t.Fatalf("got %v", err)
	}
}

func TestValidateNewlineSeparator(t *testing.T) {
	s := baseValidSchema()
	s.Fields[0].Separators = []string{"\n"}
	if err := Validate(s); semanticKind(t, err) != ErrNewlineSeparator {
		t.Fatalf("got %v", err)
	}
}

func TestValidateEmptyAllowedConflict(t *testing.T) {
	s := baseValidSchema()
	s.Fields[0].EmptyAllowed = true
	s.Fields[0].MergeSeparators = true
	if err := Validate(s); semanticKind(t, err) != ErrEmptyAllowedConflict {
		t.Fatalf("got %v", err)
	}
}

func TestValidateWhitespaceSeparatorConflict(t *testing.T) {
	s := baseValidSchema()
	s.Fields[0].EmptyAllowed = true
	if err := Validate(s); semanticKind(t, err) != ErrWhitespaceSeparatorConflict {
		t.Fatalf("got %v", err)
	}
}

func TestValidateCharacterClash(t *testing.T) {
	s := baseValidSchema()
	s.Fields[0].HasQuote = true
	s.Fields[0].Quote = ' '
	if err := Validate(s); semanticKind(t, err) != ErrCharacterClash {
		t.Fatalf("got %v", err)
	}
}

func TestValidateCoordFieldMissing(t *testing.T) {
	s := baseValidSchema()
	s.CoorX = "missing"
	if err := Validate(s); semanticKind(t, err) != ErrCoordField {
		t.Fatalf("got %v", err)
	}
}

func TestValidateCoordFieldType(t *testing.T) {
	s := baseValidSchema()
	s.Fields[0].Type = Text
	if err := Validate(s); semanticKind(t, err) != ErrCoordFieldType {
		t.Fatalf("got %v", err)
	}
}

func TestValidateCoordFieldOverlap(t *testing.T) {
	s := baseValidSchema()
	s.CoorY = "x"
	if err := Validate(s); semanticKind(t, err) != ErrCoordFieldOverlap {
		t.Fatalf("got %v", err)
	}
}

func TestValidatePseudoFieldValue(t *testing.T) {
	s := baseValidSchema()
	v := "not-a-number"
	s.Fields[2].Type = Int
	s.Fields[2].Value = &v
	if err := Validate(s); semanticKind(t, err) != ErrPseudoFieldValue {
		t.Fatalf("got %v", err)
	}
}

func TestValidatePseudoFieldOptions(t *testing.T) {
	s := baseValidSchema()
	v := "wall"
	s.Fields[2].Value = &v
	s.Fields[2].Unique = true
	if err := Validate(s); semanticKind(t, err) != ErrPseudoFieldOptions {
		t.Fatalf("got %v", err)
	}
}

func TestValidateModeRequiresKeyField(t *testing.T) {
	s := baseValidSchema()
	s.TagMode = TagEnd
	s.GeomTagLine = "L"
	s.GeomTagPoly = "P"
	if err := Validate(s); semanticKind(t, err) != ErrModeRequiresKeyField {
		t.Fatalf("got %v", err)
	}
}

func TestValidateModeKeyTagClash(t *testing.T) {
	s := baseValidSchema()
	s.TagMode = TagMax
	s.KeyField = "note"
	s.TagField = "note"
	s.GeomTagLine = "L"
	s.GeomTagPoly = "P"
	if err := Validate(s); semanticKind(t, err) != ErrModeKeyTagClash {
		t.Fatalf("got %v", err)
	}
}

func TestValidateModeReducedCount(t *testing.T) {
	s := baseValidSchema()
	s.TagMode = TagMin
	s.GeomTagLine = "L"
	s.GeomTagPoly = "P"
	// Marking the trailing field persistent makes the reduced count (x, y,
	// plus this persistent field) equal the full field count.
	s.Fields[2].Persistent = true
	if err := Validate(s); semanticKind(t, err) != ErrModeReducedCount {
		t.Fatalf("got %v", err)
	}
}

func TestValidateGeomTagRequired(t *testing.T) {
	s := baseValidSchema()
	s.TagMode = TagEnd
	s.KeyField = "note"
	if err := Validate(s); semanticKind(t, err) != ErrGeomTagRequired {
		t.Fatalf("got %v", err)
	}
}

func TestValidateGeomTagRequiresPointUnderStrict(t *testing.T) {
	s := baseValidSchema()
	s.TagMode = TagEnd
	s.TagStrict = true
	s.KeyField = "note"
	s.GeomTagLine = "L"
	s.GeomTagPoly = "P"
	if err := Validate(s); semanticKind(t, err) != ErrGeomTagRequired {
		t.Fatalf("got %v", err)
	}
}

func TestValidateGeomTagClash(t *testing.T) {
	s := baseValidSchema()
	s.TagMode = TagEnd
	s.KeyField = "note"
	s.GeomTagLine = "L"
	s.GeomTagPoly = "L"
	if err := Validate(s); semanticKind(t, err) != ErrGeomTagClash {
		t.Fatalf("got %v", err)
	}
}

func TestValidateWellFormedSchema(t *testing.T) {
	s := baseValidSchema()
	if err := Validate(s); err != nil {
		t.Fatalf("Validate() = %v; want nil", err)
	}
}
