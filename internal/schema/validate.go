package schema

import "strings"

// Validate checks every cross-field invariant and returns the first
// violation found, in a fixed order. A nil return means the schema is
// safe to hand to a RecordReader.
func Validate(s *Schema) error {
	if err := validateFieldCount(s); err != nil {
		return err
	}
	if err := validateNames(s); err != nil {
		return err
	}
	if err := validateSeparators(s); err != nil {
		return err
	}
	if err := validateCharacterClashes(s); err != nil {
		return err
	}
	if err := validateCoordFields(s); err != nil {
		return err
	}
	if err := validatePseudoFields(s); err != nil {
		return err
	}
	if err := validateTagMode(s); err != nil {
		return err
	}
	if err := validateGeomTags(s); err != nil {
		return err
	}
	return nil
}

func validateFieldCount(s *Schema) error {
	n := len(s.Fields)
	if n < MinFields || n > MaxFields {
		return &SemanticError{Kind: ErrFieldCount, Detail: "field count must be in [1, 251]"}
	}
	return nil
}

func validateNames(s *Schema) error {
	seen := map[string]bool{}
	for _, f := range s.Fields {
		if IsReservedFieldName(f.Name) {
			return &SemanticError{Kind: ErrReservedName, Field: f.Name}
		}
		if seen[f.Name] {
			return &SemanticError{Kind: ErrDuplicateName, Field: f.Name}
		}
		seen[f.Name] = true
		if len(f.Name) > MaxFieldNameLen || f.Name == "" {
			return &SemanticError{Kind: ErrNameTooLong, Field: f.Name}
		}
		if !ValidFieldNameChars(f.Name) {
			return &SemanticError{Kind: ErrBadNameChars, Field: f.Name}
		}
	}
	return nil
}

func validateSeparators(s *Schema) error {
	last := len(s.Fields) - 1
	for i, f := range s.Fields {
		if i == last {
			if len(f.Separators) > 0 {
				return &SemanticError{Kind: ErrSeparatorOnLastField, Field: f.Name}
			}
			continue
		}
		if f.IsPseudo() {
			continue
		}
		if len(f.Separators) == 0 {
			return &SemanticError{Kind: ErrMissingSeparator, Field: f.Name}
		}
		for _, sep := range f.Separators {
			if sep == "\n" {
				return &SemanticError{Kind: ErrNewlineSeparator, Field: f.Name}
			}
		}
		if f.EmptyAllowed && f.MergeSeparators {
			return &SemanticError{Kind: ErrEmptyAllowedConflict, Field: f.Name}
		}
		if f.EmptyAllowed && hasWhitespaceSeparator(f.Separators) {
			return &SemanticError{Kind: ErrWhitespaceSeparatorConflict, Field: f.Name}
		}
	}
	return nil
}

func hasWhitespaceSeparator(seps []string) bool {
	for _, sep := range seps {
		if sep == " " || sep == "\t" {
			return true
		}
	}
	return false
}

// validateCharacterClashes enforces that, per field, no single character
// plays more than one of the roles: separator, quote, comment mark.
// Geometry-tag characters are checked separately in validateGeomTags since
// they are schema-global, not per-field.
func validateCharacterClashes(s *Schema) error {
	for _, f := range s.Fields {
		roles := map[byte]string{}
		for _, sep := range f.Separators {
			for i := 0; i < len(sep); i++ {
				if other, ok := roles[sep[i]]; ok && other != "separator" {
					return &SemanticError{Kind: ErrCharacterClash, Field: f.Name, Detail: "character used as both " + other + " and separator"}
				}
				roles[sep[i]] = "separator"
			}
		}
		if f.HasQuote {
			if other, ok := roles[f.Quote]; ok && other != "quote" {
				return &SemanticError{Kind: ErrCharacterClash, Field: f.Name, Detail: "character used as both " + other + " and quote"}
			}
			roles[f.Quote] = "quote"
		}
		for _, mark := range s.CommentMarks {
			for i := 0; i < len(mark); i++ {
				if other, ok := roles[mark[i]]; ok && other != "comment mark" {
					return &SemanticError{Kind: ErrCharacterClash, Field: f.Name, Detail: "character used as both " + other + " and comment mark"}
				}
				roles[mark[i]] = "comment mark"
			}
		}
	}
	return nil
}

func validateCoordFields(s *Schema) error {
	x, okX := s.FieldByName(s.CoorX)
	if s.CoorX == "" || !okX {
		return &SemanticError{Kind: ErrCoordField, Field: s.CoorX, Detail: "coor_x field not found"}
	}
	y, okY := s.FieldByName(s.CoorY)
	if s.CoorY == "" || !okY {
		return &SemanticError{Kind: ErrCoordField, Field: s.CoorY, Detail: "coor_y field not found"}
	}
	if err := checkCoordFieldType(x); err != nil {
		return err
	}
	if err := checkCoordFieldType(y); err != nil {
		return err
	}
	if s.CoorX == s.CoorY {
		return &SemanticError{Kind: ErrCoordFieldOverlap, Field: s.CoorX, Detail: "coor_x and coor_y must be distinct"}
	}

	var z *FieldDesc
	if s.HasZ() {
		var okZ bool
		z, okZ = s.FieldByName(s.CoorZ)
		if !okZ {
			return &SemanticError{Kind: ErrCoordField, Field: s.CoorZ, Detail: "coor_z field not found"}
		}
		if err := checkCoordFieldType(z); err != nil {
			return err
		}
		if s.CoorZ == s.CoorX || s.CoorZ == s.CoorY {
			return &SemanticError{Kind: ErrCoordFieldOverlap, Field: s.CoorZ, Detail: "coor_z must be distinct from coor_x/coor_y"}
		}
	}
	if s.HasTagField() && (s.TagField == s.CoorX || s.TagField == s.CoorY || (s.HasZ() && s.TagField == s.CoorZ)) {
		return &SemanticError{Kind: ErrCoordFieldOverlap, Field: s.TagField, Detail: "tag field must be distinct from coordinate fields"}
	}
	if s.HasKeyField() && (s.KeyField == s.CoorX || s.KeyField == s.CoorY || (s.HasZ() && s.KeyField == s.CoorZ)) {
		return &SemanticError{Kind: ErrCoordFieldOverlap, Field: s.KeyField, Detail: "key field must be distinct from coordinate fields"}
	}
	return nil
}

func checkCoordFieldType(f *FieldDesc) error {
	if f.Type != Double || f.EmptyAllowed {
		return &SemanticError{Kind: ErrCoordFieldType, Field: f.Name}
	}
	return nil
}

func validatePseudoFields(s *Schema) error {
	for _, f := range s.Fields {
		if !f.IsPseudo() {
			continue
		}
		if !parsesAsType(*f.Value, f.Type) {
			return &SemanticError{Kind: ErrPseudoFieldValue, Field: f.Name}
		}
		if f.EmptyAllowed || f.Unique || f.Persistent || f.Skip || f.CaseConversion != CaseNone ||
			len(f.Separators) > 0 || f.MergeSeparators || f.HasQuote || len(f.Lookup) > 0 {
			return &SemanticError{Kind: ErrPseudoFieldOptions, Field: f.Name}
		}
	}
	return nil
}

func parsesAsType(v string, t FieldType) bool {
	switch t {
	case Text:
		return true
	case Int:
		return isInt(v)
	case Double:
		return isFloat(v)
	default:
		return false
	}
}

func isInt(v string) bool {
	if v == "" {
		return false
	}
	i := 0
	if v[0] == '+' || v[0] == '-' {
		i = 1
	}
	if i == len(v) {
		return false
	}
	for ; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return true
}

func isFloat(v string) bool {
	if v == "" {
		return false
	}
	sawDigit, sawDot := false, false
	i := 0
	if v[0] == '+' || v[0] == '-' {
		i = 1
	}
	for ; i < len(v); i++ {
		c := v[i]
		switch {
		case c >= '0' && c <= '9':
			sawDigit = true
		case c == '.' && !sawDot:
			sawDot = true
		default:
			return false
		}
	}
	return sawDigit
}

func validateTagMode(s *Schema) error {
	switch s.TagMode {
	case TagNone:
		// Key/tag fields are tolerated but have no effect; that is a
		// non-fatal warning raised by the caller via diag, not a load error.
		return nil
	case TagEnd:
		if !s.HasKeyField() {
			return &SemanticError{Kind: ErrModeRequiresKeyField, Detail: "tag_mode=end requires key_field"}
		}
	case TagMax:
		if !s.HasKeyField() {
			return &SemanticError{Kind: ErrModeRequiresKeyField, Detail: "tag_mode=max requires key_field"}
		}
		if s.HasTagField() && s.TagField == s.KeyField {
			return &SemanticError{Kind: ErrModeKeyTagClash}
		}
	case TagMin:
		if s.ReducedFieldCount() >= len(s.Fields) {
			return &SemanticError{Kind: ErrModeReducedCount, Detail: "reduced record field count must be smaller than the full field count"}
		}
	}
	return nil
}

func validateGeomTags(s *Schema) error {
	if s.TagMode == TagNone {
		return nil
	}
	if s.GeomTagLine == "" || s.GeomTagPoly == "" {
		return &SemanticError{Kind: ErrGeomTagRequired, Detail: "line and polygon geometry tags are required when tag_mode != none"}
	}
	requirePoint := s.TagStrict || s.TagMode == TagMax
	if requirePoint && s.GeomTagPoint == "" {
		return &SemanticError{Kind: ErrGeomTagRequired, Detail: "point geometry tag required under tag_strict or tag_mode=max"}
	}

	tags := []string{s.GeomTagPoint, s.GeomTagLine, s.GeomTagPoly}
	for i := 0; i < len(tags); i++ {
		if tags[i] == "" {
			continue
		}
		for j := i + 1; j < len(tags); j++ {
			if tags[j] == "" {
				continue
			}
			if tags[i] == tags[j] {
				return &SemanticError{Kind: ErrGeomTagClash, Detail: "geometry tags must be pairwise distinct"}
			}
		}
	}

	for _, f := range s.Fields {
		for _, tag := range tags {
			if tag == "" {
				continue
			}
			if clashesWithFieldChars(tag, &f) {
				return &SemanticError{Kind: ErrGeomTagClash, Field: f.Name, Detail: "geometry tag clashes with a separator/quote/comment-mark character"}
			}
		}
	}
	for _, mark := range s.CommentMarks {
		for _, tag := range tags {
			if tag == "" || mark == "" {
				continue
			}
			if strings.Contains(tag, mark) || strings.Contains(mark, tag) {
				return &SemanticError{Kind: ErrGeomTagClash, Detail: "geometry tag clashes with a separator/quote/comment-mark character"}
			}
		}
	}
	return nil
}

func clashesWithFieldChars(tag string, f *FieldDesc) bool {
	for _, sep := range f.Separators {
		if sep != "" && (strings.Contains(tag, sep) || strings.Contains(sep, tag)) {
			return true
		}
	}
	if f.HasQuote && strings.ContainsRune(tag, rune(f.Quote)) {
		return true
	}
	return false
}
