// Package validate implements the RecordValidator: the seven-step check
// run against every just-read record before it is handed to the
// Multiplexer.
package validate

import (
	"strconv"
	"strings"

	"github.com/dlpb/survey2gis/internal/reader"
	"github.com/dlpb/survey2gis/internal/schema"
	"github.com/dlpb/survey2gis/internal/store"
)

// NumericFormat names the decimal-point and thousands-grouping characters
// RecordValidator strips before parsing a numeric field, supporting
// locale-configurable numeric parsing. The zero value is not valid; use
// DefaultNumericFormat.
type NumericFormat struct {
	Decimal  byte
	Grouping byte // 0 means "no grouping character configured"
}

// DefaultNumericFormat is the default locale: '.' as the decimal point,
// no grouping character.
func DefaultNumericFormat() NumericFormat {
	return NumericFormat{Decimal: '.'}
}

// Validator runs the RecordValidator steps against records read under one
// schema, with a fixed coordinate offset and numeric format.
type Validator struct {
	schema           *schema.Schema
	format           NumericFormat
	offX, offY, offZ float64
}

// New creates a Validator. offX/offY/offZ are the global coordinate
// offsets added to every parsed X/Y/Z.
func New(s *schema.Schema, format NumericFormat, offX, offY, offZ float64) *Validator {
	return &Validator{schema: s, format: format, offX: offX, offY: offY, offZ: offZ}
}

// Validate runs every step against tup, producing rec in place. On
// success rec.IsValid is true. On failure Validate returns the first
// violated *RecordError and rec.IsValid is false; the caller reports the
// error as a warning and skips the record.
func (v *Validator) Validate(rec *store.Record, tup *reader.Tuple) error {
	rec.Content = tup.Content
	rec.Skip = tup.Skip
	rec.Parsed = tup.Parsed

	if err := v.checkFieldCount(rec); err != nil {
		return err
	}
	if v.schema.TagMode == schema.TagMin {
		if err := v.checkReducedShape(rec); err != nil {
			return err
		}
	}
	if err := v.checkNonEmpty(rec); err != nil {
		return err
	}
	if err := v.extractCoordinates(rec); err != nil {
		return err
	}
	if err := v.coerceTypes(rec); err != nil {
		return err
	}
	v.recognizeTag(rec)
	v.linkKey(rec)

	rec.IsValid = true
	return nil
}

// tokenCount counts field positions the tokenizer actually reached, not
// non-nil Content: an empty_allowed field that tokenized to "" still
// occupies a position and must count toward the field total.
func tokenCount(rec *store.Record) int {
	n := 0
	for _, p := range rec.Parsed {
		if p {
			n++
		}
	}
	return n
}

// checkFieldCount verifies the token count matches the declared field
// count (or, under mode=min, the reduced count).
func (v *Validator) checkFieldCount(rec *store.Record) error {
	n := tokenCount(rec)
	full := len(v.schema.Fields)
	if v.schema.TagMode == schema.TagMin {
		reduced := v.schema.ReducedFieldCount()
		if n != full && n != reduced {
			return &RecordError{Kind: RecordShape, Line: rec.Line, Detail: "token count matches neither the full nor the reduced field count"}
		}
		return nil
	}
	if n != full {
		return &RecordError{Kind: RecordShape, Line: rec.Line, Detail: "token count does not match the declared field count"}
	}
	return nil
}

// checkReducedShape checks that, under mode=min, a record that actually
// came through the reduced-record pass has content set exactly on
// coordinate/persistent fields and nil everywhere else.
func (v *Validator) checkReducedShape(rec *store.Record) error {
	if tokenCount(rec) != v.schema.ReducedFieldCount() {
		return nil // this is a full-shaped record, not a reduced one
	}
	for i, f := range v.schema.Fields {
		reducedField := f.IsPseudo() || f.Persistent ||
			f.Name == v.schema.CoorX || f.Name == v.schema.CoorY ||
			(v.schema.HasZ() && f.Name == v.schema.CoorZ)
		if reducedField {
			if !rec.Parsed[i] && !f.IsPseudo() {
				return &RecordError{Kind: RecordShape, Line: rec.Line, Field: f.Name, Detail: "reduced record missing a coordinate/persistent field"}
			}
		} else if rec.Parsed[i] {
			return &RecordError{Kind: RecordShape, Line: rec.Line, Field: f.Name, Detail: "reduced record unexpectedly populated a non-persistent field"}
		}
	}
	return nil
}

// checkNonEmpty rejects a record with nil content on a required field.
func (v *Validator) checkNonEmpty(rec *store.Record) error {
	for i, f := range v.schema.Fields {
		if rec.Skip[i] || f.EmptyAllowed || f.IsPseudo() {
			continue
		}
		if rec.Content[i] == nil {
			return &RecordError{Kind: RecordEmpty, Line: rec.Line, Field: f.Name, Detail: "field requires non-empty content"}
		}
	}
	return nil
}

// stripFormat removes grouping characters and normalizes the configured
// decimal point to '.' so strconv can parse it.
func (v *Validator) stripFormat(s string) string {
	if v.format.Grouping != 0 {
		s = strings.ReplaceAll(s, string(v.format.Grouping), "")
	}
	if v.format.Decimal != 0 && v.format.Decimal != '.' {
		s = strings.ReplaceAll(s, string(v.format.Decimal), ".")
	}
	return s
}

// extractCoordinates parses and offsets the X/Y/Z coordinate fields.
func (v *Validator) extractCoordinates(rec *store.Record) error {
	x, err := v.parseCoord(rec, v.schema.CoorX)
	if err != nil {
		return err
	}
	rec.X = x + v.offX

	y, err := v.parseCoord(rec, v.schema.CoorY)
	if err != nil {
		return err
	}
	rec.Y = y + v.offY

	if v.schema.HasZ() {
		z, err := v.parseCoord(rec, v.schema.CoorZ)
		if err != nil {
			return err
		}
		rec.Z = z + v.offZ
	}
	return nil
}

func (v *Validator) parseCoord(rec *store.Record, fieldName string) (float64, error) {
	idx := v.schema.FieldIndex(fieldName)
	if idx < 0 || rec.Content[idx] == nil {
		return 0, &RecordError{Kind: CoordBad, Line: rec.Line, Field: fieldName, Detail: "coordinate field missing content"}
	}
	raw := v.stripFormat(*rec.Content[idx])
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, &RecordError{Kind: CoordOverflow, Line: rec.Line, Field: fieldName, Detail: raw}
		}
		return 0, &RecordError{Kind: CoordBad, Line: rec.Line, Field: fieldName, Detail: raw}
	}
	return f, nil
}

// coerceTypes parses every int/double field's raw content, flagging any
// value equal to the schema's no_data sentinel.
func (v *Validator) coerceTypes(rec *store.Record) error {
	for i, f := range v.schema.Fields {
		if rec.Skip[i] || f.IsPseudo() || rec.Content[i] == nil {
			continue
		}
		raw := *rec.Content[i]
		switch f.Type {
		case schema.Text:
			continue
		case schema.Int:
			n, err := strconv.Atoi(v.stripFormat(raw))
			if err != nil {
				if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
					return &RecordError{Kind: FieldOverflow, Line: rec.Line, Field: f.Name, Detail: raw}
				}
				return &RecordError{Kind: FieldType, Line: rec.Line, Field: f.Name, Detail: raw}
			}
			if n == v.schema.NoData {
				v.markNoData(rec, f.Name)
			}
		case schema.Double:
			d, err := strconv.ParseFloat(v.stripFormat(raw), 64)
			if err != nil {
				if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
					return &RecordError{Kind: FieldOverflow, Line: rec.Line, Field: f.Name, Detail: raw}
				}
				return &RecordError{Kind: FieldType, Line: rec.Line, Field: f.Name, Detail: raw}
			}
			if d == float64(v.schema.NoData) {
				v.markNoData(rec, f.Name)
			}
		}
	}
	return nil
}

func (v *Validator) markNoData(rec *store.Record, field string) {
	if rec.NoData == nil {
		rec.NoData = map[string]bool{}
	}
	rec.NoData[field] = true
}

// recognizeTag matches the tag field's content against the configured
// geometry-tag substrings, in point/line/polygon precedence order.
func (v *Validator) recognizeTag(rec *store.Record) {
	if !v.schema.HasTagField() {
		return
	}
	idx := v.schema.FieldIndex(v.schema.TagField)
	if idx < 0 || rec.Content[idx] == nil {
		return
	}
	content := *rec.Content[idx]
	switch {
	case v.schema.GeomTagPoint != "" && strings.Contains(content, v.schema.GeomTagPoint):
		rec.Tag = store.GeomPoint
	case v.schema.GeomTagLine != "" && strings.Contains(content, v.schema.GeomTagLine):
		rec.Tag = store.GeomLine
	case v.schema.GeomTagPoly != "" && strings.Contains(content, v.schema.GeomTagPoly):
		rec.Tag = store.GeomPolygon
	}
}

// linkKey copies the key field's content onto the record, if declared.
func (v *Validator) linkKey(rec *store.Record) {
	if !v.schema.HasKeyField() {
		return
	}
	idx := v.schema.FieldIndex(v.schema.KeyField)
	if idx < 0 || rec.Content[idx] == nil {
		return
	}
	rec.Key = *rec.Content[idx]
	rec.HasKey = true
}
