package multiplex

import (
	"strconv"

	"github.com/dlpb/survey2gis/internal/geom"
	"github.com/dlpb/survey2gis/internal/schema"
	"github.com/dlpb/survey2gis/internal/store"
)

// Fuse merges features sharing a key field value and the same non-point
// geom-type into one multi-part feature. It is a no-op unless the schema
// declares key_unique=true and a key field. The pass is O(N) across
// features of one geom-type: one map lookup per feature.
func Fuse(g *geom.Store, s *schema.Schema) {
	if !s.KeyUnique || !s.HasKeyField() {
		return
	}
	g.Lines = fuseGroup(g.Lines)
	g.Polygons = fuseGroup(g.Polygons)
}

// fuseGroup merges every feature in feats that shares a Key with an
// earlier feature in the slice into that earlier feature, appending its
// parts and retaining the earlier feature's geom-id; it returns the
// surviving (primary) features in first-seen order.
func fuseGroup(feats []*geom.Feature) []*geom.Feature {
	primary := map[string]*geom.Feature{}
	var out []*geom.Feature
	for _, f := range feats {
		if !f.HasKey || f.Key == "" {
			out = append(out, f)
			continue
		}
		if p, ok := primary[f.Key]; ok {
			for _, part := range f.Parts {
				p.AddPart(part)
			}
			continue
		}
		primary[f.Key] = f
		out = append(out, f)
	}
	return out
}

// UniqueViolationPair names the two colliding records a uniqueness check
// reports.
type UniqueViolationPair struct {
	Field   string
	Value   string
	LineA   int
	LineB   int
	GeomIDA int
	GeomIDB int
}

// CheckUnique scans every field declared unique=true across every store
// and reports, for each pair of records whose content matches on that
// field but whose geom-ids differ, one Warning. It does not mutate the
// stores; the caller decides whether to abort or continue, since this is
// always a non-fatal warning.
func CheckUnique(s *schema.Schema, stores []*store.DataStore) []*Warning {
	var warnings []*Warning
	for _, f := range s.Fields {
		if !f.Unique {
			continue
		}
		warnings = append(warnings, checkUniqueField(f.Name, s, stores)...)
	}
	return warnings
}

func checkUniqueField(field string, s *schema.Schema, stores []*store.DataStore) []*Warning {
	idx := s.FieldIndex(field)
	if idx < 0 {
		return nil
	}
	type seen struct {
		line, geomID int
	}
	byValue := map[string][]seen{}
	var warnings []*Warning

	for _, ds := range stores {
		ds.Iterate(func(_ int, rec *store.Record) bool {
			if !rec.IsValid || rec.Content[idx] == nil {
				return true
			}
			val := *rec.Content[idx]
			for _, prior := range byValue[val] {
				if prior.geomID != rec.GeomID {
					warnings = append(warnings, &Warning{
						Kind: UniqueViolation,
						Detail: uniqueDetail(field, val, prior.line, rec.Line, prior.geomID, rec.GeomID),
					})
				}
			}
			byValue[val] = append(byValue[val], seen{line: rec.Line, geomID: rec.GeomID})
			return true
		})
	}
	return warnings
}

func uniqueDetail(field, value string, lineA, lineB, geomA, geomB int) string {
	return field + "=" + value + " at lines " + strconv.Itoa(lineA) + " (geom " + strconv.Itoa(geomA) +
		") and " + strconv.Itoa(lineB) + " (geom " + strconv.Itoa(geomB) + ")"
}
