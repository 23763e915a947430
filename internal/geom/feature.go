package geom

import (
	spatial "github.com/go-spatial/geom"

	"github.com/dlpb/survey2gis/internal/store"
)

// Feature is one point/line/polygon produced by multiplexing. A fused
// multi-part feature is one Feature whose Parts holds every part, in
// part-id order.
type Feature struct {
	GeomID    int
	PartCount int
	Kind      store.GeomKind

	Parts []Part

	// Key is the value of the schema's key field that produced this
	// feature, if any. Empty when no key field is declared or the record
	// that produced the feature carried no key value.
	Key    string
	HasKey bool

	attrs *attrRow

	IsSelected bool
	Label      *Anchor
	HasLabel   bool
}

// SetKey records the schema key-field value that produced this feature.
func (f *Feature) SetKey(key string) {
	f.Key = key
	f.HasKey = true
}

// AddPart appends a new part (e.g. from a fused sibling feature) and
// increments PartCount, assigning it the next PartID in sequence.
func (f *Feature) AddPart(p Part) {
	f.Parts = append(f.Parts, p)
	f.PartCount = len(f.Parts)
}

// Attribute returns the named attribute value.
func (f *Feature) Attribute(name string) (any, bool) {
	if f.attrs == nil {
		return nil, false
	}
	return f.attrs.Get(name)
}

// SetAttribute stores an attribute value on the feature's row.
func (f *Feature) SetAttribute(name string, value any) {
	if f.attrs == nil {
		f.attrs = newAttrRow(nil)
	}
	f.attrs.Set(name, value)
}

// ShareAttributes makes f and other reference the same attribute row,
// retaining it, so fusing two parts into one logical feature does not
// require copying attribute data.
func (f *Feature) ShareAttributes(other *Feature) {
	if other.attrs == nil {
		other.attrs = newAttrRow(nil)
	}
	f.attrs = other.attrs.retain()
}

// Geom2D converts the feature's vertex parts to the corresponding
// go-spatial/geom value, dropping Z. Reprojection and selection operate
// on the 3D Parts directly; Geom2D exists for bounding-box computation
// and for handing finished geometry to a writer.
func (f *Feature) Geom2D() any {
	switch f.Kind {
	case store.GeomPoint:
		if len(f.Parts) == 0 || len(f.Parts[0]) == 0 {
			return spatial.Point{}
		}
		v := f.Parts[0][0]
		return spatial.Point{v.X, v.Y}
	case store.GeomLine:
		mls := make(spatial.MultiLineString, len(f.Parts))
		for i, p := range f.Parts {
			mls[i] = partToLineString(p)
		}
		return mls
	case store.GeomPolygon:
		mp := make(spatial.MultiPolygon, len(f.Parts))
		for i, p := range f.Parts {
			mp[i] = spatial.Polygon{partToLineString(p)}
		}
		return mp
	default:
		return nil
	}
}

func partToLineString(p Part) spatial.LineString {
	ls := make(spatial.LineString, len(p))
	for i, v := range p {
		ls[i] = spatial.Point{v.X, v.Y}
	}
	return ls
}

// Centroid computes the feature's geometric center, used by label anchor
// mode `center`: the geometric mean of vertices for points/multi-vertex
// features, which for a single point is the point itself.
func (f *Feature) Centroid() Anchor {
	var sumX, sumY float64
	n := 0
	for _, part := range f.Parts {
		for _, v := range part {
			sumX += v.X
			sumY += v.Y
			n++
		}
	}
	if n == 0 {
		return Anchor{}
	}
	return Anchor{X: sumX / float64(n), Y: sumY / float64(n)}
}

// FirstVertex and LastVertex back label anchor modes `first`/`last`.
func (f *Feature) FirstVertex() Anchor {
	for _, part := range f.Parts {
		if len(part) > 0 {
			return Anchor{X: part[0].X, Y: part[0].Y}
		}
	}
	return Anchor{}
}

func (f *Feature) LastVertex() Anchor {
	for i := len(f.Parts) - 1; i >= 0; i-- {
		part := f.Parts[i]
		if len(part) > 0 {
			v := part[len(part)-1]
			return Anchor{X: v.X, Y: v.Y}
		}
	}
	return Anchor{}
}
