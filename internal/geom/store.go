package geom

import (
	"github.com/dhconnelly/rtreego"
	spatial "github.com/go-spatial/geom"

	"github.com/dlpb/survey2gis/internal/store"
)

// boundsEpsilon pads zero-area point bounds so rtreego accepts them, the
// same trick pkg/s57/s57.go uses for zero-area point features.
const boundsEpsilon = 0.0001

// Store is the concrete GeometryStore. It owns every feature plus any
// vertices recorded through AppendRawVertex that never joined a feature.
type Store struct {
	Points, Lines, Polygons []*Feature

	RawVertices []Vertex

	// SnapTolerance is stored but not acted on by any algorithm in this
	// module; spatial snapping/dangling-node cleanup stays out of scope
	// at the algorithm level.
	SnapTolerance float64

	extent    spatial.Extent
	hasExtent bool

	index *rtreego.Rtree

	nextGeomID int
}

// New creates an empty Store.
func New(snapTolerance float64) *Store {
	return &Store{SnapTolerance: snapTolerance}
}

func (s *Store) allocGeomID() int {
	s.nextGeomID++
	return s.nextGeomID
}

// AppendPoint adds a standalone point feature and returns it.
func (s *Store) AppendPoint(v Vertex, attrs map[string]any) *Feature {
	f := &Feature{
		GeomID:    s.allocGeomID(),
		PartCount: 1,
		Kind:      store.GeomPoint,
		Parts:     []Part{{v}},
		attrs:     newAttrRow(attrs),
	}
	s.Points = append(s.Points, f)
	s.extendBounds(v)
	s.index = nil
	return f
}

// OpenLine starts a new line feature with a single vertex and returns it;
// AddVertex/CloseLine continue and finish it.
func (s *Store) OpenLine(v Vertex, attrs map[string]any) *Feature {
	f := &Feature{
		GeomID:    s.allocGeomID(),
		PartCount: 1,
		Kind:      store.GeomLine,
		Parts:     []Part{{v}},
		attrs:     newAttrRow(attrs),
	}
	s.Lines = append(s.Lines, f)
	s.extendBounds(v)
	s.index = nil
	return f
}

// OpenPolygon is OpenLine's polygon counterpart.
func (s *Store) OpenPolygon(v Vertex, attrs map[string]any) *Feature {
	f := &Feature{
		GeomID:    s.allocGeomID(),
		PartCount: 1,
		Kind:      store.GeomPolygon,
		Parts:     []Part{{v}},
		attrs:     newAttrRow(attrs),
	}
	s.Polygons = append(s.Polygons, f)
	s.extendBounds(v)
	s.index = nil
	return f
}

// AddVertex appends v to the last part of f (line or polygon).
func (s *Store) AddVertex(f *Feature, v Vertex) {
	last := len(f.Parts) - 1
	f.Parts[last] = append(f.Parts[last], v)
	s.extendBounds(v)
	s.index = nil
}

// CloseLine finalizes a line feature. It is a no-op beyond invalidating
// the spatial index, kept distinct from AddVertex to mirror OpenLine's
// symmetry and to give future validation (e.g. minimum vertex count) a
// home.
func (s *Store) CloseLine(f *Feature) {
	s.index = nil
}

// ClosePolygon closes the ring of the last part if it isn't already
// closed (first vertex == last vertex).
func (s *Store) ClosePolygon(f *Feature) {
	last := len(f.Parts) - 1
	part := f.Parts[last]
	if len(part) > 1 && part[0] != part[len(part)-1] {
		f.Parts[last] = append(part, part[0])
	}
	s.index = nil
}

// AppendRawVertex records a vertex that never joined a feature. The
// Multiplexer does not call it: records it cannot place into a feature are
// dropped with a warning.
func (s *Store) AppendRawVertex(v Vertex) {
	s.RawVertices = append(s.RawVertices, v)
}

// SetLabel assigns a label anchor to a feature.
func (s *Store) SetLabel(f *Feature, a Anchor) {
	anchor := a
	f.Label = &anchor
	f.HasLabel = true
}

// ClearLabel suppresses a feature's label (anchor mode `none`).
func (s *Store) ClearLabel(f *Feature) {
	f.Label = nil
	f.HasLabel = false
}

func (s *Store) extendBounds(v Vertex) {
	if !s.hasExtent {
		s.extent = spatial.Extent{v.X, v.Y, v.X, v.Y}
		s.hasExtent = true
		return
	}
	if v.X < s.extent[0] {
		s.extent[0] = v.X
	}
	if v.Y < s.extent[1] {
		s.extent[1] = v.Y
	}
	if v.X > s.extent[2] {
		s.extent[2] = v.X
	}
	if v.Y > s.extent[3] {
		s.extent[3] = v.Y
	}
}

// Extent returns the current bounding box. Valid only after at least one
// vertex has been appended.
func (s *Store) Extent() spatial.Extent {
	return s.extent
}

// RecomputeExtent rebuilds the bounding box from scratch, used by the
// reprojection driver after transforming every coordinate in place, since
// the incremental extendBounds tracking no longer reflects post-transform
// coordinates.
func (s *Store) RecomputeExtent() {
	s.hasExtent = false
	s.Iterate(func(f *Feature) bool {
		for _, part := range f.Parts {
			for _, v := range part {
				s.extendBounds(v)
			}
		}
		return true
	})
	s.index = nil
}

// Iterate visits every feature (points, then lines, then polygons) in
// insertion order, stopping early if fn returns false.
func (s *Store) Iterate(fn func(f *Feature) bool) {
	for _, group := range [][]*Feature{s.Points, s.Lines, s.Polygons} {
		for _, f := range group {
			if !fn(f) {
				return
			}
		}
	}
}

// EnsureIndex (re)builds the lazy rtreego index over every feature's
// bounding box. It is an acceleration structure only: FeaturesInBounds
// falls back to a linear scan when the index hasn't been built, so no
// caller's correctness depends on calling this; spatial indexing is never
// a user-facing feature on its own.
func (s *Store) EnsureIndex() {
	if s.index != nil {
		return
	}
	tree := rtreego.NewTree(2, 25, 50)
	s.Iterate(func(f *Feature) bool {
		tree.Insert(&indexedFeature{feature: f, bounds: featureBounds(f)})
		return true
	})
	s.index = tree
}

// FeaturesInBounds returns every feature whose bounding box intersects
// the query box.
func (s *Store) FeaturesInBounds(minX, minY, maxX, maxY float64) []*Feature {
	if s.index == nil {
		return s.featuresInBoundsLinear(minX, minY, maxX, maxY)
	}
	point := rtreego.Point{minX, minY}
	lengths := []float64{maxX - minX, maxY - minY}
	rect, err := rtreego.NewRect(point, lengths)
	if err != nil {
		return s.featuresInBoundsLinear(minX, minY, maxX, maxY)
	}
	hits := s.index.SearchIntersect(rect)
	out := make([]*Feature, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.(*indexedFeature).feature)
	}
	return out
}

func (s *Store) featuresInBoundsLinear(minX, minY, maxX, maxY float64) []*Feature {
	var out []*Feature
	s.Iterate(func(f *Feature) bool {
		b := featureBounds(f)
		if b.maxX < minX || b.minX > maxX || b.maxY < minY || b.minY > maxY {
			return true
		}
		out = append(out, f)
		return true
	})
	return out
}

type bbox struct {
	minX, minY, maxX, maxY float64
}

func featureBounds(f *Feature) bbox {
	var b bbox
	first := true
	for _, part := range f.Parts {
		for _, v := range part {
			if first {
				b = bbox{v.X, v.Y, v.X, v.Y}
				first = false
				continue
			}
			if v.X < b.minX {
				b.minX = v.X
			}
			if v.Y < b.minY {
				b.minY = v.Y
			}
			if v.X > b.maxX {
				b.maxX = v.X
			}
			if v.Y > b.maxY {
				b.maxY = v.Y
			}
		}
	}
	return b
}

// indexedFeature wraps a Feature for rtreego storage (grounded on
// pkg/s57/s57.go's identically-named helper).
type indexedFeature struct {
	feature *Feature
	bounds  bbox
}

func (f *indexedFeature) Bounds() rtreego.Rect {
	lonLength := f.bounds.maxX - f.bounds.minX
	latLength := f.bounds.maxY - f.bounds.minY
	if lonLength < boundsEpsilon {
		lonLength = boundsEpsilon
	}
	if latLength < boundsEpsilon {
		latLength = boundsEpsilon
	}
	point := rtreego.Point{f.bounds.minX, f.bounds.minY}
	rect, _ := rtreego.NewRect(point, []float64{lonLength, latLength})
	return rect
}
