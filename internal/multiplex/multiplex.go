// Package multiplex implements the Multiplexer: the state machine that
// assembles validated records into Point/Line/Polygon features under one
// of four tagging modes, plus the cross-store multi-part fusion and
// cross-store uniqueness passes that run immediately after it.
package multiplex

import (
	"github.com/dlpb/survey2gis/internal/diag"
	"github.com/dlpb/survey2gis/internal/geom"
	"github.com/dlpb/survey2gis/internal/schema"
	"github.com/dlpb/survey2gis/internal/store"
)

// LabelMode selects how a feature's label anchor is computed. It is
// independently configurable per geometry kind, mirroring a per-layer
// label-placement choice.
type LabelMode int

const (
	LabelCenter LabelMode = iota
	LabelFirst
	LabelLast
	LabelNone
)

// LabelModes bundles the three per-kind label placement choices.
type LabelModes struct {
	Point, Line, Polygon LabelMode
}

// DefaultLabelModes matches the original's GUI default of centroid
// labeling for every geometry kind.
func DefaultLabelModes() LabelModes {
	return LabelModes{Point: LabelCenter, Line: LabelCenter, Polygon: LabelCenter}
}

// Multiplexer turns the validated record stream from one or more
// DataStores into a geom.Store.
type Multiplexer struct {
	schema *schema.Schema
	sink   *diag.Sink
	labels LabelModes
	force2D bool
}

// Options configures a Multiplexer beyond the schema-driven tag mode.
type Options struct {
	// Force2D drops Z to zero on insertion, mirroring the CLI's --force-2d
	// flag.
	Force2D bool
	Labels  LabelModes
}

// New creates a Multiplexer bound to s. sink receives a warning for each
// record that cannot be placed into a feature and is dropped; uniqueness
// violations are returned by CheckUnique instead.
func New(s *schema.Schema, sink *diag.Sink, opts Options) *Multiplexer {
	labels := opts.Labels
	if labels == (LabelModes{}) {
		labels = DefaultLabelModes()
	}
	return &Multiplexer{schema: s, sink: sink, labels: labels, force2D: opts.Force2D}
}

// Run multiplexes every valid record across stores, in declared traversal
// order (all records of store 0 in line order, then store 1, ...), into a
// freshly created geom.Store. Per-store grouping state (the "open feature"
// of mode min/end, the key map of mode max) resets at each store
// boundary; cross-store merging of same-key features is the job of the
// subsequent Fuse pass, not this one.
func (m *Multiplexer) Run(stores []*store.DataStore, snapTolerance float64) *geom.Store {
	g := geom.New(snapTolerance)
	for _, ds := range stores {
		m.runStore(g, ds)
	}
	return g
}

func (m *Multiplexer) runStore(g *geom.Store, ds *store.DataStore) {
	switch m.schema.TagMode {
	case schema.TagNone:
		m.runNone(g, ds)
	case schema.TagMin:
		m.runMin(g, ds)
	case schema.TagMax:
		m.runMax(g, ds)
	case schema.TagEnd:
		m.runEnd(g, ds)
	}
}

func (m *Multiplexer) attrsFor(rec *store.Record) map[string]any {
	attrs := make(map[string]any, len(m.schema.Fields))
	for i, f := range m.schema.Fields {
		if rec.Content[i] != nil {
			attrs[f.Name] = *rec.Content[i]
		}
	}
	return attrs
}

func vertexOf(rec *store.Record) geom.Vertex {
	v := geom.Vertex{X: rec.X, Y: rec.Y, Z: rec.Z}
	return v
}

func (m *Multiplexer) finishVertex(v geom.Vertex) geom.Vertex {
	if m.force2D {
		v.Z = 0
	}
	return v
}

// runNone implements the `none` mode: every valid record is an independent
// point.
func (m *Multiplexer) runNone(g *geom.Store, ds *store.DataStore) {
	ds.Iterate(func(idx int, rec *store.Record) bool {
		if !rec.IsValid {
			return true
		}
		rec.GeomType = store.GeomPoint
		f := g.AppendPoint(m.finishVertex(vertexOf(rec)), m.attrsFor(rec))
		if rec.HasKey {
			f.SetKey(rec.Key)
		}
		rec.GeomID = f.GeomID
		ds.CountFeature(store.GeomPoint)
		m.applyLabel(f, store.GeomPoint)
		return true
	})
}

// runMin implements the `min` mode: an untagged record extends the
// currently open line/polygon feature; a record tagged line/polygon opens
// a new one, implicitly closing any feature that was already open; a
// record tagged point closes any open feature and emits a standalone
// point; end of stream closes whatever is still open.
func (m *Multiplexer) runMin(g *geom.Store, ds *store.DataStore) {
	var open *geom.Feature
	var openKind store.GeomKind

	closeOpen := func() {
		if open == nil {
			return
		}
		if openKind == store.GeomPolygon {
			g.ClosePolygon(open)
		} else {
			g.CloseLine(open)
		}
		m.applyLabel(open, openKind)
		open = nil
		openKind = store.GeomNone
	}

	ds.Iterate(func(idx int, rec *store.Record) bool {
		if !rec.IsValid {
			return true
		}
		switch rec.Tag {
		case store.GeomLine, store.GeomPolygon:
			closeOpen()
			v := m.finishVertex(vertexOf(rec))
			if rec.Tag == store.GeomPolygon {
				open = g.OpenPolygon(v, m.attrsFor(rec))
			} else {
				open = g.OpenLine(v, m.attrsFor(rec))
			}
			openKind = rec.Tag
			if rec.HasKey {
				open.SetKey(rec.Key)
			}
			rec.GeomType = openKind
			rec.GeomID = open.GeomID
			ds.CountFeature(openKind)
		case store.GeomPoint:
			closeOpen()
			rec.GeomType = store.GeomPoint
			f := g.AppendPoint(m.finishVertex(vertexOf(rec)), m.attrsFor(rec))
			if rec.HasKey {
				f.SetKey(rec.Key)
			}
			rec.GeomID = f.GeomID
			ds.CountFeature(store.GeomPoint)
			m.applyLabel(f, store.GeomPoint)
		default:
			if open == nil {
				m.sink.Warningf("multiplex: line %d has no open feature to extend under tag_mode=min; record dropped", rec.Line)
				return true
			}
			v := m.finishVertex(vertexOf(rec))
			g.AddVertex(open, v)
			rec.GeomType = openKind
			rec.GeomID = open.GeomID
		}
		return true
	})
	closeOpen()
}

// maxEntry tracks one (key, geom-type) accumulator under mode=max.
type maxEntry struct {
	feature *geom.Feature
	kind    store.GeomKind
}

// runMax implements the `max` mode: every record carries an explicit tag;
// the key field groups vertices of the same key and geom-type into one
// feature, scoped to this store (cross-store merging is Fuse's job); a
// point-tagged record is always standalone.
func (m *Multiplexer) runMax(g *geom.Store, ds *store.DataStore) {
	open := map[string]*maxEntry{}

	ds.Iterate(func(idx int, rec *store.Record) bool {
		if !rec.IsValid {
			return true
		}
		if rec.Tag == store.GeomNone {
			m.sink.Warningf("multiplex: line %d carries no recognized geometry tag under tag_mode=max; record dropped", rec.Line)
			return true
		}
		if rec.Tag == store.GeomPoint {
			rec.GeomType = store.GeomPoint
			f := g.AppendPoint(m.finishVertex(vertexOf(rec)), m.attrsFor(rec))
			if rec.HasKey {
				f.SetKey(rec.Key)
			}
			rec.GeomID = f.GeomID
			ds.CountFeature(store.GeomPoint)
			m.applyLabel(f, store.GeomPoint)
			return true
		}

		entryKey := rec.Key + "\x00" + rec.Tag.String()
		entry, ok := open[entryKey]
		if !ok {
			v := m.finishVertex(vertexOf(rec))
			var f *geom.Feature
			if rec.Tag == store.GeomPolygon {
				f = g.OpenPolygon(v, m.attrsFor(rec))
			} else {
				f = g.OpenLine(v, m.attrsFor(rec))
			}
			if rec.HasKey {
				f.SetKey(rec.Key)
			}
			entry = &maxEntry{feature: f, kind: rec.Tag}
			open[entryKey] = entry
			ds.CountFeature(rec.Tag)
		} else {
			g.AddVertex(entry.feature, m.finishVertex(vertexOf(rec)))
		}
		rec.GeomType = entry.kind
		rec.GeomID = entry.feature.GeomID
		return true
	})

	for _, entry := range open {
		if entry.kind == store.GeomPolygon {
			g.ClosePolygon(entry.feature)
		} else {
			g.CloseLine(entry.feature)
		}
		m.applyLabel(entry.feature, entry.kind)
	}
}

// runEnd implements the `end` mode. Both an explicit end-of-feature
// marker and a key change close the accumulating feature: here, a record
// whose tag repeats the geom tag of an already-open feature for its key
// is treated as that feature's closing vertex (the "explicit end" case),
// and a change of key between consecutive records closes whatever was
// open under the previous key (the "key change" case).
func (m *Multiplexer) runEnd(g *geom.Store, ds *store.DataStore) {
	open := map[string]*maxEntry{}
	lastKey := ""
	haveLastKey := false

	closeKey := func(key string) {
		entry, ok := open[key]
		if !ok {
			return
		}
		if entry.kind == store.GeomPolygon {
			g.ClosePolygon(entry.feature)
		} else {
			g.CloseLine(entry.feature)
		}
		m.applyLabel(entry.feature, entry.kind)
		delete(open, key)
	}

	ds.Iterate(func(idx int, rec *store.Record) bool {
		if !rec.IsValid {
			return true
		}
		if !rec.HasKey {
			m.sink.Warningf("multiplex: line %d has no key field value under tag_mode=end; record dropped", rec.Line)
			return true
		}
		if haveLastKey && rec.Key != lastKey {
			closeKey(lastKey)
		}
		lastKey, haveLastKey = rec.Key, true

		if rec.Tag == store.GeomPoint {
			rec.GeomType = store.GeomPoint
			f := g.AppendPoint(m.finishVertex(vertexOf(rec)), m.attrsFor(rec))
			f.SetKey(rec.Key)
			rec.GeomID = f.GeomID
			ds.CountFeature(store.GeomPoint)
			m.applyLabel(f, store.GeomPoint)
			return true
		}

		entry, ok := open[rec.Key]
		switch {
		case !ok && (rec.Tag == store.GeomLine || rec.Tag == store.GeomPolygon):
			v := m.finishVertex(vertexOf(rec))
			var f *geom.Feature
			if rec.Tag == store.GeomPolygon {
				f = g.OpenPolygon(v, m.attrsFor(rec))
			} else {
				f = g.OpenLine(v, m.attrsFor(rec))
			}
			f.SetKey(rec.Key)
			entry = &maxEntry{feature: f, kind: rec.Tag}
			open[rec.Key] = entry
			ds.CountFeature(rec.Tag)
			rec.GeomType = entry.kind
			rec.GeomID = f.GeomID
		case ok && rec.Tag == entry.kind:
			// Explicit end-of-feature marker: this record is the closing
			// vertex for the feature already open under this key.
			g.AddVertex(entry.feature, m.finishVertex(vertexOf(rec)))
			rec.GeomType = entry.kind
			rec.GeomID = entry.feature.GeomID
			closeKey(rec.Key)
		case ok:
			g.AddVertex(entry.feature, m.finishVertex(vertexOf(rec)))
			rec.GeomType = entry.kind
			rec.GeomID = entry.feature.GeomID
		default:
			m.sink.Warningf("multiplex: line %d has no open feature and no geometry tag under tag_mode=end; record dropped", rec.Line)
		}
		return true
	})
	if haveLastKey {
		closeKey(lastKey)
	}
}

func (m *Multiplexer) applyLabel(f *geom.Feature, kind store.GeomKind) {
	var mode LabelMode
	switch kind {
	case store.GeomPoint:
		mode = m.labels.Point
	case store.GeomLine:
		mode = m.labels.Line
	case store.GeomPolygon:
		mode = m.labels.Polygon
	}
	switch mode {
	case LabelCenter:
		f.Label, f.HasLabel = ptr(f.Centroid()), true
	case LabelFirst:
		f.Label, f.HasLabel = ptr(f.FirstVertex()), true
	case LabelLast:
		f.Label, f.HasLabel = ptr(f.LastVertex()), true
	case LabelNone:
		f.Label, f.HasLabel = nil, false
	}
}

func ptr(a geom.Anchor) *geom.Anchor {
	return &a
}
