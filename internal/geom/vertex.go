// Package geom implements the concrete geometry store: appendable
// point/line/polygon feature arrays, parallel attribute rows, label
// anchors, and a bounding-box/spatial-index acceleration structure.
package geom

// Vertex is one (X, Y, Z) coordinate triple. Z is 0 for 2D input.
type Vertex struct {
	X, Y, Z float64
}

// Part is an ordered sequence of vertices: one ring for a polygon, one
// polyline for a line, or a single-vertex slice for a point.
type Part []Vertex

// Anchor is a label position, independent of the feature's own vertices.
type Anchor struct {
	X, Y float64
}
