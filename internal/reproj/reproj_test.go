package reproj

import (
	"math"
	"testing"

	"github.com/dlpb/survey2gis/internal/geom"
)

func TestDecideNoneWhenNeitherCRSSet(t *testing.T) {
	d, err := New(Config{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Action() != ActionNone {
		t.Fatalf("Action = %v, want ActionNone", d.Action())
	}
}

func TestDecideErrorWhenOutputSetWithoutInput(t *testing.T) {
	_, err := New(Config{ProjOut: "wgs84"}, nil)
	if err == nil {
		t.Fatalf("expected ConfigError, got nil")
	}
	if _, ok := err.(*ConfigError); !ok {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
}

func TestDecideNoneWhenInputSetWithoutOutput(t *testing.T) {
	d, err := New(Config{ProjIn: "wgs84"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Action() != ActionNone {
		t.Fatalf("Action = %v, want ActionNone", d.Action())
	}
}

func TestDecideErrorWhenLocalInputPairedWithNonLocalOutput(t *testing.T) {
	_, err := New(Config{ProjIn: "local", ProjOut: "wgs84"}, nil)
	if err == nil {
		t.Fatalf("expected ConfigError, got nil")
	}
}

func TestDecideNoneWhenBothLocal(t *testing.T) {
	d, err := New(Config{ProjIn: "local", ProjOut: "local"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Action() != ActionNone {
		t.Fatalf("Action = %v, want ActionNone", d.Action())
	}
}

// TestDecideNoneWhenInputOutputSameEPSG checks an input and output that
// both resolve to EPSG:32632 (one named by shorthand, one by raw EPSG
// code) decide None, not Reproject.
func TestDecideNoneWhenInputOutputSameEPSG(t *testing.T) {
	d, err := New(Config{ProjIn: "utm32n", ProjOut: "epsg:32632"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Action() != ActionNone {
		t.Fatalf("Action = %v, want ActionNone", d.Action())
	}
}

func TestDecideReprojectWhenDifferentCRS(t *testing.T) {
	d, err := New(Config{ProjIn: "utm32n", ProjOut: "wgs84"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Action() != ActionReproject {
		t.Fatalf("Action = %v, want ActionReproject", d.Action())
	}
}

func TestTransformIsNoopWhenActionNotReproject(t *testing.T) {
	d, err := New(Config{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g := geom.New(0)
	f := g.AppendPoint(geom.Vertex{X: 500000, Y: 4649776}, nil)
	if err := d.Transform(g); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if f.Parts[0][0].X != 500000 || f.Parts[0][0].Y != 4649776 {
		t.Fatalf("no-op Transform mutated coordinates: %+v", f.Parts[0][0])
	}
}

// TestTransformUTMToWGS84RoundTrip exercises the transform pass end to
// end: a UTM32N point known to sit near 9 deg E/42 deg N converts to
// geographic, then back, landing within a tight tolerance of the original.
func TestTransformUTMToWGS84RoundTrip(t *testing.T) {
	fwd, err := New(Config{ProjIn: "utm32n", ProjOut: "wgs84"}, nil)
	if err != nil {
		t.Fatalf("New forward: %v", err)
	}
	g := geom.New(0)
	orig := geom.Vertex{X: 500000, Y: 4649776}
	f := g.AppendPoint(orig, nil)
	g.SetLabel(f, geom.Anchor{X: orig.X, Y: orig.Y})

	if err := fwd.Transform(g); err != nil {
		t.Fatalf("Transform forward: %v", err)
	}
	lon, lat := f.Parts[0][0].X, f.Parts[0][0].Y
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		t.Fatalf("forward transform produced non-geographic coordinates: lon=%v lat=%v", lon, lat)
	}
	if f.Label.X != lon || f.Label.Y != lat {
		t.Fatalf("label anchor not transformed alongside feature: anchor=%+v vertex=(%v,%v)", f.Label, lon, lat)
	}

	back, err := New(Config{ProjIn: "wgs84", ProjOut: "utm32n"}, nil)
	if err != nil {
		t.Fatalf("New back: %v", err)
	}
	if err := back.Transform(g); err != nil {
		t.Fatalf("Transform back: %v", err)
	}
	dx := math.Abs(f.Parts[0][0].X - orig.X)
	dy := math.Abs(f.Parts[0][0].Y - orig.Y)
	if dx > 0.01 || dy > 0.01 {
		t.Fatalf("round trip drifted: got (%v,%v), want close to (%v,%v)", f.Parts[0][0].X, f.Parts[0][0].Y, orig.X, orig.Y)
	}
	if dx := math.Abs(f.Label.X - orig.X); dx > 0.01 {
		t.Fatalf("label anchor round trip drifted: %v", dx)
	}
}

func TestTransformRecomputesExtent(t *testing.T) {
	d, err := New(Config{ProjIn: "utm32n", ProjOut: "wgs84"}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g := geom.New(0)
	g.AppendPoint(geom.Vertex{X: 500000, Y: 4649776}, nil)
	g.AppendPoint(geom.Vertex{X: 600000, Y: 4749776}, nil)

	if err := d.Transform(g); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	ext := g.Extent()
	if ext[0] < -180 || ext[0] > 180 || ext[1] < -90 || ext[1] > 90 {
		t.Fatalf("extent not recomputed in geographic range: %+v", ext)
	}
}

func TestResolveRejectsUnknownSpec(t *testing.T) {
	_, err := Resolve("not-a-crs")
	if err == nil {
		t.Fatalf("expected ConfigError for unrecognized spec")
	}
}

func TestResolveRawProj4Definition(t *testing.T) {
	c, err := Resolve("+proj=utm +zone=33 +south +ellps=WGS84")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if c.Kind != KindUTM || c.Zone != 33 || !c.South {
		t.Fatalf("unexpected CRS: %+v", c)
	}
}
