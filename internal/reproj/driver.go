// Package reproj implements the reprojection driver: SRS shorthand/EPSG/raw
// resolution, the none/error/reproject decision table, and the coordinate
// transform pass over a finished geom.Store.
package reproj

import (
	"path/filepath"

	"github.com/dlpb/survey2gis/internal/geom"
)

// Action is the decision the input/output CRS pair resolves to.
type Action int

const (
	ActionNone Action = iota
	ActionReproject
	ActionError
)

// Config is every reprojection-related CLI option.
type Config struct {
	ProjIn, ProjOut string
	Dx, Dy, Dz      float64
	Rx, Ry, Rz, Ds  float64
	HasUserHelmert  bool
	Grid            string
}

// Driver resolves CRS options once before reading and rewrites every
// coordinate in a geom.Store afterward.
type Driver struct {
	in, out *CRS
	action  Action
}

// New resolves cfg's input/output CRS specs and decides the action,
// returning a *ConfigError for the combinations that are an error
// outright (an output CRS with no input CRS, or a local input paired with
// a non-local output) and for any CRS string that fails to resolve.
func New(cfg Config, sink interface{ Notef(string, ...any) }) (*Driver, error) {
	in, err := Resolve(cfg.ProjIn)
	if err != nil {
		return nil, err
	}
	out, err := Resolve(cfg.ProjOut)
	if err != nil {
		return nil, err
	}

	if cfg.Grid != "" {
		abs, err := filepath.Abs(cfg.Grid)
		if err != nil {
			return nil, &ConfigError{Detail: "cannot resolve grid path: " + err.Error()}
		}
		cfg.Grid = abs
	}
	if out != nil && cfg.Grid != "" {
		out.ApplyUserGrid(cfg.Grid)
		if sink != nil {
			sink.Notef("reproj: user-supplied grid %q overrides any embedded grid", cfg.Grid)
		}
	}
	if out != nil && cfg.HasUserHelmert {
		out.ApplyUserHelmert(cfg.Dx, cfg.Dy, cfg.Dz, cfg.Rx, cfg.Ry, cfg.Rz, cfg.Ds)
		if sink != nil {
			sink.Notef("reproj: user-supplied Helmert parameters override any embedded transform")
		}
	}

	d := &Driver{in: in, out: out}
	d.action = decide(in, out, sink)
	if d.action == ActionError {
		return nil, &ConfigError{Detail: "input CRS required once an output CRS is set, or local input paired with a non-local output"}
	}
	return d, nil
}

// decide resolves the none/error/reproject action for an input/output
// CRS pair.
func decide(in, out *CRS, sink interface{ Notef(string, ...any) }) Action {
	switch {
	case in == nil && out == nil:
		return ActionNone
	case in != nil && out == nil:
		if sink != nil {
			sink.Notef("reproj: input CRS set with no output CRS; coordinates are not reprojected")
		}
		return ActionNone
	case in == nil && out != nil:
		return ActionError
	case in.Kind == KindLocal && out.Kind == KindLocal:
		return ActionNone
	case in.Kind == KindLocal && out.Kind != KindLocal:
		return ActionError
	case in.Equal(out):
		if sink != nil {
			sink.Notef("reproj: input and output CRS are the same; coordinates are not reprojected")
		}
		return ActionNone
	default:
		return ActionReproject
	}
}

// Action reports the resolved decision.
func (d *Driver) Action() Action {
	return d.action
}

// Transform rewrites every coordinate in g — point/line/polygon vertices,
// raw vertices, and label anchors — then recomputes the store's extent.
// It is a no-op when Action() is not ActionReproject.
func (d *Driver) Transform(g *geom.Store) error {
	if d.action != ActionReproject {
		return nil
	}

	datumShift := d.in.HasWGS84Tie() && d.out.HasWGS84Tie() && (d.in.HasHelmert || d.out.HasHelmert)

	transform := func(x, y float64) (float64, float64, error) {
		lat, lon, err := toGeographicRad(d.in, x, y)
		if err != nil {
			return 0, 0, err
		}
		if datumShift {
			gx, gy, gz := geodeticToGeocentric(lat, lon)
			if d.in.HasHelmert {
				gx, gy, gz = helmertGeocentric(gx, gy, gz, -d.in.Dx, -d.in.Dy, -d.in.Dz, -d.in.Rx, -d.in.Ry, -d.in.Rz, -d.in.Ds)
			}
			if d.out.HasHelmert {
				gx, gy, gz = helmertGeocentric(gx, gy, gz, d.out.Dx, d.out.Dy, d.out.Dz, d.out.Rx, d.out.Ry, d.out.Rz, d.out.Ds)
			}
			lat, lon = geocentricToGeodetic(gx, gy, gz)
		}
		nx, ny, err := fromGeographicRad(d.out, lat, lon)
		if err != nil {
			return 0, 0, err
		}
		return nx, ny, nil
	}

	var featIdx int
	var txErr error
	g.Iterate(func(f *geom.Feature) bool {
		for partIdx, part := range f.Parts {
			for i, v := range part {
				nx, ny, err := transform(v.X, v.Y)
				if err != nil {
					txErr = &RuntimeError{FeatureIndex: featIdx, Part: partIdx, Detail: err.Error()}
					return false
				}
				part[i].X, part[i].Y = nx, ny
			}
		}
		if f.HasLabel && f.Label != nil {
			nx, ny, err := transform(f.Label.X, f.Label.Y)
			if err != nil {
				txErr = &RuntimeError{FeatureIndex: featIdx, Detail: "label anchor: " + err.Error()}
				return false
			}
			f.Label.X, f.Label.Y = nx, ny
		}
		featIdx++
		return true
	})
	if txErr != nil {
		return txErr
	}

	for i, v := range g.RawVertices {
		nx, ny, err := transform(v.X, v.Y)
		if err != nil {
			return &RuntimeError{FeatureIndex: -1, Part: i, Detail: "raw vertex: " + err.Error()}
		}
		g.RawVertices[i].X, g.RawVertices[i].Y = nx, ny
	}

	g.RecomputeExtent()
	return nil
}
