package reproj

import (
	"sort"
	"strconv"
	"strings"
)

// CRS is a resolved coordinate reference system, normalized to a
// canonical token-set representation; two CRSes are considered equal
// iff their token sets match.
type CRS struct {
	Raw    string
	Kind   Kind
	EPSG   int // 0 when not EPSG-backed (e.g. "local")
	Zone   int
	South  bool
	Tokens map[string]string

	Dx, Dy, Dz, Rx, Ry, Rz, Ds float64
	HasHelmert                 bool
	Grid                       string
}

// Resolve accepts a CRS spec that is either a shorthand name, an
// "epsg:<n>" code, or a raw definition string of "+key=value" tokens (a
// PROJ.4-flavored grammar). "local" resolves to Kind: KindLocal with no
// EPSG.
func Resolve(spec string) (*CRS, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	lower := strings.ToLower(spec)

	if lower == "local" {
		return &CRS{Raw: spec, Kind: KindLocal, Tokens: map[string]string{"local": "true"}}, nil
	}
	if strings.HasPrefix(lower, "epsg:") {
		n, err := strconv.Atoi(strings.TrimPrefix(lower, "epsg:"))
		if err != nil {
			return nil, &ConfigError{Detail: "malformed epsg code: " + spec}
		}
		return crsFromEPSG(spec, n), nil
	}
	if epsg, ok := shorthandEPSG(lower); ok {
		return crsFromEPSG(spec, epsg), nil
	}
	if strings.Contains(spec, "+") {
		return crsFromRawDef(spec), nil
	}
	return nil, &ConfigError{Detail: "unrecognized CRS specification: " + spec}
}

func crsFromEPSG(raw string, epsg int) *CRS {
	kind := epsgKind(epsg)
	c := &CRS{Raw: raw, Kind: kind, EPSG: epsg, Tokens: map[string]string{"epsg": strconv.Itoa(epsg)}}
	if kind == KindUTM {
		c.Zone, c.South = epsgUTMZone(epsg)
	}
	return c
}

// crsFromRawDef parses a "+proj=utm +zone=32 +datum=WGS84 ..." style
// string into tokens.
func crsFromRawDef(spec string) *CRS {
	tokens := map[string]string{}
	for _, field := range strings.Fields(spec) {
		field = strings.TrimPrefix(field, "+")
		if field == "" {
			continue
		}
		if eq := strings.IndexByte(field, '='); eq >= 0 {
			tokens[field[:eq]] = field[eq+1:]
		} else {
			tokens[field] = "true"
		}
	}
	c := &CRS{Raw: spec, Tokens: tokens}
	switch tokens["proj"] {
	case "longlat", "latlong", "":
		if tokens["proj"] == "longlat" || tokens["proj"] == "latlong" {
			c.Kind = KindGeographic
		} else {
			c.Kind = KindUnknown
		}
	case "utm":
		c.Kind = KindUTM
		c.Zone, _ = strconv.Atoi(tokens["zone"])
		_, c.South = tokens["south"]
	case "merc":
		c.Kind = KindWebMercator
	default:
		c.Kind = KindUnknown
	}
	if tw, ok := tokens["towgs84"]; ok {
		parts := strings.Split(tw, ",")
		vals := make([]float64, 7)
		for i := 0; i < len(parts) && i < 7; i++ {
			vals[i], _ = strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		}
		c.Dx, c.Dy, c.Dz, c.Rx, c.Ry, c.Rz, c.Ds = vals[0], vals[1], vals[2], vals[3], vals[4], vals[5], vals[6]
		c.HasHelmert = true
	}
	if grid, ok := tokens["nadgrids"]; ok {
		c.Grid = grid
	}
	return c
}

// Equal reports whether c and other normalize to the same token set. Two
// EPSG-resolved CRSes are compared by EPSG code directly, since their
// Tokens maps are single-entry representations of the same thing;
// raw-definition CRSes compare every token.
func (c *CRS) Equal(other *CRS) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.EPSG != 0 && other.EPSG != 0 {
		return c.EPSG == other.EPSG
	}
	if c.Kind == KindLocal || other.Kind == KindLocal {
		return c.Kind == other.Kind
	}
	return tokenSetEqual(c.Tokens, other.Tokens)
}

func tokenSetEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if bv, ok := b[k]; !ok || bv != a[k] {
			return false
		}
	}
	return true
}

// ApplyUserHelmert overrides the CRS's embedded datum-shift parameters
// with user-supplied 3- or 7-parameter ones; the caller is expected to
// warn that this replaces whatever the CRS carried embedded.
func (c *CRS) ApplyUserHelmert(dx, dy, dz, rx, ry, rz, ds float64) {
	c.Dx, c.Dy, c.Dz, c.Rx, c.Ry, c.Rz, c.Ds = dx, dy, dz, rx, ry, rz, ds
	c.HasHelmert = true
}

// ApplyUserGrid overrides the CRS's embedded grid file with a
// user-supplied one.
func (c *CRS) ApplyUserGrid(path string) {
	c.Grid = path
}

// HasWGS84Tie reports whether this CRS carries enough information to
// participate in a datum shift: either an explicit Helmert/grid override,
// or being geographic/UTM/web-Mercator on the WGS84 datum already (every
// EPSG code this package resolves is WGS84-based except the DHDN/OSGB
// shorthands, which carry no embedded tie and need an explicit override
// to shift at all). Input and output must each carry some form of WGS84
// tie for a datum shift to occur.
func (c *CRS) HasWGS84Tie() bool {
	if c.HasHelmert || c.Grid != "" {
		return true
	}
	return c.Kind == KindGeographic || c.Kind == KindUTM || c.Kind == KindWebMercator
}
