package reproj

import "math"

// WGS84 ellipsoid constants, shared by every geographic/UTM conversion in
// this file. No dependency available here wraps PROJ.4 for Go, so the
// closed-form ellipsoidal transverse-Mercator and Helmert formulas are
// implemented directly — see DESIGN.md for why this one component is
// stdlib-`math`-only.
const (
	wgs84A = 6378137.0
	wgs84F = 1.0 / 298.257223563
	utmK0  = 0.9996
)

func wgs84E2() float64 {
	return wgs84F * (2 - wgs84F)
}

// latLonToUTM converts geographic radians to UTM easting/northing for the
// given zone/hemisphere, using the standard ellipsoidal transverse
// Mercator series (Snyder, "Map Projections: A Working Manual").
func latLonToUTM(latRad, lonRad float64, zone int, south bool) (easting, northing float64) {
	e2 := wgs84E2()
	ep2 := e2 / (1 - e2)
	lon0 := float64(zone*6-183) * math.Pi / 180

	sinLat, cosLat := math.Sin(latRad), math.Cos(latRad)
	tanLat := math.Tan(latRad)

	n := wgs84A / math.Sqrt(1-e2*sinLat*sinLat)
	t := tanLat * tanLat
	c := ep2 * cosLat * cosLat
	a := cosLat * (lonRad - lon0)

	m := wgs84A * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*latRad -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*latRad) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*latRad) -
		(35*e2*e2*e2/3072)*math.Sin(6*latRad))

	easting = utmK0*n*(a+(1-t+c)*a*a*a/6+
		(5-18*t+t*t+72*c-58*ep2)*a*a*a*a*a/120) + 500000

	northing = utmK0 * (m + n*tanLat*(a*a/2+
		(5-t+9*c+4*c*c)*a*a*a*a/24+
		(61-58*t+t*t+600*c-330*ep2)*a*a*a*a*a*a/720))
	if south {
		northing += 10000000
	}
	return easting, northing
}

// utmToLatLon is latLonToUTM's inverse.
func utmToLatLon(easting, northing float64, zone int, south bool) (latRad, lonRad float64) {
	e2 := wgs84E2()
	ep2 := e2 / (1 - e2)
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	lon0 := float64(zone*6-183) * math.Pi / 180

	x := easting - 500000
	y := northing
	if south {
		y -= 10000000
	}

	m := y / utmK0
	mu := m / (wgs84A * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	phi1 := mu + (3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1, cosPhi1 := math.Sin(phi1), math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)
	n1 := wgs84A / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	t1 := tanPhi1 * tanPhi1
	c1 := ep2 * cosPhi1 * cosPhi1
	r1 := wgs84A * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := x / (n1 * utmK0)

	latRad = phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d*d*d*d/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d*d*d*d*d*d/720)

	lonRad = lon0 + (d-(1+2*t1+c1)*d*d*d/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d*d*d*d*d/120)/cosPhi1

	return latRad, lonRad
}

// webMercatorR is the spherical radius EPSG:3857 uses (not the WGS84
// ellipsoid's semi-major axis, by construction of Web Mercator).
const webMercatorR = 6378137.0

func lonLatToWebMercator(latRad, lonRad float64) (x, y float64) {
	x = webMercatorR * lonRad
	y = webMercatorR * math.Log(math.Tan(math.Pi/4+latRad/2))
	return x, y
}

func webMercatorToLonLat(x, y float64) (latRad, lonRad float64) {
	latRad = 2*math.Atan(math.Exp(y/webMercatorR)) - math.Pi/2
	lonRad = x / webMercatorR
	return latRad, lonRad
}

// toGeographicRad converts a CRS-native (x, y) into WGS84 geographic
// radians, the common interchange the driver shifts datums in.
func toGeographicRad(c *CRS, x, y float64) (latRad, lonRad float64, err error) {
	switch c.Kind {
	case KindGeographic:
		return y * math.Pi / 180, x * math.Pi / 180, nil
	case KindUTM:
		lat, lon := utmToLatLon(x, y, c.Zone, c.South)
		return lat, lon, nil
	case KindWebMercator:
		lat, lon := webMercatorToLonLat(x, y)
		return lat, lon, nil
	default:
		return 0, 0, &RuntimeError{Detail: "unsupported source CRS kind for transform"}
	}
}

// fromGeographicRad is toGeographicRad's inverse, producing CRS-native
// (x, y) from WGS84 geographic radians.
func fromGeographicRad(c *CRS, latRad, lonRad float64) (x, y float64, err error) {
	switch c.Kind {
	case KindGeographic:
		return lonRad * 180 / math.Pi, latRad * 180 / math.Pi, nil
	case KindUTM:
		e, n := latLonToUTM(latRad, lonRad, c.Zone, c.South)
		return e, n, nil
	case KindWebMercator:
		ex, ey := lonLatToWebMercator(latRad, lonRad)
		return ex, ey, nil
	default:
		return 0, 0, &RuntimeError{Detail: "unsupported target CRS kind for transform"}
	}
}

// helmertGeocentric applies a 7-parameter (or degenerate 3-parameter,
// when rotations/scale are zero) position-vector Helmert datum shift in
// geocentric XYZ space. dx/dy/dz are meters, rx/ry/rz are arc-seconds, ds
// is parts-per-million, matching the PROJ.4 `+towgs84=dx,dy,dz,rx,ry,rz,ds`
// convention.
func helmertGeocentric(x, y, z, dx, dy, dz, rx, ry, rz, ds float64) (x2, y2, z2 float64) {
	asec := math.Pi / (180 * 3600)
	rxr, ryr, rzr := rx*asec, ry*asec, rz*asec
	scale := 1 + ds*1e-6

	x2 = dx + scale*(x-rzr*y+ryr*z)
	y2 = dy + scale*(rzr*x+y-rxr*z)
	z2 = dz + scale*(-ryr*x+rxr*y+z)
	return x2, y2, z2
}

// geodeticToGeocentric/geocentricToGeodetic convert between geographic
// radians (on the WGS84 ellipsoid, height assumed 0) and Earth-centered
// XYZ, the common space Helmert shifts operate in.
func geodeticToGeocentric(latRad, lonRad float64) (x, y, z float64) {
	e2 := wgs84E2()
	sinLat, cosLat := math.Sin(latRad), math.Cos(latRad)
	n := wgs84A / math.Sqrt(1-e2*sinLat*sinLat)
	x = n * cosLat * math.Cos(lonRad)
	y = n * cosLat * math.Sin(lonRad)
	z = n * (1 - e2) * sinLat
	return x, y, z
}

func geocentricToGeodetic(x, y, z float64) (latRad, lonRad float64) {
	e2 := wgs84E2()
	lonRad = math.Atan2(y, x)
	p := math.Hypot(x, y)
	lat := math.Atan2(z, p*(1-e2))
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := wgs84A / math.Sqrt(1-e2*sinLat*sinLat)
		lat = math.Atan2(z+e2*n*sinLat, p)
	}
	return lat, lonRad
}
