package reproj

import "strings"

// Kind is how a resolved CRS's native coordinates are interpreted, which
// determines the conversion to/from geographic radians the transform pass
// needs.
type Kind int

const (
	KindLocal Kind = iota
	KindGeographic
	KindWebMercator
	KindUTM
	KindUnknown
)

// utmShortcut names one of the 120 utm<zone><n|s> shorthands.
type utmShortcut struct {
	zone     int
	southern bool
}

// shorthandEPSG resolves a shorthand SRS name to its EPSG code. "local"
// has no EPSG code; callers must special-case it before calling this (it
// resolves to KindLocal, not an EPSG number).
func shorthandEPSG(name string) (epsg int, ok bool) {
	name = strings.ToLower(name)
	switch name {
	case "wgs84":
		return 4326, true
	case "web":
		return 3857, true
	case "dhdn2":
		return 31466, true
	case "dhdn3":
		return 31467, true
	case "dhdn4":
		return 31468, true
	case "dhdn5":
		return 31469, true
	case "osgb":
		return 27700, true
	}
	if z, south, ok := parseUTMShortcut(name); ok {
		if south {
			return 32700 + z, true
		}
		return 32600 + z, true
	}
	return 0, false
}

// parseUTMShortcut parses "utm<1-60>[n|s]".
func parseUTMShortcut(name string) (zone int, southern bool, ok bool) {
	if !strings.HasPrefix(name, "utm") {
		return 0, false, false
	}
	rest := name[3:]
	if rest == "" {
		return 0, false, false
	}
	switch rest[len(rest)-1] {
	case 'n':
		southern = false
	case 's':
		southern = true
	default:
		return 0, false, false
	}
	digits := rest[:len(rest)-1]
	zone = 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false, false
		}
		zone = zone*10 + int(r-'0')
	}
	if zone < 1 || zone > 60 {
		return 0, false, false
	}
	return zone, southern, true
}

// epsgKind and epsgUTMZone classify a resolved EPSG code into its Kind and
// (for UTM) zone/hemisphere, covering every code shorthandEPSG can produce
// plus any epsg:<n> the caller supplies directly.
func epsgKind(epsg int) Kind {
	switch {
	case epsg == 4326:
		return KindGeographic
	case epsg == 3857:
		return KindWebMercator
	case epsg >= 32601 && epsg <= 32660:
		return KindUTM
	case epsg >= 32701 && epsg <= 32760:
		return KindUTM
	default:
		return KindUnknown
	}
}

func epsgUTMZone(epsg int) (zone int, southern bool) {
	switch {
	case epsg >= 32601 && epsg <= 32660:
		return epsg - 32600, false
	case epsg >= 32701 && epsg <= 32760:
		return epsg - 32700, true
	}
	return 0, false
}
