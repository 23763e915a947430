// Package selection implements the SelectionEngine: parsing, validating,
// and applying the ordered chain of selection commands that mark
// GeometryStore features as selected.
package selection

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dlpb/survey2gis/internal/schema"
	"github.com/dlpb/survey2gis/internal/store"
)

// MaxCommands is the repeat limit on -S/--selection occurrences.
const MaxCommands = 255

// Type is one of the ten command predicates.
type Type int

const (
	Eq Type = iota
	Neq
	Lt
	Gt
	Lte
	Gte
	Sub
	Regexp
	Range
	All
)

func parseType(tok string) (Type, bool) {
	switch strings.ToLower(tok) {
	case "eq":
		return Eq, true
	case "neq":
		return Neq, true
	case "lt":
		return Lt, true
	case "gt":
		return Gt, true
	case "lte":
		return Lte, true
	case "gte":
		return Gte, true
	case "sub":
		return Sub, true
	case "regexp":
		return Regexp, true
	case "range":
		return Range, true
	case "all":
		return All, true
	}
	return 0, false
}

// Modifier is how a command's match result combines into the running
// selection.
type Modifier int

const (
	Replace Modifier = iota
	Add
	SubFrom
)

// Geom is which geometry kinds a command targets.
type Geom int

const (
	GeomPt Geom = iota
	GeomRaw
	GeomLn
	GeomPy
	GeomAll
)

func parseGeom(tok string) (Geom, bool) {
	switch strings.ToLower(tok) {
	case "pt":
		return GeomPt, true
	case "raw":
		return GeomRaw, true
	case "ln":
		return GeomLn, true
	case "py":
		return GeomPy, true
	case "all":
		return GeomAll, true
	}
	return 0, false
}

// kinds returns which store.GeomKind values this geom target matches.
// GeomRaw matches none: this implementation's geom.Store keeps raw
// vertices as a transient, unattached []Vertex with no selection state of
// its own, so a `raw` command is accepted by the grammar but is a
// guaranteed no-op match.
func (g Geom) kinds() []store.GeomKind {
	switch g {
	case GeomPt:
		return []store.GeomKind{store.GeomPoint}
	case GeomLn:
		return []store.GeomKind{store.GeomLine}
	case GeomPy:
		return []store.GeomKind{store.GeomPolygon}
	case GeomAll:
		return []store.GeomKind{store.GeomPoint, store.GeomLine, store.GeomPolygon}
	default:
		return nil
	}
}

// Command is one parsed, schema-validated selection step.
type Command struct {
	Raw           string
	Invert        bool
	Type          Type
	CaseSensitive bool // true iff the type token was given in uppercase
	Modifier      Modifier
	Geom          Geom
	Field         string
	Expr          string

	fieldType schema.FieldType
	re        *regexp.Regexp
	rangeMin  float64
	rangeMax  float64
}

// Parse parses one raw selection command string. It does not validate
// against a schema; call Validate for that.
func Parse(raw string) (*Command, error) {
	cmd := &Command{Raw: raw}
	s := raw

	if strings.HasPrefix(s, "!") {
		cmd.Invert = true
		s = s[1:]
	}

	parts := strings.SplitN(s, ":", 4)
	if len(parts) < 2 {
		return nil, &Error{Kind: SelectionSyntax, Command: raw, Detail: "missing type:geom separator"}
	}

	typeTok := parts[0]
	cmd.CaseSensitive = typeTok != "" && typeTok == strings.ToUpper(typeTok) && typeTok != strings.ToLower(typeTok)
	modTok := ""
	switch {
	case strings.HasSuffix(typeTok, "+"):
		cmd.Modifier = Add
		modTok = typeTok[:len(typeTok)-1]
	case strings.HasSuffix(typeTok, "-"):
		cmd.Modifier = SubFrom
		modTok = typeTok[:len(typeTok)-1]
	default:
		cmd.Modifier = Replace
		modTok = typeTok
	}
	typ, ok := parseType(modTok)
	if !ok {
		return nil, &Error{Kind: SelectionSyntax, Command: raw, Detail: "unrecognized type " + modTok}
	}
	cmd.Type = typ

	geom, ok := parseGeom(parts[1])
	if !ok {
		return nil, &Error{Kind: SelectionSyntax, Command: raw, Detail: "unrecognized geom " + parts[1]}
	}
	cmd.Geom = geom

	if cmd.Type == All {
		return cmd, nil
	}
	if len(parts) < 4 {
		return nil, &Error{Kind: SelectionSyntax, Command: raw, Detail: "type requires field:expr"}
	}
	cmd.Field = parts[2]
	cmd.Expr = parts[3]
	return cmd, nil
}

// Validate checks cmd against s: the field must exist (for non-`all`
// types), sub/regexp require a text field, range requires a numeric
// field, and regexp must compile.
func (cmd *Command) Validate(s *schema.Schema) error {
	if cmd.Type == All {
		return nil
	}
	f, ok := s.FieldByName(cmd.Field)
	if !ok {
		return &Error{Kind: SelectionSemantic, Command: cmd.Raw, Detail: "unknown field " + cmd.Field}
	}
	cmd.fieldType = f.Type

	switch cmd.Type {
	case Sub, Regexp:
		if f.Type != schema.Text {
			return &Error{Kind: SelectionSemantic, Command: cmd.Raw, Detail: "field " + cmd.Field + " is not text"}
		}
	case Range:
		if f.Type == schema.Text {
			return &Error{Kind: SelectionSemantic, Command: cmd.Raw, Detail: "field " + cmd.Field + " is not numeric"}
		}
	}

	switch cmd.Type {
	case Regexp:
		pattern := cmd.Expr
		if !cmd.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return &Error{Kind: SelectionSyntax, Command: cmd.Raw, Detail: "invalid regexp: " + err.Error()}
		}
		cmd.re = re
	case Range:
		lo, hi, ok := parseRange(cmd.Expr)
		if !ok {
			return &Error{Kind: SelectionSyntax, Command: cmd.Raw, Detail: "range must be min;max"}
		}
		if lo > hi {
			return &Error{Kind: SelectionSemantic, Command: cmd.Raw, Detail: "range min exceeds max"}
		}
		cmd.rangeMin, cmd.rangeMax = lo, hi
	}
	return nil
}

func parseRange(expr string) (lo, hi float64, ok bool) {
	parts := strings.SplitN(expr, ";", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	hi, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lo, hi, true
}
