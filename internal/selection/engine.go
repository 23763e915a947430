package selection

import (
	"strconv"
	"strings"

	"github.com/dlpb/survey2gis/internal/geom"
	"github.com/dlpb/survey2gis/internal/schema"
	"github.com/dlpb/survey2gis/internal/store"
)

// Engine applies a validated command chain to a geom.Store in order.
type Engine struct {
	schema *schema.Schema
}

// New creates an Engine bound to s, used for field-type lookups during
// matching.
func New(s *schema.Schema) *Engine {
	return &Engine{schema: s}
}

// Report counts how many features of each geom-type matched one command.
type Report struct {
	Command  string
	Points   int
	Lines    int
	Polygons int
}

// ParseAndValidate parses and validates every raw command against s
// before any feature is touched — an invalid pattern or unknown field is
// rejected up front, not mid-run. It enforces MaxCommands.
func ParseAndValidate(raws []string, s *schema.Schema) ([]*Command, error) {
	if len(raws) > MaxCommands {
		return nil, &Error{Kind: SelectionSyntax, Command: "", Detail: "too many selection commands"}
	}
	cmds := make([]*Command, 0, len(raws))
	for _, raw := range raws {
		cmd, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		if err := cmd.Validate(s); err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// Run applies every command in cmds, in order, to g and returns one Report
// per command.
func (e *Engine) Run(cmds []*Command, g *geom.Store) []Report {
	reports := make([]Report, 0, len(cmds))
	for _, cmd := range cmds {
		reports = append(reports, e.apply(cmd, g))
	}
	return reports
}

func (e *Engine) apply(cmd *Command, g *geom.Store) Report {
	targets := kindSet(cmd.Geom.kinds())
	report := Report{Command: cmd.Raw}

	countMatch := func(kind store.GeomKind, matched bool) {
		if !matched {
			return
		}
		switch kind {
		case store.GeomPoint:
			report.Points++
		case store.GeomLine:
			report.Lines++
		case store.GeomPolygon:
			report.Polygons++
		}
	}

	switch cmd.Modifier {
	case Replace:
		g.Iterate(func(f *geom.Feature) bool {
			kind := f.Kind
			if !targets[kind] {
				f.IsSelected = false
				return true
			}
			m := e.matchInverted(cmd, f)
			f.IsSelected = m
			countMatch(kind, m)
			return true
		})
	case Add:
		g.Iterate(func(f *geom.Feature) bool {
			kind := f.Kind
			if !targets[kind] {
				return true
			}
			m := e.matchInverted(cmd, f)
			if m {
				f.IsSelected = true
			}
			countMatch(kind, m)
			return true
		})
	case SubFrom:
		g.Iterate(func(f *geom.Feature) bool {
			kind := f.Kind
			if !targets[kind] {
				return true
			}
			m := e.matchInverted(cmd, f)
			if m {
				f.IsSelected = false
			}
			countMatch(kind, m)
			return true
		})
	}
	return report
}

func (e *Engine) matchInverted(cmd *Command, f *geom.Feature) bool {
	m := e.match(cmd, f)
	if cmd.Invert {
		return !m
	}
	return m
}

func (e *Engine) match(cmd *Command, f *geom.Feature) bool {
	if cmd.Type == All {
		return true
	}
	val, ok := f.Attribute(cmd.Field)
	if !ok {
		return false
	}
	content, _ := val.(string)

	switch cmd.Type {
	case Sub:
		if cmd.CaseSensitive {
			return strings.Contains(content, cmd.Expr)
		}
		return strings.Contains(strings.ToLower(content), strings.ToLower(cmd.Expr))
	case Regexp:
		return cmd.re.MatchString(content)
	case Range:
		v, err := strconv.ParseFloat(content, 64)
		if err != nil {
			return false
		}
		return v >= cmd.rangeMin && v <= cmd.rangeMax
	default:
		return e.matchComparison(cmd, content)
	}
}

// matchComparison implements eq/neq/lt/gt/lte/gte: lexicographic for text
// fields, numeric for int/double fields.
func (e *Engine) matchComparison(cmd *Command, content string) bool {
	if cmd.fieldType == schema.Text {
		a, b := content, cmd.Expr
		if !cmd.CaseSensitive {
			a, b = strings.ToLower(a), strings.ToLower(b)
		}
		switch cmd.Type {
		case Eq:
			return a == b
		case Neq:
			return a != b
		case Lt:
			return a < b
		case Gt:
			return a > b
		case Lte:
			return a <= b
		case Gte:
			return a >= b
		}
		return false
	}

	v, err := strconv.ParseFloat(content, 64)
	if err != nil {
		return false
	}
	want, err := strconv.ParseFloat(cmd.Expr, 64)
	if err != nil {
		return false
	}
	switch cmd.Type {
	case Eq:
		return v == want
	case Neq:
		return v != want
	case Lt:
		return v < want
	case Gt:
		return v > want
	case Lte:
		return v <= want
	case Gte:
		return v >= want
	}
	return false
}

func kindSet(kinds []store.GeomKind) map[store.GeomKind]bool {
	m := make(map[store.GeomKind]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}
