package schema

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// boolTrue and boolFalse list the accepted boolean vocabulary, matched
// case-insensitively.
var (
	boolTrue  = map[string]bool{"y": true, "yes": true, "on": true, "1": true, "enable": true, "true": true}
	boolFalse = map[string]bool{"n": true, "no": true, "off": true, "0": true, "disable": true, "false": true}
)

func parseBool(v string) (bool, bool) {
	lv := strings.ToLower(v)
	if boolTrue[lv] {
		return true, true
	}
	if boolFalse[lv] {
		return false, true
	}
	return false, false
}

// Load reads a `.parser-schema` INI-style file and returns the populated
// Schema. Load does not run the cross-field invariants; call Validate
// separately. Any malformed line, unknown key, repeated key in the same
// context, out-of-range value, or oversized value/line is a hard
// *SyntaxError.
func Load(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SyntaxError{Kind: ErrNoSuchFile, Detail: err.Error()}
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), MaxLineLen+1)

	s := &Schema{}

	section := ""         // "", "parser", or "field"
	var cur *FieldDesc     // field currently being accumulated
	seenParser := map[string]bool{}
	seenField := map[string]bool{}

	flushField := func() {
		if cur != nil {
			s.Fields = append(s.Fields, *cur)
			cur = nil
		}
		seenField = map[string]bool{}
	}

	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		if len(raw) > MaxLineLen {
			return nil, &SyntaxError{Kind: ErrLineTooLong, Line: lineNo}
		}
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			switch name {
			case "parser":
				flushField()
				section = "parser"
			case "field":
				flushField()
				section = "field"
				cur = &FieldDesc{}
			default:
				return nil, &SyntaxError{Kind: ErrUnknownKey, Line: lineNo, Section: name, Detail: "unknown section"}
			}
			continue
		}

		eq := strings.Index(line, "=")
		if eq < 0 {
			return nil, &SyntaxError{Kind: ErrUnknownKey, Line: lineNo, Detail: "expected key = value"}
		}
		key := strings.TrimSpace(line[:eq])
		value := unquote(strings.TrimSpace(line[eq+1:]))
		if len(value) > MaxValueLen {
			return nil, &SyntaxError{Kind: ErrValueTooLong, Line: lineNo, Key: key}
		}

		switch section {
		case "parser":
			if err := applyParserKey(s, key, value, lineNo, seenParser); err != nil {
				return nil, err
			}
		case "field":
			if err := applyFieldKey(cur, key, value, lineNo, seenField); err != nil {
				return nil, err
			}
		default:
			return nil, &SyntaxError{Kind: ErrUnknownKey, Line: lineNo, Detail: "key outside of any section"}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &SyntaxError{Kind: ErrLineTooLong, Detail: err.Error()}
	}
	flushField()

	return s, nil
}

// unquote strips one matching pair of outer double quotes, if present.
func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

func applyParserKey(s *Schema, key, value string, line int, seen map[string]bool) error {
	lk := strings.ToLower(key)
	repeatable := lk == "comment_mark"
	if seen[lk] && !repeatable {
		return &SyntaxError{Kind: ErrDuplicateKey, Line: line, Section: "parser", Key: key}
	}
	seen[lk] = true

	switch lk {
	case "name":
		s.Name = value
	case "description":
		s.Description = value
	case "tag_mode":
		mode, ok := ParseTagMode(value)
		if !ok {
			return &SyntaxError{Kind: ErrValueOutOfRange, Line: line, Section: "parser", Key: key, Detail: value}
		}
		s.TagMode = mode
	case "comment_mark":
		s.CommentMarks = append(s.CommentMarks, resolveSeparatorToken(value))
	case "coor_x":
		s.CoorX = strings.ToLower(value)
	case "coor_y":
		s.CoorY = strings.ToLower(value)
	case "coor_z":
		s.CoorZ = strings.ToLower(value)
	case "tag_field":
		s.TagField = strings.ToLower(value)
	case "key_field":
		s.KeyField = strings.ToLower(value)
	case "key_unique":
		b, ok := parseBool(value)
		if !ok {
			return &SyntaxError{Kind: ErrBadBool, Line: line, Section: "parser", Key: key, Detail: value}
		}
		s.KeyUnique = b
	case "tag_strict":
		b, ok := parseBool(value)
		if !ok {
			return &SyntaxError{Kind: ErrBadBool, Line: line, Section: "parser", Key: key, Detail: value}
		}
		s.TagStrict = b
	case "no_data":
		n, err := strconv.Atoi(value)
		if err != nil {
			return &SyntaxError{Kind: ErrBadInt, Line: line, Section: "parser", Key: key, Detail: value}
		}
		s.NoData = n
	case "geom_tag_point":
		s.GeomTagPoint = value
	case "geom_tag_line":
		s.GeomTagLine = value
	case "geom_tag_poly":
		s.GeomTagPoly = value
	default:
		return &SyntaxError{Kind: ErrUnknownKey, Line: line, Section: "parser", Key: key}
	}
	return nil
}

// resolveSeparatorToken maps the literal tokens "space"/"tab" to their
// character values; any other token is used verbatim.
func resolveSeparatorToken(v string) string {
	switch strings.ToLower(v) {
	case "space":
		return " "
	case "tab":
		return "\t"
	default:
		return v
	}
}

func applyFieldKey(f *FieldDesc, key, value string, line int, seen map[string]bool) error {
	if f == nil {
		return &SyntaxError{Kind: ErrUnknownKey, Line: line, Detail: "key outside of [field] section"}
	}

	if strings.HasPrefix(key, "@") {
		old := key[1:]
		f.Lookup = append(f.Lookup, LookupPair{Old: old, New: value})
		return nil
	}

	lk := strings.ToLower(key)
	repeatable := lk == "separator"
	if seen[lk] && !repeatable {
		return &SyntaxError{Kind: ErrDuplicateKey, Line: line, Section: "field", Key: key}
	}
	seen[lk] = true

	switch lk {
	case "name":
		f.Name = strings.ToLower(value)
	case "type":
		switch strings.ToLower(value) {
		case "text":
			f.Type = Text
		case "int":
			f.Type = Int
		case "double":
			f.Type = Double
		default:
			return &SyntaxError{Kind: ErrValueOutOfRange, Line: line, Section: "field", Key: key, Detail: value}
		}
	case "empty_allowed":
		b, ok := parseBool(value)
		if !ok {
			return &SyntaxError{Kind: ErrBadBool, Line: line, Section: "field", Key: key}
		}
		f.EmptyAllowed = b
	case "unique":
		b, ok := parseBool(value)
		if !ok {
			return &SyntaxError{Kind: ErrBadBool, Line: line, Section: "field", Key: key}
		}
		f.Unique = b
	case "persistent":
		b, ok := parseBool(value)
		if !ok {
			return &SyntaxError{Kind: ErrBadBool, Line: line, Section: "field", Key: key}
		}
		f.Persistent = b
	case "skip":
		b, ok := parseBool(value)
		if !ok {
			return &SyntaxError{Kind: ErrBadBool, Line: line, Section: "field", Key: key}
		}
		f.Skip = b
	case "change_case":
		switch strings.ToLower(value) {
		case "none":
			f.CaseConversion = CaseNone
		case "upper":
			f.CaseConversion = CaseUpper
		case "lower":
			f.CaseConversion = CaseLower
		default:
			return &SyntaxError{Kind: ErrValueOutOfRange, Line: line, Section: "field", Key: key, Detail: value}
		}
	case "separator":
		f.Separators = append(f.Separators, resolveSeparatorToken(value))
	case "merge_separators":
		b, ok := parseBool(value)
		if !ok {
			return &SyntaxError{Kind: ErrBadBool, Line: line, Section: "field", Key: key}
		}
		f.MergeSeparators = b
	case "quotation":
		resolved := resolveSeparatorToken(value)
		if len(resolved) != 1 {
			return &SyntaxError{Kind: ErrValueOutOfRange, Line: line, Section: "field", Key: key, Detail: "quotation must be a single character"}
		}
		f.Quote = resolved[0]
		f.HasQuote = true
	case "value":
		v := value
		f.Value = &v
	default:
		return &SyntaxError{Kind: ErrUnknownKey, Line: line, Section: "field", Key: key}
	}
	return nil
}
