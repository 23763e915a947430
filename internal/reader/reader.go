// Package reader tokenizes one raw input line into the raw field tuple the
// schema describes, applying separator/quote handling, case conversion,
// lookup substitution, and the reduced-record re-tokenization pass used
// under tag_mode=min.
package reader

import (
	"strings"

	"github.com/dlpb/survey2gis/internal/schema"
)

// Tuple is one line's raw, per-field content: nil means null. Parsed
// tracks which field positions the tokenizer actually reached, distinct
// from Content's nullness — an empty_allowed field that tokenized to ""
// has Parsed[i]==true and Content[i]==nil, while a field past where the
// line ran out has Parsed[i]==false.
type Tuple struct {
	Content []*string
	Skip    []bool
	Parsed  []bool
}

// Reader walks a schema's fields against one line at a time. It is
// stateful only in that it remembers whether a prior line was returned as
// a full-schema tuple, which gates the mode=min reduced-record pass. The
// Reader does not see validation, so a full-schema line that later fails
// validation still opens the gate.
type Reader struct {
	schema      *schema.Schema
	sawFullLine bool
}

// New creates a Reader bound to schema s.
func New(s *schema.Schema) *Reader {
	return &Reader{schema: s}
}

// IsCommentOrBlank reports whether line should be discarded before
// tokenization: blank, or its first non-whitespace token equals a
// configured comment mark.
func (r *Reader) IsCommentOrBlank(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	for _, mark := range r.schema.CommentMarks {
		if mark != "" && strings.HasPrefix(trimmed, mark) {
			return true
		}
	}
	return false
}

// Read tokenizes one line into the full raw tuple. It does not validate
// types; that is RecordValidator's job.
func (r *Reader) Read(line string) *Tuple {
	t := tokenize(r.schema.Fields, line)
	applyTransforms(r.schema.Fields, t)

	reducedCandidate := r.schema.TagMode == schema.TagMin && tokenCount(t) == r.schema.ReducedFieldCount()
	if reducedCandidate && r.sawFullLine {
		t = r.reducedTokenize(line)
		applyTransforms(r.schema.Fields, t)
	} else {
		// Either this isn't a reduced-sized line, or it's the first line
		// of the file and so can't yet be treated as a reduced record: a
		// reduced record requires a prior valid full record. Either way
		// the full-schema tuple above is the real result, and it counts
		// as "a prior full line" for any reduced line that follows.
		r.sawFullLine = true
	}
	return t
}

// tokenCount counts field positions the tokenizer actually reached,
// used to detect a reduced-size full pass under mode=min. This is not
// the same as counting non-nil Content: an empty_allowed field that
// tokenized to "" still occupies a position.
func tokenCount(t *Tuple) int {
	n := 0
	for _, p := range t.Parsed {
		if p {
			n++
		}
	}
	return n
}

// tokenize runs the main tokenization pass over every declared field in
// order. If the line runs out before a non-last field finds its
// separator, that field absorbs the remainder and every later field is
// left without a token — except trailing pseudo fields, which are always
// filled from their constants regardless of how far tokenization got.
func tokenize(fields []schema.FieldDesc, line string) *Tuple {
	t := &Tuple{
		Content: make([]*string, len(fields)),
		Skip:    make([]bool, len(fields)),
		Parsed:  make([]bool, len(fields)),
	}
	cursor := 0
	ranOut := false
	for i, f := range fields {
		if f.IsPseudo() {
			v := *f.Value
			t.Content[i] = &v
			t.Parsed[i] = true
			continue
		}
		if ranOut {
			continue
		}
		last := i == len(fields)-1
		if last {
			rest := line[min(cursor, len(line)):]
			setToken(t, i, rest, f)
			t.Parsed[i] = true
			cursor = len(line)
			continue
		}
		tok, next, ok := scanField(line, cursor, f)
		if !ok {
			// No separator found before end of line: this field absorbs
			// the remainder and no later non-pseudo field gets a token.
			setToken(t, i, line[min(cursor, len(line)):], f)
			t.Parsed[i] = true
			ranOut = true
			continue
		}
		setToken(t, i, tok, f)
		t.Parsed[i] = true
		cursor = next
	}
	return t
}

// setToken stores content for field i honoring empty_allowed nullability.
func setToken(t *Tuple, i int, tok string, f schema.FieldDesc) {
	if tok == "" && f.EmptyAllowed {
		t.Content[i] = nil
		return
	}
	v := tok
	t.Content[i] = &v
}

// scanField finds the field's token starting at cursor, honoring quoting
// and merge_separators, and returns the token, the cursor position just
// past the matched separator, and whether a separator was found.
func scanField(line string, cursor int, f schema.FieldDesc) (tok string, next int, ok bool) {
	if cursor >= len(line) {
		return "", cursor, false
	}
	quoted := f.HasQuote && cursor < len(line) && line[cursor] == f.Quote
	start := cursor
	if quoted {
		start++
	}

	i := start
	for i < len(line) {
		if quoted {
			if line[i] == f.Quote {
				tok = line[start:i]
				i++ // past closing quote
				// Skip a following separator, if any, without requiring one
				// (the quote itself delimits the field).
				for _, sep := range f.Separators {
					if sep != "" && strings.HasPrefix(line[i:], sep) {
						i += len(sep)
						break
					}
				}
				return tok, i, true
			}
			i++
			continue
		}
		if sepLen := longestSeparatorMatch(line, i, f.Separators); sepLen > 0 {
			tok = line[start:i]
			next = i + sepLen
			if f.MergeSeparators {
				for {
					if l2 := longestSeparatorMatch(line, next, f.Separators); l2 > 0 {
						next += l2
						continue
					}
					break
				}
			}
			return tok, next, true
		}
		i++
	}
	if quoted {
		// Unterminated quote: treat the remainder as the token.
		return line[start:], len(line), true
	}
	return "", cursor, false
}

// longestSeparatorMatch returns the length of the longest separator token
// from seps that matches line starting at i, or 0 if none match.
func longestSeparatorMatch(line string, i int, seps []string) int {
	best := 0
	for _, sep := range seps {
		if sep == "" {
			continue
		}
		if strings.HasPrefix(line[i:], sep) && len(sep) > best {
			best = len(sep)
		}
	}
	return best
}

// applyTransforms applies case conversion then lookup substitution to
// every text field's content, in that order.
func applyTransforms(fields []schema.FieldDesc, t *Tuple) {
	for i, f := range fields {
		if f.Type != schema.Text || t.Content[i] == nil {
			continue
		}
		v := *t.Content[i]
		switch f.CaseConversion {
		case schema.CaseUpper:
			v = strings.ToUpper(v)
		case schema.CaseLower:
			v = strings.ToLower(v)
		}
		for _, lp := range f.Lookup {
			if strings.EqualFold(v, lp.Old) {
				v = lp.New
				break
			}
		}
		t.Content[i] = &v
	}
}

// reducedTokenize re-tokenizes line using only coordinate and persistent
// fields, placing tokens into their declared positions and marking every
// other field null/skip=true.
func (r *Reader) reducedTokenize(line string) *Tuple {
	fields := r.schema.Fields
	t := &Tuple{
		Content: make([]*string, len(fields)),
		Skip:    make([]bool, len(fields)),
		Parsed:  make([]bool, len(fields)),
	}
	for i := range fields {
		t.Skip[i] = true
	}

	var reduced []int
	for i, f := range fields {
		if f.Persistent || f.Name == r.schema.CoorX || f.Name == r.schema.CoorY ||
			(r.schema.HasZ() && f.Name == r.schema.CoorZ) {
			reduced = append(reduced, i)
		}
	}

	cursor := 0
	for pos, idx := range reduced {
		f := fields[idx]
		last := pos == len(reduced)-1
		if last {
			v := line[min(cursor, len(line)):]
			t.Content[idx] = &v
			t.Skip[idx] = false
			t.Parsed[idx] = true
			continue
		}
		tok, next, ok := scanField(line, cursor, f)
		if !ok {
			v := line[min(cursor, len(line)):]
			t.Content[idx] = &v
			t.Skip[idx] = false
			t.Parsed[idx] = true
			cursor = len(line)
			continue
		}
		setToken(t, idx, tok, f)
		t.Skip[idx] = false
		t.Parsed[idx] = true
		cursor = next
	}
	return t
}
