package readtext

import "unicode"

// =============================================================================
// Line Tokenizer
// =============================================================================

// tokenizer splits a single line into fields. It holds the delimiter
// configuration and reusable scratch buffers so repeated calls do not
// allocate per line.
//
// A delim of 0 selects whitespace mode: any run of unicode whitespace
// separates fields and leading whitespace is ignored. A quote of 0 disables
// quoting; comment is the single inline comment character, 0 for none.
type tokenizer struct {
	delim   rune
	quote   rune
	comment rune

	fields []string
	cur    []rune
}

// tokenizer states.
type tokState int

const (
	stateFieldStart tokState = iota // before any character of the next field
	stateInField                    // inside an unquoted field
	stateInQuoted                   // inside a quoted field
	stateAfterQuote                 // just consumed a closing quote
)

func newTokenizer(delim, quote, comment rune) *tokenizer {
	return &tokenizer{delim: delim, quote: quote, comment: comment}
}

// splitLine tokenizes one line (without its line terminator) into fields.
// The returned slice is valid until the next call. A zero-length result
// means the line holds no data: empty, whitespace-only in whitespace mode,
// or nothing before an inline comment. An empty quoted field still counts
// as data, so a line holding only `""` yields one field.
//
// On a malformed quoted field it returns ErrQuote together with the 1-based
// index of the offending field.
func (t *tokenizer) splitLine(line string) ([]string, int, error) {
	t.fields = t.fields[:0]
	t.cur = t.cur[:0]
	if t.delim == 0 {
		return t.splitWhitespace(line)
	}

	state := stateFieldStart
	for _, r := range line {
		switch state {
		case stateFieldStart:
			switch {
			case t.comment != 0 && r == t.comment:
				// A comment directly after a delimiter still terminates a
				// started row, so the pending empty field is kept.
				if len(t.fields) > 0 {
					t.endField()
				}
				return t.fields, 0, nil
			case t.quote != 0 && r == t.quote:
				state = stateInQuoted
			case r == t.delim:
				t.endField()
			default:
				t.cur = append(t.cur, r)
				state = stateInField
			}
		case stateInField:
			switch {
			case r == t.delim:
				t.endField()
				state = stateFieldStart
			case t.comment != 0 && r == t.comment:
				t.endField()
				return t.fields, 0, nil
			default:
				// Quote characters inside an unquoted field are literal.
				t.cur = append(t.cur, r)
			}
		case stateInQuoted:
			if r == t.quote {
				state = stateAfterQuote
			} else {
				t.cur = append(t.cur, r)
			}
		case stateAfterQuote:
			switch {
			case r == t.quote:
				// Doubled quote: one literal quote character.
				t.cur = append(t.cur, r)
				state = stateInQuoted
			case r == t.delim:
				t.endField()
				state = stateFieldStart
			case t.comment != 0 && r == t.comment:
				t.endField()
				return t.fields, 0, nil
			default:
				return nil, len(t.fields) + 1, ErrQuote
			}
		}
	}

	switch state {
	case stateInQuoted:
		return nil, len(t.fields) + 1, ErrQuote
	case stateInField, stateAfterQuote:
		t.endField()
	case stateFieldStart:
		// A trailing delimiter leaves an empty final field; a line that
		// never started a field holds no data at all.
		if len(t.fields) > 0 {
			t.endField()
		}
	}
	return t.fields, 0, nil
}

// splitWhitespace tokenizes in whitespace mode: runs of whitespace separate
// fields and never produce empty ones.
func (t *tokenizer) splitWhitespace(line string) ([]string, int, error) {
	state := stateFieldStart
	for _, r := range line {
		switch state {
		case stateFieldStart:
			switch {
			case unicode.IsSpace(r):
				// skip
			case t.comment != 0 && r == t.comment:
				return t.fields, 0, nil
			case t.quote != 0 && r == t.quote:
				state = stateInQuoted
			default:
				t.cur = append(t.cur, r)
				state = stateInField
			}
		case stateInField:
			switch {
			case unicode.IsSpace(r):
				t.endField()
				state = stateFieldStart
			case t.comment != 0 && r == t.comment:
				t.endField()
				return t.fields, 0, nil
			default:
				t.cur = append(t.cur, r)
			}
		case stateInQuoted:
			if r == t.quote {
				state = stateAfterQuote
			} else {
				t.cur = append(t.cur, r)
			}
		case stateAfterQuote:
			switch {
			case r == t.quote:
				t.cur = append(t.cur, r)
				state = stateInQuoted
			case unicode.IsSpace(r):
				t.endField()
				state = stateFieldStart
			case t.comment != 0 && r == t.comment:
				t.endField()
				return t.fields, 0, nil
			default:
				return nil, len(t.fields) + 1, ErrQuote
			}
		}
	}

	switch state {
	case stateInQuoted:
		return nil, len(t.fields) + 1, ErrQuote
	case stateInField, stateAfterQuote:
		t.endField()
	}
	return t.fields, 0, nil
}

// endField finishes the field under construction and resets the scratch
// buffer.
func (t *tokenizer) endField() {
	t.fields = append(t.fields, string(t.cur))
	t.cur = t.cur[:0]
}
