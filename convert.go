package readtext

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

// =============================================================================
// Field Conversion
// =============================================================================

// fieldParser converts trimmed field text to typed values. It carries the
// numeric format configuration: the decimal point character, the scientific
// notation character and the imaginary unit, plus the byte encoding used
// for fixed-width byte strings.
type fieldParser struct {
	decimal   rune
	sci       rune
	imaginary rune
	encoder   *encoding.Encoder // nil: byte strings are raw UTF-8
}

// trimSpaces removes surrounding unicode whitespace.
func trimSpaces(s string) string {
	return strings.TrimFunc(s, unicode.IsSpace)
}

// parseBool accepts exactly "0" and "1".
func (p *fieldParser) parseBool(s string) (bool, error) {
	switch trimSpaces(s) {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, fmt.Errorf("invalid bool %q", s)
}

// parseInt converts s to a signed integer of the given bit width. Tokens
// that are not plain integers fall back to float parsing with truncation
// toward zero, so "1e4" and "3.0" convert when an integer type is requested.
func (p *fieldParser) parseInt(s string, bits int) (int64, error) {
	t := trimSpaces(s)
	if v, ok := parseIntDigits(t, bits); ok {
		return v, nil
	}
	f, err := p.parseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	tf := math.Trunc(f)
	limit := math.Ldexp(1, bits-1)
	if math.IsNaN(tf) || tf >= limit || tf < -limit {
		return 0, fmt.Errorf("integer %q out of range for int%d", s, bits)
	}
	return int64(tf), nil
}

// parseUint converts s to an unsigned integer of the given bit width, with
// the same float fallback as parseInt.
func (p *fieldParser) parseUint(s string, bits int) (uint64, error) {
	t := trimSpaces(s)
	if v, ok := parseUintDigits(t, bits); ok {
		return v, nil
	}
	f, err := p.parseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	tf := math.Trunc(f)
	limit := math.Ldexp(1, bits)
	if math.IsNaN(tf) || tf >= limit || tf <= -1 {
		return 0, fmt.Errorf("integer %q out of range for uint%d", s, bits)
	}
	return uint64(tf), nil
}

// parseIntDigits parses an optionally signed run of decimal digits with
// overflow checking against the target width.
func parseIntDigits(s string, bits int) (int64, bool) {
	if s == "" {
		return 0, false
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return 0, false
	}
	max := uint64(1)<<(bits-1) - 1
	if neg {
		max++
	}
	var acc uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint64(c - '0')
		if acc > (max-d)/10 {
			return 0, false
		}
		acc = acc*10 + d
	}
	if neg {
		return -int64(acc), true
	}
	return int64(acc), true
}

// parseUintDigits parses an unsigned run of decimal digits with overflow
// checking. A leading '-' is accepted only for a zero value.
func parseUintDigits(s string, bits int) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return 0, false
	}
	var max uint64
	if bits == 64 {
		max = math.MaxUint64
	} else {
		max = uint64(1)<<bits - 1
	}
	var acc uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := uint64(c - '0')
		if acc > (max-d)/10 {
			return 0, false
		}
		acc = acc*10 + d
	}
	if neg && acc != 0 {
		return 0, false
	}
	return acc, true
}

// parseFloat converts s to a float of the given bit width. The token is
// normalized for the configured decimal and scientific characters and then
// handed to strconv.ParseFloat in one step, so the result is correctly
// rounded. Out-of-range magnitudes become infinities rather than errors.
func (p *fieldParser) parseFloat(s string, bits int) (float64, error) {
	t := trimSpaces(s)
	if t == "" {
		return 0, fmt.Errorf("invalid float %q", s)
	}
	// Hex float literals and digit separators are not part of the text
	// format even though strconv understands them.
	if strings.ContainsAny(t, "xX_") {
		return 0, fmt.Errorf("invalid float %q", s)
	}
	norm, ok := p.normalizeFloat(t)
	if !ok {
		return 0, fmt.Errorf("invalid float %q", s)
	}
	v, err := strconv.ParseFloat(norm, bits)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			return v, nil
		}
		return 0, fmt.Errorf("invalid float %q", s)
	}
	return v, nil
}

// normalizeFloat maps the configured decimal and scientific characters onto
// the forms strconv accepts. The default configuration passes through.
// Configured characters replace the defaults: a literal '.' under a custom
// decimal, or 'e'/'E' under a custom scientific character, makes the token
// invalid rather than parsing with its default meaning.
func (p *fieldParser) normalizeFloat(s string) (string, bool) {
	sci := unicode.ToLower(p.sci)
	if p.decimal == '.' && sci == 'e' {
		return s, true
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == p.decimal:
			b.WriteByte('.')
		case unicode.ToLower(r) == sci:
			b.WriteByte('e')
		case r == '.' || r == 'e' || r == 'E':
			return "", false
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), true
}

// parseComplex converts s to a complex number. Accepted forms: a bare real,
// a bare imaginary ("2.5j", "-19E2j"), real and imaginary joined by an
// explicit sign ("1.0-2.5j", "7+-5.0j"), each optionally wrapped in one
// pair of parentheses. The imaginary unit character is configurable and
// case-insensitive.
func (p *fieldParser) parseComplex(s string) (complex128, error) {
	t := trimSpaces(s)
	orig := t
	paren := false
	if strings.HasPrefix(t, "(") {
		paren = true
		t = t[1:]
	}

	n := p.floatPrefixLen(t)
	if n == 0 {
		return 0, fmt.Errorf("invalid complex %q", orig)
	}
	first, err := p.parseFloat(t[:n], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid complex %q", orig)
	}
	t = t[n:]

	var re, im float64
	if w := p.imagUnitLen(t); w > 0 {
		im = first
		t = t[w:]
	} else {
		re = first
		if t != "" && (t[0] == '+' || t[0] == '-') {
			// A '+' joins the parts; a '-' doubles as the imaginary sign.
			if t[0] == '+' {
				t = t[1:]
			}
			m := p.floatPrefixLen(t)
			if m == 0 {
				return 0, fmt.Errorf("invalid complex %q", orig)
			}
			im, err = p.parseFloat(t[:m], 64)
			if err != nil {
				return 0, fmt.Errorf("invalid complex %q", orig)
			}
			t = t[m:]
			w := p.imagUnitLen(t)
			if w == 0 {
				return 0, fmt.Errorf("invalid complex %q", orig)
			}
			t = t[w:]
		}
	}

	if paren {
		if !strings.HasPrefix(t, ")") {
			return 0, fmt.Errorf("invalid complex %q", orig)
		}
		t = t[1:]
	}
	if t != "" {
		return 0, fmt.Errorf("invalid complex %q", orig)
	}
	return complex(re, im), nil
}

// imagUnitLen returns the byte length of the imaginary unit at the start of
// s, or 0 if absent.
func (p *fieldParser) imagUnitLen(s string) int {
	r, w := utf8.DecodeRuneInString(s)
	if r != utf8.RuneError && unicode.ToLower(r) == unicode.ToLower(p.imaginary) {
		return w
	}
	return 0
}

// floatPrefixLen returns the byte length of the longest float literal at
// the start of s, honoring the configured decimal and scientific
// characters. Zero means no float starts here.
func (p *fieldParser) floatPrefixLen(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		digits++
		i++
	}
	if r, w := utf8.DecodeRuneInString(s[i:]); r == p.decimal {
		j := i + w
		frac := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			frac++
			j++
		}
		if digits+frac > 0 {
			digits += frac
			i = j
		}
	}
	if digits == 0 {
		return 0
	}
	sci := unicode.ToLower(p.sci)
	if r, w := utf8.DecodeRuneInString(s[i:]); r != utf8.RuneError && unicode.ToLower(r) == sci {
		j := i + w
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			exp++
			j++
		}
		if exp > 0 {
			i = j
		}
	}
	return i
}

// encodeBytes converts s to its byte-string representation under the
// configured encoding. A character outside the encoding's repertoire is an
// error, never silently replaced.
func (p *fieldParser) encodeBytes(s string) ([]byte, error) {
	if p.encoder == nil {
		return []byte(s), nil
	}
	out, err := p.encoder.Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("cannot encode %q: %w", s, err)
	}
	return out, nil
}
