package readtext

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

// =============================================================================
// Line Sources
// =============================================================================

// LineSource supplies input one line at a time, without line terminators.
// ReadLine returns io.EOF when the input is exhausted.
type LineSource interface {
	ReadLine() (string, error)
}

// linesSource iterates over a fixed slice of lines.
type linesSource struct {
	lines []string
	pos   int
}

// LinesSource returns a LineSource over the given lines. Trailing "\n" or
// "\r\n" terminators on the items are removed.
func LinesSource(lines []string) LineSource {
	return &linesSource{lines: lines}
}

func (s *linesSource) ReadLine() (string, error) {
	if s.pos >= len(s.lines) {
		return "", io.EOF
	}
	line := trimLineEnding(s.lines[s.pos])
	s.pos++
	return line, nil
}

// valuesSource iterates over arbitrary items that must all be strings.
// Non-string items abort the read with ErrNonString; generators handed in
// by callers are not validated up front.
type valuesSource struct {
	items []any
	pos   int
}

// ValuesSource returns a LineSource over a sequence of values. Each item
// must be a string; any other type yields an error naming the offending
// item when it is reached.
func ValuesSource(items []any) LineSource {
	return &valuesSource{items: items}
}

func (s *valuesSource) ReadLine() (string, error) {
	if s.pos >= len(s.items) {
		return "", io.EOF
	}
	item := s.items[s.pos]
	s.pos++
	line, ok := item.(string)
	if !ok {
		return "", fmt.Errorf("%w (got %T at item %d)", ErrNonString, item, s.pos-1)
	}
	return trimLineEnding(line), nil
}

// FuncSource adapts a function to a LineSource.
type FuncSource func() (string, error)

func (f FuncSource) ReadLine() (string, error) { return f() }

// scannerSource reads lines from an io.Reader.
type scannerSource struct {
	sc *bufio.Scanner
}

// maxLineBytes bounds a single input line. Rows of wide numeric data stay
// far below this; truly unbounded lines would hold the whole read hostage.
const maxLineBytes = 1 << 26

// NewScannerSource returns a LineSource reading UTF-8 lines from r.
// "\r\n" endings are handled.
func NewScannerSource(r io.Reader) LineSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &scannerSource{sc: sc}
}

func (s *scannerSource) ReadLine() (string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSuffix(s.sc.Text(), "\r"), nil
}

// NewDecodingSource returns a LineSource that decodes r from the named
// character encoding before splitting lines. Empty name and utf-8 aliases
// skip decoding. Unknown names are a configuration error.
func NewDecodingSource(r io.Reader, name string) (LineSource, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	if enc != nil {
		r = transform.NewReader(r, enc.NewDecoder())
	}
	return NewScannerSource(r), nil
}

// fileSource owns the file handle behind a scanner source.
type fileSource struct {
	LineSource
	f *os.File
}

func (s *fileSource) Close() error { return s.f.Close() }

// openFileSource opens path and returns a closable LineSource decoding the
// named encoding.
func openFileSource(path, encodingName string) (*fileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	src, err := NewDecodingSource(f, encodingName)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileSource{LineSource: src, f: f}, nil
}

// lookupEncoding resolves an encoding name through the IANA registry.
// It returns nil for UTF-8, which needs no transformation. The common
// latin-1 spellings are resolved directly; the IANA registry does not list
// them all as aliases.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin-1", "latin1", "l1", "iso-8859-1", "iso8859-1":
		return charmap.ISO8859_1, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, configErrorf("unknown encoding %q", name)
	}
	return enc, nil
}

// trimLineEnding removes one trailing "\n" or "\r\n".
func trimLineEnding(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// =============================================================================
// Comment Stripping
// =============================================================================

// commentStripper removes everything from the earliest comment marker
// onward on each line. It backs the multi-marker and multi-character
// comment configurations, which the inline tokenizer cannot express, and
// is only used when quoting is disabled.
type commentStripper struct {
	src     LineSource
	markers []string
}

// stripComments wraps src so each line is truncated at the earliest
// occurrence of any marker.
func stripComments(src LineSource, markers []string) LineSource {
	return &commentStripper{src: src, markers: markers}
}

func (c *commentStripper) ReadLine() (string, error) {
	line, err := c.src.ReadLine()
	if err != nil {
		return "", err
	}
	cut := -1
	for _, m := range c.markers {
		if m == "" {
			continue
		}
		if i := strings.Index(line, m); i >= 0 && (cut < 0 || i < cut) {
			cut = i
		}
	}
	if cut >= 0 {
		line = line[:cut]
	}
	return line, nil
}
