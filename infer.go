package readtext

import (
	"strconv"
	"unicode/utf8"
)

// =============================================================================
// Type Inference
// =============================================================================

// Promotion levels for inferred column types, narrowest first. A column
// settles on the highest level any of its tokens requires.
const (
	levelBool = iota
	levelInt
	levelUint
	levelFloat
	levelComplex
	levelString
	levelObject
)

// cell is one buffered field value during an inference or width-measuring
// pass: either raw text still to be parsed, or a finished value produced by
// a user converter.
type cell struct {
	text     string
	direct   any
	isDirect bool
}

// colInfo accumulates what has been seen in one column.
type colInfo struct {
	level    int
	maxChars int  // width in characters, for unicode output
	maxBytes int  // width under the byte encoding, for byte-string output
	bytesOK  bool // every token encodes under the byte encoding
}

// inferState classifies buffered cells column by column and produces the
// element type of the result.
type inferState struct {
	parser *fieldParser
	cols   []colInfo
}

func newInferState(parser *fieldParser, ncols int) *inferState {
	st := &inferState{parser: parser, cols: make([]colInfo, ncols)}
	for i := range st.cols {
		st.cols[i].bytesOK = true
	}
	return st
}

// observe folds one cell into its column's accumulated level and widths.
func (st *inferState) observe(col int, c cell) {
	info := &st.cols[col]
	var level int
	var text string
	if c.isDirect {
		level, text = classifyDirect(c.direct)
	} else {
		// Classification ignores surrounding whitespace; width tracking
		// must not, since the stored string keeps it.
		text = c.text
		level = st.classifyText(trimSpaces(c.text))
	}
	if level > info.level {
		info.level = level
	}
	if n := utf8.RuneCountInString(text); n > info.maxChars {
		info.maxChars = n
	}
	if info.bytesOK {
		if b, err := st.parser.encodeBytes(text); err != nil {
			info.bytesOK = false
		} else if len(b) > info.maxBytes {
			info.maxBytes = len(b)
		}
	}
}

// classifyText returns the narrowest level that can represent the trimmed
// token.
func (st *inferState) classifyText(t string) int {
	switch t {
	case "0", "1":
		return levelBool
	}
	if _, ok := parseIntDigits(t, 64); ok {
		return levelInt
	}
	// Non-negative integers beyond int64 still fit an unsigned column.
	if _, ok := parseUintDigits(t, 64); ok {
		return levelUint
	}
	if _, err := st.parser.parseFloat(t, 64); err == nil {
		return levelFloat
	}
	if _, err := st.parser.parseComplex(t); err == nil {
		return levelComplex
	}
	return levelString
}

// classifyDirect maps a converter-produced value to a level, plus the text
// used for width tracking when the value is a string.
func classifyDirect(v any) (int, string) {
	switch v := v.(type) {
	case bool:
		return levelBool, ""
	case int, int8, int16, int32, int64:
		return levelInt, ""
	case uint, uint8, uint16, uint32, uint64:
		return levelUint, ""
	case float32, float64:
		return levelFloat, ""
	case complex64, complex128:
		return levelComplex, ""
	case string:
		return levelString, v
	default:
		return levelObject, ""
	}
}

// result builds the element type the buffered data calls for. Columns that
// all sit at numeric levels promote together to the highest level reached,
// so a matrix of mixed integer and float literals stays a homogeneous float
// array. A structured record with fields f0..fN appears only when a string
// or object column disagrees with the rest.
//
// String columns come out as byte strings at their encoded width; a column
// holding a character the byte encoding cannot represent falls back to a
// unicode column at its character width.
func (st *inferState) result() *DType {
	if len(st.cols) == 0 {
		return StructOf()
	}
	uniform := true
	maxLevel := st.cols[0].level
	for i := 1; i < len(st.cols); i++ {
		if st.cols[i].level != st.cols[0].level {
			uniform = false
		}
		if st.cols[i].level > maxLevel {
			maxLevel = st.cols[i].level
		}
	}
	if maxLevel <= levelComplex {
		return scalarLevelDType(maxLevel)
	}
	if uniform && maxLevel == levelString {
		// A shared string level still needs a shared representation and
		// width before the array can be homogeneous.
		bytesOK := true
		maxBytes, maxChars := 0, 0
		for i := range st.cols {
			bytesOK = bytesOK && st.cols[i].bytesOK
			if st.cols[i].maxBytes > maxBytes {
				maxBytes = st.cols[i].maxBytes
			}
			if st.cols[i].maxChars > maxChars {
				maxChars = st.cols[i].maxChars
			}
		}
		return stringDType(bytesOK, maxBytes, maxChars)
	}
	if uniform {
		return scalarLevelDType(maxLevel)
	}

	fields := make([]Field, len(st.cols))
	for i := range st.cols {
		info := &st.cols[i]
		var dt *DType
		if info.level == levelString {
			dt = stringDType(info.bytesOK, info.maxBytes, info.maxChars)
		} else {
			dt = scalarLevelDType(info.level)
		}
		fields[i] = Field{Name: fieldName(i), Type: dt}
	}
	return StructOf(fields...)
}

func scalarLevelDType(level int) *DType {
	switch level {
	case levelBool:
		return Bool()
	case levelInt:
		return Int64()
	case levelUint:
		return Uint64()
	case levelFloat:
		return Float64()
	case levelComplex:
		return Complex128()
	case levelObject:
		return Object()
	}
	return Float64()
}

func stringDType(bytesOK bool, maxBytes, maxChars int) *DType {
	if bytesOK {
		if maxBytes < 1 {
			maxBytes = 1
		}
		return Bytes(maxBytes)
	}
	if maxChars < 1 {
		maxChars = 1
	}
	return Unicode(maxChars)
}

// fieldName returns the generated name of inferred column i.
func fieldName(i int) string {
	return "f" + strconv.Itoa(i)
}
