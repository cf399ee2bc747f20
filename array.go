package readtext

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// =============================================================================
// Array
// =============================================================================

// Array is the finalized result of a read: row records packed in a byte
// arena at the offsets of the flattened element type, plus object slots for
// fields with no fixed-width representation.
//
// A homogeneous scalar element type yields a two-dimensional rows x columns
// array; a structured element type yields a one-dimensional array of
// records whose columns are the flattened fields.
type Array struct {
	dtype     *DType
	leaves    []leaf
	rowBytes  int
	objPerRow int

	rows int
	data []byte
	objs []any
	twoD bool
}

// Len returns the number of rows.
func (a *Array) Len() int { return a.rows }

// Cols returns the number of columns: fields per row after flattening.
func (a *Array) Cols() int { return len(a.leaves) }

// DType returns the element type of the array.
func (a *Array) DType() *DType { return a.dtype }

// ColKind returns the kind of the given column.
func (a *Array) ColKind(col int) Kind {
	if col < 0 || col >= len(a.leaves) {
		panic(fmt.Sprintf("readtext: column index %d out of range [0,%d)", col, len(a.leaves)))
	}
	return a.leaves[col].kind
}

// Shape returns [rows, cols] for two-dimensional arrays and [rows] for
// one-dimensional ones.
func (a *Array) Shape() []int {
	if a.twoD {
		return []int{a.rows, len(a.leaves)}
	}
	return []int{a.rows}
}

func (a *Array) leafAt(row, col int) (*leaf, []byte) {
	if row < 0 || row >= a.rows {
		panic(fmt.Sprintf("readtext: row index %d out of range [0,%d)", row, a.rows))
	}
	if col < 0 || col >= len(a.leaves) {
		panic(fmt.Sprintf("readtext: column index %d out of range [0,%d)", col, len(a.leaves)))
	}
	return &a.leaves[col], a.data[row*a.rowBytes:]
}

func kindMismatch(l *leaf, want string) string {
	return fmt.Sprintf("readtext: field is %s, not %s", l.name(), want)
}

// BoolAt returns the boolean at (row, col). It panics if the field is not
// boolean or the indices are out of range, as the typed accessors below do
// for their kinds.
func (a *Array) BoolAt(row, col int) bool {
	l, rec := a.leafAt(row, col)
	if l.kind != KindBool {
		panic(kindMismatch(l, "bool"))
	}
	return rec[l.offset] != 0
}

// IntAt returns the signed integer at (row, col).
func (a *Array) IntAt(row, col int) int64 {
	l, rec := a.leafAt(row, col)
	if l.kind != KindInt {
		panic(kindMismatch(l, "int"))
	}
	u := loadUint(rec, l)
	// Sign-extend from the stored width.
	shift := uint(64 - l.byteSize*8)
	return int64(u<<shift) >> shift
}

// UintAt returns the unsigned integer at (row, col).
func (a *Array) UintAt(row, col int) uint64 {
	l, rec := a.leafAt(row, col)
	if l.kind != KindUint {
		panic(kindMismatch(l, "uint"))
	}
	return loadUint(rec, l)
}

// FloatAt returns the float at (row, col).
func (a *Array) FloatAt(row, col int) float64 {
	l, rec := a.leafAt(row, col)
	if l.kind != KindFloat {
		panic(kindMismatch(l, "float"))
	}
	if l.byteSize == 4 {
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[l.offset:])))
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(rec[l.offset:]))
}

// ComplexAt returns the complex number at (row, col).
func (a *Array) ComplexAt(row, col int) complex128 {
	l, rec := a.leafAt(row, col)
	if l.kind != KindComplex {
		panic(kindMismatch(l, "complex"))
	}
	if l.byteSize == 8 {
		re := math.Float32frombits(binary.LittleEndian.Uint32(rec[l.offset:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(rec[l.offset+4:]))
		return complex(float64(re), float64(im))
	}
	re := math.Float64frombits(binary.LittleEndian.Uint64(rec[l.offset:]))
	im := math.Float64frombits(binary.LittleEndian.Uint64(rec[l.offset+8:]))
	return complex(re, im)
}

// BytesAt returns the byte string at (row, col) with trailing NUL padding
// removed. The returned slice is a copy.
func (a *Array) BytesAt(row, col int) []byte {
	l, rec := a.leafAt(row, col)
	if l.kind != KindBytes {
		panic(kindMismatch(l, "bytes"))
	}
	b := rec[l.offset : l.offset+l.width]
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	out := make([]byte, end)
	copy(out, b[:end])
	return out
}

// StringAt returns the string at (row, col). It accepts byte-string,
// unicode and string-valued object fields.
func (a *Array) StringAt(row, col int) string {
	l, rec := a.leafAt(row, col)
	switch l.kind {
	case KindBytes:
		b := rec[l.offset : l.offset+l.width]
		end := len(b)
		for end > 0 && b[end-1] == 0 {
			end--
		}
		return string(b[:end])
	case KindUnicode:
		var sb strings.Builder
		for i := 0; i < l.width; i++ {
			c := binary.LittleEndian.Uint32(rec[l.offset+4*i:])
			if c == 0 {
				break
			}
			sb.WriteRune(rune(c))
		}
		return sb.String()
	case KindObject:
		if s, ok := a.objectAt(row, l).(string); ok {
			return s
		}
	}
	panic(kindMismatch(l, "string"))
}

// ObjectAt returns the object value at (row, col).
func (a *Array) ObjectAt(row, col int) any {
	l, _ := a.leafAt(row, col)
	if l.kind != KindObject {
		panic(kindMismatch(l, "object"))
	}
	return a.objectAt(row, l)
}

func (a *Array) objectAt(row int, l *leaf) any {
	return a.objs[row*a.objPerRow+l.objIndex]
}

func loadUint(rec []byte, l *leaf) uint64 {
	switch l.byteSize {
	case 1:
		return uint64(rec[l.offset])
	case 2:
		return uint64(binary.LittleEndian.Uint16(rec[l.offset:]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(rec[l.offset:]))
	default:
		return binary.LittleEndian.Uint64(rec[l.offset:])
	}
}

// =============================================================================
// Bulk Views
// =============================================================================

// Float64s returns the whole array as float64 rows. Every column must be
// boolean or numeric; complex columns are rejected.
func (a *Array) Float64s() [][]float64 {
	out := make([][]float64, a.rows)
	for r := 0; r < a.rows; r++ {
		row := make([]float64, len(a.leaves))
		for c := range a.leaves {
			l, rec := a.leafAt(r, c)
			switch l.kind {
			case KindBool:
				if rec[l.offset] != 0 {
					row[c] = 1
				}
			case KindInt:
				row[c] = float64(a.IntAt(r, c))
			case KindUint:
				row[c] = float64(a.UintAt(r, c))
			case KindFloat:
				row[c] = a.FloatAt(r, c)
			default:
				panic(kindMismatch(l, "float"))
			}
		}
		out[r] = row
	}
	return out
}

// Ints returns the whole array as int64 rows. Every column must be boolean
// or integer.
func (a *Array) Ints() [][]int64 {
	out := make([][]int64, a.rows)
	for r := 0; r < a.rows; r++ {
		row := make([]int64, len(a.leaves))
		for c := range a.leaves {
			l, rec := a.leafAt(r, c)
			switch l.kind {
			case KindBool:
				if rec[l.offset] != 0 {
					row[c] = 1
				}
			case KindInt:
				row[c] = a.IntAt(r, c)
			case KindUint:
				row[c] = int64(a.UintAt(r, c))
			default:
				panic(kindMismatch(l, "int"))
			}
		}
		out[r] = row
	}
	return out
}

// =============================================================================
// Shape Helpers
// =============================================================================

// Squeeze drops size-1 axes from a two-dimensional array: a single column
// becomes a plain sequence of its values, as does a single row. Other
// shapes are returned unchanged.
func (a *Array) Squeeze() *Array {
	if !a.twoD {
		return a
	}
	if len(a.leaves) == 1 {
		out := *a
		out.twoD = false
		return &out
	}
	if a.rows == 1 {
		out := a.transposed()
		out.twoD = false
		return out
	}
	return a
}

// AtLeast2D adds a leading axis to a one-dimensional array of values, so n
// values become one row of n columns. It applies only to homogeneous
// scalar element types; structured arrays keep their single record axis.
func (a *Array) AtLeast2D() *Array {
	if a.twoD || a.dtype.Fields != nil {
		return a
	}
	out := a.transposed()
	out.twoD = true
	return out
}

// transposed rebuilds a single-column array as a single row, or a
// single-row array as a single column. Only homogeneous layouts reach it.
func (a *Array) transposed() *Array {
	if len(a.leaves) == 1 {
		// n rows of one value become one row of n values.
		l := a.leaves[0]
		leaves := make([]leaf, a.rows)
		data := make([]byte, a.rows*l.byteSize)
		var objs []any
		objPerRow := 0
		if l.kind == KindObject {
			objPerRow = a.rows
			objs = make([]any, a.rows)
		}
		for i := 0; i < a.rows; i++ {
			leaves[i] = l
			leaves[i].offset = i * l.byteSize
			src := i*a.rowBytes + l.offset
			copy(data[i*l.byteSize:(i+1)*l.byteSize], a.data[src:src+l.byteSize])
			if objPerRow > 0 {
				leaves[i].objIndex = i
				objs[i] = a.objs[i*a.objPerRow+l.objIndex]
			}
		}
		return &Array{
			dtype:     a.dtype,
			leaves:    leaves,
			rowBytes:  a.rows * l.byteSize,
			objPerRow: objPerRow,
			rows:      1,
			data:      data,
			objs:      objs,
		}
	}

	// One row of n values becomes n rows of one value.
	n := len(a.leaves)
	base := a.leaves[0]
	col := leaf{kind: base.kind, width: base.width, byteSize: base.byteSize, objIndex: -1}
	objPerRow := 0
	var objs []any
	if base.kind == KindObject {
		col.objIndex = 0
		objPerRow = 1
		objs = make([]any, n)
	}
	data := make([]byte, n*base.byteSize)
	for i := 0; i < n; i++ {
		src := a.leaves[i].offset
		copy(data[i*base.byteSize:(i+1)*base.byteSize], a.data[src:src+base.byteSize])
		if objPerRow > 0 {
			objs[i] = a.objs[a.leaves[i].objIndex]
		}
	}
	return &Array{
		dtype:     a.dtype,
		leaves:    []leaf{col},
		rowBytes:  base.byteSize,
		objPerRow: objPerRow,
		rows:      n,
		data:      data,
		objs:      objs,
	}
}

// Unpack splits the array into one single-column array per column, in
// order. For a plain two-dimensional array this is its transpose; for a
// structured array it is the per-field columns.
func (a *Array) Unpack() []*Array {
	out := make([]*Array, len(a.leaves))
	for c := range a.leaves {
		src := a.leaves[c]
		col := leaf{kind: src.kind, width: src.width, byteSize: src.byteSize, objIndex: -1}
		objPerRow := 0
		if src.kind == KindObject {
			col.objIndex = 0
			objPerRow = 1
		}
		arr := &Array{
			dtype:     columnDType(&src),
			leaves:    []leaf{col},
			rowBytes:  src.byteSize,
			objPerRow: objPerRow,
			rows:      a.rows,
			data:      make([]byte, a.rows*src.byteSize),
			objs:      make([]any, a.rows*objPerRow),
		}
		for r := 0; r < a.rows; r++ {
			copy(arr.data[r*src.byteSize:(r+1)*src.byteSize],
				a.data[r*a.rowBytes+src.offset:r*a.rowBytes+src.offset+src.byteSize])
			if objPerRow == 1 {
				arr.objs[r] = a.objs[r*a.objPerRow+src.objIndex]
			}
		}
		out[c] = arr
	}
	return out
}

// columnDType rebuilds the scalar DType of a single leaf.
func columnDType(l *leaf) *DType {
	switch l.kind {
	case KindBytes, KindUnicode:
		return &DType{Kind: l.kind, Size: l.width}
	case KindObject:
		return &DType{Kind: KindObject}
	default:
		size := l.byteSize
		return &DType{Kind: l.kind, Size: size}
	}
}
