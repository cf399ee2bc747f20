package readtext

import (
	"encoding/binary"
	"math"
)

// =============================================================================
// Row Arena
// =============================================================================

// minBlockBytes is the smallest allocation the arena starts from when the
// total row count is unknown.
const minBlockBytes = 8 * 1024

// rowBuilder accumulates fixed-size row records in a growable byte arena,
// with a parallel table of object slots for fields stored outside the byte
// buffer. Growth doubles the row capacity; finalize trims the excess.
type rowBuilder struct {
	rowBytes  int
	objPerRow int

	data []byte
	objs []any
	rows int
	cap  int
}

// newRowBuilder sizes the arena. A non-negative maxRows preallocates
// exactly that many rows; otherwise the initial capacity is the smallest
// power-of-two row count whose records fill at least one minimum block.
func newRowBuilder(rowBytes, objPerRow, maxRows int) *rowBuilder {
	b := &rowBuilder{rowBytes: rowBytes, objPerRow: objPerRow}
	if maxRows >= 0 {
		b.cap = maxRows
	} else {
		b.cap = initialRowCapacity(rowBytes)
	}
	b.data = make([]byte, b.cap*rowBytes)
	b.objs = make([]any, b.cap*objPerRow)
	return b
}

// initialRowCapacity returns the power-of-two row count closest to one
// minimum block.
func initialRowCapacity(rowBytes int) int {
	if rowBytes <= 0 {
		return 512
	}
	n := 1
	for n*rowBytes < minBlockBytes {
		n *= 2
	}
	return n
}

// appendRow reserves the next row and returns its record bytes and object
// slots. The record is zeroed.
func (b *rowBuilder) appendRow() ([]byte, []any) {
	if b.rows == b.cap {
		b.grow()
	}
	r := b.rows
	b.rows++
	rec := b.data[r*b.rowBytes : (r+1)*b.rowBytes]
	objs := b.objs[r*b.objPerRow : (r+1)*b.objPerRow]
	return rec, objs
}

func (b *rowBuilder) grow() {
	newCap := b.cap * 2
	if newCap == 0 {
		newCap = initialRowCapacity(b.rowBytes)
	}
	data := make([]byte, newCap*b.rowBytes)
	copy(data, b.data)
	objs := make([]any, newCap*b.objPerRow)
	copy(objs, b.objs)
	b.data = data
	b.objs = objs
	b.cap = newCap
}

// discard drops everything built so far and releases the object references
// held by the arena.
func (b *rowBuilder) discard() {
	for i := range b.objs {
		b.objs[i] = nil
	}
	b.data = nil
	b.objs = nil
	b.rows = 0
	b.cap = 0
}

// finalize trims the arena to the rows actually written and hands the
// storage over. The builder must not be used afterwards.
func (b *rowBuilder) finalize() (data []byte, objs []any, rows int) {
	data = b.data[:b.rows*b.rowBytes]
	objs = b.objs[:b.rows*b.objPerRow]
	rows = b.rows
	b.data = nil
	b.objs = nil
	return data, objs, rows
}

// =============================================================================
// Record Encoding
// =============================================================================

// The store functions write one converted value into a row record at the
// leaf's offset, little endian.

func storeBool(rec []byte, l *leaf, v bool) {
	if v {
		rec[l.offset] = 1
	} else {
		rec[l.offset] = 0
	}
}

func storeInt(rec []byte, l *leaf, v int64) {
	storeUint(rec, l, uint64(v))
}

func storeUint(rec []byte, l *leaf, v uint64) {
	switch l.byteSize {
	case 1:
		rec[l.offset] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(rec[l.offset:], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(rec[l.offset:], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(rec[l.offset:], v)
	}
}

func storeFloat(rec []byte, l *leaf, v float64) {
	if l.byteSize == 4 {
		binary.LittleEndian.PutUint32(rec[l.offset:], math.Float32bits(float32(v)))
	} else {
		binary.LittleEndian.PutUint64(rec[l.offset:], math.Float64bits(v))
	}
}

func storeComplex(rec []byte, l *leaf, v complex128) {
	if l.byteSize == 8 {
		binary.LittleEndian.PutUint32(rec[l.offset:], math.Float32bits(float32(real(v))))
		binary.LittleEndian.PutUint32(rec[l.offset+4:], math.Float32bits(float32(imag(v))))
	} else {
		binary.LittleEndian.PutUint64(rec[l.offset:], math.Float64bits(real(v)))
		binary.LittleEndian.PutUint64(rec[l.offset+8:], math.Float64bits(imag(v)))
	}
}

// storeBytes copies an encoded byte string into the record, truncated to
// the leaf width and NUL-padded.
func storeBytes(rec []byte, l *leaf, b []byte) {
	dst := rec[l.offset : l.offset+l.width]
	n := copy(dst, b)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// storeUnicode copies a string into the record as UCS-4 code points,
// truncated to the leaf width in characters and NUL-padded.
func storeUnicode(rec []byte, l *leaf, s string) {
	off := l.offset
	n := 0
	for _, r := range s {
		if n == l.width {
			break
		}
		binary.LittleEndian.PutUint32(rec[off:], uint32(r))
		off += 4
		n++
	}
	for ; n < l.width; n++ {
		binary.LittleEndian.PutUint32(rec[off:], 0)
		off += 4
	}
}
