package readtext

import (
	"fmt"
	"strings"
)

// =============================================================================
// Element Kinds
// =============================================================================

// Kind identifies the category of a scalar field type.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindUint
	KindFloat
	KindComplex
	KindBytes   // fixed-width byte string
	KindUnicode // fixed-width unicode string
	KindObject  // arbitrary Go value, no width limit
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindComplex:
		return "complex"
	case KindBytes:
		return "bytes"
	case KindUnicode:
		return "unicode"
	case KindObject:
		return "object"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// =============================================================================
// DType
// =============================================================================

// DType describes the layout of one array element: either a scalar type or a
// structured record of named, typed sub-fields. A DType is built once and
// treated as read-only afterwards.
//
// For scalar numeric types Size is the storage size in bytes. For KindBytes
// it is the width in bytes and for KindUnicode the width in characters; a
// width of zero means "infer the width from the longest token in the data".
type DType struct {
	Kind    Kind
	Size    int
	Fields  []Field // non-nil for structured records
	Aligned bool    // pad struct fields to their natural alignment
}

// Field is one named member of a structured DType. A non-empty Shape turns
// the field into a fixed-size sub-array which flattens into one leaf per
// element in row-major order.
type Field struct {
	Name  string
	Type  *DType
	Shape []int
}

// Scalar type constructors.

func Bool() *DType       { return &DType{Kind: KindBool, Size: 1} }
func Int8() *DType       { return &DType{Kind: KindInt, Size: 1} }
func Int16() *DType      { return &DType{Kind: KindInt, Size: 2} }
func Int32() *DType      { return &DType{Kind: KindInt, Size: 4} }
func Int64() *DType      { return &DType{Kind: KindInt, Size: 8} }
func Uint8() *DType      { return &DType{Kind: KindUint, Size: 1} }
func Uint16() *DType     { return &DType{Kind: KindUint, Size: 2} }
func Uint32() *DType     { return &DType{Kind: KindUint, Size: 4} }
func Uint64() *DType     { return &DType{Kind: KindUint, Size: 8} }
func Float32() *DType    { return &DType{Kind: KindFloat, Size: 4} }
func Float64() *DType    { return &DType{Kind: KindFloat, Size: 8} }
func Complex64() *DType  { return &DType{Kind: KindComplex, Size: 8} }
func Complex128() *DType { return &DType{Kind: KindComplex, Size: 16} }

// Bytes returns a fixed-width byte-string type. A width of zero requests
// width inference from the data.
func Bytes(width int) *DType { return &DType{Kind: KindBytes, Size: width} }

// Unicode returns a fixed-width unicode string type. The width counts
// characters, not bytes; zero requests width inference.
func Unicode(width int) *DType { return &DType{Kind: KindUnicode, Size: width} }

// Object returns a type whose values are stored as arbitrary Go values with
// no width limit.
func Object() *DType { return &DType{Kind: KindObject} }

// StructOf returns a packed structured record type with the given fields in
// declaration order. The result is structured even with zero fields, never
// a scalar.
func StructOf(fields ...Field) *DType {
	return &DType{Fields: append([]Field{}, fields...)}
}

// AlignedStructOf returns a structured record type whose field offsets are
// padded to each field's natural alignment, as a C compiler would lay it out.
func AlignedStructOf(fields ...Field) *DType {
	return &DType{Fields: append([]Field{}, fields...), Aligned: true}
}

// String returns a compact description of the type, e.g. "float64", "S5",
// "U12" or "[a: int64, b: S5]".
func (dt *DType) String() string {
	if dt.Fields != nil {
		parts := make([]string, len(dt.Fields))
		for i, f := range dt.Fields {
			s := f.Name + ": " + f.Type.String()
			if len(f.Shape) > 0 {
				s += fmt.Sprintf(" %v", f.Shape)
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return scalarName(dt.Kind, dt.Size)
}

// scalarName formats a scalar kind/size pair the way error messages and
// tests refer to types.
func scalarName(kind Kind, size int) string {
	switch kind {
	case KindBool:
		return "bool"
	case KindInt:
		return fmt.Sprintf("int%d", size*8)
	case KindUint:
		return fmt.Sprintf("uint%d", size*8)
	case KindFloat:
		return fmt.Sprintf("float%d", size*8)
	case KindComplex:
		return fmt.Sprintf("complex%d", size*8)
	case KindBytes:
		return fmt.Sprintf("S%d", size)
	case KindUnicode:
		return fmt.Sprintf("U%d", size)
	case KindObject:
		return "object"
	}
	return kind.String()
}

// =============================================================================
// Flattening
// =============================================================================

// leaf is one indivisible scalar slot of a flattened DType: its kind, width,
// storage size and byte offset within the row record. Object leaves occupy a
// slot in the per-row object table instead of the byte buffer.
type leaf struct {
	kind     Kind
	width    int // bytes (KindBytes) or characters (KindUnicode); 0 = infer
	byteSize int // storage bytes within the row record
	offset   int
	objIndex int // index into the row's object slots, -1 otherwise
}

// name returns the scalar type name of the leaf for error messages.
func (l *leaf) name() string {
	switch l.kind {
	case KindBytes:
		return scalarName(l.kind, l.width)
	case KindUnicode:
		return scalarName(l.kind, l.width)
	default:
		return scalarName(l.kind, l.byteSize)
	}
}

// dtypePlan is the flattened, ordered leaf sequence of a requested DType,
// with the total record size and object slot count. It is built once per
// read call and read-only afterwards.
type dtypePlan struct {
	dtype       *DType
	leaves      []leaf
	rowBytes    int
	objPerRow   int
	homogeneous bool // scalar (non-struct) DType: one leaf broadcast over columns
}

// flattenDType builds the ordered leaf descriptor sequence for dt.
// Structured sub-fields are visited in declared order, sub-array fields
// expand row-major, and aligned layouts keep their padding: offsets follow
// the declared layout, not a repacked one.
func flattenDType(dt *DType) (*dtypePlan, error) {
	plan := &dtypePlan{dtype: dt, homogeneous: dt.Fields == nil}
	size, err := plan.walk(dt, nil, 0, dt.Aligned)
	if err != nil {
		return nil, err
	}
	if dt.Fields != nil && dt.Aligned {
		size = alignUp(size, structAlignment(dt))
	}
	plan.rowBytes = size
	return plan, nil
}

// walk appends the leaves of dt located at base offset and returns the byte
// size dt occupies.
func (p *dtypePlan) walk(dt *DType, shape []int, base int, aligned bool) (int, error) {
	count := 1
	for _, n := range shape {
		if n < 0 {
			return 0, configErrorf("negative sub-array dimension %d", n)
		}
		count *= n
	}

	if dt.Fields == nil {
		elem, err := scalarStorage(dt)
		if err != nil {
			return 0, err
		}
		off := base
		for i := 0; i < count; i++ {
			l := leaf{
				kind:     dt.Kind,
				byteSize: elem,
				offset:   off,
				objIndex: -1,
			}
			if dt.Kind == KindBytes || dt.Kind == KindUnicode {
				l.width = dt.Size
			}
			if dt.Kind == KindObject {
				l.objIndex = p.objPerRow
				p.objPerRow++
			}
			p.leaves = append(p.leaves, l)
			off += elem
		}
		return off - base, nil
	}

	// Structured record: lay fields out in declared order, repeated count
	// times for sub-array shapes.
	useAlign := aligned || dt.Aligned
	total := 0
	for i := 0; i < count; i++ {
		off := base + total
		start := off
		for _, f := range dt.Fields {
			if f.Type == nil {
				return 0, configErrorf("field %q has no type", f.Name)
			}
			if useAlign {
				off = start + alignUp(off-start, fieldAlignment(f.Type))
			}
			n, err := p.walk(f.Type, f.Shape, off, useAlign)
			if err != nil {
				return 0, err
			}
			off += n
		}
		sz := off - start
		if useAlign {
			sz = alignUp(sz, structAlignment(dt))
		}
		total += sz
	}
	return total, nil
}

// scalarStorage returns the record storage size in bytes for a scalar DType.
// Unicode characters are stored as UCS-4, object values outside the byte
// buffer.
func scalarStorage(dt *DType) (int, error) {
	switch dt.Kind {
	case KindBool:
		return 1, nil
	case KindInt, KindUint:
		switch dt.Size {
		case 1, 2, 4, 8:
			return dt.Size, nil
		}
		return 0, configErrorf("unsupported %s size %d", dt.Kind, dt.Size)
	case KindFloat:
		switch dt.Size {
		case 4, 8:
			return dt.Size, nil
		}
		return 0, configErrorf("unsupported float size %d", dt.Size)
	case KindComplex:
		switch dt.Size {
		case 8, 16:
			return dt.Size, nil
		}
		return 0, configErrorf("unsupported complex size %d", dt.Size)
	case KindBytes:
		if dt.Size < 0 {
			return 0, configErrorf("negative byte-string width %d", dt.Size)
		}
		return dt.Size, nil
	case KindUnicode:
		if dt.Size < 0 {
			return 0, configErrorf("negative unicode width %d", dt.Size)
		}
		return dt.Size * 4, nil
	case KindObject:
		return 0, nil
	}
	return 0, configErrorf("unknown kind %v", dt.Kind)
}

// fieldAlignment returns the natural alignment of a DType for aligned
// structured layouts.
func fieldAlignment(dt *DType) int {
	if dt.Fields != nil {
		return structAlignment(dt)
	}
	switch dt.Kind {
	case KindBool, KindBytes, KindObject:
		return 1
	case KindUnicode:
		return 4
	case KindComplex:
		return 8
	default:
		a := dt.Size
		if a > 8 {
			a = 8
		}
		if a < 1 {
			a = 1
		}
		return a
	}
}

// structAlignment is the maximum alignment of the struct's fields.
func structAlignment(dt *DType) int {
	a := 1
	for _, f := range dt.Fields {
		if fa := fieldAlignment(f.Type); fa > a {
			a = fa
		}
	}
	return a
}

// alignUp rounds n up to the next multiple of align.
func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// =============================================================================
// Width Filling
// =============================================================================

// measureNodeWidths folds per-leaf measured widths back onto the DType
// nodes they came from, taking the maximum when a node expands to several
// leaves (sub-array shapes, shared node pointers). widths is indexed in
// flatten order.
func measureNodeWidths(dt *DType, widths []int) map[*DType]int {
	m := make(map[*DType]int)
	cur := 0
	measureWalk(dt, nil, widths, &cur, m)
	return m
}

func measureWalk(dt *DType, shape []int, widths []int, cur *int, m map[*DType]int) {
	count := 1
	for _, n := range shape {
		count *= n
	}
	if dt.Fields == nil {
		for i := 0; i < count; i++ {
			if (dt.Kind == KindBytes || dt.Kind == KindUnicode) && dt.Size == 0 {
				if *cur < len(widths) && widths[*cur] > m[dt] {
					m[dt] = widths[*cur]
				}
			}
			*cur++
		}
		return
	}
	for i := 0; i < count; i++ {
		for _, f := range dt.Fields {
			measureWalk(f.Type, f.Shape, widths, cur, m)
		}
	}
}

// cloneWithWidths copies dt, substituting measured widths for zero-width
// string nodes. Unmeasured zero-width nodes get width 1 so the result is
// always storable.
func cloneWithWidths(dt *DType, m map[*DType]int) *DType {
	if dt.Fields == nil {
		out := *dt
		if (out.Kind == KindBytes || out.Kind == KindUnicode) && out.Size == 0 {
			out.Size = m[dt]
			if out.Size < 1 {
				out.Size = 1
			}
		}
		return &out
	}
	out := *dt
	out.Fields = append([]Field{}, dt.Fields...)
	for i := range out.Fields {
		out.Fields[i].Type = cloneWithWidths(dt.Fields[i].Type, m)
	}
	return &out
}

// needsWidthInference reports whether any string leaf of the plan has an
// unset width, which requires a buffered pass over the data.
func (p *dtypePlan) needsWidthInference() bool {
	for i := range p.leaves {
		l := &p.leaves[i]
		if (l.kind == KindBytes || l.kind == KindUnicode) && l.width == 0 {
			return true
		}
	}
	return false
}
