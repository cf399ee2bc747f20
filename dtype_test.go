package readtext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlattenScalar(t *testing.T) {
	plan, err := flattenDType(Float64())
	require.NoError(t, err)
	require.True(t, plan.homogeneous)
	require.Len(t, plan.leaves, 1)
	require.Equal(t, 8, plan.rowBytes)
	require.Equal(t, KindFloat, plan.leaves[0].kind)
	require.Equal(t, 0, plan.objPerRow)
}

func TestFlattenPackedStruct(t *testing.T) {
	dt := StructOf(
		Field{Name: "a", Type: Int8()},
		Field{Name: "b", Type: Float64()},
		Field{Name: "c", Type: Int16()},
	)
	plan, err := flattenDType(dt)
	require.NoError(t, err)
	require.False(t, plan.homogeneous)
	require.Equal(t, 11, plan.rowBytes)
	require.Equal(t, []int{0, 1, 9}, leafOffsets(plan))
}

func TestFlattenAlignedStruct(t *testing.T) {
	dt := AlignedStructOf(
		Field{Name: "a", Type: Int8()},
		Field{Name: "b", Type: Float64()},
		Field{Name: "c", Type: Int16()},
	)
	plan, err := flattenDType(dt)
	require.NoError(t, err)
	// Field b is padded to 8-byte alignment and the record size rounds up
	// to the struct alignment.
	require.Equal(t, []int{0, 8, 16}, leafOffsets(plan))
	require.Equal(t, 24, plan.rowBytes)
}

func TestFlattenSubArrayShape(t *testing.T) {
	dt := StructOf(
		Field{Name: "a", Type: Int32()},
		Field{Name: "b", Type: Float64(), Shape: []int{2}},
	)
	plan, err := flattenDType(dt)
	require.NoError(t, err)
	require.Len(t, plan.leaves, 3)
	require.Equal(t, []int{0, 4, 12}, leafOffsets(plan))
	require.Equal(t, 20, plan.rowBytes)
	require.Equal(t, KindFloat, plan.leaves[1].kind)
	require.Equal(t, KindFloat, plan.leaves[2].kind)
}

func TestFlattenNestedStruct(t *testing.T) {
	inner := StructOf(
		Field{Name: "x", Type: Int16()},
		Field{Name: "y", Type: Int16()},
	)
	dt := StructOf(
		Field{Name: "p", Type: inner, Shape: []int{2}},
		Field{Name: "q", Type: Bool()},
	)
	plan, err := flattenDType(dt)
	require.NoError(t, err)
	require.Len(t, plan.leaves, 5)
	require.Equal(t, []int{0, 2, 4, 6, 8}, leafOffsets(plan))
	require.Equal(t, 9, plan.rowBytes)
}

func TestFlattenStringsAndObjects(t *testing.T) {
	dt := StructOf(
		Field{Name: "s", Type: Bytes(5)},
		Field{Name: "u", Type: Unicode(3)},
		Field{Name: "o", Type: Object()},
	)
	plan, err := flattenDType(dt)
	require.NoError(t, err)
	require.Equal(t, 5+12, plan.rowBytes)
	require.Equal(t, 1, plan.objPerRow)
	require.Equal(t, 5, plan.leaves[0].width)
	require.Equal(t, 3, plan.leaves[1].width)
	require.Equal(t, 12, plan.leaves[1].byteSize)
	require.Equal(t, 0, plan.leaves[2].objIndex)
}

func TestFlattenEmptyStruct(t *testing.T) {
	plan, err := flattenDType(StructOf())
	require.NoError(t, err)
	require.Empty(t, plan.leaves)
	require.Equal(t, 0, plan.rowBytes)
}

func TestFlattenRejectsBadSizes(t *testing.T) {
	_, err := flattenDType(&DType{Kind: KindInt, Size: 3})
	require.Error(t, err)
	_, err = flattenDType(Bytes(-1))
	require.Error(t, err)
	_, err = flattenDType(StructOf(Field{Name: "a", Type: Int8(), Shape: []int{-2}}))
	require.Error(t, err)
}

func TestDTypeString(t *testing.T) {
	require.Equal(t, "float64", Float64().String())
	require.Equal(t, "S5", Bytes(5).String())
	require.Equal(t, "U12", Unicode(12).String())
	require.Equal(t, "object", Object().String())
	dt := StructOf(
		Field{Name: "a", Type: Int64()},
		Field{Name: "b", Type: Bytes(5)},
	)
	require.Equal(t, "[a: int64, b: S5]", dt.String())
}

func TestCloneWithWidths(t *testing.T) {
	s := Bytes(0)
	dt := StructOf(
		Field{Name: "a", Type: s},
		Field{Name: "b", Type: Int64()},
	)
	widths := []int{7, 0}
	out := cloneWithWidths(dt, measureNodeWidths(dt, widths))
	require.Equal(t, 7, out.Fields[0].Type.Size)
	require.Equal(t, 0, s.Size, "original must stay untouched")

	// Unmeasured zero widths become 1 so the result is storable.
	out = cloneWithWidths(Unicode(0), measureNodeWidths(Unicode(0), []int{0}))
	require.Equal(t, 1, out.Size)
}

func leafOffsets(plan *dtypePlan) []int {
	out := make([]int, len(plan.leaves))
	for i := range plan.leaves {
		out[i] = plan.leaves[i].offset
	}
	return out
}
