package readtext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArrayTypedAccessors(t *testing.T) {
	r := NewReader()
	r.Type = StructOf(
		Field{Name: "b", Type: Bool()},
		Field{Name: "i", Type: Int16()},
		Field{Name: "u", Type: Uint8()},
		Field{Name: "f", Type: Float32()},
		Field{Name: "z", Type: Complex64()},
		Field{Name: "s", Type: Bytes(4)},
	)
	arr, err := r.ReadString("1,-12,200,1.5,2+3j,abcd\n")
	require.NoError(t, err)

	require.True(t, arr.BoolAt(0, 0))
	require.Equal(t, int64(-12), arr.IntAt(0, 1))
	require.Equal(t, uint64(200), arr.UintAt(0, 2))
	require.Equal(t, 1.5, arr.FloatAt(0, 3))
	require.Equal(t, complex(float64(float32(2)), float64(float32(3))), arr.ComplexAt(0, 4))
	require.Equal(t, []byte("abcd"), arr.BytesAt(0, 5))
	require.Equal(t, "abcd", arr.StringAt(0, 5))
	require.Equal(t, KindComplex, arr.ColKind(4))
}

func TestArrayAccessorPanics(t *testing.T) {
	arr, err := NewReader().ReadString("1,2\n")
	require.NoError(t, err)
	require.Panics(t, func() { arr.IntAt(1, 0) })
	require.Panics(t, func() { arr.IntAt(0, 2) })
	require.Panics(t, func() { arr.FloatAt(0, 0) })
	require.Panics(t, func() { arr.StringAt(0, 0) })
}

func TestArrayBytesPaddingTrimmed(t *testing.T) {
	r := NewReader()
	r.Type = Bytes(8)
	arr, err := r.ReadString("ab\n")
	require.NoError(t, err)
	require.Equal(t, []byte("ab"), arr.BytesAt(0, 0))
	require.Equal(t, "ab", arr.StringAt(0, 0))
}

func TestArrayNegativeIntsAcrossWidths(t *testing.T) {
	for _, dt := range []*DType{Int8(), Int16(), Int32(), Int64()} {
		r := NewReader()
		r.Type = dt
		arr, err := r.ReadString("-5\n")
		require.NoError(t, err, dt.String())
		require.Equal(t, int64(-5), arr.IntAt(0, 0), dt.String())
	}
}

func TestArrayUnpackTransposesPlain2D(t *testing.T) {
	arr, err := NewReader().ReadString("1,2\n3,4\n5,6\n")
	require.NoError(t, err)
	cols := arr.Unpack()
	require.Len(t, cols, 2)
	require.Equal(t, 3, cols[0].Len())
	require.Equal(t, [][]int64{{1}, {3}, {5}}, cols[0].Ints())
	require.Equal(t, [][]int64{{2}, {4}, {6}}, cols[1].Ints())
}

func TestArrayUnpackObjects(t *testing.T) {
	r := NewReader()
	r.Type = Object()
	arr, err := r.ReadString("a,b\nc,d\n")
	require.NoError(t, err)
	cols := arr.Unpack()
	require.Equal(t, "a", cols[0].ObjectAt(0, 0))
	require.Equal(t, "d", cols[1].ObjectAt(1, 0))
}
