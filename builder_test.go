package readtext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitialRowCapacity(t *testing.T) {
	tests := []struct {
		rowBytes int
		want     int
	}{
		{0, 512},
		{1, 8192},
		{8, 1024},
		{24, 512},
		{8192, 1},
		{10000, 1},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, initialRowCapacity(tt.rowBytes), "rowBytes %d", tt.rowBytes)
	}
}

func TestRowBuilderGrowthAndTrim(t *testing.T) {
	b := newRowBuilder(4, 0, -1)
	start := b.cap
	total := start*2 + 3
	for i := 0; i < total; i++ {
		rec, _ := b.appendRow()
		rec[0] = byte(i)
	}
	require.Greater(t, b.cap, start)

	data, _, rows := b.finalize()
	require.Equal(t, total, rows)
	require.Len(t, data, total*4)
	for i := 0; i < total; i++ {
		require.Equal(t, byte(i), data[i*4])
	}
}

func TestRowBuilderExactAllocation(t *testing.T) {
	b := newRowBuilder(8, 1, 3)
	require.Equal(t, 3, b.cap)
	for i := 0; i < 3; i++ {
		rec, objs := b.appendRow()
		require.Len(t, rec, 8)
		objs[0] = i
	}
	data, objs, rows := b.finalize()
	require.Equal(t, 3, rows)
	require.Len(t, data, 24)
	require.Equal(t, []any{0, 1, 2}, objs)
}

func TestRowBuilderDiscardClearsObjects(t *testing.T) {
	b := newRowBuilder(0, 1, -1)
	_, objs := b.appendRow()
	objs[0] = "held"
	held := b.objs
	b.discard()
	require.Equal(t, 0, b.rows)
	require.Nil(t, b.objs)
	for _, v := range held {
		require.Nil(t, v)
	}
}

func TestRowBuilderZeroRowBytes(t *testing.T) {
	b := newRowBuilder(0, 0, -1)
	for i := 0; i < 600; i++ {
		b.appendRow()
	}
	data, _, rows := b.finalize()
	require.Equal(t, 600, rows)
	require.Empty(t, data)
}
