package readtext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func observeRows(t *testing.T, rows [][]string) *inferState {
	t.Helper()
	st := newInferState(defaultParser(), len(rows[0]))
	for _, row := range rows {
		for j, text := range row {
			st.observe(j, cell{text: text})
		}
	}
	return st
}

func TestInferHomogeneousLevels(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want string
	}{
		{"all zeros and ones", [][]string{{"0", "1"}, {"1", "0"}}, "bool"},
		{"integers", [][]string{{"1", "2"}, {"3", "-4"}}, "int64"},
		{"int promotes past bool", [][]string{{"0", "1"}, {"2", "1"}}, "int64"},
		{"uint when int64 overflows", [][]string{{"9223372036854775808"}}, "uint64"},
		{"floats", [][]string{{"1.5", "2"}, {"3", "4.25"}}, "float64"},
		{"scientific is float", [][]string{{"1e3"}}, "float64"},
		{"complex", [][]string{{"1+2j"}}, "complex128"},
		{"strings", [][]string{{"alpha", "beta"}}, "S5"},
		{"numeric columns promote together", [][]string{{"7", "2.5"}, {"8", "3"}}, "float64"},
		{"bool and int columns promote", [][]string{{"1", "2", "3"}}, "int64"},
		{"complex wins over float column", [][]string{{"1.5", "2j"}}, "complex128"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := observeRows(t, tt.rows).result()
			require.Equal(t, tt.want, dt.String())
		})
	}
}

func TestInferMixedColumnsAreStructured(t *testing.T) {
	dt := observeRows(t, [][]string{
		{"1", "alpha", "2.5"},
		{"3", "beta", "4"},
	}).result()
	require.Equal(t, "[f0: int64, f1: S5, f2: float64]", dt.String())
}

func TestInferStringWidthKeepsWhitespace(t *testing.T) {
	st := newInferState(defaultParser(), 1)
	st.observe(0, cell{text: " padded "})
	dt := st.result()
	require.Equal(t, "S8", dt.String())
}

func TestInferUnicodeFallback(t *testing.T) {
	// A token the byte encoding cannot represent pushes the column to a
	// unicode type at its character width.
	dt := observeRows(t, [][]string{{"日本"}, {"ab"}}).result()
	require.Equal(t, "U2", dt.String())
}

func TestInferDirectValues(t *testing.T) {
	st := newInferState(defaultParser(), 2)
	st.observe(0, cell{direct: int64(5), isDirect: true})
	st.observe(0, cell{text: "7"})
	st.observe(1, cell{direct: 2.5, isDirect: true})
	st.observe(1, cell{text: "1"})
	dt := st.result()
	require.Equal(t, "float64", dt.String())
}

func TestInferDirectStringKeepsStructured(t *testing.T) {
	st := newInferState(defaultParser(), 2)
	st.observe(0, cell{direct: int64(5), isDirect: true})
	st.observe(1, cell{direct: "alpha", isDirect: true})
	dt := st.result()
	require.Equal(t, "[f0: int64, f1: S5]", dt.String())
}

func TestInferDirectUnknownTypeBecomesObject(t *testing.T) {
	st := newInferState(defaultParser(), 1)
	st.observe(0, cell{direct: struct{ x int }{1}, isDirect: true})
	dt := st.result()
	require.Equal(t, "object", dt.String())
}

func TestInferEmptyTokenIsString(t *testing.T) {
	dt := observeRows(t, [][]string{{"", "1"}}).result()
	require.Equal(t, "[f0: S1, f1: bool]", dt.String())
}
