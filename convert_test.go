package readtext

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func defaultParser() *fieldParser {
	return &fieldParser{
		decimal:   '.',
		sci:       'E',
		imaginary: 'j',
		encoder:   charmap.ISO8859_1.NewEncoder(),
	}
}

func TestParseBool(t *testing.T) {
	p := defaultParser()
	v, err := p.parseBool(" 1 ")
	require.NoError(t, err)
	require.True(t, v)

	v, err = p.parseBool("0")
	require.NoError(t, err)
	require.False(t, v)

	for _, bad := range []string{"", "2", "true", "True", "-1", "01"} {
		_, err := p.parseBool(bad)
		require.Error(t, err, "input %q", bad)
	}
}

func TestParseInt(t *testing.T) {
	p := defaultParser()
	tests := []struct {
		in   string
		bits int
		want int64
	}{
		{"0", 64, 0},
		{"-37", 64, -37},
		{"+12", 64, 12},
		{" 5 ", 64, 5},
		{"9223372036854775807", 64, math.MaxInt64},
		{"-9223372036854775808", 64, math.MinInt64},
		{"127", 8, 127},
		{"-128", 8, -128},
		// Non-integer tokens fall back to float parsing with truncation.
		{"3.0", 64, 3},
		{"1e4", 64, 10000},
		{"-1.9", 64, -1},
	}
	for _, tt := range tests {
		v, err := p.parseInt(tt.in, tt.bits)
		require.NoError(t, err, "input %q", tt.in)
		require.Equal(t, tt.want, v, "input %q", tt.in)
	}

	bad := []struct {
		in   string
		bits int
	}{
		{"9223372036854775808", 64},
		{"128", 8},
		{"-129", 8},
		{"abc", 64},
		{"", 64},
		{"1e300", 64},
	}
	for _, tt := range bad {
		_, err := p.parseInt(tt.in, tt.bits)
		require.Error(t, err, "input %q", tt.in)
	}
}

func TestParseUint(t *testing.T) {
	p := defaultParser()
	v, err := p.parseUint("18446744073709551615", 64)
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), v)

	v, err = p.parseUint("255", 8)
	require.NoError(t, err)
	require.Equal(t, uint64(255), v)

	v, err = p.parseUint("-0", 64)
	require.NoError(t, err)
	require.Equal(t, uint64(0), v)

	v, err = p.parseUint("2.0", 64)
	require.NoError(t, err)
	require.Equal(t, uint64(2), v)

	for _, bad := range []string{"-1", "256"} {
		_, err := p.parseUint(bad, 8)
		require.Error(t, err, "input %q", bad)
	}
}

func TestParseFloat(t *testing.T) {
	p := defaultParser()
	tests := []struct {
		in   string
		want float64
	}{
		{"0.9999999999999999", 0.9999999999999999},
		{"1.5", 1.5},
		{"-3", -3},
		{".5", 0.5},
		{"1.", 1},
		{"2e3", 2000},
		{"2E3", 2000},
		{"-1.5e-2", -0.015},
		{"inf", math.Inf(1)},
		{"-inf", math.Inf(-1)},
		// Over- and underflow saturate instead of failing.
		{"1e400", math.Inf(1)},
	}
	for _, tt := range tests {
		v, err := p.parseFloat(tt.in, 64)
		require.NoError(t, err, "input %q", tt.in)
		require.Equal(t, tt.want, v, "input %q", tt.in)
	}

	v, err := p.parseFloat("nan", 64)
	require.NoError(t, err)
	require.True(t, math.IsNaN(v))

	for _, bad := range []string{"", "abc", "1.2.3", "0x1p3", "1_000", "1e"} {
		_, err := p.parseFloat(bad, 64)
		require.Error(t, err, "input %q", bad)
	}
}

func TestParseFloatCustomFormat(t *testing.T) {
	p := &fieldParser{decimal: ',', sci: 'D', imaginary: 'j'}
	v, err := p.parseFloat("1,5", 64)
	require.NoError(t, err)
	require.Equal(t, 1.5, v)

	v, err = p.parseFloat("2d3", 64)
	require.NoError(t, err)
	require.Equal(t, 2000.0, v)

	v, err = p.parseFloat("-1,5D-2", 64)
	require.NoError(t, err)
	require.Equal(t, -0.015, v)

	// The configured characters replace the defaults, they do not extend
	// them.
	for _, bad := range []string{"1.5", "2e3", "2E3", "1,5e2"} {
		_, err := p.parseFloat(bad, 64)
		require.Error(t, err, "input %q", bad)
	}
}

func TestParseFloat32IsCorrectlyRounded(t *testing.T) {
	p := defaultParser()
	v, err := p.parseFloat("0.1", 32)
	require.NoError(t, err)
	require.Equal(t, float64(float32(0.1)), v)
}

func TestParseComplex(t *testing.T) {
	p := defaultParser()
	tests := []struct {
		in   string
		want complex128
	}{
		{"1", complex(1, 0)},
		{"2.5j", complex(0, 2.5)},
		{"-19E2j", complex(0, -1900)},
		{"1.0-2.5j", complex(1, -2.5)},
		{"7+-5.0j", complex(7, -5)},
		{"(1+2j)", complex(1, 2)},
		{"(4)", complex(4, 0)},
		{" 3+4J ", complex(3, 4)},
	}
	for _, tt := range tests {
		v, err := p.parseComplex(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		require.Equal(t, tt.want, v, "input %q", tt.in)
	}

	for _, bad := range []string{"", "j", "1+", "1+2", "(1+2j", "1x", "(1)2"} {
		_, err := p.parseComplex(bad)
		require.Error(t, err, "input %q", bad)
	}
}

func TestParseComplexCustomUnit(t *testing.T) {
	p := &fieldParser{decimal: '.', sci: 'E', imaginary: 'i'}
	v, err := p.parseComplex("3+4i")
	require.NoError(t, err)
	require.Equal(t, complex(3, 4), v)

	_, err = p.parseComplex("3+4j")
	require.Error(t, err)
}

func TestEncodeBytes(t *testing.T) {
	p := defaultParser()
	b, err := p.encodeBytes("abc")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), b)

	b, err = p.encodeBytes("café")
	require.NoError(t, err)
	require.Equal(t, []byte{'c', 'a', 'f', 0xe9}, b)

	_, err = p.encodeBytes("日本")
	require.Error(t, err)

	raw := &fieldParser{decimal: '.', sci: 'E', imaginary: 'j'}
	b, err = raw.encodeBytes("日本")
	require.NoError(t, err)
	require.Equal(t, []byte("日本"), b)
}
