package readtext

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, src LineSource) []string {
	t.Helper()
	var out []string
	for {
		line, err := src.ReadLine()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, line)
	}
}

func TestLinesSourceTrimsTerminators(t *testing.T) {
	src := LinesSource([]string{"a\n", "b\r\n", "c"})
	require.Equal(t, []string{"a", "b", "c"}, drain(t, src))
}

func TestValuesSource(t *testing.T) {
	src := ValuesSource([]any{"a", "b\n"})
	require.Equal(t, []string{"a", "b"}, drain(t, src))

	src = ValuesSource([]any{"ok", 42})
	_, err := src.ReadLine()
	require.NoError(t, err)
	_, err = src.ReadLine()
	require.ErrorIs(t, err, ErrNonString)
	require.ErrorContains(t, err, "int")
}

func TestScannerSourceHandlesCRLF(t *testing.T) {
	src := NewScannerSource(strings.NewReader("a\r\nb\nc"))
	require.Equal(t, []string{"a", "b", "c"}, drain(t, src))
}

func TestDecodingSourceLatin1(t *testing.T) {
	src, err := NewDecodingSource(strings.NewReader("caf\xe9\nx"), "latin-1")
	require.NoError(t, err)
	require.Equal(t, []string{"café", "x"}, drain(t, src))
}

func TestDecodingSourceUnknownEncoding(t *testing.T) {
	_, err := NewDecodingSource(strings.NewReader(""), "no-such-encoding")
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
}

func TestStripComments(t *testing.T) {
	src := stripComments(LinesSource([]string{
		"1,2 // note",
		"3 % note // later",
		"clean",
		"% whole line",
	}), []string{"//", "%"})
	require.Equal(t, []string{"1,2 ", "3 ", "clean", ""}, drain(t, src))
}

func TestFuncSource(t *testing.T) {
	n := 0
	src := FuncSource(func() (string, error) {
		if n == 2 {
			return "", io.EOF
		}
		n++
		return "x", nil
	})
	require.Equal(t, []string{"x", "x"}, drain(t, src))
}
