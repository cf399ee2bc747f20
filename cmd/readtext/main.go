// Command readtext parses delimited text into a typed array and prints it.
//
// Input comes from a file argument or stdin. Parsing options mirror the
// library configuration and can also be loaded from a YAML file, with
// command-line flags taking precedence.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fieldparse/readtext"
)

// fileOptions is the YAML options document.
type fileOptions struct {
	Delimiter string   `yaml:"delimiter"`
	Comments  []string `yaml:"comments"`
	Quote     string   `yaml:"quote"`
	Decimal   string   `yaml:"decimal"`
	Sci       string   `yaml:"sci"`
	Imaginary string   `yaml:"imaginary"`
	UseCols   []int    `yaml:"usecols"`
	SkipRows  int      `yaml:"skiprows"`
	MaxRows   *int     `yaml:"maxrows"`
	DType     string   `yaml:"dtype"`
	Encoding  string   `yaml:"encoding"`
}

type cliFlags struct {
	delimiter   string
	comments    []string
	quote       string
	decimal     string
	sci         string
	imaginary   string
	usecols     string
	skipRows    int
	maxRows     int
	dtype       string
	encoding    string
	format      string
	optionsPath string
	verbose     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "readtext:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f cliFlags
	cmd := &cobra.Command{
		Use:   "readtext [file]",
		Short: "Parse delimited text into a typed array",
		Long: `readtext parses delimited text into a typed array and prints it as
text or JSON. Without a file argument it reads stdin. Column types are
inferred unless --dtype is given.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, &f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.delimiter, "delimiter", "d", ",", `field delimiter, "ws" for whitespace runs`)
	fl.StringArrayVar(&f.comments, "comment", []string{"#"}, "comment marker (repeatable)")
	fl.StringVar(&f.quote, "quote", `"`, "quote character, empty to disable")
	fl.StringVar(&f.decimal, "decimal", ".", "decimal point character")
	fl.StringVar(&f.sci, "sci", "E", "scientific notation character")
	fl.StringVar(&f.imaginary, "imaginary", "j", "imaginary unit character")
	fl.StringVar(&f.usecols, "usecols", "", "comma-separated column indices, negatives from the end")
	fl.IntVar(&f.skipRows, "skip-rows", 0, "lines to skip before parsing")
	fl.IntVar(&f.maxRows, "max-rows", -1, "maximum data rows, -1 for all")
	fl.StringVar(&f.dtype, "dtype", "", `element type, e.g. "float64", "S8" or "int64,S5,float32"`)
	fl.StringVar(&f.encoding, "encoding", "", "byte-string and file encoding (default latin-1)")
	fl.StringVar(&f.format, "format", "text", "output format: text or json")
	fl.StringVar(&f.optionsPath, "options", "", "YAML options file")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func run(cmd *cobra.Command, args []string, f *cliFlags) error {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	if f.verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	r, err := buildReader(cmd, f)
	if err != nil {
		return err
	}

	start := time.Now()
	var arr *readtext.Array
	if len(args) == 1 {
		level.Debug(logger).Log("msg", "reading file", "path", args[0])
		arr, err = r.ReadFile(args[0])
	} else {
		level.Debug(logger).Log("msg", "reading stdin")
		arr, err = r.Read(readtext.NewScannerSource(os.Stdin))
	}
	if err != nil {
		return err
	}
	level.Debug(logger).Log("msg", "parsed", "rows", arr.Len(), "cols", arr.Cols(),
		"dtype", arr.DType().String(), "elapsed", time.Since(start))

	switch f.format {
	case "text":
		return printText(arr)
	case "json":
		return printJSON(arr)
	default:
		return fmt.Errorf("unknown format %q", f.format)
	}
}

// buildReader merges the options file and the flags into a Reader. Flags
// explicitly set on the command line win over the file.
func buildReader(cmd *cobra.Command, f *cliFlags) (*readtext.Reader, error) {
	r := readtext.NewReader()

	if f.optionsPath != "" {
		raw, err := os.ReadFile(f.optionsPath)
		if err != nil {
			return nil, err
		}
		var opts fileOptions
		if err := yaml.Unmarshal(raw, &opts); err != nil {
			return nil, fmt.Errorf("options file: %w", err)
		}
		if err := applyFileOptions(r, &opts); err != nil {
			return nil, err
		}
	}

	set := cmd.Flags().Changed
	if set("delimiter") {
		d, err := delimiterRune(f.delimiter)
		if err != nil {
			return nil, err
		}
		r.Delimiter = d
	}
	if set("comment") {
		r.Comments = f.comments
	}
	if set("quote") {
		q, err := optionalRune("quote", f.quote)
		if err != nil {
			return nil, err
		}
		r.Quote = q
	}
	if set("decimal") {
		c, err := singleRune("decimal", f.decimal)
		if err != nil {
			return nil, err
		}
		r.Decimal = c
	}
	if set("sci") {
		c, err := singleRune("sci", f.sci)
		if err != nil {
			return nil, err
		}
		r.Sci = c
	}
	if set("imaginary") {
		c, err := singleRune("imaginary", f.imaginary)
		if err != nil {
			return nil, err
		}
		r.ImaginaryUnit = c
	}
	if set("usecols") {
		cols, err := parseUseCols(f.usecols)
		if err != nil {
			return nil, err
		}
		r.UseCols = cols
	}
	if set("skip-rows") {
		r.SkipRows = f.skipRows
	}
	if set("max-rows") {
		r.MaxRows = f.maxRows
	}
	if set("dtype") {
		dt, err := parseDTypeSpec(f.dtype)
		if err != nil {
			return nil, err
		}
		r.Type = dt
	}
	if set("encoding") {
		r.Encoding = f.encoding
	}
	return r, nil
}

func applyFileOptions(r *readtext.Reader, opts *fileOptions) error {
	if opts.Delimiter != "" {
		d, err := delimiterRune(opts.Delimiter)
		if err != nil {
			return err
		}
		r.Delimiter = d
	}
	if opts.Comments != nil {
		r.Comments = opts.Comments
	}
	if opts.Quote != "" {
		q, err := optionalRune("quote", opts.Quote)
		if err != nil {
			return err
		}
		r.Quote = q
	}
	if opts.Decimal != "" {
		c, err := singleRune("decimal", opts.Decimal)
		if err != nil {
			return err
		}
		r.Decimal = c
	}
	if opts.Sci != "" {
		c, err := singleRune("sci", opts.Sci)
		if err != nil {
			return err
		}
		r.Sci = c
	}
	if opts.Imaginary != "" {
		c, err := singleRune("imaginary", opts.Imaginary)
		if err != nil {
			return err
		}
		r.ImaginaryUnit = c
	}
	if opts.UseCols != nil {
		r.UseCols = opts.UseCols
	}
	r.SkipRows = opts.SkipRows
	if opts.MaxRows != nil {
		r.MaxRows = *opts.MaxRows
	}
	if opts.DType != "" {
		dt, err := parseDTypeSpec(opts.DType)
		if err != nil {
			return err
		}
		r.Type = dt
	}
	if opts.Encoding != "" {
		r.Encoding = opts.Encoding
	}
	return nil
}

// delimiterRune maps the flag spelling to the Reader field: "ws" and ""
// select whitespace mode.
func delimiterRune(s string) (rune, error) {
	if s == "" || s == "ws" || s == "whitespace" {
		return 0, nil
	}
	return singleRune("delimiter", s)
}

func optionalRune(name, s string) (rune, error) {
	if s == "" {
		return 0, nil
	}
	return singleRune(name, s)
}

func singleRune(name, s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) {
		return 0, fmt.Errorf("%s must be a single character, got %q", name, s)
	}
	return r, nil
}

func parseUseCols(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	cols := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("usecols: %q is not an integer", p)
		}
		cols[i] = n
	}
	return cols, nil
}

// parseDTypeSpec parses "float64", "S8", "U0" or a comma-separated list of
// scalars, which becomes a structured type with fields f0..fN.
func parseDTypeSpec(s string) (*readtext.DType, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) == 1 {
		return parseScalarDType(strings.TrimSpace(parts[0]))
	}
	fields := make([]readtext.Field, len(parts))
	for i, p := range parts {
		dt, err := parseScalarDType(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		fields[i] = readtext.Field{Name: "f" + strconv.Itoa(i), Type: dt}
	}
	return readtext.StructOf(fields...), nil
}

func parseScalarDType(s string) (*readtext.DType, error) {
	switch s {
	case "bool":
		return readtext.Bool(), nil
	case "int8":
		return readtext.Int8(), nil
	case "int16":
		return readtext.Int16(), nil
	case "int32":
		return readtext.Int32(), nil
	case "int64", "int":
		return readtext.Int64(), nil
	case "uint8":
		return readtext.Uint8(), nil
	case "uint16":
		return readtext.Uint16(), nil
	case "uint32":
		return readtext.Uint32(), nil
	case "uint64", "uint":
		return readtext.Uint64(), nil
	case "float32":
		return readtext.Float32(), nil
	case "float64", "float":
		return readtext.Float64(), nil
	case "complex64":
		return readtext.Complex64(), nil
	case "complex128", "complex":
		return readtext.Complex128(), nil
	case "object":
		return readtext.Object(), nil
	}
	if len(s) > 0 && (s[0] == 'S' || s[0] == 'U') {
		width := 0
		if len(s) > 1 {
			n, err := strconv.Atoi(s[1:])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid string width in dtype %q", s)
			}
			width = n
		}
		if s[0] == 'S' {
			return readtext.Bytes(width), nil
		}
		return readtext.Unicode(width), nil
	}
	return nil, fmt.Errorf("unknown dtype %q", s)
}

// =============================================================================
// Output
// =============================================================================

func printText(arr *readtext.Array) error {
	var sb strings.Builder
	for r := 0; r < arr.Len(); r++ {
		sb.Reset()
		for c := 0; c < arr.Cols(); c++ {
			if c > 0 {
				sb.WriteByte('\t')
			}
			sb.WriteString(formatValue(arr, r, c))
		}
		if _, err := fmt.Println(sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(arr *readtext.Array) error {
	enc := json.NewEncoder(os.Stdout)
	for r := 0; r < arr.Len(); r++ {
		row := make([]any, arr.Cols())
		for c := 0; c < arr.Cols(); c++ {
			row[c] = jsonValue(arr, r, c)
		}
		if err := enc.Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func formatValue(arr *readtext.Array, r, c int) string {
	switch v := jsonValue(arr, r, c).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func jsonValue(arr *readtext.Array, r, c int) any {
	switch arr.ColKind(c) {
	case readtext.KindBool:
		return arr.BoolAt(r, c)
	case readtext.KindInt:
		return arr.IntAt(r, c)
	case readtext.KindUint:
		return arr.UintAt(r, c)
	case readtext.KindFloat:
		return arr.FloatAt(r, c)
	case readtext.KindComplex:
		return fmt.Sprint(arr.ComplexAt(r, c))
	case readtext.KindBytes, readtext.KindUnicode:
		return arr.StringAt(r, c)
	default:
		return fmt.Sprint(arr.ObjectAt(r, c))
	}
}
