// Package readtext reads delimited text into typed arrays.
//
// A Reader tokenizes input line by line, converts fields according to an
// element type that may be scalar or structured, and packs the results into
// a byte-backed Array. When no element type is given, column types are
// inferred from the data. The numeric formats, comment markers, quoting,
// column selection and per-column converter hooks are all configurable.
package readtext

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// Reader
// =============================================================================

// A Reader reads delimited rows from a line source into a typed Array.
// Configure it by setting the exported fields before calling Read; a Reader
// from NewReader carries the default text format.
type Reader struct {
	// Delimiter separates fields. The zero value selects whitespace mode:
	// any run of unicode whitespace separates fields, empty fields cannot
	// occur, and whitespace-only lines are skipped.
	Delimiter rune

	// Comments holds the comment markers. A single one-character marker is
	// handled inline by the tokenizer; multiple or multi-character markers
	// are stripped in a preprocessing layer and are incompatible with
	// quoting. Empty means no comment handling.
	Comments []string

	// Quote is the field quoting character, 0 to disable. Inside a quoted
	// field, delimiters, comment markers and doubled quotes are data.
	Quote rune

	// Decimal, Sci and ImaginaryUnit define the numeric format: the decimal
	// point character, the scientific notation character (matched case-
	// insensitively) and the imaginary unit suffix. Zero values mean
	// '.', 'E' and 'j'. A custom Decimal or Sci replaces the default
	// character, so '.' or 'e' then make a numeric token invalid.
	Decimal       rune
	Sci           rune
	ImaginaryUnit rune

	// UseCols selects input columns by index, in order. Negative indices
	// count from the end of each row and are resolved row by row. Nil
	// selects all columns; an empty non-nil slice selects none.
	UseCols []int

	// SkipRows is the number of physical lines dropped before parsing
	// starts, counting blank and comment lines.
	SkipRows int

	// MaxRows limits the number of data rows read. -1 means unbounded.
	// Blank and comment lines do not count against the limit.
	MaxRows int

	// Converters maps column indices to field converters. With UseCols the
	// keys refer to input columns and entries for unselected columns are
	// ignored; otherwise a key outside the discovered column range is a
	// configuration error. Negative keys count from the end.
	Converters map[int]Converter

	// Type is the element type of the result. A scalar type applies to
	// every selected column; a structured type maps its flattened fields to
	// the selected columns in order. Nil infers types from the data.
	Type *DType

	// Encoding names the byte encoding for fixed-width byte-string fields
	// and for ReadFile input. Empty means latin-1.
	Encoding string
}

// NewReader returns a Reader with the default text format: comma
// delimiter, "#" comments, double-quote quoting, '.', 'E' and 'j' numeric
// characters, all rows and columns, inferred types.
func NewReader() *Reader {
	return &Reader{
		Delimiter:     ',',
		Comments:      []string{"#"},
		Quote:         '"',
		Decimal:       '.',
		Sci:           'E',
		ImaginaryUnit: 'j',
		MaxRows:       -1,
	}
}

// ReadString parses s.
func (r *Reader) ReadString(s string) (*Array, error) {
	return r.Read(LinesSource(strings.Split(s, "\n")))
}

// ReadFile parses the named file, decoded with the configured Encoding.
func (r *Reader) ReadFile(path string) (*Array, error) {
	src, err := openFileSource(path, r.encodingName())
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return r.Read(src)
}

// Read parses all rows from src into an Array. Configuration problems
// surface as *ConfigError before any input is consumed; malformed input
// aborts the read with a located error and no partial result.
func (r *Reader) Read(src LineSource) (*Array, error) {
	run, err := r.prepare()
	if err != nil {
		return nil, err
	}
	if run.strip != nil {
		src = stripComments(src, run.strip)
	}
	if run.plan != nil && !run.plan.needsWidthInference() {
		return run.readTyped(src)
	}
	return run.readBuffered(src)
}

func (r *Reader) encodingName() string {
	if r.Encoding == "" {
		return "latin-1"
	}
	return r.Encoding
}

// =============================================================================
// Configuration
// =============================================================================

// readRun is the validated per-call state of one Read.
type readRun struct {
	r      *Reader
	tok    *tokenizer
	parser *fieldParser
	plan   *dtypePlan // nil when inferring
	strip  []string   // markers for the preprocessing strip layer

	conv    map[int]Converter // by selected position, set at the first row
	ncols   int               // input width of the first data row
	outCols int               // selected fields per row
	sel     []string
}

// prepare validates the configuration and builds the tokenizer, field
// parser and element type plan.
func (r *Reader) prepare() (*readRun, error) {
	if r.SkipRows < 0 {
		return nil, configErrorf("skiprows must be non-negative, got %d", r.SkipRows)
	}
	if r.MaxRows < -1 {
		return nil, configErrorf("max rows must be -1 or non-negative, got %d", r.MaxRows)
	}

	var markers []string
	for _, m := range r.Comments {
		if m != "" {
			markers = append(markers, m)
		}
	}
	inline := rune(0)
	var strip []string
	if len(markers) == 1 && utf8.RuneCountInString(markers[0]) == 1 {
		inline, _ = utf8.DecodeRuneInString(markers[0])
	} else if len(markers) > 0 {
		if r.Quote != 0 {
			return nil, configErrorf(
				"quoting is not supported with multiple or multi-character comment markers")
		}
		strip = markers
	}

	decimal, sci, unit := r.Decimal, r.Sci, r.ImaginaryUnit
	if decimal == 0 {
		decimal = '.'
	}
	if sci == 0 {
		sci = 'E'
	}
	if unit == 0 {
		unit = 'j'
	}

	enc, err := lookupEncoding(r.encodingName())
	if err != nil {
		return nil, err
	}
	parser := &fieldParser{decimal: decimal, sci: sci, imaginary: unit}
	if enc != nil {
		parser.encoder = enc.NewEncoder()
	}

	var plan *dtypePlan
	if r.Type != nil {
		plan, err = flattenDType(r.Type)
		if err != nil {
			return nil, err
		}
		if !plan.homogeneous && r.UseCols != nil && len(r.UseCols) != len(plan.leaves) {
			return nil, configErrorf("%d usecols given for an element type with %d fields",
				len(r.UseCols), len(plan.leaves))
		}
	}

	return &readRun{
		r:      r,
		tok:    newTokenizer(r.Delimiter, r.Quote, inline),
		parser: parser,
		plan:   plan,
		strip:  strip,
		ncols:  -1,
	}, nil
}

// =============================================================================
// Row Iteration
// =============================================================================

// forEachRow drives the line loop: skiprows, tokenization, blank-line
// skipping, first-row initialization, column-count consistency, usecols
// resolution and the max-rows cutoff. fn receives the 1-based data row
// number and its selected fields.
func (run *readRun) forEachRow(src LineSource, fn func(rowNum int, sel []string) error) error {
	for i := 0; i < run.r.SkipRows; i++ {
		if _, err := src.ReadLine(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
	if run.r.MaxRows == 0 {
		return nil
	}

	rowNum := 0
	for {
		line, err := src.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fields, errCol, err := run.tok.splitLine(line)
		if err != nil {
			return &ParseError{Row: rowNum + 1, Column: errCol, Err: err}
		}
		if len(fields) == 0 {
			continue
		}
		rowNum++

		if run.ncols < 0 {
			run.ncols = len(fields)
			if err := run.firstRow(); err != nil {
				return err
			}
		} else if run.r.UseCols == nil && run.plan == nil && len(fields) != run.ncols {
			// Inference fixes the column count at the first data row. An
			// explicit element type instead tolerates excess fields and
			// reports missing ones against its own arity.
			return fmt.Errorf("%w: the number of columns changed from %d to %d at row %d",
				ErrFieldCount, run.ncols, len(fields), rowNum)
		}

		sel, err := run.selectFields(fields, rowNum)
		if err != nil {
			return err
		}
		if err := fn(rowNum, sel); err != nil {
			return err
		}
		if run.r.MaxRows >= 0 && rowNum >= run.r.MaxRows {
			return nil
		}
	}
}

// firstRow fixes the selected column count, checks a structured element
// type against the discovered width and normalizes the converter map.
func (run *readRun) firstRow() error {
	switch {
	case run.r.UseCols != nil:
		run.outCols = len(run.r.UseCols)
	case run.plan != nil && !run.plan.homogeneous:
		if run.ncols < len(run.plan.leaves) {
			return fmt.Errorf("%w: expected %d fields, found %d at row 1",
				ErrFieldCount, len(run.plan.leaves), run.ncols)
		}
		run.outCols = len(run.plan.leaves)
	default:
		run.outCols = run.ncols
	}
	return run.normalizeConverters()
}

// defaultOutCols is the column count of an empty result, when no data row
// ever fixed it.
func (run *readRun) defaultOutCols() int {
	switch {
	case run.r.UseCols != nil:
		return len(run.r.UseCols)
	case run.plan != nil && !run.plan.homogeneous:
		return len(run.plan.leaves)
	default:
		return 1
	}
}

// selectFields applies usecols to one row, resolving negative indices
// against the row's own width.
func (run *readRun) selectFields(fields []string, rowNum int) ([]string, error) {
	if run.r.UseCols == nil {
		return fields, nil
	}
	if cap(run.sel) < len(run.r.UseCols) {
		run.sel = make([]string, len(run.r.UseCols))
	}
	sel := run.sel[:len(run.r.UseCols)]
	for j, c := range run.r.UseCols {
		idx := c
		if idx < 0 {
			idx += len(fields)
		}
		if idx < 0 || idx >= len(fields) {
			return nil, fmt.Errorf("%w: invalid column index %d at row %d with %d columns",
				ErrColumnIndex, c, rowNum, len(fields))
		}
		sel[j] = fields[idx]
	}
	return sel, nil
}

// normalizeConverters resolves the converter map to selected positions.
// With usecols, keys name input columns and unmatched keys are dropped;
// without, a key outside the discovered width is a configuration error.
func (run *readRun) normalizeConverters() error {
	if len(run.r.Converters) == 0 {
		return nil
	}
	run.conv = make(map[int]Converter)
	norm := func(c int) int {
		if c < 0 {
			return c + run.ncols
		}
		return c
	}
	if run.r.UseCols != nil {
		for k, fn := range run.r.Converters {
			for j, c := range run.r.UseCols {
				if norm(c) == norm(k) {
					run.conv[j] = fn
				}
			}
		}
		return nil
	}
	for k, fn := range run.r.Converters {
		nk := norm(k)
		if nk < 0 || nk >= run.ncols {
			return configErrorf("converter specified for column %d, which is invalid for the number of fields %d",
				k, run.ncols)
		}
		run.conv[nk] = fn
	}
	return nil
}

// applyConverter runs the converter for selected position j, if any.
func (run *readRun) applyConverter(j int, text string, rowNum int) (cell, error) {
	conv := run.conv[j]
	if conv == nil {
		return cell{text: text}, nil
	}
	res, err := conv(text)
	if err != nil {
		return cell{}, &ParseError{
			Row:    rowNum,
			Column: j + 1,
			Err:    fmt.Errorf("%w: converter failed for %q: %v", ErrConversion, text, err),
		}
	}
	if res.needsParse {
		return cell{text: res.text}, nil
	}
	return cell{direct: res.value, isDirect: true}, nil
}

// =============================================================================
// Typed Path
// =============================================================================

// readTyped streams rows straight into the arena: the element type is
// complete, so no buffering pass is needed.
func (run *readRun) readTyped(src LineSource) (*Array, error) {
	var (
		b         *rowBuilder
		leaves    []leaf
		rowBytes  int
		objPerRow int
	)
	initArena := func(nsel int) {
		if run.plan.homogeneous {
			leaves, rowBytes, objPerRow = broadcastLeaves(run.plan, nsel)
		} else {
			leaves, rowBytes, objPerRow = run.plan.leaves, run.plan.rowBytes, run.plan.objPerRow
		}
		b = newRowBuilder(rowBytes, objPerRow, run.r.MaxRows)
	}

	err := run.forEachRow(src, func(rowNum int, sel []string) error {
		if b == nil {
			initArena(run.outCols)
		}
		if len(sel) < len(leaves) {
			return fmt.Errorf("%w: expected %d fields, found %d at row %d",
				ErrFieldCount, len(leaves), len(sel), rowNum)
		}
		rec, objs := b.appendRow()
		for j := range leaves {
			c, err := run.applyConverter(j, sel[j], rowNum)
			if err != nil {
				return err
			}
			if err := run.storeCell(&leaves[j], c, rec, objs, rowNum, j); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if b != nil {
			b.discard()
		}
		return nil, err
	}
	if b == nil {
		initArena(run.defaultOutCols())
	}

	data, objs, rows := b.finalize()
	return &Array{
		dtype:     run.plan.dtype,
		leaves:    leaves,
		rowBytes:  rowBytes,
		objPerRow: objPerRow,
		rows:      rows,
		data:      data,
		objs:      objs,
		twoD:      run.plan.homogeneous,
	}, nil
}

// broadcastLeaves replicates the single leaf of a scalar element type
// across n columns.
func broadcastLeaves(plan *dtypePlan, n int) ([]leaf, int, int) {
	base := plan.leaves[0]
	leaves := make([]leaf, n)
	objPerRow := 0
	for i := range leaves {
		leaves[i] = base
		leaves[i].offset = i * base.byteSize
		if base.kind == KindObject {
			leaves[i].objIndex = objPerRow
			objPerRow++
		}
	}
	return leaves, n * base.byteSize, objPerRow
}

// =============================================================================
// Buffered Path
// =============================================================================

// readBuffered collects converted cells for the whole input before sizing
// the result. It serves type inference and width inference for zero-width
// string fields; converters run exactly once, during buffering.
func (run *readRun) readBuffered(src LineSource) (*Array, error) {
	var (
		rows    [][]cell
		rowNums []int
		inf     *inferState
		widths  []int
	)
	infer := run.plan == nil

	err := run.forEachRow(src, func(rowNum int, sel []string) error {
		if rows == nil {
			if infer {
				inf = newInferState(run.parser, run.outCols)
			} else {
				widths = make([]int, run.outCols)
			}
			rows = make([][]cell, 0, 64)
		}
		if len(sel) < run.outCols {
			return fmt.Errorf("%w: expected %d fields, found %d at row %d",
				ErrFieldCount, run.outCols, len(sel), rowNum)
		}
		cells := make([]cell, run.outCols)
		for j := 0; j < run.outCols; j++ {
			c, err := run.applyConverter(j, sel[j], rowNum)
			if err != nil {
				return err
			}
			cells[j] = c
			if infer {
				inf.observe(j, c)
			} else if err := run.measureWidth(j, c, widths, rowNum); err != nil {
				return err
			}
		}
		rows = append(rows, cells)
		rowNums = append(rowNums, rowNum)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		run.outCols = run.defaultOutCols()
		if !infer {
			widths = make([]int, run.outCols)
		}
	}

	dt, leaves, rowBytes, objPerRow, twoD, err := run.resolveBuffered(infer, inf, widths, len(rows))
	if err != nil {
		return nil, err
	}

	b := newRowBuilder(rowBytes, objPerRow, len(rows))
	for i, cells := range rows {
		rec, objs := b.appendRow()
		for j := range leaves {
			if err := run.storeCell(&leaves[j], cells[j], rec, objs, rowNums[i], j); err != nil {
				b.discard()
				return nil, err
			}
		}
	}
	data, objs, nrows := b.finalize()
	return &Array{
		dtype:     dt,
		leaves:    leaves,
		rowBytes:  rowBytes,
		objPerRow: objPerRow,
		rows:      nrows,
		data:      data,
		objs:      objs,
		twoD:      twoD,
	}, nil
}

// measureWidth tracks the width required by a cell for the zero-width
// string leaf at selected position j, if that is what sits there.
func (run *readRun) measureWidth(j int, c cell, widths []int, rowNum int) error {
	l := &run.plan.leaves[0]
	if !run.plan.homogeneous {
		l = &run.plan.leaves[j]
	}
	if (l.kind != KindBytes && l.kind != KindUnicode) || l.width != 0 {
		return nil
	}
	text := c.text
	if c.isDirect {
		s, ok := c.direct.(string)
		if !ok {
			// A non-string direct value fails at store time with a located
			// error; it has no width here.
			return nil
		}
		text = s
	}
	if l.kind == KindBytes {
		b, err := run.parser.encodeBytes(text)
		if err != nil {
			return &ParseError{Row: rowNum, Column: j + 1, Err: fmt.Errorf("%w: %v", ErrConversion, err)}
		}
		if len(b) > widths[j] {
			widths[j] = len(b)
		}
		return nil
	}
	if n := utf8.RuneCountInString(text); n > widths[j] {
		widths[j] = n
	}
	return nil
}

// resolveBuffered turns the buffered observations into the final element
// type and leaf layout.
func (run *readRun) resolveBuffered(infer bool, inf *inferState, widths []int, nrows int) (
	dt *DType, leaves []leaf, rowBytes, objPerRow int, twoD bool, err error) {

	switch {
	case infer && inf != nil:
		dt = inf.result()
	case infer:
		// No data rows: default to floats, matching the result an all-
		// numeric input would produce.
		if run.outCols == 0 {
			dt = StructOf()
		} else {
			dt = Float64()
		}
	case run.plan.homogeneous:
		maxw := 0
		for _, w := range widths {
			if w > maxw {
				maxw = w
			}
		}
		dt = cloneWithWidths(run.plan.dtype, map[*DType]int{run.plan.dtype: maxw})
	default:
		dt = cloneWithWidths(run.plan.dtype, measureNodeWidths(run.plan.dtype, widths))
	}

	plan, err := flattenDType(dt)
	if err != nil {
		return nil, nil, 0, 0, false, err
	}
	if plan.homogeneous {
		leaves, rowBytes, objPerRow = broadcastLeaves(plan, run.outCols)
		twoD = true
	} else {
		leaves, rowBytes, objPerRow = plan.leaves, plan.rowBytes, plan.objPerRow
	}
	return dt, leaves, rowBytes, objPerRow, twoD, nil
}

// =============================================================================
// Cell Storage
// =============================================================================

// storeCell converts one cell for its leaf and writes it into the row
// record, reporting failures with the cell's 1-based location.
func (run *readRun) storeCell(l *leaf, c cell, rec []byte, objs []any, rowNum, pos int) error {
	fail := func(err error) error {
		return &ParseError{Row: rowNum, Column: pos + 1, Err: err}
	}
	if c.isDirect {
		if err := run.storeDirect(l, c.direct, rec, objs); err != nil {
			return fail(fmt.Errorf("%w: %v", ErrConversion, err))
		}
		return nil
	}

	text := c.text
	switch l.kind {
	case KindBool:
		v, err := run.parser.parseBool(text)
		if err != nil {
			return fail(convertError(text, l))
		}
		storeBool(rec, l, v)
	case KindInt:
		v, err := run.parser.parseInt(text, l.byteSize*8)
		if err != nil {
			return fail(convertError(text, l))
		}
		storeInt(rec, l, v)
	case KindUint:
		v, err := run.parser.parseUint(text, l.byteSize*8)
		if err != nil {
			return fail(convertError(text, l))
		}
		storeUint(rec, l, v)
	case KindFloat:
		v, err := run.parser.parseFloat(text, l.byteSize*8)
		if err != nil {
			return fail(convertError(text, l))
		}
		storeFloat(rec, l, v)
	case KindComplex:
		v, err := run.parser.parseComplex(text)
		if err != nil {
			return fail(convertError(text, l))
		}
		storeComplex(rec, l, v)
	case KindBytes:
		b, err := run.parser.encodeBytes(text)
		if err != nil {
			return fail(fmt.Errorf("%w: %v", ErrConversion, err))
		}
		storeBytes(rec, l, b)
	case KindUnicode:
		storeUnicode(rec, l, text)
	case KindObject:
		objs[l.objIndex] = text
	}
	return nil
}

// storeDirect writes a converter-produced value, which must match the leaf
// kind.
func (run *readRun) storeDirect(l *leaf, v any, rec []byte, objs []any) error {
	switch l.kind {
	case KindBool:
		if b, ok := v.(bool); ok {
			storeBool(rec, l, b)
			return nil
		}
	case KindInt:
		switch n := v.(type) {
		case int:
			storeInt(rec, l, int64(n))
			return nil
		case int8:
			storeInt(rec, l, int64(n))
			return nil
		case int16:
			storeInt(rec, l, int64(n))
			return nil
		case int32:
			storeInt(rec, l, int64(n))
			return nil
		case int64:
			storeInt(rec, l, n)
			return nil
		}
	case KindUint:
		switch n := v.(type) {
		case uint:
			storeUint(rec, l, uint64(n))
			return nil
		case uint8:
			storeUint(rec, l, uint64(n))
			return nil
		case uint16:
			storeUint(rec, l, uint64(n))
			return nil
		case uint32:
			storeUint(rec, l, uint64(n))
			return nil
		case uint64:
			storeUint(rec, l, n)
			return nil
		}
	case KindFloat:
		switch f := v.(type) {
		case float32:
			storeFloat(rec, l, float64(f))
			return nil
		case float64:
			storeFloat(rec, l, f)
			return nil
		}
	case KindComplex:
		switch z := v.(type) {
		case complex64:
			storeComplex(rec, l, complex128(z))
			return nil
		case complex128:
			storeComplex(rec, l, z)
			return nil
		}
	case KindBytes:
		switch s := v.(type) {
		case string:
			b, err := run.parser.encodeBytes(s)
			if err != nil {
				return err
			}
			storeBytes(rec, l, b)
			return nil
		case []byte:
			storeBytes(rec, l, s)
			return nil
		}
	case KindUnicode:
		if s, ok := v.(string); ok {
			storeUnicode(rec, l, s)
			return nil
		}
	case KindObject:
		objs[l.objIndex] = v
		return nil
	}
	return fmt.Errorf("converter returned %T for a %s field", v, l.name())
}

func convertError(text string, l *leaf) error {
	return fmt.Errorf("%w: could not convert %q to %s", ErrConversion, text, l.name())
}
