package readtext

// =============================================================================
// User Converters
// =============================================================================

// Converter transforms the raw text of one column before type conversion.
// It returns either a final value via Direct, which must match the target
// field type, or replacement text via NeedsParse, which re-enters the
// standard parsing path for that field.
type Converter func(field string) (Result, error)

// Result is the tagged outcome of a Converter.
type Result struct {
	value      any
	text       string
	needsParse bool
}

// Direct wraps a finished value. Numeric fields accept the matching Go
// numeric type, string and object fields accept a string, and object
// fields accept any value.
func Direct(v any) Result {
	return Result{value: v}
}

// NeedsParse wraps replacement text to be parsed as if it had been read
// from the input.
func NeedsParse(s string) Result {
	return Result{text: s, needsParse: true}
}
