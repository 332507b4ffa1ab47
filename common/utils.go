package common

import "time"

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// PositiveOr returns v if it is greater than zero, otherwise fallback.
// Used by option builders where zero and negative sizes both mean "use the default".
//
// Parameters:
//   - v: the configured value
//   - fallback: the default value
//
// Returns:
//   - T: v or fallback
func PositiveOr[T int | int64 | float32 | time.Duration](v, fallback T) T {
	if v > 0 {
		return v
	}
	return fallback
}
