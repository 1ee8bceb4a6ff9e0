// Package sizing provides overflow-safe size arithmetic for bounds checks.
package sizing

import "math"

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// MulUint64 multiplies two uint64 values, returning (result, false) on overflow.
func MulUint64(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxUint64/b {
		return 0, false
	}
	return a * b, true
}

// ToInt converts a uint64 to int, returning false if it doesn't fit.
func ToInt(size uint64) (int, bool) {
	if size > uint64(math.MaxInt) {
		return 0, false
	}
	return int(size), true
}

// Span returns the half-open range [off, off+n) as ints when it lies within
// a buffer of length limit.
func Span(off, n uint64, limit int) (start, end int, ok bool) {
	e, ok := AddUint64(off, n)
	if !ok || limit < 0 || e > uint64(limit) {
		return 0, 0, false
	}
	return int(off), int(e), true
}
