// Package utils implements generic helper functions that are used
// throughout the module and that don't fit any other more specific package.
package utils

import "reflect"

// GCD returns the greatest common divisor of a and b.
func GCD(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

// BitReverse64 reverses the first bitLen bits of index.
func BitReverse64(index, bitLen uint64) (r uint64) {
	for i := uint64(0); i < bitLen; i++ {
		r |= ((index >> i) & 1) << (bitLen - 1 - i)
	}
	return
}

// IsNil reports whether v is a nil interface value, or an interface
// wrapping a nil pointer, map, slice, channel or function. Evaluation
// key lookups hand back typed nil pointers (e.g. a nil *rlwe.GaloisKey)
// wrapped in a non-nil EvaluationKeySet interface, which a plain `== nil`
// check on the interface would miss.
func IsNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
