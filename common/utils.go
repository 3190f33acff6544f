package common

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

// SwapRemove removes the element at index by moving the last element into its slot.
// Order is not preserved.
//
// Parameters:
//   - s: the slice to remove from
//   - index: the index to remove
//
// Returns:
//   - []T: the shortened slice
//   - bool: true if an element was moved into the removed slot
func SwapRemove[T any](s []T, index int) ([]T, bool) {
	last := len(s) - 1
	if index < 0 || index > last {
		return s, false
	}
	swapped := index != last
	if swapped {
		s[index] = s[last]
	}
	var zero T
	s[last] = zero
	return s[:last], swapped
}

// RemoveValue removes the first element equal to v while preserving order.
//
// Parameters:
//   - s: the slice to remove from
//   - v: the value to remove
//
// Returns:
//   - []T: the resulting slice
//   - bool: true if the value was found
func RemoveValue[T comparable](s []T, v T) ([]T, bool) {
	for i := range s {
		if s[i] == v {
			copy(s[i:], s[i+1:])
			var zero T
			s[len(s)-1] = zero
			return s[:len(s)-1], true
		}
	}
	return s, false
}
