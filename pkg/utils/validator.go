package utils

import "strings"

// IsEmpty reports whether the string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Ptr returns a pointer to the given value.
func Ptr[T any](v T) *T {
	return &v
}
