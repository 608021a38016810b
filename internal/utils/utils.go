// Package utils holds tiny generic helpers shared across the module.
package utils

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
