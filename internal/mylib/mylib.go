// Package mylib holds the sample Calculator and Vector types used by the calc
// demo and mirrored by the C++ fixture under internal/codeindex/testdata.
package mylib

// Calculator provides integer addition. The zero value is ready to use.
type Calculator struct{}

// Add returns the sum of two integers. Overflow wraps.
func (Calculator) Add(a, b int) int {
	return a + b
}

// Vector is a plain 3D aggregate.
type Vector struct {
	X, Y, Z float32
}
