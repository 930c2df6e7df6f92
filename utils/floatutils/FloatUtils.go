// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the max
// If min exceeds the floating point, then the function returns the min
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// ClipDense clips each element of a matrix in place to [min, max]
func ClipDense(m *mat.Dense, min, max float64) {
	m.Apply(func(_, _ int, v float64) float64 {
		return Clip(v, min, max)
	}, m)
}

// Argmax returns the index of the maximum value in a slice. If
// multiple equal max values exist, the lowest index is returned.
func Argmax(values []float64) int {
	max, idx := values[0], 0
	for i, value := range values {
		if value > max {
			max = value
			idx = i
		}
	}
	return idx
}
