// Package compute holds the pure numeric functions exposed by the math
// service. These have no network, filesystem, or process dependencies so the
// unit stage can exercise them in isolation.
package compute

import "math"

// Power returns base raised to exp.
func Power(base, exp float64) float64 {
	return math.Pow(base, exp)
}

// EuclideanDistance returns the distance of the point (x, y) from the origin.
func EuclideanDistance(x, y float64) float64 {
	return math.Sqrt(x*x + y*y)
}

// Add returns the sum of a and b.
func Add(a, b float64) float64 {
	return a + b
}
