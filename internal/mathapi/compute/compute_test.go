package compute

import (
	"math"
	"testing"
)

func TestPower(t *testing.T) {
	tests := []struct {
		base, exp, want float64
	}{
		{2, 3, 8},
		{10, 0, 1},
		{5, 1, 5},
		{2, -1, 0.5},
		{9, 0.5, 3},
	}

	for _, tt := range tests {
		got := Power(tt.base, tt.exp)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Power(%v, %v) = %v, want %v", tt.base, tt.exp, got, tt.want)
		}
	}
}

func TestEuclideanDistance(t *testing.T) {
	tests := []struct {
		x, y, want float64
	}{
		{3, 4, 5},
		{0, 0, 0},
		{-3, -4, 5},
		{1, 1, math.Sqrt2},
	}

	for _, tt := range tests {
		got := EuclideanDistance(tt.x, tt.y)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("EuclideanDistance(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestAdd(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{10, 20, 30},
		{-5, 5, 0},
		{0.1, 0.2, 0.3},
	}

	for _, tt := range tests {
		got := Add(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Add(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
