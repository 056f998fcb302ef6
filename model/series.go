package model

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Series is a time series of ordered values, oldest first.
type Series[T constraints.Ordered] []T

// Max returns the largest value, the zero value for an empty series.
func (s Series[T]) Max() T {
	var top T
	for i, v := range s {
		if i == 0 || v > top {
			top = v
		}
	}
	return top
}

// Min returns the smallest value, the zero value for an empty series.
func (s Series[T]) Min() T {
	var bottom T
	for i, v := range s {
		if i == 0 || v < bottom {
			bottom = v
		}
	}
	return bottom
}

// Finite reports whether every value of a float series is a real number.
func Finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
