package domain

import "math"

// EPSILON is the tolerance below which a quantity or price difference is
// treated as dust rather than a real remainder. Every quantity/price
// comparison in the book goes through the helpers below so the tolerance is
// applied consistently across matching, cancellation, and level cleanup.
const EPSILON = 1e-9

// IsZero reports whether x is within EPSILON of zero.
func IsZero(x float64) bool {
	return math.Abs(x) < EPSILON
}

// IsEqual reports whether a and b are within EPSILON of each other.
func IsEqual(a, b float64) bool {
	return math.Abs(a-b) < EPSILON
}

// IsPositive reports whether x is at least EPSILON above zero.
func IsPositive(x float64) bool {
	return x >= EPSILON
}

// IsLess reports whether a is less than b by at least EPSILON.
func IsLess(a, b float64) bool {
	return a < b-EPSILON
}

// IsGreater reports whether a is greater than b by at least EPSILON.
func IsGreater(a, b float64) bool {
	return a > b+EPSILON
}

// SubtractOrZero subtracts sub from t and snaps the result to exactly zero
// once it falls below EPSILON, so dust never keeps an order or a level alive.
func SubtractOrZero(t, sub float64) float64 {
	t -= sub
	if t < EPSILON {
		return 0
	}
	return t
}
