// Package intutils implements utility functions for ints
package intutils

// Min returns the minimum int in a list
func Min(ints ...int) int {
	min := ints[0]
	for _, val := range ints {
		if val < min {
			min = val
		}
	}
	return min
}

// Max returns the maximum int in a list
func Max(ints ...int) int {
	max := ints[0]
	for _, val := range ints {
		if val > max {
			max = val
		}
	}
	return max
}

// CeilDiv returns the ceiling of a/b for positive ints
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}
