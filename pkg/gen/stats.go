// Package gen holds small generic helpers.
package gen

import "math"

// Mean returns the arithmetic mean of src, or 0 if src is empty.
func Mean[T ~float32 | ~float64](src []T) T {
	if len(src) == 0 {
		return 0
	}
	sum := T(0)
	for _, v := range src {
		sum += v
	}
	return sum / T(len(src))
}

// Round2 rounds to 2 decimal places, the precision we store confidences at.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
