package fisher

import "gonum.org/v1/gonum/stat"

// DefaultBlockSize is a fifteenth of the series length, at least 1.
func DefaultBlockSize(n int) int {
	return max(1, n/15)
}

// Smooth replaces every value with the mean of its block. Blocks start at
// multiples of block; a trailing partial block is averaged over the values it
// has. The result has the same length as values.
func Smooth(values []float64, block int) []float64 {
	out := make([]float64, len(values))
	if block <= 1 {
		copy(out, values)
		return out
	}
	for lo := 0; lo < len(values); lo += block {
		hi := min(lo+block, len(values))
		m := stat.Mean(values[lo:hi], nil)
		for i := lo; i < hi; i++ {
			out[i] = m
		}
	}
	return out
}
