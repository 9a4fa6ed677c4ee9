package recurrence

// RecurrenceRate is the fraction of recurrent entries.
func RecurrenceRate(m *Matrix) float64 {
	return m.Density()
}

// Determinism is the fraction of off-diagonal recurrence points that lie on
// diagonal lines of length >= lmin. The line of identity is excluded.
func Determinism(m *Matrix, lmin int) float64 {
	if lmin < 1 {
		lmin = 1
	}
	n := m.Size()
	total, onLines := 0, 0

	// upper triangle only; the lower mirrors it
	for k := 1; k < n; k++ {
		run := 0
		for i := 0; i+k < n; i++ {
			if m.At(i, i+k) {
				run++
				total++
				continue
			}
			if run >= lmin {
				onLines += run
			}
			run = 0
		}
		if run >= lmin {
			onLines += run
		}
	}

	if total == 0 {
		return 0
	}
	return float64(onLines) / float64(total)
}

// Laminarity is the fraction of recurrence points that lie on vertical lines
// of length >= vmin.
func Laminarity(m *Matrix, vmin int) float64 {
	if vmin < 1 {
		vmin = 1
	}
	n := m.Size()
	total, onLines := 0, 0

	for j := 0; j < n; j++ {
		run := 0
		for i := 0; i < n; i++ {
			if m.At(i, j) {
				run++
				total++
				continue
			}
			if run >= vmin {
				onLines += run
			}
			run = 0
		}
		if run >= vmin {
			onLines += run
		}
	}

	if total == 0 {
		return 0
	}
	return float64(onLines) / float64(total)
}
