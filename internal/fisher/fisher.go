package fisher

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/dynrec/internal/dynamo"
)

// Levels is the number of strictness levels swept per window.
const Levels = 100

// Missing marks an absent sample.
var Missing = math.NaN()

func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Series is a Fisher Information series with its provenance.
type Series struct {
	Time   []float64
	Values []float64

	WindowSize      int
	WindowIncrement int

	// Profiles holds the per-level Fisher values of each window.
	Profiles [][]float64
	// Baseline is the first level averaged into Values.
	Baseline   int
	Thresholds []float64
}

func (s *Series) Len() int {
	return len(s.Values)
}

// Smoothed returns a copy with block-averaged values. block <= 0 selects
// DefaultBlockSize.
func (s *Series) Smoothed(block int) *Series {
	if block <= 0 {
		block = DefaultBlockSize(len(s.Values))
	}
	c := *s
	c.Values = Smooth(s.Values, block)
	return &c
}

// WindowCount is the number of complete windows of size wSize, stepped by
// wIncre, that fit into n samples.
func WindowCount(n, wSize, wIncre int) int {
	if wSize < 1 || wIncre < 1 || n < wSize {
		return 0
	}
	return (n-wSize)/wIncre + 1
}

// Information is 4 * sum of squared differences of sqrt(p) over the group
// fractions bracketed by zeros.
func Information(prob []float64) float64 {
	prev, fi := 0.0, 0.0
	for _, p := range prob {
		q := math.Sqrt(p)
		fi += (prev - q) * (prev - q)
		prev = q
	}
	fi += prev * prev
	return 4 * fi
}

// DegenerateValue is the Fisher value of a window collapsed into one group.
func DegenerateValue() float64 {
	return Information([]float64{1})
}

// SOST returns, per dimension, twice the smallest sample standard deviation
// over every length-wSize run with no missing values. A dimension without
// any such run gets 0.
func SOST(rows [][]float64, wSize int) []float64 {
	if len(rows) == 0 {
		return nil
	}
	dims := len(rows[0])
	out := make([]float64, dims)
	if wSize < 2 {
		return out
	}

	buf := make([]float64, wSize)
	for k := 0; k < dims; k++ {
		best := math.Inf(1)
		for start := 0; start+wSize <= len(rows); start++ {
			valid := true
			for i := 0; i < wSize; i++ {
				v := rows[start+i][k]
				if IsMissing(v) {
					valid = false
					break
				}
				buf[i] = v
			}
			if !valid {
				continue
			}
			if sd := stat.StdDev(buf, nil); sd < best {
				best = sd
			}
		}
		if !math.IsInf(best, 1) {
			out[k] = 2 * best
		}
	}
	return out
}

// Compute evaluates the Fisher Information over windows of wSize rows,
// advancing wIncre rows at a time. Each value is stamped with the time of the
// window's last row.
func Compute(time []float64, rows [][]float64, wSize, wIncre int) (*Series, error) {
	if wSize < 1 {
		return nil, dynamo.InvalidParam("window size", wSize, "must be >= 1")
	}
	if wIncre < 1 {
		return nil, dynamo.InvalidParam("window increment", wIncre, "must be >= 1")
	}
	if len(rows) == 0 {
		return nil, dynamo.ErrEmptySeries
	}
	if len(time) != len(rows) {
		return nil, fmt.Errorf("%w: %d times, %d rows", dynamo.ErrTimeAxisMismatch, len(time), len(rows))
	}
	dims := len(rows[0])
	if dims == 0 {
		return nil, dynamo.InvalidParam("dimension", 0, "must be >= 1")
	}
	for i, r := range rows {
		if len(r) != dims {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", dynamo.ErrInvalidParameter, i, len(r), dims)
		}
	}

	count := WindowCount(len(rows), wSize, wIncre)
	if count == 0 {
		return nil, fmt.Errorf("%w: %d rows, window size %d", dynamo.ErrSeriesTooShort, len(rows), wSize)
	}

	thr := SOST(rows, wSize)
	profiles := make([][]float64, count)
	dynamo.ParallelFor(count, 4, func(start, end int) {
		counts := newCounts(wSize)
		for w := start; w < end; w++ {
			lo := w * wIncre
			profiles[w] = profile(rows[lo:lo+wSize], thr, counts)
		}
	})

	degenerate := DegenerateValue()
	baseline := -1
	for _, p := range profiles {
		for t, v := range p {
			if v != degenerate {
				if baseline < 0 || t < baseline {
					baseline = t
				}
				break
			}
		}
	}
	if baseline < 0 {
		baseline = 0
	}

	s := &Series{
		Time:            make([]float64, count),
		Values:          make([]float64, count),
		WindowSize:      wSize,
		WindowIncrement: wIncre,
		Profiles:        profiles,
		Baseline:        baseline,
		Thresholds:      thr,
	}
	for w, p := range profiles {
		s.Time[w] = time[w*wIncre+wSize-1]
		s.Values[w] = stat.Mean(p[baseline:], nil)
	}
	return s, nil
}

func newCounts(n int) [][]int {
	c := make([][]int, n)
	for i := range c {
		c[i] = make([]int, n)
	}
	return c
}

// profile returns the Fisher value of one window at each strictness level.
// counts is scratch space of size len(win) x len(win).
func profile(win [][]float64, thr []float64, counts [][]int) []float64 {
	n := len(win)
	dims := len(thr)

	for a := 0; a < n; a++ {
		counts[a][a] = 0
		for b := a + 1; b < n; b++ {
			c := 0
			for k := 0; k < dims; k++ {
				if math.Abs(win[a][k]-win[b][k]) <= thr[k] {
					c++
				}
			}
			counts[a][b] = c
			counts[b][a] = c
		}
	}

	out := make([]float64, Levels)
	assigned := make([]bool, n)
	prob := make([]float64, 0, n)
	for tl := 1; tl <= Levels; tl++ {
		need := float64(dims) * float64(tl) / Levels
		for i := range assigned {
			assigned[i] = false
		}
		prob = prob[:0]

		for seed := 0; seed < n; seed++ {
			if assigned[seed] {
				continue
			}
			assigned[seed] = true
			size := 1
			for i := 0; i < n; i++ {
				if i != seed && !assigned[i] && float64(counts[seed][i]) >= need {
					assigned[i] = true
					size++
				}
			}
			prob = append(prob, float64(size)/float64(n))
		}
		out[tl-1] = Information(prob)
	}
	return out
}
