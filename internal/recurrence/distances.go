package recurrence

import (
	"math"

	"github.com/san-kum/dynrec/internal/dynamo"
)

// Distances holds the squared pairwise distances of an embedded series,
// upper triangle only, row by row.
type Distances struct {
	n    int
	sq   []float64
	emb  *dynamo.EmbeddedSeries
	rows []int
}

// NewDistances computes the upper triangle in parallel over rows.
func NewDistances(emb *dynamo.EmbeddedSeries) (*Distances, error) {
	if emb == nil || emb.Len() == 0 {
		return nil, dynamo.ErrEmptySeries
	}

	n := emb.Len()
	d := &Distances{
		n:    n,
		sq:   make([]float64, n*(n-1)/2),
		emb:  emb,
		rows: make([]int, n),
	}
	off := 0
	for i := 0; i < n; i++ {
		d.rows[i] = off
		off += n - i - 1
	}

	pts := emb.Points
	dynamo.ParallelFor(n, 16, func(start, end int) {
		for i := start; i < end; i++ {
			row := d.sq[d.rows[i] : d.rows[i]+n-i-1]
			a := pts[i]
			for j := i + 1; j < n; j++ {
				row[j-i-1] = a.SquaredDistance(pts[j])
			}
		}
	})
	return d, nil
}

func (d *Distances) Size() int {
	return d.n
}

// Count is the number of recurrent entries at eps, diagonal included.
func (d *Distances) Count(eps float64) int {
	eps2 := eps * eps
	pairs := 0
	for _, v := range d.sq {
		if v <= eps2 {
			pairs++
		}
	}
	return d.n + 2*pairs
}

// Density reports the recurrence density at eps without materialising the
// matrix.
func (d *Distances) Density(eps float64) (float64, error) {
	if err := checkEpsilon(eps); err != nil {
		return 0, err
	}
	return float64(d.Count(eps)) / float64(d.n*d.n), nil
}

// Threshold materialises the recurrence matrix at eps.
func (d *Distances) Threshold(eps float64) (*Matrix, error) {
	if err := checkEpsilon(eps); err != nil {
		return nil, err
	}

	m := New(d.n)
	m.Epsilon, m.M, m.Tau, m.Time = eps, d.emb.M, d.emb.Tau, d.emb.Time

	eps2 := eps * eps
	for i := 0; i < d.n; i++ {
		row := d.sq[d.rows[i] : d.rows[i]+d.n-i-1]
		for k, v := range row {
			if v <= eps2 {
				m.setPair(i, i+1+k)
			}
		}
	}
	return m, nil
}

// Max is the largest pairwise distance, the epsilon at which density reaches 1.
func (d *Distances) Max() float64 {
	best := 0.0
	for _, v := range d.sq {
		if v > best {
			best = v
		}
	}
	return math.Sqrt(best)
}
