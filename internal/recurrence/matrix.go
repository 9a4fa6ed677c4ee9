package recurrence

import (
	"fmt"
	"math"

	"github.com/san-kum/dynrec/internal/dynamo"
)

// Matrix is a square 0/1 recurrence matrix. Epsilon, M, Tau and Time are
// provenance only.
type Matrix struct {
	n    int
	data []bool

	Epsilon float64
	M       int
	Tau     int
	Time    []float64
}

// New returns an n x n matrix with only the diagonal set.
func New(n int) *Matrix {
	m := &Matrix{n: n, data: make([]bool, n*n)}
	for i := 0; i < n; i++ {
		m.data[i*n+i] = true
	}
	return m
}

// FromRows copies a row-major boolean table. The table must be square;
// symmetry is checked by Validate.
func FromRows(rows [][]bool) (*Matrix, error) {
	n := len(rows)
	m := &Matrix{n: n, data: make([]bool, n*n)}
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", dynamo.ErrNotSquare, i, len(row), n)
		}
		copy(m.data[i*n:(i+1)*n], row)
	}
	return m, nil
}

func (m *Matrix) Size() int {
	return m.n
}

func (m *Matrix) At(i, j int) bool {
	return m.data[i*m.n+j]
}

// Set writes a single entry without mirroring it.
func (m *Matrix) Set(i, j int, v bool) {
	m.data[i*m.n+j] = v
}

func (m *Matrix) setPair(i, j int) {
	m.data[i*m.n+j] = true
	m.data[j*m.n+i] = true
}

// Count is the number of set entries, diagonal included.
func (m *Matrix) Count() int {
	c := 0
	for _, v := range m.data {
		if v {
			c++
		}
	}
	return c
}

// Density is Count / n^2.
func (m *Matrix) Density() float64 {
	if m.n == 0 {
		return 0
	}
	return float64(m.Count()) / float64(m.n*m.n)
}

// Validate reports ErrNotSymmetric if any mirrored pair disagrees.
func (m *Matrix) Validate() error {
	if len(m.data) != m.n*m.n {
		return dynamo.ErrNotSquare
	}
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			if m.data[i*m.n+j] != m.data[j*m.n+i] {
				return fmt.Errorf("%w: (%d,%d)", dynamo.ErrNotSymmetric, i, j)
			}
		}
	}
	return nil
}

// Rows returns a copy of the matrix as a row-major table.
func (m *Matrix) Rows() [][]bool {
	rows := make([][]bool, m.n)
	for i := range rows {
		rows[i] = append([]bool(nil), m.data[i*m.n:(i+1)*m.n]...)
	}
	return rows
}

// Float returns the matrix as 0/1 float64 values in row-major order.
func (m *Matrix) Float() []float64 {
	out := make([]float64, len(m.data))
	for i, v := range m.data {
		if v {
			out[i] = 1
		}
	}
	return out
}

func checkEpsilon(eps float64) error {
	if eps < 0 || math.IsNaN(eps) || math.IsInf(eps, 0) {
		return dynamo.InvalidParam("epsilon", eps, "must be finite and >= 0")
	}
	return nil
}

// Build evaluates every pair (i < j) once against eps and mirrors the result.
// The squared-distance accumulation stops as soon as it exceeds eps^2.
func Build(emb *dynamo.EmbeddedSeries, eps float64) (*Matrix, error) {
	if err := checkEpsilon(eps); err != nil {
		return nil, err
	}
	if emb == nil || emb.Len() == 0 {
		return nil, dynamo.ErrEmptySeries
	}

	n := emb.Len()
	m := New(n)
	m.Epsilon, m.M, m.Tau, m.Time = eps, emb.M, emb.Tau, emb.Time

	eps2 := eps * eps
	pts := emb.Points
	for i := 0; i < n; i++ {
		a := pts[i]
		for j := i + 1; j < n; j++ {
			b := pts[j]
			sum := 0.0
			within := true
			for k := range a {
				d := a[k] - b[k]
				sum += d * d
				if sum > eps2 {
					within = false
					break
				}
			}
			if within {
				m.setPair(i, j)
			}
		}
	}
	return m, nil
}
