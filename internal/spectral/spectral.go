// Package spectral computes Laplacian eigenmaps of recurrence matrices.
package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dynrec/internal/dynamo"
	"github.com/san-kum/dynrec/internal/recurrence"
)

// Components is the number of non-trivial eigenvectors kept per time index.
const Components = 4

// Coordinates holds the spectral embedding of a recurrence matrix. Values[i]
// is the i-th time index projected onto eigenvectors 2..5 of the generalized
// problem L v = lambda D v.
type Coordinates struct {
	Time        []float64
	Values      [][]float64
	Eigenvalues []float64
	// Eigenmap has one generalized eigenvector per column, ascending by
	// eigenvalue, each scaled so that v' D v = 1.
	Eigenmap *mat.Dense
}

func (c *Coordinates) Len() int {
	return len(c.Values)
}

// Column returns component k for every time index.
func (c *Coordinates) Column(k int) []float64 {
	out := make([]float64, len(c.Values))
	for i, row := range c.Values {
		out[i] = row[k]
	}
	return out
}

// Embed solves L v = lambda D v with W = R + 1, D = diag(column sums of W)
// and L = D - W, through the symmetric form D^-1/2 L D^-1/2.
func Embed(r *recurrence.Matrix) (*Coordinates, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	n := r.Size()
	if n <= Components {
		return nil, fmt.Errorf("%w: need more than %d points, got %d", dynamo.ErrSeriesTooShort, Components, n)
	}

	// W is symmetric, so column sums equal row sums.
	isqrt := make([]float64, n)
	for j := 0; j < n; j++ {
		d := 0.0
		for i := 0; i < n; i++ {
			d += weight(r, i, j)
		}
		isqrt[j] = 1 / math.Sqrt(d)
	}

	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		s.SetSym(i, i, 1-weight(r, i, i)*isqrt[i]*isqrt[i])
		for j := i + 1; j < n; j++ {
			s.SetSym(i, j, -weight(r, i, j)*isqrt[i]*isqrt[j])
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(s, true); !ok {
		return nil, dynamo.ErrEigenFailed
	}
	values := es.Values(nil)
	var u mat.Dense
	es.VectorsTo(&u)

	v := mat.NewDense(n, n, nil)
	for k := 0; k < n; k++ {
		maxAbs, sign := 0.0, 1.0
		for i := 0; i < n; i++ {
			x := u.At(i, k) * isqrt[i]
			v.Set(i, k, x)
			if a := math.Abs(x); a > maxAbs {
				maxAbs = a
				sign = math.Copysign(1, x)
			}
		}
		if sign < 0 {
			for i := 0; i < n; i++ {
				v.Set(i, k, -v.At(i, k))
			}
		}
	}

	coords := &Coordinates{
		Time:        r.Time,
		Values:      make([][]float64, n),
		Eigenvalues: values,
		Eigenmap:    v,
	}
	for i := 0; i < n; i++ {
		row := make([]float64, Components)
		for k := range row {
			row[k] = v.At(i, k+1)
		}
		coords.Values[i] = row
	}
	return coords, nil
}

func weight(r *recurrence.Matrix, i, j int) float64 {
	if r.At(i, j) {
		return 2
	}
	return 1
}
