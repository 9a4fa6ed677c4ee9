package embed

import (
	"fmt"

	"github.com/san-kum/dynrec/internal/dynamo"
)

// Trim selects which end of the time axis is dropped by the embedding.
type Trim int

const (
	// TrimStart keeps the trailing N-m*tau timestamps.
	TrimStart Trim = iota
	// TrimEnd keeps the leading N-m*tau timestamps.
	TrimEnd
)

func (t Trim) String() string {
	if t == TrimEnd {
		return "end"
	}
	return "start"
}

// Options controls Embed.
type Options struct {
	M          int
	Tau        int
	// AutoTau selects tau from the first minimum of the mutual information
	// curve and ignores Tau.
	AutoTau    bool
	NumLags    int
	BinWidth   float64
	Trim       Trim
	InvertTime bool
}

// Embed builds the delay vectors (V[i], V[i+tau], ..., V[i+(m-1)tau]) for
// i in [0, N-m*tau).
func Embed(s *dynamo.Series, opts Options) (*dynamo.EmbeddedSeries, error) {
	if s == nil {
		return nil, dynamo.ErrEmptySeries
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if opts.M < 1 {
		return nil, dynamo.InvalidParam("m", opts.M, "must be >= 1")
	}

	src := s
	if opts.InvertTime {
		src = s.Reversed()
	}

	tau := opts.Tau
	if !opts.AutoTau && tau < 1 {
		return nil, dynamo.InvalidParam("tau", tau, "must be >= 1")
	}
	if opts.AutoTau {
		res, err := TauSearch(src.Values, opts.NumLags, opts.BinWidth)
		if err != nil {
			return nil, fmt.Errorf("selecting tau: %w", err)
		}
		tau = res.Tau
	}

	emb, err := Vectors(src.Values, opts.M, tau)
	if err != nil {
		return nil, err
	}

	n := len(emb)
	var axis []float64
	if opts.Trim == TrimEnd {
		axis = append([]float64(nil), src.Time[:n]...)
	} else {
		axis = append([]float64(nil), src.Time[len(src.Time)-n:]...)
	}

	return &dynamo.EmbeddedSeries{
		Time:   axis,
		Points: emb,
		M:      opts.M,
		Tau:    tau,
		Meta:   s.Meta,
	}, nil
}

// Vectors is the embedding without a time axis.
func Vectors(values []float64, m, tau int) ([]dynamo.State, error) {
	if m < 1 {
		return nil, dynamo.InvalidParam("m", m, "must be >= 1")
	}
	if tau < 1 {
		return nil, dynamo.InvalidParam("tau", tau, "must be >= 1")
	}
	n := len(values) - m*tau
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d samples, m*tau = %d", dynamo.ErrSeriesTooShort, len(values), m*tau)
	}

	backing := make([]float64, n*m)
	points := make([]dynamo.State, n)
	for i := 0; i < n; i++ {
		p := backing[i*m : (i+1)*m : (i+1)*m]
		for k := 0; k < m; k++ {
			p[k] = values[i+k*tau]
		}
		points[i] = p
	}
	return points, nil
}
