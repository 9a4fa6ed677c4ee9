package dynamo

import (
	"fmt"
	"math"
)

// State is a point in a reconstructed state space.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// SquaredDistance is the squared Euclidean distance between two states of
// equal dimension.
func (s State) SquaredDistance(other State) float64 {
	sum := 0.0
	for i := range s {
		d := s[i] - other[i]
		sum += d * d
	}
	return sum
}

func (s State) Distance(other State) float64 {
	return math.Sqrt(s.SquaredDistance(other))
}

// Metadata is descriptive information that travels with a series but never
// takes part in computation.
type Metadata struct {
	Label     string `json:"label,omitempty" yaml:"label,omitempty"`
	TimeName  string `json:"time_name,omitempty" yaml:"time_name,omitempty"`
	TimeUnit  string `json:"time_unit,omitempty" yaml:"time_unit,omitempty"`
	ValueName string `json:"value_name,omitempty" yaml:"value_name,omitempty"`
	ValueUnit string `json:"value_unit,omitempty" yaml:"value_unit,omitempty"`
}

// Series is an ordered sequence of (time, value) samples.
type Series struct {
	Time   []float64
	Values []float64
	Meta   Metadata
}

// NewSeries validates and wraps a time axis and its values. The slices are
// copied.
func NewSeries(time, values []float64) (*Series, error) {
	s := &Series{
		Time:   append([]float64(nil), time...),
		Values: append([]float64(nil), values...),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Indexed builds a series with time 0, 1, ..., len(values)-1.
func Indexed(values []float64) *Series {
	t := make([]float64, len(values))
	for i := range t {
		t[i] = float64(i)
	}
	return &Series{Time: t, Values: append([]float64(nil), values...)}
}

func (s *Series) Len() int {
	return len(s.Values)
}

// Validate checks that the series is non-empty, finite and sits on a strictly
// monotonic time axis of matching length.
func (s *Series) Validate() error {
	if len(s.Values) == 0 {
		return ErrEmptySeries
	}
	if len(s.Time) != len(s.Values) {
		return fmt.Errorf("%w: %d times, %d values", ErrTimeAxisMismatch, len(s.Time), len(s.Values))
	}
	if !State(s.Values).IsValid() || !State(s.Time).IsValid() {
		return ErrInvalidState
	}
	if len(s.Time) < 2 {
		return nil
	}

	increasing := s.Time[1] > s.Time[0]
	for i := 1; i < len(s.Time); i++ {
		d := s.Time[i] - s.Time[i-1]
		if d == 0 || (d > 0) != increasing {
			return fmt.Errorf("%w: at index %d", ErrNonMonotonicTime, i)
		}
	}
	return nil
}

// Reversed returns a copy with both axes flipped.
func (s *Series) Reversed() *Series {
	n := len(s.Values)
	r := &Series{
		Time:   make([]float64, n),
		Values: make([]float64, n),
		Meta:   s.Meta,
	}
	for i := 0; i < n; i++ {
		r.Time[i] = s.Time[n-1-i]
		r.Values[i] = s.Values[n-1-i]
	}
	return r
}

// EmbeddedSeries is a delay-embedded trajectory. Points[i][k] is the original
// value at index i + k*Tau.
type EmbeddedSeries struct {
	Time   []float64
	Points []State
	M      int
	Tau    int
	Meta   Metadata
}

// NewEmbeddedSeries wraps precomputed embedded data. A nil or mismatched time
// axis is rejected.
func NewEmbeddedSeries(points []State, time []float64, m, tau int) (*EmbeddedSeries, error) {
	if time == nil {
		return nil, fmt.Errorf("%w: embedded data supplied without time axis", ErrTimeAxisMismatch)
	}
	if len(time) != len(points) {
		return nil, fmt.Errorf("%w: %d times, %d points", ErrTimeAxisMismatch, len(time), len(points))
	}
	for i, p := range points {
		if len(p) != m {
			return nil, fmt.Errorf("%w: point %d has dimension %d, want %d", ErrInvalidParameter, i, len(p), m)
		}
		if !p.IsValid() {
			return nil, fmt.Errorf("%w: point %d", ErrInvalidState, i)
		}
	}
	return &EmbeddedSeries{Time: time, Points: points, M: m, Tau: tau}, nil
}

func (e *EmbeddedSeries) Len() int {
	return len(e.Points)
}

// Dim is the embedding dimension.
func (e *EmbeddedSeries) Dim() int {
	return e.M
}
