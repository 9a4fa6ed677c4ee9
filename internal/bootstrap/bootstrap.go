// Package bootstrap estimates significance bands for a scalar statistic by
// resampling means with replacement.
package bootstrap

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/dynrec/internal/dynamo"
)

const (
	DefaultUpper   = 95.0
	DefaultLower   = 5.0
	DefaultSamples = 10000
	DefaultSeed    = 42
)

type Options struct {
	// Upper and Lower are percentiles in [0, 100].
	Upper float64
	Lower float64
	// Width is the size of each resample; 0 uses the number of values.
	Width   int
	Samples int
	Seed    int64
}

func DefaultOptions() Options {
	return Options{
		Upper:   DefaultUpper,
		Lower:   DefaultLower,
		Samples: DefaultSamples,
		Seed:    DefaultSeed,
	}
}

// Band is the significance interval of the resampled means.
type Band struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether v lies strictly inside the band.
func (b Band) Contains(v float64) bool {
	return v > b.Lower && v < b.Upper
}

func (b Band) String() string {
	return fmt.Sprintf("[%.4f, %.4f]", b.Lower, b.Upper)
}

// Estimate draws opts.Samples resamples of opts.Width values with
// replacement, and reports the requested percentiles of their means. The same
// seed always yields the same band.
func Estimate(values []float64, opts Options) (Band, error) {
	if len(values) == 0 {
		return Band{}, dynamo.ErrEmptySeries
	}
	if !validPercentile(opts.Upper) {
		return Band{}, dynamo.InvalidParam("upper percentile", opts.Upper, "must be in [0, 100]")
	}
	if !validPercentile(opts.Lower) {
		return Band{}, dynamo.InvalidParam("lower percentile", opts.Lower, "must be in [0, 100]")
	}
	if opts.Samples < 1 {
		return Band{}, dynamo.InvalidParam("samples", opts.Samples, "must be >= 1")
	}
	if opts.Width < 0 {
		return Band{}, dynamo.InvalidParam("width", opts.Width, "must be >= 0")
	}
	if !dynamo.State(values).IsValid() {
		return Band{}, dynamo.ErrInvalidState
	}

	width := opts.Width
	if width == 0 {
		width = len(values)
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	means := make([]float64, opts.Samples)
	draw := make([]float64, width)
	for s := range means {
		for i := range draw {
			draw[i] = values[rng.Intn(len(values))]
		}
		means[s] = stat.Mean(draw, nil)
	}
	sort.Float64s(means)

	hi := Percentile(means, opts.Upper)
	lo := Percentile(means, opts.Lower)
	return Band{Lower: math.Min(lo, hi), Upper: math.Max(lo, hi)}, nil
}

// Percentile interpolates linearly between the two closest ranks of a sorted
// slice, with rank p/100 * (n-1).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func validPercentile(p float64) bool {
	return p >= 0 && p <= 100
}
