package embed

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/dynrec/internal/dynamo"
)

// DefaultNumLags is the number of delays TauSearch examines when none is given.
const DefaultNumLags = 30

// ErrNoLocalMinimum is returned when the mutual information curve has no
// interior minimum over the tested lags.
var ErrNoLocalMinimum = errors.New("embed: no local minimum found in mutual information")

// TauResult holds the selected delay and the curve it was read from.
// MI[i] is the mutual information at lag i+1.
type TauResult struct {
	Tau int
	MI  []float64
}

// TauSearch computes the mutual information between the series and its
// lagged copy for lags 1..numLags and returns the first local minimum.
// Values are binned into bins of binWidth after shifting each copy to start
// at zero; binWidth <= 0 means unit-width bins.
func TauSearch(values []float64, numLags int, binWidth float64) (*TauResult, error) {
	if numLags <= 0 {
		numLags = DefaultNumLags
	}
	if numLags < 3 {
		return nil, dynamo.InvalidParam("num_lags", numLags, "must be >= 3")
	}
	if binWidth <= 0 {
		binWidth = 1
	}
	if len(values) < numLags+2 {
		return nil, fmt.Errorf("%w: %d samples for %d lags", dynamo.ErrSeriesTooShort, len(values), numLags)
	}

	mi := make([]float64, numLags)
	for lag := 1; lag <= numLags; lag++ {
		n := len(values) - lag
		mi[lag-1] = MutualInformation(values[:n], values[lag:], binWidth)
	}

	idx, ok := firstLocalMinimum(mi)
	if !ok {
		return &TauResult{MI: mi}, fmt.Errorf("%w over %d lags", ErrNoLocalMinimum, numLags)
	}
	return &TauResult{Tau: idx + 1, MI: mi}, nil
}

// firstLocalMinimum returns the first interior index strictly below both
// neighbours.
func firstLocalMinimum(curve []float64) (int, bool) {
	for i := 1; i < len(curve)-1; i++ {
		if curve[i] < curve[i-1] && curve[i] < curve[i+1] {
			return i, true
		}
	}
	return 0, false
}

// MutualInformation estimates I(X;Y) in bits from equal-width bins.
// x and y must have equal length.
func MutualInformation(x, y []float64, binWidth float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}
	if binWidth <= 0 {
		binWidth = 1
	}

	bx := binIndices(x, binWidth)
	by := binIndices(y, binWidth)

	type cell struct{ a, b int }
	px := make(map[int]float64)
	py := make(map[int]float64)
	pxy := make(map[cell]float64)
	w := 1 / float64(n)
	for i := 0; i < n; i++ {
		px[bx[i]] += w
		py[by[i]] += w
		pxy[cell{bx[i], by[i]}] += w
	}

	hx := stat.Entropy(probabilities(px))
	hy := stat.Entropy(probabilities(py))
	hxy := stat.Entropy(probabilities(pxy))

	mi := (hx + hy - hxy) / math.Ln2
	if mi < 0 {
		// rounding when the joint distribution is the product of the marginals
		return 0
	}
	return mi
}

func binIndices(v []float64, width float64) []int {
	lo := v[0]
	for _, x := range v[1:] {
		if x < lo {
			lo = x
		}
	}
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(math.Floor((x - lo) / width))
	}
	return out
}

func probabilities[K comparable](m map[K]float64) []float64 {
	p := make([]float64, 0, len(m))
	for _, v := range m {
		p = append(p, v)
	}
	sort.Float64s(p)
	return p
}
