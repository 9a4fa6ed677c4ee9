package recurrence

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynrec/internal/dynamo"
)

func line(n int) *dynamo.EmbeddedSeries {
	pts := make([]dynamo.State, n)
	tm := make([]float64, n)
	for i := range pts {
		pts[i] = dynamo.State{float64(i)}
		tm[i] = float64(i)
	}
	emb, err := dynamo.NewEmbeddedSeries(pts, tm, 1, 1)
	if err != nil {
		panic(err)
	}
	return emb
}

func randomCloud(n, dim int, seed int64) *dynamo.EmbeddedSeries {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]dynamo.State, n)
	tm := make([]float64, n)
	for i := range pts {
		p := make(dynamo.State, dim)
		for k := range p {
			p[k] = rng.NormFloat64()
		}
		pts[i] = p
		tm[i] = float64(i)
	}
	emb, err := dynamo.NewEmbeddedSeries(pts, tm, dim, 1)
	if err != nil {
		panic(err)
	}
	return emb
}

func TestBuild_SymmetricWithDiagonal(t *testing.T) {
	emb := randomCloud(60, 3, 1)
	for _, eps := range []float64{0, 0.3, 1, 2.5} {
		m, err := Build(emb, eps)
		require.NoError(t, err)
		require.NoError(t, m.Validate())
		for i := 0; i < m.Size(); i++ {
			assert.True(t, m.At(i, i), "diagonal %d at eps %v", i, eps)
		}
	}
}

func TestBuild_ZeroEpsilonIsIdentity(t *testing.T) {
	m, err := Build(line(20), 0)
	require.NoError(t, err)
	assert.Equal(t, 20, m.Count())
	assert.InDelta(t, 1.0/20, m.Density(), 1e-12)
}

func TestBuild_DensityMonotonicInEpsilon(t *testing.T) {
	emb := randomCloud(80, 2, 7)
	prev := 0.0
	for eps := 0.0; eps <= 4; eps += 0.25 {
		m, err := Build(emb, eps)
		require.NoError(t, err)
		d := m.Density()
		assert.GreaterOrEqual(t, d, prev, "eps %v", eps)
		prev = d
	}
	assert.Equal(t, 1.0, prev)
}

func TestBuild_UniformLineDensity(t *testing.T) {
	const n = 101
	emb := line(n)
	for _, k := range []int{0, 1, 5, 29, 100} {
		m, err := Build(emb, float64(k))
		require.NoError(t, err)
		pairs := k*n - k*(k+1)/2
		assert.Equal(t, n+2*pairs, m.Count(), "k=%d", k)
	}
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(line(5), -1)
	assert.True(t, errors.Is(err, dynamo.ErrInvalidParameter))

	_, err = Build(line(5), math.NaN())
	assert.True(t, errors.Is(err, dynamo.ErrInvalidParameter))

	_, err = Build(&dynamo.EmbeddedSeries{}, 1)
	assert.True(t, errors.Is(err, dynamo.ErrEmptySeries))
}

func TestBuild_CarriesProvenance(t *testing.T) {
	emb := line(10)
	m, err := Build(emb, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, m.Epsilon)
	assert.Equal(t, emb.Time, m.Time)
	assert.Equal(t, 1, m.M)
}

func TestFromRows(t *testing.T) {
	m, err := FromRows([][]bool{
		{true, false},
		{true, true},
	})
	require.NoError(t, err)
	assert.True(t, errors.Is(m.Validate(), dynamo.ErrNotSymmetric))

	_, err = FromRows([][]bool{{true, false}, {true}})
	assert.True(t, errors.Is(err, dynamo.ErrNotSquare))

	m.Set(0, 1, true)
	assert.NoError(t, m.Validate())
	assert.Equal(t, [][]bool{{true, true}, {true, true}}, m.Rows())
}

func TestDistances_MatchesBuild(t *testing.T) {
	emb := randomCloud(150, 3, 3)
	d, err := NewDistances(emb)
	require.NoError(t, err)
	require.Equal(t, emb.Len(), d.Size())

	for _, eps := range []float64{0, 0.5, 1.1, 2, 10} {
		want, err := Build(emb, eps)
		require.NoError(t, err)
		got, err := d.Threshold(eps)
		require.NoError(t, err)

		assert.Equal(t, want.Rows(), got.Rows(), "eps %v", eps)
		density, err := d.Density(eps)
		require.NoError(t, err)
		assert.Equal(t, want.Density(), density)
	}
}

func TestDistances_Max(t *testing.T) {
	d, err := NewDistances(line(11))
	require.NoError(t, err)
	assert.InDelta(t, 10, d.Max(), 1e-12)

	density, err := d.Density(d.Max())
	require.NoError(t, err)
	assert.Equal(t, 1.0, density)

	_, err = d.Density(-0.1)
	assert.Error(t, err)
}
