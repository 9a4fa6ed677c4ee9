package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterminism(t *testing.T) {
	// band matrix: every off-diagonal point sits on a long diagonal
	m, err := Build(line(30), 2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, Determinism(m, 2), 1e-12)
	assert.Equal(t, m.Density(), RecurrenceRate(m))

	// identity has no off-diagonal points
	id := New(10)
	assert.Equal(t, 0.0, Determinism(id, 2))
}

func TestDeterminism_IsolatedPoints(t *testing.T) {
	m := New(6)
	m.Set(0, 3, true)
	m.Set(3, 0, true)
	assert.Equal(t, 0.0, Determinism(m, 2))
	assert.Equal(t, 1.0, Determinism(m, 1))
}

func TestLaminarity(t *testing.T) {
	full, err := Build(line(10), 100)
	require.NoError(t, err)
	assert.Equal(t, 1.0, Laminarity(full, 2))

	// identity: every column has a single point
	assert.Equal(t, 0.0, Laminarity(New(8), 2))
}
