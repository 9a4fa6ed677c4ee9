package fisher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSmooth(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		block  int
		want   []float64
	}{
		{"identity", []float64{1, 5, 2}, 1, []float64{1, 5, 2}},
		{"even blocks", []float64{1, 3, 5, 7}, 2, []float64{2, 2, 6, 6}},
		{"partial tail", []float64{1, 3, 5, 7, 10}, 2, []float64{2, 2, 6, 6, 10}},
		{"single block", []float64{1, 2, 3}, 10, []float64{2, 2, 2}},
		{"empty", nil, 3, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Smooth(tt.values, tt.block)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSmooth_DoesNotAlias(t *testing.T) {
	in := []float64{1, 2, 3}
	out := Smooth(in, 1)
	out[0] = 99
	assert.Equal(t, 1.0, in[0])
}

func TestDefaultBlockSize(t *testing.T) {
	assert.Equal(t, 1, DefaultBlockSize(0))
	assert.Equal(t, 1, DefaultBlockSize(14))
	assert.Equal(t, 2, DefaultBlockSize(31))
}

func TestSeries_Smoothed(t *testing.T) {
	s := &Series{Time: []float64{0, 1, 2, 3}, Values: []float64{1, 3, 5, 7}, WindowSize: 5}
	sm := s.Smoothed(2)
	assert.Equal(t, []float64{2, 2, 6, 6}, sm.Values)
	assert.Equal(t, s.Time, sm.Time)
	assert.Equal(t, []float64{1, 3, 5, 7}, s.Values)
	assert.Equal(t, 5, sm.WindowSize)
}
