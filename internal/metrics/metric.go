// Package metrics summarises Fisher Information series and exports pipeline
// instrumentation to Prometheus.
package metrics

import (
	"math"

	"github.com/san-kum/dynrec/internal/bootstrap"
)

// Metric accumulates one scalar over a (time, value) series.
type Metric interface {
	Name() string
	Observe(t, v float64)
	Value() float64
	Reset()
}

// Summarize feeds every sample to each metric and collects their values.
func Summarize(time, values []float64, ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for i, v := range values {
			m.Observe(time[i], v)
		}
		out[m.Name()] = m.Value()
	}
	return out
}

// Stability is the fraction of samples inside a significance band.
type Stability struct {
	name       string
	band       bootstrap.Band
	violations int
	samples    int
}

func NewStability(band bootstrap.Band) *Stability {
	return &Stability{
		name: "stability",
		band: band,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(t, v float64) {
	s.samples++
	if !s.band.Contains(v) {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Drift is the largest relative departure from the first observed value.
type Drift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewDrift() *Drift {
	return &Drift{name: "max_drift"}
}

func (d *Drift) Name() string { return d.name }

func (d *Drift) Observe(t, v float64) {
	if d.samples == 0 {
		d.initial = v
	}
	d.samples++

	if d.initial != 0 {
		drift := math.Abs(v-d.initial) / math.Abs(d.initial)
		d.maxDrift = math.Max(d.maxDrift, drift)
	}
}

func (d *Drift) Value() float64 {
	return d.maxDrift
}

func (d *Drift) Reset() {
	d.initial = 0
	d.maxDrift = 0
	d.samples = 0
}

// Trough is the time of the lowest value, where the system was least stable.
type Trough struct {
	name    string
	min     float64
	at      float64
	samples int
}

func NewTrough() *Trough {
	return &Trough{name: "trough_time"}
}

func (m *Trough) Name() string { return m.name }

func (m *Trough) Observe(t, v float64) {
	if m.samples == 0 || v < m.min {
		m.min, m.at = v, t
	}
	m.samples++
}

func (m *Trough) Value() float64 {
	if m.samples == 0 {
		return math.NaN()
	}
	return m.at
}

func (m *Trough) Reset() {
	m.min, m.at, m.samples = 0, 0, 0
}
