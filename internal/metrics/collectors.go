package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/dynrec/internal/calibrate"
)

const namespace = "dynrec"

// Collectors holds the pipeline instrumentation. A nil *Collectors is valid
// and records nothing.
type Collectors struct {
	CalibrationRounds prometheus.Counter
	Epsilon           prometheus.Gauge
	Density           prometheus.Gauge
	StageDuration     *prometheus.HistogramVec
	RunsTotal         *prometheus.CounterVec
	Transitions       prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		CalibrationRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "calibration",
			Name:      "rounds_total",
			Help:      "Epsilon search rounds evaluated.",
		}),
		Epsilon: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "calibration",
			Name:      "epsilon",
			Help:      "Current recurrence radius of the search.",
		}),
		Density: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "calibration",
			Name:      "density",
			Help:      "Recurrence density at the current radius.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall-clock time per pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome.",
		}, []string{"status"}),
		Transitions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transitions",
			Help:      "Samples outside the significance band in the last run.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			c.CalibrationRounds,
			c.Epsilon,
			c.Density,
			c.StageDuration,
			c.RunsTotal,
			c.Transitions,
		)
	}
	return c
}

// ObserveRound records one calibration round.
func (c *Collectors) ObserveRound(r calibrate.Round) {
	if c == nil {
		return
	}
	c.CalibrationRounds.Inc()
	c.Epsilon.Set(r.Epsilon)
	c.Density.Set(r.Density)
}

// ObserveStage records the duration of a named stage since start.
func (c *Collectors) ObserveStage(stage string, start time.Time) {
	if c == nil {
		return
	}
	c.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (c *Collectors) RecordRun(err error, transitions int) {
	if c == nil {
		return
	}
	if err != nil {
		c.RunsTotal.WithLabelValues("error").Inc()
		return
	}
	c.RunsTotal.WithLabelValues("success").Inc()
	c.Transitions.Set(float64(transitions))
}
