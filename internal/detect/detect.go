// Package detect flags points of a statistic that fall outside a bootstrap
// significance band.
package detect

import (
	"github.com/san-kum/dynrec/internal/bootstrap"
)

type Side int

const (
	Below Side = iota - 1
	_
	Above
)

func (s Side) String() string {
	switch s {
	case Above:
		return "above"
	case Below:
		return "below"
	default:
		return "inside"
	}
}

// Transition is a single flagged sample.
type Transition struct {
	Index int     `json:"index"`
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
	Side  Side    `json:"side"`
}

// Interval is a run of consecutive flagged samples on the same side.
type Interval struct {
	Start     int     `json:"start"`
	End       int     `json:"end"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Side      Side    `json:"side"`
	// Extreme is the value furthest from the band within the run.
	Extreme float64 `json:"extreme"`
}

func (iv Interval) Len() int {
	return iv.End - iv.Start + 1
}

// Classify places v relative to the band. Touching a bound counts as
// crossing it.
func Classify(v float64, band bootstrap.Band) (Side, bool) {
	switch {
	case v >= band.Upper:
		return Above, true
	case v <= band.Lower:
		return Below, true
	}
	return 0, false
}

// Transitions returns every sample at or beyond the band, in index order.
// time and values must have equal length.
func Transitions(time, values []float64, band bootstrap.Band) []Transition {
	var out []Transition
	for i, v := range values {
		side, ok := Classify(v, band)
		if !ok {
			continue
		}
		out = append(out, Transition{Index: i, Time: time[i], Value: v, Side: side})
	}
	return out
}

// Intervals merges transitions with adjacent indices and equal side.
func Intervals(ts []Transition) []Interval {
	var out []Interval
	for _, t := range ts {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.End == t.Index-1 && last.Side == t.Side {
				last.End = t.Index
				last.EndTime = t.Time
				if (t.Side == Above && t.Value > last.Extreme) || (t.Side == Below && t.Value < last.Extreme) {
					last.Extreme = t.Value
				}
				continue
			}
		}
		out = append(out, Interval{
			Start:     t.Index,
			End:       t.Index,
			StartTime: t.Time,
			EndTime:   t.Time,
			Side:      t.Side,
			Extreme:   t.Value,
		})
	}
	return out
}
