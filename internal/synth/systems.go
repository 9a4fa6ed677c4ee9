package synth

import (
	"math"

	"github.com/san-kum/dynrec/internal/dynamo"
)

// DoubleWell models a damped particle in the bistable potential
// A(x^2 - B)^2 under a constant tilt Force.
type DoubleWell struct {
	A, B, Mass, Damping float64
}

func NewDoubleWell() *DoubleWell {
	return &DoubleWell{1.0, 1.0, 1.0, 0.5}
}

// Field returns the vector field with the tilt given by force(t).
func (d *DoubleWell) Field(force func(t float64) float64) Field {
	return func(s dynamo.State, t float64) dynamo.State {
		x, v := s[0], s[1]
		return dynamo.State{v, (-4*d.A*x*(x*x-d.B) - d.Damping*v + force(t)) / d.Mass}
	}
}

func (d *DoubleWell) DefaultState() dynamo.State { return dynamo.State{math.Sqrt(d.B), 0} }

func (d *DoubleWell) Energy(s dynamo.State) float64 {
	x, v := s[0], s[1]
	return 0.5*d.Mass*v*v + d.A*math.Pow(x*x-d.B, 2)
}

// Duffing is a periodically forced nonlinear oscillator; the forcing
// amplitude Gamma(t) drives it between periodic and chaotic motion.
type Duffing struct {
	Alpha, Beta, Delta, Omega float64
}

func NewDuffing() *Duffing {
	return &Duffing{-1.0, 1.0, 0.3, 1.2}
}

func (d *Duffing) Field(gamma func(t float64) float64) Field {
	return func(s dynamo.State, t float64) dynamo.State {
		x, v := s[0], s[1]
		return dynamo.State{v, -d.Delta*v - d.Alpha*x - d.Beta*x*x*x + gamma(t)*math.Cos(d.Omega*t)}
	}
}

func (d *Duffing) DefaultState() dynamo.State { return dynamo.State{1.0, 0.0} }
