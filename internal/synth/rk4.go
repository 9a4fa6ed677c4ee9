package synth

import "github.com/san-kum/dynrec/internal/dynamo"

// Field is the right-hand side of an ODE, forced through its time argument.
type Field func(x dynamo.State, t float64) dynamo.State

// RK4 is a classic fourth-order Runge-Kutta stepper. Its buffers are reused
// across steps of the same dimension.
type RK4 struct {
	k   [4]dynamo.State
	tmp dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) resize(n int) {
	if len(r.tmp) == n {
		return
	}
	for i := range r.k {
		r.k[i] = make(dynamo.State, n)
	}
	r.tmp = make(dynamo.State, n)
}

// stage evaluates f at x + h*prev and stores the slope in dst.
func (r *RK4) stage(f Field, dst, x, prev dynamo.State, t, h float64) {
	for i := range x {
		r.tmp[i] = x[i] + h*prev[i]
	}
	copy(dst, f(r.tmp, t+h))
}

// Step advances x by dt in place.
func (r *RK4) Step(f Field, x dynamo.State, t, dt float64) {
	r.resize(len(x))
	k1, k2, k3, k4 := r.k[0], r.k[1], r.k[2], r.k[3]

	copy(k1, f(x, t))
	r.stage(f, k2, x, k1, t, dt/2)
	r.stage(f, k3, x, k2, t, dt/2)
	r.stage(f, k4, x, k3, t, dt)

	for i := range x {
		x[i] += dt / 6 * (k1[i] + 2*k2[i] + 2*k3[i] + k4[i])
	}
}
