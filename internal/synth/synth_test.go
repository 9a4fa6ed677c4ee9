package synth

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/dynrec/internal/dynamo"
)

func TestRK4_HarmonicOscillator(t *testing.T) {
	f := func(x dynamo.State, _ float64) dynamo.State {
		return dynamo.State{x[1], -x[0]}
	}
	x := dynamo.State{1, 0}
	rk := NewRK4()
	dt := 0.01
	for i := 0; i < 628; i++ {
		rk.Step(f, x, float64(i)*dt, dt)
	}
	if math.Abs(x[0]-math.Cos(6.28)) > 1e-6 {
		t.Errorf("x = %f, want %f", x[0], math.Cos(6.28))
	}
}

func TestDoubleWell_EnergyDecays(t *testing.T) {
	dw := NewDoubleWell()
	f := dw.Field(func(float64) float64 { return 0 })
	x := dynamo.State{0.2, 1.5}
	e0 := dw.Energy(x)

	rk := NewRK4()
	for i := 0; i < 2000; i++ {
		rk.Step(f, x, float64(i)*0.01, 0.01)
	}
	if e := dw.Energy(x); e >= e0 {
		t.Errorf("damped energy should decay: %f -> %f", e0, e)
	}
	if math.Abs(math.Abs(x[0])-1) > 0.05 {
		t.Errorf("expected to settle in a well at |x|=1, got %f", x[0])
	}
}

func TestGaussian(t *testing.T) {
	a := Gaussian(500, 2, 0.5, 42)
	b := Gaussian(500, 2, 0.5, 42)
	if a.Len() != 500 {
		t.Fatalf("expected 500 samples, got %d", a.Len())
	}
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			t.Fatal("same seed should give same series")
		}
	}

	mean := 0.0
	for _, v := range a.Values {
		mean += v
	}
	mean /= float64(a.Len())
	if math.Abs(mean-2) > 0.1 {
		t.Errorf("sample mean %f too far from 2", mean)
	}
	if err := a.Validate(); err != nil {
		t.Errorf("invalid series: %v", err)
	}
}

func TestGenerate_AllKinds(t *testing.T) {
	for _, name := range Kinds() {
		t.Run(name, func(t *testing.T) {
			s, err := Generate(name, Options{N: 300, Seed: 1})
			if err != nil {
				t.Fatalf("generate failed: %v", err)
			}
			if s.Len() != 300 {
				t.Errorf("expected 300 samples, got %d", s.Len())
			}
			if s.Meta.Label != name {
				t.Errorf("expected label %s, got %s", name, s.Meta.Label)
			}
			if err := s.Validate(); err != nil {
				t.Errorf("invalid series: %v", err)
			}
			if Describe(name) == "" {
				t.Error("missing description")
			}
		})
	}
}

func TestGenerate_RegimeSwitch(t *testing.T) {
	s, err := Generate("gaussian", Options{N: 2000, Seed: 3, Before: 0.1, After: 2, SwitchAt: 1000})
	if err != nil {
		t.Fatal(err)
	}
	spread := func(v []float64) float64 {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, x := range v {
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
		return hi - lo
	}
	if spread(s.Values[:1000]) >= spread(s.Values[1000:]) {
		t.Error("expected wider spread after the switch")
	}
}

func TestGenerate_Errors(t *testing.T) {
	if _, err := Generate("lorenz", Options{}); err == nil {
		t.Error("expected error for unknown kind")
	}
	if _, err := Generate("gaussian", Options{N: -1}); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	if _, err := Defaults("nope"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
