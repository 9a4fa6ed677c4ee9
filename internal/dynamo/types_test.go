package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0, 3.0}, true},
		{"zeros", State{0.0, 0.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{1.0, math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Distance(t *testing.T) {
	tests := []struct {
		a, b     State
		expected float64
	}{
		{State{0, 0}, State{3, 4}, 5.0},
		{State{1, 1, 1}, State{1, 1, 1}, 0.0},
		{State{-1}, State{1}, 2.0},
	}

	for _, tt := range tests {
		if got := tt.a.Distance(tt.b); math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("Distance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.expected)
		}
		if got := tt.a.Sub(tt.b).Norm(); math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("Sub().Norm() = %v, want %v", got, tt.expected)
		}
	}
}

func TestState_CloneIsIndependent(t *testing.T) {
	s := State{1, 2}
	c := s.Clone()
	c[0] = 9
	if s[0] != 1 {
		t.Error("clone shares backing array")
	}
}

func TestNewSeries(t *testing.T) {
	tests := []struct {
		name   string
		time   []float64
		values []float64
		err    error
	}{
		{"increasing", []float64{0, 1, 2}, []float64{1, 2, 3}, nil},
		{"decreasing", []float64{10, 5, 0}, []float64{1, 2, 3}, nil},
		{"single", []float64{0}, []float64{1}, nil},
		{"empty", nil, nil, ErrEmptySeries},
		{"length mismatch", []float64{0, 1}, []float64{1, 2, 3}, ErrTimeAxisMismatch},
		{"repeated time", []float64{0, 1, 1}, []float64{1, 2, 3}, ErrNonMonotonicTime},
		{"zigzag time", []float64{0, 2, 1}, []float64{1, 2, 3}, ErrNonMonotonicTime},
		{"nan value", []float64{0, 1}, []float64{1, math.NaN()}, ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSeries(tt.time, tt.values)
			if tt.err == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}
		})
	}
}

func TestSeries_Reversed(t *testing.T) {
	s, err := NewSeries([]float64{0, 1, 2}, []float64{10, 20, 30})
	if err != nil {
		t.Fatal(err)
	}
	s.Meta.Label = "core"

	r := s.Reversed()
	if r.Time[0] != 2 || r.Values[0] != 30 || r.Values[2] != 10 {
		t.Errorf("unexpected reversal: %v %v", r.Time, r.Values)
	}
	if r.Meta.Label != "core" {
		t.Error("metadata not carried")
	}
	if s.Values[0] != 10 {
		t.Error("original mutated")
	}
}

func TestNewEmbeddedSeries(t *testing.T) {
	pts := []State{{1, 2}, {2, 3}}

	if _, err := NewEmbeddedSeries(pts, nil, 2, 1); !errors.Is(err, ErrTimeAxisMismatch) {
		t.Errorf("expected ErrTimeAxisMismatch without time, got %v", err)
	}
	if _, err := NewEmbeddedSeries(pts, []float64{0}, 2, 1); !errors.Is(err, ErrTimeAxisMismatch) {
		t.Errorf("expected ErrTimeAxisMismatch for short axis, got %v", err)
	}
	if _, err := NewEmbeddedSeries(pts, []float64{0, 1}, 3, 1); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for wrong dim, got %v", err)
	}

	emb, err := NewEmbeddedSeries(pts, []float64{0, 1}, 2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.Len() != 2 || emb.Dim() != 2 {
		t.Errorf("got len %d dim %d", emb.Len(), emb.Dim())
	}
}

func TestParamError(t *testing.T) {
	err := InvalidParam("m", 0, "must be >= 1")
	if !errors.Is(err, ErrInvalidParameter) {
		t.Error("ParamError should unwrap to ErrInvalidParameter")
	}
	var pe *ParamError
	if !errors.As(err, &pe) || pe.Name != "m" {
		t.Errorf("errors.As failed: %v", err)
	}
}
