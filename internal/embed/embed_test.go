package embed

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/dynrec/internal/dynamo"
)

func ramp(n int) *dynamo.Series {
	v := make([]float64, n)
	for i := range v {
		v[i] = float64(i*i) * 0.5
	}
	return dynamo.Indexed(v)
}

func TestEmbed_ComponentsAndLength(t *testing.T) {
	s := ramp(40)

	for _, m := range []int{1, 2, 3, 5} {
		for _, tau := range []int{1, 2, 4} {
			emb, err := Embed(s, Options{M: m, Tau: tau})
			if err != nil {
				t.Fatalf("m=%d tau=%d: %v", m, tau, err)
			}
			if want := s.Len() - m*tau; emb.Len() != want || len(emb.Time) != want {
				t.Fatalf("m=%d tau=%d: got %d points, %d times, want %d", m, tau, emb.Len(), len(emb.Time), want)
			}
			for i, p := range emb.Points {
				if len(p) != m {
					t.Fatalf("point %d has dim %d", i, len(p))
				}
				for k := 0; k < m; k++ {
					if p[k] != s.Values[i+k*tau] {
						t.Fatalf("m=%d tau=%d: point %d comp %d = %v, want %v", m, tau, i, k, p[k], s.Values[i+k*tau])
					}
				}
			}
			if emb.M != m || emb.Tau != tau {
				t.Errorf("provenance m=%d tau=%d, want %d %d", emb.M, emb.Tau, m, tau)
			}
		}
	}
}

func TestEmbed_TrimPolicy(t *testing.T) {
	s := ramp(10)

	emb, err := Embed(s, Options{M: 2, Tau: 2})
	if err != nil {
		t.Fatal(err)
	}
	if emb.Time[0] != 4 || emb.Time[len(emb.Time)-1] != 9 {
		t.Errorf("trim start: got axis %v", emb.Time)
	}

	emb, err = Embed(s, Options{M: 2, Tau: 2, Trim: TrimEnd})
	if err != nil {
		t.Fatal(err)
	}
	if emb.Time[0] != 0 || emb.Time[len(emb.Time)-1] != 5 {
		t.Errorf("trim end: got axis %v", emb.Time)
	}
}

func TestEmbed_InvertTime(t *testing.T) {
	s := ramp(8)
	emb, err := Embed(s, Options{M: 2, Tau: 1, InvertTime: true})
	if err != nil {
		t.Fatal(err)
	}
	if emb.Points[0][0] != s.Values[7] || emb.Points[0][1] != s.Values[6] {
		t.Errorf("first inverted point = %v", emb.Points[0])
	}
	if emb.Time[len(emb.Time)-1] != 0 {
		t.Errorf("inverted axis should end at 0, got %v", emb.Time)
	}
}

func TestEmbed_Errors(t *testing.T) {
	s := ramp(6)

	tests := []struct {
		name string
		opts Options
		err  error
	}{
		{"exact length", Options{M: 3, Tau: 2}, dynamo.ErrSeriesTooShort},
		{"longer than series", Options{M: 4, Tau: 2}, dynamo.ErrSeriesTooShort},
		{"zero m", Options{M: 0, Tau: 1}, dynamo.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Embed(s, tt.opts); !errors.Is(err, tt.err) {
				t.Errorf("expected %v, got %v", tt.err, err)
			}
		})
	}

	if _, err := Embed(nil, Options{M: 1, Tau: 1}); !errors.Is(err, dynamo.ErrEmptySeries) {
		t.Errorf("nil series: got %v", err)
	}
	if _, err := Vectors([]float64{1, 2, 3}, 1, 0); !errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("tau 0: got %v", err)
	}
}

func TestEmbed_TauNotDefaulted(t *testing.T) {
	s := dynamo.Indexed([]float64{1, 2, 3, 4, 5, 6})
	for _, tau := range []int{0, -2} {
		if _, err := Embed(s, Options{M: 2, Tau: tau}); !errors.Is(err, dynamo.ErrInvalidParameter) {
			t.Errorf("tau %d: got %v", tau, err)
		}
	}
	if _, err := Embed(s, Options{M: 2, Tau: -2, AutoTau: true, NumLags: 3}); errors.Is(err, dynamo.ErrInvalidParameter) {
		t.Errorf("auto tau should ignore Tau: %v", err)
	}
}

func TestEmbed_AutoTau(t *testing.T) {
	// Period-24 sine sampled finely: MI falls until roughly a quarter period.
	v := make([]float64, 600)
	for i := range v {
		v[i] = 10 * math.Sin(2*math.Pi*float64(i)/24)
	}
	s := dynamo.Indexed(v)

	emb, err := Embed(s, Options{M: 2, AutoTau: true, NumLags: 20})
	if err != nil {
		if errors.Is(err, ErrNoLocalMinimum) {
			t.Skip("curve monotonic for this binning")
		}
		t.Fatal(err)
	}
	if emb.Tau < 1 || emb.Tau > 20 {
		t.Errorf("tau out of tested range: %d", emb.Tau)
	}
	if emb.Len() != s.Len()-2*emb.Tau {
		t.Errorf("length %d inconsistent with tau %d", emb.Len(), emb.Tau)
	}
}
