package synth

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/san-kum/dynrec/internal/dynamo"
)

// Options configures a generator. Fields a generator does not use are
// ignored.
type Options struct {
	N    int
	Seed int64
	// SwitchAt is the sample index at which the regime changes; 0 means N/2.
	SwitchAt int

	Dt     float64
	Stride int
	Noise  float64

	// Before and After are the switched parameter values.
	Before float64
	After  float64
}

type Generator func(Options) (*dynamo.Series, error)

type kind struct {
	gen      Generator
	defaults Options
	about    string
}

var kinds = map[string]kind{
	"gaussian": {
		gen:      gaussian,
		defaults: Options{N: 1000, Seed: 42, Before: 1, After: 1},
		about:    "i.i.d. normal noise; Before/After are the standard deviations",
	},
	"logistic": {
		gen:      logistic,
		defaults: Options{N: 1000, Seed: 42, Before: 3.5, After: 3.9, Noise: 1e-4},
		about:    "logistic map; growth rate switches from periodic to chaotic",
	},
	"doublewell": {
		gen:      doubleWell,
		defaults: Options{N: 1000, Seed: 42, Dt: 0.01, Stride: 20, Noise: 0.6, Before: 0, After: 1.5},
		about:    "noisy double well; a tilt removes one of the wells",
	},
	"duffing": {
		gen:      duffing,
		defaults: Options{N: 1000, Seed: 42, Dt: 0.01, Stride: 50, Before: 0.2, After: 0.5},
		about:    "forced Duffing oscillator; forcing switches from periodic to chaotic",
	},
}

// Kinds lists the registered generators.
func Kinds() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Describe(name string) string {
	return kinds[name].about
}

// Defaults returns the default options of a generator.
func Defaults(name string) (Options, error) {
	k, ok := kinds[name]
	if !ok {
		return Options{}, fmt.Errorf("unknown series kind %q (available: %v)", name, Kinds())
	}
	return k.defaults, nil
}

// Generate runs the named generator. Zero-valued N, Dt and Stride fall back to
// the generator's defaults, as do Before and After when both are zero.
func Generate(name string, opts Options) (*dynamo.Series, error) {
	k, ok := kinds[name]
	if !ok {
		return nil, fmt.Errorf("unknown series kind %q (available: %v)", name, Kinds())
	}
	d := k.defaults
	if opts.N == 0 {
		opts.N = d.N
	}
	if opts.Dt == 0 {
		opts.Dt = d.Dt
	}
	if opts.Stride == 0 {
		opts.Stride = d.Stride
	}
	if opts.Before == 0 && opts.After == 0 {
		opts.Before, opts.After = d.Before, d.After
	}
	if opts.N < 1 {
		return nil, dynamo.InvalidParam("n", opts.N, "must be >= 1")
	}
	if opts.SwitchAt <= 0 || opts.SwitchAt > opts.N {
		opts.SwitchAt = opts.N / 2
	}

	s, err := k.gen(opts)
	if err != nil {
		return nil, err
	}
	s.Meta.Label = name
	return s, nil
}

// Gaussian draws n samples from N(mean, std^2) with a fixed seed.
func Gaussian(n int, mean, std float64, seed int64) *dynamo.Series {
	rng := rand.New(rand.NewSource(seed))
	v := make([]float64, n)
	for i := range v {
		v[i] = mean + std*rng.NormFloat64()
	}
	return dynamo.Indexed(v)
}

func gaussian(o Options) (*dynamo.Series, error) {
	rng := rand.New(rand.NewSource(o.Seed))
	v := make([]float64, o.N)
	for i := range v {
		std := o.Before
		if i >= o.SwitchAt {
			std = o.After
		}
		v[i] = std * rng.NormFloat64()
	}
	return dynamo.Indexed(v), nil
}

func logistic(o Options) (*dynamo.Series, error) {
	rng := rand.New(rand.NewSource(o.Seed))
	v := make([]float64, o.N)
	x := 0.4
	for i := range v {
		r := o.Before
		if i >= o.SwitchAt {
			r = o.After
		}
		x = r * x * (1 - x)
		if o.Noise > 0 {
			x = math.Min(1, math.Max(0, x+o.Noise*rng.NormFloat64()))
		}
		v[i] = x
	}
	return dynamo.Indexed(v), nil
}

func doubleWell(o Options) (*dynamo.Series, error) {
	dw := NewDoubleWell()
	switchT := float64(o.SwitchAt*o.Stride) * o.Dt
	f := dw.Field(func(t float64) float64 {
		if t >= switchT {
			return o.After
		}
		return o.Before
	})
	return integrate(f, dw.DefaultState(), o)
}

func duffing(o Options) (*dynamo.Series, error) {
	d := NewDuffing()
	switchT := float64(o.SwitchAt*o.Stride) * o.Dt
	f := d.Field(func(t float64) float64 {
		if t >= switchT {
			return o.After
		}
		return o.Before
	})
	return integrate(f, d.DefaultState(), o)
}

// integrate samples the first state component every Stride steps. With Noise
// > 0 each step adds a kick of Noise*sqrt(dt)*N(0,1) to the last component.
func integrate(f Field, x0 dynamo.State, o Options) (*dynamo.Series, error) {
	if o.Dt <= 0 {
		return nil, dynamo.InvalidParam("dt", o.Dt, "must be > 0")
	}
	if o.Stride < 1 {
		return nil, dynamo.InvalidParam("stride", o.Stride, "must be >= 1")
	}

	rng := rand.New(rand.NewSource(o.Seed))
	rk := NewRK4()
	x := x0.Clone()
	last := len(x) - 1
	kick := o.Noise * math.Sqrt(o.Dt)

	time := make([]float64, o.N)
	values := make([]float64, o.N)
	t := 0.0
	for i := 0; i < o.N; i++ {
		time[i] = t
		values[i] = x[0]
		for s := 0; s < o.Stride; s++ {
			rk.Step(f, x, t, o.Dt)
			if kick > 0 {
				x[last] += kick * rng.NormFloat64()
			}
			t += o.Dt
		}
		if !x.IsValid() {
			return nil, fmt.Errorf("%w: integration diverged at sample %d", dynamo.ErrInvalidState, i)
		}
	}
	return dynamo.NewSeries(time, values)
}
