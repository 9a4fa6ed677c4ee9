package calibrate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/dynrec/internal/dynamo"
	"github.com/san-kum/dynrec/internal/recurrence"
)

const (
	DefaultTarget        = 0.05
	DefaultTolerance     = 0.01
	DefaultEpsilon       = 1.0
	DefaultAmplitude     = 10.0
	DefaultMaxIterations = 1000

	maxSpread = 1 << 20
)

type Options struct {
	Target    float64
	Tolerance float64
	// Epsilon is the starting radius.
	Epsilon float64
	// Amplitude scales the width of each proposed range.
	Amplitude float64
	// Workers <= 0 selects dynamo.DefaultWorkers.
	Workers       int
	MaxIterations int
	// Timeout of zero means no wall-clock bound beyond ctx.
	Timeout time.Duration
	// Precompute evaluates candidates against a cached distance grid instead
	// of rebuilding the matrix for each one.
	Precompute bool

	Logger   *slog.Logger
	Observer func(Round)
}

// DefaultOptions mirrors the defaults of the command line.
func DefaultOptions() Options {
	return Options{
		Target:        DefaultTarget,
		Tolerance:     DefaultTolerance,
		Epsilon:       DefaultEpsilon,
		Amplitude:     DefaultAmplitude,
		MaxIterations: DefaultMaxIterations,
		Precompute:    true,
	}
}

// Candidate is one radius evaluated during a round.
type Candidate struct {
	Epsilon float64 `json:"epsilon"`
	Density float64 `json:"density"`
}

// Round summarises one search iteration after the barrier.
type Round struct {
	Iteration  int         `json:"iteration"`
	Epsilon    float64     `json:"epsilon"`
	Density    float64     `json:"density"`
	Miss       float64     `json:"miss"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

type Result struct {
	Epsilon    float64
	Density    float64
	Matrix     *recurrence.Matrix
	Iterations int
	Rounds     []Round
}

type Calibrator struct {
	opts    Options
	workers int
	logger  *slog.Logger
}

func New(opts Options) (*Calibrator, error) {
	if opts.Target < 0 || opts.Target > 1 || math.IsNaN(opts.Target) {
		return nil, dynamo.InvalidParam("target", opts.Target, "must be in [0, 1]")
	}
	if opts.Tolerance <= 0 || math.IsNaN(opts.Tolerance) {
		return nil, dynamo.InvalidParam("tolerance", opts.Tolerance, "must be > 0")
	}
	if opts.Epsilon < 0 || math.IsNaN(opts.Epsilon) || math.IsInf(opts.Epsilon, 0) {
		return nil, dynamo.InvalidParam("epsilon", opts.Epsilon, "must be finite and >= 0")
	}
	if opts.Amplitude <= 0 || math.IsNaN(opts.Amplitude) || math.IsInf(opts.Amplitude, 0) {
		return nil, dynamo.InvalidParam("amplitude", opts.Amplitude, "must be > 0")
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Timeout < 0 {
		return nil, dynamo.InvalidParam("timeout", opts.Timeout, "must be >= 0")
	}

	workers, err := dynamo.ResolveWorkers(opts.Workers)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Calibrator{opts: opts, workers: workers, logger: logger}, nil
}

// Workers is the resolved fan-out per round.
func (c *Calibrator) Workers() int {
	return c.workers
}

// Run searches for a radius whose density is within tolerance of the target
// and returns it together with the matrix it produces.
func (c *Calibrator) Run(ctx context.Context, emb *dynamo.EmbeddedSeries) (*Result, error) {
	if emb == nil || emb.Len() == 0 {
		return nil, dynamo.ErrEmptySeries
	}
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	var (
		eval Evaluator = Builder{Emb: emb}
		grid *recurrence.Distances
	)
	if c.opts.Precompute {
		d, err := recurrence.NewDistances(emb)
		if err != nil {
			return nil, err
		}
		grid, eval = d, d
	}

	eps := c.opts.Epsilon
	density, err := eval.Density(eps)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	miss := c.opts.Target - density
	c.logger.Debug("calibration start",
		"epsilon", eps, "density", density, "target", c.opts.Target, "workers", c.workers)

	modifier := 1.0
	br := bracket{spread: 1}
	for math.Abs(miss) > c.opts.Tolerance {
		if err := ctx.Err(); err != nil {
			return nil, &ConvergenceError{Iterations: res.Iterations, Epsilon: eps, Density: density, Cause: err}
		}
		if res.Iterations >= c.opts.MaxIterations {
			return nil, &ConvergenceError{Iterations: res.Iterations, Epsilon: eps, Density: density}
		}
		res.Iterations++

		var round Round
		if c.workers == 1 {
			round, modifier, err = c.serialStep(eval, eps, density, modifier)
		} else {
			round, err = c.parallelStep(ctx, eval, eps, density, &br)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, &ConvergenceError{Iterations: res.Iterations, Epsilon: eps, Density: density, Cause: ctx.Err()}
			}
			return nil, err
		}
		round.Iteration = res.Iterations

		eps, density = round.Epsilon, round.Density
		miss = c.opts.Target - density
		res.Rounds = append(res.Rounds, round)

		c.logger.Debug("calibration round",
			"round", round.Iteration, "epsilon", eps, "density", density, "miss", round.Miss)
		if c.opts.Observer != nil {
			c.opts.Observer(round)
		}
	}

	var m *recurrence.Matrix
	if grid != nil {
		m, err = grid.Threshold(eps)
	} else {
		m, err = recurrence.Build(emb, eps)
	}
	if err != nil {
		return nil, err
	}

	res.Epsilon, res.Density, res.Matrix = eps, density, m
	c.logger.Info("calibration converged",
		"epsilon", eps, "density", density, "rounds", res.Iterations)
	return res, nil
}

// Candidates proposes k evenly spaced radii covering eps and a point
// sqrt(|miss| * amp) away from it: above eps when density is below target,
// below eps (clamped at zero) otherwise. Radii are returned in ascending
// order, so eps is the first candidate on the way up and the last on the
// way down.
func Candidates(eps, density, target, amp float64, k int) []float64 {
	end := reach(eps, density, target, amp)
	if k < 2 {
		return []float64{end}
	}
	return linspace(math.Min(eps, end), math.Max(eps, end), k)
}

func reach(eps, density, target, amp float64) float64 {
	miss := target - density
	width := math.Sqrt(math.Abs(miss) * amp)
	if miss < 0 {
		return math.Max(0, eps-width)
	}
	return eps + width
}

// linspace returns k >= 2 points from lo to hi inclusive.
func linspace(lo, hi float64, k int) []float64 {
	out := make([]float64, k)
	step := (hi - lo) / float64(k-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[k-1] = hi
	return out
}

// interior returns k points strictly between a and b, ascending.
func interior(a, b float64, k int) []float64 {
	lo, hi := math.Min(a, b), math.Max(a, b)
	out := make([]float64, k)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i+1)/float64(k+1)
	}
	return out
}

// bracket carries the parallel search range between rounds. When set, the
// target density lies between the current radius and far.
type bracket struct {
	set    bool
	far    Candidate
	spread float64
}

func (c *Calibrator) parallelStep(ctx context.Context, eval Evaluator, eps, density float64, br *bracket) (Round, error) {
	var radii []float64
	if br.set {
		radii = interior(eps, br.far.Epsilon, c.workers)
	} else {
		radii = Candidates(eps, density, c.opts.Target, c.opts.Amplitude*br.spread*br.spread, c.workers)
	}
	cands := make([]Candidate, len(radii))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, e := range radii {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := eval.Density(e)
			if err != nil {
				return fmt.Errorf("candidate %d (epsilon=%g): %w", i, e, err)
			}
			cands[i] = Candidate{Epsilon: e, Density: d}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Round{}, err
	}

	target, miss := c.opts.Target, c.opts.Target-density
	best := 0
	bestMiss := math.Abs(target - cands[0].Density)
	for i := 1; i < len(cands); i++ {
		if m := math.Abs(target - cands[i].Density); m < bestMiss {
			best, bestMiss = i, m
		}
	}

	round := Round{Candidates: cands}
	if bestMiss < math.Abs(miss) {
		round.Epsilon, round.Density, round.Miss = cands[best].Epsilon, cands[best].Density, target-cands[best].Density
		br.set, br.spread = false, 1
		return round, nil
	}

	// nothing came closer: either some radius jumped past the target, and the
	// next round searches between it and its neighbour on this side, or every
	// candidate sits on the current density plateau and the range grows
	line := append([]Candidate{{Epsilon: eps, Density: density}}, cands...)
	if br.set {
		line = append(line, br.far)
	}
	sort.SliceStable(line, func(i, j int) bool { return line[i].Epsilon < line[j].Epsilon })

	if near, far, ok := crossing(line, target, miss); ok {
		round.Epsilon, round.Density, round.Miss = near.Epsilon, near.Density, target-near.Density
		br.set, br.far = true, far
		return round, nil
	}
	round.Epsilon, round.Density, round.Miss = eps, density, miss
	br.set, br.spread = false, math.Min(br.spread*2, maxSpread)
	return round, nil
}

// crossing finds the radius nearest to the current one whose density lies
// past the target, and its neighbour on the current side. line is ascending
// in epsilon, hence in density, and holds the current radius.
func crossing(line []Candidate, target, miss float64) (near, far Candidate, ok bool) {
	if miss > 0 {
		for i := 1; i < len(line); i++ {
			if line[i].Density > target {
				return line[i-1], line[i], true
			}
		}
		return
	}
	for i := len(line) - 2; i >= 0; i-- {
		if line[i].Density < target {
			return line[i+1], line[i], true
		}
	}
	return
}

// serialStep moves eps by amp*miss*modifier. A step that does not increase
// the miss is accepted and resets the modifier; otherwise the step is
// rejected and the modifier halved.
func (c *Calibrator) serialStep(eval Evaluator, eps, density, modifier float64) (Round, float64, error) {
	miss := c.opts.Target - density
	next := math.Max(0, eps+c.opts.Amplitude*miss*modifier)

	d, err := eval.Density(next)
	if err != nil {
		return Round{}, modifier, err
	}
	cand := Candidate{Epsilon: next, Density: d}
	round := Round{Candidates: []Candidate{cand}}

	if newMiss := c.opts.Target - d; math.Abs(newMiss) <= math.Abs(miss) {
		round.Epsilon, round.Density, round.Miss = next, d, newMiss
		return round, 1, nil
	}

	round.Epsilon, round.Density, round.Miss = eps, density, miss
	return round, modifier / 2, nil
}
