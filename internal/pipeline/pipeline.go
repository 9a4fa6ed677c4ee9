// Package pipeline runs the full regime-change workflow on one series:
// embedding, radius calibration, recurrence matrix, Laplacian eigenmap,
// windowed Fisher Information, bootstrap band and transition detection.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/dynrec/internal/bootstrap"
	"github.com/san-kum/dynrec/internal/calibrate"
	"github.com/san-kum/dynrec/internal/config"
	"github.com/san-kum/dynrec/internal/detect"
	"github.com/san-kum/dynrec/internal/dynamo"
	"github.com/san-kum/dynrec/internal/embed"
	"github.com/san-kum/dynrec/internal/fisher"
	"github.com/san-kum/dynrec/internal/metrics"
	"github.com/san-kum/dynrec/internal/recurrence"
	"github.com/san-kum/dynrec/internal/spectral"
)

const (
	StageEmbed     = "embed"
	StageCalibrate = "calibrate"
	StageSpectral  = "spectral"
	StageFisher    = "fisher"
	StageBootstrap = "bootstrap"
)

// Diagonal and vertical line lengths used for the RQA summary.
const (
	MinDiagonal = 2
	MinVertical = 2
)

type Options struct {
	Logger   *slog.Logger
	Metrics  *metrics.Collectors
	Observer func(calibrate.Round)
}

// RQA is the line-based quantification of the recurrence matrix.
type RQA struct {
	RecurrenceRate float64 `json:"recurrence_rate"`
	Determinism    float64 `json:"determinism"`
	Laminarity     float64 `json:"laminarity"`
}

type Result struct {
	Embedded *dynamo.EmbeddedSeries
	// TauSearch is set when tau was selected from mutual information.
	TauSearch *embed.TauResult
	// Calibration is nil when the radius was fixed.
	Calibration *calibrate.Result

	Epsilon     float64
	Density     float64
	Matrix      *recurrence.Matrix
	RQA         RQA
	Coordinates *spectral.Coordinates

	Fisher *fisher.Series
	// Smoothed is nil unless smoothing was configured.
	Smoothed *fisher.Series

	Band        bootstrap.Band
	Transitions []detect.Transition
	Intervals   []detect.Interval
	Summary     map[string]float64
}

// Detected is the series the band is applied to: the smoothed series when
// available, otherwise the raw one.
func (r *Result) Detected() *fisher.Series {
	if r.Smoothed != nil {
		return r.Smoothed
	}
	return r.Fisher
}

// EmbedOptions maps the embedding section onto embed.Options.
func EmbedOptions(c config.EmbeddingConfig) embed.Options {
	o := embed.Options{
		M:          c.M,
		Tau:        c.Tau,
		AutoTau:    c.AutoTau,
		NumLags:    c.NumLags,
		BinWidth:   c.BinWidth,
		InvertTime: c.InvertTime,
	}
	if c.CutFromEnd {
		o.Trim = embed.TrimEnd
	}
	return o
}

func CalibrateOptions(c config.CalibrationConfig) calibrate.Options {
	return calibrate.Options{
		Target:        c.TargetDensity,
		Tolerance:     c.Tolerance,
		Epsilon:       c.Epsilon,
		Amplitude:     c.Amplitude,
		Workers:       c.Workers,
		MaxIterations: c.MaxIterations,
		Timeout:       c.Timeout,
		Precompute:    c.Precompute,
	}
}

func BootstrapOptions(c config.BootstrapConfig) bootstrap.Options {
	return bootstrap.Options{
		Upper:   c.Upper,
		Lower:   c.Lower,
		Width:   c.Width,
		Samples: c.Samples,
		Seed:    c.Seed,
	}
}

// Run executes every stage in order. The first failing stage aborts the run
// and its error is returned wrapped with the stage name.
func Run(ctx context.Context, s *dynamo.Series, cfg *config.Config, opts Options) (res *Result, err error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defer func() {
		n := 0
		if res != nil {
			n = len(res.Transitions)
		}
		opts.Metrics.RecordRun(err, n)
	}()

	res = &Result{}

	start := time.Now()
	eo := EmbedOptions(cfg.Embedding)
	if eo.AutoTau {
		src := s
		if eo.InvertTime && s != nil {
			src = s.Reversed()
		}
		if src == nil {
			return nil, stageErr(StageEmbed, dynamo.ErrEmptySeries)
		}
		ts, err := embed.TauSearch(src.Values, eo.NumLags, eo.BinWidth)
		if err != nil {
			return nil, stageErr(StageEmbed, err)
		}
		res.TauSearch = ts
		eo.Tau, eo.AutoTau = ts.Tau, false
		logger.Info("selected tau", "tau", ts.Tau, "lags", len(ts.MI))
	}
	emb, err := embed.Embed(s, eo)
	if err != nil {
		return nil, stageErr(StageEmbed, err)
	}
	res.Embedded = emb
	opts.Metrics.ObserveStage(StageEmbed, start)
	logger.Debug("embedded series", "points", emb.Len(), "m", emb.M, "tau", emb.Tau)

	start = time.Now()
	if cfg.Calibration.Fixed {
		res.Matrix, err = recurrence.Build(emb, cfg.Calibration.Epsilon)
		if err != nil {
			return nil, stageErr(StageCalibrate, err)
		}
		res.Epsilon, res.Density = cfg.Calibration.Epsilon, res.Matrix.Density()
	} else {
		co := CalibrateOptions(cfg.Calibration)
		co.Logger = logger
		co.Observer = func(r calibrate.Round) {
			opts.Metrics.ObserveRound(r)
			if opts.Observer != nil {
				opts.Observer(r)
			}
		}
		cal, err := calibrate.New(co)
		if err != nil {
			return nil, stageErr(StageCalibrate, err)
		}
		cr, err := cal.Run(ctx, emb)
		if err != nil {
			return nil, stageErr(StageCalibrate, err)
		}
		res.Calibration = cr
		res.Matrix, res.Epsilon, res.Density = cr.Matrix, cr.Epsilon, cr.Density
	}
	res.RQA = RQA{
		RecurrenceRate: recurrence.RecurrenceRate(res.Matrix),
		Determinism:    recurrence.Determinism(res.Matrix, MinDiagonal),
		Laminarity:     recurrence.Laminarity(res.Matrix, MinVertical),
	}
	opts.Metrics.ObserveStage(StageCalibrate, start)

	if err := ctx.Err(); err != nil {
		return nil, stageErr(StageSpectral, err)
	}

	start = time.Now()
	coords, err := spectral.Embed(res.Matrix)
	if err != nil {
		return nil, stageErr(StageSpectral, err)
	}
	res.Coordinates = coords
	opts.Metrics.ObserveStage(StageSpectral, start)

	start = time.Now()
	fi, err := fisher.Compute(coords.Time, coords.Values, cfg.Fisher.WindowSize, cfg.Fisher.WindowIncrement)
	if err != nil {
		return nil, stageErr(StageFisher, err)
	}
	res.Fisher = fi
	if cfg.Fisher.Smooth {
		res.Smoothed = fi.Smoothed(cfg.Fisher.BlockSize)
	}
	opts.Metrics.ObserveStage(StageFisher, start)
	logger.Debug("fisher information", "windows", fi.Len(), "baseline", fi.Baseline)

	start = time.Now()
	band, err := bootstrap.Estimate(fi.Values, BootstrapOptions(cfg.Bootstrap))
	if err != nil {
		return nil, stageErr(StageBootstrap, err)
	}
	res.Band = band
	opts.Metrics.ObserveStage(StageBootstrap, start)

	d := res.Detected()
	res.Transitions = detect.Transitions(d.Time, d.Values, band)
	res.Intervals = detect.Intervals(res.Transitions)
	res.Summary = metrics.Summarize(d.Time, d.Values,
		metrics.NewStability(band), metrics.NewDrift(), metrics.NewTrough())
	res.Summary["recurrence_rate"] = res.RQA.RecurrenceRate
	res.Summary["determinism"] = res.RQA.Determinism
	res.Summary["laminarity"] = res.RQA.Laminarity

	logger.Info("analysis complete",
		"epsilon", res.Epsilon,
		"density", res.Density,
		"windows", fi.Len(),
		"band", band.String(),
		"transitions", len(res.Transitions))
	return res, nil
}

func stageErr(stage string, err error) error {
	return fmt.Errorf("%s: %w", stage, err)
}
