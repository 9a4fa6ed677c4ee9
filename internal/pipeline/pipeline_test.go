package pipeline_test

import (
	"context"
	"errors"
	"runtime"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/dynrec/internal/calibrate"
	"github.com/san-kum/dynrec/internal/config"
	"github.com/san-kum/dynrec/internal/dynamo"
	"github.com/san-kum/dynrec/internal/embed"
	"github.com/san-kum/dynrec/internal/fisher"
	"github.com/san-kum/dynrec/internal/logging"
	"github.com/san-kum/dynrec/internal/metrics"
	"github.com/san-kum/dynrec/internal/pipeline"
	"github.com/san-kum/dynrec/internal/spectral"
	"github.com/san-kum/dynrec/internal/synth"
)

func noiseConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Embedding.M = 3
	cfg.Embedding.Tau = 1
	cfg.Calibration.TargetDensity = 0.05
	cfg.Calibration.Tolerance = 0.01
	cfg.Fisher.WindowSize = 5
	cfg.Fisher.WindowIncrement = 3
	cfg.Bootstrap.Samples = 2000
	return cfg
}

var _ = Describe("Run", func() {
	var (
		ctx    context.Context
		series *dynamo.Series
		opts   pipeline.Options
	)

	BeforeEach(func() {
		ctx = context.Background()
		series = synth.Gaussian(100, 0, 1, 42)
		opts = pipeline.Options{Logger: logging.Discard()}
	})

	Context("with seeded Gaussian noise", func() {
		var res *pipeline.Result

		BeforeEach(func() {
			var err error
			res, err = pipeline.Run(ctx, series, noiseConfig(), opts)
			Expect(err).NotTo(HaveOccurred())
		})

		It("embeds N - m*tau points", func() {
			Expect(res.Embedded.Len()).To(Equal(97))
			Expect(res.Embedded.Time).To(Equal(series.Time[3:]))
		})

		It("calibrates the radius to the target density", func() {
			Expect(res.Density).To(BeNumerically("~", 0.05, 0.01))
			Expect(res.Matrix.Density()).To(BeNumerically("~", res.Density, 1e-12))
			Expect(res.Matrix.Validate()).To(Succeed())
			Expect(res.Calibration).NotTo(BeNil())
		})

		It("keeps four spectral coordinates per point", func() {
			Expect(res.Coordinates.Len()).To(Equal(97))
			for _, row := range res.Coordinates.Values {
				Expect(row).To(HaveLen(spectral.Components))
			}
			Expect(res.Coordinates.Eigenvalues[0]).To(BeNumerically("~", 0, 1e-9))
		})

		It("produces one non-negative Fisher value per window", func() {
			Expect(res.Fisher.Len()).To(Equal(fisher.WindowCount(97, 5, 3)))
			Expect(res.Fisher.Len()).To(Equal(31))
			for i, v := range res.Fisher.Values {
				Expect(v).To(BeNumerically(">=", 0))
				Expect(res.Fisher.Time[i]).To(Equal(res.Embedded.Time[i*3+4]))
			}
		})

		It("brackets the Fisher values with an ordered band", func() {
			Expect(res.Band.Lower).To(BeNumerically("<=", res.Band.Upper))
			for _, tr := range res.Transitions {
				v := res.Fisher.Values[tr.Index]
				Expect(v >= res.Band.Upper || v <= res.Band.Lower).To(BeTrue())
			}
			Expect(res.Summary).To(HaveKey("stability"))
			Expect(res.Summary).To(HaveKey("determinism"))
		})
	})

	It("is deterministic for a fixed seed", func() {
		cfg := noiseConfig()
		cfg.Calibration.Workers = 1
		a, err := pipeline.Run(ctx, series, cfg, opts)
		Expect(err).NotTo(HaveOccurred())
		b, err := pipeline.Run(ctx, series, cfg, opts)
		Expect(err).NotTo(HaveOccurred())

		Expect(a.Epsilon).To(Equal(b.Epsilon))
		Expect(a.Fisher.Values).To(Equal(b.Fisher.Values))
		Expect(a.Band).To(Equal(b.Band))
	})

	It("uses a fixed radius without searching", func() {
		cfg := noiseConfig()
		cfg.Calibration.Fixed = true
		cfg.Calibration.Epsilon = 1.2

		res, err := pipeline.Run(ctx, series, cfg, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Calibration).To(BeNil())
		Expect(res.Epsilon).To(Equal(1.2))
		Expect(res.Matrix.Epsilon).To(Equal(1.2))
	})

	It("smooths the Fisher series when asked", func() {
		cfg := noiseConfig()
		cfg.Fisher.Smooth = true
		cfg.Fisher.BlockSize = 4

		res, err := pipeline.Run(ctx, series, cfg, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Smoothed).NotTo(BeNil())
		Expect(res.Smoothed.Values).To(Equal(fisher.Smooth(res.Fisher.Values, 4)))
		Expect(res.Detected()).To(BeIdenticalTo(res.Smoothed))
	})

	It("reports calibration rounds to the observer and the collectors", func() {
		reg := prometheus.NewRegistry()
		opts.Metrics = metrics.New(reg)
		var rounds []calibrate.Round
		opts.Observer = func(r calibrate.Round) { rounds = append(rounds, r) }

		res, err := pipeline.Run(ctx, series, noiseConfig(), opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(rounds).To(HaveLen(res.Calibration.Iterations))
		Expect(testutil.ToFloat64(opts.Metrics.CalibrationRounds)).To(Equal(float64(len(rounds))))
		Expect(testutil.ToFloat64(opts.Metrics.RunsTotal.WithLabelValues("success"))).To(Equal(1.0))
	})

	It("inverts the time axis before embedding", func() {
		cfg := noiseConfig()
		cfg.Embedding.InvertTime = true

		res, err := pipeline.Run(ctx, series, cfg, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Embedded.Time[0]).To(Equal(series.Time[96]))
	})

	It("selects tau from mutual information", func() {
		s, err := synth.Generate("duffing", synth.Options{N: 400, Seed: 1})
		Expect(err).NotTo(HaveOccurred())

		cfg := noiseConfig()
		cfg.Embedding.AutoTau = true
		cfg.Embedding.BinWidth = 0.1
		cfg.Embedding.NumLags = 20

		res, err := pipeline.Run(ctx, s, cfg, opts)
		if errors.Is(err, embed.ErrNoLocalMinimum) {
			Skip("mutual information curve has no minimum for this trajectory")
		}
		Expect(err).NotTo(HaveOccurred())
		Expect(res.TauSearch).NotTo(BeNil())
		Expect(res.Embedded.Tau).To(Equal(res.TauSearch.Tau))
	})

	DescribeTable("calibrates with few workers",
		func(workers int) {
			if runtime.NumCPU() < workers {
				Skip("not enough cpus")
			}
			cfg := noiseConfig()
			cfg.Calibration.Workers = workers
			cfg.Calibration.MaxIterations = 200

			for seed := int64(1); seed <= 5; seed++ {
				res, err := pipeline.Run(ctx, synth.Gaussian(100, 0, 1, seed), cfg, opts)
				Expect(err).NotTo(HaveOccurred(), "seed %d", seed)
				Expect(res.Density).To(BeNumerically("~", 0.05, 0.01))
			}
		},
		Entry("two workers", 2),
		Entry("three workers", 3),
	)

	Describe("failures", func() {
		It("prefixes a cancellation with the stage it interrupted", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			cfg := noiseConfig()
			cfg.Calibration.Fixed = true
			_, err := pipeline.Run(cancelled, series, cfg, opts)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(err.Error()).To(HavePrefix(pipeline.StageSpectral + ": "))
		})

		It("rejects an invalid configuration", func() {
			cfg := noiseConfig()
			cfg.Fisher.WindowSize = 0
			_, err := pipeline.Run(ctx, series, cfg, opts)
			Expect(errors.Is(err, dynamo.ErrInvalidParameter)).To(BeTrue())
		})

		It("rejects a series too short to embed", func() {
			short := synth.Gaussian(3, 0, 1, 1)
			_, err := pipeline.Run(ctx, short, noiseConfig(), opts)
			Expect(errors.Is(err, dynamo.ErrSeriesTooShort)).To(BeTrue())
		})

		It("surfaces a non-converging search as a named condition", func() {
			flat := dynamo.Indexed(make([]float64, 50))
			cfg := noiseConfig()
			cfg.Calibration.MaxIterations = 10

			reg := prometheus.NewRegistry()
			opts.Metrics = metrics.New(reg)
			_, err := pipeline.Run(ctx, flat, cfg, opts)
			Expect(errors.Is(err, calibrate.ErrNotConverged)).To(BeTrue())

			var ce *calibrate.ConvergenceError
			Expect(errors.As(err, &ce)).To(BeTrue())
			Expect(ce.Iterations).To(Equal(10))
			Expect(testutil.ToFloat64(opts.Metrics.RunsTotal.WithLabelValues("error"))).To(Equal(1.0))
		})
	})
})
