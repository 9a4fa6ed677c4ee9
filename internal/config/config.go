package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynrec/internal/dynamo"
)

const (
	DefaultM               = 3
	DefaultTau             = 1
	DefaultNumLags         = 30
	DefaultBinWidth        = 1.0
	DefaultTargetDensity   = 0.05
	DefaultTolerance       = 0.01
	DefaultEpsilon         = 1.0
	DefaultAmplitude       = 10.0
	DefaultMaxIterations   = 1000
	DefaultWindowSize      = 5
	DefaultWindowIncrement = 3
	DefaultUpper           = 95.0
	DefaultLower           = 5.0
	DefaultSamples         = 10000
	DefaultSeed            = 42
)

type Config struct {
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Fisher      FisherConfig      `yaml:"fisher"`
	Bootstrap   BootstrapConfig   `yaml:"bootstrap"`
}

type EmbeddingConfig struct {
	M          int     `yaml:"m"`
	Tau        int     `yaml:"tau"`
	AutoTau    bool    `yaml:"auto_tau"`
	NumLags    int     `yaml:"num_lags"`
	BinWidth   float64 `yaml:"bin_width"`
	CutFromEnd bool    `yaml:"cut_from_end"`
	InvertTime bool    `yaml:"invert_time"`
}

type CalibrationConfig struct {
	// Fixed skips the search and uses Epsilon as the radius.
	Fixed         bool          `yaml:"fixed"`
	Epsilon       float64       `yaml:"epsilon"`
	TargetDensity float64       `yaml:"target_density"`
	Tolerance     float64       `yaml:"tolerance"`
	Amplitude     float64       `yaml:"amplitude"`
	Workers       int           `yaml:"workers"`
	MaxIterations int           `yaml:"max_iterations"`
	Timeout       time.Duration `yaml:"timeout"`
	Precompute    bool          `yaml:"precompute"`
}

type FisherConfig struct {
	WindowSize      int  `yaml:"window_size"`
	WindowIncrement int  `yaml:"window_increment"`
	Smooth          bool `yaml:"smooth"`
	// BlockSize of 0 means a fifteenth of the Fisher series length.
	BlockSize int `yaml:"block_size"`
}

type BootstrapConfig struct {
	Upper   float64 `yaml:"upper"`
	Lower   float64 `yaml:"lower"`
	Width   int     `yaml:"width"`
	Samples int     `yaml:"samples"`
	Seed    int64   `yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			M:        DefaultM,
			Tau:      DefaultTau,
			NumLags:  DefaultNumLags,
			BinWidth: DefaultBinWidth,
		},
		Calibration: CalibrationConfig{
			Epsilon:       DefaultEpsilon,
			TargetDensity: DefaultTargetDensity,
			Tolerance:     DefaultTolerance,
			Amplitude:     DefaultAmplitude,
			MaxIterations: DefaultMaxIterations,
			Precompute:    true,
		},
		Fisher: FisherConfig{
			WindowSize:      DefaultWindowSize,
			WindowIncrement: DefaultWindowIncrement,
		},
		Bootstrap: BootstrapConfig{
			Upper:   DefaultUpper,
			Lower:   DefaultLower,
			Samples: DefaultSamples,
			Seed:    DefaultSeed,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every section and returns the first out-of-range field.
func (c *Config) Validate() error {
	e, cal, f, b := c.Embedding, c.Calibration, c.Fisher, c.Bootstrap
	switch {
	case e.M < 1:
		return dynamo.InvalidParam("embedding.m", e.M, "must be >= 1")
	case !e.AutoTau && e.Tau < 1:
		return dynamo.InvalidParam("embedding.tau", e.Tau, "must be >= 1")
	case e.AutoTau && e.NumLags < 3:
		return dynamo.InvalidParam("embedding.num_lags", e.NumLags, "must be >= 3")
	case e.BinWidth < 0:
		return dynamo.InvalidParam("embedding.bin_width", e.BinWidth, "must be >= 0")
	case cal.Epsilon < 0:
		return dynamo.InvalidParam("calibration.epsilon", cal.Epsilon, "must be >= 0")
	case cal.TargetDensity < 0 || cal.TargetDensity > 1:
		return dynamo.InvalidParam("calibration.target_density", cal.TargetDensity, "must be in [0, 1]")
	case !cal.Fixed && cal.Tolerance <= 0:
		return dynamo.InvalidParam("calibration.tolerance", cal.Tolerance, "must be > 0")
	case !cal.Fixed && cal.Amplitude <= 0:
		return dynamo.InvalidParam("calibration.amplitude", cal.Amplitude, "must be > 0")
	case cal.MaxIterations < 0:
		return dynamo.InvalidParam("calibration.max_iterations", cal.MaxIterations, "must be >= 0")
	case cal.Timeout < 0:
		return dynamo.InvalidParam("calibration.timeout", cal.Timeout, "must be >= 0")
	case f.WindowSize < 1:
		return dynamo.InvalidParam("fisher.window_size", f.WindowSize, "must be >= 1")
	case f.WindowIncrement < 1:
		return dynamo.InvalidParam("fisher.window_increment", f.WindowIncrement, "must be >= 1")
	case f.BlockSize < 0:
		return dynamo.InvalidParam("fisher.block_size", f.BlockSize, "must be >= 0")
	case b.Upper < 0 || b.Upper > 100:
		return dynamo.InvalidParam("bootstrap.upper", b.Upper, "must be in [0, 100]")
	case b.Lower < 0 || b.Lower > 100:
		return dynamo.InvalidParam("bootstrap.lower", b.Lower, "must be in [0, 100]")
	case b.Samples < 1:
		return dynamo.InvalidParam("bootstrap.samples", b.Samples, "must be >= 1")
	case b.Width < 0:
		return dynamo.InvalidParam("bootstrap.width", b.Width, "must be >= 0")
	}
	if _, err := dynamo.ResolveWorkers(cal.Workers); err != nil {
		return err
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
