package config

import (
	"sort"
	"time"
)

var Presets = map[string]*Config{
	// small resample count and a short search budget, for exploring data
	"quick": {
		Embedding: EmbeddingConfig{M: 3, Tau: 1, NumLags: DefaultNumLags, BinWidth: DefaultBinWidth},
		Calibration: CalibrationConfig{
			Epsilon: 1, TargetDensity: 0.05, Tolerance: 0.02, Amplitude: 10,
			MaxIterations: 100, Timeout: 30 * time.Second, Precompute: true,
		},
		Fisher:    FisherConfig{WindowSize: 5, WindowIncrement: 3},
		Bootstrap: BootstrapConfig{Upper: 95, Lower: 5, Samples: 1000, Seed: DefaultSeed},
	},
	"default": DefaultConfig(),
	// unevenly resolved proxy records given in age units, oldest last
	"paleo": {
		Embedding: EmbeddingConfig{
			M: 5, AutoTau: true, NumLags: DefaultNumLags, BinWidth: DefaultBinWidth, InvertTime: true,
		},
		Calibration: CalibrationConfig{
			Epsilon: 1, TargetDensity: 0.05, Tolerance: 0.01, Amplitude: 10,
			MaxIterations: DefaultMaxIterations, Timeout: 10 * time.Minute, Precompute: true,
		},
		Fisher:    FisherConfig{WindowSize: 8, WindowIncrement: 2, Smooth: true},
		Bootstrap: BootstrapConfig{Upper: 95, Lower: 5, Samples: DefaultSamples, Seed: DefaultSeed},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
