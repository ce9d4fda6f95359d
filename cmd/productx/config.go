package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/metatutu/pipeline"
)

// config tunes the product X demo. Every field has a working default;
// a TOML file overrides selectively.
type config struct {
	// Jobs is the number of product X jobs fed into the pipeline.
	Jobs int `toml:"jobs"`

	// BuildMS and PackMS simulate how long one build or pack step
	// takes, in milliseconds.
	BuildMS int `toml:"build_ms"`
	PackMS  int `toml:"pack_ms"`

	Build teamConfig `toml:"build"`
	Pack  teamConfig `toml:"pack"`
}

// teamConfig is the scaling tuning shared by the part teams and the
// pack team.
type teamConfig struct {
	InitialOperators int `toml:"initial_operators"`
	MinOperators     int `toml:"min_operators"`
	MaxOperators     int `toml:"max_operators"`
	ScaleStep        int `toml:"scale_step"`
	PollIntervalMS   int `toml:"poll_interval_ms"`
}

func defaultConfig() config {
	return config{
		Jobs:    50,
		BuildMS: 100,
		PackMS:  100,
		Build:   teamConfig{InitialOperators: 5},
		Pack:    teamConfig{InitialOperators: 5},
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// apply copies the tuning into team options, leaving unset fields to
// the library defaults.
func (tc teamConfig) apply(opts *pipeline.TeamOptions) {
	opts.InitialOperators = tc.InitialOperators
	opts.MinOperators = tc.MinOperators
	opts.MaxOperators = tc.MaxOperators
	opts.ScaleStep = tc.ScaleStep
	if tc.PollIntervalMS > 0 {
		opts.PollInterval = time.Duration(tc.PollIntervalMS) * time.Millisecond
	}
}
