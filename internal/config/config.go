// Package config loads comparison settings from flags, environment and an
// optional config file.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/cwbudde/msecompare/internal/aggregate"
)

// EnvPrefix is prepended to environment overrides, e.g. MSECOMPARE_REFERENCE.
const EnvPrefix = "MSECOMPARE"

// DefaultPreset is used when no preset is configured.
const DefaultPreset = "thin_lens"

// Keys understood by Load.
const (
	KeyPreset       = "preset"
	KeyReference    = "reference"
	KeyTitle        = "title"
	KeySeries       = "series"
	KeySmoothWindow = "smooth_window"
	KeyPlot         = "plot"
	KeyDiffDir      = "diff_dir"
	KeyDataDir      = "data_dir"
	KeySave         = "save"
)

// SeriesConfig is one labelled glob pattern.
type SeriesConfig struct {
	Label   string `mapstructure:"label"`
	Pattern string `mapstructure:"pattern"`
}

// Config holds the settings for one comparison run.
type Config struct {
	Preset       string         `mapstructure:"preset"`
	Reference    string         `mapstructure:"reference"`
	Title        string         `mapstructure:"title"`
	Series       []SeriesConfig `mapstructure:"series"`
	SmoothWindow int            `mapstructure:"smooth_window"` // 0 disables smoothing
	Plot         string         `mapstructure:"plot"`          // output path; empty disables plotting
	DiffDir      string         `mapstructure:"diff_dir"`      // empty disables difference maps
	DataDir      string         `mapstructure:"data_dir"`
	Save         bool           `mapstructure:"save"`
}

// New returns a viper instance with defaults and environment overrides
// registered. If configFile is set it is read as well.
func New(configFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(KeyPreset, DefaultPreset)
	v.SetDefault(KeyReference, "")
	v.SetDefault(KeyTitle, "")
	v.SetDefault(KeySmoothWindow, 0)
	v.SetDefault(KeyPlot, "mse_comparison.png")
	v.SetDefault(KeyDiffDir, "")
	v.SetDefault(KeyDataDir, "./data")
	v.SetDefault(KeySave, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	return v, nil
}

// Load decodes v, fills unset fields from the selected preset and
// validates the result.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Preset == "" {
		cfg.Preset = DefaultPreset
	}
	p, ok := LookupPreset(cfg.Preset)
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %s)", cfg.Preset, strings.Join(PresetNames(), ", "))
	}
	if cfg.Reference == "" {
		cfg.Reference = p.Reference
	}
	if cfg.Title == "" {
		cfg.Title = p.Title
	}
	if len(cfg.Series) == 0 {
		cfg.Series = append([]SeriesConfig(nil), p.Series...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SmoothWindow < 0 {
		return &aggregate.ValidationError{Field: KeySmoothWindow, Reason: "cannot be negative"}
	}
	return c.Experiment().Validate()
}

// Experiment converts the configuration into the aggregator's input.
func (c *Config) Experiment() aggregate.Experiment {
	exp := aggregate.Experiment{
		Reference: c.Reference,
		Title:     c.Title,
		Series:    make([]aggregate.Series, len(c.Series)),
	}
	for i, s := range c.Series {
		exp.Series[i] = aggregate.Series{Label: s.Label, Pattern: s.Pattern}
	}
	return exp
}

// ParseSeries parses "label=pattern" flag values.
func ParseSeries(specs []string) ([]SeriesConfig, error) {
	series := make([]SeriesConfig, 0, len(specs))
	for _, spec := range specs {
		label, pattern, ok := strings.Cut(spec, "=")
		label = strings.TrimSpace(label)
		pattern = strings.TrimSpace(pattern)
		if !ok || label == "" || pattern == "" {
			return nil, fmt.Errorf("invalid series %q, expected label=pattern", spec)
		}
		series = append(series, SeriesConfig{Label: label, Pattern: pattern})
	}
	return series, nil
}

// SetSeries stores series in v in the shape Unmarshal expects.
func SetSeries(v *viper.Viper, series []SeriesConfig) {
	raw := make([]map[string]any, len(series))
	for i, s := range series {
		raw[i] = map[string]any{"label": s.Label, "pattern": s.Pattern}
	}
	v.Set(KeySeries, raw)
}

// PresetNames lists the built-in presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
