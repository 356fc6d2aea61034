// Package config provides configuration loading and access for the hero effects.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// MaxOctaves bounds smoke.fbm.octaves; the plume shader loops at most this
// many times.
const MaxOctaves = 16

// Config holds all configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Ring      RingConfig      `yaml:"ring"`
	Smoke     SmokeConfig     `yaml:"smoke"`
	Raster    RasterConfig    `yaml:"raster"`
	Headless  HeadlessConfig  `yaml:"headless"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// RingConfig holds the perimeter ring layout.
type RingConfig struct {
	Rows   int      `yaml:"rows"`
	Cols   int      `yaml:"cols"`
	Tiles  int      `yaml:"tiles"`  // 0 = one tile per ring cell
	Period float64  `yaml:"period"` // Seconds per revolution
	Assets []string `yaml:"assets"` // Tile images, cycled by tile index

	Grayscale  bool    `yaml:"grayscale"`  // Desaturate tile images
	Brightness float64 `yaml:"brightness"` // Tile image brightness multiplier
	Colors     []Color `yaml:"colors"`     // Placeholder colours when an asset cannot be loaded
}

// SmokeConfig holds the ink plume constants. Zero values keep the defaults.
type SmokeConfig struct {
	Opacity float64 `yaml:"opacity"`
	Basis   string  `yaml:"basis"` // "value" or "simplex"
	Seed    int64   `yaml:"seed"`  // simplex basis only

	Drift       float64 `yaml:"drift"`
	Turbulence  float64 `yaml:"turbulence"`
	MaskEdge    float64 `yaml:"mask_edge"`
	DensityLow  float64 `yaml:"density_low"`
	DensityHigh float64 `yaml:"density_high"`
	InkStrength float64 `yaml:"ink_strength"`

	FBM     FBMConfig     `yaml:"fbm"`
	Palette PaletteConfig `yaml:"palette"`
}

// FBMConfig holds the octave stack parameters.
type FBMConfig struct {
	Octaves    int     `yaml:"octaves"`
	Amplitude  float64 `yaml:"amplitude"`
	Gain       float64 `yaml:"gain"`
	Lacunarity float64 `yaml:"lacunarity"`
	Rotation   float64 `yaml:"rotation"` // Radians per octave
	Shift      float64 `yaml:"shift"`    // Applied to both axes
}

// PaletteConfig holds the ink colour stops.
type PaletteConfig struct {
	Deep       Color `yaml:"deep"`
	Light      Color `yaml:"light"`
	Accent     Color `yaml:"accent"`
	Background Color `yaml:"background"`
}

// RasterConfig holds CPU rendering parameters.
type RasterConfig struct {
	Scale   float64 `yaml:"scale"`   // Backing store resolution relative to the surface
	Workers int     `yaml:"workers"` // 0 = GOMAXPROCS
	GPU     bool    `yaml:"gpu"`     // Prefer the shader backend in window mode
}

// HeadlessConfig holds offscreen rendering parameters.
type HeadlessConfig struct {
	Frames int     `yaml:"frames"`
	FPS    float64 `yaml:"fps"`
	Out    string  `yaml:"out"` // Output directory for PNG frames
}

// ServerConfig holds frame server settings.
type ServerConfig struct {
	Addr         string  `yaml:"addr"`
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	ReadTimeout  float64 `yaml:"read_timeout"`  // Seconds
	WriteTimeout float64 `yaml:"write_timeout"` // Seconds
}

// TelemetryConfig holds frame telemetry parameters.
type TelemetryConfig struct {
	Window     int    `yaml:"window"`      // Frames kept in the rolling collector
	LogEvery   int    `yaml:"log_every"`   // Frames between summary log lines (0 = off)
	OutputDir  string `yaml:"output_dir"`  // Empty disables CSV output
	FlushEvery int    `yaml:"flush_every"` // Frames between CSV flushes
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Period        time.Duration // Ring.Period as a duration
	FrameInterval time.Duration // 1/TargetFPS
	HeadlessStep  time.Duration // 1/Headless.FPS
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	Tiles         int // Effective tile count
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Set replaces the global configuration, used after a watched reload.
func Set(c *Config) {
	global = c
}

// Defaults returns the embedded defaults.
func Defaults() (*Config, error) {
	return Load("")
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Parse overlays YAML data onto cfg. Only fields present in data are overwritten.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// Validate checks the values that would otherwise fail at construction time.
func (c *Config) Validate() error {
	if c.Ring.Rows < 2 || c.Ring.Cols < 2 {
		return fmt.Errorf("config: ring must be at least 2x2, got %dx%d", c.Ring.Rows, c.Ring.Cols)
	}
	perimeter := 2*(c.Ring.Rows+c.Ring.Cols) - 4
	if c.Ring.Tiles < 0 || c.Ring.Tiles > perimeter {
		return fmt.Errorf("config: ring.tiles %d outside [0, %d]", c.Ring.Tiles, perimeter)
	}
	if c.Ring.Period <= 0 {
		return fmt.Errorf("config: ring.period must be positive, got %g", c.Ring.Period)
	}
	if c.Smoke.Opacity < 0 || c.Smoke.Opacity > 1 {
		return fmt.Errorf("config: smoke.opacity %g outside [0, 1]", c.Smoke.Opacity)
	}
	if c.Raster.Scale <= 0 || c.Raster.Scale > 1 {
		return fmt.Errorf("config: raster.scale %g outside (0, 1]", c.Raster.Scale)
	}
	if o := c.Smoke.FBM.Octaves; o < 1 || o > MaxOctaves {
		return fmt.Errorf("config: smoke.fbm.octaves %d outside [1, %d]", o, MaxOctaves)
	}
	if c.Smoke.DensityLow == c.Smoke.DensityHigh {
		return fmt.Errorf("config: smoke.density_low and density_high are both %g", c.Smoke.DensityLow)
	}
	switch c.Smoke.Basis {
	case "", "value", "simplex":
	default:
		return fmt.Errorf("config: unknown smoke.basis %q", c.Smoke.Basis)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Period = seconds(c.Ring.Period)

	c.Derived.FrameInterval = time.Second / 60
	if c.Screen.TargetFPS > 0 {
		c.Derived.FrameInterval = time.Second / time.Duration(c.Screen.TargetFPS)
	}
	c.Derived.HeadlessStep = c.Derived.FrameInterval
	if c.Headless.FPS > 0 {
		c.Derived.HeadlessStep = seconds(1 / c.Headless.FPS)
	}

	c.Derived.ReadTimeout = seconds(c.Server.ReadTimeout)
	c.Derived.WriteTimeout = seconds(c.Server.WriteTimeout)

	// Tile count defaults to one per ring cell
	c.Derived.Tiles = c.Ring.Tiles
	if c.Derived.Tiles == 0 {
		c.Derived.Tiles = 2*(c.Ring.Rows+c.Ring.Cols) - 4
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
