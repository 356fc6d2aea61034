package smoke

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/showfx/config"
	"github.com/pthm-cable/showfx/noise"
)

// ParamsFromConfig maps the configured plume constants onto Params. c
// comes from config.Load, which starts from the embedded defaults, so every
// value is taken as given: zero turbulence, zero drift and black ink stops
// are all valid looks. Constants without a config key keep DefaultParams.
func ParamsFromConfig(c config.SmokeConfig) Params {
	p := DefaultParams()

	p.Drift = c.Drift
	p.Turbulence = c.Turbulence
	p.MaskEdge = c.MaskEdge
	p.DensityLow = c.DensityLow
	p.DensityHigh = c.DensityHigh
	p.InkStrength = c.InkStrength

	p.FBM = noise.NewFBM(noise.FBM{
		Octaves:    c.FBM.Octaves,
		Amplitude:  c.FBM.Amplitude,
		Gain:       c.FBM.Gain,
		Lacunarity: c.FBM.Lacunarity,
		Rotation:   c.FBM.Rotation,
		Shift:      r2.Vec{X: c.FBM.Shift, Y: c.FBM.Shift},
		Basis:      noise.BasisByName(c.Basis, c.Seed),
	})

	pal := c.Palette
	p.Palette = Palette{
		Deep:       pal.Deep.Colorful(),
		Light:      pal.Light.Colorful(),
		Accent:     pal.Accent.Colorful(),
		Background: pal.Background.Colorful(),
	}
	return p
}

// FieldFromConfig builds the plume field for cfg.
func FieldFromConfig(cfg *config.Config) *Field {
	return NewField(ParamsFromConfig(cfg.Smoke))
}

// RasterOptions returns the raster options configured in cfg.
func RasterOptions(cfg *config.Config) []RasterOption {
	return []RasterOption{
		WithScale(cfg.Raster.Scale),
		WithWorkers(cfg.Raster.Workers),
	}
}
