package stage

import (
	"fmt"
	"image/color"

	"github.com/pthm-cable/showfx/config"
	"github.com/pthm-cable/showfx/perimeter"
)

// FromConfig builds the ring, its choreographer and the tile world for cfg.
func FromConfig(cfg *config.Config) (*Stage, error) {
	ring, err := perimeter.NewRing(cfg.Ring.Rows, cfg.Ring.Cols)
	if err != nil {
		return nil, fmt.Errorf("building ring: %w", err)
	}
	choreo, err := perimeter.New(ring, cfg.Derived.Tiles, cfg.Derived.Period)
	if err != nil {
		return nil, fmt.Errorf("building choreographer: %w", err)
	}

	colors := make([]color.RGBA, len(cfg.Ring.Colors))
	for i, c := range cfg.Ring.Colors {
		r, g, b := c.Colorful().Clamped().RGB255()
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 0xff}
	}
	return New(choreo, cfg.Ring.Assets, colors), nil
}
