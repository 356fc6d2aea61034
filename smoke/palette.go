package smoke

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
)

// Palette holds the ink colour stops.
type Palette struct {
	Deep       colorful.Color // shadows and structure
	Light      colorful.Color // half-white body
	Accent     colorful.Color // warm highlights
	Background colorful.Color
}

// DefaultPalette returns slate, silver, light orange on white.
func DefaultPalette() Palette {
	return Palette{
		Deep:       colorful.Color{R: 0.35, G: 0.35, B: 0.4},
		Light:      colorful.Color{R: 0.9, G: 0.92, B: 0.95},
		Accent:     colorful.Color{R: 1.0, G: 0.65, B: 0.2},
		Background: colorful.Color{R: 1, G: 1, B: 1},
	}
}

// ParsePalette builds a palette from four hex colours in the order deep,
// light, accent, background.
func ParsePalette(deep, light, accent, background string) (Palette, error) {
	var p Palette
	for _, c := range []struct {
		hex string
		dst *colorful.Color
	}{
		{deep, &p.Deep},
		{light, &p.Light},
		{accent, &p.Accent},
		{background, &p.Background},
	} {
		col, err := colorful.Hex(c.hex)
		if err != nil {
			return Palette{}, fmt.Errorf("parsing palette colour %q: %w", c.hex, err)
		}
		*c.dst = col
	}
	return p, nil
}

// Shade blends deep towards light by r.x, then towards the accent by r.y,
// and lays the result over the background with weight ink. The result is
// clamped to the unit cube.
func (p Palette) Shade(r r2.Vec, ink float64) colorful.Color {
	c := p.Deep.BlendRgb(p.Light, r.X)
	c = c.BlendRgb(p.Accent, r.Y)
	return p.Background.BlendRgb(c, ink).Clamped()
}
