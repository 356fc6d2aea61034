package stage

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/showfx/config"
	"github.com/pthm-cable/showfx/perimeter"
)

// Look is how idle tiles are toned down. Hovered tiles always show their
// original colour.
type Look struct {
	Grayscale  bool
	Brightness float64 // 1 leaves the colour unchanged
}

// LookFromConfig returns the tile look of cfg.
func LookFromConfig(cfg *config.Config) Look {
	return Look{Grayscale: cfg.Ring.Grayscale, Brightness: cfg.Ring.Brightness}
}

// Apply returns c as drawn for a tile.
func (l Look) Apply(c color.RGBA, hovered bool) color.RGBA {
	if hovered {
		return c
	}
	col, _ := colorful.MakeColor(c)
	if l.Grayscale {
		// Luma weights of the CSS grayscale() filter
		y := 0.2126*col.R + 0.7152*col.G + 0.0722*col.B
		col = colorful.Color{R: y, G: y, B: y}
	}
	if l.Brightness > 0 {
		col = colorful.Color{R: col.R * l.Brightness, G: col.G * l.Brightness, B: col.B * l.Brightness}
	}
	r, g, b := col.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: c.A}
}

// Box is an axis-aligned rectangle in pixels.
type Box struct {
	X, Y, W, H float64
}

// Contains reports whether (x, y) lies inside b.
func (b Box) Contains(x, y float64) bool {
	return x >= b.X && x < b.X+b.W && y >= b.Y && y < b.Y+b.H
}

// Fraction converts a pixel position to container fractions of b.
func (b Box) Fraction(x, y float64) perimeter.Point {
	return perimeter.Point{X: (x - b.X) / b.W, Y: (y - b.Y) / b.H}
}

// Sub returns the part of b covered by the fractional rectangle r.
func (b Box) Sub(r perimeter.Rect) Box {
	return Box{X: b.X + r.X*b.W, Y: b.Y + r.Y*b.H, W: r.W * b.W, H: r.H * b.H}
}

// Inset shrinks b by d on every side.
func (b Box) Inset(d float64) Box {
	return Box{X: b.X + d, Y: b.Y + d, W: math.Max(0, b.W-2*d), H: math.Max(0, b.H-2*d)}
}

// Container returns the square ring container centred in a w x h surface,
// filling fill of its shorter side.
func Container(w, h, fill float64) Box {
	side := math.Min(w, h) * fill
	return Box{X: (w - side) / 2, Y: (h - side) / 2, W: side, H: side}
}

// TileBox returns the pixel rectangle of a tile at slot inside container.
// gap is the padding around each tile in pixels.
func (s *Stage) TileBox(container Box, p perimeter.Point, gap float64) Box {
	tw, th := s.choreo.Ring().TileSize()
	return container.Sub(perimeter.Rect{X: p.X, Y: p.Y, W: tw, H: th}).Inset(gap)
}

// InteriorBox returns the pixel rectangle enclosed by the ring.
func (s *Stage) InteriorBox(container Box, gap float64) Box {
	return container.Sub(s.choreo.Ring().Interior()).Inset(gap)
}
