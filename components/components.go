// Package components defines the ECS components of the hero ring.
package components

import (
	"image/color"

	"github.com/pthm-cable/showfx/perimeter"
)

// Tile is the fixed content of one ring tile.
type Tile struct {
	Index int        `inspect:"label"`          // position in the ring order
	Asset string     `inspect:"label"`          // image path, cycled by index
	Color color.RGBA `inspect:"swatch"`         // placeholder when the asset is missing
	Delay float64    `inspect:"label,fmt:%.3f"` // negative start delay, fraction of a revolution
	Start int        `inspect:"label"`          // ring index of the first keyframe
}

// Slot is where a tile currently sits on the ring.
type Slot struct {
	Point perimeter.Point `inspect:"point"`          // top-left corner, container fraction
	Cell  perimeter.Cell  `inspect:"label"`          // ring cell the tile last passed
	Step  float64         `inspect:"label,fmt:%.2f"` // continuous ring step
	Phase float64         `inspect:"bar"`            // normalized revolution time
}

// Hover marks the tile under the pointer in interactive hosts, which draw
// it in full colour.
type Hover struct {
	Active bool `inspect:"bool"`
}
