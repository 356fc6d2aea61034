package perimeter

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrTileCount is returned when the tile count does not fit the ring.
	ErrTileCount = errors.New("perimeter: tile count must be between 1 and the ring length")
	// ErrPeriod is returned for a non-positive revolution period.
	ErrPeriod = errors.New("perimeter: revolution period must be positive")
)

// Keyframe is one waypoint of a tile path.
type Keyframe struct {
	At   float64 // normalized time within the revolution, 0..1
	Cell Cell
	Pos  Point
}

// Choreographer assigns N tiles evenly around a ring and plays each one
// along the full loop once per revolution. It is immutable after New.
type Choreographer struct {
	ring   *Ring
	tiles  int
	period time.Duration
	offset []float64 // ring steps
}

// New creates a choreographer for tiles spread over ring, completing one
// revolution every period.
func New(ring *Ring, tiles int, period time.Duration) (*Choreographer, error) {
	if ring == nil {
		return nil, fmt.Errorf("%w: nil ring", ErrGridTooSmall)
	}
	if tiles < 1 || tiles > ring.Len() {
		return nil, fmt.Errorf("%w: %d tiles on a ring of %d", ErrTileCount, tiles, ring.Len())
	}
	if period <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrPeriod, period)
	}

	l := float64(ring.Len())
	offset := make([]float64, tiles)
	for i := range offset {
		offset[i] = float64(i) * l / float64(tiles)
	}

	return &Choreographer{
		ring:   ring,
		tiles:  tiles,
		period: period,
		offset: offset,
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(ring *Ring, tiles int, period time.Duration) *Choreographer {
	c, err := New(ring, tiles, period)
	if err != nil {
		panic(err)
	}
	return c
}

// Ring returns the underlying ring.
func (c *Choreographer) Ring() *Ring { return c.ring }

// Tiles returns the tile count.
func (c *Choreographer) Tiles() int { return c.tiles }

// Period returns the revolution period.
func (c *Choreographer) Period() time.Duration { return c.period }

// Spacing returns the constant distance between neighbouring tiles in ring steps.
func (c *Choreographer) Spacing() float64 {
	return float64(c.ring.Len()) / float64(c.tiles)
}

// Offset returns the starting ring step of tile i.
func (c *Choreographer) Offset(i int) float64 {
	return c.offset[i]
}

// Start returns the ring position tile i begins its keyframe path at.
func (c *Choreographer) Start(i int) int {
	return int(math.Floor(c.offset[i]))
}

// Delay returns the playback start delay of tile i as a fraction of the
// period. It is zero or negative: a tile whose offset falls between two
// cells starts part-way into its first segment. Zero whenever the tile
// count divides the ring length.
func (c *Choreographer) Delay(i int) float64 {
	frac := c.offset[i] - math.Floor(c.offset[i])
	return -frac / float64(c.ring.Len())
}

// Keyframes returns the L+1 evenly timed waypoints of tile i. The last
// waypoint equals the first so the path closes.
func (c *Choreographer) Keyframes(i int) []Keyframe {
	l := c.ring.Len()
	start := c.Start(i)
	frames := make([]Keyframe, l+1)
	for k := 0; k <= l; k++ {
		cell := c.ring.At(start + k)
		frames[k] = Keyframe{
			At:   float64(k) / float64(l),
			Cell: cell,
			Pos:  c.ring.Frac(cell),
		}
	}
	return frames
}

// Phase maps elapsed host time onto the normalized revolution time [0,1).
func (c *Choreographer) Phase(elapsed time.Duration) float64 {
	p := float64(elapsed%c.period) / float64(c.period)
	if p < 0 {
		p += 1
	}
	return p
}

// Step returns the continuous ring coordinate of tile i at normalized
// time t, in [0, L).
func (c *Choreographer) Step(i int, t float64) float64 {
	l := float64(c.ring.Len())
	s := math.Mod(c.offset[i]+t*l, l)
	if s < 0 {
		s += l
	}
	return s
}

// Position returns where tile i is at normalized time t, linearly
// interpolated between ring cells.
func (c *Choreographer) Position(i int, t float64) Point {
	s := c.Step(i, t)
	base := math.Floor(s)
	frac := s - base
	a := c.ring.Frac(c.ring.At(int(base)))
	b := c.ring.Frac(c.ring.At(int(base) + 1))
	return Point{
		X: a.X + (b.X-a.X)*frac,
		Y: a.Y + (b.Y-a.Y)*frac,
	}
}

// Positions returns every tile position at normalized time t.
func (c *Choreographer) Positions(t float64) []Point {
	out := make([]Point, c.tiles)
	for i := range out {
		out[i] = c.Position(i, t)
	}
	return out
}

// CellAt returns the ring cell tile i has most recently passed at time t.
func (c *Choreographer) CellAt(i int, t float64) Cell {
	return c.ring.At(int(math.Floor(c.Step(i, t))))
}
