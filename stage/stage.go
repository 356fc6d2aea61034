// Package stage holds the hero ring as an ECS world. Each tile is an entity
// whose slot is rewritten from the choreographer every update.
package stage

import (
	"image/color"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/showfx/components"
	"github.com/pthm-cable/showfx/perimeter"
)

// BrandColors are the placeholder tile colours.
var BrandColors = []color.RGBA{
	{R: 0xEE, G: 0x7F, B: 0x1B, A: 0xFF},
	{R: 0x1C, G: 0x79, B: 0xC2, A: 0xFF},
	{R: 0x26, G: 0x91, B: 0x35, A: 0xFF},
	{R: 0xCD, G: 0x53, B: 0x95, A: 0xFF},
	{R: 0xB6, G: 0x26, B: 0x4A, A: 0xFF},
}

// Stage is the tile world. It is not safe for concurrent use; hosts that
// read it from other goroutines take a Snapshot under their own lock.
type Stage struct {
	world  *ecs.World
	choreo *perimeter.Choreographer

	mapper *ecs.Map3[components.Tile, components.Slot, components.Hover]
	filter *ecs.Filter3[components.Tile, components.Slot, components.Hover]

	tileMap  *ecs.Map1[components.Tile]
	slotMap  *ecs.Map1[components.Slot]
	hoverMap *ecs.Map1[components.Hover]

	entities []ecs.Entity // tile order
	elapsed  time.Duration
	phase    float64
}

// New creates one entity per choreographed tile. Tile i shows
// assets[i % len(assets)] and colors[i % len(colors)]; empty lists leave the
// asset blank and fall back to BrandColors.
func New(c *perimeter.Choreographer, assets []string, colors []color.RGBA) *Stage {
	if len(colors) == 0 {
		colors = BrandColors
	}

	world := ecs.NewWorld()
	s := &Stage{
		world:    world,
		choreo:   c,
		mapper:   ecs.NewMap3[components.Tile, components.Slot, components.Hover](world),
		filter:   ecs.NewFilter3[components.Tile, components.Slot, components.Hover](world),
		tileMap:  ecs.NewMap1[components.Tile](world),
		slotMap:  ecs.NewMap1[components.Slot](world),
		hoverMap: ecs.NewMap1[components.Hover](world),
	}

	n := c.Tiles()
	s.entities = make([]ecs.Entity, n)
	for i := 0; i < n; i++ {
		tile := components.Tile{
			Index: i,
			Color: colors[i%len(colors)],
			Delay: c.Delay(i),
			Start: c.Start(i),
		}
		if len(assets) > 0 {
			tile.Asset = assets[i%len(assets)]
		}
		slot := slotAt(c, i, 0)
		hover := components.Hover{}
		s.entities[i] = s.mapper.NewEntity(&tile, &slot, &hover)
	}
	return s
}

func slotAt(c *perimeter.Choreographer, i int, t float64) components.Slot {
	return components.Slot{
		Point: c.Position(i, t),
		Cell:  c.CellAt(i, t),
		Step:  c.Step(i, t),
		Phase: t,
	}
}

// Update moves every tile to its position at elapsed time since mount.
func (s *Stage) Update(elapsed time.Duration) {
	s.elapsed = elapsed
	s.phase = s.choreo.Phase(elapsed)

	query := s.filter.Query()
	for query.Next() {
		tile, slot, _ := query.Get()
		*slot = slotAt(s.choreo, tile.Index, s.phase)
	}
}

// SetHover marks the tile containing the container-fraction point p as
// hovered and clears the others. It returns the hovered tile index or -1.
func (s *Stage) SetHover(p perimeter.Point) int {
	tw, th := s.choreo.Ring().TileSize()
	hit := -1

	query := s.filter.Query()
	for query.Next() {
		tile, slot, hover := query.Get()
		in := p.X >= slot.Point.X && p.X < slot.Point.X+tw &&
			p.Y >= slot.Point.Y && p.Y < slot.Point.Y+th
		hover.Active = in && hit < 0
		if hover.Active {
			hit = tile.Index
		}
	}
	return hit
}

// Each calls fn for every tile in ring order.
func (s *Stage) Each(fn func(tile components.Tile, slot components.Slot, hover bool)) {
	for _, e := range s.entities {
		fn(*s.tileMap.Get(e), *s.slotMap.Get(e), s.hoverMap.Get(e).Active)
	}
}

// Tile returns the components of tile i.
func (s *Stage) Tile(i int) (*components.Tile, *components.Slot, *components.Hover) {
	e := s.entities[i]
	return s.tileMap.Get(e), s.slotMap.Get(e), s.hoverMap.Get(e)
}

// Len returns the number of tiles.
func (s *Stage) Len() int { return len(s.entities) }

// Phase returns the normalized revolution time of the last update.
func (s *Stage) Phase() float64 { return s.phase }

// Elapsed returns the time passed to the last update.
func (s *Stage) Elapsed() time.Duration { return s.elapsed }

// Choreographer returns the choreographer driving the stage.
func (s *Stage) Choreographer() *perimeter.Choreographer { return s.choreo }

// TileState is a plain copy of one tile for hosts outside the world.
type TileState struct {
	Index int     `json:"index"`
	Asset string  `json:"asset,omitempty"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	CellX int     `json:"cell_x"`
	CellY int     `json:"cell_y"`
	Step  float64 `json:"step"`
}

// Snapshot is the ring state at one instant.
type Snapshot struct {
	Rows    int         `json:"rows"`
	Cols    int         `json:"cols"`
	Period  float64     `json:"period_seconds"`
	Elapsed float64     `json:"elapsed_seconds"`
	Phase   float64     `json:"phase"`
	Tiles   []TileState `json:"tiles"`
}

// Snapshot copies the current tile states.
func (s *Stage) Snapshot() Snapshot {
	ring := s.choreo.Ring()
	snap := Snapshot{
		Rows:    ring.Rows(),
		Cols:    ring.Cols(),
		Period:  s.choreo.Period().Seconds(),
		Elapsed: s.elapsed.Seconds(),
		Phase:   s.phase,
		Tiles:   make([]TileState, 0, len(s.entities)),
	}
	s.Each(func(tile components.Tile, slot components.Slot, _ bool) {
		snap.Tiles = append(snap.Tiles, TileState{
			Index: tile.Index,
			Asset: tile.Asset,
			Color: hex(tile.Color),
			X:     slot.Point.X,
			Y:     slot.Point.Y,
			CellX: slot.Cell.X,
			CellY: slot.Cell.Y,
			Step:  slot.Step,
		})
	})
	return snap
}

func hex(c color.RGBA) string {
	col, _ := colorful.MakeColor(c)
	return col.Hex()
}
