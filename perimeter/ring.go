// Package perimeter computes the rotating tile ring of the hero grid: the
// clockwise loop of boundary cells and the looping path each tile plays
// along it.
package perimeter

import (
	"errors"
	"fmt"
)

// ErrGridTooSmall is returned when a grid has no distinct perimeter.
var ErrGridTooSmall = errors.New("perimeter: grid must be at least 2x2")

// Cell identifies a grid cell by column (X) and row (Y).
type Cell struct {
	X, Y int
}

func (c Cell) String() string { return fmt.Sprintf("(%d, %d)", c.X, c.Y) }

// Point is a position expressed as a fraction of the container (0..1 per axis).
type Point struct {
	X, Y float64
}

func (p Point) String() string { return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y) }

// Rect is a rectangle in container fractions.
type Rect struct {
	X, Y, W, H float64
}

// Ring is the ordered clockwise loop of boundary cells of a rows x cols grid.
// It starts at the top-left corner and never repeats a cell.
type Ring struct {
	rows, cols int
	cells      []Cell
	index      map[Cell]int
}

// NewRing builds the perimeter ring for a rows x cols grid.
func NewRing(rows, cols int) (*Ring, error) {
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrGridTooSmall, cols, rows)
	}

	n := 2*(rows+cols) - 4
	cells := make([]Cell, 0, n)

	// Top row, left to right
	for x := 0; x < cols; x++ {
		cells = append(cells, Cell{X: x, Y: 0})
	}
	// Right column, top to bottom (top-right corner already visited)
	for y := 1; y < rows; y++ {
		cells = append(cells, Cell{X: cols - 1, Y: y})
	}
	// Bottom row, right to left
	for x := cols - 2; x >= 0; x-- {
		cells = append(cells, Cell{X: x, Y: rows - 1})
	}
	// Left column, bottom to top, stopping short of the start
	for y := rows - 2; y >= 1; y-- {
		cells = append(cells, Cell{X: 0, Y: y})
	}

	index := make(map[Cell]int, len(cells))
	for i, c := range cells {
		index[c] = i
	}

	return &Ring{rows: rows, cols: cols, cells: cells, index: index}, nil
}

// MustRing is like NewRing but panics on error.
func MustRing(rows, cols int) *Ring {
	r, err := NewRing(rows, cols)
	if err != nil {
		panic(err)
	}
	return r
}

// Rows returns the grid row count.
func (r *Ring) Rows() int { return r.rows }

// Cols returns the grid column count.
func (r *Ring) Cols() int { return r.cols }

// Len returns the number of perimeter cells, 2*(rows+cols)-4.
func (r *Ring) Len() int { return len(r.cells) }

// At returns the cell at position i, wrapping in both directions.
func (r *Ring) At(i int) Cell {
	return r.cells[wrap(i, len(r.cells))]
}

// Cells returns a copy of the ring in traversal order.
func (r *Ring) Cells() []Cell {
	out := make([]Cell, len(r.cells))
	copy(out, r.cells)
	return out
}

// Index returns the ring position of c.
func (r *Ring) Index(c Cell) (int, bool) {
	i, ok := r.index[c]
	return i, ok
}

// Frac returns the top-left corner of c as a fraction of the container.
func (r *Ring) Frac(c Cell) Point {
	return Point{
		X: float64(c.X) / float64(r.cols),
		Y: float64(c.Y) / float64(r.rows),
	}
}

// TileSize returns the size of one cell as a fraction of the container.
func (r *Ring) TileSize() (w, h float64) {
	return 1 / float64(r.cols), 1 / float64(r.rows)
}

// Interior returns the rectangle enclosed by the ring. On the 6x6 hero
// grid this is the 4x4 feature panel.
func (r *Ring) Interior() Rect {
	tw, th := r.TileSize()
	return Rect{
		X: tw,
		Y: th,
		W: float64(r.cols-2) * tw,
		H: float64(r.rows-2) * th,
	}
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
