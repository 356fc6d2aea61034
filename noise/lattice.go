// Package noise provides the 2D lattice noise and fractal octave stack
// behind the plume field.
package noise

import (
	"math"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"
)

// hashDir and hashScale are the classic sin-hash constants.
var hashDir = r2.Vec{X: 12.9898, Y: 78.233}

const hashScale = 43758.5453123

// Basis is a 2D noise function with output in [0, 1].
type Basis interface {
	Eval(p r2.Vec) float64
}

// Fract returns the fractional part of x, always in [0, 1).
func Fract(x float64) float64 {
	return x - math.Floor(x)
}

// Random returns a pseudo-random value in [0, 1) for a lattice point.
func Random(p r2.Vec) float64 {
	return Fract(math.Sin(r2.Dot(p, hashDir)) * hashScale)
}

// Value evaluates smoothed value noise at p: the four surrounding lattice
// corners are hashed and blended with a cubic Hermite curve.
func Value(p r2.Vec) float64 {
	ix, iy := math.Floor(p.X), math.Floor(p.Y)
	fx, fy := p.X-ix, p.Y-iy

	a := Random(r2.Vec{X: ix, Y: iy})
	b := Random(r2.Vec{X: ix + 1, Y: iy})
	c := Random(r2.Vec{X: ix, Y: iy + 1})
	d := Random(r2.Vec{X: ix + 1, Y: iy + 1})

	ux := fx * fx * (3 - 2*fx)
	uy := fy * fy * (3 - 2*fy)

	return a + (b-a)*ux + (c-a)*uy*(1-ux) + (d-b)*ux*uy
}

// ValueBasis is the default Basis backed by Value.
type ValueBasis struct{}

// Eval implements Basis.
func (ValueBasis) Eval(p r2.Vec) float64 { return Value(p) }

// SimplexBasis is an OpenSimplex Basis, normalized to [0, 1].
type SimplexBasis struct {
	n opensimplex.Noise
}

// NewSimplexBasis creates a seeded OpenSimplex basis.
func NewSimplexBasis(seed int64) *SimplexBasis {
	return &SimplexBasis{n: opensimplex.NewNormalized(seed)}
}

// Eval implements Basis.
func (s *SimplexBasis) Eval(p r2.Vec) float64 {
	return s.n.Eval2(p.X, p.Y)
}

// BasisByName resolves a basis from its config name ("value" or "simplex").
// Unknown names fall back to value noise.
func BasisByName(name string, seed int64) Basis {
	switch name {
	case "simplex":
		return NewSimplexBasis(seed)
	default:
		return ValueBasis{}
	}
}
