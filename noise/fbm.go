package noise

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// FBM sums Octaves layers of a Basis. After each octave the sample point
// is rotated, scaled by Lacunarity and shifted, and the amplitude is
// multiplied by Gain.
type FBM struct {
	Octaves    int
	Amplitude  float64 // first octave amplitude
	Gain       float64
	Lacunarity float64
	Rotation   float64 // radians
	Shift      r2.Vec
	Basis      Basis

	sin, cos float64
}

// DefaultFBM returns the plume octave stack: 5 octaves of value noise,
// 0.5 rad rotation, doubling frequency, halving amplitude, shift (100, 100).
func DefaultFBM() *FBM {
	return NewFBM(FBM{
		Octaves:    5,
		Amplitude:  0.5,
		Gain:       0.5,
		Lacunarity: 2.0,
		Rotation:   0.5,
		Shift:      r2.Vec{X: 100, Y: 100},
		Basis:      ValueBasis{},
	})
}

// NewFBM prepares an octave stack from p, caching the rotation terms.
// A nil basis selects value noise.
func NewFBM(p FBM) *FBM {
	f := p
	if f.Basis == nil {
		f.Basis = ValueBasis{}
	}
	f.sin, f.cos = math.Sincos(f.Rotation)
	return &f
}

// Eval returns the fractal sum at p.
func (f *FBM) Eval(p r2.Vec) float64 {
	v := 0.0
	a := f.Amplitude
	for i := 0; i < f.Octaves; i++ {
		v += a * f.Basis.Eval(p)
		p = r2.Add(r2.Scale(f.Lacunarity, f.rotate(p)), f.Shift)
		a *= f.Gain
	}
	return v
}

// Max returns the upper bound of Eval for a basis bounded by 1.
func (f *FBM) Max() float64 {
	sum := 0.0
	a := f.Amplitude
	for i := 0; i < f.Octaves; i++ {
		sum += a
		a *= f.Gain
	}
	return sum
}

// rotate applies the column-major 2x2 rotation [cos -sin; sin cos].
func (f *FBM) rotate(p r2.Vec) r2.Vec {
	return r2.Vec{
		X: f.cos*p.X - f.sin*p.Y,
		Y: f.sin*p.X + f.cos*p.Y,
	}
}
