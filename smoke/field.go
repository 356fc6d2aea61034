// Package smoke renders the hero "ink plume": a domain-warped fractal noise
// field evaluated every frame and composited onto the page with a multiply
// blend.
package smoke

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/showfx/noise"
)

// Params holds the tuned constants of the plume. They are visual taste, not
// invariants; DefaultParams reproduces the reference look exactly.
type Params struct {
	// Upward drift of the flow coordinate, units per second.
	Drift float64

	// First warp: q.x = fbm(flow + QTime*t), q.y = fbm(flow + QOffset).
	QTime   float64
	QOffset r2.Vec

	// Second warp: r.x = fbm(flow + q + ROffsetX + RTimeX*t), likewise r.y.
	ROffsetX r2.Vec
	ROffsetY r2.Vec
	RTimeX   float64
	RTimeY   float64

	// Plume silhouette.
	SpreadBase   float64 // horizontal spread at the base
	SpreadGrowth float64 // extra spread per unit of height
	HeightScale  float64
	HeightOffset float64
	MaskEdge     float64 // distance at which the mask reaches zero
	FadeStart    float64 // top fade smoothstep edges
	FadeEnd      float64
	Turbulence   float64 // wispy edge strength, scaled by height

	// Ink thresholding.
	DensityLow  float64
	DensityHigh float64
	InkStrength float64

	Palette Palette
	FBM     *noise.FBM
}

// DefaultParams returns the reference plume constants.
func DefaultParams() Params {
	return Params{
		Drift:        0.05,
		QTime:        0.1,
		QOffset:      r2.Vec{X: 1, Y: 1},
		ROffsetX:     r2.Vec{X: 1.7, Y: 9.2},
		ROffsetY:     r2.Vec{X: 8.3, Y: 2.8},
		RTimeX:       0.15,
		RTimeY:       0.126,
		SpreadBase:   3.0,
		SpreadGrowth: 1.0,
		HeightScale:  0.5,
		HeightOffset: 0.05,
		MaskEdge:     1.5,
		FadeStart:    1.0,
		FadeEnd:      0.4,
		Turbulence:   0.5,
		DensityLow:   0.1,
		DensityHigh:  0.6,
		InkStrength:  0.95,
		Palette:      DefaultPalette(),
		FBM:          noise.DefaultFBM(),
	}
}

// Sample holds every intermediate of one field evaluation.
type Sample struct {
	Q, R    r2.Vec // first and second warp vectors
	F       float64
	Mask    float64
	Density float64
	Color   colorful.Color
}

// Field evaluates the plume. It holds no per-frame state and is safe for
// concurrent use.
type Field struct {
	p Params
}

// NewField creates a field from p. A nil FBM selects the default octave stack.
func NewField(p Params) *Field {
	if p.FBM == nil {
		p.FBM = noise.DefaultFBM()
	}
	return &Field{p: p}
}

// Params returns the field constants.
func (f *Field) Params() Params { return f.p }

// Normalize maps fragment coordinates (origin bottom-left, pixel centres at
// +0.5) to st in [0,1]^2.
func Normalize(fx, fy float64, w, h int) r2.Vec {
	return r2.Vec{X: fx / float64(w), Y: fy / float64(h)}
}

// Correct applies aspect correction: x is centred and scaled by width/height
// so the plume is not stretched. The horizontal centre always maps to 0.
func Correct(st r2.Vec, aspect float64) r2.Vec {
	return r2.Vec{X: (st.X - 0.5) * aspect, Y: st.Y}
}

// Coords returns the normalized and aspect-corrected coordinates of a fragment.
func Coords(fx, fy float64, w, h int) (st, p r2.Vec) {
	st = Normalize(fx, fy, w, h)
	return st, Correct(st, float64(w)/float64(h))
}

// FragCoord converts an image pixel (row 0 at the top) to the fragment
// coordinate of its centre, with row 0 at the bottom.
func FragCoord(x, y, h int) (fx, fy float64) {
	return float64(x) + 0.5, float64(h-y) - 0.5
}

// Sample evaluates the field at st/p and elapsed time t in seconds.
func (f *Field) Sample(st, p r2.Vec, t float64) Sample {
	prm := &f.p
	fbm := prm.FBM

	flow := p
	flow.Y -= t * prm.Drift

	// Domain warping: displace by noise evaluated at noise-displaced points
	qt := prm.QTime * t
	q := r2.Vec{
		X: fbm.Eval(r2.Vec{X: flow.X + qt, Y: flow.Y + qt}),
		Y: fbm.Eval(r2.Add(flow, prm.QOffset)),
	}

	warped := r2.Add(flow, q)
	rx, ry := prm.RTimeX*t, prm.RTimeY*t
	r := r2.Vec{
		X: fbm.Eval(r2.Add(warped, r2.Vec{X: prm.ROffsetX.X + rx, Y: prm.ROffsetX.Y + rx})),
		Y: fbm.Eval(r2.Add(warped, r2.Vec{X: prm.ROffsetY.X + ry, Y: prm.ROffsetY.Y + ry})),
	}

	n := fbm.Eval(r2.Add(flow, r))

	// Plume silhouette, wide at the base
	y := st.Y
	spread := prm.SpreadBase + y*prm.SpreadGrowth
	dist := math.Hypot(p.X/spread, y*prm.HeightScale+prm.HeightOffset)

	mask := 1 - Smoothstep(0, prm.MaskEdge, dist)
	mask *= Smoothstep(prm.FadeStart, prm.FadeEnd, y)
	mask += (n - 0.5) * prm.Turbulence * y
	mask = Clamp(mask, 0, 1)

	density := Smoothstep(prm.DensityLow, prm.DensityHigh, n*mask)

	return Sample{
		Q:       q,
		R:       r,
		F:       n,
		Mask:    mask,
		Density: density,
		Color:   prm.Palette.Shade(r, density*prm.InkStrength),
	}
}

// Eval evaluates the field at surface pixel (x, y) of a w x h surface,
// row 0 at the top.
func (f *Field) Eval(x, y, w, h int, t float64) Sample {
	fx, fy := FragCoord(x, y, h)
	st, p := Coords(fx, fy, w, h)
	return f.Sample(st, p, t)
}

// Shade returns only the colour of a field evaluation.
func (f *Field) Shade(st, p r2.Vec, t float64) colorful.Color {
	return f.Sample(st, p, t).Color
}

// Smoothstep is the GLSL cubic step. e0 may exceed e1, which inverts it.
func Smoothstep(e0, e1, x float64) float64 {
	t := Clamp((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Mix linearly interpolates a towards b by t.
func Mix(a, b, t float64) float64 {
	return a + (b-a)*t
}
