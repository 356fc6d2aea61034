package smoke

import (
	"errors"
	"image"
)

var (
	// ErrCapabilityUnavailable means the rendering backend could not be
	// acquired on this host. The effect renders nothing.
	ErrCapabilityUnavailable = errors.New("smoke: rendering capability unavailable")

	// ErrCompileFailure means the shader program did not build. It signals a
	// defect, but the effect still degrades to rendering nothing.
	ErrCompileFailure = errors.New("smoke: shader program failed to build")
)

// IsDegraded reports whether err should switch the effect to no-op rendering.
func IsDegraded(err error) bool {
	return errors.Is(err, ErrCapabilityUnavailable) || errors.Is(err, ErrCompileFailure)
}

// Surface is the host-owned drawable area. The effect only reads its size.
type Surface interface {
	Size() (w, h int)
}

// FixedSurface is a Surface with a settable size.
type FixedSurface struct {
	W, H int
}

// Size implements Surface.
func (s *FixedSurface) Size() (int, int) { return s.W, s.H }

// Uniforms are the per-frame inputs of a backend.
type Uniforms struct {
	Width, Height int     // surface size in device pixels
	Time          float64 // seconds since the first frame
	Opacity       float64 // applied at composition, never inside the field
}

// Backend draws the field into the surface.
type Backend interface {
	// Init acquires the rendering resources. Errors matching IsDegraded
	// disable the effect.
	Init() error
	// Resize retargets the backing store; called before the first draw and
	// whenever the surface size changes.
	Resize(w, h int)
	// Draw renders one frame.
	Draw(u Uniforms) error
	// Release frees everything Init acquired.
	Release()
}

// Presenter receives a finished CPU frame for composition.
type Presenter interface {
	Present(img *image.RGBA, opacity float64) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(img *image.RGBA, opacity float64) error

// Present implements Presenter.
func (f PresenterFunc) Present(img *image.RGBA, opacity float64) error {
	return f(img, opacity)
}
