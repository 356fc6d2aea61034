package smoke

import (
	"fmt"
	"image"
	"math"
	"time"
)

// Raster is the CPU Backend. It evaluates the field into a reduced
// resolution backing store and hands each finished frame to a Presenter,
// which upscales and composites it.
type Raster struct {
	field     *Field
	presenter Presenter
	scale     float64
	pool      *pool

	img           *image.RGBA
	width, height int // surface size

	evaluate, present time.Duration // last frame
}

// RasterOption configures a Raster.
type RasterOption func(*Raster)

// WithScale sets the backing store resolution relative to the surface.
// Values outside (0, 1] are ignored.
func WithScale(s float64) RasterOption {
	return func(r *Raster) {
		if s > 0 && s <= 1 {
			r.scale = s
		}
	}
}

// WithWorkers sets the worker count; zero uses GOMAXPROCS.
func WithWorkers(n int) RasterOption {
	return func(r *Raster) {
		r.pool = newPool(n)
	}
}

// NewRaster creates a CPU backend rendering field for p.
func NewRaster(field *Field, p Presenter, opts ...RasterOption) *Raster {
	r := &Raster{
		field:     field,
		presenter: p,
		scale:     0.25,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pool == nil {
		r.pool = newPool(0)
	}
	return r
}

// Init implements Backend.
func (r *Raster) Init() error {
	if r.field == nil || r.presenter == nil {
		return fmt.Errorf("%w: raster needs a field and a presenter", ErrCapabilityUnavailable)
	}
	r.pool.start()
	return nil
}

// Resize implements Backend. The backing store is reallocated only when its
// scaled size changes.
func (r *Raster) Resize(w, h int) {
	r.width, r.height = w, h
	bw, bh := BackingSize(w, h, r.scale)
	if r.img != nil && r.img.Rect.Dx() == bw && r.img.Rect.Dy() == bh {
		return
	}
	r.img = image.NewRGBA(image.Rect(0, 0, bw, bh))
}

// Draw implements Backend.
func (r *Raster) Draw(u Uniforms) error {
	if r.img == nil || u.Width != r.width || u.Height != r.height {
		r.Resize(u.Width, u.Height)
	}

	start := time.Now()
	aspect := float64(u.Width) / float64(u.Height)
	bh := r.img.Rect.Dy()
	r.pool.run(bh, func(start, end int) {
		RenderRows(r.img, r.field, aspect, u.Time, start, end)
	})
	mid := time.Now()
	r.evaluate = mid.Sub(start)

	err := r.presenter.Present(r.img, u.Opacity)
	r.present = time.Since(mid)
	return err
}

// Timings returns how long the last Draw spent evaluating the field and
// presenting the result.
func (r *Raster) Timings() (evaluate, present time.Duration) {
	return r.evaluate, r.present
}

// Release implements Backend.
func (r *Raster) Release() {
	r.pool.stop()
}

// Image returns the backing store of the last frame.
func (r *Raster) Image() *image.RGBA {
	return r.img
}

// BackingSize returns the backing store size for a surface at scale,
// never smaller than 1x1.
func BackingSize(w, h int, scale float64) (int, int) {
	bw := int(math.Ceil(float64(w) * scale))
	bh := int(math.Ceil(float64(h) * scale))
	if bw < 1 {
		bw = 1
	}
	if bh < 1 {
		bh = 1
	}
	return bw, bh
}

// Render evaluates the whole field into dst at time t. aspect is the
// width/height ratio of the surface dst stands in for.
func Render(dst *image.RGBA, field *Field, aspect, t float64) {
	RenderRows(dst, field, aspect, t, 0, dst.Rect.Dy())
}

// RenderRows evaluates image rows [start, end) of dst. Row 0 is the top of
// the image and the bottom of the plume's coordinate space is the last row.
func RenderRows(dst *image.RGBA, field *Field, aspect, t float64, start, end int) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := start; y < end; y++ {
		off := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		for x := 0; x < w; x++ {
			fx, fy := FragCoord(x, y, h)
			st := Normalize(fx, fy, w, h)
			c := field.Shade(st, Correct(st, aspect), t)
			cr, cg, cb := c.RGB255()
			dst.Pix[off+0] = cr
			dst.Pix[off+1] = cg
			dst.Pix[off+2] = cb
			dst.Pix[off+3] = 0xff
			off += 4
		}
	}
}
