// Package offscreen renders hero frames without a display, drawing the
// ring and the multiplied plume with gogpu/gg.
package offscreen

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"github.com/pthm-cable/showfx/components"
	"github.com/pthm-cable/showfx/smoke"
	"github.com/pthm-cable/showfx/stage"
)

// Layout of the ring inside the frame.
const (
	ContainerFill = 0.9
	TileGap       = 4
	TileRadius    = 6
)

// ErrClosed is returned when rendering after Close.
var ErrClosed = errors.New("offscreen: compositor closed")

// Compositor draws hero frames into a gg context. The plume runs as a
// smoke.Effect on a CPU raster whose frames are multiplied into the
// context. Frames may be requested in any order. It is safe for concurrent
// use.
type Compositor struct {
	mu     sync.Mutex
	dc     *gg.Context
	stage  *stage.Stage
	look   stage.Look
	tiles  *TileCache
	logger *slog.Logger

	surface *smoke.FixedSurface
	sched   *smoke.ManualScheduler // mount target, frames are drawn with DrawAt
	effect  *smoke.Effect
	raster  *smoke.Raster
	closed  bool
}

// Option configures a Compositor.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	observer  func(smoke.FrameStats)
	rasterOpt []smoke.RasterOption
	opacity   float64
}

// WithLogger sets the logger for the compositor and its effect.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithFrameObserver receives the plume frame stats.
func WithFrameObserver(fn func(smoke.FrameStats)) Option {
	return func(o *options) { o.observer = fn }
}

// WithRasterOptions configures the plume raster.
func WithRasterOptions(opts ...smoke.RasterOption) Option {
	return func(o *options) { o.rasterOpt = append(o.rasterOpt, opts...) }
}

// WithOpacity sets the plume opacity.
func WithOpacity(op float64) Option {
	return func(o *options) { o.opacity = op }
}

// New creates a w x h compositor for s with the plume of field.
func New(w, h int, s *stage.Stage, look stage.Look, field *smoke.Field, opts ...Option) (*Compositor, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("offscreen: invalid size %dx%d", w, h)
	}
	o := options{logger: slog.Default(), opacity: 0.7}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Compositor{
		dc:      gg.NewContext(w, h),
		stage:   s,
		look:    look,
		tiles:   NewTileCache(look, o.logger),
		logger:  o.logger,
		surface: &smoke.FixedSurface{W: w, H: h},
		sched:   smoke.NewManualScheduler(),
	}

	c.raster = smoke.NewRaster(field, smoke.PresenterFunc(c.present), o.rasterOpt...)
	effectOpts := []smoke.Option{smoke.WithOpacity(o.opacity), smoke.WithLogger(o.logger)}
	if o.observer != nil {
		effectOpts = append(effectOpts, smoke.WithFrameObserver(o.observer))
	}
	c.effect = smoke.NewEffect(c.raster, effectOpts...)
	if err := c.effect.Mount(c.surface, c.sched); err != nil {
		return nil, fmt.Errorf("mounting plume: %w", err)
	}
	return c, nil
}

// present multiplies a finished plume frame over the context. It runs
// inside RenderFrame, which holds c.mu.
func (c *Compositor) present(img *image.RGBA, opacity float64) error {
	// gg treats a zero opacity as opaque
	if opacity <= 0 {
		return nil
	}
	c.dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		DstWidth:      float64(c.dc.Width()),
		DstHeight:     float64(c.dc.Height()),
		Interpolation: gg.InterpBilinear,
		Opacity:       opacity,
		BlendMode:     gg.BlendMultiply,
	})
	return nil
}

// Resize changes the frame size; the plume picks it up on the next frame.
func (c *Compositor) Resize(w, h int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dc.Resize(w, h); err != nil {
		return fmt.Errorf("resizing frame: %w", err)
	}
	c.surface.W, c.surface.H = w, h
	return nil
}

// Size returns the frame size.
func (c *Compositor) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dc.Width(), c.dc.Height()
}

// RenderFrame draws the hero at elapsed time t and returns a copy of the
// frame. Ring and plume are both drawn at t.
func (c *Compositor) RenderFrame(t time.Duration) (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.draw(t); err != nil {
		return nil, err
	}
	return c.image(), nil
}

// WritePNG draws the hero at t and encodes it as PNG.
func (c *Compositor) WritePNG(w io.Writer, t time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.draw(t); err != nil {
		return err
	}
	if err := c.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	return nil
}

// SavePNG draws the hero at t into a PNG file.
func (c *Compositor) SavePNG(path string, t time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.draw(t); err != nil {
		return err
	}
	if err := c.dc.SavePNG(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// Snapshot returns the ring state of the last rendered frame.
func (c *Compositor) Snapshot() stage.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage.Snapshot()
}

// Effect returns the plume effect.
func (c *Compositor) Effect() *smoke.Effect { return c.effect }

// Raster returns the plume backend.
func (c *Compositor) Raster() *smoke.Raster { return c.raster }

// draw renders one frame. Caller holds c.mu.
func (c *Compositor) draw(t time.Duration) error {
	if c.closed {
		return ErrClosed
	}
	c.stage.Update(t)

	c.dc.ClearWithColor(gg.White)
	w, h := float64(c.dc.Width()), float64(c.dc.Height())
	container := stage.Container(w, h, ContainerFill)

	c.drawPanel(c.stage.InteriorBox(container, TileGap))
	var drawErr error
	c.stage.Each(func(tile components.Tile, slot components.Slot, hovered bool) {
		box := c.stage.TileBox(container, slot.Point, TileGap)
		if err := c.drawTile(tile, box, hovered); err != nil && drawErr == nil {
			drawErr = err
		}
	})
	if drawErr != nil {
		return drawErr
	}

	// The plume shares the ring's clock, so every frame is an explicit instant
	c.effect.DrawAt(t)
	return nil
}

func (c *Compositor) drawPanel(b stage.Box) {
	c.dc.SetColor(color.RGBA{R: 250, G: 250, B: 250, A: 255})
	c.dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, TileRadius)
	_ = c.dc.Fill()
	c.dc.SetColor(color.RGBA{R: 220, G: 220, B: 225, A: 255})
	c.dc.SetLineWidth(1)
	c.dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, TileRadius)
	_ = c.dc.Stroke()
}

func (c *Compositor) drawTile(tile components.Tile, b stage.Box, hovered bool) error {
	img := c.tiles.Get(tile.Asset, hovered)
	if img == nil {
		c.dc.SetColor(c.look.Apply(tile.Color, hovered))
		c.dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, TileRadius)
		if err := c.dc.Fill(); err != nil {
			return fmt.Errorf("filling tile %d: %w", tile.Index, err)
		}
		return nil
	}

	iw, ih := img.Bounds()
	src := CoverRect(image.Rect(0, 0, iw, ih), b.W/b.H)
	c.dc.DrawImageEx(img, gg.DrawImageOptions{
		X:         b.X,
		Y:         b.Y,
		DstWidth:  b.W,
		DstHeight: b.H,
		SrcRect:   &src,
		Opacity:   1,
		BlendMode: gg.BlendNormal,
	})
	return nil
}

// image copies the current frame. Caller holds c.mu.
func (c *Compositor) image() *image.RGBA {
	img := c.dc.Image()
	out := image.NewRGBA(img.Bounds())
	draw.Copy(out, out.Bounds().Min, img, img.Bounds(), draw.Src, nil)
	return out
}

// Close unmounts the plume and releases the context.
func (c *Compositor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.effect.Unmount()
	return c.dc.Close()
}

// CoverRect returns the centred part of bounds with the given aspect
// (width / height), like CSS object-fit: cover.
func CoverRect(bounds image.Rectangle, aspect float64) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 || aspect <= 0 {
		return bounds
	}
	if float64(w)/float64(h) > aspect {
		cw := int(float64(h)*aspect + 0.5)
		x := bounds.Min.X + (w-cw)/2
		return image.Rect(x, bounds.Min.Y, x+cw, bounds.Max.Y)
	}
	ch := int(float64(w)/aspect + 0.5)
	y := bounds.Min.Y + (h-ch)/2
	return image.Rect(bounds.Min.X, y, bounds.Max.X, y+ch)
}

// Sequence renders frames PNG files into dir at fps, named frame_0000.png
// onwards, and returns their paths.
func (c *Compositor) Sequence(ctx context.Context, dir string, frames int, fps float64) ([]string, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("offscreen: invalid frame rate %g", fps)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	paths := make([]string, 0, frames)
	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		t := time.Duration(float64(i) / fps * float64(time.Second))
		path := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", i))
		if err := c.SavePNG(path, t); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	c.logger.Info("sequence written", "dir", dir, "frames", len(paths), "fps", fps)
	return paths, nil
}
