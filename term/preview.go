// Package term previews the hero in a terminal. Every cell shows two
// pixels stacked with an upper half block, the top in the foreground colour
// and the bottom in the background colour.
package term

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/showfx/components"
	"github.com/pthm-cable/showfx/smoke"
	"github.com/pthm-cable/showfx/stage"
)

// Ring layout in terminal pixels.
const (
	ContainerFill = 0.9
	TileGap       = 0.5
)

const upperHalf = '▀'

var (
	colorPage  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorPanel = color.RGBA{R: 250, G: 250, B: 250, A: 255}
)

// pixelSurface exposes the screen as a grid of half-block pixels.
type pixelSurface struct {
	screen tcell.Screen
}

func (s pixelSurface) Size() (int, int) {
	w, h := s.screen.Size()
	// the last row holds the status line
	if h > 1 {
		h--
	}
	return w, 2 * h
}

// Preview draws the ring and the plume onto a tcell screen.
type Preview struct {
	screen tcell.Screen
	stage  *stage.Stage
	look   stage.Look
	title  string
	fps    int
	logger *slog.Logger
	onDraw func(smoke.FrameStats)

	surface pixelSurface
	sched   *smoke.ManualScheduler
	effect  *smoke.Effect
	raster  *smoke.Raster
	canvas  *image.RGBA
	frames  uint64
}

// Option configures a Preview.
type Option func(*Preview)

// WithFPS sets the refresh rate of Run.
func WithFPS(fps int) Option {
	return func(p *Preview) {
		if fps > 0 {
			p.fps = fps
		}
	}
}

// WithTitle sets the status line title.
func WithTitle(title string) Option {
	return func(p *Preview) { p.title = title }
}

// WithLogger sets the preview logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Preview) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithFrameObserver receives the plume frame stats.
func WithFrameObserver(fn func(smoke.FrameStats)) Option {
	return func(p *Preview) { p.onDraw = fn }
}

// NewPreview mounts the plume of field on screen. The screen must already
// be initialised; Close unmounts the plume but leaves the screen to the
// caller.
func NewPreview(screen tcell.Screen, s *stage.Stage, look stage.Look, field *smoke.Field, opacity float64, opts ...Option) (*Preview, error) {
	p := &Preview{
		screen:  screen,
		stage:   s,
		look:    look,
		title:   "showfx",
		fps:     30,
		logger:  slog.Default(),
		surface: pixelSurface{screen: screen},
		sched:   smoke.NewManualScheduler(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.raster = smoke.NewRaster(field, smoke.PresenterFunc(p.present), smoke.WithScale(1), smoke.WithWorkers(2))
	effectOpts := []smoke.Option{smoke.WithOpacity(opacity), smoke.WithLogger(p.logger)}
	if p.onDraw != nil {
		effectOpts = append(effectOpts, smoke.WithFrameObserver(p.onDraw))
	}
	p.effect = smoke.NewEffect(p.raster, effectOpts...)
	if err := p.effect.Mount(p.surface, p.sched); err != nil {
		return nil, fmt.Errorf("mounting plume: %w", err)
	}
	return p, nil
}

func (p *Preview) present(img *image.RGBA, opacity float64) error {
	smoke.Composite(p.canvas, img, opacity)
	return nil
}

// Effect returns the plume effect.
func (p *Preview) Effect() *smoke.Effect { return p.effect }

// Raster returns the plume backend.
func (p *Preview) Raster() *smoke.Raster { return p.raster }

// Frames returns how many frames have been drawn.
func (p *Preview) Frames() uint64 { return p.frames }

// Step draws the frame at elapsed time t and shows it.
func (p *Preview) Step(t time.Duration) {
	w, h := p.surface.Size()
	if w <= 0 || h <= 0 {
		return
	}
	if p.canvas == nil || p.canvas.Rect.Dx() != w || p.canvas.Rect.Dy() != h {
		p.canvas = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	p.stage.Update(t)
	p.drawRing(w, h)
	p.sched.Pump(t)
	p.blit(w, h)
	p.drawStatus(t)
	p.screen.Show()
	p.frames++
}

func (p *Preview) drawRing(w, h int) {
	draw.Draw(p.canvas, p.canvas.Rect, image.NewUniform(colorPage), image.Point{}, draw.Src)

	container := stage.Container(float64(w), float64(h), ContainerFill)
	fill := func(b stage.Box, c color.RGBA) {
		r := image.Rect(int(b.X+0.5), int(b.Y+0.5), int(b.X+b.W+0.5), int(b.Y+b.H+0.5))
		draw.Draw(p.canvas, r, image.NewUniform(c), image.Point{}, draw.Src)
	}

	fill(p.stage.InteriorBox(container, TileGap), colorPanel)
	p.stage.Each(func(tile components.Tile, slot components.Slot, hovered bool) {
		fill(p.stage.TileBox(container, slot.Point, TileGap), p.look.Apply(tile.Color, hovered))
	})
}

func (p *Preview) blit(w, h int) {
	for y := 0; y < h/2; y++ {
		for x := 0; x < w; x++ {
			top := p.canvas.RGBAAt(x, 2*y)
			bottom := p.canvas.RGBAAt(x, 2*y+1)
			style := tcell.StyleDefault.Foreground(rgb(top)).Background(rgb(bottom))
			p.screen.SetContent(x, y, upperHalf, nil, style)
		}
	}
}

func (p *Preview) drawStatus(t time.Duration) {
	w, h := p.screen.Size()
	if h < 2 {
		return
	}
	line := fmt.Sprintf(" %s  t=%.1fs  phase=%.3f  plume=%s  q quits", p.title, t.Seconds(), p.stage.Phase(), p.effect.State())
	if p.effect.Degraded() {
		line += "  (plume disabled)"
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	runes := []rune(line)
	for x := 0; x < w; x++ {
		r := ' '
		if x < len(runes) {
			r = runes[x]
		}
		p.screen.SetContent(x, h-1, r, nil, style)
	}
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// HandleEvent reacts to one screen event and reports whether the preview
// should keep running.
func (p *Preview) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q'):
			return false
		}
	case *tcell.EventResize:
		// the surface reads the new size on the next frame
		p.screen.Sync()
	}
	return true
}

// Run refreshes the preview until ctx is done or the user quits.
func (p *Preview) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := p.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(p.fps))
	defer ticker.Stop()

	start := time.Now()
	p.Step(0)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !p.HandleEvent(ev) {
				return nil
			}
		case <-ticker.C:
			p.Step(time.Since(start))
		}
	}
}

// Close unmounts the plume.
func (p *Preview) Close() {
	p.effect.Unmount()
}
