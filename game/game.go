// Package game runs the hero section in a raylib window: the tile ring, the
// plume on top of it and the debug overlays.
package game

import (
	"fmt"
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/showfx/inspector"
	"github.com/pthm-cable/showfx/renderer"
	"github.com/pthm-cable/showfx/smoke"
	"github.com/pthm-cable/showfx/stage"
	"github.com/pthm-cable/showfx/telemetry"
	"github.com/pthm-cable/showfx/ui"
)

// Plume backend names shown in the HUD.
const (
	BackendShader = "shader"
	BackendRaster = "raster"
)

// OpacityStep is the change per Up/Down key press.
const OpacityStep = 0.05

// Options configure a Game.
type Options struct {
	Title   string
	Opacity float64
	// GPU prefers the shader backend. Fields it cannot draw use the raster.
	GPU           bool
	RasterOptions []smoke.RasterOption
	Logger        *slog.Logger
	// OnFrame receives the plume frame stats.
	OnFrame func(smoke.FrameStats)
}

// Game holds the window state.
type Game struct {
	stage  *stage.Stage
	field  *smoke.Field
	logger *slog.Logger
	opts   Options

	// Plume
	sched     *renderer.WindowScheduler
	effect    *smoke.Effect
	raster    *smoke.Raster
	presenter *renderer.TexturePresenter
	backend   string
	lastDraw  time.Duration

	// Rendering
	ring      *renderer.RingRenderer
	inspector *inspector.Inspector
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	stats     StatsFunc

	// State
	clock    time.Duration
	frames   uint64
	paused   bool
	showHUD  bool
	showPerf bool
	hovered  int

	screenWidth, screenHeight int32
}

// StatsFunc returns the frame timing summary for the perf panel.
type StatsFunc func() telemetry.FrameStats

// New creates the window host. The raylib window must already be open.
func New(s *stage.Stage, look stage.Look, field *smoke.Field, stats StatsFunc, opts Options) (*Game, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	g := &Game{
		stage:        s,
		field:        field,
		logger:       opts.Logger,
		opts:         opts,
		sched:        renderer.NewWindowScheduler(),
		ring:         renderer.NewRingRenderer(s, look, opts.Title, opts.Logger),
		inspector:    inspector.NewInspector(w),
		hud:          ui.NewHUD(),
		perfPanel:    ui.NewPerfPanel(5, 95),
		stats:        stats,
		showHUD:      true,
		hovered:      -1,
		screenWidth:  w,
		screenHeight: h,
	}
	if err := g.mountPlume(); err != nil {
		g.ring.Unload()
		return nil, err
	}
	return g, nil
}

// mountPlume mounts the shader backend when asked for and available, and
// the raster backend otherwise.
func (g *Game) mountPlume() error {
	if g.opts.GPU && ShaderSupports(g.field.Params()) {
		g.effect = g.newEffect(renderer.NewShaderBackend(g.field.Params()))
		if err := g.effect.Mount(renderer.WindowSurface{}, g.sched); err != nil {
			return fmt.Errorf("mounting plume shader: %w", err)
		}
		if !g.effect.Degraded() {
			g.backend = BackendShader
			return nil
		}
		g.logger.Warn("plume shader unavailable, using raster")
		g.effect.Unmount()
		g.sched = renderer.NewWindowScheduler()
	}

	g.presenter = renderer.NewTexturePresenter()
	g.raster = smoke.NewRaster(g.field, g.presenter, g.opts.RasterOptions...)
	g.effect = g.newEffect(g.raster)
	if err := g.effect.Mount(renderer.WindowSurface{}, g.sched); err != nil {
		return fmt.Errorf("mounting plume raster: %w", err)
	}
	g.backend = BackendRaster
	return nil
}

func (g *Game) newEffect(b smoke.Backend) *smoke.Effect {
	return smoke.NewEffect(b,
		smoke.WithOpacity(g.opts.Opacity),
		smoke.WithLogger(g.logger),
		smoke.WithFrameObserver(func(fs smoke.FrameStats) {
			g.lastDraw = fs.Draw
			if g.opts.OnFrame != nil {
				g.opts.OnFrame(fs)
			}
		}),
	)
}

// ShaderSupports reports whether the plume shader can draw p.
func ShaderSupports(p smoke.Params) bool {
	return renderer.Supports(p) == nil
}

// Update advances the ring clock and handles input.
func (g *Game) Update() {
	g.handleInput()
	if !g.paused {
		g.clock += time.Duration(float64(rl.GetFrameTime()) * float64(time.Second))
	}
	g.stage.Update(g.clock)
}

// Effect returns the plume effect.
func (g *Game) Effect() *smoke.Effect { return g.effect }

// Backend returns the name of the mounted plume backend.
func (g *Game) Backend() string { return g.backend }

// Frames returns how many frames have been drawn.
func (g *Game) Frames() uint64 { return g.frames }

// Timings returns the evaluate and present split of the last plume frame.
// The shader does both in one pass, so it reports all of it as evaluation.
func (g *Game) Timings() (evaluate, present time.Duration) {
	if g.raster != nil {
		return g.raster.Timings()
	}
	return g.lastDraw, 0
}

// Unload releases the plume and every GPU resource.
func (g *Game) Unload() {
	g.effect.Unmount()
	if g.presenter != nil {
		g.presenter.Unload()
	}
	g.ring.Unload()
}
