package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	rl "github.com/gen2brain/raylib-go/raylib"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/showfx/config"
	"github.com/pthm-cable/showfx/game"
	"github.com/pthm-cable/showfx/offscreen"
	"github.com/pthm-cable/showfx/smoke"
	"github.com/pthm-cable/showfx/stage"
	"github.com/pthm-cable/showfx/telemetry"
	"github.com/pthm-cable/showfx/term"
	"github.com/pthm-cable/showfx/web"
)

// host holds what every mode needs to mount the hero.
type host struct {
	opts   options
	cfg    *config.Config
	stage  *stage.Stage
	look   stage.Look
	field  *smoke.Field
	rec    *telemetry.Recorder
	logger *slog.Logger
}

// timingsFunc reports the evaluate and present split of the last frame.
type timingsFunc func() (evaluate, present time.Duration)

// observer converts plume frame stats into telemetry samples. Without
// timings the whole draw counts as evaluation.
func (h *host) observer(timings timingsFunc) func(smoke.FrameStats) {
	return func(fs smoke.FrameStats) {
		h.rec.Observe(sampleFrom(fs, timings))
	}
}

func sampleFrom(fs smoke.FrameStats, timings timingsFunc) telemetry.FrameSample {
	evaluate, present := fs.Draw, time.Duration(0)
	if timings != nil {
		evaluate, present = timings()
	}
	return telemetry.FrameSample{
		Frame:  fs.Frame,
		Time:   fs.Time,
		Width:  fs.Width,
		Height: fs.Height,
		Total:  fs.Resize + fs.Draw,
		Phases: map[string]time.Duration{
			telemetry.PhaseResize:   fs.Resize,
			telemetry.PhaseEvaluate: evaluate,
			telemetry.PhasePresent:  present,
		},
	}
}

// watchConfig reloads the config file on change and applies the plume
// opacity to effect. It returns a stop function.
func (h *host) watchConfig(ctx context.Context, effect func() *smoke.Effect) (func(), error) {
	if !h.opts.watch || h.opts.configPath == "" {
		return func() {}, nil
	}
	w, err := config.NewWatcher(h.opts.configPath, func(c *config.Config) {
		config.Set(c)
		if e := effect(); e != nil {
			e.SetOpacity(c.Smoke.Opacity)
		}
		h.logger.Info("config reloaded", "opacity", c.Smoke.Opacity)
	}, h.logger)
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w.Stop, nil
}

func (h *host) compositor(w, ht int) (*offscreen.Compositor, error) {
	var comp *offscreen.Compositor
	timings := func() (time.Duration, time.Duration) { return comp.Raster().Timings() }
	comp, err := offscreen.New(w, ht, h.stage, h.look, h.field,
		offscreen.WithLogger(h.logger),
		offscreen.WithOpacity(h.cfg.Smoke.Opacity),
		offscreen.WithRasterOptions(smoke.RasterOptions(h.cfg)...),
		offscreen.WithFrameObserver(h.observer(timings)),
	)
	if err != nil {
		return nil, err
	}
	return comp, nil
}

// runWindow opens the raylib window and runs the hero until it is closed,
// ctx is done or -max-frames is reached.
func (h *host) runWindow(ctx context.Context) error {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(h.cfg.Screen.Width), int32(h.cfg.Screen.Height), h.opts.title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(h.cfg.Screen.TargetFPS))

	var g *game.Game
	timings := func() (time.Duration, time.Duration) { return g.Timings() }
	g, err := game.New(h.stage, h.look, h.field, h.rec.Stats, game.Options{
		Title:         h.opts.title,
		Opacity:       h.cfg.Smoke.Opacity,
		GPU:           h.cfg.Raster.GPU,
		RasterOptions: smoke.RasterOptions(h.cfg),
		Logger:        h.logger,
		OnFrame:       h.observer(timings),
	})
	if err != nil {
		return err
	}
	defer g.Unload()
	h.logger.Info("window open", "backend", g.Backend())

	stopWatch, err := h.watchConfig(ctx, g.Effect)
	if err != nil {
		return err
	}
	defer stopWatch()

	for !rl.WindowShouldClose() {
		if ctx.Err() != nil {
			break
		}
		g.Update()
		g.Draw()
		if h.opts.maxFrames > 0 && g.Frames() >= uint64(h.opts.maxFrames) {
			h.logger.Info("max frames reached", "frames", g.Frames())
			break
		}
	}
	h.logger.Info("window closed", "frames", g.Frames(), "stats", h.rec.Stats())
	return nil
}

// runHeadless renders a PNG sequence without a display.
func (h *host) runHeadless(ctx context.Context) error {
	frames := h.cfg.Headless.Frames
	if h.opts.frames > 0 {
		frames = h.opts.frames
	}
	dir := h.cfg.Headless.Out
	if h.opts.out != "" {
		dir = h.opts.out
	}

	comp, err := h.compositor(h.cfg.Screen.Width, h.cfg.Screen.Height)
	if err != nil {
		return err
	}
	defer comp.Close()

	start := time.Now()
	paths, err := comp.Sequence(ctx, dir, frames, h.cfg.Headless.FPS)
	if err != nil {
		return fmt.Errorf("rendering sequence: %w", err)
	}
	h.logger.Info("headless run complete",
		"frames", len(paths),
		"elapsed", time.Since(start),
		"stats", h.rec.Stats(),
	)
	return nil
}

// runTerm shows the preview in the terminal until the user quits.
func (h *host) runTerm(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initialising terminal: %w", err)
	}
	defer screen.Fini()

	var preview *term.Preview
	timings := func() (time.Duration, time.Duration) { return preview.Raster().Timings() }
	fps := h.cfg.Screen.TargetFPS
	if fps <= 0 || fps > 30 {
		fps = 30
	}
	preview, err = term.NewPreview(screen, h.stage, h.look, h.field, h.cfg.Smoke.Opacity,
		term.WithFPS(fps),
		term.WithTitle(h.opts.title),
		term.WithLogger(h.logger),
		term.WithFrameObserver(h.observer(timings)),
	)
	if err != nil {
		return err
	}
	defer preview.Close()

	stopWatch, err := h.watchConfig(ctx, preview.Effect)
	if err != nil {
		return err
	}
	defer stopWatch()

	return preview.Run(ctx)
}

// runServe serves frames over HTTP while a ticker keeps the cached frame
// fresh.
func (h *host) runServe(ctx context.Context) error {
	comp, err := h.compositor(h.cfg.Server.Width, h.cfg.Server.Height)
	if err != nil {
		return err
	}
	defer comp.Close()

	addr := h.cfg.Server.Addr
	if h.opts.addr != "" {
		addr = h.opts.addr
	}
	srv := web.NewServer(addr, comp,
		web.WithLogger(h.logger),
		web.WithInterval(h.cfg.Derived.HeadlessStep),
		web.WithTimeouts(h.cfg.Derived.ReadTimeout, h.cfg.Derived.WriteTimeout),
	)

	stopWatch, err := h.watchConfig(ctx, comp.Effect)
	if err != nil {
		return err
	}
	defer stopWatch()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	return g.Wait()
}
