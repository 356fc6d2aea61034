package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gogpu/gg"
	"github.com/google/uuid"

	"github.com/pthm-cable/showfx/config"
	"github.com/pthm-cable/showfx/smoke"
	"github.com/pthm-cable/showfx/stage"
	"github.com/pthm-cable/showfx/telemetry"
)

// options are the command line settings shared by every mode.
type options struct {
	mode       string
	title      string
	watch      bool
	configPath string
	maxFrames  int
	frames     int
	out        string
	addr       string
	logFile    string
}

func main() {
	// CLI flags
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to config.yaml (empty = use defaults)")
	flag.StringVar(&opts.mode, "mode", "window", "Host: window, headless, term or serve")
	flag.StringVar(&opts.title, "title", "showfx", "Text shown in the ring interior")
	flag.BoolVar(&opts.watch, "watch", false, "Reload the config file when it changes")
	outputDir := flag.String("output-dir", "", "Output directory for CSV telemetry (overrides config)")
	flag.IntVar(&opts.maxFrames, "max-frames", 0, "Window: stop after N frames (0 = unlimited)")
	flag.IntVar(&opts.frames, "frames", 0, "Headless: frames to render (0 = use config)")
	flag.StringVar(&opts.out, "out", "", "Headless: PNG output directory (empty = use config)")
	flag.StringVar(&opts.addr, "addr", "", "Serve: listen address (empty = use config)")
	flag.StringVar(&opts.logFile, "log-file", "showfx-term.log", "Term: log file, the terminal is taken by the preview")
	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(opts.configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}

	logger, closeLog, err := newLogger(opts)
	if err != nil {
		slog.Error("failed to open log", "error", err)
		os.Exit(1)
	}
	defer closeLog()
	logger = logger.With("run", uuid.NewString())
	slog.SetDefault(logger)
	gg.SetLogger(logger)

	if err := run(opts, cfg, logger); err != nil {
		logger.Error("showfx failed", "mode", opts.mode, "error", err)
		closeLog()
		os.Exit(1)
	}
}

// newLogger returns the JSON logger for the mode. The terminal preview owns
// stdout, so it logs to a file instead.
func newLogger(opts options) (*slog.Logger, func(), error) {
	if opts.mode != "term" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil)), func() {}, nil
	}
	f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", opts.logFile, err)
	}
	return slog.New(slog.NewJSONHandler(f, nil)), func() { _ = f.Close() }, nil
}

func run(opts options, cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}
	rec := telemetry.NewRecorder(cfg.Telemetry.Window, out, logger, cfg.Telemetry.LogEvery, cfg.Telemetry.FlushEvery)

	s, err := stage.FromConfig(cfg)
	if err != nil {
		return err
	}

	h := &host{
		opts:   opts,
		cfg:    cfg,
		stage:  s,
		look:   stage.LookFromConfig(cfg),
		field:  smoke.FieldFromConfig(cfg),
		rec:    rec,
		logger: logger,
	}

	logger.Info("starting",
		"mode", opts.mode,
		"ring", fmt.Sprintf("%dx%d", cfg.Ring.Rows, cfg.Ring.Cols),
		"tiles", cfg.Derived.Tiles,
		"period", cfg.Derived.Period,
		"opacity", cfg.Smoke.Opacity,
	)

	switch opts.mode {
	case "window":
		return h.runWindow(ctx)
	case "headless":
		return h.runHeadless(ctx)
	case "term":
		return h.runTerm(ctx)
	case "serve":
		return h.runServe(ctx)
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}
}
