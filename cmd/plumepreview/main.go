// Plume preview tool - interactive tuning of the ink plume with sliders.
//
// Usage: go run ./cmd/plumepreview [-config showfx.yaml]
package main

import (
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
	gui "github.com/gen2brain/raylib-go/raygui"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/showfx/config"
	"github.com/pthm-cable/showfx/renderer"
	"github.com/pthm-cable/showfx/smoke"
)

const (
	windowWidth   = 1100
	windowHeight  = 720
	previewWidth  = 640
	previewHeight = 360
	backingWidth  = 256
	backingHeight = 144
	panelWidth    = windowWidth - previewWidth - 30
)

// panel lays out labelled sliders top to bottom.
type panel struct {
	x, y    float32
	changed bool
}

func (p *panel) slider(label string, v *float64, lo, hi float64, format string) {
	rl.DrawText(label, int32(p.x), int32(p.y), 14, rl.Gray)
	p.y += 18
	nv := gui.SliderBar(
		rl.Rectangle{X: p.x, Y: p.y, Width: float32(panelWidth - 80), Height: 20},
		"", "",
		float32(*v), float32(lo), float32(hi),
	)
	rl.DrawText(fmt.Sprintf(format, *v), int32(p.x+float32(panelWidth-70)), int32(p.y+2), 16, rl.DarkGray)
	if float64(nv) != float64(float32(*v)) {
		*v = float64(nv)
		p.changed = true
	}
	p.y += 30
}

func main() {
	configPath := flag.String("config", "", "Path to config file (uses embedded defaults if empty)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}
	initial := cfg.Smoke
	sc := initial

	rl.InitWindow(windowWidth, windowHeight, "Plume Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	presenter := renderer.NewTexturePresenter()
	presenter.SetDest(rl.Rectangle{X: 10, Y: 10, Width: previewWidth, Height: previewHeight})
	defer presenter.Unload()

	img := image.NewRGBA(image.Rect(0, 0, backingWidth, backingHeight))
	field := smoke.NewField(smoke.ParamsFromConfig(sc))

	var t float64
	animating := true

	for !rl.WindowShouldClose() {
		if animating {
			t += float64(rl.GetFrameTime())
		}
		smoke.Render(img, field, float64(previewWidth)/float64(previewHeight), t)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// The plume multiplies onto a white page like the hero
		rl.DrawRectangle(10, 10, previewWidth, previewHeight, rl.White)
		if err := presenter.Present(img, sc.Opacity); err != nil {
			logger.Warn("presenting plume", "error", err)
		}
		rl.DrawRectangleLines(10, 10, previewWidth, previewHeight, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("t: %.1fs  basis: %s", t, basisName(sc.Basis)), 15, previewHeight+25, 16, rl.DarkGray)

		p := &panel{x: float32(previewWidth + 20), y: 10}
		rl.DrawText("Plume Parameters", int32(p.x), int32(p.y), 20, rl.DarkGray)
		p.y += 35

		p.slider("Opacity", &sc.Opacity, 0, 1, "%.2f")
		p.slider("Drift (upward speed)", &sc.Drift, 0, 0.3, "%.3f")
		p.slider("Turbulence (edge wisps)", &sc.Turbulence, 0, 2, "%.2f")
		p.slider("Mask edge", &sc.MaskEdge, 0.5, 3, "%.2f")
		p.slider("Density low", &sc.DensityLow, 0, 1, "%.2f")
		p.slider("Density high", &sc.DensityHigh, 0, 1, "%.2f")
		p.slider("Ink strength", &sc.InkStrength, 0, 1, "%.2f")
		p.slider("FBM gain", &sc.FBM.Gain, 0.2, 0.9, "%.2f")
		p.slider("FBM lacunarity", &sc.FBM.Lacunarity, 1.5, 4, "%.2f")
		p.slider("FBM rotation (rad)", &sc.FBM.Rotation, 0, 1.5, "%.2f")

		octaves := float64(sc.FBM.Octaves)
		p.slider("FBM octaves", &octaves, 1, 8, "%.0f")
		sc.FBM.Octaves = int(octaves + 0.5)

		p.y += 10
		if gui.Button(rl.Rectangle{X: p.x, Y: p.y, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
		}
		if gui.Button(rl.Rectangle{X: p.x + 130, Y: p.y, Width: 120, Height: 30}, "Reset Time") {
			t = 0
		}
		if gui.Button(rl.Rectangle{X: p.x + 260, Y: p.y, Width: 120, Height: 30}, "Basis: "+basisName(sc.Basis)) {
			sc.Basis = nextBasis(sc.Basis)
			p.changed = true
		}
		p.y += 40
		if gui.Button(rl.Rectangle{X: p.x, Y: p.y, Width: 120, Height: 30}, "Reset All") {
			sc = initial
			p.changed = true
		}
		p.y += 45

		if p.changed {
			field = smoke.NewField(smoke.ParamsFromConfig(sc))
		}

		snippet, err := smokeYAML(sc)
		if err != nil {
			logger.Warn("encoding yaml", "error", err)
		}
		rl.DrawText("YAML Config:", 15, previewHeight+55, 16, rl.DarkGray)
		y := int32(previewHeight + 80)
		for _, line := range strings.Split(snippet, "\n") {
			if y > windowHeight-40 {
				break
			}
			rl.DrawText(line, 15, y, 12, rl.Gray)
			y += 14
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(p.x), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(snippet)
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

func basisName(b string) string {
	if b == "" {
		return "value"
	}
	return b
}

func nextBasis(b string) string {
	if basisName(b) == "value" {
		return "simplex"
	}
	return "value"
}

// smokeYAML renders sc as the smoke section of a config file.
func smokeYAML(sc config.SmokeConfig) (string, error) {
	data, err := yaml.Marshal(struct {
		Smoke config.SmokeConfig `yaml:"smoke"`
	}{sc})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}
