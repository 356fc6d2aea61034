// Shader debug tool - renders the plume shader and the CPU raster at the
// same instant, saves both as PNG and reports how far they differ.
//
// Usage: go run ./cmd/shaderdebug -t 12.5 -out plume
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/gogpu/gg"

	"github.com/pthm-cable/showfx/config"
	"github.com/pthm-cable/showfx/renderer"
	"github.com/pthm-cable/showfx/smoke"
)

// DiffStats summarises the per-channel difference of two frames.
type DiffStats struct {
	Mean float64 // mean absolute difference, 0-255
	Max  uint8
	Over int // pixels with any channel off by more than the tolerance
}

// Diff compares a and b channel by channel. Both must have the same size.
func Diff(a, b *image.RGBA, tolerance uint8) (DiffStats, error) {
	if a.Rect.Size() != b.Rect.Size() {
		return DiffStats{}, fmt.Errorf("size mismatch: %v vs %v", a.Rect.Size(), b.Rect.Size())
	}
	var d DiffStats
	var sum float64
	w, h := a.Rect.Dx(), a.Rect.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ca, cb := a.RGBAAt(a.Rect.Min.X+x, a.Rect.Min.Y+y), b.RGBAAt(b.Rect.Min.X+x, b.Rect.Min.Y+y)
			over := false
			for _, delta := range []uint8{absDiff(ca.R, cb.R), absDiff(ca.G, cb.G), absDiff(ca.B, cb.B)} {
				sum += float64(delta)
				if delta > d.Max {
					d.Max = delta
				}
				if delta > tolerance {
					over = true
				}
			}
			if over {
				d.Over++
			}
		}
	}
	if n := w * h * 3; n > 0 {
		d.Mean = sum / float64(n)
	}
	return d, nil
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

// toRGBA copies raylib pixels into an image.
func toRGBA(pixels []color.RGBA, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, c := range pixels {
		img.SetRGBA(i%w, i/w, c)
	}
	return img
}

func savePNG(img image.Image, path string) error {
	dc := gg.NewContextForImage(img)
	defer dc.Close()
	return dc.SavePNG(path)
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outPrefix := flag.String("out", "plume", "Output prefix; writes <out>_gpu.png and <out>_cpu.png")
	width := flag.Int("width", 512, "Render width")
	height := flag.Int("height", 288, "Render height")
	at := flag.Float64("t", 0, "Plume time in seconds")
	tolerance := flag.Int("tolerance", 8, "Per-channel difference counted as a mismatch")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	params := smoke.ParamsFromConfig(config.Cfg().Smoke)
	w, h := *width, *height

	// Initialize raylib with hidden window
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(int32(w), int32(h), "Shader Debug")
	defer rl.CloseWindow()

	backend := renderer.NewShaderBackend(params)
	if err := backend.Init(); err != nil {
		slog.Error("plume shader unavailable", "error", err)
		os.Exit(1)
	}
	defer backend.Release()
	backend.Resize(w, h)

	// Multiplying over white leaves the plume colour itself
	target := rl.LoadRenderTexture(int32(w), int32(h))
	defer rl.UnloadRenderTexture(target)
	rl.BeginTextureMode(target)
	rl.ClearBackground(rl.White)
	if err := backend.Draw(smoke.Uniforms{Width: w, Height: h, Time: *at, Opacity: 1}); err != nil {
		rl.EndTextureMode()
		slog.Error("shader draw failed", "error", err)
		os.Exit(1)
	}
	rl.EndTextureMode()

	// Get image from texture and flip it (OpenGL convention)
	rlImg := rl.LoadImageFromTexture(target.Texture)
	rl.ImageFlipVertical(rlImg)
	colors := rl.LoadImageColors(rlImg)
	gpu := toRGBA(colors, w, h)
	rl.UnloadImageColors(colors)
	rl.UnloadImage(rlImg)

	cpu := image.NewRGBA(image.Rect(0, 0, w, h))
	smoke.Render(cpu, smoke.NewField(params), float64(w)/float64(h), *at)

	for path, img := range map[string]image.Image{*outPrefix + "_gpu.png": gpu, *outPrefix + "_cpu.png": cpu} {
		if err := savePNG(img, path); err != nil {
			slog.Error("failed to write png", "path", path, "error", err)
			os.Exit(1)
		}
	}

	d, err := Diff(gpu, cpu, uint8(*tolerance))
	if err != nil {
		slog.Error("compare failed", "error", err)
		os.Exit(1)
	}
	slog.Info("plume compared",
		"t", *at,
		"size", fmt.Sprintf("%dx%d", w, h),
		"mean_diff", d.Mean,
		"max_diff", d.Max,
		"mismatched_pixels", d.Over,
	)
}
