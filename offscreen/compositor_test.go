package offscreen

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/pthm-cable/showfx/components"
	"github.com/pthm-cable/showfx/perimeter"
	"github.com/pthm-cable/showfx/smoke"
	"github.com/pthm-cable/showfx/stage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStage(t *testing.T, assets []string) *stage.Stage {
	t.Helper()
	c, err := perimeter.New(perimeter.MustRing(6, 6), 20, 50*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	return stage.New(c, assets, nil)
}

func newTestCompositor(t *testing.T, s *stage.Stage, look stage.Look, opacity float64) *Compositor {
	t.Helper()
	c, err := New(160, 120, s, look, smoke.NewField(smoke.DefaultParams()),
		WithLogger(quietLogger()),
		WithOpacity(opacity),
		WithRasterOptions(smoke.WithScale(0.5), smoke.WithWorkers(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func near(a, b color.RGBA, tol int) bool {
	d := func(x, y uint8) bool {
		v := int(x) - int(y)
		return v <= tol && v >= -tol
	}
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B)
}

func tileCentre(b stage.Box) (int, int) {
	return int(b.X + b.W/2), int(b.Y + b.H/2)
}

func TestNew_InvalidSize(t *testing.T) {
	s := newTestStage(t, nil)
	if _, err := New(0, 10, s, stage.Look{}, smoke.NewField(smoke.DefaultParams())); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestRenderFrame_RingWithoutPlume(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestStage(t, nil)
	c := newTestCompositor(t, s, stage.Look{}, 0)
	defer c.Close()

	img, err := c.RenderFrame(0)
	if err != nil {
		t.Fatal(err)
	}
	if img.Rect.Dx() != 160 || img.Rect.Dy() != 120 {
		t.Fatalf("frame = %v, want 160x120", img.Rect)
	}
	if got := img.RGBAAt(0, 0); !near(got, color.RGBA{R: 255, G: 255, B: 255}, 1) {
		t.Errorf("page corner = %v, want white", got)
	}

	container := stage.Container(160, 120, ContainerFill)
	s.Each(func(tile components.Tile, slot components.Slot, _ bool) {
		x, y := tileCentre(s.TileBox(container, slot.Point, TileGap))
		if got := img.RGBAAt(x, y); !near(got, tile.Color, 2) {
			t.Errorf("tile %d centre = %v, want %v", tile.Index, got, tile.Color)
		}
	})
}

func TestRenderFrame_PlumeDarkens(t *testing.T) {
	defer goleak.VerifyNone(t)

	sum := func(opacity float64) int {
		c := newTestCompositor(t, newTestStage(t, nil), stage.Look{}, opacity)
		defer c.Close()
		img, err := c.RenderFrame(0)
		if err != nil {
			t.Fatal(err)
		}
		total := 0
		for i := 0; i < len(img.Pix); i += 4 {
			total += int(img.Pix[i]) + int(img.Pix[i+1]) + int(img.Pix[i+2])
		}
		return total
	}

	plain, inked := sum(0), sum(1)
	if inked >= plain {
		t.Errorf("plume did not darken the frame: %d >= %d", inked, plain)
	}
}

func TestRenderFrame_LookTonesIdleTiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestStage(t, nil)
	look := stage.Look{Grayscale: true}
	c := newTestCompositor(t, s, look, 0)
	defer c.Close()

	img, err := c.RenderFrame(0)
	if err != nil {
		t.Fatal(err)
	}
	container := stage.Container(160, 120, ContainerFill)
	s.Each(func(tile components.Tile, slot components.Slot, _ bool) {
		x, y := tileCentre(s.TileBox(container, slot.Point, TileGap))
		want := look.Apply(tile.Color, false)
		if got := img.RGBAAt(x, y); !near(got, want, 2) {
			t.Errorf("tile %d centre = %v, want %v", tile.Index, got, want)
		}
	})
}

func TestRenderFrame_MissingAssetDrawsPlaceholder(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := newTestStage(t, []string{filepath.Join(t.TempDir(), "missing.png")})
	c := newTestCompositor(t, s, stage.Look{}, 0)
	defer c.Close()

	img, err := c.RenderFrame(0)
	if err != nil {
		t.Fatal(err)
	}
	container := stage.Container(160, 120, ContainerFill)
	tile, slot, _ := s.Tile(0)
	x, y := tileCentre(s.TileBox(container, slot.Point, TileGap))
	if got := img.RGBAAt(x, y); !near(got, tile.Color, 2) {
		t.Errorf("placeholder = %v, want %v", got, tile.Color)
	}
}

func writePNG(t *testing.T, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	path := filepath.Join(t.TempDir(), "tile.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTileCache_Variants(t *testing.T) {
	red := color.RGBA{R: 200, G: 10, B: 10, A: 255}
	path := writePNG(t, red)
	look := stage.Look{Grayscale: true}
	tc := NewTileCache(look, quietLogger())

	hovered := tc.Get(path, true)
	idle := tc.Get(path, false)
	if hovered == nil || idle == nil {
		t.Fatal("asset did not load")
	}
	if r, g, b, _ := hovered.GetRGBA(1, 1); r != red.R || g != red.G || b != red.B {
		t.Errorf("hovered pixel = %d,%d,%d, want original colour", r, g, b)
	}
	want := look.Apply(red, false)
	if r, g, b, _ := idle.GetRGBA(1, 1); r != want.R || g != want.G || b != want.B {
		t.Errorf("idle pixel = %d,%d,%d, want %v", r, g, b, want)
	}
	if tc.Get(path, true) != hovered {
		t.Error("second lookup reloaded the asset")
	}
	if tc.Get("", true) != nil || tc.Get(filepath.Join(t.TempDir(), "nope.png"), false) != nil {
		t.Error("blank and missing assets should return nil")
	}
}

func TestCoverRect(t *testing.T) {
	tests := []struct {
		name   string
		bounds image.Rectangle
		aspect float64
		want   image.Rectangle
	}{
		{"same aspect", image.Rect(0, 0, 100, 100), 1, image.Rect(0, 0, 100, 100)},
		{"wide source", image.Rect(0, 0, 200, 100), 1, image.Rect(50, 0, 150, 100)},
		{"tall source", image.Rect(0, 0, 100, 200), 1, image.Rect(0, 50, 100, 150)},
		{"no aspect", image.Rect(0, 0, 30, 20), 0, image.Rect(0, 0, 30, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoverRect(tt.bounds, tt.aspect); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWritePNG(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := newTestCompositor(t, newTestStage(t, nil), stage.Look{}, 0.7)
	defer c.Close()

	var buf bytes.Buffer
	if err := c.WritePNG(&buf, time.Second); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding frame: %v", err)
	}
	if img.Bounds().Dx() != 160 || img.Bounds().Dy() != 120 {
		t.Errorf("decoded %v", img.Bounds())
	}
}

func TestResize(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := newTestCompositor(t, newTestStage(t, nil), stage.Look{}, 0.7)
	defer c.Close()

	if _, err := c.RenderFrame(0); err != nil {
		t.Fatal(err)
	}
	if err := c.Resize(80, 200); err != nil {
		t.Fatal(err)
	}
	img, err := c.RenderFrame(time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if img.Rect.Dx() != 80 || img.Rect.Dy() != 200 {
		t.Errorf("frame = %v, want 80x200", img.Rect)
	}
	if w, h := c.Size(); w != 80 || h != 200 {
		t.Errorf("Size = %dx%d", w, h)
	}
}

func TestSequence(t *testing.T) {
	defer goleak.VerifyNone(t)

	var frames []smoke.FrameStats
	c, err := New(64, 48, newTestStage(t, nil), stage.Look{}, smoke.NewField(smoke.DefaultParams()),
		WithLogger(quietLogger()),
		WithFrameObserver(func(fs smoke.FrameStats) { frames = append(frames, fs) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := c.Sequence(context.Background(), dir, 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 4 {
		t.Fatalf("wrote %d frames, want 4", len(paths))
	}
	if filepath.Base(paths[3]) != "frame_0003.png" {
		t.Errorf("last frame = %s", paths[3])
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Error(err)
		}
	}
	if len(frames) != 4 || frames[3].Time != 1.5 {
		t.Errorf("observed %d frames, last %+v", len(frames), frames)
	}
}

func TestRenderFrame_PlumeFollowsRequestedInstant(t *testing.T) {
	defer goleak.VerifyNone(t)

	var plume []float64
	s := newTestStage(t, nil)
	c, err := New(64, 48, s, stage.Look{}, smoke.NewField(smoke.DefaultParams()),
		WithLogger(quietLogger()),
		WithFrameObserver(func(fs smoke.FrameStats) { plume = append(plume, fs.Time) }),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	for i, at := range []time.Duration{10 * time.Second, 0, 30 * time.Second} {
		if _, err := c.RenderFrame(at); err != nil {
			t.Fatal(err)
		}
		if plume[i] != at.Seconds() {
			t.Errorf("t=%v: plume time = %g", at, plume[i])
		}
		if s.Elapsed() != at {
			t.Errorf("t=%v: ring elapsed = %v", at, s.Elapsed())
		}
	}
}

func TestSequence_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := newTestCompositor(t, newTestStage(t, nil), stage.Look{}, 0.7)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	paths, err := c.Sequence(ctx, t.TempDir(), 3, 30)
	if !errors.Is(err, context.Canceled) || len(paths) != 0 {
		t.Errorf("paths=%v err=%v", paths, err)
	}
}

func TestClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := newTestCompositor(t, newTestStage(t, nil), stage.Look{}, 0.7)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if c.Effect().State() != smoke.Cancelled {
		t.Errorf("effect state = %v, want cancelled", c.Effect().State())
	}
	if _, err := c.RenderFrame(0); !errors.Is(err, ErrClosed) {
		t.Errorf("RenderFrame after Close = %v, want ErrClosed", err)
	}
}
