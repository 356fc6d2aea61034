package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"
	"strings"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/showfx/noise"
	"github.com/pthm-cable/showfx/smoke"
	"github.com/pthm-cable/showfx/stage"
)

func TestShaderDeclaresRequiredUniforms(t *testing.T) {
	for _, name := range requiredUniforms {
		if !strings.Contains(smokeFragment, " "+name+";") {
			t.Errorf("shader does not declare %s", name)
		}
	}
}

func TestShaderHasNoBuiltInConstants(t *testing.T) {
	if !strings.Contains(smokeFragment, fmt.Sprintf("#define MAX_OCTAVES %d", MaxOctaves)) {
		t.Errorf("shader loop bound differs from MaxOctaves %d", MaxOctaves)
	}
	for _, literal := range []string{"NUM_OCTAVES", "0.126", "vec2(1.7, 9.2)", "3.0 + st.y", "smoothstep(1.0, 0.4"} {
		if strings.Contains(smokeFragment, literal) {
			t.Errorf("shader hardcodes %q", literal)
		}
	}
}

func TestStaticUniforms(t *testing.T) {
	p := smoke.DefaultParams()
	p.QTime = 0.3
	p.ROffsetY = r2.Vec{X: 4, Y: 5}
	p.SpreadBase = 2
	p.FadeEnd = 0.25
	p.FBM = noise.NewFBM(noise.FBM{Octaves: 3, Amplitude: 0.5, Gain: 0.5, Lacunarity: 2, Shift: r2.Vec{X: 7, Y: 9}})

	got := staticUniforms(p)

	perFrame := map[string]bool{"u_resolution": true, "u_time": true, "u_opacity": true}
	for _, name := range requiredUniforms {
		if _, ok := got[name]; !ok && !perFrame[name] {
			t.Errorf("%s is never uploaded", name)
		}
	}
	for name, v := range got {
		if !slices.Contains(requiredUniforms, name) {
			t.Errorf("%s is uploaded but not looked up", name)
		}
		if len(v) < 1 || len(v) > 4 {
			t.Errorf("%s has %d components", name, len(v))
		}
	}

	want := map[string][]float32{
		"u_octaves":  {3},
		"u_shift":    {7, 9},
		"u_q":        {0.3, 1, 1},
		"u_r_offset": {1.7, 9.2, 4, 5},
		"u_shape":    {2, 1, 0.5, 0.05},
		"u_fade":     {1, 0.25},
	}
	for name, w := range want {
		if !slices.Equal(got[name], w) {
			t.Errorf("%s = %v, want %v", name, got[name], w)
		}
	}
}

func TestSupports(t *testing.T) {
	p := smoke.DefaultParams()
	if err := Supports(p); err != nil {
		t.Errorf("defaults: %v", err)
	}
	p.FBM = noise.NewFBM(noise.FBM{Octaves: MaxOctaves + 1})
	if err := Supports(p); !errors.Is(err, smoke.ErrCapabilityUnavailable) {
		t.Errorf("too many octaves: err = %v", err)
	}
	p.FBM = noise.NewFBM(noise.FBM{Octaves: 5, Basis: noise.NewSimplexBasis(0)})
	if err := Supports(p); !errors.Is(err, smoke.ErrCapabilityUnavailable) {
		t.Errorf("simplex: err = %v", err)
	}
}

func TestMultiplyTint(t *testing.T) {
	tests := []struct {
		opacity float64
		want    uint8
	}{
		{0, 0},
		{0.5, 128},
		{0.25, 64},
		{1, 255},
		{2, 255},
		{-1, 0},
	}
	for _, tt := range tests {
		got := MultiplyTint(tt.opacity)
		if got.R != tt.want || got.A != tt.want || got.R != got.G || got.G != got.B {
			t.Errorf("MultiplyTint(%g) = %v, want all channels %d", tt.opacity, got, tt.want)
		}
	}
}

func TestPixelsFromRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(2, 1, color.RGBA{R: 1, G: 2, B: 3, A: 4})
	img.SetRGBA(0, 0, color.RGBA{R: 9, A: 255})

	dst := make([]color.RGBA, 6)
	PixelsFromRGBA(dst, img)

	if dst[0] != (color.RGBA{R: 9, A: 255}) {
		t.Errorf("dst[0] = %v", dst[0])
	}
	if dst[5] != (color.RGBA{R: 1, G: 2, B: 3, A: 4}) {
		t.Errorf("dst[5] = %v", dst[5])
	}
}

func TestPixelsFromRGBA_SubImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(2, 2, color.RGBA{G: 200, A: 255})
	sub := img.SubImage(image.Rect(2, 2, 4, 4)).(*image.RGBA)

	dst := make([]color.RGBA, 4)
	PixelsFromRGBA(dst, sub)
	if dst[0] != (color.RGBA{G: 200, A: 255}) {
		t.Errorf("dst[0] = %v", dst[0])
	}
}

func TestCoverSource(t *testing.T) {
	tests := []struct {
		name string
		w, h int32
		box  stage.Box
		want rl.Rectangle
	}{
		{"square into square", 100, 100, stage.Box{W: 50, H: 50}, rl.Rectangle{Width: 100, Height: 100}},
		{"wide into square", 200, 100, stage.Box{W: 50, H: 50}, rl.Rectangle{X: 50, Width: 100, Height: 100}},
		{"tall into square", 100, 200, stage.Box{W: 50, H: 50}, rl.Rectangle{Y: 50, Width: 100, Height: 100}},
		{"empty box", 100, 200, stage.Box{}, rl.Rectangle{Width: 100, Height: 200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := coverSource(rl.Texture2D{Width: tt.w, Height: tt.h}, tt.box)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
