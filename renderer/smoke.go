// Package renderer draws the hero section in a raylib window: the plume,
// either as a fragment shader or as an uploaded CPU frame, and the tile ring.
package renderer

import (
	_ "embed"
	"fmt"
	"image"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/showfx/config"
	"github.com/pthm-cable/showfx/noise"
	"github.com/pthm-cable/showfx/smoke"
)

//go:embed shaders/smoke.fs
var smokeFragment string

// MaxOctaves is the MAX_OCTAVES loop bound of the plume shader.
const MaxOctaves = config.MaxOctaves

// Uniforms every build of the plume shader must expose.
var requiredUniforms = []string{
	"u_resolution", "u_time", "u_opacity",
	"u_drift", "u_turbulence", "u_mask_edge", "u_density", "u_ink",
	"u_fbm", "u_shift", "u_octaves",
	"u_q", "u_r_offset", "u_r_time", "u_shape", "u_fade",
	"u_deep", "u_light", "u_accent", "u_background",
}

// ShaderBackend evaluates the plume on the GPU and multiplies it over the
// current frame. Every Params constant is uploaded, so it draws what the CPU
// raster draws. The shader implements the value-noise basis only.
type ShaderBackend struct {
	params smoke.Params
	shader rl.Shader
	locs   map[string]int32

	width, height int
	initialized   bool
}

// NewShaderBackend creates a GPU backend for params.
func NewShaderBackend(params smoke.Params) *ShaderBackend {
	return &ShaderBackend{params: params}
}

// Init implements smoke.Backend. It needs an open window.
func (b *ShaderBackend) Init() error {
	if b.initialized {
		return nil
	}
	if err := Supports(b.params); err != nil {
		return err
	}
	if !rl.IsWindowReady() {
		return fmt.Errorf("%w: no window", smoke.ErrCapabilityUnavailable)
	}

	b.shader = rl.LoadShaderFromMemory("", smokeFragment)
	if !rl.IsShaderValid(b.shader) {
		return fmt.Errorf("%w: plume shader", smoke.ErrCompileFailure)
	}

	b.locs = make(map[string]int32, len(requiredUniforms))
	for _, name := range requiredUniforms {
		loc := rl.GetShaderLocation(b.shader, name)
		if loc < 0 {
			rl.UnloadShader(b.shader)
			return fmt.Errorf("%w: uniform %s not found", smoke.ErrCompileFailure, name)
		}
		b.locs[name] = loc
	}

	b.setStatic()
	b.initialized = true
	return nil
}

// Supports reports whether the shader can draw p: value noise and at most
// MaxOctaves octaves.
func Supports(p smoke.Params) error {
	if p.FBM == nil {
		return nil
	}
	if _, ok := p.FBM.Basis.(noise.ValueBasis); !ok {
		return fmt.Errorf("%w: shader has no %T", smoke.ErrCapabilityUnavailable, p.FBM.Basis)
	}
	if p.FBM.Octaves > MaxOctaves {
		return fmt.Errorf("%w: %d octaves, shader loops at most %d",
			smoke.ErrCapabilityUnavailable, p.FBM.Octaves, MaxOctaves)
	}
	return nil
}

// staticUniforms returns the values of the uniforms that only change with
// the params, keyed by name.
func staticUniforms(p smoke.Params) map[string][]float32 {
	fbm := p.FBM
	if fbm == nil {
		fbm = noise.DefaultFBM()
	}
	f := func(vs ...float64) []float32 {
		out := make([]float32, len(vs))
		for i, v := range vs {
			out[i] = float32(v)
		}
		return out
	}
	pal := p.Palette
	return map[string][]float32{
		"u_drift":      f(p.Drift),
		"u_turbulence": f(p.Turbulence),
		"u_mask_edge":  f(p.MaskEdge),
		"u_density":    f(p.DensityLow, p.DensityHigh),
		"u_ink":        f(p.InkStrength),
		"u_fbm":        f(fbm.Amplitude, fbm.Gain, fbm.Lacunarity, fbm.Rotation),
		"u_shift":      f(fbm.Shift.X, fbm.Shift.Y),
		"u_octaves":    f(float64(fbm.Octaves)),
		"u_q":          f(p.QTime, p.QOffset.X, p.QOffset.Y),
		"u_r_offset":   f(p.ROffsetX.X, p.ROffsetX.Y, p.ROffsetY.X, p.ROffsetY.Y),
		"u_r_time":     f(p.RTimeX, p.RTimeY),
		"u_shape":      f(p.SpreadBase, p.SpreadGrowth, p.HeightScale, p.HeightOffset),
		"u_fade":       f(p.FadeStart, p.FadeEnd),
		"u_deep":       f(pal.Deep.R, pal.Deep.G, pal.Deep.B),
		"u_light":      f(pal.Light.R, pal.Light.G, pal.Light.B),
		"u_accent":     f(pal.Accent.R, pal.Accent.G, pal.Accent.B),
		"u_background": f(pal.Background.R, pal.Background.G, pal.Background.B),
	}
}

var uniformTypes = [...]rl.ShaderUniformDataType{
	1: rl.ShaderUniformFloat,
	2: rl.ShaderUniformVec2,
	3: rl.ShaderUniformVec3,
	4: rl.ShaderUniformVec4,
}

// setStatic uploads the uniforms that only change with the params.
func (b *ShaderBackend) setStatic() {
	for name, v := range staticUniforms(b.params) {
		rl.SetShaderValue(b.shader, b.locs[name], v, uniformTypes[len(v)])
	}
}

func (b *ShaderBackend) setFloat(name string, v float64) {
	rl.SetShaderValue(b.shader, b.locs[name], []float32{float32(v)}, rl.ShaderUniformFloat)
}

// Resize implements smoke.Backend.
func (b *ShaderBackend) Resize(w, h int) {
	b.width, b.height = w, h
	if b.initialized {
		rl.SetShaderValue(b.shader, b.locs["u_resolution"],
			[]float32{float32(w), float32(h)}, rl.ShaderUniformVec2)
	}
}

// Draw implements smoke.Backend. It must run between BeginDrawing and
// EndDrawing.
func (b *ShaderBackend) Draw(u smoke.Uniforms) error {
	if !b.initialized {
		return fmt.Errorf("%w: backend not initialised", smoke.ErrCapabilityUnavailable)
	}
	if u.Width != b.width || u.Height != b.height {
		b.Resize(u.Width, u.Height)
	}
	b.setFloat("u_time", u.Time)
	b.setFloat("u_opacity", u.Opacity)

	rl.BeginBlendMode(rl.BlendMultiplied)
	rl.BeginShaderMode(b.shader)
	rl.DrawRectangle(0, 0, int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight()), rl.White)
	rl.EndShaderMode()
	rl.EndBlendMode()
	return nil
}

// Release implements smoke.Backend.
func (b *ShaderBackend) Release() {
	if b.initialized {
		rl.UnloadShader(b.shader)
		b.initialized = false
	}
}

// TexturePresenter uploads CPU plume frames to a texture and multiplies it
// over the window.
type TexturePresenter struct {
	texture rl.Texture2D
	loaded  bool
	w, h    int
	pixels  []color.RGBA
	dest    rl.Rectangle // zero: whole screen
}

// NewTexturePresenter creates a presenter; the texture is allocated on the
// first frame.
func NewTexturePresenter() *TexturePresenter {
	return &TexturePresenter{}
}

// SetDest limits the plume to r in screen pixels.
func (p *TexturePresenter) SetDest(r rl.Rectangle) {
	p.dest = r
}

// Present implements smoke.Presenter. It must run between BeginDrawing and
// EndDrawing.
func (p *TexturePresenter) Present(img *image.RGBA, opacity float64) error {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if !p.loaded || w != p.w || h != p.h {
		p.Unload()
		blank := rl.GenImageColor(w, h, rl.White)
		p.texture = rl.LoadTextureFromImage(blank)
		rl.UnloadImage(blank)
		rl.SetTextureFilter(p.texture, rl.FilterBilinear)
		p.w, p.h = w, h
		p.pixels = make([]color.RGBA, w*h)
		p.loaded = true
	}

	PixelsFromRGBA(p.pixels, img)
	rl.UpdateTexture(p.texture, p.pixels)

	dest := p.dest
	if dest.Width <= 0 || dest.Height <= 0 {
		dest = rl.Rectangle{Width: float32(rl.GetScreenWidth()), Height: float32(rl.GetScreenHeight())}
	}
	rl.BeginBlendMode(rl.BlendMultiplied)
	rl.DrawTexturePro(
		p.texture,
		rl.Rectangle{X: 0, Y: 0, Width: float32(w), Height: float32(h)},
		dest,
		rl.Vector2{},
		0,
		MultiplyTint(opacity),
	)
	rl.EndBlendMode()
	return nil
}

// MultiplyTint returns the tint that makes BlendMultiplied, which computes
// src*dst + dst*(1-srcAlpha), produce dst*mix(1, texel, opacity).
func MultiplyTint(opacity float64) color.RGBA {
	a := uint8(smoke.Clamp(opacity, 0, 1)*255 + 0.5)
	return color.RGBA{R: a, G: a, B: a, A: a}
}

// Unload frees the texture.
func (p *TexturePresenter) Unload() {
	if p.loaded {
		rl.UnloadTexture(p.texture)
		p.loaded = false
	}
}

// PixelsFromRGBA copies img into dst in row-major order. dst must hold
// width*height pixels.
func PixelsFromRGBA(dst []color.RGBA, img *image.RGBA) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		row := dst[y*w : (y+1)*w]
		for x := range row {
			s := img.Pix[off : off+4 : off+4]
			row[x] = color.RGBA{R: s[0], G: s[1], B: s[2], A: s[3]}
			off += 4
		}
	}
}
