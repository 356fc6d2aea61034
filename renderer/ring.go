package renderer

import (
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/showfx/components"
	"github.com/pthm-cable/showfx/stage"
)

// Ring layout in window pixels.
const (
	ContainerFill = 0.9
	TileGap       = 4
	TileRoundness = 0.15
)

var (
	ColorPanel       = rl.Color{R: 250, G: 250, B: 250, A: 255}
	ColorPanelBorder = rl.Color{R: 220, G: 220, B: 225, A: 255}
	ColorPanelText   = rl.Color{R: 60, G: 60, B: 70, A: 255}
)

// tileTextures holds a loaded asset in colour and in grayscale.
type tileTextures struct {
	color, gray rl.Texture2D
}

// RingRenderer draws the stage tiles and the interior panel.
type RingRenderer struct {
	stage    *stage.Stage
	look     stage.Look
	title    string
	logger   *slog.Logger
	textures map[string]*tileTextures // nil entry: asset missing
}

// NewRingRenderer creates a renderer for s.
func NewRingRenderer(s *stage.Stage, look stage.Look, title string, logger *slog.Logger) *RingRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &RingRenderer{
		stage:    s,
		look:     look,
		title:    title,
		logger:   logger,
		textures: make(map[string]*tileTextures),
	}
}

// Container returns the ring container for the current window.
func (r *RingRenderer) Container() stage.Box {
	return stage.Container(float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight()), ContainerFill)
}

// HandleMouse updates tile hover from the pointer and returns the hovered
// tile index or -1. Points outside the container hit no tile.
func (r *RingRenderer) HandleMouse() int {
	return r.stage.SetHover(r.Container().Fraction(float64(rl.GetMouseX()), float64(rl.GetMouseY())))
}

// Draw renders the interior panel and every tile.
func (r *RingRenderer) Draw() {
	c := r.Container()

	in := r.stage.InteriorBox(c, TileGap)
	rect := toRect(in)
	rl.DrawRectangleRounded(rect, 0.04, 8, ColorPanel)
	rl.DrawRectangleRoundedLinesEx(rect, 0.04, 8, 1, ColorPanelBorder)
	if r.title != "" {
		size := int32(in.H / 10)
		tw := rl.MeasureText(r.title, size)
		rl.DrawText(r.title, int32(in.X+in.W/2)-tw/2, int32(in.Y+in.H/2)-size/2, size, ColorPanelText)
	}

	r.stage.Each(func(tile components.Tile, slot components.Slot, hovered bool) {
		box := r.stage.TileBox(c, slot.Point, TileGap)
		r.drawTile(tile, box, hovered)
	})
}

func (r *RingRenderer) drawTile(tile components.Tile, box stage.Box, hovered bool) {
	rect := toRect(box)
	tex := r.texture(tile.Asset)
	if tex == nil {
		rl.DrawRectangleRounded(rect, TileRoundness, 8, r.look.Apply(tile.Color, hovered))
		return
	}

	t := tex.color
	if r.look.Grayscale && !hovered {
		t = tex.gray
	}
	tint := r.look.Apply(rl.White, hovered)
	rl.DrawTexturePro(
		t,
		coverSource(t, box),
		rect,
		rl.Vector2{},
		0,
		tint,
	)
}

// texture loads an asset on first use. Missing files fall back to
// placeholders and are reported once.
func (r *RingRenderer) texture(asset string) *tileTextures {
	if asset == "" {
		return nil
	}
	if tex, ok := r.textures[asset]; ok {
		return tex
	}
	if _, err := os.Stat(asset); err != nil {
		r.logger.Warn("tile asset unavailable, drawing placeholder", "asset", asset, "error", err)
		r.textures[asset] = nil
		return nil
	}

	img := rl.LoadImage(asset)
	gray := rl.ImageCopy(img)
	rl.ImageColorGrayscale(gray)
	tex := &tileTextures{
		color: rl.LoadTextureFromImage(img),
		gray:  rl.LoadTextureFromImage(gray),
	}
	rl.UnloadImage(img)
	rl.UnloadImage(gray)
	rl.SetTextureFilter(tex.color, rl.FilterBilinear)
	rl.SetTextureFilter(tex.gray, rl.FilterBilinear)
	r.textures[asset] = tex
	return tex
}

// Unload frees all loaded textures.
func (r *RingRenderer) Unload() {
	for asset, tex := range r.textures {
		if tex != nil {
			rl.UnloadTexture(tex.color)
			rl.UnloadTexture(tex.gray)
		}
		delete(r.textures, asset)
	}
}

// coverSource crops the texture centre to the aspect of box, like CSS
// object-fit: cover.
func coverSource(t rl.Texture2D, box stage.Box) rl.Rectangle {
	tw, th := float32(t.Width), float32(t.Height)
	if box.W <= 0 || box.H <= 0 || tw == 0 || th == 0 {
		return rl.Rectangle{Width: tw, Height: th}
	}
	aspect := float32(box.W / box.H)
	if tw/th > aspect {
		w := th * aspect
		return rl.Rectangle{X: (tw - w) / 2, Width: w, Height: th}
	}
	h := tw / aspect
	return rl.Rectangle{Y: (th - h) / 2, Width: tw, Height: h}
}

func toRect(b stage.Box) rl.Rectangle {
	return rl.Rectangle{X: float32(b.X), Y: float32(b.Y), Width: float32(b.W), Height: float32(b.H)}
}
