package offscreen

import (
	"image/color"
	"log/slog"
	"sync"

	"github.com/gogpu/gg"

	"github.com/pthm-cable/showfx/stage"
)

type tileImages struct {
	hovered, idle *gg.ImageBuf
}

// TileCache loads tile assets once and keeps the hovered and idle
// variants. Assets that fail to load are remembered as missing.
type TileCache struct {
	mu     sync.Mutex
	look   stage.Look
	logger *slog.Logger
	images map[string]*tileImages // nil entry: asset missing
}

// NewTileCache creates an empty cache that tones idle tiles with look.
func NewTileCache(look stage.Look, logger *slog.Logger) *TileCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &TileCache{
		look:   look,
		logger: logger,
		images: make(map[string]*tileImages),
	}
}

// Get returns the image for asset, or nil when it has to be drawn as a
// placeholder.
func (tc *TileCache) Get(asset string, hovered bool) *gg.ImageBuf {
	if asset == "" {
		return nil
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()

	imgs, ok := tc.images[asset]
	if !ok {
		imgs = tc.load(asset)
		tc.images[asset] = imgs
	}
	if imgs == nil {
		return nil
	}
	if hovered {
		return imgs.hovered
	}
	return imgs.idle
}

func (tc *TileCache) load(asset string) *tileImages {
	buf, err := gg.LoadImage(asset)
	if err != nil {
		tc.logger.Warn("tile asset unavailable, drawing placeholder", "asset", asset, "error", err)
		return nil
	}
	return &tileImages{hovered: buf, idle: ApplyLook(buf, tc.look)}
}

// ApplyLook returns a copy of buf with every pixel toned by look.
func ApplyLook(buf *gg.ImageBuf, look stage.Look) *gg.ImageBuf {
	out := buf.Clone()
	w, h := out.Bounds()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := out.GetRGBA(x, y)
			c := look.Apply(color.RGBA{R: r, G: g, B: b, A: a}, false)
			_ = out.SetRGBA(x, y, c.R, c.G, c.B, c.A)
		}
	}
	return out
}
