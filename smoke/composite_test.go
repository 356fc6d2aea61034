package smoke

import (
	"image"
	"image/color"
	"testing"
)

func filled(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -1 && d <= 1
}

func TestComposite(t *testing.T) {
	page := rgb(200, 100, 50)

	tests := []struct {
		name    string
		src     color.RGBA
		opacity float64
		want    color.RGBA
	}{
		{"white vanishes", rgb(255, 255, 255), 1, page},
		{"zero opacity", rgb(0, 0, 0), 0, page},
		{"black full", rgb(0, 0, 0), 1, rgb(0, 0, 0)},
		{"black half", rgb(0, 0, 0), 0.5, rgb(100, 50, 25)},
		{"grey full", rgb(128, 128, 128), 1, rgb(100, 50, 25)},
		{"opacity clamps", rgb(0, 0, 0), 3, rgb(0, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := filled(4, 4, page)
			Composite(dst, filled(4, 4, tt.src), tt.opacity)
			got := dst.RGBAAt(2, 2)
			if !near(got.R, tt.want.R) || !near(got.G, tt.want.G) || !near(got.B, tt.want.B) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got.A != 255 {
				t.Errorf("alpha changed to %d", got.A)
			}
		})
	}
}

func TestComposite_Upscales(t *testing.T) {
	dst := filled(16, 8, rgb(255, 255, 255))
	src := filled(4, 2, rgb(64, 128, 192))

	Composite(dst, src, 1)

	for _, pt := range [][2]int{{0, 0}, {7, 3}, {15, 7}} {
		got := dst.RGBAAt(pt[0], pt[1])
		if !near(got.R, 64) || !near(got.G, 128) || !near(got.B, 192) {
			t.Errorf("(%d,%d) = %v, want uniform src colour", pt[0], pt[1], got)
		}
	}
}
