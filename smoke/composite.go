package smoke

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Upscale resamples src to the bounds of dst with bilinear filtering.
func Upscale(dst *image.RGBA, src image.Image) {
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
}

// Composite multiplies src onto dst at the given opacity:
//
//	dst = dst * mix(1, src, opacity)
//
// White regions of src vanish and darker ink shows through. src is
// resampled to dst's size when they differ.
func Composite(dst *image.RGBA, src image.Image, opacity float64) {
	opacity = Clamp(opacity, 0, 1)
	if opacity == 0 {
		return
	}

	var layer *image.RGBA
	if rgba, ok := src.(*image.RGBA); ok && rgba.Bounds().Size() == dst.Bounds().Size() {
		layer = rgba
	} else {
		layer = image.NewRGBA(image.Rect(0, 0, dst.Rect.Dx(), dst.Rect.Dy()))
		Upscale(layer, src)
	}

	// Fixed-point weights in 0..256
	a := uint32(opacity*256 + 0.5)
	inv := 256 - a

	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < h; y++ {
		di := dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y)
		si := layer.PixOffset(layer.Rect.Min.X, layer.Rect.Min.Y+y)
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				k := inv*255 + a*uint32(layer.Pix[si+c]) // 0..65280
				dst.Pix[di+c] = uint8((uint32(dst.Pix[di+c])*k + 32640) / 65280)
			}
			di += 4
			si += 4
		}
	}
}
