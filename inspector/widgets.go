package inspector

import (
	"fmt"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/showfx/perimeter"
)

// Widget colors
var (
	ColorBarBg       = rl.Color{R: 40, G: 40, B: 40, A: 255}
	ColorBarFill     = rl.Color{R: 100, G: 180, B: 100, A: 255}
	ColorText        = rl.Color{R: 220, G: 220, B: 220, A: 255}
	ColorTextDim     = rl.Color{R: 150, G: 150, B: 150, A: 255}
	ColorSwatchFrame = rl.Color{R: 200, G: 200, B: 200, A: 255}
	ColorBoolOn      = rl.Color{R: 100, G: 200, B: 100, A: 255}
	ColorBoolOff     = rl.Color{R: 80, G: 80, B: 80, A: 255}
)

// Row layout
const (
	valueOffset = 80
	rowHeight   = 18
	labelHeight = 20
	miniMap     = 30
)

// FieldHeight returns the vertical space DrawField uses for f.
func FieldHeight(f Field) int32 {
	switch f.drawable() {
	case WidgetLabel:
		return labelHeight
	case WidgetPoint:
		return miniMap + 4
	default:
		return rowHeight
	}
}

// DrawField renders f at (x, y) and returns its height.
func DrawField(x, y int32, f Field) int32 {
	switch f.drawable() {
	case WidgetBar:
		v, _ := FloatValue(f.Value)
		drawBar(x, y, f.Name, v, f.Max)
	case WidgetSwatch:
		drawSwatch(x, y, f.Name, f.Value.(color.RGBA))
	case WidgetPoint:
		drawPoint(x, y, f.Name, f.Value.(perimeter.Point))
	case WidgetBool:
		drawBool(x, y, f.Name, f.Value.(bool))
	default:
		rl.DrawText(fmt.Sprintf("%s: %s", f.Name, FormatValue(f.Value, f.Format)), x, y, 16, ColorText)
	}
	return FieldHeight(f)
}

func drawBar(x, y int32, name string, value, maxVal float64) {
	ratio := value / maxVal
	ratio = max(0, min(1, ratio))

	const width, height = 120, 14
	rl.DrawText(name, x, y, 14, ColorTextDim)
	bx := x + valueOffset
	rl.DrawRectangle(bx, y, width, height, ColorBarBg)
	rl.DrawRectangle(bx, y, int32(width*ratio), height, ColorBarFill)
	rl.DrawText(fmt.Sprintf("%.2f", value), bx+width+5, y, 14, ColorTextDim)
}

func drawBool(x, y int32, name string, value bool) {
	rl.DrawText(name, x, y, 14, ColorTextDim)

	col, text := ColorBoolOff, "OFF"
	if value {
		col, text = ColorBoolOn, "ON"
	}
	ix := x + valueOffset
	rl.DrawRectangle(ix, y, 14, 14, col)
	rl.DrawText(text, ix+19, y, 14, col)
}

func drawSwatch(x, y int32, name string, c color.RGBA) {
	rl.DrawText(name, x, y, 14, ColorTextDim)

	sx := x + valueOffset
	rl.DrawRectangle(sx, y, 14, 14, c)
	rl.DrawRectangleLines(sx, y, 14, 14, ColorSwatchFrame)
	rl.DrawText(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B), sx+19, y, 14, ColorText)
}

// drawPoint shows a container-fraction position on a minimap.
func drawPoint(x, y int32, name string, p perimeter.Point) {
	rl.DrawText(name, x, y, 14, ColorTextDim)

	mx := x + valueOffset
	rl.DrawRectangle(mx, y, miniMap, miniMap, ColorBarBg)
	rl.DrawRectangle(mx+int32(miniMap*p.X), y+int32(miniMap*p.Y), 4, 4, ColorBarFill)
	rl.DrawText(p.String(), mx+miniMap+5, y+8, 14, ColorText)
}
