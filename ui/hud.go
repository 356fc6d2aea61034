package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/showfx/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title    string
	Backend  string
	State    string
	Degraded bool
	Tiles    int
	Phase    float64
	Elapsed  time.Duration
	Opacity  float64
	FPS      int32
	Paused   bool
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	theme := h.renderer.Theme
	h.renderer.DrawPanel(5, 5, 330, 82)

	rl.DrawText(data.Title, 12, 10, 20, theme.ValueColor)

	rl.DrawText(
		fmt.Sprintf("Tiles: %d | Phase: %.3f | t: %s", data.Tiles, data.Phase, data.Elapsed.Round(100*time.Millisecond)),
		12, 35, 14, theme.LabelColor,
	)

	rl.DrawText(
		fmt.Sprintf("Plume: %s (%s) | Opacity: %.2f | FPS: %d", data.Backend, data.State, data.Opacity, data.FPS),
		12, 52, 14, theme.LabelColor,
	)

	status := StatusText(data.Paused, data.Degraded)
	color := theme.SectionHeader
	if data.Degraded {
		color = theme.WarnColor
	}
	rl.DrawText(status, 12, 69, 14, color)
}

// StatusText returns the HUD status line.
func StatusText(paused, degraded bool) string {
	switch {
	case degraded:
		return "PLUME DISABLED"
	case paused:
		return "PAUSED"
	default:
		return "Running"
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the frame timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    260,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.FrameStats) {
	r := p.renderer
	pad := r.Theme.Padding
	height := int32(2*pad + 6*r.Theme.LineHeight + int32(len(telemetry.Phases))*(r.Theme.LineHeight+2))
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + pad
	y := r.DrawSectionHeader(x, p.y+pad, "Frame Timing")

	if stats.Frames == 0 {
		rl.DrawText("(no frames yet)", x, y, r.Theme.FontSize, r.Theme.LabelColor)
		return
	}

	y = r.DrawLabelValue(x, y, "Frames", fmt.Sprintf("%d", stats.Frames))
	y = r.DrawLabelValue(x, y, "Mean", fmt.Sprintf("%.2f ms", stats.Total.Mean))
	y = r.DrawLabelValue(x, y, "p90 / max", fmt.Sprintf("%.2f / %.2f ms", stats.Total.P90, stats.Total.Max))
	y = r.DrawLabelValue(x, y, "Capacity", fmt.Sprintf("%.0f fps", stats.FramesPerSecond))

	for _, phase := range telemetry.Phases {
		y = r.DrawPercentBar(x, y, phase, stats.PhasePct[phase], 60, p.width-2*pad)
	}
}
