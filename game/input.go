package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/showfx/smoke"
)

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	// Window resize propagation
	g.handleResize()

	// Fullscreen toggle
	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	if rl.IsKeyPressed(rl.KeyH) {
		g.showHUD = !g.showHUD
	}
	if rl.IsKeyPressed(rl.KeyF) {
		g.showPerf = !g.showPerf
	}

	// Plume opacity with the arrow keys
	if rl.IsKeyPressed(rl.KeyUp) {
		g.effect.SetOpacity(StepOpacity(g.effect.Opacity(), OpacityStep))
	}
	if rl.IsKeyPressed(rl.KeyDown) {
		g.effect.SetOpacity(StepOpacity(g.effect.Opacity(), -OpacityStep))
	}

	// Hover follows the pointer; the inspector selects on click
	g.hovered = g.ring.HandleMouse()
	mousePos := rl.GetMousePosition()
	g.inspector.HandleInput(mousePos.X, mousePos.Y, g.hovered)
}

// StepOpacity adds delta to o, clamped to [0, 1] and rounded to the step
// grid so repeated presses do not drift.
func StepOpacity(o, delta float64) float64 {
	o = smoke.Clamp(o+delta, 0, 1)
	return float64(int(o*100+0.5)) / 100
}

// handleResize checks for window resize and propagates new dimensions. The
// plume reads the framebuffer size itself on its next frame.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := int32(rl.GetScreenWidth())
	h := int32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.inspector.SetScreenWidth(w)
	g.logger.Debug("window resized", "width", w, "height", h)
}
