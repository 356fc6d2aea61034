package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/showfx/ui"
)

// Controls is the legend drawn at the bottom of the window.
const Controls = "SPACE: Pause | UP/DOWN: Opacity | Click: Inspect | H: HUD | F: Perf | F11: Fullscreen"

// Draw renders one frame: page, ring, plume, then overlays.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.White)

	g.ring.Draw()

	// The plume multiplies over everything drawn so far
	g.sched.Refresh()

	g.drawUI()
	g.inspector.Draw(g.stage)

	rl.EndDrawing()
	g.frames++
}

// drawUI draws the HUD and performance panel.
func (g *Game) drawUI() {
	if g.showHUD {
		g.hud.Draw(ui.HUDData{
			Title:    g.opts.Title,
			Backend:  g.backend,
			State:    g.effect.State().String(),
			Degraded: g.effect.Degraded(),
			Tiles:    g.stage.Len(),
			Phase:    g.stage.Phase(),
			Elapsed:  g.clock,
			Opacity:  g.effect.Opacity(),
			FPS:      rl.GetFPS(),
			Paused:   g.paused,
		})
		g.hud.DrawControls(g.screenHeight, Controls)
	}

	if g.showPerf && g.stats != nil {
		g.perfPanel.Draw(g.stats())
	}
}
