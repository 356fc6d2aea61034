package renderer

import (
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/showfx/smoke"
)

// WindowSurface reports the framebuffer size of the raylib window.
type WindowSurface struct{}

// Size implements smoke.Surface.
func (WindowSurface) Size() (int, int) {
	return rl.GetRenderWidth(), rl.GetRenderHeight()
}

// WindowScheduler delivers frame requests once per window refresh. The main
// loop calls Refresh between BeginDrawing and EndDrawing.
type WindowScheduler struct {
	*smoke.ManualScheduler
}

// NewWindowScheduler creates a scheduler for the raylib main loop.
func NewWindowScheduler() *WindowScheduler {
	return &WindowScheduler{ManualScheduler: smoke.NewManualScheduler()}
}

// Refresh fires pending frame callbacks with the window clock.
func (s *WindowScheduler) Refresh() int {
	return s.Pump(time.Duration(rl.GetTime() * float64(time.Second)))
}
