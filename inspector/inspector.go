// Package inspector draws a raylib panel listing the components of the
// selected ring tile. Fields are discovered by reflection and rendered
// according to their `inspect` struct tags.
package inspector

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/showfx/stage"
)

// Panel dimensions
const (
	PanelWidth   = 300
	PanelPadding = 10
	HeaderHeight = 30
)

// Panel colors
var (
	ColorPanelBg     = rl.Color{R: 30, G: 30, B: 35, A: 240}
	ColorPanelHeader = rl.Color{R: 45, G: 45, B: 55, A: 255}
	ColorPanelBorder = rl.Color{R: 70, G: 70, B: 80, A: 255}
	ColorHeaderText  = rl.Color{R: 255, G: 255, B: 255, A: 255}
	ColorCloseBtn    = rl.Color{R: 180, G: 80, B: 80, A: 255}
	ColorSection     = rl.Color{R: 50, G: 50, B: 60, A: 255}
	ColorSectionText = rl.Color{R: 200, G: 200, B: 220, A: 255}
)

// Inspector manages tile selection and panel rendering.
type Inspector struct {
	selected    int
	hasSelected bool
	panelX      int32
	panelY      int32
}

// NewInspector creates an inspector anchored to the top-right corner.
func NewInspector(screenWidth int32) *Inspector {
	return &Inspector{
		panelX: screenWidth - PanelWidth - 10,
		panelY: 10,
	}
}

// SetScreenWidth re-anchors the panel after a window resize.
func (ins *Inspector) SetScreenWidth(w int32) {
	ins.panelX = w - PanelWidth - 10
}

// HandleInput selects the hovered tile on left click. hovered is the
// index returned by the ring's hover test, or -1.
func (ins *Inspector) HandleInput(mouseX, mouseY float32, hovered int) {
	// Right click or Escape to deselect
	if rl.IsMouseButtonPressed(rl.MouseButtonRight) || rl.IsKeyPressed(rl.KeyEscape) {
		ins.Deselect()
		return
	}
	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}

	if ins.hasSelected {
		closeX := ins.panelX + PanelWidth - 25
		closeY := ins.panelY + 5
		if int32(mouseX) >= closeX && int32(mouseX) <= closeX+20 &&
			int32(mouseY) >= closeY && int32(mouseY) <= closeY+20 {
			ins.Deselect()
			return
		}
		// Clicks inside the panel keep the selection
		if int32(mouseX) >= ins.panelX && int32(mouseX) <= ins.panelX+PanelWidth &&
			int32(mouseY) >= ins.panelY {
			return
		}
	}

	ins.Select(hovered)
}

// Select selects tile i; a negative index clears the selection.
func (ins *Inspector) Select(i int) {
	if i < 0 {
		ins.Deselect()
		return
	}
	ins.selected = i
	ins.hasSelected = true
}

// Deselect clears the current selection.
func (ins *Inspector) Deselect() {
	ins.hasSelected = false
}

// Selected returns the selected tile index.
func (ins *Inspector) Selected() (int, bool) {
	return ins.selected, ins.hasSelected
}

// section is one component shown in the panel.
type section struct {
	title  string
	fields []Field
}

// Draw renders the panel for the selected tile.
func (ins *Inspector) Draw(s *stage.Stage) {
	if !ins.hasSelected {
		return
	}
	if ins.selected >= s.Len() {
		ins.Deselect()
		return
	}

	tile, slot, hover := s.Tile(ins.selected)
	sections := []section{
		{"TILE", ExtractFields(tile)},
		{"SLOT", ExtractFields(slot)},
		{"HOVER", ExtractFields(hover)},
	}

	panelHeight := ins.calculatePanelHeight(sections)

	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, panelHeight, ColorPanelBg)
	rl.DrawRectangleLinesEx(
		rl.Rectangle{X: float32(ins.panelX), Y: float32(ins.panelY), Width: PanelWidth, Height: float32(panelHeight)},
		1,
		ColorPanelBorder,
	)

	// Header
	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, HeaderHeight, ColorPanelHeader)
	rl.DrawText(fmt.Sprintf("TILE %d", tile.Index), ins.panelX+PanelPadding, ins.panelY+7, 16, ColorHeaderText)

	closeX := ins.panelX + PanelWidth - 25
	closeY := ins.panelY + 5
	rl.DrawRectangle(closeX, closeY, 20, 20, ColorCloseBtn)
	rl.DrawText("X", closeX+6, closeY+3, 14, rl.White)

	y := ins.panelY + HeaderHeight + PanelPadding
	x := ins.panelX + PanelPadding
	for _, sec := range sections {
		ins.drawSectionHeader(x, y, sec.title)
		y += 20
		for _, f := range sec.fields {
			y += DrawField(x, y, f)
		}
		y += 6
	}
}

// drawSectionHeader renders a section title.
func (ins *Inspector) drawSectionHeader(x, y int32, title string) {
	rl.DrawRectangle(x-2, y-2, PanelWidth-2*PanelPadding+4, 18, ColorSection)
	rl.DrawText(title, x+2, y, 14, ColorSectionText)
}

// calculatePanelHeight computes the panel height for the given sections.
func (ins *Inspector) calculatePanelHeight(sections []section) int32 {
	height := int32(HeaderHeight + PanelPadding)
	for _, sec := range sections {
		height += 20 + 6
		for _, f := range sec.fields {
			height += FieldHeight(f)
		}
	}
	return height + PanelPadding
}
