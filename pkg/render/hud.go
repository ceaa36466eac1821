package render

import (
	"fmt"
	"time"

	"github.com/taigrr/volshade/pkg/volume"
)

const hint = " drag rotate · right-drag pan · wheel zoom · r reset · p screenshot · ? hud "

// Overlay is the per-frame information the HUD shows.
type Overlay struct {
	Frames int  // frames drawn by the current pipeline
	InView bool // whether any part of the volume is on screen
}

// HUD renders an overlay with volume info and controls.
type HUD struct {
	Visible bool

	title  string
	detail string
	status string

	fps       float64
	fpsFrames int
	fpsTime   time.Time
	now       func() time.Time
}

// NewHUD creates a HUD titled title. It starts hidden.
func NewHUD(title string) *HUD {
	h := &HUD{title: title, now: time.Now}
	h.fpsTime = h.now()
	return h
}

// SetVolume shows the loaded volume's name, size and mean density.
func (h *HUD) SetVolume(name string, dims volume.Dims, st volume.Stats) {
	h.title = name
	h.detail = fmt.Sprintf("%s mean %.1f", dims, st.Mean)
}

// SetStatus shows msg on the bottom line until replaced. An empty msg
// clears it.
func (h *HUD) SetStatus(msg string) {
	h.status = msg
}

// Toggle shows or hides the HUD.
func (h *HUD) Toggle() {
	h.Visible = !h.Visible
}

// UpdateFPS updates the FPS counter (call once per presented frame).
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	now := h.now()
	elapsed := now.Sub(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = now
	}
}

// FPS returns the presented frames per second over the last full second.
func (h *HUD) FPS() float64 {
	return h.fps
}

// Draw writes the overlay onto a width x height cell screen.
func (h *HUD) Draw(scr CellSetter, width, height int, o Overlay) {
	if width <= 0 || height <= 0 {
		return
	}
	bottom := height - 1

	// Out of view and status messages show even with the HUD off.
	switch {
	case !o.InView:
		msg := " volume out of view, press r to reset "
		DrawText(scr, max((width-len([]rune(msg)))/2, 0), bottom, width, msg, ColorYellow, ColorPanel)
		return
	case h.status != "" && !h.Visible:
		DrawText(scr, 0, bottom, width, " "+h.status+" ", ColorYellow, ColorPanel)
		return
	case !h.Visible:
		return
	}

	// Top left: FPS
	col := DrawText(scr, 0, 0, width, fmt.Sprintf(" %.0f FPS ", h.fps), ColorGreen, ColorPanel)

	// Top middle: volume name
	title := " " + h.title + " "
	DrawText(scr, max((width-len([]rune(title)))/2, col), 0, width, title, ColorWhite, ColorPanel)

	// Top right: dims and mean
	if h.detail != "" {
		detail := " " + h.detail + " "
		DrawText(scr, max(width-len([]rune(detail)), 0), 0, width, detail, ColorCyan, ColorPanel)
	}

	if bottom == 0 {
		return
	}
	// Bottom: status or controls, frame count on the right
	line := hint
	if h.status != "" {
		line = " " + h.status + " "
	}
	DrawText(scr, 0, bottom, width, line, ColorGray, ColorPanel)
	frames := fmt.Sprintf(" %d frames ", o.Frames)
	DrawText(scr, max(width-len(frames), 0), bottom, width, frames, ColorCyan, ColorPanel)
}
