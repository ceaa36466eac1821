package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// CellSetter is the part of a uv.Screen the presenter writes to.
type CellSetter interface {
	SetCell(x, y int, c *uv.Cell)
}

// Draw converts the internal framebuffer to terminal cells and draws them on
// the screen.
// The framebuffer height should be 2x the terminal height.
func (fb *Framebuffer) Draw(scr CellSetter, area uv.Rectangle) {
	// Each terminal row represents 2 framebuffer rows
	// We use ▀ (upper half block) with fg=top color and bg=bottom color

	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := row * 2
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X && col < fb.Width; col++ {
			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(fb.GetPixel(col, topY)),
					Bg: rgbaToColor(fb.GetPixel(col, botY)),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// DrawText writes s starting at (col, row), one cell per rune, clipped at
// maxCol.
func DrawText(scr CellSetter, col, row, maxCol int, s string, fg, bg color.Color) int {
	for _, r := range s {
		if col >= maxCol {
			break
		}
		scr.SetCell(col, row, &uv.Cell{
			Content: string(r),
			Width:   1,
			Style:   uv.Style{Fg: fg, Bg: bg},
		})
		col++
	}
	return col
}

// CellToPixel maps a terminal cell to the centre of the canvas pixels it
// covers. Each cell is one pixel wide and two pixels tall.
func CellToPixel(col, row int) (x, y float64) {
	return float64(col) + 0.5, float64(row*2) + 1
}

// rgbaToColor converts color.RGBA to Go's color.Color interface.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil // Transparent = no color
	}
	return c
}

// Colors used by the overlay.
var (
	ColorWhite  = color.RGBA{255, 255, 255, 255}
	ColorGreen  = color.RGBA{0, 255, 128, 255}
	ColorYellow = color.RGBA{255, 220, 0, 255}
	ColorCyan   = color.RGBA{0, 200, 255, 255}
	ColorGray   = color.RGBA{128, 128, 128, 255}
	ColorPanel  = color.RGBA{20, 20, 28, 255}
)

// RGB creates a color from RGB values.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}

// FloatRGBA converts a [0,1] colour to 8 bits per channel.
func FloatRGBA(c [4]float32) color.RGBA {
	to8 := func(v float32) uint8 {
		switch {
		case v <= 0:
			return 0
		case v >= 1:
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	return color.RGBA{to8(c[0]), to8(c[1]), to8(c[2]), to8(c[3])}
}
