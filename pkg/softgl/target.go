package softgl

import (
	"image"
	"image/color"
)

// Target is a drawing buffer of RGBA floats in [0,1]. Row 0 is the bottom
// row, as in GL window coordinates.
type Target struct {
	Width  int
	Height int
	Pix    []float32
}

// NewTarget allocates a cleared buffer.
func NewTarget(width, height int) *Target {
	return &Target{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*4),
	}
}

// Fill sets every pixel to c.
func (t *Target) Fill(c [4]float32) {
	n := len(t.Pix)
	if n == 0 {
		return
	}
	copy(t.Pix, c[:])
	// Copy-doubling fill.
	for i := 4; i < n; i *= 2 {
		copy(t.Pix[i:], t.Pix[:i])
	}
}

// At returns the pixel at window coordinates (x, y).
func (t *Target) At(x, y int) [4]float32 {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return [4]float32{}
	}
	i := (y*t.Width + x) * 4
	return [4]float32{t.Pix[i], t.Pix[i+1], t.Pix[i+2], t.Pix[i+3]}
}

func (t *Target) set(x, y int, c [4]float32) {
	i := (y*t.Width + x) * 4
	t.Pix[i], t.Pix[i+1], t.Pix[i+2], t.Pix[i+3] = c[0], c[1], c[2], c[3]
}

// RGBA returns the pixel at image coordinates (row 0 at the top) as 8-bit
// colour.
func (t *Target) RGBA(x, y int) color.RGBA {
	c := t.At(x, t.Height-1-y)
	return color.RGBA{to8(c[0]), to8(c[1]), to8(c[2]), to8(c[3])}
}

// Image converts the buffer into a top-down image.
func (t *Target) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	for y := range t.Height {
		for x := range t.Width {
			img.SetRGBA(x, y, t.RGBA(x, y))
		}
	}
	return img
}

func to8(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}
