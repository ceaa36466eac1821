// Package render presents rendered volumes in the terminal.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"github.com/taigrr/volshade/pkg/softgl"
)

// Framebuffer holds the picture shown in the terminal. Each cell shows two
// vertically stacked pixels through a half-block glyph, so Height is twice
// the number of rows. Row 0 is the top row.
type Framebuffer struct {
	Width  int
	Height int
	img    *image.RGBA
}

// NewFramebuffer creates a transparent framebuffer of width x height
// pixels. Use twice the terminal rows for height.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Clear fills the framebuffer with c.
func (fb *Framebuffer) Clear(c color.RGBA) {
	fb.fill(fb.img.Rect, c)
}

// SetPixel ignores coordinates outside the framebuffer.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if image.Pt(x, y).In(fb.img.Rect) {
		fb.img.SetRGBA(x, y, c)
	}
}

// GetPixel returns transparent black outside the framebuffer.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	return fb.img.RGBAAt(x, y)
}

func (fb *Framebuffer) fill(r image.Rectangle, c color.RGBA) {
	draw.Draw(fb.img, r.Intersect(fb.img.Rect), image.NewUniform(c), image.Point{}, draw.Src)
}

// CopyFrom shows a drawing buffer. Its bottom row becomes the bottom row
// here, and sizes that differ are resampled nearest neighbour. A nil or
// empty buffer clears to transparent.
func (fb *Framebuffer) CopyFrom(t *softgl.Target) {
	if t == nil || t.Width == 0 || t.Height == 0 {
		fb.Clear(color.RGBA{})
		return
	}
	for y := range fb.Height {
		ty := y * t.Height / fb.Height
		for x := range fb.Width {
			fb.img.SetRGBA(x, y, t.RGBA(x*t.Width/fb.Width, ty))
		}
	}
}

// CopyFrame overwrites fb with src. Both must have the same size.
func (fb *Framebuffer) CopyFrame(src *Framebuffer) {
	draw.Draw(fb.img, fb.img.Rect, src.img, image.Point{}, draw.Src)
}

// DrawColormap draws an RGBA lookup table as a horizontal strip inside a
// one pixel border. Entries are drawn opaque. Boxes narrower or shorter
// than three pixels are skipped.
func (fb *Framebuffer) DrawColormap(table []byte, x, y, w, h int, border color.RGBA) {
	n := len(table) / 4
	if n == 0 || w < 3 || h < 3 {
		return
	}
	box := image.Rect(x, y, x+w, y+h)
	fb.fill(box, border)

	inner := box.Inset(1)
	for i := range inner.Dx() {
		e := i * n / inner.Dx() * 4
		col := image.Rect(inner.Min.X+i, inner.Min.Y, inner.Min.X+i+1, inner.Max.Y)
		fb.fill(col, color.RGBA{table[e], table[e+1], table[e+2], 255})
	}
}

// SavePNG writes the framebuffer to path as a PNG, top row first.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, fb.img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
