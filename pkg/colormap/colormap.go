// Package colormap builds the 256x1 RGBA transfer textures sampled by the
// volume shader.
package colormap

import (
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
)

// Width is the number of colormap entries.
const Width = 256

// Size is the byte length of an RGBA colormap.
const Size = Width * 4

// ErrUnknown means no preset has the requested name.
var ErrUnknown = errors.New("unknown colormap")

// Default is the ramp (i, i, 10, 50).
func Default() []byte {
	out := make([]byte, 0, Size)
	for i := range Width {
		out = append(out, byte(i), byte(i), 10, 50)
	}
	return out
}

var presets = map[string][]string{
	"cool-warm": {"#3b4cc0", "#dddddd", "#b40426"},
	"grayscale": {"#000000", "#ffffff"},
	"viridis":   {"#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"},
	"hot":       {"#000000", "#e60000", "#ffd200", "#ffffff"},
	"bone":      {"#000000", "#545474", "#a7c7c7", "#ffffff"},
}

// Names returns the preset names in sorted order, plus "default".
func Names() []string {
	names := []string{"default"}
	for name := range presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Preset returns a named colormap. "default" and "" give Default.
func Preset(name string) ([]byte, error) {
	if name == "" || name == "default" {
		return Default(), nil
	}
	stops, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknown, name)
	}
	return FromStops(stops...)
}

// FromStops interpolates evenly spaced hex colors in CIE L*a*b*. Alpha is
// opaque.
func FromStops(hex ...string) ([]byte, error) {
	if len(hex) < 2 {
		return nil, fmt.Errorf("colormap needs at least 2 stops, got %d", len(hex))
	}
	stops := make([]colorful.Color, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("stop %d: %w", i, err)
		}
		stops[i] = c
	}

	out := make([]byte, 0, Size)
	segments := float64(len(stops) - 1)
	for i := range Width {
		t := float64(i) / (Width - 1) * segments
		k := min(int(t), len(stops)-2)
		c := stops[k].BlendLab(stops[k+1], t-float64(k)).Clamped()
		r, g, b := c.RGB255()
		out = append(out, r, g, b, 255)
	}
	return out, nil
}

// FromImage resamples the first row of img to Width entries.
func FromImage(img image.Image) []byte {
	bounds := img.Bounds()
	out := make([]byte, 0, Size)
	for i := range Width {
		x := bounds.Min.X + i*bounds.Dx()/Width
		r, g, b, a := img.At(x, bounds.Min.Y).RGBA()
		out = append(out, byte(r>>8), byte(g>>8), byte(b>>8), byte(a>>8))
	}
	return out
}

// Load resolves a colormap reference: a preset name or a path to a PNG.
func Load(ref string) ([]byte, error) {
	if cm, err := Preset(ref); err == nil {
		return cm, nil
	} else if !errors.Is(err, ErrUnknown) {
		return nil, err
	}

	f, err := os.Open(ref)
	if err != nil {
		return nil, fmt.Errorf("load colormap: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode colormap %s: %w", ref, err)
	}
	return FromImage(img), nil
}
