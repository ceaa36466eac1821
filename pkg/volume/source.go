package volume

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Source produces a volume. Load may block on I/O and honours ctx.
type Source interface {
	Load(ctx context.Context) (*Volume, error)
}

// FileSource reads a raw uint8 volume from disk. When Dims is zero they are
// parsed from the file name.
type FileSource struct {
	Path string
	Dims Dims
}

// Load reads the whole file. Dims default to the ones in the file name; a
// file whose size differs from Dims.Len() is returned as is and fitted
// later by the pipeline.
func (f FileSource) Load(ctx context.Context) (*Volume, error) {
	name := strings.TrimSuffix(filepath.Base(f.Path), ".raw")
	dims := f.Dims
	if dims == (Dims{}) {
		n, d, err := ParseName(f.Path)
		if err != nil {
			return nil, fmt.Errorf("load volume: %w", err)
		}
		name, dims = n, d
	}
	if !dims.Valid() {
		return nil, fmt.Errorf("load volume: invalid dimensions %s", dims)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("load volume: %w", err)
	}
	return &Volume{Name: name, Dims: dims, Data: data}, nil
}

// Shape selects the field generated by DemoSource.
type Shape string

const (
	ShapeSphere   Shape = "sphere"
	ShapeTorus    Shape = "torus"
	ShapeGradient Shape = "gradient"
)

// Shapes lists every supported demo shape.
var Shapes = []Shape{ShapeSphere, ShapeTorus, ShapeGradient}

// DemoSource generates a synthetic volume.
type DemoSource struct {
	Dims  Dims
	Shape Shape
}

// Load fills the volume voxel by voxel, checking ctx once per slice.
func (d DemoSource) Load(ctx context.Context) (*Volume, error) {
	if !d.Dims.Valid() {
		return nil, fmt.Errorf("demo volume: invalid dimensions %s", d.Dims)
	}
	field, err := d.field()
	if err != nil {
		return nil, err
	}

	data := make([]byte, d.Dims.Len())
	for z := range d.Dims.Z {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for y := range d.Dims.Y {
			for x := range d.Dims.X {
				p := [3]float64{
					(float64(x) + 0.5) / float64(d.Dims.X),
					(float64(y) + 0.5) / float64(d.Dims.Y),
					(float64(z) + 0.5) / float64(d.Dims.Z),
				}
				v := field(p)
				data[(z*d.Dims.Y+y)*d.Dims.X+x] = byte(math.Round(255 * math.Min(math.Max(v, 0), 1)))
			}
		}
	}
	return &Volume{Name: string(d.shape()), Dims: d.Dims, Data: data}, nil
}

func (d DemoSource) shape() Shape {
	if d.Shape == "" {
		return ShapeSphere
	}
	return d.Shape
}

// field returns the density at a point in [0,1]^3.
func (d DemoSource) field() (func(p [3]float64) float64, error) {
	switch d.shape() {
	case ShapeSphere:
		return func(p [3]float64) float64 {
			r := math.Sqrt(sq(p[0]-0.5) + sq(p[1]-0.5) + sq(p[2]-0.5))
			return 1 - r/0.5
		}, nil
	case ShapeTorus:
		return func(p [3]float64) float64 {
			q := math.Sqrt(sq(p[0]-0.5)+sq(p[2]-0.5)) - 0.3
			r := math.Sqrt(sq(q) + sq(p[1]-0.5))
			return 1 - r/0.12
		}, nil
	case ShapeGradient:
		return func(p [3]float64) float64 {
			return p[2]
		}, nil
	}
	return nil, fmt.Errorf("demo volume: unknown shape %q", d.Shape)
}

func sq(v float64) float64 { return v * v }
