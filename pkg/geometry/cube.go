// Package geometry provides the proxy geometry the volume is rasterized
// through.
package geometry

import (
	"fmt"

	"github.com/taigrr/volshade/pkg/math3d"
)

// cubeStrip is the unit cube as a 14-vertex triangle strip, one byte per
// coordinate (0 or 255).
var cubeStrip = [42]byte{
	255, 255, 0, 0, 255, 0, 255, 255, 255, 0, 255, 255, 0, 0, 255, 0, 255, 0, 0, 0, 0, 255, 255, 0,
	255, 0, 0, 255, 255, 255, 255, 0, 255, 0, 0, 255, 255, 0, 0, 0, 0, 0,
}

// CubeStripVertices is the number of vertices in CubeStrip.
const CubeStripVertices = len(cubeStrip) / 3

// CubeStrip returns the [0,1]^3 cube as x, y, z triples for a triangle
// strip. Each call returns a new slice.
func CubeStrip() []float32 {
	out := make([]float32, len(cubeStrip))
	for i, b := range cubeStrip {
		out[i] = float32(b) / 255
	}
	return out
}

// Bounds returns the axis-aligned bounds of x, y, z triples.
func Bounds(positions []float32) (lo, hi math3d.Vec3, err error) {
	if len(positions) < 3 || len(positions)%3 != 0 {
		return lo, hi, fmt.Errorf("bounds: %d floats is not a list of positions", len(positions))
	}
	lo = math3d.V3(float64(positions[0]), float64(positions[1]), float64(positions[2]))
	hi = lo
	for i := 3; i < len(positions); i += 3 {
		p := math3d.V3(float64(positions[i]), float64(positions[i+1]), float64(positions[i+2]))
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return lo, hi, nil
}
