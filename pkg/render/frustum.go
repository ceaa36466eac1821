package render

import (
	"github.com/taigrr/volshade/pkg/math3d"
)

// Plane is the set of points p with Normal·p + D = 0.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize rescales the equation to a unit normal so DistanceToPoint
// returns world units. Degenerate planes are left alone.
func (p *Plane) Normalize() {
	if n := p.Normal.Len(); n > 0 {
		p.Normal, p.D = p.Normal.Scale(1/n), p.D/n
	}
}

// DistanceToPoint is positive on the side the normal points to.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum holds the left, right, bottom, top, near and far clip planes,
// in that order, with normals facing inside.
type Frustum struct {
	Planes [6]Plane
}

// NewFrustum extracts the frustum planes from a column-major
// projection * view matrix (Gribb/Hartmann).
func NewFrustum(m math3d.Mat4) Frustum {
	// Row i element j is m[i+j*4].
	row := func(i int) (float64, float64, float64, float64) {
		return m[i], m[i+4], m[i+8], m[i+12]
	}
	wx, wy, wz, ww := row(3)

	var f Frustum
	for i := range 3 {
		x, y, z, w := row(i)
		f.Planes[2*i] = Plane{Normal: math3d.V3(wx+x, wy+y, wz+z), D: ww + w}
		f.Planes[2*i+1] = Plane{Normal: math3d.V3(wx-x, wy-y, wz-z), D: ww - w}
	}
	for i := range f.Planes {
		f.Planes[i].Normalize()
	}
	return f
}

// ContainsPoint reports whether p is on the inner side of every plane.
func (f Frustum) ContainsPoint(p math3d.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].DistanceToPoint(p) < 0 {
			return false
		}
	}
	return true
}

// IntersectsBox reports whether any part of the box [lo, hi] is inside the
// frustum. It tests the corner furthest along each plane normal, so boxes
// near a frustum edge may be reported visible when they are not.
func (f Frustum) IntersectsBox(lo, hi math3d.Vec3) bool {
	for _, plane := range f.Planes {
		corner := math3d.V3(
			pick(plane.Normal.X >= 0, hi.X, lo.X),
			pick(plane.Normal.Y >= 0, hi.Y, lo.Y),
			pick(plane.Normal.Z >= 0, hi.Z, lo.Z),
		)
		if plane.DistanceToPoint(corner) < 0 {
			return false
		}
	}
	return true
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
