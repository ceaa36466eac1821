package softgl

import (
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/volshade/pkg/gpu"
	"github.com/taigrr/volshade/pkg/math3d"
)

// nearEpsilon keeps clipped vertices strictly in front of the eye.
const nearEpsilon = 1e-9

// clipVertex is a vertex after the vertex stage.
type clipVertex struct {
	pos      math3d.Vec4
	varyings []float32
}

// screenVertex is a vertex in window coordinates. invW and the
// pre-divided varyings drive perspective-correct interpolation.
type screenVertex struct {
	x, y     float64
	invW     float64
	varyings []float32 // already multiplied by invW
}

// triangle is a counter-clockwise triangle ready for scan conversion.
type triangle struct {
	v                      [3]screenVertex
	minX, maxX, minY, maxY int
}

// DrawArrays runs the current program over count vertices starting at
// first.
func (c *Context) DrawArrays(mode gpu.Enum, first, count int) {
	if mode != gpu.Triangles && mode != gpu.TriangleStrip {
		c.setError(gpu.InvalidEnum)
		return
	}
	if first < 0 || count < 0 {
		c.setError(gpu.InvalidValue)
		return
	}
	prog := c.programs[c.current]
	vao := c.vaos[c.boundVAO]
	if prog == nil || vao == nil {
		c.setError(gpu.InvalidOperation)
		return
	}
	attr := vao.attribs[0]
	if !attr.enabled {
		c.setError(gpu.InvalidOperation)
		return
	}

	env := &Env{c: c, prog: prog}
	nv := c.kernel.Varyings()

	verts := make([]clipVertex, count)
	for i := range count {
		pos, ok := c.fetch(attr, first+i)
		if !ok {
			c.setError(gpu.InvalidOperation)
			return
		}
		out := make([]float32, nv)
		verts[i] = clipVertex{pos: c.kernel.Vertex(env, pos, out), varyings: out}
	}

	c.stats.DrawCalls++
	c.stats.Vertices += count

	var tris []triangle
	emit := func(a, b, d clipVertex) {
		tris = append(tris, c.setup(a, b, d)...)
	}
	switch mode {
	case gpu.Triangles:
		for i := 0; i+2 < count; i += 3 {
			emit(verts[i], verts[i+1], verts[i+2])
		}
	case gpu.TriangleStrip:
		for i := 0; i+2 < count; i++ {
			// Odd triangles swap their first two vertices to keep the
			// strip's winding consistent.
			if i%2 == 0 {
				emit(verts[i], verts[i+1], verts[i+2])
			} else {
				emit(verts[i+1], verts[i], verts[i+2])
			}
		}
	}
	c.stats.Triangles += len(tris)

	c.stats.Fragments += c.shade(env, tris)
}

// setup clips a triangle against the near plane, culls it and converts the
// remaining pieces to window coordinates.
func (c *Context) setup(a, b, d clipVertex) []triangle {
	poly := clipNear([]clipVertex{a, b, d})
	if len(poly) < 3 {
		return nil
	}

	vx, vy, vw, vh := c.viewport[0], c.viewport[1], c.viewport[2], c.viewport[3]
	sv := make([]screenVertex, len(poly))
	for i, v := range poly {
		invW := 1 / v.pos.W
		ndc := v.pos.PerspectiveDivide()
		vary := make([]float32, len(v.varyings))
		for k, f := range v.varyings {
			vary[k] = f * float32(invW)
		}
		sv[i] = screenVertex{
			x:        (ndc.X+1)*0.5*float64(vw) + float64(vx),
			y:        (ndc.Y+1)*0.5*float64(vh) + float64(vy),
			invW:     invW,
			varyings: vary,
		}
	}

	// Facing is decided once for the whole polygon.
	area := signedArea(sv)
	if area == 0 || math.IsNaN(area) {
		return nil
	}
	ccw := area > 0
	front := ccw == (c.frontFace == gpu.CCW)
	if c.cullFace {
		switch c.cullMode {
		case gpu.Front:
			if front {
				return nil
			}
		case gpu.Back:
			if !front {
				return nil
			}
		case gpu.FrontAndBack:
			return nil
		}
	}

	var out []triangle
	for i := 1; i+1 < len(sv); i++ {
		t := triangle{v: [3]screenVertex{sv[0], sv[i], sv[i+1]}}
		if !ccw {
			t.v[1], t.v[2] = t.v[2], t.v[1]
		}
		t.minX = max(int(math.Floor(min3(t.v[0].x, t.v[1].x, t.v[2].x))), 0)
		t.maxX = min(int(math.Ceil(max3(t.v[0].x, t.v[1].x, t.v[2].x))), c.target.Width-1)
		t.minY = max(int(math.Floor(min3(t.v[0].y, t.v[1].y, t.v[2].y))), 0)
		t.maxY = min(int(math.Ceil(max3(t.v[0].y, t.v[1].y, t.v[2].y))), c.target.Height-1)
		if t.minX > t.maxX || t.minY > t.maxY {
			continue
		}
		out = append(out, t)
	}
	return out
}

// clipNear clips a convex polygon against z >= -w (Sutherland-Hodgman).
func clipNear(poly []clipVertex) []clipVertex {
	inside := func(v clipVertex) bool {
		return v.pos.Z+v.pos.W >= 0 && v.pos.W > nearEpsilon
	}
	dist := func(v clipVertex) float64 {
		return math.Min(v.pos.Z+v.pos.W, v.pos.W-nearEpsilon)
	}

	var out []clipVertex
	for i, cur := range poly {
		prev := poly[(i+len(poly)-1)%len(poly)]
		curIn, prevIn := inside(cur), inside(prev)
		if curIn != prevIn {
			dp, dc := dist(prev), dist(cur)
			out = append(out, lerpClip(prev, cur, dp/(dp-dc)))
		}
		if curIn {
			out = append(out, cur)
		}
	}
	return out
}

func lerpClip(a, b clipVertex, t float64) clipVertex {
	vary := make([]float32, len(a.varyings))
	for i := range vary {
		vary[i] = lerp(a.varyings[i], b.varyings[i], float32(t))
	}
	return clipVertex{pos: a.pos.Lerp(b.pos, t), varyings: vary}
}

func signedArea(p []screenVertex) float64 {
	var s float64
	for i := range p {
		j := (i + 1) % len(p)
		s += p[i].x*p[j].y - p[j].x*p[i].y
	}
	return s / 2
}

// shade scan-converts tris in parallel row bands and returns the number of
// fragments written.
func (c *Context) shade(env *Env, tris []triangle) int {
	if len(tris) == 0 {
		return 0
	}
	h := c.target.Height
	bands := min(c.workers, h)
	rows := (h + bands - 1) / bands
	counts := make([]int, bands)

	var g errgroup.Group
	g.SetLimit(c.workers)
	for band := range bands {
		y0, y1 := band*rows, min((band+1)*rows, h)
		g.Go(func() error {
			in := make([]float32, c.kernel.Varyings())
			for i := range tris {
				counts[band] += c.scan(env, &tris[i], y0, y1, in)
			}
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

// scan rasterizes the rows [y0, y1) of one triangle.
func (c *Context) scan(env *Env, t *triangle, y0, y1 int, in []float32) int {
	y0, y1 = max(y0, t.minY), min(y1, t.maxY+1)
	if y0 >= y1 {
		return 0
	}

	v0, v1, v2 := t.v[0], t.v[1], t.v[2]
	area := edge(v0, v1, v2.x, v2.y)
	tl0, tl1, tl2 := topLeft(v1, v2), topLeft(v2, v0), topLeft(v0, v1)

	n := 0
	for y := y0; y < y1; y++ {
		py := float64(y) + 0.5
		for x := t.minX; x <= t.maxX; x++ {
			px := float64(x) + 0.5

			w0 := edge(v1, v2, px, py)
			w1 := edge(v2, v0, px, py)
			w2 := edge(v0, v1, px, py)
			if !covers(w0, tl0) || !covers(w1, tl1) || !covers(w2, tl2) {
				continue
			}

			b0, b1, b2 := w0/area, w1/area, w2/area
			invW := b0*v0.invW + b1*v1.invW + b2*v2.invW
			if invW == 0 {
				continue
			}
			for k := range in {
				in[k] = float32((b0*float64(v0.varyings[k]) + b1*float64(v1.varyings[k]) + b2*float64(v2.varyings[k])) / invW)
			}

			src, keep := c.kernel.Fragment(env, in)
			if !keep {
				continue
			}
			c.blendPixel(x, y, src)
			n++
		}
	}
	return n
}

// edge is twice the signed area of (a, b, p); positive when p is left of
// a->b in a y-up frame.
func edge(a, b screenVertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// topLeft reports whether a->b is a top or left edge of a CCW triangle in
// y-up window coordinates. Pixels exactly on such edges are owned by this
// triangle, so shared strip edges are shaded once.
func topLeft(a, b screenVertex) bool {
	dx, dy := b.x-a.x, b.y-a.y
	return dy < 0 || (dy == 0 && dx < 0)
}

func covers(w float64, tl bool) bool {
	return w > 0 || (w == 0 && tl)
}

func (c *Context) blendPixel(x, y int, src [4]float32) {
	if !c.blend {
		c.target.set(x, y, [4]float32{clamp01(src[0]), clamp01(src[1]), clamp01(src[2]), clamp01(src[3])})
		return
	}
	dst := c.target.At(x, y)
	fs := factor(c.blendSrc, src)
	fd := factor(c.blendDst, src)
	var out [4]float32
	for i := range out {
		out[i] = clamp01(src[i]*fs + dst[i]*fd)
	}
	c.target.set(x, y, out)
}

func factor(f gpu.Enum, src [4]float32) float32 {
	switch f {
	case gpu.One:
		return 1
	case gpu.SrcAlpha:
		return src[3]
	case gpu.OneMinusSrcAlpha:
		return 1 - src[3]
	}
	return 0
}

func min3(a, b, c float64) float64 { return math.Min(a, math.Min(b, c)) }
func max3(a, b, c float64) float64 { return math.Max(a, math.Max(b, c)) }
