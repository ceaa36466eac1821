package softgl

import (
	"math"

	"github.com/taigrr/volshade/pkg/gpu"
	"github.com/taigrr/volshade/pkg/math3d"
)

// maxMarchSteps bounds a single ray so a tiny dt_scale cannot stall a draw.
const maxMarchSteps = 1 << 14

// Kernel stands in for the vertex and fragment stages of a linked program.
// Implementations must be safe for concurrent Fragment calls.
type Kernel interface {
	// Varyings is the number of floats passed from Vertex to Fragment.
	Varyings() int

	// Vertex returns the clip-space position of pos and writes the
	// varyings into out.
	Vertex(env *Env, pos [3]float32, out []float32) math3d.Vec4

	// Fragment shades one fragment from interpolated varyings. Returning
	// false discards it.
	Fragment(env *Env, in []float32) ([4]float32, bool)
}

// Env gives a kernel read access to the current program's uniforms and the
// textures its samplers point at.
type Env struct {
	c    *Context
	prog *program
}

func (e *Env) value(name, typ string) (*uniformValue, bool) {
	i, ok := e.prog.index[name]
	if !ok || e.prog.uniforms[i].Type != typ {
		return nil, false
	}
	return &e.prog.values[i], true
}

// Mat4 returns a mat4 uniform, or the zero matrix.
func (e *Env) Mat4(name string) math3d.Mat4 {
	var m math3d.Mat4
	if v, ok := e.value(name, "mat4"); ok {
		for i, f := range v.f {
			m[i] = float64(f)
		}
	}
	return m
}

// Vec3 returns a vec3 uniform, or zero.
func (e *Env) Vec3(name string) math3d.Vec3 {
	if v, ok := e.value(name, "vec3"); ok {
		return math3d.Vec3FromFloat32([3]float32{v.f[0], v.f[1], v.f[2]})
	}
	return math3d.Vec3{}
}

// IVec3 returns an ivec3 uniform, or zero.
func (e *Env) IVec3(name string) [3]int32 {
	if v, ok := e.value(name, "ivec3"); ok {
		return v.i
	}
	return [3]int32{}
}

// Float returns a float uniform, or zero.
func (e *Env) Float(name string) float64 {
	if v, ok := e.value(name, "float"); ok {
		return float64(v.f[0])
	}
	return 0
}

// Sample reads the sampler uniform name and samples the texture bound to
// its unit. Unbound or incomplete textures sample as opaque black.
func (e *Env) Sample(name string, u, v, w float64) [4]float32 {
	i, ok := e.prog.index[name]
	if !ok {
		return [4]float32{0, 0, 0, 1}
	}
	unit := int(e.prog.values[i].i[0])
	if unit < 0 || unit >= MaxTextureUnits {
		return [4]float32{0, 0, 0, 1}
	}

	var tex gpu.Texture
	switch e.prog.uniforms[i].Type {
	case "sampler2D":
		tex = e.c.units[unit].tex2D
	case "sampler3D":
		tex = e.c.units[unit].tex3D
	}
	t := e.c.textures[tex]
	if t == nil {
		return [4]float32{0, 0, 0, 1}
	}
	return t.sample(u, v, w)
}

// VolumeKernel ray-marches a 3-D density texture through a colormap with
// front-to-back compositing.
//
// Uniforms: proj_view, eye_pos, volume_scale, volume_dims, dt_scale and the
// samplers volume (3-D) and colormap (2-D).
type VolumeKernel struct{}

// Varyings are the ray direction and the eye position in volume space.
func (VolumeKernel) Varyings() int { return 6 }

func (VolumeKernel) Vertex(env *Env, pos [3]float32, out []float32) math3d.Vec4 {
	scale := env.Vec3("volume_scale")
	translation := math3d.Splat3(0.5).Sub(scale.Scale(0.5))

	p := math3d.Vec3FromFloat32(pos)
	world := p.Mul(scale).Add(translation)
	clip := env.Mat4("proj_view").MulVec4(math3d.V4FromV3(world, 1))

	eye := env.Vec3("eye_pos").Sub(translation).Div(scale)
	dir := p.Sub(eye)

	d, e := dir.Float32(), eye.Float32()
	copy(out[0:3], d[:])
	copy(out[3:6], e[:])
	return clip
}

func (VolumeKernel) Fragment(env *Env, in []float32) ([4]float32, bool) {
	dir := math3d.Vec3FromFloat32([3]float32{in[0], in[1], in[2]}).Normalize()
	eye := math3d.Vec3FromFloat32([3]float32{in[3], in[4], in[5]})

	t0, t1, hit := intersectUnitBox(eye, dir)
	if !hit {
		return [4]float32{}, false
	}
	t0 = math.Max(t0, 0)

	dims := env.IVec3("volume_dims")
	dtScale := env.Float("dt_scale")
	dtVec := math3d.V3(float64(dims[0]), float64(dims[1]), float64(dims[2])).Mul(dir.Abs())
	dt := dtScale / dtVec.MaxComponent()
	if !(dt > 0) {
		return [4]float32{}, true
	}

	p := eye.Add(dir.Scale(t0))
	var r, g, b, a float64
	steps := 0
	for t := t0; t < t1 && steps < maxMarchSteps; t += dt {
		val := float64(env.Sample("volume", p.X, p.Y, p.Z)[0])
		cm := env.Sample("colormap", val, 0.5, 0.5)

		// Opacity correction for the sampling rate.
		alpha := 1 - math.Pow(1-val, dtScale)
		w := (1 - a) * alpha
		r += w * float64(cm[0])
		g += w * float64(cm[1])
		b += w * float64(cm[2])
		a += w
		if a >= 0.95 {
			break
		}
		p = p.Add(dir.Scale(dt))
		steps++
	}
	return [4]float32{float32(r), float32(g), float32(b), float32(a)}, true
}

// intersectUnitBox clips the ray orig + t*dir against [0,1]^3.
func intersectUnitBox(orig, dir math3d.Vec3) (t0, t1 float64, hit bool) {
	t0, t1 = math.Inf(-1), math.Inf(1)
	o := [3]float64{orig.X, orig.Y, orig.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	for i := range 3 {
		if d[i] == 0 {
			if o[i] < 0 || o[i] > 1 {
				return 0, 0, false
			}
			continue
		}
		inv := 1 / d[i]
		near, far := -o[i]*inv, (1-o[i])*inv
		if near > far {
			near, far = far, near
		}
		t0 = math.Max(t0, near)
		t1 = math.Min(t1, far)
	}
	return t0, t1, t0 <= t1
}
