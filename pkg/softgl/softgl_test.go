package softgl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/volshade/pkg/gpu"
	"github.com/taigrr/volshade/pkg/math3d"
	"github.com/taigrr/volshade/pkg/shaders"
)

const (
	passVS = "#version 300 es\nlayout(location=0) in vec3 pos;\nvoid main() {\n\tgl_Position = vec4(pos, 1.0);\n}\n"
	flatFS = "#version 300 es\nprecision highp float;\nout vec4 color;\nvoid main() {\n\tcolor = vec4(1.0);\n}\n"
)

// flatKernel passes positions straight through as NDC and shades a
// constant colour.
type flatKernel struct {
	color [4]float32
}

func (flatKernel) Varyings() int { return 0 }

func (flatKernel) Vertex(_ *Env, pos [3]float32, _ []float32) math3d.Vec4 {
	return math3d.V4FromV3(math3d.Vec3FromFloat32(pos), 1)
}

func (k flatKernel) Fragment(_ *Env, _ []float32) ([4]float32, bool) {
	return k.color, true
}

func compile(t *testing.T, c *Context, stage gpu.Enum, src string) gpu.Shader {
	t.Helper()
	sh := c.CreateShader(stage)
	require.NotZero(t, sh)
	c.ShaderSource(sh, src)
	c.CompileShader(sh)
	require.True(t, c.ShaderCompileStatus(sh), c.ShaderInfoLog(sh))
	return sh
}

func link(t *testing.T, c *Context, vs, fs string) gpu.Program {
	t.Helper()
	p := c.CreateProgram()
	c.AttachShader(p, compile(t, c, gpu.VertexShader, vs))
	c.AttachShader(p, compile(t, c, gpu.FragmentShader, fs))
	c.LinkProgram(p)
	require.True(t, c.ProgramLinkStatus(p), c.ProgramInfoLog(p))
	c.UseProgram(p)
	return p
}

func upload(t *testing.T, c *Context, positions []float32) {
	t.Helper()
	vao := c.CreateVertexArray()
	c.BindVertexArray(vao)
	vbo := c.CreateBuffer()
	c.BindBuffer(gpu.ArrayBuffer, vbo)
	c.BufferData(gpu.ArrayBuffer, positions, gpu.StaticDraw)
	c.EnableVertexAttribArray(0)
	c.VertexAttribPointer(0, 3, gpu.Float, false, 0, 0)
	require.Equal(t, gpu.NoError, c.GetError())
}

func TestCompileDiagnostics(t *testing.T) {
	tests := []struct {
		name  string
		stage gpu.Enum
		src   string
		want  string
	}{
		{"missing version", gpu.VertexShader, "void main() {}\n", "version directive"},
		{"desktop version", gpu.VertexShader, "#version 410 core\nvoid main() {}\n", "version directive"},
		{"missing main", gpu.VertexShader, "#version 300 es\nvoid helper() {}\n", "'main'"},
		{"unbalanced", gpu.VertexShader, "#version 300 es\nvoid main() {\n", "unbalanced"},
		{"unknown uniform type", gpu.VertexShader, "#version 300 es\nuniform quat q;\nvoid main() { q; }\n", "unknown type"},
		{"fragment without output", gpu.FragmentShader, "#version 300 es\nvoid main() {}\n", "no output"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := New(8, 8)
			sh := c.CreateShader(tc.stage)
			c.ShaderSource(sh, tc.src)
			c.CompileShader(sh)

			assert.False(t, c.ShaderCompileStatus(sh))
			assert.Contains(t, c.ShaderInfoLog(sh), "ERROR: 0:")
			assert.Contains(t, c.ShaderInfoLog(sh), tc.want)
		})
	}
}

func TestCommentsAreIgnored(t *testing.T) {
	c := New(8, 8)
	src := "#version 300 es\n// uniform float ghost;\n/* void main() { */\nvoid main() {}\n"
	sh := compile(t, c, gpu.VertexShader, src)
	assert.Empty(t, c.ShaderInfoLog(sh))
}

func TestDefaultShadersLink(t *testing.T) {
	c := New(8, 8)
	src := shaders.Default()
	p := link(t, c, src.Vertex, src.Fragment)

	for _, name := range []string{"proj_view", "eye_pos", "colormap", "volume", "volume_dims", "volume_scale", "dt_scale"} {
		assert.NotEqual(t, gpu.NoUniform, c.GetUniformLocation(p, name), name)
	}
	assert.Equal(t, gpu.NoUniform, c.GetUniformLocation(p, "not_there"))
}

func TestLinkVaryingMismatch(t *testing.T) {
	c := New(8, 8)
	fs := "#version 300 es\nprecision highp float;\nin vec3 vray_dir;\nout vec4 color;\nvoid main() { color = vec4(vray_dir, 1.0); }\n"

	p := c.CreateProgram()
	c.AttachShader(p, compile(t, c, gpu.VertexShader, passVS))
	c.AttachShader(p, compile(t, c, gpu.FragmentShader, fs))
	c.LinkProgram(p)

	assert.False(t, c.ProgramLinkStatus(p))
	assert.Contains(t, c.ProgramInfoLog(p), "vray_dir")

	c.UseProgram(p)
	assert.Equal(t, gpu.InvalidOperation, c.GetError())
}

func TestInactiveUniformHasNoLocation(t *testing.T) {
	c := New(8, 8)
	fs := "#version 300 es\nprecision highp float;\nuniform float dt_scale;\nout vec4 color;\nvoid main() { color = vec4(1.0); }\n"
	p := link(t, c, passVS, fs)
	assert.Equal(t, gpu.NoUniform, c.GetUniformLocation(p, "dt_scale"))
}

func TestUniformTypeChecks(t *testing.T) {
	c := New(8, 8)
	src := shaders.Default()
	p := link(t, c, src.Vertex, src.Fragment)

	c.Uniform1f(c.GetUniformLocation(p, "dt_scale"), 1)
	assert.Equal(t, gpu.NoError, c.GetError())

	c.Uniform1f(c.GetUniformLocation(p, "volume_dims"), 1)
	assert.Equal(t, gpu.InvalidOperation, c.GetError())

	// -1 is silently ignored.
	c.Uniform1f(gpu.NoUniform, 1)
	assert.Equal(t, gpu.NoError, c.GetError())
}

func TestObjectLimit(t *testing.T) {
	c := New(8, 8, WithObjectLimit(2))
	assert.NotZero(t, c.CreateVertexArray())
	assert.NotZero(t, c.CreateBuffer())
	assert.Zero(t, c.CreateTexture())
	assert.Equal(t, gpu.OutOfMemory, c.GetError())
	assert.Equal(t, 2, c.Live())
}

func TestTexImageValidation(t *testing.T) {
	tests := []struct {
		name      string
		alignment int
		dims      [3]int
		pixels    int
		want      gpu.Enum
	}{
		{"tight", 1, [3]int{3, 3, 3}, 27, gpu.NoError},
		{"padded rows", 4, [3]int{3, 3, 3}, 4*8 + 3, gpu.NoError},
		{"padded rows short", 4, [3]int{3, 3, 3}, 27, gpu.InvalidOperation},
		{"too large", 1, [3]int{4096, 1, 1}, 4096, gpu.InvalidValue},
		{"zero extent", 1, [3]int{0, 1, 1}, 0, gpu.InvalidValue},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := New(8, 8)
			tex := c.CreateTexture()
			c.ActiveTexture(gpu.Texture0)
			c.BindTexture(gpu.Texture3D, tex)
			c.PixelStorei(gpu.UnpackAlignment, tc.alignment)
			c.TexImage3D(gpu.Texture3D, 0, gpu.R8, tc.dims[0], tc.dims[1], tc.dims[2], gpu.Red, gpu.UnsignedByte, make([]byte, tc.pixels))
			assert.Equal(t, tc.want, c.GetError())
		})
	}
}

func TestTextureTargetIsSticky(t *testing.T) {
	c := New(8, 8)
	tex := c.CreateTexture()
	c.BindTexture(gpu.Texture2D, tex)
	c.BindTexture(gpu.Texture3D, tex)
	assert.Equal(t, gpu.InvalidOperation, c.GetError())
}

func TestSampling(t *testing.T) {
	tex := &texture{
		width: 2, height: 1, depth: 1, channels: 1,
		data:      []float32{0, 1},
		minFilter: gpu.Linear, magFilter: gpu.Linear,
		wrapS: gpu.ClampToEdge, wrapT: gpu.ClampToEdge, wrapR: gpu.ClampToEdge,
	}

	assert.InDelta(t, 0.5, tex.sample(0.5, 0.5, 0.5)[0], 1e-6)
	assert.InDelta(t, 0.0, tex.sample(0, 0.5, 0.5)[0], 1e-6)
	assert.InDelta(t, 1.0, tex.sample(1, 0.5, 0.5)[0], 1e-6)
	assert.Equal(t, float32(1), tex.sample(0.5, 0.5, 0.5)[3])

	tex.minFilter = nearestMipmapLinear
	assert.Equal(t, [4]float32{0, 0, 0, 1}, tex.sample(0.5, 0.5, 0.5), "incomplete textures sample black")
}

// quad covers the whole viewport as a CCW strip.
var quad = []float32{
	-1, -1, 0,
	1, -1, 0,
	-1, 1, 0,
	1, 1, 0,
}

func TestDrawFillsViewport(t *testing.T) {
	c := New(16, 8, WithKernel(flatKernel{color: [4]float32{1, 0, 0, 1}}), WithWorkers(3))
	link(t, c, passVS, flatFS)
	upload(t, c, quad)

	c.ClearColor(0, 0, 1, 1)
	c.Clear(gpu.ColorBufferBit)
	c.DrawArrays(gpu.TriangleStrip, 0, 4)
	require.Equal(t, gpu.NoError, c.GetError())

	st := c.Stats()
	assert.Equal(t, 1, st.DrawCalls)
	assert.Equal(t, 2, st.Triangles)
	// Shared diagonal pixels are shaded once.
	assert.Equal(t, 16*8, st.Fragments)
	for y := range 8 {
		for x := range 16 {
			require.Equal(t, [4]float32{1, 0, 0, 1}, c.Target().At(x, y))
		}
	}
}

func TestCulling(t *testing.T) {
	tests := []struct {
		name     string
		cull     bool
		mode     gpu.Enum
		reversed bool
		drawn    bool
	}{
		{"no culling", false, gpu.Back, false, true},
		{"cull back keeps ccw", true, gpu.Back, false, true},
		{"cull front drops ccw", true, gpu.Front, false, false},
		{"cull front keeps cw", true, gpu.Front, true, true},
		{"cull both", true, gpu.FrontAndBack, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := New(8, 8, WithKernel(flatKernel{color: [4]float32{1, 1, 1, 1}}))
			link(t, c, passVS, flatFS)
			tri := []float32{-1, -1, 0, 1, -1, 0, -1, 1, 0}
			if tc.reversed {
				tri = []float32{-1, -1, 0, -1, 1, 0, 1, -1, 0}
			}
			upload(t, c, tri)
			if tc.cull {
				c.Enable(gpu.CullFace)
			}
			c.CullFace(tc.mode)
			c.DrawArrays(gpu.Triangles, 0, 3)

			assert.Equal(t, tc.drawn, c.Stats().Fragments > 0)
		})
	}
}

func TestBlendPremultipliedOver(t *testing.T) {
	c := New(4, 4, WithKernel(flatKernel{color: [4]float32{0.25, 0, 0, 0.5}}))
	link(t, c, passVS, flatFS)
	upload(t, c, quad)

	c.ClearColor(1, 1, 1, 1)
	c.Clear(gpu.ColorBufferBit)
	c.Enable(gpu.Blend)
	c.BlendFunc(gpu.One, gpu.OneMinusSrcAlpha)
	c.DrawArrays(gpu.TriangleStrip, 0, 4)

	got := c.Target().At(1, 1)
	assert.InDelta(t, 0.75, got[0], 1e-6)
	assert.InDelta(t, 0.5, got[1], 1e-6)
	assert.InDelta(t, 1.0, got[3], 1e-6)
}

func TestNearPlaneClipping(t *testing.T) {
	// One vertex behind the eye; the visible part must still be drawn
	// without blowing up on w <= 0.
	k := clipKernel{}
	c := New(8, 8, WithKernel(k))
	link(t, c, passVS, flatFS)
	upload(t, c, []float32{-1, -1, 1, 1, -1, 1, 0, 1, -1})
	c.DrawArrays(gpu.Triangles, 0, 3)

	require.Equal(t, gpu.NoError, c.GetError())
	assert.Positive(t, c.Stats().Fragments)
}

// clipKernel uses z as w so z <= 0 lands behind the eye.
type clipKernel struct{}

func (clipKernel) Varyings() int { return 0 }

func (clipKernel) Vertex(_ *Env, pos [3]float32, _ []float32) math3d.Vec4 {
	return math3d.V4(float64(pos[0]), float64(pos[1]), 0, float64(pos[2]))
}

func (clipKernel) Fragment(_ *Env, _ []float32) ([4]float32, bool) {
	return [4]float32{1, 1, 1, 1}, true
}

func TestDrawErrors(t *testing.T) {
	c := New(4, 4)
	c.DrawArrays(gpu.TriangleStrip, 0, 4)
	assert.Equal(t, gpu.InvalidOperation, c.GetError(), "no program")

	link(t, c, passVS, flatFS)
	upload(t, c, quad)
	c.DrawArrays(gpu.TriangleStrip, 0, 5)
	assert.Equal(t, gpu.InvalidOperation, c.GetError(), "reads past the buffer")

	c.DrawArrays(gpu.Enum(0x0001), 0, 4)
	assert.Equal(t, gpu.InvalidEnum, c.GetError())
	assert.Zero(t, c.Stats().DrawCalls)
}

func TestDeleteReleasesObjects(t *testing.T) {
	c := New(4, 4)
	vao := c.CreateVertexArray()
	buf := c.CreateBuffer()
	tex := c.CreateTexture()
	c.BindTexture(gpu.Texture2D, tex)

	c.DeleteVertexArray(vao)
	c.DeleteBuffer(buf)
	c.DeleteTexture(tex)
	c.DeleteTexture(tex)

	assert.Zero(t, c.Live())
	assert.Zero(t, c.BoundTexture(gpu.Texture0, gpu.Texture2D))
}

func TestTargetImageIsTopDown(t *testing.T) {
	tg := NewTarget(1, 2)
	tg.set(0, 0, [4]float32{1, 0, 0, 1}) // bottom row
	img := tg.Image()
	assert.Equal(t, uint8(255), img.RGBAAt(0, 1).R)
	assert.Equal(t, uint8(0), img.RGBAAt(0, 0).R)
}
