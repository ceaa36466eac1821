// Package softgl is a CPU implementation of gpu.Context.
//
// It keeps GL object tables and fixed-function state, checks GLSL sources
// with a small front-end, and rasterizes triangle strips into an RGBA
// float colour buffer. Shader bodies are not interpreted; a linked program
// runs the context's Kernel, which reads the program's uniforms by name.
package softgl

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/taigrr/volshade/pkg/gpu"
)

// Limits reported by the context.
const (
	MaxTextureUnits   = 16
	MaxTextureSize    = 4096
	Max3DTextureSize  = 2048
	maxVertexAttribs  = 16
	defaultDrawWidth  = 300
	defaultDrawHeight = 150
)

// Stats counts work done by the context.
type Stats struct {
	DrawCalls      int
	Vertices       int
	Triangles      int
	Fragments      int
	Finishes       int
	Clears         int
	TexelsUploaded int
}

// Context is a software WebGL2 context. Like a GL context it must only be
// used from one goroutine.
type Context struct {
	next   uint32
	limit  int
	logger *zap.Logger

	vaos     map[gpu.VertexArray]*vertexArray
	buffers  map[gpu.Buffer]*buffer
	shaders  map[gpu.Shader]*shader
	programs map[gpu.Program]*program
	textures map[gpu.Texture]*texture

	boundVAO        gpu.VertexArray
	boundArray      gpu.Buffer
	current         gpu.Program
	activeUnit      int
	units           [MaxTextureUnits]textureUnit
	unpackAlignment int
	max3DSize       int

	cullFace  bool
	blend     bool
	depthTest bool
	cullMode  gpu.Enum
	frontFace gpu.Enum
	blendSrc  gpu.Enum
	blendDst  gpu.Enum

	viewport   [4]int
	clearColor [4]float32
	target     *Target

	kernel  Kernel
	workers int

	errs  []gpu.Enum
	stats Stats
}

var _ gpu.Context = (*Context)(nil)

type textureUnit struct {
	tex2D gpu.Texture
	tex3D gpu.Texture
}

// Option configures a Context.
type Option func(*Context)

// WithKernel sets the program executed by draw calls. The default is the
// volume ray marcher.
func WithKernel(k Kernel) Option {
	return func(c *Context) {
		c.kernel = k
	}
}

// WithWorkers sets how many row bands are shaded in parallel.
func WithWorkers(n int) Option {
	return func(c *Context) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithObjectLimit makes object creation return the zero handle once n
// objects are alive, the way a context that ran out of memory would.
func WithObjectLimit(n int) Option {
	return func(c *Context) {
		c.limit = n
	}
}

// WithMax3DTextureSize lowers the largest accepted 3-D texture extent.
func WithMax3DTextureSize(n int) Option {
	return func(c *Context) {
		c.max3DSize = n
	}
}

// WithLogger sets the logger used for GL errors.
func WithLogger(l *zap.Logger) Option {
	return func(c *Context) {
		c.logger = l
	}
}

// New creates a context with a width x height drawing buffer.
func New(width, height int, opts ...Option) *Context {
	if width <= 0 || height <= 0 {
		width, height = defaultDrawWidth, defaultDrawHeight
	}
	c := &Context{
		logger:          zap.NewNop(),
		vaos:            make(map[gpu.VertexArray]*vertexArray),
		buffers:         make(map[gpu.Buffer]*buffer),
		shaders:         make(map[gpu.Shader]*shader),
		programs:        make(map[gpu.Program]*program),
		textures:        make(map[gpu.Texture]*texture),
		unpackAlignment: 4,
		max3DSize:       Max3DTextureSize,
		cullMode:        gpu.Back,
		frontFace:       gpu.CCW,
		blendSrc:        gpu.One,
		blendDst:        gpu.Zero,
		viewport:        [4]int{0, 0, width, height},
		target:          NewTarget(width, height),
		kernel:          VolumeKernel{},
		workers:         runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resize replaces the drawing buffer, like resizing a canvas. The viewport
// is left alone.
func (c *Context) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.target = NewTarget(width, height)
}

// Target returns the drawing buffer.
func (c *Context) Target() *Target {
	return c.target
}

// Stats returns the counters accumulated so far.
func (c *Context) Stats() Stats {
	return c.stats
}

// Live returns the number of objects that have not been deleted.
func (c *Context) Live() int {
	return len(c.vaos) + len(c.buffers) + len(c.shaders) + len(c.programs) + len(c.textures)
}

// Enabled reports whether a capability is on.
func (c *Context) Enabled(capability gpu.Enum) bool {
	switch capability {
	case gpu.CullFace:
		return c.cullFace
	case gpu.Blend:
		return c.blend
	case gpu.DepthTest:
		return c.depthTest
	}
	return false
}

// CullMode returns the face selected by CullFace.
func (c *Context) CullMode() gpu.Enum { return c.cullMode }

// BlendFuncs returns the source and destination blend factors.
func (c *Context) BlendFuncs() (src, dst gpu.Enum) { return c.blendSrc, c.blendDst }

// ViewportRect returns x, y, width, height of the viewport.
func (c *Context) ViewportRect() [4]int { return c.viewport }

// BoundTexture returns the texture bound to target on unit
// (gpu.Texture0+n).
func (c *Context) BoundTexture(unit, target gpu.Enum) gpu.Texture {
	n := int(unit - gpu.Texture0)
	if n < 0 || n >= MaxTextureUnits {
		return 0
	}
	if target == gpu.Texture3D {
		return c.units[n].tex3D
	}
	return c.units[n].tex2D
}

// CurrentProgram returns the program installed by UseProgram.
func (c *Context) CurrentProgram() gpu.Program { return c.current }

func (c *Context) alloc() (uint32, bool) {
	if c.limit > 0 && c.Live() >= c.limit {
		c.setError(gpu.OutOfMemory)
		return 0, false
	}
	c.next++
	return c.next, true
}

// setError records err unless an error is already pending for that code.
func (c *Context) setError(err gpu.Enum) {
	for _, e := range c.errs {
		if e == err {
			return
		}
	}
	c.logger.Debug("gl error", zap.Stringer("code", err))
	c.errs = append(c.errs, err)
}

// GetError returns and clears the oldest pending error.
func (c *Context) GetError() gpu.Enum {
	if len(c.errs) == 0 {
		return gpu.NoError
	}
	err := c.errs[0]
	c.errs = c.errs[1:]
	return err
}

func (c *Context) Enable(capability gpu.Enum) {
	c.setCapability(capability, true)
}

func (c *Context) Disable(capability gpu.Enum) {
	c.setCapability(capability, false)
}

func (c *Context) setCapability(capability gpu.Enum, on bool) {
	switch capability {
	case gpu.CullFace:
		c.cullFace = on
	case gpu.Blend:
		c.blend = on
	case gpu.DepthTest:
		// No depth buffer; the state is tracked for queries only.
		c.depthTest = on
	default:
		c.setError(gpu.InvalidEnum)
	}
}

func (c *Context) CullFace(mode gpu.Enum) {
	switch mode {
	case gpu.Front, gpu.Back, gpu.FrontAndBack:
		c.cullMode = mode
	default:
		c.setError(gpu.InvalidEnum)
	}
}

func (c *Context) FrontFace(mode gpu.Enum) {
	switch mode {
	case gpu.CW, gpu.CCW:
		c.frontFace = mode
	default:
		c.setError(gpu.InvalidEnum)
	}
}

func (c *Context) BlendFunc(src, dst gpu.Enum) {
	if !validBlendFactor(src) || !validBlendFactor(dst) {
		c.setError(gpu.InvalidEnum)
		return
	}
	c.blendSrc, c.blendDst = src, dst
}

func validBlendFactor(f gpu.Enum) bool {
	switch f {
	case gpu.Zero, gpu.One, gpu.SrcAlpha, gpu.OneMinusSrcAlpha:
		return true
	}
	return false
}

func (c *Context) Viewport(x, y, width, height int) {
	if width < 0 || height < 0 {
		c.setError(gpu.InvalidValue)
		return
	}
	c.viewport = [4]int{x, y, width, height}
}

func (c *Context) ClearColor(r, g, b, a float32) {
	c.clearColor = [4]float32{clamp01(r), clamp01(g), clamp01(b), clamp01(a)}
}

func (c *Context) Clear(mask gpu.Enum) {
	if mask&^(gpu.ColorBufferBit|gpu.DepthBufferBit) != 0 {
		c.setError(gpu.InvalidValue)
		return
	}
	c.stats.Clears++
	if mask&gpu.ColorBufferBit != 0 {
		c.target.Fill(c.clearColor)
	}
}

// Finish is a no-op beyond counting: draws complete before DrawArrays
// returns.
func (c *Context) Finish() {
	c.stats.Finishes++
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
