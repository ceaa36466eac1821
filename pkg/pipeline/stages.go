// Package pipeline drives a graphics context through the setup steps of the
// volume renderer.
//
// Each step is a distinct type and only exposes the operations valid at
// that point:
//
//	Empty -> VertexInitialised -> ProgramCompiled -> ProgramCompiledWithTextures -> Ready
//
// Advancing consumes the receiver: it gives up its context and returns
// ErrStageConsumed from then on. A failed step releases every GPU object
// created so far and returns a nil next stage, so a retry starts from a
// fresh Empty.
package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/taigrr/volshade/pkg/gpu"
	"github.com/taigrr/volshade/pkg/volume"
)

// Stage is implemented by every pipeline stage.
type Stage interface {
	// Name identifies the stage in logs.
	Name() string
	sealed()
}

// core is the part every stage carries. A nil gl marks it consumed.
type core struct {
	gl   gpu.Context
	opts options
	res  resources
}

func (c *core) sealed() {}

// take hands the context to the next stage and consumes this one.
func (c *core) take() (gpu.Context, error) {
	if c.gl == nil {
		return nil, ErrStageConsumed
	}
	gl := c.gl
	c.gl = nil
	return gl, nil
}

// fail releases everything owned so far. The stage is already consumed.
func (c *core) fail(gl gpu.Context, stage string, err error) error {
	c.res.release(gl)
	c.opts.logger.Warn("pipeline step failed", zap.String("stage", stage), zap.Error(err))
	return err
}

// Empty is a pipeline with no GPU objects.
type Empty struct{ core }

// VertexInitialised owns the cube geometry.
type VertexInitialised struct{ core }

// ProgramCompiled additionally owns the linked program and its uniform
// locations.
type ProgramCompiled struct{ core }

// ProgramCompiledWithTextures additionally owns the colormap and density
// textures.
type ProgramCompiledWithTextures struct{ core }

var (
	_ Stage = (*Empty)(nil)
	_ Stage = (*VertexInitialised)(nil)
	_ Stage = (*ProgramCompiled)(nil)
	_ Stage = (*ProgramCompiledWithTextures)(nil)
	_ Stage = (*Ready)(nil)
)

func (*Empty) Name() string                       { return "empty" }
func (*VertexInitialised) Name() string           { return "vertex_initialised" }
func (*ProgramCompiled) Name() string             { return "program_compiled" }
func (*ProgramCompiledWithTextures) Name() string { return "program_compiled_with_textures" }

// New starts a pipeline on gl.
func New(gl gpu.Context, opts ...Option) *Empty {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Empty{core{gl: gl, opts: o}}
}

// Init uploads positions (x, y, z triples) into a new vertex buffer bound
// to attribute 0.
func (e *Empty) Init(positions []float32) (*VertexInitialised, error) {
	gl, err := e.take()
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 || len(positions)%3 != 0 {
		return nil, e.fail(gl, e.Name(), fmt.Errorf("init vertices: %w (got %d)", ErrGeometry, len(positions)))
	}
	drainErrors(gl)

	vao := gl.CreateVertexArray()
	if vao == 0 {
		return nil, e.fail(gl, e.Name(), fmt.Errorf("create vertex array: %w", ErrAllocation))
	}
	e.res.vao = vao
	gl.BindVertexArray(vao)

	vbo := gl.CreateBuffer()
	if vbo == 0 {
		return nil, e.fail(gl, e.Name(), fmt.Errorf("create vertex buffer: %w", ErrAllocation))
	}
	e.res.vbo = vbo
	gl.BindBuffer(gpu.ArrayBuffer, vbo)
	gl.BufferData(gpu.ArrayBuffer, positions, gpu.StaticDraw)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gpu.Float, false, 0, 0)
	if err := checkError(gl, ErrAllocation, "upload vertices"); err != nil {
		return nil, e.fail(gl, e.Name(), err)
	}
	e.res.vertexCount = len(positions) / 3

	next := &VertexInitialised{core{gl: gl, opts: e.opts, res: e.res}}
	e.opts.logger.Debug("pipeline advanced", zap.String("stage", next.Name()), zap.Int("vertices", e.res.vertexCount))
	return next, nil
}

// AssembleProgram compiles and links the two shader stages, resolves the
// seven uniforms and installs the program.
func (v *VertexInitialised) AssembleProgram(vertexSrc, fragmentSrc string) (*ProgramCompiled, error) {
	gl, err := v.take()
	if err != nil {
		return nil, err
	}
	drainErrors(gl)

	vs, err := compileShader(gl, gpu.VertexShader, vertexSrc)
	if err != nil {
		return nil, v.fail(gl, v.Name(), err)
	}
	defer gl.DeleteShader(vs)

	fs, err := compileShader(gl, gpu.FragmentShader, fragmentSrc)
	if err != nil {
		return nil, v.fail(gl, v.Name(), err)
	}
	defer gl.DeleteShader(fs)

	prog := gl.CreateProgram()
	if prog == 0 {
		return nil, v.fail(gl, v.Name(), fmt.Errorf("create program: %w", ErrAllocation))
	}
	v.res.program = prog
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)
	if !gl.ProgramLinkStatus(prog) {
		return nil, v.fail(gl, v.Name(), fmt.Errorf("link program: %w: %s", ErrLink, gl.ProgramInfoLog(prog)))
	}

	locs, err := resolveLocations(gl, prog)
	if err != nil {
		return nil, v.fail(gl, v.Name(), err)
	}
	v.res.locs = locs
	gl.UseProgram(prog)
	if err := checkError(gl, ErrLink, "use program"); err != nil {
		return nil, v.fail(gl, v.Name(), err)
	}

	next := &ProgramCompiled{core{gl: gl, opts: v.opts, res: v.res}}
	v.opts.logger.Debug("pipeline advanced", zap.String("stage", next.Name()))
	return next, nil
}

func compileShader(gl gpu.Context, typ gpu.Enum, src string) (gpu.Shader, error) {
	sh := gl.CreateShader(typ)
	if sh == 0 {
		return 0, fmt.Errorf("create %s shader: %w", stageName(typ), ErrAllocation)
	}
	gl.ShaderSource(sh, src)
	gl.CompileShader(sh)
	if !gl.ShaderCompileStatus(sh) {
		log := gl.ShaderInfoLog(sh)
		gl.DeleteShader(sh)
		return 0, &ShaderError{Stage: stageName(typ), Log: log}
	}
	return sh, nil
}

// Init binds the samplers to their units (volume 0, colormap 1), sets
// dt_scale, and enables front-face culling and premultiplied-alpha
// blending. Calling it again has no further effect.
func (p *ProgramCompiled) Init() error {
	if p.gl == nil {
		return ErrStageConsumed
	}
	drainErrors(p.gl)
	p.res.applyProgramState(p.gl, p.opts)
	if err := checkError(p.gl, ErrState, "initialise program"); err != nil {
		return err
	}
	p.res.initialised = true
	return nil
}

// BuildTextures uploads the 256x1 RGBA colormap on unit 1 and the density
// volume on unit 0. density is padded with zeros or truncated to
// dims.Len() bytes.
func (p *ProgramCompiled) BuildTextures(colormap, density []byte, dims volume.Dims) (*ProgramCompiledWithTextures, error) {
	gl, err := p.take()
	if err != nil {
		return nil, err
	}
	if len(colormap) != 256*4 {
		return nil, p.fail(gl, p.Name(), fmt.Errorf("build textures: %w (got %d bytes)", ErrColormapSize, len(colormap)))
	}
	// Checked before fitDensity allocates dims.Len() bytes.
	if !dims.Within(p.opts.maxExtent) {
		return nil, p.fail(gl, p.Name(), fmt.Errorf("build textures: %w (%s, max %d)", ErrDims, dims, p.opts.maxExtent))
	}
	if !p.res.initialised {
		// Samplers must point at the units the textures land on.
		p.res.applyProgramState(gl, p.opts)
	}
	drainErrors(gl)

	cm := gl.CreateTexture()
	if cm == 0 {
		return nil, p.fail(gl, p.Name(), fmt.Errorf("create colormap texture: %w", ErrAllocation))
	}
	p.res.colormap = cm
	gl.ActiveTexture(gpu.Texture0 + colormapUnit)
	gl.BindTexture(gpu.Texture2D, cm)
	setLinearClamp(gl, gpu.Texture2D)
	gl.TexImage2D(gpu.Texture2D, 0, gpu.RGBA8, 256, 1, gpu.RGBA, gpu.UnsignedByte, colormap)
	if err := checkError(gl, ErrUpload, "upload colormap"); err != nil {
		return nil, p.fail(gl, p.Name(), err)
	}

	data := fitDensity(density, dims, p.opts.logger)

	tex := gl.CreateTexture()
	if tex == 0 {
		return nil, p.fail(gl, p.Name(), fmt.Errorf("create density texture: %w", ErrAllocation))
	}
	p.res.density = tex
	gl.ActiveTexture(gpu.Texture0 + volumeUnit)
	gl.BindTexture(gpu.Texture3D, tex)
	setLinearClamp(gl, gpu.Texture3D)
	gl.TexParameteri(gpu.Texture3D, gpu.TextureWrapR, gpu.ClampToEdge)
	gl.PixelStorei(gpu.UnpackAlignment, 1)
	gl.TexImage3D(gpu.Texture3D, 0, gpu.R8, dims.X, dims.Y, dims.Z, gpu.Red, gpu.UnsignedByte, data)
	if err := checkError(gl, ErrUpload, fmt.Sprintf("upload %s density", dims)); err != nil {
		return nil, p.fail(gl, p.Name(), err)
	}
	p.res.dims = dims

	next := &ProgramCompiledWithTextures{core{gl: gl, opts: p.opts, res: p.res}}
	p.opts.logger.Debug("pipeline advanced", zap.String("stage", next.Name()), zap.Stringer("dims", dims))
	return next, nil
}

func setLinearClamp(gl gpu.Context, target gpu.Enum) {
	gl.TexParameteri(target, gpu.TextureMinFilter, gpu.Linear)
	gl.TexParameteri(target, gpu.TextureMagFilter, gpu.Linear)
	gl.TexParameteri(target, gpu.TextureWrapS, gpu.ClampToEdge)
	gl.TexParameteri(target, gpu.TextureWrapT, gpu.ClampToEdge)
}

// fitDensity returns density sized to dims.Len(), zero padded or
// truncated, and logs a warning when it had to change the length.
func fitDensity(density []byte, dims volume.Dims, logger *zap.Logger) []byte {
	want := dims.Len()
	if len(density) == want {
		return density
	}
	logger.Warn("density size does not match volume dimensions",
		zap.Stringer("dims", dims),
		zap.Int("expected", want),
		zap.Int("actual", len(density)),
	)
	return volume.Fit(density, want)
}

// SetVolumeMetadata uploads volume_dims and volume_scale.
func (p *ProgramCompiledWithTextures) SetVolumeMetadata(dims volume.Dims) (*Ready, error) {
	gl, err := p.take()
	if err != nil {
		return nil, err
	}
	if !dims.Valid() {
		return nil, p.fail(gl, p.Name(), fmt.Errorf("set volume metadata: %w (%s)", ErrDims, dims))
	}
	if dims != p.res.dims {
		p.opts.logger.Warn("volume metadata differs from uploaded texture",
			zap.Stringer("texture", p.res.dims),
			zap.Stringer("metadata", dims),
		)
	}
	drainErrors(gl)

	gl.UseProgram(p.res.program)
	gl.Uniform3iv(p.res.locs.VolumeDims, dims.Int32())
	gl.Uniform3fv(p.res.locs.VolumeScale, p.opts.scale)
	if err := checkError(gl, ErrState, "set volume metadata"); err != nil {
		return nil, p.fail(gl, p.Name(), err)
	}

	r := &Ready{core: core{gl: gl, opts: p.opts, res: p.res}}
	p.opts.logger.Debug("pipeline advanced", zap.String("stage", r.Name()), zap.Stringer("dims", dims))
	return r, nil
}
