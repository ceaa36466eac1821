package pipeline

import (
	"fmt"

	"github.com/taigrr/volshade/pkg/gpu"
	"github.com/taigrr/volshade/pkg/volume"
)

// Texture units the samplers are bound to.
const (
	volumeUnit   = 0
	colormapUnit = 1
)

// Locations are the uniform locations of a linked volume program.
type Locations struct {
	ProjView    gpu.UniformLocation
	EyePos      gpu.UniformLocation
	Colormap    gpu.UniformLocation
	Volume      gpu.UniformLocation
	VolumeDims  gpu.UniformLocation
	VolumeScale gpu.UniformLocation
	DtScale     gpu.UniformLocation
}

// Uniforms lists the names every volume program must declare and use.
var Uniforms = []string{
	"proj_view",
	"eye_pos",
	"colormap",
	"volume",
	"volume_dims",
	"volume_scale",
	"dt_scale",
}

func resolveLocations(gl gpu.Context, prog gpu.Program) (Locations, error) {
	var locs Locations
	targets := []*gpu.UniformLocation{
		&locs.ProjView,
		&locs.EyePos,
		&locs.Colormap,
		&locs.Volume,
		&locs.VolumeDims,
		&locs.VolumeScale,
		&locs.DtScale,
	}
	for i, name := range Uniforms {
		loc := gl.GetUniformLocation(prog, name)
		if loc == gpu.NoUniform {
			return Locations{}, fmt.Errorf("resolve uniforms: %w: %q", ErrMissingUniform, name)
		}
		*targets[i] = loc
	}
	return locs, nil
}

// resources are the GPU objects a stage owns. Zero handles are skipped on
// release.
type resources struct {
	vao         gpu.VertexArray
	vbo         gpu.Buffer
	program     gpu.Program
	colormap    gpu.Texture
	density     gpu.Texture
	vertexCount int
	locs        Locations
	dims        volume.Dims
	initialised bool
}

func (r *resources) release(gl gpu.Context) {
	if r.density != 0 {
		gl.DeleteTexture(r.density)
	}
	if r.colormap != 0 {
		gl.DeleteTexture(r.colormap)
	}
	if r.program != 0 {
		gl.DeleteProgram(r.program)
	}
	if r.vbo != 0 {
		gl.DeleteBuffer(r.vbo)
	}
	if r.vao != 0 {
		gl.DeleteVertexArray(r.vao)
	}
	*r = resources{}
}

// applyProgramState points the samplers at their units, sets dt_scale and
// configures culling and blending for front-to-back compositing.
func (r *resources) applyProgramState(gl gpu.Context, o options) {
	gl.UseProgram(r.program)
	gl.Uniform1i(r.locs.Volume, volumeUnit)
	gl.Uniform1i(r.locs.Colormap, colormapUnit)
	gl.Uniform1f(r.locs.DtScale, o.dtScale)

	// Only back faces reach the fragment stage, so each pixel is marched
	// once, also with the eye inside the cube.
	gl.Enable(gpu.CullFace)
	gl.CullFace(gpu.Front)
	gl.Enable(gpu.Blend)
	gl.BlendFunc(gpu.One, gpu.OneMinusSrcAlpha)
}

// bind makes the program, geometry and textures current again.
func (r *resources) bind(gl gpu.Context) {
	gl.UseProgram(r.program)
	gl.BindVertexArray(r.vao)
	gl.ActiveTexture(gpu.Texture0 + volumeUnit)
	gl.BindTexture(gpu.Texture3D, r.density)
	gl.ActiveTexture(gpu.Texture0 + colormapUnit)
	gl.BindTexture(gpu.Texture2D, r.colormap)
}
