package pipeline

import (
	"github.com/taigrr/volshade/pkg/gpu"
	"github.com/taigrr/volshade/pkg/shaders"
	"github.com/taigrr/volshade/pkg/volume"
)

// Assets is everything needed to take a context from Empty to Ready.
type Assets struct {
	Positions []float32
	Shaders   shaders.Sources
	Colormap  []byte
	Density   []byte
	Dims      volume.Dims
}

// Build runs every setup step in order. On failure no GPU objects are left
// behind.
func Build(gl gpu.Context, a Assets, opts ...Option) (*Ready, error) {
	vi, err := New(gl, opts...).Init(a.Positions)
	if err != nil {
		return nil, err
	}
	pc, err := vi.AssembleProgram(a.Shaders.Vertex, a.Shaders.Fragment)
	if err != nil {
		return nil, err
	}
	if err := pc.Init(); err != nil {
		// Init does not consume; release through the failure path.
		gl, _ := pc.take()
		return nil, pc.fail(gl, pc.Name(), err)
	}
	pt, err := pc.BuildTextures(a.Colormap, a.Density, a.Dims)
	if err != nil {
		return nil, err
	}
	return pt.SetVolumeMetadata(a.Dims)
}
