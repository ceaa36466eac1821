package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/taigrr/volshade/pkg/gpu"
	"github.com/taigrr/volshade/pkg/math3d"
	"github.com/taigrr/volshade/pkg/state"
	"github.com/taigrr/volshade/pkg/volume"
)

// Ready is a fully configured pipeline. It is the only stage that can draw.
type Ready struct {
	core
	frames int
}

func (*Ready) Name() string { return "ready" }

// ReadyStats describes a Ready pipeline.
type ReadyStats struct {
	Frames      int
	VertexCount int
	Dims        volume.Dims
	Program     gpu.Program
}

// Stats reports what the pipeline draws and how often it has drawn.
func (r *Ready) Stats() ReadyStats {
	return ReadyStats{
		Frames:      r.frames,
		VertexCount: r.res.vertexCount,
		Dims:        r.res.dims,
		Program:     r.res.program,
	}
}

// SetProjection replaces the projection used by later frames.
func (r *Ready) SetProjection(p Projection) {
	r.opts.projection = p
}

// SetClearColor replaces the background used by later frames.
func (r *Ready) SetClearColor(c [4]float32) {
	r.opts.clearColor = c
}

// RenderFromState draws one frame when s has a pending redraw. It makes no
// GPU call and returns false when nothing is pending or the state is busy.
func (r *Ready) RenderFromState(s *state.Shared) (bool, error) {
	if r.gl == nil {
		return false, ErrStageConsumed
	}
	frame, ok, err := s.Snapshot()
	if err != nil {
		return false, err
	}
	if !ok || !frame.Dirty {
		return false, nil
	}
	if err := r.draw(frame); err != nil {
		return false, err
	}
	return true, s.MarkDrawn(frame.Generation)
}

func (r *Ready) draw(f state.Frame) error {
	gl := r.gl
	w, h := f.Canvas.Width, f.Canvas.Height
	drainErrors(gl)

	gl.Viewport(0, 0, int(w), int(h))
	r.res.bind(gl)

	c := r.opts.clearColor
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gpu.ColorBufferBit | gpu.DepthBufferBit)

	projView := r.ProjView(f.Canvas, f.Draw.View)
	gl.UniformMatrix4fv(r.res.locs.ProjView, false, projView.Float32())
	gl.Uniform3fv(r.res.locs.EyePos, f.Draw.Eye.Float32())

	gl.DrawArrays(gpu.TriangleStrip, 0, r.res.vertexCount)
	gl.Finish()

	if err := checkError(gl, ErrState, fmt.Sprintf("draw frame %d", r.frames+1)); err != nil {
		r.opts.logger.Warn("draw failed", zap.Error(err))
		return err
	}
	r.frames++
	return nil
}

// ProjView returns the matrix a frame with the given canvas and camera
// would upload.
func (r *Ready) ProjView(canvas state.CanvasDims, view math3d.Mat4) math3d.Mat4 {
	return r.opts.projection.Matrix(canvas.Aspect()).Mul(view)
}

// Release deletes every GPU object the pipeline owns and consumes it.
func (r *Ready) Release() {
	gl, err := r.take()
	if err != nil {
		return
	}
	r.res.release(gl)
	r.opts.logger.Debug("pipeline released")
}
