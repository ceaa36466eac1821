package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taigrr/volshade/pkg/gpu"
)

var (
	// ErrAllocation means the context returned a zero handle.
	ErrAllocation = errors.New("gpu object allocation failed")

	// ErrCompile is wrapped by every *ShaderError.
	ErrCompile = errors.New("shader compilation failed")

	// ErrLink means the program failed to link.
	ErrLink = errors.New("program link failed")

	// ErrMissingUniform means a required uniform is not active in the
	// linked program.
	ErrMissingUniform = errors.New("required uniform not found")

	// ErrUpload means the context rejected a texture upload.
	ErrUpload = errors.New("texture upload failed")

	// ErrColormapSize means the colormap is not 256x1 RGBA8.
	ErrColormapSize = errors.New("colormap must be 256x1 RGBA (1024 bytes)")

	// ErrGeometry means the vertex data is not a list of vec3 positions.
	ErrGeometry = errors.New("vertex data must be a non-empty multiple of 3 floats")

	// ErrDims means a volume extent is not positive or exceeds the
	// largest 3-D texture the pipeline accepts.
	ErrDims = errors.New("volume dimensions out of range")

	// ErrState means the context reported an error while setting state.
	ErrState = errors.New("gpu state error")

	// ErrStageConsumed is returned by every operation on a stage that has
	// already advanced or failed.
	ErrStageConsumed = errors.New("pipeline stage already consumed")
)

// ShaderError carries the compiler log of a shader that failed to compile.
type ShaderError struct {
	Stage string
	Log   string
}

func (e *ShaderError) Error() string {
	return fmt.Sprintf("compile %s shader: %s", e.Stage, strings.TrimSpace(e.Log))
}

func (e *ShaderError) Unwrap() error {
	return ErrCompile
}

func stageName(typ gpu.Enum) string {
	if typ == gpu.VertexShader {
		return "vertex"
	}
	return "fragment"
}

// drainErrors clears errors left over from earlier calls so the next check
// only sees what the current step caused.
func drainErrors(gl gpu.Context) {
	for range 16 {
		if gl.GetError() == gpu.NoError {
			return
		}
	}
}

// checkError wraps the first pending GL error in sentinel.
func checkError(gl gpu.Context, sentinel error, what string) error {
	if code := gl.GetError(); code != gpu.NoError {
		drainErrors(gl)
		return fmt.Errorf("%s: %w (%s)", what, sentinel, code)
	}
	return nil
}
