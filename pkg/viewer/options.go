package viewer

import (
	"go.uber.org/zap"

	"github.com/taigrr/volshade/pkg/colormap"
	"github.com/taigrr/volshade/pkg/geometry"
	"github.com/taigrr/volshade/pkg/pipeline"
	"github.com/taigrr/volshade/pkg/shaders"
)

// DefaultFPS is the tick rate of Run, about the 33 ms cadence of a
// browser animation timer.
const DefaultFPS = 30

// DefaultWheelStep is the raw scroll amount of one wheel notch.
const DefaultWheelStep = 10

type options struct {
	logger    *zap.Logger
	fps       int
	wheelStep float64
	divisor   int
	positions []float32
	shaders   shaders.Sources
	colormap  []byte
	scale     [3]float32
	pipeline  []pipeline.Option
	present   PresentFunc
	onLoad    func(LoadInfo)
	onReload  func(error)
	watch     []string
}

func defaultOptions() options {
	return options{
		logger:    zap.NewNop(),
		fps:       DefaultFPS,
		wheelStep: DefaultWheelStep,
		divisor:   1,
		positions: geometry.CubeStrip(),
		shaders:   shaders.Default(),
		colormap:  colormap.Default(),
		scale:     [3]float32{1, 1, 1},
	}
}

// Option configures a Viewer.
type Option func(*options)

// WithLogger sets the logger for the viewer and the pipelines it builds.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFPS sets how often Run ticks.
func WithFPS(fps int) Option {
	return func(o *options) {
		if fps > 0 {
			o.fps = fps
		}
	}
}

// WithWheelStep sets the raw scroll amount of one wheel notch.
func WithWheelStep(step float64) Option {
	return func(o *options) {
		o.wheelStep = step
	}
}

// WithDensityDivisor divides every density byte before upload.
func WithDensityDivisor(n int) Option {
	return func(o *options) {
		o.divisor = n
	}
}

// WithPositions replaces the cube strip, e.g. with proxy geometry read
// from a GLB file.
func WithPositions(p []float32) Option {
	return func(o *options) {
		o.positions = p
	}
}

// WithShaders replaces the embedded shader sources.
func WithShaders(s shaders.Sources) Option {
	return func(o *options) {
		o.shaders = s
	}
}

// WithColormap replaces the default 256x1 RGBA colormap.
func WithColormap(table []byte) Option {
	return func(o *options) {
		o.colormap = table
	}
}

// WithVolumeScale stretches the volume along each axis about the centre of
// the unit cube.
func WithVolumeScale(scale [3]float32) Option {
	return func(o *options) {
		o.scale = scale
		o.pipeline = append(o.pipeline, pipeline.WithVolumeScale(scale))
	}
}

// WithPipelineOptions are passed to every pipeline build.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(o *options) {
		o.pipeline = append(o.pipeline, opts...)
	}
}

// WithPresenter is called on the render goroutine after every drawn frame.
func WithPresenter(fn PresentFunc) Option {
	return func(o *options) {
		o.present = fn
	}
}

// WithLoadHook is called on the render goroutine after every load attempt.
func WithLoadHook(fn func(LoadInfo)) Option {
	return func(o *options) {
		o.onLoad = fn
	}
}

// WithReloadHook is called on the render goroutine after every shader
// reload triggered by the watcher, with nil on success.
func WithReloadHook(fn func(error)) Option {
	return func(o *options) {
		o.onReload = fn
	}
}

// WithShaderWatch makes Serve watch shader files and rebuild the pipeline
// when they change. Empty paths keep the embedded source for that stage.
func WithShaderWatch(vertexPath, fragmentPath string) Option {
	return func(o *options) {
		o.watch = []string{vertexPath, fragmentPath}
	}
}
