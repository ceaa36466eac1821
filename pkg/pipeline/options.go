package pipeline

import (
	"math"

	"go.uber.org/zap"

	"github.com/taigrr/volshade/pkg/math3d"
	"github.com/taigrr/volshade/pkg/volume"
)

// Projection is the perspective used for every frame.
type Projection struct {
	FOVY float64 // vertical field of view in radians
	Near float64
	Far  float64
}

// DefaultProjection is a 65 degree perspective with planes at 1 and 200.
func DefaultProjection() Projection {
	return Projection{FOVY: 65 * math.Pi / 180, Near: 1, Far: 200}
}

// Matrix returns the projection for the given aspect ratio.
func (p Projection) Matrix(aspect float64) math3d.Mat4 {
	return math3d.Perspective(p.FOVY, aspect, p.Near, p.Far)
}

type options struct {
	logger     *zap.Logger
	projection Projection
	clearColor [4]float32
	scale      [3]float32
	dtScale    float32
	maxExtent  int
}

func defaultOptions() options {
	return options{
		logger:     zap.NewNop(),
		projection: DefaultProjection(),
		clearColor: [4]float32{1, 1, 1, 1},
		scale:      [3]float32{1, 1, 1},
		dtScale:    1,
		maxExtent:  volume.MaxExtent,
	}
}

// Option configures a pipeline.
type Option func(*options)

// WithLogger sets the logger for stage transitions and data warnings.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProjection overrides DefaultProjection.
func WithProjection(p Projection) Option {
	return func(o *options) {
		o.projection = p
	}
}

// WithClearColor sets the background. The default is opaque white.
func WithClearColor(c [4]float32) Option {
	return func(o *options) {
		o.clearColor = c
	}
}

// WithVolumeScale sets the volume_scale uniform. The default is (1,1,1).
func WithVolumeScale(s [3]float32) Option {
	return func(o *options) {
		o.scale = s
	}
}

// WithDtScale sets the ray step multiplier. The default is 1.
func WithDtScale(s float32) Option {
	return func(o *options) {
		if s > 0 {
			o.dtScale = s
		}
	}
}

// WithMaxExtent lowers the largest volume extent BuildTextures accepts,
// for contexts with a smaller 3-D texture limit. Values above
// volume.MaxExtent are ignored.
func WithMaxExtent(n int) Option {
	return func(o *options) {
		if n > 0 && n <= volume.MaxExtent {
			o.maxExtent = n
		}
	}
}
