package viewer

import (
	"errors"

	"go.uber.org/zap"

	"github.com/taigrr/volshade/pkg/pipeline"
	"github.com/taigrr/volshade/pkg/state"
)

// Driver is the per-tick render callback. It draws through the current
// Ready pipeline whenever the shared state has a pending redraw.
type Driver struct {
	state  *state.Shared
	ready  *pipeline.Ready
	logger *zap.Logger
}

// NewDriver creates a driver with no pipeline. Frames are skipped until
// Swap installs one.
func NewDriver(s *state.Shared, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{state: s, logger: logger}
}

// Ready returns the installed pipeline, or nil.
func (d *Driver) Ready() *pipeline.Ready {
	return d.ready
}

// Swap installs r and returns the previous pipeline, which the caller
// releases.
func (d *Driver) Swap(r *pipeline.Ready) *pipeline.Ready {
	old := d.ready
	d.ready = r
	return old
}

// Frame runs one tick. drawn reports whether a frame was drawn; next is
// false only once the shared state is poisoned.
func (d *Driver) Frame() (drawn, next bool) {
	if d.ready == nil {
		return false, !d.state.Poisoned()
	}
	drawn, err := d.ready.RenderFromState(d.state)
	switch {
	case err == nil:
		return drawn, true
	case errors.Is(err, state.ErrPoisoned):
		d.logger.Error("render state poisoned", zap.Error(err))
		return false, false
	default:
		d.logger.Warn("frame failed", zap.Error(err))
		return false, true
	}
}
