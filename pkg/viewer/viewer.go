// Package viewer runs the volume renderer. One goroutine owns the graphics
// context and the pipeline; input handlers only touch the shared state, and
// work that needs the context is queued to the render goroutine.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/volshade/pkg/geometry"
	"github.com/taigrr/volshade/pkg/gpu"
	"github.com/taigrr/volshade/pkg/math3d"
	"github.com/taigrr/volshade/pkg/pipeline"
	"github.com/taigrr/volshade/pkg/render"
	"github.com/taigrr/volshade/pkg/shaders"
	"github.com/taigrr/volshade/pkg/softgl"
	"github.com/taigrr/volshade/pkg/state"
	"github.com/taigrr/volshade/pkg/volume"
)

// Canvas is a graphics context with a resizable drawing buffer.
// *softgl.Context satisfies it.
type Canvas interface {
	gpu.Context
	Resize(width, height int)
	Target() *softgl.Target
}

// Presented is handed to the presenter after every drawn frame.
type Presented struct {
	Target *softgl.Target
	Frames int  // frames drawn by the current pipeline
	InView bool // whether any part of the volume is inside the view frustum
}

// PresentFunc shows a drawn frame.
type PresentFunc func(Presented) error

// LoadInfo describes a finished load attempt.
type LoadInfo struct {
	Name  string
	Dims  volume.Dims
	Stats volume.Stats
	Err   error
}

// Viewer ties the shared state, the driver and the graphics context
// together.
type Viewer struct {
	canvas Canvas
	state  *state.Shared
	driver *Driver
	opts   options
	logger *zap.Logger

	mu      sync.Mutex
	pending []func()
	wake    chan struct{}

	// Owned by the render goroutine.
	shaders shaders.Sources
	loaded  bool
	dims    volume.Dims
	lo, hi  math3d.Vec3
}

// New creates a viewer drawing on canvas from s.
func New(canvas Canvas, s *state.Shared, opts ...Option) *Viewer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	v := &Viewer{
		canvas:  canvas,
		state:   s,
		driver:  NewDriver(s, o.logger),
		opts:    o,
		logger:  o.logger,
		wake:    make(chan struct{}, 1),
		shaders: o.shaders,
	}
	v.lo, v.hi = v.bounds()
	return v
}

// bounds returns the world-space box the geometry covers after
// volume_scale is applied about the cube centre.
func (v *Viewer) bounds() (lo, hi math3d.Vec3) {
	lo, hi, err := geometry.Bounds(v.opts.positions)
	if err != nil {
		return lo, hi
	}
	scale := math3d.Vec3FromFloat32(v.opts.scale)
	offset := math3d.Splat3(0.5).Sub(scale.Scale(0.5))
	return lo.Mul(scale).Add(offset), hi.Mul(scale).Add(offset)
}

// State returns the shared state the viewer renders from.
func (v *Viewer) State() *state.Shared {
	return v.state
}

// post queues fn to run on the render goroutine.
func (v *Viewer) post(fn func()) {
	v.mu.Lock()
	v.pending = append(v.pending, fn)
	v.mu.Unlock()
	select {
	case v.wake <- struct{}{}:
	default:
	}
}

func (v *Viewer) runPending() {
	v.mu.Lock()
	tasks := v.pending
	v.pending = nil
	v.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}
}

// Run ticks at the configured rate until ctx is done or the state is
// poisoned. It must be the only goroutine using the canvas, and it releases
// the pipeline on return.
func (v *Viewer) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(v.opts.fps))
	defer ticker.Stop()
	defer v.release()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-v.wake:
			v.runPending()
		case <-ticker.C:
			if err := v.Tick(); err != nil {
				return err
			}
		}
	}
}

// Tick runs queued work, advances zoom smoothing and draws if a redraw is
// pending. It must be called on the goroutine that owns the canvas.
func (v *Viewer) Tick() error {
	v.runPending()
	if err := v.state.Step(); err != nil {
		return err
	}
	drawn, next := v.driver.Frame()
	if !next {
		return state.ErrPoisoned
	}
	if drawn {
		v.present()
	}
	return nil
}

func (v *Viewer) present() {
	if v.opts.present == nil {
		return
	}
	p := Presented{
		Target: v.canvas.Target(),
		Frames: v.driver.Ready().Stats().Frames,
		InView: v.inView(),
	}
	if err := v.opts.present(p); err != nil {
		v.logger.Warn("present failed", zap.Error(err))
	}
}

func (v *Viewer) inView() bool {
	r := v.driver.Ready()
	data, err := v.state.ArcballData()
	if err != nil || r == nil {
		return true
	}
	canvas, err := v.state.CanvasDims()
	if err != nil {
		return true
	}
	return render.NewFrustum(r.ProjView(canvas, data.View)).IntersectsBox(v.lo, v.hi)
}

func (v *Viewer) release() {
	v.runPending()
	if old := v.driver.Swap(nil); old != nil {
		old.Release()
	}
}

// Load reads src on the calling goroutine and hands the result to the
// render goroutine.
func (v *Viewer) Load(ctx context.Context, src volume.Source) error {
	start := time.Now()
	vol, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load volume: %w", err)
	}
	v.logger.Info("volume read",
		zap.String("name", vol.Name),
		zap.Stringer("dims", vol.Dims),
		zap.Int("bytes", len(vol.Data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	v.LoadComplete(vol)
	return nil
}

// LoadComplete queues the continuation of a finished load: store the
// density in the shared state, build a pipeline from exactly that buffer,
// install it and request a frame. The previous pipeline stays if the build
// fails.
func (v *Viewer) LoadComplete(vol *volume.Volume) {
	v.post(func() {
		info := v.load(vol)
		if v.opts.onLoad != nil {
			v.opts.onLoad(info)
		}
	})
}

func (v *Viewer) load(vol *volume.Volume) LoadInfo {
	info := LoadInfo{Name: vol.Name, Dims: vol.Dims}

	data := volume.Attenuate(vol.Data, v.opts.divisor)
	if err := v.state.SetDensity(data, vol.Dims); err != nil {
		info.Err = err
		return info
	}
	density, dims, err := v.state.Density()
	if err != nil {
		info.Err = err
		return info
	}
	info.Stats = volume.Summarize(density)
	v.logger.Info("volume loaded",
		zap.String("name", vol.Name),
		zap.Stringer("dims", dims),
		zap.Uint8("min", info.Stats.Min),
		zap.Uint8("max", info.Stats.Max),
		zap.Float64("mean", info.Stats.Mean),
		zap.Float64("median", info.Stats.Median),
		zap.Int("nonzero", info.Stats.NonZero),
	)

	if err := v.rebuild(v.shaders, density, dims); err != nil {
		info.Err = err
		return info
	}
	v.loaded = true
	v.dims = dims
	return info
}

// rebuild takes a fresh Empty through Ready and swaps it in.
func (v *Viewer) rebuild(src shaders.Sources, density []byte, dims volume.Dims) error {
	opts := append([]pipeline.Option{pipeline.WithLogger(v.logger)}, v.opts.pipeline...)
	r, err := pipeline.Build(v.canvas, pipeline.Assets{
		Positions: v.opts.positions,
		Shaders:   src,
		Colormap:  v.opts.colormap,
		Density:   density,
		Dims:      dims,
	}, opts...)
	if err != nil {
		v.logger.Error("pipeline build failed", zap.Error(err))
		return err
	}
	if old := v.driver.Swap(r); old != nil {
		old.Release()
	}
	return v.state.SetDirty(true)
}

// ReloadShaders queues a rebuild with new shader sources. On failure the
// running pipeline is kept and done receives the error. done may be nil.
func (v *Viewer) ReloadShaders(src shaders.Sources, done func(error)) {
	v.post(func() {
		err := v.reloadShaders(src)
		if done != nil {
			done(err)
		}
	})
}

func (v *Viewer) reloadShaders(src shaders.Sources) error {
	if !v.loaded {
		v.shaders = src
		return nil
	}
	density, dims, err := v.state.Density()
	if err != nil {
		return err
	}
	if err := v.rebuild(src, density, dims); err != nil {
		return fmt.Errorf("reload shaders: %w", err)
	}
	v.shaders = src
	v.logger.Info("shaders reloaded")
	return nil
}

// Resize queues a canvas resize. The shared state learns the new size in
// the same step, so the next frame uses both.
func (v *Viewer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	v.post(func() {
		v.canvas.Resize(width, height)
		if err := v.state.UpdateCanvas(float64(width), float64(height)); err != nil {
			v.logger.Warn("resize failed", zap.Error(err))
		}
	})
}

// MouseDown starts a rotate (left) or pan (right) drag at canvas pixel
// (x, y).
func (v *Viewer) MouseDown(x, y float64, b state.Button) error {
	return v.state.UpdateMouseDown(math3d.V2(x, y), b)
}

// MouseUp ends the drag.
func (v *Viewer) MouseUp(x, y float64) error {
	return v.state.UpdateMouseDown(math3d.V2(x, y), state.ButtonNone)
}

// MouseMove continues a drag.
func (v *Viewer) MouseMove(x, y float64) error {
	return v.state.UpdateMousePosition(math3d.V2(x, y))
}

// Wheel zooms by notches wheel steps. Positive moves the camera closer.
func (v *Viewer) Wheel(notches float64) error {
	return v.state.ScrollToZoom(notches * v.opts.wheelStep)
}

// ResetCamera restores the initial view.
func (v *Viewer) ResetCamera() error {
	return v.state.ResetCamera()
}

// Serve runs the render loop, loads src and, when configured, watches the
// shader files, all tied to ctx. A load or watch failure stops everything.
func (v *Viewer) Serve(ctx context.Context, src volume.Source) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return v.Run(ctx)
	})
	if src != nil {
		g.Go(func() error {
			return v.Load(ctx, src)
		})
	}
	if len(v.opts.watch) == 2 && len(shaders.Paths(v.opts.watch[0], v.opts.watch[1])) > 0 {
		g.Go(func() error {
			return v.WatchShaders(ctx, v.opts.watch[0], v.opts.watch[1])
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
