// Package state holds the render state shared between input handling,
// data loading and the per-frame render callback.
//
// Every operation runs under one mutex. If a holder panics the state is
// marked poisoned, the panic continues, and every later call fails with
// ErrPoisoned.
package state

import (
	"errors"
	"sync"

	"github.com/taigrr/volshade/pkg/arcball"
	"github.com/taigrr/volshade/pkg/math3d"
	"github.com/taigrr/volshade/pkg/volume"
)

// ErrPoisoned is returned once a previous holder of the state panicked.
var ErrPoisoned = errors.New("render state corrupted, restart required")

// Button identifies the mouse button held during a drag.
type Button int

const (
	ButtonNone  Button = iota // No button, i.e. mouse up
	ButtonLeft                // Rotate
	ButtonRight               // Pan
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	default:
		return "none"
	}
}

// CanvasDims is the drawable surface size in pixels.
type CanvasDims struct {
	Width, Height float64
}

// Aspect returns Width/Height.
func (d CanvasDims) Aspect() float64 {
	return d.Width / d.Height
}

// Frame is a consistent copy of everything a draw needs.
type Frame struct {
	Canvas     CanvasDims
	Dirty      bool
	Draw       arcball.DrawData
	Generation uint64
}

// Shared is the process-wide render state.
type Shared struct {
	mu       sync.Mutex
	poisoned bool

	canvas    CanvasDims
	camera    *arcball.Camera
	newCamera func() *arcball.Camera
	panSpeed  float64

	button   Button
	mousePos math3d.Vec2

	dirty bool
	gen   uint64

	density []byte
	dims    volume.Dims

	zoom *zoomAxis
}

// Option configures a Shared state.
type Option func(*Shared)

// WithCamera replaces the default camera factory, used on creation and by
// ResetCamera.
func WithCamera(fn func() *arcball.Camera) Option {
	return func(s *Shared) {
		s.newCamera = fn
	}
}

// WithPanSpeed scales right-drag panning.
func WithPanSpeed(speed float64) Option {
	return func(s *Shared) {
		s.panSpeed = speed
	}
}

// WithSmoothZoom routes scroll input through a spring stepped once per
// frame by Step instead of applying it immediately.
func WithSmoothZoom(fps int, frequency, damping float64) Option {
	return func(s *Shared) {
		s.zoom = newZoomAxis(fps, frequency, damping)
	}
}

// New creates the shared state with a 600x400 canvas and the default camera.
func New(opts ...Option) *Shared {
	s := &Shared{
		canvas:    CanvasDims{Width: 600, Height: 400},
		newCamera: arcball.Default,
		panSpeed:  1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.camera = s.newCamera()
	return s
}

// with runs fn while holding the lock.
func (s *Shared) with(fn func()) error {
	s.mu.Lock()
	return s.locked(fn)
}

// locked runs fn with the lock already held and releases it. A panic in fn
// poisons the state before it propagates.
func (s *Shared) locked(fn func()) error {
	if s.poisoned {
		s.mu.Unlock()
		return ErrPoisoned
	}
	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			s.mu.Unlock()
			panic(r)
		}
		s.mu.Unlock()
	}()
	fn()
	return nil
}

// markDirty must be called with the lock held.
func (s *Shared) markDirty() {
	s.dirty = true
	s.gen++
}

// Poisoned reports whether the state has been poisoned.
func (s *Shared) Poisoned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poisoned
}

// UpdateCanvas records a new canvas size and forwards it to the camera.
func (s *Shared) UpdateCanvas(width, height float64) error {
	return s.with(func() {
		s.canvas = CanvasDims{Width: width, Height: height}
		s.camera.UpdateScreen(width, height)
		s.markDirty()
	})
}

// UpdateMouseDown sets the held button and the drag anchor. ButtonNone
// releases the drag.
func (s *Shared) UpdateMouseDown(pos math3d.Vec2, button Button) error {
	return s.with(func() {
		s.button = button
		s.mousePos = pos
	})
}

// UpdateMousePosition rotates (left) or pans (right) the camera from the
// previous anchor to pos. The anchor always moves to pos.
func (s *Shared) UpdateMousePosition(pos math3d.Vec2) error {
	return s.with(func() {
		switch s.button {
		case ButtonLeft:
			s.camera.Rotate(s.mousePos, pos)
			s.markDirty()
		case ButtonRight:
			s.camera.Pan(pos.Sub(s.mousePos), s.panSpeed)
			s.markDirty()
		}
		s.mousePos = pos
	})
}

// ScrollToZoom zooms by raw scroll units divided by the canvas height.
func (s *Shared) ScrollToZoom(raw float64) error {
	return s.with(func() {
		adjusted := raw / s.canvas.Height
		if s.zoom != nil {
			s.zoom.push(adjusted)
		} else {
			s.camera.Zoom(adjusted, 1)
		}
		s.markDirty()
	})
}

// Step advances zoom smoothing by one frame. It is a no-op without
// WithSmoothZoom.
func (s *Shared) Step() error {
	return s.with(func() {
		if s.zoom == nil || s.zoom.idle() {
			return
		}
		delta, _ := s.zoom.step()
		if delta != 0 {
			s.camera.Zoom(delta, 1)
			s.markDirty()
		}
	})
}

// ResetCamera restores the initial camera and drops pending zoom.
func (s *Shared) ResetCamera() error {
	return s.with(func() {
		s.camera = s.newCamera()
		s.camera.UpdateScreen(s.canvas.Width, s.canvas.Height)
		if s.zoom != nil {
			s.zoom.reset()
		}
		s.markDirty()
	})
}

// ArcballData returns the current view matrix and eye position.
func (s *Shared) ArcballData() (arcball.DrawData, error) {
	var d arcball.DrawData
	err := s.with(func() {
		d = s.camera.Data()
	})
	return d, err
}

// CanvasDims returns the current canvas size.
func (s *Shared) CanvasDims() (CanvasDims, error) {
	var d CanvasDims
	err := s.with(func() {
		d = s.canvas
	})
	return d, err
}

// SetDirty forces or clears the redraw flag.
func (s *Shared) SetDirty(dirty bool) error {
	return s.with(func() {
		if dirty {
			s.markDirty()
			return
		}
		s.dirty = false
	})
}

// Dirty reports whether a redraw is pending.
func (s *Shared) Dirty() (bool, error) {
	var d bool
	err := s.with(func() {
		d = s.dirty
	})
	return d, err
}

// Snapshot copies the frame inputs without blocking. ok is false when the
// lock is held elsewhere; callers treat that as nothing to draw.
func (s *Shared) Snapshot() (f Frame, ok bool, err error) {
	if !s.mu.TryLock() {
		return Frame{}, false, nil
	}
	err = s.locked(func() {
		f = Frame{
			Canvas:     s.canvas,
			Dirty:      s.dirty,
			Draw:       s.camera.Data(),
			Generation: s.gen,
		}
	})
	if err != nil {
		return Frame{}, false, err
	}
	return f, true, nil
}

// MarkDrawn clears the redraw flag if nothing changed since the snapshot
// with the given generation was taken.
func (s *Shared) MarkDrawn(generation uint64) error {
	return s.with(func() {
		if s.gen == generation {
			s.dirty = false
		}
	})
}

// SetDensity stores the loaded density buffer.
func (s *Shared) SetDensity(data []byte, dims volume.Dims) error {
	return s.with(func() {
		s.density = data
		s.dims = dims
	})
}

// Density returns the stored density buffer and its dimensions.
func (s *Shared) Density() ([]byte, volume.Dims, error) {
	var (
		data []byte
		dims volume.Dims
	)
	err := s.with(func() {
		data, dims = s.density, s.dims
	})
	return data, dims, err
}
