package viewer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/taigrr/volshade/pkg/arcball"
	"github.com/taigrr/volshade/pkg/math3d"
	"github.com/taigrr/volshade/pkg/pipeline"
	"github.com/taigrr/volshade/pkg/shaders"
	"github.com/taigrr/volshade/pkg/softgl"
	"github.com/taigrr/volshade/pkg/state"
	"github.com/taigrr/volshade/pkg/volume"
)

const brokenFragment = "#version 300 es\nvoid main() {}\n"

func solid(n int, v byte) *volume.Volume {
	data := make([]byte, n*n*n)
	for i := range data {
		data[i] = v
	}
	return &volume.Volume{Name: "solid", Dims: volume.Dims{X: n, Y: n, Z: n}, Data: data}
}

// presents collects presented frames.
type presents struct {
	mu     sync.Mutex
	frames []Presented
	ch     chan Presented
}

func newPresents() *presents {
	return &presents{ch: make(chan Presented, 64)}
}

func (p *presents) present(f Presented) error {
	p.mu.Lock()
	p.frames = append(p.frames, f)
	p.mu.Unlock()
	select {
	case p.ch <- f:
	default:
	}
	return nil
}

func (p *presents) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

func newViewer(t *testing.T, opts ...Option) (*Viewer, *softgl.Context) {
	t.Helper()
	gl := softgl.New(32, 32)
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	v := New(gl, state.New(), opts...)
	v.Resize(32, 32)
	return v, gl
}

func TestDriverFrame(t *testing.T) {
	t.Run("no pipeline", func(t *testing.T) {
		d := NewDriver(state.New(), nil)
		drawn, next := d.Frame()
		assert.False(t, drawn)
		assert.True(t, next)
	})

	t.Run("poisoned", func(t *testing.T) {
		calls := 0
		s := state.New(state.WithCamera(func() *arcball.Camera {
			calls++
			if calls > 1 {
				panic("camera factory failed")
			}
			return arcball.Default()
		}))
		assert.Panics(t, func() { _ = s.ResetCamera() })

		d := NewDriver(s, nil)
		drawn, next := d.Frame()
		assert.False(t, drawn)
		assert.False(t, next)
	})
}

func TestLoadCompleteBuildsAndDraws(t *testing.T) {
	p := newPresents()
	var infos []LoadInfo
	v, gl := newViewer(t,
		WithPresenter(p.present),
		WithLoadHook(func(i LoadInfo) { infos = append(infos, i) }),
	)

	require.NoError(t, v.Tick())
	assert.Equal(t, 0, gl.Stats().DrawCalls, "nothing to draw before a load")

	v.LoadComplete(solid(4, 200))
	require.NoError(t, v.Tick())

	require.Len(t, infos, 1)
	assert.NoError(t, infos[0].Err)
	assert.Equal(t, volume.Dims{X: 4, Y: 4, Z: 4}, infos[0].Dims)
	assert.Equal(t, byte(200), infos[0].Stats.Max)

	assert.Equal(t, 1, gl.Stats().DrawCalls)
	require.Equal(t, 1, p.count())
	assert.Equal(t, 1, p.frames[0].Frames)
	assert.True(t, p.frames[0].InView)
	assert.Same(t, gl.Target(), p.frames[0].Target)

	dirty, err := v.State().Dirty()
	require.NoError(t, err)
	assert.False(t, dirty)

	require.NoError(t, v.Tick())
	assert.Equal(t, 1, gl.Stats().DrawCalls, "clean state must not redraw")
	assert.Equal(t, 1, p.count())
}

func TestLoadAttenuatesDensity(t *testing.T) {
	v, _ := newViewer(t, WithDensityDivisor(5))
	v.LoadComplete(solid(2, 255))
	require.NoError(t, v.Tick())

	data, dims, err := v.State().Density()
	require.NoError(t, err)
	assert.Equal(t, volume.Dims{X: 2, Y: 2, Z: 2}, dims)
	for _, b := range data {
		assert.Equal(t, byte(51), b)
	}
}

func TestLoadFailureKeepsNothing(t *testing.T) {
	var info LoadInfo
	v, gl := newViewer(t,
		WithColormap(make([]byte, 16)),
		WithLoadHook(func(i LoadInfo) { info = i }),
	)
	v.LoadComplete(solid(4, 1))
	require.NoError(t, v.Tick())

	assert.ErrorIs(t, info.Err, pipeline.ErrColormapSize)
	assert.Nil(t, v.driver.Ready())
	assert.Zero(t, gl.Live())
	assert.Zero(t, gl.Stats().DrawCalls)
}

func TestSecondLoadReplacesPipeline(t *testing.T) {
	v, gl := newViewer(t)
	v.LoadComplete(solid(4, 1))
	require.NoError(t, v.Tick())
	first := v.driver.Ready()
	live := gl.Live()

	v.LoadComplete(solid(8, 2))
	require.NoError(t, v.Tick())

	assert.NotSame(t, first, v.driver.Ready())
	assert.Equal(t, live, gl.Live(), "old pipeline must be released")
	assert.Equal(t, volume.Dims{X: 8, Y: 8, Z: 8}, v.driver.Ready().Stats().Dims)
	assert.Equal(t, 2, gl.Stats().DrawCalls)
}

func TestReloadShaders(t *testing.T) {
	v, gl := newViewer(t)

	t.Run("before load only stores", func(t *testing.T) {
		var got error
		v.ReloadShaders(shaders.Default(), func(err error) { got = err })
		require.NoError(t, v.Tick())
		assert.NoError(t, got)
		assert.Nil(t, v.driver.Ready())
	})

	v.LoadComplete(solid(4, 9))
	require.NoError(t, v.Tick())
	before := v.driver.Ready()
	live := gl.Live()

	t.Run("failure keeps previous pipeline", func(t *testing.T) {
		var got error
		bad := shaders.Default()
		bad.Fragment = brokenFragment
		v.ReloadShaders(bad, func(err error) { got = err })
		require.NoError(t, v.Tick())

		assert.ErrorIs(t, got, pipeline.ErrCompile)
		assert.Same(t, before, v.driver.Ready())
		assert.Equal(t, live, gl.Live())

		draws := gl.Stats().DrawCalls
		require.NoError(t, v.State().SetDirty(true))
		require.NoError(t, v.Tick())
		assert.Equal(t, draws+1, gl.Stats().DrawCalls, "previous pipeline still draws")
	})

	t.Run("success swaps and redraws", func(t *testing.T) {
		var got error
		draws := gl.Stats().DrawCalls
		v.ReloadShaders(shaders.Default(), func(err error) { got = err })
		require.NoError(t, v.Tick())

		assert.NoError(t, got)
		assert.NotSame(t, before, v.driver.Ready())
		assert.Equal(t, live, gl.Live())
		assert.Equal(t, draws+1, gl.Stats().DrawCalls)
	})
}

func TestResizeIsQueued(t *testing.T) {
	v, gl := newViewer(t)
	require.NoError(t, v.Tick())

	v.Resize(48, 20)
	dims, err := v.State().CanvasDims()
	require.NoError(t, err)
	assert.Equal(t, 32.0, dims.Width, "resize waits for the render goroutine")

	require.NoError(t, v.Tick())
	dims, err = v.State().CanvasDims()
	require.NoError(t, err)
	assert.Equal(t, state.CanvasDims{Width: 48, Height: 20}, dims)
	assert.Equal(t, 48, gl.Target().Width)
	assert.Equal(t, 20, gl.Target().Height)

	v.Resize(0, 10)
	require.NoError(t, v.Tick())
	assert.Equal(t, 48, gl.Target().Width, "empty sizes are ignored")
}

func TestInput(t *testing.T) {
	v, _ := newViewer(t)
	require.NoError(t, v.Tick())
	s := v.State()

	t.Run("drag marks dirty", func(t *testing.T) {
		require.NoError(t, s.SetDirty(false))
		require.NoError(t, v.MouseDown(16, 16, state.ButtonLeft))
		require.NoError(t, v.MouseMove(20, 14))
		dirty, err := s.Dirty()
		require.NoError(t, err)
		assert.True(t, dirty)
		require.NoError(t, v.MouseUp(20, 14))
	})

	t.Run("move without button is ignored", func(t *testing.T) {
		require.NoError(t, s.SetDirty(false))
		require.NoError(t, v.MouseMove(1, 1))
		dirty, err := s.Dirty()
		require.NoError(t, err)
		assert.False(t, dirty)
	})

	t.Run("wheel up moves closer", func(t *testing.T) {
		require.NoError(t, v.ResetCamera())
		before, err := s.ArcballData()
		require.NoError(t, err)
		require.NoError(t, v.Wheel(1))
		after, err := s.ArcballData()
		require.NoError(t, err)

		center := math3d.V3(0.5, 0.5, 0.5)
		assert.Less(t, after.Eye.Sub(center).Len(), before.Eye.Sub(center).Len())
	})
}

func TestOutOfView(t *testing.T) {
	p := newPresents()
	v, _ := newViewer(t, WithPresenter(p.present))
	v.LoadComplete(solid(4, 100))
	require.NoError(t, v.Tick())
	require.Equal(t, 1, p.count())
	assert.True(t, p.frames[0].InView)

	require.NoError(t, v.MouseDown(0, 0, state.ButtonRight))
	require.NoError(t, v.MouseMove(3200, 0))
	require.NoError(t, v.Tick())

	require.Equal(t, 2, p.count())
	assert.False(t, p.frames[1].InView)
}

func TestTickPoisoned(t *testing.T) {
	calls := 0
	s := state.New(state.WithCamera(func() *arcball.Camera {
		calls++
		if calls > 1 {
			panic("camera factory failed")
		}
		return arcball.Default()
	}))
	v := New(softgl.New(8, 8), s)
	assert.Panics(t, func() { _ = v.ResetCamera() })
	assert.ErrorIs(t, v.Tick(), state.ErrPoisoned)
}

func TestRunReleasesOnExit(t *testing.T) {
	p := newPresents()
	v, gl := newViewer(t, WithPresenter(p.present), WithFPS(200))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()

	v.LoadComplete(solid(4, 50))
	select {
	case <-p.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no frame presented")
	}
	cancel()
	require.NoError(t, <-done)
	assert.Zero(t, gl.Live())
}

func TestServe(t *testing.T) {
	t.Run("demo source", func(t *testing.T) {
		p := newPresents()
		v, gl := newViewer(t, WithPresenter(p.present), WithFPS(200))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- v.Serve(ctx, volume.DemoSource{Dims: volume.Dims{X: 8, Y: 8, Z: 8}})
		}()

		select {
		case f := <-p.ch:
			assert.Equal(t, 1, f.Frames)
		case <-time.After(5 * time.Second):
			t.Fatal("no frame presented")
		}
		cancel()
		require.NoError(t, <-done)
		assert.Zero(t, gl.Live())
	})

	t.Run("load failure stops", func(t *testing.T) {
		v, _ := newViewer(t, WithFPS(200))
		err := v.Serve(context.Background(), volume.FileSource{Path: filepath.Join(t.TempDir(), "none_4x4x4_uint8.raw")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})
}

func TestWatchShadersReloads(t *testing.T) {
	dir := t.TempDir()
	frag := filepath.Join(dir, "volume.frag")
	require.NoError(t, os.WriteFile(frag, []byte(shaders.Default().Fragment), 0o644))

	reloads := make(chan error, 8)
	p := newPresents()
	v, _ := newViewer(t,
		WithPresenter(p.present),
		WithFPS(200),
		WithShaderWatch("", frag),
		WithReloadHook(func(err error) { reloads <- err }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- v.Serve(ctx, volume.DemoSource{Dims: volume.Dims{X: 4, Y: 4, Z: 4}})
	}()

	select {
	case <-p.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no frame presented")
	}

	wait := func() error {
		select {
		case err := <-reloads:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("no reload")
			return nil
		}
	}

	require.NoError(t, os.WriteFile(frag, []byte(brokenFragment), 0o644))
	assert.ErrorIs(t, wait(), pipeline.ErrCompile)

	require.NoError(t, os.WriteFile(frag, []byte(shaders.Default().Fragment), 0o644))
	assert.NoError(t, wait())

	cancel()
	require.NoError(t, <-done)
}

func TestBounds(t *testing.T) {
	v, _ := newViewer(t, WithVolumeScale([3]float32{2, 1, 0.5}))
	assert.InDelta(t, -0.5, v.lo.X, 1e-6)
	assert.InDelta(t, 1.5, v.hi.X, 1e-6)
	assert.InDelta(t, 0, v.lo.Y, 1e-6)
	assert.InDelta(t, 1, v.hi.Y, 1e-6)
	assert.InDelta(t, 0.25, v.lo.Z, 1e-6)
	assert.InDelta(t, 0.75, v.hi.Z, 1e-6)
}

func BenchmarkTick(b *testing.B) {
	gl := softgl.New(64, 32)
	v := New(gl, state.New())
	v.Resize(64, 32)
	v.LoadComplete(solid(16, 80))
	if err := v.Tick(); err != nil {
		b.Fatal(err)
	}
	for b.Loop() {
		_ = v.State().SetDirty(true)
		_ = v.Tick()
	}
}
