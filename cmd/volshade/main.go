// volshade - Terminal Volume Viewer
// Ray-march raw uint8 volumes in your terminal.
//
// Controls:
//
//	Left drag   - Rotate around the volume
//	Right drag  - Pan
//	Scroll      - Zoom in/out
//	+/-         - Zoom in/out
//	R           - Reset view
//	P           - Save a screenshot
//	?           - Toggle HUD overlay (FPS, volume, colormap legend)
//	Esc/Q       - Quit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/volshade/pkg/arcball"
	"github.com/taigrr/volshade/pkg/colormap"
	"github.com/taigrr/volshade/pkg/config"
	"github.com/taigrr/volshade/pkg/geometry"
	"github.com/taigrr/volshade/pkg/pipeline"
	"github.com/taigrr/volshade/pkg/render"
	"github.com/taigrr/volshade/pkg/shaders"
	"github.com/taigrr/volshade/pkg/softgl"
	"github.com/taigrr/volshade/pkg/state"
	"github.com/taigrr/volshade/pkg/viewer"
	"github.com/taigrr/volshade/pkg/volume"
)

var (
	configPath  = flag.String("config", "volshade.yaml", "Path to the YAML config file")
	demoShape   = flag.String("demo", "", "Synthetic volume to show without a file (sphere, torus, gradient)")
	colormapRef = flag.String("colormap", "", "Colormap preset or PNG path")
	targetFPS   = flag.Int("fps", 0, "Render loop rate (0 uses the config)")
	proxyPath   = flag.String("proxy", "", "GLB triangle strip replacing the cube geometry")
	exportProxy = flag.String("export-proxy", "", "Write the cube geometry to a GLB file and exit")
	writeConfig = flag.String("write-config", "", "Write the effective config to a file and exit")
)

// errQuit stops the event pump when the user quits.
var errQuit = errors.New("quit")

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "volshade - Terminal Volume Viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: volshade [options] [name_XxYxZ_uint8.raw]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Left drag   - Rotate\n")
		fmt.Fprintf(os.Stderr, "  Right drag  - Pan\n")
		fmt.Fprintf(os.Stderr, "  Scroll, +/- - Zoom in/out\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  P           - Save screenshot\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc/Q       - Quit\n")
	}
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg); err != nil {
		return err
	}

	if *writeConfig != "" {
		return config.SaveConfig(cfg, *writeConfig)
	}
	if *exportProxy != "" {
		return geometry.WriteGLB(*exportProxy, "volume-proxy", geometry.CubeStrip())
	}

	logger, err := newLogger(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer logger.Sync()

	return view(cfg, logger)
}

// applyFlags lets command line flags override the config file.
func applyFlags(cfg *config.Config) error {
	if flag.NArg() > 0 {
		cfg.Volume.Path = flag.Arg(0)
	}
	if *demoShape != "" {
		cfg.Volume.Path = ""
		cfg.Volume.Demo = *demoShape
	}
	if *colormapRef != "" {
		cfg.Volume.Colormap = *colormapRef
	}
	if *targetFPS > 0 {
		cfg.Render.FPS = *targetFPS
	}
	if *proxyPath != "" {
		cfg.Volume.Proxy = *proxyPath
	}
	return cfg.Validate()
}

func source(cfg *config.Config) volume.Source {
	if cfg.Volume.Path != "" {
		return volume.FileSource{Path: cfg.Volume.Path, Dims: cfg.VolumeDims()}
	}
	n := cfg.Volume.DemoDim
	return volume.DemoSource{Dims: volume.Dims{X: n, Y: n, Z: n}, Shape: volume.Shape(cfg.Volume.Demo)}
}

// viewerOptions translates the config into viewer and pipeline options.
func viewerOptions(cfg *config.Config, logger *zap.Logger, table []byte) ([]viewer.Option, error) {
	src, err := shaders.Load(cfg.Shaders.Vertex, cfg.Shaders.Fragment)
	if err != nil {
		return nil, err
	}

	opts := []viewer.Option{
		viewer.WithLogger(logger),
		viewer.WithFPS(cfg.Render.FPS),
		viewer.WithDensityDivisor(cfg.Volume.DensityDivisor),
		viewer.WithColormap(table),
		viewer.WithShaders(src),
		viewer.WithPipelineOptions(
			pipeline.WithProjection(pipeline.Projection{
				FOVY: cfg.Render.FOV * math.Pi / 180,
				Near: cfg.Render.Near,
				Far:  cfg.Render.Far,
			}),
			pipeline.WithClearColor(cfg.Render.Background),
			pipeline.WithDtScale(cfg.Render.DtScale),
		),
	}
	if cfg.Volume.Proxy != "" {
		positions, err := geometry.ReadStrip(cfg.Volume.Proxy)
		if err != nil {
			return nil, err
		}
		opts = append(opts, viewer.WithPositions(positions))
	}
	if cfg.Shaders.Watch {
		opts = append(opts, viewer.WithShaderWatch(cfg.Shaders.Vertex, cfg.Shaders.Fragment))
	}
	return opts, nil
}

func sharedState(cfg *config.Config) *state.Shared {
	zoomSpeed := cfg.Camera.ZoomSpeed
	opts := []state.Option{
		state.WithCamera(func() *arcball.Camera {
			c := arcball.Default()
			c.ZoomSpeed = zoomSpeed
			return c
		}),
		state.WithPanSpeed(cfg.Camera.PanSpeed),
	}
	if cfg.Camera.SmoothZoom {
		opts = append(opts, state.WithSmoothZoom(cfg.Render.FPS, cfg.Camera.ZoomFrequency, cfg.Camera.ZoomDamping))
	}
	return state.New(opts...)
}

func view(cfg *config.Config, logger *zap.Logger) error {
	table, err := colormap.Load(cfg.Volume.Colormap)
	if err != nil {
		return err
	}
	opts, err := viewerOptions(cfg, logger, table)
	if err != nil {
		return err
	}

	// Create terminal
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1002h") // Enable button-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1002l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	surface := render.NewSurface(term, width, height, render.NewHUD("loading"))
	surface.SetLegend(table)
	_ = surface.Clear(render.FloatRGBA(cfg.Render.Background))

	cw, ch := surface.CanvasSize()
	gl := softgl.New(cw, ch, softgl.WithWorkers(cfg.Render.Workers), softgl.WithLogger(logger))

	opts = append(opts,
		viewer.WithPresenter(func(p viewer.Presented) error {
			return surface.Present(p.Target, render.Overlay{Frames: p.Frames, InView: p.InView})
		}),
		viewer.WithLoadHook(func(info viewer.LoadInfo) {
			if info.Err != nil {
				surface.SetStatus("load failed: " + info.Err.Error())
				return
			}
			surface.SetVolume(info.Name, info.Dims, info.Stats)
		}),
		viewer.WithReloadHook(func(err error) {
			if err != nil {
				surface.SetStatus("shader reload failed, see log")
				return
			}
			surface.SetStatus("")
		}),
	)
	v := viewer.New(gl, sharedState(cfg), opts...)
	v.Resize(cw, ch)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return v.Serve(ctx, source(cfg))
	})
	g.Go(func() error {
		return pump(ctx, term, surface, v, logger)
	})

	err = g.Wait()
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// pump forwards terminal events to the viewer until ctx is done or the
// user quits.
func pump(ctx context.Context, term *uv.Terminal, surface *render.Surface, v *viewer.Viewer, logger *zap.Logger) error {
	events := term.Events()
	for {
		var ev uv.Event
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return errQuit
			}
			ev = e
		}

		var err error
		switch ev := ev.(type) {
		case uv.WindowSizeEvent:
			surface.Exclusive(func() {
				term.Erase()
				term.Resize(ev.Width, ev.Height)
			})
			surface.Resize(ev.Width, ev.Height)
			v.Resize(surface.CanvasSize())

		case uv.KeyPressEvent:
			switch {
			case ev.MatchString("escape", "q", "ctrl+c"):
				return errQuit
			case ev.MatchString("r"):
				err = v.ResetCamera()
			case ev.MatchString("+", "="):
				err = v.Wheel(1)
			case ev.MatchString("-", "_"):
				err = v.Wheel(-1)
			case ev.MatchString("?", "shift+/"):
				surface.ToggleHUD()
				err = surface.Refresh()
			case ev.MatchString("p"):
				path := fmt.Sprintf("volshade-%s.png", time.Now().Format("20060102-150405"))
				if err = surface.Screenshot(path); err == nil {
					surface.SetStatus("saved " + path)
					err = surface.Refresh()
				}
			}

		case uv.MouseClickEvent:
			x, y := render.CellToPixel(ev.X, ev.Y)
			switch ev.Button {
			case uv.MouseLeft:
				err = v.MouseDown(x, y, state.ButtonLeft)
			case uv.MouseRight:
				err = v.MouseDown(x, y, state.ButtonRight)
			}

		case uv.MouseReleaseEvent:
			err = v.MouseUp(render.CellToPixel(ev.X, ev.Y))

		case uv.MouseMotionEvent:
			err = v.MouseMove(render.CellToPixel(ev.X, ev.Y))

		case uv.MouseWheelEvent:
			switch ev.Button {
			case uv.MouseWheelUp:
				err = v.Wheel(1)
			case uv.MouseWheelDown:
				err = v.Wheel(-1)
			}
		}

		if errors.Is(err, state.ErrPoisoned) {
			return err
		}
		if err != nil {
			logger.Warn("input handling failed", zap.Error(err))
		}
	}
}
