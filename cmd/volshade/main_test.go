package main

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taigrr/volshade/pkg/config"
	"github.com/taigrr/volshade/pkg/math3d"
	"github.com/taigrr/volshade/pkg/volume"
)

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volshade.log")
	logger, err := newLogger("debug", path)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Debug("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) || !strings.Contains(string(data), `"service":"volshade"`) {
		t.Errorf("log = %s", data)
	}

	if _, err := newLogger("loud", path); err == nil {
		t.Error("expected error for bad level")
	}
	if l, err := newLogger("info", ""); err != nil || l == nil {
		t.Errorf("empty path should give a no-op logger, got %v, %v", l, err)
	}
}

func TestSource(t *testing.T) {
	cfg := config.DefaultConfig()

	t.Run("demo", func(t *testing.T) {
		src, ok := source(cfg).(volume.DemoSource)
		if !ok {
			t.Fatalf("source = %T, want DemoSource", source(cfg))
		}
		if src.Dims != (volume.Dims{X: 64, Y: 64, Z: 64}) || src.Shape != volume.ShapeSphere {
			t.Errorf("demo source = %+v", src)
		}
	})

	t.Run("file", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Volume.Path = "skull_256x256x256_uint8.raw"
		src, ok := source(cfg).(volume.FileSource)
		if !ok {
			t.Fatalf("source = %T, want FileSource", source(cfg))
		}
		if src.Path != cfg.Volume.Path || src.Dims != (volume.Dims{}) {
			t.Errorf("file source = %+v", src)
		}
	})
}

func TestViewerOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	opts, err := viewerOptions(cfg, nil, nil)
	if err != nil {
		t.Fatalf("viewerOptions: %v", err)
	}
	if len(opts) == 0 {
		t.Fatal("no options")
	}

	cfg.Volume.Proxy = filepath.Join(t.TempDir(), "missing.glb")
	if _, err := viewerOptions(cfg, nil, nil); err == nil {
		t.Error("expected error for missing proxy")
	}

	cfg = config.DefaultConfig()
	cfg.Shaders.Fragment = filepath.Join(t.TempDir(), "missing.frag")
	if _, err := viewerOptions(cfg, nil, nil); err == nil {
		t.Error("expected error for missing shader")
	}
}

func TestSharedStateUsesZoomSpeed(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Camera.ZoomSpeed = 2
	s := sharedState(cfg)
	center := math3d.V3(0.5, 0.5, 0.5)

	data, err := s.ArcballData()
	if err != nil {
		t.Fatal(err)
	}
	if d := data.Eye.Sub(center).Len(); math.Abs(d-2) > 1e-9 {
		t.Fatalf("initial distance = %v, want 2", d)
	}

	// 100 raw units on the 400 pixel default canvas is a quarter step.
	if err := s.ScrollToZoom(100); err != nil {
		t.Fatal(err)
	}
	data, err = s.ArcballData()
	if err != nil {
		t.Fatal(err)
	}
	if d := data.Eye.Sub(center).Len(); math.Abs(d-1.5) > 1e-9 {
		t.Errorf("distance after zoom = %v, want 1.5", d)
	}
}
