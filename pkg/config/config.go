// Package config loads volshade settings from YAML and provides defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/taigrr/volshade/pkg/colormap"
	"github.com/taigrr/volshade/pkg/volume"
)

// Config is the application configuration.
type Config struct {
	Render struct {
		// FPS is the render loop tick rate.
		FPS int `yaml:"fps"`

		// FOV is the vertical field of view in degrees.
		FOV  float64 `yaml:"fov"`
		Near float64 `yaml:"near"`
		Far  float64 `yaml:"far"`

		// Background is the clear color, RGBA in [0,1].
		Background [4]float32 `yaml:"background"`

		// DtScale multiplies the ray-march step.
		DtScale float32 `yaml:"dtScale"`

		// Workers is the number of parallel shading bands, 0 for all CPUs.
		Workers int `yaml:"workers"`
	} `yaml:"render"`

	Camera struct {
		ZoomSpeed     float64 `yaml:"zoomSpeed"`
		PanSpeed      float64 `yaml:"panSpeed"`
		SmoothZoom    bool    `yaml:"smoothZoom"`
		ZoomFrequency float64 `yaml:"zoomFrequency"`
		ZoomDamping   float64 `yaml:"zoomDamping"`
	} `yaml:"camera"`

	Volume struct {
		// Path to a raw uint8 volume. Empty uses the demo volume.
		Path string `yaml:"path"`

		// Dims overrides the dimensions parsed from the file name.
		Dims [3]int `yaml:"dims"`

		// DensityDivisor divides every voxel before upload.
		DensityDivisor int `yaml:"densityDivisor"`

		// Colormap is a preset name or a PNG path.
		Colormap string `yaml:"colormap"`

		// Demo selects the synthetic shape used without a path.
		Demo    string `yaml:"demo"`
		DemoDim int    `yaml:"demoDim"`

		// Proxy is an optional GLB replacing the cube geometry.
		Proxy string `yaml:"proxy"`
	} `yaml:"volume"`

	Shaders struct {
		// Vertex and Fragment override the embedded sources.
		Vertex   string `yaml:"vertex"`
		Fragment string `yaml:"fragment"`

		// Watch rebuilds the program when an override changes.
		Watch bool `yaml:"watch"`
	} `yaml:"shaders"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Render.FPS = 30
	cfg.Render.FOV = 65
	cfg.Render.Near = 1
	cfg.Render.Far = 200
	cfg.Render.Background = [4]float32{1, 1, 1, 1}
	cfg.Render.DtScale = 1

	cfg.Camera.ZoomSpeed = 1
	cfg.Camera.PanSpeed = 1
	cfg.Camera.ZoomFrequency = 6
	cfg.Camera.ZoomDamping = 1

	cfg.Volume.DensityDivisor = 5
	cfg.Volume.Colormap = "default"
	cfg.Volume.Demo = string(volume.ShapeSphere)
	cfg.Volume.DemoDim = 64

	cfg.Log.Level = "info"
	cfg.Log.File = "volshade.log"

	return cfg
}

// LoadConfig loads configuration from a YAML file. A missing file yields
// the defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to configPath, creating its directory.
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Render.FPS <= 0:
		return fmt.Errorf("render.fps must be positive, got %d", c.Render.FPS)
	case c.Render.FOV <= 0 || c.Render.FOV >= 180:
		return fmt.Errorf("render.fov must be in (0, 180), got %v", c.Render.FOV)
	case c.Render.Near <= 0 || c.Render.Far <= c.Render.Near:
		return fmt.Errorf("render.near/far must satisfy 0 < near < far, got %v/%v", c.Render.Near, c.Render.Far)
	case c.Render.DtScale <= 0:
		return fmt.Errorf("render.dtScale must be positive, got %v", c.Render.DtScale)
	case c.Render.Workers < 0:
		return fmt.Errorf("render.workers must not be negative, got %d", c.Render.Workers)
	case c.Camera.ZoomSpeed <= 0:
		return fmt.Errorf("camera.zoomSpeed must be positive, got %v", c.Camera.ZoomSpeed)
	case c.Camera.SmoothZoom && c.Camera.ZoomFrequency <= 0:
		return fmt.Errorf("camera.zoomFrequency must be positive, got %v", c.Camera.ZoomFrequency)
	case c.Volume.DensityDivisor < 0:
		return fmt.Errorf("volume.densityDivisor must not be negative, got %d", c.Volume.DensityDivisor)
	}
	for _, v := range c.Render.Background {
		if v < 0 || v > 1 {
			return fmt.Errorf("render.background components must be in [0, 1], got %v", c.Render.Background)
		}
	}
	if d := c.VolumeDims(); d != (volume.Dims{}) && !d.Valid() {
		return fmt.Errorf("volume.dims must all be in [1, %d], got %s", volume.MaxExtent, d)
	}
	if c.Volume.Path == "" {
		if c.Volume.DemoDim <= 0 || c.Volume.DemoDim > volume.MaxExtent {
			return fmt.Errorf("volume.demoDim must be in [1, %d], got %d", volume.MaxExtent, c.Volume.DemoDim)
		}
		if !validShape(c.Volume.Demo) {
			return fmt.Errorf("volume.demo must be one of %v, got %q", volume.Shapes, c.Volume.Demo)
		}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := colormap.Preset(c.Volume.Colormap); err != nil && !fileExists(c.Volume.Colormap) {
		return fmt.Errorf("volume.colormap: %w", err)
	}
	return nil
}

// VolumeDims returns the configured dimension override.
func (c *Config) VolumeDims() volume.Dims {
	return volume.Dims{X: c.Volume.Dims[0], Y: c.Volume.Dims[1], Z: c.Volume.Dims[2]}
}

func validShape(s string) bool {
	for _, shape := range volume.Shapes {
		if string(shape) == s {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
