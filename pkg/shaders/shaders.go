// Package shaders ships the GLSL ES 3.00 sources of the volume ray marcher
// and loads replacements from disk.
package shaders

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed volume.vert
var defaultVertex string

//go:embed volume.frag
var defaultFragment string

// Sources is a vertex/fragment shader pair.
type Sources struct {
	Vertex   string
	Fragment string
}

// Default returns the embedded ray-marching shaders.
func Default() Sources {
	return Sources{Vertex: defaultVertex, Fragment: defaultFragment}
}

// Load reads shader overrides. An empty path keeps the embedded source for
// that stage.
func Load(vertexPath, fragmentPath string) (Sources, error) {
	src := Default()

	if vertexPath != "" {
		b, err := os.ReadFile(vertexPath)
		if err != nil {
			return Sources{}, fmt.Errorf("read vertex shader: %w", err)
		}
		src.Vertex = string(b)
	}

	if fragmentPath != "" {
		b, err := os.ReadFile(fragmentPath)
		if err != nil {
			return Sources{}, fmt.Errorf("read fragment shader: %w", err)
		}
		src.Fragment = string(b)
	}

	return src, nil
}

// Paths returns the non-empty override paths, for watching.
func Paths(vertexPath, fragmentPath string) []string {
	var paths []string
	for _, p := range []string{vertexPath, fragmentPath} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
