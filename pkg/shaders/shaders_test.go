package shaders

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDeclaresUniforms(t *testing.T) {
	src := Default()
	all := src.Vertex + src.Fragment

	for _, name := range []string{"proj_view", "eye_pos", "colormap", "volume", "volume_dims", "volume_scale", "dt_scale"} {
		assert.Contains(t, all, name)
	}
	assert.True(t, strings.HasPrefix(src.Vertex, "#version 300 es"))
	assert.True(t, strings.HasPrefix(src.Fragment, "#version 300 es"))
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	frag := filepath.Join(dir, "custom.frag")
	require.NoError(t, os.WriteFile(frag, []byte("#version 300 es\nvoid main() {}\n"), 0o644))

	src, err := Load("", frag)
	require.NoError(t, err)
	assert.Equal(t, Default().Vertex, src.Vertex)
	assert.Contains(t, src.Fragment, "void main() {}")
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.vert"), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, []string{"a.frag"}, Paths("", "a.frag"))
	assert.Empty(t, Paths("", ""))
}
