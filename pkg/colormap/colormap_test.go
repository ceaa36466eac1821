package colormap

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cm := Default()
	require.Len(t, cm, Size)
	assert.Equal(t, []byte{0, 0, 10, 50}, cm[0:4])
	assert.Equal(t, []byte{128, 128, 10, 50}, cm[128*4:128*4+4])
	assert.Equal(t, []byte{255, 255, 10, 50}, cm[Size-4:])
}

func TestPresets(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			cm, err := Preset(name)
			require.NoError(t, err)
			assert.Len(t, cm, Size)
		})
	}

	_, err := Preset("rainbow")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestFromStopsEndpoints(t *testing.T) {
	cm, err := FromStops("#000000", "#ffffff")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 255}, cm[0:4])
	assert.Equal(t, []byte{255, 255, 255, 255}, cm[Size-4:])

	// Lightness increases monotonically along a black to white ramp.
	for i := 1; i < Width; i++ {
		assert.GreaterOrEqual(t, cm[i*4], cm[(i-1)*4])
	}
}

func TestFromStopsErrors(t *testing.T) {
	_, err := FromStops("#000000")
	assert.Error(t, err)
	_, err = FromStops("#000000", "nothex")
	assert.Error(t, err)
}

func TestFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 0, 255, 255})

	cm := FromImage(img)
	require.Len(t, cm, Size)
	assert.Equal(t, []byte{255, 0, 0, 255}, cm[0:4])
	assert.Equal(t, []byte{0, 0, 255, 255}, cm[Size-4:])
}

func TestLoad(t *testing.T) {
	cm, err := Load("grayscale")
	require.NoError(t, err)
	assert.Len(t, cm, Size)

	path := filepath.Join(t.TempDir(), "map.png")
	img := image.NewRGBA(image.Rect(0, 0, 4, 1))
	for x := range 4 {
		img.Set(x, 0, color.RGBA{uint8(x * 60), 0, 0, 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	cm, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, byte(180), cm[Size-4])

	_, err = Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
