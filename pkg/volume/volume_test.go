package volume

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDims(t *testing.T) {
	d := Dims{X: 4, Y: 3, Z: 2}
	assert.Equal(t, 24, d.Len())
	assert.True(t, d.Valid())
	assert.Equal(t, [3]int32{4, 3, 2}, d.Int32())
	assert.Equal(t, "4x3x2", d.String())
	assert.False(t, Dims{X: 4, Y: 0, Z: 2}.Valid())

	huge := Dims{X: 100000, Y: 100000, Z: 100000}
	assert.False(t, huge.Valid())
	assert.Zero(t, huge.Len(), "oversized dims must not overflow")
	assert.Equal(t, [3]int32{}, huge.Int32())
	assert.Equal(t, [3]int32{}, Dims{X: 1 << 32, Y: 1, Z: 1}.Int32())

	edge := Dims{X: MaxExtent, Y: MaxExtent, Z: 1}
	assert.True(t, edge.Valid())
	assert.Equal(t, MaxExtent*MaxExtent, edge.Len())
	assert.True(t, d.Within(4))
	assert.False(t, d.Within(3))
}

func TestParseName(t *testing.T) {
	tests := []struct {
		path    string
		name    string
		dims    Dims
		wantErr error
	}{
		{"skull_256x256x256_uint8.raw", "skull", Dims{256, 256, 256}, nil},
		{"data/foot_64x32x16_uint8.raw", "foot", Dims{64, 32, 16}, nil},
		{"engine_256x256x128_uint16.raw", "", Dims{}, ErrUnsupportedType},
		{"volume.raw", "", Dims{}, ErrBadName},
		{"zero_0x4x4_uint8.raw", "", Dims{}, ErrBadName},
		{"huge_3000x3000x3000_uint8.raw", "", Dims{}, ErrBadName},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			name, dims, err := ParseName(tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.dims, dims)
		})
	}
}

func TestFit(t *testing.T) {
	data := []byte{1, 2, 3}
	assert.Equal(t, []byte{1, 2, 3, 0, 0}, Fit(data, 5))
	assert.Equal(t, []byte{1, 2}, Fit(data, 2))

	same := Fit(data, 3)
	assert.Same(t, &data[0], &same[0])
}

func TestAttenuate(t *testing.T) {
	data := []byte{0, 4, 5, 255}
	assert.Equal(t, []byte{0, 0, 1, 51}, Attenuate(data, 5))
	assert.Equal(t, []byte{0, 4, 5, 255}, data, "input must not change")
	assert.Equal(t, data, Attenuate(data, 1))
	assert.Equal(t, data, Attenuate(data, 0))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]byte{0, 0, 10, 30})
	assert.Equal(t, byte(0), s.Min)
	assert.Equal(t, byte(30), s.Max)
	assert.Equal(t, 2, s.NonZero)
	assert.InDelta(t, 10.0, s.Mean, 1e-9)
	assert.Greater(t, s.StdDev, 0.0)

	one := Summarize([]byte{7})
	assert.Equal(t, 7.0, one.Mean)
	assert.Equal(t, 0.0, one.StdDev)

	assert.Equal(t, Stats{}, Summarize(nil))
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cube_2x2x2_uint8.raw")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3, 4, 5, 6, 7, 8}, 0o644))

	v, err := FileSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cube", v.Name)
	assert.Equal(t, Dims{2, 2, 2}, v.Dims)
	assert.True(t, v.Fitted())

	// Explicit dims win over the file name.
	v, err = FileSource{Path: path, Dims: Dims{4, 2, 1}}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Dims{4, 2, 1}, v.Dims)

	_, err = FileSource{Path: filepath.Join(dir, "missing_2x2x2_uint8.raw")}.Load(context.Background())
	assert.Error(t, err)

	_, err = FileSource{Path: filepath.Join(dir, "noname.raw")}.Load(context.Background())
	assert.ErrorIs(t, err, ErrBadName)
}

func TestFileSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FileSource{Path: "x_1x1x1_uint8.raw"}.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDemoSource(t *testing.T) {
	for _, shape := range Shapes {
		t.Run(string(shape), func(t *testing.T) {
			v, err := DemoSource{Dims: Dims{8, 8, 8}, Shape: shape}.Load(context.Background())
			require.NoError(t, err)
			assert.Len(t, v.Data, 512)
			assert.Equal(t, string(shape), v.Name)
		})
	}

	v, err := DemoSource{Dims: Dims{9, 9, 9}}.Load(context.Background())
	require.NoError(t, err)
	center := v.Data[(4*9+4)*9+4]
	corner := v.Data[0]
	assert.Greater(t, center, byte(200))
	assert.Equal(t, byte(0), corner)

	_, err = DemoSource{Dims: Dims{8, 8, 8}, Shape: "cone"}.Load(context.Background())
	assert.Error(t, err)
	_, err = DemoSource{}.Load(context.Background())
	assert.Error(t, err)
}
