// Package volume loads and prepares 8-bit scalar density volumes.
package volume

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
)

var (
	// ErrBadName means a file name does not follow name_XxYxZ_type.
	ErrBadName = errors.New("file name does not carry volume dimensions")

	// ErrUnsupportedType means the voxel type is not uint8.
	ErrUnsupportedType = errors.New("unsupported voxel type")
)

// Volume is a density field stored X fastest, then Y, then Z.
type Volume struct {
	Name string
	Dims Dims
	Data []byte
}

// Fitted reports whether Data holds exactly Dims.Len() voxels.
func (v *Volume) Fitted() bool {
	return len(v.Data) == v.Dims.Len()
}

var nameRe = regexp.MustCompile(`(\w+)_(\d+)x(\d+)x(\d+)_(\w+)`)

// ParseName extracts the dataset name and dimensions from a file name like
// skull_256x256x256_uint8.raw. Only uint8 voxels are supported.
func ParseName(path string) (string, Dims, error) {
	base := filepath.Base(path)
	m := nameRe.FindStringSubmatch(base)
	if m == nil {
		return "", Dims{}, fmt.Errorf("%s: %w", base, ErrBadName)
	}
	var d Dims
	for i, p := range []*int{&d.X, &d.Y, &d.Z} {
		n, err := strconv.Atoi(m[2+i])
		if err != nil {
			return "", Dims{}, fmt.Errorf("%s: %w", base, err)
		}
		*p = n
	}
	if !d.Valid() {
		return "", Dims{}, fmt.Errorf("%s: %w (%s)", base, ErrBadName, d)
	}
	if m[5] != "uint8" {
		return "", Dims{}, fmt.Errorf("%s: %w %q", base, ErrUnsupportedType, m[5])
	}
	return m[1], d, nil
}

// Fit returns data with exactly n bytes, zero padded or truncated. data is
// returned unchanged when it already has n bytes.
func Fit(data []byte, n int) []byte {
	if len(data) == n {
		return data
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}

// Attenuate returns a copy of data with every voxel divided by divisor.
// A divisor of 1 or less returns data unchanged.
func Attenuate(data []byte, divisor int) []byte {
	if divisor <= 1 {
		return data
	}
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b / byte(min(divisor, 255))
	}
	return out
}
