package volume

import "fmt"

// MaxExtent is the largest accepted extent along any axis. It matches the
// usual GL_MAX_3D_TEXTURE_SIZE and keeps Len well inside int.
const MaxExtent = 2048

// Dims is the voxel extent of a volume along X, Y and Z.
type Dims struct {
	X, Y, Z int
}

// Len returns the number of voxels, X*Y*Z, or 0 when d is not Valid.
func (d Dims) Len() int {
	if !d.Valid() {
		return 0
	}
	return d.X * d.Y * d.Z
}

// Valid reports whether every extent is in [1, MaxExtent].
func (d Dims) Valid() bool {
	return d.Within(MaxExtent)
}

// Within reports whether every extent is in [1, limit].
func (d Dims) Within(limit int) bool {
	for _, n := range [3]int{d.X, d.Y, d.Z} {
		if n <= 0 || n > limit {
			return false
		}
	}
	return true
}

// Int32 returns the extents as an ivec3 uniform payload. Dims that are not
// Valid yield the zero vector rather than truncated values.
func (d Dims) Int32() [3]int32 {
	if !d.Valid() {
		return [3]int32{}
	}
	return [3]int32{int32(d.X), int32(d.Y), int32(d.Z)}
}

func (d Dims) String() string {
	return fmt.Sprintf("%dx%dx%d", d.X, d.Y, d.Z)
}
