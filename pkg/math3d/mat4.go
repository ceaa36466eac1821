package math3d

import "math"

// Mat4 is a column-major 4x4 matrix. Element (row, col) lives at
// index row+4*col, so m[12], m[13], m[14] hold the translation and the
// slice can be uploaded to a mat4 uniform without transposing.
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	var m Mat4
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

// Translate returns a matrix that moves points by v.
func Translate(v Vec3) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = v.X, v.Y, v.Z
	return m
}

// Scale returns a matrix that scales each axis by the matching component of v.
func Scale(v Vec3) Mat4 {
	m := Identity()
	m[0], m[5], m[10] = v.X, v.Y, v.Z
	return m
}

// Perspective builds a right-handed projection mapping the view frustum
// to clip space with depth in [-1, 1]. fovy is in radians.
func Perspective(fovy, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovy/2)
	depth := near - far

	var m Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = (far + near) / depth
	m[11] = -1
	m[14] = 2 * far * near / depth
	return m
}

// Mul returns a*b, which applies b first.
//
//nolint:st1016 // a*b reads better than m*n for composition
func (a Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 16; c += 4 {
		bc := Vec4{b[c], b[c+1], b[c+2], b[c+3]}
		col := a.MulVec4(bc)
		out[c], out[c+1], out[c+2], out[c+3] = col.X, col.Y, col.Z, col.W
	}
	return out
}

// MulVec4 transforms a homogeneous vector.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		X: m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		Y: m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		Z: m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		W: m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// MulPoint transforms p with w=1 and divides the result by w.
func (m Mat4) MulPoint(p Vec3) Vec3 {
	return m.MulVec4(V4FromV3(p, 1)).PerspectiveDivide()
}

// Inverse returns the inverse of m by Gauss-Jordan elimination with
// partial pivoting. A singular matrix yields the identity.
func (m Mat4) Inverse() Mat4 {
	// rows of the augmented matrix [m | I]
	var aug [4][8]float64
	for r := range 4 {
		for c := range 4 {
			aug[r][c] = m[r+4*c]
		}
		aug[r][4+r] = 1
	}

	for col := range 4 {
		pivot := col
		for r := col + 1; r < 4; r++ {
			if math.Abs(aug[r][col]) > math.Abs(aug[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(aug[pivot][col]) < 1e-12 {
			return Identity()
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		inv := 1 / aug[col][col]
		for c := range 8 {
			aug[col][c] *= inv
		}
		for r := range 4 {
			if r == col || aug[r][col] == 0 {
				continue
			}
			f := aug[r][col]
			for c := range 8 {
				aug[r][c] -= f * aug[col][c]
			}
		}
	}

	var out Mat4
	for r := range 4 {
		for c := range 4 {
			out[r+4*c] = aug[r][4+c]
		}
	}
	return out
}

// Float32 returns the matrix in column-major float32 order, ready for a
// uniform upload.
func (m Mat4) Float32() [16]float32 {
	var out [16]float32
	for i, v := range m {
		out[i] = float32(v)
	}
	return out
}

// ApproxEqual reports whether every element of a and b differs by at most eps.
//
//nolint:st1016 // a,b naming convention is clearer for comparisons
func (a Mat4) ApproxEqual(b Mat4, eps float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}
