package math3d

import "gonum.org/v1/gonum/num/quat"

// Quat is a rotation quaternion. Arithmetic is delegated to gonum's
// quaternion numbers; Real is the scalar part.
type Quat quat.Number

// IdentityQuat returns the quaternion representing no rotation.
func IdentityQuat() Quat {
	return Quat{Real: 1}
}

// PureQuat returns the quaternion (0, v).
func PureQuat(v Vec3) Quat {
	return Quat{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
}

// Mul returns the Hamilton product q * r.
func (q Quat) Mul(r Quat) Quat {
	return Quat(quat.Mul(quat.Number(q), quat.Number(r)))
}

// Len returns the quaternion norm.
func (q Quat) Len() float64 {
	return quat.Abs(quat.Number(q))
}

// Normalize returns the unit quaternion in the same direction.
// The zero quaternion normalizes to the identity.
func (q Quat) Normalize() Quat {
	l := q.Len()
	if l == 0 {
		return IdentityQuat()
	}
	return Quat(quat.Scale(1/l, quat.Number(q)))
}

// Conj returns the conjugate, which is the inverse rotation for unit quaternions.
func (q Quat) Conj() Quat {
	return Quat(quat.Conj(quat.Number(q)))
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	r := q.Mul(PureQuat(v)).Mul(q.Conj())
	return Vec3{r.Imag, r.Jmag, r.Kmag}
}

// Mat4 returns the rotation matrix of the unit quaternion q.
func (q Quat) Mat4() Mat4 {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	// Column-major, see Mat4.
	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0,
		2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0,
		2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}
