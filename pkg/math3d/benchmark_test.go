package math3d

import "testing"

// The per-frame camera work: rebuild the view from a quaternion, compose
// with the projection and invert for the eye position.

func BenchmarkViewFromQuat(b *testing.B) {
	q := Quat{Real: 0.9, Imag: 0.1, Jmag: 0.3, Kmag: 0.2}.Normalize()
	eye := Translate(V3(0, 0, -2))
	center := Translate(Splat3(-0.5))

	for b.Loop() {
		_ = eye.Mul(q.Mat4()).Mul(center)
	}
}

func BenchmarkProjView(b *testing.B) {
	view := Translate(V3(0, 0, -2)).Mul(Translate(Splat3(-0.5)))
	proj := Perspective(1.134, 1.333, 1, 200)

	for b.Loop() {
		_ = proj.Mul(view).Float32()
	}
}

func BenchmarkInverse(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(Scale(V3(2, 2, 2)))

	for b.Loop() {
		_ = m.Inverse()
	}
}

func BenchmarkClipVertex(b *testing.B) {
	m := Perspective(1.134, 1.333, 1, 200).Mul(Translate(V3(0, 0, -2)))
	p := V4(0.5, 0.5, 0.5, 1)

	for b.Loop() {
		_ = m.MulVec4(p).PerspectiveDivide()
	}
}
