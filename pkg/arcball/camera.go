// Package arcball implements an orbit camera driven by mouse drags on a
// virtual trackball centred on a fixed pivot.
package arcball

import (
	"math"

	"github.com/taigrr/volshade/pkg/math3d"
)

// DrawData is the per-frame camera output consumed by the renderer.
type DrawData struct {
	View math3d.Mat4
	Eye  math3d.Vec3
}

// Camera is an arcball camera. The view matrix is
// Translation * Rotation * CenterTranslation.
type Camera struct {
	// Center is the pivot the camera orbits around.
	Center math3d.Vec3

	// ZoomSpeed scales every Zoom call.
	ZoomSpeed float64

	translation       math3d.Mat4
	centerTranslation math3d.Mat4
	rotation          math3d.Quat

	// Cached matrices, recomputed after every mutation
	view    math3d.Mat4
	invView math3d.Mat4

	invScreen [2]float64
}

// New creates a camera looking at center from one unit down -Z.
func New(center math3d.Vec3, zoomSpeed, width, height float64) *Camera {
	c := &Camera{
		Center:            center,
		ZoomSpeed:         zoomSpeed,
		translation:       math3d.Translate(math3d.V3(0, 0, -1)),
		centerTranslation: math3d.Translate(center.Negate()),
		rotation:          math3d.IdentityQuat(),
	}
	c.setScreen(width, height)
	c.update()
	return c
}

// Default returns the camera the viewer starts with: pivot at the centre of
// the unit volume, screen 600x400, two units away from the pivot.
func Default() *Camera {
	c := New(math3d.V3(0.5, 0.5, 0.5), 1, 600, 400)
	c.Zoom(-1, 1)
	return c
}

// Rotate rotates the camera for a drag from prev to cur, both in pixels.
func (c *Camera) Rotate(prev, cur math3d.Vec2) {
	prevBall := toArcball(c.toNDC(prev))
	curBall := toArcball(c.toNDC(cur))
	c.rotation = curBall.Mul(prevBall).Mul(c.rotation).Normalize()
	c.update()
}

// Pan moves the pivot parallel to the view plane. delta is in pixels.
func (c *Camera) Pan(delta math3d.Vec2, speed float64) {
	dist := math.Abs(c.translation[14])
	d := math3d.V4(
		delta.X*c.invScreen[0]*dist*speed,
		-delta.Y*c.invScreen[1]*dist*speed,
		0, 0,
	)
	motion := c.invView.MulVec4(d)
	c.centerTranslation = math3d.Translate(motion.Vec3()).Mul(c.centerTranslation)
	c.update()
}

// Zoom dollies the camera along its view axis. Positive amounts move
// towards the pivot.
func (c *Camera) Zoom(amount, speed float64) {
	motion := math3d.V3(0, 0, amount*c.ZoomSpeed*speed)
	c.translation = math3d.Translate(motion).Mul(c.translation)
	c.update()
}

// UpdateScreen records the viewport size used to normalise mouse input.
func (c *Camera) UpdateScreen(width, height float64) {
	c.setScreen(width, height)
}

// Mat4 returns the view matrix.
func (c *Camera) Mat4() math3d.Mat4 {
	return c.view
}

// InvMat4 returns the inverse view matrix.
func (c *Camera) InvMat4() math3d.Mat4 {
	return c.invView
}

// EyePos returns the camera position in world space.
func (c *Camera) EyePos() math3d.Vec3 {
	return c.invView.MulVec4(math3d.V4(0, 0, 0, 1)).Vec3()
}

// Distance returns the distance from the eye to the pivot.
func (c *Camera) Distance() float64 {
	return math.Abs(c.translation[14])
}

// Data returns the view matrix and eye position.
func (c *Camera) Data() DrawData {
	return DrawData{View: c.view, Eye: c.EyePos()}
}

func (c *Camera) setScreen(width, height float64) {
	c.invScreen = [2]float64{1 / width, 1 / height}
}

func (c *Camera) update() {
	c.view = c.translation.Mul(c.rotation.Mat4()).Mul(c.centerTranslation)
	c.invView = c.view.Inverse()
}

// toNDC maps a pixel position to [-1,1] with y pointing up.
func (c *Camera) toNDC(p math3d.Vec2) math3d.Vec2 {
	return math3d.V2(
		clamp(p.X*2*c.invScreen[0]-1, -1, 1),
		clamp(1-2*p.Y*c.invScreen[1], -1, 1),
	)
}

// toArcball lifts a point in NDC onto the unit sphere. Points outside the
// ball land on its rim.
func toArcball(p math3d.Vec2) math3d.Quat {
	d := p.Dot(p)
	if d <= 1 {
		return math3d.PureQuat(math3d.V3(p.X, p.Y, math.Sqrt(1-d)))
	}
	u := p.Normalize()
	return math3d.PureQuat(math3d.V3(u.X, u.Y, 0))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
