package state

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// zoomSettle is the distance below which the spring snaps to its target.
const zoomSettle = 1e-4

// zoomAxis eases camera dolly towards an accumulated scroll target with a
// critically damped spring.
type zoomAxis struct {
	position float64
	velocity float64
	target   float64
	spring   harmonica.Spring
}

func newZoomAxis(fps int, frequency, damping float64) *zoomAxis {
	return &zoomAxis{
		spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping),
	}
}

// push queues an additional zoom amount.
func (a *zoomAxis) push(amount float64) {
	a.target += amount
}

// step advances the spring one frame and returns how far the camera has to
// move this frame, and whether the axis is still in motion.
func (a *zoomAxis) step() (delta float64, moving bool) {
	prev := a.position
	a.position, a.velocity = a.spring.Update(a.position, a.velocity, a.target)

	if math.Abs(a.target-a.position) < zoomSettle && math.Abs(a.velocity) < zoomSettle {
		a.position = a.target
		a.velocity = 0
		return a.position - prev, prev != a.position
	}
	return a.position - prev, true
}

// idle reports whether there is nothing left to apply.
func (a *zoomAxis) idle() bool {
	return a.position == a.target && a.velocity == 0
}

func (a *zoomAxis) reset() {
	a.position, a.velocity, a.target = 0, 0, 0
}
