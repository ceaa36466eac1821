package render

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/taigrr/volshade/pkg/softgl"
	"github.com/taigrr/volshade/pkg/volume"
)

// Display is a cell screen that can flush pending cells to the terminal.
// *uv.Terminal satisfies it.
type Display interface {
	CellSetter
	Display() error
}

// Surface presents drawing buffers on a terminal. It is safe for use by
// the render goroutine and the event goroutine at the same time.
type Surface struct {
	mu      sync.Mutex
	dst     Display
	scene   *Framebuffer // last presented frame
	fb      *Framebuffer // scene plus overlay pixels
	cols    int
	rows    int
	hud     *HUD
	legend  []byte
	overlay Overlay
}

// NewSurface creates a surface of cols x rows cells.
func NewSurface(dst Display, cols, rows int, hud *HUD) *Surface {
	if hud == nil {
		hud = NewHUD("")
	}
	s := &Surface{dst: dst, hud: hud, overlay: Overlay{InView: true}}
	s.resize(cols, rows)
	return s
}

func (s *Surface) resize(cols, rows int) {
	s.cols, s.rows = max(cols, 1), max(rows, 1)
	s.scene = NewFramebuffer(s.cols, s.rows*2)
	s.fb = NewFramebuffer(s.cols, s.rows*2)
}

// Resize changes the cell size. The next Present resamples to it.
func (s *Surface) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resize(cols, rows)
}

// Exclusive runs fn while no frame is being presented, e.g. to resize the
// terminal underneath the surface.
func (s *Surface) Exclusive(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// CanvasSize returns the pixel size a drawing buffer should have to map
// one pixel per half cell.
func (s *Surface) CanvasSize() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.Width, s.scene.Height
}

// SetLegend sets the colormap drawn while the HUD is visible.
func (s *Surface) SetLegend(table []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.legend = table
}

// SetVolume forwards the loaded volume to the HUD.
func (s *Surface) SetVolume(name string, dims volume.Dims, st volume.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hud.SetVolume(name, dims, st)
}

// SetStatus forwards a status message to the HUD.
func (s *Surface) SetStatus(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hud.SetStatus(msg)
}

// ToggleHUD shows or hides the HUD.
func (s *Surface) ToggleHUD() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hud.Toggle()
}

// Present copies t into the framebuffer and draws it with the overlay.
func (s *Surface) Present(t *softgl.Target, o Overlay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene.CopyFrom(t)
	s.overlay = o
	s.hud.UpdateFPS()
	return s.flush()
}

// Refresh draws the last presented frame again, e.g. after the HUD changed.
func (s *Surface) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush()
}

// Clear fills the framebuffer with c, used before the first frame.
func (s *Surface) Clear(c color.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scene.Clear(c)
	return s.flush()
}

// flush composes the overlay onto a copy of the scene, so hiding the HUD
// takes the legend away on the next Refresh.
func (s *Surface) flush() error {
	s.fb.CopyFrame(s.scene)
	if s.hud.Visible && len(s.legend) > 0 && s.fb.Height >= 8 {
		w := min(32, s.fb.Width/3)
		s.fb.DrawColormap(s.legend, s.fb.Width-w-1, s.fb.Height-6, w, 4, ColorGray)
	}
	s.fb.Draw(s.dst, image.Rect(0, 0, s.cols, s.rows))
	s.hud.Draw(s.dst, s.cols, s.rows, s.overlay)
	if err := s.dst.Display(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

// Screenshot writes the last presented frame to a PNG. The HUD and the
// legend are left out.
func (s *Surface) Screenshot(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scene.SavePNG(path); err != nil {
		return fmt.Errorf("save screenshot: %w", err)
	}
	return nil
}
