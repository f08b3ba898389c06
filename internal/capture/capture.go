// Package capture grabs rectangular screen regions as raw BGR frames.
// The analyzer only ever sees the union rectangle it asked for, never a
// full-screen grab.
package capture

import (
	"errors"
	"fmt"
)

var ErrCaptureFailed = errors.New("screen capture failed")

// Rect is an absolute screen rectangle in virtual-screen coordinates.
type Rect struct {
	Left   int `json:"left" yaml:"left"`
	Top    int `json:"top" yaml:"top"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Clamp returns r clipped to the bounds rectangle, keeping at least one
// pixel of width and height when the rectangles overlap at all.
func (r Rect) Clamp(bounds Rect) Rect {
	left := max(r.Left, bounds.Left)
	top := max(r.Top, bounds.Top)
	right := min(r.Left+r.Width, bounds.Left+bounds.Width)
	bottom := min(r.Top+r.Height, bounds.Top+bounds.Height)
	if right <= left {
		right = left + 1
	}
	if bottom <= top {
		bottom = top + 1
	}
	return Rect{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

// Frame is a captured region. Pix holds 3 bytes per pixel in BGR order,
// rows separated by Stride bytes. Frames handed to the analyzer are never
// mutated after capture.
type Frame struct {
	Pix    []byte
	Stride int
	W, H   int
}

// SubFrame returns a view sharing the parent's pixel memory. The crop is
// clipped to the frame, keeping at least a single pixel.
func (f *Frame) SubFrame(x, y, w, h int) Frame {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x > f.W-1 {
		x = f.W - 1
	}
	if y > f.H-1 {
		y = f.H - 1
	}
	w = max(1, min(w, f.W-x))
	h = max(1, min(h, f.H-y))
	off := y*f.Stride + x*3
	return Frame{
		Pix:    f.Pix[off : off+(h-1)*f.Stride+w*3],
		Stride: f.Stride,
		W:      w,
		H:      h,
	}
}

// BGR returns the pixel at (x, y). The caller guarantees bounds.
func (f *Frame) BGR(x, y int) (b, g, r byte) {
	i := y*f.Stride + x*3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Backend is the capture contract. Grab is synchronous and may fail; a
// failure aborts the tick that requested it.
type Backend interface {
	// Grab captures the given absolute rectangle.
	Grab(rect Rect) (*Frame, error)
	// Bounds reports the capturable area of the given monitor. monitor is
	// the config's 1-based index; out-of-range values fall back to the
	// primary display.
	Bounds(monitor int) (Rect, error)
}

// displayIndex converts the 1-based monitor_index into a display index
// within [0, active).
func displayIndex(monitor, active int) int {
	idx := monitor - 1
	if idx < 0 || idx >= active {
		return 0
	}
	return idx
}

func validateRect(rect Rect) error {
	if rect.Empty() {
		return fmt.Errorf("%w: empty rect %dx%d", ErrCaptureFailed, rect.Width, rect.Height)
	}
	return nil
}
