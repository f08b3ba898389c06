package analyzer

import (
	"fmt"

	"github.com/barkeep/barkeep/internal/capture"
	"github.com/barkeep/barkeep/internal/config"
)

// SlotRegion is one slot's pixel rectangle within the captured action-bar
// region. Recomputed whenever count, gap or bounding box change.
type SlotRegion struct {
	Index  int
	X, Y   int
	W, H   int
}

// SlotLayout divides the bounding box width evenly among count slots,
// accounting for the gap between them. Width uses floor division and is
// clamped to one pixel.
func SlotLayout(boxW, boxH, count, gap int) []SlotRegion {
	if count < 1 {
		return nil
	}
	slotW := max(1, (boxW-(count-1)*gap)/count)
	regions := make([]SlotRegion, count)
	for i := range regions {
		regions[i] = SlotRegion{
			Index: i,
			X:     i * (slotW + gap),
			Y:     0,
			W:     slotW,
			H:     boxH,
		}
	}
	return regions
}

// CropSlot extracts a slot's analysis region from the action-bar frame,
// inset by pad on every side so gap pixels and icon borders stay out of
// the statistics.
func CropSlot(frame *capture.Frame, slot SlotRegion, pad int) capture.Frame {
	x := slot.X + pad
	y := slot.Y + pad
	w := max(1, slot.W-2*pad)
	h := max(1, slot.H-2*pad)
	return frame.SubFrame(x, y, w, h)
}

// CaptureUnion computes the single screen rectangle covering the action
// bar, the cast bar and every enabled buff ROI, clamped to the monitor,
// plus the action-bar origin's offset within that rectangle. The capture
// backend knows nothing about slot or ROI semantics, so this lives here.
func CaptureUnion(cfg *config.Config, bounds capture.Rect) (capture.Rect, int, int, error) {
	bb := cfg.BoundingBox
	if bb.Width < 1 || bb.Height < 1 {
		return capture.Rect{}, 0, 0, fmt.Errorf("bounding box must be at least 1x1, got %dx%d", bb.Width, bb.Height)
	}

	left := bb.Left
	top := bb.Top
	right := bb.Left + bb.Width
	bottom := bb.Top + bb.Height

	if cfg.CastBar.Enabled && cfg.CastBar.Width > 1 && cfg.CastBar.Height > 1 {
		left = min(left, bb.Left+cfg.CastBar.Left)
		top = min(top, bb.Top+cfg.CastBar.Top)
		right = max(right, bb.Left+cfg.CastBar.Left+cfg.CastBar.Width)
		bottom = max(bottom, bb.Top+cfg.CastBar.Top+cfg.CastBar.Height)
	}
	for _, roi := range cfg.BuffROIs {
		if !roi.Enabled || roi.Width <= 1 || roi.Height <= 1 {
			continue
		}
		left = min(left, bb.Left+roi.Left)
		top = min(top, bb.Top+roi.Top)
		right = max(right, bb.Left+roi.Left+roi.Width)
		bottom = max(bottom, bb.Top+roi.Top+roi.Height)
	}

	union := capture.Rect{Left: left, Top: top, Width: right - left, Height: bottom - top}
	if !bounds.Empty() {
		union = union.Clamp(bounds)
	}
	return union, bb.Left - union.Left, bb.Top - union.Top, nil
}
