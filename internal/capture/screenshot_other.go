//go:build !windows

package capture

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// ScreenshotBackend captures through github.com/kbinani/screenshot on
// platforms without a native GDI path.
type ScreenshotBackend struct{}

func NewBackend() *ScreenshotBackend {
	return &ScreenshotBackend{}
}

func (b *ScreenshotBackend) Bounds(monitor int) (Rect, error) {
	active := screenshot.NumActiveDisplays()
	if active == 0 {
		return Rect{}, fmt.Errorf("%w: no active displays", ErrCaptureFailed)
	}
	r := screenshot.GetDisplayBounds(displayIndex(monitor, active))
	return Rect{Left: r.Min.X, Top: r.Min.Y, Width: r.Dx(), Height: r.Dy()}, nil
}

func (b *ScreenshotBackend) Grab(rect Rect) (*Frame, error) {
	if err := validateRect(rect); err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(image.Rect(rect.Left, rect.Top, rect.Left+rect.Width, rect.Top+rect.Height))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	return rgbaToFrame(img), nil
}

func rgbaToFrame(img *image.RGBA) *Frame {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	f := &Frame{
		Pix:    make([]byte, w*h*3),
		Stride: w * 3,
		W:      w,
		H:      h,
	}
	for y := 0; y < h; y++ {
		si := y * img.Stride
		di := y * f.Stride
		for x := 0; x < w; x++ {
			f.Pix[di] = img.Pix[si+2]   // B
			f.Pix[di+1] = img.Pix[si+1] // G
			f.Pix[di+2] = img.Pix[si]   // R
			si += 4
			di += 3
		}
	}
	return f
}
