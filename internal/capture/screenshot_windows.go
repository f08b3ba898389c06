//go:build windows

package capture

import (
	"fmt"
	"unsafe"

	"github.com/kbinani/screenshot"

	"github.com/barkeep/barkeep/internal/utils/winproc"
)

type bmpInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct{ Header bmpInfoHeader }

// GDIBackend captures screen regions through a GDI DIB section. It keeps
// no per-grab allocations beyond the returned frame.
type GDIBackend struct{}

func NewBackend() *GDIBackend {
	return &GDIBackend{}
}

// Bounds reports the selected monitor's rectangle in virtual-screen
// coordinates, the same space BitBlt grabs in.
func (b *GDIBackend) Bounds(monitor int) (Rect, error) {
	active := screenshot.NumActiveDisplays()
	if active == 0 {
		return Rect{}, fmt.Errorf("%w: no active displays", ErrCaptureFailed)
	}
	r := screenshot.GetDisplayBounds(displayIndex(monitor, active))
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return Rect{}, fmt.Errorf("%w: empty display bounds", ErrCaptureFailed)
	}
	return Rect{Left: r.Min.X, Top: r.Min.Y, Width: r.Dx(), Height: r.Dy()}, nil
}

func (b *GDIBackend) Grab(rect Rect) (*Frame, error) {
	if err := validateRect(rect); err != nil {
		return nil, err
	}

	hdcScreen, _, _ := winproc.GetDC.Call(0)
	if hdcScreen == 0 {
		return nil, fmt.Errorf("%w: GetDC", ErrCaptureFailed)
	}
	defer winproc.ReleaseDC.Call(0, hdcScreen)

	hdcMem, _, _ := winproc.CreateCompatibleDC.Call(hdcScreen)
	if hdcMem == 0 {
		return nil, fmt.Errorf("%w: CreateCompatibleDC", ErrCaptureFailed)
	}
	defer winproc.DeleteDC.Call(hdcMem)

	// Negative height selects a top-down DIB.
	bi := bitmapInfo{Header: bmpInfoHeader{
		BiSize:     40,
		BiWidth:    int32(rect.Width),
		BiHeight:   -int32(rect.Height),
		BiPlanes:   1,
		BiBitCount: 32,
	}}
	var bitsPtr uintptr
	hbm, _, _ := winproc.CreateDIBSection.Call(hdcScreen, uintptr(unsafe.Pointer(&bi)), 0, uintptr(unsafe.Pointer(&bitsPtr)), 0, 0)
	if hbm == 0 || bitsPtr == 0 {
		return nil, fmt.Errorf("%w: CreateDIBSection", ErrCaptureFailed)
	}
	defer winproc.DeleteObject.Call(hbm)
	winproc.SelectObject.Call(hdcMem, hbm)

	ret, _, _ := winproc.BitBlt.Call(hdcMem, 0, 0, uintptr(rect.Width), uintptr(rect.Height),
		hdcScreen, uintptr(rect.Left), uintptr(rect.Top), uintptr(winproc.SRCCOPY))
	if ret == 0 {
		return nil, fmt.Errorf("%w: BitBlt", ErrCaptureFailed)
	}
	winproc.GdiFlush.Call()

	return dibToFrame(bitsPtr, rect.Width, rect.Height), nil
}

// dibToFrame copies the 32bpp BGRA DIB into a tightly packed BGR frame.
func dibToFrame(bitsPtr uintptr, width, height int) *Frame {
	src := unsafe.Slice((*byte)(unsafe.Pointer(bitsPtr)), width*height*4)
	f := &Frame{
		Pix:    make([]byte, width*height*3),
		Stride: width * 3,
		W:      width,
		H:      height,
	}
	for y := 0; y < height; y++ {
		si := y * width * 4
		di := y * f.Stride
		for x := 0; x < width; x++ {
			f.Pix[di] = src[si]     // B
			f.Pix[di+1] = src[si+1] // G
			f.Pix[di+2] = src[si+2] // R
			si += 4
			di += 3
		}
	}
	return f
}
