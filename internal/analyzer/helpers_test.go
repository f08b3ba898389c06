package analyzer

import (
	"io"
	"log/slog"

	"github.com/barkeep/barkeep/internal/capture"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// solidFrame builds a BGR frame filled with a single color.
func solidFrame(w, h int, b, g, r byte) *capture.Frame {
	pix := make([]byte, w*h*3)
	for i := 0; i < len(pix); i += 3 {
		pix[i] = b
		pix[i+1] = g
		pix[i+2] = r
	}
	return &capture.Frame{Pix: pix, Stride: w * 3, W: w, H: h}
}

// fillRect paints a rectangle inside an existing frame.
func fillRect(f *capture.Frame, x, y, w, h int, b, g, r byte) {
	for yy := y; yy < y+h && yy < f.H; yy++ {
		for xx := x; xx < x+w && xx < f.W; xx++ {
			i := yy*f.Stride + xx*3
			f.Pix[i] = b
			f.Pix[i+1] = g
			f.Pix[i+2] = r
		}
	}
}
