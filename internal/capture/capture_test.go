package capture

import (
	"testing"
)

func TestRect_Clamp(t *testing.T) {
	bounds := Rect{Left: 0, Top: 0, Width: 1920, Height: 1080}

	tests := []struct {
		name string
		in   Rect
		want Rect
	}{
		{"inside", Rect{100, 100, 200, 50}, Rect{100, 100, 200, 50}},
		{"overflow right", Rect{1900, 0, 100, 50}, Rect{1900, 0, 20, 50}},
		{"negative origin", Rect{-50, -10, 200, 50}, Rect{0, 0, 150, 40}},
		{"fully outside keeps one pixel", Rect{3000, 3000, 10, 10}, Rect{3000, 3000, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Clamp(bounds)
			if got != tt.want {
				t.Errorf("Clamp(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRect_Empty(t *testing.T) {
	if (Rect{0, 0, 10, 10}).Empty() {
		t.Error("10x10 rect reported empty")
	}
	if !(Rect{0, 0, 0, 10}).Empty() {
		t.Error("zero-width rect reported non-empty")
	}
	if !(Rect{0, 0, 10, -1}).Empty() {
		t.Error("negative-height rect reported non-empty")
	}
}

func TestDisplayIndex(t *testing.T) {
	tests := []struct {
		name    string
		monitor int
		active  int
		want    int
	}{
		{"primary", 1, 2, 0},
		{"second display", 2, 2, 1},
		{"unset falls back to primary", 0, 2, 0},
		{"out of range falls back to primary", 3, 2, 0},
		{"negative falls back to primary", -1, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := displayIndex(tt.monitor, tt.active); got != tt.want {
				t.Errorf("displayIndex(%d, %d) = %d, want %d", tt.monitor, tt.active, got, tt.want)
			}
		})
	}
}

func testFrame(w, h int) *Frame {
	pix := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			pix[i] = byte(x)   // b
			pix[i+1] = byte(y) // g
			pix[i+2] = 200     // r
		}
	}
	return &Frame{Pix: pix, Stride: w * 3, W: w, H: h}
}

func TestFrame_SubFrameSharesMemory(t *testing.T) {
	f := testFrame(20, 10)
	sub := f.SubFrame(5, 2, 8, 4)

	if sub.W != 8 || sub.H != 4 {
		t.Fatalf("sub = %dx%d, want 8x4", sub.W, sub.H)
	}
	b, g, _ := sub.BGR(0, 0)
	if b != 5 || g != 2 {
		t.Errorf("sub origin pixel = (%d, %d), want (5, 2)", b, g)
	}

	f.Pix[(2*20+5)*3] = 99
	if got, _, _ := sub.BGR(0, 0); got != 99 {
		t.Error("subframe does not share parent memory")
	}
}

func TestFrame_SubFrameClips(t *testing.T) {
	f := testFrame(20, 10)

	sub := f.SubFrame(18, 8, 50, 50)
	if sub.W != 2 || sub.H != 2 {
		t.Errorf("overflowing crop = %dx%d, want 2x2", sub.W, sub.H)
	}

	sub = f.SubFrame(-5, -5, 4, 4)
	if sub.W != 4 || sub.H != 4 {
		t.Errorf("negative-origin crop = %dx%d, want 4x4", sub.W, sub.H)
	}
	if b, g, _ := sub.BGR(0, 0); b != 0 || g != 0 {
		t.Error("negative origin should clip to frame origin")
	}

	sub = f.SubFrame(100, 100, 10, 10)
	if sub.W < 1 || sub.H < 1 {
		t.Error("crop outside the frame must keep at least one pixel")
	}
}
