package analyzer

import (
	"testing"

	"github.com/barkeep/barkeep/internal/capture"
	"github.com/barkeep/barkeep/internal/config"
)

func TestSlotLayout_TenSlots(t *testing.T) {
	regions := SlotLayout(400, 40, 10, 2)
	if len(regions) != 10 {
		t.Fatalf("got %d regions, want 10", len(regions))
	}

	// (400 - 9*2) / 10 = 38 wide, stepping 40.
	for i, r := range regions {
		if r.Index != i {
			t.Errorf("region %d has index %d", i, r.Index)
		}
		if r.W != 38 {
			t.Errorf("region %d width = %d, want 38", i, r.W)
		}
		if r.X != i*40 {
			t.Errorf("region %d x = %d, want %d", i, r.X, i*40)
		}
		if r.H != 40 {
			t.Errorf("region %d height = %d, want 40", i, r.H)
		}
	}
}

func TestSlotLayout_DegenerateWidth(t *testing.T) {
	regions := SlotLayout(5, 10, 10, 2)
	for _, r := range regions {
		if r.W < 1 {
			t.Fatalf("region %d width = %d, must stay >= 1", r.Index, r.W)
		}
	}
}

func TestCaptureUnion_BarOnly(t *testing.T) {
	cfg := &config.Config{
		BoundingBox: capture.Rect{Left: 100, Top: 900, Width: 400, Height: 40},
	}
	union, ox, oy, err := CaptureUnion(cfg, capture.Rect{Width: 1920, Height: 1080})
	if err != nil {
		t.Fatal(err)
	}
	if union != cfg.BoundingBox {
		t.Errorf("union = %+v, want the bounding box itself", union)
	}
	if ox != 0 || oy != 0 {
		t.Errorf("origin = (%d, %d), want (0, 0)", ox, oy)
	}
}

func TestCaptureUnion_WithCastBarAbove(t *testing.T) {
	cfg := &config.Config{
		BoundingBox: capture.Rect{Left: 100, Top: 900, Width: 400, Height: 40},
		CastBar: config.CastBarConfig{
			Enabled: true,
			Left:    50, Top: -120, Width: 200, Height: 18,
		},
	}
	union, ox, oy, err := CaptureUnion(cfg, capture.Rect{Width: 1920, Height: 1080})
	if err != nil {
		t.Fatal(err)
	}
	want := capture.Rect{Left: 100, Top: 780, Width: 400, Height: 160}
	if union != want {
		t.Errorf("union = %+v, want %+v", union, want)
	}
	// The bar origin shifts down by the cast bar's overhang.
	if ox != 0 || oy != 120 {
		t.Errorf("origin = (%d, %d), want (0, 120)", ox, oy)
	}
}

func TestCaptureUnion_DisabledRegionsIgnored(t *testing.T) {
	cfg := &config.Config{
		BoundingBox: capture.Rect{Left: 0, Top: 0, Width: 100, Height: 10},
		CastBar: config.CastBarConfig{
			Enabled: false,
			Left:    -500, Top: -500, Width: 100, Height: 100,
		},
		BuffROIs: []config.BuffROI{
			{ID: "off", Enabled: false, Left: 900, Top: 900, Width: 50, Height: 50},
			{ID: "tiny", Enabled: true, Left: 900, Top: 900, Width: 1, Height: 1},
		},
	}
	union, _, _, err := CaptureUnion(cfg, capture.Rect{Width: 1920, Height: 1080})
	if err != nil {
		t.Fatal(err)
	}
	if union != cfg.BoundingBox {
		t.Errorf("disabled and degenerate regions must not grow the union, got %+v", union)
	}
}

func TestCaptureUnion_EmptyBox(t *testing.T) {
	cfg := &config.Config{}
	if _, _, _, err := CaptureUnion(cfg, capture.Rect{Width: 1920, Height: 1080}); err == nil {
		t.Error("expected error for empty bounding box")
	}
}

func TestCropSlot_Padding(t *testing.T) {
	frame := solidFrame(40, 40, 100, 100, 100)
	crop := CropSlot(frame, SlotRegion{Index: 0, X: 0, Y: 0, W: 40, H: 40}, 3)
	if crop.W != 34 || crop.H != 34 {
		t.Errorf("padded crop = %dx%d, want 34x34", crop.W, crop.H)
	}

	// Padding larger than the slot keeps a single pixel.
	crop = CropSlot(frame, SlotRegion{Index: 0, X: 0, Y: 0, W: 4, H: 4}, 10)
	if crop.W < 1 || crop.H < 1 {
		t.Errorf("over-padded crop = %dx%d, must keep one pixel", crop.W, crop.H)
	}
}
