package analyzer

import (
	"testing"

	"github.com/barkeep/barkeep/internal/capture"
	"github.com/barkeep/barkeep/internal/config"
)

func testRingConfig() config.RingGlowConfig {
	return config.RingGlowConfig{
		Enabled:           true,
		RingThickness:     2,
		MinSaturation:     90,
		MinValueDelta:     25,
		CandidateFraction: 0.10,
		ReadyFraction:     0.30,
	}
}

// ringFrame paints a colored border around a gray interior.
func ringFrame(w, h, thickness int, b, g, r byte) *capture.Frame {
	f := solidFrame(w, h, 90, 90, 90)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if y < thickness || y >= h-thickness || x < thickness || x >= w-thickness {
				i := y*f.Stride + x*3
				f.Pix[i] = b
				f.Pix[i+1] = g
				f.Pix[i+2] = r
			}
		}
	}
	return f
}

func TestRingGlowFraction_YellowRing(t *testing.T) {
	rc := testRingConfig()

	glowing := ringFrame(16, 16, 2, 30, 210, 230)
	frac := ringGlowFraction(*glowing, rc, glowYellow)
	if frac < 0.9 {
		t.Errorf("saturated yellow ring fraction = %v, want near 1", frac)
	}

	// Same geometry, gray ring: nothing saturated.
	plain := ringFrame(16, 16, 2, 120, 120, 120)
	if frac := ringGlowFraction(*plain, rc, glowYellow); frac != 0 {
		t.Errorf("gray ring fraction = %v, want 0", frac)
	}

	// A red ring must not read as yellow.
	red := ringFrame(16, 16, 2, 20, 30, 220)
	if frac := ringGlowFraction(*red, rc, glowYellow); frac > 0.05 {
		t.Errorf("red ring scored %v as yellow", frac)
	}
}

func TestRingGlowFraction_RedRing(t *testing.T) {
	rc := testRingConfig()
	red := ringFrame(16, 16, 2, 20, 30, 220)
	if frac := ringGlowFraction(*red, rc, glowRed); frac < 0.9 {
		t.Errorf("red ring fraction = %v, want near 1", frac)
	}
}

func TestRingGlowFraction_TooSmall(t *testing.T) {
	rc := testRingConfig()
	tiny := solidFrame(3, 3, 30, 210, 230)
	if frac := ringGlowFraction(*tiny, rc, glowYellow); frac != 0 {
		t.Errorf("crop smaller than the ring band scored %v, want 0", frac)
	}
}

func TestGlowSignal_ConfirmFrames(t *testing.T) {
	rc := testRingConfig()
	counter := 0

	// Two qualifying frames required before Ready.
	sig := glowSignal(0.5, rc, 2, &counter)
	if sig.Ready {
		t.Error("ready after one frame, want confirm debounce")
	}
	if !sig.Candidate {
		t.Error("fraction above candidate threshold must flag Candidate")
	}

	sig = glowSignal(0.5, rc, 2, &counter)
	if !sig.Ready {
		t.Error("not ready after two consecutive qualifying frames")
	}

	// One dropout resets the streak entirely.
	sig = glowSignal(0.05, rc, 2, &counter)
	if sig.Ready || counter != 0 {
		t.Errorf("dropout must reset the counter, got ready=%v counter=%d", sig.Ready, counter)
	}
	sig = glowSignal(0.5, rc, 2, &counter)
	if sig.Ready {
		t.Error("ready again after a single post-dropout frame")
	}
}

func TestGlowSignal_Disabled(t *testing.T) {
	rc := testRingConfig()
	rc.Enabled = false
	counter := 5

	sig := glowSignal(0.9, rc, 1, &counter)
	if sig.Ready || sig.Candidate || counter != 0 {
		t.Error("disabled ring must never signal and must reset the counter")
	}
}
