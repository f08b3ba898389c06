package analyzer

import (
	"gonum.org/v1/gonum/stat"

	"github.com/barkeep/barkeep/internal/capture"
	"github.com/barkeep/barkeep/internal/config"
)

// grayscale converts a BGR crop to a tightly packed grayscale buffer
// using integer luma weights.
func grayscale(f capture.Frame) []byte {
	out := make([]byte, f.W*f.H)
	idx := 0
	for y := 0; y < f.H; y++ {
		row := f.Pix[y*f.Stride : y*f.Stride+f.W*3]
		for x := 0; x < f.W; x++ {
			i := x * 3
			b, g, r := row[i], row[i+1], row[i+2]
			out[idx] = byte((77*uint32(r) + 150*uint32(g) + 29*uint32(b)) >> 8)
			idx++
		}
	}
	return out
}

// meanBrightness is the normalized [0,1] mean of a grayscale buffer.
func meanBrightness(gray []byte) float64 {
	if len(gray) == 0 {
		return 0
	}
	vals := make([]float64, len(gray))
	for i, v := range gray {
		vals[i] = float64(v)
	}
	return stat.Mean(vals, nil) / 255.0
}

type brightnessVerdict int

const (
	verdictReady brightnessVerdict = iota
	verdictCooldown
	verdictLocked
)

// detectionRegion narrows a grayscale buffer to the configured sample
// area. "top_left" uses the upper-left quadrant, where cooldown sweep
// overlays start in most bars.
func detectionRegion(gray []byte, w, h int, region string) ([]byte, int, int) {
	if region != "top_left" || w < 2 || h < 2 {
		return gray, w, h
	}
	qw, qh := max(1, w/2), max(1, h/2)
	out := make([]byte, qw*qh)
	for y := 0; y < qh; y++ {
		copy(out[y*qw:(y+1)*qw], gray[y*w:y*w+qw])
	}
	return out, qw, qh
}

// classifyBrightness runs the configured cooldown test for one slot.
// The change test counts pixels that darkened past the drop threshold
// relative to the baseline buffer; the static test compares mean
// brightness against baseline*threshold. Shape mismatches between crop
// and baseline fall back to the static test.
func classifyBrightness(gray []byte, w, h int, base *Baseline, det config.DetectionConfig, ignoreChange bool) (float64, brightnessVerdict) {
	brightness := meanBrightness(gray)
	if base == nil {
		return brightness, verdictReady
	}

	if base.Brightness > 0 && det.LockedRatio > 0 && brightness < base.Brightness*det.LockedRatio {
		return brightness, verdictLocked
	}

	if det.ChangeDetection && !ignoreChange &&
		len(base.Gray) == len(gray) && base.W == w && base.H == h {
		region, rw, rh := detectionRegion(gray, w, h, det.DetectionRegion)
		baseRegion, _, _ := detectionRegion(base.Gray, base.W, base.H, det.DetectionRegion)
		dark := 0
		for i := range region {
			if int(baseRegion[i])-int(region[i]) > det.PixelDropThreshold {
				dark++
			}
		}
		if float64(dark)/float64(rw*rh) >= det.DarkPixelFraction {
			return brightness, verdictCooldown
		}
		return brightness, verdictReady
	}

	if brightness < base.Brightness*det.BrightnessThreshold {
		return brightness, verdictCooldown
	}
	return brightness, verdictReady
}
