package analyzer

import (
	"github.com/barkeep/barkeep/internal/capture"
	"github.com/barkeep/barkeep/internal/config"
)

type glowColor int

const (
	glowYellow glowColor = iota
	glowRed
)

// colorMatch reports whether a BGR pixel plausibly belongs to the given
// glow ring color.
func colorMatch(b, g, r byte, color glowColor) bool {
	switch color {
	case glowYellow:
		return int(r) > int(b)+30 && int(g) > int(b)+30
	case glowRed:
		return int(r) > int(g)+40 && int(r) > int(b)+40
	}
	return false
}

// ringGlowFraction samples a thin ring at the crop border and returns the
// fraction of ring pixels that are saturated, brighter than the icon's
// interior by the configured delta, and match the ring color. The
// interior mean is the local background reference.
func ringGlowFraction(crop capture.Frame, rc config.RingGlowConfig, color glowColor) float64 {
	t := rc.RingThickness
	if t < 1 {
		t = 1
	}
	if crop.W <= 2*t || crop.H <= 2*t {
		return 0
	}

	// Interior value mean (max channel), excluding the ring itself.
	var interiorSum, interiorN int
	for y := t; y < crop.H-t; y++ {
		for x := t; x < crop.W-t; x++ {
			b, g, r := crop.BGR(x, y)
			interiorSum += int(max(b, max(g, r)))
			interiorN++
		}
	}
	if interiorN == 0 {
		return 0
	}
	interiorMean := interiorSum / interiorN

	var matched, total int
	sample := func(x, y int) {
		b, g, r := crop.BGR(x, y)
		maxc := int(max(b, max(g, r)))
		minc := int(min(b, min(g, r)))
		total++
		if maxc == 0 {
			return
		}
		sat := (maxc - minc) * 255 / maxc
		if sat < rc.MinSaturation {
			return
		}
		if maxc < interiorMean+rc.MinValueDelta {
			return
		}
		if colorMatch(b, g, r, color) {
			matched++
		}
	}

	for y := 0; y < crop.H; y++ {
		onBand := y < t || y >= crop.H-t
		for x := 0; x < crop.W; x++ {
			if onBand || x < t || x >= crop.W-t {
				sample(x, y)
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

// glowSignal folds one tick's ring fraction into the per-slot confirm
// counter. Ready only after confirmFrames consecutive qualifying ticks;
// a single non-qualifying tick resets the counter to zero.
func glowSignal(fraction float64, rc config.RingGlowConfig, confirmFrames int, counter *int) GlowSignal {
	sig := GlowSignal{Fraction: fraction}
	if !rc.Enabled {
		*counter = 0
		return sig
	}
	sig.Candidate = fraction >= rc.CandidateFraction
	if fraction >= rc.ReadyFraction {
		*counter++
	} else {
		*counter = 0
	}
	if confirmFrames < 1 {
		confirmFrames = 1
	}
	sig.Ready = *counter >= confirmFrames
	return sig
}
