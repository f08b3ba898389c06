package analyzer

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/barkeep/barkeep/internal/capture"
	"github.com/barkeep/barkeep/internal/config"
)

// castResult reports a finished cast. succeeded=false means the episode
// was shorter than cast_min_duration_ms and must be discarded as noise.
type castResult struct {
	slot       *int
	channeling bool
	startedAt  time.Time
	endedAt    time.Time
	succeeded  bool
}

// castBarDetector watches a single shared cast-bar ROI. Not safe for
// concurrent use; the tick loop is its only caller. notePress may be
// called from the same goroutine right after a send.
type castBarDetector struct {
	prevGray []byte
	w, h     int

	edgeHist []float64
	priming  int

	phase      CastPhase
	channeling bool
	startedAt  time.Time
	boundSlot  *int

	lastPressAt   time.Time
	lastPressSlot int
}

func newCastBarDetector() *castBarDetector {
	return &castBarDetector{phase: CastOff, lastPressSlot: -1}
}

// notePress records a sent keybind so an immediately following cast can
// be attributed to its slot.
func (d *castBarDetector) notePress(slot int, at time.Time) {
	d.lastPressSlot = slot
	d.lastPressAt = at
}

func (d *castBarDetector) reset() {
	d.phase = CastOff
	d.priming = 0
	d.boundSlot = nil
	d.edgeHist = d.edgeHist[:0]
}

// frontEdge estimates where the bar's leading edge sits as a fill
// fraction in [0,1]. Columns brighter than the midpoint between the
// darkest and brightest column count as filled.
func frontEdge(gray []byte, w, h int) (float64, bool) {
	if w < 2 || h < 1 {
		return 0, false
	}
	cols := make([]float64, w)
	for x := 0; x < w; x++ {
		sum := 0
		for y := 0; y < h; y++ {
			sum += int(gray[y*w+x])
		}
		cols[x] = float64(sum) / float64(h)
	}
	lo, hi := cols[0], cols[0]
	for _, c := range cols[1:] {
		lo = min(lo, c)
		hi = max(hi, c)
	}
	if hi-lo < 12 {
		// Flat bar, no visible edge.
		return 0, false
	}
	mid := (hi + lo) / 2
	filled := 0
	for _, c := range cols {
		if c > mid {
			filled++
		}
	}
	return float64(filled) / float64(w), true
}

// observe processes one ROI frame and returns the tick's cast status plus
// a finished-cast result when an active episode ended this tick.
func (d *castBarDetector) observe(roi capture.Frame, cfg config.CastBarConfig, now time.Time) (CastStatus, *castResult) {
	gray := grayscale(roi)
	status := CastStatus{Phase: d.phase}

	if d.prevGray == nil || d.w != roi.W || d.h != roi.H {
		d.prevGray = gray
		d.w, d.h = roi.W, roi.H
		d.reset()
		return CastStatus{Phase: CastOff, Gate: "warmup"}, nil
	}

	var diffSum int
	for i := range gray {
		delta := int(gray[i]) - int(d.prevGray[i])
		if delta < 0 {
			delta = -delta
		}
		diffSum += delta
	}
	motion := float64(diffSum) / float64(len(gray)) / 255.0
	d.prevGray = gray
	status.Motion = motion

	edge, edgeOK := frontEdge(gray, roi.W, roi.H)
	status.FrontEdge = edge
	if edgeOK {
		d.edgeHist = append(d.edgeHist, edge)
		limit := max(4, cfg.ConfirmFrames+2)
		if len(d.edgeHist) > limit {
			d.edgeHist = d.edgeHist[len(d.edgeHist)-limit:]
		}
	}

	slope, directional := d.edgeTrend()
	status.Directional = directional

	confirm := max(1, cfg.ConfirmFrames)

	switch d.phase {
	case CastOff, CastPriming:
		qualifying := motion >= cfg.ActivationThreshold && edgeOK && directional
		if qualifying {
			d.priming++
			d.phase = CastPriming
			status.Phase = CastPriming
			if d.priming >= confirm {
				d.phase = CastActive
				d.startedAt = now
				d.channeling = slope < 0
				d.boundSlot = d.bindPress(cfg, now)
				status = d.activeStatus(cfg, now, edge)
			}
			return status, nil
		}
		if d.phase == CastPriming {
			d.reset()
		}
		status.Phase = d.phase
		if motion >= cfg.ActivationThreshold {
			status.Gate = "not-directional"
		}
		return status, nil

	case CastActive:
		elapsed := now.Sub(d.startedAt)
		if cfg.MaxDurationMS > 0 && elapsed > time.Duration(cfg.MaxDurationMS)*time.Millisecond {
			res := d.finish(now, true)
			status = CastStatus{Phase: CastOff, Motion: motion, Gate: "max-duration"}
			return status, res
		}
		if motion < cfg.DeactivationThreshold {
			succeeded := elapsed >= time.Duration(cfg.MinDurationMS)*time.Millisecond
			res := d.finish(now, succeeded)
			gate := ""
			if !succeeded {
				gate = "noise"
				res = nil
			}
			return CastStatus{Phase: CastOff, Motion: motion, Gate: gate}, res
		}
		return d.activeStatus(cfg, now, edge), nil
	}
	return status, nil
}

func (d *castBarDetector) activeStatus(cfg config.CastBarConfig, now time.Time, edge float64) CastStatus {
	progress := edge
	if d.channeling {
		progress = 1 - edge
	}
	progress = min(1, max(0, progress))

	status := CastStatus{
		Phase:       CastActive,
		Channeling:  d.channeling,
		Progress:    progress,
		StartedAt:   d.startedAt,
		SlotIndex:   d.boundSlot,
		FrontEdge:   edge,
		Directional: true,
	}
	elapsed := now.Sub(d.startedAt)
	if progress > 0.05 {
		total := time.Duration(float64(elapsed) / progress)
		ends := d.startedAt.Add(total)
		status.EndsAt = &ends
	} else if cfg.MaxDurationMS > 0 {
		ends := d.startedAt.Add(time.Duration(cfg.MaxDurationMS) * time.Millisecond)
		status.EndsAt = &ends
	}
	return status
}

func (d *castBarDetector) finish(now time.Time, succeeded bool) *castResult {
	res := &castResult{
		slot:       d.boundSlot,
		channeling: d.channeling,
		startedAt:  d.startedAt,
		endedAt:    now,
		succeeded:  succeeded,
	}
	d.reset()
	return res
}

// bindPress attributes the cast to the most recently sent slot when the
// press happened inside the correlation window. Best effort; nil means
// the cast is reported unbound.
func (d *castBarDetector) bindPress(cfg config.CastBarConfig, now time.Time) *int {
	if d.lastPressSlot < 0 || cfg.PressCorrelationMS <= 0 {
		return nil
	}
	if now.Sub(d.lastPressAt) > time.Duration(cfg.PressCorrelationMS)*time.Millisecond {
		return nil
	}
	slot := d.lastPressSlot
	return &slot
}

// edgeTrend fits a line through the recent edge positions. A cast bar
// fills (positive slope) and a channel empties (negative slope); noise
// produces a flat or erratic fit.
func (d *castBarDetector) edgeTrend() (float64, bool) {
	if len(d.edgeHist) < 3 {
		return 0, false
	}
	xs := make([]float64, len(d.edgeHist))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, d.edgeHist, nil, false)
	return beta, beta > 0.01 || beta < -0.01
}
