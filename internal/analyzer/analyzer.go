package analyzer

import (
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/barkeep/barkeep/internal/capture"
	"github.com/barkeep/barkeep/internal/config"
)

// slotRuntime is the per-slot mutable state behind the hysteresis and
// cooldown bookkeeping. Owned by the tick goroutine.
type slotRuntime struct {
	yellowCount int
	redCount    int

	committed SlotState

	pendingCooldownSince      time.Time
	pendingCooldownBrightness float64
	cooldownStartAt           time.Time
	cooldownStartBrightness   float64

	lastCastStartAt   time.Time
	lastCastSuccessAt time.Time
}

// Analyzer owns the per-slot classifiers, the cast-bar detector and the
// buff matcher. Analyze must only be called from the tick goroutine;
// calibration may run concurrently because it swaps the baseline table
// atomically, so a tick sees either the old or the new set.
type Analyzer struct {
	logger    *slog.Logger
	baselines atomic.Pointer[baselineTable]

	slots    []slotRuntime
	cast     *castBarDetector
	tplCache map[string]cachedTemplate
	buffSeen map[string]time.Time

	lastPressAt   time.Time
	lastPressSlot int
}

func New(logger *slog.Logger) *Analyzer {
	return &Analyzer{
		logger:        logger,
		cast:          newCastBarDetector(),
		tplCache:      make(map[string]cachedTemplate),
		buffSeen:      make(map[string]time.Time),
		lastPressSlot: -1,
	}
}

// LoadBaselines restores persisted baselines, replacing the table in one
// swap. A partial decode failure keeps the slots that did decode.
func (a *Analyzer) LoadBaselines(blobs []config.BaselineBlob) error {
	table, err := DecodeBaselines(blobs)
	if len(table) > 0 {
		t := baselineTable(table)
		a.baselines.Store(&t)
	}
	return err
}

// HasBaselines reports whether any slot has a calibrated baseline.
func (a *Analyzer) HasBaselines() bool {
	t := a.baselines.Load()
	return t != nil && len(*t) > 0
}

// NoteKeyPress records a sent keybind. The cast detector uses it to bind
// an upcoming cast to its slot; the state machine uses it for GCD
// attribution.
func (a *Analyzer) NoteKeyPress(slot int, at time.Time) {
	a.lastPressAt = at
	a.lastPressSlot = slot
	if slot >= 0 {
		a.cast.notePress(slot, at)
	}
}

// Analyze classifies one captured union frame. originX/originY is the
// action bar's offset within the frame, as returned by CaptureUnion.
func (a *Analyzer) Analyze(frame *capture.Frame, cfg *config.Config, originX, originY int, now time.Time) (ActionBarState, BuffState, CastStatus) {
	if len(a.slots) != cfg.SlotCount {
		a.slots = make([]slotRuntime, cfg.SlotCount)
	}

	bar := frame.SubFrame(originX, originY, cfg.BoundingBox.Width, cfg.BoundingBox.Height)
	regions := SlotLayout(bar.W, bar.H, cfg.SlotCount, cfg.SlotGapPixels)

	castStatus := CastStatus{Phase: CastOff}
	if cfg.CastBar.Enabled && cfg.CastBar.Width > 1 && cfg.CastBar.Height > 1 {
		roi := frame.SubFrame(originX+cfg.CastBar.Left, originY+cfg.CastBar.Top, cfg.CastBar.Width, cfg.CastBar.Height)
		var finished *castResult
		castStatus, finished = a.cast.observe(roi, cfg.CastBar, now)
		if finished != nil && finished.succeeded && finished.slot != nil {
			if idx := *finished.slot; idx >= 0 && idx < len(a.slots) {
				a.slots[idx].lastCastSuccessAt = finished.endedAt
			}
		}
	}

	buffs := matchBuffROIs(frame, cfg, originX, originY, a.tplCache, a.buffSeen, now)

	var baselines baselineTable
	if t := a.baselines.Load(); t != nil {
		baselines = *t
	}

	state := ActionBarState{
		Slots:     make([]SlotSnapshot, 0, len(regions)),
		Timestamp: now,
	}
	for _, region := range regions {
		state.Slots = append(state.Slots, a.analyzeSlot(&bar, region, baselines[region.Index], cfg, castStatus, now))
	}
	return state, buffs, castStatus
}

func (a *Analyzer) analyzeSlot(bar *capture.Frame, region SlotRegion, base *Baseline, cfg *config.Config, cast CastStatus, now time.Time) SlotSnapshot {
	rt := &a.slots[region.Index]
	det := cfg.Detection
	crop := CropSlot(bar, region, cfg.SlotPadding)
	gray := grayscale(crop)

	ignoreChange := slices.Contains(det.CooldownChangeIgnoreSlots, region.Index)
	brightness, verdict := classifyBrightness(gray, crop.W, crop.H, base, det, ignoreChange)

	snap := SlotSnapshot{
		Index:      region.Index,
		Brightness: brightness,
	}
	if !rt.lastCastStartAt.IsZero() {
		t := rt.lastCastStartAt
		snap.LastCastStartAt = &t
	}
	if !rt.lastCastSuccessAt.IsZero() {
		t := rt.lastCastSuccessAt
		snap.LastCastSuccessAt = &t
	}

	glow := det.Glow
	if glow.Yellow.Enabled {
		frac := ringGlowFraction(crop, glow.Yellow, glowYellow)
		snap.YellowGlow = glowSignal(frac, glow.Yellow, glow.ConfirmFrames, &rt.yellowCount)
	} else {
		rt.yellowCount = 0
	}
	if glow.Red.Enabled {
		frac := ringGlowFraction(crop, glow.Red, glowRed)
		snap.RedGlow = glowSignal(frac, glow.Red, glow.ConfirmFrames, &rt.redCount)
	} else {
		rt.redCount = 0
	}

	// Rule 1: no baseline forces Unknown.
	if base == nil {
		rt.committed = StateUnknown
		rt.pendingCooldownSince = time.Time{}
		snap.State = StateUnknown
		return snap
	}
	if rt.committed == "" || rt.committed == StateUnknown {
		rt.committed = StateReady
	}

	// Rule 2: an active cast bound to this slot wins.
	if cast.Active() && cast.SlotIndex != nil && *cast.SlotIndex == region.Index {
		rt.pendingCooldownSince = time.Time{}
		rt.lastCastStartAt = cast.StartedAt
		t := cast.StartedAt
		snap.LastCastStartAt = &t
		progress := cast.Progress
		snap.CastProgress = &progress
		snap.CastEndsAt = cast.EndsAt
		if cast.Channeling {
			rt.committed = StateChanneling
		} else {
			rt.committed = StateCasting
		}
		snap.State = rt.committed
		return snap
	}

	// Rule 3: glow ready overrides any brightness verdict.
	if snap.YellowGlow.Ready || snap.RedGlow.Ready {
		rt.committed = StateReady
		rt.pendingCooldownSince = time.Time{}
		rt.cooldownStartAt = time.Time{}
		snap.State = StateReady
		return snap
	}

	switch verdict {
	case verdictLocked:
		rt.committed = StateLocked
		rt.pendingCooldownSince = time.Time{}
		snap.State = StateLocked
		return snap

	case verdictCooldown:
		snap.State = a.commitCooldown(rt, region.Index, base, cfg, brightness, now, &snap)
		return snap

	default:
		rt.committed = StateReady
		rt.pendingCooldownSince = time.Time{}
		rt.cooldownStartAt = time.Time{}
		snap.State = StateReady
		return snap
	}
}

// commitCooldown applies the cooldown debounce: a verdict change into
// OnCooldown only commits after holding for cooldown_min_duration_ms,
// otherwise the previous state stands.
func (a *Analyzer) commitCooldown(rt *slotRuntime, idx int, base *Baseline, cfg *config.Config, brightness float64, now time.Time, snap *SlotSnapshot) SlotState {
	if rt.committed == StateOnCooldown || rt.committed == StateGcd {
		return a.cooldownState(rt, idx, base, cfg, brightness, now, snap)
	}

	minDur := time.Duration(cfg.Detection.CooldownMinDurationMS) * time.Millisecond
	if rt.pendingCooldownSince.IsZero() {
		rt.pendingCooldownSince = now
		rt.pendingCooldownBrightness = brightness
		if minDur > 0 {
			return rt.committed
		}
	}
	if now.Sub(rt.pendingCooldownSince) < minDur {
		return rt.committed
	}

	rt.cooldownStartAt = rt.pendingCooldownSince
	rt.cooldownStartBrightness = rt.pendingCooldownBrightness
	rt.pendingCooldownSince = time.Time{}
	return a.cooldownState(rt, idx, base, cfg, brightness, now, snap)
}

// cooldownState distinguishes a shared global-cooldown dip from a real
// cooldown and estimates the remaining time from the brightness recovery
// toward baseline.
func (a *Analyzer) cooldownState(rt *slotRuntime, idx int, base *Baseline, cfg *config.Config, brightness float64, now time.Time, snap *SlotSnapshot) SlotState {
	gcd := time.Duration(cfg.GcdMS) * time.Millisecond
	if gcd > 0 && !a.lastPressAt.IsZero() && a.lastPressSlot != idx {
		if since := now.Sub(a.lastPressAt); since < gcd {
			remaining := (gcd - since).Seconds()
			snap.CooldownRemaining = &remaining
			rt.committed = StateGcd
			return StateGcd
		}
	}

	rt.committed = StateOnCooldown
	if !rt.cooldownStartAt.IsZero() && base.Brightness > rt.cooldownStartBrightness {
		progress := (brightness - rt.cooldownStartBrightness) / (base.Brightness - rt.cooldownStartBrightness)
		elapsed := now.Sub(rt.cooldownStartAt)
		if progress > 0.05 && progress < 1 {
			total := time.Duration(float64(elapsed) / progress)
			remaining := (total - elapsed).Seconds()
			if remaining > 0 {
				snap.CooldownRemaining = &remaining
			}
		}
	}
	return StateOnCooldown
}
