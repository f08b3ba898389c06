package analyzer

import (
	"testing"
	"time"

	"github.com/barkeep/barkeep/internal/capture"
	"github.com/barkeep/barkeep/internal/config"
)

func testCastConfig() config.CastBarConfig {
	return config.CastBarConfig{
		Enabled: true,
		Width:   40, Height: 6,
		ActivationThreshold:   0.05,
		DeactivationThreshold: 0.02,
		ConfirmFrames:         2,
		MinDurationMS:         250,
		MaxDurationMS:         10000,
		PressCorrelationMS:    400,
	}
}

// castFrame renders a 40x6 bar filled to the given fraction.
func castFrame(fill float64) capture.Frame {
	f := solidFrame(40, 6, 20, 20, 20)
	filled := int(fill * 40)
	fillRect(f, 0, 0, filled, 6, 220, 220, 220)
	return *f
}

// driveToActive walks a fresh detector through warmup and priming with a
// steadily filling bar. Returns the detector, the activation time and
// the fill level reached.
func driveToActive(t *testing.T, cfg config.CastBarConfig, start time.Time, pressSlot int) (*castBarDetector, time.Time, float64) {
	t.Helper()
	d := newCastBarDetector()

	if pressSlot >= 0 {
		d.notePress(pressSlot, start)
	}

	now := start
	fill := 0.1
	status, _ := d.observe(castFrame(fill), cfg, now)
	if status.Gate != "warmup" {
		t.Fatalf("first frame gate = %q, want warmup", status.Gate)
	}

	for i := 0; i < 6; i++ {
		now = now.Add(33 * time.Millisecond)
		fill += 0.1
		status, _ = d.observe(castFrame(fill), cfg, now)
		if status.Phase == CastActive {
			return d, now, fill
		}
	}
	t.Fatalf("detector never activated, last phase %q gate %q", status.Phase, status.Gate)
	return nil, time.Time{}, 0
}

func TestCastBar_FullEpisode(t *testing.T) {
	cfg := testCastConfig()
	start := time.Now()

	d, activatedAt, fill := driveToActive(t, cfg, start, 3)

	// Still-rising bar keeps the episode active with a progress estimate.
	now := activatedAt.Add(33 * time.Millisecond)
	fill += 0.1
	status, res := d.observe(castFrame(fill), cfg, now)
	if res != nil {
		t.Fatal("episode finished while the bar was still moving")
	}
	if status.Phase != CastActive {
		t.Fatalf("phase = %q, want active", status.Phase)
	}
	if status.Channeling {
		t.Error("rising bar classified as channeling")
	}
	if status.SlotIndex == nil || *status.SlotIndex != 3 {
		t.Error("cast not bound to the recently pressed slot")
	}
	if status.EndsAt == nil {
		t.Error("active cast with progress must estimate ends_at")
	}

	// A frozen bar after the minimum duration ends the cast successfully.
	now = now.Add(300 * time.Millisecond)
	_, res = d.observe(castFrame(fill), cfg, now)
	if res == nil {
		t.Fatal("frozen bar did not finish the episode")
	}
	if !res.succeeded {
		t.Error("episode past min duration reported as noise")
	}
	if res.slot == nil || *res.slot != 3 {
		t.Error("finished cast lost its slot binding")
	}
}

func TestCastBar_ShortEpisodeIsNoise(t *testing.T) {
	cfg := testCastConfig()
	cfg.MinDurationMS = 10000
	start := time.Now()

	d, activatedAt, fill := driveToActive(t, cfg, start, -1)

	status, res := d.observe(castFrame(fill), cfg, activatedAt.Add(50*time.Millisecond))
	if res != nil {
		t.Error("sub-minimum episode must be discarded, not reported")
	}
	if status.Gate != "noise" {
		t.Errorf("gate = %q, want noise", status.Gate)
	}
	if status.Phase != CastOff {
		t.Errorf("phase = %q, want off after discard", status.Phase)
	}
}

func TestCastBar_NonDirectionalMotionStaysOff(t *testing.T) {
	cfg := testCastConfig()
	d := newCastBarDetector()
	now := time.Now()

	// A flashing overlay produces heavy motion but no bar edge at all.
	dark := *solidFrame(40, 6, 20, 20, 20)
	bright := *solidFrame(40, 6, 220, 220, 220)
	var status CastStatus
	for i := 0; i < 8; i++ {
		roi := dark
		if i%2 == 1 {
			roi = bright
		}
		status, _ = d.observe(roi, cfg, now)
		now = now.Add(33 * time.Millisecond)
	}
	if status.Phase == CastActive {
		t.Error("edgeless flashing must not activate a cast")
	}
	if status.Gate != "not-directional" {
		t.Errorf("gate = %q, want not-directional", status.Gate)
	}
}

func TestCastBar_UnboundWithoutRecentPress(t *testing.T) {
	cfg := testCastConfig()
	start := time.Now()

	d := newCastBarDetector()
	d.notePress(3, start.Add(-2*time.Second)) // stale press

	now := start
	fill := 0.1
	d.observe(castFrame(fill), cfg, now)
	for i := 0; i < 6; i++ {
		now = now.Add(33 * time.Millisecond)
		fill += 0.1
		status, _ := d.observe(castFrame(fill), cfg, now)
		if status.Phase == CastActive {
			if status.SlotIndex != nil {
				t.Error("stale press must not bind the cast")
			}
			return
		}
	}
	t.Fatal("detector never activated")
}

func TestFrontEdge(t *testing.T) {
	half := castFrame(0.5)
	edge, ok := frontEdge(grayscale(half), half.W, half.H)
	if !ok {
		t.Fatal("half-filled bar must have a visible edge")
	}
	if edge < 0.45 || edge > 0.55 {
		t.Errorf("edge = %v, want ~0.5", edge)
	}

	flat := *solidFrame(40, 6, 20, 20, 20)
	if _, ok := frontEdge(grayscale(flat), 40, 6); ok {
		t.Error("flat bar must report no edge")
	}
}
