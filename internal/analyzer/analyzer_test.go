package analyzer

import (
	"errors"
	"testing"
	"time"

	"github.com/barkeep/barkeep/internal/capture"
	"github.com/barkeep/barkeep/internal/config"
)

// barConfig is a 4-slot bar, 40px per slot, glow and cast bar off.
func barConfig() *config.Config {
	return &config.Config{
		BoundingBox:   capture.Rect{Left: 0, Top: 0, Width: 160, Height: 20},
		SlotCount:     4,
		SlotGapPixels: 0,
		SlotPadding:   2,
		GcdMS:         1500,
		Detection: config.DetectionConfig{
			BrightnessThreshold:   0.6,
			ChangeDetection:       true,
			PixelDropThreshold:    40,
			DarkPixelFraction:     0.35,
			CooldownMinDurationMS: 400,
			LockedRatio:           0.1,
		},
	}
}

func brightBar() *capture.Frame {
	return solidFrame(160, 20, 200, 200, 200)
}

// darkenSlot paints one 40px slot dark.
func darkenSlot(f *capture.Frame, slot int) {
	fillRect(f, slot*40, 0, 40, 20, 60, 60, 60)
}

func calibratedAnalyzer(t *testing.T, cfg *config.Config) *Analyzer {
	t.Helper()
	a := New(testLogger())
	blobs, err := a.CalibrateAll(brightBar(), cfg, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.LoadBaselines(blobs); err != nil {
		t.Fatal(err)
	}
	return a
}

func TestAnalyze_AllReadyAfterCalibration(t *testing.T) {
	cfg := barConfig()
	a := calibratedAnalyzer(t, cfg)

	bar, _, _ := a.Analyze(brightBar(), cfg, 0, 0, time.Now())
	if len(bar.Slots) != 4 {
		t.Fatalf("got %d slots, want 4", len(bar.Slots))
	}
	for _, s := range bar.Slots {
		if s.State != StateReady {
			t.Errorf("slot %d = %q, want ready", s.Index, s.State)
		}
	}
}

func TestAnalyze_UncalibratedIsUnknown(t *testing.T) {
	cfg := barConfig()
	a := New(testLogger())

	bar, _, _ := a.Analyze(brightBar(), cfg, 0, 0, time.Now())
	for _, s := range bar.Slots {
		if s.State != StateUnknown {
			t.Errorf("slot %d = %q, want unknown without baselines", s.Index, s.State)
		}
	}
}

func TestAnalyze_CooldownDebounce(t *testing.T) {
	cfg := barConfig()
	a := calibratedAnalyzer(t, cfg)
	t0 := time.Now()

	frame := brightBar()
	darkenSlot(frame, 2)

	// First dim tick: held back by cooldown_min_duration_ms.
	bar, _, _ := a.Analyze(frame, cfg, 0, 0, t0)
	if got := bar.Slots[2].State; got != StateReady {
		t.Errorf("first dim tick = %q, want ready (debounced)", got)
	}

	// Still inside the window.
	bar, _, _ = a.Analyze(frame, cfg, 0, 0, t0.Add(200*time.Millisecond))
	if got := bar.Slots[2].State; got != StateReady {
		t.Errorf("tick inside debounce window = %q, want ready", got)
	}

	// Past the window the cooldown commits.
	bar, _, _ = a.Analyze(frame, cfg, 0, 0, t0.Add(500*time.Millisecond))
	if got := bar.Slots[2].State; got != StateOnCooldown {
		t.Errorf("tick past debounce window = %q, want on_cooldown", got)
	}
	for _, i := range []int{0, 1, 3} {
		if got := bar.Slots[i].State; got != StateReady {
			t.Errorf("untouched slot %d = %q, want ready", i, got)
		}
	}

	// A brightness blip shorter than the window never commits.
	a2 := calibratedAnalyzer(t, cfg)
	a2.Analyze(frame, cfg, 0, 0, t0)
	bar, _, _ = a2.Analyze(brightBar(), cfg, 0, 0, t0.Add(200*time.Millisecond))
	if got := bar.Slots[2].State; got != StateReady {
		t.Errorf("recovered blip = %q, want ready", got)
	}
	bar, _, _ = a2.Analyze(frame, cfg, 0, 0, t0.Add(900*time.Millisecond))
	if got := bar.Slots[2].State; got != StateReady {
		t.Errorf("fresh dip after recovery = %q, want ready (new debounce)", got)
	}
}

func TestAnalyze_GcdAttribution(t *testing.T) {
	cfg := barConfig()
	cfg.Detection.CooldownMinDurationMS = 0
	a := calibratedAnalyzer(t, cfg)
	t0 := time.Now()

	a.NoteKeyPress(0, t0)

	frame := brightBar()
	darkenSlot(frame, 1)
	darkenSlot(frame, 0)

	bar, _, _ := a.Analyze(frame, cfg, 0, 0, t0.Add(100*time.Millisecond))

	// Slot 1 dimmed right after slot 0's press: shared global cooldown.
	if got := bar.Slots[1].State; got != StateGcd {
		t.Errorf("other slot = %q, want gcd", got)
	}
	if bar.Slots[1].CooldownRemaining == nil {
		t.Error("gcd slot must report remaining time")
	}

	// The pressed slot itself is a real cooldown.
	if got := bar.Slots[0].State; got != StateOnCooldown {
		t.Errorf("pressed slot = %q, want on_cooldown", got)
	}

	// Once the GCD passes, the dim slot is a real cooldown too.
	bar, _, _ = a.Analyze(frame, cfg, 0, 0, t0.Add(2*time.Second))
	if got := bar.Slots[1].State; got != StateOnCooldown {
		t.Errorf("after gcd window = %q, want on_cooldown", got)
	}
}

func TestAnalyze_LockedSlot(t *testing.T) {
	cfg := barConfig()
	a := calibratedAnalyzer(t, cfg)

	frame := brightBar()
	fillRect(frame, 40, 0, 40, 20, 5, 5, 5) // slot 1 near black

	bar, _, _ := a.Analyze(frame, cfg, 0, 0, time.Now())
	if got := bar.Slots[1].State; got != StateLocked {
		t.Errorf("near-black slot = %q, want locked", got)
	}
}

func TestCalibrateSlot_KeepsOthers(t *testing.T) {
	cfg := barConfig()
	a := New(testLogger())
	blobs, err := a.CalibrateAll(brightBar(), cfg, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	dim := brightBar()
	darkenSlot(dim, 3)
	blob, err := a.CalibrateSlot(dim, cfg, 0, 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	if blob.Slot != 3 {
		t.Errorf("blob slot = %d, want 3", blob.Slot)
	}

	// Merge and reload, the way the supervisor does after persisting.
	for i := range blobs {
		if blobs[i].Slot == 3 {
			blobs[i] = blob
		}
	}
	if err := a.LoadBaselines(blobs); err != nil {
		t.Fatal(err)
	}

	// Slot 3's new baseline is the dim look, so the dim frame reads ready.
	cfg.Detection.CooldownMinDurationMS = 0
	bar, _, _ := a.Analyze(dim, cfg, 0, 0, time.Now())
	if got := bar.Slots[3].State; got != StateReady {
		t.Errorf("recalibrated slot = %q, want ready against its new baseline", got)
	}
	for _, i := range []int{0, 1, 2} {
		if got := bar.Slots[i].State; got != StateReady {
			t.Errorf("slot %d = %q, want ready", i, got)
		}
	}
}

func TestCalibrateAll_AppliesOnlyThroughLoad(t *testing.T) {
	cfg := barConfig()
	a := New(testLogger())

	blobs, err := a.CalibrateAll(brightBar(), cfg, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	// Sampling must not touch the live table: if persisting the blobs
	// fails, the running analyzer stays in sync with the stored config.
	if a.HasBaselines() {
		t.Fatal("CalibrateAll must not swap the live baseline table")
	}
	bar, _, _ := a.Analyze(brightBar(), cfg, 0, 0, time.Now())
	for _, s := range bar.Slots {
		if s.State != StateUnknown {
			t.Errorf("slot %d = %q before load, want unknown", s.Index, s.State)
		}
	}

	if err := a.LoadBaselines(blobs); err != nil {
		t.Fatal(err)
	}
	bar, _, _ = a.Analyze(brightBar(), cfg, 0, 0, time.Now())
	for _, s := range bar.Slots {
		if s.State != StateReady {
			t.Errorf("slot %d = %q after load, want ready", s.Index, s.State)
		}
	}
}

func TestCalibrateSlot_OutOfRange(t *testing.T) {
	cfg := barConfig()
	a := New(testLogger())
	if _, err := a.CalibrateSlot(brightBar(), cfg, 0, 0, 9); !errors.Is(err, ErrCalibration) {
		t.Errorf("err = %v, want ErrCalibration", err)
	}
}

func TestDecodeBaselines_PartialFailure(t *testing.T) {
	good := blobFromBaseline(0, baselineFromCrop(*solidFrame(4, 4, 100, 100, 100)))
	bad := config.BaselineBlob{Slot: 1, Template: config.TemplateBlob{Shape: [2]int{4, 4}, Data: "!!!"}}

	table, err := DecodeBaselines([]config.BaselineBlob{good, bad})
	if err == nil {
		t.Error("expected an error for the undecodable blob")
	}
	if table[0] == nil {
		t.Error("good blob must survive a sibling's failure")
	}
	if table[1] != nil {
		t.Error("bad blob must be skipped")
	}
}

func TestBaselineRoundTrip(t *testing.T) {
	crop := *solidFrame(6, 5, 40, 90, 160)
	b := baselineFromCrop(crop)
	blob := blobFromBaseline(2, b)

	table, err := DecodeBaselines([]config.BaselineBlob{blob})
	if err != nil {
		t.Fatal(err)
	}
	got := table[2]
	if got == nil {
		t.Fatal("slot 2 missing after round trip")
	}
	if got.W != 6 || got.H != 5 {
		t.Errorf("shape = %dx%d, want 6x5", got.W, got.H)
	}
	if got.Brightness != b.Brightness {
		t.Errorf("brightness = %v, want %v", got.Brightness, b.Brightness)
	}
}
