package bot

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/barkeep/barkeep/internal/config"
	"github.com/barkeep/barkeep/internal/event"
)

// CalibrateAll samples every slot from a fresh frame, persists the
// blobs and then swaps the live baseline table. A full calibration
// supersedes any earlier per-slot overwrites.
func (b *Bot) CalibrateAll() error {
	cfg := config.Get()
	frame, ox, oy, err := b.grabUnion(cfg)
	if err != nil {
		return b.calibrationFailed("all", err)
	}

	blobs, err := b.analyzer.CalibrateAll(frame, cfg, ox, oy)
	if err != nil {
		return b.calibrationFailed("all", err)
	}

	updated, err := config.Update(func(c *config.Config) {
		c.SlotBaselines = blobs
		c.OverwrittenBaselineSlots = nil
	})
	if err != nil {
		return b.calibrationFailed("all", err)
	}
	// The live table swaps only after the blobs are persisted, so a failed
	// save never leaves the analyzer ahead of the stored config.
	if err := b.analyzer.LoadBaselines(updated.SlotBaselines); err != nil {
		return b.calibrationFailed("all", err)
	}

	b.logger.Info("Calibrated action bar", slog.Int("slots", len(blobs)))
	b.events.Emit(event.CalibrationFinished{
		BaseEvent: event.Text(fmt.Sprintf("calibrated %d slots", len(blobs))),
		Kind:      "all",
		OK:        true,
	})
	return nil
}

// CalibrateSlot re-samples a single slot, keeping the rest of the table.
// The slot is recorded as overwritten so the UI can flag baselines that
// no longer come from one capture.
func (b *Bot) CalibrateSlot(slot int) error {
	cfg := config.Get()
	frame, ox, oy, err := b.grabUnion(cfg)
	if err != nil {
		return b.calibrationFailed("slot", err)
	}

	blob, err := b.analyzer.CalibrateSlot(frame, cfg, ox, oy, slot)
	if err != nil {
		return b.calibrationFailed("slot", err)
	}

	updated, err := config.Update(func(c *config.Config) {
		replaced := false
		for i := range c.SlotBaselines {
			if c.SlotBaselines[i].Slot == slot {
				c.SlotBaselines[i] = blob
				replaced = true
				break
			}
		}
		if !replaced {
			c.SlotBaselines = append(c.SlotBaselines, blob)
		}
		if !slices.Contains(c.OverwrittenBaselineSlots, slot) {
			c.OverwrittenBaselineSlots = append(c.OverwrittenBaselineSlots, slot)
		}
	})
	if err != nil {
		return b.calibrationFailed("slot", err)
	}
	if err := b.analyzer.LoadBaselines(updated.SlotBaselines); err != nil {
		return b.calibrationFailed("slot", err)
	}

	b.logger.Info("Calibrated slot", slog.Int("slot", slot))
	b.events.Emit(event.CalibrationFinished{
		BaseEvent: event.Text(fmt.Sprintf("calibrated slot %d", slot)),
		Kind:      "slot",
		OK:        true,
		Detail:    fmt.Sprintf("slot %d", slot),
	})
	return nil
}

// CalibrateBuff samples a buff ROI's present-state template and stores
// it on the ROI's calibration block.
func (b *Bot) CalibrateBuff(roiID string) error {
	cfg := config.Get()
	frame, ox, oy, err := b.grabUnion(cfg)
	if err != nil {
		return b.calibrationFailed("buff", err)
	}

	tpl, err := b.analyzer.CalibrateBuffROI(frame, cfg, ox, oy, roiID)
	if err != nil {
		return b.calibrationFailed("buff", err)
	}

	if _, err := config.Update(func(c *config.Config) {
		for i := range c.BuffROIs {
			if roi := &c.BuffROIs[i]; strings.EqualFold(roi.ID, roiID) {
				roi.Calibration.PresentTemplate = &tpl
				return
			}
		}
	}); err != nil {
		return b.calibrationFailed("buff", err)
	}

	b.logger.Info("Calibrated buff ROI", slog.String("roi", roiID))
	b.events.Emit(event.CalibrationFinished{
		BaseEvent: event.Text("calibrated buff " + roiID),
		Kind:      "buff",
		OK:        true,
		Detail:    roiID,
	})
	return nil
}

func (b *Bot) calibrationFailed(kind string, err error) error {
	b.logger.Warn("Calibration failed", slog.String("kind", kind), slog.Any("error", err))
	b.events.Emit(event.CalibrationFinished{
		BaseEvent: event.Text("calibration failed: " + err.Error()),
		Kind:      kind,
		OK:        false,
		Detail:    err.Error(),
	})
	return err
}
