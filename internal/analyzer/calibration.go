package analyzer

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/barkeep/barkeep/internal/capture"
	"github.com/barkeep/barkeep/internal/config"
)

var ErrCalibration = errors.New("calibration failed")

// Baseline is a slot's calibrated "ready" reference sample.
type Baseline struct {
	Brightness float64
	Gray       []byte
	W, H       int
}

// baselineTable maps slot index to baseline. Tables are immutable once
// published; LoadBaselines builds a new table and swaps the pointer.
type baselineTable map[int]*Baseline

func encodeTemplate(gray []byte, w, h int) config.TemplateBlob {
	return config.TemplateBlob{
		Shape: [2]int{h, w},
		Data:  base64.StdEncoding.EncodeToString(gray),
	}
}

func decodeTemplate(tpl *config.TemplateBlob) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(tpl.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: bad template encoding: %v", ErrCalibration, err)
	}
	if len(raw) != tpl.Shape[0]*tpl.Shape[1] {
		return nil, fmt.Errorf("%w: template data length %d does not match shape %dx%d",
			ErrCalibration, len(raw), tpl.Shape[0], tpl.Shape[1])
	}
	return raw, nil
}

// DecodeBaselines rebuilds the baseline table from persisted blobs,
// skipping any blob that fails to decode.
func DecodeBaselines(blobs []config.BaselineBlob) (map[int]*Baseline, error) {
	table := make(baselineTable, len(blobs))
	var firstErr error
	for _, blob := range blobs {
		raw, err := decodeTemplate(&blob.Template)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("slot %d: %w", blob.Slot, err)
			}
			continue
		}
		table[blob.Slot] = &Baseline{
			Brightness: blob.Brightness,
			Gray:       raw,
			W:          blob.Template.Shape[1],
			H:          blob.Template.Shape[0],
		}
	}
	return table, firstErr
}

func baselineFromCrop(crop capture.Frame) *Baseline {
	gray := grayscale(crop)
	return &Baseline{
		Brightness: meanBrightness(gray),
		Gray:       gray,
		W:          crop.W,
		H:          crop.H,
	}
}

func blobFromBaseline(slot int, b *Baseline) config.BaselineBlob {
	return config.BaselineBlob{
		Slot:       slot,
		Brightness: b.Brightness,
		Template:   encodeTemplate(b.Gray, b.W, b.H),
	}
}

// CalibrateAll samples the current frame as the "ready" baseline for
// every slot. It only computes and returns the blobs; the caller applies
// them with LoadBaselines once they are persisted, so the live table
// never diverges from the stored config.
func (a *Analyzer) CalibrateAll(frame *capture.Frame, cfg *config.Config, originX, originY int) ([]config.BaselineBlob, error) {
	if err := checkActionBarInFrame(frame, cfg, originX, originY); err != nil {
		return nil, err
	}
	bar := frame.SubFrame(originX, originY, cfg.BoundingBox.Width, cfg.BoundingBox.Height)
	regions := SlotLayout(bar.W, bar.H, cfg.SlotCount, cfg.SlotGapPixels)

	blobs := make([]config.BaselineBlob, 0, len(regions))
	for _, region := range regions {
		crop := CropSlot(&bar, region, cfg.SlotPadding)
		blobs = append(blobs, blobFromBaseline(region.Index, baselineFromCrop(crop)))
	}
	a.logger.Info("Sampled slot baselines", slog.Int("slots", len(blobs)))
	return blobs, nil
}

// CalibrateSlot samples a single slot's baseline. Like CalibrateAll it
// does not touch the live table; the caller merges the blob into the
// persisted set and reloads.
func (a *Analyzer) CalibrateSlot(frame *capture.Frame, cfg *config.Config, originX, originY, slot int) (config.BaselineBlob, error) {
	if slot < 0 || slot >= cfg.SlotCount {
		return config.BaselineBlob{}, fmt.Errorf("%w: slot %d out of range (0-%d)", ErrCalibration, slot, cfg.SlotCount-1)
	}
	if err := checkActionBarInFrame(frame, cfg, originX, originY); err != nil {
		return config.BaselineBlob{}, err
	}
	bar := frame.SubFrame(originX, originY, cfg.BoundingBox.Width, cfg.BoundingBox.Height)
	regions := SlotLayout(bar.W, bar.H, cfg.SlotCount, cfg.SlotGapPixels)
	crop := CropSlot(&bar, regions[slot], cfg.SlotPadding)
	b := baselineFromCrop(crop)

	a.logger.Info("Sampled slot baseline", slog.Int("slot", slot), slog.Float64("brightness", b.Brightness))
	return blobFromBaseline(slot, b), nil
}

// CalibrateBuffROI captures a ROI's current appearance as its "present"
// template. The existing template stays untouched on any failure.
func (a *Analyzer) CalibrateBuffROI(frame *capture.Frame, cfg *config.Config, originX, originY int, roiID string) (config.TemplateBlob, error) {
	roi := cfg.FindBuffROI(roiID)
	if roi == nil {
		return config.TemplateBlob{}, fmt.Errorf("%w: buff ROI not found: %s", ErrCalibration, roiID)
	}
	if roi.Width <= 1 || roi.Height <= 1 {
		return config.TemplateBlob{}, fmt.Errorf("%w: buff ROI %q must be larger than 1x1", ErrCalibration, roiID)
	}
	x := originX + roi.Left
	y := originY + roi.Top
	if x < 0 || y < 0 || x+roi.Width > frame.W || y+roi.Height > frame.H {
		return config.TemplateBlob{}, fmt.Errorf("%w: buff ROI %q is out of the capture frame", ErrCalibration, roiID)
	}
	crop := frame.SubFrame(x, y, roi.Width, roi.Height)
	blob := encodeTemplate(grayscale(crop), crop.W, crop.H)
	a.logger.Info("Sampled buff ROI template", slog.String("roi", roiID), slog.Any("shape", blob.Shape))
	return blob, nil
}

func checkActionBarInFrame(frame *capture.Frame, cfg *config.Config, originX, originY int) error {
	if frame == nil || frame.W < 1 || frame.H < 1 {
		return fmt.Errorf("%w: empty frame", ErrCalibration)
	}
	if originX < 0 || originY < 0 ||
		originX+cfg.BoundingBox.Width > frame.W || originY+cfg.BoundingBox.Height > frame.H {
		return fmt.Errorf("%w: action bar %dx%d at (%d,%d) is out of the %dx%d frame",
			ErrCalibration, cfg.BoundingBox.Width, cfg.BoundingBox.Height, originX, originY, frame.W, frame.H)
	}
	return nil
}
