package analyzer

import (
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/barkeep/barkeep/internal/capture"
	"github.com/barkeep/barkeep/internal/config"
)

const defaultBuffThreshold = 0.9

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// TemplateSimilarity scores two grayscale buffers of equal length in
// [0,1] via correlation on zero-mean pixel vectors. Flat buffers carry no
// pattern, so two flat buffers compare by mean and a flat buffer against
// a patterned one scores zero; this keeps uniform resource-bar templates
// usable without dividing by zero.
func TemplateSimilarity(a, b []byte) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	xs := make([]float64, len(a))
	ys := make([]float64, len(b))
	for i := range a {
		xs[i] = float64(a[i])
		ys[i] = float64(b[i])
	}
	sdA := stat.StdDev(xs, nil)
	sdB := stat.StdDev(ys, nil)
	const flat = 1e-9
	if sdA < flat && sdB < flat {
		diff := stat.Mean(xs, nil) - stat.Mean(ys, nil)
		if diff < 0 {
			diff = -diff
		}
		return 1 - diff/255.0
	}
	if sdA < flat || sdB < flat {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if r < 0 {
		return 0
	}
	return r
}

// cachedTemplate avoids re-decoding a ROI's base64 blob every tick. The
// raw buffer is invalidated whenever the encoded data changes.
type cachedTemplate struct {
	data string
	raw  []byte
}

// matchBuffROIs scores every enabled, calibrated ROI against the current
// frame. ROIs without a template always report not-present. lastSeen is
// the analyzer-owned table of last-present timestamps.
func matchBuffROIs(frame *capture.Frame, cfg *config.Config, originX, originY int, cache map[string]cachedTemplate, lastSeen map[string]time.Time, now time.Time) BuffState {
	out := make(BuffState, len(cfg.BuffROIs))
	for _, roi := range cfg.BuffROIs {
		id := normalizeID(roi.ID)
		if id == "" || !roi.Enabled {
			continue
		}
		status := BuffStatus{}
		if tpl := roi.Calibration.PresentTemplate; tpl != nil && roi.Width > 1 && roi.Height > 1 {
			crop := frame.SubFrame(originX+roi.Left, originY+roi.Top, roi.Width, roi.Height)
			if raw := templateBytes(id, tpl, cache); raw != nil &&
				crop.W == tpl.Shape[1] && crop.H == tpl.Shape[0] {
				status.Similarity = TemplateSimilarity(grayscale(crop), raw)
				threshold := roi.Threshold
				if threshold <= 0 {
					threshold = defaultBuffThreshold
				}
				status.Present = status.Similarity >= threshold
			}
		}
		if status.Present {
			lastSeen[id] = now
		}
		if seen, ok := lastSeen[id]; ok {
			t := seen
			status.LastSeenAt = &t
		}
		out[id] = status
	}
	return out
}

func templateBytes(id string, tpl *config.TemplateBlob, cache map[string]cachedTemplate) []byte {
	if c, ok := cache[id]; ok && c.data == tpl.Data {
		return c.raw
	}
	raw, err := decodeTemplate(tpl)
	if err != nil {
		return nil
	}
	cache[id] = cachedTemplate{data: tpl.Data, raw: raw}
	return raw
}
