// Package config holds the barkeep configuration. It is loaded once at
// startup and every caller that needs tunables takes an immutable snapshot
// through Get; mutations clone, modify and atomically replace the snapshot
// so an in-flight tick never observes a partial update.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	cp "github.com/otiai10/copy"
	"gopkg.in/yaml.v3"

	"github.com/barkeep/barkeep/internal/capture"
)

var (
	mu      sync.RWMutex
	current *Config
	cfgPath string
)

var ErrNotLoaded = errors.New("config: not loaded")

type Config struct {
	Debug            DebugConfig `yaml:"debug"`
	LogSaveDirectory string      `yaml:"log_save_directory"`

	// MonitorIndex is the 1-based display the capture backend grabs from.
	MonitorIndex int `yaml:"monitor_index"`
	PollingHz    int `yaml:"polling_hz"`

	BoundingBox   capture.Rect `yaml:"bounding_box"`
	SlotCount     int          `yaml:"slot_count"`
	SlotGapPixels int          `yaml:"slot_gap_pixels"`
	SlotPadding   int          `yaml:"slot_padding"`
	Keybinds      []string     `yaml:"keybinds"`

	TargetWindowTitle     string `yaml:"target_window_title"`
	AutomationEnabled     bool   `yaml:"automation_enabled"`
	AutoFireManualActions bool   `yaml:"auto_fire_manual_actions"`
	MinPressIntervalMS    int    `yaml:"min_press_interval_ms"`
	GcdMS                 int    `yaml:"gcd_ms"`
	AllowCastWhileCasting bool   `yaml:"allow_cast_while_casting"`

	Detection DetectionConfig `yaml:"detection"`
	CastBar   CastBarConfig   `yaml:"cast_bar"`
	BuffROIs  []BuffROI       `yaml:"buff_rois"`
	Queue     QueueConfig     `yaml:"queue"`

	PriorityProfiles        []PriorityProfile `yaml:"priority_profiles"`
	ActivePriorityProfileID string            `yaml:"active_priority_profile_id"`

	SlotBaselines            []BaselineBlob `yaml:"slot_baselines"`
	OverwrittenBaselineSlots []int          `yaml:"overwritten_baseline_slots"`

	Server   ServerConfig   `yaml:"server"`
	Discord  DiscordConfig  `yaml:"discord"`
	Telegram TelegramConfig `yaml:"telegram"`
	UI       UIConfig       `yaml:"ui"`
}

type DebugConfig struct {
	Log bool `yaml:"log"`
}

type DetectionConfig struct {
	// BrightnessThreshold is the static mean-ratio test: a slot counts as
	// on cooldown when its brightness drops below baseline*threshold.
	BrightnessThreshold float64 `yaml:"brightness_threshold"`
	// DetectionRegion selects which pixels feed the classifier: "full" or
	// "top_left" quadrant.
	DetectionRegion string `yaml:"detection_region"`
	// ChangeDetection enables the per-pixel baseline comparison instead of
	// the plain mean ratio.
	ChangeDetection           bool    `yaml:"change_detection"`
	PixelDropThreshold        int     `yaml:"pixel_drop_threshold"`
	DarkPixelFraction         float64 `yaml:"dark_pixel_fraction"`
	CooldownMinDurationMS     int     `yaml:"cooldown_min_duration_ms"`
	CooldownChangeIgnoreSlots []int   `yaml:"cooldown_change_ignore_by_slot"`
	// LockedRatio marks a slot Locked when brightness sinks below
	// baseline*ratio, well under the cooldown threshold.
	LockedRatio float64    `yaml:"locked_ratio"`
	Glow        GlowConfig `yaml:"glow"`
}

type GlowConfig struct {
	ConfirmFrames int            `yaml:"glow_confirm_frames"`
	Yellow        RingGlowConfig `yaml:"yellow"`
	Red           RingGlowConfig `yaml:"red"`
}

type RingGlowConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RingThickness     int     `yaml:"ring_thickness"`
	MinSaturation     int     `yaml:"min_saturation"`
	MinValueDelta     int     `yaml:"min_value_delta"`
	CandidateFraction float64 `yaml:"candidate_fraction"`
	ReadyFraction     float64 `yaml:"ready_fraction"`
}

type CastBarConfig struct {
	Enabled bool `yaml:"enabled"`
	// Offsets are relative to the action-bar origin, may be negative.
	Left   int `yaml:"left"`
	Top    int `yaml:"top"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	ActivationThreshold   float64 `yaml:"activation_threshold"`
	DeactivationThreshold float64 `yaml:"deactivation_threshold"`
	ConfirmFrames         int     `yaml:"cast_confirm_frames"`
	MinDurationMS         int     `yaml:"cast_min_duration_ms"`
	MaxDurationMS         int     `yaml:"cast_max_duration_ms"`
	// PressCorrelationMS is how far back a sent key may sit and still be
	// credited as the cast's origin slot.
	PressCorrelationMS int `yaml:"press_correlation_ms"`
}

type BuffROI struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Left    int    `yaml:"left"`
	Top     int    `yaml:"top"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Enabled bool   `yaml:"enabled"`

	Threshold   float64         `yaml:"threshold"`
	Calibration BuffCalibration `yaml:"calibration"`
}

type BuffCalibration struct {
	PresentTemplate *TemplateBlob `yaml:"present_template,omitempty"`
}

// TemplateBlob is a grayscale buffer persisted inside the yaml config,
// base64 encoded with its shape.
type TemplateBlob struct {
	Shape [2]int `yaml:"shape,flow"` // height, width
	Data  string `yaml:"data"`
}

// BaselineBlob is a slot's calibrated reference sample.
type BaselineBlob struct {
	Slot       int          `yaml:"slot"`
	Brightness float64      `yaml:"brightness"`
	Template   TemplateBlob `yaml:"template"`
}

type QueueConfig struct {
	TimeoutMS    int      `yaml:"timeout_ms"`
	Whitelist    []string `yaml:"whitelist"`
	TrackedSlots []int    `yaml:"tracked_slots"`
}

type ReadySource string

const (
	ReadySourceSlot   ReadySource = "slot"
	ReadySourceBuff   ReadySource = "buff"
	ReadySourceManual ReadySource = "manual"
)

type PriorityItemKind string

const (
	PriorityItemSlot   PriorityItemKind = "slot"
	PriorityItemManual PriorityItemKind = "manual"
)

type PriorityItem struct {
	Kind           PriorityItemKind `yaml:"kind"`
	SlotIndex      int              `yaml:"slot_index"`
	ActionID       string           `yaml:"action_id"`
	ActivationRule string           `yaml:"activation_rule"`
	ReadySource    ReadySource      `yaml:"ready_source"`
	BuffROIID      string           `yaml:"buff_roi_id"`
}

type ManualAction struct {
	ID          string      `yaml:"id"`
	Keybind     string      `yaml:"keybind"`
	Enabled     bool        `yaml:"enabled"`
	ReadySource ReadySource `yaml:"ready_source"`
	BuffROIID   string      `yaml:"buff_roi_id"`
}

type PriorityProfile struct {
	ID             string         `yaml:"id"`
	Name           string         `yaml:"name"`
	ToggleBind     string         `yaml:"toggle_bind"`
	SingleFireBind string         `yaml:"single_fire_bind"`
	PriorityItems  []PriorityItem `yaml:"priority_items"`
	ManualActions  []ManualAction `yaml:"manual_actions"`
}

type ServerConfig struct {
	Port  int         `yaml:"port"`
	Ngrok NgrokConfig `yaml:"ngrok"`
}

type NgrokConfig struct {
	Enabled   bool   `yaml:"enabled"`
	AuthToken string `yaml:"auth_token"`
	Domain    string `yaml:"domain"`
}

type DiscordConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Token     string   `yaml:"token"`
	ChannelID string   `yaml:"channel_id"`
	BotAdmins []string `yaml:"bot_admins"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
}

type UIConfig struct {
	DesktopWindow bool `yaml:"desktop_window"`
	WindowWidth   int  `yaml:"window_width"`
	WindowHeight  int  `yaml:"window_height"`
}

// ActiveProfile returns the profile selected by ActivePriorityProfileID,
// falling back to the first profile. Nil when none exist.
func (c *Config) ActiveProfile() *PriorityProfile {
	want := strings.ToLower(strings.TrimSpace(c.ActivePriorityProfileID))
	for i := range c.PriorityProfiles {
		if strings.ToLower(strings.TrimSpace(c.PriorityProfiles[i].ID)) == want {
			return &c.PriorityProfiles[i]
		}
	}
	if len(c.PriorityProfiles) > 0 {
		return &c.PriorityProfiles[0]
	}
	return nil
}

// FindBuffROI looks a ROI up by id, case-insensitive.
func (c *Config) FindBuffROI(id string) *BuffROI {
	want := strings.ToLower(strings.TrimSpace(id))
	if want == "" {
		return nil
	}
	for i := range c.BuffROIs {
		if strings.ToLower(strings.TrimSpace(c.BuffROIs[i].ID)) == want {
			return &c.BuffROIs[i]
		}
	}
	return nil
}

// SlotKeybind returns the configured keybind for a slot, empty when unset.
func (c *Config) SlotKeybind(slot int) string {
	if slot < 0 || slot >= len(c.Keybinds) {
		return ""
	}
	return strings.TrimSpace(c.Keybinds[slot])
}

// Load reads the config file, seeding the config directory from the
// bundled template on first run.
func Load() error {
	dir := "config"
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if _, tErr := os.Stat("config_template"); tErr == nil {
			if err := cp.Copy("config_template", dir); err != nil {
				return fmt.Errorf("error seeding config from template: %w", err)
			}
		} else if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}
	}

	cfgPath = filepath.Join(dir, "barkeep.yaml")
	raw, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		cfg := Default()
		mu.Lock()
		current = cfg
		mu.Unlock()
		return Save(cfg)
	}
	if err != nil {
		return fmt.Errorf("error reading %s: %w", cfgPath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("error parsing %s: %w", cfgPath, err)
	}
	cfg.Discord.Token = decryptSecret(cfg.Discord.Token)
	cfg.Telegram.Token = decryptSecret(cfg.Telegram.Token)
	if err := cfg.Validate(); err != nil {
		return err
	}

	mu.Lock()
	current = cfg
	mu.Unlock()
	return nil
}

// Get returns the current immutable snapshot. Callers must not mutate it;
// use Update instead.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Update clones the current snapshot, applies fn and swaps the result in.
// The previous snapshot stays valid for ticks still holding it.
func Update(fn func(*Config)) (*Config, error) {
	mu.Lock()
	if current == nil {
		mu.Unlock()
		return nil, ErrNotLoaded
	}
	next := current.Clone()
	fn(next)
	if err := next.Validate(); err != nil {
		mu.Unlock()
		return nil, err
	}
	current = next
	mu.Unlock()
	return next, Save(next)
}

// Save writes the config to disk. Notifier tokens are encrypted at rest
// on Windows.
func Save(cfg *Config) error {
	out := cfg.Clone()
	out.Discord.Token = encryptSecret(out.Discord.Token)
	out.Telegram.Token = encryptSecret(out.Telegram.Token)

	raw, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("error serializing config: %w", err)
	}
	if cfgPath == "" {
		cfgPath = filepath.Join("config", "barkeep.yaml")
	}
	if err := os.WriteFile(cfgPath, raw, 0o644); err != nil {
		return fmt.Errorf("error writing %s: %w", cfgPath, err)
	}
	return nil
}

// Validate rejects geometry and timing values the analyzer cannot work
// with, before any capture happens.
func (c *Config) Validate() error {
	if c.SlotCount < 1 {
		return fmt.Errorf("slot_count must be >= 1, got %d", c.SlotCount)
	}
	if c.PollingHz < 5 || c.PollingHz > 240 {
		return fmt.Errorf("polling_hz must be within 5-240, got %d", c.PollingHz)
	}
	if c.BoundingBox.Width < 1 || c.BoundingBox.Height < 1 {
		return fmt.Errorf("bounding_box must be at least 1x1, got %dx%d", c.BoundingBox.Width, c.BoundingBox.Height)
	}
	if c.CastBar.Enabled && (c.CastBar.Width <= 1 || c.CastBar.Height <= 1) {
		return fmt.Errorf("cast_bar region must be larger than 1x1, got %dx%d", c.CastBar.Width, c.CastBar.Height)
	}
	for _, roi := range c.BuffROIs {
		if roi.Enabled && (roi.Width <= 1 || roi.Height <= 1) {
			return fmt.Errorf("buff ROI %q must be larger than 1x1, got %dx%d", roi.ID, roi.Width, roi.Height)
		}
	}
	switch c.Detection.DetectionRegion {
	case "", "full", "top_left":
	default:
		return fmt.Errorf("detection_region must be \"full\" or \"top_left\", got %q", c.Detection.DetectionRegion)
	}
	return nil
}

// Clone produces a deep copy safe to mutate independently.
func (c *Config) Clone() *Config {
	out := *c
	out.Keybinds = append([]string(nil), c.Keybinds...)
	out.Detection.CooldownChangeIgnoreSlots = append([]int(nil), c.Detection.CooldownChangeIgnoreSlots...)
	out.Queue.Whitelist = append([]string(nil), c.Queue.Whitelist...)
	out.Queue.TrackedSlots = append([]int(nil), c.Queue.TrackedSlots...)
	out.OverwrittenBaselineSlots = append([]int(nil), c.OverwrittenBaselineSlots...)
	out.SlotBaselines = append([]BaselineBlob(nil), c.SlotBaselines...)
	out.Discord.BotAdmins = append([]string(nil), c.Discord.BotAdmins...)

	out.BuffROIs = make([]BuffROI, len(c.BuffROIs))
	for i, roi := range c.BuffROIs {
		out.BuffROIs[i] = roi
		if roi.Calibration.PresentTemplate != nil {
			tpl := *roi.Calibration.PresentTemplate
			out.BuffROIs[i].Calibration.PresentTemplate = &tpl
		}
	}

	out.PriorityProfiles = make([]PriorityProfile, len(c.PriorityProfiles))
	for i, p := range c.PriorityProfiles {
		out.PriorityProfiles[i] = p
		out.PriorityProfiles[i].PriorityItems = append([]PriorityItem(nil), p.PriorityItems...)
		out.PriorityProfiles[i].ManualActions = append([]ManualAction(nil), p.ManualActions...)
	}
	return &out
}

// Default returns the configuration used before the user has tuned
// anything.
func Default() *Config {
	return &Config{
		LogSaveDirectory:   "logs",
		MonitorIndex:       1,
		PollingHz:          30,
		BoundingBox:        capture.Rect{Left: 0, Top: 0, Width: 600, Height: 60},
		SlotCount:          10,
		SlotGapPixels:      4,
		SlotPadding:        3,
		MinPressIntervalMS: 150,
		GcdMS:              1500,
		Detection: DetectionConfig{
			BrightnessThreshold:   0.6,
			DetectionRegion:       "full",
			PixelDropThreshold:    40,
			DarkPixelFraction:     0.35,
			CooldownMinDurationMS: 250,
			LockedRatio:           0.25,
			Glow: GlowConfig{
				ConfirmFrames: 2,
				Yellow: RingGlowConfig{
					RingThickness:     2,
					MinSaturation:     90,
					MinValueDelta:     40,
					CandidateFraction: 0.10,
					ReadyFraction:     0.30,
				},
				Red: RingGlowConfig{
					RingThickness:     2,
					MinSaturation:     90,
					MinValueDelta:     40,
					CandidateFraction: 0.10,
					ReadyFraction:     0.30,
				},
			},
		},
		CastBar: CastBarConfig{
			Left:                  0,
			Top:                   -40,
			Width:                 200,
			Height:                14,
			ActivationThreshold:   0.04,
			DeactivationThreshold: 0.015,
			ConfirmFrames:         3,
			MinDurationMS:         300,
			MaxDurationMS:         10000,
			PressCorrelationMS:    800,
		},
		Queue: QueueConfig{TimeoutMS: 1200},
		Server: ServerConfig{
			Port: 8087,
		},
		UI: UIConfig{WindowWidth: 1040, WindowHeight: 720},
	}
}
