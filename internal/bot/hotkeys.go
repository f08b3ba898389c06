package bot

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/barkeep/barkeep/internal/config"
	"github.com/barkeep/barkeep/internal/event"
	"github.com/barkeep/barkeep/internal/input"
	"github.com/barkeep/barkeep/internal/rotation"
)

// HandlePress is the input-hook callback. It runs on the hook's message
// pump, so everything here is quick: resolve the bind and hand state
// changes off to the config layer, the gate or the queue.
func (b *Bot) HandlePress(bind string) {
	bind = input.NormalizeBind(bind)
	if bind == "" {
		return
	}

	if fn := b.takeBindCapture(); fn != nil {
		fn(bind)
		return
	}

	cfg := config.Get()

	for i := range cfg.PriorityProfiles {
		profile := &cfg.PriorityProfiles[i]
		switch bind {
		case input.NormalizeBind(profile.ToggleBind):
			if profile.ToggleBind != "" {
				b.toggleProfile(profile.ID)
				return
			}
		case input.NormalizeBind(profile.SingleFireBind):
			if profile.SingleFireBind != "" {
				b.singleFireProfile(profile.ID)
				return
			}
		}
	}

	b.maybeQueue(cfg, bind)
}

// toggleProfile switches the active profile to the one whose toggle bind
// was pressed, then flips automation. Pressing a non-active profile's
// bind while running therefore both switches and keeps running off-on
// semantics: switch first, toggle second.
func (b *Bot) toggleProfile(profileID string) {
	var enabled bool
	var name string
	updated, err := config.Update(func(c *config.Config) {
		if !strings.EqualFold(c.ActivePriorityProfileID, profileID) {
			c.ActivePriorityProfileID = profileID
		}
		c.AutomationEnabled = !c.AutomationEnabled
		enabled = c.AutomationEnabled
	})
	if err != nil {
		b.logger.Error("Toggling rotation", slog.Any("error", err))
		return
	}
	if p := updated.ActiveProfile(); p != nil {
		name = p.Name
	}
	b.gate.ResetOnToggle()
	b.events.Emit(event.RotationToggled{
		BaseEvent:   event.Text(fmt.Sprintf("rotation %s (%s)", onOff(enabled), name)),
		Enabled:     enabled,
		ProfileName: name,
	})
}

// singleFireProfile arms the gate for exactly one press from the given
// profile, switching to it first if needed. Works with automation off;
// that is the point of it.
func (b *Bot) singleFireProfile(profileID string) {
	updated, err := config.Update(func(c *config.Config) {
		if !strings.EqualFold(c.ActivePriorityProfileID, profileID) {
			c.ActivePriorityProfileID = profileID
		}
	})
	if err != nil {
		b.logger.Error("Switching profile for single fire", slog.Any("error", err))
		return
	}
	if p := updated.ActiveProfile(); p != nil && !strings.EqualFold(p.ID, profileID) {
		b.logger.Warn("Single fire bind refers to unknown profile", slog.String("profile_id", profileID))
	}
	b.gate.RequestSingleFire()
}

// maybeQueue turns a qualifying manual press into a spell-queue entry.
// Whitelisted binds queue unconditionally; a tracked slot's own keybind
// queues bound to that slot.
func (b *Bot) maybeQueue(cfg *config.Config, bind string) {
	now := time.Now()
	timeout := time.Duration(cfg.Queue.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 1200 * time.Millisecond
	}

	for _, w := range cfg.Queue.Whitelist {
		if input.NormalizeBind(w) == bind {
			b.queue.Push(rotation.QueueEntry{
				Source:     rotation.QueueWhitelist,
				Key:        bind,
				EnqueuedAt: now,
				TimeoutAt:  now.Add(timeout),
			})
			return
		}
	}

	for _, slot := range cfg.Queue.TrackedSlots {
		if input.NormalizeBind(cfg.SlotKeybind(slot)) != bind {
			continue
		}
		idx := slot
		b.queue.Push(rotation.QueueEntry{
			Source:     rotation.QueueTracked,
			Key:        bind,
			SlotIndex:  &idx,
			EnqueuedAt: now,
			TimeoutAt:  now.Add(timeout),
		})
		return
	}
}

// ArmBindCapture registers a one-shot callback that receives the next
// physical key or mouse press instead of the normal hotkey handling.
// Used by the UI's "press a key to bind" flow.
func (b *Bot) ArmBindCapture(fn func(bind string)) {
	b.captureMu.Lock()
	b.captureBind = fn
	b.captureMu.Unlock()
}

// CancelBindCapture disarms a pending capture, if any.
func (b *Bot) CancelBindCapture() {
	b.captureMu.Lock()
	b.captureBind = nil
	b.captureMu.Unlock()
}

func (b *Bot) takeBindCapture() func(string) {
	b.captureMu.Lock()
	fn := b.captureBind
	b.captureBind = nil
	b.captureMu.Unlock()
	return fn
}

// ToggleRotation flips automation for the currently active profile.
// Exposed for the web UI; the hotkey path goes through toggleProfile.
func (b *Bot) ToggleRotation() (bool, error) {
	var enabled bool
	updated, err := config.Update(func(c *config.Config) {
		c.AutomationEnabled = !c.AutomationEnabled
		enabled = c.AutomationEnabled
	})
	if err != nil {
		return false, err
	}
	name := ""
	if p := updated.ActiveProfile(); p != nil {
		name = p.Name
	}
	b.gate.ResetOnToggle()
	b.events.Emit(event.RotationToggled{
		BaseEvent:   event.Text(fmt.Sprintf("rotation %s (%s)", onOff(enabled), name)),
		Enabled:     enabled,
		ProfileName: name,
	})
	return enabled, nil
}

// SetActiveProfile switches profiles by id.
func (b *Bot) SetActiveProfile(profileID string) error {
	updated, err := config.Update(func(c *config.Config) {
		c.ActivePriorityProfileID = profileID
	})
	if err != nil {
		return err
	}
	p := updated.ActiveProfile()
	if p == nil || !strings.EqualFold(p.ID, profileID) {
		return fmt.Errorf("unknown priority profile %q", profileID)
	}
	b.events.Emit(event.ProfileSwitched{
		BaseEvent:   event.Text("profile switched to " + p.Name),
		ProfileID:   p.ID,
		ProfileName: p.Name,
	})
	return nil
}

// RequestSingleFire arms the gate from the web UI.
func (b *Bot) RequestSingleFire() {
	b.gate.RequestSingleFire()
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
