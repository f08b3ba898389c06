package rotation

import (
	"strings"

	"github.com/barkeep/barkeep/internal/analyzer"
	"github.com/barkeep/barkeep/internal/config"
)

// Candidate is the first eligible action found in priority order.
type Candidate struct {
	Keybind   string
	SlotIndex *int
	ActionID  string
}

// EvaluatePriority walks the profile's priority items in list order; the
// order IS the priority, first eligible wins. Manual actions outside the
// priority list only auto-fire when auto_fire_manual_actions is set.
// Returns nil when nothing is eligible.
func EvaluatePriority(bar *analyzer.ActionBarState, buffs analyzer.BuffState, profile *config.PriorityProfile, cfg *config.Config) *Candidate {
	if profile == nil {
		return nil
	}
	for _, item := range profile.PriorityItems {
		if c := evaluateItem(item, bar, buffs, profile, cfg); c != nil {
			return c
		}
	}
	if cfg.AutoFireManualActions {
		for _, ma := range profile.ManualActions {
			if inPriorityList(profile, ma.ID) {
				continue
			}
			if c := evaluateManual(ma, buffs); c != nil {
				return c
			}
		}
	}
	return nil
}

func evaluateItem(item config.PriorityItem, bar *analyzer.ActionBarState, buffs analyzer.BuffState, profile *config.PriorityProfile, cfg *config.Config) *Candidate {
	switch item.Kind {
	case config.PriorityItemManual:
		ma := findManualAction(profile, item.ActionID)
		if ma == nil {
			return nil
		}
		// The item's ready source overrides the action's own when set.
		action := *ma
		if item.ReadySource != "" {
			action.ReadySource = item.ReadySource
		}
		if item.BuffROIID != "" {
			action.BuffROIID = item.BuffROIID
		}
		return evaluateManual(action, buffs)

	default: // slot-backed items are the common case
		slot := bar.Slot(item.SlotIndex)
		if slot == nil {
			return nil
		}
		keybind := cfg.SlotKeybind(item.SlotIndex)
		if keybind == "" {
			// Misconfigured, not a block: fall through to the next item.
			return nil
		}
		if !slotEligible(item, slot, buffs) {
			return nil
		}
		idx := item.SlotIndex
		return &Candidate{Keybind: keybind, SlotIndex: &idx}
	}
}

// slotEligible resolves the item's ready source: the slot's own Ready
// state by default, or a named buff's presence instead.
func slotEligible(item config.PriorityItem, slot *analyzer.SlotSnapshot, buffs analyzer.BuffState) bool {
	switch item.ReadySource {
	case config.ReadySourceBuff:
		return buffs.Present(item.BuffROIID)
	case config.ReadySourceManual:
		return true
	default:
		return slot.State == analyzer.StateReady
	}
}

func evaluateManual(ma config.ManualAction, buffs analyzer.BuffState) *Candidate {
	if !ma.Enabled {
		return nil
	}
	keybind := strings.TrimSpace(ma.Keybind)
	if keybind == "" {
		return nil
	}
	switch ma.ReadySource {
	case config.ReadySourceBuff:
		if !buffs.Present(ma.BuffROIID) {
			return nil
		}
	case config.ReadySourceSlot:
		// A manual action has no slot to gate on.
		return nil
	}
	return &Candidate{Keybind: keybind, ActionID: ma.ID}
}

func findManualAction(profile *config.PriorityProfile, id string) *config.ManualAction {
	want := strings.ToLower(strings.TrimSpace(id))
	for i := range profile.ManualActions {
		if strings.ToLower(strings.TrimSpace(profile.ManualActions[i].ID)) == want {
			return &profile.ManualActions[i]
		}
	}
	return nil
}

func inPriorityList(profile *config.PriorityProfile, actionID string) bool {
	want := strings.ToLower(strings.TrimSpace(actionID))
	for _, item := range profile.PriorityItems {
		if item.Kind == config.PriorityItemManual && strings.ToLower(strings.TrimSpace(item.ActionID)) == want {
			return true
		}
	}
	return false
}
