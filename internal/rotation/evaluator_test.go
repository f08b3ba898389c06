package rotation

import (
	"testing"

	"github.com/barkeep/barkeep/internal/analyzer"
	"github.com/barkeep/barkeep/internal/config"
)

func barWithStates(states ...analyzer.SlotState) *analyzer.ActionBarState {
	bar := &analyzer.ActionBarState{}
	for i, s := range states {
		bar.Slots = append(bar.Slots, analyzer.SlotSnapshot{Index: i, State: s})
	}
	return bar
}

func slotItem(idx int) config.PriorityItem {
	return config.PriorityItem{Kind: config.PriorityItemSlot, SlotIndex: idx}
}

func evalConfig() *config.Config {
	return &config.Config{
		Keybinds: []string{"1", "2", "3", "4"},
	}
}

func TestEvaluatePriority_OrderIsPriority(t *testing.T) {
	cfg := evalConfig()
	profile := &config.PriorityProfile{
		PriorityItems: []config.PriorityItem{slotItem(0), slotItem(1), slotItem(2)},
	}

	// Slot 0 on cooldown, 1 and 2 ready: slot 1 wins by list position.
	bar := barWithStates(analyzer.StateOnCooldown, analyzer.StateReady, analyzer.StateReady)
	c := EvaluatePriority(bar, nil, profile, cfg)
	if c == nil || c.Keybind != "2" {
		t.Fatalf("candidate = %+v, want keybind 2", c)
	}
	if c.SlotIndex == nil || *c.SlotIndex != 1 {
		t.Error("candidate must carry its slot index")
	}
}

func TestEvaluatePriority_NothingEligible(t *testing.T) {
	cfg := evalConfig()
	profile := &config.PriorityProfile{
		PriorityItems: []config.PriorityItem{slotItem(0), slotItem(1)},
	}
	bar := barWithStates(analyzer.StateOnCooldown, analyzer.StateGcd)
	if c := EvaluatePriority(bar, nil, profile, cfg); c != nil {
		t.Errorf("candidate = %+v, want nil", c)
	}
}

func TestEvaluatePriority_BlankKeybindSkipped(t *testing.T) {
	cfg := evalConfig()
	cfg.Keybinds = []string{"", "2"}
	profile := &config.PriorityProfile{
		PriorityItems: []config.PriorityItem{slotItem(0), slotItem(1)},
	}
	// Slot 0 is ready but unbound: falls through to slot 1.
	bar := barWithStates(analyzer.StateReady, analyzer.StateReady)
	c := EvaluatePriority(bar, nil, profile, cfg)
	if c == nil || c.Keybind != "2" {
		t.Fatalf("candidate = %+v, want fallthrough to keybind 2", c)
	}
}

func TestEvaluatePriority_BuffGatedSlot(t *testing.T) {
	cfg := evalConfig()
	item := slotItem(0)
	item.ReadySource = config.ReadySourceBuff
	item.BuffROIID = "burst"
	profile := &config.PriorityProfile{PriorityItems: []config.PriorityItem{item}}

	// Slot state is irrelevant; the buff decides.
	bar := barWithStates(analyzer.StateOnCooldown)

	buffs := analyzer.BuffState{"burst": {Present: false}}
	if c := EvaluatePriority(bar, buffs, profile, cfg); c != nil {
		t.Errorf("buff absent but candidate = %+v", c)
	}

	buffs["burst"] = analyzer.BuffStatus{Present: true}
	c := EvaluatePriority(bar, buffs, profile, cfg)
	if c == nil || c.Keybind != "1" {
		t.Fatalf("buff present but candidate = %+v", c)
	}
}

func TestEvaluatePriority_ManualItemInList(t *testing.T) {
	cfg := evalConfig()
	profile := &config.PriorityProfile{
		PriorityItems: []config.PriorityItem{
			{Kind: config.PriorityItemManual, ActionID: "potion"},
			slotItem(0),
		},
		ManualActions: []config.ManualAction{
			{ID: "potion", Keybind: "g", Enabled: true},
		},
	}
	bar := barWithStates(analyzer.StateReady)

	c := EvaluatePriority(bar, nil, profile, cfg)
	if c == nil || c.Keybind != "g" || c.ActionID != "potion" {
		t.Fatalf("candidate = %+v, want the manual action first", c)
	}

	// Disabled action falls through to the slot.
	profile.ManualActions[0].Enabled = false
	c = EvaluatePriority(bar, nil, profile, cfg)
	if c == nil || c.Keybind != "1" {
		t.Fatalf("candidate = %+v, want slot fallthrough", c)
	}
}

func TestEvaluatePriority_AutoFireManualActions(t *testing.T) {
	cfg := evalConfig()
	profile := &config.PriorityProfile{
		ManualActions: []config.ManualAction{
			{ID: "potion", Keybind: "g", Enabled: true},
		},
	}
	bar := barWithStates(analyzer.StateOnCooldown)

	// Off by default: manual actions outside the list never auto-fire.
	if c := EvaluatePriority(bar, nil, profile, cfg); c != nil {
		t.Errorf("auto-fire off but candidate = %+v", c)
	}

	cfg.AutoFireManualActions = true
	c := EvaluatePriority(bar, nil, profile, cfg)
	if c == nil || c.ActionID != "potion" {
		t.Fatalf("auto-fire on but candidate = %+v", c)
	}
}

func TestEvaluatePriority_AutoFireSkipsListedActions(t *testing.T) {
	cfg := evalConfig()
	cfg.AutoFireManualActions = true
	profile := &config.PriorityProfile{
		PriorityItems: []config.PriorityItem{
			{Kind: config.PriorityItemManual, ActionID: "potion", ReadySource: config.ReadySourceBuff, BuffROIID: "low"},
		},
		ManualActions: []config.ManualAction{
			{ID: "potion", Keybind: "g", Enabled: true},
		},
	}
	bar := barWithStates()
	buffs := analyzer.BuffState{"low": {Present: false}}

	// The listed item is buff-gated and the buff is down; the auto-fire
	// fallback must not fire the same action unconditionally.
	if c := EvaluatePriority(bar, buffs, profile, cfg); c != nil {
		t.Errorf("listed manual action auto-fired: %+v", c)
	}
}

func TestEvaluatePriority_NilProfile(t *testing.T) {
	if c := EvaluatePriority(barWithStates(), nil, nil, evalConfig()); c != nil {
		t.Errorf("nil profile candidate = %+v", c)
	}
}
