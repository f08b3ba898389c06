package server

import (
	"github.com/barkeep/barkeep/internal/analyzer"
	"github.com/barkeep/barkeep/internal/config"
	"github.com/barkeep/barkeep/internal/rotation"
)

// IndexData is the payload behind both the status page and /api/status.
type IndexData struct {
	AutomationEnabled bool                     `json:"automation_enabled"`
	ActiveProfile     string                   `json:"active_profile"`
	Profiles          []ProfileSummary         `json:"profiles"`
	Slots             []analyzer.SlotSnapshot  `json:"slots"`
	Buffs             analyzer.BuffState       `json:"buffs"`
	Cast              analyzer.CastStatus      `json:"cast"`
	LastDecision      *rotation.Decision       `json:"last_decision,omitempty"`
	Queued            *rotation.QueueEntry     `json:"queued,omitempty"`
	Keybinds          []string                 `json:"keybinds"`
	BuffROIs          []config.BuffROI         `json:"buff_rois"`
	CalibratedSlots   int                      `json:"calibrated_slots"`
	OverwrittenSlots  []int                    `json:"overwritten_slots"`
}

type ProfileSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ToggleBind     string `json:"toggle_bind"`
	SingleFireBind string `json:"single_fire_bind"`
	Active         bool   `json:"active"`
}

func (s *HttpServer) getStatusData() IndexData {
	cfg := config.Get()

	data := IndexData{
		AutomationEnabled: cfg.AutomationEnabled,
		Keybinds:          cfg.Keybinds,
		BuffROIs:          cfg.BuffROIs,
		CalibratedSlots:   len(cfg.SlotBaselines),
		OverwrittenSlots:  cfg.OverwrittenBaselineSlots,
	}

	if p := cfg.ActiveProfile(); p != nil {
		data.ActiveProfile = p.ID
	}
	for _, p := range cfg.PriorityProfiles {
		data.Profiles = append(data.Profiles, ProfileSummary{
			ID:             p.ID,
			Name:           p.Name,
			ToggleBind:     p.ToggleBind,
			SingleFireBind: p.SingleFireBind,
			Active:         p.ID == data.ActiveProfile,
		})
	}

	if tick := s.bot.LastTick(); tick != nil {
		data.Slots = tick.Bar.Slots
		data.Buffs = tick.Buffs
		data.Cast = tick.Cast
		data.LastDecision = tick.Decision
		data.Queued = tick.Queued
	}

	return data
}
