// Package analyzer turns captured action-bar frames into debounced
// per-slot readiness states, cast-bar progress and buff presence.
package analyzer

import "time"

type SlotState string

const (
	StateUnknown    SlotState = "unknown"
	StateReady      SlotState = "ready"
	StateOnCooldown SlotState = "on_cooldown"
	StateGcd        SlotState = "gcd"
	StateCasting    SlotState = "casting"
	StateChanneling SlotState = "channeling"
	StateLocked     SlotState = "locked"
)

// GlowSignal is one ring color's verdict for a slot on one tick.
type GlowSignal struct {
	Candidate bool    `json:"candidate"`
	Fraction  float64 `json:"fraction"`
	Ready     bool    `json:"ready"`
}

// SlotSnapshot is a single slot's state for one tick. Snapshots are
// immutable once produced.
type SlotSnapshot struct {
	Index      int       `json:"index"`
	State      SlotState `json:"state"`
	Brightness float64   `json:"brightness"`

	CooldownRemaining *float64 `json:"cooldown_remaining,omitempty"` // seconds

	CastProgress      *float64   `json:"cast_progress,omitempty"`
	CastEndsAt        *time.Time `json:"cast_ends_at,omitempty"`
	LastCastStartAt   *time.Time `json:"last_cast_start_at,omitempty"`
	LastCastSuccessAt *time.Time `json:"last_cast_success_at,omitempty"`

	YellowGlow GlowSignal `json:"yellow_glow"`
	RedGlow    GlowSignal `json:"red_glow"`
}

// ActionBarState is the full bar for one tick.
type ActionBarState struct {
	Slots     []SlotSnapshot `json:"slots"`
	Timestamp time.Time      `json:"timestamp"`
}

// Slot returns the snapshot with the given index, nil when absent.
func (s *ActionBarState) Slot(index int) *SlotSnapshot {
	for i := range s.Slots {
		if s.Slots[i].Index == index {
			return &s.Slots[i]
		}
	}
	return nil
}

// BuffStatus is one ROI's verdict for a tick.
type BuffStatus struct {
	Present    bool       `json:"present"`
	Similarity float64    `json:"similarity"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// BuffState maps ROI id (lowercased) to its status.
type BuffState map[string]BuffStatus

// Present reports whether a ROI id currently matches its template.
func (b BuffState) Present(id string) bool {
	return b[normalizeID(id)].Present
}

// CastPhase is the cast-bar detector's lifecycle position.
type CastPhase string

const (
	CastOff     CastPhase = "off"
	CastPriming CastPhase = "priming"
	CastActive  CastPhase = "active"
)

// CastStatus is the cast detector's public output for a tick. SlotIndex
// is nil when the active cast could not be attributed to a press.
type CastStatus struct {
	Phase      CastPhase  `json:"phase"`
	Channeling bool       `json:"channeling"`
	Progress   float64    `json:"progress"`
	StartedAt  time.Time  `json:"started_at,omitempty"`
	EndsAt     *time.Time `json:"ends_at,omitempty"`
	SlotIndex  *int       `json:"slot_index,omitempty"`

	// Diagnostics surfaced for the UI.
	Motion      float64 `json:"motion"`
	FrontEdge   float64 `json:"front_edge"`
	Directional bool    `json:"directional"`
	Gate        string  `json:"gate,omitempty"`
}

// Active reports whether a cast or channel is currently in flight.
func (c CastStatus) Active() bool {
	return c.Phase == CastActive
}
