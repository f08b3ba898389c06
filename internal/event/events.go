// Package event carries immutable tick-result and lifecycle events from
// the tick loop to the presentation side (web UI, remote notifiers).
// Delivery is FIFO and never blocks the producer.
package event

import (
	"time"

	"github.com/barkeep/barkeep/internal/analyzer"
	"github.com/barkeep/barkeep/internal/rotation"
)

type Event interface {
	Message() string
	OccurredAt() time.Time
}

type BaseEvent struct {
	message    string
	occurredAt time.Time
}

func (b BaseEvent) Message() string {
	return b.message
}

func (b BaseEvent) OccurredAt() time.Time {
	return b.occurredAt
}

func Text(message string) BaseEvent {
	return BaseEvent{message: message, occurredAt: time.Now()}
}

// TickProcessed is emitted once per successful tick with everything the
// UI needs to render the bar, buffs and the gate's decision.
type TickProcessed struct {
	BaseEvent
	Bar      analyzer.ActionBarState `json:"bar"`
	Buffs    analyzer.BuffState      `json:"buffs"`
	Cast     analyzer.CastStatus     `json:"cast"`
	Decision *rotation.Decision      `json:"decision,omitempty"`
	Queued   *rotation.QueueEntry    `json:"queued,omitempty"`
}

// TickFailed is emitted when capture or analysis aborted a tick; the
// previous bar state remains last-known-good.
type TickFailed struct {
	BaseEvent
	Err string `json:"error"`
}

type RotationToggled struct {
	BaseEvent
	Enabled     bool   `json:"enabled"`
	ProfileName string `json:"profile_name"`
}

type ProfileSwitched struct {
	BaseEvent
	ProfileID   string `json:"profile_id"`
	ProfileName string `json:"profile_name"`
}

type SendFailed struct {
	BaseEvent
	Keybind string `json:"keybind"`
	Err     string `json:"error"`
}

type CalibrationFinished struct {
	BaseEvent
	Kind   string `json:"kind"` // "all", "slot", "buff"
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}
