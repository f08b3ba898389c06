package rotation

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/barkeep/barkeep/internal/analyzer"
	"github.com/barkeep/barkeep/internal/config"
)

// Sender injects a keybind into the system. Failures are reported, never
// retried here.
type Sender interface {
	Send(keybind string) error
}

// FocusChecker reports whether keys may be sent right now. An empty
// target title always passes.
type FocusChecker interface {
	TargetWindowActive(title string) bool
}

type DecisionAction string

const (
	ActionSent    DecisionAction = "sent"
	ActionBlocked DecisionAction = "blocked"
)

// Decision is the gate's per-tick output record, carrying everything the
// UI needs to render without re-deriving state.
type Decision struct {
	Keybind    string         `json:"keybind"`
	Action     DecisionAction `json:"action"`
	Reason     string         `json:"reason,omitempty"` // "window" or "casting"
	Timestamp  time.Time      `json:"timestamp"`
	SlotIndex  *int           `json:"slot_index,omitempty"`
	ActionID   string         `json:"action_id,omitempty"`
	Queued     bool           `json:"queued,omitempty"`
	CastEndsAt *time.Time     `json:"cast_ends_at,omitempty"`
}

// Gate applies min-interval, focus, cast-block and spell-queue gating
// around the priority evaluator and owns the only mutable rotation
// state: the last send time and the single-fire request.
type Gate struct {
	logger *slog.Logger
	sender Sender
	focus  FocusChecker

	lastSendTime time.Time
	singleFire   atomic.Bool
}

func NewGate(logger *slog.Logger, sender Sender, focus FocusChecker) *Gate {
	return &Gate{logger: logger, sender: sender, focus: focus}
}

// RequestSingleFire arms a one-shot pass through the gate even while
// automation is disabled. Safe to call from the hotkey goroutine.
func (g *Gate) RequestSingleFire() {
	g.singleFire.Store(true)
}

// ResetOnToggle drops a pending single-fire request. Called when
// automation is toggled so a stale arm cannot fire under the new mode.
func (g *Gate) ResetOnToggle() {
	g.singleFire.Store(false)
}

// EvaluateAndSend runs one tick of the rotation. Returns the decision
// record (nil when nothing happened) and a non-nil error only for key
// injection failures, which leave the gate's state untouched so the next
// tick naturally retries.
func (g *Gate) EvaluateAndSend(
	now time.Time,
	bar *analyzer.ActionBarState,
	buffs analyzer.BuffState,
	cast analyzer.CastStatus,
	cfg *config.Config,
	profile *config.PriorityProfile,
	queued *QueueEntry,
	onQueuedSent func(),
) (*Decision, error) {
	singleFire := g.singleFire.Load()
	if !cfg.AutomationEnabled && !singleFire {
		return nil, nil
	}

	minInterval := time.Duration(cfg.MinPressIntervalMS) * time.Millisecond
	minIntervalOK := now.Sub(g.lastSendTime) >= minInterval
	windowOK := g.focus.TargetWindowActive(cfg.TargetWindowTitle)

	if queued != nil {
		return g.handleQueued(now, bar, queued, minIntervalOK, windowOK, onQueuedSent)
	}

	if !minIntervalOK {
		return nil, nil
	}

	candidate := EvaluatePriority(bar, buffs, profile, cfg)
	if candidate == nil {
		return nil, nil
	}

	if cast.Active() && !cfg.AllowCastWhileCasting {
		return &Decision{
			Keybind:    candidate.Keybind,
			Action:     ActionBlocked,
			Reason:     "casting",
			Timestamp:  now,
			SlotIndex:  candidate.SlotIndex,
			ActionID:   candidate.ActionID,
			CastEndsAt: cast.EndsAt,
		}, nil
	}

	if !windowOK {
		// last_send_time stays put so the candidate is retried next tick.
		return &Decision{
			Keybind:   candidate.Keybind,
			Action:    ActionBlocked,
			Reason:    "window",
			Timestamp: now,
			SlotIndex: candidate.SlotIndex,
			ActionID:  candidate.ActionID,
		}, nil
	}

	if err := g.sender.Send(candidate.Keybind); err != nil {
		g.logger.Warn("Key send failed", slog.String("keybind", candidate.Keybind), slog.Any("error", err))
		return nil, err
	}

	g.lastSendTime = now
	g.consumeSingleFire(singleFire)
	g.logger.Info("Sent key", slog.String("keybind", candidate.Keybind))
	return &Decision{
		Keybind:   candidate.Keybind,
		Action:    ActionSent,
		Timestamp: now,
		SlotIndex: candidate.SlotIndex,
		ActionID:  candidate.ActionID,
	}, nil
}

// handleQueued services the queue snapshot ahead of the priority list.
// An ineligible entry produces no action this tick but stays queued for
// the next, until its own timeout clears it.
func (g *Gate) handleQueued(now time.Time, bar *analyzer.ActionBarState, queued *QueueEntry, minIntervalOK, windowOK bool, onQueuedSent func()) (*Decision, error) {
	if queued.Key == "" {
		return nil, nil
	}

	switch queued.Source {
	case QueueTracked:
		if queued.SlotIndex == nil {
			return nil, nil
		}
		slot := bar.Slot(*queued.SlotIndex)
		if slot == nil || slot.State != analyzer.StateReady {
			return nil, nil
		}
	case QueueWhitelist:
		// Whitelisted keys send regardless of slot state.
	default:
		return nil, nil
	}

	if !minIntervalOK || !windowOK {
		return nil, nil
	}

	if err := g.sender.Send(queued.Key); err != nil {
		g.logger.Warn("Queued key send failed", slog.String("keybind", queued.Key), slog.Any("error", err))
		return nil, err
	}

	g.lastSendTime = now
	g.consumeSingleFire(g.singleFire.Load())
	if onQueuedSent != nil {
		onQueuedSent()
	}
	g.logger.Info("Sent queued key", slog.String("keybind", queued.Key))
	return &Decision{
		Keybind:   queued.Key,
		Action:    ActionSent,
		Timestamp: now,
		SlotIndex: queued.SlotIndex,
		Queued:    true,
	}, nil
}

func (g *Gate) consumeSingleFire(wasArmed bool) {
	if wasArmed {
		g.singleFire.Store(false)
	}
}
