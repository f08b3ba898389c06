// Package bot runs the capture/analyze/decide loop at the configured
// polling rate and owns the wiring between the analyzer, the rotation
// gate and the event bus.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/barkeep/barkeep/internal/analyzer"
	"github.com/barkeep/barkeep/internal/capture"
	"github.com/barkeep/barkeep/internal/config"
	"github.com/barkeep/barkeep/internal/event"
	"github.com/barkeep/barkeep/internal/rotation"
)

type Bot struct {
	logger   *slog.Logger
	backend  capture.Backend
	analyzer *analyzer.Analyzer
	gate     *rotation.Gate
	queue    *rotation.SpellQueue
	events   *event.Listener

	lastTick atomic.Pointer[event.TickProcessed]

	captureMu   sync.Mutex
	captureBind func(string)
}

func New(logger *slog.Logger, backend capture.Backend, an *analyzer.Analyzer, gate *rotation.Gate, queue *rotation.SpellQueue, events *event.Listener) *Bot {
	return &Bot{
		logger:   logger,
		backend:  backend,
		analyzer: an,
		gate:     gate,
		queue:    queue,
		events:   events,
	}
}

// Run ticks at the configured polling rate until the context is done.
// The rate is re-read every tick so a config change takes effect without
// a restart.
func (b *Bot) Run(ctx context.Context) error {
	hz := config.Get().PollingHz
	ticker := time.NewTicker(pollInterval(hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			b.tick(now)
			if newHz := config.Get().PollingHz; newHz != hz {
				hz = newHz
				ticker.Reset(pollInterval(hz))
			}
		}
	}
}

func pollInterval(hz int) time.Duration {
	if hz < 5 {
		hz = 5
	}
	if hz > 240 {
		hz = 240
	}
	return time.Second / time.Duration(hz)
}

// tick runs one full capture → analyze → gate pass. Any failure aborts
// the tick without partial state commit; the previous tick result stays
// last-known-good.
func (b *Bot) tick(now time.Time) {
	cfg := config.Get()

	frame, ox, oy, err := b.grabUnion(cfg)
	if err != nil {
		b.logger.Warn("Tick skipped", slog.Any("error", err))
		b.events.Emit(event.TickFailed{BaseEvent: event.Text("tick failed"), Err: err.Error()})
		return
	}

	// The queue snapshot is taken once, before evaluation, so a mid-tick
	// push can neither be consumed twice nor lost.
	queued := b.queue.Snapshot(now)

	bar, buffs, cast := b.analyzer.Analyze(frame, cfg, ox, oy, now)

	decision, sendErr := b.gate.EvaluateAndSend(now, &bar, buffs, cast, cfg, cfg.ActiveProfile(), queued, func() {
		b.queue.Consume(queued)
	})
	if sendErr != nil {
		keybind := ""
		if queued != nil {
			keybind = queued.Key
		}
		b.events.Emit(event.SendFailed{BaseEvent: event.Text("key send failed"), Keybind: keybind, Err: sendErr.Error()})
	}

	if decision != nil && decision.Action == rotation.ActionSent {
		slot := -1
		if decision.SlotIndex != nil {
			slot = *decision.SlotIndex
		}
		b.analyzer.NoteKeyPress(slot, now)
	}

	result := event.TickProcessed{
		BaseEvent: event.Text("tick"),
		Bar:       bar,
		Buffs:     buffs,
		Cast:      cast,
		Decision:  decision,
		Queued:    queued,
	}
	b.lastTick.Store(&result)
	b.events.Emit(result)
}

func (b *Bot) grabUnion(cfg *config.Config) (*capture.Frame, int, int, error) {
	bounds, err := b.backend.Bounds(cfg.MonitorIndex)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("resolving monitor bounds: %w", err)
	}
	union, ox, oy, err := analyzer.CaptureUnion(cfg, bounds)
	if err != nil {
		return nil, 0, 0, err
	}
	frame, err := b.backend.Grab(union)
	if err != nil {
		return nil, 0, 0, err
	}
	return frame, ox, oy, nil
}

// LastTick returns the most recent successful tick result, nil before
// the first one.
func (b *Bot) LastTick() *event.TickProcessed {
	return b.lastTick.Load()
}
