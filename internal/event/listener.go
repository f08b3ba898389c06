package event

import (
	"context"
	"log/slog"
	"sync"
)

type Handler func(ctx context.Context, e Event) error

// Listener fans events out to registered handlers on its own goroutine.
// Emit never blocks the tick loop: when the buffer is full the event is
// dropped and counted.
type Listener struct {
	logger   *slog.Logger
	mu       sync.RWMutex
	handlers []Handler
	events   chan Event
	dropped  int
}

func NewListener(logger *slog.Logger) *Listener {
	return &Listener{
		logger: logger,
		events: make(chan Event, 256),
	}
}

func (l *Listener) Register(h Handler) {
	l.mu.Lock()
	l.handlers = append(l.handlers, h)
	l.mu.Unlock()
}

func (l *Listener) Emit(e Event) {
	select {
	case l.events <- e:
	default:
		l.mu.Lock()
		l.dropped++
		n := l.dropped
		l.mu.Unlock()
		if n%100 == 1 {
			l.logger.Warn("Event buffer full, dropping events", slog.Int("dropped", n))
		}
	}
}

// Listen dispatches events in FIFO order until the context is done.
func (l *Listener) Listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-l.events:
			l.mu.RLock()
			handlers := l.handlers
			l.mu.RUnlock()
			for _, h := range handlers {
				if err := h(ctx, e); err != nil {
					l.logger.Error("Error running event handler", slog.Any("error", err))
				}
			}
		}
	}
}
