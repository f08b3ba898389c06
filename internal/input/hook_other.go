//go:build !windows

package input

import (
	"context"
	"log/slog"
)

// Hook is a no-op outside Windows: the spell queue and global hotkeys
// need a low-level input hook that only the Windows build provides.
type Hook struct {
	logger *slog.Logger
}

func NewHook(logger *slog.Logger, _ func(bind string)) *Hook {
	return &Hook{logger: logger}
}

func (h *Hook) Run(ctx context.Context) error {
	h.logger.Warn("Global input hook unavailable on this platform; spell queue and hotkeys disabled")
	<-ctx.Done()
	return ctx.Err()
}
