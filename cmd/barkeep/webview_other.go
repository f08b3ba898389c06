//go:build !windows

package main

import (
	"context"

	"github.com/barkeep/barkeep/internal/config"
)

// The desktop window is Windows-only; elsewhere the web UI stays
// browser-based and this just waits for shutdown.
func runDesktopWindow(ctx context.Context, _ *config.Config) error {
	<-ctx.Done()
	return ctx.Err()
}
