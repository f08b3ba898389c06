//go:build windows

package main

import (
	"context"
	"fmt"

	"github.com/inkeliz/gowebview"

	"github.com/barkeep/barkeep/internal/config"
	"github.com/barkeep/barkeep/internal/utils"
)

// runDesktopWindow wraps the web UI in a native window. Closing the
// window shuts the whole process down via the caller's cancel.
func runDesktopWindow(ctx context.Context, cfg *config.Config) error {
	displayScale := utils.DisplayScale()

	width := cfg.UI.WindowWidth
	if width <= 0 {
		width = 1040
	}
	height := cfg.UI.WindowHeight
	if height <= 0 {
		height = 720
	}

	w, err := gowebview.New(&gowebview.Config{
		URL: fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
		WindowConfig: &gowebview.WindowConfig{
			Title: "Barkeep",
			Size: &gowebview.Point{
				X: int64(float64(width) * displayScale),
				Y: int64(float64(height) * displayScale),
			},
		},
	})
	if err != nil {
		if w != nil {
			w.Destroy()
		}
		return fmt.Errorf("error creating webview: %w", err)
	}

	w.SetSize(&gowebview.Point{
		X: int64(float64(width) * displayScale),
		Y: int64(float64(height) * displayScale),
	}, gowebview.HintNone)

	go func() {
		<-ctx.Done()
		w.Terminate()
	}()

	defer w.Destroy()
	w.Run()

	return nil
}
