package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	sloggger "github.com/barkeep/barkeep/cmd/barkeep/log"
	"github.com/barkeep/barkeep/internal/analyzer"
	"github.com/barkeep/barkeep/internal/bot"
	"github.com/barkeep/barkeep/internal/capture"
	"github.com/barkeep/barkeep/internal/config"
	"github.com/barkeep/barkeep/internal/event"
	"github.com/barkeep/barkeep/internal/input"
	"github.com/barkeep/barkeep/internal/remote/discord"
	"github.com/barkeep/barkeep/internal/remote/telegram"
	"github.com/barkeep/barkeep/internal/rotation"
	"github.com/barkeep/barkeep/internal/server"
	"github.com/barkeep/barkeep/internal/utils"
)

var (
	buildID   string
	buildTime string
)

// wrapWithRecover wraps a function with panic recovery logic
func wrapWithRecover(logger *slog.Logger, f func() error) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := debug.Stack()
				errMsg := fmt.Sprintf("panic recovered: %v\nStacktrace: %s", r, stackTrace)
				logger.Error(errMsg)
				sloggger.FlushLog()
			}
		}()
		return f()
	}
}

func main() {
	_ = buildID
	_ = buildTime

	err := config.Load()
	if err != nil {
		utils.ShowDialog("Error loading configuration", err.Error())
		log.Fatalf("Error loading configuration: %s", err.Error())
		return
	}
	cfg := config.Get()

	logger, err := sloggger.NewLogger(cfg.Debug.Log, cfg.LogSaveDirectory)
	if err != nil {
		log.Fatalf("Error starting logger: %s", err.Error())
	}
	defer sloggger.FlushAndClose()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fatal error detected, barkeep will close with the following error: %v\n Stacktrace: %s", r, debug.Stack())
			logger.Error(err.Error())
			sloggger.FlushAndClose()
			utils.ShowDialog("Barkeep error :(", fmt.Sprintf("Barkeep will close due to an unexpected error, please check the latest log file for more info!\n %s", err.Error()))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	utils.SetDPIAware() // capture coordinates must be physical pixels

	eventListener := event.NewListener(logger)

	backend := capture.NewBackend()
	an := analyzer.New(logger)
	if err := an.LoadBaselines(cfg.SlotBaselines); err != nil {
		logger.Warn("Some slot baselines could not be decoded, recalibrate", slog.Any("error", err))
	}

	sender, err := input.NewSender()
	if err != nil {
		log.Fatalf("Error initializing key sender: %s", err.Error())
	}

	gate := rotation.NewGate(logger, sender, input.Focus{})
	queue := rotation.NewSpellQueue()
	barkeepBot := bot.New(logger, backend, an, gate, queue, eventListener)

	srv, err := server.New(logger, barkeepBot, eventListener)
	if err != nil {
		log.Fatalf("Error starting local server: %s", err.Error())
	}

	hook := input.NewHook(logger, barkeepBot.HandlePress)

	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()
		return barkeepBot.Run(ctx)
	}))

	g.Go(wrapWithRecover(logger, func() error {
		return hook.Run(ctx)
	}))

	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()
		return srv.Listen(ctx, cfg.Server.Port)
	}))

	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()
		return eventListener.Listen(ctx)
	}))

	if cfg.Discord.Enabled {
		discordBot, err := discord.NewBot(cfg.Discord.Token, cfg.Discord.ChannelID, barkeepBot)
		if err != nil {
			logger.Error("Discord could not been initialized", slog.Any("error", err))
			return
		}

		eventListener.Register(discordBot.Handle)
		g.Go(wrapWithRecover(logger, func() error {
			return discordBot.Start(ctx)
		}))
	}

	if cfg.Telegram.Enabled {
		telegramBot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID, logger, barkeepBot)
		if err != nil {
			logger.Error("Telegram could not been initialized", slog.Any("error", err))
			return
		}

		eventListener.Register(telegramBot.Handle)
		g.Go(wrapWithRecover(logger, func() error {
			return telegramBot.Start(ctx)
		}))
	}

	if cfg.UI.DesktopWindow {
		g.Go(wrapWithRecover(logger, func() error {
			defer cancel()
			return runDesktopWindow(ctx, cfg)
		}))
	}

	g.Go(wrapWithRecover(logger, func() error {
		<-ctx.Done()
		logger.Info("Barkeep shutting down...")
		if err := srv.Stop(); err != nil {
			logger.Error("error stopping local server", slog.Any("error", err))
			return err
		}
		return nil
	}))

	if err := g.Wait(); err != nil && err != context.Canceled {
		cancel()
		logger.Error("Error running barkeep", slog.Any("error", err))
		return
	}

	sloggger.FlushAndClose()
}
