// Package telegram mirrors the discord notifier over the Telegram bot
// API: lifecycle events out, a small command set in.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/barkeep/barkeep/internal/bot"
	"github.com/barkeep/barkeep/internal/config"
	"github.com/barkeep/barkeep/internal/event"
)

type Bot struct {
	api    *tgbotapi.BotAPI
	chatID int64
	bot    *bot.Bot
	logger *slog.Logger
}

func NewBot(token string, chatID int64, logger *slog.Logger, b *bot.Bot) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating Telegram bot: %w", err)
	}

	return &Bot{
		api:    api,
		chatID: chatID,
		bot:    b,
		logger: logger,
	}, nil
}

func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil || update.Message.Chat.ID != b.chatID {
				continue
			}
			b.handleCommand(update.Message.Text)
		}
	}
}

func (b *Bot) handleCommand(text string) {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "/toggle":
		enabled, err := b.bot.ToggleRotation()
		if err != nil {
			b.send("Toggle failed: " + err.Error())
			return
		}
		if enabled {
			b.send("Rotation enabled")
		} else {
			b.send("Rotation disabled")
		}
	case "/single":
		b.bot.RequestSingleFire()
		b.send("Armed for one press")
	case "/status":
		b.send(b.statusText())
	case "/profile":
		if len(parts) < 2 {
			b.send("Usage: /profile <id>")
			return
		}
		if err := b.bot.SetActiveProfile(parts[1]); err != nil {
			b.send(err.Error())
			return
		}
		b.send("Switched to profile " + parts[1])
	case "/calibrate":
		if err := b.bot.CalibrateAll(); err != nil {
			b.send("Calibration failed: " + err.Error())
			return
		}
		b.send("Calibration finished")
	case "/help":
		b.send("Commands: /toggle /single /status /profile <id> /calibrate /help")
	}
}

func (b *Bot) statusText() string {
	cfg := config.Get()

	var sb strings.Builder
	if cfg.AutomationEnabled {
		sb.WriteString("Rotation: running\n")
	} else {
		sb.WriteString("Rotation: stopped\n")
	}
	if p := cfg.ActiveProfile(); p != nil {
		fmt.Fprintf(&sb, "Profile: %s\n", p.Name)
	}

	tick := b.bot.LastTick()
	if tick == nil {
		sb.WriteString("No tick processed yet")
		return sb.String()
	}

	for _, slot := range tick.Bar.Slots {
		fmt.Fprintf(&sb, "slot %d: %s\n", slot.Index, slot.State)
	}
	return sb.String()
}

// Handle forwards lifecycle events; tick events are skipped.
func (b *Bot) Handle(ctx context.Context, e event.Event) error {
	switch evt := e.(type) {
	case event.RotationToggled:
		state := "stopped"
		if evt.Enabled {
			state = "running"
		}
		return b.sendErr(fmt.Sprintf("Rotation %s (profile: %s)", state, evt.ProfileName))
	case event.ProfileSwitched:
		return b.sendErr("Switched to profile " + evt.ProfileName)
	case event.CalibrationFinished:
		if evt.OK {
			return b.sendErr("Calibration finished: " + evt.Message())
		}
		return b.sendErr("Calibration failed: " + evt.Detail)
	case event.SendFailed:
		return b.sendErr(fmt.Sprintf("Key send failed for %s: %s", evt.Keybind, evt.Err))
	}
	return nil
}

func (b *Bot) send(message string) {
	if err := b.sendErr(message); err != nil {
		b.logger.Error("Sending Telegram message", slog.Any("error", err))
	}
}

func (b *Bot) sendErr(message string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(b.chatID, message))
	return err
}
