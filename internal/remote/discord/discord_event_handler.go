package discord

import (
	"context"
	"fmt"

	"github.com/barkeep/barkeep/internal/event"
)

// Handle publishes lifecycle events to the configured channel. Tick
// events are deliberately not forwarded; at 30 Hz they would be noise
// and rate-limit bait.
func (b *Bot) Handle(ctx context.Context, e event.Event) error {
	if !b.shouldPublish(e) {
		return nil
	}

	switch evt := e.(type) {
	case event.RotationToggled:
		state := "stopped"
		if evt.Enabled {
			state = "running"
		}
		return b.sendEventMessage(fmt.Sprintf("Rotation **%s** (profile: %s)", state, evt.ProfileName))
	case event.ProfileSwitched:
		return b.sendEventMessage(fmt.Sprintf("Switched to profile **%s**", evt.ProfileName))
	case event.CalibrationFinished:
		if evt.OK {
			return b.sendEventMessage("Calibration finished: " + evt.Message())
		}
		return b.sendEventMessage("Calibration **failed**: " + evt.Detail)
	case event.SendFailed:
		return b.sendEventMessage(fmt.Sprintf("Key send failed for `%s`: %s", evt.Keybind, evt.Err))
	}

	return nil
}

func (b *Bot) sendEventMessage(message string) error {
	_, err := b.discordSession.ChannelMessageSend(b.channelID, message)
	return err
}

func (b *Bot) shouldPublish(e event.Event) bool {
	switch e.(type) {
	case event.RotationToggled, event.ProfileSwitched, event.CalibrationFinished, event.SendFailed:
		return true
	}

	return false
}
