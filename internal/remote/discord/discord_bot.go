package discord

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/barkeep/barkeep/internal/bot"
	"github.com/barkeep/barkeep/internal/config"
)

type Bot struct {
	discordSession *discordgo.Session
	channelID      string
	bot            *bot.Bot
}

func NewBot(token, channelID string, b *bot.Bot) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	return &Bot{
		discordSession: dg,
		channelID:      channelID,
		bot:            b,
	}, nil
}

func (b *Bot) Start(ctx context.Context) error {
	b.discordSession.AddHandler(b.onMessageCreated)
	b.discordSession.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	err := b.discordSession.Open()
	if err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	<-ctx.Done()

	return b.discordSession.Close()
}

func (b *Bot) onMessageCreated(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}

	if !slices.Contains(config.Get().Discord.BotAdmins, m.Author.ID) {
		return
	}

	if !strings.HasPrefix(m.Content, "!") {
		return
	}

	prefix := strings.Split(m.Content, " ")[0]
	switch prefix {
	case "!toggle":
		b.handleToggleRequest(s, m)
	case "!status":
		b.handleStatusRequest(s, m)
	case "!single":
		b.handleSingleFireRequest(s, m)
	case "!profile":
		b.handleProfileRequest(s, m)
	case "!profiles":
		b.handleProfilesRequest(s, m)
	case "!calibrate":
		b.handleCalibrateRequest(s, m)
	case "!help":
		b.handleHelpRequest(s, m)
	default:
		s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Unknown command: `%s`. Type `!help` for available commands.", prefix))
	}
}

func (b *Bot) handleToggleRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	enabled, err := b.bot.ToggleRotation()
	if err != nil {
		s.ChannelMessageSend(m.ChannelID, "Toggle failed: "+err.Error())
		return
	}
	if enabled {
		s.ChannelMessageSend(m.ChannelID, "Rotation **enabled**")
	} else {
		s.ChannelMessageSend(m.ChannelID, "Rotation **disabled**")
	}
}

func (b *Bot) handleSingleFireRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	b.bot.RequestSingleFire()
	s.ChannelMessageSend(m.ChannelID, "Armed for one press")
}

func (b *Bot) handleStatusRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	cfg := config.Get()

	var sb strings.Builder
	if cfg.AutomationEnabled {
		sb.WriteString("Rotation: **running**\n")
	} else {
		sb.WriteString("Rotation: **stopped**\n")
	}
	if p := cfg.ActiveProfile(); p != nil {
		fmt.Fprintf(&sb, "Profile: **%s**\n", p.Name)
	}

	tick := b.bot.LastTick()
	if tick == nil {
		sb.WriteString("No tick processed yet")
		s.ChannelMessageSend(m.ChannelID, sb.String())
		return
	}

	for _, slot := range tick.Bar.Slots {
		fmt.Fprintf(&sb, "`slot %d` %s\n", slot.Index, slot.State)
	}
	for id, buff := range tick.Buffs {
		if buff.Present {
			fmt.Fprintf(&sb, "buff `%s` up\n", id)
		}
	}

	s.ChannelMessageSend(m.ChannelID, sb.String())
}

func (b *Bot) handleProfileRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	parts := strings.Fields(m.Content)
	if len(parts) < 2 {
		s.ChannelMessageSend(m.ChannelID, "Usage: `!profile <id>`")
		return
	}
	if err := b.bot.SetActiveProfile(parts[1]); err != nil {
		s.ChannelMessageSend(m.ChannelID, err.Error())
		return
	}
	s.ChannelMessageSend(m.ChannelID, "Switched to profile `"+parts[1]+"`")
}

func (b *Bot) handleProfilesRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	cfg := config.Get()
	if len(cfg.PriorityProfiles) == 0 {
		s.ChannelMessageSend(m.ChannelID, "No priority profiles configured")
		return
	}

	var sb strings.Builder
	for _, p := range cfg.PriorityProfiles {
		marker := ""
		if strings.EqualFold(p.ID, cfg.ActivePriorityProfileID) {
			marker = " (active)"
		}
		fmt.Fprintf(&sb, "`%s` %s%s\n", p.ID, p.Name, marker)
	}
	s.ChannelMessageSend(m.ChannelID, sb.String())
}

func (b *Bot) handleCalibrateRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	if err := b.bot.CalibrateAll(); err != nil {
		s.ChannelMessageSend(m.ChannelID, "Calibration failed: "+err.Error())
		return
	}
	s.ChannelMessageSend(m.ChannelID, "Calibration finished")
}

func (b *Bot) handleHelpRequest(s *discordgo.Session, m *discordgo.MessageCreate) {
	help := "Available commands:\n" +
		"`!toggle` - start/stop the rotation\n" +
		"`!single` - arm a single-fire press\n" +
		"`!status` - current bar and buff state\n" +
		"`!profile <id>` - switch priority profile\n" +
		"`!profiles` - list priority profiles\n" +
		"`!calibrate` - recalibrate all slots\n" +
		"`!help` - this message"
	s.ChannelMessageSend(m.ChannelID, help)
}
