package bot

import (
	"context"
	"fmt"
	"strconv"

	"lbclottery/bot/features/lottery"
	"lbclottery/domain/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token            string
	GuildID          string
	LotteryChannelID string
}

// Bot manages the Discord session and the lottery feature
type Bot struct {
	config  Config
	session *discordgo.Session
	ledger  lottery.Ledger
	lottery *lottery.Feature
}

// New creates a new bot instance, opens the gateway and registers slash commands
func New(config Config, ledger lottery.Ledger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	bot := &Bot{
		config:  config,
		session: dg,
		ledger:  ledger,
		lottery: lottery.NewFeature(dg, ledger),
	}

	dg.AddHandler(bot.handleCommands)
	dg.AddHandler(bot.handleGuildCreate)

	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	return bot, nil
}

// NotifyRoundEnded posts the round end announcement to the lottery channel
func (b *Bot) NotifyRoundEnded(ctx context.Context, event events.RoundEndedEvent) error {
	return b.lottery.PostRoundEnded(ctx, b.config.LotteryChannelID, event)
}

// Close gracefully shuts down the bot
func (b *Bot) Close() error {
	return b.session.Close()
}

// handleCommands routes slash commands to appropriate handlers
func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case lottery.CommandName:
		b.lottery.HandleCommand(s, i)
	case lottery.AdminCommandName:
		b.lottery.HandleAdminCommand(s, i)
	}
}

// handleGuildCreate opens a ledger for every guild the bot joins
func (b *Bot) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	guildID, err := strconv.ParseInt(g.ID, 10, 64)
	if err != nil {
		log.Errorf("Failed to parse guild ID %s: %v", g.ID, err)
		return
	}

	state, err := b.ledger.EnsureLedger(context.Background(), guildID)
	if err != nil {
		log.WithFields(log.Fields{
			"guild_id": guildID,
			"error":    err,
		}).Error("Failed to ensure lottery ledger")
		return
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"round":    state.Round,
	}).Info("Lottery ledger ready")
}
