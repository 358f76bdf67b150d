package lottery

import (
	"bytes"
	"context"
	"fmt"

	"lbclottery/application"
	"lbclottery/bot/common"
	"lbclottery/domain/entities"
	"lbclottery/domain/events"
	"lbclottery/domain/interfaces"
	"lbclottery/domain/services"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Ledger is the subset of ledger operations the lottery commands drive
type Ledger interface {
	EnsureLedger(ctx context.Context, guildID int64) (*entities.LedgerState, error)
	GetSummary(ctx context.Context, guildID int64) (*entities.LedgerSummary, error)
	ListEvents(ctx context.Context, guildID int64, limit int) ([]*entities.LedgerEvent, error)
	GetAccount(ctx context.Context, guildID, account int64) (*application.AccountInfo, error)
	Approve(ctx context.Context, guildID, owner, amount int64) (*application.AccountInfo, error)
	BuyTickets(ctx context.Context, guildID, buyer, count int64) (*interfaces.LotteryPurchaseResult, error)
	PauseLottery(ctx context.Context, guildID, caller int64) (*entities.LedgerState, error)
	ResumeLottery(ctx context.Context, guildID, caller int64) (*entities.LedgerState, error)
	SetTicketPrice(ctx context.Context, guildID, caller, price int64) (*entities.LedgerState, error)
	SetMaxBuyLimit(ctx context.Context, guildID, caller, limit int64) (*entities.LedgerState, error)
	SetTokenAddress(ctx context.Context, guildID, caller int64, token entities.TokenAddress) (*entities.LedgerState, error)
	Reset(ctx context.Context, guildID, caller int64) (*entities.LedgerState, error)
	WithdrawAllTokens(ctx context.Context, guildID, caller int64) (int64, error)
}

// Feature represents the lottery feature
type Feature struct {
	session *discordgo.Session
	ledger  Ledger
	clock   interfaces.Clock
	cards   *RoundCardGenerator
}

// NewFeature creates a new lottery feature instance
func NewFeature(session *discordgo.Session, ledger Ledger) *Feature {
	return &Feature{
		session: session,
		ledger:  ledger,
		clock:   services.SystemClock{},
		cards:   NewRoundCardGenerator(),
	}
}

// PostRoundEnded announces a finished round in channelID
func (f *Feature) PostRoundEnded(ctx context.Context, channelID string, event events.RoundEndedEvent) error {
	if channelID == "" {
		log.WithField("guild_id", event.GuildID).Debug("No lottery channel configured, skipping round end announcement")
		return nil
	}

	_, err := f.session.ChannelMessageSendComplex(channelID, f.roundEndedMessage(event))
	if err != nil {
		return fmt.Errorf("failed to post round end announcement: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id":   event.GuildID,
		"round":      event.Round,
		"channel_id": channelID,
	}).Info("Posted round end announcement to Discord")

	return nil
}

// roundEndedMessage builds the announcement, attaching the round card when it renders
func (f *Feature) roundEndedMessage(event events.RoundEndedEvent) *discordgo.MessageSend {
	embed := CreateRoundEndedEmbed(event)
	message := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}

	card, err := f.cards.GenerateRoundEndedCard(event)
	if err != nil {
		log.WithError(err).WithField("guild_id", event.GuildID).Error("Failed to generate round card")
		return message
	}

	embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + RoundCardFileName}
	message.Files = []*discordgo.File{{
		Name:        RoundCardFileName,
		ContentType: "image/png",
		Reader:      bytes.NewReader(card),
	}}
	return message
}

// toBotError maps a ledger error to what the user is shown
func toBotError(err error, operation string) error {
	if entities.IsUserError(err) {
		botErr := common.NewUserError(userMessage(err), fmt.Sprintf("%s rejected", operation))
		botErr.Context = err.Error()
		return botErr
	}
	return common.NewSystemError(err, fmt.Sprintf("Failed to %s", operation))
}
