package lottery

import (
	"context"
	"fmt"
	"strconv"

	"lbclottery/bot/common"
	"lbclottery/domain/entities"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Slash command names
const (
	CommandName      = "lottery"
	AdminCommandName = "lottery-admin"
)

// Public subcommands answer in the channel, everything else is ephemeral
var publicSubcommands = map[string]bool{
	"info":   true,
	"events": true,
}

// HandleCommand handles /lottery
func (f *Feature) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.dispatch(s, i, f.runCommand)
}

// HandleAdminCommand handles /lottery-admin
func (f *Feature) HandleAdminCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	f.dispatch(s, i, f.runAdminCommand)
}

type commandRunner func(ctx context.Context, guildID, userID int64, sub *discordgo.ApplicationCommandInteractionDataOption) (*discordgo.MessageEmbed, error)

func (f *Feature) dispatch(s *discordgo.Session, i *discordgo.InteractionCreate, run commandRunner) {
	ctx := context.Background()

	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		common.RespondWithError(s, i, "Please choose a subcommand")
		return
	}
	sub := data.Options[0]

	guildID, err := strconv.ParseInt(i.GuildID, 10, 64)
	if err != nil {
		common.RespondWithError(s, i, "Lottery commands only work inside a server")
		return
	}

	userID, err := common.ParseUserID(common.InteractionUserID(i))
	if err != nil {
		common.RespondWithError(s, i, "Invalid user ID")
		return
	}

	if err := common.DeferResponse(s, i, !publicSubcommands[sub.Name]); err != nil {
		log.Errorf("Failed to defer response: %v", err)
		return
	}

	embed, err := run(ctx, guildID, userID, sub)
	if err != nil {
		common.HandleError(s, i, err, true)
		return
	}

	if err := common.UpdateMessage(s, i, embed); err != nil {
		log.Errorf("Failed to send %s %s response: %v", data.Name, sub.Name, err)
	}
}

// runCommand executes a /lottery subcommand for userID
func (f *Feature) runCommand(ctx context.Context, guildID, userID int64, sub *discordgo.ApplicationCommandInteractionDataOption) (*discordgo.MessageEmbed, error) {
	options := optionMap(sub)

	switch sub.Name {
	case "info":
		if _, err := f.ledger.EnsureLedger(ctx, guildID); err != nil {
			return nil, toBotError(err, "load lottery")
		}
		summary, err := f.ledger.GetSummary(ctx, guildID)
		if err != nil {
			return nil, toBotError(err, "load lottery summary")
		}
		return CreateSummaryEmbed(summary), nil

	case "buy":
		count, err := intOption(options, "count")
		if err != nil {
			return nil, err
		}
		result, err := f.ledger.BuyTickets(ctx, guildID, userID, count)
		if err != nil {
			return nil, toBotError(err, "buy tickets")
		}
		log.WithFields(log.Fields{
			"guild_id": guildID,
			"buyer":    userID,
			"count":    result.Count,
			"cost":     result.Cost,
		}).Info("Tickets purchased")
		return CreatePurchaseConfirmationEmbed(result), nil

	case "approve":
		amount, err := intOption(options, "amount")
		if err != nil {
			return nil, err
		}
		info, err := f.ledger.Approve(ctx, guildID, userID, amount)
		if err != nil {
			return nil, toBotError(err, "approve allowance")
		}
		return CreateAccountEmbed("Allowance Updated", info), nil

	case "balance":
		if _, err := f.ledger.EnsureLedger(ctx, guildID); err != nil {
			return nil, toBotError(err, "load lottery")
		}
		info, err := f.ledger.GetAccount(ctx, guildID, userID)
		if err != nil {
			return nil, toBotError(err, "load balance")
		}
		return CreateAccountEmbed("Your Tokens", info), nil

	case "events":
		ledgerEvents, err := f.ledger.ListEvents(ctx, guildID, common.RecentEventLimit)
		if err != nil {
			return nil, toBotError(err, "list lottery activity")
		}
		return CreateEventsEmbed(ledgerEvents), nil
	}

	return nil, common.NewUserError("Unknown lottery command", fmt.Sprintf("unknown subcommand %q", sub.Name))
}

// runAdminCommand executes a /lottery-admin subcommand. The ledger re-checks the caller.
func (f *Feature) runAdminCommand(ctx context.Context, guildID, userID int64, sub *discordgo.ApplicationCommandInteractionDataOption) (*discordgo.MessageEmbed, error) {
	options := optionMap(sub)

	var (
		state   *entities.LedgerState
		message string
		err     error
	)

	switch sub.Name {
	case "pause":
		state, err = f.ledger.PauseLottery(ctx, guildID, userID)
		message = "Lottery Paused"

	case "resume":
		state, err = f.ledger.ResumeLottery(ctx, guildID, userID)
		message = "Lottery Resumed"

	case "reset":
		state, err = f.ledger.Reset(ctx, guildID, userID)
		message = "New Round Started"

	case "set-price":
		price, optErr := intOption(options, "price")
		if optErr != nil {
			return nil, optErr
		}
		state, err = f.ledger.SetTicketPrice(ctx, guildID, userID, price)
		message = "Ticket Price Updated"

	case "set-limit":
		limit, optErr := intOption(options, "limit")
		if optErr != nil {
			return nil, optErr
		}
		state, err = f.ledger.SetMaxBuyLimit(ctx, guildID, userID, limit)
		message = "Max Buy Limit Updated"

	case "set-token":
		address, optErr := stringOption(options, "address")
		if optErr != nil {
			return nil, optErr
		}
		state, err = f.ledger.SetTokenAddress(ctx, guildID, userID, entities.TokenAddress(address))
		message = "Token Updated"

	case "withdraw":
		amount, err := f.ledger.WithdrawAllTokens(ctx, guildID, userID)
		if err != nil {
			return nil, toBotError(err, "withdraw tokens")
		}
		return CreateWithdrawEmbed(amount, userID), nil

	default:
		return nil, common.NewUserError("Unknown lottery command", fmt.Sprintf("unknown admin subcommand %q", sub.Name))
	}

	if err != nil {
		return nil, toBotError(err, sub.Name+" lottery")
	}

	log.WithFields(log.Fields{
		"guild_id":   guildID,
		"caller":     userID,
		"subcommand": sub.Name,
		"round":      state.Round,
	}).Info("Lottery admin command applied")

	return CreateAdminResultEmbed(message, state, f.clock.Now()), nil
}

func optionMap(sub *discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(sub.Options))
	for _, opt := range sub.Options {
		options[opt.Name] = opt
	}
	return options
}

func intOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (int64, error) {
	opt, ok := options[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionInteger {
		return 0, common.NewUserError(fmt.Sprintf("Missing %s", name), fmt.Sprintf("missing integer option %q", name))
	}
	return opt.IntValue(), nil
}

func stringOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (string, error) {
	opt, ok := options[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionString {
		return "", common.NewUserError(fmt.Sprintf("Missing %s", name), fmt.Sprintf("missing string option %q", name))
	}
	return opt.StringValue(), nil
}
