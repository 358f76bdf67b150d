package lottery

import (
	"fmt"
	"strings"
	"time"

	"lbclottery/application"
	"lbclottery/bot/common"
	"lbclottery/domain/entities"
	"lbclottery/domain/events"
	"lbclottery/domain/interfaces"

	"github.com/bwmarrin/discordgo"
)

// CreateSummaryEmbed creates the round overview embed
func CreateSummaryEmbed(summary *entities.LedgerSummary) *discordgo.MessageEmbed {
	state := summary.State

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Lottery Round #%d", state.Round),
		Color: phaseColor(summary.Phase),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Status",
				Value:  phaseLabel(summary.Phase),
				Inline: true,
			},
			{
				Name:   "Ticket Price",
				Value:  common.FormatBalance(state.TicketPrice),
				Inline: true,
			},
			{
				Name:   "Max Per Purchase",
				Value:  common.FormatBalance(state.MaxBuyLimit),
				Inline: true,
			},
			{
				Name:   "Tickets Sold",
				Value:  common.FormatBalance(state.TicketsSold),
				Inline: true,
			},
			{
				Name:   "Prize Pool",
				Value:  common.FormatBalance(state.PrizePool),
				Inline: true,
			},
			{
				Name:   "Custody Balance",
				Value:  common.FormatBalance(summary.CustodyBalance),
				Inline: true,
			},
			{
				Name:   "Token",
				Value:  fmt.Sprintf("`%s`", common.FormatTokenAddress(state.TokenAddress)),
				Inline: true,
			},
		},
	}

	if summary.Phase == entities.PhaseEnded {
		embed.Description = fmt.Sprintf("Ended %s", common.FormatDiscordTimestamp(state.RoundDeadline, "R"))
	} else {
		embed.Description = fmt.Sprintf("Ends %s (%s left)",
			common.FormatDiscordTimestamp(state.RoundDeadline, "f"), common.FormatDuration(summary.TimeRemaining))
	}

	if state.IsPaused && !state.PauseTimestamp.IsZero() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Paused",
			Value:  common.FormatDiscordTimestamp(state.PauseTimestamp, "R"),
			Inline: true,
		})
	}

	return embed
}

// CreatePurchaseConfirmationEmbed creates an ephemeral embed for purchase confirmation
func CreatePurchaseConfirmationEmbed(result *interfaces.LotteryPurchaseResult) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Tickets Purchased!",
		Color:       common.ColorSuccess,
		Description: fmt.Sprintf("You bought %d ticket(s) for %s", result.Count, common.FormatBalance(result.Cost)),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "New Balance",
				Value:  common.FormatBalance(result.BuyerBalance),
				Inline: true,
			},
			{
				Name:   "Prize Pool",
				Value:  common.FormatBalance(result.State.PrizePool),
				Inline: true,
			},
			{
				Name:   "Tickets Sold",
				Value:  common.FormatBalance(result.State.TicketsSold),
				Inline: true,
			},
		},
	}
}

// CreateAccountEmbed shows an account's balance and the allowance it granted the lottery
func CreateAccountEmbed(title string, info *application.AccountInfo) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: title,
		Color: common.ColorPrimary,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Balance",
				Value:  common.FormatBalance(info.Balance),
				Inline: true,
			},
			{
				Name:   "Approved For Lottery",
				Value:  common.FormatBalance(info.Allowance),
				Inline: true,
			},
			{
				Name:   "Token",
				Value:  fmt.Sprintf("`%s`", common.FormatTokenAddress(info.Token)),
				Inline: true,
			},
		},
	}
}

// CreateAdminResultEmbed confirms an administrative change
func CreateAdminResultEmbed(message string, state *entities.LedgerState, now time.Time) *discordgo.MessageEmbed {
	embed := CreateSummaryEmbed(&entities.LedgerSummary{
		State:         state,
		Phase:         state.Phase(now),
		TimeRemaining: state.TimeRemaining(now),
	})
	embed.Title = message
	// Custody balance is not loaded for admin results
	embed.Fields = removeField(embed.Fields, "Custody Balance")
	return embed
}

// CreateWithdrawEmbed confirms a custody withdrawal
func CreateWithdrawEmbed(amount int64, administrator int64) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Funds Withdrawn",
		Color:       common.ColorSuccess,
		Description: fmt.Sprintf("Sent %s tokens to %s", common.FormatBalance(amount), common.GetUserMention(administrator)),
	}
}

// CreateEventsEmbed lists recent ledger activity
func CreateEventsEmbed(ledgerEvents []*entities.LedgerEvent) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Recent Lottery Activity",
		Color: common.ColorInfo,
	}

	if len(ledgerEvents) == 0 {
		embed.Description = "No activity yet"
		return embed
	}

	lines := make([]string, 0, len(ledgerEvents))
	for _, e := range ledgerEvents {
		lines = append(lines, fmt.Sprintf("%s %s", common.FormatDiscordTimestamp(e.CreatedAt, "R"), describeEvent(e)))
	}
	embed.Description = strings.Join(lines, "\n")

	return embed
}

// CreateRoundEndedEmbed announces a finished round
func CreateRoundEndedEmbed(event events.RoundEndedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Lottery Round #%d Has Ended", event.Round),
		Color:       common.ColorWarning,
		Description: fmt.Sprintf("Ticket sales closed %s", common.FormatDiscordTimestamp(event.RoundDeadline, "f")),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Tickets Sold",
				Value:  common.FormatBalance(event.TicketsSold),
				Inline: true,
			},
			{
				Name:   "Prize Pool",
				Value:  common.FormatBalance(event.PrizePool),
				Inline: true,
			},
		},
	}
}

func describeEvent(e *entities.LedgerEvent) string {
	actor := common.GetUserMention(e.ActorID)
	switch e.Kind {
	case entities.LedgerEventCreated:
		return "lottery created"
	case entities.LedgerEventTicketsPurchased:
		return fmt.Sprintf("%s bought %d ticket(s) for %s", actor, e.Count, common.FormatBalance(e.Amount))
	case entities.LedgerEventPaused:
		return fmt.Sprintf("%s paused round #%d", actor, e.Round)
	case entities.LedgerEventResumed:
		return fmt.Sprintf("%s resumed round #%d", actor, e.Round)
	case entities.LedgerEventReset:
		return fmt.Sprintf("%s started round #%d", actor, e.Round)
	case entities.LedgerEventFundsWithdrawn:
		return fmt.Sprintf("%s withdrew %s", actor, common.FormatBalance(e.Amount))
	case entities.LedgerEventTicketPriceSet, entities.LedgerEventMaxBuyLimitSet, entities.LedgerEventTokenAddressSet:
		return fmt.Sprintf("%s changed %s", actor, strings.ReplaceAll(strings.TrimSuffix(string(e.Kind), "_set"), "_", " "))
	default:
		return string(e.Kind)
	}
}

func phaseColor(phase entities.Phase) int {
	switch phase {
	case entities.PhaseLive:
		return common.ColorSuccess
	case entities.PhasePaused:
		return common.ColorWarning
	default:
		return common.ColorDanger
	}
}

func phaseLabel(phase entities.Phase) string {
	switch phase {
	case entities.PhaseLive:
		return "🟢 Live"
	case entities.PhasePaused:
		return "⏸️ Paused"
	default:
		return "🔴 Ended"
	}
}

func removeField(fields []*discordgo.MessageEmbedField, name string) []*discordgo.MessageEmbedField {
	kept := fields[:0]
	for _, field := range fields {
		if field.Name != name {
			kept = append(kept, field)
		}
	}
	return kept
}
