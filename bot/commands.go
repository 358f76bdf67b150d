package bot

import (
	"fmt"

	"lbclottery/bot/features/lottery"

	"github.com/bwmarrin/discordgo"
)

var (
	dmPermission     = false
	minPositive      = 1.0
	adminPermissions = int64(discordgo.PermissionAdministrator)
)

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	for _, cmd := range commandDefinitions() {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}

	return nil
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:         lottery.CommandName,
			Description:  "Buy tickets and check on the current lottery round",
			DMPermission: &dmPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "info",
					Description: "Show the current round",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "buy",
					Description: "Buy lottery tickets",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "count",
							Description: "Number of tickets to buy",
							Required:    true,
							MinValue:    &minPositive,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "approve",
					Description: "Allow the lottery to spend up to this many of your tokens",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "amount",
							Description: "Allowance in base token units",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "balance",
					Description: "Show your token balance and allowance",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "events",
					Description: "Show recent lottery activity",
				},
			},
		},
		{
			Name:                     lottery.AdminCommandName,
			Description:              "Administer the lottery",
			DMPermission:             &dmPermission,
			DefaultMemberPermissions: &adminPermissions,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "pause",
					Description: "Pause ticket sales",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "resume",
					Description: "Resume ticket sales",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reset",
					Description: "Start the next round after the current one ended",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "withdraw",
					Description: "Withdraw all pooled tokens to the administrator",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set-price",
					Description: "Set the ticket price for the next round",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "price",
							Description: "Price per ticket in base token units",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set-limit",
					Description: "Set the maximum tickets per purchase",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "limit",
							Description: "Maximum tickets per purchase",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "set-token",
					Description: "Set the token tickets are paid in",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "address",
							Description: "Token address",
							Required:    true,
						},
					},
				},
			},
		},
	}
}
