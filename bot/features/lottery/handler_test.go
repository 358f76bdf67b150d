package lottery

import (
	"context"
	"errors"
	"testing"
	"time"

	"lbclottery/application"
	"lbclottery/bot/common"
	"lbclottery/domain/entities"
	"lbclottery/domain/interfaces"
	"lbclottery/domain/testhelpers"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testGuildID = int64(12345)
	testUserID  = int64(777)
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) EnsureLedger(ctx context.Context, guildID int64) (*entities.LedgerState, error) {
	args := m.Called(ctx, guildID)
	return stateArg(args)
}

func (m *mockLedger) GetSummary(ctx context.Context, guildID int64) (*entities.LedgerSummary, error) {
	args := m.Called(ctx, guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerSummary), args.Error(1)
}

func (m *mockLedger) ListEvents(ctx context.Context, guildID int64, limit int) ([]*entities.LedgerEvent, error) {
	args := m.Called(ctx, guildID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEvent), args.Error(1)
}

func (m *mockLedger) GetAccount(ctx context.Context, guildID, account int64) (*application.AccountInfo, error) {
	args := m.Called(ctx, guildID, account)
	return accountArg(args)
}

func (m *mockLedger) Approve(ctx context.Context, guildID, owner, amount int64) (*application.AccountInfo, error) {
	args := m.Called(ctx, guildID, owner, amount)
	return accountArg(args)
}

func (m *mockLedger) BuyTickets(ctx context.Context, guildID, buyer, count int64) (*interfaces.LotteryPurchaseResult, error) {
	args := m.Called(ctx, guildID, buyer, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*interfaces.LotteryPurchaseResult), args.Error(1)
}

func (m *mockLedger) PauseLottery(ctx context.Context, guildID, caller int64) (*entities.LedgerState, error) {
	return stateArg(m.Called(ctx, guildID, caller))
}

func (m *mockLedger) ResumeLottery(ctx context.Context, guildID, caller int64) (*entities.LedgerState, error) {
	return stateArg(m.Called(ctx, guildID, caller))
}

func (m *mockLedger) SetTicketPrice(ctx context.Context, guildID, caller, price int64) (*entities.LedgerState, error) {
	return stateArg(m.Called(ctx, guildID, caller, price))
}

func (m *mockLedger) SetMaxBuyLimit(ctx context.Context, guildID, caller, limit int64) (*entities.LedgerState, error) {
	return stateArg(m.Called(ctx, guildID, caller, limit))
}

func (m *mockLedger) SetTokenAddress(ctx context.Context, guildID, caller int64, token entities.TokenAddress) (*entities.LedgerState, error) {
	return stateArg(m.Called(ctx, guildID, caller, token))
}

func (m *mockLedger) Reset(ctx context.Context, guildID, caller int64) (*entities.LedgerState, error) {
	return stateArg(m.Called(ctx, guildID, caller))
}

func (m *mockLedger) WithdrawAllTokens(ctx context.Context, guildID, caller int64) (int64, error) {
	args := m.Called(ctx, guildID, caller)
	return args.Get(0).(int64), args.Error(1)
}

func stateArg(args mock.Arguments) (*entities.LedgerState, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerState), args.Error(1)
}

func accountArg(args mock.Arguments) (*application.AccountInfo, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.AccountInfo), args.Error(1)
}

func newTestFeature(ledger Ledger, now time.Time) *Feature {
	return &Feature{
		ledger: ledger,
		clock:  testhelpers.NewFakeClock(now),
		cards:  NewRoundCardGenerator(),
	}
}

func subcommand(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:    name,
		Type:    discordgo.ApplicationCommandOptionSubCommand,
		Options: options,
	}
}

func intArg(name string, value int64) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionInteger,
		Value: float64(value),
	}
}

func stringArg(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func liveState(now time.Time) *entities.LedgerState {
	return &entities.LedgerState{
		GuildID:        testGuildID,
		Administrator:  testUserID,
		CustodyAccount: 999,
		TokenAddress:   "0x5fbdb2315678afecb367f032d93f642f64180aa3",
		TicketPrice:    entities.DefaultTicketPrice,
		MaxBuyLimit:    entities.DefaultMaxBuyLimit,
		RoundDeadline:  now.Add(24 * time.Hour),
		Round:          1,
	}
}

func TestRunCommand_Buy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		ledger := new(mockLedger)
		state := liveState(now)
		state.TicketsSold = 3
		state.PrizePool = 150000
		ledger.On("BuyTickets", ctx, testGuildID, testUserID, int64(3)).Return(&interfaces.LotteryPurchaseResult{
			State:        state,
			Count:        3,
			Cost:         150000,
			BuyerBalance: 50000,
		}, nil)

		embed, err := newTestFeature(ledger, now).runCommand(ctx, testGuildID, testUserID, subcommand("buy", intArg("count", 3)))
		require.NoError(t, err)
		assert.Equal(t, "Tickets Purchased!", embed.Title)
		assert.Contains(t, embed.Description, "150,000")
		ledger.AssertExpectations(t)
	})

	t.Run("rejection becomes user error", func(t *testing.T) {
		t.Parallel()
		ledger := new(mockLedger)
		ledger.On("BuyTickets", ctx, testGuildID, testUserID, int64(500)).
			Return(nil, &entities.MaxBuyLimitError{Count: 500, Limit: 100})

		_, err := newTestFeature(ledger, now).runCommand(ctx, testGuildID, testUserID, subcommand("buy", intArg("count", 500)))
		var botErr *common.BotError
		require.ErrorAs(t, err, &botErr)
		assert.Equal(t, "You can buy at most 100 tickets at once.", botErr.UserMessage)
		assert.Nil(t, botErr.Err)
	})

	t.Run("infrastructure failure becomes system error", func(t *testing.T) {
		t.Parallel()
		ledger := new(mockLedger)
		dbErr := errors.New("connection refused")
		ledger.On("BuyTickets", ctx, testGuildID, testUserID, int64(1)).Return(nil, dbErr)

		_, err := newTestFeature(ledger, now).runCommand(ctx, testGuildID, testUserID, subcommand("buy", intArg("count", 1)))
		var botErr *common.BotError
		require.ErrorAs(t, err, &botErr)
		assert.ErrorIs(t, err, dbErr)
		assert.NotContains(t, botErr.UserMessage, "connection refused")
	})

	t.Run("missing count", func(t *testing.T) {
		t.Parallel()
		ledger := new(mockLedger)

		_, err := newTestFeature(ledger, now).runCommand(ctx, testGuildID, testUserID, subcommand("buy"))
		require.Error(t, err)
		ledger.AssertNotCalled(t, "BuyTickets", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRunCommand_InfoAndBalance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	state := liveState(now)

	ledger := new(mockLedger)
	ledger.On("EnsureLedger", ctx, testGuildID).Return(state, nil)
	ledger.On("GetSummary", ctx, testGuildID).Return(&entities.LedgerSummary{
		State:          state,
		Phase:          entities.PhaseLive,
		TimeRemaining:  24 * time.Hour,
		CustodyBalance: 0,
	}, nil)
	ledger.On("GetAccount", ctx, testGuildID, testUserID).Return(&application.AccountInfo{
		Account:   testUserID,
		Token:     state.TokenAddress,
		Balance:   1000,
		Allowance: 500,
	}, nil)

	feature := newTestFeature(ledger, now)

	info, err := feature.runCommand(ctx, testGuildID, testUserID, subcommand("info"))
	require.NoError(t, err)
	assert.Equal(t, "Lottery Round #1", info.Title)
	assert.Contains(t, info.Description, "1d")

	balance, err := feature.runCommand(ctx, testGuildID, testUserID, subcommand("balance"))
	require.NoError(t, err)
	assert.Equal(t, "1,000", balance.Fields[0].Value)
	assert.Equal(t, "500", balance.Fields[1].Value)

	ledger.AssertExpectations(t)
}

func TestRunCommand_Unknown(t *testing.T) {
	t.Parallel()

	_, err := newTestFeature(new(mockLedger), time.Now()).runCommand(context.Background(), testGuildID, testUserID, subcommand("jackpot"))
	var botErr *common.BotError
	require.ErrorAs(t, err, &botErr)
	assert.Equal(t, "Unknown lottery command", botErr.UserMessage)
}

func TestRunAdminCommand(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("set token passes the address through", func(t *testing.T) {
		t.Parallel()
		ledger := new(mockLedger)
		ended := liveState(now)
		ended.RoundDeadline = now.Add(-time.Hour)
		ledger.On("SetTokenAddress", ctx, testGuildID, testUserID, entities.TokenAddress("0xabc")).Return(ended, nil)

		embed, err := newTestFeature(ledger, now).runAdminCommand(ctx, testGuildID, testUserID, subcommand("set-token", stringArg("address", "0xabc")))
		require.NoError(t, err)
		assert.Equal(t, "Token Updated", embed.Title)
		assert.Equal(t, common.ColorDanger, embed.Color)
		for _, field := range embed.Fields {
			assert.NotEqual(t, "Custody Balance", field.Name)
		}
	})

	t.Run("withdraw reports the amount", func(t *testing.T) {
		t.Parallel()
		ledger := new(mockLedger)
		ledger.On("WithdrawAllTokens", ctx, testGuildID, testUserID).Return(int64(250000), nil)

		embed, err := newTestFeature(ledger, now).runAdminCommand(ctx, testGuildID, testUserID, subcommand("withdraw"))
		require.NoError(t, err)
		assert.Contains(t, embed.Description, "250,000")
		assert.Contains(t, embed.Description, "<@777>")
	})

	t.Run("non administrator is rejected", func(t *testing.T) {
		t.Parallel()
		ledger := new(mockLedger)
		ledger.On("PauseLottery", ctx, testGuildID, int64(1)).Return(nil, entities.ErrUnauthorized)

		_, err := newTestFeature(ledger, now).runAdminCommand(ctx, testGuildID, 1, subcommand("pause"))
		var botErr *common.BotError
		require.ErrorAs(t, err, &botErr)
		assert.Equal(t, "Only the lottery administrator can do that.", botErr.UserMessage)
	})

	t.Run("paused state shows pause time", func(t *testing.T) {
		t.Parallel()
		ledger := new(mockLedger)
		paused := liveState(now)
		paused.Pause(now)
		ledger.On("PauseLottery", ctx, testGuildID, testUserID).Return(paused, nil)

		embed, err := newTestFeature(ledger, now).runAdminCommand(ctx, testGuildID, testUserID, subcommand("pause"))
		require.NoError(t, err)
		assert.Equal(t, common.ColorWarning, embed.Color)
		assert.Equal(t, "Paused", embed.Fields[len(embed.Fields)-1].Name)
	})
}
