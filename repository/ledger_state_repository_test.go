package repository

import (
	"context"
	"testing"
	"time"

	"lbclottery/domain/entities"
	"lbclottery/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testGuildID   int64 = 123456789
	testAdminID   int64 = 111111
	testBuyerID   int64 = 222222
	testCustodyID int64 = 999999
)

func TestLedgerStateRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewLedgerStateRepositoryScoped(testDB.DB, testGuildID)

	t.Run("missing ledger returns nil", func(t *testing.T) {
		state, err := repo.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	deadline := time.Now().Add(entities.RoundDuration)
	created := testutil.CreateTestLedgerState(testAdminID, testCustodyID, deadline)

	t.Run("create fills guild and timestamps", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, created))
		assert.Equal(t, testGuildID, created.GuildID)
		assert.False(t, created.CreatedAt.IsZero())
	})

	t.Run("second create reports existing ledger", func(t *testing.T) {
		err := repo.Create(ctx, testutil.CreateTestLedgerState(testAdminID, testCustodyID, deadline))
		assert.ErrorIs(t, err, entities.ErrLedgerExists)
	})

	t.Run("get round trips every field", func(t *testing.T) {
		state, err := repo.GetForUpdate(ctx)
		require.NoError(t, err)
		require.NotNil(t, state)

		assert.Equal(t, testAdminID, state.Administrator)
		assert.Equal(t, testCustodyID, state.CustodyAccount)
		assert.Equal(t, testutil.TestTokenAddress, state.TokenAddress)
		assert.Equal(t, entities.DefaultTicketPrice, state.TicketPrice)
		assert.Equal(t, entities.DefaultMaxBuyLimit, state.MaxBuyLimit)
		assert.True(t, created.RoundDeadline.Equal(state.RoundDeadline))
		assert.Equal(t, int64(1), state.Round)
		assert.False(t, state.IsPaused)
		assert.True(t, state.PauseTimestamp.IsZero())
	})

	t.Run("other guilds do not see the ledger", func(t *testing.T) {
		state, err := NewLedgerStateRepositoryScoped(testDB.DB, 42).Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, state)
	})
}

func TestLedgerStateRepository_Update(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewLedgerStateRepositoryScoped(testDB.DB, testGuildID)

	state := testutil.CreateTestLedgerState(testAdminID, testCustodyID, time.Now().Add(time.Hour))
	require.NoError(t, repo.Create(ctx, state))

	pausedAt := time.Now().UTC().Truncate(time.Microsecond)
	state.TicketsSold = 12
	state.PrizePool = 12 * entities.DefaultTicketPrice
	state.Pause(pausedAt)
	require.NoError(t, repo.Update(ctx, state))

	stored, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), stored.TicketsSold)
	assert.Equal(t, 12*entities.DefaultTicketPrice, stored.PrizePool)
	assert.True(t, stored.IsPaused)
	assert.True(t, pausedAt.Equal(stored.PauseTimestamp))

	stored.Resume()
	require.NoError(t, repo.Update(ctx, stored))

	stored, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.False(t, stored.IsPaused)
	assert.True(t, stored.PauseTimestamp.IsZero())

	err = NewLedgerStateRepositoryScoped(testDB.DB, 42).Update(ctx, stored)
	assert.ErrorIs(t, err, entities.ErrLedgerNotFound)
}

func TestLedgerStateRepository_RoundAnnouncements(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	now := time.Now().UTC()

	ended := testutil.CreateTestLedgerState(testAdminID, testCustodyID, now.Add(-time.Hour))
	require.NoError(t, NewLedgerStateRepositoryScoped(testDB.DB, 1).Create(ctx, ended))
	soon := testutil.CreateTestLedgerState(testAdminID, testCustodyID, now.Add(time.Hour))
	require.NoError(t, NewLedgerStateRepositoryScoped(testDB.DB, 2).Create(ctx, soon))
	later := testutil.CreateTestLedgerState(testAdminID, testCustodyID, now.Add(48*time.Hour))
	require.NoError(t, NewLedgerStateRepositoryScoped(testDB.DB, 3).Create(ctx, later))

	crossGuild := NewLedgerStateRepositoryScoped(testDB.DB, 0)

	states, err := crossGuild.GetLedgersWithUnannouncedEnd(ctx, now)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, int64(1), states[0].GuildID)

	next, err := crossGuild.GetNextRoundDeadline(ctx, now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.True(t, soon.RoundDeadline.Equal(*next))

	require.NoError(t, crossGuild.MarkRoundAnnounced(ctx, 1, 1))
	states, err = crossGuild.GetLedgersWithUnannouncedEnd(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, states)

	assert.ErrorIs(t, crossGuild.MarkRoundAnnounced(ctx, 404, 1), entities.ErrLedgerNotFound)

	next, err = crossGuild.GetNextRoundDeadline(ctx, now.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, next)
}
