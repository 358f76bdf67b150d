package repository

import (
	"context"
	"testing"

	"lbclottery/domain/entities"
	"lbclottery/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenLedgerRepository_PullTransfer(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewTokenLedgerRepositoryScoped(testDB.DB, testGuildID)
	token := testutil.TestTokenAddress

	testutil.SeedTokenBalance(t, testDB.DB, testGuildID, token, testBuyerID, 100_000)

	t.Run("no allowance", func(t *testing.T) {
		err := repo.PullTransfer(ctx, token, testBuyerID, testCustodyID, 50_000)
		assert.ErrorIs(t, err, entities.ErrInsufficientAllowance)
	})

	t.Run("allowance is checked before balance", func(t *testing.T) {
		require.NoError(t, repo.Approve(ctx, token, testBuyerID, testCustodyID, 10))
		err := repo.PullTransfer(ctx, token, testBuyerID, testCustodyID, 500_000)
		assert.ErrorIs(t, err, entities.ErrInsufficientAllowance)
	})

	t.Run("insufficient balance moves nothing", func(t *testing.T) {
		require.NoError(t, repo.Approve(ctx, token, testBuyerID, testCustodyID, 1_000_000))
		err := repo.PullTransfer(ctx, token, testBuyerID, testCustodyID, 500_000)
		assert.ErrorIs(t, err, entities.ErrInsufficientFunds)

		allowance, err := repo.Allowance(ctx, token, testBuyerID, testCustodyID)
		require.NoError(t, err)
		assert.Equal(t, int64(1_000_000), allowance)
	})

	t.Run("successful pull spends allowance", func(t *testing.T) {
		require.NoError(t, repo.PullTransfer(ctx, token, testBuyerID, testCustodyID, 50_000))

		buyer, err := repo.BalanceOf(ctx, token, testBuyerID)
		require.NoError(t, err)
		assert.Equal(t, int64(50_000), buyer)

		custody, err := repo.BalanceOf(ctx, token, testCustodyID)
		require.NoError(t, err)
		assert.Equal(t, int64(50_000), custody)

		allowance, err := repo.Allowance(ctx, token, testBuyerID, testCustodyID)
		require.NoError(t, err)
		assert.Equal(t, int64(950_000), allowance)
	})

	t.Run("token address is case insensitive", func(t *testing.T) {
		upper := entities.TokenAddress("0x5FBDB2315678AFECB367F032D93F642F64180AA3")
		balance, err := repo.BalanceOf(ctx, upper, testBuyerID)
		require.NoError(t, err)
		assert.Equal(t, int64(50_000), balance)
	})
}

func TestTokenLedgerRepository_PushTransferAndMint(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	repo := NewTokenLedgerRepositoryScoped(testDB.DB, testGuildID)
	token := testutil.TestTokenAddress

	err := repo.PushTransfer(ctx, token, testCustodyID, testAdminID, 1)
	assert.ErrorIs(t, err, entities.ErrInsufficientFunds)

	require.NoError(t, repo.Mint(ctx, token, testCustodyID, 700))
	require.NoError(t, repo.Mint(ctx, token, testCustodyID, 300))
	require.NoError(t, repo.PushTransfer(ctx, token, testCustodyID, testAdminID, 1000))

	custody, err := repo.BalanceOf(ctx, token, testCustodyID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), custody)

	admin, err := repo.BalanceOf(ctx, token, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), admin)

	assert.ErrorIs(t, repo.Mint(ctx, token, testAdminID, 0), entities.ErrInvalidAmount)

	// Balances are per guild
	other, err := NewTokenLedgerRepositoryScoped(testDB.DB, 42).BalanceOf(ctx, token, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), other)
}
