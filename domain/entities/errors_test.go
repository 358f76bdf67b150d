package entities

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhaseErrors_MatchWrongPhase(t *testing.T) {
	t.Parallel()

	for _, err := range []error{ErrUnauthorizedAction, ErrLotteryNotLive, ErrLotteryStillLive} {
		assert.ErrorIs(t, err, ErrWrongPhase)
		assert.ErrorIs(t, fmt.Errorf("wrapped: %w", err), ErrWrongPhase)
	}

	assert.NotErrorIs(t, ErrUnauthorized, ErrWrongPhase)
	assert.NotErrorIs(t, ErrLotteryNotLive, ErrLotteryStillLive)
}

func TestValueErrors(t *testing.T) {
	t.Parallel()

	var err error = &InvalidAmountError{Value: 0}
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, "invalid amount: 0", err.Error())

	var amountErr *InvalidAmountError
	require.True(t, errors.As(fmt.Errorf("set price: %w", err), &amountErr))
	assert.Equal(t, int64(0), amountErr.Value)

	err = &InvalidTokenAddressError{Value: ZeroTokenAddress}
	assert.ErrorIs(t, err, ErrInvalidTokenAddress)

	err = &MaxBuyLimitError{Count: 101, Limit: 100}
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.Contains(t, err.Error(), "101")
}

func TestTransferError(t *testing.T) {
	t.Parallel()

	err := &TransferError{Op: "pull", Amount: 5000000, Err: ErrInsufficientAllowance}

	assert.ErrorIs(t, err, ErrExternalTransferFailed)
	assert.ErrorIs(t, err, ErrInsufficientAllowance)
	assert.NotErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, "token pull of 5000000 failed: insufficient allowance", err.Error())
}

func TestIsUserError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUserError(ErrUnauthorized))
	assert.True(t, IsUserError(ErrLotteryStillLive))
	assert.True(t, IsUserError(&InvalidAmountError{Value: -1}))
	assert.True(t, IsUserError(&TransferError{Op: "pull", Err: ErrInsufficientFunds}))
	assert.False(t, IsUserError(&TransferError{Op: "pull", Err: errors.New("connection reset")}))
	assert.False(t, IsUserError(errors.New("database is down")))
}
