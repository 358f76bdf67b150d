package entities

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors below match one of these through errors.Is.
var (
	ErrWrongPhase             = errors.New("operation not allowed in current round phase")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidTokenAddress    = errors.New("invalid token address")
	ErrLimitExceeded          = errors.New("max buy limit exceeded")
	ErrExternalTransferFailed = errors.New("token transfer failed")
)

var (
	ErrUnauthorized      = errors.New("caller is not the administrator")
	ErrContractPaused    = errors.New("contract is paused")
	ErrNotPaused         = errors.New("lottery is not paused")
	ErrNothingToWithdraw = errors.New("no tokens to withdraw")
	ErrAmountOverflow    = errors.New("ticket cost overflows")
	ErrLedgerNotFound    = errors.New("ledger not found")
	ErrLedgerExists      = errors.New("ledger already exists")

	// Token ledger failures, carried inside a TransferError
	ErrInsufficientFunds     = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// ErrAlreadyPaused is reported when pausing a ledger that is already paused
var ErrAlreadyPaused = ErrContractPaused

// Phase errors
var (
	ErrUnauthorizedAction = &phaseError{msg: "unauthorized action"}
	ErrLotteryNotLive     = &phaseError{msg: "lottery is not live"}
	ErrLotteryStillLive   = &phaseError{msg: "lottery is still live"}
)

type phaseError struct {
	msg string
}

func (e *phaseError) Error() string {
	return e.msg
}

func (e *phaseError) Is(target error) bool {
	return target == ErrWrongPhase
}

// InvalidAmountError reports a numeric argument outside its domain
type InvalidAmountError struct {
	Value int64
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount: %d", e.Value)
}

func (e *InvalidAmountError) Is(target error) bool {
	return target == ErrInvalidAmount
}

// InvalidTokenAddressError reports a null or malformed token reference
type InvalidTokenAddressError struct {
	Value TokenAddress
}

func (e *InvalidTokenAddressError) Error() string {
	return fmt.Sprintf("invalid token address: %q", string(e.Value))
}

func (e *InvalidTokenAddressError) Is(target error) bool {
	return target == ErrInvalidTokenAddress
}

// MaxBuyLimitError reports a purchase larger than the ledger's per-call cap
type MaxBuyLimitError struct {
	Count int64
	Limit int64
}

func (e *MaxBuyLimitError) Error() string {
	return fmt.Sprintf("max buy limit exceeded: requested %d, limit %d", e.Count, e.Limit)
}

func (e *MaxBuyLimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}

// TransferError wraps a failed pull or push on the token ledger
type TransferError struct {
	Op     string // "pull" or "push"
	Amount int64
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("token %s of %d failed: %v", e.Op, e.Amount, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

func (e *TransferError) Is(target error) bool {
	return target == ErrExternalTransferFailed
}

// IsUserError reports whether err is a domain rejection rather than an infrastructure failure
func IsUserError(err error) bool {
	for _, kind := range []error{
		ErrWrongPhase,
		ErrInvalidAmount,
		ErrInvalidTokenAddress,
		ErrLimitExceeded,
		ErrInsufficientFunds,
		ErrInsufficientAllowance,
		ErrUnauthorized,
		ErrContractPaused,
		ErrNotPaused,
		ErrNothingToWithdraw,
		ErrAmountOverflow,
		ErrLedgerNotFound,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
