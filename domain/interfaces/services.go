package interfaces

import (
	"context"
	"time"

	"lbclottery/domain/entities"
)

// Clock supplies the current time to the ledger
type Clock interface {
	Now() time.Time
}

// LotteryPurchaseResult contains the outcome of a successful ticket purchase
type LotteryPurchaseResult struct {
	State        *entities.LedgerState
	Count        int64
	Cost         int64
	BuyerBalance int64
}

// LotteryLedgerService defines the interface for the guild's ticket-sale ledger.
// Administrative operations take the calling account and re-check it on every call.
type LotteryLedgerService interface {
	// CreateLedger opens the guild's first round with the given parameters
	CreateLedger(ctx context.Context, params entities.LedgerParams) (*entities.LedgerState, error)

	// GetOrCreateLedger returns the existing ledger or creates one with params
	GetOrCreateLedger(ctx context.Context, params entities.LedgerParams) (*entities.LedgerState, error)

	// GetLedger returns the guild's ledger or entities.ErrLedgerNotFound
	GetLedger(ctx context.Context) (*entities.LedgerState, error)

	// GetSummary returns the ledger with its derived phase and custody balance
	GetSummary(ctx context.Context) (*entities.LedgerSummary, error)

	// CustodyBalance returns the token balance held by the ledger's custody account
	CustodyBalance(ctx context.Context) (int64, error)

	// BuyTickets pulls count*price tokens from buyer into custody and credits the round
	BuyTickets(ctx context.Context, buyer int64, count int64) (*LotteryPurchaseResult, error)

	// PauseLottery pauses a live round
	PauseLottery(ctx context.Context, caller int64) (*entities.LedgerState, error)

	// ResumeLottery resumes a paused live round
	ResumeLottery(ctx context.Context, caller int64) (*entities.LedgerState, error)

	// SetTicketPrice changes the ticket price of an ended round
	SetTicketPrice(ctx context.Context, caller int64, price int64) (*entities.LedgerState, error)

	// SetMaxBuyLimit changes the per-purchase ticket cap of an ended round
	SetMaxBuyLimit(ctx context.Context, caller int64, limit int64) (*entities.LedgerState, error)

	// SetTokenAddress changes the token of an ended round
	SetTokenAddress(ctx context.Context, caller int64, token entities.TokenAddress) (*entities.LedgerState, error)

	// Reset clears the round counters of an ended round and opens the next one
	Reset(ctx context.Context, caller int64) (*entities.LedgerState, error)

	// WithdrawAllTokens pushes the entire custody balance to the administrator and returns the amount
	WithdrawAllTokens(ctx context.Context, caller int64) (int64, error)
}
