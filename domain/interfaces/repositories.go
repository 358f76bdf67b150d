package interfaces

import (
	"context"
	"time"

	"lbclottery/domain/entities"
	"lbclottery/domain/events"
)

// LedgerStateRepository defines the interface for ledger state persistence.
// Implementations are scoped to a single guild.
type LedgerStateRepository interface {
	// Get returns the guild's ledger, or nil if none exists
	Get(ctx context.Context) (*entities.LedgerState, error)

	// GetForUpdate returns the guild's ledger with a row lock held until the transaction ends
	GetForUpdate(ctx context.Context) (*entities.LedgerState, error)

	// Create inserts a new ledger for the guild; GuildID, CreatedAt and UpdatedAt are filled in
	Create(ctx context.Context, state *entities.LedgerState) error

	// Update persists every mutable field of the ledger
	Update(ctx context.Context, state *entities.LedgerState) error

	// GetLedgersWithUnannouncedEnd returns ledgers across all guilds whose round ended at or before now
	// and whose end has not been published yet
	GetLedgersWithUnannouncedEnd(ctx context.Context, now time.Time) ([]*entities.LedgerState, error)

	// GetNextRoundDeadline returns the earliest deadline after now across all guilds, or nil
	GetNextRoundDeadline(ctx context.Context, now time.Time) (*time.Time, error)

	// MarkRoundAnnounced records that the end of round was published
	MarkRoundAnnounced(ctx context.Context, guildID, round int64) error
}

// TokenLedger is the external token ledger the lottery ledger settles against
type TokenLedger interface {
	// BalanceOf returns the balance account holds in token
	BalanceOf(ctx context.Context, token entities.TokenAddress, account int64) (int64, error)

	// PullTransfer moves amount from `from` to `to`, spending the allowance `from` granted to `to`.
	// Fails with entities.ErrInsufficientFunds or entities.ErrInsufficientAllowance without moving anything.
	PullTransfer(ctx context.Context, token entities.TokenAddress, from, to int64, amount int64) error

	// PushTransfer moves amount out of the custody account `from` to `to`.
	// Fails with entities.ErrInsufficientFunds without moving anything.
	PushTransfer(ctx context.Context, token entities.TokenAddress, from, to int64, amount int64) error
}

// TokenAccountRepository extends TokenLedger with the account management operations
// used by buyers and operators
type TokenAccountRepository interface {
	TokenLedger

	// Approve sets the amount spender may pull from owner, replacing any previous allowance
	Approve(ctx context.Context, token entities.TokenAddress, owner, spender int64, amount int64) error

	// Allowance returns the amount spender may currently pull from owner
	Allowance(ctx context.Context, token entities.TokenAddress, owner, spender int64) (int64, error)

	// Mint credits amount to account
	Mint(ctx context.Context, token entities.TokenAddress, account int64, amount int64) error
}

// LedgerEventRepository defines the interface for the ledger audit log
type LedgerEventRepository interface {
	// Record appends an event; GuildID, ID and CreatedAt are filled in
	Record(ctx context.Context, event *entities.LedgerEvent) error

	// ListRecent returns the newest events first
	ListRecent(ctx context.Context, limit int) ([]*entities.LedgerEvent, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}
