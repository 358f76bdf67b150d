package entities

import (
	"time"
)

// LedgerEventKind names an audited ledger operation
type LedgerEventKind string

const (
	LedgerEventCreated          LedgerEventKind = "created"
	LedgerEventTicketsPurchased LedgerEventKind = "tickets_purchased"
	LedgerEventPaused           LedgerEventKind = "paused"
	LedgerEventResumed          LedgerEventKind = "resumed"
	LedgerEventTicketPriceSet   LedgerEventKind = "ticket_price_set"
	LedgerEventMaxBuyLimitSet   LedgerEventKind = "max_buy_limit_set"
	LedgerEventTokenAddressSet  LedgerEventKind = "token_address_set"
	LedgerEventReset            LedgerEventKind = "reset"
	LedgerEventFundsWithdrawn   LedgerEventKind = "funds_withdrawn"
)

// LedgerEvent is an audit record of a successful mutating operation
type LedgerEvent struct {
	ID        int64                  `db:"id"`
	GuildID   int64                  `db:"guild_id"`
	Round     int64                  `db:"round"`
	Kind      LedgerEventKind        `db:"kind"`
	ActorID   int64                  `db:"actor_id"`
	Amount    int64                  `db:"amount"` // Token amount moved, zero for config changes
	Count     int64                  `db:"count"`  // Tickets bought, zero otherwise
	Metadata  map[string]interface{} `db:"metadata"`
	CreatedAt time.Time              `db:"created_at"`
}
