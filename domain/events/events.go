package events

import (
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeTicketsPurchased    EventType = "tickets_purchased"
	EventTypeAllFundsWithdrawn   EventType = "all_funds_withdrawn"
	EventTypeLotteryPaused       EventType = "lottery_paused"
	EventTypeLotteryResumed      EventType = "lottery_resumed"
	EventTypeLotteryReset        EventType = "lottery_reset"
	EventTypeLedgerConfigChanged EventType = "ledger_config_changed"
	EventTypeRoundEnded          EventType = "round_ended"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// TicketsPurchasedEvent is emitted for every successful purchase
type TicketsPurchasedEvent struct {
	GuildID        int64 `json:"guild_id"`
	Round          int64 `json:"round"`
	Buyer          int64 `json:"buyer"`
	CustodyAccount int64 `json:"custody_account"`
	Count          int64 `json:"count"`
	Cost           int64 `json:"cost"`
	TicketsSold    int64 `json:"tickets_sold"`
	PrizePool      int64 `json:"prize_pool"`
}

func (e TicketsPurchasedEvent) Type() EventType {
	return EventTypeTicketsPurchased
}

// AllFundsWithdrawnEvent is emitted when the administrator drains custody
type AllFundsWithdrawnEvent struct {
	GuildID       int64 `json:"guild_id"`
	Round         int64 `json:"round"`
	Administrator int64 `json:"administrator"`
	Amount        int64 `json:"amount"`
}

func (e AllFundsWithdrawnEvent) Type() EventType {
	return EventTypeAllFundsWithdrawn
}

// LotteryPausedEvent is emitted when a live round is paused
type LotteryPausedEvent struct {
	GuildID  int64     `json:"guild_id"`
	Round    int64     `json:"round"`
	PausedAt time.Time `json:"paused_at"`
}

func (e LotteryPausedEvent) Type() EventType {
	return EventTypeLotteryPaused
}

// LotteryResumedEvent is emitted when a paused round is resumed
type LotteryResumedEvent struct {
	GuildID int64 `json:"guild_id"`
	Round   int64 `json:"round"`
}

func (e LotteryResumedEvent) Type() EventType {
	return EventTypeLotteryResumed
}

// LotteryResetEvent is emitted when a new round is opened
type LotteryResetEvent struct {
	GuildID       int64     `json:"guild_id"`
	PreviousRound int64     `json:"previous_round"`
	Round         int64     `json:"round"`
	RoundDeadline time.Time `json:"round_deadline"`
}

func (e LotteryResetEvent) Type() EventType {
	return EventTypeLotteryReset
}

// LedgerConfigChangedEvent is emitted when an administrative setter succeeds
type LedgerConfigChangedEvent struct {
	GuildID  int64  `json:"guild_id"`
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

func (e LedgerConfigChangedEvent) Type() EventType {
	return EventTypeLedgerConfigChanged
}

// RoundEndedEvent is emitted once per round after its deadline passes
type RoundEndedEvent struct {
	GuildID       int64     `json:"guild_id"`
	Round         int64     `json:"round"`
	RoundDeadline time.Time `json:"round_deadline"`
	TicketsSold   int64     `json:"tickets_sold"`
	PrizePool     int64     `json:"prize_pool"`
}

func (e RoundEndedEvent) Type() EventType {
	return EventTypeRoundEnded
}
