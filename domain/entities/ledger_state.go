package entities

import (
	"time"
)

// RoundDuration is how long a round stays open after creation or reset
const RoundDuration = 30 * 24 * time.Hour

// Defaults applied when a ledger is created without explicit parameters
const (
	DefaultTicketPrice int64 = 50000
	DefaultMaxBuyLimit int64 = 100
)

// Phase is the lifecycle phase of a ledger, derived from the clock and the pause flag
type Phase string

const (
	PhaseLive   Phase = "live"
	PhasePaused Phase = "paused"
	PhaseEnded  Phase = "ended"
)

// LedgerState is the persisted state of a guild's ticket-sale ledger
type LedgerState struct {
	GuildID        int64        `db:"guild_id"`
	Administrator  int64        `db:"administrator_id"`
	CustodyAccount int64        `db:"custody_account_id"` // Account holding pooled tokens
	TokenAddress   TokenAddress `db:"token_address"`
	TicketPrice    int64        `db:"ticket_price"`
	MaxBuyLimit    int64        `db:"max_buy_limit"`
	RoundDeadline  time.Time    `db:"round_deadline"`
	Round          int64        `db:"round"`
	TicketsSold    int64        `db:"tickets_sold"`
	PrizePool      int64        `db:"prize_pool"`
	IsPaused       bool         `db:"is_paused"`
	PauseTimestamp time.Time    `db:"pause_timestamp"` // Zero when not paused
	AnnouncedRound int64        `db:"announced_round"` // Last round whose end was published
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

// IsLive returns true while the round deadline has not been reached
func (s *LedgerState) IsLive(now time.Time) bool {
	return now.Before(s.RoundDeadline)
}

// IsEnded returns true once now is at or past the round deadline
func (s *LedgerState) IsEnded(now time.Time) bool {
	return !s.IsLive(now)
}

// Phase returns the derived lifecycle phase at now
func (s *LedgerState) Phase(now time.Time) Phase {
	if s.IsEnded(now) {
		return PhaseEnded
	}
	if s.IsPaused {
		return PhasePaused
	}
	return PhaseLive
}

// TimeRemaining returns the time left in the round, or zero once ended
func (s *LedgerState) TimeRemaining(now time.Time) time.Duration {
	if s.IsEnded(now) {
		return 0
	}
	return s.RoundDeadline.Sub(now)
}

// IsAdministrator reports whether account holds administrative rights over the ledger
func (s *LedgerState) IsAdministrator(account int64) bool {
	return s.Administrator != 0 && s.Administrator == account
}

// CanPurchaseTickets returns true if a purchase would pass the lifecycle checks
func (s *LedgerState) CanPurchaseTickets(now time.Time) bool {
	return !s.IsPaused && s.IsLive(now)
}

// Pause marks the ledger paused at now
func (s *LedgerState) Pause(now time.Time) {
	s.IsPaused = true
	s.PauseTimestamp = now
}

// Resume clears the pause flag and timestamp
func (s *LedgerState) Resume() {
	s.IsPaused = false
	s.PauseTimestamp = time.Time{}
}

// StartNextRound clears the round counters and opens a new round at now
func (s *LedgerState) StartNextRound(now time.Time) {
	s.TicketsSold = 0
	s.PrizePool = 0
	s.RoundDeadline = now.Add(RoundDuration)
	s.Round++
	s.Resume()
}

// LedgerParams holds the parameters a new ledger is created with
type LedgerParams struct {
	Administrator  int64
	CustodyAccount int64
	TokenAddress   TokenAddress
	TicketPrice    int64
	MaxBuyLimit    int64
}

// LedgerSummary is a read-only view of a ledger together with values derived at read time
type LedgerSummary struct {
	State          *LedgerState
	Phase          Phase
	TimeRemaining  time.Duration
	CustodyBalance int64
}
