package entities

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLedgerState_Phase(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		paused   bool
		want     Phase
	}{
		{
			name:     "live before deadline",
			deadline: now.Add(time.Hour),
			want:     PhaseLive,
		},
		{
			name:     "paused before deadline",
			deadline: now.Add(time.Hour),
			paused:   true,
			want:     PhasePaused,
		},
		{
			name:     "ended exactly at deadline",
			deadline: now,
			want:     PhaseEnded,
		},
		{
			name:     "ended wins over stale pause flag",
			deadline: now.Add(-time.Second),
			paused:   true,
			want:     PhaseEnded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			state := &LedgerState{RoundDeadline: tt.deadline, IsPaused: tt.paused}
			assert.Equal(t, tt.want, state.Phase(now))
			assert.Equal(t, tt.want != PhaseEnded, state.IsLive(now))
			assert.Equal(t, tt.want == PhaseEnded, state.IsEnded(now))
		})
	}
}

func TestLedgerState_TimeRemaining(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	state := &LedgerState{RoundDeadline: now.Add(90 * time.Minute)}

	assert.Equal(t, 90*time.Minute, state.TimeRemaining(now))
	assert.Equal(t, time.Duration(0), state.TimeRemaining(now.Add(2*time.Hour)))
}

func TestLedgerState_PauseResume(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	state := &LedgerState{RoundDeadline: now.Add(time.Hour), TicketsSold: 7, PrizePool: 350000}

	state.Pause(now)
	assert.True(t, state.IsPaused)
	assert.Equal(t, now, state.PauseTimestamp)
	assert.False(t, state.CanPurchaseTickets(now))

	state.Resume()
	assert.False(t, state.IsPaused)
	assert.True(t, state.PauseTimestamp.IsZero())
	assert.True(t, state.CanPurchaseTickets(now))
	assert.Equal(t, int64(7), state.TicketsSold)
	assert.Equal(t, int64(350000), state.PrizePool)
}

func TestLedgerState_StartNextRound(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	state := &LedgerState{
		RoundDeadline: start,
		Round:         1,
		TicketsSold:   100,
		PrizePool:     5000000,
	}

	now := start.Add(24 * time.Hour)
	state.StartNextRound(now)

	assert.Equal(t, int64(0), state.TicketsSold)
	assert.Equal(t, int64(0), state.PrizePool)
	assert.Equal(t, int64(2), state.Round)
	assert.Equal(t, now.Add(RoundDuration), state.RoundDeadline)
	assert.True(t, state.RoundDeadline.After(start))
	assert.True(t, state.IsLive(now))
}

func TestLedgerState_IsAdministrator(t *testing.T) {
	t.Parallel()

	state := &LedgerState{Administrator: 42}
	assert.True(t, state.IsAdministrator(42))
	assert.False(t, state.IsAdministrator(43))

	unowned := &LedgerState{}
	assert.False(t, unowned.IsAdministrator(0))
}

func TestTokenAddress_IsZero(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address TokenAddress
		want    bool
	}{
		{"", true},
		{"   ", true},
		{ZeroTokenAddress, true},
		{"0x0", true},
		{"0X0000", true},
		{"0x5FbDB2315678afecb367f032d93F642f64180aa3", false},
		{"lbc", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.address.IsZero(), "address %q", tt.address)
	}
}

func TestTokenAddress_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		address TokenAddress
		want    bool
	}{
		{"mixed case", "0x5FbDB2315678afecb367f032d93F642f64180aa3", true},
		{"upper prefix", "0X5FBDB2315678AFECB367F032D93F642F64180AA3", true},
		{"surrounding space", " 0x5fbdb2315678afecb367f032d93f642f64180aa3 ", true},
		{"empty", "", false},
		{"null address", ZeroTokenAddress, false},
		{"free text", "hello world", false},
		{"missing prefix", "5fbdb2315678afecb367f032d93f642f64180aa3", false},
		{"too short", "0xabc", false},
		{"too long", TokenAddress("0x" + strings.Repeat("ab", 30)), false},
		{"non-hex digit", "0x5fbdb2315678afecb367f032d93f642f64180aag", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.address.IsValid())
		})
	}
}
