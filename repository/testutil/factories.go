package testutil

import (
	"context"
	"testing"
	"time"

	"lbclottery/database"
	"lbclottery/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// TestTokenAddress is the token the factories use
const TestTokenAddress entities.TokenAddress = "0x5fbdb2315678afecb367f032d93f642f64180aa3"

// CreateTestLedgerState creates a live round-1 ledger with the default parameters
func CreateTestLedgerState(administrator, custody int64, deadline time.Time) *entities.LedgerState {
	return &entities.LedgerState{
		Administrator:  administrator,
		CustodyAccount: custody,
		TokenAddress:   TestTokenAddress,
		TicketPrice:    entities.DefaultTicketPrice,
		MaxBuyLimit:    entities.DefaultMaxBuyLimit,
		RoundDeadline:  deadline.UTC().Truncate(time.Microsecond),
		Round:          1,
	}
}

// CreateTestLedgerEvent creates an audit record for round 1
func CreateTestLedgerEvent(kind entities.LedgerEventKind, actor int64) *entities.LedgerEvent {
	return &entities.LedgerEvent{
		Round:   1,
		Kind:    kind,
		ActorID: actor,
		Metadata: map[string]interface{}{
			"test": true,
		},
	}
}

// SeedTokenBalance sets account's balance directly
func SeedTokenBalance(t *testing.T, db *database.DB, guildID int64, token entities.TokenAddress, account, balance int64) {
	t.Helper()
	err := db.WithTransaction(context.Background(), func(tx pgx.Tx) error {
		_, err := tx.Exec(context.Background(), `
			INSERT INTO token_balances (guild_id, token_address, account_id, balance)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (guild_id, token_address, account_id) DO UPDATE SET balance = EXCLUDED.balance
		`, guildID, token.Normalize(), account, balance)
		return err
	})
	require.NoError(t, err)
}
