package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lbclottery/domain/entities"
	"lbclottery/domain/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const ledgerStateColumns = `
	guild_id, administrator_id, custody_account_id, token_address, ticket_price,
	max_buy_limit, round_deadline, round, tickets_sold, prize_pool, is_paused,
	pause_timestamp, announced_round, created_at, updated_at`

// LedgerStateRepository implements ledger state data access
type LedgerStateRepository struct {
	q       Queryable
	guildID int64
}

// NewLedgerStateRepositoryScoped creates a new ledger state repository with guild scope
func NewLedgerStateRepositoryScoped(tx Queryable, guildID int64) interfaces.LedgerStateRepository {
	return &LedgerStateRepository{
		q:       tx,
		guildID: guildID,
	}
}

// Get returns the guild's ledger, or nil if none exists
func (r *LedgerStateRepository) Get(ctx context.Context) (*entities.LedgerState, error) {
	query := `SELECT ` + ledgerStateColumns + ` FROM ledger_states WHERE guild_id = $1`

	state, err := scanLedgerState(r.q.QueryRow(ctx, query, r.guildID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger for guild %d: %w", r.guildID, err)
	}
	return state, nil
}

// GetForUpdate returns the guild's ledger with a row lock
func (r *LedgerStateRepository) GetForUpdate(ctx context.Context) (*entities.LedgerState, error) {
	query := `SELECT ` + ledgerStateColumns + ` FROM ledger_states WHERE guild_id = $1 FOR UPDATE`

	state, err := scanLedgerState(r.q.QueryRow(ctx, query, r.guildID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger for update for guild %d: %w", r.guildID, err)
	}
	return state, nil
}

// Create inserts a new ledger for the scoped guild
func (r *LedgerStateRepository) Create(ctx context.Context, state *entities.LedgerState) error {
	query := `
		INSERT INTO ledger_states (
			guild_id, administrator_id, custody_account_id, token_address, ticket_price,
			max_buy_limit, round_deadline, round, tickets_sold, prize_pool, is_paused,
			pause_timestamp, announced_round
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (guild_id) DO NOTHING
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		r.guildID,
		state.Administrator,
		state.CustodyAccount,
		state.TokenAddress,
		state.TicketPrice,
		state.MaxBuyLimit,
		state.RoundDeadline,
		state.Round,
		state.TicketsSold,
		state.PrizePool,
		state.IsPaused,
		nullableTime(state.PauseTimestamp),
		state.AnnouncedRound,
	).Scan(&state.CreatedAt, &state.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Another transaction created it first; the transaction stays usable
		return entities.ErrLedgerExists
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return entities.ErrLedgerExists
		}
		return fmt.Errorf("failed to create ledger: %w", err)
	}

	state.GuildID = r.guildID
	return nil
}

// Update persists every mutable field of the ledger
func (r *LedgerStateRepository) Update(ctx context.Context, state *entities.LedgerState) error {
	query := `
		UPDATE ledger_states
		SET token_address = $2,
		    ticket_price = $3,
		    max_buy_limit = $4,
		    round_deadline = $5,
		    round = $6,
		    tickets_sold = $7,
		    prize_pool = $8,
		    is_paused = $9,
		    pause_timestamp = $10,
		    updated_at = NOW()
		WHERE guild_id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		r.guildID,
		state.TokenAddress,
		state.TicketPrice,
		state.MaxBuyLimit,
		state.RoundDeadline,
		state.Round,
		state.TicketsSold,
		state.PrizePool,
		state.IsPaused,
		nullableTime(state.PauseTimestamp),
	).Scan(&state.UpdatedAt)
	if err == pgx.ErrNoRows {
		return entities.ErrLedgerNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update ledger: %w", err)
	}

	return nil
}

// GetLedgersWithUnannouncedEnd returns ended rounds across all guilds that were not published yet
func (r *LedgerStateRepository) GetLedgersWithUnannouncedEnd(ctx context.Context, now time.Time) ([]*entities.LedgerState, error) {
	query := `
		SELECT ` + ledgerStateColumns + `
		FROM ledger_states
		WHERE announced_round < round
		  AND round_deadline <= $1
		ORDER BY round_deadline ASC
	`

	rows, err := r.q.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query ended rounds: %w", err)
	}
	defer rows.Close()

	var states []*entities.LedgerState
	for rows.Next() {
		state, err := scanLedgerState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger: %w", err)
		}
		states = append(states, state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledgers: %w", err)
	}

	return states, nil
}

// GetNextRoundDeadline returns the earliest unannounced deadline after now, or nil
func (r *LedgerStateRepository) GetNextRoundDeadline(ctx context.Context, now time.Time) (*time.Time, error) {
	query := `
		SELECT MIN(round_deadline)
		FROM ledger_states
		WHERE announced_round < round
		  AND round_deadline > $1
	`

	var next *time.Time
	if err := r.q.QueryRow(ctx, query, now).Scan(&next); err != nil {
		return nil, fmt.Errorf("failed to get next round deadline: %w", err)
	}

	return next, nil
}

// MarkRoundAnnounced records that the end of round was published for guildID
func (r *LedgerStateRepository) MarkRoundAnnounced(ctx context.Context, guildID, round int64) error {
	query := `
		UPDATE ledger_states
		SET announced_round = GREATEST(announced_round, $2)
		WHERE guild_id = $1
	`

	result, err := r.q.Exec(ctx, query, guildID, round)
	if err != nil {
		return fmt.Errorf("failed to mark round announced: %w", err)
	}
	if result.RowsAffected() == 0 {
		return entities.ErrLedgerNotFound
	}

	return nil
}

func scanLedgerState(row pgx.Row) (*entities.LedgerState, error) {
	var state entities.LedgerState
	var pauseTimestamp *time.Time
	err := row.Scan(
		&state.GuildID,
		&state.Administrator,
		&state.CustodyAccount,
		&state.TokenAddress,
		&state.TicketPrice,
		&state.MaxBuyLimit,
		&state.RoundDeadline,
		&state.Round,
		&state.TicketsSold,
		&state.PrizePool,
		&state.IsPaused,
		&pauseTimestamp,
		&state.AnnouncedRound,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if pauseTimestamp != nil {
		state.PauseTimestamp = pauseTimestamp.UTC()
	}
	state.RoundDeadline = state.RoundDeadline.UTC()
	return &state, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
