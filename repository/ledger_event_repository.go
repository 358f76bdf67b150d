package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"lbclottery/domain/entities"
	"lbclottery/domain/interfaces"
)

// LedgerEventRepository implements the ledger audit log
type LedgerEventRepository struct {
	q       Queryable
	guildID int64
}

// NewLedgerEventRepositoryScoped creates a new ledger event repository with guild scope
func NewLedgerEventRepositoryScoped(tx Queryable, guildID int64) interfaces.LedgerEventRepository {
	return &LedgerEventRepository{
		q:       tx,
		guildID: guildID,
	}
}

// Record appends an audit record
func (r *LedgerEventRepository) Record(ctx context.Context, event *entities.LedgerEvent) error {
	var metadataJSON []byte
	if event.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal event metadata: %w", err)
		}
	}

	query := `
		INSERT INTO ledger_events (guild_id, round, kind, actor_id, amount, count, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		r.guildID, // Use repository's guild scope
		event.Round,
		event.Kind,
		event.ActorID,
		event.Amount,
		event.Count,
		metadataJSON,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record %s event: %w", event.Kind, err)
	}

	event.GuildID = r.guildID
	return nil
}

// ListRecent returns the newest events first
func (r *LedgerEventRepository) ListRecent(ctx context.Context, limit int) ([]*entities.LedgerEvent, error) {
	query := `
		SELECT id, guild_id, round, kind, actor_id, amount, count, metadata, created_at
		FROM ledger_events
		WHERE guild_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, r.guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger events: %w", err)
	}
	defer rows.Close()

	var ledgerEvents []*entities.LedgerEvent
	for rows.Next() {
		var event entities.LedgerEvent
		var metadataJSON []byte

		err := rows.Scan(
			&event.ID,
			&event.GuildID,
			&event.Round,
			&event.Kind,
			&event.ActorID,
			&event.Amount,
			&event.Count,
			&metadataJSON,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger event: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &event.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event metadata: %w", err)
			}
		}

		ledgerEvents = append(ledgerEvents, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger events: %w", err)
	}

	return ledgerEvents, nil
}
