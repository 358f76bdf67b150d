package application

import (
	"context"

	"lbclottery/domain/events"
	"lbclottery/domain/interfaces"
)

// TransactionalEventPublisher buffers events until the surrounding transaction ends
type TransactionalEventPublisher interface {
	interfaces.EventPublisher

	// Flush publishes the buffered events; called after commit
	Flush(ctx context.Context) error

	// Discard drops the buffered events; called on rollback
	Discard()
}

// LedgerMetrics records ledger activity
type LedgerMetrics interface {
	RecordLedgerOperation(operation string, outcome string)
	RecordTicketsPurchased(count, cost int64)
	RecordFundsWithdrawn(amount int64)
}

// RoundEndNotifier is told about ended rounds after they are committed, e.g. to post to Discord
type RoundEndNotifier interface {
	NotifyRoundEnded(ctx context.Context, event events.RoundEndedEvent) error
}
