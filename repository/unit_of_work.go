package repository

import (
	"context"
	"fmt"

	"lbclottery/application"
	"lbclottery/database"
	"lbclottery/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements application.UnitOfWork on a single pgx transaction
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	guildID                int64
	transactionalPublisher application.TransactionalEventPublisher
	ledgerStateRepo        interfaces.LedgerStateRepository
	tokenAccountRepo       interfaces.TokenAccountRepository
	ledgerEventRepo        interfaces.LedgerEventRepository
}

type unitOfWorkFactory struct {
	db *database.DB
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{
		db: db,
	}
}

// CreateForGuildWithPublisher creates a new UnitOfWork with a specific transactional publisher
func (f *unitOfWorkFactory) CreateForGuildWithPublisher(guildID int64, transactionalPublisher application.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		guildID:                guildID,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create guild-scoped repositories with the transaction
	u.ledgerStateRepo = NewLedgerStateRepositoryScoped(tx, u.guildID)
	u.tokenAccountRepo = NewTokenLedgerRepositoryScoped(tx, u.guildID)
	u.ledgerEventRepo = NewLedgerEventRepositoryScoped(tx, u.guildID)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Events are best-effort once the transaction has committed
	if u.transactionalPublisher != nil {
		_ = u.transactionalPublisher.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// LedgerStateRepository returns the ledger state repository for this unit of work
func (u *unitOfWork) LedgerStateRepository() interfaces.LedgerStateRepository {
	if u.ledgerStateRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerStateRepo
}

// TokenAccountRepository returns the token ledger for this unit of work
func (u *unitOfWork) TokenAccountRepository() interfaces.TokenAccountRepository {
	if u.tokenAccountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.tokenAccountRepo
}

// LedgerEventRepository returns the audit log for this unit of work
func (u *unitOfWork) LedgerEventRepository() interfaces.LedgerEventRepository {
	if u.ledgerEventRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerEventRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalPublisher
}
