package application

import (
	"context"
	"errors"
	"fmt"

	"lbclottery/domain/entities"
	"lbclottery/domain/interfaces"
	"lbclottery/domain/services"

	log "github.com/sirupsen/logrus"
)

// Operation names used for metrics and logs
const (
	OperationCreate       = "create"
	OperationBuyTickets   = "buy_tickets"
	OperationApprove      = "approve"
	OperationPause        = "pause"
	OperationResume       = "resume"
	OperationSetPrice     = "set_ticket_price"
	OperationSetLimit     = "set_max_buy_limit"
	OperationSetToken     = "set_token_address"
	OperationReset        = "reset"
	OperationWithdraw     = "withdraw_all_tokens"
	OperationMint         = "mint"
	OutcomeSuccess        = "success"
	OutcomeRejected       = "rejected"
	OutcomeFailed         = "failed"
	defaultEventListLimit = 20
	maxEventListLimit     = 100
)

// LedgerDefaults are the parameters a guild's ledger is created with on first use
type LedgerDefaults struct {
	Administrator  int64
	CustodyAccount int64
	TokenAddress   entities.TokenAddress
	TicketPrice    int64
	MaxBuyLimit    int64
}

func (d LedgerDefaults) params() entities.LedgerParams {
	return entities.LedgerParams{
		Administrator:  d.Administrator,
		CustodyAccount: d.CustodyAccount,
		TokenAddress:   d.TokenAddress,
		TicketPrice:    d.TicketPrice,
		MaxBuyLimit:    d.MaxBuyLimit,
	}
}

// AccountInfo is a token account as seen from a guild's ledger
type AccountInfo struct {
	Account   int64
	Token     entities.TokenAddress
	Balance   int64
	Allowance int64 // Amount the ledger's custody account may pull
}

// LedgerHandler runs ledger operations, one unit of work per call
type LedgerHandler struct {
	uowFactory UnitOfWorkFactory
	defaults   LedgerDefaults
	clock      interfaces.Clock
	metrics    LedgerMetrics
}

// NewLedgerHandler creates a new ledger handler. metrics may be nil.
func NewLedgerHandler(uowFactory UnitOfWorkFactory, defaults LedgerDefaults, clock interfaces.Clock, metrics LedgerMetrics) *LedgerHandler {
	if clock == nil {
		clock = services.SystemClock{}
	}
	return &LedgerHandler{
		uowFactory: uowFactory,
		defaults:   defaults,
		clock:      clock,
		metrics:    metrics,
	}
}

// EnsureLedger returns the guild's ledger, creating it from the defaults on first use
func (h *LedgerHandler) EnsureLedger(ctx context.Context, guildID int64) (*entities.LedgerState, error) {
	var state *entities.LedgerState
	err := h.withLedger(ctx, guildID, OperationCreate, func(uow UnitOfWork, ledger interfaces.LotteryLedgerService) error {
		var err error
		state, err = ledger.GetOrCreateLedger(ctx, h.defaults.params())
		return err
	})
	return state, err
}

// GetSummary returns the guild's ledger summary
func (h *LedgerHandler) GetSummary(ctx context.Context, guildID int64) (*entities.LedgerSummary, error) {
	var summary *entities.LedgerSummary
	err := h.withReadOnlyLedger(ctx, guildID, func(uow UnitOfWork, ledger interfaces.LotteryLedgerService) error {
		var err error
		summary, err = ledger.GetSummary(ctx)
		return err
	})
	return summary, err
}

// ListEvents returns the guild's most recent audit records
func (h *LedgerHandler) ListEvents(ctx context.Context, guildID int64, limit int) ([]*entities.LedgerEvent, error) {
	if limit <= 0 {
		limit = defaultEventListLimit
	}
	if limit > maxEventListLimit {
		limit = maxEventListLimit
	}

	var ledgerEvents []*entities.LedgerEvent
	err := h.withReadOnlyLedger(ctx, guildID, func(uow UnitOfWork, ledger interfaces.LotteryLedgerService) error {
		if _, err := ledger.GetLedger(ctx); err != nil {
			return err
		}
		var err error
		ledgerEvents, err = uow.LedgerEventRepository().ListRecent(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to list ledger events: %w", err)
		}
		return nil
	})
	return ledgerEvents, err
}

// GetAccount returns account's balance and the allowance it granted the ledger
func (h *LedgerHandler) GetAccount(ctx context.Context, guildID, account int64) (*AccountInfo, error) {
	var info *AccountInfo
	err := h.withReadOnlyLedger(ctx, guildID, func(uow UnitOfWork, ledger interfaces.LotteryLedgerService) error {
		state, err := ledger.GetLedger(ctx)
		if err != nil {
			return err
		}

		tokens := uow.TokenAccountRepository()
		balance, err := tokens.BalanceOf(ctx, state.TokenAddress, account)
		if err != nil {
			return fmt.Errorf("failed to get balance: %w", err)
		}
		allowance, err := tokens.Allowance(ctx, state.TokenAddress, account, state.CustodyAccount)
		if err != nil {
			return fmt.Errorf("failed to get allowance: %w", err)
		}

		info = &AccountInfo{
			Account:   account,
			Token:     state.TokenAddress,
			Balance:   balance,
			Allowance: allowance,
		}
		return nil
	})
	return info, err
}

// Approve lets the ledger pull up to amount from owner's balance
func (h *LedgerHandler) Approve(ctx context.Context, guildID, owner, amount int64) (*AccountInfo, error) {
	if amount < 0 {
		return nil, &entities.InvalidAmountError{Value: amount}
	}

	var info *AccountInfo
	err := h.withLedger(ctx, guildID, OperationApprove, func(uow UnitOfWork, ledger interfaces.LotteryLedgerService) error {
		state, err := ledger.GetOrCreateLedger(ctx, h.defaults.params())
		if err != nil {
			return err
		}

		tokens := uow.TokenAccountRepository()
		if err := tokens.Approve(ctx, state.TokenAddress, owner, state.CustodyAccount, amount); err != nil {
			return fmt.Errorf("failed to approve allowance: %w", err)
		}
		balance, err := tokens.BalanceOf(ctx, state.TokenAddress, owner)
		if err != nil {
			return fmt.Errorf("failed to get balance: %w", err)
		}

		info = &AccountInfo{
			Account:   owner,
			Token:     state.TokenAddress,
			Balance:   balance,
			Allowance: amount,
		}
		return nil
	})
	return info, err
}

// Mint credits amount of the ledger's current token to account
func (h *LedgerHandler) Mint(ctx context.Context, guildID, account, amount int64) (*AccountInfo, error) {
	if amount <= 0 {
		return nil, &entities.InvalidAmountError{Value: amount}
	}

	var info *AccountInfo
	err := h.withLedger(ctx, guildID, OperationMint, func(uow UnitOfWork, ledger interfaces.LotteryLedgerService) error {
		state, err := ledger.GetOrCreateLedger(ctx, h.defaults.params())
		if err != nil {
			return err
		}

		tokens := uow.TokenAccountRepository()
		if err := tokens.Mint(ctx, state.TokenAddress, account, amount); err != nil {
			return fmt.Errorf("failed to mint tokens: %w", err)
		}
		balance, err := tokens.BalanceOf(ctx, state.TokenAddress, account)
		if err != nil {
			return fmt.Errorf("failed to get balance: %w", err)
		}

		info = &AccountInfo{Account: account, Token: state.TokenAddress, Balance: balance}
		return nil
	})
	return info, err
}

// BuyTickets buys count tickets for buyer, creating the ledger on first use
func (h *LedgerHandler) BuyTickets(ctx context.Context, guildID, buyer, count int64) (*interfaces.LotteryPurchaseResult, error) {
	var result *interfaces.LotteryPurchaseResult
	err := h.withLedger(ctx, guildID, OperationBuyTickets, func(uow UnitOfWork, ledger interfaces.LotteryLedgerService) error {
		if _, err := ledger.GetOrCreateLedger(ctx, h.defaults.params()); err != nil {
			return err
		}
		var err error
		result, err = ledger.BuyTickets(ctx, buyer, count)
		return err
	})
	if err == nil && h.metrics != nil {
		h.metrics.RecordTicketsPurchased(result.Count, result.Cost)
	}
	return result, err
}

// PauseLottery pauses the guild's live round
func (h *LedgerHandler) PauseLottery(ctx context.Context, guildID, caller int64) (*entities.LedgerState, error) {
	return h.adminStateOperation(ctx, guildID, OperationPause, func(ledger interfaces.LotteryLedgerService) (*entities.LedgerState, error) {
		return ledger.PauseLottery(ctx, caller)
	})
}

// ResumeLottery resumes the guild's paused round
func (h *LedgerHandler) ResumeLottery(ctx context.Context, guildID, caller int64) (*entities.LedgerState, error) {
	return h.adminStateOperation(ctx, guildID, OperationResume, func(ledger interfaces.LotteryLedgerService) (*entities.LedgerState, error) {
		return ledger.ResumeLottery(ctx, caller)
	})
}

// SetTicketPrice changes the ticket price of an ended round
func (h *LedgerHandler) SetTicketPrice(ctx context.Context, guildID, caller, price int64) (*entities.LedgerState, error) {
	return h.adminStateOperation(ctx, guildID, OperationSetPrice, func(ledger interfaces.LotteryLedgerService) (*entities.LedgerState, error) {
		return ledger.SetTicketPrice(ctx, caller, price)
	})
}

// SetMaxBuyLimit changes the per-purchase cap of an ended round
func (h *LedgerHandler) SetMaxBuyLimit(ctx context.Context, guildID, caller, limit int64) (*entities.LedgerState, error) {
	return h.adminStateOperation(ctx, guildID, OperationSetLimit, func(ledger interfaces.LotteryLedgerService) (*entities.LedgerState, error) {
		return ledger.SetMaxBuyLimit(ctx, caller, limit)
	})
}

// SetTokenAddress changes the token of an ended round
func (h *LedgerHandler) SetTokenAddress(ctx context.Context, guildID, caller int64, token entities.TokenAddress) (*entities.LedgerState, error) {
	return h.adminStateOperation(ctx, guildID, OperationSetToken, func(ledger interfaces.LotteryLedgerService) (*entities.LedgerState, error) {
		return ledger.SetTokenAddress(ctx, caller, token)
	})
}

// Reset opens the next round of an ended ledger
func (h *LedgerHandler) Reset(ctx context.Context, guildID, caller int64) (*entities.LedgerState, error) {
	return h.adminStateOperation(ctx, guildID, OperationReset, func(ledger interfaces.LotteryLedgerService) (*entities.LedgerState, error) {
		return ledger.Reset(ctx, caller)
	})
}

// WithdrawAllTokens drains the guild's custody balance to its administrator
func (h *LedgerHandler) WithdrawAllTokens(ctx context.Context, guildID, caller int64) (int64, error) {
	var amount int64
	err := h.withLedger(ctx, guildID, OperationWithdraw, func(uow UnitOfWork, ledger interfaces.LotteryLedgerService) error {
		var err error
		amount, err = ledger.WithdrawAllTokens(ctx, caller)
		return err
	})
	if err == nil && h.metrics != nil {
		h.metrics.RecordFundsWithdrawn(amount)
	}
	return amount, err
}

func (h *LedgerHandler) adminStateOperation(ctx context.Context, guildID int64, operation string, fn func(interfaces.LotteryLedgerService) (*entities.LedgerState, error)) (*entities.LedgerState, error) {
	var state *entities.LedgerState
	err := h.withLedger(ctx, guildID, operation, func(uow UnitOfWork, ledger interfaces.LotteryLedgerService) error {
		var err error
		state, err = fn(ledger)
		return err
	})
	return state, err
}

// withLedger runs fn in a new unit of work and commits only if fn succeeds
func (h *LedgerHandler) withLedger(ctx context.Context, guildID int64, operation string, fn func(UnitOfWork, interfaces.LotteryLedgerService) error) error {
	uow := h.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		h.recordOutcome(operation, err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := fn(uow, h.newLedgerService(uow)); err != nil {
		h.recordOutcome(operation, err)
		if !entities.IsUserError(err) {
			log.WithFields(log.Fields{
				"guild_id":  guildID,
				"operation": operation,
				"error":     err,
			}).Error("Ledger operation failed")
		}
		return err
	}

	if err := uow.Commit(); err != nil {
		h.recordOutcome(operation, err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	h.recordOutcome(operation, nil)
	return nil
}

// withReadOnlyLedger runs fn in a unit of work that is always rolled back
func (h *LedgerHandler) withReadOnlyLedger(ctx context.Context, guildID int64, fn func(UnitOfWork, interfaces.LotteryLedgerService) error) error {
	uow := h.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return fn(uow, h.newLedgerService(uow))
}

func (h *LedgerHandler) newLedgerService(uow UnitOfWork) interfaces.LotteryLedgerService {
	return services.NewLotteryLedgerService(
		uow.LedgerStateRepository(),
		uow.TokenAccountRepository(),
		uow.LedgerEventRepository(),
		uow.EventBus(),
		h.clock,
	)
}

func (h *LedgerHandler) recordOutcome(operation string, err error) {
	if h.metrics == nil {
		return
	}
	switch {
	case err == nil:
		h.metrics.RecordLedgerOperation(operation, OutcomeSuccess)
	case entities.IsUserError(err), errors.Is(err, entities.ErrLedgerExists):
		h.metrics.RecordLedgerOperation(operation, OutcomeRejected)
	default:
		h.metrics.RecordLedgerOperation(operation, OutcomeFailed)
	}
}
