package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"lbclottery/domain/entities"
	"lbclottery/domain/events"
	"lbclottery/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// lotteryLedgerService implements the ticket-sale ledger for a single guild
type lotteryLedgerService struct {
	ledgerRepo      interfaces.LedgerStateRepository
	tokenLedger     interfaces.TokenLedger
	ledgerEventRepo interfaces.LedgerEventRepository
	eventPublisher  interfaces.EventPublisher
	clock           interfaces.Clock
}

// NewLotteryLedgerService creates a new lottery ledger service
func NewLotteryLedgerService(
	ledgerRepo interfaces.LedgerStateRepository,
	tokenLedger interfaces.TokenLedger,
	ledgerEventRepo interfaces.LedgerEventRepository,
	eventPublisher interfaces.EventPublisher,
	clock interfaces.Clock,
) interfaces.LotteryLedgerService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &lotteryLedgerService{
		ledgerRepo:      ledgerRepo,
		tokenLedger:     tokenLedger,
		ledgerEventRepo: ledgerEventRepo,
		eventPublisher:  eventPublisher,
		clock:           clock,
	}
}

// CreateLedger validates params and opens round 1
func (s *lotteryLedgerService) CreateLedger(ctx context.Context, params entities.LedgerParams) (*entities.LedgerState, error) {
	if params.Administrator == 0 {
		return nil, errors.New("administrator is required")
	}
	if params.CustodyAccount == 0 {
		return nil, errors.New("custody account is required")
	}
	if params.TicketPrice <= 0 {
		return nil, &entities.InvalidAmountError{Value: params.TicketPrice}
	}
	if params.MaxBuyLimit <= 0 {
		return nil, &entities.InvalidAmountError{Value: params.MaxBuyLimit}
	}
	if !params.TokenAddress.IsValid() {
		return nil, &entities.InvalidTokenAddressError{Value: params.TokenAddress}
	}

	existing, err := s.ledgerRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	if existing != nil {
		return nil, entities.ErrLedgerExists
	}

	now := s.clock.Now()
	state := &entities.LedgerState{
		GuildID:        0, // Will be set by repository from UoW's guild scope
		Administrator:  params.Administrator,
		CustodyAccount: params.CustodyAccount,
		TokenAddress:   params.TokenAddress.Normalize(),
		TicketPrice:    params.TicketPrice,
		MaxBuyLimit:    params.MaxBuyLimit,
		RoundDeadline:  now.Add(entities.RoundDuration),
		Round:          1,
	}
	if err := s.ledgerRepo.Create(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to create ledger: %w", err)
	}

	if err := s.recordEvent(ctx, state, entities.LedgerEventCreated, params.Administrator, 0, 0, map[string]interface{}{
		"ticket_price":  state.TicketPrice,
		"max_buy_limit": state.MaxBuyLimit,
		"token_address": state.TokenAddress.String(),
	}); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"guild_id":       state.GuildID,
		"administrator":  state.Administrator,
		"round_deadline": state.RoundDeadline,
	}).Info("Lottery ledger created")

	return state, nil
}

// GetOrCreateLedger returns the existing ledger or creates one
func (s *lotteryLedgerService) GetOrCreateLedger(ctx context.Context, params entities.LedgerParams) (*entities.LedgerState, error) {
	state, err := s.ledgerRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	if state != nil {
		return state, nil
	}

	state, err = s.CreateLedger(ctx, params)
	if errors.Is(err, entities.ErrLedgerExists) {
		// Lost a creation race
		return s.GetLedger(ctx)
	}
	return state, err
}

// GetLedger returns the guild's ledger
func (s *lotteryLedgerService) GetLedger(ctx context.Context) (*entities.LedgerState, error) {
	state, err := s.ledgerRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	if state == nil {
		return nil, entities.ErrLedgerNotFound
	}
	return state, nil
}

// GetSummary returns the ledger with values derived at read time
func (s *lotteryLedgerService) GetSummary(ctx context.Context) (*entities.LedgerSummary, error) {
	state, err := s.GetLedger(ctx)
	if err != nil {
		return nil, err
	}

	balance, err := s.tokenLedger.BalanceOf(ctx, state.TokenAddress, state.CustodyAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to get custody balance: %w", err)
	}

	now := s.clock.Now()
	return &entities.LedgerSummary{
		State:          state,
		Phase:          state.Phase(now),
		TimeRemaining:  state.TimeRemaining(now),
		CustodyBalance: balance,
	}, nil
}

// CustodyBalance returns the token balance held in custody
func (s *lotteryLedgerService) CustodyBalance(ctx context.Context) (int64, error) {
	state, err := s.GetLedger(ctx)
	if err != nil {
		return 0, err
	}

	balance, err := s.tokenLedger.BalanceOf(ctx, state.TokenAddress, state.CustodyAccount)
	if err != nil {
		return 0, fmt.Errorf("failed to get custody balance: %w", err)
	}
	return balance, nil
}

// BuyTickets buys count tickets for buyer. Checks run in a fixed order and the first
// failure is reported: paused, not live, count <= 0, count above limit, cost overflow,
// then the token pull. Nothing is written unless the pull succeeds.
func (s *lotteryLedgerService) BuyTickets(ctx context.Context, buyer int64, count int64) (*interfaces.LotteryPurchaseResult, error) {
	state, err := s.lockLedger(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if state.IsPaused {
		return nil, entities.ErrContractPaused
	}
	if !state.IsLive(now) {
		return nil, entities.ErrLotteryNotLive
	}
	if count <= 0 {
		return nil, &entities.InvalidAmountError{Value: count}
	}
	if count > state.MaxBuyLimit {
		return nil, &entities.MaxBuyLimitError{Count: count, Limit: state.MaxBuyLimit}
	}
	if count > math.MaxInt64/state.TicketPrice {
		return nil, entities.ErrAmountOverflow
	}
	cost := count * state.TicketPrice
	if state.PrizePool > math.MaxInt64-cost || state.TicketsSold > math.MaxInt64-count {
		return nil, entities.ErrAmountOverflow
	}

	if err := s.tokenLedger.PullTransfer(ctx, state.TokenAddress, buyer, state.CustodyAccount, cost); err != nil {
		return nil, &entities.TransferError{Op: "pull", Amount: cost, Err: err}
	}

	state.TicketsSold += count
	state.PrizePool += cost
	if err := s.ledgerRepo.Update(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to update ledger: %w", err)
	}

	if err := s.recordEvent(ctx, state, entities.LedgerEventTicketsPurchased, buyer, cost, count, map[string]interface{}{
		"ticket_price": state.TicketPrice,
	}); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.TicketsPurchasedEvent{
		GuildID:        state.GuildID,
		Round:          state.Round,
		Buyer:          buyer,
		CustodyAccount: state.CustodyAccount,
		Count:          count,
		Cost:           cost,
		TicketsSold:    state.TicketsSold,
		PrizePool:      state.PrizePool,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish purchase event: %w", err)
	}

	buyerBalance, err := s.tokenLedger.BalanceOf(ctx, state.TokenAddress, buyer)
	if err != nil {
		return nil, fmt.Errorf("failed to get buyer balance: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id":     state.GuildID,
		"round":        state.Round,
		"buyer":        buyer,
		"count":        count,
		"cost":         cost,
		"tickets_sold": state.TicketsSold,
		"prize_pool":   state.PrizePool,
	}).Info("Lottery tickets purchased")

	return &interfaces.LotteryPurchaseResult{
		State:        state,
		Count:        count,
		Cost:         cost,
		BuyerBalance: buyerBalance,
	}, nil
}

// PauseLottery pauses a live round
func (s *lotteryLedgerService) PauseLottery(ctx context.Context, caller int64) (*entities.LedgerState, error) {
	state, err := s.lockLedgerAsAdministrator(ctx, caller)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if state.IsPaused {
		return nil, entities.ErrAlreadyPaused
	}
	if !state.IsLive(now) {
		return nil, entities.ErrLotteryNotLive
	}

	state.Pause(now)
	if err := s.ledgerRepo.Update(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to update ledger: %w", err)
	}
	if err := s.recordEvent(ctx, state, entities.LedgerEventPaused, caller, 0, 0, nil); err != nil {
		return nil, err
	}
	if err := s.eventPublisher.Publish(events.LotteryPausedEvent{
		GuildID:  state.GuildID,
		Round:    state.Round,
		PausedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish pause event: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id": state.GuildID,
		"round":    state.Round,
	}).Info("Lottery paused")

	return state, nil
}

// ResumeLottery resumes a paused live round
func (s *lotteryLedgerService) ResumeLottery(ctx context.Context, caller int64) (*entities.LedgerState, error) {
	state, err := s.lockLedgerAsAdministrator(ctx, caller)
	if err != nil {
		return nil, err
	}

	if !state.IsLive(s.clock.Now()) {
		return nil, entities.ErrLotteryNotLive
	}
	if !state.IsPaused {
		return nil, entities.ErrNotPaused
	}

	state.Resume()
	if err := s.ledgerRepo.Update(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to update ledger: %w", err)
	}
	if err := s.recordEvent(ctx, state, entities.LedgerEventResumed, caller, 0, 0, nil); err != nil {
		return nil, err
	}
	if err := s.eventPublisher.Publish(events.LotteryResumedEvent{
		GuildID: state.GuildID,
		Round:   state.Round,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish resume event: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id": state.GuildID,
		"round":    state.Round,
	}).Info("Lottery resumed")

	return state, nil
}

// SetTicketPrice changes the ticket price once the round has ended
func (s *lotteryLedgerService) SetTicketPrice(ctx context.Context, caller int64, price int64) (*entities.LedgerState, error) {
	state, err := s.lockEndedLedgerAsAdministrator(ctx, caller)
	if err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, &entities.InvalidAmountError{Value: price}
	}

	old := state.TicketPrice
	state.TicketPrice = price
	return s.applyConfigChange(ctx, state, caller, entities.LedgerEventTicketPriceSet, "ticket_price",
		strconv.FormatInt(old, 10), strconv.FormatInt(price, 10))
}

// SetMaxBuyLimit changes the per-purchase ticket cap once the round has ended
func (s *lotteryLedgerService) SetMaxBuyLimit(ctx context.Context, caller int64, limit int64) (*entities.LedgerState, error) {
	state, err := s.lockEndedLedgerAsAdministrator(ctx, caller)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, &entities.InvalidAmountError{Value: limit}
	}

	old := state.MaxBuyLimit
	state.MaxBuyLimit = limit
	return s.applyConfigChange(ctx, state, caller, entities.LedgerEventMaxBuyLimitSet, "max_buy_limit",
		strconv.FormatInt(old, 10), strconv.FormatInt(limit, 10))
}

// SetTokenAddress changes the ledger's token once the round has ended
func (s *lotteryLedgerService) SetTokenAddress(ctx context.Context, caller int64, token entities.TokenAddress) (*entities.LedgerState, error) {
	state, err := s.lockEndedLedgerAsAdministrator(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !token.IsValid() {
		return nil, &entities.InvalidTokenAddressError{Value: token}
	}

	old := state.TokenAddress
	state.TokenAddress = token.Normalize()
	return s.applyConfigChange(ctx, state, caller, entities.LedgerEventTokenAddressSet, "token_address",
		old.String(), state.TokenAddress.String())
}

// Reset clears the counters of an ended round and opens the next one
func (s *lotteryLedgerService) Reset(ctx context.Context, caller int64) (*entities.LedgerState, error) {
	state, err := s.lockLedgerAsAdministrator(ctx, caller)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if state.IsLive(now) {
		return nil, entities.ErrLotteryStillLive
	}

	previousRound := state.Round
	clearedPool := state.PrizePool
	clearedTickets := state.TicketsSold
	state.StartNextRound(now)

	if err := s.ledgerRepo.Update(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to update ledger: %w", err)
	}
	if err := s.recordEvent(ctx, state, entities.LedgerEventReset, caller, 0, 0, map[string]interface{}{
		"previous_round":  previousRound,
		"cleared_pool":    clearedPool,
		"cleared_tickets": clearedTickets,
	}); err != nil {
		return nil, err
	}
	if err := s.eventPublisher.Publish(events.LotteryResetEvent{
		GuildID:       state.GuildID,
		PreviousRound: previousRound,
		Round:         state.Round,
		RoundDeadline: state.RoundDeadline,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish reset event: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id":       state.GuildID,
		"round":          state.Round,
		"round_deadline": state.RoundDeadline,
	}).Info("Lottery reset")

	return state, nil
}

// WithdrawAllTokens pushes the entire custody balance to the administrator.
// The prize pool counter is left as is; only Reset clears it.
func (s *lotteryLedgerService) WithdrawAllTokens(ctx context.Context, caller int64) (int64, error) {
	state, err := s.lockEndedLedgerAsAdministrator(ctx, caller)
	if err != nil {
		return 0, err
	}

	balance, err := s.tokenLedger.BalanceOf(ctx, state.TokenAddress, state.CustodyAccount)
	if err != nil {
		return 0, fmt.Errorf("failed to get custody balance: %w", err)
	}
	if balance <= 0 {
		return 0, entities.ErrNothingToWithdraw
	}

	if err := s.tokenLedger.PushTransfer(ctx, state.TokenAddress, state.CustodyAccount, state.Administrator, balance); err != nil {
		return 0, &entities.TransferError{Op: "push", Amount: balance, Err: err}
	}

	if err := s.recordEvent(ctx, state, entities.LedgerEventFundsWithdrawn, caller, balance, 0, nil); err != nil {
		return 0, err
	}
	if err := s.eventPublisher.Publish(events.AllFundsWithdrawnEvent{
		GuildID:       state.GuildID,
		Round:         state.Round,
		Administrator: state.Administrator,
		Amount:        balance,
	}); err != nil {
		return 0, fmt.Errorf("failed to publish withdrawal event: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id":      state.GuildID,
		"administrator": state.Administrator,
		"amount":        balance,
	}).Info("Lottery custody withdrawn")

	return balance, nil
}

// lockLedger loads the ledger with a row lock
func (s *lotteryLedgerService) lockLedger(ctx context.Context) (*entities.LedgerState, error) {
	state, err := s.ledgerRepo.GetForUpdate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	if state == nil {
		return nil, entities.ErrLedgerNotFound
	}
	return state, nil
}

// lockLedgerAsAdministrator loads the ledger and checks the caller before anything else
func (s *lotteryLedgerService) lockLedgerAsAdministrator(ctx context.Context, caller int64) (*entities.LedgerState, error) {
	state, err := s.lockLedger(ctx)
	if err != nil {
		return nil, err
	}
	if !state.IsAdministrator(caller) {
		return nil, entities.ErrUnauthorized
	}
	return state, nil
}

// lockEndedLedgerAsAdministrator additionally requires the round to have ended
func (s *lotteryLedgerService) lockEndedLedgerAsAdministrator(ctx context.Context, caller int64) (*entities.LedgerState, error) {
	state, err := s.lockLedgerAsAdministrator(ctx, caller)
	if err != nil {
		return nil, err
	}
	if state.IsLive(s.clock.Now()) {
		return nil, entities.ErrUnauthorizedAction
	}
	return state, nil
}

// applyConfigChange persists a setter's change and emits its audit record and event
func (s *lotteryLedgerService) applyConfigChange(ctx context.Context, state *entities.LedgerState, caller int64, kind entities.LedgerEventKind, field, oldValue, newValue string) (*entities.LedgerState, error) {
	if err := s.ledgerRepo.Update(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to update ledger: %w", err)
	}
	if err := s.recordEvent(ctx, state, kind, caller, 0, 0, map[string]interface{}{
		"old_value": oldValue,
		"new_value": newValue,
	}); err != nil {
		return nil, err
	}
	if err := s.eventPublisher.Publish(events.LedgerConfigChangedEvent{
		GuildID:  state.GuildID,
		Field:    field,
		OldValue: oldValue,
		NewValue: newValue,
	}); err != nil {
		return nil, fmt.Errorf("failed to publish config change event: %w", err)
	}

	log.WithFields(log.Fields{
		"guild_id":  state.GuildID,
		"field":     field,
		"old_value": oldValue,
		"new_value": newValue,
	}).Info("Lottery ledger configuration changed")

	return state, nil
}

func (s *lotteryLedgerService) recordEvent(ctx context.Context, state *entities.LedgerState, kind entities.LedgerEventKind, actor, amount, count int64, metadata map[string]interface{}) error {
	event := &entities.LedgerEvent{
		GuildID:  state.GuildID,
		Round:    state.Round,
		Kind:     kind,
		ActorID:  actor,
		Amount:   amount,
		Count:    count,
		Metadata: metadata,
	}
	if err := s.ledgerEventRepo.Record(ctx, event); err != nil {
		return fmt.Errorf("failed to record ledger event: %w", err)
	}
	return nil
}
