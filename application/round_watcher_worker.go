package application

import (
	"context"
	"fmt"
	"time"

	"lbclottery/domain/entities"
	"lbclottery/domain/events"
	"lbclottery/domain/interfaces"
	"lbclottery/domain/services"

	log "github.com/sirupsen/logrus"
)

const roundWatcherIdleInterval = 1 * time.Hour

// RoundWatcherWorker publishes a RoundEndedEvent once for every round that passes its deadline
type RoundWatcherWorker struct {
	uowFactory UnitOfWorkFactory
	notifier   RoundEndNotifier
	clock      interfaces.Clock
}

// NewRoundWatcherWorker creates a new round watcher. notifier may be nil.
func NewRoundWatcherWorker(uowFactory UnitOfWorkFactory, notifier RoundEndNotifier, clock interfaces.Clock) *RoundWatcherWorker {
	if clock == nil {
		clock = services.SystemClock{}
	}
	return &RoundWatcherWorker{
		uowFactory: uowFactory,
		notifier:   notifier,
		clock:      clock,
	}
}

// Start begins the round watcher
func (w *RoundWatcherWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Info("Round watcher worker started")

		for {
			if err := w.ProcessEndedRounds(ctx); err != nil {
				log.Errorf("Error processing ended rounds: %v", err)
			}

			wait := roundWatcherIdleInterval
			if next := w.nextRoundDeadline(ctx); next != nil {
				wait = next.Sub(w.clock.Now())
				if wait <= 0 {
					continue
				}
				log.Infof("Next round deadline at %v (in %v)", next.UTC(), wait)
			} else {
				log.Info("No open rounds, checking again in 1 hour")
			}

			select {
			case <-ctx.Done():
				log.Info("Round watcher worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Round watcher worker shutting down (stop requested)...")
				return
			case <-time.After(wait):
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// ProcessEndedRounds announces every round whose deadline has passed and was not announced yet
func (w *RoundWatcherWorker) ProcessEndedRounds(ctx context.Context) error {
	uow := w.uowFactory.CreateForGuild(0) // 0 guildID for cross-guild query
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	ledgers, err := uow.LedgerStateRepository().GetLedgersWithUnannouncedEnd(ctx, w.clock.Now())
	uow.Rollback()
	if err != nil {
		return fmt.Errorf("failed to get ended rounds: %w", err)
	}

	if len(ledgers) == 0 {
		return nil
	}

	var successCount, failureCount int
	for _, ledger := range ledgers {
		if err := w.announceRoundEnd(ctx, ledger); err != nil {
			log.Errorf("Error announcing end of round %d for guild %d: %v", ledger.Round, ledger.GuildID, err)
			failureCount++
		} else {
			successCount++
		}
	}

	log.WithFields(log.Fields{
		"total_rounds": len(ledgers),
		"successful":   successCount,
		"failed":       failureCount,
	}).Info("Completed round end processing")

	return nil
}

func (w *RoundWatcherWorker) announceRoundEnd(ctx context.Context, ledger *entities.LedgerState) error {
	uow := w.uowFactory.CreateForGuild(ledger.GuildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Re-read under lock; a reset may have opened a new round since the scan
	state, err := uow.LedgerStateRepository().GetForUpdate(ctx)
	if err != nil {
		return fmt.Errorf("failed to lock ledger: %w", err)
	}
	if state == nil || state.AnnouncedRound >= state.Round || state.IsLive(w.clock.Now()) {
		return nil
	}

	event := events.RoundEndedEvent{
		GuildID:       state.GuildID,
		Round:         state.Round,
		RoundDeadline: state.RoundDeadline,
		TicketsSold:   state.TicketsSold,
		PrizePool:     state.PrizePool,
	}

	if err := uow.LedgerStateRepository().MarkRoundAnnounced(ctx, state.GuildID, state.Round); err != nil {
		return fmt.Errorf("failed to mark round announced: %w", err)
	}
	if err := uow.EventBus().Publish(event); err != nil {
		return fmt.Errorf("failed to publish round ended event: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if w.notifier != nil {
		if err := w.notifier.NotifyRoundEnded(ctx, event); err != nil {
			log.Errorf("Failed to notify round end for guild %d: %v", state.GuildID, err)
		}
	}

	log.WithFields(log.Fields{
		"guild_id":     state.GuildID,
		"round":        state.Round,
		"tickets_sold": state.TicketsSold,
		"prize_pool":   state.PrizePool,
	}).Info("Lottery round ended")

	return nil
}

func (w *RoundWatcherWorker) nextRoundDeadline(ctx context.Context) *time.Time {
	uow := w.uowFactory.CreateForGuild(0)
	if err := uow.Begin(ctx); err != nil {
		log.Errorf("Failed to begin transaction for next round deadline: %v", err)
		return nil
	}
	defer uow.Rollback()

	next, err := uow.LedgerStateRepository().GetNextRoundDeadline(ctx, w.clock.Now())
	if err != nil {
		log.Errorf("Failed to get next round deadline: %v", err)
		return nil
	}
	return next
}
