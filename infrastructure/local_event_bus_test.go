package infrastructure

import (
	"context"
	"testing"
	"time"

	"lbclottery/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEventBus_DeliversAfterCommit(t *testing.T) {
	bus := NewLocalEventBus()
	received := make(chan events.RoundEndedEvent, 1)

	bus.Subscribe(events.EventTypeRoundEnded, func(ctx context.Context, event events.Event) error {
		received <- event.(events.RoundEndedEvent)
		return nil
	})

	// Events reach the bus only through a flushed transactional publisher
	tx := NewNATSTransactionalPublisher(bus)
	require.NoError(t, tx.Publish(events.RoundEndedEvent{GuildID: 789, Round: 3, PrizePool: 500}))

	select {
	case <-received:
		t.Fatal("event delivered before flush")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, tx.Flush(context.Background()))

	select {
	case event := <-received:
		assert.Equal(t, int64(789), event.GuildID)
		assert.Equal(t, int64(3), event.Round)
		assert.Equal(t, int64(500), event.PrizePool)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not received within timeout")
	}
}

func TestLocalEventBus_DiscardedEventsAreNotDelivered(t *testing.T) {
	bus := NewLocalEventBus()
	received := make(chan struct{}, 1)

	bus.Subscribe(events.EventTypeTicketsPurchased, func(ctx context.Context, event events.Event) error {
		received <- struct{}{}
		return nil
	})

	tx := NewNATSTransactionalPublisher(bus)
	require.NoError(t, tx.Publish(events.TicketsPurchasedEvent{GuildID: 1, Count: 2}))
	tx.Discard()
	require.NoError(t, tx.Flush(context.Background()))

	select {
	case <-received:
		t.Fatal("event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLocalEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	bus := NewLocalEventBus()
	received := make(chan struct{}, 1)

	bus.Subscribe(events.EventTypeLotteryPaused, func(ctx context.Context, event events.Event) error {
		panic("boom")
	})
	bus.Subscribe(events.EventTypeLotteryPaused, func(ctx context.Context, event events.Event) error {
		received <- struct{}{}
		return nil
	})
	// Other event types are not delivered to these handlers
	require.NoError(t, bus.Publish(events.LotteryResumedEvent{GuildID: 1}))
	require.NoError(t, bus.Publish(events.LotteryPausedEvent{GuildID: 1}))

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("healthy handler did not run")
	}
}
