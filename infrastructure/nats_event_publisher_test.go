package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"lbclottery/domain/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishedMessage struct {
	subject string
	data    []byte
}

type fakeMessagePublisher struct {
	messages []publishedMessage
	err      error
}

func (f *fakeMessagePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, publishedMessage{subject, data})
	return nil
}

type countingRecorder struct {
	counts map[string]int
}

func (r *countingRecorder) RecordNATSMessagePublished(eventType string) {
	r.counts[eventType]++
}

func TestNATSEventPublisher_PublishesEnvelope(t *testing.T) {
	t.Parallel()

	client := &fakeMessagePublisher{}
	recorder := &countingRecorder{counts: map[string]int{}}
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper(), recorder)

	event := events.TicketsPurchasedEvent{
		GuildID:        1,
		Round:          2,
		Buyer:          3,
		CustodyAccount: 4,
		Count:          5,
		Cost:           250000,
		TicketsSold:    5,
		PrizePool:      250000,
	}
	require.NoError(t, publisher.Publish(event))

	require.Len(t, client.messages, 1)
	assert.Equal(t, "lottery.tickets.purchased", client.messages[0].subject)

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(client.messages[0].data, &envelope))
	assert.Equal(t, "tickets_purchased", envelope.EventType)
	assert.Equal(t, "lbclottery", envelope.SourceService)
	_, err := uuid.Parse(envelope.EventID)
	assert.NoError(t, err)

	var payload events.TicketsPurchasedEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event, payload)

	assert.Equal(t, 1, recorder.counts["tickets_purchased"])
}

func TestNATSEventPublisher_LocalHandlers(t *testing.T) {
	t.Parallel()

	client := &fakeMessagePublisher{}
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper(), nil)

	var received []events.Event
	publisher.RegisterLocalHandler(events.EventTypeRoundEnded, func(ctx context.Context, event events.Event) error {
		received = append(received, event)
		return errors.New("handler failed")
	})

	event := events.RoundEndedEvent{GuildID: 1, Round: 1}
	require.NoError(t, publisher.Publish(event))
	require.NoError(t, publisher.Publish(events.LotteryResumedEvent{GuildID: 1, Round: 1}))

	assert.Equal(t, []events.Event{event}, received)
	assert.Len(t, client.messages, 2)
}

func TestNATSEventPublisher_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing stream is ignored", func(t *testing.T) {
		t.Parallel()
		client := &fakeMessagePublisher{err: errors.New("nats: no response from stream")}
		publisher := NewNATSEventPublisher(client, NewEventSubjectMapper(), nil)
		assert.NoError(t, publisher.Publish(events.LotteryPausedEvent{GuildID: 1}))
	})

	t.Run("other failures are returned", func(t *testing.T) {
		t.Parallel()
		client := &fakeMessagePublisher{err: errors.New("nats: connection closed")}
		publisher := NewNATSEventPublisher(client, NewEventSubjectMapper(), nil)
		err := publisher.Publish(events.LotteryPausedEvent{GuildID: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to publish event to NATS")
	})

	t.Run("stream management needs a real client", func(t *testing.T) {
		t.Parallel()
		publisher := NewNATSEventPublisher(&fakeMessagePublisher{}, NewEventSubjectMapper(), nil)
		assert.Error(t, publisher.EnsureLedgerEventStream())
	})
}
