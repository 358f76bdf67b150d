package application_test

import (
	"context"
	"sync"

	"lbclottery/application"
	"lbclottery/domain/events"
	"lbclottery/domain/interfaces"
	"lbclottery/domain/testhelpers"
)

// testUnitOfWorkFactory hands out in-memory units of work that share one store.
// Events published inside a unit of work only reach published after Commit.
type testUnitOfWorkFactory struct {
	store     *testhelpers.FakeLedgerStore
	tokens    *testhelpers.FakeTokenLedger
	clock     interfaces.Clock
	published *testhelpers.RecordingEventPublisher
	beginErr  error

	mu     sync.Mutex
	guilds []int64
}

func newTestUnitOfWorkFactory(clock interfaces.Clock) *testUnitOfWorkFactory {
	return &testUnitOfWorkFactory{
		store:     testhelpers.NewFakeLedgerStore(),
		tokens:    testhelpers.NewFakeTokenLedger(),
		clock:     clock,
		published: &testhelpers.RecordingEventPublisher{},
	}
}

func (f *testUnitOfWorkFactory) CreateForGuild(guildID int64) application.UnitOfWork {
	f.mu.Lock()
	f.guilds = append(f.guilds, guildID)
	f.mu.Unlock()
	return &testUnitOfWork{factory: f, guildID: guildID}
}

type testUnitOfWork struct {
	factory *testUnitOfWorkFactory
	guildID int64
	started bool
	pending []events.Event
}

func (u *testUnitOfWork) Begin(ctx context.Context) error {
	if u.factory.beginErr != nil {
		return u.factory.beginErr
	}
	u.started = true
	return nil
}

func (u *testUnitOfWork) Commit() error {
	for _, event := range u.pending {
		_ = u.factory.published.Publish(event)
	}
	u.pending = nil
	u.started = false
	return nil
}

func (u *testUnitOfWork) Rollback() error {
	u.pending = nil
	u.started = false
	return nil
}

func (u *testUnitOfWork) LedgerStateRepository() interfaces.LedgerStateRepository {
	u.requireStarted()
	return u.factory.store.LedgerStateRepository(u.guildID)
}

func (u *testUnitOfWork) TokenAccountRepository() interfaces.TokenAccountRepository {
	u.requireStarted()
	return u.factory.tokens
}

func (u *testUnitOfWork) LedgerEventRepository() interfaces.LedgerEventRepository {
	u.requireStarted()
	return u.factory.store.LedgerEventRepository(u.guildID, u.factory.clock)
}

func (u *testUnitOfWork) EventBus() interfaces.EventPublisher {
	u.requireStarted()
	return u
}

func (u *testUnitOfWork) Publish(event events.Event) error {
	u.pending = append(u.pending, event)
	return nil
}

func (u *testUnitOfWork) requireStarted() {
	if !u.started {
		panic("unit of work not started - call Begin() first")
	}
}

type recordedOperation struct {
	operation string
	outcome   string
}

// recordingMetrics captures everything the handler reports
type recordingMetrics struct {
	mu         sync.Mutex
	operations []recordedOperation
	tickets    int64
	cost       int64
	withdrawn  int64
}

func (m *recordingMetrics) RecordLedgerOperation(operation string, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations = append(m.operations, recordedOperation{operation, outcome})
}

func (m *recordingMetrics) RecordTicketsPurchased(count, cost int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets += count
	m.cost += cost
}

func (m *recordingMetrics) RecordFundsWithdrawn(amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.withdrawn += amount
}

func (m *recordingMetrics) last() recordedOperation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.operations[len(m.operations)-1]
}

// recordingNotifier captures round end notifications
type recordingNotifier struct {
	mu     sync.Mutex
	events []events.RoundEndedEvent
	err    error
}

func (n *recordingNotifier) NotifyRoundEnded(ctx context.Context, event events.RoundEndedEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}
