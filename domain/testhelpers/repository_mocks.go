package testhelpers

import (
	"context"
	"time"

	"lbclottery/domain/entities"
	"lbclottery/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockLedgerStateRepository is a mock implementation of LedgerStateRepository
type MockLedgerStateRepository struct {
	mock.Mock
}

func (m *MockLedgerStateRepository) Get(ctx context.Context) (*entities.LedgerState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerState), args.Error(1)
}

func (m *MockLedgerStateRepository) GetForUpdate(ctx context.Context) (*entities.LedgerState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerState), args.Error(1)
}

func (m *MockLedgerStateRepository) Create(ctx context.Context, state *entities.LedgerState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockLedgerStateRepository) Update(ctx context.Context, state *entities.LedgerState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockLedgerStateRepository) GetLedgersWithUnannouncedEnd(ctx context.Context, now time.Time) ([]*entities.LedgerState, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerState), args.Error(1)
}

func (m *MockLedgerStateRepository) GetNextRoundDeadline(ctx context.Context, now time.Time) (*time.Time, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockLedgerStateRepository) MarkRoundAnnounced(ctx context.Context, guildID, round int64) error {
	args := m.Called(ctx, guildID, round)
	return args.Error(0)
}

// MockTokenLedger is a mock implementation of TokenLedger
type MockTokenLedger struct {
	mock.Mock
}

func (m *MockTokenLedger) BalanceOf(ctx context.Context, token entities.TokenAddress, account int64) (int64, error) {
	args := m.Called(ctx, token, account)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenLedger) PullTransfer(ctx context.Context, token entities.TokenAddress, from, to int64, amount int64) error {
	args := m.Called(ctx, token, from, to, amount)
	return args.Error(0)
}

func (m *MockTokenLedger) PushTransfer(ctx context.Context, token entities.TokenAddress, from, to int64, amount int64) error {
	args := m.Called(ctx, token, from, to, amount)
	return args.Error(0)
}

// MockLedgerEventRepository is a mock implementation of LedgerEventRepository
type MockLedgerEventRepository struct {
	mock.Mock
}

func (m *MockLedgerEventRepository) Record(ctx context.Context, event *entities.LedgerEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockLedgerEventRepository) ListRecent(ctx context.Context, limit int) ([]*entities.LedgerEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.LedgerEvent), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
