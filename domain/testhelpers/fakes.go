package testhelpers

import (
	"context"
	"sort"
	"sync"
	"time"

	"lbclottery/domain/entities"
	"lbclottery/domain/events"
	"lbclottery/domain/interfaces"
)

// FakeClock is a settable clock for tests
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock frozen at now
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to now
func (c *FakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Advance moves the clock forward by d
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type tokenAccountKey struct {
	token   entities.TokenAddress
	account int64
}

type tokenAllowanceKey struct {
	token   entities.TokenAddress
	owner   int64
	spender int64
}

// FakeTokenLedger is an in-memory token ledger with allowance semantics
type FakeTokenLedger struct {
	mu         sync.Mutex
	balances   map[tokenAccountKey]int64
	allowances map[tokenAllowanceKey]int64
}

// NewFakeTokenLedger creates an empty in-memory token ledger
func NewFakeTokenLedger() *FakeTokenLedger {
	return &FakeTokenLedger{
		balances:   make(map[tokenAccountKey]int64),
		allowances: make(map[tokenAllowanceKey]int64),
	}
}

func (l *FakeTokenLedger) BalanceOf(ctx context.Context, token entities.TokenAddress, account int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[tokenAccountKey{token, account}], nil
}

func (l *FakeTokenLedger) PullTransfer(ctx context.Context, token entities.TokenAddress, from, to int64, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	allowanceKey := tokenAllowanceKey{token, from, to}
	if l.allowances[allowanceKey] < amount {
		return entities.ErrInsufficientAllowance
	}
	if l.balances[tokenAccountKey{token, from}] < amount {
		return entities.ErrInsufficientFunds
	}

	l.allowances[allowanceKey] -= amount
	l.balances[tokenAccountKey{token, from}] -= amount
	l.balances[tokenAccountKey{token, to}] += amount
	return nil
}

func (l *FakeTokenLedger) PushTransfer(ctx context.Context, token entities.TokenAddress, from, to int64, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[tokenAccountKey{token, from}] < amount {
		return entities.ErrInsufficientFunds
	}

	l.balances[tokenAccountKey{token, from}] -= amount
	l.balances[tokenAccountKey{token, to}] += amount
	return nil
}

func (l *FakeTokenLedger) Approve(ctx context.Context, token entities.TokenAddress, owner, spender int64, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowances[tokenAllowanceKey{token, owner, spender}] = amount
	return nil
}

func (l *FakeTokenLedger) Allowance(ctx context.Context, token entities.TokenAddress, owner, spender int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[tokenAllowanceKey{token, owner, spender}], nil
}

func (l *FakeTokenLedger) Mint(ctx context.Context, token entities.TokenAddress, account int64, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[tokenAccountKey{token, account}] += amount
	return nil
}

// FakeLedgerStore holds ledgers and audit records for every guild in memory
type FakeLedgerStore struct {
	mu          sync.Mutex
	states      map[int64]entities.LedgerState
	events      []entities.LedgerEvent
	nextEventID int64
}

// NewFakeLedgerStore creates an empty store
func NewFakeLedgerStore() *FakeLedgerStore {
	return &FakeLedgerStore{states: make(map[int64]entities.LedgerState)}
}

// Put stores a copy of state under state.GuildID
func (s *FakeLedgerStore) Put(state *entities.LedgerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.GuildID] = *state
}

// State returns a copy of the guild's ledger, or nil
func (s *FakeLedgerStore) State(guildID int64) *entities.LedgerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[guildID]
	if !ok {
		return nil
	}
	return &state
}

// Events returns the guild's audit records in insertion order
func (s *FakeLedgerStore) Events(guildID int64) []entities.LedgerEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []entities.LedgerEvent
	for _, e := range s.events {
		if e.GuildID == guildID {
			result = append(result, e)
		}
	}
	return result
}

// LedgerStateRepository returns a repository scoped to guildID
func (s *FakeLedgerStore) LedgerStateRepository(guildID int64) interfaces.LedgerStateRepository {
	return &fakeLedgerStateRepository{store: s, guildID: guildID}
}

// LedgerEventRepository returns an audit log scoped to guildID
func (s *FakeLedgerStore) LedgerEventRepository(guildID int64, clock interfaces.Clock) interfaces.LedgerEventRepository {
	return &fakeLedgerEventRepository{store: s, guildID: guildID, clock: clock}
}

type fakeLedgerStateRepository struct {
	store   *FakeLedgerStore
	guildID int64
}

func (r *fakeLedgerStateRepository) Get(ctx context.Context) (*entities.LedgerState, error) {
	return r.store.State(r.guildID), nil
}

func (r *fakeLedgerStateRepository) GetForUpdate(ctx context.Context) (*entities.LedgerState, error) {
	return r.store.State(r.guildID), nil
}

func (r *fakeLedgerStateRepository) Create(ctx context.Context, state *entities.LedgerState) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.states[r.guildID]; ok {
		return entities.ErrLedgerExists
	}
	state.GuildID = r.guildID
	r.store.states[r.guildID] = *state
	return nil
}

func (r *fakeLedgerStateRepository) Update(ctx context.Context, state *entities.LedgerState) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.states[r.guildID]; !ok {
		return entities.ErrLedgerNotFound
	}
	r.store.states[r.guildID] = *state
	return nil
}

func (r *fakeLedgerStateRepository) GetLedgersWithUnannouncedEnd(ctx context.Context, now time.Time) ([]*entities.LedgerState, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []*entities.LedgerState
	for _, state := range r.store.states {
		if state.AnnouncedRound < state.Round && !state.RoundDeadline.After(now) {
			state := state
			result = append(result, &state)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RoundDeadline.Before(result[j].RoundDeadline)
	})
	return result, nil
}

func (r *fakeLedgerStateRepository) GetNextRoundDeadline(ctx context.Context, now time.Time) (*time.Time, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var next *time.Time
	for _, state := range r.store.states {
		if state.AnnouncedRound >= state.Round || !state.RoundDeadline.After(now) {
			continue
		}
		if next == nil || state.RoundDeadline.Before(*next) {
			deadline := state.RoundDeadline
			next = &deadline
		}
	}
	return next, nil
}

func (r *fakeLedgerStateRepository) MarkRoundAnnounced(ctx context.Context, guildID, round int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	state, ok := r.store.states[guildID]
	if !ok {
		return entities.ErrLedgerNotFound
	}
	if state.AnnouncedRound < round {
		state.AnnouncedRound = round
	}
	r.store.states[guildID] = state
	return nil
}

type fakeLedgerEventRepository struct {
	store   *FakeLedgerStore
	guildID int64
	clock   interfaces.Clock
}

func (r *fakeLedgerEventRepository) Record(ctx context.Context, event *entities.LedgerEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nextEventID++
	event.ID = r.store.nextEventID
	event.GuildID = r.guildID
	if r.clock != nil {
		event.CreatedAt = r.clock.Now()
	}
	r.store.events = append(r.store.events, *event)
	return nil
}

func (r *fakeLedgerEventRepository) ListRecent(ctx context.Context, limit int) ([]*entities.LedgerEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []*entities.LedgerEvent
	for i := len(r.store.events) - 1; i >= 0 && len(result) < limit; i-- {
		if r.store.events[i].GuildID == r.guildID {
			e := r.store.events[i]
			result = append(result, &e)
		}
	}
	return result, nil
}

// RecordingEventPublisher collects published events
type RecordingEventPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingEventPublisher) Publish(event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns everything published so far
func (p *RecordingEventPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}
