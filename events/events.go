package events

import (
	"context"
	"sync"

	"arena/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChanged   EventType = "balance_changed"
	EventTypeAccountCreated   EventType = "account_created"
	EventTypeMatchSettled     EventType = "match_settled"
	EventTypeTournamentEnded  EventType = "tournament_ended"
	EventTypeBudgetExhausted  EventType = "budget_exhausted"
	EventTypeTeamScoreChanged EventType = "team_score_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangedEvent represents a ledger adjustment that occurred
type BalanceChangedEvent struct {
	AccountID    int64
	OldBalance   int64
	NewBalance   int64
	Kind         models.TransactionKind
	ChangeAmount int64
	ReferenceID  string
}

func (e BalanceChangedEvent) Type() EventType {
	return EventTypeBalanceChanged
}

// AccountCreatedEvent represents a new account creation
type AccountCreatedEvent struct {
	AccountID int64
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// MatchSettledEvent represents a match settlement
type MatchSettledEvent struct {
	MatchID          int64
	WinnerAccountID  int64
	LoserAccountID   int64
	PayoutCents      int64
	PlatformFeeCents int64
}

func (e MatchSettledEvent) Type() EventType {
	return EventTypeMatchSettled
}

// TournamentEndedEvent represents a tournament prize distribution
type TournamentEndedEvent struct {
	TournamentID int64
	PaidCents    int64
	WinnerCount  int
}

func (e TournamentEndedEvent) Type() EventType {
	return EventTypeTournamentEnded
}

// BudgetExhaustedEvent fires when a game payout is denied by the daily cap
type BudgetExhaustedEvent struct {
	AccountID      int64
	Source         models.RewardSource
	RequestedCents int64
}

func (e BudgetExhaustedEvent) Type() EventType {
	return EventTypeBudgetExhausted
}

// TeamScoreChangedEvent represents a recomputed team total
type TeamScoreChangedEvent struct {
	TeamID     int64
	TotalScore int64
}

func (e TeamScoreChangedEvent) Type() EventType {
	return EventTypeTeamScoreChanged
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers. Handlers run
// asynchronously so settlement paths never block on observers.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events raised inside a unit of work until the
// transaction commits, then flushes them to the underlying bus. Discarded
// on rollback so observers never see state that was never persisted.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a transactional bus on top of a real bus
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish queues an event until the surrounding transaction commits
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all pending events, called after a successful commit. Events
// are emitted with a background context so they outlive the transaction.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events, called after rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
