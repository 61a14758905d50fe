package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"arena/config"
	"arena/database"
	"arena/events"
	"arena/repository"
	"arena/service"
)

// Engine bundles the settlement services behind a single entry point for
// whatever surface ends up driving them (API handlers, admin jobs, consoles)
type Engine struct {
	Ledger     service.LedgerService
	Budget     service.BudgetService
	Match      service.MatchService
	Tournament service.TournamentService
	Team       service.TeamService
}

// NewEngine wires the services onto a shared unit of work factory
func NewEngine(uowFactory service.UnitOfWorkFactory, cfg *config.Config) *Engine {
	return &Engine{
		Ledger:     service.NewLedgerService(uowFactory, cfg),
		Budget:     service.NewBudgetService(uowFactory, cfg),
		Match:      service.NewMatchService(uowFactory, cfg),
		Tournament: service.NewTournamentService(uowFactory, cfg),
		Team:       service.NewTeamService(uowFactory, cfg),
	}
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting arena settlement engine...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()
	subscribeAuditLog(eventBus)

	// Initialize unit of work factory and services
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	engine := NewEngine(uowFactory, cfg)
	log.Println("Services initialized successfully")

	// Warm today's reward budget row so the first grant of the day does not
	// race the insert
	if err := engine.Budget.Reserve(ctx, 1); err == nil {
		_ = engine.Budget.Release(ctx, 1)
	}

	// Wait for context cancellation
	log.Printf("Engine is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down engine...")

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}

// subscribeAuditLog logs every settlement outcome so operations can trace
// money movement without querying the ledger
func subscribeAuditLog(bus *events.Bus) {
	bus.Subscribe(events.EventTypeMatchSettled, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.MatchSettledEvent); ok {
			log.Printf("Match %d settled: winner %d paid %d cents, fee %d cents",
				e.MatchID, e.WinnerAccountID, e.PayoutCents, e.PlatformFeeCents)
		}
	})
	bus.Subscribe(events.EventTypeTournamentEnded, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.TournamentEndedEvent); ok {
			log.Printf("Tournament %d ended: %d cents paid across %d winners",
				e.TournamentID, e.PaidCents, e.WinnerCount)
		}
	})
	bus.Subscribe(events.EventTypeBudgetExhausted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BudgetExhaustedEvent); ok {
			log.Printf("Reward budget exhausted: denied %d cents to account %d from %s",
				e.RequestedCents, e.AccountID, e.Source)
		}
	})
}
