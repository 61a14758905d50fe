package repository

import (
	"context"
	"fmt"
	"time"

	"arena/database"
	"arena/models"

	"github.com/jackc/pgx/v5"
)

// RewardBudgetRepository implements the RewardBudgetRepository interface.
// The budget is a single hot row per calendar day shared by every game
// payout source, so all mutations are single conditional statements.
type RewardBudgetRepository struct {
	q queryable
}

// NewRewardBudgetRepository creates a new reward budget repository
func NewRewardBudgetRepository(db *database.DB) *RewardBudgetRepository {
	return &RewardBudgetRepository{q: db.Pool}
}

// newRewardBudgetRepositoryWithTx creates a new reward budget repository with a transaction
func newRewardBudgetRepositoryWithTx(tx queryable) *RewardBudgetRepository {
	return &RewardBudgetRepository{q: tx}
}

// EnsureDay inserts the day's budget row if it does not exist yet. Inserting
// with zero used is what resets the budget at the start of a new day.
func (r *RewardBudgetRepository) EnsureDay(ctx context.Context, day time.Time, dailyLimitCents int64) error {
	query := `
		INSERT INTO reward_budgets (day, daily_limit_cents, daily_used_cents)
		VALUES ($1, $2, 0)
		ON CONFLICT (day) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, day, dailyLimitCents); err != nil {
		return fmt.Errorf("failed to ensure budget row for %s: %w", day.Format("2006-01-02"), err)
	}
	return nil
}

// Reserve atomically increments the day's used budget, but only when the
// increment stays within the limit. A read-then-write here would let two
// concurrent reservations both pass the cap check.
func (r *RewardBudgetRepository) Reserve(ctx context.Context, day time.Time, amountCents int64) error {
	query := `
		UPDATE reward_budgets
		SET daily_used_cents = daily_used_cents + $1
		WHERE day = $2 AND daily_used_cents + $1 <= daily_limit_cents
	`

	result, err := r.q.Exec(ctx, query, amountCents, day)
	if err != nil {
		return fmt.Errorf("failed to reserve budget: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrBudgetExhausted
	}
	return nil
}

// Release returns previously reserved budget after a failed downstream
// credit, clamped so used never goes negative
func (r *RewardBudgetRepository) Release(ctx context.Context, day time.Time, amountCents int64) error {
	query := `
		UPDATE reward_budgets
		SET daily_used_cents = GREATEST(daily_used_cents - $1, 0)
		WHERE day = $2
	`

	if _, err := r.q.Exec(ctx, query, amountCents, day); err != nil {
		return fmt.Errorf("failed to release budget: %w", err)
	}
	return nil
}

// GetDay returns the budget row for a day, or nil when the day has not been
// touched yet
func (r *RewardBudgetRepository) GetDay(ctx context.Context, day time.Time) (*models.RewardBudget, error) {
	query := `
		SELECT day, daily_limit_cents, daily_used_cents
		FROM reward_budgets
		WHERE day = $1
	`

	var b models.RewardBudget
	err := r.q.QueryRow(ctx, query, day).Scan(&b.Day, &b.DailyLimitCents, &b.DailyUsedCents)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget row: %w", err)
	}
	return &b, nil
}
