package repository

import (
	"context"
	"fmt"

	"arena/database"
	"arena/models"
)

// PlatformRevenueRepository implements the PlatformRevenueRepository interface
type PlatformRevenueRepository struct {
	q queryable
}

// NewPlatformRevenueRepository creates a new platform revenue repository
func NewPlatformRevenueRepository(db *database.DB) *PlatformRevenueRepository {
	return &PlatformRevenueRepository{q: db.Pool}
}

// newPlatformRevenueRepositoryWithTx creates a new platform revenue repository with a transaction
func newPlatformRevenueRepositoryWithTx(tx queryable) *PlatformRevenueRepository {
	return &PlatformRevenueRepository{q: tx}
}

// Record appends a platform revenue entry
func (r *PlatformRevenueRepository) Record(ctx context.Context, rev *models.PlatformRevenue) error {
	query := `
		INSERT INTO platform_revenue (source, reference_id, amount_cents)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, rev.Source, rev.ReferenceID, rev.AmountCents).Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record platform revenue: %w", err)
	}
	return nil
}

// SumByReference totals the revenue recorded against one settlement
func (r *PlatformRevenueRepository) SumByReference(ctx context.Context, referenceID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM platform_revenue
		WHERE reference_id = $1
	`

	var total int64
	if err := r.q.QueryRow(ctx, query, referenceID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum revenue for reference %s: %w", referenceID, err)
	}
	return total, nil
}

// SumBySource totals all revenue from one source
func (r *PlatformRevenueRepository) SumBySource(ctx context.Context, source models.RevenueSource) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM platform_revenue
		WHERE source = $1
	`

	var total int64
	if err := r.q.QueryRow(ctx, query, source).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum revenue for source %s: %w", source, err)
	}
	return total, nil
}
