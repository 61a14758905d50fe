package repository

import (
	"context"
	"fmt"

	"arena/database"
	"arena/models"

	"github.com/jackc/pgx/v5"
)

const matchColumns = `
	id, host_account_id, opponent_account_id, entry_fee_cents,
	platform_fee_cents, total_pot_cents, status, winner_account_id,
	seed, created_at, settled_at`

// MatchRepository implements the MatchRepository interface. It owns matches,
// their escrow holds and the side bets placed against them.
type MatchRepository struct {
	q queryable
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// newMatchRepositoryWithTx creates a new match repository with a transaction
func newMatchRepositoryWithTx(tx queryable) *MatchRepository {
	return &MatchRepository{q: tx}
}

func scanMatch(row pgx.Row) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID,
		&m.HostAccountID,
		&m.OpponentAccountID,
		&m.EntryFeeCents,
		&m.PlatformFeeCents,
		&m.TotalPotCents,
		&m.Status,
		&m.WinnerAccountID,
		&m.Seed,
		&m.CreatedAt,
		&m.SettledAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create creates a new open match for the host
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches
		(host_account_id, entry_fee_cents, platform_fee_cents, total_pot_cents, status, seed)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		match.HostAccountID,
		match.EntryFeeCents,
		match.PlatformFeeCents,
		match.TotalPotCents,
		match.Status,
		match.Seed,
	).Scan(&match.ID, &match.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

// GetByID retrieves a match by its ID
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get match %d: %w", id, err)
	}
	return match, nil
}

// ClaimJoin attaches the opponent and activates the match. The update only
// matches open matches, so two concurrent joins race for a single row and
// exactly one wins. Returns false when the claim was lost.
func (r *MatchRepository) ClaimJoin(ctx context.Context, matchID, opponentID, totalPot, platformFee int64) (bool, error) {
	query := `
		UPDATE matches
		SET opponent_account_id = $1,
		    total_pot_cents = $2,
		    platform_fee_cents = $3,
		    status = 'active'
		WHERE id = $4 AND status = 'open'
	`

	result, err := r.q.Exec(ctx, query, opponentID, totalPot, platformFee, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to join match %d: %w", matchID, err)
	}
	return result.RowsAffected() > 0, nil
}

// ClaimSettlement marks the match completed with its winner. The update only
// matches active rows: the settlement that wins this claim is the only one
// that pays out, which is what makes EndMatch idempotent under races.
func (r *MatchRepository) ClaimSettlement(ctx context.Context, matchID, winnerID int64) (bool, error) {
	query := `
		UPDATE matches
		SET status = 'completed', winner_account_id = $1, settled_at = NOW()
		WHERE id = $2 AND status = 'active'
	`

	result, err := r.q.Exec(ctx, query, winnerID, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to settle match %d: %w", matchID, err)
	}
	return result.RowsAffected() > 0, nil
}

// ClaimCancel marks an open match cancelled before an opponent joins
func (r *MatchRepository) ClaimCancel(ctx context.Context, matchID int64) (bool, error) {
	query := `
		UPDATE matches
		SET status = 'cancelled', settled_at = NOW()
		WHERE id = $1 AND status = 'open'
	`

	result, err := r.q.Exec(ctx, query, matchID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel match %d: %w", matchID, err)
	}
	return result.RowsAffected() > 0, nil
}

// CreateHold records a participant's stake held against a match
func (r *MatchRepository) CreateHold(ctx context.Context, hold *models.EscrowHold) error {
	query := `
		INSERT INTO escrow_holds (match_id, account_id, amount_cents, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		hold.MatchID,
		hold.AccountID,
		hold.AmountCents,
		hold.Status,
	).Scan(&hold.ID, &hold.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrAlreadyJoined
		}
		return fmt.Errorf("failed to create escrow hold: %w", err)
	}
	return nil
}

// GetHolds returns all escrow holds for a match
func (r *MatchRepository) GetHolds(ctx context.Context, matchID int64) ([]*models.EscrowHold, error) {
	query := `
		SELECT id, match_id, account_id, amount_cents, status, created_at
		FROM escrow_holds
		WHERE match_id = $1
		ORDER BY id ASC
	`

	rows, err := r.q.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get holds for match %d: %w", matchID, err)
	}
	defer rows.Close()

	var holds []*models.EscrowHold
	for rows.Next() {
		var h models.EscrowHold
		if err := rows.Scan(&h.ID, &h.MatchID, &h.AccountID, &h.AmountCents, &h.Status, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan escrow hold: %w", err)
		}
		holds = append(holds, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate escrow holds: %w", err)
	}
	return holds, nil
}

// SetHoldStatus moves a hold from held to its terminal status exactly once
func (r *MatchRepository) SetHoldStatus(ctx context.Context, matchID, accountID int64, status models.EscrowHoldStatus) error {
	query := `
		UPDATE escrow_holds
		SET status = $1
		WHERE match_id = $2 AND account_id = $3 AND status = 'held'
	`

	result, err := r.q.Exec(ctx, query, status, matchID, accountID)
	if err != nil {
		return fmt.Errorf("failed to update hold for match %d account %d: %w", matchID, accountID, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrInvalidState
	}
	return nil
}

// CreateSideBet records a spectator bet. The unique constraint enforces one
// bet per bettor per match.
func (r *MatchRepository) CreateSideBet(ctx context.Context, bet *models.SideBet) error {
	query := `
		INSERT INTO side_bets (match_id, bettor_account_id, chosen_account_id, amount_cents, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.MatchID,
		bet.BettorAccountID,
		bet.ChosenAccountID,
		bet.AmountCents,
		bet.Status,
	).Scan(&bet.ID, &bet.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrAlreadyJoined
		}
		return fmt.Errorf("failed to create side bet: %w", err)
	}
	return nil
}

// GetSideBets returns all side bets for a match
func (r *MatchRepository) GetSideBets(ctx context.Context, matchID int64) ([]*models.SideBet, error) {
	query := `
		SELECT id, match_id, bettor_account_id, chosen_account_id, amount_cents, status, payout_cents, created_at
		FROM side_bets
		WHERE match_id = $1
		ORDER BY id ASC
	`

	rows, err := r.q.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get side bets for match %d: %w", matchID, err)
	}
	defer rows.Close()

	var bets []*models.SideBet
	for rows.Next() {
		var b models.SideBet
		if err := rows.Scan(&b.ID, &b.MatchID, &b.BettorAccountID, &b.ChosenAccountID, &b.AmountCents, &b.Status, &b.PayoutCents, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan side bet: %w", err)
		}
		bets = append(bets, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate side bets: %w", err)
	}
	return bets, nil
}

// SetSideBetResult writes a side bet's terminal status and payout exactly once
func (r *MatchRepository) SetSideBetResult(ctx context.Context, betID int64, status models.SideBetStatus, payoutCents int64) error {
	query := `
		UPDATE side_bets
		SET status = $1, payout_cents = $2
		WHERE id = $3 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, status, payoutCents, betID)
	if err != nil {
		return fmt.Errorf("failed to update side bet %d: %w", betID, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrInvalidState
	}
	return nil
}
