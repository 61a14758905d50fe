package repository

import (
	"context"
	"fmt"

	"arena/database"
	"arena/models"

	"github.com/jackc/pgx/v5"
)

const tournamentColumns = `
	id, name, entry_fee_cents, prize_pool_cents, platform_profit_cents,
	reserve_cents, start_at, end_at, status, created_at`

// TournamentRepository implements the TournamentRepository interface
type TournamentRepository struct {
	q queryable
}

// NewTournamentRepository creates a new tournament repository
func NewTournamentRepository(db *database.DB) *TournamentRepository {
	return &TournamentRepository{q: db.Pool}
}

// newTournamentRepositoryWithTx creates a new tournament repository with a transaction
func newTournamentRepositoryWithTx(tx queryable) *TournamentRepository {
	return &TournamentRepository{q: tx}
}

func scanTournament(row pgx.Row) (*models.Tournament, error) {
	var t models.Tournament
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.EntryFeeCents,
		&t.PrizePoolCents,
		&t.PlatformProfitCents,
		&t.ReserveCents,
		&t.StartAt,
		&t.EndAt,
		&t.Status,
		&t.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create creates a new tournament
func (r *TournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, entry_fee_cents, start_at, end_at, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		t.Name,
		t.EntryFeeCents,
		t.StartAt,
		t.EndAt,
		t.Status,
	).Scan(&t.ID, &t.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

// GetByID retrieves a tournament by its ID
func (r *TournamentRepository) GetByID(ctx context.Context, id int64) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t, err := scanTournament(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament %d: %w", id, err)
	}
	return t, nil
}

// GetByIDForUpdate retrieves a tournament with a row lock held for the
// remainder of the surrounding transaction
func (r *TournamentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1 FOR UPDATE`

	t, err := scanTournament(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock tournament %d: %w", id, err)
	}
	return t, nil
}

// AddEntrySplit accumulates one entry fee's 60/30/10 split onto the
// tournament row. Only matches tournaments still accepting entries.
func (r *TournamentRepository) AddEntrySplit(ctx context.Context, id int64, pool, profit, reserve int64) error {
	query := `
		UPDATE tournaments
		SET prize_pool_cents = prize_pool_cents + $1,
		    platform_profit_cents = platform_profit_cents + $2,
		    reserve_cents = reserve_cents + $3
		WHERE id = $4 AND status IN ('upcoming', 'active')
	`

	result, err := r.q.Exec(ctx, query, pool, profit, reserve, id)
	if err != nil {
		return fmt.Errorf("failed to add entry split to tournament %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrInvalidState
	}
	return nil
}

// SetStatus transitions a tournament between non-terminal states
func (r *TournamentRepository) SetStatus(ctx context.Context, id int64, from, to models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.q.Exec(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update status of tournament %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrInvalidState
	}
	return nil
}

// ClaimEnd marks the tournament ended and zeroes the prize pool. The update
// only matches non-ended rows, so distribution can run exactly once.
func (r *TournamentRepository) ClaimEnd(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE tournaments
		SET status = 'ended', prize_pool_cents = 0
		WHERE id = $1 AND status <> 'ended'
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to end tournament %d: %w", id, err)
	}
	return result.RowsAffected() > 0, nil
}

// CreatePlayer inserts a tournament entry with score zero
func (r *TournamentRepository) CreatePlayer(ctx context.Context, player *models.TournamentPlayer) error {
	query := `
		INSERT INTO tournament_players (tournament_id, account_id, score)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at
	`

	err := r.q.QueryRow(ctx, query,
		player.TournamentID,
		player.AccountID,
		player.Score,
	).Scan(&player.ID, &player.JoinedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrAlreadyJoined
		}
		return fmt.Errorf("failed to create tournament player: %w", err)
	}
	return nil
}

// GetPlayer retrieves one account's entry in a tournament
func (r *TournamentRepository) GetPlayer(ctx context.Context, tournamentID, accountID int64) (*models.TournamentPlayer, error) {
	query := `
		SELECT id, tournament_id, account_id, score, joined_at
		FROM tournament_players
		WHERE tournament_id = $1 AND account_id = $2
	`

	var p models.TournamentPlayer
	err := r.q.QueryRow(ctx, query, tournamentID, accountID).Scan(
		&p.ID, &p.TournamentID, &p.AccountID, &p.Score, &p.JoinedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d in tournament %d: %w", accountID, tournamentID, err)
	}
	return &p, nil
}

// GetPlayersRanked returns all entries ordered by score descending, ties
// broken by earliest join
func (r *TournamentRepository) GetPlayersRanked(ctx context.Context, tournamentID int64) ([]*models.TournamentPlayer, error) {
	query := `
		SELECT id, tournament_id, account_id, score, joined_at
		FROM tournament_players
		WHERE tournament_id = $1
		ORDER BY score DESC, joined_at ASC, id ASC
	`

	rows, err := r.q.Query(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get players for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	var players []*models.TournamentPlayer
	for rows.Next() {
		var p models.TournamentPlayer
		if err := rows.Scan(&p.ID, &p.TournamentID, &p.AccountID, &p.Score, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tournament player: %w", err)
		}
		players = append(players, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tournament players: %w", err)
	}
	return players, nil
}

// AdjustScore applies a delta to a player's score, floored at zero, and
// returns the new score
func (r *TournamentRepository) AdjustScore(ctx context.Context, tournamentID, accountID, delta int64) (int64, error) {
	query := `
		UPDATE tournament_players
		SET score = GREATEST(score + $1, 0)
		WHERE tournament_id = $2 AND account_id = $3
		RETURNING score
	`

	var score int64
	err := r.q.QueryRow(ctx, query, delta, tournamentID, accountID).Scan(&score)
	if err == pgx.ErrNoRows {
		return 0, models.ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust score for player %d in tournament %d: %w", accountID, tournamentID, err)
	}
	return score, nil
}
