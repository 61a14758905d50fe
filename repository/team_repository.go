package repository

import (
	"context"
	"fmt"

	"arena/database"
	"arena/models"

	"github.com/jackc/pgx/v5"
)

// TeamRepository implements the TeamRepository interface
type TeamRepository struct {
	q queryable
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *database.DB) *TeamRepository {
	return &TeamRepository{q: db.Pool}
}

// newTeamRepositoryWithTx creates a new team repository with a transaction
func newTeamRepositoryWithTx(tx queryable) *TeamRepository {
	return &TeamRepository{q: tx}
}

// Create creates a new team owned by an account
func (r *TeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (name, owner_account_id, total_score)
		VALUES ($1, $2, 0)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, team.Name, team.OwnerAccountID).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

// GetByID retrieves a team by its ID
func (r *TeamRepository) GetByID(ctx context.Context, id int64) (*models.Team, error) {
	query := `
		SELECT id, name, owner_account_id, total_score, created_at
		FROM teams
		WHERE id = $1
	`

	var t models.Team
	err := r.q.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.OwnerAccountID, &t.TotalScore, &t.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team %d: %w", id, err)
	}
	return &t, nil
}

// AddMember links an account to a team. The unique constraint on account_id
// enforces exclusive membership across all teams.
func (r *TeamRepository) AddMember(ctx context.Context, member *models.TeamMember) error {
	query := `
		INSERT INTO team_members (team_id, account_id)
		VALUES ($1, $2)
		RETURNING id, joined_at
	`

	err := r.q.QueryRow(ctx, query, member.TeamID, member.AccountID).Scan(&member.ID, &member.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrAlreadyJoined
		}
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

// RemoveMember removes an account from a team
func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, accountID int64) error {
	query := `DELETE FROM team_members WHERE team_id = $1 AND account_id = $2`

	result, err := r.q.Exec(ctx, query, teamID, accountID)
	if err != nil {
		return fmt.Errorf("failed to remove member %d from team %d: %w", accountID, teamID, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

// GetMemberByAccount returns the membership row for an account, if any
func (r *TeamRepository) GetMemberByAccount(ctx context.Context, accountID int64) (*models.TeamMember, error) {
	query := `
		SELECT id, team_id, account_id, joined_at
		FROM team_members
		WHERE account_id = $1
	`

	var m models.TeamMember
	err := r.q.QueryRow(ctx, query, accountID).Scan(&m.ID, &m.TeamID, &m.AccountID, &m.JoinedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership for account %d: %w", accountID, err)
	}
	return &m, nil
}

// GetMembers returns a team's members ordered by join time
func (r *TeamRepository) GetMembers(ctx context.Context, teamID int64) ([]*models.TeamMember, error) {
	query := `
		SELECT id, team_id, account_id, joined_at
		FROM team_members
		WHERE team_id = $1
		ORDER BY joined_at ASC, id ASC
	`

	rows, err := r.q.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members of team %d: %w", teamID, err)
	}
	defer rows.Close()

	var members []*models.TeamMember
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.ID, &m.TeamID, &m.AccountID, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate team members: %w", err)
	}
	return members, nil
}

// SumMemberScores computes the team's derived total score: the sum of every
// member's scores across all tournaments they participate in
func (r *TeamRepository) SumMemberScores(ctx context.Context, teamID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(tp.score), 0)
		FROM team_members tm
		JOIN tournament_players tp ON tp.account_id = tm.account_id
		WHERE tm.team_id = $1
	`

	var total int64
	if err := r.q.QueryRow(ctx, query, teamID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum member scores for team %d: %w", teamID, err)
	}
	return total, nil
}

// MemberContributions returns each member's score within one tournament.
// Members with no entry in that tournament contribute zero.
func (r *TeamRepository) MemberContributions(ctx context.Context, teamID, tournamentID int64) (map[int64]int64, error) {
	query := `
		SELECT tm.account_id, COALESCE(tp.score, 0)
		FROM team_members tm
		LEFT JOIN tournament_players tp
		  ON tp.account_id = tm.account_id AND tp.tournament_id = $2
		WHERE tm.team_id = $1
	`

	rows, err := r.q.Query(ctx, query, teamID, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contributions for team %d: %w", teamID, err)
	}
	defer rows.Close()

	contributions := make(map[int64]int64)
	for rows.Next() {
		var accountID, score int64
		if err := rows.Scan(&accountID, &score); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		contributions[accountID] = score
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributions: %w", err)
	}
	return contributions, nil
}

// UpdateTotalScore writes the recomputed derived total
func (r *TeamRepository) UpdateTotalScore(ctx context.Context, teamID, totalScore int64) error {
	query := `UPDATE teams SET total_score = $1 WHERE id = $2`

	result, err := r.q.Exec(ctx, query, totalScore, teamID)
	if err != nil {
		return fmt.Errorf("failed to update total score for team %d: %w", teamID, err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}
