package service

import (
	"context"
	"fmt"

	"arena/config"
	"arena/events"
	"arena/models"

	log "github.com/sirupsen/logrus"
)

type teamService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewTeamService creates a new team service
func NewTeamService(uowFactory UnitOfWorkFactory, cfg *config.Config) TeamService {
	return &teamService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// CreateTeam creates a team and enrols the owner as its first member
func (s *teamService) CreateTeam(ctx context.Context, ownerID int64, name string) (*models.Team, error) {
	if name == "" {
		return nil, fmt.Errorf("team name must not be empty")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	teamRepo := uow.TeamRepository()

	team := &models.Team{
		Name:           name,
		OwnerAccountID: ownerID,
	}
	if err := teamRepo.Create(ctx, team); err != nil {
		return nil, err
	}

	if err := teamRepo.AddMember(ctx, &models.TeamMember{
		TeamID:    team.ID,
		AccountID: ownerID,
	}); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"teamID":  team.ID,
		"ownerID": ownerID,
		"name":    name,
	}).Info("Created team")
	return team, nil
}

// JoinTeam adds an account to a team. Membership is exclusive; joining while
// on another team fails rather than silently moving the account.
func (s *teamService) JoinTeam(ctx context.Context, teamID, accountID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	teamRepo := uow.TeamRepository()

	team, err := teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return fmt.Errorf("team %d not found", teamID)
	}

	if err := teamRepo.AddMember(ctx, &models.TeamMember{
		TeamID:    teamID,
		AccountID: accountID,
	}); err != nil {
		return err
	}

	if err := s.refreshLocked(ctx, uow, teamID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"teamID":    teamID,
		"accountID": accountID,
	}).Info("Account joined team")
	return nil
}

// LeaveTeam removes an account from a team and refreshes the team total
func (s *teamService) LeaveTeam(ctx context.Context, teamID, accountID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.TeamRepository().RemoveMember(ctx, teamID, accountID); err != nil {
		return err
	}

	if err := s.refreshLocked(ctx, uow, teamID); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"teamID":    teamID,
		"accountID": accountID,
	}).Info("Account left team")
	return nil
}

// RefreshTotalScore recomputes the derived team total from member scores
func (s *teamService) RefreshTotalScore(ctx context.Context, teamID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := s.refreshLocked(ctx, uow, teamID); err != nil {
		return 0, err
	}

	team, err := uow.TeamRepository().GetByID(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to get team: %w", err)
	}
	if team == nil {
		return 0, fmt.Errorf("team %d not found", teamID)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return team.TotalScore, nil
}

// refreshLocked recomputes and stores the team total inside an open uow
func (s *teamService) refreshLocked(ctx context.Context, uow UnitOfWork, teamID int64) error {
	teamRepo := uow.TeamRepository()

	total, err := teamRepo.SumMemberScores(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to sum team scores: %w", err)
	}
	if err := teamRepo.UpdateTotalScore(ctx, teamID, total); err != nil {
		return fmt.Errorf("failed to update team total: %w", err)
	}

	uow.EventBus().Publish(events.TeamScoreChangedEvent{
		TeamID:     teamID,
		TotalScore: total,
	})
	return nil
}

// DistributeTeamPrize splits a pooled prize across the team's members. Even
// mode gives everyone the same floored share; contribution mode splits in
// proportion to tournament scores, falling back to even when nobody scored.
// Flooring remainders always go to the earliest joined member so the payout
// sums to the exact prize.
func (s *teamService) DistributeTeamPrize(ctx context.Context, teamID, tournamentID, amountCents int64, mode models.TeamPrizeMode) ([]models.TeamPrizeShare, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("prize amount must be positive, got %d", amountCents)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	teamRepo := uow.TeamRepository()

	members, err := teamRepo.GetMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to get team members: %w", err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("team %d has no members", teamID)
	}

	var amounts []int64
	switch mode {
	case models.TeamPrizeModeByContribution:
		contributions, err := teamRepo.MemberContributions(ctx, teamID, tournamentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get member contributions: %w", err)
		}
		amounts = contributionShares(members, contributions, amountCents)
	case models.TeamPrizeModeEven:
		amounts = evenShares(len(members), amountCents)
	default:
		return nil, fmt.Errorf("invalid team prize mode %q", mode)
	}

	shares := make([]models.TeamPrizeShare, 0, len(members))
	for i, member := range members {
		if amounts[i] == 0 {
			continue
		}
		if _, err := ApplyAdjustment(ctx, uow, AdjustmentRequest{
			AccountID:          member.AccountID,
			AmountCents:        amounts[i],
			Direction:          models.DirectionCredit,
			Kind:               models.TransactionKindTeamPrize,
			Description:        "Team prize share",
			ReferenceID:        fmt.Sprintf("team:%d:tournament:%d", teamID, tournamentID),
			AffectWithdrawable: true,
		}); err != nil {
			return nil, err
		}
		shares = append(shares, models.TeamPrizeShare{
			AccountID:   member.AccountID,
			AmountCents: amounts[i],
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"teamID":      teamID,
		"amountCents": amountCents,
		"mode":        mode,
		"memberCount": len(members),
	}).Info("Distributed team prize")
	return shares, nil
}

// evenShares splits the amount equally, remainder to the first member
func evenShares(memberCount int, amountCents int64) []int64 {
	amounts := make([]int64, memberCount)
	base := amountCents / int64(memberCount)
	var allocated int64
	for i := range amounts {
		amounts[i] = base
		allocated += base
	}
	amounts[0] += amountCents - allocated
	return amounts
}

// contributionShares splits proportionally to tournament scores; a team where
// nobody scored splits evenly instead of dividing by zero
func contributionShares(members []*models.TeamMember, contributions map[int64]int64, amountCents int64) []int64 {
	var totalScore int64
	for _, member := range members {
		totalScore += contributions[member.AccountID]
	}
	if totalScore == 0 {
		return evenShares(len(members), amountCents)
	}

	amounts := make([]int64, len(members))
	var allocated int64
	for i, member := range members {
		amounts[i] = amountCents * contributions[member.AccountID] / totalScore
		allocated += amounts[i]
	}
	amounts[0] += amountCents - allocated
	return amounts
}
