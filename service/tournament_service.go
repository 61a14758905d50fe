package service

import (
	"context"
	"fmt"
	"time"

	"arena/config"
	"arena/events"
	"arena/models"

	log "github.com/sirupsen/logrus"
)

type tournamentService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewTournamentService creates a new tournament service
func NewTournamentService(uowFactory UnitOfWorkFactory, cfg *config.Config) TournamentService {
	return &tournamentService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

func tournamentReference(tournamentID int64) string {
	return fmt.Sprintf("tournament:%d", tournamentID)
}

// Create creates a new upcoming tournament
func (s *tournamentService) Create(ctx context.Context, name string, entryFeeCents int64, startAt, endAt time.Time) (*models.Tournament, error) {
	if entryFeeCents <= 0 {
		return nil, fmt.Errorf("entry fee must be positive, got %d", entryFeeCents)
	}
	if !endAt.After(startAt) {
		return nil, fmt.Errorf("tournament end must be after start")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tournament := &models.Tournament{
		Name:          name,
		EntryFeeCents: entryFeeCents,
		StartAt:       startAt,
		EndAt:         endAt,
		Status:        models.TournamentStatusUpcoming,
	}
	if err := uow.TournamentRepository().Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"tournamentID":  tournament.ID,
		"name":          name,
		"entryFeeCents": entryFeeCents,
	}).Info("Created tournament")
	return tournament, nil
}

// Activate moves an upcoming tournament to active
func (s *tournamentService) Activate(ctx context.Context, tournamentID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.TournamentRepository().SetStatus(ctx, tournamentID, models.TournamentStatusUpcoming, models.TournamentStatusActive); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Join debits the entry fee, splits it across the prize pool, platform profit
// and reserve, and enters the account with score zero. The split favours the
// prize pool with any flooring remainder landing in the reserve, so the three
// shares always sum to the exact fee.
func (s *tournamentService) Join(ctx context.Context, tournamentID, accountID int64) (*models.TournamentPlayer, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tournamentRepo := uow.TournamentRepository()

	tournament, err := tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if tournament == nil {
		return nil, fmt.Errorf("tournament %d not found", tournamentID)
	}
	if !tournament.AcceptsEntries() {
		return nil, models.ErrInvalidState
	}

	player := &models.TournamentPlayer{
		TournamentID: tournamentID,
		AccountID:    accountID,
	}
	if err := tournamentRepo.CreatePlayer(ctx, player); err != nil {
		return nil, err
	}

	if _, err := ApplyAdjustment(ctx, uow, AdjustmentRequest{
		AccountID:          accountID,
		AmountCents:        tournament.EntryFeeCents,
		Direction:          models.DirectionDebit,
		Kind:               models.TransactionKindTournamentEntry,
		Description:        "Tournament entry fee",
		ReferenceID:        tournamentReference(tournamentID),
		AffectWithdrawable: true,
	}); err != nil {
		return nil, err
	}

	fee := tournament.EntryFeeCents
	pool := fee * s.config.TournamentPoolPercent / 100
	profit := fee * s.config.TournamentProfitPercent / 100
	reserve := fee - pool - profit

	if err := tournamentRepo.AddEntrySplit(ctx, tournamentID, pool, profit, reserve); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"tournamentID": tournamentID,
		"accountID":    accountID,
		"poolCents":    pool,
	}).Info("Account joined tournament")
	return player, nil
}

// UpdateScore applies a score delta, floored at zero, and refreshes the
// account's team total inside the same transaction so the derived score can
// never be observed stale relative to the player row.
func (s *tournamentService) UpdateScore(ctx context.Context, tournamentID, accountID, delta int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	score, err := uow.TournamentRepository().AdjustScore(ctx, tournamentID, accountID, delta)
	if err != nil {
		return 0, err
	}

	teamRepo := uow.TeamRepository()
	member, err := teamRepo.GetMemberByAccount(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("failed to get team membership: %w", err)
	}
	if member != nil {
		total, err := teamRepo.SumMemberScores(ctx, member.TeamID)
		if err != nil {
			return 0, fmt.Errorf("failed to sum team scores: %w", err)
		}
		if err := teamRepo.UpdateTotalScore(ctx, member.TeamID, total); err != nil {
			return 0, fmt.Errorf("failed to update team total: %w", err)
		}
		uow.EventBus().Publish(events.TeamScoreChangedEvent{
			TeamID:     member.TeamID,
			TotalScore: total,
		})
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return score, nil
}

// EndAndDistribute ranks the players and pays the prize pool exactly once.
// The tournament row is locked for the distribution, the end transition is a
// one-shot claim that zeroes the pool, and the accumulated platform profit is
// recorded as revenue. Ties rank by earlier join, then lower player ID.
func (s *tournamentService) EndAndDistribute(ctx context.Context, tournamentID int64) (*models.TournamentResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tournamentRepo := uow.TournamentRepository()

	tournament, err := tournamentRepo.GetByIDForUpdate(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if tournament == nil {
		return nil, fmt.Errorf("tournament %d not found", tournamentID)
	}
	if tournament.Status == models.TournamentStatusEnded {
		return nil, models.ErrInvalidState
	}

	poolCents := tournament.PrizePoolCents

	claimed, err := tournamentRepo.ClaimEnd(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim tournament end: %w", err)
	}
	if !claimed {
		return nil, models.ErrInvalidState
	}

	players, err := tournamentRepo.GetPlayersRanked(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to rank players: %w", err)
	}

	awards, paid, err := s.distributePrizes(ctx, uow, tournamentID, poolCents, players)
	if err != nil {
		return nil, err
	}

	if tournament.PlatformProfitCents > 0 {
		if err := uow.PlatformRevenueRepository().Record(ctx, &models.PlatformRevenue{
			Source:      models.RevenueSourceTournamentProfit,
			AmountCents: tournament.PlatformProfitCents,
			ReferenceID: tournamentReference(tournamentID),
		}); err != nil {
			return nil, fmt.Errorf("failed to record tournament profit: %w", err)
		}
	}

	uow.EventBus().Publish(events.TournamentEndedEvent{
		TournamentID: tournamentID,
		PaidCents:    paid,
		WinnerCount:  len(awards),
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	tournament.Status = models.TournamentStatusEnded
	tournament.PrizePoolCents = 0

	log.WithFields(log.Fields{
		"tournamentID": tournamentID,
		"paidCents":    paid,
		"winnerCount":  len(awards),
	}).Info("Tournament ended and prizes distributed")

	return &models.TournamentResult{
		Tournament: tournament,
		Awards:     awards,
		PaidCents:  paid,
	}, nil
}

// distributePrizes pays ranked shares of the pool to the top players. Shares
// are floored; the flooring remainder tops up first place so the whole pool
// is always paid out when there are any players at all.
func (s *tournamentService) distributePrizes(ctx context.Context, uow UnitOfWork, tournamentID, poolCents int64, players []*models.TournamentPlayer) ([]models.PrizeAward, int64, error) {
	if poolCents <= 0 || len(players) == 0 {
		return nil, 0, nil
	}

	ranks := len(s.config.PrizeSharePercents)
	if len(players) < ranks {
		ranks = len(players)
	}

	amounts := make([]int64, ranks)
	var allocated int64
	for i := 0; i < ranks; i++ {
		amounts[i] = poolCents * s.config.PrizeSharePercents[i] / 100
		allocated += amounts[i]
	}
	amounts[0] += poolCents - allocated

	awards := make([]models.PrizeAward, 0, ranks)
	var paid int64
	for i := 0; i < ranks; i++ {
		player := players[i]
		if _, err := ApplyAdjustment(ctx, uow, AdjustmentRequest{
			AccountID:          player.AccountID,
			AmountCents:        amounts[i],
			Direction:          models.DirectionCredit,
			Kind:               models.TransactionKindTournamentPrize,
			Description:        fmt.Sprintf("Tournament prize, rank %d", i+1),
			ReferenceID:        tournamentReference(tournamentID),
			AffectWithdrawable: true,
		}); err != nil {
			return nil, 0, err
		}
		awards = append(awards, models.PrizeAward{
			Rank:        i + 1,
			AccountID:   player.AccountID,
			Score:       player.Score,
			AmountCents: amounts[i],
		})
		paid += amounts[i]
	}

	return awards, paid, nil
}
