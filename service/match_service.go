package service

import (
	"context"
	"fmt"
	"math/rand"

	"arena/combat"
	"arena/config"
	"arena/events"
	"arena/models"

	log "github.com/sirupsen/logrus"
)

type matchService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewMatchService creates a new match service
func NewMatchService(uowFactory UnitOfWorkFactory, cfg *config.Config) MatchService {
	return &matchService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// roundedPercent takes pct percent of amount, rounded half-up
func roundedPercent(amount, pct int64) int64 {
	return (amount*pct + 50) / 100
}

func matchReference(matchID int64) string {
	return fmt.Sprintf("match:%d", matchID)
}

// CreateMatch stakes the host's entry fee and opens a match. The pot holds
// only the host's stake until an opponent joins; the platform fee is
// provisional on the full two-sided pot.
func (s *matchService) CreateMatch(ctx context.Context, hostID, entryFeeCents int64) (*models.Match, error) {
	if entryFeeCents < s.config.MinEntryFeeCents {
		return nil, models.ErrBelowMinimum
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	match := &models.Match{
		HostAccountID:    hostID,
		EntryFeeCents:    entryFeeCents,
		TotalPotCents:    entryFeeCents,
		PlatformFeeCents: roundedPercent(2*entryFeeCents, s.config.MatchFeePercent),
		Status:           models.MatchStatusOpen,
		Seed:             rand.Int63(),
	}
	if err := uow.MatchRepository().Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	if _, err := ApplyAdjustment(ctx, uow, AdjustmentRequest{
		AccountID:          hostID,
		AmountCents:        entryFeeCents,
		Direction:          models.DirectionDebit,
		Kind:               models.TransactionKindMatchEntry,
		Description:        "Match entry stake",
		ReferenceID:        matchReference(match.ID),
		AffectWithdrawable: true,
	}); err != nil {
		return nil, err
	}

	if err := uow.MatchRepository().CreateHold(ctx, &models.EscrowHold{
		MatchID:     match.ID,
		AccountID:   hostID,
		AmountCents: entryFeeCents,
		Status:      models.EscrowHoldStatusHeld,
	}); err != nil {
		return nil, fmt.Errorf("failed to create escrow hold: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID":       match.ID,
		"hostID":        hostID,
		"entryFeeCents": entryFeeCents,
	}).Info("Created match")
	return match, nil
}

// JoinMatch stakes the opponent's entry fee and activates the match. The
// activation is a conditional claim on the open state, so two joiners racing
// for the same match resolve to exactly one opponent.
func (s *matchService) JoinMatch(ctx context.Context, matchID, opponentID int64) (*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	matchRepo := uow.MatchRepository()

	match, err := matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d not found", matchID)
	}
	if match.HostAccountID == opponentID {
		return nil, models.ErrAlreadyJoined
	}
	if match.Status != models.MatchStatusOpen {
		return nil, models.ErrInvalidState
	}

	if _, err := ApplyAdjustment(ctx, uow, AdjustmentRequest{
		AccountID:          opponentID,
		AmountCents:        match.EntryFeeCents,
		Direction:          models.DirectionDebit,
		Kind:               models.TransactionKindMatchEntry,
		Description:        "Match entry stake",
		ReferenceID:        matchReference(matchID),
		AffectWithdrawable: true,
	}); err != nil {
		return nil, err
	}

	if err := matchRepo.CreateHold(ctx, &models.EscrowHold{
		MatchID:     matchID,
		AccountID:   opponentID,
		AmountCents: match.EntryFeeCents,
		Status:      models.EscrowHoldStatusHeld,
	}); err != nil {
		return nil, err
	}

	totalPot := 2 * match.EntryFeeCents
	platformFee := roundedPercent(totalPot, s.config.MatchFeePercent)

	claimed, err := matchRepo.ClaimJoin(ctx, matchID, opponentID, totalPot, platformFee)
	if err != nil {
		return nil, fmt.Errorf("failed to claim match join: %w", err)
	}
	if !claimed {
		return nil, models.ErrInvalidState
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	match.OpponentAccountID = &opponentID
	match.TotalPotCents = totalPot
	match.PlatformFeeCents = platformFee
	match.Status = models.MatchStatusActive

	log.WithFields(log.Fields{
		"matchID":    matchID,
		"opponentID": opponentID,
		"potCents":   totalPot,
	}).Info("Match joined and activated")
	return match, nil
}

// EndMatch settles an active match: exactly one caller claims the settlement,
// pays the winner the pot less the platform fee, resolves escrow holds and
// side bets, and records the fee as platform revenue. Repeat calls after
// completion return the recorded outcome without moving money again.
func (s *matchService) EndMatch(ctx context.Context, matchID, winnerID int64) (*models.MatchResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	matchRepo := uow.MatchRepository()

	match, err := matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d not found", matchID)
	}

	if match.Status == models.MatchStatusCompleted {
		result, err := s.settledResult(ctx, matchRepo, match)
		if err != nil {
			return nil, err
		}
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return result, nil
	}
	if match.Status != models.MatchStatusActive {
		return nil, models.ErrInvalidState
	}
	if !match.IsParticipant(winnerID) {
		return nil, models.ErrInvalidState
	}

	claimed, err := matchRepo.ClaimSettlement(ctx, matchID, winnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim settlement: %w", err)
	}
	if !claimed {
		// Lost the race; report whatever the winning settlement recorded
		settled, err := matchRepo.GetByID(ctx, matchID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload match: %w", err)
		}
		result, err := s.settledResult(ctx, matchRepo, settled)
		if err != nil {
			return nil, err
		}
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return result, nil
	}

	loserID := match.Opponent(winnerID)
	payout := match.TotalPotCents - match.PlatformFeeCents

	if _, err := ApplyAdjustment(ctx, uow, AdjustmentRequest{
		AccountID:          winnerID,
		AmountCents:        payout,
		Direction:          models.DirectionCredit,
		Kind:               models.TransactionKindMatchPrize,
		Description:        "Match prize",
		ReferenceID:        matchReference(matchID),
		AffectWithdrawable: true,
	}); err != nil {
		return nil, err
	}

	if err := matchRepo.SetHoldStatus(ctx, matchID, winnerID, models.EscrowHoldStatusReleased); err != nil {
		return nil, fmt.Errorf("failed to release winner hold: %w", err)
	}
	if err := matchRepo.SetHoldStatus(ctx, matchID, loserID, models.EscrowHoldStatusForfeited); err != nil {
		return nil, fmt.Errorf("failed to forfeit loser hold: %w", err)
	}

	if err := uow.PlatformRevenueRepository().Record(ctx, &models.PlatformRevenue{
		Source:      models.RevenueSourceMatchFee,
		AmountCents: match.PlatformFeeCents,
		ReferenceID: matchReference(matchID),
	}); err != nil {
		return nil, fmt.Errorf("failed to record platform fee: %w", err)
	}

	sideBetPayouts, err := s.settleSideBets(ctx, uow, match, winnerID)
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.MatchSettledEvent{
		MatchID:          matchID,
		WinnerAccountID:  winnerID,
		LoserAccountID:   loserID,
		PayoutCents:      payout,
		PlatformFeeCents: match.PlatformFeeCents,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	match.Status = models.MatchStatusCompleted
	match.WinnerAccountID = &winnerID

	log.WithFields(log.Fields{
		"matchID":     matchID,
		"winnerID":    winnerID,
		"payoutCents": payout,
		"feeCents":    match.PlatformFeeCents,
	}).Info("Match settled")

	return &models.MatchResult{
		Match:            match,
		WinnerAccountID:  winnerID,
		LoserAccountID:   loserID,
		PayoutCents:      payout,
		PlatformFeeCents: match.PlatformFeeCents,
		SideBetPayouts:   sideBetPayouts,
	}, nil
}

// settledResult reconstructs a MatchResult from a completed match's rows
func (s *matchService) settledResult(ctx context.Context, matchRepo MatchRepository, match *models.Match) (*models.MatchResult, error) {
	if match == nil || match.Status != models.MatchStatusCompleted || match.WinnerAccountID == nil {
		return nil, models.ErrInvalidState
	}

	winnerID := *match.WinnerAccountID

	bets, err := matchRepo.GetSideBets(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get side bets: %w", err)
	}
	payouts := make(map[int64]int64)
	for _, bet := range bets {
		if bet.Status == models.SideBetStatusWon {
			payouts[bet.BettorAccountID] = bet.PayoutCents
		}
	}

	return &models.MatchResult{
		Match:            match,
		WinnerAccountID:  winnerID,
		LoserAccountID:   match.Opponent(winnerID),
		PayoutCents:      match.TotalPotCents - match.PlatformFeeCents,
		PlatformFeeCents: match.PlatformFeeCents,
		SideBetPayouts:   payouts,
		AlreadySettled:   true,
	}, nil
}

// settleSideBets resolves every pending side bet against the winner. Winning
// bettors share the losing pool, less the side-bet fee, in proportion to
// their stakes; flooring remainders go to the earliest winning bet. A pool
// with no winners falls entirely to platform revenue.
func (s *matchService) settleSideBets(ctx context.Context, uow UnitOfWork, match *models.Match, winnerID int64) (map[int64]int64, error) {
	matchRepo := uow.MatchRepository()

	bets, err := matchRepo.GetSideBets(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get side bets: %w", err)
	}

	payouts := make(map[int64]int64)
	if len(bets) == 0 {
		return payouts, nil
	}

	var winning, losing []*models.SideBet
	var winningTotal, losingPool int64
	for _, bet := range bets {
		if bet.ChosenAccountID == winnerID {
			winning = append(winning, bet)
			winningTotal += bet.AmountCents
		} else {
			losing = append(losing, bet)
			losingPool += bet.AmountCents
		}
	}

	for _, bet := range losing {
		if err := matchRepo.SetSideBetResult(ctx, bet.ID, models.SideBetStatusLost, 0); err != nil {
			return nil, fmt.Errorf("failed to mark side bet lost: %w", err)
		}
	}

	if len(winning) == 0 {
		if losingPool > 0 {
			if err := uow.PlatformRevenueRepository().Record(ctx, &models.PlatformRevenue{
				Source:      models.RevenueSourceSideBetFee,
				AmountCents: losingPool,
				ReferenceID: matchReference(match.ID),
			}); err != nil {
				return nil, fmt.Errorf("failed to record unclaimed side bet pool: %w", err)
			}
		}
		return payouts, nil
	}

	var betFee, distributable int64
	if losingPool > 0 {
		betFee = roundedPercent(losingPool, s.config.SideBetFeePercent)
		distributable = losingPool - betFee
	}

	shares := make([]int64, len(winning))
	var allocated int64
	for i, bet := range winning {
		shares[i] = distributable * bet.AmountCents / winningTotal
		allocated += shares[i]
	}
	// Flooring remainder goes to the earliest placed winning bet
	shares[0] += distributable - allocated

	for i, bet := range winning {
		payout := bet.AmountCents + shares[i]
		if err := matchRepo.SetSideBetResult(ctx, bet.ID, models.SideBetStatusWon, payout); err != nil {
			return nil, fmt.Errorf("failed to mark side bet won: %w", err)
		}
		if _, err := ApplyAdjustment(ctx, uow, AdjustmentRequest{
			AccountID:          bet.BettorAccountID,
			AmountCents:        payout,
			Direction:          models.DirectionCredit,
			Kind:               models.TransactionKindMatchPrize,
			Description:        "Side bet payout",
			ReferenceID:        matchReference(match.ID),
			AffectWithdrawable: true,
		}); err != nil {
			return nil, err
		}
		payouts[bet.BettorAccountID] = payout
	}

	if betFee > 0 {
		if err := uow.PlatformRevenueRepository().Record(ctx, &models.PlatformRevenue{
			Source:      models.RevenueSourceSideBetFee,
			AmountCents: betFee,
			ReferenceID: matchReference(match.ID),
		}); err != nil {
			return nil, fmt.Errorf("failed to record side bet fee: %w", err)
		}
	}

	return payouts, nil
}

// PlaceSideBet stakes a spectator bet on an active match. Participants cannot
// bet on their own match and each spectator gets one bet per match.
func (s *matchService) PlaceSideBet(ctx context.Context, matchID, bettorID, chosenID, amountCents int64) (*models.SideBet, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("side bet amount must be positive, got %d", amountCents)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	matchRepo := uow.MatchRepository()

	match, err := matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d not found", matchID)
	}
	if match.Status != models.MatchStatusActive {
		return nil, models.ErrInvalidState
	}
	if match.IsParticipant(bettorID) {
		return nil, models.ErrInvalidState
	}
	if !match.IsParticipant(chosenID) {
		return nil, fmt.Errorf("account %d is not a participant of match %d", chosenID, matchID)
	}

	if _, err := ApplyAdjustment(ctx, uow, AdjustmentRequest{
		AccountID:          bettorID,
		AmountCents:        amountCents,
		Direction:          models.DirectionDebit,
		Kind:               models.TransactionKindMatchEntry,
		Description:        "Side bet stake",
		ReferenceID:        matchReference(matchID),
		AffectWithdrawable: true,
	}); err != nil {
		return nil, err
	}

	bet := &models.SideBet{
		MatchID:         matchID,
		BettorAccountID: bettorID,
		ChosenAccountID: chosenID,
		AmountCents:     amountCents,
		Status:          models.SideBetStatusPending,
	}
	if err := matchRepo.CreateSideBet(ctx, bet); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID":     matchID,
		"bettorID":    bettorID,
		"chosenID":    chosenID,
		"amountCents": amountCents,
	}).Info("Side bet placed")
	return bet, nil
}

// CancelMatch cancels an unjoined open match and refunds the host's stake
func (s *matchService) CancelMatch(ctx context.Context, matchID, hostID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	matchRepo := uow.MatchRepository()

	match, err := matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return fmt.Errorf("match %d not found", matchID)
	}
	if match.HostAccountID != hostID {
		return models.ErrInvalidState
	}

	claimed, err := matchRepo.ClaimCancel(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to claim cancellation: %w", err)
	}
	if !claimed {
		return models.ErrInvalidState
	}

	if _, err := ApplyAdjustment(ctx, uow, AdjustmentRequest{
		AccountID:          hostID,
		AmountCents:        match.EntryFeeCents,
		Direction:          models.DirectionCredit,
		Kind:               models.TransactionKindMatchEntry,
		Description:        "Match cancelled refund",
		ReferenceID:        matchReference(matchID),
		AffectWithdrawable: true,
	}); err != nil {
		return err
	}

	if err := matchRepo.SetHoldStatus(ctx, matchID, hostID, models.EscrowHoldStatusRefunded); err != nil {
		return fmt.Errorf("failed to refund escrow hold: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"matchID": matchID,
		"hostID":  hostID,
	}).Info("Match cancelled")
	return nil
}

// SettleByCombat resolves an active match through the deterministic combat
// simulation seeded at match creation, then settles with the simulated winner
func (s *matchService) SettleByCombat(ctx context.Context, matchID int64, host, opponent combat.Fighter) (*combat.Result, *models.MatchResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	match, err := uow.MatchRepository().GetByID(ctx, matchID)
	uow.Rollback()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, nil, fmt.Errorf("match %d not found", matchID)
	}
	if match.Status != models.MatchStatusActive {
		return nil, nil, models.ErrInvalidState
	}
	if host.AccountID != match.HostAccountID || !match.IsParticipant(opponent.AccountID) || host.AccountID == opponent.AccountID {
		return nil, nil, models.ErrInvalidState
	}

	combatResult := combat.RunFullCombat(host, opponent, match.Seed, combat.DefaultRules(), nil)

	matchResult, err := s.EndMatch(ctx, matchID, combatResult.WinnerID)
	if err != nil {
		return nil, nil, err
	}
	return &combatResult, matchResult, nil
}
