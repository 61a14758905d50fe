package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"arena/config"
	"arena/events"
	"arena/models"

	log "github.com/sirupsen/logrus"
)

type budgetService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
	now        func() time.Time
}

// NewBudgetService creates a new reward budget service
func NewBudgetService(uowFactory UnitOfWorkFactory, cfg *config.Config) BudgetService {
	return &budgetService{
		uowFactory: uowFactory,
		config:     cfg,
		now:        time.Now,
	}
}

// Reserve claims part of today's global reward budget. The reservation is a
// single conditional update against the day row, so concurrent grants racing
// for the last of the budget serialise in the database and at most one wins.
func (s *budgetService) Reserve(ctx context.Context, amountCents int64) error {
	if amountCents <= 0 {
		return fmt.Errorf("reserve amount must be positive, got %d", amountCents)
	}

	day := BudgetDay(s.now())

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	budgetRepo := uow.RewardBudgetRepository()
	if err := budgetRepo.EnsureDay(ctx, day, s.config.DailyRewardBudgetCents); err != nil {
		return fmt.Errorf("failed to ensure budget day: %w", err)
	}
	if err := budgetRepo.Reserve(ctx, day, amountCents); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Release returns budget reserved for a credit that later failed
func (s *budgetService) Release(ctx context.Context, amountCents int64) error {
	if amountCents <= 0 {
		return fmt.Errorf("release amount must be positive, got %d", amountCents)
	}

	day := BudgetDay(s.now())

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.RewardBudgetRepository().Release(ctx, day, amountCents); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GrantGameReward pays out a game reward under the daily cap. The budget is
// reserved and committed before the credit so a crash between the two steps
// leaves the budget conservatively over-counted rather than over-paid; a
// failed credit releases the reservation.
func (s *budgetService) GrantGameReward(ctx context.Context, accountID, amountCents int64, source models.RewardSource, description string) (*AdjustmentResult, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("reward amount must be positive, got %d", amountCents)
	}

	if err := s.Reserve(ctx, amountCents); err != nil {
		if errors.Is(err, models.ErrBudgetExhausted) {
			s.publishExhausted(ctx, accountID, source, amountCents)
			log.WithFields(log.Fields{
				"accountID":   accountID,
				"source":      source,
				"amountCents": amountCents,
			}).Warn("Game reward denied by daily budget")
		}
		return nil, err
	}

	result, err := s.creditReward(ctx, accountID, amountCents, source, description)
	if err != nil {
		if releaseErr := s.Release(ctx, amountCents); releaseErr != nil {
			log.WithError(releaseErr).WithFields(log.Fields{
				"accountID":   accountID,
				"amountCents": amountCents,
			}).Error("Failed to release budget after failed reward credit")
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"accountID":   accountID,
		"source":      source,
		"amountCents": amountCents,
	}).Info("Granted game reward")
	return result, nil
}

func (s *budgetService) creditReward(ctx context.Context, accountID, amountCents int64, source models.RewardSource, description string) (*AdjustmentResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := ApplyAdjustment(ctx, uow, AdjustmentRequest{
		AccountID:   accountID,
		AmountCents: amountCents,
		Direction:   models.DirectionCredit,
		Kind:        models.TransactionKindGameReward,
		Description: description,
		ReferenceID: fmt.Sprintf("reward:%s", source),
		// Game rewards stay locked until wagered through
		AffectWithdrawable: false,
	})
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

// Remaining returns today's unreserved budget
func (s *budgetService) Remaining(ctx context.Context) (int64, error) {
	day := BudgetDay(s.now())

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	budget, err := uow.RewardBudgetRepository().GetDay(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("failed to get budget day: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if budget == nil {
		return s.config.DailyRewardBudgetCents, nil
	}
	return budget.RemainingCents(), nil
}

// publishExhausted emits the denial event in its own short-lived unit of work
// so observers still hear about caps that blocked a payout
func (s *budgetService) publishExhausted(ctx context.Context, accountID int64, source models.RewardSource, amountCents int64) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return
	}
	uow.EventBus().Publish(events.BudgetExhaustedEvent{
		AccountID:      accountID,
		Source:         source,
		RequestedCents: amountCents,
	})
	if err := uow.Commit(); err != nil {
		uow.Rollback()
	}
}
