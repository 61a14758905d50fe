package service

import (
	"context"
	"fmt"

	"arena/events"
	"arena/models"
)

// AdjustmentRequest describes a single balance movement to apply through the
// ledger. Every settlement path builds one of these rather than touching the
// account repository directly, so validation, lifetime totals, transaction
// records and events stay consistent everywhere.
type AdjustmentRequest struct {
	AccountID   int64
	AmountCents int64
	Direction   models.Direction
	Kind        models.TransactionKind
	Description string
	ReferenceID string

	// AffectWithdrawable controls whether the movement also shifts the
	// withdrawable balance (prize payouts do, game rewards do not)
	AffectWithdrawable bool

	// AllowNegative skips the overdraw guard on debits (admin corrections)
	AllowNegative bool

	// Status defaults to completed when empty
	Status models.TransactionStatus
}

// AdjustmentResult carries the outcome of an applied adjustment
type AdjustmentResult struct {
	Account     *models.Account
	Transaction *models.Transaction
	OldBalance  int64
}

// ApplyAdjustment validates and applies a balance adjustment inside an
// already-begun unit of work: it moves the balance, bumps lifetime totals,
// appends the ledger transaction and publishes a balance-changed event. The
// caller owns commit and rollback.
func ApplyAdjustment(ctx context.Context, uow UnitOfWork, req AdjustmentRequest) (*AdjustmentResult, error) {
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("adjustment amount must be positive, got %d", req.AmountCents)
	}
	if req.Direction != models.DirectionCredit && req.Direction != models.DirectionDebit {
		return nil, fmt.Errorf("invalid adjustment direction %q", req.Direction)
	}
	if req.Status == "" {
		req.Status = models.TransactionStatusCompleted
	}

	accountRepo := uow.AccountRepository()

	account, err := accountRepo.GetByID(ctx, req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, models.ErrAccountNotFound
	}
	if account.IsBanned {
		return nil, models.ErrAccountSuspended
	}

	oldBalance := account.BalanceCents

	var updated *models.Account
	if req.Direction == models.DirectionCredit {
		updated, err = accountRepo.Credit(ctx, req.AccountID, req.AmountCents, req.AffectWithdrawable)
	} else {
		updated, err = accountRepo.Debit(ctx, req.AccountID, req.AmountCents, req.AffectWithdrawable, req.AllowNegative)
	}
	if err != nil {
		return nil, err
	}

	deposited, withdrawn, earned := lifetimeDeltas(req)
	if deposited != 0 || withdrawn != 0 || earned != 0 {
		if err := accountRepo.AddLifetimeTotals(ctx, req.AccountID, deposited, withdrawn, earned); err != nil {
			return nil, fmt.Errorf("failed to update lifetime totals: %w", err)
		}
	}

	txn := &models.Transaction{
		AccountID:    req.AccountID,
		Kind:         req.Kind,
		Direction:    req.Direction,
		AmountCents:  req.AmountCents,
		Status:       req.Status,
		Description:  req.Description,
		ReferenceID:  req.ReferenceID,
		BalanceAfter: updated.BalanceCents,
	}
	if err := uow.TransactionRepository().Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	change := req.AmountCents
	if req.Direction == models.DirectionDebit {
		change = -change
	}
	uow.EventBus().Publish(events.BalanceChangedEvent{
		AccountID:    req.AccountID,
		OldBalance:   oldBalance,
		NewBalance:   updated.BalanceCents,
		Kind:         req.Kind,
		ChangeAmount: change,
		ReferenceID:  req.ReferenceID,
	})

	return &AdjustmentResult{
		Account:     updated,
		Transaction: txn,
		OldBalance:  oldBalance,
	}, nil
}

// lifetimeDeltas maps a completed adjustment onto the lifetime counters.
// Pending withdrawals count only once marked paid, which the ledger service
// handles separately.
func lifetimeDeltas(req AdjustmentRequest) (deposited, withdrawn, earned int64) {
	if req.Status != models.TransactionStatusCompleted {
		return 0, 0, 0
	}
	switch {
	case req.Kind == models.TransactionKindDeposit && req.Direction == models.DirectionCredit:
		deposited = req.AmountCents
	case req.Kind == models.TransactionKindWithdrawal && req.Direction == models.DirectionDebit:
		withdrawn = req.AmountCents
	case req.Direction == models.DirectionCredit && isEarningKind(req.Kind):
		earned = req.AmountCents
	}
	return deposited, withdrawn, earned
}

func isEarningKind(kind models.TransactionKind) bool {
	switch kind {
	case models.TransactionKindMatchPrize,
		models.TransactionKindTournamentPrize,
		models.TransactionKindTeamPrize,
		models.TransactionKindGameReward,
		models.TransactionKindReferral,
		models.TransactionKindReferralCommission:
		return true
	}
	return false
}
