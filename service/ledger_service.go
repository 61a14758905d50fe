package service

import (
	"context"
	"fmt"

	"arena/config"
	"arena/events"
	"arena/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type ledgerService struct {
	uowFactory UnitOfWorkFactory
	config     *config.Config
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory, cfg *config.Config) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
		config:     cfg,
	}
}

// CreateAccount creates a new empty account
func (s *ledgerService) CreateAccount(ctx context.Context) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	uow.EventBus().Publish(events.AccountCreatedEvent{AccountID: account.ID})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("accountID", account.ID).Info("Created account")
	return account, nil
}

// Adjust applies a single validated balance adjustment in its own transaction
func (s *ledgerService) Adjust(ctx context.Context, req AdjustmentRequest) (*AdjustmentResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := ApplyAdjustment(ctx, uow, req)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

// GetSnapshot returns the account with its most recent transactions
func (s *ledgerService) GetSnapshot(ctx context.Context, accountID int64) (*models.Snapshot, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, models.ErrAccountNotFound
	}

	transactions, err := uow.TransactionRepository().GetByAccount(ctx, accountID, s.config.SnapshotTxnLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.Snapshot{
		Account:      account,
		Transactions: transactions,
	}, nil
}

// ApplyDeposit credits a confirmed payment-processor deposit. Deposited money
// is withdrawable immediately and counts toward the lifetime deposit total.
func (s *ledgerService) ApplyDeposit(ctx context.Context, accountID, amountCents int64, referenceID string) (*AdjustmentResult, error) {
	result, err := s.Adjust(ctx, AdjustmentRequest{
		AccountID:          accountID,
		AmountCents:        amountCents,
		Direction:          models.DirectionCredit,
		Kind:               models.TransactionKindDeposit,
		Description:        "Deposit",
		ReferenceID:        referenceID,
		AffectWithdrawable: true,
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"accountID":   accountID,
		"amountCents": amountCents,
		"referenceID": referenceID,
	}).Info("Applied deposit")
	return result, nil
}

// RequestWithdrawal debits the withdrawable balance and opens a pending
// withdrawal transaction. The debit happens immediately so the money cannot be
// staked while the payout is in flight; lifetime totals only move once the
// withdrawal is marked paid.
func (s *ledgerService) RequestWithdrawal(ctx context.Context, accountID, amountCents int64) (*models.Transaction, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("withdrawal amount must be positive, got %d", amountCents)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
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

	updated, err := uow.AccountRepository().DebitWithdrawable(ctx, accountID, amountCents)
	if err != nil {
		return nil, err
	}

	// Reference ID correlates the pending request with the payout leg in the
	// external payment processor
	txn := &models.Transaction{
		AccountID:    accountID,
		Kind:         models.TransactionKindWithdrawal,
		Direction:    models.DirectionDebit,
		AmountCents:  amountCents,
		Status:       models.TransactionStatusPending,
		Description:  "Withdrawal request",
		ReferenceID:  fmt.Sprintf("withdrawal:%s", uuid.NewString()),
		BalanceAfter: updated.BalanceCents,
	}
	if err := uow.TransactionRepository().Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangedEvent{
		AccountID:    accountID,
		OldBalance:   oldBalance,
		NewBalance:   updated.BalanceCents,
		Kind:         models.TransactionKindWithdrawal,
		ChangeAmount: -amountCents,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"accountID":     accountID,
		"amountCents":   amountCents,
		"transactionID": txn.ID,
	}).Info("Withdrawal requested")
	return txn, nil
}

// GrantAdCredit adds segregated advertiser credit. Ad credit never touches
// the spendable balance; the ledger record carries the unchanged balance so
// the statement still reads in order.
func (s *ledgerService) GrantAdCredit(ctx context.Context, accountID, amountCents int64, description string) error {
	if amountCents <= 0 {
		return fmt.Errorf("ad credit amount must be positive, got %d", amountCents)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return models.ErrAccountNotFound
	}
	if account.IsBanned {
		return models.ErrAccountSuspended
	}

	if err := uow.AccountRepository().AddAdCredit(ctx, accountID, amountCents); err != nil {
		return err
	}

	txn := &models.Transaction{
		AccountID:    accountID,
		Kind:         models.TransactionKindAdCredit,
		Direction:    models.DirectionCredit,
		AmountCents:  amountCents,
		Status:       models.TransactionStatusCompleted,
		Description:  description,
		BalanceAfter: account.BalanceCents,
	}
	if err := uow.TransactionRepository().Create(ctx, txn); err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"accountID":   accountID,
		"amountCents": amountCents,
	}).Info("Granted ad credit")
	return nil
}

// SetAccountSuspended flips the suspension flag on an account
func (s *ledgerService) SetAccountSuspended(ctx context.Context, accountID int64, suspended bool) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.AccountRepository().SetBanned(ctx, accountID, suspended); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"accountID": accountID,
		"suspended": suspended,
	}).Info("Updated account suspension")
	return nil
}

// MarkWithdrawalPaid completes a pending withdrawal after the payout settles
func (s *ledgerService) MarkWithdrawalPaid(ctx context.Context, transactionID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	txn, err := uow.TransactionRepository().GetByID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("failed to get transaction: %w", err)
	}
	if txn == nil || txn.Kind != models.TransactionKindWithdrawal {
		return models.ErrInvalidState
	}

	if err := uow.TransactionRepository().UpdateStatus(ctx, transactionID, models.TransactionStatusCompleted); err != nil {
		return err
	}
	if err := uow.AccountRepository().AddLifetimeTotals(ctx, txn.AccountID, 0, txn.AmountCents, 0); err != nil {
		return fmt.Errorf("failed to update lifetime totals: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"accountID":     txn.AccountID,
		"transactionID": transactionID,
	}).Info("Withdrawal paid")
	return nil
}

// RejectWithdrawal rejects a pending withdrawal and credits the debit back,
// restoring the withdrawable balance as well
func (s *ledgerService) RejectWithdrawal(ctx context.Context, transactionID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	txn, err := uow.TransactionRepository().GetByID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("failed to get transaction: %w", err)
	}
	if txn == nil || txn.Kind != models.TransactionKindWithdrawal {
		return models.ErrInvalidState
	}

	if err := uow.TransactionRepository().UpdateStatus(ctx, transactionID, models.TransactionStatusRejected); err != nil {
		return err
	}

	updated, err := uow.AccountRepository().Credit(ctx, txn.AccountID, txn.AmountCents, true)
	if err != nil {
		return fmt.Errorf("failed to refund withdrawal: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangedEvent{
		AccountID:    txn.AccountID,
		OldBalance:   updated.BalanceCents - txn.AmountCents,
		NewBalance:   updated.BalanceCents,
		Kind:         models.TransactionKindWithdrawal,
		ChangeAmount: txn.AmountCents,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"accountID":     txn.AccountID,
		"transactionID": transactionID,
	}).Info("Withdrawal rejected and refunded")
	return nil
}
