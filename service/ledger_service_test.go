package service

import (
	"context"
	"strings"
	"testing"

	"arena/events"
	"arena/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdjust_CreditRecordsTransaction(t *testing.T) {
	mocks := newTestMocks()
	svc := NewLedgerService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	account := &models.Account{ID: 1, BalanceCents: 1000, WithdrawableCents: 1000}
	updated := &models.Account{ID: 1, BalanceCents: 1500, WithdrawableCents: 1500}

	mocks.accountRepo.On("GetByID", ctx, int64(1)).Return(account, nil)
	mocks.accountRepo.On("Credit", ctx, int64(1), int64(500), true).Return(updated, nil)
	mocks.accountRepo.On("AddLifetimeTotals", ctx, int64(1), int64(500), int64(0), int64(0)).Return(nil)

	var created *models.Transaction
	mocks.txnRepo.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.Transaction)
		}).Return(nil)

	result, err := svc.Adjust(ctx, AdjustmentRequest{
		AccountID:          1,
		AmountCents:        500,
		Direction:          models.DirectionCredit,
		Kind:               models.TransactionKindDeposit,
		Description:        "Deposit",
		AffectWithdrawable: true,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1500), result.Account.BalanceCents)
	assert.Equal(t, int64(1000), result.OldBalance)
	require.NotNil(t, created)
	assert.Equal(t, models.TransactionStatusCompleted, created.Status)
	assert.Equal(t, int64(1500), created.BalanceAfter)

	require.Len(t, mocks.eventBus.Events, 1)
	event := mocks.eventBus.Events[0].(events.BalanceChangedEvent)
	assert.Equal(t, int64(500), event.ChangeAmount)
	assert.Equal(t, int64(1500), event.NewBalance)
}

func TestAdjust_DebitInsufficientFunds(t *testing.T) {
	mocks := newTestMocks()
	svc := NewLedgerService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	account := &models.Account{ID: 1, BalanceCents: 100}
	mocks.accountRepo.On("GetByID", ctx, int64(1)).Return(account, nil)
	mocks.accountRepo.On("Debit", ctx, int64(1), int64(500), true, false).
		Return(nil, models.ErrInsufficientFunds)

	_, err := svc.Adjust(ctx, AdjustmentRequest{
		AccountID:          1,
		AmountCents:        500,
		Direction:          models.DirectionDebit,
		Kind:               models.TransactionKindMatchEntry,
		AffectWithdrawable: true,
	})
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	mocks.txnRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, mocks.eventBus.Events)
}

func TestAdjust_SuspendedAccount(t *testing.T) {
	mocks := newTestMocks()
	svc := NewLedgerService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	account := &models.Account{ID: 1, BalanceCents: 1000, IsBanned: true}
	mocks.accountRepo.On("GetByID", ctx, int64(1)).Return(account, nil)

	_, err := svc.Adjust(ctx, AdjustmentRequest{
		AccountID:   1,
		AmountCents: 100,
		Direction:   models.DirectionCredit,
		Kind:        models.TransactionKindDeposit,
	})
	assert.ErrorIs(t, err, models.ErrAccountSuspended)
	mocks.accountRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdjust_AccountNotFound(t *testing.T) {
	mocks := newTestMocks()
	svc := NewLedgerService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	mocks.accountRepo.On("GetByID", ctx, int64(42)).Return(nil, nil)

	_, err := svc.Adjust(ctx, AdjustmentRequest{
		AccountID:   42,
		AmountCents: 100,
		Direction:   models.DirectionCredit,
		Kind:        models.TransactionKindDeposit,
	})
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestAdjust_RejectsNonPositiveAmount(t *testing.T) {
	mocks := newTestMocks()
	svc := NewLedgerService(mocks.uowFactory, testConfig())

	_, err := svc.Adjust(context.Background(), AdjustmentRequest{
		AccountID:   1,
		AmountCents: 0,
		Direction:   models.DirectionCredit,
		Kind:        models.TransactionKindDeposit,
	})
	assert.Error(t, err)
}

func TestRequestWithdrawal_DebitsWithdrawableAndOpensPending(t *testing.T) {
	mocks := newTestMocks()
	svc := NewLedgerService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	account := &models.Account{ID: 1, BalanceCents: 1000, WithdrawableCents: 1000}
	updated := &models.Account{ID: 1, BalanceCents: 600, WithdrawableCents: 600}

	mocks.accountRepo.On("GetByID", ctx, int64(1)).Return(account, nil)
	mocks.accountRepo.On("DebitWithdrawable", ctx, int64(1), int64(400)).Return(updated, nil)

	var created *models.Transaction
	mocks.txnRepo.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.Transaction)
		}).Return(nil)

	txn, err := svc.RequestWithdrawal(ctx, 1, 400)
	require.NoError(t, err)

	assert.Equal(t, models.TransactionStatusPending, txn.Status)
	assert.Equal(t, models.TransactionKindWithdrawal, txn.Kind)
	assert.Equal(t, int64(600), txn.BalanceAfter)
	require.NotNil(t, created)
	assert.True(t, strings.HasPrefix(created.ReferenceID, "withdrawal:"))
}

func TestRequestWithdrawal_LockedFundsNotWithdrawable(t *testing.T) {
	mocks := newTestMocks()
	svc := NewLedgerService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	// Balance covers the amount but most of it is locked reward money
	account := &models.Account{ID: 1, BalanceCents: 1000, WithdrawableCents: 100}
	mocks.accountRepo.On("GetByID", ctx, int64(1)).Return(account, nil)
	mocks.accountRepo.On("DebitWithdrawable", ctx, int64(1), int64(400)).
		Return(nil, models.ErrInsufficientFunds)

	_, err := svc.RequestWithdrawal(ctx, 1, 400)
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	mocks.txnRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMarkWithdrawalPaid_CompletesAndCountsLifetime(t *testing.T) {
	mocks := newTestMocks()
	svc := NewLedgerService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	txn := &models.Transaction{
		ID:          9,
		AccountID:   1,
		Kind:        models.TransactionKindWithdrawal,
		AmountCents: 400,
		Status:      models.TransactionStatusPending,
	}
	mocks.txnRepo.On("GetByID", ctx, int64(9)).Return(txn, nil)
	mocks.txnRepo.On("UpdateStatus", ctx, int64(9), models.TransactionStatusCompleted).Return(nil)
	mocks.accountRepo.On("AddLifetimeTotals", ctx, int64(1), int64(0), int64(400), int64(0)).Return(nil)

	require.NoError(t, svc.MarkWithdrawalPaid(ctx, 9))
	mocks.accountRepo.AssertExpectations(t)
}

func TestMarkWithdrawalPaid_WrongKind(t *testing.T) {
	mocks := newTestMocks()
	svc := NewLedgerService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	txn := &models.Transaction{ID: 9, Kind: models.TransactionKindDeposit}
	mocks.txnRepo.On("GetByID", ctx, int64(9)).Return(txn, nil)

	assert.ErrorIs(t, svc.MarkWithdrawalPaid(ctx, 9), models.ErrInvalidState)
}

func TestRejectWithdrawal_RefundsDebit(t *testing.T) {
	mocks := newTestMocks()
	svc := NewLedgerService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	txn := &models.Transaction{
		ID:          9,
		AccountID:   1,
		Kind:        models.TransactionKindWithdrawal,
		AmountCents: 400,
		Status:      models.TransactionStatusPending,
	}
	refunded := &models.Account{ID: 1, BalanceCents: 1000, WithdrawableCents: 1000}

	mocks.txnRepo.On("GetByID", ctx, int64(9)).Return(txn, nil)
	mocks.txnRepo.On("UpdateStatus", ctx, int64(9), models.TransactionStatusRejected).Return(nil)
	mocks.accountRepo.On("Credit", ctx, int64(1), int64(400), true).Return(refunded, nil)

	require.NoError(t, svc.RejectWithdrawal(ctx, 9))

	require.Len(t, mocks.eventBus.Events, 1)
	event := mocks.eventBus.Events[0].(events.BalanceChangedEvent)
	assert.Equal(t, int64(400), event.ChangeAmount)
}

func TestGrantAdCredit_StaysOffSpendableBalance(t *testing.T) {
	mocks := newTestMocks()
	svc := NewLedgerService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	account := &models.Account{ID: 1, BalanceCents: 700}
	mocks.accountRepo.On("GetByID", ctx, int64(1)).Return(account, nil)
	mocks.accountRepo.On("AddAdCredit", ctx, int64(1), int64(250)).Return(nil)

	var created *models.Transaction
	mocks.txnRepo.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.Transaction)
		}).Return(nil)

	require.NoError(t, svc.GrantAdCredit(ctx, 1, 250, "Campaign credit"))

	mocks.accountRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	require.NotNil(t, created)
	assert.Equal(t, models.TransactionKindAdCredit, created.Kind)
	assert.Equal(t, int64(700), created.BalanceAfter)
}

func TestSetAccountSuspended(t *testing.T) {
	mocks := newTestMocks()
	svc := NewLedgerService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	mocks.accountRepo.On("SetBanned", ctx, int64(1), true).Return(nil)

	require.NoError(t, svc.SetAccountSuspended(ctx, 1, true))
	mocks.accountRepo.AssertExpectations(t)
}

func TestGetSnapshot(t *testing.T) {
	mocks := newTestMocks()
	svc := NewLedgerService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	account := &models.Account{ID: 1, BalanceCents: 1000}
	transactions := []*models.Transaction{
		{ID: 2, AccountID: 1, AmountCents: 500},
		{ID: 1, AccountID: 1, AmountCents: 500},
	}
	mocks.accountRepo.On("GetByID", ctx, int64(1)).Return(account, nil)
	mocks.txnRepo.On("GetByAccount", ctx, int64(1), 50).Return(transactions, nil)

	snapshot, err := svc.GetSnapshot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, account, snapshot.Account)
	assert.Len(t, snapshot.Transactions, 2)
}

func TestGetSnapshot_AccountNotFound(t *testing.T) {
	mocks := newTestMocks()
	svc := NewLedgerService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	mocks.accountRepo.On("GetByID", ctx, int64(7)).Return(nil, nil)

	_, err := svc.GetSnapshot(ctx, 7)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}
