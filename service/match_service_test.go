package service

import (
	"context"
	"testing"

	"arena/combat"
	"arena/events"
	"arena/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 {
	return &v
}

func TestCreateMatch_BelowMinimumStake(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())

	_, err := svc.CreateMatch(context.Background(), 1, 50)
	assert.ErrorIs(t, err, models.ErrBelowMinimum)
}

func TestCreateMatch_StakesHostIntoEscrow(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	account := &models.Account{ID: 1, BalanceCents: 1000, WithdrawableCents: 1000}
	updated := &models.Account{ID: 1, BalanceCents: 500, WithdrawableCents: 500}

	mocks.matchRepo.On("Create", ctx, mock.AnythingOfType("*models.Match")).
		Run(func(args mock.Arguments) {
			m := args.Get(1).(*models.Match)
			m.ID = 10
			assert.Equal(t, models.MatchStatusOpen, m.Status)
			assert.Equal(t, int64(500), m.TotalPotCents)
			assert.Equal(t, int64(100), m.PlatformFeeCents)
		}).Return(nil)
	mocks.accountRepo.On("GetByID", ctx, int64(1)).Return(account, nil)
	mocks.accountRepo.On("Debit", ctx, int64(1), int64(500), true, false).Return(updated, nil)
	mocks.txnRepo.On("Create", ctx, mock.Anything).Return(nil)

	var hold *models.EscrowHold
	mocks.matchRepo.On("CreateHold", ctx, mock.AnythingOfType("*models.EscrowHold")).
		Run(func(args mock.Arguments) {
			hold = args.Get(1).(*models.EscrowHold)
		}).Return(nil)

	match, err := svc.CreateMatch(ctx, 1, 500)
	require.NoError(t, err)

	assert.Equal(t, int64(10), match.ID)
	assert.NotZero(t, match.Seed)
	require.NotNil(t, hold)
	assert.Equal(t, int64(10), hold.MatchID)
	assert.Equal(t, int64(500), hold.AmountCents)
	assert.Equal(t, models.EscrowHoldStatusHeld, hold.Status)
}

func TestJoinMatch_ActivatesWithFullPot(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	open := &models.Match{
		ID:            10,
		HostAccountID: 1,
		EntryFeeCents: 500,
		TotalPotCents: 500,
		Status:        models.MatchStatusOpen,
	}
	account := &models.Account{ID: 2, BalanceCents: 800, WithdrawableCents: 800}
	updated := &models.Account{ID: 2, BalanceCents: 300, WithdrawableCents: 300}

	mocks.matchRepo.On("GetByID", ctx, int64(10)).Return(open, nil)
	mocks.accountRepo.On("GetByID", ctx, int64(2)).Return(account, nil)
	mocks.accountRepo.On("Debit", ctx, int64(2), int64(500), true, false).Return(updated, nil)
	mocks.txnRepo.On("Create", ctx, mock.Anything).Return(nil)
	mocks.matchRepo.On("CreateHold", ctx, mock.AnythingOfType("*models.EscrowHold")).Return(nil)
	mocks.matchRepo.On("ClaimJoin", ctx, int64(10), int64(2), int64(1000), int64(100)).Return(true, nil)

	match, err := svc.JoinMatch(ctx, 10, 2)
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusActive, match.Status)
	assert.Equal(t, int64(1000), match.TotalPotCents)
	assert.Equal(t, int64(100), match.PlatformFeeCents)
	require.NotNil(t, match.OpponentAccountID)
	assert.Equal(t, int64(2), *match.OpponentAccountID)
}

func TestJoinMatch_HostCannotJoinOwnMatch(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	open := &models.Match{ID: 10, HostAccountID: 1, Status: models.MatchStatusOpen}
	mocks.matchRepo.On("GetByID", ctx, int64(10)).Return(open, nil)

	_, err := svc.JoinMatch(ctx, 10, 1)
	assert.ErrorIs(t, err, models.ErrAlreadyJoined)
}

func TestJoinMatch_AlreadyActive(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	active := &models.Match{ID: 10, HostAccountID: 1, Status: models.MatchStatusActive}
	mocks.matchRepo.On("GetByID", ctx, int64(10)).Return(active, nil)

	_, err := svc.JoinMatch(ctx, 10, 2)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestEndMatch_PaysWinnerPotLessFee(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	active := &models.Match{
		ID:                10,
		HostAccountID:     1,
		OpponentAccountID: int64Ptr(2),
		EntryFeeCents:     250,
		TotalPotCents:     500,
		PlatformFeeCents:  50,
		Status:            models.MatchStatusActive,
	}
	winner := &models.Account{ID: 1, BalanceCents: 0}
	paid := &models.Account{ID: 1, BalanceCents: 450, WithdrawableCents: 450}

	mocks.matchRepo.On("GetByID", ctx, int64(10)).Return(active, nil)
	mocks.matchRepo.On("ClaimSettlement", ctx, int64(10), int64(1)).Return(true, nil)
	mocks.accountRepo.On("GetByID", ctx, int64(1)).Return(winner, nil)
	mocks.accountRepo.On("Credit", ctx, int64(1), int64(450), true).Return(paid, nil)
	mocks.accountRepo.On("AddLifetimeTotals", ctx, int64(1), int64(0), int64(0), int64(450)).Return(nil)
	mocks.txnRepo.On("Create", ctx, mock.Anything).Return(nil)
	mocks.matchRepo.On("SetHoldStatus", ctx, int64(10), int64(1), models.EscrowHoldStatusReleased).Return(nil)
	mocks.matchRepo.On("SetHoldStatus", ctx, int64(10), int64(2), models.EscrowHoldStatusForfeited).Return(nil)
	mocks.matchRepo.On("GetSideBets", ctx, int64(10)).Return([]*models.SideBet{}, nil)

	var revenue *models.PlatformRevenue
	mocks.revenueRepo.On("Record", ctx, mock.AnythingOfType("*models.PlatformRevenue")).
		Run(func(args mock.Arguments) {
			revenue = args.Get(1).(*models.PlatformRevenue)
		}).Return(nil)

	result, err := svc.EndMatch(ctx, 10, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(450), result.PayoutCents)
	assert.Equal(t, int64(50), result.PlatformFeeCents)
	assert.Equal(t, int64(2), result.LoserAccountID)
	assert.False(t, result.AlreadySettled)

	require.NotNil(t, revenue)
	assert.Equal(t, models.RevenueSourceMatchFee, revenue.Source)
	assert.Equal(t, int64(50), revenue.AmountCents)

	var settled bool
	for _, ev := range mocks.eventBus.Events {
		if e, ok := ev.(events.MatchSettledEvent); ok {
			settled = true
			assert.Equal(t, int64(450), e.PayoutCents)
		}
	}
	assert.True(t, settled, "expected a match settled event")
}

func TestEndMatch_RepeatCallReturnsRecordedOutcome(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	completed := &models.Match{
		ID:                10,
		HostAccountID:     1,
		OpponentAccountID: int64Ptr(2),
		TotalPotCents:     500,
		PlatformFeeCents:  50,
		Status:            models.MatchStatusCompleted,
		WinnerAccountID:   int64Ptr(1),
	}
	mocks.matchRepo.On("GetByID", ctx, int64(10)).Return(completed, nil)
	mocks.matchRepo.On("GetSideBets", ctx, int64(10)).Return([]*models.SideBet{}, nil)

	result, err := svc.EndMatch(ctx, 10, 2)
	require.NoError(t, err)

	assert.True(t, result.AlreadySettled)
	assert.Equal(t, int64(1), result.WinnerAccountID)
	assert.Equal(t, int64(450), result.PayoutCents)
	mocks.accountRepo.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEndMatch_NonParticipantWinner(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	active := &models.Match{
		ID:                10,
		HostAccountID:     1,
		OpponentAccountID: int64Ptr(2),
		Status:            models.MatchStatusActive,
	}
	mocks.matchRepo.On("GetByID", ctx, int64(10)).Return(active, nil)

	_, err := svc.EndMatch(ctx, 10, 99)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestEndMatch_SideBetsShareLosingPool(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	active := &models.Match{
		ID:                10,
		HostAccountID:     1,
		OpponentAccountID: int64Ptr(2),
		TotalPotCents:     1000,
		PlatformFeeCents:  100,
		Status:            models.MatchStatusActive,
	}
	bets := []*models.SideBet{
		{ID: 21, MatchID: 10, BettorAccountID: 3, ChosenAccountID: 1, AmountCents: 200, Status: models.SideBetStatusPending},
		{ID: 22, MatchID: 10, BettorAccountID: 4, ChosenAccountID: 2, AmountCents: 300, Status: models.SideBetStatusPending},
	}

	mocks.matchRepo.On("GetByID", ctx, int64(10)).Return(active, nil)
	mocks.matchRepo.On("ClaimSettlement", ctx, int64(10), int64(1)).Return(true, nil)
	mocks.matchRepo.On("SetHoldStatus", ctx, int64(10), mock.Anything, mock.Anything).Return(nil)
	mocks.matchRepo.On("GetSideBets", ctx, int64(10)).Return(bets, nil)
	mocks.matchRepo.On("SetSideBetResult", ctx, int64(22), models.SideBetStatusLost, int64(0)).Return(nil)
	// Losing pool 300, 5% fee of 15, so the lone winning bettor gets
	// stake 200 plus 285
	mocks.matchRepo.On("SetSideBetResult", ctx, int64(21), models.SideBetStatusWon, int64(485)).Return(nil)

	mocks.accountRepo.On("GetByID", ctx, int64(1)).Return(&models.Account{ID: 1}, nil)
	mocks.accountRepo.On("GetByID", ctx, int64(3)).Return(&models.Account{ID: 3}, nil)
	mocks.accountRepo.On("Credit", ctx, int64(1), int64(900), true).Return(&models.Account{ID: 1, BalanceCents: 900}, nil)
	mocks.accountRepo.On("Credit", ctx, int64(3), int64(485), true).Return(&models.Account{ID: 3, BalanceCents: 485}, nil)
	mocks.accountRepo.On("AddLifetimeTotals", ctx, mock.Anything, int64(0), int64(0), mock.Anything).Return(nil)
	mocks.txnRepo.On("Create", ctx, mock.Anything).Return(nil)
	mocks.revenueRepo.On("Record", ctx, mock.AnythingOfType("*models.PlatformRevenue")).Return(nil)

	result, err := svc.EndMatch(ctx, 10, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(485), result.SideBetPayouts[3])
	mocks.matchRepo.AssertExpectations(t)
}

func TestEndMatch_NoWinningSideBetsPoolToRevenue(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	active := &models.Match{
		ID:                10,
		HostAccountID:     1,
		OpponentAccountID: int64Ptr(2),
		TotalPotCents:     1000,
		PlatformFeeCents:  100,
		Status:            models.MatchStatusActive,
	}
	bets := []*models.SideBet{
		{ID: 22, MatchID: 10, BettorAccountID: 4, ChosenAccountID: 2, AmountCents: 300, Status: models.SideBetStatusPending},
	}

	mocks.matchRepo.On("GetByID", ctx, int64(10)).Return(active, nil)
	mocks.matchRepo.On("ClaimSettlement", ctx, int64(10), int64(1)).Return(true, nil)
	mocks.matchRepo.On("SetHoldStatus", ctx, int64(10), mock.Anything, mock.Anything).Return(nil)
	mocks.matchRepo.On("GetSideBets", ctx, int64(10)).Return(bets, nil)
	mocks.matchRepo.On("SetSideBetResult", ctx, int64(22), models.SideBetStatusLost, int64(0)).Return(nil)

	mocks.accountRepo.On("GetByID", ctx, int64(1)).Return(&models.Account{ID: 1}, nil)
	mocks.accountRepo.On("Credit", ctx, int64(1), int64(900), true).Return(&models.Account{ID: 1, BalanceCents: 900}, nil)
	mocks.accountRepo.On("AddLifetimeTotals", ctx, int64(1), int64(0), int64(0), int64(900)).Return(nil)
	mocks.txnRepo.On("Create", ctx, mock.Anything).Return(nil)

	var revenues []*models.PlatformRevenue
	mocks.revenueRepo.On("Record", ctx, mock.AnythingOfType("*models.PlatformRevenue")).
		Run(func(args mock.Arguments) {
			revenues = append(revenues, args.Get(1).(*models.PlatformRevenue))
		}).Return(nil)

	result, err := svc.EndMatch(ctx, 10, 1)
	require.NoError(t, err)
	assert.Empty(t, result.SideBetPayouts)

	require.Len(t, revenues, 2)
	assert.Equal(t, models.RevenueSourceMatchFee, revenues[0].Source)
	assert.Equal(t, models.RevenueSourceSideBetFee, revenues[1].Source)
	assert.Equal(t, int64(300), revenues[1].AmountCents)
}

func TestPlaceSideBet_ParticipantCannotBet(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	active := &models.Match{
		ID:                10,
		HostAccountID:     1,
		OpponentAccountID: int64Ptr(2),
		Status:            models.MatchStatusActive,
	}
	mocks.matchRepo.On("GetByID", ctx, int64(10)).Return(active, nil)

	_, err := svc.PlaceSideBet(ctx, 10, 1, 2, 100)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestPlaceSideBet_StakesSpectator(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	active := &models.Match{
		ID:                10,
		HostAccountID:     1,
		OpponentAccountID: int64Ptr(2),
		Status:            models.MatchStatusActive,
	}
	mocks.matchRepo.On("GetByID", ctx, int64(10)).Return(active, nil)
	mocks.accountRepo.On("GetByID", ctx, int64(3)).Return(&models.Account{ID: 3, BalanceCents: 500}, nil)
	mocks.accountRepo.On("Debit", ctx, int64(3), int64(100), true, false).Return(&models.Account{ID: 3, BalanceCents: 400}, nil)
	mocks.txnRepo.On("Create", ctx, mock.Anything).Return(nil)
	mocks.matchRepo.On("CreateSideBet", ctx, mock.AnythingOfType("*models.SideBet")).Return(nil)

	bet, err := svc.PlaceSideBet(ctx, 10, 3, 1, 100)
	require.NoError(t, err)

	assert.Equal(t, int64(1), bet.ChosenAccountID)
	assert.Equal(t, models.SideBetStatusPending, bet.Status)
}

func TestCancelMatch_RefundsHost(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	open := &models.Match{
		ID:            10,
		HostAccountID: 1,
		EntryFeeCents: 500,
		Status:        models.MatchStatusOpen,
	}
	mocks.matchRepo.On("GetByID", ctx, int64(10)).Return(open, nil)
	mocks.matchRepo.On("ClaimCancel", ctx, int64(10)).Return(true, nil)
	mocks.accountRepo.On("GetByID", ctx, int64(1)).Return(&models.Account{ID: 1}, nil)
	mocks.accountRepo.On("Credit", ctx, int64(1), int64(500), true).Return(&models.Account{ID: 1, BalanceCents: 500}, nil)
	mocks.txnRepo.On("Create", ctx, mock.Anything).Return(nil)
	mocks.matchRepo.On("SetHoldStatus", ctx, int64(10), int64(1), models.EscrowHoldStatusRefunded).Return(nil)

	require.NoError(t, svc.CancelMatch(ctx, 10, 1))
	mocks.matchRepo.AssertExpectations(t)
}

func TestCancelMatch_OnlyHostMayCancel(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	open := &models.Match{ID: 10, HostAccountID: 1, Status: models.MatchStatusOpen}
	mocks.matchRepo.On("GetByID", ctx, int64(10)).Return(open, nil)

	assert.ErrorIs(t, svc.CancelMatch(ctx, 10, 2), models.ErrInvalidState)
}

func TestSettleByCombat_SettlesWithSimulatedWinner(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	f1 := combat.Fighter{AccountID: 1, Level: 5, Health: 100}
	f2 := combat.Fighter{AccountID: 2, Level: 5, Health: 100}
	expected := combat.RunFullCombat(f1, f2, 12345, combat.DefaultRules(), nil)

	active := &models.Match{
		ID:                10,
		HostAccountID:     1,
		OpponentAccountID: int64Ptr(2),
		TotalPotCents:     1000,
		PlatformFeeCents:  100,
		Status:            models.MatchStatusActive,
		Seed:              12345,
	}
	mocks.matchRepo.On("GetByID", ctx, int64(10)).Return(active, nil)
	mocks.matchRepo.On("ClaimSettlement", ctx, int64(10), expected.WinnerID).Return(true, nil)
	mocks.matchRepo.On("SetHoldStatus", ctx, int64(10), mock.Anything, mock.Anything).Return(nil)
	mocks.matchRepo.On("GetSideBets", ctx, int64(10)).Return([]*models.SideBet{}, nil)
	mocks.accountRepo.On("GetByID", ctx, expected.WinnerID).Return(&models.Account{ID: expected.WinnerID}, nil)
	mocks.accountRepo.On("Credit", ctx, expected.WinnerID, int64(900), true).
		Return(&models.Account{ID: expected.WinnerID, BalanceCents: 900}, nil)
	mocks.accountRepo.On("AddLifetimeTotals", ctx, expected.WinnerID, int64(0), int64(0), int64(900)).Return(nil)
	mocks.txnRepo.On("Create", ctx, mock.Anything).Return(nil)
	mocks.revenueRepo.On("Record", ctx, mock.Anything).Return(nil)

	combatResult, matchResult, err := svc.SettleByCombat(ctx, 10, f1, f2)
	require.NoError(t, err)

	assert.Equal(t, expected.WinnerID, combatResult.WinnerID)
	assert.Equal(t, expected.WinnerID, matchResult.WinnerAccountID)
	assert.Equal(t, expected.Events, combatResult.Events)
}

func TestSettleByCombat_RequiresActiveMatch(t *testing.T) {
	mocks := newTestMocks()
	svc := NewMatchService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	open := &models.Match{ID: 10, HostAccountID: 1, Status: models.MatchStatusOpen}
	mocks.matchRepo.On("GetByID", ctx, int64(10)).Return(open, nil)

	_, _, err := svc.SettleByCombat(ctx, 10,
		combat.Fighter{AccountID: 1, Health: 100},
		combat.Fighter{AccountID: 2, Health: 100})
	assert.ErrorIs(t, err, models.ErrInvalidState)
}
