package service

import (
	"arena/config"

	"github.com/stretchr/testify/mock"
)

// testMocks bundles a fully wired mock unit of work for service tests
type testMocks struct {
	uowFactory *MockUnitOfWorkFactory
	uow        *MockUnitOfWork

	accountRepo    *MockAccountRepository
	txnRepo        *MockTransactionRepository
	matchRepo      *MockMatchRepository
	tournamentRepo *MockTournamentRepository
	teamRepo       *MockTeamRepository
	budgetRepo     *MockRewardBudgetRepository
	revenueRepo    *MockPlatformRevenueRepository
	eventBus       *MockEventPublisher
}

func newTestMocks() *testMocks {
	m := &testMocks{
		uowFactory:     &MockUnitOfWorkFactory{},
		uow:            &MockUnitOfWork{},
		accountRepo:    &MockAccountRepository{},
		txnRepo:        &MockTransactionRepository{},
		matchRepo:      &MockMatchRepository{},
		tournamentRepo: &MockTournamentRepository{},
		teamRepo:       &MockTeamRepository{},
		budgetRepo:     &MockRewardBudgetRepository{},
		revenueRepo:    &MockPlatformRevenueRepository{},
		eventBus:       &MockEventPublisher{},
	}

	m.uow.SetRepositories(
		m.accountRepo,
		m.txnRepo,
		m.matchRepo,
		m.tournamentRepo,
		m.teamRepo,
		m.budgetRepo,
		m.revenueRepo,
		m.eventBus,
	)

	m.uowFactory.On("Create").Return(m.uow)
	m.uow.On("Begin", mock.Anything).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)

	return m
}

// testConfig returns the production settlement defaults without touching the
// environment
func testConfig() *config.Config {
	return &config.Config{
		MatchFeePercent:          10,
		SideBetFeePercent:        5,
		MinEntryFeeCents:         100,
		SnapshotTxnLimit:         50,
		TournamentPoolPercent:    60,
		TournamentProfitPercent:  30,
		TournamentReservePercent: 10,
		PrizeSharePercents:       []int64{50, 30, 20},
		DailyRewardBudgetCents:   1_000_000,
		Environment:              "test",
	}
}
