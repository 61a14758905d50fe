package service

import (
	"context"
	"time"

	"arena/events"
	"arena/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, accountID int64) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context) (*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Credit(ctx context.Context, accountID int64, amount int64, affectWithdrawable bool) (*models.Account, error) {
	args := m.Called(ctx, accountID, amount, affectWithdrawable)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Debit(ctx context.Context, accountID int64, amount int64, affectWithdrawable, allowNegative bool) (*models.Account, error) {
	args := m.Called(ctx, accountID, amount, affectWithdrawable, allowNegative)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) DebitWithdrawable(ctx context.Context, accountID int64, amount int64) (*models.Account, error) {
	args := m.Called(ctx, accountID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) AddLifetimeTotals(ctx context.Context, accountID int64, deposited, withdrawn, earned int64) error {
	args := m.Called(ctx, accountID, deposited, withdrawn, earned)
	return args.Error(0)
}

func (m *MockAccountRepository) AddAdCredit(ctx context.Context, accountID int64, amount int64) error {
	args := m.Called(ctx, accountID, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) SetBanned(ctx context.Context, accountID int64, banned bool) error {
	args := m.Called(ctx, accountID, banned)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByReference(ctx context.Context, referenceID string) ([]*models.Transaction, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockMatchRepository is a mock implementation of MatchRepository
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) Create(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) ClaimJoin(ctx context.Context, matchID, opponentID, totalPot, platformFee int64) (bool, error) {
	args := m.Called(ctx, matchID, opponentID, totalPot, platformFee)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchRepository) ClaimSettlement(ctx context.Context, matchID, winnerID int64) (bool, error) {
	args := m.Called(ctx, matchID, winnerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchRepository) ClaimCancel(ctx context.Context, matchID int64) (bool, error) {
	args := m.Called(ctx, matchID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMatchRepository) CreateHold(ctx context.Context, hold *models.EscrowHold) error {
	args := m.Called(ctx, hold)
	return args.Error(0)
}

func (m *MockMatchRepository) GetHolds(ctx context.Context, matchID int64) ([]*models.EscrowHold, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.EscrowHold), args.Error(1)
}

func (m *MockMatchRepository) SetHoldStatus(ctx context.Context, matchID, accountID int64, status models.EscrowHoldStatus) error {
	args := m.Called(ctx, matchID, accountID, status)
	return args.Error(0)
}

func (m *MockMatchRepository) CreateSideBet(ctx context.Context, bet *models.SideBet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockMatchRepository) GetSideBets(ctx context.Context, matchID int64) ([]*models.SideBet, error) {
	args := m.Called(ctx, matchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SideBet), args.Error(1)
}

func (m *MockMatchRepository) SetSideBetResult(ctx context.Context, betID int64, status models.SideBetStatus, payoutCents int64) error {
	args := m.Called(ctx, betID, status, payoutCents)
	return args.Error(0)
}

// MockTournamentRepository is a mock implementation of TournamentRepository
type MockTournamentRepository struct {
	mock.Mock
}

func (m *MockTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTournamentRepository) GetByID(ctx context.Context, id int64) (*models.Tournament, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tournament), args.Error(1)
}

func (m *MockTournamentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Tournament, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tournament), args.Error(1)
}

func (m *MockTournamentRepository) AddEntrySplit(ctx context.Context, id int64, pool, profit, reserve int64) error {
	args := m.Called(ctx, id, pool, profit, reserve)
	return args.Error(0)
}

func (m *MockTournamentRepository) SetStatus(ctx context.Context, id int64, from, to models.TournamentStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockTournamentRepository) ClaimEnd(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockTournamentRepository) CreatePlayer(ctx context.Context, player *models.TournamentPlayer) error {
	args := m.Called(ctx, player)
	return args.Error(0)
}

func (m *MockTournamentRepository) GetPlayer(ctx context.Context, tournamentID, accountID int64) (*models.TournamentPlayer, error) {
	args := m.Called(ctx, tournamentID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TournamentPlayer), args.Error(1)
}

func (m *MockTournamentRepository) GetPlayersRanked(ctx context.Context, tournamentID int64) ([]*models.TournamentPlayer, error) {
	args := m.Called(ctx, tournamentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TournamentPlayer), args.Error(1)
}

func (m *MockTournamentRepository) AdjustScore(ctx context.Context, tournamentID, accountID, delta int64) (int64, error) {
	args := m.Called(ctx, tournamentID, accountID, delta)
	return args.Get(0).(int64), args.Error(1)
}

// MockTeamRepository is a mock implementation of TeamRepository
type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Create(ctx context.Context, team *models.Team) error {
	args := m.Called(ctx, team)
	return args.Error(0)
}

func (m *MockTeamRepository) GetByID(ctx context.Context, id int64) (*models.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamRepository) AddMember(ctx context.Context, member *models.TeamMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockTeamRepository) RemoveMember(ctx context.Context, teamID, accountID int64) error {
	args := m.Called(ctx, teamID, accountID)
	return args.Error(0)
}

func (m *MockTeamRepository) GetMemberByAccount(ctx context.Context, accountID int64) (*models.TeamMember, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamMember), args.Error(1)
}

func (m *MockTeamRepository) GetMembers(ctx context.Context, teamID int64) ([]*models.TeamMember, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TeamMember), args.Error(1)
}

func (m *MockTeamRepository) SumMemberScores(ctx context.Context, teamID int64) (int64, error) {
	args := m.Called(ctx, teamID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTeamRepository) MemberContributions(ctx context.Context, teamID, tournamentID int64) (map[int64]int64, error) {
	args := m.Called(ctx, teamID, tournamentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]int64), args.Error(1)
}

func (m *MockTeamRepository) UpdateTotalScore(ctx context.Context, teamID, totalScore int64) error {
	args := m.Called(ctx, teamID, totalScore)
	return args.Error(0)
}

// MockRewardBudgetRepository is a mock implementation of RewardBudgetRepository
type MockRewardBudgetRepository struct {
	mock.Mock
}

func (m *MockRewardBudgetRepository) EnsureDay(ctx context.Context, day time.Time, dailyLimitCents int64) error {
	args := m.Called(ctx, day, dailyLimitCents)
	return args.Error(0)
}

func (m *MockRewardBudgetRepository) Reserve(ctx context.Context, day time.Time, amountCents int64) error {
	args := m.Called(ctx, day, amountCents)
	return args.Error(0)
}

func (m *MockRewardBudgetRepository) Release(ctx context.Context, day time.Time, amountCents int64) error {
	args := m.Called(ctx, day, amountCents)
	return args.Error(0)
}

func (m *MockRewardBudgetRepository) GetDay(ctx context.Context, day time.Time) (*models.RewardBudget, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RewardBudget), args.Error(1)
}

// MockPlatformRevenueRepository is a mock implementation of PlatformRevenueRepository
type MockPlatformRevenueRepository struct {
	mock.Mock
}

func (m *MockPlatformRevenueRepository) Record(ctx context.Context, rev *models.PlatformRevenue) error {
	args := m.Called(ctx, rev)
	return args.Error(0)
}

func (m *MockPlatformRevenueRepository) SumByReference(ctx context.Context, referenceID string) (int64, error) {
	args := m.Called(ctx, referenceID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlatformRevenueRepository) SumBySource(ctx context.Context, source models.RevenueSource) (int64, error) {
	args := m.Called(ctx, source)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher that records
// published events for assertions
type MockEventPublisher struct {
	Events []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Events = append(m.Events, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork backed by the
// repository mocks set on it
type MockUnitOfWork struct {
	mock.Mock
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	matchRepo       MatchRepository
	tournamentRepo  TournamentRepository
	teamRepo        TeamRepository
	budgetRepo      RewardBudgetRepository
	revenueRepo     PlatformRevenueRepository
	eventBus        EventPublisher
}

// SetRepositories wires the mock repositories this unit of work exposes.
// Pass nil for repositories the test never touches.
func (m *MockUnitOfWork) SetRepositories(
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	matchRepo MatchRepository,
	tournamentRepo TournamentRepository,
	teamRepo TeamRepository,
	budgetRepo RewardBudgetRepository,
	revenueRepo PlatformRevenueRepository,
	eventBus EventPublisher,
) {
	m.accountRepo = accountRepo
	m.transactionRepo = transactionRepo
	m.matchRepo = matchRepo
	m.tournamentRepo = tournamentRepo
	m.teamRepo = teamRepo
	m.budgetRepo = budgetRepo
	m.revenueRepo = revenueRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) TransactionRepository() TransactionRepository {
	return m.transactionRepo
}

func (m *MockUnitOfWork) MatchRepository() MatchRepository {
	return m.matchRepo
}

func (m *MockUnitOfWork) TournamentRepository() TournamentRepository {
	return m.tournamentRepo
}

func (m *MockUnitOfWork) TeamRepository() TeamRepository {
	return m.teamRepo
}

func (m *MockUnitOfWork) RewardBudgetRepository() RewardBudgetRepository {
	return m.budgetRepo
}

func (m *MockUnitOfWork) PlatformRevenueRepository() PlatformRevenueRepository {
	return m.revenueRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
