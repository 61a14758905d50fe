package service

import (
	"context"
	"time"

	"arena/combat"
	"arena/events"
	"arena/models"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, accountID int64) (*models.Account, error)

	// Create creates a new account with zero balances
	Create(ctx context.Context) (*models.Account, error)

	// Credit atomically adds to an account's balance
	Credit(ctx context.Context, accountID int64, amount int64, affectWithdrawable bool) (*models.Account, error)

	// Debit atomically deducts from an account's balance, failing with
	// ErrInsufficientFunds unless allowNegative is set
	Debit(ctx context.Context, accountID int64, amount int64, affectWithdrawable, allowNegative bool) (*models.Account, error)

	// DebitWithdrawable deducts from both balance and withdrawable, failing
	// unless the withdrawable balance covers the amount
	DebitWithdrawable(ctx context.Context, accountID int64, amount int64) (*models.Account, error)

	// AddLifetimeTotals bumps the lifetime counters
	AddLifetimeTotals(ctx context.Context, accountID int64, deposited, withdrawn, earned int64) error

	// AddAdCredit atomically adds segregated advertiser credit
	AddAdCredit(ctx context.Context, accountID int64, amount int64) error

	// SetBanned flips the suspension flag on an account
	SetBanned(ctx context.Context, accountID int64, banned bool) error
}

// TransactionRepository defines the interface for ledger transaction records
type TransactionRepository interface {
	// Create appends a new transaction record
	Create(ctx context.Context, txn *models.Transaction) error

	// GetByID retrieves a transaction by its ID
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)

	// GetByAccount returns the most recent transactions for an account
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Transaction, error)

	// GetByReference returns all transactions correlated to a settlement
	GetByReference(ctx context.Context, referenceID string) ([]*models.Transaction, error)

	// UpdateStatus transitions a pending transaction to a terminal status
	UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus) error
}

// MatchRepository defines the interface for match, escrow hold and side bet
// data access
type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int64) (*models.Match, error)

	// ClaimJoin attaches the opponent and activates an open match; returns
	// false when the match was no longer open
	ClaimJoin(ctx context.Context, matchID, opponentID, totalPot, platformFee int64) (bool, error)

	// ClaimSettlement marks an active match completed; returns false when
	// another settlement already claimed it
	ClaimSettlement(ctx context.Context, matchID, winnerID int64) (bool, error)

	// ClaimCancel marks an open match cancelled
	ClaimCancel(ctx context.Context, matchID int64) (bool, error)

	CreateHold(ctx context.Context, hold *models.EscrowHold) error
	GetHolds(ctx context.Context, matchID int64) ([]*models.EscrowHold, error)
	SetHoldStatus(ctx context.Context, matchID, accountID int64, status models.EscrowHoldStatus) error

	CreateSideBet(ctx context.Context, bet *models.SideBet) error
	GetSideBets(ctx context.Context, matchID int64) ([]*models.SideBet, error)
	SetSideBetResult(ctx context.Context, betID int64, status models.SideBetStatus, payoutCents int64) error
}

// TournamentRepository defines the interface for tournament data access
type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id int64) (*models.Tournament, error)

	// GetByIDForUpdate retrieves a tournament with a row lock held for the
	// remainder of the surrounding transaction
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Tournament, error)

	// AddEntrySplit accumulates one entry fee's split onto the tournament row
	AddEntrySplit(ctx context.Context, id int64, pool, profit, reserve int64) error

	// SetStatus transitions a tournament between non-terminal states
	SetStatus(ctx context.Context, id int64, from, to models.TournamentStatus) error

	// ClaimEnd marks the tournament ended and zeroes the prize pool; returns
	// false when it had already ended
	ClaimEnd(ctx context.Context, id int64) (bool, error)

	CreatePlayer(ctx context.Context, player *models.TournamentPlayer) error
	GetPlayer(ctx context.Context, tournamentID, accountID int64) (*models.TournamentPlayer, error)
	GetPlayersRanked(ctx context.Context, tournamentID int64) ([]*models.TournamentPlayer, error)
	AdjustScore(ctx context.Context, tournamentID, accountID, delta int64) (int64, error)
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int64) (*models.Team, error)
	AddMember(ctx context.Context, member *models.TeamMember) error
	RemoveMember(ctx context.Context, teamID, accountID int64) error
	GetMemberByAccount(ctx context.Context, accountID int64) (*models.TeamMember, error)
	GetMembers(ctx context.Context, teamID int64) ([]*models.TeamMember, error)
	SumMemberScores(ctx context.Context, teamID int64) (int64, error)
	MemberContributions(ctx context.Context, teamID, tournamentID int64) (map[int64]int64, error)
	UpdateTotalScore(ctx context.Context, teamID, totalScore int64) error
}

// RewardBudgetRepository defines the interface for the daily reward budget
type RewardBudgetRepository interface {
	// EnsureDay inserts the day's budget row if it does not exist yet
	EnsureDay(ctx context.Context, day time.Time, dailyLimitCents int64) error

	// Reserve atomically increments the day's used budget within the limit
	Reserve(ctx context.Context, day time.Time, amountCents int64) error

	// Release returns previously reserved budget after a failed credit
	Release(ctx context.Context, day time.Time, amountCents int64) error

	// GetDay returns the budget row for a day
	GetDay(ctx context.Context, day time.Time) (*models.RewardBudget, error)
}

// PlatformRevenueRepository defines the interface for platform revenue records
type PlatformRevenueRepository interface {
	Record(ctx context.Context, rev *models.PlatformRevenue) error
	SumByReference(ctx context.Context, referenceID string) (int64, error)
	SumBySource(ctx context.Context, source models.RevenueSource) (int64, error)
}

// LedgerService defines the interface for balance adjustments. Every cent
// moving in or out of an account goes through Adjust.
type LedgerService interface {
	// CreateAccount creates a new empty account
	CreateAccount(ctx context.Context) (*models.Account, error)

	// Adjust applies a single validated balance adjustment
	Adjust(ctx context.Context, req AdjustmentRequest) (*AdjustmentResult, error)

	// GetSnapshot returns the account with its recent transactions
	GetSnapshot(ctx context.Context, accountID int64) (*models.Snapshot, error)

	// ApplyDeposit credits a confirmed payment-processor deposit
	ApplyDeposit(ctx context.Context, accountID, amountCents int64, referenceID string) (*AdjustmentResult, error)

	// RequestWithdrawal debits the withdrawable balance and opens a pending
	// withdrawal transaction
	RequestWithdrawal(ctx context.Context, accountID, amountCents int64) (*models.Transaction, error)

	// MarkWithdrawalPaid completes a pending withdrawal
	MarkWithdrawalPaid(ctx context.Context, transactionID int64) error

	// RejectWithdrawal rejects a pending withdrawal and refunds the debit
	RejectWithdrawal(ctx context.Context, transactionID int64) error

	// GrantAdCredit adds segregated advertiser credit to an account
	GrantAdCredit(ctx context.Context, accountID, amountCents int64, description string) error

	// SetAccountSuspended flips the suspension flag that blocks all
	// adjustments against the account
	SetAccountSuspended(ctx context.Context, accountID int64, suspended bool) error
}

// BudgetService defines the interface for the daily reward budget governor
type BudgetService interface {
	// Reserve claims part of today's global reward budget
	Reserve(ctx context.Context, amountCents int64) error

	// Release returns budget reserved for a credit that failed
	Release(ctx context.Context, amountCents int64) error

	// GrantGameReward reserves budget and credits a game payout, releasing
	// the reservation when the credit fails
	GrantGameReward(ctx context.Context, accountID, amountCents int64, source models.RewardSource, description string) (*AdjustmentResult, error)

	// Remaining returns today's unreserved budget
	Remaining(ctx context.Context) (int64, error)
}

// MatchService defines the interface for escrow-based head-to-head wagers
type MatchService interface {
	// CreateMatch stakes the host's entry fee and opens a match
	CreateMatch(ctx context.Context, hostID, entryFeeCents int64) (*models.Match, error)

	// JoinMatch stakes the opponent's entry fee and activates the match
	JoinMatch(ctx context.Context, matchID, opponentID int64) (*models.Match, error)

	// EndMatch settles an active match: pays the winner, takes the platform
	// fee and resolves side bets. Idempotent on repeat calls.
	EndMatch(ctx context.Context, matchID, winnerID int64) (*models.MatchResult, error)

	// PlaceSideBet stakes a spectator bet on an active match
	PlaceSideBet(ctx context.Context, matchID, bettorID, chosenID, amountCents int64) (*models.SideBet, error)

	// CancelMatch cancels an unjoined open match and refunds the host
	CancelMatch(ctx context.Context, matchID, hostID int64) error

	// SettleByCombat runs the deterministic combat simulation for an active
	// match and settles it with the simulated winner
	SettleByCombat(ctx context.Context, matchID int64, host, opponent combat.Fighter) (*combat.Result, *models.MatchResult, error)
}

// TournamentService defines the interface for tournament settlement
type TournamentService interface {
	// Create creates a new upcoming tournament
	Create(ctx context.Context, name string, entryFeeCents int64, startAt, endAt time.Time) (*models.Tournament, error)

	// Activate moves an upcoming tournament to active
	Activate(ctx context.Context, tournamentID int64) error

	// Join debits the entry fee, splits it onto the tournament and enters
	// the account with score zero
	Join(ctx context.Context, tournamentID, accountID int64) (*models.TournamentPlayer, error)

	// UpdateScore applies a score delta, floored at zero, and refreshes the
	// account's team total
	UpdateScore(ctx context.Context, tournamentID, accountID, delta int64) (int64, error)

	// EndAndDistribute ranks players and pays the prize pool exactly once
	EndAndDistribute(ctx context.Context, tournamentID int64) (*models.TournamentResult, error)
}

// TeamService defines the interface for team aggregation
type TeamService interface {
	// CreateTeam creates a team and enrols the owner as its first member
	CreateTeam(ctx context.Context, ownerID int64, name string) (*models.Team, error)

	// JoinTeam adds an account to a team; membership is exclusive
	JoinTeam(ctx context.Context, teamID, accountID int64) error

	// LeaveTeam removes an account from a team
	LeaveTeam(ctx context.Context, teamID, accountID int64) error

	// RefreshTotalScore recomputes the derived team total
	RefreshTotalScore(ctx context.Context, teamID int64) (int64, error)

	// DistributeTeamPrize splits a pooled prize across members
	DistributeTeamPrize(ctx context.Context, teamID, tournamentID, amountCents int64, mode models.TeamPrizeMode) ([]models.TeamPrizeShare, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	TransactionRepository() TransactionRepository
	MatchRepository() MatchRepository
	TournamentRepository() TournamentRepository
	TeamRepository() TeamRepository
	RewardBudgetRepository() RewardBudgetRepository
	PlatformRevenueRepository() PlatformRevenueRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
