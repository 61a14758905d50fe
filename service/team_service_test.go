package service

import (
	"context"
	"testing"

	"arena/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateTeam_EnrolsOwner(t *testing.T) {
	mocks := newTestMocks()
	svc := NewTeamService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	mocks.teamRepo.On("Create", ctx, mock.AnythingOfType("*models.Team")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Team).ID = 7
		}).Return(nil)

	var member *models.TeamMember
	mocks.teamRepo.On("AddMember", ctx, mock.AnythingOfType("*models.TeamMember")).
		Run(func(args mock.Arguments) {
			member = args.Get(1).(*models.TeamMember)
		}).Return(nil)

	team, err := svc.CreateTeam(ctx, 1, "Night Shift")
	require.NoError(t, err)

	assert.Equal(t, int64(7), team.ID)
	require.NotNil(t, member)
	assert.Equal(t, int64(7), member.TeamID)
	assert.Equal(t, int64(1), member.AccountID)
}

func TestCreateTeam_DuplicateName(t *testing.T) {
	mocks := newTestMocks()
	svc := NewTeamService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	mocks.teamRepo.On("Create", ctx, mock.Anything).Return(models.ErrConflict)

	_, err := svc.CreateTeam(ctx, 1, "Night Shift")
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestJoinTeam_ExclusiveMembership(t *testing.T) {
	mocks := newTestMocks()
	svc := NewTeamService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	mocks.teamRepo.On("GetByID", ctx, int64(7)).Return(&models.Team{ID: 7}, nil)
	mocks.teamRepo.On("AddMember", ctx, mock.Anything).Return(models.ErrAlreadyJoined)

	assert.ErrorIs(t, svc.JoinTeam(ctx, 7, 2), models.ErrAlreadyJoined)
}

func TestJoinTeam_RefreshesTotal(t *testing.T) {
	mocks := newTestMocks()
	svc := NewTeamService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	mocks.teamRepo.On("GetByID", ctx, int64(7)).Return(&models.Team{ID: 7}, nil)
	mocks.teamRepo.On("AddMember", ctx, mock.Anything).Return(nil)
	mocks.teamRepo.On("SumMemberScores", ctx, int64(7)).Return(int64(40), nil)
	mocks.teamRepo.On("UpdateTotalScore", ctx, int64(7), int64(40)).Return(nil)

	require.NoError(t, svc.JoinTeam(ctx, 7, 2))
	mocks.teamRepo.AssertExpectations(t)
}

func TestLeaveTeam_RefreshesTotal(t *testing.T) {
	mocks := newTestMocks()
	svc := NewTeamService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	mocks.teamRepo.On("RemoveMember", ctx, int64(7), int64(2)).Return(nil)
	mocks.teamRepo.On("SumMemberScores", ctx, int64(7)).Return(int64(15), nil)
	mocks.teamRepo.On("UpdateTotalScore", ctx, int64(7), int64(15)).Return(nil)

	require.NoError(t, svc.LeaveTeam(ctx, 7, 2))
	mocks.teamRepo.AssertExpectations(t)
}

func TestDistributeTeamPrize_EvenSplitWithRemainder(t *testing.T) {
	mocks := newTestMocks()
	svc := NewTeamService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	members := []*models.TeamMember{
		{TeamID: 7, AccountID: 1},
		{TeamID: 7, AccountID: 2},
		{TeamID: 7, AccountID: 3},
	}
	mocks.teamRepo.On("GetMembers", ctx, int64(7)).Return(members, nil)

	// 1000 over three members: 334 to the earliest joined, 333 to the rest
	for _, m := range members {
		mocks.accountRepo.On("GetByID", ctx, m.AccountID).Return(&models.Account{ID: m.AccountID}, nil)
	}
	mocks.accountRepo.On("Credit", ctx, int64(1), int64(334), true).Return(&models.Account{ID: 1}, nil)
	mocks.accountRepo.On("Credit", ctx, int64(2), int64(333), true).Return(&models.Account{ID: 2}, nil)
	mocks.accountRepo.On("Credit", ctx, int64(3), int64(333), true).Return(&models.Account{ID: 3}, nil)
	mocks.accountRepo.On("AddLifetimeTotals", ctx, mock.Anything, int64(0), int64(0), mock.Anything).Return(nil)
	mocks.txnRepo.On("Create", ctx, mock.Anything).Return(nil)

	shares, err := svc.DistributeTeamPrize(ctx, 7, 5, 1000, models.TeamPrizeModeEven)
	require.NoError(t, err)

	require.Len(t, shares, 3)
	var total int64
	for _, share := range shares {
		total += share.AmountCents
	}
	assert.Equal(t, int64(1000), total)
	assert.Equal(t, int64(334), shares[0].AmountCents)
}

func TestDistributeTeamPrize_ByContribution(t *testing.T) {
	mocks := newTestMocks()
	svc := NewTeamService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	members := []*models.TeamMember{
		{TeamID: 7, AccountID: 1},
		{TeamID: 7, AccountID: 2},
		{TeamID: 7, AccountID: 3},
	}
	contributions := map[int64]int64{1: 50, 2: 30, 3: 20}

	mocks.teamRepo.On("GetMembers", ctx, int64(7)).Return(members, nil)
	mocks.teamRepo.On("MemberContributions", ctx, int64(7), int64(5)).Return(contributions, nil)
	for _, m := range members {
		mocks.accountRepo.On("GetByID", ctx, m.AccountID).Return(&models.Account{ID: m.AccountID}, nil)
	}
	mocks.accountRepo.On("Credit", ctx, int64(1), int64(500), true).Return(&models.Account{ID: 1}, nil)
	mocks.accountRepo.On("Credit", ctx, int64(2), int64(300), true).Return(&models.Account{ID: 2}, nil)
	mocks.accountRepo.On("Credit", ctx, int64(3), int64(200), true).Return(&models.Account{ID: 3}, nil)
	mocks.accountRepo.On("AddLifetimeTotals", ctx, mock.Anything, int64(0), int64(0), mock.Anything).Return(nil)
	mocks.txnRepo.On("Create", ctx, mock.Anything).Return(nil)

	shares, err := svc.DistributeTeamPrize(ctx, 7, 5, 1000, models.TeamPrizeModeByContribution)
	require.NoError(t, err)

	require.Len(t, shares, 3)
	assert.Equal(t, int64(500), shares[0].AmountCents)
	assert.Equal(t, int64(300), shares[1].AmountCents)
	assert.Equal(t, int64(200), shares[2].AmountCents)
}

func TestDistributeTeamPrize_ZeroScoresFallBackToEven(t *testing.T) {
	mocks := newTestMocks()
	svc := NewTeamService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	members := []*models.TeamMember{
		{TeamID: 7, AccountID: 1},
		{TeamID: 7, AccountID: 2},
	}
	mocks.teamRepo.On("GetMembers", ctx, int64(7)).Return(members, nil)
	mocks.teamRepo.On("MemberContributions", ctx, int64(7), int64(5)).Return(map[int64]int64{}, nil)
	for _, m := range members {
		mocks.accountRepo.On("GetByID", ctx, m.AccountID).Return(&models.Account{ID: m.AccountID}, nil)
	}
	mocks.accountRepo.On("Credit", ctx, int64(1), int64(500), true).Return(&models.Account{ID: 1}, nil)
	mocks.accountRepo.On("Credit", ctx, int64(2), int64(500), true).Return(&models.Account{ID: 2}, nil)
	mocks.accountRepo.On("AddLifetimeTotals", ctx, mock.Anything, int64(0), int64(0), mock.Anything).Return(nil)
	mocks.txnRepo.On("Create", ctx, mock.Anything).Return(nil)

	shares, err := svc.DistributeTeamPrize(ctx, 7, 5, 1000, models.TeamPrizeModeByContribution)
	require.NoError(t, err)
	require.Len(t, shares, 2)
	assert.Equal(t, int64(500), shares[0].AmountCents)
	assert.Equal(t, int64(500), shares[1].AmountCents)
}

func TestDistributeTeamPrize_EmptyTeam(t *testing.T) {
	mocks := newTestMocks()
	svc := NewTeamService(mocks.uowFactory, testConfig())
	ctx := context.Background()

	mocks.teamRepo.On("GetMembers", ctx, int64(7)).Return([]*models.TeamMember{}, nil)

	_, err := svc.DistributeTeamPrize(ctx, 7, 5, 1000, models.TeamPrizeModeEven)
	assert.Error(t, err)
}
