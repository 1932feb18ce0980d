package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/mizeapp/mize-backend/app/dto"
	"github.com/mizeapp/mize-backend/app/services"
	"github.com/mizeapp/mize-backend/models"
	apptesting "github.com/mizeapp/mize-backend/testing"
	"github.com/mizeapp/mize-backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (env *flowTestEnv) adminCycleFlow() AdminCycleFlow {
	return NewAdminCycleFlow(env.cycleRepo, env.voteRepo, env.contenderRepo, services.NewReportService(), env.db.DB)
}

func TestCreateCycleDefaultsAndValidation(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminCycleFlow()
	ctx := context.Background()

	start := utils.UTCNow().Add(24 * time.Hour)
	end := start.Add(48 * time.Hour)

	item, err := flow.CreateCycle(ctx, &dto.CreateCycleRequest{StartAt: start, EndAt: end}, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultMaxVotesPerUser, item.MaxVotesPerUser)
	assert.Equal(t, "scheduled", item.Status)

	_, err = flow.CreateCycle(ctx, &dto.CreateCycleRequest{StartAt: end.Add(time.Hour), EndAt: end.Add(time.Hour)}, testMetadata())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestCreateCycleOverlap(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminCycleFlow()
	ctx := context.Background()

	now := utils.UTCNow()

	// An ended-but-unclosed cycle still occupies its slot
	_, err := env.fixtures.CreateTestCycle(now.Add(-72*time.Hour), now.Add(-48*time.Hour), 3)
	require.NoError(t, err)

	_, err = flow.CreateCycle(ctx, &dto.CreateCycleRequest{
		StartAt: now.Add(-60 * time.Hour),
		EndAt:   now.Add(-24 * time.Hour),
	}, testMetadata())
	require.Error(t, err)
	assert.True(t, IsCycleOverlap(err))

	// Touching windows at the boundary also count as overlapping
	_, err = flow.CreateCycle(ctx, &dto.CreateCycleRequest{
		StartAt: now.Add(-48 * time.Hour),
		EndAt:   now.Add(-24 * time.Hour),
	}, testMetadata())
	require.Error(t, err)
	assert.True(t, IsCycleOverlap(err))

	// A disjoint window is fine
	_, err = flow.CreateCycle(ctx, &dto.CreateCycleRequest{
		StartAt: now.Add(-24 * time.Hour),
		EndAt:   now.Add(24 * time.Hour),
	}, testMetadata())
	require.NoError(t, err)
}

func TestClosedCycleFreesItsSlot(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminCycleFlow()
	ctx := context.Background()

	now := utils.UTCNow()
	cycle, err := env.fixtures.CreateTestCycle(now.Add(-2*time.Hour), now.Add(2*time.Hour), 3)
	require.NoError(t, err)

	_, err = flow.CloseCycle(ctx, cycle.ID, testMetadata())
	require.NoError(t, err)

	// The same window can now be rescheduled
	_, err = flow.CreateCycle(ctx, &dto.CreateCycleRequest{
		StartAt: now.Add(-1 * time.Hour),
		EndAt:   now.Add(1 * time.Hour),
	}, testMetadata())
	require.NoError(t, err)
}

func TestCloseCycleTwiceRejected(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminCycleFlow()
	ctx := context.Background()

	cycle, err := env.fixtures.CreateActiveCycle(3)
	require.NoError(t, err)

	item, err := flow.CloseCycle(ctx, cycle.ID, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, "closed", item.Status)
	require.NotNil(t, item.ClosedAt)

	_, err = flow.CloseCycle(ctx, cycle.ID, testMetadata())
	require.Error(t, err)
	assert.True(t, IsCycleAlreadyClosed(err))
}

func TestUpdateCycleOverlapExcludesSelf(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminCycleFlow()
	ctx := context.Background()

	now := utils.UTCNow()
	first, err := env.fixtures.CreateTestCycle(now.Add(-2*time.Hour), now.Add(2*time.Hour), 3)
	require.NoError(t, err)
	_, err = env.fixtures.CreateTestCycle(now.Add(24*time.Hour), now.Add(48*time.Hour), 3)
	require.NoError(t, err)

	// Shifting within its own window is allowed
	newEnd := now.Add(3 * time.Hour)
	item, err := flow.UpdateCycle(ctx, first.ID, &dto.UpdateCycleRequest{EndAt: &newEnd}, testMetadata())
	require.NoError(t, err)
	assert.True(t, item.EndAt.Equal(newEnd))

	// Stretching into the other open cycle is not
	intoSecond := now.Add(30 * time.Hour)
	_, err = flow.UpdateCycle(ctx, first.ID, &dto.UpdateCycleRequest{EndAt: &intoSecond}, testMetadata())
	require.Error(t, err)
	assert.True(t, IsCycleOverlap(err))
}

func TestUpdateCycleNotFound(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminCycleFlow()

	limit := 5
	_, err := flow.UpdateCycle(context.Background(), 404, &dto.UpdateCycleRequest{MaxVotesPerUser: &limit}, testMetadata())
	require.Error(t, err)
	assert.True(t, IsCycleNotFound(err))
}

func TestGetCycleResults(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminCycleFlow()
	ctx := context.Background()

	alice, err := env.fixtures.CreateTestContender("alice", models.ContenderStatusActive)
	require.NoError(t, err)
	bob, err := env.fixtures.CreateTestContender("bob", models.ContenderStatusActive)
	require.NoError(t, err)
	carol, err := env.fixtures.CreateTestContender("carol", models.ContenderStatusInactive)
	require.NoError(t, err)

	cycle, err := env.fixtures.CreateActiveCycle(3)
	require.NoError(t, err)

	_, err = env.fixtures.CreateTestVote(cycle.ID, apptesting.NewDeviceToken(), "Dana", "h1", []uint{alice.ID, bob.ID})
	require.NoError(t, err)
	_, err = env.fixtures.CreateTestVote(cycle.ID, apptesting.NewDeviceToken(), "Eli", "h2", []uint{alice.ID})
	require.NoError(t, err)

	resp, err := flow.GetCycleResults(ctx, cycle.ID)
	require.NoError(t, err)
	assert.Equal(t, cycle.ID, resp.CycleID)
	assert.EqualValues(t, 2, resp.TotalVotes)
	require.Len(t, resp.Results, 3, "every contender appears, voted for or not")

	assert.Equal(t, alice.ID, resp.Results[0].ContenderID)
	assert.EqualValues(t, 2, resp.Results[0].VoteCount)
	assert.ElementsMatch(t, []string{"Dana", "Eli"}, resp.Results[0].Voters)

	assert.Equal(t, bob.ID, resp.Results[1].ContenderID)
	assert.EqualValues(t, 1, resp.Results[1].VoteCount)
	assert.Equal(t, []string{"Dana"}, resp.Results[1].Voters)

	assert.Equal(t, carol.ID, resp.Results[2].ContenderID)
	assert.EqualValues(t, 0, resp.Results[2].VoteCount)
	assert.Empty(t, resp.Results[2].Voters)
	assert.NotNil(t, resp.Results[2].Voters, "zero-vote contenders carry an empty list, not null")
}

func TestExportCycleResults(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminCycleFlow()
	ctx := context.Background()

	alice, err := env.fixtures.CreateTestContender("alice", models.ContenderStatusActive)
	require.NoError(t, err)
	cycle, err := env.fixtures.CreateActiveCycle(3)
	require.NoError(t, err)
	_, err = env.fixtures.CreateTestVote(cycle.ID, apptesting.NewDeviceToken(), "Dana", "h1", []uint{alice.ID})
	require.NoError(t, err)

	workbook, err := flow.ExportCycleResults(ctx, cycle.ID)
	require.NoError(t, err)
	require.NotEmpty(t, workbook)
	// xlsx files are zip archives
	assert.Equal(t, []byte{'P', 'K'}, workbook[:2])

	_, err = flow.ExportCycleResults(ctx, 404)
	require.Error(t, err)
	assert.True(t, IsCycleNotFound(err))
}

func TestDeleteCycleRemovesBallots(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminCycleFlow()
	ctx := context.Background()

	alice, err := env.fixtures.CreateTestContender("alice", models.ContenderStatusActive)
	require.NoError(t, err)
	cycle, err := env.fixtures.CreateActiveCycle(3)
	require.NoError(t, err)
	_, err = env.fixtures.CreateTestVote(cycle.ID, apptesting.NewDeviceToken(), "Dana", "h1", []uint{alice.ID})
	require.NoError(t, err)

	require.NoError(t, flow.DeleteCycle(ctx, cycle.ID, testMetadata()))

	count, err := env.voteRepo.CountByCycle(ctx, cycle.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	err = flow.DeleteCycle(ctx, cycle.ID, testMetadata())
	require.Error(t, err)
	assert.True(t, IsCycleNotFound(err))
}
