package businessflow

import (
	"context"
	"testing"

	"github.com/mizeapp/mize-backend/app/dto"
	"github.com/mizeapp/mize-backend/models"
	apptesting "github.com/mizeapp/mize-backend/testing"
	"github.com/mizeapp/mize-backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (env *flowTestEnv) adminContenderFlow() AdminContenderFlow {
	return NewAdminContenderFlow(env.contenderRepo, env.loveRepo, env.guessRepo, env.voteRepo, env.db.DB)
}

func TestCreateContender(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminContenderFlow()
	ctx := context.Background()

	item, err := flow.CreateContender(ctx, &dto.CreateContenderRequest{
		Nickname:      "  The Fox  ",
		ImagePublicID: "contenders/fox",
		Videos:        []string{"v/intro"},
	}, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, "The Fox", item.Nickname)
	assert.Equal(t, "active", item.Status, "contenders default to active")
	assert.Equal(t, models.StringList{"v/intro"}, item.Videos)

	_, err = flow.CreateContender(ctx, &dto.CreateContenderRequest{
		Nickname:      "   ",
		ImagePublicID: "contenders/x",
	}, testMetadata())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	_, err = flow.CreateContender(ctx, &dto.CreateContenderRequest{
		Nickname:      "Y",
		ImagePublicID: "contenders/y",
		Status:        "retired",
	}, testMetadata())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestUpdateContenderPartialUpdate(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminContenderFlow()
	ctx := context.Background()

	contender, err := env.fixtures.CreateTestContender("fox", models.ContenderStatusActive)
	require.NoError(t, err)

	item, err := flow.UpdateContender(ctx, contender.ID, &dto.UpdateContenderRequest{
		Status: utils.ToPtr("hidden"),
	}, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, "hidden", item.Status)
	assert.Equal(t, "fox", item.Nickname, "untouched fields survive")

	_, err = flow.UpdateContender(ctx, 404, &dto.UpdateContenderRequest{
		Status: utils.ToPtr("active"),
	}, testMetadata())
	require.Error(t, err)
	assert.True(t, IsContenderNotFound(err))
}

func TestAdminListContendersIncludesHidden(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminContenderFlow()
	ctx := context.Background()

	visible, err := env.fixtures.CreateTestContender("visible", models.ContenderStatusActive)
	require.NoError(t, err)
	_, err = env.fixtures.CreateTestContender("hidden", models.ContenderStatusHidden)
	require.NoError(t, err)

	device := apptesting.NewDeviceToken()
	_, err = env.fixtures.CreateTestLove(visible.ID, device, "hash")
	require.NoError(t, err)
	_, err = env.fixtures.CreateTestGuess(visible.ID, "Dana", "Madonna", device)
	require.NoError(t, err)

	cycle, err := env.fixtures.CreateActiveCycle(3)
	require.NoError(t, err)
	_, err = env.fixtures.CreateTestVote(cycle.ID, device, "Dana", "hash", []uint{visible.ID})
	require.NoError(t, err)

	resp, err := flow.ListContenders(ctx)
	require.NoError(t, err)
	require.Len(t, resp.Contenders, 2, "admins see hidden contenders too")

	byID := make(map[uint]dto.AdminContenderItem)
	for _, item := range resp.Contenders {
		byID[item.ID] = item
	}
	assert.EqualValues(t, 1, byID[visible.ID].LoveCount)
	assert.EqualValues(t, 1, byID[visible.ID].GuessCount)
	assert.EqualValues(t, 1, byID[visible.ID].VoteCount)
}

func TestDeleteContenderCascades(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminContenderFlow()
	ctx := context.Background()

	contender, err := env.fixtures.CreateTestContender("fox", models.ContenderStatusActive)
	require.NoError(t, err)
	device := apptesting.NewDeviceToken()
	_, err = env.fixtures.CreateTestLove(contender.ID, device, "hash")
	require.NoError(t, err)
	_, err = env.fixtures.CreateTestGuess(contender.ID, "Dana", "Madonna", device)
	require.NoError(t, err)

	require.NoError(t, flow.DeleteContender(ctx, contender.ID, testMetadata()))

	loveCount, err := env.loveRepo.CountByContender(ctx, contender.ID)
	require.NoError(t, err)
	assert.Zero(t, loveCount)

	guesses, err := env.guessRepo.ListByContender(ctx, contender.ID)
	require.NoError(t, err)
	assert.Empty(t, guesses)

	err = flow.DeleteContender(ctx, contender.ID, testMetadata())
	require.Error(t, err)
	assert.True(t, IsContenderNotFound(err))
}

func TestGetContenderStats(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminContenderFlow()
	ctx := context.Background()

	contender, err := env.fixtures.CreateTestContender("fox", models.ContenderStatusActive)
	require.NoError(t, err)

	for _, text := range []string{"Madonna", "Madonna", "Cher"} {
		_, err = env.fixtures.CreateTestGuess(contender.ID, "Dana", text, apptesting.NewDeviceToken())
		require.NoError(t, err)
	}
	_, err = env.fixtures.CreateTestLove(contender.ID, apptesting.NewDeviceToken(), "hash")
	require.NoError(t, err)

	stats, err := flow.GetContenderStats(ctx, contender.ID)
	require.NoError(t, err)
	assert.Equal(t, contender.ID, stats.ContenderID)
	assert.EqualValues(t, 1, stats.LoveCount)
	assert.EqualValues(t, 3, stats.GuessCount)
	assert.EqualValues(t, 0, stats.VoteCount)
	require.Len(t, stats.GuessWords, 2)
	assert.Equal(t, "Madonna", stats.GuessWords[0].Word)
	assert.EqualValues(t, 2, stats.GuessWords[0].Count)
}

func TestUpdateAndDeleteGuess(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminContenderFlow()
	ctx := context.Background()

	contender, err := env.fixtures.CreateTestContender("fox", models.ContenderStatusActive)
	require.NoError(t, err)
	guess, err := env.fixtures.CreateTestGuess(contender.ID, "Dana", "Madona", apptesting.NewDeviceToken())
	require.NoError(t, err)

	item, err := flow.UpdateGuess(ctx, guess.ID, &dto.UpdateGuessRequest{
		GuessText: utils.ToPtr("  Madonna  "),
	}, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, "Madonna", item.GuessText)
	assert.Equal(t, "Dana", item.DisplayName)

	_, err = flow.UpdateGuess(ctx, guess.ID, &dto.UpdateGuessRequest{
		GuessText: utils.ToPtr("   "),
	}, testMetadata())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	require.NoError(t, flow.DeleteGuess(ctx, guess.ID, testMetadata()))

	err = flow.DeleteGuess(ctx, guess.ID, testMetadata())
	require.Error(t, err)
	assert.True(t, IsGuessNotFound(err))
}
