package businessflow

import (
	"context"
	"testing"

	"github.com/mizeapp/mize-backend/app/dto"
	"github.com/mizeapp/mize-backend/models"
	apptesting "github.com/mizeapp/mize-backend/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (env *flowTestEnv) engagementFlow() EngagementFlow {
	return NewEngagementFlow(
		env.contenderRepo,
		env.loveRepo,
		env.guessRepo,
		env.cycleRepo,
		env.appConfigRepo,
		env.db.DB,
		nil,
		"demo-cloud",
	)
}

func TestGetPublicConfig(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.engagementFlow()
	ctx := context.Background()

	resp, err := flow.GetPublicConfig(ctx)
	require.NoError(t, err)
	assert.False(t, resp.HasActiveCycle)
	assert.Nil(t, resp.ActiveCycle)
	assert.Equal(t, "demo-cloud", resp.CloudName)
	assert.True(t, resp.ShowLikeButton, "settings default to showing the like button")

	cycle, err := env.fixtures.CreateActiveCycle(3)
	require.NoError(t, err)

	resp, err = flow.GetPublicConfig(ctx)
	require.NoError(t, err)
	assert.True(t, resp.HasActiveCycle)
	require.NotNil(t, resp.ActiveCycle)
	assert.Equal(t, cycle.ID, resp.ActiveCycle.ID)
	assert.Equal(t, 3, resp.ActiveCycle.MaxVotesPerUser)
}

func TestListContendersVisibility(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.engagementFlow()
	ctx := context.Background()

	active, err := env.fixtures.CreateTestContender("active", models.ContenderStatusActive)
	require.NoError(t, err)
	inactive, err := env.fixtures.CreateTestContender("inactive", models.ContenderStatusInactive)
	require.NoError(t, err)
	_, err = env.fixtures.CreateTestContender("hidden", models.ContenderStatusHidden)
	require.NoError(t, err)

	device := apptesting.NewDeviceToken()
	_, err = env.fixtures.CreateTestLove(active.ID, device, "hash-1")
	require.NoError(t, err)
	_, err = env.fixtures.CreateTestLove(active.ID, apptesting.NewDeviceToken(), "hash-2")
	require.NoError(t, err)

	resp, err := flow.ListContenders(ctx, device)
	require.NoError(t, err)
	require.Len(t, resp.Contenders, 2, "hidden contenders are not listed")

	byID := make(map[uint]dto.ContenderItem)
	for _, item := range resp.Contenders {
		byID[item.ID] = item
	}

	assert.EqualValues(t, 2, byID[active.ID].LoveCount)
	assert.True(t, byID[active.ID].IsLovedByUser)
	assert.EqualValues(t, 0, byID[inactive.ID].LoveCount)
	assert.False(t, byID[inactive.ID].IsLovedByUser)
}

func TestGetContenderHiddenIsNotFound(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.engagementFlow()
	ctx := context.Background()

	hidden, err := env.fixtures.CreateTestContender("hidden", models.ContenderStatusHidden)
	require.NoError(t, err)

	_, err = flow.GetContender(ctx, hidden.ID, apptesting.NewDeviceToken())
	require.Error(t, err)
	assert.True(t, IsContenderNotFound(err))

	_, err = flow.GetContender(ctx, 9999, apptesting.NewDeviceToken())
	require.Error(t, err)
	assert.True(t, IsContenderNotFound(err))
}

func TestToggleLove(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.engagementFlow()
	ctx := context.Background()

	contender, err := env.fixtures.CreateTestContender("alice", models.ContenderStatusActive)
	require.NoError(t, err)

	device := apptesting.NewDeviceToken()
	req := &dto.ToggleLoveRequest{Fingerprint: fingerprintFor("dana")}

	resp, err := flow.ToggleLove(ctx, contender.ID, req, device, testMetadata())
	require.NoError(t, err)
	assert.True(t, resp.Loved)
	assert.EqualValues(t, 1, resp.LoveCount)

	resp, err = flow.ToggleLove(ctx, contender.ID, req, device, testMetadata())
	require.NoError(t, err)
	assert.False(t, resp.Loved, "second toggle removes the love")
	assert.EqualValues(t, 0, resp.LoveCount)

	// Another device's love is independent
	resp, err = flow.ToggleLove(ctx, contender.ID, req, apptesting.NewDeviceToken(), testMetadata())
	require.NoError(t, err)
	assert.True(t, resp.Loved)
	assert.EqualValues(t, 1, resp.LoveCount)
}

func TestToggleLoveRejectsBadFingerprint(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.engagementFlow()
	ctx := context.Background()

	contender, err := env.fixtures.CreateTestContender("alice", models.ContenderStatusActive)
	require.NoError(t, err)

	_, err = flow.ToggleLove(ctx, contender.ID, &dto.ToggleLoveRequest{
		Fingerprint: map[string]any{"userAgent": "only"},
	}, apptesting.NewDeviceToken(), testMetadata())
	require.Error(t, err)
	assert.True(t, IsInvalidFingerprint(err))
}

func TestSubmitGuessAndWordAggregation(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.engagementFlow()
	ctx := context.Background()

	contender, err := env.fixtures.CreateTestContender("masked", models.ContenderStatusActive)
	require.NoError(t, err)

	submit := func(name, text string) {
		t.Helper()
		_, err := flow.SubmitGuess(ctx, contender.ID, &dto.SubmitGuessRequest{
			DisplayName: name,
			GuessText:   text,
			Fingerprint: fingerprintFor(name),
		}, apptesting.NewDeviceToken(), testMetadata())
		require.NoError(t, err)
	}

	submit("A", "Madonna")
	submit("B", "Madonna")
	submit("C", "  Madonna  ")
	submit("D", "Cher")

	// The same device may guess repeatedly
	repeat := apptesting.NewDeviceToken()
	_, err = flow.SubmitGuess(ctx, contender.ID, &dto.SubmitGuessRequest{
		DisplayName: "E",
		GuessText:   "Cher",
		Fingerprint: fingerprintFor("e"),
	}, repeat, testMetadata())
	require.NoError(t, err)

	detail, err := flow.GetContender(ctx, contender.ID, apptesting.NewDeviceToken())
	require.NoError(t, err)
	require.Len(t, detail.GuessWords, 2)

	assert.Equal(t, "Madonna", detail.GuessWords[0].Word)
	assert.EqualValues(t, 3, detail.GuessWords[0].Count)
	assert.Equal(t, "Cher", detail.GuessWords[1].Word)
	assert.EqualValues(t, 2, detail.GuessWords[1].Count)
}

func TestSubmitGuessValidation(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.engagementFlow()
	ctx := context.Background()

	contender, err := env.fixtures.CreateTestContender("masked", models.ContenderStatusActive)
	require.NoError(t, err)

	_, err = flow.SubmitGuess(ctx, contender.ID, &dto.SubmitGuessRequest{
		DisplayName: "Dana",
		GuessText:   "   ",
		Fingerprint: fingerprintFor("dana"),
	}, apptesting.NewDeviceToken(), testMetadata())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}
