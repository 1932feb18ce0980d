package businessflow

import (
	"context"
	"testing"

	"github.com/mizeapp/mize-backend/app/dto"
	"github.com/mizeapp/mize-backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (env *flowTestEnv) adminSettingsFlow() AdminSettingsFlow {
	return NewAdminSettingsFlow(env.appConfigRepo)
}

func TestSettingsRoundTrip(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminSettingsFlow()
	ctx := context.Background()

	resp, err := flow.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, resp.ShowLikeButton, "the like button is on by default")

	resp, err = flow.UpdateSettings(ctx, &dto.UpdateAppSettingsRequest{
		ShowLikeButton: utils.ToPtr(false),
	}, testMetadata())
	require.NoError(t, err)
	assert.False(t, resp.ShowLikeButton)

	resp, err = flow.GetSettings(ctx)
	require.NoError(t, err)
	assert.False(t, resp.ShowLikeButton, "the toggle persists")
}

func TestUpdateSettingsRequiresAField(t *testing.T) {
	env := newFlowTestEnv(t)
	flow := env.adminSettingsFlow()

	_, err := flow.UpdateSettings(context.Background(), &dto.UpdateAppSettingsRequest{}, testMetadata())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}
