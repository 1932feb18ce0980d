package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/mizeapp/mize-backend/app/dto"
	"github.com/mizeapp/mize-backend/app/services"
	"github.com/mizeapp/mize-backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testTokenService(t *testing.T) services.TokenService {
	t.Helper()
	svc, err := services.NewTokenService(time.Hour, "mize", "mize-admin", "test-secret-key-that-is-long-enough!")
	require.NoError(t, err)
	return svc
}

func TestAdminLoginWithBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("open-sesame"), bcrypt.MinCost)
	require.NoError(t, err)

	tokenSvc := testTokenService(t)
	flow := NewAdminAuthFlow(string(hash), tokenSvc, time.Hour)

	resp, err := flow.Login(context.Background(), &dto.AdminLoginRequest{Password: "open-sesame"}, testMetadata())
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.True(t, resp.ExpiresAt.After(utils.UTCNow()))

	claims, err := tokenSvc.ValidateAdminToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.TokenType)
	assert.NotEmpty(t, claims.TokenID)
}

func TestAdminLoginWithPlaintextFallback(t *testing.T) {
	flow := NewAdminAuthFlow("dev-password", testTokenService(t), time.Hour)

	resp, err := flow.Login(context.Background(), &dto.AdminLoginRequest{Password: "dev-password"}, testMetadata())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestAdminLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("open-sesame"), bcrypt.MinCost)
	require.NoError(t, err)

	flow := NewAdminAuthFlow(string(hash), testTokenService(t), time.Hour)

	_, err = flow.Login(context.Background(), &dto.AdminLoginRequest{Password: "guess"}, testMetadata())
	require.Error(t, err)
	assert.True(t, IsIncorrectAdminPassword(err))

	// A bcrypt hash is never accepted as the password itself
	_, err = flow.Login(context.Background(), &dto.AdminLoginRequest{Password: string(hash)}, testMetadata())
	require.Error(t, err)
	assert.True(t, IsIncorrectAdminPassword(err))
}

func TestAdminTokenRejectsForgeries(t *testing.T) {
	tokenSvc := testTokenService(t)
	otherSvc, err := services.NewTokenService(time.Hour, "mize", "mize-admin", "a-different-secret-key-entirely-!!")
	require.NoError(t, err)

	flow := NewAdminAuthFlow("dev-password", otherSvc, time.Hour)
	resp, err := flow.Login(context.Background(), &dto.AdminLoginRequest{Password: "dev-password"}, testMetadata())
	require.NoError(t, err)

	_, err = tokenSvc.ValidateAdminToken(resp.Token)
	assert.ErrorIs(t, err, services.ErrTokenInvalid)

	_, err = tokenSvc.ValidateAdminToken("not.a.jwt")
	assert.ErrorIs(t, err, services.ErrTokenInvalid)
}
