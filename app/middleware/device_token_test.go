package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deviceTokenTestApp() (*fiber.App, *string) {
	app := fiber.New()
	var resolved string
	app.Get("/", DeviceToken(), func(c fiber.Ctx) error {
		resolved = ResolvedDeviceToken(c)
		return c.SendString("ok")
	})
	return app, &resolved
}

func TestDeviceTokenEchoesValidToken(t *testing.T) {
	app, resolved := deviceTokenTestApp()

	token := uuid.New().String()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(DeviceTokenHeader, token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, token, resp.Header.Get(DeviceTokenHeader))
	assert.Equal(t, token, *resolved)
}

func TestDeviceTokenMintsWhenMissing(t *testing.T) {
	app, resolved := deviceTokenTestApp()

	req := httptest.NewRequest("GET", "/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	minted := resp.Header.Get(DeviceTokenHeader)
	require.NotEmpty(t, minted)
	assert.Equal(t, minted, *resolved)

	parsed, err := uuid.Parse(minted)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestDeviceTokenReplacesInvalidTokens(t *testing.T) {
	// A v1 UUID is syntactically valid but the wrong version
	v1 := "f47ac10b-58cc-1372-a567-0e02b2c3d479"

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-uuid"},
		{"truncated", "f47ac10b-58cc"},
		{"wrong version", v1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, resolved := deviceTokenTestApp()

			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set(DeviceTokenHeader, tt.token)

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, 200, resp.StatusCode, "invalid tokens are replaced, never rejected")
			replaced := resp.Header.Get(DeviceTokenHeader)
			assert.NotEqual(t, tt.token, replaced)
			assert.Equal(t, replaced, *resolved)

			parsed, err := uuid.Parse(replaced)
			require.NoError(t, err)
			assert.Equal(t, uuid.Version(4), parsed.Version())
		})
	}
}
