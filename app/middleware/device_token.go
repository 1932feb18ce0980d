// Package middleware contains HTTP middleware functions for request processing
package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const (
	// DeviceTokenHeader carries the anonymous device identity in both directions
	DeviceTokenHeader = "X-Device-Token"

	// DeviceTokenKey is the locals key the resolved token is stored under
	DeviceTokenKey = "device_token"
)

// DeviceToken resolves the caller's anonymous device identity. A presented
// token is kept only if it is a well-formed version-4 UUID; anything else,
// including tokens of other UUID versions, is replaced with a fresh one. The
// resolved token is always echoed in the response header so the client can
// persist it. This middleware never rejects a request.
func DeviceToken() fiber.Handler {
	return func(c fiber.Ctx) error {
		token := c.Get(DeviceTokenHeader)
		if !isV4UUID(token) {
			token = uuid.New().String()
		}

		c.Locals(DeviceTokenKey, token)
		c.Set(DeviceTokenHeader, token)

		return c.Next()
	}
}

// ResolvedDeviceToken reads the token stored by DeviceToken
func ResolvedDeviceToken(c fiber.Ctx) string {
	token, _ := c.Locals(DeviceTokenKey).(string)
	return token
}

// isV4UUID checks RFC 4122 syntax plus the version and variant bits
func isV4UUID(s string) bool {
	if s == "" {
		return false
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return parsed.Version() == 4 && parsed.Variant() == uuid.RFC4122
}
