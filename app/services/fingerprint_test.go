package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRawFingerprint() map[string]any {
	return map[string]any{
		"userAgent":      "Mozilla/5.0 (Macintosh)",
		"platform":       "MacIntel",
		"language":       "en-US",
		"timezoneOffset": float64(-210),
		"screenWidth":    float64(1512),
		"screenHeight":   float64(982),
	}
}

func TestValidateFingerprintSignals(t *testing.T) {
	t.Run("accepts a complete payload", func(t *testing.T) {
		assert.True(t, ValidateFingerprintSignals(validRawFingerprint()))
	})

	t.Run("rejects nil", func(t *testing.T) {
		assert.False(t, ValidateFingerprintSignals(nil))
	})

	t.Run("rejects missing keys", func(t *testing.T) {
		for _, key := range []string{"userAgent", "platform", "language", "timezoneOffset", "screenWidth", "screenHeight"} {
			raw := validRawFingerprint()
			delete(raw, key)
			assert.False(t, ValidateFingerprintSignals(raw), "missing %s should fail", key)
		}
	})

	t.Run("rejects wrong types", func(t *testing.T) {
		raw := validRawFingerprint()
		raw["userAgent"] = 42
		assert.False(t, ValidateFingerprintSignals(raw))

		raw = validRawFingerprint()
		raw["screenWidth"] = "1512"
		assert.False(t, ValidateFingerprintSignals(raw))
	})

	t.Run("values are not judged", func(t *testing.T) {
		raw := validRawFingerprint()
		raw["userAgent"] = ""
		raw["screenWidth"] = float64(-5)
		assert.True(t, ValidateFingerprintSignals(raw))
	})
}

func TestHashFingerprint(t *testing.T) {
	base := ParseFingerprintSignals(validRawFingerprint())

	t.Run("is deterministic", func(t *testing.T) {
		first := HashFingerprint(base)
		second := HashFingerprint(base)
		require.Len(t, first, 64)
		assert.Equal(t, first, second)
	})

	t.Run("case and whitespace do not matter", func(t *testing.T) {
		variant := base
		variant.UserAgent = "  MOZILLA/5.0 (MACINTOSH)  "
		variant.Platform = "macintel"
		assert.Equal(t, HashFingerprint(base), HashFingerprint(variant))
	})

	t.Run("language region subtag is dropped", func(t *testing.T) {
		variant := base
		variant.Language = "EN-gb"
		assert.Equal(t, HashFingerprint(base), HashFingerprint(variant))

		other := base
		other.Language = "fr-FR"
		assert.NotEqual(t, HashFingerprint(base), HashFingerprint(other))
	})

	t.Run("screen dimensions bucket to the nearest hundred", func(t *testing.T) {
		variant := base
		variant.ScreenWidth = 1480
		variant.ScreenHeight = 1020
		assert.Equal(t, HashFingerprint(base), HashFingerprint(variant))

		far := base
		far.ScreenWidth = 1920
		assert.NotEqual(t, HashFingerprint(base), HashFingerprint(far))
	})

	t.Run("timezone offset differentiates", func(t *testing.T) {
		variant := base
		variant.TimezoneOffset = 60
		assert.NotEqual(t, HashFingerprint(base), HashFingerprint(variant))
	})
}
