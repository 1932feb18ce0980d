// Package services provides external service integrations and technical concerns like tokens and exports
package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"strings"
)

// FingerprintSignals are the client-reported characteristics that feed the
// device fingerprint. Raw signals are hashed immediately and never persisted.
type FingerprintSignals struct {
	UserAgent      string  `json:"userAgent"`
	Platform       string  `json:"platform"`
	Language       string  `json:"language"`
	TimezoneOffset float64 `json:"timezoneOffset"`
	ScreenWidth    float64 `json:"screenWidth"`
	ScreenHeight   float64 `json:"screenHeight"`
}

var fingerprintStringKeys = []string{"userAgent", "platform", "language"}
var fingerprintNumberKeys = []string{"timezoneOffset", "screenWidth", "screenHeight"}

// ValidateFingerprintSignals checks that the raw payload is structurally a
// fingerprint: all six keys present with the right primitive types. Values
// themselves are not judged.
func ValidateFingerprintSignals(raw map[string]any) bool {
	if raw == nil {
		return false
	}
	for _, key := range fingerprintStringKeys {
		v, ok := raw[key]
		if !ok {
			return false
		}
		if _, ok := v.(string); !ok {
			return false
		}
	}
	for _, key := range fingerprintNumberKeys {
		v, ok := raw[key]
		if !ok {
			return false
		}
		if !isJSONNumber(v) {
			return false
		}
	}
	return true
}

// ParseFingerprintSignals converts a validated raw payload into typed signals
func ParseFingerprintSignals(raw map[string]any) FingerprintSignals {
	return FingerprintSignals{
		UserAgent:      asString(raw["userAgent"]),
		Platform:       asString(raw["platform"]),
		Language:       asString(raw["language"]),
		TimezoneOffset: asNumber(raw["timezoneOffset"]),
		ScreenWidth:    asNumber(raw["screenWidth"]),
		ScreenHeight:   asNumber(raw["screenHeight"]),
	}
}

// normalizedFingerprint is the canonical form fed to the hash. Field order is
// fixed; changing it changes every stored hash.
type normalizedFingerprint struct {
	UserAgent      string `json:"userAgent"`
	Platform       string `json:"platform"`
	Language       string `json:"language"`
	TimezoneOffset int    `json:"timezoneOffset"`
	ScreenWidth    int    `json:"screenWidth"`
	ScreenHeight   int    `json:"screenHeight"`
}

// HashFingerprint normalizes the signals and returns the lowercase-hex SHA-256
// of their canonical serialization. Deterministic and unsalted so equal inputs
// from different requests collide on purpose.
//
// Normalization: user agent and platform are lowercased and trimmed, language
// is lowercased and cut at the first region subtag separator, the timezone
// offset passes through, and screen dimensions are rounded to the nearest
// hundred pixels so minor viewport differences map to one bucket.
func HashFingerprint(signals FingerprintSignals) string {
	language := strings.ToLower(signals.Language)
	if idx := strings.Index(language, "-"); idx >= 0 {
		language = language[:idx]
	}

	normalized := normalizedFingerprint{
		UserAgent:      strings.TrimSpace(strings.ToLower(signals.UserAgent)),
		Platform:       strings.TrimSpace(strings.ToLower(signals.Platform)),
		Language:       language,
		TimezoneOffset: int(signals.TimezoneOffset),
		ScreenWidth:    roundToHundred(signals.ScreenWidth),
		ScreenHeight:   roundToHundred(signals.ScreenHeight),
	}

	payload, _ := json.Marshal(normalized)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func roundToHundred(v float64) int {
	return int(math.Round(v/100.0)) * 100
}

func isJSONNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, json.Number:
		return true
	default:
		return false
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}
