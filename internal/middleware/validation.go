package middleware

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// Field length limits matching database schema constraints.
const (
	MaxAdIDLen        = 36  // ads.id VARCHAR(36)
	MaxViewerIDLen    = 64  // viewers.viewer_id VARCHAR(64)
	MaxUserAgentLen   = 128 // claims.user_agent VARCHAR(128)
	MaxFingerprintLen = 128
)

var (
	// adIDRe matches ad identifiers: alphanumeric, dash, underscore (UUIDs
	// and legacy short IDs both pass).
	adIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	// viewerIDRe matches viewer IDs: hex SHA256 hashes or shorter hashed IDs.
	viewerIDRe = regexp.MustCompile(`^[0-9a-f]+$`)
	// fingerprintRe matches opaque client fingerprint tokens.
	fingerprintRe = regexp.MustCompile(`^[A-Za-z0-9+/=_.-]+$`)
)

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// ValidateAdID checks that an ad ID is well-formed and within DB limits.
func ValidateAdID(id string) (string, string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "adId is required"
	}
	if len(id) > MaxAdIDLen {
		return "", "adId must be at most 36 characters"
	}
	if !adIDRe.MatchString(id) {
		return "", "adId contains invalid characters"
	}
	return id, ""
}

// ValidateViewerID checks that a viewer ID is a valid hex hash.
func ValidateViewerID(id string) (string, string) {
	id = strings.TrimSpace(strings.ToLower(id))
	if id == "" {
		return "", "viewerId is required"
	}
	if len(id) > MaxViewerIDLen {
		return "", "viewerId must be at most 64 characters"
	}
	if !viewerIDRe.MatchString(id) {
		return "", "viewerId must be a hexadecimal hash"
	}
	return id, ""
}

// ValidateFingerprint trims and checks an optional fingerprint token.
// Empty input is allowed and passes through.
func ValidateFingerprint(fp string) (string, string) {
	fp = strings.TrimSpace(fp)
	if fp == "" {
		return "", ""
	}
	if len(fp) > MaxFingerprintLen {
		return "", "fingerprint must be at most 128 characters"
	}
	if !fingerprintRe.MatchString(fp) {
		return "", "fingerprint contains invalid characters"
	}
	return fp, ""
}

// ValidateUserAgent trims and truncates user agent to DB limits.
func ValidateUserAgent(ua string) string {
	ua = strings.TrimSpace(ua)
	if len(ua) > MaxUserAgentLen {
		ua = ua[:MaxUserAgentLen]
	}
	return ua
}
